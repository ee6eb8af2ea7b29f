package types

import "testing"

func TestIntentReadsAttachments(t *testing.T) {
	tests := []struct {
		i     Intent
		reads bool
	}{
		{IntentVision, true},
		{IntentFileAnalysis, true},
		{IntentImageGeneration, false},
		{IntentCoding, false},
		{IntentPlainText, false},
	}

	for _, tt := range tests {
		if got := tt.i.ReadsAttachments(); got != tt.reads {
			t.Errorf("%s.ReadsAttachments() = %v, want %v", tt.i, got, tt.reads)
		}
	}
}

func TestParseIntent(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"image_generation", true},
		{"vision", true},
		{"file_analysis", true},
		{"coding", true},
		{"reasoning", true},
		{"plain_text", true},
		{"PLAIN_TEXT", false},
		{"", false},
	}

	for _, tt := range tests {
		_, ok := ParseIntent(tt.input)
		if ok != tt.valid {
			t.Errorf("ParseIntent(%q) valid = %v, want %v", tt.input, ok, tt.valid)
		}
	}
}

func TestParseProvider(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"gateway", true},
		{"direct", true},
		{"openai", false},
		{"", false},
	}

	for _, tt := range tests {
		_, ok := ParseProvider(tt.input)
		if ok != tt.valid {
			t.Errorf("ParseProvider(%q) valid = %v, want %v", tt.input, ok, tt.valid)
		}
	}
}
