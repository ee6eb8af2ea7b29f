package prompt

import (
	"strings"
	"testing"
)

var (
	run50 = "The quick brown fox jumps over the lazy dog again." // 50 chars
	run60 = "Repeated paragraphs are a known failure mode for some models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"trim", "  hello world \n", "hello world"},
		{"begin of sentence", "<|begin▁of▁sentence|>Hello", "Hello"},
		{"full width", "<｜begin▁of▁sentence｜>Hi<｜end▁of▁sentence｜>", "Hi"},
		{"llama markers", "<|begin_of_text|>Answer<|end_of_text|>", "Answer"},
		{"tokens then whitespace", "<|end▁of▁sentence|>  text  <|end▁of▁sentence|>", "text"},
		{"short repeat kept", "abcabcabc", "abcabcabc"},
		{"repeat of 50 collapsed", run50 + run50, run50},
		{"many copies collapsed", run60 + run60 + run60 + run60, run60},
		{"repeat with prefix", "Intro: " + run60 + run60 + " end", "Intro: " + run60 + " end"},
		{"repeat across lines kept", run60 + "\n" + run60, run60 + "\n" + run60},
		{"repeat within line only", run60 + run60 + "\n" + run60, run60 + "\n" + run60},
		{"49 char unit kept", run50[:49] + run50[:49], run50[:49] + run50[:49]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"plain answer",
		run50 + run50,
		"<|begin_of_text|>" + run60 + run60 + "<|end_of_text|>",
		// Stripping a token exposes a new repeat.
		run60 + "<|end_of_text|>" + run60,
		// Trimming exposes a token.
		" <|end_of_text|> x",
		strings.Repeat("ab", 200),
		strings.Repeat("0123456789", 30),
		"x" + strings.Repeat(run50+"-", 3),
		strings.Repeat("日本語のテキストを繰り返します。", 10),
		"<|begin<|end_of_text|>_of_text|>leftover",
	}

	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q:\n once  = %q\n twice = %q", in, once, twice)
		}
	}
}

func TestCollapseRepeats_ShortestUnitWins(t *testing.T) {
	unit := strings.Repeat("ab", 25) // 50 chars, also a repeat of "ab"
	got := CollapseRepeats(unit+unit+unit, MinRepeatRun)
	if got != unit {
		t.Errorf("expected a single 50-char unit, got %d chars", len(got))
	}
}

func TestCollapseRepeats_SmallInputUnchanged(t *testing.T) {
	if got := CollapseRepeats("short", MinRepeatRun); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := CollapseRepeats("aaaa", 0); got != "aaaa" {
		t.Errorf("minLen 0 should disable collapsing, got %q", got)
	}
}
