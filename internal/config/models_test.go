package config

import "testing"

func TestModelsConfig_Catalog(t *testing.T) {
	m := DefaultModelsConfig()

	tests := []struct {
		model                            string
		gateway, vision, image, direct bool
	}{
		{"google/gemini-2.5-flash", true, true, false, false},
		{"google/gemini-2.5-pro", true, true, false, false},
		{"google/gemini-2.5-flash-image-preview", true, false, true, false},
		{"openai/gpt-4o-mini", true, false, false, false},
		{"meta-llama/llama-3.3-70b-instruct:free", false, false, false, true},
		{"anthropic/claude-3.5-sonnet", false, false, false, true},
		{"auto-gateway", false, false, false, false},
		{"", false, false, false, false},
	}

	for _, tt := range tests {
		if got := m.IsGatewayModel(tt.model); got != tt.gateway {
			t.Errorf("IsGatewayModel(%q) = %v, want %v", tt.model, got, tt.gateway)
		}
		if got := m.IsVisionModel(tt.model); got != tt.vision {
			t.Errorf("IsVisionModel(%q) = %v, want %v", tt.model, got, tt.vision)
		}
		if got := m.IsImageModel(tt.model); got != tt.image {
			t.Errorf("IsImageModel(%q) = %v, want %v", tt.model, got, tt.image)
		}
		if got := m.IsDirectModel(tt.model); got != tt.direct {
			t.Errorf("IsDirectModel(%q) = %v, want %v", tt.model, got, tt.direct)
		}
		if got := m.IsKnownModel(tt.model); got != (tt.gateway || tt.direct) {
			t.Errorf("IsKnownModel(%q) = %v", tt.model, got)
		}
	}
}

func TestModelsConfig_DefaultsAreRunnable(t *testing.T) {
	m := DefaultModelsConfig()
	if !m.IsGatewayModel(m.DefaultTextModel) {
		t.Errorf("default text model %s must be a gateway model", m.DefaultTextModel)
	}
	if !m.IsVisionModel(m.DefaultVisionModel) || !m.IsGatewayModel(m.DefaultVisionModel) {
		t.Errorf("default vision model %s must be a multi-modal gateway model", m.DefaultVisionModel)
	}
	for _, im := range m.ImageModels {
		if !m.IsGatewayModel(im) {
			t.Errorf("image model %s must be served by the gateway", im)
		}
	}
}

func TestModelsConfig_SentinelProvider(t *testing.T) {
	m := DefaultModelsConfig()

	tests := []struct {
		model    string
		provider string
		ok       bool
	}{
		{"auto-gateway", "gateway", true},
		{"auto-lovable", "gateway", true},
		{"auto-direct", "direct", true},
		{"auto-openrouter", "direct", true},
		{"auto", "", false},
		{"google/gemini-2.5-flash", "", false},
	}

	for _, tt := range tests {
		provider, ok := m.SentinelProvider(tt.model)
		if ok != tt.ok || provider != tt.provider {
			t.Errorf("SentinelProvider(%q) = (%q, %v), want (%q, %v)", tt.model, provider, ok, tt.provider, tt.ok)
		}
	}
}

func TestRoutingConfig_OutputTokens(t *testing.T) {
	r := DefaultConfig().Routing
	n := func(v int) *int { return &v }

	tests := []struct {
		requested *int
		want      int
	}{
		{nil, 4096},
		{n(100), 100},
		{n(2048), 2048},
		{n(32768), 4096},
	}
	for _, tt := range tests {
		if got := r.OutputTokens(tt.requested); got != tt.want {
			t.Errorf("OutputTokens(%v) = %d, want %d", tt.requested, got, tt.want)
		}
	}

	r.MaxOutputTokens = 0
	if got := r.OutputTokens(n(32768)); got != 32768 {
		t.Errorf("uncapped OutputTokens = %d, want 32768", got)
	}
}

func TestModelsConfig_ValidateIntents(t *testing.T) {
	m := DefaultModelsConfig()
	m.Intents = map[string]IntentRoute{
		"coding":           {Keywords: []string{"rust"}, GatewayModel: "openai/gpt-5"},
		"file_analysis":    {DirectModel: "anthropic/claude-3.5-sonnet"},
		"image_generation": {Keywords: []string{"sketch"}},
	}
	if err := m.ValidateIntents(); err != nil {
		t.Fatalf("expected valid overrides, got %v", err)
	}

	m.Intents["file_analysis"] = IntentRoute{Keywords: []string{"pdf"}}
	if err := m.ValidateIntents(); err == nil {
		t.Fatal("expected keywords on file_analysis to be rejected")
	}
}
