package config

import (
	"fmt"
	"slices"
	"sort"

	"github.com/af-corp/nova-gateway/internal/types"
)

// ModelsConfig is the model catalog and routing table loaded from models.yaml.
type ModelsConfig struct {
	DefaultTextModel   string   `yaml:"default_text_model"`
	DefaultVisionModel string   `yaml:"default_vision_model"`
	GatewayModels      []string `yaml:"gateway_models"`
	VisionModels       []string `yaml:"vision_models"`
	ImageModels        []string `yaml:"image_models"`
	DirectModels       []string `yaml:"direct_models"`

	// AutoSentinels maps a provider name ("gateway" or "direct") to the
	// model identifiers that request automatic selection for it.
	AutoSentinels map[string][]string `yaml:"auto_sentinels"`

	// Intents overrides the built-in intent table, keyed by intent name.
	Intents map[string]IntentRoute `yaml:"intents,omitempty"`
}

// IntentRoute holds the keywords and suggested models for one intent.
// Empty fields keep the built-in values.
type IntentRoute struct {
	Keywords     []string `yaml:"keywords,omitempty"`
	GatewayModel string   `yaml:"gateway_model,omitempty"`
	DirectModel  string   `yaml:"direct_model,omitempty"`
}

func DefaultModelsConfig() *ModelsConfig {
	return &ModelsConfig{
		DefaultTextModel:   "google/gemini-2.5-flash",
		DefaultVisionModel: "google/gemini-2.5-pro",
		GatewayModels: []string{
			"openai/gpt-4o-mini",
			"openai/gpt-4o",
			"openai/gpt-5",
			"openai/gpt-5-mini",
			"google/gemini-2.5-pro",
			"google/gemini-2.5-flash",
			"google/gemini-2.5-flash-lite",
			"google/gemini-2.5-flash-image-preview",
		},
		VisionModels: []string{
			"openai/gpt-4o",
			"openai/gpt-5",
			"google/gemini-2.5-pro",
			"google/gemini-2.5-flash",
		},
		ImageModels: []string{
			"google/gemini-2.5-flash-image-preview",
		},
		DirectModels: []string{
			"anthropic/claude-3.5-sonnet",
			"deepseek/deepseek-chat-v3.1:free",
			"google/gemini-2.0-flash-exp:free",
			"meta-llama/llama-3.3-70b-instruct:free",
			"mistralai/mistral-7b-instruct:free",
			"microsoft/phi-3-medium-128k-instruct:free",
			"qwen/qwen-2.5-72b-instruct:free",
			"openai/gpt-4-turbo",
		},
		AutoSentinels: map[string][]string{
			"gateway": {"auto-gateway", "auto-lovable"},
			"direct":  {"auto-direct", "auto-openrouter"},
		},
	}
}

func (m *ModelsConfig) IsGatewayModel(model string) bool { return slices.Contains(m.GatewayModels, model) }
func (m *ModelsConfig) IsVisionModel(model string) bool  { return slices.Contains(m.VisionModels, model) }
func (m *ModelsConfig) IsImageModel(model string) bool   { return slices.Contains(m.ImageModels, model) }
func (m *ModelsConfig) IsDirectModel(model string) bool  { return slices.Contains(m.DirectModels, model) }

// IsKnownModel reports whether model belongs to either provider's catalog.
func (m *ModelsConfig) IsKnownModel(model string) bool {
	return m.IsGatewayModel(model) || m.IsDirectModel(model)
}

// SentinelProvider returns the provider name an auto sentinel selects for.
func (m *ModelsConfig) SentinelProvider(model string) (string, bool) {
	for provider, sentinels := range m.AutoSentinels {
		if slices.Contains(sentinels, model) {
			return provider, true
		}
	}
	return "", false
}

// ValidateIntents rejects intent overrides the classifier cannot apply:
// unknown intent names, and keywords on attachment-driven intents or on the
// plain_text catch-all.
func (m *ModelsConfig) ValidateIntents() error {
	names := make([]string, 0, len(m.Intents))
	for name := range m.Intents {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		intent, ok := types.ParseIntent(name)
		if !ok {
			return fmt.Errorf("intents: unknown intent %q", name)
		}
		if len(m.Intents[name].Keywords) > 0 && (intent.ReadsAttachments() || intent == types.IntentPlainText) {
			return fmt.Errorf("intents: %s does not take keywords", name)
		}
	}
	return nil
}
