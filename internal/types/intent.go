package types

import "slices"

// Intent is the classified purpose of a search request.
type Intent string

const (
	IntentImageGeneration Intent = "image_generation"
	IntentVision          Intent = "vision"
	IntentFileAnalysis    Intent = "file_analysis"
	IntentCoding          Intent = "coding"
	IntentReasoning       Intent = "reasoning"
	IntentPlainText       Intent = "plain_text"
)

// Intents lists every intent in classification priority order.
var Intents = []Intent{
	IntentImageGeneration,
	IntentVision,
	IntentFileAnalysis,
	IntentCoding,
	IntentReasoning,
	IntentPlainText,
}

// ReadsAttachments reports whether the intent is driven by attached content.
func (i Intent) ReadsAttachments() bool {
	return i == IntentVision || i == IntentFileAnalysis
}

func ParseIntent(s string) (Intent, bool) {
	if !slices.Contains(Intents, Intent(s)) {
		return "", false
	}
	return Intent(s), true
}

// Provider is the abstract upstream that serves a chat completion.
type Provider string

const (
	ProviderGateway Provider = "gateway"
	ProviderDirect  Provider = "direct"
)

func ParseProvider(s string) (Provider, bool) {
	switch Provider(s) {
	case ProviderGateway, ProviderDirect:
		return Provider(s), true
	default:
		return "", false
	}
}
