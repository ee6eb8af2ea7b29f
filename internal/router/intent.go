package router

import (
	"slices"
	"strings"

	"github.com/af-corp/nova-gateway/internal/config"
	"github.com/af-corp/nova-gateway/internal/types"
)

// IntentRule is one row of the classification table. Keyword rules match a
// case-insensitive substring of the query; attachment rules match when any
// attachment satisfies Attachment.
type IntentRule struct {
	Intent       types.Intent
	Keywords     []string
	Attachment   func(types.Attachment) bool
	GatewayModel string
	DirectModel  string
}

// Matches reports whether the rule applies. lowerQuery must already be
// lower-cased.
func (r IntentRule) Matches(lowerQuery string, attachments []types.Attachment) bool {
	if r.Attachment != nil {
		return slices.ContainsFunc(attachments, r.Attachment)
	}
	for _, kw := range r.Keywords {
		if kw != "" && strings.Contains(lowerQuery, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// SuggestedModel returns the rule's model for the given provider.
func (r IntentRule) SuggestedModel(p types.Provider) string {
	if p == types.ProviderDirect {
		return r.DirectModel
	}
	return r.GatewayModel
}

// IntentTable is an ordered rule list. The first matching rule wins and the
// PlainText row is the catch-all.
type IntentTable []IntentRule

// DefaultIntentTable returns the built-in classification rules.
func DefaultIntentTable() IntentTable {
	return IntentTable{
		{
			Intent: types.IntentImageGeneration,
			Keywords: []string{
				"generate image", "create image", "make image", "draw",
				"make a picture", "design", "illustrate", "visualize",
				"picture of", "image of", "generate a photo", "create a photo",
				"show me a picture", "draw me",
			},
			GatewayModel: "google/gemini-2.5-flash-image-preview",
			DirectModel:  "google/gemini-2.5-flash-image-preview",
		},
		{
			Intent:       types.IntentVision,
			Attachment:   types.Attachment.IsImage,
			GatewayModel: "google/gemini-2.5-pro",
			DirectModel:  "google/gemini-2.0-flash-exp:free",
		},
		{
			Intent:       types.IntentFileAnalysis,
			Attachment:   types.Attachment.IsDocument,
			GatewayModel: "google/gemini-2.5-pro",
			DirectModel:  "anthropic/claude-3.5-sonnet",
		},
		{
			Intent: types.IntentCoding,
			Keywords: []string{
				"code", "program", "function", "debug", "algorithm",
				"javascript", "python", "typescript",
			},
			GatewayModel: "openai/gpt-5",
			DirectModel:  "deepseek/deepseek-chat-v3.1:free",
		},
		{
			Intent: types.IntentReasoning,
			Keywords: []string{
				"analyze", "explain", "compare", "why", "how", "reasoning", "logic",
			},
			GatewayModel: "openai/gpt-5",
			DirectModel:  "anthropic/claude-3.5-sonnet",
		},
		{
			Intent:       types.IntentPlainText,
			GatewayModel: "google/gemini-2.5-flash",
			DirectModel:  "meta-llama/llama-3.3-70b-instruct:free",
		},
	}
}

// TableFromConfig applies the intents section of models.yaml on top of the
// built-in table. Unknown intent names are ignored; empty fields keep the
// built-in values. Attachment-driven rules never take keywords.
func TableFromConfig(m *config.ModelsConfig) IntentTable {
	table := DefaultIntentTable()
	if m == nil {
		return table
	}
	for i, rule := range table {
		route, ok := m.Intents[string(rule.Intent)]
		if !ok {
			continue
		}
		if len(route.Keywords) > 0 && rule.Attachment == nil && rule.Intent != types.IntentPlainText {
			table[i].Keywords = slices.Clone(route.Keywords)
		}
		if route.GatewayModel != "" {
			table[i].GatewayModel = route.GatewayModel
		}
		if route.DirectModel != "" {
			table[i].DirectModel = route.DirectModel
		}
	}
	return table
}

// Classify returns the first rule that matches the request.
func (t IntentTable) Classify(query string, attachments []types.Attachment) IntentRule {
	q := strings.ToLower(query)
	for _, rule := range t {
		if rule.Intent == types.IntentPlainText {
			continue
		}
		if rule.Matches(q, attachments) {
			return rule
		}
	}
	return t.Lookup(types.IntentPlainText)
}

// Lookup returns the rule for an intent, or a bare rule when the table has none.
func (t IntentTable) Lookup(intent types.Intent) IntentRule {
	for _, rule := range t {
		if rule.Intent == intent {
			return rule
		}
	}
	return IntentRule{Intent: intent}
}
