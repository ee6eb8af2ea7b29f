package types

// RoutingDecision is the provider and model chosen for a request.
type RoutingDecision struct {
	EffectiveModel  string   `json:"effective_model"`
	Provider        Provider `json:"provider"`
	FallbackApplied bool     `json:"fallback_applied"`
	AutoModeApplied bool     `json:"auto_mode_applied"`
	FallbackReason  string   `json:"fallback_reason,omitempty"`
}

// UpstreamResponse is the normalized result of a single upstream call.
type UpstreamResponse struct {
	Text               string
	GeneratedImageURLs []string
	Meta               RoutingDecision
}

// SearchResponse is the body returned for a successful POST /search.
// Images and Sources use omitzero so that an empty but present list
// survives encoding while a nil list is dropped.
type SearchResponse struct {
	Summary string   `json:"summary"`
	Query   string   `json:"query"`
	Images  []string `json:"images,omitzero"`
	Sources []Source `json:"sources,omitzero"`
	Meta    Meta     `json:"meta"`
}

// Source is a single web-search citation.
type Source struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Domain  string `json:"domain"`
}

type Meta struct {
	Model           string `json:"model"`
	FallbackUsed    bool   `json:"fallbackUsed"`
	IsAutoMode      bool   `json:"isAutoMode"`
	GeneratedImages bool   `json:"generatedImages,omitempty"`
	Intent          Intent `json:"intent,omitempty"`
	Provider        string `json:"provider,omitempty"`
}

// MetaFrom builds response metadata from a routing decision.
func MetaFrom(intent Intent, d RoutingDecision) Meta {
	return Meta{
		Model:        d.EffectiveModel,
		FallbackUsed: d.FallbackApplied,
		IsAutoMode:   d.AutoModeApplied,
		Intent:       intent,
		Provider:     string(d.Provider),
	}
}
