package router

import (
	"github.com/af-corp/nova-gateway/internal/config"
	"github.com/af-corp/nova-gateway/internal/types"
)

// Fallback reasons recorded on RoutingDecision and in metrics.
const (
	ReasonUnknownModel      = "unknown_model"
	ReasonDirectNoKey       = "direct_credential_missing"
	ReasonDirectUnhealthy   = "direct_unhealthy"
	ReasonDirectImages      = "direct_with_images"
	ReasonVisionRequired    = "vision_required"
	ReasonImageModelMissing = "image_model_required"
)

// Availability describes which upstream paths can serve a request right now.
type Availability struct {
	DirectCredential bool
	DirectHealthy    bool
}

// DirectUsable reports whether the direct provider may be chosen at all.
func (a Availability) DirectUsable() bool {
	return a.DirectCredential && a.DirectHealthy
}

// ResolveModel turns the requested model into a runnable model and provider.
// It performs auto-sentinel substitution, then the image-generation and
// provider decisions. The returned model is never a sentinel and is always
// in the catalog of the returned provider.
func ResolveModel(models *config.ModelsConfig, rule IntentRule, requested string, hasImages bool, avail Availability) types.RoutingDecision {
	var d types.RoutingDecision

	model := requested
	if model == "" {
		model = models.DefaultTextModel
	}
	if p, ok := models.SentinelProvider(model); ok {
		provider, _ := types.ParseProvider(p)
		model = rule.SuggestedModel(provider)
		d.AutoModeApplied = true
	}

	if rule.Intent == types.IntentImageGeneration {
		if !models.IsImageModel(model) {
			if requested != "" && !d.AutoModeApplied {
				d.FallbackApplied = true
				d.FallbackReason = ReasonImageModelMissing
			}
			model = imageModel(models, rule)
		}
		d.EffectiveModel = model
		d.Provider = types.ProviderGateway
		return d
	}

	decided := DecideProvider(models, model, hasImages, avail)
	d.EffectiveModel = decided.EffectiveModel
	d.Provider = decided.Provider
	if decided.FallbackApplied {
		d.FallbackApplied = true
		d.FallbackReason = decided.FallbackReason
	}
	return d
}

// DecideProvider picks the provider for a concrete (non-sentinel) model and
// applies the allow-list fallback rules. It performs no substitution of auto
// sentinels; those fall through to the default model like any unknown id.
func DecideProvider(models *config.ModelsConfig, model string, hasImages bool, avail Availability) types.RoutingDecision {
	d := types.RoutingDecision{EffectiveModel: model, Provider: types.ProviderGateway}

	switch {
	case models.IsDirectModel(model) && !hasImages && avail.DirectUsable():
		d.Provider = types.ProviderDirect
		return d
	case models.IsGatewayModel(model):
	default:
		d.FallbackApplied = true
		d.FallbackReason = fallbackReason(models, model, hasImages, avail)
		d.EffectiveModel = models.DefaultTextModel
		if hasImages {
			d.EffectiveModel = models.DefaultVisionModel
		}
	}

	if hasImages && !models.IsVisionModel(d.EffectiveModel) {
		d.EffectiveModel = models.DefaultVisionModel
		d.FallbackApplied = true
		if d.FallbackReason == "" {
			d.FallbackReason = ReasonVisionRequired
		}
	}
	return d
}

func fallbackReason(models *config.ModelsConfig, model string, hasImages bool, avail Availability) string {
	if !models.IsKnownModel(model) {
		return ReasonUnknownModel
	}
	switch {
	case hasImages:
		return ReasonDirectImages
	case !avail.DirectCredential:
		return ReasonDirectNoKey
	default:
		return ReasonDirectUnhealthy
	}
}

func imageModel(models *config.ModelsConfig, rule IntentRule) string {
	if models.IsImageModel(rule.GatewayModel) {
		return rule.GatewayModel
	}
	if len(models.ImageModels) > 0 {
		return models.ImageModels[0]
	}
	return rule.GatewayModel
}
