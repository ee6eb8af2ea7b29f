package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/af-corp/nova-gateway/internal/config"
	"github.com/af-corp/nova-gateway/internal/filter"
	"github.com/af-corp/nova-gateway/internal/prompt"
	"github.com/af-corp/nova-gateway/internal/router"
	"github.com/af-corp/nova-gateway/internal/telemetry"
	"github.com/af-corp/nova-gateway/internal/types"
	"github.com/af-corp/nova-gateway/internal/upstream"
)

// Pipeline turns one search request into one search response: validate,
// classify, resolve, filter, dispatch, augment, normalize.
type Pipeline struct {
	cfg         func() *config.Config
	modelsCfg   func() *config.ModelsConfig
	providers   func() *config.ProvidersConfig
	health      *router.HealthTracker
	filterChain *filter.Chain
	metrics     *telemetry.Metrics

	// httpClient is shared by upstream clients when set. Nil gives every
	// client its provider's configured timeout.
	httpClient *http.Client
}

func NewPipeline(cfg func() *config.Config, modelsCfg func() *config.ModelsConfig, providers func() *config.ProvidersConfig, health *router.HealthTracker, filterChain *filter.Chain, metrics *telemetry.Metrics) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		modelsCfg:   modelsCfg,
		providers:   providers,
		health:      health,
		filterChain: filterChain,
		metrics:     metrics,
	}
}

// WithHTTPClient makes every upstream client use c.
func (p *Pipeline) WithHTTPClient(c *http.Client) *Pipeline {
	p.httpClient = c
	return p
}

// trace carries what was decided so far, for logging and metrics.
type trace struct {
	intent   types.Intent
	decision types.RoutingDecision
}

// Run executes the request. Errors map to HTTP statuses through StatusFor.
func (p *Pipeline) Run(ctx context.Context, req *types.SearchRequest) (*types.SearchResponse, error) {
	start := time.Now()
	var tr trace

	resp, err := p.run(ctx, req, &tr)

	status, _ := StatusFor(err)
	duration := time.Since(start)
	if p.metrics != nil {
		p.metrics.RecordRequest(telemetry.RequestLabels{
			Intent:         string(tr.intent),
			Model:          tr.decision.EffectiveModel,
			Provider:       string(tr.decision.Provider),
			Status:         strconv.Itoa(status),
			FallbackReason: tr.decision.FallbackReason,
			DurationMs:     float64(duration.Milliseconds()),
		})
	}

	if err != nil {
		slog.Warn("request failed",
			"request_id", req.RequestID,
			"intent", tr.intent,
			"model", tr.decision.EffectiveModel,
			"provider", tr.decision.Provider,
			"status_code", status,
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
		return nil, err
	}

	slog.Info("request completed",
		"request_id", req.RequestID,
		"intent", tr.intent,
		"model_requested", req.Model,
		"model_served", tr.decision.EffectiveModel,
		"provider", tr.decision.Provider,
		"fallback", tr.decision.FallbackApplied,
		"fallback_reason", tr.decision.FallbackReason,
		"auto_mode", tr.decision.AutoModeApplied,
		"sources", len(resp.Sources),
		"images", len(resp.Images),
		"duration_ms", duration.Milliseconds(),
		"status_code", http.StatusOK,
	)
	return resp, nil
}

func (p *Pipeline) run(ctx context.Context, req *types.SearchRequest, tr *trace) (*types.SearchResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Fields: types.InvalidFields(err), Err: err}
	}

	cfg := p.cfg()
	models := p.modelsCfg()
	providers := p.providers()

	gatewayCfg := providers.Get(config.ProviderGateway)
	if gatewayCfg.APIKey == "" {
		return nil, &ConfigurationError{Message: "AI gateway API key is not configured"}
	}
	directCfg := providers.Get(config.ProviderDirect)

	rule := router.TableFromConfig(models).Classify(req.Query, req.Attachments)
	tr.intent = rule.Intent

	hasImages := req.HasImages()
	avail := router.Availability{
		DirectCredential: req.PrimaryKey() != "" || directCfg.APIKey != "",
		DirectHealthy:    p.health == nil || p.health.IsAvailable(types.ProviderDirect),
	}
	tr.decision = router.ResolveModel(models, rule, req.Model, hasImages, avail)

	routed := &types.RoutedRequest{Search: req, Intent: rule.Intent, Decision: tr.decision}
	if blocked := p.runFilters(ctx, routed); blocked != nil {
		return nil, &FilterBlockedError{Result: *blocked}
	}

	// The breaker may have tripped, or handed its probe to another request,
	// since the decision was made.
	if tr.decision.Provider == types.ProviderDirect && p.health != nil && !p.health.Allow(types.ProviderDirect) {
		avail.DirectHealthy = false
		tr.decision = router.ResolveModel(models, rule, req.Model, hasImages, avail)
		slog.Info("direct provider unavailable, rerouted",
			"request_id", req.RequestID,
			"model_served", tr.decision.EffectiveModel,
			"fallback_reason", tr.decision.FallbackReason,
		)
	}

	retry := upstream.RetryPolicy{MaxRetries: cfg.Routing.MaxRetries, Backoff: cfg.Routing.RetryBackoff}
	gatewayClient := upstream.NewChatClient(types.ProviderGateway, gatewayCfg, p.httpClient, retry)

	if rule.Intent == types.IntentImageGeneration {
		return p.generateImage(ctx, req, gatewayClient, tr)
	}

	chat := gatewayClient
	apiKey := ""
	if tr.decision.Provider == types.ProviderDirect {
		chat = upstream.NewChatClient(types.ProviderDirect, directCfg, p.httpClient, retry)
		apiKey = req.PrimaryKey()
	}
	chatReq := upstream.ChatRequest{
		Model:       tr.decision.EffectiveModel,
		Messages:    prompt.BuildMessages(req, rule.Intent, tr.decision.EffectiveModel).List(),
		MaxTokens:   cfg.Routing.OutputTokens(req.MaxTokens),
		Temperature: req.Temperature,
		APIKey:      apiKey,
	}

	searchClient := upstream.NewSearchClient(providers.Get(config.ProviderSearch), p.httpClient)
	searchKey := req.SecondaryKey()
	doSearch := cfg.Routing.SearchEnabled && (searchKey != "" || searchClient.HasKey())

	var (
		completion *types.UpstreamResponse
		found      *upstream.SearchResult
	)
	g, gctx := errgroup.WithContext(ctx)

	if doSearch {
		g.Go(func() error {
			found = p.augmentWithSearch(gctx, searchClient, req, searchKey)
			return nil
		})
	} else {
		p.recordSearch(telemetry.SearchSkipped)
	}

	g.Go(func() error {
		resp, err := p.complete(gctx, chat, chatReq)
		if err != nil {
			return err
		}
		completion = resp
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("chat completion via %s: %w", chat.Provider(), err)
	}

	summary := prompt.Normalize(completion.Text)
	if summary == "" {
		summary = upstream.EmptyCompletion
	}

	resp := &types.SearchResponse{
		Summary: summary,
		Query:   req.Query,
		Meta:    types.MetaFrom(rule.Intent, tr.decision),
	}
	if found != nil {
		resp.Sources = found.Sources
		resp.Images = found.Images
	}
	return resp, nil
}

// runFilters runs the content filters and returns the blocking result, if any.
func (p *Pipeline) runFilters(ctx context.Context, routed *types.RoutedRequest) *filter.Result {
	results, blocked := p.filterChain.Run(ctx, routed)
	if blocked != nil {
		slog.Warn("request blocked by filter",
			"request_id", routed.Search.RequestID,
			"filter", blocked.FilterName,
			"detections", blocked.Detections,
			"score", blocked.Score,
		)
		if p.metrics != nil {
			p.metrics.RecordFilterAction(blocked.FilterName, string(blocked.Action))
		}
		return blocked
	}
	for _, fr := range results {
		if fr.Action == filter.ActionFlag {
			slog.Info("request flagged by filter",
				"request_id", routed.Search.RequestID,
				"filter", fr.FilterName,
				"score", fr.Score,
			)
			if p.metrics != nil {
				p.metrics.RecordFilterAction(fr.FilterName, string(fr.Action))
			}
		}
	}
	return nil
}

func (p *Pipeline) generateImage(ctx context.Context, req *types.SearchRequest, client *upstream.ChatClient, tr *trace) (*types.SearchResponse, error) {
	start := time.Now()
	out, err := client.GenerateImage(ctx, req.Query, tr.decision.EffectiveModel)
	p.recordUpstream(client.Provider(), start, false, err)
	if err != nil {
		return nil, fmt.Errorf("generate image: %w", err)
	}

	meta := types.MetaFrom(tr.intent, tr.decision)
	meta.GeneratedImages = true
	return &types.SearchResponse{
		Summary: out.Text,
		Query:   req.Query,
		Images:  out.GeneratedImageURLs,
		Meta:    meta,
	}, nil
}

func (p *Pipeline) complete(ctx context.Context, client *upstream.ChatClient, req upstream.ChatRequest) (*types.UpstreamResponse, error) {
	start := time.Now()
	resp, err := client.Complete(ctx, req)
	p.recordUpstream(client.Provider(), start, req.APIKey != "", err)
	return resp, err
}

// augmentWithSearch fetches web sources for the query. Failures are logged
// and yield nil; they never fail the request.
func (p *Pipeline) augmentWithSearch(ctx context.Context, client *upstream.SearchClient, req *types.SearchRequest, apiKey string) *upstream.SearchResult {
	start := time.Now()
	res, err := client.Search(ctx, req.Query, apiKey)
	if err != nil && ctx.Err() != nil {
		slog.Debug("search augmentation cancelled",
			"request_id", req.RequestID,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}
	if err != nil {
		slog.Warn("search augmentation failed",
			"request_id", req.RequestID,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		p.recordSearch(telemetry.SearchError)
		return nil
	}
	p.recordSearch(telemetry.SearchOK)
	return res
}

// recordUpstream updates the provider's breaker and upstream metrics.
// A provider that answered with a client error is healthy, as is a 429 on a
// caller-supplied key.
func (p *Pipeline) recordUpstream(provider types.Provider, start time.Time, callerKey bool, err error) {
	status := ""
	healthy := err == nil
	var ue *upstream.Error
	switch {
	case err == nil:
	case errors.As(err, &ue):
		status = strconv.Itoa(ue.StatusCode)
		healthy = !ue.Retryable() || (callerKey && ue.StatusCode == http.StatusTooManyRequests)
	default:
		status = "transport"
	}

	if p.health != nil {
		if healthy {
			p.health.RecordSuccess(provider)
		} else {
			p.health.RecordFailure(provider)
		}
	}
	if p.metrics != nil {
		p.metrics.RecordUpstream(string(provider), status, float64(time.Since(start).Milliseconds()))
	}
}

func (p *Pipeline) recordSearch(result string) {
	if p.metrics != nil {
		p.metrics.RecordSearch(result)
	}
}
