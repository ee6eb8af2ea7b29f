package gateway

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/af-corp/nova-gateway/internal/config"
	"github.com/af-corp/nova-gateway/internal/httputil"
	"github.com/af-corp/nova-gateway/internal/router"
	"github.com/af-corp/nova-gateway/internal/types"
)

// Handler holds dependencies for the gateway HTTP handlers.
type Handler struct {
	pipeline      *Pipeline
	healthTracker *router.HealthTracker
	modelsCfg     func() *config.ModelsConfig
	cfg           func() *config.Config
	version       string
}

func NewHandler(pipeline *Pipeline, healthTracker *router.HealthTracker, modelsCfg func() *config.ModelsConfig, cfg func() *config.Config, version string) *Handler {
	return &Handler{
		pipeline:      pipeline,
		healthTracker: healthTracker,
		modelsCfg:     modelsCfg,
		cfg:           cfg,
		version:       version,
	}
}

// Search handles POST /search
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	reqID := httputil.RequestIDFromContext(r.Context())
	receivedAt := time.Now()

	if limit := h.cfg().Server.MaxBodyBytes; limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	defer r.Body.Close()

	var req types.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteRequestTooLargeError(w, reqID, "Request body too large")
			return
		}
		slog.Debug("invalid request body", "request_id", reqID, "error", err)
		httputil.WriteBadRequestError(w, reqID, InvalidRequestMessage)
		return
	}
	req.RequestID = reqID
	req.ReceivedAt = receivedAt

	resp, err := h.pipeline.Run(r.Context(), &req)
	if err != nil {
		status, msg := StatusFor(err)
		httputil.WriteError(w, reqID, status, msg)
		return
	}
	httputil.WriteJSON(w, reqID, http.StatusOK, resp)
}

type healthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Providers map[string]string `json:"providers"`
}

// Health handles GET /nova/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "healthy",
		Version:   h.version,
		Providers: map[string]string{},
	}
	if h.healthTracker != nil {
		for p, state := range h.healthTracker.Snapshot() {
			resp.Providers[string(p)] = state.String()
			if state != router.StateClosed {
				resp.Status = "degraded"
			}
		}
	}
	httputil.WriteJSON(w, httputil.RequestIDFromContext(r.Context()), http.StatusOK, resp)
}

type intentObject struct {
	Intent       types.Intent `json:"intent"`
	GatewayModel string       `json:"gateway_model,omitempty"`
	DirectModel  string       `json:"direct_model,omitempty"`
}

type modelListResponse struct {
	DefaultTextModel   string              `json:"default_text_model"`
	DefaultVisionModel string              `json:"default_vision_model"`
	GatewayModels      []string            `json:"gateway_models"`
	VisionModels       []string            `json:"vision_models"`
	ImageModels        []string            `json:"image_models"`
	DirectModels       []string            `json:"direct_models"`
	AutoSentinels      map[string][]string `json:"auto_sentinels"`
	Intents            []intentObject      `json:"intents"`
}

// ListModels handles GET /nova/v1/models
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	m := h.modelsCfg()

	var intents []intentObject
	for _, rule := range router.TableFromConfig(m) {
		intents = append(intents, intentObject{
			Intent:       rule.Intent,
			GatewayModel: rule.GatewayModel,
			DirectModel:  rule.DirectModel,
		})
	}

	httputil.WriteJSON(w, httputil.RequestIDFromContext(r.Context()), http.StatusOK, modelListResponse{
		DefaultTextModel:   m.DefaultTextModel,
		DefaultVisionModel: m.DefaultVisionModel,
		GatewayModels:      m.GatewayModels,
		VisionModels:       m.VisionModels,
		ImageModels:        m.ImageModels,
		DirectModels:       m.DirectModels,
		AutoSentinels:      m.AutoSentinels,
		Intents:            intents,
	})
}
