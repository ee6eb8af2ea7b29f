package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/af-corp/nova-gateway/internal/config"
	"github.com/af-corp/nova-gateway/internal/gateway"
	"github.com/af-corp/nova-gateway/internal/router"
)

func testRouter() http.Handler {
	cfg := config.DefaultConfig()
	models := config.DefaultModelsConfig()
	providers := &config.ProvidersConfig{}
	health := router.NewHealthTracker(5, time.Second)

	pipeline := gateway.NewPipeline(
		func() *config.Config { return cfg },
		func() *config.ModelsConfig { return models },
		func() *config.ProvidersConfig { return providers },
		health, nil, nil,
	)
	return newRouter(gateway.NewHandler(pipeline, health,
		func() *config.ModelsConfig { return models },
		func() *config.Config { return cfg },
		"test",
	))
}

func TestRouter(t *testing.T) {
	r := testRouter()

	tests := []struct {
		method, path, body string
		wantStatus         int
	}{
		{http.MethodOptions, "/search", "", http.StatusNoContent},
		{http.MethodOptions, "/functions/v1/search", "", http.StatusNoContent},
		{http.MethodGet, "/nova/v1/health", "", http.StatusOK},
		{http.MethodGet, "/nova/v1/models", "", http.StatusOK},
		{http.MethodPost, "/search", "not json", http.StatusBadRequest},
		{http.MethodPost, "/functions/v1/search", `{"query":""}`, http.StatusBadRequest},
		// No gateway credential configured.
		{http.MethodPost, "/search", `{"query":"hello"}`, http.StatusInternalServerError},
		{http.MethodGet, "/search", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if w.Header().Get("Access-Control-Allow-Origin") != "*" {
				t.Error("expected CORS header on every response")
			}
			if !strings.HasPrefix(w.Header().Get("X-Request-ID"), "req_") {
				t.Errorf("expected a request id, got %q", w.Header().Get("X-Request-ID"))
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		logger := newLogger(config.TelemetryConfig{LogLevel: tt.level, LogFormat: "json"})
		if !logger.Enabled(context.Background(), tt.want) {
			t.Errorf("level %q: expected %v to be enabled", tt.level, tt.want)
		}
		if tt.want > slog.LevelDebug && logger.Enabled(context.Background(), tt.want-1) {
			t.Errorf("level %q: expected below %v to be disabled", tt.level, tt.want)
		}
	}
}
