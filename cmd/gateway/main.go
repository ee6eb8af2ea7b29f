package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/af-corp/nova-gateway/internal/config"
	"github.com/af-corp/nova-gateway/internal/filter"
	"github.com/af-corp/nova-gateway/internal/filter/injection"
	"github.com/af-corp/nova-gateway/internal/filter/policy"
	"github.com/af-corp/nova-gateway/internal/filter/secrets"
	"github.com/af-corp/nova-gateway/internal/gateway"
	"github.com/af-corp/nova-gateway/internal/httputil"
	"github.com/af-corp/nova-gateway/internal/probe"
	"github.com/af-corp/nova-gateway/internal/router"
	"github.com/af-corp/nova-gateway/internal/telemetry"
)

var version = "dev"

func main() {
	configDir := flag.String("config", "configs", "path to configuration directory")
	flag.Parse()

	bootLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load configuration
	loader := config.NewLoader(*configDir, bootLogger)
	if err := loader.Load(); err != nil {
		bootLogger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	cfg := loader.Config()

	logger := newLogger(cfg.Telemetry)
	slog.SetDefault(logger)

	if err := loader.Watch(); err != nil {
		logger.Warn("failed to start config watcher", "error", err)
	}
	defer loader.Close()

	// Provider health
	cb := cfg.Routing.CircuitBreaker
	healthTracker := router.NewHealthTracker(cb.FailureThreshold, cb.RecoveryProbeInterval)

	// Content filters
	policyEval := policy.NewEvaluator(func() config.PolicyFilterConfig { return loader.Config().Filter.Policy })
	if policyEval.Enabled() {
		if err := policyEval.Load(); err != nil {
			logger.Error("failed to load policies (policy filter will block)", "error", err)
		}
	}
	filterChain := filter.NewChain(
		secrets.NewScanner(func() config.SecretsFilterConfig { return loader.Config().Filter.Secrets }),
		injection.NewScanner(func() config.InjectionFilterConfig { return loader.Config().Filter.Injection }),
		policyEval,
	)

	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)

	pipeline := gateway.NewPipeline(loader.Config, loader.Models, loader.Providers, healthTracker, filterChain, metrics)
	handler := gateway.NewHandler(pipeline, healthTracker, loader.Models, loader.Config, version)

	// gRPC health probe
	healthProbe := probe.NewServer()
	setServing := func() {
		ok := loader.Providers().Get(config.ProviderGateway).APIKey != ""
		healthProbe.SetServing(ok)
		if !ok {
			slog.Warn("gateway credential not configured, search requests will fail")
		}
	}
	setServing()

	loader.OnReload(func() {
		setServing()
		healthTracker.Reset()
		if policyEval.Enabled() {
			if err := policyEval.Load(); err != nil {
				slog.Error("failed to reload policies", "error", err)
			}
		}
		slog.Info("configuration reloaded")
	})

	if cfg.Server.GRPCHealthPort > 0 {
		lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCHealthPort))
		if err != nil {
			logger.Error("failed to listen for grpc health", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := healthProbe.Serve(lis); err != nil {
				slog.Error("grpc health server error", "error", err)
			}
		}()
		defer healthProbe.Stop()
	}

	var metricsSrv *http.Server
	if cfg.Telemetry.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Telemetry.MetricsPort),
			Handler: mux,
		}
		go func() {
			logger.Info("metrics server starting", "addr", metricsSrv.Addr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server error", "error", err)
			}
		}()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      newRouter(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway starting", "addr", addr, "version", version)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if metricsSrv != nil {
		metricsSrv.Shutdown(ctx)
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("gateway stopped")
}

func newRouter(handler *gateway.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httputil.RequestID)
	r.Use(httputil.CORS)

	r.Post("/search", handler.Search)
	r.Post("/functions/v1/search", handler.Search)
	r.Get("/nova/v1/health", handler.Health)
	r.Get("/nova/v1/models", handler.ListModels)
	return r
}

func newLogger(cfg config.TelemetryConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
