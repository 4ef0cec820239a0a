// Package main is the entry point for the hoops valuation service: it serves
// ranked, filtered and compared fantasy basketball values computed over the
// Analytics API, and remembers per-screen UI state for each client.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourorg/hoops-valuation/internal/api"
	"github.com/yourorg/hoops-valuation/internal/circuitbreaker"
	"github.com/yourorg/hoops-valuation/internal/config"
	"github.com/yourorg/hoops-valuation/internal/fetch"
	"github.com/yourorg/hoops-valuation/internal/metrics"
	"github.com/yourorg/hoops-valuation/internal/otel"
)

// main is the entry point for the application
func main() {
	cfg := config.Load()
	setupLogging(cfg)

	shutdownTracer := otel.InitTracer(cfg)
	defer shutdownTracer()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openTabState(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to open tab state store")
	}
	defer closeStore()

	var m *metrics.Metrics
	if cfg.EnableMetrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
	}

	breaker := circuitbreaker.New(circuitbreaker.Thresholds{
		FailureThreshold: cfg.CircuitFailureThreshold,
	}).WithResetDelay(cfg.CircuitResetDelay).WithTripCallback(func(reason string, failures int) {
		logrus.WithField("failures", failures).Warnf("Analytics API circuit opened: %s", reason)
	})
	if m != nil {
		breaker.WithStateCallback(m.SetCircuitState)
	}

	clientOpts := fetch.OptionsFromConfig(cfg)
	clientOpts.Breaker = breaker
	clientOpts.Limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	if m != nil {
		clientOpts.Observer = m
	}
	client := fetch.NewClient(clientOpts)

	server := api.NewServer(api.Options{
		Analytics:     client,
		Store:         store,
		StoreBackend:  cfg.TabStateBackend,
		Breaker:       breaker,
		Metrics:       m,
		Limiter:       rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
		DefaultPeriod: cfg.DefaultPeriod,
		CORSOrigins:   cfg.CORSOrigins,
		Timeout:       cfg.AnalyticsTimeout + 10*time.Second,
	})

	logrus.WithFields(logrus.Fields{
		"port":          cfg.Port,
		"analytics_url": cfg.AnalyticsURL,
		"tabstate":      cfg.TabStateBackend,
		"metrics":       cfg.EnableMetrics,
		"tracing":       cfg.OtelEndpoint != "",
	}).Info("Server initialized")

	start(ctx, cfg, server.Router())
}

// start serves until ctx is cancelled, then shuts down gracefully
func start(ctx context.Context, cfg config.Config, handler http.Handler) {
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AnalyticsTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Error starting server: %v", err)
		}
	}()

	<-ctx.Done()

	logrus.Info("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server shutdown failed: %v", err)
		os.Exit(1)
	}
	logrus.Info("Server stopped")
}

// setupLogging configures the logging for the application
func setupLogging(cfg config.Config) {
	switch cfg.LogFormat {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	switch cfg.LogLevel {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}

	logrus.Debug("Logging configured")
}
