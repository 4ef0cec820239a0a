// Package api is the HTTP surface of the valuation engine. It fetches from the
// Analytics API, runs the engine over the result and remembers per-screen UI
// state for each client.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourorg/hoops-valuation/internal/circuitbreaker"
	"github.com/yourorg/hoops-valuation/internal/fetch"
	"github.com/yourorg/hoops-valuation/internal/metrics"
	"github.com/yourorg/hoops-valuation/internal/model"
	"github.com/yourorg/hoops-valuation/internal/session"
	"github.com/yourorg/hoops-valuation/internal/tabstate"
	"github.com/yourorg/hoops-valuation/internal/trade"
)

// version is reported by /health and /status
const version = "1.0.0"

// Analytics is the remote data the handlers need
type Analytics interface {
	Teams(ctx context.Context) ([]model.Team, error)
	TeamAnalytics(ctx context.Context, teamID int, period string, excludeIR bool) (*model.PlayerList, error)
	AllPlayers(ctx context.Context, period string, excludeIR bool) (*model.PlayerList, error)
	FreeAgents(ctx context.Context, period, position string) (*model.PlayerList, error)
	trade.Evaluator
}

// Options configures a Server
type Options struct {
	Analytics     Analytics
	Store         *tabstate.Store
	StoreBackend  string
	Breaker       *circuitbreaker.CircuitBreaker
	Metrics       *metrics.Metrics
	Limiter       *rate.Limiter
	DefaultPeriod string
	CORSOrigins   []string

	// Per-request deadline for handlers that call the Analytics API
	Timeout time.Duration
}

// Server holds the handler dependencies
type Server struct {
	analytics     Analytics
	store         *tabstate.Store
	storeBackend  string
	breaker       *circuitbreaker.CircuitBreaker
	metrics       *metrics.Metrics
	limiter       *rate.Limiter
	gens          *fetch.Generations
	defaultPeriod string
	corsOrigins   []string
	timeout       time.Duration
	started       time.Time
}

// NewServer creates a server. Store defaults to an in-memory backend.
func NewServer(opts Options) *Server {
	if opts.Store == nil {
		opts.Store = tabstate.New(tabstate.NewMemoryStore())
		opts.StoreBackend = "memory"
	}
	if opts.DefaultPeriod == "" {
		opts.DefaultPeriod = session.PeriodTotal
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 130 * time.Second
	}
	return &Server{
		analytics:     opts.Analytics,
		store:         opts.Store,
		storeBackend:  opts.StoreBackend,
		breaker:       opts.Breaker,
		metrics:       opts.Metrics,
		limiter:       opts.Limiter,
		gens:          fetch.NewGenerations(),
		defaultPeriod: opts.DefaultPeriod,
		corsOrigins:   opts.CORSOrigins,
		timeout:       opts.Timeout,
		started:       time.Now(),
	}
}

// Router builds the chi router with middleware and every route
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	if len(s.corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.corsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", clientIDHeader},
			ExposedHeaders:   []string{clientIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/health", s.HealthCheck)
	r.Get("/status", s.Status)
	r.Get("/circuit", s.Circuit)
	r.Post("/circuit", s.Circuit)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimit)

		r.Get("/teams", s.GetTeams)
		r.Get("/teams/ranking", s.RankTeams)
		r.Get("/players", s.GetPlayers)
		r.Post("/compare", s.Compare)

		r.Post("/trades/validate", s.ValidateTrade)
		r.Post("/trades/evaluate", s.EvaluateTrade)
		r.Post("/trades/evaluate/two-team", s.EvaluateTwoTeamTrade)

		r.Get("/session", s.GetSession)
		r.Put("/session", s.PutSession)
		r.Post("/session/punts/{category}", s.TogglePunt)

		r.Get("/state/{screen}", s.GetState)
		r.Put("/state/{screen}", s.PutState)
		r.Delete("/state/{screen}", s.DeleteState)
	})

	return r
}

// rateLimit rejects requests beyond the configured rate with 429
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request through logrus
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logrus.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"latency_ms": time.Since(start).Milliseconds(),
			"request_id": chimiddleware.GetReqID(r.Context()),
		}).Debug("Request handled")
	})
}

// withTimeout bounds handlers that call the Analytics API
func (s *Server) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}
