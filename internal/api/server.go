package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/seantiz/ordersim/internal/metrics"
	"github.com/seantiz/ordersim/internal/model"
	"github.com/seantiz/ordersim/internal/sim"
	"github.com/seantiz/ordersim/internal/store"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 30 * time.Second
)

// Server wraps the chi router and application dependencies. One engine runs
// at a time; newEngine builds a fresh one so start can follow stop within a
// single process.
type Server struct {
	router    *chi.Mux
	store     store.Store
	newEngine func() *sim.Orchestrator
	logger    *slog.Logger
	addr      string

	mu        sync.Mutex
	engine    *sim.Orchestrator
	collector *metrics.Collector
}

// NewServer creates and configures a new HTTP server. st may be nil when run
// history is disabled.
func NewServer(addr string, st store.Store, newEngine func() *sim.Orchestrator, logger *slog.Logger) *Server {
	srv := &Server{
		router:    chi.NewRouter(),
		store:     st,
		newEngine: newEngine,
		logger:    logger,
		addr:      addr,
	}

	srv.router.Use(middleware.RequestID)
	srv.router.Use(middleware.Recoverer)
	srv.router.Use(srv.loggingMiddleware)
	srv.router.Use(metricsMiddleware)
	srv.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	srv.routes()

	return srv
}

// routes registers all HTTP routes on the router.
func (s *Server) routes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Handle("/metrics", metricsHandler())

	s.router.Get("/v1/stats", s.handleGetStats)

	s.router.Route("/v1/sim", func(r chi.Router) {
		r.Get("/", s.handleGetSim)
		r.Post("/start", s.handleStartSim)
		r.Post("/stop", s.handleStopSim)
		r.Post("/burst", s.handleSetBurst)
		r.Get("/stream", s.handleStreamSnapshots)
	})

	s.router.Route("/v1/runs", func(r chi.Router) {
		r.Get("/", s.handleListRuns)
		r.Get("/{id}/snapshots", s.handleListSnapshots)
	})
}

// Router returns the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Engine returns the current engine, or nil if none has been started.
func (s *Server) Engine() *sim.Orchestrator {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine
}

// StartRun builds a fresh engine and starts it. It fails if an engine is
// already running or stopping.
func (s *Server) StartRun(ctx context.Context) (*sim.Orchestrator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine != nil {
		switch s.engine.State() {
		case model.StateRunning, model.StateStopping:
			return nil, fmt.Errorf("run %s is %s", s.engine.RunID(), s.engine.State())
		}
	}

	eng := s.newEngine()
	if err := eng.Start(ctx); err != nil {
		return nil, err
	}

	// Each engine carries its own aggregator; swap the exported collector so
	// /metrics follows the live run.
	if s.collector != nil {
		prometheus.Unregister(s.collector)
	}
	s.collector = metrics.NewCollector(eng.Metrics())
	if err := prometheus.Register(s.collector); err != nil {
		s.logger.Error("register engine collector", "error", err)
	}

	s.engine = eng
	return eng, nil
}

// Run starts the HTTP server and blocks until a shutdown signal is received.
// Any running engine is stopped before the listener shuts down.
func (s *Server) Run() error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	if eng := s.Engine(); eng != nil && eng.State() == model.StateRunning {
		if err := eng.Stop(eng.StopTimeout()); err != nil {
			s.logger.Error("stop engine on shutdown", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// loggingMiddleware logs each request using the structured logger.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
