// Package server exposes the review loop over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spigell/talent-scout/internal/review"
	"github.com/spigell/talent-scout/internal/sourcing"
)

const (
	DefaultAddr      = ":8080"
	DefaultRateLimit = 60

	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
)

// Sourcer is the part of sourcing.Pipeline the server drives.
type Sourcer interface {
	ExtractKeywords(ctx context.Context, jobDescription string) ([]string, error)
	FetchNextCandidate(ctx context.Context, keywords, exclude []string) (*sourcing.Candidate, error)
	Session() *sourcing.Session
}

type Config struct {
	Addr string `mapstructure:"addr"`
	// RateLimit is the number of pipeline requests allowed per minute per client IP.
	RateLimit int `mapstructure:"rate-limit"`
}

type Server struct {
	cfg      Config
	sourcer  Sourcer
	board    *review.Board
	gatherer prometheus.Gatherer
	validate *validator.Validate
	logger   *zap.Logger

	// busy serializes pipeline access. Requests that find it held get 409.
	busy     sync.Mutex
	keywords []string
}

func New(cfg Config, sourcer Sourcer, board *review.Board, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{
		cfg:      cfg,
		sourcer:  sourcer,
		board:    board,
		gatherer: gatherer,
		validate: validator.New(),
		logger:   logger,
	}
}

// Router builds the HTTP handler with all routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	r.Route("/api", func(api chi.Router) {
		api.Group(func(limited chi.Router) {
			limited.Use(httprate.LimitByIP(s.cfg.RateLimit, time.Minute))
			limited.Post("/search", s.handleSearch)
			limited.Post("/candidates/next", s.handleNext)
			limited.Post("/candidates/current/accept", s.handleAccept)
			limited.Post("/candidates/current/reject", s.handleReject)
		})
		api.Get("/shortlist", s.handleShortlist)
		api.Put("/shortlist", s.handleReorder)
		api.Get("/session", s.handleSession)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	return r
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down http server")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
