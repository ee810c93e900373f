// Package api serves passage lookup and song matching over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ppiankov/selah/internal/logging"
	"github.com/ppiankov/selah/internal/model"
	"github.com/ppiankov/selah/internal/pipeline"
	"github.com/ppiankov/selah/internal/worker"
)

// Server is the HTTP front end over a pipeline.
type Server struct {
	pipeline *pipeline.Pipeline
	cfg      model.ServerConfig
	limiter  *worker.Limiter
	logger   *log.Logger
	started  time.Time
}

// NewServer creates a server. Client rate limiting is enabled when
// cfg.RateLimit is positive.
func NewServer(p *pipeline.Pipeline, cfg model.ServerConfig) *Server {
	s := &Server{
		pipeline: p,
		cfg:      cfg,
		logger:   logging.Default().WithPrefix("api"),
		started:  time.Now(),
	}
	if cfg.RateLimit > 0 {
		s.limiter = worker.NewLimiter(cfg.RateLimit, cfg.RateBurst)
	}
	return s
}

// Handler returns the routed handler wrapped in middleware
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthcheck", s.handleHealth)
	mux.HandleFunc("GET /books", s.handleBooks)
	mux.HandleFunc("GET /passage", s.handlePassage)
	mux.HandleFunc("GET /songs/matches", s.handleMatches)

	var handler http.Handler = mux
	handler = s.rateLimit(handler)
	handler = cors(s.cfg.CORSOrigin, handler)
	handler = s.logRequests(handler)
	return handler
}

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then drains
// in-flight requests for up to cfg.ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "timeout", s.cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
