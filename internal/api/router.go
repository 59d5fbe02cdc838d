// Package api serves timelines and dependency edits over HTTP using chi.
package api

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/stackplan/pkg/buildinfo"
	"github.com/matzehuels/stackplan/pkg/service"
	"github.com/matzehuels/stackplan/pkg/timeline"
)

// Server holds the handler dependencies.
type Server struct {
	svc      *service.Service
	logger   *log.Logger
	now      func() time.Time
	timeout  time.Duration
	defaults timeline.Options
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithClock overrides the clock used when a request has no now parameter.
func WithClock(now func() time.Time) Option { return func(s *Server) { s.now = now } }

// WithTimeout bounds each request. Zero disables the limit.
func WithTimeout(d time.Duration) Option { return func(s *Server) { s.timeout = d } }

// WithTimelineDefaults sets the layout options used for every request.
func WithTimelineDefaults(o timeline.Options) Option { return func(s *Server) { s.defaults = o } }

// NewServer creates a server for svc.
func NewServer(svc *service.Service, opts ...Option) *Server {
	s := &Server{svc: svc, logger: log.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router with every route mounted.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if s.timeout > 0 {
		r.Use(middleware.Timeout(s.timeout))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
	})

	r.Route("/projects/{projectID}", func(r chi.Router) {
		r.Get("/timeline", s.timelineJSON)
		r.Get("/timeline.svg", s.timelineSVG)
		r.Get("/graph.dot", s.graphDOT)

		r.Route("/tasks/{taskID}/dependencies", func(r chi.Router) {
			r.Get("/", s.listDependencies)
			r.Post("/", s.addDependency)
			r.Post("/check", s.checkDependency)
			r.Delete("/{blockerID}", s.removeDependency)
		})
	})
	return r
}

// ListenAndServe serves the router on addr until ctx is canceled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
