// Package web exposes the tracked-profile API and the aggregated feed
// over HTTP.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/robfig/cron/v3"

	"linkfeed/pkg/config"
	"linkfeed/pkg/feed"
	"linkfeed/pkg/logger"
	"linkfeed/pkg/runstatus"
	"linkfeed/pkg/tracker"
)

// Runner starts one feed collection for a username. The scrape
// orchestrator is the production implementation.
type Runner interface {
	Run(ctx context.Context, username string) (*feed.Result, error)
}

// Server hosts the web API
type Server struct {
	cfg     *config.Config
	tracked *tracker.Store
	status  *runstatus.Tracker
	runner  Runner
	cron    *cron.Cron
	logger  logger.Logger
}

// NewServer creates the web server around an existing tracker store,
// status tracker, and collection runner
func NewServer(
	cfg *config.Config,
	tracked *tracker.Store,
	status *runstatus.Tracker,
	runner Runner,
	log logger.Logger,
) *Server {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Server{
		cfg:     cfg,
		tracked: tracked,
		status:  status,
		runner:  runner,
		logger:  log,
	}
}

// Router builds the HTTP handler with all routes registered
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Get("/users", s.handleListUsers)
		r.Post("/users/add", s.handleAddUser)
		r.Post("/users/remove", s.handleRemoveUser)
		r.Post("/users/refresh-all", s.handleRefreshAll)
		r.Get("/scrape-status", s.handleStatus)
		r.Post("/scrape-status/reset", s.handleStatusReset)
		r.Get("/feed", s.handleFeed)
	})
	r.Get("/media/{username}/{file}", s.handleMedia)

	return r
}

// ListenAndServe runs the HTTP server, the stuck-run monitor, and the
// optional refresh schedule until the context is cancelled
func (s *Server) ListenAndServe(ctx context.Context) error {
	go s.status.Monitor(ctx, s.cfg.Fetch.MonitorInterval)

	if err := s.startSchedule(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         s.cfg.Web.ListenAddr,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.InfoWithFields("web server listening", map[string]interface{}{
		"addr": s.cfg.Web.ListenAddr,
	})

	select {
	case <-ctx.Done():
		if s.cron != nil {
			s.cron.Stop()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startSchedule wires the periodic refresh-all job when a cron spec is
// configured
func (s *Server) startSchedule(ctx context.Context) error {
	spec := s.cfg.Web.RefreshSchedule
	if spec == "" {
		return nil
	}

	s.cron = cron.New()
	_, err := s.cron.AddFunc(spec, func() {
		s.logger.Info("scheduled refresh starting")
		s.refreshAll(ctx)
	})
	if err != nil {
		return err
	}
	s.cron.Start()

	s.logger.InfoWithFields("refresh schedule active", map[string]interface{}{
		"spec": spec,
	})
	return nil
}

// refreshAll collects every tracked profile in sequence. The status
// tracker serializes runs, so this never overlaps an in-flight one.
func (s *Server) refreshAll(ctx context.Context) {
	profiles, err := s.tracked.List()
	if err != nil {
		s.logger.ErrorWithFields("failed to list tracked profiles", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	for _, p := range profiles {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.runner.Run(ctx, p.Username); err != nil {
			s.logger.WarnWithFields("refresh failed", map[string]interface{}{
				"username": p.Username,
				"error":    err.Error(),
			})
		}
	}
}
