package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-pkgz/lgr"

	"tick-task/internal/config"
	"tick-task/internal/service"
)

const basePath = "/api/v1"

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Server exposes the task service over HTTP.
type Server struct {
	cfg     config.Config
	tasks   *service.TaskService
	logger  lgr.L
	origins map[string]struct{}
	server  *http.Server
}

func New(cfg config.Config, tasks *service.TaskService, logger lgr.L) *Server {
	if logger == nil {
		logger = lgr.NoOp
	}
	s := &Server{
		cfg:     cfg,
		tasks:   tasks,
		logger:  logger,
		origins: make(map[string]struct{}, len(cfg.CORSOrigins)),
	}
	for _, o := range cfg.CORSOrigins {
		s.origins[o] = struct{}{}
	}

	s.server = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorLog:     lgr.ToStdLogger(logger, "WARN"),
	}
	return s
}

// Handler returns the full middleware chain around the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+basePath+"/health", s.handleHealth)
	mux.HandleFunc("POST "+basePath+"/tasks", s.handleCreateTask)
	mux.HandleFunc("GET "+basePath+"/tasks", s.handleListTasks)
	mux.HandleFunc("GET "+basePath+"/tasks/{id}", s.handleGetTask)
	mux.HandleFunc("PUT "+basePath+"/tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("PATCH "+basePath+"/tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE "+basePath+"/tasks/{id}", s.handleArchiveTask)

	return s.wrap(mux)
}

// wrap applies the middleware chain. Recovery sits inside logging so a
// panicking request is still logged with its 500.
func (s *Server) wrap(h http.Handler) http.Handler {
	h = s.corsMiddleware(h)
	h = s.recoverMiddleware(h)
	h = s.logMiddleware(h)
	return h
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Logf("INFO listening on http://%s%s", s.cfg.Addr(), basePath)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Logf("INFO shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
