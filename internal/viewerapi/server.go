package viewerapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gofrs/flock"

	"folio/internal/access"
	"folio/internal/comic"
	"folio/internal/config"
	"folio/internal/logging"
	"folio/internal/pagestream"
	"folio/internal/progress"
	"folio/internal/services"
)

// ErrServeLocked is returned when another viewer API already runs.
var ErrServeLocked = errors.New("viewer api already running")

// Library is the slice of the store the API reads.
type Library interface {
	Search(ctx context.Context, q string) ([]*comic.Comic, error)
	Get(ctx context.Context, id string) (*comic.Comic, error)
	TouchOpened(ctx context.Context, id string, at time.Time) error
}

// Option customizes a Server.
type Option func(*Server)

// WithSessionOptions adjusts the options every new session opens with.
func WithSessionOptions(fn func(*pagestream.Options)) Option {
	return func(s *Server) {
		fn(&s.sessionOpts)
	}
}

// Server serves the viewer API.
type Server struct {
	cfg         *config.Config
	library     Library
	resolver    *access.Resolver
	tracker     *progress.Tracker
	logger      *slog.Logger
	sessionOpts pagestream.Options
	sessions    *registry
	router      chi.Router
}

// New wires the router. Run starts listening.
func New(cfg *config.Config, library Library, resolver *access.Resolver, tracker *progress.Tracker, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "viewer-api")
	s := &Server{
		cfg:         cfg,
		library:     library,
		resolver:    resolver,
		tracker:     tracker,
		logger:      logger,
		sessionOpts: pagestream.OptionsFromConfig(cfg),
		sessions:    newRegistry(logger, cfg.SessionIdleTimeout()),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestContext)
	r.Use(chimw.Recoverer)
	r.Use(chimw.CleanPath)
	r.Use(authMiddleware(strings.TrimSpace(cfg.Paths.APIToken)))

	r.Route("/api", func(api chi.Router) {
		api.Get("/comics", s.handleListComics)
		api.Get("/comics/{id}", s.handleGetComic)
		api.Get("/comics/{id}/cover", s.handleCover)

		api.Post("/sessions", s.handleOpenSession)
		api.Route("/sessions/{sid}", func(sess chi.Router) {
			sess.Get("/", s.handleSession)
			sess.Delete("/", s.handleCloseSession)
			sess.Get("/pages/{index}", s.handlePage)
			sess.Put("/position", s.handlePosition)
			sess.Get("/events", s.handleEvents)
		})
	})
	s.router = r
	return s
}

// requestContext carries chi's request id into the logging context.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := services.WithRequestID(r.Context(), chimw.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions is the number of open sessions.
func (s *Server) Sessions() int {
	return s.sessions.len()
}

// Run holds the serve lock, listens on paths.api_bind and serves until ctx
// ends. Open sessions are closed on the way out.
func (s *Server) Run(ctx context.Context) error {
	lock := flock.New(s.cfg.ServeLockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire serve lock: %w", err)
	}
	if !locked {
		return ErrServeLocked
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			s.logger.Warn("failed to release serve lock", logging.Error(err))
		}
	}()

	listener, err := net.Listen("tcp", s.cfg.Paths.APIBind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx ends.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	reapCtx, stopReaper := context.WithCancel(ctx)
	defer stopReaper()
	go s.sessions.run(reapCtx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()
	s.logger.Info("viewer api listening",
		logging.String("address", listener.Addr().String()),
		logging.Bool("auth", strings.TrimSpace(s.cfg.Paths.APIToken) != ""),
	)

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	s.sessions.closeAll()
	s.logger.Info("viewer api stopped")

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}
	return nil
}

// Close closes every open session.
func (s *Server) Close() {
	s.sessions.closeAll()
}
