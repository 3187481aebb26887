package viewerapi

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"folio/internal/logging"
	"folio/internal/pagestream"
)

// registry holds the open sessions by id.
type registry struct {
	logger *slog.Logger
	idle   time.Duration
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*pagestream.Session
}

func newRegistry(logger *slog.Logger, idle time.Duration) *registry {
	return &registry{
		logger:   logger,
		idle:     idle,
		now:      time.Now,
		sessions: make(map[string]*pagestream.Session),
	}
}

func (r *registry) add(s *pagestream.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
}

func (r *registry) get(id string) (*pagestream.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// remove unregisters and closes a session.
func (r *registry) remove(id string) (bool, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, s.Close()
}

// reap closes sessions idle for longer than the configured timeout.
func (r *registry) reap() int {
	if r.idle <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idle)
	var stale []*pagestream.Session
	r.mu.Lock()
	for id, s := range r.sessions {
		if s.LastAccess().Before(cutoff) {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		if err := s.Close(); err != nil {
			r.logger.Warn("idle session close failed",
				logging.String(logging.FieldSessionID, s.ID()),
				logging.Error(err),
			)
			continue
		}
		r.logger.Info("idle session reaped",
			logging.String(logging.FieldSessionID, s.ID()),
			logging.String(logging.FieldComicID, s.ComicID()),
		)
	}
	return len(stale)
}

// run reaps on a ticker until ctx ends.
func (r *registry) run(ctx context.Context) {
	if r.idle <= 0 {
		return
	}
	interval := r.idle / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.reap()
		}
	}
}

// closeAll closes every session. Used at shutdown.
func (r *registry) closeAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*pagestream.Session)
	r.mu.Unlock()
	for _, s := range sessions {
		if err := s.Close(); err != nil {
			r.logger.Warn("session close failed at shutdown",
				logging.String(logging.FieldSessionID, s.ID()),
				logging.Error(err),
			)
		}
	}
}
