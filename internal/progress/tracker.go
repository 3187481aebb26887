package progress

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"folio/internal/comic"
	"folio/internal/logging"
	"folio/internal/store"
)

// Store is the persistence the tracker needs.
type Store interface {
	LoadProgress(ctx context.Context, comicID string) (*comic.Progress, error)
	UpsertProgress(ctx context.Context, p comic.Progress) error
	ClearProgress(ctx context.Context, comicID string) error
	ClearAllProgress(ctx context.Context) error
	ProgressStats(ctx context.Context) (store.Stats, error)
}

// Tracker applies the reading-status rules on top of a Store.
type Tracker struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// NewTracker wraps st.
func NewTracker(st Store, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Tracker{
		store:  st,
		logger: logging.NewComponentLogger(logger, "progress"),
		now:    time.Now,
	}
}

// NextStatus derives the status for a position. Existing records move to
// completed on the last page and to reading past the first; otherwise they
// keep their status. New records start unread unless they are already on the
// last page.
func NextStatus(existing *comic.Progress, current, total int) comic.ReadingStatus {
	if existing != nil {
		next := existing.Status
		switch {
		case total > 0 && current >= total-1:
			next = comic.StatusCompleted
		case current > 0:
			next = comic.StatusReading
		}
		// Moving forward never demotes a status.
		if current >= existing.CurrentPage && next.Rank() < existing.Status.Rank() {
			return existing.Status
		}
		return next
	}
	switch {
	case total > 0 && current >= total-1:
		return comic.StatusCompleted
	case current > 0:
		return comic.StatusReading
	default:
		return comic.StatusUnread
	}
}

// Update records the reading position for a comic.
func (t *Tracker) Update(ctx context.Context, comicID string, current, total int) (comic.Progress, error) {
	if current < 0 || total < 0 {
		return comic.Progress{}, fmt.Errorf("update progress: negative position %d/%d", current, total)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	existing, err := t.store.LoadProgress(ctx, comicID)
	if err != nil {
		return comic.Progress{}, err
	}
	p := comic.Progress{
		ComicID:     comicID,
		CurrentPage: current,
		TotalPages:  total,
		Status:      NextStatus(existing, current, total),
		LastUpdate:  t.now().UTC(),
	}
	if err := t.store.UpsertProgress(ctx, p); err != nil {
		return comic.Progress{}, err
	}
	logging.WithContext(ctx, t.logger).Debug("progress saved",
		logging.String(logging.FieldComicID, comicID),
		logging.Page(current),
		logging.Int(logging.FieldPageCount, total),
		logging.String("status", string(p.Status)),
	)
	return p, nil
}

// Load returns the stored progress or nil.
func (t *Tracker) Load(ctx context.Context, comicID string) (*comic.Progress, error) {
	return t.store.LoadProgress(ctx, comicID)
}

// Clear forgets the progress of one comic.
func (t *Tracker) Clear(ctx context.Context, comicID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.store.ClearProgress(ctx, comicID)
}

// ClearAll forgets all progress.
func (t *Tracker) ClearAll(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.store.ClearAllProgress(ctx)
}

// Stats counts comics per status.
func (t *Tracker) Stats(ctx context.Context) (store.Stats, error) {
	return t.store.ProgressStats(ctx)
}

// ResumePage is where a reader should reopen a comic with total pages.
func ResumePage(p *comic.Progress, total int) int {
	if p == nil || total <= 0 {
		return 0
	}
	if p.CurrentPage >= total {
		return total - 1
	}
	if p.CurrentPage < 0 {
		return 0
	}
	return p.CurrentPage
}
