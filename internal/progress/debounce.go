package progress

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"folio/internal/logging"
)

// Debouncer coalesces rapid position changes for one comic into a single
// write after a quiet period.
type Debouncer struct {
	tracker *Tracker
	comicID string
	total   int
	delay   time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending int
	dirty   bool
	stopped bool
	writeMu sync.Mutex
}

// NewDebouncer builds a debouncer writing through tracker.
func NewDebouncer(tracker *Tracker, comicID string, total int, delay time.Duration) *Debouncer {
	return &Debouncer{
		tracker: tracker,
		comicID: comicID,
		total:   total,
		delay:   delay,
		logger:  tracker.logger,
	}
}

// Set schedules page as the next write, replacing any pending value.
func (d *Debouncer) Set(page int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending = page
	d.dirty = true
	if d.delay <= 0 {
		go d.Flush(context.Background())
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		_ = d.Flush(context.Background())
	})
}

// Flush writes the pending value now, if any.
func (d *Debouncer) Flush(ctx context.Context) error {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if !d.dirty {
		d.mu.Unlock()
		return nil
	}
	page := d.pending
	d.dirty = false
	d.mu.Unlock()

	if _, err := d.tracker.Update(ctx, d.comicID, page, d.total); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, d.logger), "progress write failed", "progress_write_failed",
			logging.String(logging.FieldComicID, d.comicID),
			logging.Page(page),
			logging.Error(err),
			logging.String(logging.FieldImpact, "reading position not saved"),
		)
		return err
	}
	return nil
}

// Stop flushes the pending value and ignores later Set calls.
func (d *Debouncer) Stop(ctx context.Context) error {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
	return d.Flush(ctx)
}
