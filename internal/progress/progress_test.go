package progress_test

import (
	"context"
	"testing"
	"time"

	"folio/internal/comic"
	"folio/internal/logging"
	"folio/internal/progress"
	"folio/internal/testsupport"
)

func TestNextStatus(t *testing.T) {
	reading := &comic.Progress{CurrentPage: 4, TotalPages: 10, Status: comic.StatusReading}
	completed := &comic.Progress{CurrentPage: 9, TotalPages: 10, Status: comic.StatusCompleted}

	tests := []struct {
		name     string
		existing *comic.Progress
		current  int
		total    int
		want     comic.ReadingStatus
	}{
		{"new at first page", nil, 0, 10, comic.StatusUnread},
		{"new mid book", nil, 3, 10, comic.StatusReading},
		{"new on last page", nil, 9, 10, comic.StatusCompleted},
		{"new single page at zero", nil, 0, 1, comic.StatusCompleted},
		{"existing reaches end", reading, 9, 10, comic.StatusCompleted},
		{"existing moves forward", reading, 6, 10, comic.StatusReading},
		{"existing back to start keeps status", reading, 0, 10, comic.StatusReading},
		{"completed stays completed on reopen", completed, 9, 10, comic.StatusCompleted},
		{"completed reader flips back", completed, 2, 10, comic.StatusReading},
		{"single page existing completes", &comic.Progress{Status: comic.StatusUnread}, 0, 1, comic.StatusCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := progress.NextStatus(tt.existing, tt.current, tt.total); got != tt.want {
				t.Fatalf("NextStatus = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTrackerNeverRegressesWhileAdvancing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	c := testsupport.NewComic(t, st, "Bone", "/bone.cbz")
	tracker := progress.NewTracker(st, logging.NewNop())
	ctx := context.Background()

	prevRank := -1
	for page := 0; page < 10; page++ {
		p, err := tracker.Update(ctx, c.ID, page, 10)
		if err != nil {
			t.Fatalf("Update(%d): %v", page, err)
		}
		if p.Status.Rank() < prevRank {
			t.Fatalf("status regressed at page %d: %s", page, p.Status)
		}
		prevRank = p.Status.Rank()
	}
	loaded, err := tracker.Load(ctx, c.ID)
	if err != nil || loaded == nil {
		t.Fatalf("Load: %#v, %v", loaded, err)
	}
	if loaded.Status != comic.StatusCompleted || loaded.CurrentPage != 9 {
		t.Fatalf("unexpected final progress %#v", loaded)
	}
	if loaded.LastUpdate.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %v", loaded.LastUpdate.Location())
	}

	if _, err := tracker.Update(ctx, c.ID, -1, 10); err == nil {
		t.Fatal("expected negative page to be rejected")
	}
}

func TestTrackerClearAndStats(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	a := testsupport.NewComic(t, st, "A", "/a.cbz")
	b := testsupport.NewComic(t, st, "B", "/b.cbz")
	tracker := progress.NewTracker(st, nil)
	ctx := context.Background()

	_, _ = tracker.Update(ctx, a.ID, 3, 10)
	_, _ = tracker.Update(ctx, b.ID, 9, 10)
	stats, err := tracker.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Reading != 1 || stats.Completed != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if err := tracker.Clear(ctx, a.ID); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if p, _ := tracker.Load(ctx, a.ID); p != nil {
		t.Fatalf("expected cleared progress, got %#v", p)
	}
	if err := tracker.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if stats, _ = tracker.Stats(ctx); stats.Unread != 2 {
		t.Fatalf("expected all unread, got %+v", stats)
	}
}

func TestResumePage(t *testing.T) {
	if got := progress.ResumePage(nil, 10); got != 0 {
		t.Fatalf("nil progress resume = %d", got)
	}
	if got := progress.ResumePage(&comic.Progress{CurrentPage: 4}, 10); got != 4 {
		t.Fatalf("resume = %d, want 4", got)
	}
	if got := progress.ResumePage(&comic.Progress{CurrentPage: 40}, 10); got != 9 {
		t.Fatalf("resume past end = %d, want 9", got)
	}
}

func TestDebouncerCoalescesWrites(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	c := testsupport.NewComic(t, st, "Watchmen", "/watchmen.cbz")
	tracker := progress.NewTracker(st, nil)
	ctx := context.Background()

	d := progress.NewDebouncer(tracker, c.ID, 12, 30*time.Millisecond)
	for page := 1; page <= 5; page++ {
		d.Set(page)
	}
	if p, _ := tracker.Load(ctx, c.ID); p != nil {
		t.Fatalf("expected no write before the quiet period, got %#v", p)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		p, err := tracker.Load(ctx, c.ID)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if p != nil {
			if p.CurrentPage != 5 {
				t.Fatalf("expected latest page 5, got %d", p.CurrentPage)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("debounced write never happened")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDebouncerStopFlushesPending(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	c := testsupport.NewComic(t, st, "Akira", "/akira.cbz")
	tracker := progress.NewTracker(st, nil)
	ctx := context.Background()

	d := progress.NewDebouncer(tracker, c.ID, 12, time.Hour)
	d.Set(7)
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	p, err := tracker.Load(ctx, c.ID)
	if err != nil || p == nil || p.CurrentPage != 7 {
		t.Fatalf("expected flushed page 7, got %#v, %v", p, err)
	}

	d.Set(9)
	if err := d.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if p, _ = tracker.Load(ctx, c.ID); p.CurrentPage != 7 {
		t.Fatalf("expected Set after Stop to be ignored, got %d", p.CurrentPage)
	}
}
