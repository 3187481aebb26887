package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"folio/internal/comic"
)

// UpsertProgress writes p, replacing any existing row for the comic.
func (s *Store) UpsertProgress(ctx context.Context, p comic.Progress) error {
	if !p.Status.Valid() {
		return fmt.Errorf("upsert progress: invalid status %q", p.Status)
	}
	if p.LastUpdate.IsZero() {
		p.LastUpdate = time.Now().UTC()
	}
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO reading_progress (comic_id, current_page, total_pages, status, last_update)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(comic_id) DO UPDATE SET
            current_page = excluded.current_page,
            total_pages = excluded.total_pages,
            status = excluded.status,
            last_update = excluded.last_update`,
		p.ComicID,
		p.CurrentPage,
		p.TotalPages,
		string(p.Status),
		p.LastUpdate.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

// LoadProgress returns the stored progress for a comic, or nil when absent.
func (s *Store) LoadProgress(ctx context.Context, comicID string) (*comic.Progress, error) {
	var (
		p         comic.Progress
		status    string
		updateRaw string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT comic_id, current_page, total_pages, status, last_update FROM reading_progress WHERE comic_id = ?`,
		comicID,
	).Scan(&p.ComicID, &p.CurrentPage, &p.TotalPages, &status, &updateRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	p.Status = comic.ReadingStatus(status)
	if updated, err := parseTimeString(updateRaw); err == nil {
		p.LastUpdate = updated
	}
	return &p, nil
}

// ClearProgress deletes the progress row for one comic.
func (s *Store) ClearProgress(ctx context.Context, comicID string) error {
	if _, err := s.execWithRetry(ctx, `DELETE FROM reading_progress WHERE comic_id = ?`, comicID); err != nil {
		return fmt.Errorf("clear progress: %w", err)
	}
	return nil
}

// ClearAllProgress deletes every progress row.
func (s *Store) ClearAllProgress(ctx context.Context) error {
	if _, err := s.execWithRetry(ctx, `DELETE FROM reading_progress`); err != nil {
		return fmt.Errorf("clear all progress: %w", err)
	}
	return nil
}

// Stats counts library comics per reading status.
type Stats struct {
	Unread    int `json:"unread"`
	Reading   int `json:"reading"`
	Completed int `json:"completed"`
}

// Total is the number of comics counted.
func (s Stats) Total() int { return s.Unread + s.Reading + s.Completed }

// ProgressStats reads the reading_statistics view.
func (s *Store) ProgressStats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, total FROM reading_statistics`)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var (
			status string
			total  int
		)
		if err := rows.Scan(&status, &total); err != nil {
			return Stats{}, fmt.Errorf("scan stats: %w", err)
		}
		switch comic.ReadingStatus(status) {
		case comic.StatusReading:
			stats.Reading = total
		case comic.StatusCompleted:
			stats.Completed = total
		default:
			stats.Unread += total
		}
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("iterate stats: %w", err)
	}
	return stats, nil
}
