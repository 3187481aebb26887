package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"folio/internal/comic"
)

// ErrDuplicate is returned when a comic with the same fingerprint exists.
var ErrDuplicate = errors.New("comic already in library")

// Save inserts a new library record.
func (s *Store) Save(ctx context.Context, c *comic.Comic) error {
	if c == nil || strings.TrimSpace(c.ID) == "" {
		return errors.New("save comic: id is required")
	}
	metadataJSON, err := json.Marshal(c.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if c.AddedAt.IsZero() {
		c.AddedAt = time.Now().UTC()
	}
	_, err = s.execWithRetry(
		ctx,
		`INSERT INTO comics (
            id, title, path, kind, token, bundled, page_count, file_size,
            fingerprint, metadata_json, series, publisher, writer, cover_path,
            added_at, last_opened
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.Title,
		c.Path,
		string(c.Kind),
		c.Token,
		boolToInt(c.Bundled),
		c.PageCount,
		c.FileSize,
		nullableString(c.Fingerprint),
		string(metadataJSON),
		nullablePtr(c.Metadata.Series),
		nullablePtr(c.Metadata.Publisher),
		nullablePtr(c.Metadata.Writer),
		nullableString(c.CoverPath),
		c.AddedAt.UTC().Format(time.RFC3339Nano),
		nullableTime(c.LastOpened),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: comics.fingerprint") {
			return fmt.Errorf("%w: fingerprint %s", ErrDuplicate, c.Fingerprint)
		}
		return fmt.Errorf("insert comic: %w", err)
	}
	return nil
}

// Update rewrites the mutable columns of an existing record.
func (s *Store) Update(ctx context.Context, c *comic.Comic) error {
	metadataJSON, err := json.Marshal(c.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE comics SET
            title = ?, path = ?, kind = ?, token = ?, bundled = ?, page_count = ?,
            file_size = ?, fingerprint = ?, metadata_json = ?, series = ?,
            publisher = ?, writer = ?, cover_path = ?, last_opened = ?
        WHERE id = ?`,
		c.Title,
		c.Path,
		string(c.Kind),
		c.Token,
		boolToInt(c.Bundled),
		c.PageCount,
		c.FileSize,
		nullableString(c.Fingerprint),
		string(metadataJSON),
		nullablePtr(c.Metadata.Series),
		nullablePtr(c.Metadata.Publisher),
		nullablePtr(c.Metadata.Writer),
		nullableString(c.CoverPath),
		nullableTime(c.LastOpened),
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("update comic: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return comic.Wrap(comic.ErrNotFound, "update", "no comic with id "+c.ID, nil)
	}
	return nil
}

// Get returns the comic with id, or nil when absent.
func (s *Store) Get(ctx context.Context, id string) (*comic.Comic, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+comicColumns+comicFrom+` WHERE c.id = ?`, id)
	c, err := scanComic(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get comic: %w", err)
	}
	return c, nil
}

// Exists reports whether a comic with id is stored.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM comics WHERE id = ?`, id).Scan(&count); err != nil {
		return false, fmt.Errorf("check comic: %w", err)
	}
	return count > 0, nil
}

// FindByFingerprint returns the comic with a content fingerprint, or nil.
func (s *Store) FindByFingerprint(ctx context.Context, fingerprint string) (*comic.Comic, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+comicColumns+comicFrom+` WHERE c.fingerprint = ? LIMIT 1`, fingerprint)
	c, err := scanComic(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find comic by fingerprint: %w", err)
	}
	return c, nil
}

// FetchAll returns every comic ordered by title.
func (s *Store) FetchAll(ctx context.Context) ([]*comic.Comic, error) {
	return s.query(ctx, `SELECT `+comicColumns+comicFrom+` ORDER BY c.title COLLATE NOCASE, c.added_at`)
}

// FetchByStatus returns comics whose reading status matches.
func (s *Store) FetchByStatus(ctx context.Context, status comic.ReadingStatus) ([]*comic.Comic, error) {
	return s.query(ctx,
		`SELECT `+comicColumns+comicFrom+` WHERE COALESCE(p.status, 'unread') = ? ORDER BY c.title COLLATE NOCASE, c.added_at`,
		string(status),
	)
}

// Search matches q against title, series, publisher and writer,
// case-insensitively. An empty query returns everything.
func (s *Store) Search(ctx context.Context, q string) ([]*comic.Comic, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return s.FetchAll(ctx)
	}
	pattern := likePattern(q)
	return s.query(ctx,
		`SELECT `+comicColumns+comicFrom+`
        WHERE c.title LIKE ? ESCAPE '\'
           OR c.series LIKE ? ESCAPE '\'
           OR c.publisher LIKE ? ESCAPE '\'
           OR c.writer LIKE ? ESCAPE '\'
        ORDER BY c.title COLLATE NOCASE, c.added_at`,
		pattern, pattern, pattern, pattern,
	)
}

// TouchOpened stamps the last-opened time.
func (s *Store) TouchOpened(ctx context.Context, id string, at time.Time) error {
	if _, err := s.execWithRetry(ctx, `UPDATE comics SET last_opened = ? WHERE id = ?`, nullableTime(&at), id); err != nil {
		return fmt.Errorf("touch comic: %w", err)
	}
	return nil
}

// Delete removes a comic and, through the foreign key, its progress.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM comics WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete comic: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return comic.Wrap(comic.ErrNotFound, "delete", "no comic with id "+id, nil)
	}
	return nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]*comic.Comic, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query comics: %w", err)
	}
	defer rows.Close()

	var comics []*comic.Comic
	for rows.Next() {
		c, err := scanComic(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comic: %w", err)
		}
		comics = append(comics, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comics: %w", err)
	}
	return comics, nil
}
