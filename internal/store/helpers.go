package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"folio/internal/comic"
)

const comicColumns = "c.id, c.title, c.path, c.kind, c.token, c.bundled, c.page_count, c.file_size, c.fingerprint, c.metadata_json, c.cover_path, c.added_at, c.last_opened, p.current_page, p.total_pages, p.status, p.last_update"

const comicFrom = " FROM comics c LEFT JOIN reading_progress p ON p.comic_id = c.id"

func scanComic(scanner interface{ Scan(dest ...any) error }) (*comic.Comic, error) {
	var (
		id            string
		title         string
		path          string
		kind          string
		token         []byte
		bundled       int
		pageCount     int
		fileSize      int64
		fingerprint   sql.NullString
		metadataJSON  sql.NullString
		coverPath     sql.NullString
		addedRaw      string
		lastOpenedRaw sql.NullString
		currentPage   sql.NullInt64
		totalPages    sql.NullInt64
		status        sql.NullString
		updateRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&title,
		&path,
		&kind,
		&token,
		&bundled,
		&pageCount,
		&fileSize,
		&fingerprint,
		&metadataJSON,
		&coverPath,
		&addedRaw,
		&lastOpenedRaw,
		&currentPage,
		&totalPages,
		&status,
		&updateRaw,
	); err != nil {
		return nil, err
	}

	c := &comic.Comic{
		ID:          id,
		Title:       title,
		Path:        path,
		Kind:        comic.Kind(kind),
		Token:       token,
		Bundled:     bundled != 0,
		PageCount:   pageCount,
		FileSize:    fileSize,
		Fingerprint: fingerprint.String,
		CoverPath:   coverPath.String,
	}
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &c.Metadata); err != nil {
			return nil, err
		}
	}
	if added, err := parseTimeString(addedRaw); err == nil {
		c.AddedAt = added
	}
	if lastOpenedRaw.Valid {
		if opened, err := parseTimeString(lastOpenedRaw.String); err == nil {
			c.LastOpened = &opened
		}
	}
	if status.Valid {
		c.Progress = &comic.Progress{
			ComicID:     id,
			CurrentPage: int(currentPage.Int64),
			TotalPages:  int(totalPages.Int64),
			Status:      comic.ReadingStatus(status.String),
		}
		if updated, err := parseTimeString(updateRaw.String); err == nil {
			c.Progress.LastUpdate = updated
		}
	}
	return c, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullablePtr(value *string) any {
	if value == nil {
		return nil
	}
	return nullableString(*value)
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

// likePattern escapes LIKE wildcards in q and wraps it for a contains match.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}
