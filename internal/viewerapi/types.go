package viewerapi

import (
	"time"

	"folio/internal/comic"
	"folio/internal/pagestream"
)

// ComicSummary is the list view of a library record.
type ComicSummary struct {
	ID         string              `json:"id"`
	Title      string              `json:"title"`
	Kind       comic.Kind          `json:"kind"`
	Series     string              `json:"series,omitempty"`
	Issue      string              `json:"issue,omitempty"`
	Publisher  string              `json:"publisher,omitempty"`
	PageCount  int                 `json:"page_count"`
	Status     comic.ReadingStatus `json:"status"`
	LastOpened *time.Time          `json:"last_opened,omitempty"`
	CoverURL   string              `json:"cover_url,omitempty"`
}

// ComicListResponse wraps GET /api/comics.
type ComicListResponse struct {
	Items []ComicSummary `json:"items"`
}

// ComicResponse wraps GET /api/comics/{id}.
type ComicResponse struct {
	ComicSummary
	Bundled  bool            `json:"bundled"`
	AddedAt  time.Time       `json:"added_at"`
	Metadata comic.Metadata  `json:"metadata"`
	Progress *comic.Progress `json:"progress,omitempty"`
}

// OpenSessionRequest is the body of POST /api/sessions.
type OpenSessionRequest struct {
	ComicID string `json:"comic_id"`
}

// OpenSessionResponse describes a freshly opened session.
type OpenSessionResponse struct {
	SessionID  string         `json:"session_id"`
	ComicID    string         `json:"comic_id"`
	TotalPages int            `json:"total_pages"`
	StartPage  int            `json:"start_page"`
	Metadata   comic.Metadata `json:"metadata"`
	CoverURL   string         `json:"cover_url"`
	Stale      bool           `json:"stale,omitempty"`
	FellBack   bool           `json:"fell_back,omitempty"`
}

// SessionResponse wraps GET /api/sessions/{sid}.
type SessionResponse struct {
	SessionID  string            `json:"session_id"`
	ComicID    string            `json:"comic_id"`
	State      pagestream.State  `json:"state"`
	TotalPages int               `json:"total_pages"`
	Cached     int               `json:"cached"`
	Pages      []pagestream.Slot `json:"pages"`
}

// PositionRequest is the body of PUT /api/sessions/{sid}/position.
type PositionRequest struct {
	Page *int `json:"page"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func summarize(c *comic.Comic) ComicSummary {
	summary := ComicSummary{
		ID:         c.ID,
		Title:      c.Title,
		Kind:       c.Kind,
		Series:     comic.Deref(c.Metadata.Series),
		Issue:      c.Metadata.IssueLabel(),
		Publisher:  comic.Deref(c.Metadata.Publisher),
		PageCount:  c.PageCount,
		Status:     c.Status(),
		LastOpened: c.LastOpened,
	}
	if c.CoverPath != "" {
		summary.CoverURL = coverURL(c.ID)
	}
	return summary
}

func coverURL(id string) string {
	return "/api/comics/" + id + "/cover"
}
