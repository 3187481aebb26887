package comic

import (
	"time"
)

// ContainerRef identifies a comic source file. It is immutable; re-resolving
// a token yields a new ref through WithPath.
type ContainerRef struct {
	Path  string
	Token []byte
	Kind  Kind
}

// NewContainerRef builds a ref, detecting the kind from the path extension.
func NewContainerRef(path string, token []byte) (ContainerRef, error) {
	kind, err := KindFromPath(path)
	if err != nil {
		return ContainerRef{}, err
	}
	return ContainerRef{Path: path, Token: token, Kind: kind}, nil
}

// WithPath returns a copy of the ref pointing at a re-resolved location.
func (r ContainerRef) WithPath(path string) ContainerRef {
	r.Path = path
	return r
}

// Page is one page image and its position in the container. Pages are never
// mutated once produced; a reload replaces the value.
type Page struct {
	Index int
	Data  []byte
	// Name is the source entry name used for ordering (archive path or
	// synthesized "page-0001.png" for documents).
	Name string
}

// PageSet is the logical ordered sequence of pages for one open comic.
// Ready keys always fall within [0, Total).
type PageSet struct {
	Total int
	Ready map[int]Page
}

// ReadingStatus tracks how far a reader got through a comic.
type ReadingStatus string

const (
	StatusUnread    ReadingStatus = "unread"
	StatusReading   ReadingStatus = "reading"
	StatusCompleted ReadingStatus = "completed"
)

// Rank orders statuses so transitions can be checked for regressions.
func (s ReadingStatus) Rank() int {
	switch s {
	case StatusReading:
		return 1
	case StatusCompleted:
		return 2
	default:
		return 0
	}
}

// Valid reports whether s is a known status.
func (s ReadingStatus) Valid() bool {
	switch s {
	case StatusUnread, StatusReading, StatusCompleted:
		return true
	default:
		return false
	}
}

// Progress is the durable reading position for one comic.
type Progress struct {
	ComicID     string        `json:"comic_id"`
	CurrentPage int           `json:"current_page"`
	TotalPages  int           `json:"total_pages"`
	Status      ReadingStatus `json:"status"`
	LastUpdate  time.Time     `json:"last_update"`
}

// Comic is a library record.
type Comic struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Path        string     `json:"path"`
	Kind        Kind       `json:"kind"`
	Token       []byte     `json:"-"`
	Bundled     bool       `json:"bundled"`
	PageCount   int        `json:"page_count"`
	FileSize    int64      `json:"file_size"`
	Fingerprint string     `json:"fingerprint,omitempty"`
	Metadata    Metadata   `json:"metadata"`
	CoverPath   string     `json:"-"`
	AddedAt     time.Time  `json:"added_at"`
	LastOpened  *time.Time `json:"last_opened,omitempty"`
	Progress    *Progress  `json:"progress,omitempty"`
}

// Ref returns the container reference used to open the comic.
func (c *Comic) Ref() ContainerRef {
	return ContainerRef{Path: c.Path, Token: c.Token, Kind: c.Kind}
}

// Status reports the reading status, unread when no progress exists.
func (c *Comic) Status() ReadingStatus {
	if c == nil || c.Progress == nil {
		return StatusUnread
	}
	return c.Progress.Status
}
