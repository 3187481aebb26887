package comic

import (
	"fmt"
	"strings"
	"time"
)

// Provenance records which source produced a metadata candidate.
type Provenance string

const (
	FromEmbedded Provenance = "embedded"
	FromDocument Provenance = "document"
	FromFilename Provenance = "filename"
)

// Metadata holds optional descriptive fields. Every field is independently
// nullable; nil means the source said nothing about it.
type Metadata struct {
	Title           *string `json:"title,omitempty"`
	Series          *string `json:"series,omitempty"`
	Number          *string `json:"number,omitempty"`
	Volume          *int    `json:"volume,omitempty"`
	Summary         *string `json:"summary,omitempty"`
	Notes           *string `json:"notes,omitempty"`
	Publisher       *string `json:"publisher,omitempty"`
	Imprint         *string `json:"imprint,omitempty"`
	Genre           *string `json:"genre,omitempty"`
	Web             *string `json:"web,omitempty"`
	LanguageISO     *string `json:"language_iso,omitempty"`
	Format          *string `json:"format,omitempty"`
	AgeRating       *string `json:"age_rating,omitempty"`
	Year            *int    `json:"year,omitempty"`
	Month           *int    `json:"month,omitempty"`
	Day             *int    `json:"day,omitempty"`
	Writer          *string `json:"writer,omitempty"`
	Penciller       *string `json:"penciller,omitempty"`
	Inker           *string `json:"inker,omitempty"`
	Colorist        *string `json:"colorist,omitempty"`
	Letterer        *string `json:"letterer,omitempty"`
	CoverArtist     *string `json:"cover_artist,omitempty"`
	Editor          *string `json:"editor,omitempty"`
	PageCount       *int    `json:"page_count,omitempty"`
	Characters      *string `json:"characters,omitempty"`
	Teams           *string `json:"teams,omitempty"`
	Locations       *string `json:"locations,omitempty"`
	StoryArc        *string `json:"story_arc,omitempty"`
	SeriesGroup     *string `json:"series_group,omitempty"`
	BlackAndWhite   *bool   `json:"black_and_white,omitempty"`
	Manga           *string `json:"manga,omitempty"`
	ScanInformation *string `json:"scan_information,omitempty"`
}

// Ptr returns a pointer to v. It keeps metadata literals readable.
func Ptr[T any](v T) *T {
	return &v
}

// Deref returns *p or the zero value.
func Deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// DisplayTitle prefers the explicit title, then "Series #Number", then the
// series alone. It returns "" when none is known.
func (m Metadata) DisplayTitle() string {
	if title := strings.TrimSpace(Deref(m.Title)); title != "" {
		return title
	}
	series := strings.TrimSpace(Deref(m.Series))
	number := strings.TrimSpace(Deref(m.Number))
	switch {
	case series != "" && number != "":
		return series + " #" + number
	default:
		return series
	}
}

// PublicationDate assembles year/month/day. Missing month or day default to 1.
func (m Metadata) PublicationDate() (time.Time, bool) {
	if m.Year == nil {
		return time.Time{}, false
	}
	month := 1
	if m.Month != nil && *m.Month >= 1 && *m.Month <= 12 {
		month = *m.Month
	}
	day := 1
	if m.Day != nil && *m.Day >= 1 && *m.Day <= 31 {
		day = *m.Day
	}
	return time.Date(*m.Year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// Credit pairs a creative role with the people credited for it.
type Credit struct {
	Role  string
	Names []string
}

// Credits lists creator roles in display order, splitting comma-separated names.
func (m Metadata) Credits() []Credit {
	roles := []struct {
		role  string
		value *string
	}{
		{"Writer", m.Writer},
		{"Penciller", m.Penciller},
		{"Inker", m.Inker},
		{"Colorist", m.Colorist},
		{"Letterer", m.Letterer},
		{"Cover Artist", m.CoverArtist},
		{"Editor", m.Editor},
	}
	var credits []Credit
	for _, r := range roles {
		names := splitNames(Deref(r.value))
		if len(names) == 0 {
			continue
		}
		credits = append(credits, Credit{Role: r.role, Names: names})
	}
	return credits
}

// IsEmpty reports whether no field is set.
func (m Metadata) IsEmpty() bool {
	return m == Metadata{}
}

// IssueLabel renders "#Number" or "Vol. N" for list views.
func (m Metadata) IssueLabel() string {
	switch {
	case m.Number != nil && *m.Number != "":
		return "#" + *m.Number
	case m.Volume != nil:
		return fmt.Sprintf("Vol. %d", *m.Volume)
	default:
		return ""
	}
}

func splitNames(value string) []string {
	var names []string
	for _, part := range strings.Split(value, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}
