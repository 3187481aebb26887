package comic_test

import (
	"errors"
	"strings"
	"testing"

	"folio/internal/comic"
)

func TestKindFromPath(t *testing.T) {
	cases := []struct {
		path string
		want comic.Kind
	}{
		{"/books/Saga 001.cbz", comic.KindArchive},
		{"/books/SAGA.ZIP", comic.KindArchive},
		{"/books/manual.PdF", comic.KindDocument},
		{"/books/old.cbr", comic.KindRAR},
	}
	for _, tc := range cases {
		got, err := comic.KindFromPath(tc.path)
		if err != nil {
			t.Fatalf("KindFromPath(%q) error: %v", tc.path, err)
		}
		if got != tc.want {
			t.Fatalf("KindFromPath(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}

	if _, err := comic.KindFromPath("/books/notes.txt"); !errors.Is(err, comic.ErrInvalidFormat) {
		t.Fatalf("expected invalid format for txt, got %v", err)
	}
}

func TestRARKindFailsValidation(t *testing.T) {
	if comic.KindRAR.Supported() {
		t.Fatal("rar must not be supported")
	}
	if err := comic.KindRAR.Validate(); !errors.Is(err, comic.ErrInvalidFormat) {
		t.Fatalf("expected invalid format, got %v", err)
	}
	if err := comic.KindArchive.Validate(); err != nil {
		t.Fatalf("archive should validate: %v", err)
	}
}

func TestUserMessageDistinguishesRemediation(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{comic.Wrap(comic.ErrNotFound, "open", "", nil), "not found"},
		{comic.Wrap(comic.ErrAccessDenied, "resolve", "", nil), "grant permission"},
		{comic.Wrap(comic.ErrInvalidFormat, "open", "", nil), "unsupported"},
		{comic.Wrap(comic.ErrNoPages, "open", "", nil), "No images"},
	}
	seen := map[string]bool{}
	for _, tc := range cases {
		msg := comic.UserMessage(tc.err)
		if !strings.Contains(msg, tc.want) {
			t.Fatalf("UserMessage(%v) = %q, want fragment %q", tc.err, msg, tc.want)
		}
		if seen[msg] {
			t.Fatalf("duplicate message %q", msg)
		}
		seen[msg] = true
		if !comic.IsFatalOpenError(tc.err) {
			t.Fatalf("expected %v to be fatal at open", tc.err)
		}
	}
	if comic.IsFatalOpenError(comic.Wrap(comic.ErrDecodeFailed, "extract", "", nil)) {
		t.Fatal("decode failures must be recoverable")
	}
}

func TestStripExtension(t *testing.T) {
	if got := comic.StripExtension("Blade 002 (2024).cbz"); got != "Blade 002 (2024)" {
		t.Fatalf("unexpected strip: %q", got)
	}
	if got := comic.StripExtension("Vol. 2"); got != "Vol. 2" {
		t.Fatalf("unrecognized extension must be kept: %q", got)
	}
}

func TestMetadataDisplayHelpers(t *testing.T) {
	m := comic.Metadata{
		Series: comic.Ptr("Blade - Red Band"),
		Number: comic.Ptr("002"),
		Year:   comic.Ptr(2024),
		Month:  comic.Ptr(7),
		Writer: comic.Ptr("Bryan Hill, Someone Else"),
		Inker:  comic.Ptr("  "),
	}
	if got := m.DisplayTitle(); got != "Blade - Red Band #002" {
		t.Fatalf("unexpected display title %q", got)
	}
	date, ok := m.PublicationDate()
	if !ok || date.Year() != 2024 || date.Month() != 7 || date.Day() != 1 {
		t.Fatalf("unexpected publication date %v %v", date, ok)
	}
	credits := m.Credits()
	if len(credits) != 1 || credits[0].Role != "Writer" || len(credits[0].Names) != 2 {
		t.Fatalf("unexpected credits %+v", credits)
	}
	if m.IsEmpty() {
		t.Fatal("metadata with fields is not empty")
	}
	if !(comic.Metadata{}).IsEmpty() {
		t.Fatal("zero metadata must be empty")
	}
}

func TestStatusRank(t *testing.T) {
	if !(comic.StatusUnread.Rank() < comic.StatusReading.Rank() && comic.StatusReading.Rank() < comic.StatusCompleted.Rank()) {
		t.Fatal("status ranks must increase unread < reading < completed")
	}
}
