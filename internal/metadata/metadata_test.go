package metadata_test

import (
	"errors"
	"reflect"
	"testing"

	"folio/internal/comic"
	"folio/internal/metadata"
)

const sampleComicInfo = `<?xml version="1.0" encoding="utf-8"?>
<ComicInfo xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
  <Title>  The Long Night </Title>
  <Series>Saga</Series>
  <Number>12</Number>
  <Volume>2</Volume>
  <Year>2013</Year>
  <Month>June</Month>
  <Publisher>image comics</Publisher>
  <Writer>Brian K. Vaughan</Writer>
  <Penciller>Fiona Staples</Penciller>
  <PageCount>24</PageCount>
  <BlackAndWhite>Yes</BlackAndWhite>
  <Summary></Summary>
  <Pages><Page Image="0" Type="FrontCover"/></Pages>
  <Unknown>ignored</Unknown>
</ComicInfo>`

func TestParseEmbeddedMapsKnownTags(t *testing.T) {
	m, err := metadata.ParseEmbedded([]byte(sampleComicInfo))
	if err != nil {
		t.Fatalf("ParseEmbedded returned error: %v", err)
	}
	if got := comic.Deref(m.Title); got != "The Long Night" {
		t.Fatalf("expected trimmed title, got %q", got)
	}
	if got := comic.Deref(m.Number); got != "12" {
		t.Fatalf("expected number 12, got %q", got)
	}
	if got := comic.Deref(m.Volume); got != 2 {
		t.Fatalf("expected volume 2, got %d", got)
	}
	if m.Month != nil {
		t.Fatalf("expected non-numeric month to stay nil, got %d", *m.Month)
	}
	if m.Summary != nil {
		t.Fatalf("expected empty summary to be skipped, got %q", *m.Summary)
	}
	if m.BlackAndWhite == nil || !*m.BlackAndWhite {
		t.Fatalf("expected black and white true, got %v", m.BlackAndWhite)
	}
	if got := comic.Deref(m.PageCount); got != 24 {
		t.Fatalf("expected page count 24, got %d", got)
	}
	if got := comic.Deref(m.Publisher); got != "image comics" {
		t.Fatalf("expected raw publisher, got %q", got)
	}
}

func TestParseEmbeddedBlackAndWhiteFalse(t *testing.T) {
	m, err := metadata.ParseEmbedded([]byte(`<ComicInfo><BlackAndWhite>No</BlackAndWhite></ComicInfo>`))
	if err != nil {
		t.Fatalf("ParseEmbedded returned error: %v", err)
	}
	if m.BlackAndWhite == nil || *m.BlackAndWhite {
		t.Fatalf("expected explicit false, got %v", m.BlackAndWhite)
	}
}

func TestParseEmbeddedRejectsMalformed(t *testing.T) {
	for name, input := range map[string]string{
		"empty":      "",
		"truncated":  "<ComicInfo><Title>Broken</ComicInfo>",
		"plain text": "not xml at all",
	} {
		t.Run(name, func(t *testing.T) {
			m, err := metadata.ParseEmbedded([]byte(input))
			if err == nil {
				t.Fatalf("expected error, got %+v", m)
			}
			if m != nil {
				t.Fatalf("expected nil metadata on failure, got %+v", m)
			}
			if !errors.Is(err, comic.ErrMetadataParseFailed) {
				t.Fatalf("expected ErrMetadataParseFailed, got %v", err)
			}
		})
	}
}

func TestParseFromFilename(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		series    string
		number    string
		year      int
		format    string
		publisher string
		scan      string
	}{
		{
			name:      "release group becomes publisher",
			file:      "Blade - Red Band 002 (2024) (Paper) (Glix).cbz",
			series:    "Blade - Red Band",
			number:    "002",
			year:      2024,
			format:    "Paper",
			publisher: "Glix",
			scan:      "Glix",
		},
		{
			name:      "known publisher is normalized",
			file:      "Batman #015 (2012) (Digital) (DC).cbr",
			series:    "Batman",
			number:    "015",
			year:      2012,
			format:    "Digital",
			publisher: "DC Comics",
		},
		{
			name:   "trailing short number",
			file:   "Saga 7.cbz",
			series: "Saga",
			number: "7",
		},
		{
			name:   "no number keeps whole base name",
			file:   "Maus.pdf",
			series: "Maus",
		},
		{
			name:      "cosmetic segment ignored",
			file:      "Spawn 300 (Variant Cover) (Ahoy Comics).cbz",
			series:    "Spawn",
			number:    "300",
			publisher: "Ahoy Comics",
		},
		{
			name:   "out of range year ignored",
			file:   "Odd 010 (1850).cbz",
			series: "Odd",
			number: "010",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metadata.ParseFromFilename(tt.file)
			if got := comic.Deref(m.Series); got != tt.series {
				t.Fatalf("series = %q, want %q", got, tt.series)
			}
			if got := comic.Deref(m.Number); got != tt.number {
				t.Fatalf("number = %q, want %q", got, tt.number)
			}
			if got := comic.Deref(m.Year); got != tt.year {
				t.Fatalf("year = %d, want %d", got, tt.year)
			}
			if got := comic.Deref(m.Format); got != tt.format {
				t.Fatalf("format = %q, want %q", got, tt.format)
			}
			if got := comic.Deref(m.Publisher); got != tt.publisher {
				t.Fatalf("publisher = %q, want %q", got, tt.publisher)
			}
			if tt.scan != "" && comic.Deref(m.ScanInformation) != tt.scan {
				t.Fatalf("scan information = %q, want %q", comic.Deref(m.ScanInformation), tt.scan)
			}
		})
	}
}

func TestParseFromFilenameUsesBaseName(t *testing.T) {
	m := metadata.ParseFromFilename("/srv/comics/(2019) Lost/Paper Girls 004.cbz")
	if got := comic.Deref(m.Series); got != "Paper Girls" {
		t.Fatalf("expected directory to be ignored, got series %q", got)
	}
	if m.Year != nil {
		t.Fatalf("expected no year from directory name, got %d", *m.Year)
	}
}

func TestMergePriority(t *testing.T) {
	embedded := &comic.Metadata{Title: comic.Ptr("Embedded"), Writer: comic.Ptr("E. Writer")}
	document := &comic.Metadata{Title: comic.Ptr("Document"), Summary: comic.Ptr("from pdf"), Writer: comic.Ptr("D. Writer")}
	filename := &comic.Metadata{Title: comic.Ptr("Filename"), Series: comic.Ptr("Series"), Summary: comic.Ptr("ignored")}

	merged := metadata.Merge(embedded, document, filename)
	if got := comic.Deref(merged.Title); got != "Embedded" {
		t.Fatalf("title = %q, want Embedded", got)
	}
	if got := comic.Deref(merged.Summary); got != "from pdf" {
		t.Fatalf("summary = %q, want document value", got)
	}
	if got := comic.Deref(merged.Series); got != "Series" {
		t.Fatalf("series = %q, want filename value", got)
	}
	if got := comic.Deref(merged.Writer); got != "E. Writer" {
		t.Fatalf("writer = %q, want embedded value", got)
	}
}

func TestMergeHandlesNilSources(t *testing.T) {
	if merged := metadata.Merge(nil, nil, nil); !merged.IsEmpty() {
		t.Fatalf("expected empty merge, got %+v", merged)
	}
	only := &comic.Metadata{Series: comic.Ptr("Hellboy")}
	merged := metadata.Merge(nil, nil, only)
	if !reflect.DeepEqual(merged, *only) {
		t.Fatalf("expected filename-only merge to equal input, got %+v", merged)
	}
}

func TestMergeIsDeterministic(t *testing.T) {
	embedded, err := metadata.ParseEmbedded([]byte(sampleComicInfo))
	if err != nil {
		t.Fatalf("ParseEmbedded: %v", err)
	}
	filename := metadata.ParseFromFilename("Saga 012 (2013) (Digital).cbz")
	a := metadata.Merge(embedded, nil, &filename)
	b := metadata.Merge(embedded, nil, &filename)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical merges, got %+v and %+v", a, b)
	}
	if got := comic.Deref(a.Format); got != "Digital" {
		t.Fatalf("expected filename format to fill gap, got %q", got)
	}
}

func TestResolveNormalizesPublisher(t *testing.T) {
	candidates := metadata.Candidates{
		comic.FromEmbedded: {Publisher: comic.Ptr("marvel")},
		comic.FromFilename: {Series: comic.Ptr("X-Men")},
	}
	merged := candidates.Resolve()
	if got := comic.Deref(merged.Publisher); got != "Marvel Comics" {
		t.Fatalf("expected normalized publisher, got %q", got)
	}
}

func TestFilenameLanguageSegment(t *testing.T) {
	m := metadata.ParseFromFilename("Asterix 012 (French) (Digital).cbz")
	if got := comic.Deref(m.LanguageISO); got != "fr" {
		t.Fatalf("language = %q, want fr", got)
	}
	if m.ScanInformation != nil || m.Publisher != nil {
		t.Fatalf("language word leaked into scan/publisher: %+v", m)
	}
}

func TestResolveNormalizesLanguage(t *testing.T) {
	merged := metadata.Resolve(&comic.Metadata{LanguageISO: comic.Ptr("ENG")}, nil, nil)
	if got := comic.Deref(merged.LanguageISO); got != "en" {
		t.Fatalf("language = %q, want en", got)
	}
	raw := metadata.Resolve(&comic.Metadata{LanguageISO: comic.Ptr("Elvish")}, nil, nil)
	if got := comic.Deref(raw.LanguageISO); got != "Elvish" {
		t.Fatalf("unrecognized language should be kept, got %q", got)
	}
}

func TestDetectPublisher(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"DC Black Label", "DC Comics", true},
		{"BOOM! Studios", "Boom! Studios", true},
		{"Decal Press", "", false},
		{"drawn & quarterly", "Drawn & Quarterly", true},
		{"", "", false},
	}
	for _, tt := range tests {
		info, ok := metadata.DetectPublisher(tt.text)
		if ok != tt.ok || info.Name != tt.want {
			t.Fatalf("DetectPublisher(%q) = %q,%v want %q,%v", tt.text, info.Name, ok, tt.want, tt.ok)
		}
	}
}

func TestExtractPublisherFallsBackToImprint(t *testing.T) {
	m := comic.Metadata{Imprint: comic.Ptr("vertigo")}
	if got := comic.Deref(metadata.ExtractPublisher(m)); got != "Vertigo" {
		t.Fatalf("expected imprint publisher, got %q", got)
	}
	if got := metadata.ExtractPublisher(comic.Metadata{}); got != nil {
		t.Fatalf("expected nil publisher, got %q", *got)
	}
}

func TestFromContainerRoutesEmbeddedBySource(t *testing.T) {
	props := &comic.Metadata{Title: comic.Ptr("From Properties")}
	doc := metadata.FromContainer(comic.KindDocument, props, "/x/Some Book 003.pdf")
	if comic.Deref(doc.Title) != "From Properties" || comic.Deref(doc.Number) != "003" {
		t.Fatalf("unexpected document metadata %+v", doc)
	}
	archive := metadata.FromContainer(comic.KindArchive, nil, "/x/Some Book 003.cbz")
	if comic.Deref(archive.Series) != "Some Book" {
		t.Fatalf("unexpected archive metadata %+v", archive)
	}
}
