package metadata

import (
	"folio/internal/comic"
	"folio/internal/language"
)

func first[T any](values ...*T) *T {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

// Merge reconciles candidate metadata sets field by field. The first non-nil
// value wins in the fixed order embedded, document properties, filename. Any
// argument may be nil. Merge is pure: equal inputs give equal outputs.
func Merge(embedded, document, filename *comic.Metadata) comic.Metadata {
	var e, d, f comic.Metadata
	if embedded != nil {
		e = *embedded
	}
	if document != nil {
		d = *document
	}
	if filename != nil {
		f = *filename
	}
	return comic.Metadata{
		Title:           first(e.Title, d.Title, f.Title),
		Series:          first(e.Series, d.Series, f.Series),
		Number:          first(e.Number, d.Number, f.Number),
		Volume:          first(e.Volume, d.Volume, f.Volume),
		Summary:         first(e.Summary, d.Summary, f.Summary),
		Notes:           first(e.Notes, d.Notes, f.Notes),
		Publisher:       first(e.Publisher, d.Publisher, f.Publisher),
		Imprint:         first(e.Imprint, d.Imprint, f.Imprint),
		Genre:           first(e.Genre, d.Genre, f.Genre),
		Web:             first(e.Web, d.Web, f.Web),
		LanguageISO:     first(e.LanguageISO, d.LanguageISO, f.LanguageISO),
		Format:          first(e.Format, d.Format, f.Format),
		AgeRating:       first(e.AgeRating, d.AgeRating, f.AgeRating),
		Year:            first(e.Year, d.Year, f.Year),
		Month:           first(e.Month, d.Month, f.Month),
		Day:             first(e.Day, d.Day, f.Day),
		Writer:          first(e.Writer, d.Writer, f.Writer),
		Penciller:       first(e.Penciller, d.Penciller, f.Penciller),
		Inker:           first(e.Inker, d.Inker, f.Inker),
		Colorist:        first(e.Colorist, d.Colorist, f.Colorist),
		Letterer:        first(e.Letterer, d.Letterer, f.Letterer),
		CoverArtist:     first(e.CoverArtist, d.CoverArtist, f.CoverArtist),
		Editor:          first(e.Editor, d.Editor, f.Editor),
		PageCount:       first(e.PageCount, d.PageCount, f.PageCount),
		Characters:      first(e.Characters, d.Characters, f.Characters),
		Teams:           first(e.Teams, d.Teams, f.Teams),
		Locations:       first(e.Locations, d.Locations, f.Locations),
		StoryArc:        first(e.StoryArc, d.StoryArc, f.StoryArc),
		SeriesGroup:     first(e.SeriesGroup, d.SeriesGroup, f.SeriesGroup),
		BlackAndWhite:   first(e.BlackAndWhite, d.BlackAndWhite, f.BlackAndWhite),
		Manga:           first(e.Manga, d.Manga, f.Manga),
		ScanInformation: first(e.ScanInformation, d.ScanInformation, f.ScanInformation),
	}
}

// Resolve merges the three sources, normalizes the publisher through the
// alias table and the language to ISO 639-1. It is the single entry point
// readers and the importer use.
func Resolve(embedded, document, filename *comic.Metadata) comic.Metadata {
	merged := Merge(embedded, document, filename)
	merged.Publisher = ExtractPublisher(merged)
	if merged.LanguageISO != nil {
		if code := language.Normalize(*merged.LanguageISO); code != "" {
			merged.LanguageISO = comic.Ptr(code)
		}
	}
	return merged
}

// Candidates bundles the provenance-tagged inputs of one merge.
type Candidates map[comic.Provenance]*comic.Metadata

// Resolve merges the candidate set in priority order.
func (c Candidates) Resolve() comic.Metadata {
	return Resolve(c[comic.FromEmbedded], c[comic.FromDocument], c[comic.FromFilename])
}

// FromContainer resolves metadata for a comic at path. Embedded data read from
// a document is treated as document properties; from an archive it is the
// ComicInfo record.
func FromContainer(kind comic.Kind, embedded *comic.Metadata, path string) comic.Metadata {
	fromName := ParseFromFilename(path)
	candidates := Candidates{comic.FromFilename: &fromName}
	if kind == comic.KindDocument {
		candidates[comic.FromDocument] = embedded
	} else {
		candidates[comic.FromEmbedded] = embedded
	}
	return candidates.Resolve()
}
