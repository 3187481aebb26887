package metadata

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"

	"folio/internal/comic"
)

// EmbeddedFileName is the exact archive-root entry holding embedded metadata.
const EmbeddedFileName = "ComicInfo.xml"

type fieldSetter func(m *comic.Metadata, value string)

func stringField(get func(*comic.Metadata) **string) fieldSetter {
	return func(m *comic.Metadata, value string) {
		*get(m) = comic.Ptr(value)
	}
}

// intField leaves the field nil when value is not a number.
func intField(get func(*comic.Metadata) **int) fieldSetter {
	return func(m *comic.Metadata, value string) {
		if n, err := strconv.Atoi(value); err == nil {
			*get(m) = comic.Ptr(n)
		}
	}
}

var embeddedTags = map[string]fieldSetter{
	"Title":       stringField(func(m *comic.Metadata) **string { return &m.Title }),
	"Series":      stringField(func(m *comic.Metadata) **string { return &m.Series }),
	"Number":      stringField(func(m *comic.Metadata) **string { return &m.Number }),
	"Volume":      intField(func(m *comic.Metadata) **int { return &m.Volume }),
	"Summary":     stringField(func(m *comic.Metadata) **string { return &m.Summary }),
	"Notes":       stringField(func(m *comic.Metadata) **string { return &m.Notes }),
	"Publisher":   stringField(func(m *comic.Metadata) **string { return &m.Publisher }),
	"Imprint":     stringField(func(m *comic.Metadata) **string { return &m.Imprint }),
	"Genre":       stringField(func(m *comic.Metadata) **string { return &m.Genre }),
	"Web":         stringField(func(m *comic.Metadata) **string { return &m.Web }),
	"LanguageISO": stringField(func(m *comic.Metadata) **string { return &m.LanguageISO }),
	"Format":      stringField(func(m *comic.Metadata) **string { return &m.Format }),
	"AgeRating":   stringField(func(m *comic.Metadata) **string { return &m.AgeRating }),
	"Year":        intField(func(m *comic.Metadata) **int { return &m.Year }),
	"Month":       intField(func(m *comic.Metadata) **int { return &m.Month }),
	"Day":         intField(func(m *comic.Metadata) **int { return &m.Day }),
	"Writer":      stringField(func(m *comic.Metadata) **string { return &m.Writer }),
	"Penciller":   stringField(func(m *comic.Metadata) **string { return &m.Penciller }),
	"Inker":       stringField(func(m *comic.Metadata) **string { return &m.Inker }),
	"Colorist":    stringField(func(m *comic.Metadata) **string { return &m.Colorist }),
	"Letterer":    stringField(func(m *comic.Metadata) **string { return &m.Letterer }),
	"CoverArtist": stringField(func(m *comic.Metadata) **string { return &m.CoverArtist }),
	"Editor":      stringField(func(m *comic.Metadata) **string { return &m.Editor }),
	"PageCount":   intField(func(m *comic.Metadata) **int { return &m.PageCount }),
	"Characters":  stringField(func(m *comic.Metadata) **string { return &m.Characters }),
	"Teams":       stringField(func(m *comic.Metadata) **string { return &m.Teams }),
	"Locations":   stringField(func(m *comic.Metadata) **string { return &m.Locations }),
	"StoryArc":    stringField(func(m *comic.Metadata) **string { return &m.StoryArc }),
	"SeriesGroup": stringField(func(m *comic.Metadata) **string { return &m.SeriesGroup }),
	"BlackAndWhite": func(m *comic.Metadata, value string) {
		m.BlackAndWhite = comic.Ptr(strings.EqualFold(value, "yes") || strings.EqualFold(value, "true"))
	},
	"Manga":           stringField(func(m *comic.Metadata) **string { return &m.Manga }),
	"ScanInformation": stringField(func(m *comic.Metadata) **string { return &m.ScanInformation }),
}

// ParseEmbedded decodes a ComicInfo.xml document. Each recognized tag maps
// onto one metadata field; unknown tags and empty values are ignored. Malformed
// input returns nil and an error marked ErrMetadataParseFailed, which callers
// treat as "no embedded metadata".
func ParseEmbedded(data []byte) (*comic.Metadata, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, comic.Wrap(comic.ErrMetadataParseFailed, "parse embedded", "empty document", nil)
	}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Strict = true

	var (
		m       comic.Metadata
		stack   []string
		text    strings.Builder
		sawRoot bool
	)
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, comic.Wrap(comic.ErrMetadataParseFailed, "parse embedded", "", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			sawRoot = true
			stack = append(stack, t.Name.Local)
			text.Reset()
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, comic.Wrap(comic.ErrMetadataParseFailed, "parse embedded", "unbalanced element", nil)
			}
			stack = stack[:len(stack)-1]
			value := strings.TrimSpace(text.String())
			text.Reset()
			if value == "" {
				continue
			}
			if set, ok := embeddedTags[t.Name.Local]; ok {
				set(&m, value)
			}
		}
	}
	if !sawRoot {
		return nil, comic.Wrap(comic.ErrMetadataParseFailed, "parse embedded", "no root element", nil)
	}
	return &m, nil
}
