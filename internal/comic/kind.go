package comic

import (
	"path/filepath"
	"strings"
)

// Kind identifies how a container stores its pages.
type Kind string

const (
	// KindArchive is a zip-style archive of page images (cbz, zip).
	KindArchive Kind = "archive"
	// KindDocument is a paginated document rendered page by page (pdf).
	KindDocument Kind = "document"
	// KindRAR is recognized (cbr, rar) but cannot be opened.
	KindRAR Kind = "rar"
)

var kindByExtension = map[string]Kind{
	".cbz": KindArchive,
	".zip": KindArchive,
	".pdf": KindDocument,
	".cbr": KindRAR,
	".rar": KindRAR,
}

// KindFromPath detects the container kind from the file extension,
// case-insensitively. Unknown extensions return ErrInvalidFormat.
func KindFromPath(path string) (Kind, error) {
	ext := strings.ToLower(filepath.Ext(path))
	kind, ok := kindByExtension[ext]
	if !ok {
		return "", Wrap(ErrInvalidFormat, "detect", "unrecognized extension "+quoteExt(ext), nil)
	}
	return kind, nil
}

// Supported reports whether the kind can be opened.
func (k Kind) Supported() bool {
	return k == KindArchive || k == KindDocument
}

// Validate returns ErrInvalidFormat for unknown or unsupported kinds.
func (k Kind) Validate() error {
	switch k {
	case KindArchive, KindDocument:
		return nil
	case KindRAR:
		return Wrap(ErrInvalidFormat, "open", "rar containers are not supported; repack as cbz", nil)
	default:
		return Wrap(ErrInvalidFormat, "open", "unknown container kind "+quoteExt(string(k)), nil)
	}
}

// IsComicFile reports whether path has an extension Folio recognizes,
// including recognized-but-unsupported kinds.
func IsComicFile(path string) bool {
	_, ok := kindByExtension[strings.ToLower(filepath.Ext(path))]
	return ok
}

// StripExtension removes a recognized comic extension from name.
func StripExtension(name string) string {
	ext := filepath.Ext(name)
	if _, ok := kindByExtension[strings.ToLower(ext)]; ok {
		return strings.TrimSuffix(name, ext)
	}
	return name
}

func quoteExt(ext string) string {
	if ext == "" {
		return `""`
	}
	return `"` + ext + `"`
}
