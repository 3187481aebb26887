package container

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"folio/internal/comic"
)

// Source is random-access input for a reader. access.Handle implements it.
type Source interface {
	io.ReaderAt
	Size() int64
	Name() string
}

// Reader exposes the ordered pages of one opened comic file.
type Reader interface {
	// PageCount is fixed once Open returns.
	PageCount() int
	// Page extracts or renders the page at index.
	Page(ctx context.Context, index int) (comic.Page, error)
	// Cover returns the image bytes of the first page.
	Cover(ctx context.Context) ([]byte, error)
	// EmbeddedMetadata returns nil, nil when the container carries none.
	EmbeddedMetadata(ctx context.Context) (*comic.Metadata, error)
	// InitialPages returns the pages available without further work.
	InitialPages() []comic.Page
	// Lazy reports whether pages beyond InitialPages require rendering.
	Lazy() bool
	Close() error
}

// Options tune reader construction.
type Options struct {
	// InitialPages is the eager render batch for lazy documents.
	InitialPages int
	// Orientation selects document post-processing ("none" or "flip-landscape").
	Orientation string
	// OpenRenderer overrides the document backend, mostly for tests.
	OpenRenderer RendererFunc
}

const defaultInitialPages = 3

func (o Options) initialPages() int {
	if o.InitialPages <= 0 {
		return defaultInitialPages
	}
	return o.InitialPages
}

// Open selects the reader variant for kind. Unsupported kinds fail with
// ErrInvalidFormat before any bytes are read.
func Open(ctx context.Context, kind comic.Kind, src Source, opts Options) (Reader, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch kind {
	case comic.KindArchive:
		return openArchive(src)
	case comic.KindDocument:
		return openDocument(ctx, src, opts)
	default:
		return nil, comic.Wrap(comic.ErrInvalidFormat, "open container", "unsupported kind "+string(kind), nil)
	}
}

// FileSource adapts an *os.File to Source.
type FileSource struct {
	file *os.File
	size int64
}

// OpenFile opens path directly as a Source, mapping filesystem failures onto
// the comic error taxonomy.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, classifyFSError("open file", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, classifyFSError("stat file", path, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, comic.Wrap(comic.ErrInvalidFormat, "open file", path+" is a directory", nil)
	}
	return &FileSource{file: f, size: info.Size()}, nil
}

func (s *FileSource) ReadAt(p []byte, off int64) (int, error) { return s.file.ReadAt(p, off) }

func (s *FileSource) Size() int64 { return s.size }

func (s *FileSource) Name() string { return filepath.Base(s.file.Name()) }

func (s *FileSource) Close() error { return s.file.Close() }

func classifyFSError(op, path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return comic.Wrap(comic.ErrNotFound, op, path, err)
	case errors.Is(err, fs.ErrPermission):
		return comic.Wrap(comic.ErrAccessDenied, op, path, err)
	default:
		return comic.Wrap(comic.ErrNotFound, op, path, err)
	}
}
