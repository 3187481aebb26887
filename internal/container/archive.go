package container

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"folio/internal/comic"
	"folio/internal/metadata"
)

// archiveReader reads page images out of a zip container. Every page is
// directly extractable, so the reader is not lazy.
type archiveReader struct {
	zr      *zip.Reader
	pages   []*zip.File
	info    *zip.File
	first   sync.Once
	initial []comic.Page
}

func openArchive(src Source) (*archiveReader, error) {
	zr, err := zip.NewReader(src, src.Size())
	if err != nil {
		return nil, comic.Wrap(comic.ErrInvalidFormat, "open archive", src.Name(), err)
	}
	r := &archiveReader{zr: zr}
	for _, f := range zr.File {
		if f.Name == metadata.EmbeddedFileName {
			r.info = f
			continue
		}
		if isPageEntry(f.Name) {
			r.pages = append(r.pages, f)
		}
	}
	if len(r.pages) == 0 {
		return nil, comic.Wrap(comic.ErrNoPages, "open archive", src.Name(), nil)
	}
	sortNatural(r.pages)
	return r, nil
}

// sortNatural orders entries so that "page2" sorts before "page10". Ties in
// collation fall back to the raw byte order of the path.
func sortNatural(files []*zip.File) {
	c := collate.New(language.Und, collate.Numeric, collate.IgnoreCase)
	sort.SliceStable(files, func(i, j int) bool {
		if cmp := c.CompareString(files[i].Name, files[j].Name); cmp != 0 {
			return cmp < 0
		}
		return files[i].Name < files[j].Name
	})
}

func (r *archiveReader) PageCount() int { return len(r.pages) }

func (r *archiveReader) Lazy() bool { return false }

func (r *archiveReader) Page(ctx context.Context, index int) (comic.Page, error) {
	if index < 0 || index >= len(r.pages) {
		return comic.Page{}, comic.Wrap(comic.ErrIndexOutOfRange, "extract page", fmt.Sprintf("index %d of %d", index, len(r.pages)), nil)
	}
	if err := ctx.Err(); err != nil {
		return comic.Page{}, err
	}
	entry := r.pages[index]
	data, err := readEntry(entry)
	if err != nil {
		return comic.Page{}, comic.Wrap(comic.ErrDecodeFailed, "extract page", entry.Name, err)
	}
	if err := checkImage(data); err != nil {
		return comic.Page{}, comic.Wrap(comic.ErrDecodeFailed, "extract page", entry.Name, err)
	}
	return comic.Page{Index: index, Data: data, Name: entry.Name}, nil
}

func (r *archiveReader) Cover(ctx context.Context) ([]byte, error) {
	page, err := r.Page(ctx, 0)
	if err != nil {
		return nil, err
	}
	return page.Data, nil
}

func (r *archiveReader) EmbeddedMetadata(ctx context.Context) (*comic.Metadata, error) {
	if r.info == nil {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := readEntry(r.info)
	if err != nil {
		return nil, comic.Wrap(comic.ErrMetadataParseFailed, "read embedded metadata", r.info.Name, err)
	}
	return metadata.ParseEmbedded(data)
}

// InitialPages extracts the first page once for a fast first paint. A broken
// first page yields an empty batch; Page reports the error on demand.
func (r *archiveReader) InitialPages() []comic.Page {
	r.first.Do(func() {
		if page, err := r.Page(context.Background(), 0); err == nil {
			r.initial = []comic.Page{page}
		}
	})
	return r.initial
}

func (r *archiveReader) Close() error { return nil }

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
