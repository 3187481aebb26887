package container

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/image/draw"

	"folio/internal/comic"
	"folio/internal/config"
)

// renderDPI renders pages at twice the 72 DPI user space.
const renderDPI = 144

// Renderer is a paginated document backend. Implementations need not be
// safe for concurrent use; documentReader serializes every call.
type Renderer interface {
	NumPage() int
	Bound(index int) (image.Rectangle, error)
	ImageDPI(index int, dpi float64) (image.Image, error)
	Properties() map[string]string
	Close() error
}

// RendererFunc opens a Renderer over the full document bytes.
type RendererFunc func(data []byte) (Renderer, error)

type documentReader struct {
	mu          sync.Mutex
	backend     Renderer
	total       int
	orientation string
	initial     []comic.Page
	closed      bool
}

func openDocument(ctx context.Context, src Source, opts Options) (*documentReader, error) {
	data, err := io.ReadAll(io.NewSectionReader(src, 0, src.Size()))
	if err != nil {
		return nil, comic.Wrap(comic.ErrNotFound, "read document", src.Name(), err)
	}
	openRenderer := opts.OpenRenderer
	if openRenderer == nil {
		openRenderer = openFitz
	}
	backend, err := openRenderer(data)
	if err != nil {
		return nil, comic.Wrap(comic.ErrInvalidFormat, "open document", src.Name(), err)
	}
	total := backend.NumPage()
	if total <= 0 {
		backend.Close()
		return nil, comic.Wrap(comic.ErrNoPages, "open document", src.Name(), nil)
	}

	r := &documentReader{backend: backend, total: total, orientation: opts.Orientation}
	batch := min(opts.initialPages(), total)
	for i := 0; i < batch; i++ {
		page, err := r.Page(ctx, i)
		if err != nil {
			if ctx.Err() != nil {
				r.Close()
				return nil, ctx.Err()
			}
			// Unrenderable early pages are retried on demand.
			continue
		}
		r.initial = append(r.initial, page)
	}
	return r, nil
}

func (r *documentReader) PageCount() int { return r.total }

func (r *documentReader) Lazy() bool { return true }

func (r *documentReader) InitialPages() []comic.Page {
	out := make([]comic.Page, len(r.initial))
	copy(out, r.initial)
	return out
}

func (r *documentReader) Page(ctx context.Context, index int) (comic.Page, error) {
	if index < 0 || index >= r.total {
		return comic.Page{}, comic.Wrap(comic.ErrIndexOutOfRange, "render page", fmt.Sprintf("index %d of %d", index, r.total), nil)
	}
	for _, p := range r.initial {
		if p.Index == index {
			return p, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return comic.Page{}, err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return comic.Page{}, comic.Wrap(comic.ErrDecodeFailed, "render page", "document closed", nil)
	}
	bounds, boundErr := r.backend.Bound(index)
	img, err := r.backend.ImageDPI(index, renderDPI)
	r.mu.Unlock()
	if err != nil {
		return comic.Page{}, comic.Wrap(comic.ErrDecodeFailed, "render page", strconv.Itoa(index), err)
	}

	flat := flatten(img)
	if boundErr == nil && r.orientation == config.OrientationFlipLandscape && bounds.Dx() > bounds.Dy() {
		flipVertical(flat)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, flat); err != nil {
		return comic.Page{}, comic.Wrap(comic.ErrDecodeFailed, "encode page", strconv.Itoa(index), err)
	}
	return comic.Page{Index: index, Data: buf.Bytes(), Name: fmt.Sprintf("page-%04d.png", index+1)}, nil
}

func (r *documentReader) Cover(ctx context.Context) ([]byte, error) {
	page, err := r.Page(ctx, 0)
	if err != nil {
		return nil, err
	}
	return page.Data, nil
}

func (r *documentReader) EmbeddedMetadata(ctx context.Context) (*comic.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	props := r.backend.Properties()
	r.mu.Unlock()
	return documentMetadata(props, r.total), nil
}

func (r *documentReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.backend.Close()
}

// flatten composites img over an opaque white canvas.
func flatten(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

func flipVertical(img *image.RGBA) {
	h := img.Bounds().Dy()
	stride := img.Stride
	row := make([]byte, stride)
	for y := 0; y < h/2; y++ {
		top := img.Pix[y*stride : (y+1)*stride]
		bottom := img.Pix[(h-1-y)*stride : (h-y)*stride]
		copy(row, top)
		copy(top, bottom)
		copy(bottom, row)
	}
}

// documentMetadata maps document properties onto metadata. It returns nil
// when none of title, author, subject or a usable creation date is present.
func documentMetadata(props map[string]string, pages int) *comic.Metadata {
	value := func(key string) *string {
		if v := strings.TrimSpace(props[key]); v != "" {
			return comic.Ptr(v)
		}
		return nil
	}
	m := comic.Metadata{
		Title:   value("title"),
		Writer:  value("author"),
		Summary: value("subject"),
	}
	if created, ok := parseDocumentDate(props["creationDate"]); ok {
		m.Year = comic.Ptr(created.Year())
		m.Month = comic.Ptr(int(created.Month()))
	}
	if m.Title == nil && m.Writer == nil && m.Summary == nil && m.Year == nil {
		return nil
	}
	m.PageCount = comic.Ptr(pages)
	return &m
}

// parseDocumentDate accepts PDF dates ("D:20240131...") and RFC 3339.
func parseDocumentDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	raw = strings.TrimPrefix(raw, "D:")
	if len(raw) < 4 {
		return time.Time{}, false
	}
	layout := "2006"
	if len(raw) >= 6 {
		layout = "200601"
		raw = raw[:6]
	} else {
		raw = raw[:4]
	}
	t, err := time.Parse(layout, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
