package testsupport

import (
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	"folio/internal/container"
)

// FakeRenderer is an in-memory document backend.
type FakeRenderer struct {
	Pages  int
	Width  int
	Height int
	// Landscape marks page indices whose bounds are wider than tall.
	Landscape map[int]bool
	// Fail marks page indices that fail to render.
	Fail  map[int]bool
	Delay time.Duration
	Props map[string]string

	renders    atomic.Int64
	active     atomic.Int64
	overlap    atomic.Bool
	afterClose atomic.Int64
	mu         sync.Mutex
	closed     bool
}

// Open returns a container.RendererFunc that always yields f.
func (f *FakeRenderer) Open() container.RendererFunc {
	return func([]byte) (container.Renderer, error) {
		return f, nil
	}
}

// Renders counts ImageDPI calls.
func (f *FakeRenderer) Renders() int { return int(f.renders.Load()) }

// Overlapped reports whether two calls ever ran concurrently.
func (f *FakeRenderer) Overlapped() bool { return f.overlap.Load() }

// CallsAfterClose counts renders that started after Close or were still
// running when Close was called.
func (f *FakeRenderer) CallsAfterClose() int { return int(f.afterClose.Load()) }

// Closed reports whether Close ran.
func (f *FakeRenderer) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *FakeRenderer) NumPage() int { return f.Pages }

func (f *FakeRenderer) Bound(index int) (image.Rectangle, error) {
	w, h := f.size()
	if f.Landscape[index] {
		w, h = h, w
	}
	return image.Rect(0, 0, w, h), nil
}

func (f *FakeRenderer) ImageDPI(index int, dpi float64) (image.Image, error) {
	if f.Closed() {
		f.afterClose.Add(1)
		return nil, errors.New("fake renderer closed")
	}
	if f.active.Add(1) > 1 {
		f.overlap.Store(true)
	}
	defer f.active.Add(-1)
	f.renders.Add(1)
	if f.Delay > 0 {
		time.Sleep(f.Delay)
	}
	if f.Fail[index] {
		return nil, errors.New("fake render failure")
	}
	bounds, _ := f.Bound(index)
	scale := dpi / 72
	img := image.NewNRGBA(image.Rect(0, 0, int(float64(bounds.Dx())*scale), int(float64(bounds.Dy())*scale)))
	// Top row opaque black, rest transparent, so flips and compositing show.
	for x := 0; x < img.Bounds().Dx(); x++ {
		img.Set(x, 0, color.Black)
	}
	return img, nil
}

func (f *FakeRenderer) Properties() map[string]string { return f.Props }

func (f *FakeRenderer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active.Load() > 0 {
		f.afterClose.Add(1)
	}
	f.closed = true
	return nil
}

func (f *FakeRenderer) size() (int, int) {
	w, h := f.Width, f.Height
	if w <= 0 {
		w = 6
	}
	if h <= 0 {
		h = 9
	}
	return w, h
}
