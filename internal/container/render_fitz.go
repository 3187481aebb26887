package container

import (
	"image"

	"github.com/gen2brain/go-fitz"
)

// fitzRenderer renders documents through MuPDF.
type fitzRenderer struct {
	doc *fitz.Document
}

func openFitz(data []byte) (Renderer, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, err
	}
	return &fitzRenderer{doc: doc}, nil
}

func (f *fitzRenderer) NumPage() int { return f.doc.NumPage() }

func (f *fitzRenderer) Bound(index int) (image.Rectangle, error) { return f.doc.Bound(index) }

func (f *fitzRenderer) ImageDPI(index int, dpi float64) (image.Image, error) {
	img, err := f.doc.ImageDPI(index, dpi)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (f *fitzRenderer) Properties() map[string]string { return f.doc.Metadata() }

func (f *fitzRenderer) Close() error { return f.doc.Close() }
