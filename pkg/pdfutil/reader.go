// Package pdfutil wraps the two PDF capabilities the pipelines need:
// rendering existing PDFs to raster pages (go-fitz / MuPDF) and writing new
// PDFs with one image per page (gofpdf).
package pdfutil

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// Document is an open PDF ready for page rendering. Callers must Close it
// when done, on success and failure paths alike.
type Document struct {
	doc *fitz.Document
}

// OpenDocument opens a PDF from memory.
func OpenDocument(data []byte) (*Document, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &Document{doc: doc}, nil
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.doc.NumPage()
}

// RenderPage rasterizes page n (0-based) at the given magnification relative
// to the PDF's native 72 DPI. Scale 2.0 renders at 144 DPI.
func (d *Document) RenderPage(n int, scale float64) (image.Image, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("render scale must be positive, got %g", scale)
	}
	img, err := d.doc.ImageDPI(n, 72*scale)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", n+1, err)
	}
	return img, nil
}

// Close releases the underlying decoder resources. Safe to call once.
func (d *Document) Close() error {
	if d.doc == nil {
		return nil
	}
	err := d.doc.Close()
	d.doc = nil
	return err
}
