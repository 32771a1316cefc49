package converter

import (
	"image"

	"github.com/yourorg/go-convert-kit/pkg/docxutil"
	"github.com/yourorg/go-convert-kit/pkg/format"
	"github.com/yourorg/go-convert-kit/pkg/imageutil"
	"github.com/yourorg/go-convert-kit/pkg/pdfutil"
)

// The external rendering and parsing capabilities the pipelines sequence.
// They are opaque collaborators: the dispatcher's job is ordering, progress,
// and error wrapping around them, not codec work.

// PDFDocument is an open PDF being rendered page by page. Close must be
// called on success and failure paths alike, and must be safe to call twice.
type PDFDocument interface {
	PageCount() int
	RenderPage(n int, scale float64) (image.Image, error)
	Close() error
}

// PDFRenderer opens PDF bytes for page rendering.
type PDFRenderer interface {
	Open(data []byte) (PDFDocument, error)
}

// PDFBuilder assembles a PDF one image page at a time.
type PDFBuilder interface {
	AddImagePage(data []byte, imageType string, pxW, pxH int) error
	PageCount() int
	Bytes() ([]byte, error)
}

// PDFWriter creates empty PDF documents for the given page format.
type PDFWriter interface {
	NewDocument(pageSize string) PDFBuilder
}

// RasterCodec decodes source images to an in-memory surface and encodes
// surfaces to target formats at a requested quality.
type RasterCodec interface {
	Decode(data []byte, f format.Format) (image.Image, error)
	Encode(img image.Image, f format.Format, quality float64) ([]byte, error)
}

// MarkupExtractor converts office-document bytes to an HTML markup string.
type MarkupExtractor interface {
	ToMarkup(data []byte) (string, error)
}

// MarkupRenderer lays HTML markup into a printable region and returns the
// rendered PDF bytes and page count.
type MarkupRenderer interface {
	RenderPDF(markup, pageSize string) ([]byte, int, error)
}

// Capabilities bundles the collaborators a converter dispatches to.
type Capabilities struct {
	PDFRenderer PDFRenderer
	PDFWriter   PDFWriter
	Raster      RasterCodec
	Markup      MarkupExtractor
	MarkupPDF   MarkupRenderer
}

// DefaultCapabilities wires the production implementations: go-fitz for PDF
// rendering, gofpdf for PDF writing and markup layout, and the
// imaging/webp-based raster codec.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		PDFRenderer: fitzRenderer{},
		PDFWriter:   gofpdfWriter{},
		Raster:      imageutil.NewCodec(),
		Markup:      docxutil.NewExtractor(),
		MarkupPDF:   docxutil.NewRenderer(),
	}
}

type fitzRenderer struct{}

func (fitzRenderer) Open(data []byte) (PDFDocument, error) {
	return pdfutil.OpenDocument(data)
}

type gofpdfWriter struct{}

func (gofpdfWriter) NewDocument(pageSize string) PDFBuilder {
	return pdfutil.NewImagePDFBuilder(pageSize)
}
