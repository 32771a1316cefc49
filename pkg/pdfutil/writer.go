package pdfutil

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Image types gofpdf embeds without re-rasterization. Anything else must be
// converted to one of these first.
const (
	ImageTypePNG = "PNG"
	ImageTypeJPG = "JPG"
)

// coverFraction is how much of the page an embedded image may occupy along
// its constraining axis.
const coverFraction = 0.9

// ImagePDFBuilder assembles a PDF where each page carries one image, scaled
// to cover 90% of the page's width or height (whichever preserves aspect
// ratio without overflow) and centered.
type ImagePDFBuilder struct {
	pdf   *gofpdf.Fpdf
	pages int
}

// NewImagePDFBuilder creates a builder for the given page format
// ("A4", "Letter", "Legal"), portrait orientation, millimeter units.
func NewImagePDFBuilder(pageSize string) *ImagePDFBuilder {
	pdf := gofpdf.New("P", "mm", pageSize, "")
	return &ImagePDFBuilder{pdf: pdf}
}

// NativeImageType maps a lowercase format tag to the gofpdf image type, or
// false when the format needs re-rasterization before embedding.
func NativeImageType(tag string) (string, bool) {
	switch strings.ToLower(tag) {
	case "png":
		return ImageTypePNG, true
	case "jpg", "jpeg":
		return ImageTypeJPG, true
	default:
		return "", false
	}
}

// AddImagePage appends a page containing the image. pxW and pxH are the
// image's pixel dimensions, used to compute placement from aspect ratio.
func (b *ImagePDFBuilder) AddImagePage(data []byte, imageType string, pxW, pxH int) error {
	if pxW <= 0 || pxH <= 0 {
		return fmt.Errorf("invalid image dimensions %dx%d", pxW, pxH)
	}

	b.pdf.AddPage()
	pageW, pageH := b.pdf.GetPageSize()

	scale := math.Min(coverFraction*pageW/float64(pxW), coverFraction*pageH/float64(pxH))
	w := float64(pxW) * scale
	h := float64(pxH) * scale
	x := (pageW - w) / 2
	y := (pageH - h) / 2

	name := fmt.Sprintf("page-image-%d", b.pages)
	opts := gofpdf.ImageOptions{ImageType: imageType}
	b.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if b.pdf.Err() {
		return fmt.Errorf("embed image: %w", b.pdf.Error())
	}

	b.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	if b.pdf.Err() {
		return fmt.Errorf("draw image: %w", b.pdf.Error())
	}

	b.pages++
	return nil
}

// PageCount returns the number of pages added so far.
func (b *ImagePDFBuilder) PageCount() int {
	return b.pages
}

// Bytes serializes the document.
func (b *ImagePDFBuilder) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := b.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("serialize pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteTo writes the document to w.
func (b *ImagePDFBuilder) WriteTo(w io.Writer) error {
	return b.pdf.Output(w)
}
