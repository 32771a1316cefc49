package docxutil

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Layout constants for the printable region: A4-equivalent page with fixed
// margins, body font, and line spacing.
const (
	marginLeft   = 15.0 // mm
	marginTop    = 20.0 // mm
	marginRight  = 15.0 // mm
	marginBottom = 20.0 // mm
	bodyFontSize = 12.0 // pt
	lineHeight   = 6.0  // mm
)

// Renderer lays HTML markup into a printable page region and rasterizes it
// to PDF bytes. Each call builds and discards its own layout state; nothing
// is retained between conversions.
type Renderer struct{}

// NewRenderer creates a markup renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderPDF renders markup into a PDF with the given page format and returns
// the serialized bytes and the resulting page count.
func (r *Renderer) RenderPDF(markup, pageSize string) ([]byte, int, error) {
	pdf := gofpdf.New("P", "mm", pageSize, "")
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, marginBottom)
	pdf.AddPage()
	pdf.SetFont("Arial", "", bodyFontSize)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	writer := pdf.HTMLBasicNew()
	writer.Write(lineHeight, tr(normalizeMarkup(markup)))

	if pdf.Err() {
		return nil, 0, fmt.Errorf("layout markup: %w", pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, 0, fmt.Errorf("serialize pdf: %w", err)
	}
	return buf.Bytes(), pdf.PageCount(), nil
}

// normalizeMarkup rewrites block-level tags into the subset the basic HTML
// writer understands (b, i, u, br, center). Headings become bold lines,
// paragraphs become line breaks.
func normalizeMarkup(markup string) string {
	replacer := strings.NewReplacer(
		"<h1>", "<b>", "</h1>", "</b><br><br>",
		"<h2>", "<b>", "</h2>", "</b><br><br>",
		"<h3>", "<b>", "</h3>", "</b><br>",
		"<p>", "", "</p>", "<br>",
		"\n", "",
	)
	return replacer.Replace(markup)
}
