// Package converter implements the conversion dispatcher: file-type
// detection and validation, route selection against the compatibility
// matrix, and the four staged pipelines (PDF to image, office document to
// PDF or image, image to image, image set to PDF), with percentage progress
// reporting and a single-in-flight guard per dispatcher instance.
package converter

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yourorg/go-convert-kit/pkg/format"
)

// File is the source side of a conversion request: the caller-supplied
// bytes, the declared media type, and the original name. It lives only for
// the duration of one dispatcher call.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Artifact is one produced output unit with payload and metadata. A
// multi-page PDF-to-image conversion yields one artifact per page; an
// images-to-PDF conversion yields exactly one.
type Artifact struct {
	Name     string
	Data     []byte
	Size     int64
	MIMEType string

	// PageNumber is the 1-based source page for per-page artifacts, 0 otherwise.
	PageNumber int
	// PageCount is the number of pages contained in a PDF artifact, 0 otherwise.
	PageCount int
	// Width and Height are pixel dimensions for image artifacts, 0 otherwise.
	Width  int
	Height int
}

// ProgressFunc receives progress events during pipeline execution. Percent
// is 0-100 and strictly non-decreasing within a single call; the callback
// runs synchronously on the converting goroutine.
type ProgressFunc func(percent int, message string)

// Options carries per-call conversion parameters. Zero fields are filled
// from the converter's configured defaults before validation.
type Options struct {
	// Scale is the PDF page render magnification (default 2.0).
	Scale float64 `validate:"gte=0.5,lte=8"`
	// Quality is the 0-1 encode quality for lossy image formats (default 0.95).
	Quality float64 `validate:"gt=0,lte=1"`
	// PageSize is the page format for PDF output (default A4).
	PageSize string `validate:"oneof=A4 Letter Legal"`
}

// baseName strips the directory and extension from a source filename,
// falling back to a stable placeholder for nameless inputs.
func baseName(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "converted"
	}
	return base
}

// pageArtifactName names a per-page output: <basename>_page_<n>.<ext> when
// the document has more than one page, else <basename>.<ext>.
func pageArtifactName(base string, page, total int, f format.Format) string {
	if total > 1 {
		return fmt.Sprintf("%s_page_%d.%s", base, page, f.Extension())
	}
	return fmt.Sprintf("%s.%s", base, f.Extension())
}
