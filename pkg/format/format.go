// Package format defines the canonical format tags the converter understands,
// detection from declared media type and filename, and the static
// compatibility matrix that maps input formats to permitted output formats.
package format

import (
	"path/filepath"
	"strings"
)

// Format is a canonical lowercase short code for a file format.
type Format string

const (
	PDF  Format = "pdf"
	DOCX Format = "docx"
	DOC  Format = "doc"
	PNG  Format = "png"
	JPG  Format = "jpg"
	WEBP Format = "webp"
	GIF  Format = "gif"

	// ImageSet is the synthetic input tag for the batch images-to-PDF route.
	ImageSet Format = "multiple_images"
)

// mimeFormats maps declared media types to canonical format tags.
// Detection is by declared type and extension only; there is no magic-byte
// sniffing. Mismatched bytes fail naturally in the downstream pipeline.
var mimeFormats = map[string]Format{
	"application/pdf": PDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": DOCX,
	"application/msword": DOC,
	"image/png":          PNG,
	"image/jpeg":         JPG,
	"image/jpg":          JPG,
	"image/webp":         WEBP,
	"image/gif":          GIF,
}

// extFormats maps lowercased filename extensions to canonical format tags.
var extFormats = map[string]Format{
	".pdf":  PDF,
	".docx": DOCX,
	".doc":  DOC,
	".png":  PNG,
	".jpg":  JPG,
	".jpeg": JPG,
	".webp": WEBP,
	".gif":  GIF,
}

// Detect returns the canonical format tag for a file given its declared
// media type and name. The media type lookup is primary; an absent or
// unrecognized media type falls back to the lowercased filename extension.
func Detect(mimeType, filename string) (Format, bool) {
	if f, ok := mimeFormats[strings.ToLower(strings.TrimSpace(mimeType))]; ok {
		return f, true
	}
	if f, ok := extFormats[strings.ToLower(filepath.Ext(filename))]; ok {
		return f, true
	}
	return "", false
}

// MIMEType returns the media type produced for this format.
func (f Format) MIMEType() string {
	switch f {
	case PDF:
		return "application/pdf"
	case DOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case DOC:
		return "application/msword"
	case PNG:
		return "image/png"
	case JPG:
		return "image/jpeg"
	case WEBP:
		return "image/webp"
	case GIF:
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}

// Extension returns the filename extension for this format, without the dot.
func (f Format) Extension() string {
	return string(f)
}

// IsImage reports whether the format is a raster image type.
func (f Format) IsImage() bool {
	switch f {
	case PNG, JPG, WEBP, GIF:
		return true
	default:
		return false
	}
}

// IsLossy reports whether encoding to this format applies lossy compression,
// and therefore honors a quality setting.
func (f Format) IsLossy() bool {
	return f == JPG || f == WEBP
}
