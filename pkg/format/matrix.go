package format

import (
	"github.com/yourorg/go-convert-kit/pkg/errors"
)

// PipelineKind identifies one of the four conversion pipelines.
type PipelineKind int

const (
	PipelinePDFToImage PipelineKind = iota
	PipelineOfficeToPDF
	PipelineImageToImage
	PipelineImageSetToPDF
)

// String returns a short name for logging.
func (k PipelineKind) String() string {
	switch k {
	case PipelinePDFToImage:
		return "pdf_to_image"
	case PipelineOfficeToPDF:
		return "office_to_pdf"
	case PipelineImageToImage:
		return "image_to_image"
	case PipelineImageSetToPDF:
		return "image_set_to_pdf"
	default:
		return "unknown"
	}
}

// Route is a validated (input, output) format pair resolved to a pipeline kind.
type Route struct {
	Input  Format
	Output Format
	Kind   PipelineKind
}

// compatibility is the static matrix of permitted conversions. Read-only,
// never mutated after initialization.
var compatibility = map[Format][]Format{
	PDF:      {PNG, JPG},
	DOCX:     {PDF, PNG, JPG},
	DOC:      {PDF, PNG, JPG},
	PNG:      {PDF, JPG, WEBP},
	JPG:      {PDF, PNG, WEBP},
	WEBP:     {PDF, PNG, JPG},
	GIF:      {PDF, PNG, JPG},
	ImageSet: {PDF},
}

// Routes returns a copy of the compatibility matrix keyed by input format.
func Routes() map[Format][]Format {
	out := make(map[Format][]Format, len(compatibility))
	for in, targets := range compatibility {
		out[in] = append([]Format(nil), targets...)
	}
	return out
}

// Supported reports whether the matrix knows the input format at all.
func Supported(in Format) bool {
	_, ok := compatibility[in]
	return ok
}

// Allowed reports whether the matrix permits converting in to out.
func Allowed(in, out Format) bool {
	for _, t := range compatibility[in] {
		if t == out {
			return true
		}
	}
	return false
}

// Resolve maps a validated (input, output) pair to a pipeline kind. It is a
// pure lookup: no I/O, no side effects. An unknown input format or an output
// outside the input's allowed set fails with an unsupported-route error.
func Resolve(in, out Format) (Route, error) {
	if !Supported(in) || !Allowed(in, out) {
		return Route{}, errors.NewUnsupportedRouteError(string(in), string(out))
	}

	var kind PipelineKind
	switch in {
	case PDF:
		kind = PipelinePDFToImage
	case DOCX, DOC:
		kind = PipelineOfficeToPDF
	case ImageSet:
		kind = PipelineImageSetToPDF
	default:
		// Raster inputs. A pdf target is still the image pipeline's job;
		// it redirects into the image-set pipeline internally.
		kind = PipelineImageToImage
	}

	return Route{Input: in, Output: out, Kind: kind}, nil
}
