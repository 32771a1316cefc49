package converter

import (
	"context"
	"fmt"

	kiterrors "github.com/yourorg/go-convert-kit/pkg/errors"
	"github.com/yourorg/go-convert-kit/pkg/format"
	"github.com/yourorg/go-convert-kit/pkg/logging"
)

// runPDFToImage renders each page of a PDF to the target image format, one
// artifact per page in ascending page order. Progress: roughly 0-20 for
// load, 20-80 linearly across pages, 80-100 for teardown.
func (c *Converter) runPDFToImage(ctx context.Context, file File, output format.Format, opts Options, tr *tracker) ([]Artifact, error) {
	logger := logging.FromContext(ctx)

	tr.report(5, "Loading PDF document")
	doc, err := c.caps.PDFRenderer.Open(file.Data)
	if err != nil {
		return nil, kiterrors.NewPipelineError("pdf_load", "failed to open PDF document", err)
	}
	// The decoder must be released on every path; Close is idempotent so the
	// explicit success-path close below is safe.
	defer doc.Close()

	total := doc.PageCount()
	if total == 0 {
		return nil, kiterrors.NewPipelineError("pdf_load", "PDF document has no pages", nil)
	}

	logger.Debug("pdf opened",
		logging.NewField("pages", total),
		logging.NewField("scale", opts.Scale),
	)
	tr.report(20, fmt.Sprintf("Rendering %d page(s)", total))

	base := baseName(file.Name)
	artifacts := make([]Artifact, 0, total)

	for i := 0; i < total; i++ {
		select {
		case <-ctx.Done():
			return nil, kiterrors.NewPipelineError("pdf_render", "conversion canceled", ctx.Err())
		default:
		}

		img, err := doc.RenderPage(i, opts.Scale)
		if err != nil {
			return nil, kiterrors.NewPipelineError("pdf_render",
				fmt.Sprintf("failed to render page %d", i+1), err)
		}

		data, err := c.caps.Raster.Encode(img, output, opts.Quality)
		if err != nil {
			return nil, kiterrors.NewPipelineError("image_encode",
				fmt.Sprintf("failed to encode page %d as %s", i+1, output), err)
		}

		bounds := img.Bounds()
		artifacts = append(artifacts, Artifact{
			Name:       pageArtifactName(base, i+1, total, output),
			Data:       data,
			Size:       int64(len(data)),
			MIMEType:   output.MIMEType(),
			PageNumber: i + 1,
			Width:      bounds.Dx(),
			Height:     bounds.Dy(),
		})

		tr.report(20+60*(i+1)/total, fmt.Sprintf("Converted page %d of %d", i+1, total))
	}

	tr.report(90, "Releasing document resources")
	if err := doc.Close(); err != nil {
		logger.Warn("pdf close failed", logging.NewField("error", err))
	}

	return artifacts, nil
}
