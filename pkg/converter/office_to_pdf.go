package converter

import (
	"context"

	"github.com/yourorg/go-convert-kit/pkg/docxutil"
	kiterrors "github.com/yourorg/go-convert-kit/pkg/errors"
	"github.com/yourorg/go-convert-kit/pkg/format"
	"github.com/yourorg/go-convert-kit/pkg/logging"
)

// runOfficeToPDF converts a word-processing document to PDF by extracting
// its content as HTML markup and laying it into a printable region. For
// image targets the produced PDF is fed into the PDF-to-image pipeline,
// with its progress mapped into the remaining range. Layout state is
// per-call and discarded on every path.
func (c *Converter) runOfficeToPDF(ctx context.Context, file File, output format.Format, opts Options, tr *tracker) ([]Artifact, error) {
	logger := logging.FromContext(ctx)

	tr.report(10, "Extracting document content")
	markup, err := c.caps.Markup.ToMarkup(file.Data)
	if err != nil {
		return nil, kiterrors.NewPipelineError("markup_extract", "failed to read document", err)
	}
	if docxutil.IsEmptyMarkup(markup) {
		return nil, kiterrors.NewPipelineError("markup_extract", "no content found in document", nil)
	}

	tr.report(30, "Laying out document")
	pdfData, pages, err := c.caps.MarkupPDF.RenderPDF(markup, opts.PageSize)
	if err != nil {
		return nil, kiterrors.NewPipelineError("pdf_layout", "failed to render document to PDF", err)
	}

	logger.Debug("document rendered",
		logging.NewField("markup_bytes", len(markup)),
		logging.NewField("pages", pages),
	)
	tr.report(60, "Rendered PDF")

	if output == format.PDF {
		artifact := Artifact{
			Name:      baseName(file.Name) + ".pdf",
			Data:      pdfData,
			Size:      int64(len(pdfData)),
			MIMEType:  format.PDF.MIMEType(),
			PageCount: pages,
		}
		tr.report(95, "Packaging output")
		return []Artifact{artifact}, nil
	}

	intermediate := File{
		Name:     baseName(file.Name) + ".pdf",
		MIMEType: format.PDF.MIMEType(),
		Data:     pdfData,
	}
	return c.runPDFToImage(ctx, intermediate, output, opts, tr.window(60, 100))
}
