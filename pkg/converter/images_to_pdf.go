package converter

import (
	"context"
	"fmt"

	kiterrors "github.com/yourorg/go-convert-kit/pkg/errors"
	"github.com/yourorg/go-convert-kit/pkg/format"
	"github.com/yourorg/go-convert-kit/pkg/logging"
	"github.com/yourorg/go-convert-kit/pkg/pdfutil"
)

// runImageSetToPDF embeds each input image, in order, as one page of a new
// PDF. Formats the writer cannot embed natively are round-tripped through
// the raster codec to PNG first. Produces exactly one artifact whose
// page-count metadata equals the input file count.
func (c *Converter) runImageSetToPDF(ctx context.Context, files []File, opts Options, tr *tracker) ([]Artifact, error) {
	logger := logging.FromContext(ctx)

	tr.report(5, "Creating PDF document")
	builder := c.caps.PDFWriter.NewDocument(opts.PageSize)

	total := len(files)
	for i, f := range files {
		select {
		case <-ctx.Done():
			return nil, kiterrors.NewPipelineError("pdf_assemble", "conversion canceled", ctx.Err())
		default:
		}

		input, _ := format.Detect(f.MIMEType, f.Name)

		// Decoding also validates the bytes and yields the pixel dimensions
		// needed to fit the image to 90% of the page.
		img, err := c.caps.Raster.Decode(f.Data, input)
		if err != nil {
			return nil, kiterrors.NewPipelineError("image_decode",
				fmt.Sprintf("failed to decode image %q", f.Name), err)
		}
		bounds := img.Bounds()

		data := f.Data
		imageType, native := pdfutil.NativeImageType(string(input))
		if !native {
			logger.Debug("re-rasterizing image for embedding",
				logging.NewField("file", f.Name),
				logging.NewField("format", string(input)),
			)
			data, err = c.caps.Raster.Encode(img, format.PNG, 1)
			if err != nil {
				return nil, kiterrors.NewPipelineError("image_encode",
					fmt.Sprintf("failed to re-rasterize image %q", f.Name), err)
			}
			imageType = pdfutil.ImageTypePNG
		}

		if err := builder.AddImagePage(data, imageType, bounds.Dx(), bounds.Dy()); err != nil {
			return nil, kiterrors.NewPipelineError("pdf_assemble",
				fmt.Sprintf("failed to add image %q as page %d", f.Name, i+1), err)
		}

		tr.report(10+75*(i+1)/total, fmt.Sprintf("Added image %d of %d", i+1, total))
	}

	tr.report(90, "Serializing PDF")
	data, err := builder.Bytes()
	if err != nil {
		return nil, kiterrors.NewPipelineError("pdf_serialize", "failed to serialize PDF document", err)
	}

	name := "converted_images.pdf"
	if total == 1 {
		name = baseName(files[0].Name) + ".pdf"
	}

	artifact := Artifact{
		Name:      name,
		Data:      data,
		Size:      int64(len(data)),
		MIMEType:  format.PDF.MIMEType(),
		PageCount: total,
	}

	tr.report(95, "Packaging output")
	return []Artifact{artifact}, nil
}
