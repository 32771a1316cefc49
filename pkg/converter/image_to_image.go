package converter

import (
	"context"

	kiterrors "github.com/yourorg/go-convert-kit/pkg/errors"
	"github.com/yourorg/go-convert-kit/pkg/format"
)

// runImageToImage decodes a raster image and re-encodes it at the requested
// format and quality. A pdf target is redirected into the image-set pipeline
// with a single-element set rather than duplicating the embedding logic.
func (c *Converter) runImageToImage(ctx context.Context, file File, input, output format.Format, opts Options, tr *tracker) ([]Artifact, error) {
	if output == format.PDF {
		return c.runImageSetToPDF(ctx, []File{file}, opts, tr)
	}

	tr.report(10, "Decoding image")
	img, err := c.caps.Raster.Decode(file.Data, input)
	if err != nil {
		return nil, kiterrors.NewPipelineError("image_decode", "failed to decode image", err)
	}

	tr.report(50, "Encoding image")
	data, err := c.caps.Raster.Encode(img, output, opts.Quality)
	if err != nil {
		return nil, kiterrors.NewPipelineError("image_encode", "failed to encode image", err)
	}

	bounds := img.Bounds()
	artifact := Artifact{
		Name:     baseName(file.Name) + "." + output.Extension(),
		Data:     data,
		Size:     int64(len(data)),
		MIMEType: output.MIMEType(),
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
	}

	tr.report(95, "Packaging output")
	return []Artifact{artifact}, nil
}
