// Package imageutil provides the raster codec used by the conversion
// pipelines: decoding source images into an in-memory surface and re-encoding
// that surface as PNG, JPEG, or WEBP at a requested quality.
package imageutil

import (
	"bytes"
	"fmt"
	"image"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/yourorg/go-convert-kit/pkg/format"
)

// Codec decodes and encodes raster images. The zero value is ready to use.
type Codec struct{}

// NewCodec creates a raster codec.
func NewCodec() *Codec {
	return &Codec{}
}

// Decode decodes image bytes into an in-memory surface. The format tag picks
// the decoder; bytes that do not match it fail here rather than being
// sniffed earlier.
func (c *Codec) Decode(data []byte, f format.Format) (image.Image, error) {
	switch f {
	case format.WEBP:
		img, err := webp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode webp: %w", err)
		}
		return img, nil
	case format.PNG, format.JPG, format.GIF:
		img, err := imaging.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", f, err)
		}
		return img, nil
	default:
		return nil, fmt.Errorf("no raster decoder for format %q", f)
	}
}

// Encode encodes a surface as the target image format. Quality is a 0-1
// fraction applied to lossy encoders and ignored for PNG.
func (c *Codec) Encode(img image.Image, f format.Format, quality float64) ([]byte, error) {
	if quality <= 0 || quality > 1 {
		return nil, fmt.Errorf("quality must be in (0, 1], got %g", quality)
	}

	var buf bytes.Buffer
	switch f {
	case format.PNG:
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	case format.JPG:
		err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(int(quality*100)))
		if err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	case format.WEBP:
		err := webp.Encode(&buf, img, &webp.Options{Quality: float32(quality * 100)})
		if err != nil {
			return nil, fmt.Errorf("encode webp: %w", err)
		}
	default:
		return nil, fmt.Errorf("no raster encoder for format %q", f)
	}

	return buf.Bytes(), nil
}

// Reencode decodes source bytes and re-encodes them as the target format in
// one step, returning the output bytes and the pixel dimensions.
func (c *Codec) Reencode(data []byte, from, to format.Format, quality float64) ([]byte, int, int, error) {
	img, err := c.Decode(data, from)
	if err != nil {
		return nil, 0, 0, err
	}

	out, err := c.Encode(img, to, quality)
	if err != nil {
		return nil, 0, 0, err
	}

	bounds := img.Bounds()
	return out, bounds.Dx(), bounds.Dy(), nil
}
