package service

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

const (
	maxImageDimension = 1600
	imageQuality      = 85
)

// ImageOptimizer resizes product photos and re-encodes them as JPEG.
type ImageOptimizer struct {
	maxDim  int
	quality int
}

// NewImageOptimizer creates an optimizer with the catalog defaults.
func NewImageOptimizer() *ImageOptimizer {
	return &ImageOptimizer{maxDim: maxImageDimension, quality: imageQuality}
}

// Optimize decodes data, fits it into maxDim x maxDim and encodes a JPEG.
// Transparent areas are flattened onto white. Formats imaging cannot decode
// (webp, svg) return an error so the caller can keep the original bytes.
func (o *ImageOptimizer) Optimize(data []byte) ([]byte, string, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > o.maxDim || b.Dy() > o.maxDim {
		img = imaging.Fit(img, o.maxDim, o.maxDim, imaging.Lanczos)
		b = img.Bounds()
	}

	flat := imaging.New(b.Dx(), b.Dy(), color.White)
	flat = imaging.Overlay(flat, img, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(o.quality)); err != nil {
		return nil, "", fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}
