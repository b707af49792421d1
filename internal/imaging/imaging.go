// Package imaging prepares photos for upload: crop to the print aspect, resize, re-encode.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	// decoders for the formats phones and scanners produce
	_ "image/png"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Output geometry and quality of normalized photos.
const (
	TargetWidth  = 1200
	TargetHeight = 900
	JPEGQuality  = 80
)

// ErrEmptyImage is returned for images without pixels.
var ErrEmptyImage = errors.New("image has no pixels")

// Normalizer crops images to its aspect ratio around the center and scales them to a fixed size.
type Normalizer struct {
	Width   int
	Height  int
	Quality int
}

// NewNormalizer returns a Normalizer producing 1200x900 JPEGs at quality 80.
func NewNormalizer() *Normalizer {
	return &Normalizer{Width: TargetWidth, Height: TargetHeight, Quality: JPEGQuality}
}

// Normalize decodes r and returns the cropped and resized image as JPEG.
func (n *Normalizer) Normalize(r io.Reader) ([]byte, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if src.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	crop := CenterCrop(src.Bounds(), n.Width, n.Height)
	dst := image.NewRGBA(image.Rect(0, 0, n.Width, n.Height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, xdraw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: n.Quality}); err != nil {
		return nil, fmt.Errorf("failed to encode %s image as jpeg: %w", format, err)
	}
	return buf.Bytes(), nil
}

// CenterCrop returns the largest rectangle of aspect w:h centered in bounds.
func CenterCrop(bounds image.Rectangle, w, h int) image.Rectangle {
	bw, bh := bounds.Dx(), bounds.Dy()

	cw, ch := bw, bw*h/w
	if ch > bh {
		cw, ch = bh*w/h, bh
	}

	x0 := bounds.Min.X + (bw-cw)/2
	y0 := bounds.Min.Y + (bh-ch)/2
	return image.Rect(x0, y0, x0+cw, y0+ch)
}
