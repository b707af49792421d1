package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int, fill func(x, y int) color.Color) *bytes.Buffer {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fill(x, y))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}

func TestCenterCrop(t *testing.T) {
	tests := []struct {
		name     string
		bounds   image.Rectangle
		expected image.Rectangle
	}{
		{"wide", image.Rect(0, 0, 1600, 900), image.Rect(200, 0, 1400, 900)},
		{"tall", image.Rect(0, 0, 900, 1600), image.Rect(0, 462, 900, 1137)},
		{"exact", image.Rect(0, 0, 400, 300), image.Rect(0, 0, 400, 300)},
		{"offset bounds", image.Rect(10, 20, 1610, 920), image.Rect(210, 20, 1410, 920)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CenterCrop(tt.bounds, 4, 3))
		})
	}
}

func TestNormalizer_Normalize(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	// blue side bands are cropped away from a 16:9 source
	src := encodePNG(t, 320, 90, func(x, _ int) color.Color {
		if x < 40 || x >= 280 {
			return blue
		}
		return red
	})

	out, err := NewNormalizer().Normalize(src)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, TargetWidth, TargetHeight), img.Bounds())

	for _, p := range []image.Point{{20, 450}, {600, 450}, {1180, 450}} {
		r, _, b, _ := img.At(p.X, p.Y).RGBA()
		assert.Greater(t, r>>8, uint32(200), "pixel %v", p)
		assert.Less(t, b>>8, uint32(60), "pixel %v", p)
	}
}

func TestNormalizer_Normalize_InvalidInput(t *testing.T) {
	_, err := NewNormalizer().Normalize(strings.NewReader("not an image"))
	assert.ErrorContains(t, err, "failed to decode image")
}
