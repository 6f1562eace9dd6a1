// Package glrender rasterizes brightness fields into images.
package glrender

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"
)

type setImage = interface {
	image.Image
	Set(x, y int, c color.Color)
}

// Normalize maps brightness v to the unit range the way the generated
// program does before writing the pixel: (v - minValue) / (maxValue - minValue).
// The result is not clamped.
func Normalize(v, minValue, maxValue float32) float32 {
	return (v - minValue) / (maxValue - minValue)
}

// Grayscale is the default brightness to color conversion. Normalized
// brightness is clamped to [0, 1] like a fixed point framebuffer would.
// Values that are not finite are drawn red.
func Grayscale(n float32) color.Color {
	if math32.IsNaN(n) || math32.IsInf(n, 0) {
		return color.RGBA{R: 255, A: 255}
	}
	n = math32.Max(0, math32.Min(1, n))
	return color.Gray{Y: uint8(n*255 + 0.5)}
}
