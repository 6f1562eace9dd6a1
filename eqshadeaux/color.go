package eqshadeaux

import (
	"fmt"
	"image/color"

	math "github.com/chewxy/math32"
	"github.com/soypat/eqshade/glrender"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glgl/math/ms1"
)

// A great portion of logic in this file taken from Esme Lamb's (@dedelala)
// excellent color manipulation work presented at Gophercon AU 2024.
// https://github.com/dedelala/disco/tree/main/color

var red = color.RGBA{R: 255, A: 255}

// Colormaps lists the conversions selectable by name in [ColorConversionByName].
var Colormaps = []string{"gray", "fire", "ice", "rainbow"}

// ColorConversionByName returns a normalized brightness to color conversion by name.
func ColorConversionByName(name string) (func(float32) color.Color, error) {
	switch name {
	case "", "gray":
		return glrender.Grayscale, nil
	case "fire":
		return ColorConversionLinearGradient(color.RGBA{R: 40, A: 255}, color.RGBA{R: 255, G: 230, B: 80, A: 255}), nil
	case "ice":
		return ColorConversionLinearGradient(color.RGBA{B: 60, A: 255}, color.RGBA{R: 220, G: 250, B: 255, A: 255}), nil
	case "rainbow":
		return ColorConversionInigoQuilez(
			ms3.Vec{X: 0.5, Y: 0.5, Z: 0.5},
			ms3.Vec{X: 0.5, Y: 0.5, Z: 0.5},
			ms3.Vec{X: 1, Y: 1, Z: 1},
			ms3.Vec{X: 0, Y: 0.33, Z: 0.67},
		), nil
	}
	return nil, fmt.Errorf("unknown colormap %q, want one of %v", name, Colormaps)
}

// ColorConversionInigoQuilez creates a cosine palette color conversion in [Inigo Quilez]'s style:
//
//	color(n) = a + b*cos(2π(c*n + d))
//
// Normalized brightness is clamped to [0, 1]. Returns red for NaN values.
//
// [Inigo Quilez]: https://iquilezles.org/articles/palettes/
func ColorConversionInigoQuilez(a, b, c, d ms3.Vec) func(float32) color.Color {
	return func(n float32) color.Color {
		if math.IsNaN(n) {
			return red
		}
		n = ms1.Clamp(n, 0, 1)
		phase := ms3.Add(ms3.Scale(n, c), d)
		col := ms3.Add(a, ms3.Vec{
			X: b.X * math.Cos(2*math.Pi*phase.X),
			Y: b.Y * math.Cos(2*math.Pi*phase.Y),
			Z: b.Z * math.Cos(2*math.Pi*phase.Z),
		})
		r, g, bl := rgbToC(col.X, col.Y, col.Z)
		return color.RGBA{R: r, G: g, B: bl, A: 255}
	}
}

// ColorConversionLinearGradient creates a color conversion function that
// interpolates from c0 at normalized brightness 0 to c1 at 1 in HSV space.
func ColorConversionLinearGradient(c0, c1 color.Color) func(n float32) color.Color {
	if c0 == color.Black && c1 == color.White {
		return glrender.Grayscale
	}
	h0, s0, v0 := colorToHSV(c0)
	h1, s1, v1 := colorToHSV(c1)
	return func(n float32) color.Color {
		switch {
		case math.IsNaN(n):
			return red
		case n <= 0:
			return c0
		case n >= 1:
			return c1
		}
		h, s, v := interpHSV(h0, s0, v0, h1, s1, v1, n)
		r, g, b := rgbToC(hsvToRGB(h, s, v))
		return color.RGBA{R: r, G: g, B: b, A: 255}
	}
}

func interpHSV(h0, s0, v0, h1, s1, v1, t float32) (h, s, v float32) {
	switch {
	case h1-h0 > 0.5:
		h0 += 1.0
	case h1-h0 < -0.5:
		h1 += 1.0
	}
	h = ms1.Interp(h0, h1, t)
	if h > 1 {
		h -= 1
	}
	s = ms1.Interp(s0, s1, t)
	v = ms1.Interp(v0, v1, t)
	return h, s, v
}

func colorToHSV(c color.Color) (h, s, v float32) {
	r0, g0, b0, _ := c.RGBA()
	return rgbToHSV(float32(r0>>8)/math.MaxUint8, float32(g0>>8)/math.MaxUint8, float32(b0>>8)/math.MaxUint8)
}

// rgbToC converts r, g, and b values on the range of 0.0 to 1.0 to 8 bit
// channels. The inputs are clamped to the range of 0.0 to 1.0
func rgbToC(r, g, b float32) (uint8, uint8, uint8) {
	return uint8(ms1.Clamp(r, 0, 1)*math.MaxUint8 + 0.5),
		uint8(ms1.Clamp(g, 0, 1)*math.MaxUint8 + 0.5),
		uint8(ms1.Clamp(b, 0, 1)*math.MaxUint8 + 0.5)
}

// hsvToRGB converts hue, saturation and brightness values on the range of 0.0
// to 1.0 to RGB floating point values on the range of 0.0 to 1.0
func hsvToRGB(h, s, v float32) (r, g, b float32) {
	var (
		c = s * v
		x = c * (1 - math.Abs(math.Mod(h*6, 2)-1))
		m = v - c
	)

	switch {
	case h >= 0 && h <= 1.0/6:
		r, g, b = c, x, 0
	case h > 1.0/6 && h <= 2.0/6:
		r, g, b = x, c, 0
	case h > 2.0/6 && h <= 3.0/6:
		r, g, b = 0, c, x
	case h > 3.0/6 && h <= 4.0/6:
		r, g, b = 0, x, c
	case h > 4.0/6 && h <= 5.0/6:
		r, g, b = x, 0, c
	case h > 5.0/6 && h <= 1.0:
		r, g, b = c, 0, x
	}

	r, g, b = r+m, g+m, b+m
	return r, g, b
}

// rgbToHSV converts red, green, and blue floating point values on the range
// 0.0 to 1.0 to hue, saturation and brightness values on the range 0.0 to 1.0
func rgbToHSV(r, g, b float32) (h, s, v float32) {
	var (
		xmax = max(r, g, b)
		xmin = min(r, g, b)
		c    = xmax - xmin
	)
	v = xmax
	switch {
	case c == 0:
		h = 0
	case v == r:
		h = (g - b) / (c * 6)
	case v == g:
		h = 1.0/3 + (b-r)/(c*6)
	case v == b:
		h = 2.0/3 + (r-g)/(c*6)
	}
	if h < 0 {
		h += 1
	}
	if xmax > 0 {
		s = c / xmax
	}
	return
}
