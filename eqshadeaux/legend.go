package eqshadeaux

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

const (
	legendHeight   = 40
	legendFontSize = 11
	legendMargin   = 8
)

var legendFont = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(goregular.TTF)
})

// drawLegend fills area with a colorbar of conv spanning the normalized
// brightness range, labeled with the brightness range of u and caption.
func drawLegend(dst *image.RGBA, area image.Rectangle, conv func(float32) color.Color, u Uniforms, caption string) error {
	draw.Draw(dst, area, image.Black, image.Point{}, draw.Src)
	bar := image.Rect(area.Min.X+legendMargin, area.Min.Y+4, area.Max.X-legendMargin, area.Min.Y+16)
	if bar.Dx() < 2 {
		return nil // Too narrow.
	}
	for x := bar.Min.X; x < bar.Max.X; x++ {
		c := conv(float32(x-bar.Min.X) / float32(bar.Dx()-1))
		for y := bar.Min.Y; y < bar.Max.Y; y++ {
			dst.Set(x, y, c)
		}
	}
	ttf, err := legendFont()
	if err != nil {
		return err
	}
	face := truetype.NewFace(ttf, &truetype.Options{Size: legendFontSize, DPI: 72, Hinting: font.HintingFull})
	defer face.Close()
	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(ttf)
	ctx.SetFontSize(legendFontSize)
	ctx.SetHinting(font.HintingFull)
	ctx.SetClip(area)
	ctx.SetDst(dst)
	ctx.SetSrc(image.White)
	baseline := area.Max.Y - 8
	minLabel := strconv.FormatFloat(float64(u.MinValue), 'g', 4, 32)
	maxLabel := strconv.FormatFloat(float64(u.MaxValue), 'g', 4, 32)
	labels := []struct {
		text string
		x    int
	}{
		{minLabel, bar.Min.X},
		{caption, (bar.Min.X + bar.Max.X - font.MeasureString(face, caption).Ceil()) / 2},
		{maxLabel, bar.Max.X - font.MeasureString(face, maxLabel).Ceil()},
	}
	for _, label := range labels {
		_, err = ctx.DrawString(label.text, fixed.P(label.x, baseline))
		if err != nil {
			return fmt.Errorf("drawing legend label %q: %w", label.text, err)
		}
	}
	return nil
}

// legendCaption describes the domain and time a field was rendered at.
func legendCaption(u Uniforms, t float32) string {
	bb := u.Bounds
	return fmt.Sprintf("x [%.4g, %.4g]  y [%.4g, %.4g]  t=%.3g", bb.Min.X, bb.Max.X, bb.Min.Y, bb.Max.Y, t)
}
