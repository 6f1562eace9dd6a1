package glrender

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/soypat/eqshade/gleval"
)

// ImageRenderer converts brightness fields to images.
type ImageRenderer struct {
	conv     func(n float32) color.Color
	minValue float32
	maxValue float32
	buf      []float32
}

// NewImageRenderer instances a new [ImageRenderer]. Brightness values are
// normalized with minValue and maxValue, see [Normalize], before being passed
// to conversion. A nil conversion function results in [Grayscale].
func NewImageRenderer(minValue, maxValue float32, conversion func(float32) color.Color) (*ImageRenderer, error) {
	switch {
	case math32.IsNaN(minValue) || math32.IsInf(minValue, 0) || math32.IsNaN(maxValue) || math32.IsInf(maxValue, 0):
		return nil, errors.New("brightness range must be finite")
	case minValue == maxValue:
		return nil, errors.New("empty brightness range")
	}
	if conversion == nil {
		conversion = Grayscale
	}
	return &ImageRenderer{conv: conversion, minValue: minValue, maxValue: maxValue}, nil
}

// Render samples the field at the center of every pixel of img and draws it.
// The field's bounds span the whole image with minimum Y at the bottom row.
// It uses userData as an argument to all [gleval.Field.Evaluate] calls.
func (ir *ImageRenderer) Render(f gleval.Field, img setImage, userData any) error {
	imgBB := img.Bounds()
	dxi, dyi := imgBB.Dx(), imgBB.Dy()
	if dxi == 0 || dyi == 0 {
		return errors.New("empty image")
	}
	n := dxi * dyi
	if cap(ir.buf) < n {
		ir.buf = make([]float32, n)
	}
	buf := ir.buf[:n]
	err := gleval.EvaluateGrid(f, buf, dxi, dyi, userData)
	if err != nil {
		return fmt.Errorf("rendering %dx%d image: %w", dxi, dyi, err)
	}
	for j := 0; j < dyi; j++ {
		row := buf[j*dxi : (j+1)*dxi]
		y := imgBB.Max.Y - 1 - j
		for i, v := range row {
			img.Set(imgBB.Min.X+i, y, ir.conv(Normalize(v, ir.minValue, ir.maxValue)))
		}
	}
	return nil
}
