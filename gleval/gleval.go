package gleval

import (
	"errors"
	"fmt"

	"github.com/soypat/geometry/ms2"
)

// Field is a scalar brightness field over the plane in vectorized form.
type Field interface {
	// Evaluate evaluates the brightness field at pos positions.
	// brightness and pos must be of same length. Resulting brightness values
	// are stored in brightness.
	//
	// userData facilitates getting data to the evaluators. Evaluators in
	// this package take none.
	Evaluate(pos []ms2.Vec, brightness []float32, userData any) error
	// Bounds returns the domain box the field is viewed through, the
	// min_x, max_x, min_y and max_y of the generated program.
	Bounds() ms2.Box
}

// GridField is implemented by fields that evaluate a full pixel grid over
// their bounds more efficiently than per position, such as [GPUField].
type GridField interface {
	Field
	// EvaluateGrid stores the brightness at the center of every pixel of a
	// width×height grid spanning Bounds into dst in row-major order.
	// Row 0 is the bottom row at the minimum Y of Bounds.
	EvaluateGrid(dst []float32, width, height int) error
}

var (
	errEmptyBuffers         = errors.New("empty buffers")
	errMismatchBufferLength = errors.New("position and brightness buffer length mismatch")
	errBadGrid              = errors.New("grid size must be positive and match destination length")
)

// PixelCenter returns the position sampled for pixel (i, j) of a width×height
// grid spanning bb. It matches the coordinate mapping of the generated
// fragment program where gl_FragCoord lies on pixel centers.
func PixelCenter(bb ms2.Box, width, height, i, j int) ms2.Vec {
	sz := bb.Size()
	return ms2.Vec{
		X: bb.Min.X + sz.X*(float32(i)+0.5)/float32(width),
		Y: bb.Min.Y + sz.Y*(float32(j)+0.5)/float32(height),
	}
}

// AppendGrid appends the pixel center positions of a width×height grid
// spanning bb to dst in [GridField] order.
func AppendGrid(dst []ms2.Vec, bb ms2.Box, width, height int) []ms2.Vec {
	for j := 0; j < height; j++ {
		for i := 0; i < width; i++ {
			dst = append(dst, PixelCenter(bb, width, height, i, j))
		}
	}
	return dst
}

// EvaluateGrid evaluates f over a width×height pixel grid spanning its bounds.
// Fields implementing [GridField] are used directly.
func EvaluateGrid(f Field, dst []float32, width, height int, userData any) error {
	if width <= 0 || height <= 0 || len(dst) != width*height {
		return errBadGrid
	}
	if g, ok := f.(GridField); ok {
		return g.EvaluateGrid(dst, width, height)
	}
	pos := AppendGrid(make([]ms2.Vec, 0, len(dst)), f.Bounds(), width, height)
	err := f.Evaluate(pos, dst, userData)
	if err != nil {
		return fmt.Errorf("evaluating %dx%d grid: %w", width, height, err)
	}
	return nil
}

func checkBuffers(pos []ms2.Vec, brightness []float32) error {
	if len(pos) != len(brightness) {
		return errMismatchBufferLength
	} else if len(pos) == 0 {
		return errEmptyBuffers
	}
	return nil
}
