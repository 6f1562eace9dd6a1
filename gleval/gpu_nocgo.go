//go:build tinygo || !cgo

package gleval

import (
	"errors"

	"github.com/soypat/eqshade"
	"github.com/soypat/geometry/ms2"
)

var errNoCGO = errors.New("GPU evaluation requires CGo and is not supported on TinyGo")

func Init1x1GLFW() (terminate func(), err error) {
	return nil, errNoCGO
}

// NewGPUField instantiates a [Field] that runs on the GPU.
func NewGPUField(prog eqshade.Program, bb ms2.Box) (*GPUField, error) {
	return nil, errNoCGO
}

type GPUField struct {
	bb ms2.Box
}

func (f *GPUField) Bounds() ms2.Box { return f.bb }

func (f *GPUField) SetTime(t float32) {}

func (f *GPUField) Evaluate(pos []ms2.Vec, brightness []float32, userData any) error {
	return errNoCGO
}

func (f *GPUField) EvaluateGrid(dst []float32, width, height int) error {
	return errNoCGO
}

func (f *GPUField) Delete() {}
