//go:build !tinygo && cgo

package gleval

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/soypat/eqshade"
	"github.com/soypat/eqshade/glbuild"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/glgl/v4.6-core/glgl"
)

// Init1x1GLFW starts a 1x1 sized GLFW so that user can start working with GPU.
// It returns a termination function that should be called when user is done running loads on GPU.
func Init1x1GLFW() (terminate func(), err error) {
	_, terminate, err = glgl.InitWithCurrentWindow33(glgl.WindowConfig{
		Title:   "eqshade",
		Version: [2]int{4, 6},
		Width:   1,
		Height:  1,
	})
	return terminate, err
}

// GPUField is a brightness field evaluated by drawing the compiled fragment
// program into an offscreen float texture. A current OpenGL 4.6 context is
// required, see [Init1x1GLFW].
type GPUField struct {
	prog     glgl.Program
	quad     quad
	bb       ms2.Box
	t        float32
	uniforms map[string]int32
}

// NewGPUField compiles a program generated for [glbuild.DialectCore]. The
// field renders prog over bb with min_value=0, max_value=1 and unit_t=1 so
// that raw brightness values are read back.
func NewGPUField(prog eqshade.Program, bb ms2.Box) (*GPUField, error) {
	if !strings.HasPrefix(prog.Fragment, glbuild.VersionStr) {
		return nil, errors.New("GPU evaluation requires a program compiled for the core dialect")
	}
	glprog, err := glgl.CompileProgram(glgl.ShaderSource{
		Vertex:   prog.Vertex + "\x00",
		Fragment: prog.Fragment + "\x00",
	})
	if err != nil {
		return nil, fmt.Errorf("%s\n\n%w", prog.Fragment, err)
	}
	glprog.Bind()
	defer glprog.Unbind()
	q, err := newQuad(glprog)
	if err != nil {
		glprog.Delete()
		return nil, err
	}
	f := &GPUField{
		prog:     glprog,
		quad:     q,
		bb:       bb,
		uniforms: make(map[string]int32, len(glbuild.Uniforms)),
	}
	for _, name := range glbuild.Uniforms {
		loc, err := glprog.UniformLocation(name + "\x00")
		if err != nil {
			loc = -1 // Optimized out by the driver.
		}
		f.uniforms[name] = loc
	}
	return f, nil
}

func (f *GPUField) Bounds() ms2.Box { return f.bb }

// SetTime sets the time uniform.
func (f *GPUField) SetTime(t float32) { f.t = t }

// Evaluate implements [Field]. Each position is drawn as a single pixel
// centered on it, prefer [GPUField.EvaluateGrid] for images.
func (f *GPUField) Evaluate(pos []ms2.Vec, brightness []float32, userData any) error {
	err := checkBuffers(pos, brightness)
	if err != nil {
		return err
	}
	const half = 0.5e-3
	for i, p := range pos {
		px := ms2.Box{
			Min: ms2.Vec{X: p.X - half, Y: p.Y - half},
			Max: ms2.Vec{X: p.X + half, Y: p.Y + half},
		}
		err = f.draw(brightness[i:i+1], 1, 1, px)
		if err != nil {
			return err
		}
	}
	return nil
}

// EvaluateGrid implements [GridField].
func (f *GPUField) EvaluateGrid(dst []float32, width, height int) error {
	if width <= 0 || height <= 0 || len(dst) != width*height {
		return errBadGrid
	}
	return f.draw(dst, width, height, f.bb)
}

// Delete frees the GPU resources of the field.
func (f *GPUField) Delete() {
	f.quad.delete()
	f.prog.Delete()
}

func (f *GPUField) draw(dst []float32, width, height int, bb ms2.Box) error {
	target, err := newFloatTarget(width, height)
	if err != nil {
		return err
	}
	defer target.delete()
	f.prog.Bind()
	defer f.prog.Unbind()
	values := map[string]float32{
		"width":     float32(width),
		"height":    float32(height),
		"time":      f.t,
		"unit_t":    1,
		"min_value": 0,
		"max_value": 1,
		"min_x":     bb.Min.X,
		"max_x":     bb.Max.X,
		"min_y":     bb.Min.Y,
		"max_y":     bb.Max.Y,
	}
	for name, loc := range f.uniforms {
		gl.Uniform1f(loc, values[name])
	}
	gl.Viewport(0, 0, int32(width), int32(height))
	f.quad.draw()
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RED, gl.FLOAT, gl.Ptr(&dst[0]))
	return glgl.Err()
}
