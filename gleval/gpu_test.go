//go:build !tinygo && cgo

package gleval_test

import (
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/soypat/eqshade"
	"github.com/soypat/eqshade/glbuild"
	"github.com/soypat/eqshade/gleval"
	"github.com/soypat/eqshade/mathjson"
	"github.com/soypat/geometry/ms2"
)

func TestGPUFieldMatchesCPU(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	term, err := gleval.Init1x1GLFW()
	if err != nil {
		t.Skip("no OpenGL context:", err)
	}
	defer term()
	const width, height = 16, 12
	bb := ms2.Box{Min: ms2.Vec{X: -2, Y: -1.5}, Max: ms2.Vec{X: 1, Y: 1.5}}
	mandel := decl(t, "f", `["CartesianProduct", "ComplexNumbers", "ComplexNumbers"]`, `["CartesianProduct", "ComplexNumbers", "ComplexNumbers"]`,
		[]string{"z", "c"}, `["Tuple", ["Add", ["Power", "z", 2], "c"], "c"]`)
	norm := decl(t, "n", `["CartesianProduct", "ComplexNumbers", "ComplexNumbers"]`, `"RealNumbers"`,
		[]string{"z", "c"}, `["Min", ["Abs", "z"], 4]`)
	compiler := eqshade.NewCompiler(eqshade.Config{Dialect: glbuild.DialectCore})
	for _, in := range []eqshade.Input{
		{Equation: parse(t, `["Add", ["Sin", "x"], ["Multiply", "y", "y"]]`)},
		{Equation: parse(t, `["Re", ["Divide", 1, ["Complex", "x", 0.3]]]`)},
		{
			Functions: []eqshade.FunctionDecl{mandel, norm},
			Equation:  parse(t, `["n", ["Tuple", ["Power", "f", 6], ["Tuple", 0, ["Complex", "x", "y"]]]]`),
		},
	} {
		prog, err := compiler.Compile(in)
		if err != nil {
			t.Fatal(err)
		}
		gpu, err := gleval.NewGPUField(prog, bb)
		if err != nil {
			t.Fatal(err)
		}
		cpu, err := gleval.NewCPUField(in, bb)
		if err != nil {
			t.Fatal(err)
		}
		want := make([]float32, width*height)
		got := make([]float32, width*height)
		err = gleval.EvaluateGrid(cpu, want, width, height, nil)
		if err != nil {
			t.Fatal(err)
		}
		err = gleval.EvaluateGrid(gpu, got, width, height, nil)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(want, got, cmpopts.EquateApprox(1e-3, 1e-4)); diff != "" {
			t.Errorf("%s: GPU and CPU mismatch (-cpu +gpu):\n%s", mathjson.Format(in.Equation), diff)
		}
		gpu.Delete()
	}
}
