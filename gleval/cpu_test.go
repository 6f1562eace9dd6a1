package gleval_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/soypat/eqshade"
	"github.com/soypat/eqshade/gleval"
	"github.com/soypat/eqshade/mathjson"
	"github.com/soypat/geometry/ms2"
)

var unitBox = ms2.Box{Max: ms2.Vec{X: 1, Y: 1}}

func parse(t *testing.T, src string) mathjson.Node {
	t.Helper()
	n, err := mathjson.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parsing %s: %v", src, err)
	}
	return n
}

func decl(t *testing.T, symbol, input, output string, vars []string, eq string) eqshade.FunctionDecl {
	t.Helper()
	return eqshade.FunctionDecl{
		Symbol:    symbol,
		Input:     parse(t, input),
		Output:    parse(t, output),
		Variables: vars,
		Equation:  parse(t, eq),
	}
}

func newField(t *testing.T, in eqshade.Input) *gleval.CPUField {
	t.Helper()
	f, err := gleval.NewCPUField(in, unitBox)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func evalAt(t *testing.T, f gleval.Field, pos ...ms2.Vec) []float32 {
	t.Helper()
	dst := make([]float32, len(pos))
	err := f.Evaluate(pos, dst, nil)
	if err != nil {
		t.Fatal(err)
	}
	return dst
}

var approx = cmpopts.EquateApprox(0, 1e-5)

func TestCPUFieldEquations(t *testing.T) {
	pos := []ms2.Vec{{X: 0.5, Y: 2}, {X: -1, Y: 3}}
	for _, test := range []struct {
		eq   string
		want func(x, y float32) float32
	}{
		{`["Add", "x", "y", 1]`, func(x, y float32) float32 { return x + y + 1 }},
		{`["Subtract", "x", "y"]`, func(x, y float32) float32 { return x - y }},
		{`["Power", "x", 3]`, func(x, y float32) float32 { return x * x * x }},
		{`["Power", "y", 0.5]`, func(x, y float32) float32 { return math32.Sqrt(y) }},
		{`["Boole", ["Less", "x", 0]]`, func(x, y float32) float32 {
			if x < 0 {
				return 1
			}
			return 0
		}},
		{`["Re", ["Multiply", ["Complex", "x", "y"], "ImaginaryUnit"]]`, func(x, y float32) float32 { return -y }},
		{`["Norm", ["Complex", "x", "y"]]`, func(x, y float32) float32 { return math32.Hypot(x, y) }},
		{`["Norm", ["Matrix", ["List", ["List", "x"], ["List", "y"]]]]`, func(x, y float32) float32 { return math32.Hypot(x, y) }},
		{`["Multiply", ["Matrix", ["List", ["List", "x", "y"]]], ["Matrix", ["List", ["List", "y", "x"]]]]`, func(x, y float32) float32 { return 2 * x * y }},
		{`["Rational", 1, 4]`, func(x, y float32) float32 { return 0.25 }},
		{`["Max", "x", "y", 2.5]`, func(x, y float32) float32 { return math32.Max(x, math32.Max(y, 2.5)) }},
		{`["Mod", "y", 2]`, func(x, y float32) float32 { return y - 2*math32.Floor(y/2) }},
	} {
		f := newField(t, eqshade.Input{Equation: parse(t, test.eq)})
		got := evalAt(t, f, pos...)
		want := make([]float32, len(pos))
		for i, p := range pos {
			want[i] = test.want(p.X, p.Y)
		}
		if diff := cmp.Diff(want, got, approx); diff != "" {
			t.Errorf("%s: mismatch (-want +got):\n%s", test.eq, diff)
		}
	}
}

func TestCPUFieldTime(t *testing.T) {
	f := newField(t, eqshade.Input{Equation: parse(t, `["Multiply", "t", "x"]`)})
	f.SetTime(3)
	got := evalAt(t, f, ms2.Vec{X: 2})
	if got[0] != 6 {
		t.Errorf("got %g, want 6", got[0])
	}
}

func TestCPUFieldFunctions(t *testing.T) {
	in := eqshade.Input{
		Functions: []eqshade.FunctionDecl{
			decl(t, "h", `"ComplexNumbers"`, `"ComplexNumbers"`, []string{"z"}, `["Power", "z", 2]`),
			decl(t, "double", `"RealNumbers"`, `"RealNumbers"`, []string{"u"}, `["Multiply", 2, "u"]`),
			decl(t, "re", `"ComplexNumbers"`, `"ComplexNumbers"`, []string{"z"}, `["Re", "z"]`),
		},
		Constants: []eqshade.ConstantDecl{{Symbol: "k", Value: parse(t, `["double", 5]`)}},
		Equation:  parse(t, `["Add", ["Re", ["h", "x"]], ["Tuple", ["Power", "double", 3], "y"], "k"]`),
	}
	f := newField(t, in)
	got := evalAt(t, f, ms2.Vec{X: 3, Y: 1})
	// Injected x: 3²=9. Iterated double: 8*y. Constant: 10.
	if got[0] != 27 {
		t.Errorf("got %g, want 27", got[0])
	}
	v, err := f.Call("re", gleval.ComplexValue(2, 7))
	if err != nil {
		t.Fatal(err)
	}
	// Float body is lifted to the declared complex output.
	re, im := v.Complex()
	if v.Type() != eqshade.Complex || re != 2 || im != 0 {
		t.Errorf("got %v", v)
	}
}

func TestCPUFieldTupleRoundTrip(t *testing.T) {
	in := eqshade.Input{
		Functions: []eqshade.FunctionDecl{
			decl(t, "swap", `["CartesianProduct", "RealNumbers", "ComplexNumbers"]`, `["CartesianProduct", "ComplexNumbers", "RealNumbers"]`,
				[]string{"a", "z"}, `["Tuple", "z", "a"]`),
			decl(t, "g", `["CartesianProduct", "RealNumbers", "ComplexNumbers"]`, `"RealNumbers"`,
				[]string{"a", "z"}, `["Subtract", "a", ["Im", "z"]]`),
		},
		Equation: parse(t, `"x"`),
	}
	f := newField(t, in)
	a, z := gleval.FloatValue(4), gleval.ComplexValue(1, 3)
	direct, err := f.Call("g", a, z)
	if err != nil {
		t.Fatal(err)
	}
	packed, err := f.Call("g", gleval.TupleValue(a, z))
	if err != nil {
		t.Fatal(err)
	}
	if direct.Type() != packed.Type() || direct.Float() != packed.Float() || direct.Float() != 1 {
		t.Errorf("direct %v != packed %v", direct, packed)
	}
	swapped, err := f.Call("swap", a, z)
	if err != nil {
		t.Fatal(err)
	}
	if got := swapped.Signature().StructName(); got != "complex_float" {
		t.Errorf("swap returned %s", got)
	}
	_, err = f.Call("g", swapped)
	if err == nil {
		t.Error("expected argument type error calling g with swapped tuple")
	}
}

func TestCPUFieldTupleIteration(t *testing.T) {
	in := eqshade.Input{
		Functions: []eqshade.FunctionDecl{
			decl(t, "fib", `["CartesianProduct", "RealNumbers", "RealNumbers"]`, `["CartesianProduct", "RealNumbers", "RealNumbers"]`,
				[]string{"a", "b"}, `["Tuple", "b", ["Add", "a", "b"]]`),
			decl(t, "first", `["CartesianProduct", "RealNumbers", "RealNumbers"]`, `"RealNumbers"`,
				[]string{"a", "b"}, `"a"`),
		},
		Equation: parse(t, `["first", ["Tuple", ["Power", "fib", 10], ["Tuple", 0, 1]]]`),
	}
	f := newField(t, in)
	got := evalAt(t, f, ms2.Vec{})
	if got[0] != 55 {
		t.Errorf("fib(10) got %g, want 55", got[0])
	}
}

func TestCPUFieldErrors(t *testing.T) {
	recursive := decl(t, "f", `"RealNumbers"`, `"RealNumbers"`, []string{"u"}, `["f", "u"]`)
	for _, test := range []struct {
		in      eqshade.Input
		wantMsg string
	}{
		{eqshade.Input{Equation: parse(t, `["Add", ["Q", "x"], 1]`)}, "Q is not defined"},
		{eqshade.Input{Equation: parse(t, `"w"`)}, "w is not defined"},
		{eqshade.Input{Equation: parse(t, `["Complex", "x", "y"]`)}, "want float"},
		{eqshade.Input{Equation: parse(t, `["Cos", ["Tuple", "x", "y"]]`)}, "no overload cos"},
		{eqshade.Input{Functions: []eqshade.FunctionDecl{recursive}, Equation: parse(t, `["f", "x"]`)}, "maximum call depth"},
	} {
		f := newField(t, test.in)
		err := f.Evaluate([]ms2.Vec{{}}, make([]float32, 1), nil)
		if err == nil || !strings.Contains(err.Error(), test.wantMsg) {
			t.Errorf("%s: got error %v, want %q", mathjson.Format(test.in.Equation), err, test.wantMsg)
		}
	}
	_, err := gleval.NewCPUField(eqshade.Input{
		Functions: []eqshade.FunctionDecl{decl(t, "f", `"Naturals"`, `"RealNumbers"`, []string{"u"}, `"u"`)},
		Equation:  parse(t, `"x"`),
	}, unitBox)
	if !errors.Is(err, eqshade.ErrUnknownDomain) {
		t.Errorf("want unknown domain error, got %v", err)
	}
	f := newField(t, eqshade.Input{Equation: parse(t, `"x"`)})
	err = f.Evaluate(make([]ms2.Vec, 2), make([]float32, 1), nil)
	if err == nil {
		t.Error("expected buffer length mismatch error")
	}
}

func TestEvaluateGrid(t *testing.T) {
	bb := ms2.Box{Max: ms2.Vec{X: 2, Y: 4}}
	fx, err := gleval.NewCPUField(eqshade.Input{Equation: parse(t, `"x"`)}, bb)
	if err != nil {
		t.Fatal(err)
	}
	fy, err := gleval.NewCPUField(eqshade.Input{Equation: parse(t, `"y"`)}, bb)
	if err != nil {
		t.Fatal(err)
	}
	dst := make([]float32, 4)
	err = gleval.EvaluateGrid(fx, dst, 2, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float32{0.5, 1.5, 0.5, 1.5}, dst); diff != "" {
		t.Errorf("x grid (-want +got):\n%s", diff)
	}
	err = gleval.EvaluateGrid(fy, dst, 2, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float32{1, 1, 3, 3}, dst); diff != "" {
		t.Errorf("y grid (-want +got):\n%s", diff)
	}
	err = gleval.EvaluateGrid(fx, dst, 3, 2, nil)
	if err == nil {
		t.Error("expected grid size error")
	}
}

func TestEvalConstant(t *testing.T) {
	for _, test := range []struct {
		src  string
		want float32
		ok   bool
	}{
		{`["Multiply", 2, "Pi"]`, 2 * math32.Pi, true},
		{`["Negate", 1.5]`, -1.5, true},
		{`["Rational", 1, 60]`, 1. / 60, true},
		{`["Abs", ["Complex", 3, 4]]`, 5, true},
		{`"x"`, 0, false},
		{`["Complex", 1, 2]`, 0, false},
		{`["Divide", 1, 0]`, 0, false},
		{`["f", 2]`, 0, false},
	} {
		got, err := gleval.EvalConstant(parse(t, test.src))
		if (err == nil) != test.ok {
			t.Errorf("%s: unexpected error state %v", test.src, err)
		} else if test.ok && math32.Abs(got-test.want) > 1e-6 {
			t.Errorf("%s: got %g, want %g", test.src, got, test.want)
		}
	}
}
