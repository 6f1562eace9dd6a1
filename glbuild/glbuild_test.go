package glbuild_test

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/soypat/eqshade/glbuild"
)

func TestAppendFloat(t *testing.T) {
	for _, test := range []struct {
		v    float64
		want string
	}{
		{2, "2.0"},
		{0, "0.0"},
		{-3, "-3.0"},
		{0.5, "0.5"},
		{1e-7, "0.0000001"},
		{1e21, "1000000000000000000000.0"},
		{123.25, "123.25"},
		{math.NaN(), "(0.0 / 0.0)"},
		{math.Inf(1), "(1.0 / 0.0)"},
		{math.Inf(-1), "(-1.0 / 0.0)"},
	} {
		got := string(glbuild.AppendFloat(nil, test.v))
		if got != test.want {
			t.Errorf("AppendFloat(%v)=%q, want %q", test.v, got, test.want)
		}
	}
}

func TestFunctionDeduplication(t *testing.T) {
	f := glbuild.Func{
		Result: "float",
		Name:   "f",
		Params: []glbuild.Param{{Type: "float", Name: "x"}},
		Body:   []string{"return x;"},
	}
	s := glbuild.Struct{Name: "float_complex", Fields: []glbuild.Param{{"float", "arg0"}, {"complex", "arg1"}}}
	for _, dialect := range []glbuild.Dialect{glbuild.DialectWebGL, glbuild.DialectCore} {
		programmer := glbuild.NewProgrammer(dialect)
		source := new(bytes.Buffer)
		n, err := programmer.WriteFragment(source, glbuild.Unit{
			Structs:    []glbuild.Struct{s, s},
			Funcs:      []glbuild.Func{f, f},
			Brightness: "f(x)",
		})
		if err != nil {
			t.Fatal(err)
		} else if n != source.Len() {
			t.Fatal("written length mismatch")
		}
		src := source.String()
		if c := strings.Count(src, "float f(float x)"); c != 1 {
			t.Errorf("%s: want one declaration of f, got %d\n%s", dialect, c, src)
		}
		if c := strings.Count(src, "struct float_complex"); c != 1 {
			t.Errorf("%s: want one struct declaration, got %d", dialect, c)
		}
		// Distinct parameter types are a distinct overload.
		g := f
		g.Params = []glbuild.Param{{Type: "complex", Name: "z"}}
		g.Body = []string{"return z.re;"}
		source.Reset()
		_, err = programmer.WriteFragment(source, glbuild.Unit{Funcs: []glbuild.Func{f, g}, Brightness: "f(x)"})
		if err != nil {
			t.Fatal(err)
		}
	}
}

func TestFunctionConflict(t *testing.T) {
	f := glbuild.Func{Result: "float", Name: "f", Params: []glbuild.Param{{"float", "x"}}, Body: []string{"return x;"}}
	g := f
	g.Body = []string{"return 2.0 * x;"}
	programmer := glbuild.NewProgrammer(glbuild.DialectWebGL)
	var buf bytes.Buffer
	_, err := programmer.WriteFragment(&buf, glbuild.Unit{Funcs: []glbuild.Func{f, g}, Brightness: "x"})
	if err == nil {
		t.Fatal("expected conflict error")
	}
	// User function named brightness collides with the generated one.
	b := glbuild.Func{Result: "float", Name: "brightness", Params: []glbuild.Param{{"float", "x"}, {"float", "y"}, {"float", "t"}}, Body: []string{"return x;"}}
	_, err = programmer.WriteFragment(&buf, glbuild.Unit{Funcs: []glbuild.Func{b}, Brightness: "y"})
	if err == nil {
		t.Fatal("expected brightness conflict error")
	}
	_, err = programmer.WriteFragment(&buf, glbuild.Unit{})
	if err == nil {
		t.Fatal("expected error for empty brightness")
	}
}

func TestFragmentLayout(t *testing.T) {
	unit := glbuild.Unit{
		Defines:    []glbuild.Define{{Name: "a", Value: "float_identity(2.0)"}},
		Brightness: "add(x, a)",
	}
	for _, test := range []struct {
		dialect glbuild.Dialect
		order   []string
		absent  []string
	}{
		{
			dialect: glbuild.DialectWebGL,
			order: []string{
				"#define Pi", "#define ExponentialE", "#define CustomImaginaryUnit", "#define a float_identity(2.0)",
				"precision highp float;", "uniform float width;", "uniform float unit_t;",
				"float brightness(float x, float y, float t) {\n\treturn add(x, a);\n}",
				"void main()", "gl_FragColor",
			},
			absent: []string{"#version"},
		},
		{
			dialect: glbuild.DialectCore,
			order: []string{
				glbuild.VersionStr, "#define Pi", "#define a float_identity(2.0)",
				"uniform float width;", "float brightness(", "out vec4 fragColor;", "void main()",
			},
			absent: []string{"precision highp", "gl_FragColor"},
		},
	} {
		var buf bytes.Buffer
		_, err := glbuild.NewProgrammer(test.dialect).WriteFragment(&buf, unit)
		if err != nil {
			t.Fatal(err)
		}
		src := buf.String()
		if test.dialect == glbuild.DialectCore && !strings.HasPrefix(src, glbuild.VersionStr) {
			t.Error("core unit must start with version directive")
		}
		last := -1
		for _, s := range test.order {
			idx := strings.Index(src, s)
			if idx < 0 {
				t.Errorf("%s: missing %q", test.dialect, s)
				continue
			} else if idx < last {
				t.Errorf("%s: %q out of order", test.dialect, s)
			}
			last = idx
		}
		for _, s := range test.absent {
			if strings.Contains(src, s) {
				t.Errorf("%s: unexpected %q", test.dialect, s)
			}
		}
		for _, u := range glbuild.Uniforms {
			if !strings.Contains(src, "uniform float "+u+";") {
				t.Errorf("%s: missing uniform %s", test.dialect, u)
			}
		}
	}
}

func TestWriteVertex(t *testing.T) {
	var buf bytes.Buffer
	glbuild.NewProgrammer(glbuild.DialectWebGL).WriteVertex(&buf)
	if !strings.Contains(buf.String(), "uModelViewMatrix") {
		t.Error("webgl vertex unit missing model view matrix")
	}
	buf.Reset()
	glbuild.NewProgrammer(glbuild.DialectCore).WriteVertex(&buf)
	if !strings.HasPrefix(buf.String(), glbuild.VersionStr) || !strings.Contains(buf.String(), "in vec2 aPos;") {
		t.Error("bad core vertex unit\n", buf.String())
	}
}

func TestStructDecl(t *testing.T) {
	got := string(glbuild.AppendStructDecl(nil, glbuild.Struct{
		Name:   "float_complex",
		Fields: []glbuild.Param{{"float", "arg0"}, {"complex", "arg1"}},
	}))
	const want = "struct float_complex {\n\tfloat arg0;\n\tcomplex arg1;\n};\n"
	if got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
}

func TestSignatureNames(t *testing.T) {
	sig := glbuild.Signature{glbuild.Float, glbuild.Complex}
	if !sig.IsTuple() || sig.StructName() != "float_complex" || sig.TypeName() != "float_complex" {
		t.Error("bad tuple signature", sig.StructName())
	}
	single := glbuild.Signature{glbuild.Vec3}
	if single.IsTuple() || single.TypeName() != "vec3" {
		t.Error("bad single signature", single.TypeName())
	}
	if (glbuild.Signature{glbuild.Float, glbuild.Invalid}).Known() {
		t.Error("signature with invalid member is not known")
	}
	if (glbuild.Signature{}).Known() {
		t.Error("empty signature is not known")
	}
}
