package gleval

import (
	"fmt"
	"strings"

	"github.com/chewxy/math32"
	"github.com/soypat/eqshade/glbuild"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
)

// Value is a CPU-side brightness program value: a float, complex number,
// real vector, boolean or tuple of values.
type Value struct {
	typ glbuild.Type
	// c holds the components. Complex numbers store real and imaginary parts in c[0] and c[1].
	c [4]float32
	// tuple is non-nil for tuple values.
	tuple []Value
}

func FloatValue(f float32) Value { return Value{typ: glbuild.Float, c: [4]float32{f}} }

func ComplexValue(re, im float32) Value {
	return Value{typ: glbuild.Complex, c: [4]float32{re, im}}
}

func Vec2Value(v ms2.Vec) Value { return Value{typ: glbuild.Vec2, c: [4]float32{v.X, v.Y}} }

func Vec3Value(v ms3.Vec) Value { return Value{typ: glbuild.Vec3, c: [4]float32{v.X, v.Y, v.Z}} }

func Vec4Value(v [4]float32) Value { return Value{typ: glbuild.Vec4, c: v} }

func BoolValue(b bool) Value {
	v := Value{typ: glbuild.Bool}
	if b {
		v.c[0] = 1
	}
	return v
}

// TupleValue packs values into a tuple. Packing fewer than two values
// returns the sole value unchanged.
func TupleValue(members ...Value) Value {
	if len(members) == 1 {
		return members[0]
	}
	return Value{tuple: append([]Value{}, members...)}
}

// Type returns the primitive type of v. Tuples return [glbuild.Invalid].
func (v Value) Type() glbuild.Type { return v.typ }

// Signature returns the type of each tuple member, or the single type of a primitive.
func (v Value) Signature() glbuild.Signature {
	if v.tuple == nil {
		return glbuild.Signature{v.typ}
	}
	sig := make(glbuild.Signature, len(v.tuple))
	for i, m := range v.tuple {
		sig[i] = m.typ
	}
	return sig
}

// IsTuple reports whether v packs several values.
func (v Value) IsTuple() bool { return v.tuple != nil }

// Members returns the members of a tuple value.
func (v Value) Members() []Value { return v.tuple }

func (v Value) Float() float32 { return v.c[0] }

func (v Value) Complex() (re, im float32) { return v.c[0], v.c[1] }

func (v Value) Vec2() ms2.Vec { return ms2.Vec{X: v.c[0], Y: v.c[1]} }

func (v Value) Vec3() ms3.Vec { return ms3.Vec{X: v.c[0], Y: v.c[1], Z: v.c[2]} }

func (v Value) Bool() bool { return v.c[0] != 0 }

func (v Value) String() string {
	if v.tuple != nil {
		var sb strings.Builder
		sb.WriteByte('(')
		for i, m := range v.tuple {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(m.String())
		}
		sb.WriteByte(')')
		return sb.String()
	}
	switch v.typ {
	case glbuild.Float:
		return fmt.Sprint(v.c[0])
	case glbuild.Complex:
		return fmt.Sprintf("complex(%g, %g)", v.c[0], v.c[1])
	case glbuild.Bool:
		return fmt.Sprint(v.Bool())
	case glbuild.Vec2, glbuild.Vec3, glbuild.Vec4:
		return fmt.Sprintf("%s%v", v.typ, v.c[:components(v.typ)])
	}
	return "invalid"
}

// components returns the number of float components of real types.
func components(t glbuild.Type) int {
	switch t {
	case glbuild.Float:
		return 1
	case glbuild.Vec2:
		return 2
	case glbuild.Vec3:
		return 3
	case glbuild.Vec4:
		return 4
	}
	return 0
}

func isGenType(t glbuild.Type) bool { return components(t) > 0 }

// componentwise applies f to every component of a float or vector.
func componentwise(v Value, f func(float32) float32) Value {
	for i := 0; i < components(v.typ); i++ {
		v.c[i] = f(v.c[i])
	}
	return v
}

// componentwise2 applies f to components of a and b. b may be a float
// broadcast over a vector a.
func componentwise2(a, b Value, f func(x, y float32) float32) (Value, bool) {
	n := components(a.typ)
	if n == 0 || (a.typ != b.typ && b.typ != glbuild.Float) {
		return Value{}, false
	}
	for i := 0; i < n; i++ {
		y := b.c[0]
		if b.typ == a.typ {
			y = b.c[i]
		}
		a.c[i] = f(a.c[i], y)
	}
	return a, true
}

func scale(k float32, v Value) Value {
	return componentwise(v, func(x float32) float32 { return k * x })
}

func dot(a, b Value) float32 {
	switch a.typ {
	case glbuild.Vec2:
		return ms2.Dot(a.Vec2(), b.Vec2())
	case glbuild.Vec3:
		return ms3.Dot(a.Vec3(), b.Vec3())
	}
	var sum float32
	for i := 0; i < components(a.typ); i++ {
		sum += a.c[i] * b.c[i]
	}
	return sum
}

func length(v Value) float32 {
	switch v.typ {
	case glbuild.Float:
		return math32.Abs(v.c[0])
	case glbuild.Vec2:
		return ms2.Norm(v.Vec2())
	case glbuild.Vec3:
		return ms3.Norm(v.Vec3())
	}
	return math32.Sqrt(dot(v, v))
}

func modulus(re, im float32) float32 { return math32.Sqrt(re*re + im*im) }

func errNoOverload(name string, args ...Value) error {
	var sb strings.Builder
	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		if a.tuple != nil {
			sb.WriteString(a.Signature().StructName())
		} else {
			sb.WriteString(a.typ.String())
		}
	}
	return fmt.Errorf("no overload %s(%s)", name, sb.String())
}

// callFunc evaluates a runtime library or GLSL built-in function with the
// same overload set as the generated program.
func callFunc(name string, args ...Value) (Value, error) {
	for _, a := range args {
		if a.tuple != nil {
			return Value{}, errNoOverload(name, args...)
		}
	}
	var (
		result Value
		ok     bool
	)
	switch {
	case strings.HasPrefix(name, "vec"):
		result, ok = construct(name, args)
	case len(args) == 1:
		result, ok = unary(name, args[0])
	case len(args) == 2:
		result, ok = binary(name, args[0], args[1])
	}
	if !ok {
		return Value{}, errNoOverload(name, args...)
	}
	return result, nil
}

func unary(name string, a Value) (Value, bool) {
	f, isFunc := unaryFuncs[name]
	if isFunc && isGenType(a.typ) {
		return componentwise(a, f), true
	}
	switch name {
	case "float_identity":
		return a, a.typ == glbuild.Float
	case "abs":
		if a.typ == glbuild.Complex {
			return FloatValue(modulus(a.Complex())), true
		}
	case "length":
		if isGenType(a.typ) {
			return FloatValue(length(a)), true
		}
	case "negate":
		if a.typ == glbuild.Complex {
			return ComplexValue(-a.c[0], -a.c[1]), true
		} else if isGenType(a.typ) {
			return scale(-1, a), true
		}
	case "real_part":
		return FloatValue(a.c[0]), a.typ == glbuild.Float || a.typ == glbuild.Complex
	case "imaginary_part":
		if a.typ == glbuild.Complex {
			return FloatValue(a.c[1]), true
		}
		return FloatValue(0), a.typ == glbuild.Float
	case "injection_map":
		return ComplexValue(a.c[0], a.c[1]), a.typ == glbuild.Float || a.typ == glbuild.Complex
	case "float":
		return FloatValue(a.c[0]), a.typ == glbuild.Float || a.typ == glbuild.Bool
	}
	return Value{}, false
}

var unaryFuncs = map[string]func(float32) float32{
	"cos":   math32.Cos,
	"sin":   math32.Sin,
	"tan":   math32.Tan,
	"sqrt":  math32.Sqrt,
	"floor": math32.Floor,
	"ceil":  math32.Ceil,
	"exp":   math32.Exp,
	"log":   math32.Log,
	"atan":  math32.Atan,
	"tanh":  math32.Tanh,
	"atanh": math32.Atanh,
	"abs":   math32.Abs,
}

func binary(name string, a, b Value) (Value, bool) {
	const (
		f = glbuild.Float
		c = glbuild.Complex
	)
	switch name {
	case "add":
		switch {
		case a.typ == c && (b.typ == c || b.typ == f):
			return ComplexValue(a.c[0]+b.c[0], a.c[1]+b.c[1]), true
		case a.typ == f && b.typ == c:
			return ComplexValue(a.c[0]+b.c[0], b.c[1]), true
		case a.typ == b.typ:
			return componentwise2(a, b, func(x, y float32) float32 { return x + y })
		}
	case "multiply":
		switch {
		case a.typ == c && b.typ == c:
			return ComplexValue(a.c[0]*b.c[0]-a.c[1]*b.c[1], a.c[0]*b.c[1]+a.c[1]*b.c[0]), true
		case a.typ == c && b.typ == f:
			return ComplexValue(b.c[0]*a.c[0], b.c[0]*a.c[1]), true
		case a.typ == f && (b.typ == c || isGenType(b.typ)):
			return scale(a.c[0], b), true
		case b.typ == f && isGenType(a.typ):
			return scale(b.c[0], a), true
		case a.typ == b.typ && a.typ.IsVector():
			return FloatValue(dot(a, b)), true
		}
	case "divide":
		switch {
		case a.typ == c && b.typ == c:
			d := b.c[0]*b.c[0] + b.c[1]*b.c[1]
			return ComplexValue((a.c[0]*b.c[0]+a.c[1]*b.c[1])/d, (a.c[1]*b.c[0]-a.c[0]*b.c[1])/d), true
		case a.typ == f && b.typ == c:
			d := b.c[0]*b.c[0] + b.c[1]*b.c[1]
			return ComplexValue(b.c[0]*a.c[0]/d, -1*b.c[1]*a.c[0]/d), true
		case a.typ == c && b.typ == f:
			return ComplexValue(a.c[0]/b.c[0], a.c[1]/b.c[0]), true
		case b.typ == f && isGenType(a.typ):
			return scale(1/b.c[0], a), true
		}
	case "complex":
		if a.typ == f && b.typ == f {
			return ComplexValue(a.c[0], b.c[0]), true
		}
	case "pow":
		if a.typ == b.typ {
			return componentwise2(a, b, math32.Pow)
		}
	case "mod":
		return componentwise2(a, b, func(x, y float32) float32 { return x - y*math32.Floor(x/y) })
	case "min":
		return componentwise2(a, b, math32.Min)
	case "max":
		return componentwise2(a, b, math32.Max)
	}
	return Value{}, false
}

// construct evaluates vector constructors.
func construct(name string, args []Value) (Value, bool) {
	var want int
	switch name {
	case "vec2":
		want = 2
	case "vec3":
		want = 3
	case "vec4":
		want = 4
	default:
		return Value{}, false
	}
	t, _ := glbuild.VecN(want)
	v := Value{typ: t}
	n := 0
	for _, arg := range args {
		if arg.typ != glbuild.Float && arg.typ != glbuild.Vec2 && arg.typ != glbuild.Vec3 {
			return Value{}, false
		}
		for i := 0; i < components(arg.typ); i++ {
			if n == want {
				return Value{}, false
			}
			v.c[n] = arg.c[i]
			n++
		}
	}
	return v, n == want
}
