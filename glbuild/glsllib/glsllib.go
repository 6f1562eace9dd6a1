// Package glsllib holds the runtime library prepended to every brightness
// program: the complex number type and the overloaded arithmetic on floats,
// complex numbers and vectors. The library is also queried for the static
// result type of calls.
package glsllib

import (
	_ "embed"

	"github.com/soypat/eqshade/glbuild"
)

//go:embed complex.glsl
var complexSrc []byte

//go:embed hyperbolic.glsl
var hyperbolicSrc []byte

// Overload is the typed signature of one runtime library function.
type Overload struct {
	Name   string
	Result glbuild.Type
	Params []glbuild.Type
}

var (
	runtimeStructs []glbuild.Struct
	runtimeFuncs   []glbuild.Func
	polyfills      []glbuild.Func
	overloads      map[string][]Overload
)

func init() {
	var err error
	runtimeStructs, runtimeFuncs, err = glbuild.ParseDecls(complexSrc)
	if err != nil {
		panic(err)
	}
	_, polyfills, err = glbuild.ParseDecls(hyperbolicSrc)
	if err != nil {
		panic(err)
	}
	overloads = make(map[string][]Overload)
	for _, fn := range runtimeFuncs {
		ov := Overload{Name: fn.Name, Result: mustType(fn.Result)}
		for _, param := range fn.Params {
			ov.Params = append(ov.Params, mustType(param.Type))
		}
		overloads[fn.Name] = append(overloads[fn.Name], ov)
	}
}

func mustType(name string) glbuild.Type {
	t, ok := glbuild.ParseType(name)
	if !ok {
		panic("glsllib: unknown type " + name)
	}
	return t
}

// Library returns the runtime library declarations for the dialect.
// Hyperbolic polyfills are only included in dialects lacking them.
// Returned slices are copies and may be appended to.
func Library(d glbuild.Dialect) (structs []glbuild.Struct, funcs []glbuild.Func) {
	structs = append(structs, runtimeStructs...)
	funcs = append(funcs, runtimeFuncs...)
	if !d.HasHyperbolic() {
		funcs = append(funcs, polyfills...)
	}
	return structs, funcs
}

// Overloads returns the runtime library overloads of a function name.
func Overloads(name string) []Overload {
	return overloads[name]
}

// IsRuntime reports whether name is defined by the runtime library (as opposed to a GLSL built-in).
func IsRuntime(name string) bool {
	_, ok := overloads[name]
	return ok
}

// CallType returns the static result type of calling function name with
// arguments of the given types. Runtime library overloads are consulted
// first, then GLSL built-ins.
//
// If any argument type is [glbuild.Invalid] the result is Invalid and ok is true
// since the call can't be checked. ok is false when the types are known but no
// overload or built-in accepts them.
func CallType(name string, args ...glbuild.Type) (result glbuild.Type, ok bool) {
	for _, arg := range args {
		if arg == glbuild.Invalid {
			return glbuild.Invalid, true
		}
	}
	if ovs, defined := overloads[name]; defined {
		for _, ov := range ovs {
			if paramsMatch(ov.Params, args) {
				return ov.Result, true
			}
		}
		if name != "abs" {
			return glbuild.Invalid, false
		}
	}
	return builtinType(name, args)
}

func paramsMatch(params, args []glbuild.Type) bool {
	if len(params) != len(args) {
		return false
	}
	for i := range params {
		if params[i] != args[i] {
			return false
		}
	}
	return true
}

func isGenType(t glbuild.Type) bool { return t == glbuild.Float || t.IsVector() }

func builtinType(name string, args []glbuild.Type) (glbuild.Type, bool) {
	switch name {
	case "cos", "sin", "tan", "sqrt", "floor", "ceil", "exp", "log",
		"atan", "atanh", "tanh", "abs":
		if len(args) == 1 && isGenType(args[0]) {
			return args[0], true
		}
	case "length":
		if len(args) == 1 && isGenType(args[0]) {
			return glbuild.Float, true
		}
	case "pow", "min", "max", "mod":
		if len(args) != 2 || !isGenType(args[0]) {
			break
		}
		if args[0] == args[1] || (name != "pow" && args[1] == glbuild.Float) {
			return args[0], true
		}
	case "float":
		if len(args) == 1 && (args[0] == glbuild.Float || args[0] == glbuild.Bool) {
			return glbuild.Float, true
		}
	case "complex":
		if len(args) == 2 && args[0] == glbuild.Float && args[1] == glbuild.Float {
			return glbuild.Complex, true
		}
	case "vec2", "vec3", "vec4":
		want := int(name[3] - '0')
		n := 0
		for _, arg := range args {
			switch arg {
			case glbuild.Float:
				n++
			case glbuild.Vec2:
				n += 2
			case glbuild.Vec3:
				n += 3
			default:
				return glbuild.Invalid, false
			}
		}
		if n == want {
			t, _ := glbuild.VecN(want)
			return t, true
		}
	}
	return glbuild.Invalid, false
}
