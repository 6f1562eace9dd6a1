package glbuild

import (
	"bytes"
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
)

// VersionStr is the version directive that heads desktop GLSL units.
const VersionStr = "#version 460\n"

// Dialect selects the GLSL flavour the Programmer emits.
type Dialect uint8

const (
	// DialectWebGL emits GLSL ES 1.00 units suitable for WebGL 1 canvases.
	DialectWebGL Dialect = iota
	// DialectCore emits GLSL 4.60 core profile units for desktop OpenGL.
	DialectCore
)

func (d Dialect) String() string {
	switch d {
	case DialectWebGL:
		return "webgl"
	case DialectCore:
		return "core"
	}
	return "Dialect(" + strconv.Itoa(int(d)) + ")"
}

// HasHyperbolic reports whether tanh and atanh are GLSL built-ins in the dialect.
// GLSL ES 1.00 lacks them so the runtime library polyfills them.
func (d Dialect) HasHyperbolic() bool { return d == DialectCore }

// Uniforms lists the float uniforms every fragment unit declares. The host
// must set all of them before drawing.
var Uniforms = [...]string{
	"width", "height", "time",
	"max_value", "min_value",
	"min_x", "max_x", "min_y", "max_y",
	"unit_t",
}

// Preamble defines emitted before any user constant.
var preamble = [...]Define{
	{Name: "Pi", Value: "3.1415926538"},
	{Name: "ExponentialE", Value: "2.7182818284"},
	{Name: "CustomImaginaryUnit", Value: "complex(0.0, 1.0)"},
}

// Param is a typed function parameter or struct field.
type Param struct {
	Type string
	Name string
}

// Func is a GLSL function declaration.
type Func struct {
	Result string
	Name   string
	Params []Param
	// Body holds the function statements, one per line and without indentation.
	Body []string
}

// Struct is a GLSL product type declaration.
type Struct struct {
	Name   string
	Fields []Param
}

// Define is a preprocessor alias.
type Define struct {
	Name  string
	Value string
}

// Unit holds every declaration of a fragment unit in emission order.
// Ordering within each slice is preserved so that callees precede callers.
type Unit struct {
	Defines []Define
	Structs []Struct
	Funcs   []Func
	// Brightness is the GLSL expression returned by brightness(x, y, t).
	Brightness string
}

// Programmer renders [Unit]s into GLSL source.
type Programmer struct {
	dialect Dialect
	scratch []byte
	// names maps declaration keys to body hashes for checking duplicates.
	names map[uint64]uint64
}

// NewProgrammer returns a Programmer that emits the argument dialect.
func NewProgrammer(d Dialect) *Programmer {
	return &Programmer{
		dialect: d,
		scratch: make([]byte, 0, 8192),
		names:   make(map[uint64]uint64),
	}
}

// Dialect returns the dialect the Programmer emits.
func (p *Programmer) Dialect() Dialect { return p.dialect }

//go:embed vertex_webgl.glsl
var vertexWebGL []byte

//go:embed vertex_core.glsl
var vertexCore []byte

//go:embed main_webgl.glsl
var mainWebGL []byte

//go:embed main_core.glsl
var mainCore []byte

// WriteVertex writes the fixed vertex stage unit. It only transforms coordinates
// and is identical for every brightness program of the same dialect.
func (p *Programmer) WriteVertex(w io.Writer) (int, error) {
	if p.dialect == DialectCore {
		return w.Write(vertexCore)
	}
	return w.Write(vertexWebGL)
}

// WriteFragment writes the per-pixel unit: preamble, constants, uniforms, the
// unit's structs and functions, brightness(x, y, t) and main.
//
// Functions sharing name and parameter types with identical bodies are written once.
// Differing bodies under the same declaration key return an error.
func (p *Programmer) WriteFragment(w io.Writer, u Unit) (int, error) {
	clear(p.names)
	b := p.scratch[:0]
	if p.dialect == DialectCore {
		b = append(b, VersionStr...)
	}
	for _, def := range preamble {
		b = AppendDefineDecl(b, def.Name, def.Value)
	}
	for _, def := range u.Defines {
		if def.Name == "" {
			return 0, errors.New("empty define name")
		}
		b = AppendDefineDecl(b, def.Name, def.Value)
	}
	b = append(b, '\n')
	if p.dialect == DialectWebGL {
		b = append(b, "precision highp float;\n"...)
	}
	for _, name := range Uniforms {
		b = AppendUniformDecl(b, "float", name)
	}
	var err error
	for i := range u.Structs {
		b, err = p.appendStruct(b, &u.Structs[i])
		if err != nil {
			return 0, err
		}
	}
	for i := range u.Funcs {
		b, err = p.appendFunc(b, &u.Funcs[i])
		if err != nil {
			return 0, err
		}
	}
	if u.Brightness == "" {
		return 0, errors.New("empty brightness expression")
	}
	b, err = p.appendFunc(b, &Func{
		Result: "float",
		Name:   "brightness",
		Params: []Param{{"float", "x"}, {"float", "y"}, {"float", "t"}},
		Body:   []string{"return " + u.Brightness + ";"},
	})
	if err != nil {
		return 0, err
	}
	b = append(b, '\n')
	if p.dialect == DialectCore {
		b = append(b, mainCore...)
	} else {
		b = append(b, mainWebGL...)
	}
	p.scratch = b
	return w.Write(b)
}

func (p *Programmer) appendStruct(b []byte, s *Struct) ([]byte, error) {
	if s.Name == "" {
		return b, errors.New("empty struct name")
	} else if len(s.Fields) == 0 {
		return b, fmt.Errorf("struct %s has no fields", s.Name)
	}
	start := len(b)
	b = AppendStructDecl(b, *s)
	nameHash := hash([]byte("struct "+s.Name), 0)
	bodyHash := hash(b[start:], nameHash)
	got, conflict := p.names[nameHash]
	if conflict {
		if got == bodyHash {
			return b[:start], nil // Identical struct already written.
		}
		return b[:start], fmt.Errorf("conflicting declarations of struct %s:\n%s", s.Name, b[start:])
	}
	p.names[nameHash] = bodyHash
	return b, nil
}

func (p *Programmer) appendFunc(b []byte, f *Func) ([]byte, error) {
	if f.Name == "" {
		return b, errors.New("empty function name")
	} else if f.Result == "" {
		return b, fmt.Errorf("function %s has no result type", f.Name)
	}
	start := len(b)
	b = appendFuncKey(b, f)
	keyHash := hash(b[start:], 0)
	b = b[:start]
	b = AppendFuncDecl(b, *f)
	bodyHash := hash(b[start:], keyHash) // Body hash mixes key as well.
	got, conflict := p.names[keyHash]
	if conflict {
		if got == bodyHash {
			return b[:start], nil // Function already written and is identical, skip.
		}
		return b[:start], fmt.Errorf("duplicate function %s with distinct body:\n%s", f.Name, b[start:])
	}
	p.names[keyHash] = bodyHash
	return b, nil
}

// appendFuncKey appends the overload identity of f: name and parameter types.
func appendFuncKey(b []byte, f *Func) []byte {
	b = append(b, f.Name...)
	b = append(b, '(')
	for i, param := range f.Params {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, param.Type...)
	}
	return append(b, ')')
}

// AppendFuncDecl appends a function definition to b.
//
//	<Result> <Name>(<Type> <Name>, ...) {
//		<Body...>
//	}
func AppendFuncDecl(b []byte, f Func) []byte {
	b = append(b, f.Result...)
	b = append(b, ' ')
	b = append(b, f.Name...)
	b = append(b, '(')
	for i, param := range f.Params {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = append(b, param.Type...)
		b = append(b, ' ')
		b = append(b, param.Name...)
	}
	b = append(b, ") {\n"...)
	for _, stmt := range f.Body {
		b = append(b, '\t')
		b = append(b, stmt...)
		b = append(b, '\n')
	}
	b = append(b, "}\n"...)
	return b
}

// AppendStructDecl appends a struct declaration to b.
func AppendStructDecl(b []byte, s Struct) []byte {
	b = append(b, "struct "...)
	b = append(b, s.Name...)
	b = append(b, " {\n"...)
	for _, field := range s.Fields {
		b = append(b, '\t')
		b = append(b, field.Type...)
		b = append(b, ' ')
		b = append(b, field.Name...)
		b = append(b, ";\n"...)
	}
	b = append(b, "};\n"...)
	return b
}

func AppendDefineDecl(b []byte, aliasToDefine, aliasReplace string) []byte {
	b = append(b, "#define "...)
	b = append(b, aliasToDefine...)
	b = append(b, ' ')
	b = append(b, aliasReplace...)
	b = append(b, '\n')
	return b
}

func AppendUniformDecl(b []byte, typename, name string) []byte {
	b = append(b, "uniform "...)
	b = append(b, typename...)
	b = append(b, ' ')
	b = append(b, name...)
	b = append(b, ";\n"...)
	return b
}

// AppendFloat appends a GLSL float literal that represents v exactly as parsed
// by strconv. The literal always contains a decimal point so 2 is written as "2.0".
// Non-finite values are written as constant divisions since GLSL has no literal for them.
func AppendFloat(b []byte, v float64) []byte {
	switch {
	case math.IsNaN(v):
		return append(b, "(0.0 / 0.0)"...)
	case math.IsInf(v, 1):
		return append(b, "(1.0 / 0.0)"...)
	case math.IsInf(v, -1):
		return append(b, "(-1.0 / 0.0)"...)
	}
	start := len(b)
	b = strconv.AppendFloat(b, v, 'f', -1, 64)
	if bytes.IndexByte(b[start:], '.') < 0 {
		b = append(b, ".0"...)
	}
	return b
}

func hash(b []byte, in uint64) uint64 {
	x := in
	for len(b) >= 8 {
		x ^= binary.LittleEndian.Uint64(b)
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
		b = b[8:]

	}
	if len(b) > 0 {
		var buf [8]byte
		copy(buf[:], b)
		x ^= binary.LittleEndian.Uint64(buf[:])
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
	}
	return x
}
