package eqshade

import (
	"bytes"

	"github.com/soypat/eqshade/glbuild"
	"github.com/soypat/eqshade/glbuild/glsllib"
)

// Compiler turns [Input]s into GLSL [Program]s. A Compiler reuses its buffers
// between passes and is not safe for concurrent use.
type Compiler struct {
	cfg        Config
	programmer *glbuild.Programmer
	frag       bytes.Buffer
	vert       bytes.Buffer
}

// NewCompiler returns a Compiler configured by cfg.
func NewCompiler(cfg Config) *Compiler {
	return &Compiler{
		cfg:        cfg,
		programmer: glbuild.NewProgrammer(cfg.Dialect),
	}
}

// Compile compiles in with the default configuration.
func Compile(in Input) (Program, error) {
	return NewCompiler(Config{}).Compile(in)
}

// Compile runs one compilation pass. Signature and declaration errors abort
// the pass and no program is returned. Reference errors do not: the returned
// program carries ERROR markers and matching [Diagnostic]s.
func (cp *Compiler) Compile(in Input) (Program, error) {
	c := newCompilation(cp.cfg)
	err := c.declare(in)
	if err != nil {
		return Program{}, err
	}
	defines := c.translateConstants(in.Constants)
	c.translateFunctions()
	top := c.translate(in.Equation)
	if top.sig != nil && !top.sig.Equal(Signature{Float}) {
		c.warnf("brightness equation has type %s, want float", top.sig.TypeName())
	}
	c.checkRecursion()

	libStructs, libFuncs := glsllib.Library(cp.cfg.Dialect)
	structs, constructors := c.structDecls()
	unit := glbuild.Unit{
		Defines:    defines,
		Structs:    append(libStructs, structs...),
		Funcs:      append(append(libFuncs, constructors...), c.functionDecls()...),
		Brightness: top.src,
	}
	cp.frag.Reset()
	cp.vert.Reset()
	_, err = cp.programmer.WriteFragment(&cp.frag, unit)
	if err != nil {
		return Program{}, err
	}
	_, err = cp.programmer.WriteVertex(&cp.vert)
	if err != nil {
		return Program{}, err
	}
	return Program{
		Vertex:      cp.vert.String(),
		Fragment:    cp.frag.String(),
		Diagnostics: c.diags,
	}, nil
}

// translateConstants translates constant values at top-level scope after the
// symbol table is complete so that constants may call user functions.
// A constant may reference constants declared before it.
func (c *compilation) translateConstants(constants []ConstantDecl) []glbuild.Define {
	defines := make([]glbuild.Define, len(constants))
	for i, cons := range constants {
		value := c.translate(cons.Value)
		c.constants[cons.Symbol] = value.sig
		defines[i] = glbuild.Define{Name: cons.Symbol, Value: value.src}
	}
	return defines
}
