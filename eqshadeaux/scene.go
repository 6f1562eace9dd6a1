package eqshadeaux

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/soypat/eqshade"
	"github.com/soypat/eqshade/gleval"
	"github.com/soypat/eqshade/mathjson"
	"github.com/soypat/geometry/ms2"
)

//go:embed scene.cue
var sceneSchema string

// Scene is a brightness field and the host uniforms it is viewed with,
// as stored in a scene file.
type Scene struct {
	Functions []FunctionSpec      `json:"functions"`
	Constants []ConstantSpec      `json:"constants"`
	Equation  mathjson.Expression `json:"equation"`
	Uniforms  UniformSpec         `json:"uniforms"`
}

// FunctionSpec is the scene file form of [eqshade.FunctionDecl]. Symbol may
// be a subscripted name such as ["Subscript", "f", 1].
type FunctionSpec struct {
	Symbol    mathjson.Expression `json:"symbol"`
	Input     mathjson.Expression `json:"input"`
	Output    mathjson.Expression `json:"output"`
	Variables []string            `json:"variables"`
	Equation  mathjson.Expression `json:"equation"`
}

type ConstantSpec struct {
	Symbol string              `json:"symbol"`
	Value  mathjson.Expression `json:"value"`
}

// UniformSpec holds the host uniform expressions. Missing expressions take the
// values of [DefaultUniforms].
type UniformSpec struct {
	MinValue mathjson.Expression `json:"min_value"`
	MaxValue mathjson.Expression `json:"max_value"`
	MinX     mathjson.Expression `json:"min_x"`
	MaxX     mathjson.Expression `json:"max_x"`
	MinY     mathjson.Expression `json:"min_y"`
	MaxY     mathjson.Expression `json:"max_y"`
	UnitT    mathjson.Expression `json:"unit_t"`
}

// Uniforms are the evaluated host uniforms of a scene.
type Uniforms struct {
	MinValue float32
	MaxValue float32
	// Bounds is the domain box: min_x, min_y to max_x, max_y.
	Bounds ms2.Box
	// UnitT scales wall clock seconds into the t variable.
	UnitT float32
}

// DefaultUniforms returns the uniforms used where a scene leaves them unset.
func DefaultUniforms() Uniforms {
	return Uniforms{
		MinValue: 0,
		MaxValue: 1,
		Bounds:   ms2.Box{Min: ms2.Vec{X: -2, Y: -2}, Max: ms2.Vec{X: 2, Y: 2}},
		UnitT:    1,
	}
}

// LoadScene parses and validates a CUE or JSON scene. filename is used in
// error messages only.
func LoadScene(src []byte, filename string) (*Scene, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString("close({"+sceneSchema+"})", cue.Filename("scene.cue"))
	if err := schema.Err(); err != nil {
		return nil, err
	}
	value := ctx.CompileBytes(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, err
	}
	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validating %s: %w", filename, err)
	}
	// Expressions decode through mathjson's JSON form.
	b, err := unified.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var s Scene
	err = json.Unmarshal(b, &s)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filename, err)
	}
	return &s, nil
}

// LoadSceneFile reads and loads the scene file with filename.
func LoadSceneFile(filename string) (*Scene, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return LoadScene(src, filename)
}

// Input returns the compiler input of the scene.
func (s *Scene) Input() (eqshade.Input, error) {
	var errs []error
	in := eqshade.Input{
		Functions: make([]eqshade.FunctionDecl, len(s.Functions)),
		Constants: make([]eqshade.ConstantDecl, len(s.Constants)),
		Equation:  s.Equation.Node,
	}
	for i, fn := range s.Functions {
		symbol, ok := mathjson.SymbolName(fn.Symbol.Node)
		if !ok && fn.Symbol.Node != nil {
			errs = append(errs, fmt.Errorf("function %d: invalid symbol %s", i, mathjson.Format(fn.Symbol.Node)))
		}
		in.Functions[i] = eqshade.FunctionDecl{
			Symbol:    symbol,
			Input:     fn.Input.Node,
			Output:    fn.Output.Node,
			Variables: fn.Variables,
			Equation:  fn.Equation.Node,
		}
	}
	for i, cons := range s.Constants {
		in.Constants[i] = eqshade.ConstantDecl{Symbol: cons.Symbol, Value: cons.Value.Node}
	}
	if len(errs) > 0 {
		return eqshade.Input{}, errors.Join(errs...)
	}
	return in, nil
}

// EvalUniforms evaluates the host uniform expressions of the scene. They may
// reference scene constants and functions but not x, y or t.
func (s *Scene) EvalUniforms() (Uniforms, error) {
	in, err := s.Input()
	if err != nil {
		return Uniforms{}, err
	}
	f, err := gleval.NewCPUField(in, ms2.Box{})
	if err != nil {
		return Uniforms{}, err
	}
	u := DefaultUniforms()
	exprs := s.Uniforms
	for _, item := range []struct {
		name string
		expr mathjson.Expression
		dst  *float32
	}{
		{"min_value", exprs.MinValue, &u.MinValue},
		{"max_value", exprs.MaxValue, &u.MaxValue},
		{"min_x", exprs.MinX, &u.Bounds.Min.X},
		{"max_x", exprs.MaxX, &u.Bounds.Max.X},
		{"min_y", exprs.MinY, &u.Bounds.Min.Y},
		{"max_y", exprs.MaxY, &u.Bounds.Max.Y},
		{"unit_t", exprs.UnitT, &u.UnitT},
	} {
		if item.expr.Node == nil {
			continue
		}
		v, err := f.EvalConstant(item.expr.Node)
		if err != nil {
			return Uniforms{}, fmt.Errorf("uniform %s: %w", item.name, err)
		}
		*item.dst = v
	}
	switch {
	case u.MinValue == u.MaxValue:
		return Uniforms{}, errors.New("uniforms min_value and max_value must differ")
	case u.Bounds.Min.X >= u.Bounds.Max.X || u.Bounds.Min.Y >= u.Bounds.Max.Y:
		return Uniforms{}, fmt.Errorf("empty domain box %v", u.Bounds)
	}
	return u, nil
}
