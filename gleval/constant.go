package gleval

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/eqshade/glbuild"
	"github.com/soypat/eqshade/mathjson"
)

var errNotFinite = errors.New("value is not finite")

// EvalConstant evaluates a closed expression, one without free variables or
// user functions, such as the host side uniforms min_x or unit_t.
func EvalConstant(node mathjson.Node) (float32, error) {
	var f CPUField
	return f.EvalConstant(node)
}

// EvalConstant evaluates an expression without free variables. The
// expression may reference the constants and functions of f.
func (f *CPUField) EvalConstant(node mathjson.Node) (float32, error) {
	if node == nil {
		return 0, errors.New("missing expression")
	}
	v, err := f.eval(node, nil)
	if err != nil {
		return 0, err
	} else if v.Type() != glbuild.Float {
		return 0, fmt.Errorf("constant %s has type %s, want float", mathjson.Format(node), v.Signature().TypeName())
	}
	x := v.Float()
	if math32.IsNaN(x) || math32.IsInf(x, 0) {
		return 0, fmt.Errorf("constant %s: %w", mathjson.Format(node), errNotFinite)
	}
	return x, nil
}
