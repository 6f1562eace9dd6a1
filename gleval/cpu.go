package gleval

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/eqshade"
	"github.com/soypat/eqshade/glbuild"
	"github.com/soypat/eqshade/mathjson"
	"github.com/soypat/geometry/ms2"
)

// maxDepth bounds user function nesting so recursive definitions fail instead
// of exhausting the stack.
const maxDepth = 256

var errTooDeep = errors.New("maximum call depth exceeded, recursive definition?")

// CPUField is a reference brightness field evaluated by interpreting the
// MathJSON input directly with float32 arithmetic. It follows the semantics
// of the compiled program: right-folded variadics, argument injection, return
// lifting, iteration and tuple packing. Reference errors are returned as errors.
type CPUField struct {
	bb        ms2.Box
	funcs     map[string]*cpuFunc
	constants map[string]mathjson.Node
	equation  mathjson.Node
	t         float32
	depth     int
}

type cpuFunc struct {
	decl   *eqshade.FunctionDecl
	input  eqshade.Signature
	output eqshade.Signature
}

// scope binds variable names to values during interpretation.
type scope map[string]Value

// NewCPUField returns a CPU evaluator of the brightness equation of in viewed
// through bb. Declarations are checked the same way [eqshade.Compile] checks them.
func NewCPUField(in eqshade.Input, bb ms2.Box) (*CPUField, error) {
	_, err := eqshade.Compile(in)
	if err != nil {
		return nil, err
	}
	f := &CPUField{
		bb:        bb,
		funcs:     make(map[string]*cpuFunc, len(in.Functions)),
		constants: make(map[string]mathjson.Node, len(in.Constants)),
		equation:  in.Equation,
	}
	for i := range in.Functions {
		decl := &in.Functions[i]
		input, _ := eqshade.ResolveSignature(decl.Input)
		output, _ := eqshade.ResolveSignature(decl.Output)
		f.funcs[decl.Symbol] = &cpuFunc{decl: decl, input: input, output: output}
	}
	for _, cons := range in.Constants {
		f.constants[cons.Symbol] = cons.Value
	}
	return f, nil
}

// SetTime sets the value of the t variable, the animation time already
// scaled by unit_t.
func (f *CPUField) SetTime(t float32) { f.t = t }

func (f *CPUField) Bounds() ms2.Box { return f.bb }

// Evaluate implements [Field].
func (f *CPUField) Evaluate(pos []ms2.Vec, brightness []float32, userData any) error {
	err := checkBuffers(pos, brightness)
	if err != nil {
		return err
	}
	for i, p := range pos {
		v, err := f.eval(f.equation, f.topLevel(p.X, p.Y))
		if err != nil {
			return fmt.Errorf("at (%g, %g): %w", p.X, p.Y, err)
		} else if v.Type() != glbuild.Float {
			return fmt.Errorf("brightness equation has type %s, want float", v.Signature().TypeName())
		}
		brightness[i] = v.Float()
	}
	return nil
}

// Call evaluates a user function with args.
func (f *CPUField) Call(symbol string, args ...Value) (Value, error) {
	fn, ok := f.funcs[symbol]
	if !ok {
		return Value{}, fmt.Errorf("%s is not defined", symbol)
	}
	return f.call(fn, args)
}

func (f *CPUField) topLevel(x, y float32) scope {
	return scope{"x": FloatValue(x), "y": FloatValue(y), "t": FloatValue(f.t)}
}

func (f *CPUField) eval(node mathjson.Node, sc scope) (Value, error) {
	switch n := node.(type) {
	case mathjson.Number:
		return FloatValue(float32(n)), nil
	case mathjson.Symbol:
		return f.symbol(string(n), sc)
	case mathjson.Expr:
		return f.evalExpr(n, sc)
	}
	return Value{}, errors.New("missing operand")
}

func (f *CPUField) symbol(name string, sc scope) (Value, error) {
	if v, ok := sc[name]; ok {
		return v, nil
	}
	switch name {
	case "Pi":
		return FloatValue(math32.Pi), nil
	case "ExponentialE":
		return FloatValue(math32.E), nil
	case "ImaginaryUnit", "CustomImaginaryUnit":
		return ComplexValue(0, 1), nil
	}
	if node, ok := f.constants[name]; ok {
		// Constants are preprocessor defines evaluated where they are used.
		return f.nested(func() (Value, error) { return f.eval(node, sc) })
	}
	return Value{}, fmt.Errorf("%s is not defined", name)
}

func (f *CPUField) nested(fn func() (Value, error)) (Value, error) {
	if f.depth >= maxDepth {
		return Value{}, errTooDeep
	}
	f.depth++
	defer func() { f.depth-- }()
	return fn()
}

func (f *CPUField) evalArgs(nodes []mathjson.Node, sc scope) ([]Value, error) {
	args := make([]Value, len(nodes))
	for i, node := range nodes {
		v, err := f.eval(node, sc)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func errArity(e mathjson.Expr, want int) error {
	return fmt.Errorf("%s expects %d operands, got %d", e.Op, want, len(e.Args))
}

func (f *CPUField) evalExpr(e mathjson.Expr, sc scope) (Value, error) {
	switch e.Op {
	case "Add", "Multiply", "Min", "Max":
		if len(e.Args) == 0 {
			return Value{}, errArity(e, 1)
		}
		args, err := f.evalArgs(e.Args, sc)
		if err != nil {
			return Value{}, err
		}
		return fold(variadicFuncs[e.Op], args)

	case "Less", "LessEqual", "Greater", "GreaterEqual", "Equal", "NotEqual", "Rational":
		if len(e.Args) != 2 {
			return Value{}, errArity(e, 2)
		}
		args, err := f.evalArgs(e.Args, sc)
		if err != nil {
			return Value{}, err
		}
		a, b := args[0], args[1]
		if a.Type() != glbuild.Float || b.Type() != glbuild.Float {
			return Value{}, fmt.Errorf("%s requires float operands, got %s and %s", e.Op, a.Type(), b.Type())
		}
		return compare(e.Op, a.Float(), b.Float()), nil

	case "Cos", "Sin", "Tan", "Sqrt", "Floor", "Ceil", "Exp", "Ln", "Tanh",
		"Arctan", "Arctanh", "Abs", "Negate", "Norm", "Re", "Im", "Boole":
		if len(e.Args) != 1 {
			return Value{}, errArity(e, 1)
		}
		arg, err := f.eval(e.Args[0], sc)
		if err != nil {
			return Value{}, err
		}
		name := unaryOps[e.Op]
		if e.Op == "Norm" && arg.Type() == glbuild.Complex {
			name = "abs"
		}
		return callFunc(name, arg)

	case "Complex", "Divide", "Mod":
		if len(e.Args) != 2 {
			return Value{}, errArity(e, 2)
		}
		args, err := f.evalArgs(e.Args, sc)
		if err != nil {
			return Value{}, err
		}
		return callFunc(binaryOps[e.Op], args...)

	case "Subtract":
		args, err := f.evalArgs(e.Args, sc)
		if err != nil {
			return Value{}, err
		}
		switch len(args) {
		case 1:
			return callFunc("negate", args[0])
		case 2:
			neg, err := callFunc("negate", args[1])
			if err != nil {
				return Value{}, err
			}
			return callFunc("add", args[0], neg)
		}
		return Value{}, errArity(e, 2)

	case "Power":
		if len(e.Args) != 2 {
			return Value{}, errArity(e, 2)
		}
		return f.power(e.Args[0], e.Args[1], sc)

	case "Matrix":
		return f.matrix(e, sc)

	case "Subscript":
		name, ok := mathjson.SymbolName(e)
		if !ok {
			return Value{}, errors.New("malformed subscript " + mathjson.Format(e))
		}
		return f.symbol(name, sc)

	case "Apply":
		if len(e.Args) == 0 {
			return Value{}, errArity(e, 1)
		}
		name, ok := mathjson.SymbolName(e.Args[0])
		if !ok {
			return Value{}, errors.New("cannot apply " + mathjson.Format(e.Args[0]))
		}
		return f.userCall(name, e.Args[1:], sc)

	case "Tuple":
		return f.tuple(e, sc)

	case "Error":
		return Value{}, errors.New(mathjson.Format(e))
	}
	return f.userCall(e.Op, e.Args, sc)
}

var unaryOps = map[string]string{
	"Cos": "cos", "Sin": "sin", "Tan": "tan", "Sqrt": "sqrt", "Floor": "floor",
	"Ceil": "ceil", "Exp": "exp", "Ln": "log", "Tanh": "tanh", "Arctan": "atan",
	"Arctanh": "atanh", "Abs": "abs", "Negate": "negate", "Norm": "length",
	"Re": "real_part", "Im": "imaginary_part", "Boole": "float",
}

var binaryOps = map[string]string{"Complex": "complex", "Divide": "divide", "Mod": "mod"}

var variadicFuncs = map[string]string{"Add": "add", "Multiply": "multiply", "Min": "min", "Max": "max"}

// fold right-folds name over args: name(a, name(b, c)).
func fold(name string, args []Value) (Value, error) {
	acc := args[len(args)-1]
	for i := len(args) - 2; i >= 0; i-- {
		var err error
		acc, err = callFunc(name, args[i], acc)
		if err != nil {
			return Value{}, err
		}
	}
	return acc, nil
}

func compare(op string, a, b float32) Value {
	switch op {
	case "Less":
		return BoolValue(a < b)
	case "LessEqual":
		return BoolValue(a <= b)
	case "Greater":
		return BoolValue(a > b)
	case "GreaterEqual":
		return BoolValue(a >= b)
	case "Equal":
		return BoolValue(a == b)
	case "NotEqual":
		return BoolValue(a != b)
	}
	return FloatValue(a / b) // Rational.
}

func (f *CPUField) power(baseNode, expNode mathjson.Node, sc scope) (Value, error) {
	base, err := f.eval(baseNode, sc)
	if err != nil {
		return Value{}, err
	}
	n, ok := mathjson.Integer(expNode)
	if !ok || n < 0 || n >= 5 {
		exp, err := f.eval(expNode, sc)
		if err != nil {
			return Value{}, err
		}
		return callFunc("pow", base, exp)
	}
	switch n {
	case 0:
		if base.Type() == glbuild.Complex {
			return ComplexValue(1, 0), nil
		}
		return FloatValue(1), nil
	case 1:
		return base, nil
	}
	result := base
	for i := 1; i < n; i++ {
		result, err = callFunc("multiply", base, result)
		if err != nil {
			return Value{}, err
		}
	}
	return result, nil
}

func (f *CPUField) matrix(e mathjson.Expr, sc scope) (Value, error) {
	list, ok := e.Arg(0).(mathjson.Expr)
	if !ok || list.Op != "List" {
		return Value{}, errors.New("Matrix expects a List operand")
	}
	entries := list.Args
	if len(entries) == 1 {
		row, ok := entries[0].(mathjson.Expr)
		if ok && row.Op == "List" && len(row.Args) > 1 {
			entries = row.Args
		}
	}
	comps := make([]Value, len(entries))
	for i, entry := range entries {
		if row, ok := entry.(mathjson.Expr); ok && row.Op == "List" {
			entry = row.Arg(0)
		}
		v, err := f.eval(entry, sc)
		if err != nil {
			return Value{}, err
		}
		comps[i] = v
	}
	t, ok := glbuild.VecN(len(comps))
	if !ok {
		return Value{}, fmt.Errorf("no vector type with %d components", len(comps))
	}
	return callFunc(t.String(), comps...)
}

func (f *CPUField) tuple(e mathjson.Expr, sc scope) (Value, error) {
	if len(e.Args) == 2 {
		if name, n, ok := iterationPattern(e.Args[0]); ok && !f.bound(name, sc) {
			return f.iterate(name, n, e.Args[1], sc)
		}
	}
	if len(e.Args) == 0 {
		return Value{}, errArity(e, 1)
	}
	args, err := f.evalArgs(e.Args, sc)
	if err != nil {
		return Value{}, err
	}
	return TupleValue(args...), nil
}

func (f *CPUField) bound(name string, sc scope) bool {
	if _, ok := sc[name]; ok {
		return true
	}
	_, ok := f.constants[name]
	return ok
}

// iterationPattern matches ["Power", f, n] where n is a non-negative integer,
// possibly wrapped by the equation editor, i.e: ["Delimiter", n].
func iterationPattern(node mathjson.Node) (symbol string, count int, ok bool) {
	pow, ok := node.(mathjson.Expr)
	if !ok || pow.Op != "Power" || len(pow.Args) != 2 {
		return "", 0, false
	}
	symbol, ok = mathjson.SymbolName(pow.Args[0])
	if !ok {
		return "", 0, false
	}
	count, ok = mathjson.Integer(pow.Args[1])
	if wrap, isExpr := pow.Args[1].(mathjson.Expr); isExpr && !ok {
		switch len(wrap.Args) {
		case 1:
			count, ok = mathjson.Integer(wrap.Args[0])
		case 2:
			count, ok = mathjson.Integer(wrap.Args[1])
		}
	}
	return symbol, count, ok && count >= 0
}

// iterate applies the function symbol count times starting from the value of argNode.
func (f *CPUField) iterate(symbol string, count int, argNode mathjson.Node, sc scope) (Value, error) {
	fn, ok := f.funcs[symbol]
	if !ok {
		return Value{}, fmt.Errorf("%s is not defined", symbol)
	}
	var args []Value
	tup, isTuple := argNode.(mathjson.Expr)
	if isTuple && tup.Op == "Tuple" && !(len(tup.Args) == 2 && isIteration(tup.Args[0])) {
		var err error
		args, err = f.evalArgs(tup.Args, sc)
		if err != nil {
			return Value{}, err
		}
		injectArgs(fn.input, args)
	} else {
		arg, err := f.eval(argNode, sc)
		if err != nil {
			return Value{}, err
		}
		args = []Value{arg}
		if len(fn.input) == 1 {
			injectArgs(fn.input, args)
		}
	}
	value := TupleValue(args...)
	for i := 0; i < count; i++ {
		var err error
		value, err = f.call(fn, []Value{value})
		if err != nil {
			return Value{}, err
		}
	}
	return value, nil
}

func isIteration(node mathjson.Node) bool {
	_, _, ok := iterationPattern(node)
	return ok
}

func (f *CPUField) userCall(name string, argNodes []mathjson.Node, sc scope) (Value, error) {
	fn, ok := f.funcs[name]
	if !ok {
		return Value{}, fmt.Errorf("%s is not defined", name)
	}
	args, err := f.evalArgs(argNodes, sc)
	if err != nil {
		return Value{}, err
	}
	if len(args) == len(fn.input) {
		injectArgs(fn.input, args)
	}
	return f.call(fn, args)
}

// injectArgs lifts float arguments of complex parameters in place.
func injectArgs(input eqshade.Signature, args []Value) {
	for i := range args {
		if i < len(input) && input[i] == glbuild.Complex && args[i].Type() == glbuild.Float {
			args[i] = ComplexValue(args[i].Float(), 0)
		}
	}
}

// call binds args to the parameters of fn and evaluates its body. A single
// tuple argument is unpacked onto a multi-input function.
func (f *CPUField) call(fn *cpuFunc, args []Value) (Value, error) {
	if len(args) == 1 && args[0].IsTuple() && len(fn.input) > 1 {
		args = args[0].Members()
	}
	if len(args) != len(fn.input) {
		return Value{}, fmt.Errorf("%s expects %d arguments, got %d", fn.decl.Symbol, len(fn.input), len(args))
	}
	sc := make(scope, len(args))
	for i, arg := range args {
		if !arg.Signature().Equal(eqshade.Signature{fn.input[i]}) {
			return Value{}, fmt.Errorf("argument %d of %s: expected %s, got %s", i, fn.decl.Symbol, fn.input[i], arg.Signature().TypeName())
		}
		sc[fn.decl.Variables[i]] = arg
	}
	return f.nested(func() (Value, error) {
		v, err := f.eval(fn.decl.Equation, sc)
		if err != nil {
			return Value{}, fmt.Errorf("%s: %w", fn.decl.Symbol, err)
		}
		if len(fn.output) == 1 && fn.output[0] == glbuild.Complex && v.Type() == glbuild.Float {
			v = ComplexValue(v.Float(), 0)
		}
		return v, nil
	})
}
