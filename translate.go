package eqshade

import (
	"fmt"
	"strings"

	"github.com/soypat/eqshade/glbuild"
	"github.com/soypat/eqshade/glbuild/glsllib"
	"github.com/soypat/eqshade/mathjson"
)

// expr is a translated GLSL expression and its static type.
type expr struct {
	src string
	// sig is the static type. Single element for primitives, several for
	// tuples and nil when unknown.
	sig Signature
}

func typed(src string, t Type) expr {
	if t == Invalid {
		return expr{src: src}
	}
	return expr{src: src, sig: Signature{t}}
}

// typ returns the primitive static type of e, Invalid for tuples and unknowns.
func (e expr) typ() Type {
	if len(e.sig) == 1 {
		return e.sig[0]
	}
	return Invalid
}

func joinSrc(args []expr) string {
	var sb strings.Builder
	for i, arg := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(arg.src)
	}
	return sb.String()
}

func appendCall(name string, args []expr) string {
	return name + "(" + joinSrc(args) + ")"
}

// translate converts a node into a GLSL expression.
func (c *compilation) translate(node mathjson.Node) expr {
	switch n := node.(type) {
	case mathjson.Number:
		return typed("float_identity("+string(glbuild.AppendFloat(nil, float64(n)))+")", Float)
	case mathjson.Symbol:
		return c.symbol(string(n))
	case mathjson.Expr:
		return c.translateExpr(n)
	}
	return c.errorMarker("missing operand")
}

func (c *compilation) symbol(name string) expr {
	if sig, ok := c.scope[name]; ok {
		return expr{src: name, sig: sig}
	}
	switch name {
	case "Pi", "ExponentialE":
		return typed(name, Float)
	case "ImaginaryUnit", "CustomImaginaryUnit":
		return typed("CustomImaginaryUnit", Complex)
	}
	if sig, ok := c.constants[name]; ok {
		return expr{src: name, sig: sig}
	}
	return expr{src: name}
}

func (c *compilation) translateExpr(e mathjson.Expr) expr {
	op := parseOperator(e.Op)
	switch {
	case op == opUndefined:
		return c.userCall(e.Op, e.Args)
	case op.isVariadic():
		if len(e.Args) == 0 {
			return c.arityError(e, 1)
		}
		return c.fold(op, e.Args)
	case op.isComparison(), op == opRational:
		if len(e.Args) != 2 {
			return c.arityError(e, 2)
		}
		a, b := c.translate(e.Args[0]), c.translate(e.Args[1])
		src := "(" + a.src + " " + op.infix() + " " + b.src + ")"
		if op == opRational {
			if a.typ() == Float && b.typ() == Float {
				return typed(src, Float)
			}
			return expr{src: src}
		}
		return typed(src, Bool)
	}

	switch op {
	case opCos, opSin, opTan, opSqrt, opFloor, opCeil, opExp, opLn, opTanh,
		opArctan, opArctanh, opAbs, opNegate, opRe, opIm, opBoole:
		if len(e.Args) != 1 {
			return c.arityError(e, 1)
		}
		return c.call(op.glslFunc(), c.translate(e.Args[0]))

	case opNorm:
		if len(e.Args) != 1 {
			return c.arityError(e, 1)
		}
		arg := c.translate(e.Args[0])
		if arg.typ() == Complex {
			return c.call("abs", arg)
		}
		return c.call(op.glslFunc(), arg)

	case opPower:
		if len(e.Args) != 2 {
			return c.arityError(e, 2)
		}
		return c.power(e.Args[0], e.Args[1])

	case opComplex, opDivide, opMod:
		if len(e.Args) != 2 {
			return c.arityError(e, 2)
		}
		return c.call(op.glslFunc(), c.translate(e.Args[0]), c.translate(e.Args[1]))

	case opSubtract:
		switch len(e.Args) {
		case 1:
			return c.call("negate", c.translate(e.Args[0]))
		case 2:
			a := c.translate(e.Args[0])
			return c.call("add", a, c.call("negate", c.translate(e.Args[1])))
		}
		return c.arityError(e, 2)

	case opMatrix:
		return c.matrix(e)

	case opSubscript:
		name, ok := mathjson.SymbolName(e)
		if !ok {
			return c.errorMarker("malformed subscript " + mathjson.Format(e))
		}
		return c.symbol(name)

	case opApply:
		return c.apply(e)

	case opTuple:
		return c.tuple(e)

	case opError:
		return c.errorMarker(mathjson.Format(e))
	}
	panic("unhandled operator " + e.Op)
}

// call emits a call to a GLSL built-in or runtime library function and
// resolves its static type. Calls no overload accepts are still emitted.
func (c *compilation) call(name string, args ...expr) expr {
	types := make([]Type, len(args))
	for i, arg := range args {
		types[i] = arg.typ()
		if arg.sig.IsTuple() {
			c.warnf("%s does not accept tuple argument %s", name, arg.sig.StructName())
			return expr{src: appendCall(name, args)}
		}
	}
	t, ok := glsllib.CallType(name, types...)
	if !ok {
		c.warnf("no overload %s(%s)", name, typeList(types))
	}
	return typed(appendCall(name, args), t)
}

func typeList(types []Type) string {
	var sb strings.Builder
	for i, t := range types {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(t.String())
	}
	return sb.String()
}

// fold right-folds a variadic operator into binary calls:
// add(a, add(b, c)). A single operand is returned as is.
func (c *compilation) fold(op operator, args []mathjson.Node) expr {
	left := c.translate(args[0])
	if len(args) == 1 {
		return left
	}
	var right expr
	if len(args) == 2 {
		right = c.translate(args[1])
	} else {
		right = c.fold(op, args[1:])
	}
	return c.call(op.glslFunc(), left, right)
}

// power expands small non-negative integer exponents into multiplications.
func (c *compilation) power(baseNode, expNode mathjson.Node) expr {
	base := c.translate(baseNode)
	n, ok := mathjson.Integer(expNode)
	if !ok || n < 0 || n >= 5 {
		return c.call("pow", base, c.translate(expNode))
	}
	switch n {
	case 0:
		one := typed("float_identity(1.0)", Float)
		if base.typ() == Complex {
			return c.call("injection_map", one)
		}
		return one
	case 1:
		return base
	}
	result := base
	for i := 1; i < n; i++ {
		result = c.call("multiply", base, result)
	}
	return result
}

// matrix translates a column or row of entries into a vector constructor.
func (c *compilation) matrix(e mathjson.Expr) expr {
	list, ok := e.Arg(0).(mathjson.Expr)
	if !ok || list.Op != "List" {
		return c.errorMarker("Matrix expects a List operand")
	}
	entries := list.Args
	if len(entries) == 1 {
		row, ok := entries[0].(mathjson.Expr)
		if ok && row.Op == "List" && len(row.Args) > 1 {
			entries = row.Args // Row vector.
		}
	}
	comps := make([]expr, len(entries))
	for i, entry := range entries {
		if row, ok := entry.(mathjson.Expr); ok && row.Op == "List" {
			entry = row.Arg(0)
		}
		comps[i] = c.translate(entry)
	}
	t, ok := glbuild.VecN(len(comps))
	if !ok {
		return c.errorMarker(fmt.Sprintf("no vector type with %d components", len(comps)))
	}
	return c.call(t.String(), comps...)
}

func (c *compilation) apply(e mathjson.Expr) expr {
	if len(e.Args) == 0 {
		return c.arityError(e, 1)
	}
	name, isName := mathjson.SymbolName(e.Args[0])
	if isName {
		if _, declared := c.funcs.Load(name); declared {
			return c.userCall(name, e.Args[1:])
		}
	} else {
		name = c.translate(e.Args[0]).src
	}
	args := make([]expr, len(e.Args)-1)
	for i, arg := range e.Args[1:] {
		args[i] = c.translate(arg)
	}
	return expr{src: appendCall(name, args)}
}

// tuple translates either an iteration request or a tuple pack.
func (c *compilation) tuple(e mathjson.Expr) expr {
	if len(e.Args) == 2 {
		if name, n, ok := iterationPattern(e.Args[0]); ok && !c.bound(name) {
			return c.iterate(name, n, e.Args[1])
		}
	}
	switch len(e.Args) {
	case 0:
		return c.arityError(e, 1)
	case 1:
		return c.translate(e.Args[0])
	}
	args := make([]expr, len(e.Args))
	sig := make(Signature, len(e.Args))
	known := true
	for i, arg := range e.Args {
		args[i] = c.translate(arg)
		sig[i] = args[i].typ()
		known = known && sig[i] != Invalid && sig[i] != Bool
	}
	src := appendCall("to_tuple", args)
	if !known {
		return expr{src: src}
	}
	c.structs.StoreNew(sig.StructName(), sig)
	return expr{src: src, sig: sig}
}

// bound reports whether name is a variable or constant rather than a function.
func (c *compilation) bound(name string) bool {
	if _, ok := c.scope[name]; ok {
		return true
	}
	_, ok := c.constants[name]
	return ok
}

// userCall emits a call to a user function. Arguments whose declared
// parameter type is complex are lifted with injection_map when the number
// of arguments matches the input signature.
func (c *compilation) userCall(name string, argNodes []mathjson.Node) expr {
	fn, ok := c.funcs.Load(name)
	if !ok {
		return c.errorMarker(name + " is not defined")
	}
	c.addCall(name)
	args := make([]expr, len(argNodes))
	inject := len(argNodes) == len(fn.input)
	for i, arg := range argNodes {
		args[i] = c.translate(arg)
		if inject {
			args[i] = c.inject(fn.input, i, args[i])
		}
	}
	c.checkArgs(name, fn.input, args)
	return expr{src: appendCall(name, args), sig: fn.output}
}

func (c *compilation) inject(input Signature, i int, arg expr) expr {
	if i < len(input) && input[i] == Complex {
		return c.call("injection_map", arg)
	}
	return arg
}

// checkArgs warns about calls no overload of a user function accepts.
func (c *compilation) checkArgs(name string, input Signature, args []expr) {
	if len(args) == 1 && input.IsTuple() {
		if args[0].sig != nil && !args[0].sig.Equal(input) {
			c.warnf("%s expects %s, got %s", name, input.StructName(), args[0].sig.TypeName())
		}
		return
	}
	if len(args) != len(input) {
		c.warnf("%s expects %d arguments, got %d", name, len(input), len(args))
		return
	}
	for i, arg := range args {
		if arg.sig != nil && !arg.sig.Equal(Signature{input[i]}) {
			c.warnf("argument %d of %s: expected %s, got %s", i, name, input[i], arg.sig.TypeName())
		}
	}
}

func (c *compilation) arityError(e mathjson.Expr, want int) expr {
	return c.errorMarker(fmt.Sprintf("%s expects %d operands, got %d", e.Op, want, len(e.Args)))
}

// errorMarker returns an inline marker that surfaces a reference error in the
// generated source and records it as a diagnostic.
func (c *compilation) errorMarker(msg string) expr {
	c.diags = append(c.diags, Diagnostic{
		Severity: SeverityError,
		Function: c.function,
		Msg:      msg,
	})
	return expr{src: "ERROR(" + msg + ")"}
}
