package eqshade

import (
	"strconv"

	"github.com/soypat/eqshade/glbuild"
	"github.com/soypat/eqshade/mathjson"
)

// iterationPattern matches the callee of an iteration request, ["Power", f, n],
// and returns the function symbol and the repeat count.
func iterationPattern(node mathjson.Node) (symbol string, count int, ok bool) {
	pow, ok := node.(mathjson.Expr)
	if !ok || pow.Op != "Power" || len(pow.Args) != 2 {
		return "", 0, false
	}
	symbol, ok = mathjson.SymbolName(pow.Args[0])
	if !ok {
		return "", 0, false
	}
	count, ok = iterationCount(pow.Args[1])
	return symbol, count, ok && count >= 0
}

// iterationCount extracts the repeat count. Equation editors wrap it to tell
// it apart from an exponent, i.e: ["Delimiter", ..., 3], so the second operand
// or the sole operand of a wrapper expression is accepted too.
func iterationCount(node mathjson.Node) (int, bool) {
	if n, ok := mathjson.Integer(node); ok {
		return n, true
	}
	wrap, ok := node.(mathjson.Expr)
	if !ok {
		return 0, false
	}
	switch len(wrap.Args) {
	case 1:
		return mathjson.Integer(wrap.Args[0])
	case 2:
		return mathjson.Integer(wrap.Args[1])
	}
	return 0, false
}

func iteratorName(symbol string, count int) string {
	return "iterate_" + symbol + "_" + strconv.Itoa(count)
}

// iterate records an iteration request and emits the call to its iterator.
// A Tuple argument supplies the arguments positionally.
func (c *compilation) iterate(symbol string, count int, argNode mathjson.Node) expr {
	fn, ok := c.funcs.Load(symbol)
	if !ok {
		return c.errorMarker(symbol + " is not defined")
	}
	c.iterations.StoreNew(iteration{symbol: symbol, count: count}, fn)
	c.addCall(symbol)
	var args []expr
	tup, isTuple := argNode.(mathjson.Expr)
	if isTuple && tup.Op == "Tuple" && !isIterationRequest(tup) {
		args = make([]expr, len(tup.Args))
		for i, arg := range tup.Args {
			args[i] = c.inject(fn.input, i, c.translate(arg))
		}
	} else {
		arg := c.translate(argNode)
		if len(fn.input) == 1 {
			arg = c.inject(fn.input, 0, arg)
		}
		args = []expr{arg}
	}
	name := iteratorName(symbol, count)
	c.checkArgs(name, fn.input, args)
	return expr{src: appendCall(name, args), sig: fn.output}
}

func isIterationRequest(tup mathjson.Expr) bool {
	if len(tup.Args) != 2 {
		return false
	}
	_, _, ok := iterationPattern(tup.Args[0])
	return ok
}

// iteratorDecls returns the iterator functions requested for fn in first-seen order.
func (c *compilation) iteratorDecls(fn *userFunc) []glbuild.Func {
	var decls []glbuild.Func
	in, out := fn.input.TypeName(), fn.output.TypeName()
	if !fn.input.Equal(fn.output) && c.hasIterations(fn) {
		c.function = fn.symbol()
		c.warnf("iterating %s requires equal input and output, got %s and %s", fn.symbol(), in, out)
		c.function = ""
	}
	for it, itFn := range c.iterations.All() {
		if itFn != fn {
			continue
		}
		name := iteratorName(it.symbol, it.count)
		body := []string{out + " value = arg;"}
		apply := "value = " + it.symbol + "(value);"
		if limit := c.cfg.unrollLimit(); it.count > limit || limit < 0 {
			body = append(body,
				"for (int i = 0; i < "+strconv.Itoa(it.count)+"; i++) {",
				"\t"+apply,
				"}",
			)
		} else {
			for i := 0; i < it.count; i++ {
				body = append(body, apply)
			}
		}
		body = append(body, "return value;")
		decls = append(decls, glbuild.Func{
			Result: out,
			Name:   name,
			Params: []glbuild.Param{{Type: in, Name: "arg"}},
			Body:   body,
		})
		if fn.input.IsTuple() {
			params := make([]glbuild.Param, len(fn.input))
			args := make([]expr, len(fn.input))
			for i, t := range fn.input {
				params[i] = glbuild.Param{Type: t.String(), Name: argName(i)}
				args[i] = expr{src: argName(i)}
			}
			decls = append(decls, glbuild.Func{
				Result: out,
				Name:   name,
				Params: params,
				Body:   []string{"return " + name + "(" + appendCall("to_tuple", args) + ");"},
			})
		}
	}
	return decls
}

func (c *compilation) hasIterations(fn *userFunc) bool {
	for itFn := range c.iterations.Values() {
		if itFn == fn {
			return true
		}
	}
	return false
}
