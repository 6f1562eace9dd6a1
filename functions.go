package eqshade

import (
	"github.com/soypat/eqshade/glbuild"
)

// translateFunctions translates every user function body in declaration order.
func (c *compilation) translateFunctions() {
	for fn := range c.funcs.Values() {
		c.enterFunction(fn)
		body := c.translate(fn.decl.Equation)
		if len(fn.output) == 1 && fn.output[0] == Complex && body.typ() == Float {
			body = c.call("injection_map", body)
		}
		if body.sig != nil && !body.sig.Equal(fn.output) {
			c.warnf("body has type %s, declared %s", body.sig.TypeName(), fn.output.TypeName())
		}
		fn.body = body
	}
	c.enterFunction(nil)
}

// functionDecls returns the user functions in reverse declaration order.
// Each function is followed by its tuple overload and its iterators.
func (c *compilation) functionDecls() []glbuild.Func {
	var funcs []*userFunc
	for fn := range c.funcs.Values() {
		funcs = append(funcs, fn)
	}
	var decls []glbuild.Func
	for i := len(funcs) - 1; i >= 0; i-- {
		fn := funcs[i]
		result := fn.output.TypeName()
		params := make([]glbuild.Param, len(fn.input))
		for j, t := range fn.input {
			params[j] = glbuild.Param{Type: t.String(), Name: fn.decl.Variables[j]}
		}
		decls = append(decls, glbuild.Func{
			Result: result,
			Name:   fn.symbol(),
			Params: params,
			Body:   []string{"return " + fn.body.src + ";"},
		})
		if fn.input.IsTuple() {
			fields := make([]expr, len(fn.input))
			for j := range fn.input {
				fields[j] = expr{src: "tuple." + argName(j)}
			}
			decls = append(decls, glbuild.Func{
				Result: result,
				Name:   fn.symbol(),
				Params: []glbuild.Param{{Type: fn.input.StructName(), Name: "tuple"}},
				Body:   []string{"return " + appendCall(fn.symbol(), fields) + ";"},
			})
		}
		decls = append(decls, c.iteratorDecls(fn)...)
	}
	return decls
}
