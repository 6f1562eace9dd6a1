package eqshade

import (
	"strconv"

	"github.com/soypat/eqshade/glbuild"
)

func argName(i int) string { return "arg" + strconv.Itoa(i) }

// structDecls returns one struct and one to_tuple constructor per distinct
// tuple signature seen during the pass, in first-seen order.
//
//	struct float_complex {
//		float arg0;
//		complex arg1;
//	};
//	float_complex to_tuple(float arg0, complex arg1) {
//		return float_complex(arg0, arg1);
//	}
func (c *compilation) structDecls() (structs []glbuild.Struct, constructors []glbuild.Func) {
	for name, sig := range c.structs.All() {
		fields := make([]glbuild.Param, len(sig))
		args := make([]expr, len(sig))
		for i, t := range sig {
			fields[i] = glbuild.Param{Type: t.String(), Name: argName(i)}
			args[i] = expr{src: argName(i)}
		}
		structs = append(structs, glbuild.Struct{Name: name, Fields: fields})
		constructors = append(constructors, glbuild.Func{
			Result: name,
			Name:   "to_tuple",
			Params: fields,
			Body:   []string{"return " + appendCall(name, args) + ";"},
		})
	}
	return structs, constructors
}
