// Package mathjson implements the prefix-notation expression trees emitted by
// math editors in the MathJSON format: nested sequences whose first element
// is an operator name followed by operands, numbers and symbols.
package mathjson

import (
	"math"
	"strconv"
	"strings"
)

// Node is a MathJSON expression. It is one of [Number], [Symbol] or [Expr].
// Nodes are never mutated once built.
type Node interface {
	// AppendJSON appends the compact JSON representation of the node to b.
	AppendJSON(b []byte) []byte
	isNode()
}

// Number is a numeric literal.
type Number float64

// Symbol is a bare identifier such as "x", "Pi" or a user function name.
type Symbol string

// Expr is an operation node: Op applied to Args.
type Expr struct {
	Op   string
	Args []Node
}

var (
	_ Node = Number(0)
	_ Node = Symbol("")
	_ Node = Expr{}
)

func (Number) isNode() {}
func (Symbol) isNode() {}
func (Expr) isNode()   {}

// NewExpr is shorthand for building an [Expr] node.
func NewExpr(op string, args ...Node) Expr {
	return Expr{Op: op, Args: args}
}

// Arg returns the i'th operand of e or nil if e has no such operand.
func (e Expr) Arg(i int) Node {
	if i < 0 || i >= len(e.Args) {
		return nil
	}
	return e.Args[i]
}

// AppendJSON implements [Node].
func (n Number) AppendJSON(b []byte) []byte {
	v := float64(n)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		b = append(b, `{"num":"`...)
		switch {
		case math.IsNaN(v):
			b = append(b, "NaN"...)
		case v > 0:
			b = append(b, "+Infinity"...)
		default:
			b = append(b, "-Infinity"...)
		}
		return append(b, `"}`...)
	}
	return strconv.AppendFloat(b, v, 'g', -1, 64)
}

// AppendJSON implements [Node].
func (s Symbol) AppendJSON(b []byte) []byte {
	return strconv.AppendQuote(b, string(s))
}

// AppendJSON implements [Node].
func (e Expr) AppendJSON(b []byte) []byte {
	b = append(b, '[')
	b = strconv.AppendQuote(b, e.Op)
	for _, arg := range e.Args {
		b = append(b, ',')
		if arg == nil {
			b = append(b, "null"...)
			continue
		}
		b = arg.AppendJSON(b)
	}
	return append(b, ']')
}

// Format returns the compact JSON text of n. A nil node formats as "null".
func Format(n Node) string {
	if n == nil {
		return "null"
	}
	return string(n.AppendJSON(nil))
}

// Integer returns the value of n if n is a [Number] holding an integer that
// fits in an int.
func Integer(n Node) (int, bool) {
	num, ok := n.(Number)
	if !ok {
		return 0, false
	}
	v := float64(num)
	if v != math.Trunc(v) || math.Abs(v) > 1<<31 {
		return 0, false
	}
	return int(v), true
}

// SymbolName flattens n into a single identifier. Symbols are returned as is.
// Subscripted names are joined with an underscore so that
// ["Subscript", "f", 1] becomes "f_1". Index sequences such as
// ["Subscript", "f", ["Sequence", 1, 2]] join every part: "f_1_2".
func SymbolName(n Node) (string, bool) {
	switch n := n.(type) {
	case Symbol:
		return string(n), n != ""
	case Expr:
		if n.Op != "Subscript" || len(n.Args) != 2 {
			return "", false
		}
		base, ok := SymbolName(n.Args[0])
		if !ok {
			return "", false
		}
		idx, ok := indexName(n.Args[1])
		if !ok {
			return "", false
		}
		return base + "_" + idx, true
	}
	return "", false
}

func indexName(n Node) (string, bool) {
	switch n := n.(type) {
	case Number:
		i, ok := Integer(n)
		if !ok || i < 0 {
			return "", false
		}
		return strconv.Itoa(i), true
	case Symbol:
		return SymbolName(n)
	case Expr:
		if n.Op == "Subscript" {
			return SymbolName(n)
		}
		if len(n.Args) == 0 {
			return "", false
		}
		parts := make([]string, len(n.Args))
		for i, arg := range n.Args {
			part, ok := indexName(arg)
			if !ok {
				return "", false
			}
			parts[i] = part
		}
		return strings.Join(parts, "_"), true
	}
	return "", false
}
