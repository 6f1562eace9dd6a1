package eqshade

// operator enumerates the MathJSON heads with built-in translations.
// Heads outside this set are user function calls or reference errors.
type operator uint8

const (
	opUndefined operator = iota
	// Unary functions mapped onto a GLSL function of the same arity.
	opCos
	opSin
	opTan
	opSqrt
	opFloor
	opCeil
	opExp
	opLn
	opTanh
	opArctan
	opArctanh
	opAbs
	opNegate
	opNorm
	opRe
	opIm
	opBoole
	// Binary.
	opPower
	opComplex
	opSubtract
	opDivide
	opRational
	opMod
	opLess
	opLessEqual
	opGreater
	opGreaterEqual
	opEqual
	opNotEqual
	// Variadic, right folded.
	opAdd
	opMultiply
	opMin
	opMax
	// Structural.
	opMatrix
	opSubscript
	opApply
	opTuple
	opError
	opLast // sentinel
)

func parseOperator(head string) operator {
	switch head {
	case "Cos":
		return opCos
	case "Sin":
		return opSin
	case "Tan":
		return opTan
	case "Sqrt":
		return opSqrt
	case "Floor":
		return opFloor
	case "Ceil":
		return opCeil
	case "Exp":
		return opExp
	case "Ln":
		return opLn
	case "Tanh":
		return opTanh
	case "Arctan":
		return opArctan
	case "Arctanh":
		return opArctanh
	case "Abs":
		return opAbs
	case "Negate":
		return opNegate
	case "Norm":
		return opNorm
	case "Re":
		return opRe
	case "Im":
		return opIm
	case "Boole":
		return opBoole
	case "Power":
		return opPower
	case "Complex":
		return opComplex
	case "Subtract":
		return opSubtract
	case "Divide":
		return opDivide
	case "Rational":
		return opRational
	case "Mod":
		return opMod
	case "Less":
		return opLess
	case "LessEqual":
		return opLessEqual
	case "Greater":
		return opGreater
	case "GreaterEqual":
		return opGreaterEqual
	case "Equal":
		return opEqual
	case "NotEqual":
		return opNotEqual
	case "Add":
		return opAdd
	case "Multiply":
		return opMultiply
	case "Min":
		return opMin
	case "Max":
		return opMax
	case "Matrix":
		return opMatrix
	case "Subscript":
		return opSubscript
	case "Apply":
		return opApply
	case "Tuple":
		return opTuple
	case "Error":
		return opError
	}
	return opUndefined
}

// glslFunc returns the GLSL or runtime library function implementing op.
// Operators without a direct function mapping return the empty string.
func (op operator) glslFunc() string {
	switch op {
	case opCos:
		return "cos"
	case opSin:
		return "sin"
	case opTan:
		return "tan"
	case opSqrt:
		return "sqrt"
	case opFloor:
		return "floor"
	case opCeil:
		return "ceil"
	case opExp:
		return "exp"
	case opLn:
		return "log"
	case opTanh:
		return "tanh"
	case opArctan:
		return "atan"
	case opArctanh:
		return "atanh"
	case opAbs:
		return "abs"
	case opNegate:
		return "negate"
	case opNorm:
		return "length"
	case opRe:
		return "real_part"
	case opIm:
		return "imaginary_part"
	case opBoole:
		return "float"
	case opPower:
		return "pow"
	case opComplex:
		return "complex"
	case opDivide:
		return "divide"
	case opMod:
		return "mod"
	case opAdd:
		return "add"
	case opMultiply:
		return "multiply"
	case opMin:
		return "min"
	case opMax:
		return "max"
	}
	return ""
}

// infix returns the GLSL infix operator for comparisons and Rational.
func (op operator) infix() string {
	switch op {
	case opRational:
		return "/"
	case opLess:
		return "<"
	case opLessEqual:
		return "<="
	case opGreater:
		return ">"
	case opGreaterEqual:
		return ">="
	case opEqual:
		return "=="
	case opNotEqual:
		return "!="
	}
	return ""
}

func (op operator) isComparison() bool { return op >= opLess && op <= opNotEqual }

func (op operator) isVariadic() bool { return op >= opAdd && op <= opMax }
