// Package eqshade compiles scalar brightness fields written as MathJSON
// expression trees into GLSL programs. A field is built from user-declared
// functions with typed signatures, constants and one top-level equation
// in the free variables x, y and t.
package eqshade

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/soypat/eqshade/glbuild"
	"github.com/soypat/eqshade/mathjson"
)

// Type is a primitive value type of a compiled expression.
type Type = glbuild.Type

// Signature is an ordered sequence of types.
type Signature = glbuild.Signature

const (
	Invalid = glbuild.Invalid
	Float   = glbuild.Float
	Complex = glbuild.Complex
	Vec2    = glbuild.Vec2
	Vec3    = glbuild.Vec3
	Vec4    = glbuild.Vec4
	Bool    = glbuild.Bool
)

// DefaultUnrollLimit is the largest iteration count unrolled into straight-line
// code when [Config.UnrollLimit] is zero.
const DefaultUnrollLimit = 32

var (
	ErrUnknownDomain     = errors.New("unknown domain")
	ErrDuplicateFunction = errors.New("duplicate function symbol")
	ErrDuplicateConstant = errors.New("duplicate constant symbol")
	ErrArityMismatch     = errors.New("variable count does not match input signature")
	ErrEmptySymbol       = errors.New("empty symbol")
	ErrNoEquation        = errors.New("missing brightness equation")
)

// FunctionDecl is a user function declaration.
type FunctionDecl struct {
	// Symbol is the function name. Subscripted names are flattened, see [mathjson.SymbolName].
	Symbol string
	// Input and Output describe the domain and codomain, i.e: ["CartesianProduct", "RealNumbers", "ComplexNumbers"].
	Input  mathjson.Node
	Output mathjson.Node
	// Variables name the parameters in input signature order.
	Variables []string
	Equation  mathjson.Node
}

// ConstantDecl binds a symbol to an expression emitted as a preprocessor define.
type ConstantDecl struct {
	Symbol string
	Value  mathjson.Node
}

// Input is everything a single compilation pass consumes.
type Input struct {
	Functions []FunctionDecl
	Constants []ConstantDecl
	// Equation is the brightness field in terms of x, y and t.
	Equation mathjson.Node
}

// Config configures a [Compiler]. The zero value is ready to use and targets WebGL.
type Config struct {
	Dialect glbuild.Dialect
	// UnrollLimit is the largest iteration count emitted as straight-line
	// code. Larger counts are emitted as a constant-bound loop.
	// Zero selects DefaultUnrollLimit, a negative value always emits loops.
	UnrollLimit int
}

func (cfg Config) unrollLimit() int {
	if cfg.UnrollLimit == 0 {
		return DefaultUnrollLimit
	}
	return cfg.UnrollLimit
}

// Program is the output of a compilation pass.
type Program struct {
	Vertex   string
	Fragment string
	// Diagnostics collects reference errors and warnings. Their presence does
	// not mean the program is unusable: reference errors are also embedded in
	// Fragment as ERROR(...) markers.
	Diagnostics []Diagnostic
}

// Severity classifies a [Diagnostic].
type Severity uint8

const (
	// SeverityWarning flags code the GLSL compiler will likely reject, such as
	// a call with argument types no overload accepts or a recursive definition.
	SeverityWarning Severity = iota
	// SeverityError flags a reference error. The generated source contains an
	// ERROR marker at the point of use.
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return "Severity(" + strconv.Itoa(int(s)) + ")"
}

// Diagnostic is a non-fatal finding of a compilation pass.
type Diagnostic struct {
	Severity Severity
	// Function is the user function whose body contains the finding.
	// Empty for the brightness equation and constants.
	Function string
	Msg      string
}

func (d Diagnostic) String() string {
	where := d.Function
	if where == "" {
		where = "brightness"
	}
	return d.Severity.String() + " in " + where + ": " + d.Msg
}

// SignatureError is returned when a declared domain can't be mapped to types.
// No program is produced for a pass with signature errors.
type SignatureError struct {
	Function string
	// Side is "input" or "output".
	Side string
	// Domain is the offending domain node formatted as MathJSON.
	Domain string
	Err    error
}

func (e *SignatureError) Error() string {
	if e.Function == "" {
		return fmt.Sprintf("signature domain %s: %v", e.Domain, e.Err)
	}
	return fmt.Sprintf("function %s %s signature: domain %s: %v", e.Function, e.Side, e.Domain, e.Err)
}

func (e *SignatureError) Unwrap() error { return e.Err }

// DeclarationError is returned for malformed function or constant declarations.
type DeclarationError struct {
	Symbol string
	Err    error
}

func (e *DeclarationError) Error() string {
	if e.Symbol == "" {
		return "declaration: " + e.Err.Error()
	}
	return "declaration of " + e.Symbol + ": " + e.Err.Error()
}

func (e *DeclarationError) Unwrap() error { return e.Err }
