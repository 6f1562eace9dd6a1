package eqshade

import (
	"errors"
	"fmt"
	"strings"

	"github.com/soypat/eqshade/internal/ordered"
)

// userFunc is a symbol table entry.
type userFunc struct {
	decl   *FunctionDecl
	input  Signature
	output Signature
	// body is the translated equation, set once the function body is translated.
	body expr
}

func (fn *userFunc) symbol() string { return fn.decl.Symbol }

// iteration identifies an iterator function by function symbol and repeat count.
type iteration struct {
	symbol string
	count  int
}

// compilation is the state of a single compilation pass. A new value is
// created for each pass so nothing carries over between passes.
type compilation struct {
	cfg Config
	// funcs is the symbol table in declaration order.
	funcs *ordered.Map[string, *userFunc]
	// constants maps constant symbols to the static type of their value.
	constants map[string]Signature
	// structs holds the distinct tuple signatures in first-seen order.
	structs *ordered.Map[string, Signature]
	// iterations holds the distinct iteration requests in first-seen order.
	iterations *ordered.Map[iteration, *userFunc]
	// calls is the user call graph. The empty key holds calls of the
	// brightness equation and constants.
	calls map[string][]string
	// scope binds free variables to types during translation.
	scope map[string]Signature
	// function is the symbol of the function whose body is being translated.
	function string
	diags    []Diagnostic
}

func newCompilation(cfg Config) *compilation {
	return &compilation{
		cfg:        cfg,
		funcs:      ordered.NewMap[string, *userFunc](),
		constants:  make(map[string]Signature),
		structs:    ordered.NewMap[string, Signature](),
		iterations: ordered.NewMap[iteration, *userFunc](),
		calls:      make(map[string][]string),
		scope:      topLevelScope(),
	}
}

func topLevelScope() map[string]Signature {
	return map[string]Signature{
		"x": {Float},
		"y": {Float},
		"t": {Float},
	}
}

// declare resolves every function signature and populates the symbol table.
// All declaration failures are joined into the returned error.
func (c *compilation) declare(in Input) error {
	var errs []error
	for i := range in.Functions {
		decl := &in.Functions[i]
		if decl.Symbol == "" {
			errs = append(errs, &DeclarationError{Err: fmt.Errorf("function %d: %w", i, ErrEmptySymbol)})
			continue
		}
		input, err := ResolveSignature(decl.Input)
		if err != nil {
			errs = append(errs, signatureError(err, decl.Symbol, "input"))
		}
		output, err2 := ResolveSignature(decl.Output)
		if err2 != nil {
			errs = append(errs, signatureError(err2, decl.Symbol, "output"))
		}
		if err != nil || err2 != nil {
			continue
		}
		if len(decl.Variables) != len(input) {
			errs = append(errs, &DeclarationError{
				Symbol: decl.Symbol,
				Err:    fmt.Errorf("%w: %d variables for %d inputs", ErrArityMismatch, len(decl.Variables), len(input)),
			})
			continue
		}
		fn := &userFunc{decl: decl, input: input, output: output}
		if !c.funcs.StoreNew(decl.Symbol, fn) {
			errs = append(errs, &DeclarationError{Symbol: decl.Symbol, Err: ErrDuplicateFunction})
			continue
		}
		if input.IsTuple() {
			c.structs.StoreNew(input.StructName(), input)
		}
		if output.IsTuple() {
			c.structs.StoreNew(output.StructName(), output)
		}
	}
	seen := make(map[string]bool)
	for i, cons := range in.Constants {
		switch {
		case cons.Symbol == "":
			errs = append(errs, &DeclarationError{Err: fmt.Errorf("constant %d: %w", i, ErrEmptySymbol)})
		case seen[cons.Symbol]:
			errs = append(errs, &DeclarationError{Symbol: cons.Symbol, Err: ErrDuplicateConstant})
		}
		seen[cons.Symbol] = true
	}
	if in.Equation == nil {
		errs = append(errs, ErrNoEquation)
	}
	return errors.Join(errs...)
}

func signatureError(err error, function, side string) error {
	var sigErr *SignatureError
	if errors.As(err, &sigErr) {
		sigErr.Function = function
		sigErr.Side = side
	}
	return err
}

// enterFunction sets the translation scope to the parameters of fn.
// Passing nil restores the top-level scope.
func (c *compilation) enterFunction(fn *userFunc) {
	if fn == nil {
		c.function = ""
		c.scope = topLevelScope()
		return
	}
	c.function = fn.symbol()
	c.scope = make(map[string]Signature, len(fn.input))
	for i, v := range fn.decl.Variables {
		c.scope[v] = Signature{fn.input[i]}
	}
}

func (c *compilation) addCall(callee string) {
	for _, existing := range c.calls[c.function] {
		if existing == callee {
			return
		}
	}
	c.calls[c.function] = append(c.calls[c.function], callee)
}

func (c *compilation) warnf(format string, args ...any) {
	c.diags = append(c.diags, Diagnostic{
		Severity: SeverityWarning,
		Function: c.function,
		Msg:      fmt.Sprintf(format, args...),
	})
}

// checkRecursion walks the call graph of the user functions and adds a
// warning for every cycle found. GLSL forbids recursion so such programs
// fail to compile downstream.
func (c *compilation) checkRecursion() {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int)
	var path []string
	var visit func(fn string)
	visit = func(fn string) {
		state[fn] = visiting
		path = append(path, fn)
		for _, callee := range c.calls[fn] {
			switch state[callee] {
			case unvisited:
				visit(callee)
			case visiting:
				start := len(path) - 1
				for path[start] != callee {
					start--
				}
				cycle := append(append([]string{}, path[start:]...), callee)
				c.diags = append(c.diags, Diagnostic{
					Severity: SeverityWarning,
					Function: callee,
					Msg:      "recursive definition " + strings.Join(cycle, " -> "),
				})
			}
		}
		path = path[:len(path)-1]
		state[fn] = done
	}
	for fn := range c.funcs.All() {
		if state[fn] == unvisited {
			visit(fn)
		}
	}
}
