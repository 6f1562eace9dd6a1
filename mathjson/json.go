package mathjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Parse decodes a MathJSON document. Accepted forms are JSON numbers,
// strings (symbols), arrays with a string operator head and the object forms
// {"num": "1.5"}, {"sym": "x"} and {"fn": [...]}.
func Parse(data []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	err := dec.Decode(&v)
	if err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("mathjson: trailing data after expression")
	}
	return FromValue(v)
}

// FromValue converts a generic decoded JSON value (as produced by
// encoding/json into an `any`) into a [Node].
func FromValue(v any) (Node, error) {
	switch v := v.(type) {
	case json.Number:
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return nil, fmt.Errorf("mathjson: bad number %q: %w", v, err)
		}
		return Number(f), nil
	case float64:
		return Number(v), nil
	case int:
		return Number(v), nil
	case int64:
		return Number(v), nil
	case string:
		if v == "" {
			return nil, errors.New("mathjson: empty symbol")
		}
		return Symbol(v), nil
	case []any:
		return exprFromValues(v)
	case map[string]any:
		return nodeFromObject(v)
	case nil:
		return nil, errors.New("mathjson: null expression")
	}
	return nil, fmt.Errorf("mathjson: unsupported JSON value %T", v)
}

func exprFromValues(v []any) (Node, error) {
	if len(v) == 0 {
		return nil, errors.New("mathjson: empty expression array")
	}
	op, ok := v[0].(string)
	if !ok {
		return nil, fmt.Errorf("mathjson: expression head must be a string, got %T", v[0])
	}
	e := Expr{Op: op}
	if len(v) > 1 {
		e.Args = make([]Node, len(v)-1)
	}
	for i, arg := range v[1:] {
		n, err := FromValue(arg)
		if err != nil {
			return nil, fmt.Errorf("operand %d of %s: %w", i, op, err)
		}
		e.Args[i] = n
	}
	return e, nil
}

func nodeFromObject(obj map[string]any) (Node, error) {
	if num, ok := obj["num"]; ok {
		switch num := num.(type) {
		case string:
			f, err := strconv.ParseFloat(num, 64)
			if err != nil {
				return nil, fmt.Errorf("mathjson: bad number %q: %w", num, err)
			}
			return Number(f), nil
		default:
			return FromValue(num)
		}
	}
	if sym, ok := obj["sym"].(string); ok {
		return FromValue(sym)
	}
	if fn, ok := obj["fn"].([]any); ok {
		return exprFromValues(fn)
	}
	return nil, errors.New("mathjson: object without num, sym or fn key")
}

// Expression wraps a [Node] so it may be embedded in structs decoded with
// encoding/json.
type Expression struct {
	Node Node
}

// UnmarshalJSON implements [json.Unmarshaler].
func (e *Expression) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		e.Node = nil
		return nil
	}
	n, err := Parse(b)
	if err != nil {
		return err
	}
	e.Node = n
	return nil
}

// MarshalJSON implements [json.Marshaler].
func (e Expression) MarshalJSON() ([]byte, error) {
	if e.Node == nil {
		return []byte("null"), nil
	}
	return e.Node.AppendJSON(nil), nil
}
