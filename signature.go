package eqshade

import (
	"github.com/soypat/eqshade/mathjson"
)

// DomainType maps a MathJSON domain symbol to a Type.
func DomainType(domain string) (Type, bool) {
	switch domain {
	case "RealNumbers":
		return Float, true
	case "ComplexNumbers":
		return Complex, true
	case "RealNumbers2":
		return Vec2, true
	case "RealNumbers3", "R__3_doublestruck":
		return Vec3, true
	case "RealNumbers4":
		return Vec4, true
	}
	return Invalid, false
}

// ResolveSignature parses a domain expression into a Signature. Multi-argument
// domains are right-associated binary chains such as
//
//	["CartesianProduct", "RealNumbers", ["CartesianProduct", "ComplexNumbers", "RealNumbers2"]]
//
// The chain operator is not inspected. An unmapped domain returns a
// *SignatureError wrapping ErrUnknownDomain.
func ResolveSignature(node mathjson.Node) (Signature, error) {
	var sig Signature
	for {
		chain, ok := node.(mathjson.Expr)
		if !ok || len(chain.Args) != 2 {
			break
		}
		t, err := resolveDomain(chain.Args[0])
		if err != nil {
			return nil, err
		}
		sig = append(sig, t)
		node = chain.Args[1]
	}
	t, err := resolveDomain(node)
	if err != nil {
		return nil, err
	}
	return append(sig, t), nil
}

func resolveDomain(node mathjson.Node) (Type, error) {
	if sym, ok := node.(mathjson.Symbol); ok {
		if t, ok := DomainType(string(sym)); ok {
			return t, nil
		}
	}
	return Invalid, &SignatureError{Domain: mathjson.Format(node), Err: ErrUnknownDomain}
}
