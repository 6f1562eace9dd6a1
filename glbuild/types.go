package glbuild

import "strings"

// Type is a primitive GLSL value type that a brightness program manipulates.
type Type uint8

const (
	// Invalid marks a value whose static type is not known, such as an error
	// marker or a symbol bound outside of any declared scope.
	Invalid Type = iota
	Float
	Complex
	Vec2
	Vec3
	Vec4
	// Bool is the result of comparisons. It never appears in declared signatures.
	Bool
)

// String returns the GLSL type name.
func (t Type) String() string {
	switch t {
	case Float:
		return "float"
	case Complex:
		return "complex"
	case Vec2:
		return "vec2"
	case Vec3:
		return "vec3"
	case Vec4:
		return "vec4"
	case Bool:
		return "bool"
	}
	return "invalid"
}

// ParseType returns the Type named by a GLSL type name.
func ParseType(name string) (Type, bool) {
	for t := Float; t <= Bool; t++ {
		if t.String() == name {
			return t, true
		}
	}
	return Invalid, false
}

// IsVector reports whether t is one of the real vector types.
func (t Type) IsVector() bool { return t == Vec2 || t == Vec3 || t == Vec4 }

// VecN returns the vector type of n components for n in 2..4.
func VecN(n int) (Type, bool) {
	switch n {
	case 2:
		return Vec2, true
	case 3:
		return Vec3, true
	case 4:
		return Vec4, true
	}
	return Invalid, false
}

// Signature is an ordered sequence of types describing a function's inputs
// or outputs, or the members of a tuple.
type Signature []Type

// IsTuple reports whether the signature packs more than one value
// and therefore requires a synthesized struct.
func (s Signature) IsTuple() bool { return len(s) > 1 }

// Known reports whether every type in the signature is statically known.
func (s Signature) Known() bool {
	for _, t := range s {
		if t == Invalid {
			return false
		}
	}
	return len(s) > 0
}

// Equal reports whether s and other hold the same types in the same order.
func (s Signature) Equal(other Signature) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// TypeName returns the GLSL name of the value the signature describes:
// the type itself for single types and the struct name for tuples.
func (s Signature) TypeName() string {
	if len(s) == 1 {
		return s[0].String()
	}
	return s.StructName()
}

// StructName returns the underscore-joined type names, i.e: "float_complex".
// Identical signatures always yield identical names.
func (s Signature) StructName() string {
	var sb strings.Builder
	for i, t := range s {
		if i > 0 {
			sb.WriteByte('_')
		}
		sb.WriteString(t.String())
	}
	return sb.String()
}
