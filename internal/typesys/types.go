// Package typesys represents the JVM type system consumed by the rest of
// the core: primitive and reference types, the interned object-type pool,
// array types, and the class hierarchy's subtype and upper-type-bound-join
// queries. Lookups on unknown types never panic; they answer Unknown/empty.
package typesys

import "sort"

// Primitive enumerates the non-reference JVM types plus void.
type Primitive byte

const (
	Byte Primitive = iota
	Short
	Int
	Long
	Float
	Double
	Char
	Boolean
	Void
)

var primitiveNames = [...]string{
	Byte: "byte", Short: "short", Int: "int", Long: "long",
	Float: "float", Double: "double", Char: "char", Boolean: "boolean", Void: "void",
}

func (p Primitive) String() string {
	if int(p) < len(primitiveNames) {
		return primitiveNames[p]
	}
	return "unknown-primitive"
}

// ObjectType is an interned fully-qualified internal class/interface name
// (e.g. "java/lang/Object"). Two ObjectType values are semantically equal
// iff they compare equal with ==; Intern guarantees that every call with the
// same name string yields the same value, so == is always sufficient — no
// separate reference-identity mechanism is needed in a value-typed host
// language.
type ObjectType string

var internPool = struct {
	names map[string]ObjectType
}{names: make(map[string]ObjectType)}

// Intern returns the canonical ObjectType for name. Repeated calls with an
// equal name return an equal value, which is the whole of the "interning"
// contract in a language where string equality is structural.
func Intern(name string) ObjectType {
	if ot, ok := internPool.names[name]; ok {
		return ot
	}
	ot := ObjectType(name)
	internPool.names[name] = ot
	return ot
}

// ObjectObject is the root of the reference-type hierarchy.
var ObjectObject = Intern("java/lang/Object")

// ArrayType describes a JVM array type: componentType paired with a
// dimensionality ≥ 1. The component type is never itself an ArrayType;
// multi-dimensional arrays fold the extra dimensions into Dims.
type ArrayType struct {
	Component Type
	Dims      int
}

func NewArrayType(component Type, dims int) ArrayType {
	if dims < 1 {
		dims = 1
	}
	return ArrayType{Component: component, Dims: dims}
}

func (a ArrayType) isType() {}

func (a ArrayType) String() string {
	s := a.Component.String()
	for i := 0; i < a.Dims; i++ {
		s += "[]"
	}
	return s
}

// Equal reports structural equality of two array types.
func (a ArrayType) Equal(b ArrayType) bool {
	return a.Dims == b.Dims && typeEqual(a.Component, b.Component)
}

func (p Primitive) isType() {}

func (o ObjectType) isType() {}

func (o ObjectType) String() string {
	return string(o)
}

// Type is either a Primitive, an ObjectType, or an ArrayType. It is a closed
// set by convention (isType is unexported) — no external package may add a
// fourth case.
type Type interface {
	isType()
	String() string
}

func typeEqual(a, b Type) bool {
	switch av := a.(type) {
	case Primitive:
		bv, ok := b.(Primitive)
		return ok && av == bv
	case ObjectType:
		bv, ok := b.(ObjectType)
		return ok && av == bv
	case ArrayType:
		bv, ok := b.(ArrayType)
		return ok && av.Equal(bv)
	default:
		return false
	}
}

// UTB is an upper type bound: a non-empty set of object types interpreted
// as an intersection, or a singleton array type. The empty UTB denotes
// "null" — no type information. UTB values are always stored with a
// deterministic (sorted) object-type order so two semantically equal UTBs
// compare equal when serialized or hashed for memoization.
type UTB struct {
	Array   *ArrayType    // non-nil iff this UTB is a single array type
	Objects []ObjectType  // sorted; len>=1 when Array is nil and this isn't null; nil/empty means null
}

// NullUTB is the empty upper type bound denoting "no type information".
var NullUTB = UTB{}

// ObjectUTB builds a UTB from one or more object types, deduplicating and
// sorting them so equal sets always compare byte-for-byte equal.
func ObjectUTB(types ...ObjectType) UTB {
	set := make(map[ObjectType]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	out := make([]ObjectType, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return UTB{Objects: out}
}

// ArrayUTB builds a UTB that is a singleton array type.
func ArrayUTB(at ArrayType) UTB {
	a := at
	return UTB{Array: &a}
}

// IsNull reports whether the UTB carries no type information.
func (u UTB) IsNull() bool { return u.Array == nil && len(u.Objects) == 0 }

// IsArray reports whether the UTB is a singleton array type.
func (u UTB) IsArray() bool { return u.Array != nil }

// Equal reports structural equality between two UTBs.
func (u UTB) Equal(o UTB) bool {
	if u.IsNull() || o.IsNull() {
		return u.IsNull() && o.IsNull()
	}
	if u.IsArray() != o.IsArray() {
		return false
	}
	if u.IsArray() {
		return u.Array.Equal(*o.Array)
	}
	if len(u.Objects) != len(o.Objects) {
		return false
	}
	for i := range u.Objects {
		if u.Objects[i] != o.Objects[i] {
			return false
		}
	}
	return true
}

func (u UTB) String() string {
	if u.IsNull() {
		return "null"
	}
	if u.IsArray() {
		return u.Array.String()
	}
	if len(u.Objects) == 1 {
		return string(u.Objects[0])
	}
	s := "{"
	for i, o := range u.Objects {
		if i > 0 {
			s += " & "
		}
		s += string(o)
	}
	return s + "}"
}
