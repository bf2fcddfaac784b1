// Package refval implements the reference-value lattice: Null, Array,
// SObject, MObject, and Multi, together with join, abstraction order,
// refinement, and the factories that allocate them. Values are represented
// as pointers so that two values are identical (in the sense the refinement
// cascade needs) iff they are the same pointer; this is the Go realization
// of the "identity-keyed map over an arena handle" the originating design
// calls for.
package refval

import (
	"sort"

	"github.com/cwbudde/aicore/internal/aierrors"
	"github.com/cwbudde/aicore/internal/typesys"
)

// Value is any reference-lattice value. The set of concrete implementations
// is closed (isValue is unexported): Null, Array, SObject, MObject, Multi.
type Value interface {
	isValue()
	// Origin is the pc (or a negative synthetic index, e.g. for parameters)
	// at which this value was first materialized. Multi does not have a
	// single origin; callers must type-switch to Multi to get its member
	// origins.
	Origin() int
	Timestamp() int64
	IsNull() typesys.Tri
	// UTB returns the value's upper type bound; for Null this is always
	// typesys.NullUTB.
	UTB() typesys.UTB
}

// Null is a definitely-null reference value.
type Null struct {
	origin int
	ts     int64
}

func (*Null) isValue()              {}
func (n *Null) Origin() int         { return n.origin }
func (n *Null) Timestamp() int64    { return n.ts }
func (n *Null) IsNull() typesys.Tri { return typesys.Yes }
func (n *Null) UTB() typesys.UTB    { return typesys.NullUTB }

// Array is a single-origin array reference.
type Array struct {
	origin    int
	ts        int64
	isNull    typesys.Tri
	isPrecise bool
	utb       typesys.ArrayType
}

func (*Array) isValue()              {}
func (a *Array) Origin() int         { return a.origin }
func (a *Array) Timestamp() int64    { return a.ts }
func (a *Array) IsNull() typesys.Tri { return a.isNull }
func (a *Array) IsPrecise() bool     { return a.isPrecise }
func (a *Array) ArrayType() typesys.ArrayType { return a.utb }
func (a *Array) UTB() typesys.UTB    { return typesys.ArrayUTB(a.utb) }

// SObject is a single-origin, single-type-bound object reference.
type SObject struct {
	origin    int
	ts        int64
	isNull    typesys.Tri
	isPrecise bool
	utb       typesys.ObjectType
}

func (*SObject) isValue()              {}
func (o *SObject) Origin() int         { return o.origin }
func (o *SObject) Timestamp() int64    { return o.ts }
func (o *SObject) IsNull() typesys.Tri { return o.isNull }
func (o *SObject) IsPrecise() bool     { return o.isPrecise }
func (o *SObject) ObjectType() typesys.ObjectType { return o.utb }
func (o *SObject) UTB() typesys.UTB    { return typesys.ObjectUTB(o.utb) }

// MObject is a single-origin object reference whose upper type bound is a
// ≥2-element intersection.
type MObject struct {
	origin int
	ts     int64
	isNull typesys.Tri
	utb    []typesys.ObjectType // len >= 2, minimal, sorted
}

func (*MObject) isValue()              {}
func (m *MObject) Origin() int         { return m.origin }
func (m *MObject) Timestamp() int64    { return m.ts }
func (m *MObject) IsNull() typesys.Tri { return m.isNull }
func (m *MObject) Types() []typesys.ObjectType { return append([]typesys.ObjectType(nil), m.utb...) }
func (m *MObject) UTB() typesys.UTB    { return typesys.ObjectUTB(m.utb...) }

// SingleOrigin is the subset of Value kinds Multi may aggregate: every kind
// except Multi itself. Null values participate too — a Multi can include a
// definitely-null alternative alongside live references from other origins.
type SingleOrigin interface {
	Value
	singleOrigin()
}

func (*Null) singleOrigin()    {}
func (*Array) singleOrigin()   {}
func (*SObject) singleOrigin() {}
func (*MObject) singleOrigin() {}

// Multi is the join of ≥2 single-origin values with distinct origins.
type Multi struct {
	ts        int64
	isNull    typesys.Tri
	isPrecise bool
	utb       typesys.UTB
	values    []SingleOrigin // sorted by Origin(), distinct origins
}

func (*Multi) isValue()              {}
func (m *Multi) Origin() int         { return m.values[0].Origin() } // arbitrary but deterministic: smallest origin
func (m *Multi) Timestamp() int64    { return m.ts }
func (m *Multi) IsNull() typesys.Tri { return m.isNull }
func (m *Multi) IsPrecise() bool     { return m.isPrecise }
func (m *Multi) UTB() typesys.UTB    { return m.utb }
func (m *Multi) Values() []SingleOrigin { return append([]SingleOrigin(nil), m.values...) }

func sortByOrigin(values []SingleOrigin) {
	sort.Slice(values, func(i, j int) bool { return values[i].Origin() < values[j].Origin() })
}

// newImpossibleRefinement builds the error this package raises whenever a
// requested refinement contradicts the value's current state.
func newImpossibleRefinement(v Value, op string, pc int) error {
	return &aierrors.ImpossibleRefinementError{Value: describeKind(v), Op: op, PC: pc}
}

func describeKind(v Value) string {
	switch v.(type) {
	case *Null:
		return "Null"
	case *Array:
		return "Array"
	case *SObject:
		return "SObject"
	case *MObject:
		return "MObject"
	case *Multi:
		return "Multi"
	default:
		return "unknown"
	}
}
