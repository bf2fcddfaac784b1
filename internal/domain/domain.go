// Package domain composes the reference-value lattice (refval) and the
// numeric sorts (numeric) into the single value-domain instance the
// interpreter drives. Per the design notes this is realized as a capability
// set rather than an open-inheritance hierarchy: Domain exposes exactly the
// operations §4.4 requires, and a caller who needs a different mix of
// capabilities constructs a different Domain rather than subclassing one.
package domain

import (
	"sort"

	"github.com/cwbudde/aicore/internal/domain/numeric"
	"github.com/cwbudde/aicore/internal/domain/refval"
	"github.com/cwbudde/aicore/internal/typesys"
)

// Value is anything that can occupy an operand stack slot or local
// register: a refval.Value (reference sort) or one of the numeric sorts.
// Long and Double occupy two consecutive stack slots / local indices; the
// second slot holds a Wide marker rather than a duplicate value.
type Value = any

// Wide marks the second slot a long or double value occupies. It carries no
// data; its presence is itself the information the interpreter needs (a
// merge at a join point where one predecessor has a real value and another
// has Wide in the same slot is a verifier-level inconsistency).
type Wide struct{}

// ReturnAddress is the value jsr pushes: the set of pcs control may return
// to when the matching ret fires. A single jsr site yields one pc; merging
// states from two jsr sites that share a subroutine unions their addresses,
// which is how per-call-site context survives the join. The slice is kept
// sorted and deduplicated.
type ReturnAddress []int

func (r ReturnAddress) union(o ReturnAddress) (ReturnAddress, bool) {
	merged := append(ReturnAddress(nil), r...)
	changed := false
	for _, pc := range o {
		found := false
		for _, have := range merged {
			if have == pc {
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, pc)
			changed = true
		}
	}
	if !changed {
		return r, false
	}
	sort.Ints(merged)
	return merged, true
}

// OperandStack is the abstract operand stack, top at the highest index.
type OperandStack []Value

// Push returns a new stack with v pushed. Stacks are treated as immutable
// snapshots within the interpreter (each pc's incoming state is a distinct
// slice), matching the rest of the domain's value semantics.
func (s OperandStack) Push(v Value) OperandStack {
	return append(append(OperandStack(nil), s...), v)
}

// Pop returns the stack with its top slot removed and that slot's value.
func (s OperandStack) Pop() (OperandStack, Value) {
	if len(s) == 0 {
		return s, nil
	}
	return s[:len(s)-1], s[len(s)-1]
}

// Peek returns the top slot's value without removing it.
func (s OperandStack) Peek() Value {
	if len(s) == 0 {
		return nil
	}
	return s[len(s)-1]
}

// Registers is the abstract local variable register file, indexed by JVM
// local slot number.
type Registers []Value

// Get returns the value at index i, or nil if i is out of range (an unset
// local).
func (r Registers) Get(i int) Value {
	if i < 0 || i >= len(r) {
		return nil
	}
	return r[i]
}

// Set returns a copy of r with index i set to v, growing the slice if
// needed.
func (r Registers) Set(i int, v Value) Registers {
	out := append(Registers(nil), r...)
	for len(out) <= i {
		out = append(out, nil)
	}
	out[i] = v
	return out
}

// Domain bundles one interpretation session's mutable lattice state (the
// refval.Session, which owns the timestamp counter and join memo) with the
// immutable class hierarchy both refval and typesys queries need.
type Domain struct {
	Hierarchy typesys.Hierarchy
	Refs      *refval.Session
}

// New creates a Domain for a single method interpretation session.
func New(hierarchy typesys.Hierarchy) *Domain {
	return &Domain{Hierarchy: hierarchy, Refs: refval.NewSession(hierarchy)}
}

// JoinValue joins two operand-stack or register slot values, dispatching on
// their dynamic sort. Joining values of incompatible sorts (e.g. a
// reference with a numeric.Int) is a verifier-level inconsistency the
// caller must treat as InconsistentCodeShape; JoinValue itself reports it by
// returning ok=false.
func (d *Domain) JoinValue(pc int, a, b Value) (result Value, kind refval.UpdateKind, ok bool) {
	if a == nil {
		return b, refval.StructuralUpdate, true
	}
	if b == nil {
		return a, refval.NoUpdate, true
	}
	switch av := a.(type) {
	case refval.Value:
		bv, isRef := b.(refval.Value)
		if !isRef {
			return nil, refval.NoUpdate, false
		}
		r := d.Refs.Join(pc, av, bv)
		return r.Value, r.Kind, true
	case numeric.Int:
		bv, isInt := b.(numeric.Int)
		if !isInt {
			return nil, refval.NoUpdate, false
		}
		joined := av.Join(bv)
		kind := refval.TimestampUpdate
		if joined.Equal(av) {
			kind = refval.NoUpdate
		} else {
			kind = refval.StructuralUpdate
		}
		return joined, kind, true
	case numeric.Long:
		bv, isLong := b.(numeric.Long)
		if !isLong {
			return nil, refval.NoUpdate, false
		}
		joined := av.Join(bv)
		if joined == av {
			return joined, refval.NoUpdate, true
		}
		return joined, refval.StructuralUpdate, true
	case numeric.Float:
		bv, isFloat := b.(numeric.Float)
		if !isFloat {
			return nil, refval.NoUpdate, false
		}
		joined := av.Join(bv)
		if joined == av {
			return joined, refval.NoUpdate, true
		}
		return joined, refval.StructuralUpdate, true
	case numeric.Double:
		bv, isDouble := b.(numeric.Double)
		if !isDouble {
			return nil, refval.NoUpdate, false
		}
		joined := av.Join(bv)
		if joined == av {
			return joined, refval.NoUpdate, true
		}
		return joined, refval.StructuralUpdate, true
	case ReturnAddress:
		bv, isRA := b.(ReturnAddress)
		if !isRA {
			return nil, refval.NoUpdate, false
		}
		merged, changed := av.union(bv)
		if !changed {
			return merged, refval.NoUpdate, true
		}
		return merged, refval.StructuralUpdate, true
	case Wide:
		if _, isWide := b.(Wide); isWide {
			return Wide{}, refval.NoUpdate, true
		}
		return nil, refval.NoUpdate, false
	default:
		return nil, refval.NoUpdate, false
	}
}
