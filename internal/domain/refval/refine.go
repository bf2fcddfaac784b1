package refval

import "github.com/cwbudde/aicore/internal/typesys"

// RefineIsNull replaces v by its nullness-narrowed form. If answer is Yes,
// any Array/SObject/MObject becomes the corresponding Null (same origin,
// same timestamp — the value's runtime identity does not change, only what
// is known about it). If answer is No and v's current nullness is Unknown,
// isNull becomes No. Refining a value whose nullness is already known to
// disagree with answer, or re-refining an already-settled nullness, is an
// ImpossibleRefinement per the tightened contract §9 adopts.
func (s *Session) RefineIsNull(pc int, v Value, answer typesys.Tri) (Value, error) {
	switch t := v.(type) {
	case *Null:
		// Null's nullness is always already settled (Yes); per the
		// tightened contract adopted for the open question in the design
		// notes, refining an already-settled nullness is fatal regardless
		// of which answer is requested.
		return nil, newImpossibleRefinement(v, "refineIsNull", pc)
	case *Array:
		if t.isNull != typesys.Unknown {
			return nil, newImpossibleRefinement(v, "refineIsNull", pc)
		}
		if answer == typesys.Yes {
			return &Null{origin: t.origin, ts: t.ts}, nil
		}
		cp := *t
		cp.isNull = typesys.No
		return &cp, nil
	case *SObject:
		if t.isNull != typesys.Unknown {
			return nil, newImpossibleRefinement(v, "refineIsNull", pc)
		}
		if answer == typesys.Yes {
			return &Null{origin: t.origin, ts: t.ts}, nil
		}
		cp := *t
		cp.isNull = typesys.No
		return &cp, nil
	case *MObject:
		if t.isNull != typesys.Unknown {
			return nil, newImpossibleRefinement(v, "refineIsNull", pc)
		}
		if answer == typesys.Yes {
			return &Null{origin: t.origin, ts: t.ts}, nil
		}
		cp := *t
		cp.isNull = typesys.No
		return &cp, nil
	case *Multi:
		return s.refineMultiIsNull(pc, t, answer)
	default:
		return nil, newImpossibleRefinement(v, "refineIsNull", pc)
	}
}

func (s *Session) refineMultiIsNull(pc int, m *Multi, answer typesys.Tri) (Value, error) {
	if answer == typesys.No {
		kept := make([]SingleOrigin, 0, len(m.values))
		for _, v := range m.values {
			if _, isNull := v.(*Null); isNull {
				continue
			}
			refined, err := s.RefineIsNull(pc, v, typesys.No)
			if err != nil {
				if v.IsNull() == typesys.No {
					kept = append(kept, v)
					continue
				}
				return nil, err
			}
			kept = append(kept, refined.(SingleOrigin))
		}
		if len(kept) == 0 {
			return nil, newImpossibleRefinement(m, "refineIsNull", pc)
		}
		if len(kept) == 1 {
			return kept[0], nil
		}
		return s.buildMulti(kept), nil
	}
	// answer == Yes: members already known non-null cannot be the null
	// alternative; they are shed, and whichever member remains collapses to
	// Null. Only a Multi with no possibly-null member at all contradicts
	// the refinement.
	for _, v := range m.values {
		if v.IsNull() == typesys.No {
			continue
		}
		return &Null{origin: v.Origin(), ts: v.Timestamp()}, nil
	}
	return nil, newImpossibleRefinement(m, "refineIsNull", pc)
}

// RefineUpperTypeBound sharpens v's upper type bound to supertype. The
// postcondition is new UTB ⊑ old UTB: if supertype is strictly below the
// current UTB the bound is replaced; if incomparable, it is added to the
// bound set (meaningful only for MObject, producing a wider intersection —
// "added" here means narrowed further since intersection members only ever
// restrict). Refining Null by any UTB is always impossible.
func (s *Session) RefineUpperTypeBound(pc int, v Value, supertype typesys.UTB) (Value, error) {
	switch t := v.(type) {
	case *Null:
		return nil, newImpossibleRefinement(v, "refineUpperTypeBound", pc)
	case *Array:
		return s.refineArrayUTB(pc, t, supertype)
	case *SObject:
		return s.refineSObjectUTB(pc, t, supertype)
	case *MObject:
		return s.refineMObjectUTB(pc, t, supertype)
	case *Multi:
		return s.refineMultiUTB(pc, t, supertype)
	default:
		return nil, newImpossibleRefinement(v, "refineUpperTypeBound", pc)
	}
}

func (s *Session) refineArrayUTB(pc int, a *Array, supertype typesys.UTB) (Value, error) {
	if supertype.IsArray() {
		cp := *a
		cp.utb = *supertype.Array
		cp.ts = s.freshTimestamp()
		return &cp, nil
	}
	// An array can legally be refined by an object UTB only when the
	// target is exactly the JVM-mandated array supertypes (or Object);
	// anything else contradicts the known array-ness of the value.
	if isJustObject(supertype) {
		return a, nil
	}
	if isArraySupertypeSet(supertype) {
		return &MObject{origin: a.origin, ts: s.freshTimestamp(), isNull: a.isNull, utb: supertype.Objects}, nil
	}
	return nil, newImpossibleRefinement(a, "refineUpperTypeBound", pc)
}

func (s *Session) refineSObjectUTB(pc int, o *SObject, supertype typesys.UTB) (Value, error) {
	if supertype.IsArray() {
		// Legal only when the current bound is one of the array
		// supertypes (Object, Serializable, Cloneable) — the open
		// question §9 calls out; we surface the illegal case as fatal.
		if o.utb == typesys.ObjectObject || o.utb == typesys.Serializable || o.utb == typesys.Cloneable {
			return &Array{origin: o.origin, ts: s.freshTimestamp(), isNull: o.isNull, isPrecise: false, utb: *supertype.Array}, nil
		}
		return nil, newImpossibleRefinement(o, "refineUpperTypeBound", pc)
	}
	if len(supertype.Objects) == 1 {
		cp := *o
		cp.utb = supertype.Objects[0]
		cp.isPrecise = s.objectPrecision(supertype.Objects[0], o.isPrecise && supertype.Objects[0] == o.utb)
		cp.ts = s.freshTimestamp()
		return &cp, nil
	}
	return &MObject{origin: o.origin, ts: s.freshTimestamp(), isNull: o.isNull, utb: supertype.Objects}, nil
}

func (s *Session) refineMObjectUTB(pc int, m *MObject, supertype typesys.UTB) (Value, error) {
	if supertype.IsArray() {
		if isArraySupertypeSet(typesys.ObjectUTB(m.utb...)) {
			return &Array{origin: m.origin, ts: s.freshTimestamp(), isNull: m.isNull, isPrecise: false, utb: *supertype.Array}, nil
		}
		return nil, newImpossibleRefinement(m, "refineUpperTypeBound", pc)
	}
	if len(supertype.Objects) == 1 {
		return &SObject{origin: m.origin, ts: s.freshTimestamp(), isNull: m.isNull, isPrecise: s.objectPrecision(supertype.Objects[0], false), utb: supertype.Objects[0]}, nil
	}
	merged := typesys.ObjectUTB(append(append([]typesys.ObjectType(nil), m.utb...), supertype.Objects...)...)
	return &MObject{origin: m.origin, ts: s.freshTimestamp(), isNull: m.isNull, utb: merged.Objects}, nil
}

func (s *Session) refineMultiUTB(pc int, m *Multi, supertype typesys.UTB) (Value, error) {
	refined := make([]SingleOrigin, 0, len(m.values))
	for _, v := range m.values {
		r, err := s.RefineUpperTypeBound(pc, v, supertype)
		if err != nil {
			continue // member cannot satisfy the narrower bound; it is dropped
		}
		refined = append(refined, r.(SingleOrigin))
	}
	if len(refined) == 0 {
		return nil, newImpossibleRefinement(m, "refineUpperTypeBound", pc)
	}
	if len(refined) == 1 {
		return refined[0], nil
	}
	return s.buildMulti(refined), nil
}

func isArraySupertypeSet(u typesys.UTB) bool {
	if len(u.Objects) != 2 {
		return false
	}
	set := map[typesys.ObjectType]bool{u.Objects[0]: true, u.Objects[1]: true}
	return set[typesys.Serializable] && set[typesys.Cloneable]
}

func isJustObject(u typesys.UTB) bool {
	return len(u.Objects) == 1 && u.Objects[0] == typesys.ObjectObject
}
