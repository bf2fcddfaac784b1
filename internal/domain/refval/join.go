package refval

import "github.com/cwbudde/aicore/internal/typesys"

// UpdateKind classifies the outcome of a join.
type UpdateKind int

const (
	// NoUpdate means the receiver already abstracts over the other value;
	// no new value was produced.
	NoUpdate UpdateKind = iota
	// TimestampUpdate means the join is semantically equal to the receiver
	// up to timestamp: same shape and bounds, new identity.
	TimestampUpdate
	// StructuralUpdate means the join is a strictly coarser value.
	StructuralUpdate
)

// JoinResult is the outcome of joining two values at a program point.
type JoinResult struct {
	Kind  UpdateKind
	Value Value
}

// Join computes a ⊔ b as observed at pc, memoizing by the identity pair
// (pc, a, b) so repeated fixpoint iterations over the same edge are cheap.
func (s *Session) Join(pc int, a, b Value) JoinResult {
	if a == Value(nil) {
		return JoinResult{Kind: StructuralUpdate, Value: b}
	}
	if b == Value(nil) {
		return JoinResult{Kind: NoUpdate, Value: a}
	}
	if cached, ok := s.memoized(pc, a, b); ok {
		return cached
	}
	r := s.join(pc, a, b)
	s.remember(pc, a, b, r)
	return r
}

func (s *Session) join(pc int, a, b Value) JoinResult {
	aM, aIsMulti := a.(*Multi)
	bM, bIsMulti := b.(*Multi)
	if aIsMulti || bIsMulti {
		return s.joinWithMulti(pc, aM, aIsMulti, a, bM, bIsMulti, b)
	}

	aSO, bSO := a.(SingleOrigin), b.(SingleOrigin)
	if aSO.Origin() == bSO.Origin() {
		return s.joinSameOrigin(pc, aSO, bSO)
	}
	return s.joinDifferentOrigin(pc, aSO, bSO)
}

// joinSameOrigin implements case 1 of §4.4: same-origin single values join
// into a single value carrying the joined nullness, UTB, and precision.
func (s *Session) joinSameOrigin(pc int, a, b SingleOrigin) JoinResult {
	if AbstractsOver(s.Hierarchy, a, b) {
		return JoinResult{Kind: NoUpdate, Value: a}
	}

	nullJoin := joinTri(a.IsNull(), b.IsNull())

	if _, aNull := a.(*Null); aNull {
		if _, bNull := b.(*Null); bNull {
			return JoinResult{Kind: TimestampUpdate, Value: &Null{origin: a.Origin(), ts: s.freshTimestamp()}}
		}
	}

	utb := joinUTB(s.Hierarchy, a.UTB(), b.UTB())
	precise := isPrecise(a) && isPrecise(b) && a.UTB().Equal(b.UTB())
	v := s.buildFromUTB(a.Origin(), nullJoin, precise, utb)
	return JoinResult{Kind: StructuralUpdate, Value: v}
}

// joinDifferentOrigin implements case 2: distinct origins produce a Multi.
func (s *Session) joinDifferentOrigin(pc int, a, b SingleOrigin) JoinResult {
	values := []SingleOrigin{a, b}
	sortByOrigin(values)
	m := s.buildMulti(values)
	return JoinResult{Kind: StructuralUpdate, Value: m}
}

// joinWithMulti implements case 3: re-key by origin, pairwise-join values
// sharing an origin, union the rest.
func (s *Session) joinWithMulti(pc int, aM *Multi, aIsMulti bool, a Value, bM *Multi, bIsMulti bool, b Value) JoinResult {
	byOrigin := map[int]SingleOrigin{}
	order := []int{}
	add := func(v SingleOrigin) {
		if existing, ok := byOrigin[v.Origin()]; ok {
			joined := s.join(0, existing, v)
			byOrigin[v.Origin()] = joined.Value.(SingleOrigin)
			return
		}
		byOrigin[v.Origin()] = v
		order = append(order, v.Origin())
	}

	if aIsMulti {
		for _, v := range aM.values {
			add(v)
		}
	} else {
		add(a.(SingleOrigin))
	}
	if bIsMulti {
		for _, v := range bM.values {
			add(v)
		}
	} else {
		add(b.(SingleOrigin))
	}

	values := make([]SingleOrigin, 0, len(order))
	for _, o := range order {
		values = append(values, byOrigin[o])
	}
	sortByOrigin(values)

	if len(values) == 1 {
		return JoinResult{Kind: StructuralUpdate, Value: values[0]}
	}
	m := s.buildMulti(values)
	if aIsMulti && AbstractsOver(s.Hierarchy, aM, b) {
		return JoinResult{Kind: NoUpdate, Value: aM}
	}
	return JoinResult{Kind: StructuralUpdate, Value: m}
}

func (s *Session) buildMulti(values []SingleOrigin) *Multi {
	isNull := values[0].IsNull()
	utb := values[0].UTB()
	precise := isPrecise(values[0])
	for _, v := range values[1:] {
		isNull = joinTri(isNull, v.IsNull())
		utb = joinUTB(s.Hierarchy, utb, v.UTB())
		precise = precise && isPrecise(v) && utb.Equal(v.UTB())
	}
	return &Multi{ts: s.freshTimestamp(), isNull: isNull, isPrecise: precise, utb: utb, values: values}
}

// buildFromUTB constructs the concrete value shape matching utb: Null if
// empty, Array if a singleton array, SObject if a singleton object type,
// MObject otherwise.
func (s *Session) buildFromUTB(origin int, isNull typesys.Tri, precise bool, utb typesys.UTB) Value {
	switch {
	case utb.IsNull():
		return &Null{origin: origin, ts: s.freshTimestamp()}
	case utb.IsArray():
		return &Array{origin: origin, ts: s.freshTimestamp(), isNull: isNull, isPrecise: precise, utb: *utb.Array}
	case len(utb.Objects) == 1:
		return &SObject{origin: origin, ts: s.freshTimestamp(), isNull: isNull, isPrecise: s.objectPrecision(utb.Objects[0], precise), utb: utb.Objects[0]}
	default:
		return &MObject{origin: origin, ts: s.freshTimestamp(), isNull: isNull, utb: utb.Objects}
	}
}

func isPrecise(v Value) bool {
	switch t := v.(type) {
	case *Array:
		return t.isPrecise
	case *SObject:
		return t.isPrecise
	case *Null:
		return true
	default:
		return false
	}
}

func joinTri(a, b typesys.Tri) typesys.Tri {
	return a.Join(b)
}

// joinUTB computes the lattice join of two upper type bounds using the
// hierarchy's type-level joins, handling the null/array/object/intersection
// combinations.
func joinUTB(h typesys.Hierarchy, a, b typesys.UTB) typesys.UTB {
	if a.Equal(b) {
		return a
	}
	if a.IsNull() {
		return b
	}
	if b.IsNull() {
		return a
	}
	if a.IsArray() && b.IsArray() {
		return h.JoinArrayTypes(*a.Array, *b.Array)
	}
	if a.IsArray() {
		return h.JoinAnyArrayTypeWithObjectType(singleObjectOrObject(b))
	}
	if b.IsArray() {
		return h.JoinAnyArrayTypeWithObjectType(singleObjectOrObject(a))
	}
	joined := h.JoinObjectTypes(a.Objects[0], b.Objects, true)
	for _, extra := range a.Objects[1:] {
		joined = h.JoinObjectTypes(extra, joined, true)
	}
	return typesys.ObjectUTB(joined...)
}

func singleObjectOrObject(u typesys.UTB) typesys.ObjectType {
	if len(u.Objects) == 1 {
		return u.Objects[0]
	}
	return typesys.ObjectObject
}

// AbstractsOver reports whether a overapproximates every runtime state b
// admits, per §4.4's abstractsOver contract.
func AbstractsOver(h typesys.Hierarchy, a, b Value) bool {
	if a == b {
		return true
	}
	aM, aIsMulti := a.(*Multi)
	bM, bIsMulti := b.(*Multi)
	if !aIsMulti && bIsMulti {
		return false
	}
	if aIsMulti && !bIsMulti {
		for _, v := range aM.values {
			if v.Origin() == b.Origin() {
				return AbstractsOver(h, v, b)
			}
		}
		return false
	}
	if aIsMulti && bIsMulti {
		for _, bv := range bM.values {
			found := false
			for _, av := range aM.values {
				if av.Origin() == bv.Origin() && AbstractsOver(h, av, bv) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	}

	if a.Origin() != b.Origin() {
		return false
	}
	if !nullAbstracts(a.IsNull(), b.IsNull()) {
		return false
	}
	if _, aNull := a.(*Null); aNull {
		_, bNull := b.(*Null)
		return bNull
	}
	if isPrecise(a) && !b.UTB().IsNull() && !(isPrecise(b) && a.UTB().Equal(b.UTB())) {
		return false
	}
	return utbAbstracts(a.UTB(), b.UTB()) || joinUTB(h, a.UTB(), b.UTB()).Equal(a.UTB())
}

func nullAbstracts(a, b typesys.Tri) bool {
	if a == typesys.Unknown {
		return true
	}
	return a == b
}

func utbAbstracts(a, b typesys.UTB) bool {
	if a.Equal(b) {
		return true
	}
	if a.IsNull() {
		return b.IsNull()
	}
	if a.IsArray() != b.IsArray() {
		return false
	}
	if a.IsArray() {
		return a.Array.Equal(*b.Array)
	}
	set := map[typesys.ObjectType]bool{}
	for _, o := range b.Objects {
		set[o] = true
	}
	for _, o := range a.Objects {
		if !set[o] {
			return false
		}
	}
	return true
}
