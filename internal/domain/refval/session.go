package refval

import "github.com/cwbudde/aicore/internal/typesys"

// Session owns the per-interpretation-run state every factory and join
// needs: the monotonic timestamp counter and a memoized join cache keyed by
// the identity of the two operand pointers. It is not safe for concurrent
// use; each method interpretation gets its own Session, and the class
// hierarchy it references is shared read-only across sessions.
type Session struct {
	Hierarchy typesys.Hierarchy

	nextTS int64
	memo   map[joinKey]JoinResult
}

// NewSession creates a session whose timestamp counter starts at 100,
// leaving room below that band for synthetic timestamps (e.g. parameters
// materialized before interpretation begins).
func NewSession(h typesys.Hierarchy) *Session {
	return &Session{Hierarchy: h, nextTS: 100, memo: map[joinKey]JoinResult{}}
}

func (s *Session) freshTimestamp() int64 {
	s.nextTS++
	return s.nextTS
}

// objectPrecision upgrades a computed precision flag: a bound the hierarchy
// knows to be final admits exactly one dynamic type, so the value is precise
// no matter how it was derived.
func (s *Session) objectPrecision(t typesys.ObjectType, precise bool) bool {
	return precise || s.Hierarchy.IsKnownToBeFinal(t)
}

type joinKey struct {
	pc   int
	a, b Value
}

func (s *Session) memoized(pc int, a, b Value) (JoinResult, bool) {
	r, ok := s.memo[joinKey{pc: pc, a: a, b: b}]
	return r, ok
}

func (s *Session) remember(pc int, a, b Value, r JoinResult) {
	s.memo[joinKey{pc: pc, a: a, b: b}] = r
}

// NullValue creates a definitely-null value materialized at origin.
func (s *Session) NullValue(origin int) *Null {
	return &Null{origin: origin, ts: s.freshTimestamp()}
}

// NewObject creates a precise, non-null object value: the result of a `new`
// followed by its constructor, where the dynamic type is known exactly.
func (s *Session) NewObject(origin int, t typesys.ObjectType) *SObject {
	return &SObject{origin: origin, ts: s.freshTimestamp(), isNull: typesys.No, isPrecise: true, utb: t}
}

// NonNullObjectValue creates a non-null, imprecise object value: the
// dynamic type may be any subtype of t.
func (s *Session) NonNullObjectValue(origin int, t typesys.ObjectType) *SObject {
	return &SObject{origin: origin, ts: s.freshTimestamp(), isNull: typesys.No, isPrecise: s.Hierarchy.IsKnownToBeFinal(t), utb: t}
}

// InitializedObjectValue creates a non-null, imprecise object value
// representing an already-initialized instance reached through, e.g., a
// field read or method parameter — distinct from NonNullObjectValue only in
// the caller's intent, not in shape.
func (s *Session) InitializedObjectValue(origin int, t typesys.ObjectType) *SObject {
	return s.NonNullObjectValue(origin, t)
}

// StringValue creates a non-null String value. java.lang.String is final,
// so it is always precise.
func (s *Session) StringValue(origin int) *SObject {
	return &SObject{origin: origin, ts: s.freshTimestamp(), isNull: typesys.No, isPrecise: true, utb: typesys.Intern("java/lang/String")}
}

// ClassValue creates a non-null java.lang.Class value.
func (s *Session) ClassValue(origin int) *SObject {
	return &SObject{origin: origin, ts: s.freshTimestamp(), isNull: typesys.No, isPrecise: true, utb: typesys.Intern("java/lang/Class")}
}

// ArrayValue creates a non-null, imprecise array value: the dynamic
// component type may be covariant with at's component.
func (s *Session) ArrayValue(origin int, at typesys.ArrayType) *Array {
	return &Array{origin: origin, ts: s.freshTimestamp(), isNull: typesys.No, isPrecise: false, utb: at}
}

// NewArray creates a precise, non-null array value: the freshly allocated
// result of newarray/anewarray/multianewarray, whose dynamic type is
// exactly at.
func (s *Session) NewArray(origin int, at typesys.ArrayType) *Array {
	return &Array{origin: origin, ts: s.freshTimestamp(), isNull: typesys.No, isPrecise: true, utb: at}
}

// InitializedArrayValue creates a non-null, imprecise array value
// representing an already-initialized array reached through a field read
// or parameter.
func (s *Session) InitializedArrayValue(origin int, at typesys.ArrayType) *Array {
	return s.ArrayValue(origin, at)
}
