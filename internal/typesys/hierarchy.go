package typesys

// Serializable and Cloneable are the two JVM-mandated supertypes of every
// array type, used whenever an array is joined with something that is not
// itself array-shaped.
var (
	Serializable = Intern("java/io/Serializable")
	Cloneable    = Intern("java/lang/Cloneable")
)

// ClassInfo is the per-type record a Hierarchy exposes.
type ClassInfo struct {
	Super      ObjectType // zero value ("") means no declared supertype (only java/lang/Object)
	Interfaces []ObjectType
	Interface  bool
	Final      bool
}

// Hierarchy answers subtype and join queries over a (possibly partial) set
// of known classes. Implementations must be immutable after construction
// and safe for concurrent use by independent interpretation sessions.
type Hierarchy interface {
	// Lookup returns the ClassInfo for t, or ok=false if t's class file was
	// never supplied to the hierarchy.
	Lookup(t ObjectType) (ClassInfo, bool)

	// IsSubtypeOf answers whether s is a (non-strict) subtype of t. Unknown
	// is returned whenever either type's ClassInfo is absent.
	IsSubtypeOf(s, t ObjectType) Tri

	// JoinObjectTypes computes the smallest common superclass set
	// compatible with a and every member of b. When reflexive is true and
	// every member of b is already known to be a (non-strict) subtype of a,
	// the result is {a} itself (joining a with its own subtypes is a
	// no-op). The result is always minimal: no member is a supertype of
	// another member.
	JoinObjectTypes(a ObjectType, b []ObjectType, reflexive bool) []ObjectType

	// JoinArrayTypes joins two array types. If the component types have a
	// least upper bound that is itself expressible as a type, the result is
	// the corresponding array UTB; otherwise it is the object intersection
	// {Serializable, Cloneable}.
	JoinArrayTypes(a, b ArrayType) UTB

	// JoinAnyArrayTypeWithObjectType joins an (unspecified) array type with
	// an object type: Object if o is Object, else {Serializable,Cloneable}
	// intersected with o's ancestors, or Object when that intersection is
	// empty.
	JoinAnyArrayTypeWithObjectType(o ObjectType) UTB

	// IsKnownToBeFinal reports whether t is declared final. A type whose
	// ClassInfo is absent is never known to be final.
	IsKnownToBeFinal(t ObjectType) bool

	// IsInterface reports whether t is an interface. A type whose ClassInfo
	// is absent is never reported as an interface.
	IsInterface(t ObjectType) bool
}

// MapHierarchy is a Hierarchy backed by an in-memory map, the
// implementation the fixture loader builds and the one most tests use
// directly. Nothing prevents a collaborator from implementing Hierarchy
// over a lazily-loaded classpath instead.
type MapHierarchy struct {
	classes map[ObjectType]ClassInfo
}

// NewMapHierarchy builds a Hierarchy from an explicit class table. The
// caller is responsible for including java/lang/Object if any reasoning
// about the root of the hierarchy is required; an absent Object entry is
// not an error, it simply means ancestor walks stop one level early.
func NewMapHierarchy(classes map[ObjectType]ClassInfo) *MapHierarchy {
	if classes == nil {
		classes = map[ObjectType]ClassInfo{}
	}
	return &MapHierarchy{classes: classes}
}

func (h *MapHierarchy) Lookup(t ObjectType) (ClassInfo, bool) {
	ci, ok := h.classes[t]
	return ci, ok
}

func (h *MapHierarchy) IsKnownToBeFinal(t ObjectType) bool {
	ci, ok := h.classes[t]
	return ok && ci.Final
}

func (h *MapHierarchy) IsInterface(t ObjectType) bool {
	ci, ok := h.classes[t]
	return ok && ci.Interface
}

// ancestors returns t and every supertype/superinterface reachable from it,
// in breadth-first order starting from t itself. The walk stops at any type
// whose ClassInfo is absent.
func (h *MapHierarchy) ancestors(t ObjectType) []ObjectType {
	seen := map[ObjectType]bool{t: true}
	queue := []ObjectType{t}
	out := []ObjectType{t}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		ci, ok := h.classes[cur]
		if !ok {
			continue
		}
		next := make([]ObjectType, 0, len(ci.Interfaces)+1)
		if ci.Super != "" {
			next = append(next, ci.Super)
		}
		next = append(next, ci.Interfaces...)
		for _, n := range next {
			if !seen[n] {
				seen[n] = true
				queue = append(queue, n)
				out = append(out, n)
			}
		}
	}
	return out
}

func (h *MapHierarchy) IsSubtypeOf(s, t ObjectType) Tri {
	if s == t {
		return Yes
	}
	if _, ok := h.classes[s]; !ok {
		return Unknown
	}
	if _, ok := h.classes[t]; !ok && t != ObjectObject {
		return Unknown
	}
	if t == ObjectObject {
		return Yes
	}
	for _, a := range h.ancestors(s) {
		if a == t {
			return Yes
		}
	}
	// We walked every ancestor we know about without finding t. If the walk
	// was truncated because some ancestor's ClassInfo was missing, we can't
	// be sure; otherwise it's a sound No.
	if h.walkComplete(s) {
		return No
	}
	return Unknown
}

// walkComplete reports whether every type transitively reachable from s has
// a known ClassInfo (i.e. the ancestor walk was not cut short by a missing
// class file).
func (h *MapHierarchy) walkComplete(s ObjectType) bool {
	seen := map[ObjectType]bool{s: true}
	queue := []ObjectType{s}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		ci, ok := h.classes[cur]
		if !ok {
			if cur == ObjectObject {
				continue
			}
			return false
		}
		if ci.Super != "" && !seen[ci.Super] {
			seen[ci.Super] = true
			queue = append(queue, ci.Super)
		}
		for _, i := range ci.Interfaces {
			if !seen[i] {
				seen[i] = true
				queue = append(queue, i)
			}
		}
	}
	return true
}

// JoinObjectTypes computes the minimal common-superclass set of a and every
// member of b. Each candidate ancestor of a is checked against every member
// of b; the result keeps only ancestors that are common to all inputs and
// then strips any ancestor that is itself a (strict) supertype of another
// surviving ancestor.
func (h *MapHierarchy) JoinObjectTypes(a ObjectType, b []ObjectType, reflexive bool) []ObjectType {
	if reflexive && h.allSubtypeOf(b, a) {
		return []ObjectType{a}
	}

	candidates := h.ancestors(a)
	common := make([]ObjectType, 0, len(candidates))
	for _, c := range candidates {
		if h.isCommonAncestor(c, b) {
			common = append(common, c)
		}
	}
	if len(common) == 0 {
		return []ObjectType{ObjectObject}
	}
	return h.minimalSet(common)
}

func (h *MapHierarchy) allSubtypeOf(types []ObjectType, super ObjectType) bool {
	for _, t := range types {
		if h.IsSubtypeOf(t, super) != Yes {
			return false
		}
	}
	return true
}

func (h *MapHierarchy) isCommonAncestor(candidate ObjectType, b []ObjectType) bool {
	for _, t := range b {
		if h.IsSubtypeOf(t, candidate) != Yes {
			return false
		}
	}
	return true
}

// minimalSet removes any member that is a strict supertype of another
// member, and deduplicates, returning a deterministically ordered result.
func (h *MapHierarchy) minimalSet(types []ObjectType) []ObjectType {
	uniq := dedupe(types)
	out := make([]ObjectType, 0, len(uniq))
	for i, t := range uniq {
		subsumed := false
		for j, u := range uniq {
			if i == j {
				continue
			}
			if h.IsSubtypeOf(u, t) == Yes && u != t {
				subsumed = true
				break
			}
		}
		if !subsumed {
			out = append(out, t)
		}
	}
	return sortObjectTypes(dedupe(out))
}

func dedupe(types []ObjectType) []ObjectType {
	seen := make(map[ObjectType]bool, len(types))
	out := make([]ObjectType, 0, len(types))
	for _, t := range types {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func sortObjectTypes(types []ObjectType) []ObjectType {
	out := append([]ObjectType(nil), types...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func (h *MapHierarchy) JoinArrayTypes(a, b ArrayType) UTB {
	if a.Dims == b.Dims {
		if lub, ok := h.componentLUB(a.Component, b.Component); ok {
			return ArrayUTB(NewArrayType(lub, a.Dims))
		}
	}
	return ObjectUTB(Serializable, Cloneable)
}

// componentLUB computes a least upper bound for two component types when
// one exists as a single type: identical primitives, or object types whose
// join is a singleton.
func (h *MapHierarchy) componentLUB(a, b Type) (Type, bool) {
	switch av := a.(type) {
	case Primitive:
		if bv, ok := b.(Primitive); ok && av == bv {
			return av, true
		}
		return nil, false
	case ObjectType:
		bv, ok := b.(ObjectType)
		if !ok {
			return nil, false
		}
		joined := h.JoinObjectTypes(av, []ObjectType{bv}, true)
		if len(joined) == 1 {
			return joined[0], true
		}
		return nil, false
	case ArrayType:
		bv, ok := b.(ArrayType)
		if !ok {
			return nil, false
		}
		utb := h.JoinArrayTypes(av, bv)
		if utb.IsArray() {
			return *utb.Array, true
		}
		return nil, false
	default:
		return nil, false
	}
}

func (h *MapHierarchy) JoinAnyArrayTypeWithObjectType(o ObjectType) UTB {
	if o == ObjectObject {
		return ObjectUTB(ObjectObject)
	}
	var ancestorsOfO []ObjectType
	for _, a := range h.ancestors(o) {
		ancestorsOfO = append(ancestorsOfO, a)
	}
	keep := make([]ObjectType, 0, 2)
	for _, s := range []ObjectType{Serializable, Cloneable} {
		if containsObjectType(ancestorsOfO, s) || h.IsSubtypeOf(o, s) == Yes {
			keep = append(keep, s)
		}
	}
	if len(keep) == 0 {
		return ObjectUTB(ObjectObject)
	}
	return ObjectUTB(keep...)
}

func containsObjectType(haystack []ObjectType, needle ObjectType) bool {
	for _, t := range haystack {
		if t == needle {
			return true
		}
	}
	return false
}
