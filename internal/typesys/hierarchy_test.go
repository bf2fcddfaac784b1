package typesys

import "testing"

func testHierarchy() *MapHierarchy {
	animal := Intern("demo/Animal")
	dog := Intern("demo/Dog")
	cat := Intern("demo/Cat")
	comparable := Intern("demo/Comparable")
	return NewMapHierarchy(map[ObjectType]ClassInfo{
		ObjectObject: {},
		animal:       {Super: ObjectObject},
		dog:          {Super: animal, Interfaces: []ObjectType{comparable}},
		cat:          {Super: animal},
		comparable:   {Super: ObjectObject, Interface: true},
	})
}

func TestIsSubtypeOf(t *testing.T) {
	h := testHierarchy()
	dog := Intern("demo/Dog")
	animal := Intern("demo/Animal")
	cat := Intern("demo/Cat")
	comparable := Intern("demo/Comparable")

	if got := h.IsSubtypeOf(dog, animal); got != Yes {
		t.Errorf("Dog subtype of Animal = %s, want Yes", got)
	}
	if got := h.IsSubtypeOf(dog, comparable); got != Yes {
		t.Errorf("Dog subtype of Comparable = %s, want Yes", got)
	}
	if got := h.IsSubtypeOf(dog, cat); got != No {
		t.Errorf("Dog subtype of Cat = %s, want No", got)
	}
	if got := h.IsSubtypeOf(dog, ObjectObject); got != Yes {
		t.Errorf("Dog subtype of Object = %s, want Yes", got)
	}
	unknown := Intern("demo/Unknown")
	if got := h.IsSubtypeOf(unknown, animal); got != Unknown {
		t.Errorf("unknown type subtype query = %s, want Unknown", got)
	}
}

func TestJoinObjectTypesCommonSuperclass(t *testing.T) {
	h := testHierarchy()
	dog := Intern("demo/Dog")
	cat := Intern("demo/Cat")
	animal := Intern("demo/Animal")

	joined := h.JoinObjectTypes(dog, []ObjectType{cat}, true)
	if len(joined) != 1 || joined[0] != animal {
		t.Fatalf("JoinObjectTypes(Dog, [Cat]) = %v, want [Animal]", joined)
	}
}

func TestJoinObjectTypesReflexive(t *testing.T) {
	h := testHierarchy()
	dog := Intern("demo/Dog")
	animal := Intern("demo/Animal")

	joined := h.JoinObjectTypes(animal, []ObjectType{dog}, true)
	if len(joined) != 1 || joined[0] != animal {
		t.Fatalf("reflexive join of Animal with a subtype Dog = %v, want [Animal]", joined)
	}
}

func TestJoinObjectTypesFallsBackToObject(t *testing.T) {
	h := testHierarchy()
	cat := Intern("demo/Cat")
	comparable := Intern("demo/Comparable")

	joined := h.JoinObjectTypes(cat, []ObjectType{comparable}, false)
	if len(joined) != 1 || joined[0] != ObjectObject {
		t.Fatalf("join of unrelated types = %v, want [java/lang/Object]", joined)
	}
}

func TestJoinArrayTypesSameComponent(t *testing.T) {
	h := testHierarchy()
	a := NewArrayType(Int, 1)
	b := NewArrayType(Int, 1)
	utb := h.JoinArrayTypes(a, b)
	if !utb.IsArray() || utb.Array.Component != Type(Int) {
		t.Fatalf("JoinArrayTypes(int[], int[]) = %v, want array of int", utb)
	}
}

func TestJoinArrayTypesIncompatibleFallsBackToSerializableCloneable(t *testing.T) {
	h := testHierarchy()
	a := NewArrayType(Int, 1)
	b := NewArrayType(Intern("demo/Dog"), 1)
	utb := h.JoinArrayTypes(a, b)
	if utb.IsArray() {
		t.Fatalf("expected object intersection, got array UTB %v", utb)
	}
	if len(utb.Objects) != 2 {
		t.Fatalf("expected {Serializable, Cloneable}, got %v", utb.Objects)
	}
}

func TestIsKnownToBeFinalAndIsInterface(t *testing.T) {
	final := Intern("demo/Final")
	h := NewMapHierarchy(map[ObjectType]ClassInfo{
		final: {Final: true},
	})
	if !h.IsKnownToBeFinal(final) {
		t.Errorf("expected Final to be known final")
	}
	unknown := Intern("demo/Unknown2")
	if h.IsKnownToBeFinal(unknown) {
		t.Errorf("unknown type must never be reported final")
	}
	if h.IsInterface(final) {
		t.Errorf("Final is not declared an interface")
	}
}
