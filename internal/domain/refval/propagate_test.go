package refval

import (
	"testing"

	"github.com/cwbudde/aicore/internal/typesys"
)

func TestCascadeReplacesEveryOccurrence(t *testing.T) {
	s, dog, _ := testSession()
	oldVal := s.NewObject(1, dog)
	newVal := s.NewObject(1, dog)

	stack := Slots{oldVal, oldVal, nil, 42}
	locals := Slots{oldVal}
	replacements := map[Value]Value{}
	Replace(replacements, oldVal, newVal)

	s.Cascade([]Slots{stack, locals}, replacements)

	for i, v := range stack {
		if v == oldVal {
			t.Errorf("stack[%d] still references the old value", i)
		}
	}
	if locals[0] != Value(newVal) {
		t.Errorf("locals[0] = %v, want the new value", locals[0])
	}
	if stack[3] != 42 {
		t.Errorf("non-Value slot must be left untouched, got %v", stack[3])
	}
}

func TestCascadeFixpointThroughChainedReplacement(t *testing.T) {
	s, dog, _ := testSession()
	a := s.NewObject(1, dog)
	b := s.NewObject(1, dog)
	c := s.NewObject(1, dog)

	group := Slots{a}
	replacements := map[Value]Value{}
	Replace(replacements, a, b)
	Replace(replacements, b, c)

	s.Cascade([]Slots{group}, replacements)

	if group[0] != Value(c) {
		t.Errorf("expected chained replacement to converge on the final value, got %v", group[0])
	}
}

func TestCascadeRebuildsMultiWithRefinedMember(t *testing.T) {
	s, dog, cat := testSession()
	a := &SObject{origin: 5, ts: s.freshTimestamp(), isNull: typesys.Unknown, utb: dog}
	b := s.NewObject(7, cat)
	m := s.Join(0, a, b).Value.(*Multi)

	refined, err := s.RefineIsNull(1, a, typesys.No)
	if err != nil {
		t.Fatalf("refining Unknown to No must succeed: %v", err)
	}

	stack := Slots{a}
	locals := Slots{m}
	replacements := map[Value]Value{}
	Replace(replacements, a, refined)

	s.Cascade([]Slots{stack, locals}, replacements)

	if stack[0] != Value(refined) {
		t.Errorf("the standalone occurrence must be replaced, got %v", stack[0])
	}
	rebuilt, ok := locals[0].(*Multi)
	if !ok {
		t.Fatalf("the Multi slot must still hold a Multi, got %T", locals[0])
	}
	if rebuilt == m {
		t.Fatalf("the Multi holding the refined member must be rebuilt, not left stale")
	}
	for _, member := range rebuilt.Values() {
		if member == SingleOrigin(a) {
			t.Errorf("the rebuilt Multi still contains the pre-refinement member")
		}
	}
	if rebuilt.IsNull() != typesys.No {
		t.Errorf("rebuilt Multi nullness = %s, want No (both members now non-null)", rebuilt.IsNull())
	}
}

func TestCascadeCollapsesMultiWhenMemberShed(t *testing.T) {
	s, dog, cat := testSession()
	a := s.NewObject(5, dog)
	b := s.NewObject(7, cat)
	m := s.Join(0, a, b).Value.(*Multi)

	group := Slots{m, a}
	replacements := map[Value]Value{}
	Replace(replacements, a, nil)

	s.Cascade([]Slots{group}, replacements)

	if group[0] != Value(b) {
		t.Errorf("shedding one of two members must collapse the Multi to the survivor, got %v", group[0])
	}
	if group[1] != nil {
		t.Errorf("the standalone shed occurrence must be cleared, got %v", group[1])
	}
}

func TestCascadeUpdatesAliasesOfRebuiltMulti(t *testing.T) {
	s, dog, cat := testSession()
	a := &SObject{origin: 5, ts: s.freshTimestamp(), isNull: typesys.Unknown, utb: dog}
	b := s.NewObject(7, cat)
	m := s.Join(0, a, b).Value.(*Multi)

	refined, err := s.RefineIsNull(1, a, typesys.No)
	if err != nil {
		t.Fatalf("refining Unknown to No must succeed: %v", err)
	}

	stack := Slots{m}
	locals := Slots{m}
	replacements := map[Value]Value{}
	Replace(replacements, a, refined)

	s.Cascade([]Slots{stack, locals}, replacements)

	if stack[0] != locals[0] {
		t.Errorf("every alias of the rebuilt Multi must resolve to the same new value, got %v vs %v", stack[0], locals[0])
	}
	if stack[0] == Value(m) {
		t.Errorf("aliased Multi slots must not be left holding the stale Multi")
	}
}
