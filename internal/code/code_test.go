package code

import (
	"testing"

	"github.com/cwbudde/aicore/internal/instr"
	"github.com/cwbudde/aicore/internal/typesys"
)

func simpleMethod() *Method {
	owner := typesys.Intern("demo/Foo")
	instructions := map[int]instr.Instruction{
		0: instr.LocalVar{Op: instr.Iload0},
		1: instr.Simple{Op: instr.Ireturn},
	}
	return NewMethod(owner, "m", "()I", 1, 1, false, instructions, nil)
}

func TestMethodPCsAreSorted(t *testing.T) {
	m := simpleMethod()
	pcs := m.PCs()
	if len(pcs) != 2 || pcs[0] != 0 || pcs[1] != 1 {
		t.Fatalf("PCs() = %v, want [0 1]", pcs)
	}
}

func TestMethodEntryPC(t *testing.T) {
	if got := simpleMethod().EntryPC(); got != 0 {
		t.Errorf("EntryPC() = %d, want 0", got)
	}
	empty := NewMethod(typesys.ObjectObject, "e", "()V", 0, 0, true, map[int]instr.Instruction{}, nil)
	if got := empty.EntryPC(); got != -1 {
		t.Errorf("EntryPC() on an empty method = %d, want -1", got)
	}
}

func TestMethodAt(t *testing.T) {
	m := simpleMethod()
	if _, ok := m.At(0); !ok {
		t.Errorf("At(0) not found")
	}
	if _, ok := m.At(5); ok {
		t.Errorf("At(5) should not resolve for an out-of-range pc")
	}
}

func TestHandlersCoveringRespectsRange(t *testing.T) {
	handlers := []ExceptionHandler{
		{StartPC: 0, EndPC: 5, HandlerPC: 10, CatchType: typesys.Intern("java/lang/Exception")},
		{StartPC: 0, EndPC: 5, HandlerPC: 20, CatchesAll: true},
	}
	owner := typesys.Intern("demo/Foo")
	m := NewMethod(owner, "m", "()V", 1, 1, false, map[int]instr.Instruction{
		2: instr.Simple{Op: instr.Nop},
		9: instr.Simple{Op: instr.Return},
	}, handlers)

	covering := m.HandlersCovering(2)
	if len(covering) != 2 {
		t.Fatalf("HandlersCovering(2) = %v, want 2 entries", covering)
	}
	if covering[0].HandlerPC != 10 || !covering[0].HasCatchType {
		t.Errorf("first handler = %+v, want HandlerPC=10 HasCatchType=true", covering[0])
	}
	if covering[1].HandlerPC != 20 || covering[1].HasCatchType {
		t.Errorf("second handler = %+v, want HandlerPC=20 HasCatchType=false", covering[1])
	}
	if got := m.HandlersCovering(9); len(got) != 0 {
		t.Errorf("HandlersCovering(9) = %v, want none (outside range)", got)
	}
}

func TestMethodSuccessorsDelegatesToInstruction(t *testing.T) {
	m := simpleMethod()
	succ := m.Successors(0, true, nil)
	if len(succ) != 1 || succ[0] != 1 {
		t.Fatalf("Successors(0) = %v, want [1]", succ)
	}
	if got := m.Successors(1, true, nil); got != nil {
		t.Errorf("Successors of a return instruction = %v, want nil", got)
	}
	if got := m.Successors(99, true, nil); got != nil {
		t.Errorf("Successors of an unknown pc = %v, want nil", got)
	}
}
