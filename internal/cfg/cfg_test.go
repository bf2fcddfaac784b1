package cfg

import (
	"testing"

	"github.com/cwbudde/aicore/internal/code"
	"github.com/cwbudde/aicore/internal/instr"
	"github.com/cwbudde/aicore/internal/typesys"
)

// branchingMethod builds:
//
//	0: aload_0
//	1: ifnonnull -> 7
//	4: aconst_null
//	5: areturn
//	7: aload_0
//	8: areturn
func branchingMethod() *code.Method {
	owner := typesys.Intern("demo/Foo")
	instructions := map[int]instr.Instruction{
		0: instr.LocalVar{Op: instr.Aload0},
		1: instr.Conditional{Op: instr.Ifnonnull, Target: 7},
		4: instr.Simple{Op: instr.AconstNull},
		5: instr.Simple{Op: instr.Areturn},
		7: instr.LocalVar{Op: instr.Aload0},
		8: instr.Simple{Op: instr.Areturn},
	}
	return code.NewMethod(owner, "m", "(Ljava/lang/Object;)Ljava/lang/Object;", 2, 1, false, instructions, nil)
}

func TestBuildSplitsAtBranchLeaders(t *testing.T) {
	g := Build(branchingMethod(), nil)

	blockStarts := map[int]bool{}
	for _, n := range g.Nodes {
		if n.Kind == Block {
			blockStarts[n.StartPC] = true
		}
	}
	for _, want := range []int{0, 4, 7} {
		if !blockStarts[want] {
			t.Errorf("expected a block leader at pc %d, got starts %v", want, blockStarts)
		}
	}
}

func TestBuildWiresConditionalBothSuccessors(t *testing.T) {
	g := Build(branchingMethod(), nil)
	n0, ok := g.NodeAt(0)
	if !ok {
		t.Fatalf("expected a node at pc 0")
	}
	succ := g.Successors(n0.ID)
	if len(succ) != 2 {
		t.Fatalf("block starting at pc 0 has %d successors, want 2: %v", len(succ), succ)
	}
	starts := map[int]bool{}
	for _, id := range succ {
		starts[g.Node(id).StartPC] = true
	}
	if !starts[4] || !starts[7] {
		t.Errorf("expected successors at pc 4 and 7, got starts %v", starts)
	}
}

func TestBuildConnectsReturnsToNormalReturn(t *testing.T) {
	g := Build(branchingMethod(), nil)
	var normalReturnID int = -1
	for _, n := range g.Nodes {
		if n.Kind == NormalReturn {
			normalReturnID = n.ID
		}
	}
	if normalReturnID == -1 {
		t.Fatalf("graph has no NormalReturn sink")
	}
	preds := g.Predecessors(normalReturnID)
	if len(preds) != 2 {
		t.Fatalf("expected both return blocks to reach NormalReturn, got %d predecessors", len(preds))
	}
}

func TestNodePCsReturnsContainedRange(t *testing.T) {
	g := Build(branchingMethod(), nil)
	n, ok := g.NodeAt(0)
	if !ok {
		t.Fatalf("expected a node at pc 0")
	}
	pcs := n.PCs(g)
	if len(pcs) != 2 || pcs[0] != 0 || pcs[1] != 1 {
		t.Fatalf("PCs() for the entry block = %v, want [0 1]", pcs)
	}
}

func TestBuildWithExceptionHandler(t *testing.T) {
	owner := typesys.Intern("demo/Foo")
	instructions := map[int]instr.Instruction{
		0: instr.FieldRef{Op: instr.Getfield, Owner: owner, Name: "x", FieldType: typesys.Int},
		3: instr.Simple{Op: instr.Ireturn},
		6: instr.Simple{Op: instr.Iconst0},
		7: instr.Simple{Op: instr.Ireturn},
	}
	handlers := []code.ExceptionHandler{
		{StartPC: 0, EndPC: 3, HandlerPC: 6, CatchType: instr.NullPointerException},
	}
	m := code.NewMethod(owner, "m", "()I", 2, 1, false, instructions, handlers)
	g := Build(m, nil)

	var catchID = -1
	for _, n := range g.Nodes {
		if n.Kind == Catch {
			catchID = n.ID
		}
	}
	if catchID == -1 {
		t.Fatalf("expected a Catch node for the handler at pc 6")
	}
	n0, ok := g.NodeAt(0)
	if !ok {
		t.Fatalf("expected a block at pc 0")
	}
	found := false
	for _, s := range g.Successors(n0.ID) {
		if s == catchID {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the getfield block to reach the catch node")
	}
}

func TestBuildEmptyMethod(t *testing.T) {
	owner := typesys.Intern("demo/Foo")
	m := code.NewMethod(owner, "m", "()V", 0, 0, true, map[int]instr.Instruction{}, nil)
	g := Build(m, nil)
	if len(g.Nodes) != 1 || g.Nodes[0].Kind != NormalReturn {
		t.Fatalf("empty method graph = %+v, want a single NormalReturn sink", g.Nodes)
	}
}

// TestBuildResolvesNestedSubroutinesIndependently builds subroutine A whose
// body calls subroutine B:
//
//	0:  jsr 4       -- call A, resume at 3
//	3:  return
//	4:  astore_1    -- A
//	5:  jsr 10      -- call B, resume at 8
//	8:  ret 1       -- A's ret
//	10: astore_2    -- B
//	11: ret 2       -- B's ret
//
// A's ret must gain an edge to pc 3 and B's ret one to pc 8; B's ret must
// NOT be wired to A's caller's return pc 3.
func TestBuildResolvesNestedSubroutinesIndependently(t *testing.T) {
	owner := typesys.Intern("demo/Foo")
	instructions := map[int]instr.Instruction{
		0:  instr.JsrInsn{Op: instr.Jsr, Target: 4},
		3:  instr.Simple{Op: instr.Return},
		4:  instr.LocalVar{Op: instr.Astore1},
		5:  instr.JsrInsn{Op: instr.Jsr, Target: 10},
		8:  instr.RetInsn{Index: 1},
		10: instr.LocalVar{Op: instr.Astore2},
		11: instr.RetInsn{Index: 2},
	}
	m := code.NewMethod(owner, "m", "()V", 1, 3, true, instructions, nil)
	g := Build(m, nil)

	succStarts := func(startPC int) map[int]bool {
		n, ok := g.NodeAt(startPC)
		if !ok {
			t.Fatalf("expected a block starting at pc %d", startPC)
		}
		out := map[int]bool{}
		for _, s := range g.Successors(n.ID) {
			out[g.Node(s).StartPC] = true
		}
		return out
	}

	if starts := succStarts(8); !starts[3] {
		t.Errorf("A's ret (pc 8) must be wired to A's caller's return pc 3, successors = %v", starts)
	}
	if starts := succStarts(10); !starts[8] {
		t.Errorf("B's ret (pc 11) must be wired to B's caller's return pc 8, successors = %v", starts)
	}
	if starts := succStarts(10); starts[3] {
		t.Errorf("B's ret (pc 11) must not leak an edge to the outer subroutine's return pc 3, successors = %v", starts)
	}
}

// TestBuildFiltersIncompatibleHandlerByHierarchy builds a getfield (which
// can only throw NullPointerException) guarded by two overlapping
// handlers: one declared to catch java/io/IOException at pc 10, and a
// catch-all at pc 20. Without hierarchy-aware filtering the builder would
// wire an edge to both; since NullPointerException is never a subtype of
// IOException, only the catch-all edge must exist.
func TestBuildFiltersIncompatibleHandlerByHierarchy(t *testing.T) {
	owner := typesys.Intern("demo/Foo")
	ioException := typesys.Intern("java/io/IOException")
	instructions := map[int]instr.Instruction{
		0:  instr.LocalVar{Op: instr.Aload0},
		1:  instr.FieldRef{Op: instr.Getfield, Owner: owner, Name: "x", FieldType: typesys.Int},
		4:  instr.Simple{Op: instr.Ireturn},
		10: instr.Simple{Op: instr.Return},
		20: instr.Simple{Op: instr.Return},
	}
	handlers := []code.ExceptionHandler{
		{StartPC: 0, EndPC: 4, HandlerPC: 10, CatchType: ioException},
		{StartPC: 0, EndPC: 4, HandlerPC: 20, CatchesAll: true},
	}
	m := code.NewMethod(owner, "m", "()I", 2, 1, false, instructions, handlers)
	h := typesys.NewMapHierarchy(map[typesys.ObjectType]typesys.ClassInfo{
		typesys.ObjectObject:       {},
		instr.NullPointerException: {Super: typesys.ObjectObject},
		ioException:                {Super: typesys.ObjectObject},
	})
	g := Build(m, h)

	n0, ok := g.NodeAt(0)
	if !ok {
		t.Fatalf("expected a block starting at pc 0")
	}
	var reachedStarts []int
	for _, s := range g.Successors(n0.ID) {
		reachedStarts = append(reachedStarts, g.Node(s).StartPC)
	}
	sawIOHandler, sawCatchAll := false, false
	for _, start := range reachedStarts {
		if start == 10 {
			sawIOHandler = true
		}
		if start == 20 {
			sawCatchAll = true
		}
	}
	if sawIOHandler {
		t.Errorf("getfield's NullPointerException must not reach the IOException handler at pc 10, successors = %v", reachedStarts)
	}
	if !sawCatchAll {
		t.Errorf("getfield's NullPointerException must still reach the catch-all handler at pc 20, successors = %v", reachedStarts)
	}
}
