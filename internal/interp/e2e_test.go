package interp_test

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/cwbudde/aicore/internal/cfg"
	"github.com/cwbudde/aicore/internal/code"
	"github.com/cwbudde/aicore/internal/domain"
	"github.com/cwbudde/aicore/internal/domain/numeric"
	"github.com/cwbudde/aicore/internal/domain/refval"
	"github.com/cwbudde/aicore/internal/instr"
	"github.com/cwbudde/aicore/internal/interp"
	"github.com/cwbudde/aicore/internal/resultio"
	"github.com/cwbudde/aicore/internal/typesys"
)

// These six cases are the end-to-end scenarios named by §8: a trivial NPE
// branch, a loop with a constant, a UTB intersection join, switch
// simplification, interruption, and a type-refining cast.

// TestTrivialNPEBranch: Object m(Object o){ if (o == null) return null; return o; }
func TestTrivialNPEBranch(t *testing.T) {
	owner := typesys.Intern("demo/Foo")
	// 0: aload_0 ; 1: ifnull -> 7 ; 4: aload_0 ; 5: areturn ; 7: aconst_null ; 8: areturn
	instructions := map[int]instr.Instruction{
		0: instr.LocalVar{Op: instr.Aload0},
		1: instr.Conditional{Op: instr.Ifnull, Target: 7},
		4: instr.LocalVar{Op: instr.Aload0},
		5: instr.Simple{Op: instr.Areturn},
		7: instr.Simple{Op: instr.AconstNull},
		8: instr.Simple{Op: instr.Areturn},
	}
	m := code.NewMethod(owner, "m", "(Ljava/lang/Object;)Ljava/lang/Object;", 1, 1, false, instructions, nil)
	h := typesys.NewMapHierarchy(map[typesys.ObjectType]typesys.ClassInfo{typesys.ObjectObject: {}})
	g := cfg.Build(m, h)
	d := domain.New(h)
	in := interp.New(m, g, d, interp.DefaultOptions())

	// The scenario's incoming local is isNull=Unknown. No public factory
	// produces that nullness directly (every factory knows one way or the
	// other); joining a same-origin Null with a same-origin non-null value
	// widens isNull to Unknown exactly as the fixpoint driver itself would
	// at a join point where one predecessor proved null and another didn't.
	unknownNull := d.Refs.Join(0, d.Refs.NullValue(-1), d.Refs.NonNullObjectValue(-1, typesys.ObjectObject)).Value.(refval.Value)
	locals := domain.Registers{unknownNull}

	result, err := in.Run(locals)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	branchLocals, ok := result.LocalsAt[7]
	if !ok {
		t.Fatalf("expected recorded locals at the true-branch pc 7")
	}
	branchRef := branchLocals.Get(0).(refval.Value)
	if _, isNull := branchRef.(*refval.Null); !isNull {
		t.Errorf("at the true branch, local 0 must become Null, got %T", branchRef)
	}

	fallLocals, ok := result.LocalsAt[4]
	if !ok {
		t.Fatalf("expected recorded locals at the false-branch pc 4")
	}
	fallRef := fallLocals.Get(0).(refval.Value)
	if fallRef.IsNull() != typesys.No {
		t.Errorf("at the false branch, local 0 must be refined to isNull=No, got %s", fallRef.IsNull())
	}

	ret5 := result.ReturnValues[5].(refval.Value)
	if ret5.IsNull() != typesys.No {
		t.Errorf("the false-branch return value must be isNull=No, got %s", ret5.IsNull())
	}
	ret8 := result.ReturnValues[8].(refval.Value)
	if _, isNull := ret8.(*refval.Null); !isNull {
		t.Errorf("the true-branch return value must be Null, got %T", ret8)
	}
}

// TestLoopWithConstant: iconst_5; istore_1; iconst_0; istore_2; Loop: iload_2;
// iload_1; if_icmpge END; iinc 2 1; goto Loop; END: iload_2; ireturn.
func TestLoopWithConstant(t *testing.T) {
	owner := typesys.Intern("demo/Foo")
	instructions := map[int]instr.Instruction{
		0:  instr.Simple{Op: instr.Iconst5},
		1:  instr.LocalVar{Op: instr.Istore1},
		2:  instr.Simple{Op: instr.Iconst0},
		3:  instr.LocalVar{Op: instr.Istore2},
		4:  instr.LocalVar{Op: instr.Iload2},
		5:  instr.LocalVar{Op: instr.Iload1},
		6:  instr.Conditional{Op: instr.IfIcmpge, Target: 15},
		9:  instr.IincInsn{Index: 2, Const: 1},
		12: instr.GotoInsn{Op: instr.Goto, Target: 4},
		15: instr.LocalVar{Op: instr.Iload2},
		16: instr.Simple{Op: instr.Ireturn},
	}
	m := code.NewMethod(owner, "m", "()I", 2, 3, true, instructions, nil)
	h := typesys.NewMapHierarchy(map[typesys.ObjectType]typesys.ClassInfo{typesys.ObjectObject: {}})
	g := cfg.Build(m, h)
	d := domain.New(h)
	in := interp.New(m, g, d, interp.DefaultOptions())

	result, err := in.Run(domain.Registers{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.WasAborted {
		t.Fatalf("this loop must converge well within the default budget")
	}

	endLocals := result.LocalsAt[15]
	local1 := endLocals.Get(1).(numeric.Int)
	if exact, precise := local1.Value(); !precise || exact != 5 {
		t.Errorf("local 1 at END = (%d, %v), want ExactInt(5)", exact, precise)
	}
	local2 := endLocals.Get(2).(numeric.Int)
	if _, precise := local2.Value(); precise {
		t.Errorf("local 2 (the loop counter) at END must have widened to AnyInt, stayed exact instead")
	}

	returned := result.ReturnValues[16].(numeric.Int)
	if _, precise := returned.Value(); precise {
		t.Errorf("the returned value must be AnyInt, got an exact value")
	}

	data, err := resultio.MarshalJSON(result)
	if err != nil {
		t.Fatalf("MarshalJSON returned error: %v", err)
	}
	snaps.MatchSnapshot(t, "loop_with_constant", string(data))
}

// TestUTBIntersectionJoin: SObject{utb=List} joined with SObject{utb=Set} at
// the same pc but different origins must produce a Multi whose UTB is the
// hierarchy's common supertype, here {Collection}.
func TestUTBIntersectionJoin(t *testing.T) {
	list := typesys.Intern("java/util/List")
	set := typesys.Intern("java/util/Set")
	collection := typesys.Intern("java/util/Collection")
	h := typesys.NewMapHierarchy(map[typesys.ObjectType]typesys.ClassInfo{
		typesys.ObjectObject: {},
		collection:           {Super: typesys.ObjectObject, Interface: true},
		list:                 {Super: typesys.ObjectObject, Interfaces: []typesys.ObjectType{collection}},
		set:                  {Super: typesys.ObjectObject, Interfaces: []typesys.ObjectType{collection}},
	})
	d := domain.New(h)
	a := d.Refs.NewObject(1, list)
	b := d.Refs.NewObject(2, set)

	joined := d.Refs.Join(0, a, b)
	multi, ok := joined.Value.(*refval.Multi)
	if !ok {
		t.Fatalf("join of distinct-origin SObjects = %T, want *refval.Multi", joined.Value)
	}
	if multi.IsPrecise() {
		t.Errorf("the joined Multi must not be precise")
	}
	if multi.UTB().String() != typesys.ObjectUTB(collection).String() {
		t.Errorf("joined UTB = %s, want {%s}", multi.UTB(), collection)
	}
}

// TestSwitchSimplification: a tableswitch whose every case offset equals
// the default is rewritten, in the raw instruction array, into
// `pop; goto 20` padded out with nop to the switch's original encoded
// length — the §4.3 "switch-all-same" peephole rule — before the CFG is
// ever built from it.
func TestSwitchSimplification(t *testing.T) {
	owner := typesys.Intern("demo/Foo")
	instructions := map[int]instr.Instruction{
		0: instr.Simple{Op: instr.Iconst1},
		1: instr.Switch{
			Op:      instr.Tableswitch,
			Default: 20,
			Cases: []instr.SwitchCase{
				{Value: 0, Target: 20},
				{Value: 1, Target: 20},
				{Value: 2, Target: 20},
			},
			EncodedLength: 19,
		},
		20: instr.Simple{Op: instr.Return},
	}
	m := code.NewMethod(owner, "m", "()V", 1, 0, true, instructions, nil)
	cfg.SimplifyBytecode(m)

	popInst, ok := m.At(1)
	if !ok || popInst.OpCode() != instr.Pop {
		t.Fatalf("pc 1 = %+v, want pop", popInst)
	}
	gotoInst, ok := m.At(2)
	if !ok {
		t.Fatalf("expected a goto at pc 2")
	}
	g, ok := gotoInst.(instr.GotoInsn)
	if !ok || g.Target != 20 {
		t.Fatalf("pc 2 = %+v, want a goto targeting pc 20", gotoInst)
	}
	for pc := 2 + g.Length(false); pc < 20; pc++ {
		i, ok := m.At(pc)
		if !ok || i.OpCode() != instr.Nop {
			t.Errorf("pc %d = %+v, want nop padding out to the original switch length", pc, i)
		}
	}

	graph := cfg.Build(m, nil)
	n, ok := graph.NodeAt(0)
	if !ok {
		t.Fatalf("expected a block starting at pc 0")
	}
	succ := graph.Successors(n.ID)
	if len(succ) != 1 {
		t.Fatalf("block containing the rewritten switch has %d successor edges, want 1: %v", len(succ), succ)
	}
	if graph.Node(succ[0]).StartPC != 20 {
		t.Errorf("the single successor must be the shared case/default target at pc 20, got %d", graph.Node(succ[0]).StartPC)
	}
}

// TestInterruption: a synthetic 2000-instruction method with
// maxEvaluationFactor=1.0 must abort at approximately 2000 step transitions.
func TestInterruption(t *testing.T) {
	const n = 2000
	owner := typesys.Intern("demo/Foo")
	instructions := make(map[int]instr.Instruction, n)
	for pc := 0; pc < n-1; pc++ {
		instructions[pc] = instr.Simple{Op: instr.Nop}
	}
	instructions[n-1] = instr.Simple{Op: instr.Return}
	m := code.NewMethod(owner, "m", "()V", 0, 0, true, instructions, nil)
	h := typesys.NewMapHierarchy(map[typesys.ObjectType]typesys.ClassInfo{typesys.ObjectObject: {}})
	g := cfg.Build(m, h)
	d := domain.New(h)
	opts := interp.DefaultOptions()
	opts.MaxEvaluationFactor = 1.0
	in := interp.New(m, g, d, opts)

	result, err := in.Run(domain.Registers{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !result.WasAborted {
		t.Fatalf("expected the 2000-instruction method to abort under maxEvaluationFactor=1.0")
	}
}

// TestTypeRefiningCast: aload_0; checkcast String; astore_1. Every later
// occurrence of local 0's pre-cast value must be replaced by the refined
// value (cascading refinement).
func TestTypeRefiningCast(t *testing.T) {
	owner := typesys.Intern("demo/Foo")
	str := typesys.Intern("java/lang/String")
	instructions := map[int]instr.Instruction{
		0: instr.LocalVar{Op: instr.Aload0},
		1: instr.TypeCheck{Op: instr.Checkcast, Target: str},
		4: instr.LocalVar{Op: instr.Astore1},
		5: instr.LocalVar{Op: instr.Aload0},
		6: instr.Simple{Op: instr.Pop},
		7: instr.Simple{Op: instr.Return},
	}
	m := code.NewMethod(owner, "m", "(Ljava/lang/Object;)V", 2, 2, false, instructions, nil)
	h := typesys.NewMapHierarchy(map[typesys.ObjectType]typesys.ClassInfo{
		typesys.ObjectObject: {},
		str:                  {Super: typesys.ObjectObject, Final: true},
	})
	g := cfg.Build(m, h)
	d := domain.New(h)
	in := interp.New(m, g, d, interp.DefaultOptions())

	original := d.Refs.InitializedObjectValue(-1, typesys.ObjectObject)
	result, err := in.Run(domain.Registers{original})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	postCastLocals, ok := result.LocalsAt[4]
	if !ok {
		t.Fatalf("expected recorded locals right after the checkcast, at pc 4")
	}
	refined := postCastLocals.Get(0).(refval.Value)
	if refined.UTB().String() != typesys.ObjectUTB(str).String() {
		t.Errorf("refined local 0 UTB = %s, want {%s}", refined.UTB(), str)
	}
	if refined == refval.Value(original) {
		t.Fatalf("refinement must produce a distinct value, not reuse the original")
	}

	laterLocals, ok := result.LocalsAt[5]
	if !ok {
		t.Fatalf("expected recorded locals at pc 5")
	}
	laterRef := laterLocals.Get(0).(refval.Value)
	if laterRef.UTB().String() != refined.UTB().String() {
		t.Errorf("the later occurrence of local 0 must carry the cascaded refinement, got UTB=%s want %s", laterRef.UTB(), refined.UTB())
	}

	data, err := resultio.MarshalJSON(result)
	if err != nil {
		t.Fatalf("MarshalJSON returned error: %v", err)
	}
	snaps.MatchSnapshot(t, "type_refining_cast", string(data))
}
