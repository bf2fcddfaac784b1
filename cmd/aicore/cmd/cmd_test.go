package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/aicore/internal/cfg"
	"github.com/cwbudde/aicore/internal/domain"
	"github.com/cwbudde/aicore/internal/domain/numeric"
	"github.com/cwbudde/aicore/internal/domain/refval"
	"github.com/cwbudde/aicore/internal/instr"
	"github.com/cwbudde/aicore/internal/typesys"
)

const testFixtureYAML = `
class: demo/Foo
hierarchy:
  - type: demo/Foo
    super: java/lang/Object
methods:
  - name: identity
    descriptor: "(I)I"
    maxStack: 1
    maxLocals: 1
    static: true
    code:
      - {pc: 0, op: iload_0}
      - {pc: 1, op: ireturn}
`

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.yaml")
	if err := os.WriteFile(path, []byte(testFixtureYAML), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestLoadMethodReadsFixtureAndMethod(t *testing.T) {
	path := writeFixture(t)
	m, hierarchy, err := loadMethod(path, "identity")
	if err != nil {
		t.Fatalf("loadMethod returned error: %v", err)
	}
	if m.Name != "identity" {
		t.Errorf("Name = %q, want identity", m.Name)
	}
	if hierarchy == nil {
		t.Errorf("expected a non-nil hierarchy")
	}
}

func TestLoadMethodReportsUnknownMethod(t *testing.T) {
	path := writeFixture(t)
	if _, _, err := loadMethod(path, "missing"); err == nil {
		t.Fatalf("expected an error for an unknown method name")
	}
}

func TestLoadMethodReportsMissingFile(t *testing.T) {
	if _, _, err := loadMethod(filepath.Join(t.TempDir(), "nope.yaml"), "identity"); err == nil {
		t.Fatalf("expected an error for a missing fixture file")
	}
}

func TestDescribeInstructionCoversEachShape(t *testing.T) {
	cases := []instr.Instruction{
		instr.LocalVar{Op: instr.Iload0},
		instr.IincInsn{Index: 1, Const: 2},
		instr.RetInsn{Index: 3},
		instr.Push{Op: instr.Bipush, Kind: instr.ConstInt, IntValue: 7},
		instr.Push{Op: instr.Ldc, Kind: instr.ConstString},
		instr.Conditional{Op: instr.Ifeq, Target: 5},
		instr.GotoInsn{Op: instr.Goto, Target: 5},
		instr.Switch{Op: instr.Tableswitch, Default: 0},
		instr.FieldRef{Op: instr.Getfield, Owner: typesys.Intern("demo/Foo"), Name: "x"},
		instr.MethodRef{Op: instr.Invokevirtual, Owner: typesys.Intern("demo/Foo"), Name: "m"},
		instr.NewInsn{Class: typesys.Intern("demo/Foo")},
		instr.NewArray{Op: instr.Newarray, Base: instr.ArrayInt},
		instr.TypeCheck{Op: instr.Checkcast, Target: typesys.Intern("demo/Foo")},
		instr.Simple{Op: instr.Nop},
	}
	for _, c := range cases {
		if got := describeInstruction(c); got == "" {
			t.Errorf("describeInstruction(%T) returned an empty string", c)
		}
	}
}

func TestNodeLabelCoversEveryKind(t *testing.T) {
	cases := []*cfg.Node{
		{Kind: cfg.Block, StartPC: 0, EndPC: 3},
		{Kind: cfg.Catch, StartPC: 10},
		{Kind: cfg.NormalReturn},
		{Kind: cfg.AbnormalReturn},
	}
	for _, n := range cases {
		if got := nodeLabel(n); got == "" {
			t.Errorf("nodeLabel(%v) returned an empty string", n.Kind)
		}
	}
}

func TestDescribeValueAndRefKind(t *testing.T) {
	if got := describeValue(nil); got != "<empty>" {
		t.Errorf("describeValue(nil) = %q, want <empty>", got)
	}
	if got := describeValue(numeric.ExactInt(3)); got == "" {
		t.Errorf("describeValue(int) must not be empty")
	}

	h := typesys.NewMapHierarchy(map[typesys.ObjectType]typesys.ClassInfo{typesys.ObjectObject: {}})
	d := domain.New(h)
	ref := d.Refs.NonNullObjectValue(0, typesys.ObjectObject)
	if got := describeValue(ref); got == "" {
		t.Errorf("describeValue(ref) must not be empty")
	}

	kinds := []refval.Value{
		d.Refs.NullValue(0),
		d.Refs.NewArray(0, typesys.NewArrayType(typesys.Int, 1)),
		d.Refs.NewObject(0, typesys.ObjectObject),
	}
	for _, k := range kinds {
		if got := describeRefKind(k); got == "Value" {
			t.Errorf("describeRefKind(%T) fell through to the default case", k)
		}
	}
}

func TestSeedLocalsDefaultsToNonNullObjectReceiver(t *testing.T) {
	owner := typesys.Intern("demo/Foo")
	h := typesys.NewMapHierarchy(map[typesys.ObjectType]typesys.ClassInfo{typesys.ObjectObject: {}, owner: {Super: typesys.ObjectObject}})
	d := domain.New(h)
	path := writeFixture(t)
	m, _, err := loadMethod(path, "identity")
	if err != nil {
		t.Fatalf("loadMethod returned error: %v", err)
	}
	runDomainKind = "refs"
	locals := seedLocals(m, d)
	if len(locals) != m.MaxLocals {
		t.Fatalf("seedLocals produced %d locals, want %d", len(locals), m.MaxLocals)
	}
	if _, ok := locals.Get(0).(refval.Value); !ok {
		t.Errorf("with domain=refs, local 0 should be a refval.Value, got %T", locals.Get(0))
	}

	runDomainKind = "ints"
	locals = seedLocals(m, d)
	if _, ok := locals.Get(0).(numeric.Int); !ok {
		t.Errorf("with domain=ints, local 0 should be a numeric.Int, got %T", locals.Get(0))
	}
}
