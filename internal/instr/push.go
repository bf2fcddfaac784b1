package instr

import "github.com/cwbudde/aicore/internal/typesys"

// ConstKind distinguishes what kind of constant a Ldc/LdcW/Ldc2W loads,
// since the abstract domain treats a pushed int/float differently from a
// pushed String/Class reference.
type ConstKind byte

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstLong
	ConstDouble
	ConstString
	ConstClass
)

// Push loads a literal onto the operand stack: the short immediate forms
// (bipush, sipush) or a constant-pool reference (ldc, ldc_w, ldc2_w).
type Push struct {
	Op   OpCode
	Kind ConstKind

	// IntValue holds the decoded operand for bipush/sipush. Ignored for the
	// ldc family, whose value lives in the constant pool the fixture loader
	// or class-file reader resolves ahead of time.
	IntValue int

	// ClassName is populated only when Kind is ConstClass, naming the type
	// literal (Foo.class) the ldc loads.
	ClassName typesys.ObjectType
}

func (Push) isInstruction() {}
func (p Push) OpCode() OpCode { return p.Op }

func (p Push) StackSlotsChange() int {
	if p.Op == Ldc2W {
		return 2
	}
	return 1
}

func (Push) JVMExceptions() []typesys.ObjectType { return nil }

func (p Push) Length(modifiedByWide bool) int {
	switch p.Op {
	case Bipush, Ldc:
		return 2
	case Sipush, LdcW, Ldc2W:
		return 3
	default:
		return 1
	}
}

func (p Push) NextInstructions(pc int, regularOnly bool, lookup HandlerLookup, hierarchy typesys.Hierarchy) []int {
	return []int{pc + p.Length(false)}
}
