package instr

import "github.com/cwbudde/aicore/internal/typesys"

// conditionalNegation pairs every conditional branch opcode with the
// opcode testing its negation, used by the CFG peephole simplifier to fold
// constructs like "ifeq L1; goto L2; L1: ..." into a single negated branch.
var conditionalNegation = map[OpCode]OpCode{
	Ifeq: Ifne, Ifne: Ifeq,
	Iflt: Ifge, Ifge: Iflt,
	Ifgt: Ifle, Ifle: Ifgt,
	IfIcmpeq: IfIcmpne, IfIcmpne: IfIcmpeq,
	IfIcmplt: IfIcmpge, IfIcmpge: IfIcmplt,
	IfIcmpgt: IfIcmple, IfIcmple: IfIcmpgt,
	IfAcmpeq: IfAcmpne, IfAcmpne: IfAcmpeq,
	Ifnull: Ifnonnull, Ifnonnull: Ifnull,
}

var conditionalStackDelta = map[OpCode]int{
	Ifeq: -1, Ifne: -1, Iflt: -1, Ifge: -1, Ifgt: -1, Ifle: -1,
	Ifnull: -1, Ifnonnull: -1,
	IfIcmpeq: -2, IfIcmpne: -2, IfIcmplt: -2, IfIcmpge: -2, IfIcmpgt: -2, IfIcmple: -2,
	IfAcmpeq: -2, IfAcmpne: -2,
}

// Conditional is a two-way branch: ifeq/ifne/..., if_icmp*, if_acmp*,
// ifnull/ifnonnull. Target is the already-resolved absolute pc the branch
// jumps to when its test succeeds; the fallthrough pc is the other arm.
type Conditional struct {
	Op     OpCode
	Target int
}

func (Conditional) isInstruction()   {}
func (c Conditional) OpCode() OpCode { return c.Op }
func (c Conditional) StackSlotsChange() int { return conditionalStackDelta[c.Op] }
func (Conditional) JVMExceptions() []typesys.ObjectType { return nil }
func (Conditional) Length(modifiedByWide bool) int      { return 3 }

func (c Conditional) NextInstructions(pc int, regularOnly bool, lookup HandlerLookup, hierarchy typesys.Hierarchy) []int {
	return []int{pc + c.Length(false), c.Target}
}

// Negate returns the semantically inverted form of this test (ifeq <-> ifne,
// if_icmplt <-> if_icmpge, ...), used by the confused-if peephole rewrite.
func (c Conditional) Negate() Conditional {
	return Conditional{Op: conditionalNegation[c.Op], Target: c.Target}
}

// GotoInsn is an unconditional branch, encoded either as a 2-byte (goto) or
// 4-byte (goto_w) signed offset; Target is always the resolved absolute pc.
type GotoInsn struct {
	Op     OpCode
	Target int
}

func (GotoInsn) isInstruction()   {}
func (g GotoInsn) OpCode() OpCode { return g.Op }
func (GotoInsn) StackSlotsChange() int { return 0 }
func (GotoInsn) JVMExceptions() []typesys.ObjectType { return nil }

func (g GotoInsn) Length(modifiedByWide bool) int {
	if g.Op == GotoW {
		return 5
	}
	return 3
}

func (g GotoInsn) NextInstructions(pc int, regularOnly bool, lookup HandlerLookup, hierarchy typesys.Hierarchy) []int {
	return []int{g.Target}
}

// JsrInsn pushes a return address and transfers control into a subroutine;
// resolving its regular return edge requires pairing it with the
// subroutine's ret, which the CFG builder's subroutine analysis performs.
type JsrInsn struct {
	Op     OpCode
	Target int
}

func (JsrInsn) isInstruction()   {}
func (j JsrInsn) OpCode() OpCode { return j.Op }
func (JsrInsn) StackSlotsChange() int { return 1 }
func (JsrInsn) JVMExceptions() []typesys.ObjectType { return nil }

func (j JsrInsn) Length(modifiedByWide bool) int {
	if j.Op == JsrW {
		return 5
	}
	return 3
}

func (j JsrInsn) NextInstructions(pc int, regularOnly bool, lookup HandlerLookup, hierarchy typesys.Hierarchy) []int {
	return []int{j.Target}
}
