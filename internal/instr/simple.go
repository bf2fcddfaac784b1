package instr

import "github.com/cwbudde/aicore/internal/typesys"

// simpleProfile describes the implicit exceptions and stack effect of a
// no-operand opcode; every such opcode is one byte long. The table below
// holds one profile per opcode rather than recomputing it per instruction.
type simpleProfile struct {
	exceptions []typesys.ObjectType
	stackDelta int
}

var simpleProfiles = map[OpCode]simpleProfile{
	Nop:        {stackDelta: 0},
	AconstNull: {stackDelta: 1},
	IconstM1:   {stackDelta: 1}, Iconst0: {stackDelta: 1}, Iconst1: {stackDelta: 1},
	Iconst2: {stackDelta: 1}, Iconst3: {stackDelta: 1}, Iconst4: {stackDelta: 1}, Iconst5: {stackDelta: 1},
	Lconst0: {stackDelta: 2}, Lconst1: {stackDelta: 2},
	Fconst0: {stackDelta: 1}, Fconst1: {stackDelta: 1}, Fconst2: {stackDelta: 1},
	Dconst0: {stackDelta: 2}, Dconst1: {stackDelta: 2},
	Iaload: {stackDelta: -1, exceptions: []typesys.ObjectType{NullPointerException, ArrayIndexOutOfBounds}},
	Laload: {stackDelta: 0, exceptions: []typesys.ObjectType{NullPointerException, ArrayIndexOutOfBounds}},
	Faload: {stackDelta: -1, exceptions: []typesys.ObjectType{NullPointerException, ArrayIndexOutOfBounds}},
	Daload: {stackDelta: 0, exceptions: []typesys.ObjectType{NullPointerException, ArrayIndexOutOfBounds}},
	Aaload: {stackDelta: -1, exceptions: []typesys.ObjectType{NullPointerException, ArrayIndexOutOfBounds}},
	Baload: {stackDelta: -1, exceptions: []typesys.ObjectType{NullPointerException, ArrayIndexOutOfBounds}},
	Caload: {stackDelta: -1, exceptions: []typesys.ObjectType{NullPointerException, ArrayIndexOutOfBounds}},
	Saload: {stackDelta: -1, exceptions: []typesys.ObjectType{NullPointerException, ArrayIndexOutOfBounds}},
	Iastore: {stackDelta: -3, exceptions: []typesys.ObjectType{NullPointerException, ArrayIndexOutOfBounds}},
	Lastore: {stackDelta: -4, exceptions: []typesys.ObjectType{NullPointerException, ArrayIndexOutOfBounds}},
	Fastore: {stackDelta: -3, exceptions: []typesys.ObjectType{NullPointerException, ArrayIndexOutOfBounds}},
	Dastore: {stackDelta: -4, exceptions: []typesys.ObjectType{NullPointerException, ArrayIndexOutOfBounds}},
	Aastore: {stackDelta: -3, exceptions: []typesys.ObjectType{NullPointerException, ArrayIndexOutOfBounds, ArrayStoreException}},
	Bastore: {stackDelta: -3, exceptions: []typesys.ObjectType{NullPointerException, ArrayIndexOutOfBounds}},
	Castore: {stackDelta: -3, exceptions: []typesys.ObjectType{NullPointerException, ArrayIndexOutOfBounds}},
	Sastore: {stackDelta: -3, exceptions: []typesys.ObjectType{NullPointerException, ArrayIndexOutOfBounds}},
	Pop:  {stackDelta: -1}, Pop2: {stackDelta: -2},
	Dup: {stackDelta: 1}, DupX1: {stackDelta: 1}, DupX2: {stackDelta: 1},
	Dup2: {stackDelta: 2}, Dup2X1: {stackDelta: 2}, Dup2X2: {stackDelta: 2},
	Swap: {stackDelta: 0},
	Iadd: {stackDelta: -1}, Isub: {stackDelta: -1}, Imul: {stackDelta: -1},
	Idiv: {stackDelta: -1, exceptions: []typesys.ObjectType{ArithmeticException}},
	Irem: {stackDelta: -1, exceptions: []typesys.ObjectType{ArithmeticException}},
	Ineg: {stackDelta: 0},
	Ladd: {stackDelta: -2}, Fadd: {stackDelta: -1}, Dadd: {stackDelta: -2},
	Ishl: {stackDelta: -1}, Ishr: {stackDelta: -1}, Iushr: {stackDelta: -1},
	Iand: {stackDelta: -1}, Ior: {stackDelta: -1}, Ixor: {stackDelta: -1},
	I2l: {stackDelta: 1}, I2f: {stackDelta: 0}, I2d: {stackDelta: 1},
	L2i: {stackDelta: -1}, F2i: {stackDelta: 0}, D2i: {stackDelta: -1},
	Lcmp: {stackDelta: -3}, Fcmpl: {stackDelta: -1}, Fcmpg: {stackDelta: -1},
	Dcmpl: {stackDelta: -3}, Dcmpg: {stackDelta: -3},
	Ireturn: {stackDelta: -1}, Lreturn: {stackDelta: -2}, Freturn: {stackDelta: -1},
	Dreturn: {stackDelta: -2}, Areturn: {stackDelta: -1}, Return: {stackDelta: 0},
	Arraylength: {stackDelta: 0, exceptions: []typesys.ObjectType{NullPointerException}},
	Athrow:      {stackDelta: 0, exceptions: []typesys.ObjectType{Throwable}},
	Monitorenter: {stackDelta: -1, exceptions: []typesys.ObjectType{NullPointerException}},
	Monitorexit:  {stackDelta: -1, exceptions: []typesys.ObjectType{NullPointerException, IllegalMonitorStateException}},
}

// Simple is a no-operand, fixed-length (1 byte) instruction: arithmetic,
// stack shuffling, array element access, comparisons, and the unconditional
// return/throw forms.
type Simple struct {
	Op OpCode
}

func (Simple) isInstruction() {}

func (s Simple) OpCode() OpCode { return s.Op }

func (Simple) Length(bool) int { return 1 }

func (s Simple) StackSlotsChange() int {
	return simpleProfiles[s.Op].stackDelta
}

func (s Simple) JVMExceptions() []typesys.ObjectType {
	return simpleProfiles[s.Op].exceptions
}

func (s Simple) NextInstructions(pc int, regularOnly bool, lookup HandlerLookup, hierarchy typesys.Hierarchy) []int {
	switch s.Op {
	case Athrow:
		// athrow never falls through; its only successors are catch nodes,
		// resolved by the CFG builder (it must also decide whether the
		// abnormalReturn edge is needed for unhandled throwables).
		if regularOnly {
			return nil
		}
		return exceptionalSuccessors(pc, s.JVMExceptions(), lookup, hierarchy)
	case Ireturn, Lreturn, Freturn, Dreturn, Areturn, Return:
		return nil
	default:
		next := []int{fallthroughPC(pc, s, false)}
		if !regularOnly {
			next = append(next, exceptionalSuccessors(pc, s.JVMExceptions(), lookup, hierarchy)...)
		}
		return next
	}
}
