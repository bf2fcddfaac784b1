package instr

import "github.com/cwbudde/aicore/internal/typesys"

// localVarDelta gives the stack effect of a variable-index load/store; the
// fixed-index short forms (iload_0 etc.) share the same effect as their
// indexed counterpart.
var localVarDelta = map[OpCode]int{
	Iload: 1, Lload: 2, Fload: 1, Dload: 2, Aload: 1,
	Iload0: 1, Iload1: 1, Iload2: 1, Iload3: 1,
	Aload0: 1, Aload1: 1, Aload2: 1, Aload3: 1,
	Istore: -1, Lstore: -2, Fstore: -1, Dstore: -2, Astore: -1,
	Istore0: -1, Istore1: -1, Istore2: -1, Istore3: -1,
	Astore0: -1, Astore1: -1, Astore2: -1, Astore3: -1,
}

// fixedIndex maps the short opcode forms (iload_0, astore_3, ...) to the
// local variable index they hard-code.
var fixedIndex = map[OpCode]int{
	Iload0: 0, Iload1: 1, Iload2: 2, Iload3: 3,
	Aload0: 0, Aload1: 1, Aload2: 2, Aload3: 3,
	Istore0: 0, Istore1: 1, Istore2: 2, Istore3: 3,
	Astore0: 0, Astore1: 1, Astore2: 2, Astore3: 3,
}

// LocalVar is a load from or store to a local variable slot, in either its
// explicit-index form (iload, astore, ...) or one of the fixed-index short
// forms (iload_0, astore_3, ...). The short forms always report their
// hard-coded Index and are never subject to the wide prefix.
type LocalVar struct {
	Op    OpCode
	Index int
}

func (LocalVar) isInstruction()      {}
func (l LocalVar) OpCode() OpCode    { return l.Op }
func (l LocalVar) StackSlotsChange() int { return localVarDelta[l.Op] }
func (LocalVar) JVMExceptions() []typesys.ObjectType { return nil }

func (l LocalVar) isShortForm() bool {
	_, ok := fixedIndex[l.Op]
	return ok
}

func (l LocalVar) Length(modifiedByWide bool) int {
	if l.isShortForm() {
		return 1
	}
	if modifiedByWide {
		return 4
	}
	return 2
}

func (l LocalVar) NextInstructions(pc int, regularOnly bool, lookup HandlerLookup, hierarchy typesys.Hierarchy) []int {
	return []int{pc + l.Length(false)}
}

// ResolvedIndex returns the effective local variable index: the hard-coded
// index for a short form (whatever Index holds), Index otherwise.
func (l LocalVar) ResolvedIndex() int {
	if idx, ok := fixedIndex[l.Op]; ok {
		return idx
	}
	return l.Index
}

// IincInsn increments a local int variable by a constant amount; it neither
// pushes nor pops any operand stack slot.
type IincInsn struct {
	Index int
	Const int
}

func (IincInsn) isInstruction()       {}
func (IincInsn) OpCode() OpCode       { return Iinc }
func (IincInsn) StackSlotsChange() int { return 0 }
func (IincInsn) JVMExceptions() []typesys.ObjectType { return nil }

func (IincInsn) Length(modifiedByWide bool) int {
	if modifiedByWide {
		return 6
	}
	return 3
}

func (i IincInsn) NextInstructions(pc int, regularOnly bool, lookup HandlerLookup, hierarchy typesys.Hierarchy) []int {
	return []int{pc + i.Length(false)}
}

// RetInsn returns control to the address saved in a local variable by a
// preceding jsr; its successor set cannot be computed without knowledge of
// the call site, so it is always resolved by the CFG builder's subroutine
// analysis rather than NextInstructions.
type RetInsn struct {
	Index int
}

func (RetInsn) isInstruction()       {}
func (RetInsn) OpCode() OpCode       { return Ret }
func (RetInsn) StackSlotsChange() int { return 0 }
func (RetInsn) JVMExceptions() []typesys.ObjectType { return nil }

func (RetInsn) Length(modifiedByWide bool) int {
	if modifiedByWide {
		return 4
	}
	return 2
}

func (RetInsn) NextInstructions(pc int, regularOnly bool, lookup HandlerLookup, hierarchy typesys.Hierarchy) []int {
	return nil
}
