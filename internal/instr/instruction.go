package instr

import "github.com/cwbudde/aicore/internal/typesys"

// HandlerRef is the minimal view of an exception handler table entry that
// instruction successor computation needs: where to jump, and which
// throwable type (if any) it catches. The owning code body is responsible
// for exposing its handler table through HandlerLookup; instr never
// constructs or stores a handler table itself.
type HandlerRef struct {
	CatchType    typesys.ObjectType
	HandlerPC    int
	HasCatchType bool // false means a finally handler: catches everything
}

// HandlerLookup is implemented by the code body (package code) so that
// instruction successor computation can find the handlers covering a given
// pc without importing the code package (which imports instr).
type HandlerLookup interface {
	HandlersCovering(pc int) []HandlerRef
}

// Instruction is the immutable, address-independent description of one
// bytecode operation. Every concrete instruction type in this package
// implements it. The set of concrete types is closed by convention (the
// unexported isInstruction method) — callers pattern-match with a type
// switch rather than relying on open extension.
type Instruction interface {
	isInstruction()

	// OpCode returns the instruction's opcode.
	OpCode() OpCode

	// Length returns the instruction's encoded byte length. modifiedByWide
	// is true when this instruction was prefixed by a `wide` opcode, which
	// widens certain single-byte operand forms (iload, istore, iinc, ret)
	// to two bytes.
	Length(modifiedByWide bool) int

	// NextInstructions returns every successor pc reachable from this
	// instruction at the given pc. When regularSuccessorsOnly is false, pcs
	// of exception handlers reachable via JVMExceptions are appended too
	// (deduplicated, table order), filtered against hierarchy so only
	// handlers whose catchType could actually match one of this
	// instruction's JVMExceptions are included; a handler whose catchType
	// is definitely incompatible with every possible exception is skipped,
	// and the scan stops at the first handler proven to catch all of them.
	// lookup may be nil, in which case no exceptional successors are
	// produced; hierarchy may be nil, in which case every covering handler
	// is treated as possibly applicable (same as Unknown).
	NextInstructions(pc int, regularSuccessorsOnly bool, lookup HandlerLookup, hierarchy typesys.Hierarchy) []int

	// JVMExceptions lists the exception types this instruction may
	// implicitly raise (e.g. NullPointerException on an array load),
	// independent of any configuration flag — the interpreter decides
	// whether to model them based on the options of §6.
	JVMExceptions() []typesys.ObjectType

	// StackSlotsChange is the net number of operand stack slots this
	// instruction pushes minus pops, assuming normal (non-exceptional)
	// completion.
	StackSlotsChange() int
}

// fallthroughPC returns pc+length, the only regular successor of an
// instruction that neither branches nor ends the method.
func fallthroughPC(pc int, inst Instruction, modifiedByWide bool) int {
	return pc + inst.Length(modifiedByWide)
}

// exceptionalSuccessors returns the handler pcs that could catch one of
// exTypes, in table order, each at most once. A handler whose catchType is
// provably incompatible with every type in exTypes (IsSubtypeOf is No for
// all of them) is skipped; hierarchy being nil or any comparison being
// Unknown means the handler is kept. The scan stops as soon as a handler is
// found that certainly catches every type in exTypes, since table order is
// first-match-wins and no later handler could ever be reached.
func exceptionalSuccessors(pc int, exTypes []typesys.ObjectType, lookup HandlerLookup, hierarchy typesys.Hierarchy) []int {
	if lookup == nil || len(exTypes) == 0 {
		return nil
	}
	var out []int
	seen := map[int]bool{}
	for _, h := range lookup.HandlersCovering(pc) {
		if !handlerApplies(h, exTypes, hierarchy) {
			continue
		}
		if !seen[h.HandlerPC] {
			seen[h.HandlerPC] = true
			out = append(out, h.HandlerPC)
		}
		if handlerCertainlyCatchesAll(h, exTypes, hierarchy) {
			break
		}
	}
	return out
}

// handlerApplies reports whether h could possibly catch at least one of
// exTypes: true for a finally-style (no catchType) handler, true whenever
// hierarchy is nil or cannot rule h out for any exType.
func handlerApplies(h HandlerRef, exTypes []typesys.ObjectType, hierarchy typesys.Hierarchy) bool {
	if !h.HasCatchType || hierarchy == nil {
		return true
	}
	for _, ex := range exTypes {
		if hierarchy.IsSubtypeOf(ex, h.CatchType) != typesys.No {
			return true
		}
	}
	return false
}

// handlerCertainlyCatchesAll reports whether h is proven to catch every
// type in exTypes, meaning no instruction/table entry after it could ever
// be reached for this JVMExceptions() set.
func handlerCertainlyCatchesAll(h HandlerRef, exTypes []typesys.ObjectType, hierarchy typesys.Hierarchy) bool {
	if !h.HasCatchType {
		return true
	}
	if hierarchy == nil {
		return false
	}
	for _, ex := range exTypes {
		if hierarchy.IsSubtypeOf(ex, h.CatchType) != typesys.Yes {
			return false
		}
	}
	return true
}
