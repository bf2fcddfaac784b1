package cfg

import (
	"math"

	"github.com/cwbudde/aicore/internal/code"
	"github.com/cwbudde/aicore/internal/instr"
)

// SimplifyBytecode runs the peephole simplifier over method's raw
// instruction array, in place, before a CFG is ever built from it. Every
// rewrite is length-preserving (padding with nop, never shifting a later
// instruction's pc) so that every other pc already referenced by a branch
// target, a switch table, or an exception handler's range stays valid
// without re-resolution. On any instruction shape the simplifier doesn't
// recognize, it leaves that pc untouched; callers then get a CFG built from
// whatever did or didn't get simplified, never a corrupted instruction
// array.
//
// The six rewrites applied, one decision per original leader pc:
//
//   - goto L, where L is the immediately following pc: replaced by nops.
//   - a chain of gotos (goto -> goto -> ... -> L): collapsed to a single
//     goto L, when the new offset still fits the encoding's operand width.
//   - a conditional branch whose target is the immediately following pc:
//     replaced by a pop (or pop2, for the two-operand compares) and nops.
//   - the "useless if" shape, `if cond -> L ; goto L` (both arms land on
//     the same following pc): replaced by pop(/pop2) and nops.
//   - the "confused if" shape, `if cond -> L ; goto M` with L the
//     following pc and M elsewhere, where nothing else jumps into the
//     goto: replaced by a negated conditional targeting M directly,
//     followed by nops where the goto was.
//   - a switch whose every case (and the default) targets the same pc:
//     replaced by a pop, a goto to that pc, and nops.
func SimplifyBytecode(method *code.Method) {
	pcs := method.PCs()
	if len(pcs) == 0 {
		return
	}
	targeted := explicitJumpTargets(method)

	snapshot := make(map[int]instr.Instruction, len(pcs))
	for _, pc := range pcs {
		if i, ok := method.At(pc); ok {
			snapshot[pc] = i
		}
	}

	updates := map[int]instr.Instruction{}
	for _, pc := range pcs {
		inst, ok := snapshot[pc]
		if !ok {
			continue
		}
		switch v := inst.(type) {
		case instr.GotoInsn:
			simplifyGoto(pc, v, snapshot, updates)
		case instr.Conditional:
			simplifyConditional(pc, v, snapshot, targeted, updates)
		case instr.Switch:
			simplifySwitch(pc, v, updates)
		}
	}
	if len(updates) > 0 {
		method.SetInstructions(updates)
	}
}

// explicitJumpTargets collects every pc any instruction or exception
// handler explicitly names as a destination: goto/jsr/conditional targets,
// switch default and case targets, and handler entry pcs. It deliberately
// does not include implicit fallthrough edges, since the one thing it is
// used for — the confused-if precondition — needs to know whether the
// middle goto is reachable any way *other than* falling through from the
// conditional being rewritten.
func explicitJumpTargets(method *code.Method) map[int]bool {
	targeted := map[int]bool{}
	for _, pc := range method.PCs() {
		inst, ok := method.At(pc)
		if !ok {
			continue
		}
		switch v := inst.(type) {
		case instr.GotoInsn:
			targeted[v.Target] = true
		case instr.JsrInsn:
			targeted[v.Target] = true
		case instr.Conditional:
			targeted[v.Target] = true
		case instr.Switch:
			targeted[v.Default] = true
			for _, c := range v.Cases {
				targeted[c.Target] = true
			}
		}
	}
	for _, h := range method.Handlers() {
		targeted[h.HandlerPC] = true
	}
	return targeted
}

func fitsSigned16(offset int) bool {
	return offset >= math.MinInt16 && offset <= math.MaxInt16
}

func nopRange(start, end int, updates map[int]instr.Instruction) {
	for pc := start; pc < end; pc++ {
		updates[pc] = instr.Simple{Op: instr.Nop}
	}
}

func popForDelta(delta int) instr.OpCode {
	if delta <= -2 {
		return instr.Pop2
	}
	return instr.Pop
}

// simplifyGoto handles both the goto-to-next and goto-chain rewrites for
// the goto at pc. snapshot is read-only (the pre-simplification array);
// resolving a chain always walks it, never an already-rewritten target, so
// multiple gotos in a chain are each decided independently and
// consistently.
func simplifyGoto(pc int, g instr.GotoInsn, snapshot map[int]instr.Instruction, updates map[int]instr.Instruction) {
	length := g.Length(false)
	if g.Target == pc+length {
		nopRange(pc, pc+length, updates)
		return
	}

	final, ok := resolveGotoChain(g.Target, snapshot)
	if !ok || final == g.Target {
		return
	}
	offset := final - pc
	if g.Op == instr.Goto && !fitsSigned16(offset) {
		return
	}
	updates[pc] = instr.GotoInsn{Op: g.Op, Target: final}
}

// resolveGotoChain follows a chain of gotos starting at target to its final
// non-goto destination, guarding against a cycle (which malformed or
// adversarial input could otherwise spin on forever) by refusing to revisit
// a pc. ok is false only when a cycle was detected; an acyclic chain of
// length zero (target is not itself a goto) resolves to target.
func resolveGotoChain(target int, snapshot map[int]instr.Instruction) (int, bool) {
	seen := map[int]bool{}
	cur := target
	for {
		if seen[cur] {
			return 0, false
		}
		seen[cur] = true
		next, ok := snapshot[cur]
		if !ok {
			return cur, true
		}
		g, ok := next.(instr.GotoInsn)
		if !ok {
			return cur, true
		}
		cur = g.Target
	}
}

// simplifyConditional handles the conditional-to-next, useless-if, and
// confused-if rewrites for the conditional at pc.
func simplifyConditional(pc int, c instr.Conditional, snapshot map[int]instr.Instruction, targeted map[int]bool, updates map[int]instr.Instruction) {
	length := c.Length(false)
	nextPC := pc + length

	if c.Target == nextPC {
		updates[pc] = instr.Simple{Op: popForDelta(c.StackSlotsChange())}
		nopRange(pc+1, nextPC, updates)
		return
	}

	gotoPC := nextPC
	gotoInst, ok := snapshot[gotoPC]
	if !ok {
		return
	}
	g, ok := gotoInst.(instr.GotoInsn)
	if !ok || g.Op != instr.Goto {
		return
	}
	afterGoto := gotoPC + g.Length(false)
	if c.Target != afterGoto {
		return
	}

	if g.Target == afterGoto {
		// useless if: both arms land on the same following pc.
		updates[pc] = instr.Simple{Op: popForDelta(c.StackSlotsChange())}
		nopRange(pc+1, afterGoto, updates)
		return
	}

	// confused if: the conditional's own target is the pc right after the
	// goto, and the goto jumps elsewhere. Safe only when nothing besides
	// this conditional's fallthrough ever reaches the goto.
	if targeted[gotoPC] {
		return
	}
	negated := c.Negate()
	offset := g.Target - pc
	if !fitsSigned16(offset) {
		return
	}
	updates[pc] = instr.Conditional{Op: negated.Op, Target: g.Target}
	nopRange(gotoPC, afterGoto, updates)
}

func simplifySwitch(pc int, s instr.Switch, updates map[int]instr.Instruction) {
	for _, c := range s.Cases {
		if c.Target != s.Default {
			return
		}
	}
	gotoOp := instr.Goto
	if !fitsSigned16(s.Default - (pc + 1)) {
		gotoOp = instr.GotoW
	}
	g := instr.GotoInsn{Op: gotoOp, Target: s.Default}
	if 1+g.Length(false) > s.EncodedLength {
		return
	}
	updates[pc] = instr.Simple{Op: instr.Pop}
	updates[pc+1] = g
	nopRange(pc+1+g.Length(false), pc+s.EncodedLength, updates)
}
