// Package interp implements the worklist fixpoint abstract interpreter: the
// driver that walks a method's CFG, evaluates each instruction against the
// value domain, merges states at join points, routes thrown values through
// the applicable catch nodes, and honors a cooperative interruption policy.
package interp

import (
	"time"

	"github.com/cwbudde/aicore/internal/aierrors"
	"github.com/cwbudde/aicore/internal/cfg"
	"github.com/cwbudde/aicore/internal/code"
	"github.com/cwbudde/aicore/internal/diag"
	"github.com/cwbudde/aicore/internal/domain"
	"github.com/cwbudde/aicore/internal/domain/refval"
	"github.com/cwbudde/aicore/internal/instr"
	"github.com/cwbudde/aicore/internal/typesys"
)

// Interpreter drives a single method's fixpoint computation. It holds no
// state across calls to Run; a fresh Interpreter (and a fresh domain.Domain)
// is created per session.
type Interpreter struct {
	method *code.Method
	graph  *cfg.Graph
	domain *domain.Domain
	logger diag.Logger
	opts   Options

	interrupt Predicate

	// resolveCallee, when set, enables interprocedural dispatch (see
	// dispatch.go); invocationDepth tracks how deep this session sits in a
	// recursive callee-interpretation chain.
	resolveCallee   CalleeResolver
	invocationDepth int
}

// Option configures an Interpreter at construction time.
type Option func(*Interpreter)

// WithLogger injects the diagnostics sink; the default is diag.Nop.
func WithLogger(l diag.Logger) Option {
	return func(in *Interpreter) { in.logger = l }
}

// WithInterrupt overrides the default composed instruction-count + time
// budget with an arbitrary predicate.
func WithInterrupt(p Predicate) Option {
	return func(in *Interpreter) { in.interrupt = p }
}

// New builds an Interpreter for method over its already-built CFG, against
// d, honoring opts. By default the interruption policy composes an
// instruction-count budget (opts.MaxEvaluationFactor) with a wall-clock
// budget (opts.MaxEvaluationTime) via Or — whichever fires first wins.
func New(method *code.Method, g *cfg.Graph, d *domain.Domain, opts Options, options ...Option) *Interpreter {
	in := &Interpreter{
		method: method,
		graph:  g,
		domain: d,
		logger: diag.Nop{},
		opts:   opts,
	}
	factor := opts.MaxEvaluationFactor
	if factor <= 0 {
		factor = 50
	}
	budget := Or(
		InstructionCountBudget(factor, len(method.PCs())),
		TimeBudget(opts.MaxEvaluationTime),
	)
	in.interrupt = budget
	for _, o := range options {
		o(in)
	}
	return in
}

type pcState struct {
	ops     domain.OperandStack
	locals  domain.Registers
	visited bool
}

// Run drives the worklist fixpoint to completion (or until interrupted),
// starting from initialLocals at the method's entry pc with an empty
// operand stack.
func (in *Interpreter) Run(initialLocals domain.Registers) (*AIResult, error) {
	result := newResult(in.domain)
	states := map[int]*pcState{}
	worklist := []int{}
	queued := map[int]bool{}

	enqueue := func(pc int) {
		if !queued[pc] {
			queued[pc] = true
			worklist = append(worklist, pc)
		}
	}

	entry := in.method.EntryPC()
	if entry < 0 {
		return result, nil
	}
	states[entry] = &pcState{ops: domain.OperandStack{}, locals: initialLocals}
	enqueue(entry)

	steps := 0
	start := time.Now()
	var elapsed time.Duration

	for len(worklist) > 0 {
		pc := worklist[0]
		worklist = worklist[1:]
		queued[pc] = false

		st := states[pc]
		st.visited = true

		inst, ok := in.method.At(pc)
		if !ok {
			return nil, &aierrors.InconsistentCodeShapeError{Reason: "worklist pc has no instruction", PC: pc}
		}

		outcome, err := in.eval(pc, inst, st.ops, st.locals)
		if err != nil {
			return nil, err
		}

		if outcome.isReturn && outcome.returned != nil {
			result.ReturnValues[pc] = outcome.returned
		}

		for _, thrownVal := range outcome.thrown {
			if err := in.routeException(pc, thrownVal, st.locals, result, states, enqueue); err != nil {
				return nil, err
			}
		}

		if outcome.hasNormal {
			targets := in.normalSuccessors(pc, outcome)
			for i, target := range targets {
				toMerge := outcome.ops
				toMergeLocals := outcome.locals
				if outcome.hasBranch && i > 0 {
					if outcome.branchDead {
						continue
					}
					toMerge = outcome.branchOps
					toMergeLocals = outcome.branchLocals
				} else if outcome.hasBranch && outcome.fallDead {
					continue
				}
				if err := in.mergeInto(pc, target, toMerge, toMergeLocals, states, enqueue); err != nil {
					return nil, err
				}
			}
		}

		// The budget is consumed by the transition just processed, so it is
		// checked after, not before: a run whose last transition exactly
		// exhausts the budget still reports the abort.
		steps++
		if steps%1000 == 0 {
			elapsed = time.Since(start)
		}
		if in.interrupt(steps, elapsed) {
			result.WasAborted = true
			result.AbortReason = &aierrors.EvaluationBudgetExceededError{Steps: steps, Elapsed: elapsed}
			in.snapshot(result, states)
			return result, nil
		}
	}

	in.snapshot(result, states)
	return result, nil
}

// normalSuccessors computes the pcs the normal-path state flows to. A ret
// routes to exactly the return addresses its local held (the per-call-site
// context of §4.5); should that value have been lost to a merge, the CFG's
// subroutine-resolved edges supply the sound overapproximation. Everything
// else routes to the instruction's own regular successors, which for a
// conditional are [fallthrough, target] in that fixed order — the order the
// branch-refinement dispatch below relies on.
func (in *Interpreter) normalSuccessors(pc int, outcome stepOutcome) []int {
	if !outcome.isRet {
		return in.method.Successors(pc, true, in.domain.Hierarchy)
	}
	if len(outcome.retTargets) > 0 {
		return outcome.retTargets
	}
	node, ok := in.graph.NodeContaining(pc)
	if !ok {
		return nil
	}
	return in.nonCatchSuccessorPCs(node)
}

// nonCatchSuccessorPCs maps a node's successor CFG node IDs back to the
// instruction pcs the interpreter's per-pc state map is keyed by, skipping
// the synthetic sink nodes (handled separately via outcome.isReturn /
// routeException) and catch nodes (handled via routeException).
func (in *Interpreter) nonCatchSuccessorPCs(n *cfg.Node) []int {
	var out []int
	for _, succID := range in.graph.Successors(n.ID) {
		succ := in.graph.Node(succID)
		if succ.Kind == cfg.Block {
			out = append(out, succ.StartPC)
		}
	}
	return out
}

func (in *Interpreter) mergeInto(pc, target int, ops domain.OperandStack, locals domain.Registers, states map[int]*pcState, enqueue func(int)) error {
	existing, ok := states[target]
	if !ok {
		states[target] = &pcState{ops: ops, locals: locals}
		enqueue(target)
		return nil
	}

	mergedOps, opsChanged, err := in.mergeStacks(target, existing.ops, ops)
	if err != nil {
		return err
	}
	mergedLocals, localsChanged := in.mergeLocals(target, existing.locals, locals)

	if opsChanged || localsChanged || !existing.visited {
		existing.ops = mergedOps
		existing.locals = mergedLocals
		enqueue(target)
	}
	return nil
}

func (in *Interpreter) mergeStacks(pc int, a, b domain.OperandStack) (domain.OperandStack, bool, error) {
	if len(a) != len(b) {
		return a, false, &aierrors.InconsistentCodeShapeError{Reason: "operand stack depth mismatch at join", PC: pc}
	}
	out := make(domain.OperandStack, len(a))
	changed := false
	for i := range a {
		v, kind, ok := in.domain.JoinValue(pc, a[i], b[i])
		if !ok {
			return a, false, &aierrors.InconsistentCodeShapeError{Reason: "incompatible operand sorts at join", PC: pc}
		}
		out[i] = v
		if kind != refval.NoUpdate {
			changed = true
		}
	}
	return out, changed, nil
}

func (in *Interpreter) mergeLocals(pc int, a, b domain.Registers) (domain.Registers, bool) {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make(domain.Registers, n)
	changed := len(a) != len(b)
	for i := 0; i < n; i++ {
		av, bv := a.Get(i), b.Get(i)
		if av == nil && bv == nil {
			continue
		}
		v, kind, ok := in.domain.JoinValue(pc, av, bv)
		if !ok {
			// Incompatible sorts in the same slot: the domain's top for
			// the relevant sort is unrepresentable generically here, so
			// the slot is cleared — a dead/incompatible register is never
			// read without its own store dominating the read in valid
			// bytecode.
			out[i] = nil
			changed = true
			continue
		}
		out[i] = v
		if kind != refval.NoUpdate {
			changed = true
		}
	}
	return out, changed
}

// routeException implements §4.5 step 4: a thrown value at pc flows into
// every covering handler its type could match, tried in declaration order
// with the thrown value as the sole operand on an otherwise-empty stack. A
// handler that certainly catches (no catch type, or a catch type the
// hierarchy proves a supertype of the thrown value's bound) stops the scan:
// the first matching handler wins. A value no covering handler certainly
// catches reaches the synthetic abnormal-return sink.
func (in *Interpreter) routeException(pc int, thrownVal domain.Value, locals domain.Registers, result *AIResult, states map[int]*pcState, enqueue func(int)) error {
	result.ThrownValues[pc] = append(result.ThrownValues[pc], thrownVal)

	routed := false
	for _, h := range in.method.HandlersCovering(pc) {
		applies, certain := in.handlerMatch(pc, h, thrownVal)
		if !applies {
			continue
		}
		routed = true
		handlerOps := domain.OperandStack{thrownVal}
		if err := in.mergeInto(pc, h.HandlerPC, handlerOps, locals, states, enqueue); err != nil {
			return err
		}
		if certain {
			return nil
		}
	}
	if !routed {
		in.logger.Debugf("pc %d: uncaught %v reaches abnormal return", pc, thrownVal)
	}
	return nil
}

// handlerMatch decides whether h could catch thrownVal (applies) and whether
// it is guaranteed to (certain). A finally-style handler always certainly
// catches. For a typed handler the thrown value's single-type upper bound is
// compared through the hierarchy; an Unknown relation — surfaced as an
// UnknownTypeRelationError diagnostic and recovered right here — an
// intersection bound, or a non-reference thrown value all keep the handler
// applicable without making it certain.
func (in *Interpreter) handlerMatch(pc int, h instr.HandlerRef, thrownVal domain.Value) (applies, certain bool) {
	if !h.HasCatchType {
		return true, true
	}
	ref, ok := thrownVal.(refval.Value)
	if !ok {
		return true, false
	}
	utb := ref.UTB()
	if len(utb.Objects) != 1 {
		return true, false
	}
	switch in.domain.Hierarchy.IsSubtypeOf(utb.Objects[0], h.CatchType) {
	case typesys.Yes:
		return true, true
	case typesys.No:
		return false, false
	default:
		in.logger.Debugf("pc %d: %v; routing conservatively", pc, &aierrors.UnknownTypeRelationError{
			Sub:   string(utb.Objects[0]),
			Super: string(h.CatchType),
		})
		return true, false
	}
}

func (in *Interpreter) snapshot(result *AIResult, states map[int]*pcState) {
	for pc, st := range states {
		if !st.visited {
			continue
		}
		result.OperandsAt[pc] = st.ops
		result.LocalsAt[pc] = st.locals
	}
}
