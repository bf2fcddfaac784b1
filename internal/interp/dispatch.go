package interp

import (
	"errors"

	"github.com/cwbudde/aicore/internal/aierrors"
	"github.com/cwbudde/aicore/internal/cfg"
	"github.com/cwbudde/aicore/internal/code"
	"github.com/cwbudde/aicore/internal/domain"
	"github.com/cwbudde/aicore/internal/domain/refval"
	"github.com/cwbudde/aicore/internal/instr"
)

// maxInvocationDepth bounds recursive callee interpretation; a call chain
// deeper than this falls back to the non-interpretive stub, which also cuts
// direct and mutual recursion.
const maxInvocationDepth = 3

// Callee is a resolved invocation target: the loaded body to interpret and,
// optionally, its already-built CFG (built on demand when nil).
type Callee struct {
	Method *code.Method
	Graph  *cfg.Graph
}

// CalleeResolver resolves an invoke* instruction to its target's loaded
// body. Returning an error — conventionally *aierrors.MissingCalleeError for
// an absent, abstract, native, or do-not-interpret target — routes the call
// through the fallback stub instead; resolution failure is never fatal.
type CalleeResolver func(ref instr.MethodRef) (*Callee, error)

// WithCalleeResolver enables interprocedural dispatch: an invoke* whose
// target r resolves is interpreted recursively against a distinct domain
// instance, and the callee's returned and thrown values are translated back
// into the caller's session. Calls r cannot resolve use the same
// non-interpretive stub an interpreter without a resolver uses for every
// call.
func WithCalleeResolver(r CalleeResolver) Option {
	return func(in *Interpreter) { in.resolveCallee = r }
}

// interpretCallee performs one recursive dispatch. recv/args are the caller
// operand values already popped for this invoke (receiver absent for
// invokestatic/invokedynamic); rest/locals are the caller state after the
// pops, and thrown carries the caller-side implicit NPE, if modeled. ok is
// false when the dispatch could not happen and the caller must fall back.
func (in *Interpreter) interpretCallee(pc int, v instr.MethodRef, recv domain.Value, hasRecv bool, args []domain.Value, rest domain.OperandStack, locals domain.Registers, thrown []domain.Value) (stepOutcome, bool) {
	callee, err := in.resolveCallee(v)
	if err != nil {
		var missing *aierrors.MissingCalleeError
		if errors.As(err, &missing) {
			in.logger.Debugf("pc %d: could not resolve %s target %s.%s", pc, v.Op, v.Owner, v.Name)
		} else {
			in.logger.Warnf("pc %d: callee resolution failed: %v", pc, err)
		}
		return stepOutcome{}, false
	}
	if callee == nil || callee.Method == nil || callee.Method == in.method {
		return stepOutcome{}, false
	}

	calleeDomain := domain.New(in.domain.Hierarchy)

	// Materialize the callee's parameter registers in its own session.
	// paramBack remembers which caller value each callee parameter stands
	// for, so a callee result that is reference-identical to a parameter
	// maps back to the caller's operand instead of being re-abstracted.
	var calleeLocals domain.Registers
	paramBack := map[refval.Value]domain.Value{}
	slot := 0
	seed := func(cv domain.Value) {
		origin := -(slot + 1)
		if rv, ok := cv.(refval.Value); ok {
			pv := in.domain.Refs.Adapt(calleeDomain.Refs, origin, rv)
			paramBack[pv] = cv
			calleeLocals = calleeLocals.Set(slot, pv)
		} else {
			calleeLocals = calleeLocals.Set(slot, cv)
		}
		slot++
	}
	if hasRecv {
		seed(recv)
	}
	for _, a := range args {
		seed(a)
	}

	g := callee.Graph
	if g == nil {
		g = cfg.Build(callee.Method, in.domain.Hierarchy)
	}
	sub := New(callee.Method, g, calleeDomain, in.opts, WithLogger(in.logger))
	sub.resolveCallee = in.resolveCallee
	sub.invocationDepth = in.invocationDepth + 1

	res, err := sub.Run(calleeLocals)
	if err != nil || res.WasAborted {
		if err != nil {
			in.logger.Warnf("pc %d: callee %s.%s interpretation failed: %v", pc, v.Owner, v.Name, err)
		}
		return stepOutcome{}, false
	}

	translate := func(cv domain.Value) domain.Value {
		rv, ok := cv.(refval.Value)
		if !ok {
			return cv
		}
		if back, ok := paramBack[rv]; ok {
			return back
		}
		return calleeDomain.Refs.Adapt(in.domain.Refs, pc, rv)
	}

	var returned domain.Value
	for _, rv := range res.ReturnValues {
		joined, _, ok := in.domain.JoinValue(pc, returned, translate(rv))
		if !ok {
			return stepOutcome{}, false
		}
		returned = joined
	}
	// Every throw site's value is translated, caught or not — distinguishing
	// escaping exceptions would need the callee's abnormal-return state,
	// which the result does not separate; including all of them
	// overapproximates soundly.
	for _, site := range res.ThrownValues {
		for _, tv := range site {
			thrown = append(thrown, translate(tv))
		}
	}

	out := stepOutcome{hasNormal: true, ops: rest, locals: locals, thrown: thrown}
	if v.ReturnSlots > 0 {
		if returned == nil {
			// The callee never completes normally; the caller continues only
			// through its exceptions.
			out.hasNormal = false
		} else {
			out.ops = rest.Push(returned)
		}
	}
	return out, true
}
