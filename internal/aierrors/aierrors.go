// Package aierrors defines the typed error kinds raised by the abstract
// interpretation core: fatal violations of the verifier contract, recoverable
// lookup failures, and budget exhaustion. Callers distinguish them with
// errors.As rather than string matching.
package aierrors

import (
	"fmt"
	"time"
)

// Kind categorizes an error for callers that want to branch on severity
// without inspecting concrete types.
type Kind string

const (
	// KindFatal errors are verifier-style violations: broken input. The
	// session must not continue.
	KindFatal Kind = "fatal"
	// KindBudget marks non-fatal exhaustion of the evaluation budget.
	KindBudget Kind = "budget"
	// KindRecovered marks conditions the domain or interpreter absorbed
	// locally (e.g. an unknown subtype relation).
	KindRecovered Kind = "recovered"
)

// ImpossibleRefinementError is raised when a refinement is requested that
// contradicts the value's current state (e.g. refining a Null by an upper
// type bound, or narrowing nullness that is already known).
type ImpossibleRefinementError struct {
	Value string // human-readable description of the value being refined
	Op    string // "refineIsNull" or "refineUpperTypeBound"
	PC    int
}

func (e *ImpossibleRefinementError) Error() string {
	return fmt.Sprintf("pc %d: %s: impossible refinement of %s", e.PC, e.Op, e.Value)
}

func (e *ImpossibleRefinementError) Kind() Kind { return KindFatal }

// InconsistentCodeShapeError signals that the input code body violates a
// verifier-level invariant: mismatched stack depth at a join, a missing
// branch target, or a code array whose size disagrees with its declared
// length.
type InconsistentCodeShapeError struct {
	Reason string
	PC     int
}

func (e *InconsistentCodeShapeError) Error() string {
	return fmt.Sprintf("pc %d: inconsistent code shape: %s", e.PC, e.Reason)
}

func (e *InconsistentCodeShapeError) Kind() Kind { return KindFatal }

// EvaluationBudgetExceededError describes an exhausted step-count or
// wall-clock budget. It is non-fatal and never panicked: the interpreter
// records it as the AbortReason on the partial AIResult it returns
// alongside WasAborted=true, so callers can distinguish a budget abort from
// a custom-predicate one without string matching.
type EvaluationBudgetExceededError struct {
	Steps   int           // pc-transitions processed when the budget fired
	Elapsed time.Duration // wall-clock since the first transition
}

func (e *EvaluationBudgetExceededError) Error() string {
	return fmt.Sprintf("evaluation budget exceeded after %d transitions (%s elapsed)", e.Steps, e.Elapsed)
}

func (e *EvaluationBudgetExceededError) Kind() Kind { return KindBudget }

// UnknownTypeRelationError documents a subtype question the class hierarchy
// could not answer. It is never propagated to a caller of the public API —
// consumers recover locally by treating the answer as Unknown, and the
// interpreter surfaces the condition as a diagnostic through its injected
// Logger when an undecidable relation forces conservative handler routing.
type UnknownTypeRelationError struct {
	Sub, Super string
}

func (e *UnknownTypeRelationError) Error() string {
	return fmt.Sprintf("cannot decide whether %s is a subtype of %s: class file absent from project", e.Sub, e.Super)
}

func (e *UnknownTypeRelationError) Kind() Kind { return KindRecovered }

// MissingCalleeError documents an interprocedural dispatch target the
// interpreter could not resolve. Recovered locally by invoking the supplied
// fallback continuation; exposed as a type so tests and loggers can
// recognize the condition.
type MissingCalleeError struct {
	Owner, Name, Descriptor string
}

func (e *MissingCalleeError) Error() string {
	return fmt.Sprintf("cannot resolve callee %s.%s%s", e.Owner, e.Name, e.Descriptor)
}

func (e *MissingCalleeError) Kind() Kind { return KindRecovered }
