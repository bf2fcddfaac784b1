package interp

import "time"

// Predicate reports whether the session should stop processing further
// worklist entries, given the number of pc-transitions already processed
// and the wall-clock elapsed since the first step. Predicates are
// composable: And/Or combine two into one.
type Predicate func(steps int, elapsed time.Duration) bool

// And returns a predicate that interrupts once every given predicate would.
func And(preds ...Predicate) Predicate {
	return func(steps int, elapsed time.Duration) bool {
		for _, p := range preds {
			if !p(steps, elapsed) {
				return false
			}
		}
		return len(preds) > 0
	}
}

// Or returns a predicate that interrupts as soon as any given predicate
// would.
func Or(preds ...Predicate) Predicate {
	return func(steps int, elapsed time.Duration) bool {
		for _, p := range preds {
			if p(steps, elapsed) {
				return true
			}
		}
		return false
	}
}

// InstructionCountBudget terminates after maxEvaluationFactor *
// instructionCount processed pc-transitions.
func InstructionCountBudget(maxEvaluationFactor float64, instructionCount int) Predicate {
	limit := int(maxEvaluationFactor * float64(instructionCount))
	return func(steps int, _ time.Duration) bool {
		return steps >= limit
	}
}

// TimeBudget terminates once elapsed wall-clock time exceeds d, but only
// checks the clock every 1000 transitions to amortize the read.
func TimeBudget(d time.Duration) Predicate {
	return func(steps int, elapsed time.Duration) bool {
		if steps%1000 != 0 {
			return false
		}
		return elapsed >= d
	}
}

// Never never interrupts; used when no budget is configured.
func Never(int, time.Duration) bool { return false }
