package interp

import "time"

// Options enumerates the recognized configuration switches a loader passes
// to an interpretation session (§6).
type Options struct {
	ThrowNullPointerExceptionOnArrayAccess bool
	ThrowArrayIndexOutOfBoundsException    bool
	ThrowArrayStoreException               bool
	ThrowArithmeticExceptions              bool
	IdentifyDeadVariables                  bool

	MaxEvaluationFactor float64
	MaxEvaluationTime   time.Duration

	SimplifyControlFlow bool
}

// DefaultOptions mirrors a conservative, fully-modeled configuration: every
// implicit exception is tracked, the peephole simplifier runs, and the
// budget is generous.
func DefaultOptions() Options {
	return Options{
		ThrowNullPointerExceptionOnArrayAccess: true,
		ThrowArrayIndexOutOfBoundsException:    true,
		ThrowArrayStoreException:                true,
		ThrowArithmeticExceptions:              true,
		MaxEvaluationFactor:                    50,
		MaxEvaluationTime:                      5 * time.Second,
		SimplifyControlFlow:                    true,
	}
}
