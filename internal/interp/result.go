package interp

import "github.com/cwbudde/aicore/internal/domain"

// AIResult is the output of one interpretation session (§6).
type AIResult struct {
	WasAborted bool

	// AbortReason is set alongside WasAborted: an
	// *aierrors.EvaluationBudgetExceededError carrying the transition count
	// and elapsed wall-clock at the moment the interruption predicate fired.
	AbortReason error

	OperandsAt map[int]domain.OperandStack
	LocalsAt   map[int]domain.Registers

	// ReturnValues collects, per normal-return site pc, the value(s) that
	// flowed into that return.
	ReturnValues map[int]domain.Value

	// ThrownValues collects, per athrow/implicit-exception site pc, the
	// exception value(s) thrown there.
	ThrownValues map[int][]domain.Value

	Domain *domain.Domain
}

func newResult(d *domain.Domain) *AIResult {
	return &AIResult{
		OperandsAt:   map[int]domain.OperandStack{},
		LocalsAt:     map[int]domain.Registers{},
		ReturnValues: map[int]domain.Value{},
		ThrownValues: map[int][]domain.Value{},
		Domain:       d,
	}
}
