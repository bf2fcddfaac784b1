package interp

import (
	"testing"
	"time"
)

func TestInstructionCountBudget(t *testing.T) {
	p := InstructionCountBudget(2, 10) // limit = 20
	if p(19, 0) {
		t.Errorf("budget fired one step early")
	}
	if !p(20, 0) {
		t.Errorf("budget did not fire at the limit")
	}
}

func TestTimeBudgetOnlyChecksEveryThousandSteps(t *testing.T) {
	p := TimeBudget(time.Second)
	if p(500, 10*time.Second) {
		t.Errorf("TimeBudget must not fire between its 1000-step check points")
	}
	if !p(1000, 10*time.Second) {
		t.Errorf("TimeBudget must fire once elapsed exceeds d at a check point")
	}
	if p(2000, 0) {
		t.Errorf("TimeBudget must not fire when elapsed is under d")
	}
}

func TestOrFiresOnFirstMatch(t *testing.T) {
	never := Never
	always := func(int, time.Duration) bool { return true }
	if Or(never, never)(0, 0) {
		t.Errorf("Or of two false predicates must not fire")
	}
	if !Or(never, always)(0, 0) {
		t.Errorf("Or must fire when any predicate fires")
	}
}

func TestAndRequiresEveryPredicate(t *testing.T) {
	always := func(int, time.Duration) bool { return true }
	if And(always, Never)(0, 0) {
		t.Errorf("And must not fire unless every predicate fires")
	}
	if !And(always, always)(0, 0) {
		t.Errorf("And must fire when every predicate fires")
	}
}

func TestAndOfNoPredicatesNeverFires(t *testing.T) {
	if And()(0, 0) {
		t.Errorf("And with no predicates must never fire")
	}
}

func TestNeverNeverInterrupts(t *testing.T) {
	if Never(1_000_000, time.Hour) {
		t.Errorf("Never must never report an interrupt")
	}
}
