package instr

import "github.com/cwbudde/aicore/internal/typesys"

// SwitchCase is one matched value/target pair of a lookupswitch, or the
// implicit n-th entry of a tableswitch (Value is still populated so callers
// don't need to recompute low+i).
type SwitchCase struct {
	Value  int32
	Target int
}

// Switch models both tableswitch and lookupswitch: a dense or sparse
// multi-way branch over an int, falling back to Default when no case
// matches. Cases and Default hold already-resolved absolute pcs; byte-level
// padding and encoding concerns are entirely the parser's business and
// never appear here.
type Switch struct {
	Op      OpCode
	Default int
	Cases   []SwitchCase

	// EncodedLength is the instruction's true byte length including the
	// padding to the next 4-byte boundary and the table itself, supplied by
	// whoever built this Switch (class-file reader or fixture loader) since
	// it depends on the instruction's own pc.
	EncodedLength int
}

func (Switch) isInstruction()    {}
func (s Switch) OpCode() OpCode  { return s.Op }
func (Switch) StackSlotsChange() int { return -1 }
func (Switch) JVMExceptions() []typesys.ObjectType { return nil }

func (s Switch) Length(modifiedByWide bool) int { return s.EncodedLength }

func (s Switch) NextInstructions(pc int, regularOnly bool, lookup HandlerLookup, hierarchy typesys.Hierarchy) []int {
	seen := map[int]bool{s.Default: true}
	out := []int{s.Default}
	for _, c := range s.Cases {
		if !seen[c.Target] {
			seen[c.Target] = true
			out = append(out, c.Target)
		}
	}
	return out
}

// IsDense reports whether this switch was encoded as tableswitch (a
// contiguous value range) as opposed to lookupswitch (an explicit sparse
// key table).
func (s Switch) IsDense() bool {
	return s.Op == Tableswitch
}
