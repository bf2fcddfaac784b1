// Package code holds the loaded, validated representation of one method
// body: its instructions keyed by pc, its exception handler table, and the
// declared stack/local sizes. Producing this representation from an actual
// class file or from the demonstration YAML fixtures is someone else's job
// (internal/fixture does the latter); this package only models the result.
package code

import (
	"sort"

	"github.com/cwbudde/aicore/internal/instr"
	"github.com/cwbudde/aicore/internal/typesys"
)

// ExceptionHandler is one entry of a method's exception table: the
// [StartPC, EndPC) range it guards, the pc it transfers to, and the
// throwable type it catches (the zero ObjectType with CatchesAll true means
// a finally-style handler that catches everything).
type ExceptionHandler struct {
	StartPC    int
	EndPC      int
	HandlerPC  int
	CatchType  typesys.ObjectType
	CatchesAll bool
}

func (h ExceptionHandler) covers(pc int) bool {
	return pc >= h.StartPC && pc < h.EndPC
}

// Method is one method's loaded code body.
type Method struct {
	Owner      typesys.ObjectType
	Name       string
	Descriptor string
	MaxStack   int
	MaxLocals  int
	IsStatic   bool

	instructions map[int]instr.Instruction
	order        []int // pcs in ascending order, cached for iteration
	handlers     []ExceptionHandler
}

// NewMethod builds a Method from an explicit, already-resolved instruction
// map and handler table. The caller (typically internal/fixture) is
// responsible for having resolved every branch target to an absolute pc
// that exists as a key in instructions.
func NewMethod(owner typesys.ObjectType, name, descriptor string, maxStack, maxLocals int, isStatic bool, instructions map[int]instr.Instruction, handlers []ExceptionHandler) *Method {
	order := make([]int, 0, len(instructions))
	for pc := range instructions {
		order = append(order, pc)
	}
	sort.Ints(order)
	return &Method{
		Owner:        owner,
		Name:         name,
		Descriptor:   descriptor,
		MaxStack:     maxStack,
		MaxLocals:    maxLocals,
		IsStatic:     isStatic,
		instructions: instructions,
		order:        order,
		handlers:     handlers,
	}
}

// At returns the instruction at pc, or ok=false if pc is not the start of
// an instruction in this method (e.g. it falls inside a multi-byte operand,
// or is past the end of the code array).
func (m *Method) At(pc int) (instr.Instruction, bool) {
	i, ok := m.instructions[pc]
	return i, ok
}

// PCs returns every instruction start pc in ascending order.
func (m *Method) PCs() []int {
	return m.order
}

// EntryPC is the method's first instruction pc, i.e. the CFG's entry point.
func (m *Method) EntryPC() int {
	if len(m.order) == 0 {
		return -1
	}
	return m.order[0]
}

// Handlers returns the method's exception table in declaration order. Order
// matters: a pc covered by more than one handler must try them in this
// order, since the first (textually earliest) matching handler wins.
func (m *Method) Handlers() []ExceptionHandler {
	return m.handlers
}

// HandlersCovering implements instr.HandlerLookup: every handler whose
// [StartPC, EndPC) range contains pc, in declaration order, converted to
// instr's narrower view.
func (m *Method) HandlersCovering(pc int) []instr.HandlerRef {
	var out []instr.HandlerRef
	for _, h := range m.handlers {
		if h.covers(pc) {
			out = append(out, instr.HandlerRef{
				CatchType:    h.CatchType,
				HandlerPC:    h.HandlerPC,
				HasCatchType: !h.CatchesAll,
			})
		}
	}
	return out
}

// Successors returns every successor pc of the instruction at pc (regular
// and, unless regularOnly, exceptional), delegating to the instruction's
// own NextInstructions with this method as the HandlerLookup. hierarchy is
// forwarded so catch-type compatibility can be checked; it may be nil.
func (m *Method) Successors(pc int, regularOnly bool, hierarchy typesys.Hierarchy) []int {
	i, ok := m.instructions[pc]
	if !ok {
		return nil
	}
	return i.NextInstructions(pc, regularOnly, m, hierarchy)
}

// SetInstructions replaces or inserts the instructions named by update,
// keyed by pc, and refreshes the pc order cache. Used by the bytecode
// simplifier to rewrite a method's instruction array in place before the
// CFG is built; every pc named by update must already be a key (a rewrite
// in place) or be a genuinely new pc (nop padding introduced by a
// length-preserving rewrite) — SetInstructions does not otherwise validate
// that the result still describes a well-formed instruction stream.
func (m *Method) SetInstructions(update map[int]instr.Instruction) {
	for pc, i := range update {
		if _, existed := m.instructions[pc]; !existed {
			m.order = append(m.order, pc)
		}
		m.instructions[pc] = i
	}
	sort.Ints(m.order)
}
