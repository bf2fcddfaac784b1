package instr

import "github.com/cwbudde/aicore/internal/typesys"

// FieldRef names the owner, field, and declared type of a getfield/putfield/
// getstatic/putstatic target, already resolved from the constant pool.
type FieldRef struct {
	Op         OpCode
	Owner      typesys.ObjectType
	Name       string
	FieldType  typesys.Type
}

func (FieldRef) isInstruction()   {}
func (f FieldRef) OpCode() OpCode { return f.Op }
func (FieldRef) Length(modifiedByWide bool) int { return 3 }

func (f FieldRef) slotWidth() int {
	if p, ok := f.FieldType.(typesys.Primitive); ok && (p == typesys.Long || p == typesys.Double) {
		return 2
	}
	return 1
}

func (f FieldRef) StackSlotsChange() int {
	w := f.slotWidth()
	switch f.Op {
	case Getstatic:
		return w
	case Putstatic:
		return -w
	case Getfield:
		return w - 1
	case Putfield:
		return -w - 1
	default:
		return 0
	}
}

func (f FieldRef) JVMExceptions() []typesys.ObjectType {
	if f.Op == Getfield || f.Op == Putfield {
		return []typesys.ObjectType{NullPointerException}
	}
	return nil
}

func (f FieldRef) NextInstructions(pc int, regularOnly bool, lookup HandlerLookup, hierarchy typesys.Hierarchy) []int {
	next := []int{pc + f.Length(false)}
	if !regularOnly {
		next = append(next, exceptionalSuccessors(pc, f.JVMExceptions(), lookup, hierarchy)...)
	}
	return next
}

// MethodRef names the owner, method, descriptor-derived argument/return
// slot counts, and invoke kind of an invoke* instruction, already resolved
// from the constant pool.
type MethodRef struct {
	Op         OpCode
	Owner      typesys.ObjectType
	Name       string
	ArgSlots   int  // total operand stack slots occupied by arguments (long/double count twice)
	ReturnSlots int // 0, 1, or 2
	ReturnType typesys.Type // declared return type; nil when the loader did not resolve it
	Interface  bool // true for invokeinterface, carried so the descriptor's arg-count byte can be round-tripped
}

func (MethodRef) isInstruction()   {}
func (m MethodRef) OpCode() OpCode { return m.Op }

func (m MethodRef) Length(modifiedByWide bool) int {
	switch m.Op {
	case Invokeinterface, Invokedynamic:
		return 5
	default:
		return 3
	}
}

func (m MethodRef) StackSlotsChange() int {
	receiver := 0
	if m.Op != Invokestatic && m.Op != Invokedynamic {
		receiver = 1
	}
	return m.ReturnSlots - m.ArgSlots - receiver
}

func (m MethodRef) JVMExceptions() []typesys.ObjectType {
	if m.Op == Invokestatic || m.Op == Invokedynamic {
		return nil
	}
	return []typesys.ObjectType{NullPointerException}
}

func (m MethodRef) NextInstructions(pc int, regularOnly bool, lookup HandlerLookup, hierarchy typesys.Hierarchy) []int {
	next := []int{pc + m.Length(false)}
	if !regularOnly {
		next = append(next, exceptionalSuccessors(pc, m.JVMExceptions(), lookup, hierarchy)...)
	}
	return next
}
