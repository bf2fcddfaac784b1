package instr

import "github.com/cwbudde/aicore/internal/typesys"

// ArrayBaseType is the one-byte primitive-type code newarray encodes,
// distinct from typesys.Primitive's own encoding since the JVM uses a
// different (and non-contiguous) numbering for it.
type ArrayBaseType byte

const (
	ArrayBoolean ArrayBaseType = 4
	ArrayChar    ArrayBaseType = 5
	ArrayFloat   ArrayBaseType = 6
	ArrayDouble  ArrayBaseType = 7
	ArrayByte    ArrayBaseType = 8
	ArrayShort   ArrayBaseType = 9
	ArrayInt     ArrayBaseType = 10
	ArrayLong    ArrayBaseType = 11
)

// Primitive maps a newarray base-type code to its typesys.Primitive.
func (a ArrayBaseType) Primitive() typesys.Primitive {
	switch a {
	case ArrayBoolean:
		return typesys.Boolean
	case ArrayChar:
		return typesys.Char
	case ArrayFloat:
		return typesys.Float
	case ArrayDouble:
		return typesys.Double
	case ArrayByte:
		return typesys.Byte
	case ArrayShort:
		return typesys.Short
	case ArrayInt:
		return typesys.Int
	case ArrayLong:
		return typesys.Long
	default:
		return typesys.Int
	}
}

// NewInsn allocates an uninitialized instance of Class.
type NewInsn struct {
	Class typesys.ObjectType
}

func (NewInsn) isInstruction()   {}
func (NewInsn) OpCode() OpCode   { return New }
func (NewInsn) StackSlotsChange() int { return 1 }
func (NewInsn) Length(bool) int  { return 3 }
func (NewInsn) JVMExceptions() []typesys.ObjectType { return nil }
func (n NewInsn) NextInstructions(pc int, regularOnly bool, lookup HandlerLookup, hierarchy typesys.Hierarchy) []int {
	return []int{pc + n.Length(false)}
}

// NewArray allocates a fresh array: newarray (primitive component,
// single-dimensional), anewarray (object/array component, single-
// dimensional), or multianewarray (arbitrary component, multi-dimensional,
// popping one length per declared dimension).
type NewArray struct {
	Op         OpCode
	Base       ArrayBaseType      // valid when Op == Newarray
	Component  typesys.ObjectType // valid when Op == Anewarray or Multianewarray
	Dimensions int                // valid when Op == Multianewarray; number of length operands popped
}

func (NewArray) isInstruction()   {}
func (n NewArray) OpCode() OpCode { return n.Op }

func (n NewArray) StackSlotsChange() int {
	if n.Op == Multianewarray {
		return 1 - n.Dimensions
	}
	return 0
}

func (n NewArray) Length(modifiedByWide bool) int {
	switch n.Op {
	case Newarray:
		return 2
	case Anewarray:
		return 3
	case Multianewarray:
		return 4
	default:
		return 1
	}
}

func (n NewArray) JVMExceptions() []typesys.ObjectType {
	return []typesys.ObjectType{NegativeArraySizeException}
}

func (n NewArray) NextInstructions(pc int, regularOnly bool, lookup HandlerLookup, hierarchy typesys.Hierarchy) []int {
	next := []int{pc + n.Length(false)}
	if !regularOnly {
		next = append(next, exceptionalSuccessors(pc, n.JVMExceptions(), lookup, hierarchy)...)
	}
	return next
}

// TypeCheck is checkcast (replaces the top of stack with itself, throwing if
// the dynamic type is incompatible) or instanceof (replaces it with a
// boolean).
type TypeCheck struct {
	Op     OpCode
	Target typesys.ObjectType
}

func (TypeCheck) isInstruction()   {}
func (t TypeCheck) OpCode() OpCode { return t.Op }
func (TypeCheck) Length(bool) int  { return 3 }
func (TypeCheck) StackSlotsChange() int { return 0 }

func (t TypeCheck) JVMExceptions() []typesys.ObjectType {
	if t.Op == Checkcast {
		return []typesys.ObjectType{ClassCastException}
	}
	return nil
}

func (t TypeCheck) NextInstructions(pc int, regularOnly bool, lookup HandlerLookup, hierarchy typesys.Hierarchy) []int {
	next := []int{pc + t.Length(false)}
	if !regularOnly {
		next = append(next, exceptionalSuccessors(pc, t.JVMExceptions(), lookup, hierarchy)...)
	}
	return next
}
