// Package numeric implements the integer/long/float/double sorts of the
// abstract value domain: each is either the sort's top element (Any*) or an
// interned concrete value (Exact*), with join, arithmetic, bitwise,
// conversion, and comparison operations over the pair.
package numeric

import "fmt"

// Int is an abstract 32-bit integer: AnyInt (top) or a concrete ExactInt.
type Int struct {
	exact bool
	value int32
}

// AnyInt is the top of the integer lattice: any 32-bit value.
var AnyInt = Int{}

// ExactInt returns the abstract value representing exactly v.
func ExactInt(v int32) Int { return Int{exact: true, value: v} }

// IsExact reports whether this value is a concrete ExactInt.
func (i Int) IsExact() bool { return i.exact }

// Value returns the concrete value and true, or (0, false) if this is AnyInt.
func (i Int) Value() (int32, bool) { return i.value, i.exact }

func (i Int) String() string {
	if !i.exact {
		return "AnyInt"
	}
	return fmt.Sprintf("ExactInt(%d)", i.value)
}

// Equal reports whether i and o denote the same abstract value.
func (i Int) Equal(o Int) bool {
	if i.exact != o.exact {
		return false
	}
	return !i.exact || i.value == o.value
}

// Join computes i ⊔ o: ExactInt(v) if both sides agree on the same concrete
// value, AnyInt otherwise.
func (i Int) Join(o Int) Int {
	if i.exact && o.exact && i.value == o.value {
		return i
	}
	return AnyInt
}

// AbstractsOver reports whether i overapproximates every value o admits.
func (i Int) AbstractsOver(o Int) bool {
	if !i.exact {
		return true
	}
	return o.exact && i.value == o.value
}

// BinOp is an arithmetic or bitwise operator over two Int operands.
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Rem
	Shl
	Shr
	Ushr
	And
	Or
	Xor
)

// ErrDivByZero is returned by Apply for Div/Rem when the divisor is the
// concrete value zero, independent of whether the dividend is concrete.
var ErrDivByZero = fmt.Errorf("division by ExactInt(0)")

// Apply evaluates op on a and b. Div/Rem by a concrete zero divisor returns
// ErrDivByZero instead of a result, regardless of the dividend's precision,
// matching the JVM's unconditional ArithmeticException on that path.
func Apply(op BinOp, a, b Int) (Int, error) {
	if (op == Div || op == Rem) && b.exact && b.value == 0 {
		return Int{}, ErrDivByZero
	}
	if !a.exact || !b.exact {
		return AnyInt, nil
	}
	switch op {
	case Add:
		return ExactInt(a.value + b.value), nil
	case Sub:
		return ExactInt(a.value - b.value), nil
	case Mul:
		return ExactInt(a.value * b.value), nil
	case Div:
		return ExactInt(a.value / b.value), nil
	case Rem:
		return ExactInt(a.value % b.value), nil
	case Shl:
		return ExactInt(a.value << (uint32(b.value) & 31)), nil
	case Shr:
		return ExactInt(a.value >> (uint32(b.value) & 31)), nil
	case Ushr:
		return ExactInt(int32(uint32(a.value) >> (uint32(b.value) & 31))), nil
	case And:
		return ExactInt(a.value & b.value), nil
	case Or:
		return ExactInt(a.value | b.value), nil
	case Xor:
		return ExactInt(a.value ^ b.value), nil
	default:
		return AnyInt, nil
	}
}

// Negate evaluates unary minus.
func Negate(a Int) Int {
	if !a.exact {
		return AnyInt
	}
	return ExactInt(-a.value)
}

// CompareOp is a relational test over two Int operands, answered
// three-valued (see typesys.Tri): Yes/No on concrete inputs, Unknown
// otherwise. Represented here as a plain function rather than importing
// typesys, to keep this leaf package dependency-free; callers map the bool
// result onto typesys.Tri.
type CompareOp int

const (
	LessThan CompareOp = iota
	LessEqual
	GreaterThan
	GreaterEqual
	Equal
	NotEqual
)

// Compare evaluates op on a and b, returning (result, known). known is false
// when either operand is AnyInt.
func Compare(op CompareOp, a, b Int) (result, known bool) {
	if !a.exact || !b.exact {
		return false, false
	}
	switch op {
	case LessThan:
		return a.value < b.value, true
	case LessEqual:
		return a.value <= b.value, true
	case GreaterThan:
		return a.value > b.value, true
	case GreaterEqual:
		return a.value >= b.value, true
	case Equal:
		return a.value == b.value, true
	case NotEqual:
		return a.value != b.value, true
	default:
		return false, false
	}
}

// ToLong widens an Int to the long sort's exact representation when
// concrete, reporting whether the widening was exact.
func (i Int) ToLong() (int64, bool) {
	if !i.exact {
		return 0, false
	}
	return int64(i.value), true
}
