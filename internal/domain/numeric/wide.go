package numeric

import "fmt"

// Long, Float, and Double mirror Int's AnyX/ExactX shape for the three
// remaining primitive arithmetic sorts. They get a lighter API than Int:
// constructors, Value, String and Join for all three, plus AbstractsOver for
// Long. No arithmetic is defined on them here; the interpreter evaluates the
// few long/float/double opcodes it models directly.

type Long struct {
	exact bool
	value int64
}

var AnyLong = Long{}

func ExactLong(v int64) Long { return Long{exact: true, value: v} }

func (l Long) IsExact() bool        { return l.exact }
func (l Long) Value() (int64, bool) { return l.value, l.exact }

func (l Long) String() string {
	if !l.exact {
		return "AnyLong"
	}
	return fmt.Sprintf("ExactLong(%d)", l.value)
}

func (l Long) Join(o Long) Long {
	if l.exact && o.exact && l.value == o.value {
		return l
	}
	return AnyLong
}

func (l Long) AbstractsOver(o Long) bool {
	if !l.exact {
		return true
	}
	return o.exact && l.value == o.value
}

type Float struct {
	exact bool
	value float32
}

var AnyFloat = Float{}

func ExactFloat(v float32) Float { return Float{exact: true, value: v} }

func (f Float) IsExact() bool          { return f.exact }
func (f Float) Value() (float32, bool) { return f.value, f.exact }

func (f Float) String() string {
	if !f.exact {
		return "AnyFloat"
	}
	return fmt.Sprintf("ExactFloat(%v)", f.value)
}

func (f Float) Join(o Float) Float {
	if f.exact && o.exact && f.value == o.value {
		return f
	}
	return AnyFloat
}

type Double struct {
	exact bool
	value float64
}

var AnyDouble = Double{}

func ExactDouble(v float64) Double { return Double{exact: true, value: v} }

func (d Double) IsExact() bool          { return d.exact }
func (d Double) Value() (float64, bool) { return d.value, d.exact }

func (d Double) String() string {
	if !d.exact {
		return "AnyDouble"
	}
	return fmt.Sprintf("ExactDouble(%v)", d.value)
}

func (d Double) Join(o Double) Double {
	if d.exact && o.exact && d.value == o.value {
		return d
	}
	return AnyDouble
}
