package value

import (
	"math"
	"strconv"
	"strings"
)

type ValueType int

const (
	VAL_NONE ValueType = iota
	VAL_BOOL
	VAL_INT
	VAL_DOUBLE
	VAL_INFINITY
	VAL_NAN
	VAL_OBJ
)

// dblEpsilon is DBL_EPSILON: the tolerance for numeric equality on the
// double projection.
const dblEpsilon = 2.220446049250313e-16

// Value is a tagged union. Bool doubles as the sign bit for VAL_INFINITY
// and VAL_NAN (true = positive); Int and Double stay distinct in storage and
// only meet in arithmetic.
type Value struct {
	Type   ValueType
	Bool   bool
	Int    int64
	Double float64
	Obj    *Obj
}

func NoneVal() Value {
	return Value{Type: VAL_NONE}
}

func BoolVal(b bool) Value {
	return Value{Type: VAL_BOOL, Bool: b}
}

func IntVal(i int64) Value {
	return Value{Type: VAL_INT, Int: i}
}

func DoubleVal(d float64) Value {
	return Value{Type: VAL_DOUBLE, Double: d}
}

func InfinityVal(positive bool) Value {
	return Value{Type: VAL_INFINITY, Bool: positive}
}

// NaNVal carries a sign; the default NaN is negative.
func NaNVal(positive bool) Value {
	return Value{Type: VAL_NAN, Bool: positive}
}

func ObjVal(o *Obj) Value {
	return Value{Type: VAL_OBJ, Obj: o}
}

func (v Value) IsNone() bool {
	return v.Type == VAL_NONE
}

func (v Value) IsBool() bool {
	return v.Type == VAL_BOOL
}

// IsNumber reports an Int or Double; the special tags are not plain numbers.
func (v Value) IsNumber() bool {
	return v.Type == VAL_INT || v.Type == VAL_DOUBLE
}

// IsSpecial reports an Infinity or NaN tag.
func (v Value) IsSpecial() bool {
	return v.Type == VAL_INFINITY || v.Type == VAL_NAN
}

// IsNumeric admits everything arithmetic can digest: plain numbers and the
// special tags.
func (v Value) IsNumeric() bool {
	return v.IsNumber() || v.IsSpecial()
}

func (v Value) IsString() bool {
	return v.Type == VAL_OBJ && v.Obj != nil && v.Obj.Type == OBJ_STRING
}

// Falsey: None, false, and the empty string. Everything else is truthy.
func (v Value) Falsey() bool {
	switch v.Type {
	case VAL_NONE:
		return true
	case VAL_BOOL:
		return !v.Bool
	case VAL_OBJ:
		return v.Obj.Type == OBJ_STRING && v.Obj.Str == ""
	default:
		return false
	}
}

// project maps a value onto the doubles; the special tags become their IEEE
// counterparts here and nowhere else.
func (v Value) project() float64 {
	switch v.Type {
	case VAL_INT:
		return float64(v.Int)
	case VAL_DOUBLE:
		return v.Double
	case VAL_INFINITY:
		if v.Bool {
			return math.Inf(1)
		}
		return math.Inf(-1)
	case VAL_NAN:
		return math.NaN()
	default:
		return 0
	}
}

// comparable for the ordering operators: numbers and special numbers only.
func (v Value) comparable() bool {
	return v.IsNumeric()
}

// String renders the display form used by PRINT and by string coercion.
func (v Value) String() string {
	switch v.Type {
	case VAL_NONE:
		return "None"
	case VAL_BOOL:
		if v.Bool {
			return "true"
		}
		return "false"
	case VAL_INT:
		return strconv.FormatInt(v.Int, 10)
	case VAL_DOUBLE:
		return strconv.FormatFloat(v.Double, 'g', -1, 64)
	case VAL_INFINITY:
		if v.Bool {
			return "inf"
		}
		return "-inf"
	case VAL_NAN:
		if v.Bool {
			return "Nan"
		}
		return "-Nan"
	case VAL_OBJ:
		return v.Obj.String()
	default:
		return "unknown"
	}
}

// Add: number + number keeps Int when both sides are Int. A string absorbs
// the other operand through its display form. None absorbs everything.
// Special tags propagate, sign preserved from the left operand.
func Add(p *Pool, a, b Value) Value {
	if a.IsNone() || b.IsNone() {
		return NoneVal()
	}
	if a.IsString() || b.IsString() {
		return p.StringVal(a.String() + b.String())
	}
	if a.IsSpecial() {
		return a
	}
	if b.IsSpecial() {
		return b
	}
	if a.IsNumber() && b.IsNumber() {
		if a.Type == VAL_INT && b.Type == VAL_INT {
			return IntVal(a.Int + b.Int)
		}
		return DoubleVal(a.project() + b.project())
	}
	return NoneVal()
}

// Multiply: String * Int(n) repeats the string max(0, n) times; every other
// object combination yields None.
func Multiply(p *Pool, a, b Value) Value {
	if a.IsNone() || b.IsNone() {
		return NoneVal()
	}
	if a.IsString() || b.IsString() {
		if a.IsString() && b.Type == VAL_INT {
			return p.StringVal(repeat(a.Obj.Str, b.Int))
		}
		if b.IsString() && a.Type == VAL_INT {
			return p.StringVal(repeat(b.Obj.Str, a.Int))
		}
		return NoneVal()
	}
	if a.IsSpecial() {
		return a
	}
	if b.IsSpecial() {
		return b
	}
	if a.IsNumber() && b.IsNumber() {
		if a.Type == VAL_INT && b.Type == VAL_INT {
			return IntVal(a.Int * b.Int)
		}
		return DoubleVal(a.project() * b.project())
	}
	return NoneVal()
}

func repeat(s string, n int64) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(s, int(n))
}

// Divide always yields a Double. Zero over zero is the default (negative)
// NaN; anything else over zero is an Infinity signed like the numerator.
func Divide(a, b Value) Value {
	if a.IsNone() || b.IsNone() {
		return NoneVal()
	}
	if a.IsSpecial() {
		return a
	}
	if b.IsSpecial() {
		return b
	}
	if a.IsNumber() && b.IsNumber() {
		bd := b.project()
		if bd == 0 {
			ad := a.project()
			if ad == 0 {
				return NaNVal(false)
			}
			return InfinityVal(ad > 0)
		}
		return DoubleVal(a.project() / bd)
	}
	return NoneVal()
}

// Modulo is fmod on the double projection of both operands.
func Modulo(a, b Value) Value {
	if a.IsNone() || b.IsNone() {
		return NoneVal()
	}
	if a.IsSpecial() {
		return a
	}
	if b.IsSpecial() {
		return b
	}
	if a.IsNumber() && b.IsNumber() {
		r := math.Mod(a.project(), b.project())
		if math.IsNaN(r) {
			return NaNVal(false)
		}
		if math.IsInf(r, 0) {
			return InfinityVal(r > 0)
		}
		return DoubleVal(r)
	}
	return NoneVal()
}

// LeftShift is defined only on two Ints; otherwise None. A huge or negative
// count shifts everything out.
func LeftShift(a, b Value) Value {
	if a.Type == VAL_INT && b.Type == VAL_INT {
		return IntVal(a.Int << uint64(b.Int))
	}
	return NoneVal()
}

func RightShift(a, b Value) Value {
	if a.Type == VAL_INT && b.Type == VAL_INT {
		return IntVal(a.Int >> uint64(b.Int))
	}
	return NoneVal()
}

// Greater and friends are defined only on two numbers (special tags
// included); a string, None, or Bool on either side makes the result false.
func Greater(a, b Value) bool {
	if !a.comparable() || !b.comparable() {
		return false
	}
	return a.project() > b.project()
}

func Less(a, b Value) bool {
	if !a.comparable() || !b.comparable() {
		return false
	}
	return a.project() < b.project()
}

func GreaterEqual(a, b Value) bool {
	if !a.comparable() || !b.comparable() {
		return false
	}
	return a.project() >= b.project()
}

func LessEqual(a, b Value) bool {
	if !a.comparable() || !b.comparable() {
		return false
	}
	return a.project() <= b.project()
}

// Equal: NaN is never equal to anything, itself included. Int and Double
// cross-compare through the double projection with a DBL_EPSILON tolerance;
// interned strings compare by handle identity; everything else needs
// matching tags.
func Equal(a, b Value) bool {
	if a.Type == VAL_NAN || b.Type == VAL_NAN {
		return false
	}
	if a.Type == VAL_INT && b.Type == VAL_INT {
		return a.Int == b.Int
	}
	if a.IsNumber() && b.IsNumber() {
		return math.Abs(a.project()-b.project()) <= dblEpsilon
	}
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case VAL_NONE:
		return true
	case VAL_BOOL:
		return a.Bool == b.Bool
	case VAL_INFINITY:
		return a.Bool == b.Bool
	case VAL_OBJ:
		return a.Obj == b.Obj
	default:
		return false
	}
}

// Negate flips the sign of a number, or the sign bit of a special number.
// The ok result is false for every other tag; the caller reports the error.
func Negate(v Value) (Value, bool) {
	switch v.Type {
	case VAL_INT:
		return IntVal(-v.Int), true
	case VAL_DOUBLE:
		return DoubleVal(-v.Double), true
	case VAL_INFINITY:
		return InfinityVal(!v.Bool), true
	case VAL_NAN:
		return NaNVal(!v.Bool), true
	default:
		return Value{}, false
	}
}
