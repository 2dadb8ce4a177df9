package bytecode

import (
	"fmt"
	"math"
	"strconv"
)

// ValueType is the tag of a Value.
type ValueType uint8

const (
	ValNil ValueType = iota
	ValBool
	ValNumber
)

// String returns a human-readable name for ValueType.
func (t ValueType) String() string {
	switch t {
	case ValNil:
		return "nil"
	case ValBool:
		return "bool"
	case ValNumber:
		return "number"
	default:
		return fmt.Sprintf("ValueType(%d)", t)
	}
}

// Value is an immutable tagged union over nil, booleans and float64 numbers.
// The zero Value is nil.
type Value struct {
	typ ValueType
	b   bool
	n   float64
}

// Nil is the absence-of-value sentinel.
var Nil = Value{}

// Bool wraps a boolean.
func Bool(b bool) Value {
	return Value{typ: ValBool, b: b}
}

// Number wraps a float64.
func Number(n float64) Value {
	return Value{typ: ValNumber, n: n}
}

// Type returns the variant tag.
func (v Value) Type() ValueType { return v.typ }

// AsBool returns the boolean payload and whether v is a Bool.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.typ == ValBool
}

// AsNumber returns the numeric payload and whether v is a Number.
func (v Value) AsNumber() (float64, bool) {
	return v.n, v.typ == ValNumber
}

// IsFalsey reports whether v counts as false: only nil and false do.
// Every number, including 0 and NaN, is truthy.
func (v Value) IsFalsey() bool {
	return v.typ == ValNil || (v.typ == ValBool && !v.b)
}

// Equal is structural equality. Values of different variants are never
// equal, and numbers compare with IEEE-754 ==, so NaN != NaN.
func (v Value) Equal(other Value) bool {
	if v.typ != other.typ {
		return false
	}
	switch v.typ {
	case ValBool:
		return v.b == other.b
	case ValNumber:
		return v.n == other.n
	default:
		return true
	}
}

// String renders the value the way the interpreter prints results.
func (v Value) String() string {
	switch v.typ {
	case ValBool:
		return strconv.FormatBool(v.b)
	case ValNumber:
		return formatNumber(v.n)
	default:
		return "nil"
	}
}

func formatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "nan"
	case math.IsInf(n, 1):
		return "inf"
	case math.IsInf(n, -1):
		return "-inf"
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}
