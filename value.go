package minilux

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueTag enumerates the runtime kinds a Value may hold.
type ValueTag int

const (
	VTNil   ValueTag = iota // no value (no payload)
	VTInt                   // int64
	VTStr                   // string
	VTArray                 // []Value
)

// Value is the universal runtime carrier: a tagged sum over nil, signed
// 64-bit integers, UTF-8 strings, and heterogeneous arrays. The tag
// determines which Go type Data holds.
type Value struct {
	Tag  ValueTag
	Data interface{}
}

// Nil is the singleton nil Value.
var Nil = Value{Tag: VTNil}

// Primitive constructors.
func Int(n int64) Value    { return Value{Tag: VTInt, Data: n} }
func Str(s string) Value   { return Value{Tag: VTStr, Data: s} }
func Arr(xs []Value) Value { return Value{Tag: VTArray, Data: xs} }

// String renders a debug representation.
func (v Value) String() string {
	switch v.Tag {
	case VTNil:
		return "nil"
	case VTInt:
		return strconv.FormatInt(v.Data.(int64), 10)
	case VTStr:
		return fmt.Sprintf("%q", v.Data.(string))
	case VTArray:
		return fmt.Sprintf("<array len=%d>", len(v.Data.([]Value)))
	default:
		return "<unknown>"
	}
}

// Render is the program-facing textual form used by printf, string
// concatenation, and interpolation. Nil renders as the empty string;
// arrays render as "[1, 2, 3]" with string elements quoted.
func (v Value) Render() string {
	switch v.Tag {
	case VTNil:
		return ""
	case VTInt:
		return strconv.FormatInt(v.Data.(int64), 10)
	case VTStr:
		return v.Data.(string)
	case VTArray:
		xs := v.Data.([]Value)
		items := make([]string, 0, len(xs))
		for _, x := range xs {
			if x.Tag == VTStr {
				items = append(items, fmt.Sprintf("%q", x.Data.(string)))
			} else {
				items = append(items, x.Render())
			}
		}
		return "[" + strings.Join(items, ", ") + "]"
	default:
		return ""
	}
}

// Truthy reports whether control flow treats v as true: a nonzero Int, a
// non-empty Str, or a non-empty Array.
func (v Value) Truthy() bool {
	switch v.Tag {
	case VTInt:
		return v.Data.(int64) != 0
	case VTStr:
		return v.Data.(string) != ""
	case VTArray:
		return len(v.Data.([]Value)) != 0
	default:
		return false
	}
}

// ToInt coerces to an integer: Int as-is, Str parsed as signed decimal
// (0 on failure), everything else 0.
func (v Value) ToInt() int64 {
	switch v.Tag {
	case VTInt:
		return v.Data.(int64)
	case VTStr:
		n, err := strconv.ParseInt(strings.TrimSpace(v.Data.(string)), 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func boolInt(b bool) Value {
	if b {
		return Int(1)
	}
	return Int(0)
}

// Add implements "+": integer addition, string concatenation, and
// mixed Int/Str concatenation (the Int rendered as decimal). Any other
// pairing, arrays included, yields Nil.
func (v Value) Add(o Value) Value {
	switch {
	case v.Tag == VTInt && o.Tag == VTInt:
		return Int(v.Data.(int64) + o.Data.(int64))
	case v.Tag == VTStr && o.Tag == VTStr:
		return Str(v.Data.(string) + o.Data.(string))
	case v.Tag == VTInt && o.Tag == VTStr:
		return Str(strconv.FormatInt(v.Data.(int64), 10) + o.Data.(string))
	case v.Tag == VTStr && o.Tag == VTInt:
		return Str(v.Data.(string) + strconv.FormatInt(o.Data.(int64), 10))
	default:
		return Nil
	}
}

// Sub, Mul, Div, and Mod are integer-only; any other pairing yields Nil.
// Division and modulo by zero yield Nil (the evaluator adds the
// diagnostic).

func (v Value) Sub(o Value) Value {
	if v.Tag == VTInt && o.Tag == VTInt {
		return Int(v.Data.(int64) - o.Data.(int64))
	}
	return Nil
}

func (v Value) Mul(o Value) Value {
	if v.Tag == VTInt && o.Tag == VTInt {
		return Int(v.Data.(int64) * o.Data.(int64))
	}
	return Nil
}

func (v Value) Div(o Value) Value {
	if v.Tag == VTInt && o.Tag == VTInt {
		d := o.Data.(int64)
		if d == 0 {
			return Nil
		}
		return Int(v.Data.(int64) / d)
	}
	return Nil
}

func (v Value) Mod(o Value) Value {
	if v.Tag == VTInt && o.Tag == VTInt {
		d := o.Data.(int64)
		if d == 0 {
			return Nil
		}
		return Int(v.Data.(int64) % d)
	}
	return Nil
}

// Equals implements "==": numeric on Int pairs, lexicographic on Str
// pairs, true on Nil pairs. Cross-type operands are always unequal, and
// arrays never compare equal.
func (v Value) Equals(o Value) bool {
	switch {
	case v.Tag == VTInt && o.Tag == VTInt:
		return v.Data.(int64) == o.Data.(int64)
	case v.Tag == VTStr && o.Tag == VTStr:
		return v.Data.(string) == o.Data.(string)
	case v.Tag == VTNil && o.Tag == VTNil:
		return true
	default:
		return false
	}
}

// Compare returns -1, 0, or 1 for comparable pairs (Int/Int numeric,
// Str/Str lexicographic) and ok=false otherwise.
func (v Value) Compare(o Value) (int, bool) {
	switch {
	case v.Tag == VTInt && o.Tag == VTInt:
		a, b := v.Data.(int64), o.Data.(int64)
		switch {
		case a < b:
			return -1, true
		case a > b:
			return 1, true
		default:
			return 0, true
		}
	case v.Tag == VTStr && o.Tag == VTStr:
		return strings.Compare(v.Data.(string), o.Data.(string)), true
	default:
		return 0, false
	}
}

// Negate implements unary "-": Int negation, Nil for anything else.
func (v Value) Negate() Value {
	if v.Tag == VTInt {
		return Int(-v.Data.(int64))
	}
	return Nil
}

// Not implements unary "!": 1 if falsy, else 0.
func (v Value) Not() Value {
	return boolInt(!v.Truthy())
}
