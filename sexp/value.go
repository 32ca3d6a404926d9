package sexp

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind tags the dynamic type a Value holds.
type Kind int

const (
	KindNil Kind = iota
	KindSymbol
	KindInt
	KindFloat
	KindString
	KindList
)

// Symbol is an interned-by-value symbol name. It is a distinct type (not a
// bare string) so a Value holding a Symbol can't be mistaken for a Value
// holding a String at a call site without an explicit conversion.
type Symbol string

// Value is a tagged union over the dialect's five shapes plus nil. Only
// the field matching Kind is meaningful.
type Value struct {
	Kind Kind
	Sym  Symbol
	Int  int64
	Flt  float64
	Str  string
	List []Value
}

// Nil returns the empty list, which doubles as the dialect's nil.
func Nil() Value { return Value{Kind: KindNil} }

// Sym wraps name as a symbol Value.
func Sym(name string) Value { return Value{Kind: KindSymbol, Sym: Symbol(name)} }

// Int wraps an integer Value.
func Int(n int64) Value { return Value{Kind: KindInt, Int: n} }

// Float wraps a floating point Value.
func Float(f float64) Value { return Value{Kind: KindFloat, Flt: f} }

// Str wraps a string Value.
func Str(s string) Value { return Value{Kind: KindString, Str: s} }

// List wraps a proper list Value. An empty list is equivalent to Nil.
func List(items ...Value) Value {
	if len(items) == 0 {
		return Nil()
	}
	return Value{Kind: KindList, List: items}
}

// IsNil reports whether v is the empty list.
func (v Value) IsNil() bool { return v.Kind == KindNil || (v.Kind == KindList && len(v.List) == 0) }

// IsSymbol reports whether v is a symbol equal to name.
func (v Value) IsSymbol(name string) bool { return v.Kind == KindSymbol && string(v.Sym) == name }

// Equal reports deep structural equality, used by the round-trip tests.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		// Nil and an empty list are the same value under two different
		// construction paths; everything else requires an exact Kind match.
		return v.IsNil() && other.IsNil()
	}
	switch v.Kind {
	case KindNil:
		return true
	case KindSymbol:
		return v.Sym == other.Sym
	case KindInt:
		return v.Int == other.Int
	case KindFloat:
		return v.Flt == other.Flt
	case KindString:
		return v.Str == other.Str
	case KindList:
		if len(v.List) != len(other.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(other.List[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders v for diagnostics; it is not the wire encoder (see
// Encode for that).
func (v Value) String() string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindSymbol:
		return string(v.Sym)
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Flt, 'g', -1, 64)
	case KindString:
		return fmt.Sprintf("%q", v.Str)
	case KindList:
		parts := make([]string, len(v.List))
		for i, item := range v.List {
			parts[i] = item.String()
		}
		return "(" + strings.Join(parts, " ") + ")"
	default:
		return "<invalid>"
	}
}

// Elem returns the i-th element of a list Value, or Nil if v is not a list
// or i is out of range. Convenience for the EPC layer's positional
// destructuring of call/return/etc. payloads.
func (v Value) Elem(i int) Value {
	if v.Kind != KindList || i < 0 || i >= len(v.List) {
		return Nil()
	}
	return v.List[i]
}

// Len returns the number of elements in a list Value, or 0 otherwise.
func (v Value) Len() int {
	if v.Kind != KindList {
		return 0
	}
	return len(v.List)
}
