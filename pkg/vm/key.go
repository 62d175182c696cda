package vm

import (
	"math"
	"strconv"
)

type KeyKind uint8

const (
	KeyKindString KeyKind = iota
	KeyKindSymbol
)

// PropertyKey is a string or symbol property key. Keys are comparable and
// can be used directly as map keys.
type PropertyKey struct {
	kind KeyKind
	name string
	sym  *Symbol
}

func StringKey(name string) PropertyKey {
	return PropertyKey{kind: KeyKindString, name: name}
}

func SymbolKey(sym *Symbol) PropertyKey {
	return PropertyKey{kind: KeyKindSymbol, sym: sym}
}

// IndexKey returns the canonical string key for an array index.
func IndexKey(i uint32) PropertyKey {
	return StringKey(strconv.FormatUint(uint64(i), 10))
}

func (k PropertyKey) IsString() bool  { return k.kind == KeyKindString }
func (k PropertyKey) IsSymbol() bool  { return k.kind == KeyKindSymbol }
func (k PropertyKey) Name() string    { return k.name }
func (k PropertyKey) Symbol() *Symbol { return k.sym }

// Value converts the key back to a language value.
func (k PropertyKey) Value() Value {
	if k.kind == KeyKindSymbol {
		return SymbolValue(k.sym)
	}
	return StringValue(k.name)
}

func (k PropertyKey) String() string {
	if k.kind == KeyKindSymbol {
		return "[" + k.sym.DescriptiveString() + "]"
	}
	return k.name
}

// ArrayIndex reports whether the key is a canonical array index
// (an integer in [0, 2^32-2] printed without leading zeros).
func (k PropertyKey) ArrayIndex() (uint32, bool) {
	if k.kind != KeyKindString {
		return 0, false
	}
	s := k.name
	if len(s) == 0 || len(s) > 10 {
		return 0, false
	}
	if len(s) > 1 && s[0] == '0' {
		return 0, false
	}
	var n uint64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + uint64(c-'0')
	}
	if n >= math.MaxUint32 {
		return 0, false
	}
	return uint32(n), true
}

// CanonicalNumericIndex implements CanonicalNumericIndexString for string
// exotic objects: it reports the numeric value when the key round-trips.
func (k PropertyKey) CanonicalNumericIndex() (float64, bool) {
	if k.kind != KeyKindString {
		return 0, false
	}
	if k.name == "-0" {
		return math.Copysign(0, -1), true
	}
	n := StringToNumber(k.name)
	if NumberToString(n) != k.name {
		return 0, false
	}
	return n, true
}
