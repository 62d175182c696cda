package vm

import (
	"math"
	"strconv"
	"strings"

	"github.com/dop251/goja/ftoa"
)

type PreferredType uint8

const (
	HintDefault PreferredType = iota
	HintString
	HintNumber
)

func (h PreferredType) String() string {
	switch h {
	case HintString:
		return "string"
	case HintNumber:
		return "number"
	}
	return "default"
}

// ToPrimitive converts objects through @@toPrimitive or valueOf/toString.
func ToPrimitive(a *Agent, v Value, hint PreferredType) (Value, error) {
	if !v.IsObject() {
		return v, nil
	}
	exoticToPrim, err := GetMethod(a, v, SymbolKey(SymToPrimitive))
	if err != nil {
		return Undefined, err
	}
	if !exoticToPrim.IsUndefined() {
		result, err := Call(a, exoticToPrim, v, []Value{StringValue(hint.String())})
		if err != nil {
			return Undefined, err
		}
		if result.IsObject() {
			return Undefined, a.NewTypeError("Cannot convert object to primitive value")
		}
		return result, nil
	}
	if hint == HintDefault {
		hint = HintNumber
	}
	return OrdinaryToPrimitive(a, v.obj, hint)
}

func OrdinaryToPrimitive(a *Agent, o *Object, hint PreferredType) (Value, error) {
	methodNames := [2]string{"valueOf", "toString"}
	if hint == HintString {
		methodNames = [2]string{"toString", "valueOf"}
	}
	for _, name := range methodNames {
		method, err := Get(a, o, StringKey(name))
		if err != nil {
			return Undefined, err
		}
		if IsCallable(method) {
			result, err := Call(a, method, ObjectValue(o), nil)
			if err != nil {
				return Undefined, err
			}
			if !result.IsObject() {
				return result, nil
			}
		}
	}
	return Undefined, a.NewTypeError("Cannot convert object to primitive value")
}

func ToBoolean(v Value) bool {
	switch v.typ {
	case TypeUndefined, TypeNull, TypeEmpty:
		return false
	case TypeBoolean:
		return v.AsBoolean()
	case TypeNumber:
		return !(v.num == 0 || math.IsNaN(v.num))
	case TypeString:
		return v.str != ""
	}
	return true
}

// ToNumeric is ToNumber; BigInt is not supported.
func ToNumeric(a *Agent, v Value) (float64, error) {
	return ToNumber(a, v)
}

func ToNumber(a *Agent, v Value) (float64, error) {
	switch v.typ {
	case TypeUndefined, TypeEmpty:
		return math.NaN(), nil
	case TypeNull:
		return 0, nil
	case TypeBoolean:
		if v.AsBoolean() {
			return 1, nil
		}
		return 0, nil
	case TypeNumber:
		return v.num, nil
	case TypeString:
		return StringToNumber(v.str), nil
	case TypeSymbol:
		return 0, a.NewTypeError("Cannot convert a Symbol value to a number")
	}
	prim, err := ToPrimitive(a, v, HintNumber)
	if err != nil {
		return 0, err
	}
	return ToNumber(a, prim)
}

// IsJSSpace reports the characters StringToNumber and String.prototype.trim
// strip: WhiteSpace and LineTerminator.
func IsJSSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', 0xA0, 0x1680, 0x2028, 0x2029, 0x202F, 0x205F, 0x3000, 0xFEFF:
		return true
	}
	return r >= 0x2000 && r <= 0x200A
}

// TrimJSSpace strips leading and trailing whitespace and line terminators.
func TrimJSSpace(s string) string {
	return strings.TrimFunc(s, IsJSSpace)
}

// StringToNumber implements the StringNumericLiteral grammar. Strings that
// do not match yield NaN.
func StringToNumber(s string) float64 {
	s = TrimJSSpace(s)
	if s == "" {
		return 0
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			return parseRadixDigits(s[2:], base)
		}
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if !isDecimalLiteral(s) {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Out-of-range literals round to infinity, which ParseFloat
		// returns alongside the error.
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f
		}
		return math.NaN()
	}
	return f
}

func parseRadixDigits(s string, base int) float64 {
	var n float64
	for i := 0; i < len(s); i++ {
		d := digitVal(s[i])
		if d >= base {
			return math.NaN()
		}
		n = n*float64(base) + float64(d)
	}
	return n
}

func digitVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	}
	return 36
}

// isDecimalLiteral matches StrDecimalLiteral without Infinity.
func isDecimalLiteral(s string) bool {
	i := 0
	if s[i] == '+' || s[i] == '-' {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(s)
}

// NumberToString implements Number::toString for radix 10.
func NumberToString(f float64) string {
	if f == 0 {
		return "0"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	var buf [128]byte
	return string(ftoa.FToStr(f, ftoa.ModeStandard, 0, buf[:0]))
}

func ToString(a *Agent, v Value) (string, error) {
	switch v.typ {
	case TypeUndefined, TypeEmpty:
		return "undefined", nil
	case TypeNull:
		return "null", nil
	case TypeBoolean:
		if v.AsBoolean() {
			return "true", nil
		}
		return "false", nil
	case TypeNumber:
		return NumberToString(v.num), nil
	case TypeString:
		return v.str, nil
	case TypeSymbol:
		return "", a.NewTypeError("Cannot convert a Symbol value to a string")
	}
	prim, err := ToPrimitive(a, v, HintString)
	if err != nil {
		return "", err
	}
	return ToString(a, prim)
}

// ToObject wraps primitives in objects of the current realm.
func ToObject(a *Agent, v Value) (*Object, error) {
	var protoName, class string
	switch v.typ {
	case TypeObject:
		return v.obj, nil
	case TypeUndefined, TypeNull, TypeEmpty:
		return nil, a.NewTypeError("Cannot convert undefined or null to object")
	case TypeBoolean:
		protoName, class = "%Boolean.prototype%", "Boolean"
	case TypeNumber:
		protoName, class = "%Number.prototype%", "Number"
	case TypeString:
		return StringCreate(v.str, a.CurrentRealm().Intrinsic("%String.prototype%")), nil
	case TypeSymbol:
		protoName, class = "%Symbol.prototype%", "Symbol"
	}
	o := OrdinaryObjectCreate(a.CurrentRealm().Intrinsic(protoName))
	o.SetClass(class)
	o.SetPrimitiveData(v)
	return o, nil
}

func ToPropertyKey(a *Agent, v Value) (PropertyKey, error) {
	key, err := ToPrimitive(a, v, HintString)
	if err != nil {
		return PropertyKey{}, err
	}
	if key.IsSymbol() {
		return SymbolKey(key.sym), nil
	}
	s, err := ToString(a, key)
	if err != nil {
		return PropertyKey{}, err
	}
	return StringKey(s), nil
}

// ToIntegerOrInfinity truncates toward zero; NaN becomes 0.
func ToIntegerOrInfinity(a *Agent, v Value) (float64, error) {
	n, err := ToNumber(a, v)
	if err != nil {
		return 0, err
	}
	return integerOrInfinity(n), nil
}

func integerOrInfinity(n float64) float64 {
	if math.IsNaN(n) || n == 0 {
		return 0
	}
	if math.IsInf(n, 0) {
		return n
	}
	if t := math.Trunc(n); t != 0 {
		return t
	}
	return 0
}

func ToInt32(a *Agent, v Value) (int32, error) {
	n, err := ToNumber(a, v)
	if err != nil {
		return 0, err
	}
	return int32(toUint32(n)), nil
}

func ToUint32(a *Agent, v Value) (uint32, error) {
	n, err := ToNumber(a, v)
	if err != nil {
		return 0, err
	}
	return toUint32(n), nil
}

func toUint32(n float64) uint32 {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	m := math.Mod(math.Trunc(n), 4294967296)
	if m < 0 {
		m += 4294967296
	}
	return uint32(m)
}

// ToLength clamps to [0, 2^53-1].
func ToLength(a *Agent, v Value) (int64, error) {
	n, err := ToIntegerOrInfinity(a, v)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, nil
	}
	return int64(math.Min(n, 1<<53-1)), nil
}

// ToIndex validates integer indices for typed storage.
func ToIndex(a *Agent, v Value) (int64, error) {
	if v.IsUndefined() {
		return 0, nil
	}
	n, err := ToIntegerOrInfinity(a, v)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > 1<<53-1 {
		return 0, a.NewRangeError("Invalid index")
	}
	return int64(n), nil
}

// CanonicalNumericIndexString reports the number a string denotes when it
// is the canonical rendering of that number.
func CanonicalNumericIndexString(s string) (float64, bool) {
	return StringKey(s).CanonicalNumericIndex()
}

// RequireObjectCoercible rejects undefined and null.
func RequireObjectCoercible(a *Agent, v Value) (Value, error) {
	if v.IsNullish() {
		return v, a.NewTypeError("Cannot convert undefined or null to object")
	}
	return v, nil
}
