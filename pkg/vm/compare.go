package vm

import (
	"math"
	"unicode/utf16"
)

// SameValue distinguishes +0 from -0 and treats NaN as equal to itself.
func SameValue(x, y Value) bool {
	if x.typ != y.typ {
		return false
	}
	if x.typ == TypeNumber {
		if math.IsNaN(x.num) && math.IsNaN(y.num) {
			return true
		}
		return x.num == y.num && math.Signbit(x.num) == math.Signbit(y.num)
	}
	return SameValueNonNumber(x, y)
}

// SameValueZero is SameValue with +0 and -0 equal.
func SameValueZero(x, y Value) bool {
	if x.typ == TypeNumber && y.typ == TypeNumber {
		if math.IsNaN(x.num) && math.IsNaN(y.num) {
			return true
		}
		return x.num == y.num
	}
	return SameValue(x, y)
}

func SameValueNonNumber(x, y Value) bool {
	if x.typ != y.typ {
		return false
	}
	switch x.typ {
	case TypeUndefined, TypeNull, TypeEmpty:
		return true
	case TypeBoolean:
		return x.AsBoolean() == y.AsBoolean()
	case TypeString:
		return x.str == y.str
	case TypeSymbol:
		return x.sym == y.sym
	case TypeObject:
		return x.obj == y.obj
	}
	return false
}

// IsStrictlyEqual implements ===.
func IsStrictlyEqual(x, y Value) bool {
	if x.typ != y.typ {
		return false
	}
	if x.typ == TypeNumber {
		return x.num == y.num
	}
	return SameValueNonNumber(x, y)
}

// IsLooselyEqual implements ==.
func IsLooselyEqual(a *Agent, x, y Value) (bool, error) {
	if x.typ == y.typ {
		return IsStrictlyEqual(x, y), nil
	}
	if x.IsNullish() && y.IsNullish() {
		return true, nil
	}
	switch {
	case x.IsNumber() && y.IsString():
		return x.num == StringToNumber(y.str), nil
	case x.IsString() && y.IsNumber():
		return StringToNumber(x.str) == y.num, nil
	case x.IsBoolean():
		n, _ := ToNumber(a, x)
		return IsLooselyEqual(a, NumberValue(n), y)
	case y.IsBoolean():
		n, _ := ToNumber(a, y)
		return IsLooselyEqual(a, x, NumberValue(n))
	case (x.IsString() || x.IsNumber() || x.IsSymbol()) && y.IsObject():
		prim, err := ToPrimitive(a, y, HintDefault)
		if err != nil {
			return false, err
		}
		return IsLooselyEqual(a, x, prim)
	case x.IsObject() && (y.IsString() || y.IsNumber() || y.IsSymbol()):
		prim, err := ToPrimitive(a, x, HintDefault)
		if err != nil {
			return false, err
		}
		return IsLooselyEqual(a, prim, y)
	}
	return false, nil
}

// IsLessThan compares x < y. The result is undefined (ok == false) when
// either side is NaN. leftFirst controls conversion order.
func IsLessThan(a *Agent, x, y Value, leftFirst bool) (less bool, ok bool, err error) {
	var px, py Value
	if leftFirst {
		if px, err = ToPrimitive(a, x, HintNumber); err != nil {
			return
		}
		if py, err = ToPrimitive(a, y, HintNumber); err != nil {
			return
		}
	} else {
		if py, err = ToPrimitive(a, y, HintNumber); err != nil {
			return
		}
		if px, err = ToPrimitive(a, x, HintNumber); err != nil {
			return
		}
	}
	if px.IsString() && py.IsString() {
		return compareUTF16(px.str, py.str) < 0, true, nil
	}
	nx, err := ToNumeric(a, px)
	if err != nil {
		return false, false, err
	}
	ny, err := ToNumeric(a, py)
	if err != nil {
		return false, false, err
	}
	if math.IsNaN(nx) || math.IsNaN(ny) {
		return false, false, nil
	}
	return nx < ny, true, nil
}

// compareUTF16 orders strings by UTF-16 code units.
func compareUTF16(x, y string) int {
	ux := utf16.Encode([]rune(x))
	uy := utf16.Encode([]rune(y))
	for i := 0; i < len(ux) && i < len(uy); i++ {
		if ux[i] != uy[i] {
			if ux[i] < uy[i] {
				return -1
			}
			return 1
		}
	}
	return len(ux) - len(uy)
}
