package evaluator

import (
	"math"

	"github.com/dop251/goja/token"

	"escore/pkg/vm"
)

// applyOperator implements ApplyStringOrNumericBinaryOperator for the
// arithmetic, bitwise and shift operators shared by binary and compound
// assignment expressions.
func applyOperator(a *vm.Agent, op token.Token, left, right vm.Value) (vm.Value, error) {
	if op == token.PLUS {
		lprim, err := vm.ToPrimitive(a, left, vm.HintDefault)
		if err != nil {
			return vm.Undefined, err
		}
		rprim, err := vm.ToPrimitive(a, right, vm.HintDefault)
		if err != nil {
			return vm.Undefined, err
		}
		if lprim.IsString() || rprim.IsString() {
			ls, err := vm.ToString(a, lprim)
			if err != nil {
				return vm.Undefined, err
			}
			rs, err := vm.ToString(a, rprim)
			if err != nil {
				return vm.Undefined, err
			}
			return vm.StringValue(ls + rs), nil
		}
		left, right = lprim, rprim
	}

	lnum, err := vm.ToNumeric(a, left)
	if err != nil {
		return vm.Undefined, err
	}
	rnum, err := vm.ToNumeric(a, right)
	if err != nil {
		return vm.Undefined, err
	}

	switch op {
	case token.PLUS:
		return vm.NumberValue(lnum + rnum), nil
	case token.MINUS:
		return vm.NumberValue(lnum - rnum), nil
	case token.MULTIPLY:
		return vm.NumberValue(lnum * rnum), nil
	case token.SLASH:
		return vm.NumberValue(lnum / rnum), nil
	case token.REMAINDER:
		return vm.NumberValue(remainder(lnum, rnum)), nil
	case token.EXPONENT:
		return vm.NumberValue(exponentiate(lnum, rnum)), nil
	}

	switch op {
	case token.AND, token.OR, token.EXCLUSIVE_OR:
		l, r := toInt32(lnum), toInt32(rnum)
		switch op {
		case token.AND:
			return vm.NumberValue(float64(l & r)), nil
		case token.OR:
			return vm.NumberValue(float64(l | r)), nil
		}
		return vm.NumberValue(float64(l ^ r)), nil
	case token.SHIFT_LEFT:
		return vm.NumberValue(float64(toInt32(lnum) << (toUint32(rnum) & 31))), nil
	case token.SHIFT_RIGHT:
		return vm.NumberValue(float64(toInt32(lnum) >> (toUint32(rnum) & 31))), nil
	case token.UNSIGNED_SHIFT_RIGHT:
		return vm.NumberValue(float64(toUint32(lnum) >> (toUint32(rnum) & 31))), nil
	}
	return vm.Undefined, a.NewSyntaxError("unsupported operator %s", op)
}

// remainder follows Number::remainder; the sign of the result is the sign
// of the dividend.
func remainder(n, d float64) float64 {
	if math.IsNaN(n) || math.IsNaN(d) || math.IsInf(n, 0) || d == 0 {
		return math.NaN()
	}
	if math.IsInf(d, 0) || n == 0 {
		return n
	}
	return math.Mod(n, d)
}

// exponentiate differs from math.Pow where Number::exponentiate yields NaN.
func exponentiate(base, exp float64) float64 {
	if math.IsNaN(exp) {
		return math.NaN()
	}
	if math.IsInf(exp, 0) && math.Abs(base) == 1 {
		return math.NaN()
	}
	return math.Pow(base, exp)
}

func toInt32(n float64) int32 { return int32(toUint32(n)) }

func toUint32(n float64) uint32 {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return uint32(int64(math.Mod(math.Trunc(n), 1<<32)))
}
