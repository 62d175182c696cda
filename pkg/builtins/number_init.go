package builtins

import (
	"math"
	"strconv"
	"strings"

	"github.com/dop251/goja/ftoa"

	"escore/pkg/vm"
)

type NumberInitializer struct{}

func (n *NumberInitializer) Name() string {
	return "Number"
}

func (n *NumberInitializer) Priority() int {
	return PriorityNumber
}

func (n *NumberInitializer) InitRuntime(ctx *RuntimeContext) error {
	proto := vm.OrdinaryObjectCreate(ctx.ObjectPrototype)
	proto.SetClass("Number")
	proto.SetPrimitiveData(vm.IntValue(0))

	ctor := newConstructor(ctx, "Number", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		num := 0.0
		if len(args) > 0 {
			var err error
			if num, err = vm.ToNumeric(a, args[0]); err != nil {
				return vm.Undefined, err
			}
		}
		if newTarget == nil {
			return vm.NumberValue(num), nil
		}
		obj, err := vm.OrdinaryCreateFromConstructor(a, newTarget, "%Number.prototype%")
		if err != nil {
			return vm.Undefined, err
		}
		obj.SetClass("Number")
		obj.SetPrimitiveData(vm.NumberValue(num))
		return vm.ObjectValue(obj), nil
	}, proto)

	defineConstant(ctor, "MAX_SAFE_INTEGER", vm.NumberValue(maxSafeLength))
	defineConstant(ctor, "MIN_SAFE_INTEGER", vm.NumberValue(-maxSafeLength))
	defineConstant(ctor, "MAX_VALUE", vm.NumberValue(math.MaxFloat64))
	defineConstant(ctor, "MIN_VALUE", vm.NumberValue(math.SmallestNonzeroFloat64))
	defineConstant(ctor, "EPSILON", vm.NumberValue(math.Nextafter(1, 2)-1))
	defineConstant(ctor, "POSITIVE_INFINITY", vm.NumberValue(math.Inf(1)))
	defineConstant(ctor, "NEGATIVE_INFINITY", vm.NumberValue(math.Inf(-1)))
	defineConstant(ctor, "NaN", vm.NaN)

	predicates := map[string]func(float64) bool{
		"isFinite":      func(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) },
		"isNaN":         math.IsNaN,
		"isInteger":     isIntegral,
		"isSafeInteger": func(f float64) bool { return isIntegral(f) && math.Abs(f) <= maxSafeLength },
	}
	for name, pred := range predicates {
		defineMethod(ctx, ctor, name, 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
			v := arg(args, 0)
			return vm.BooleanValue(v.IsNumber() && pred(v.AsNumber())), nil
		})
	}

	parseIntFn := newFunction(ctx, "parseInt", 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		s, err := vm.ToString(a, arg(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		radix, err := vm.ToInt32(a, arg(args, 1))
		if err != nil {
			return vm.Undefined, err
		}
		return vm.NumberValue(parseInt(s, int(radix))), nil
	})
	parseFloatFn := newFunction(ctx, "parseFloat", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		s, err := vm.ToString(a, arg(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		return vm.NumberValue(parseFloat(s)), nil
	})
	ctor.SetMethod("parseInt", vm.ObjectValue(parseIntFn))
	ctor.SetMethod("parseFloat", vm.ObjectValue(parseFloatFn))
	ctx.Realm.SetIntrinsic("%parseInt%", parseIntFn)
	ctx.Realm.SetIntrinsic("%parseFloat%", parseFloatFn)

	n.initPrototype(ctx, proto)
	return ctx.DefineGlobal("Number", vm.ObjectValue(ctor))
}

func (n *NumberInitializer) initPrototype(ctx *RuntimeContext, proto *vm.Object) {
	defineMethod(ctx, proto, "valueOf", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		num, err := thisNumberValue(a, this, "Number.prototype.valueOf")
		return vm.NumberValue(num), err
	})

	defineMethod(ctx, proto, "toString", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		num, err := thisNumberValue(a, this, "Number.prototype.toString")
		if err != nil {
			return vm.Undefined, err
		}
		radix := 10.0
		if r := arg(args, 0); !r.IsUndefined() {
			if radix, err = vm.ToIntegerOrInfinity(a, r); err != nil {
				return vm.Undefined, err
			}
		}
		if radix < 2 || radix > 36 {
			return vm.Undefined, a.NewRangeError("toString() radix must be between 2 and 36")
		}
		if radix == 10 || math.IsNaN(num) || math.IsInf(num, 0) {
			return vm.StringValue(vm.NumberToString(num)), nil
		}
		return vm.StringValue(ftoa.FToBaseStr(num, int(radix))), nil
	})

	defineMethod(ctx, proto, "toLocaleString", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		num, err := thisNumberValue(a, this, "Number.prototype.toLocaleString")
		return vm.StringValue(vm.NumberToString(num)), err
	})

	defineMethod(ctx, proto, "toFixed", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		num, err := thisNumberValue(a, this, "Number.prototype.toFixed")
		if err != nil {
			return vm.Undefined, err
		}
		digits, err := vm.ToIntegerOrInfinity(a, arg(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		if digits < 0 || digits > 100 {
			return vm.Undefined, a.NewRangeError("toFixed() digits argument must be between 0 and 100")
		}
		if math.IsNaN(num) || math.IsInf(num, 0) || math.Abs(num) >= 1e21 {
			return vm.StringValue(vm.NumberToString(num)), nil
		}
		return vm.StringValue(string(ftoa.FToStr(num, ftoa.ModeFixed, int(digits), nil))), nil
	})

	defineMethod(ctx, proto, "toPrecision", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		num, err := thisNumberValue(a, this, "Number.prototype.toPrecision")
		if err != nil {
			return vm.Undefined, err
		}
		if arg(args, 0).IsUndefined() {
			return vm.StringValue(vm.NumberToString(num)), nil
		}
		p, err := vm.ToIntegerOrInfinity(a, arg(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		if math.IsNaN(num) || math.IsInf(num, 0) {
			return vm.StringValue(vm.NumberToString(num)), nil
		}
		if p < 1 || p > 100 {
			return vm.Undefined, a.NewRangeError("toPrecision() argument must be between 1 and 100")
		}
		return vm.StringValue(string(ftoa.FToStr(num, ftoa.ModePrecision, int(p), nil))), nil
	})

	defineMethod(ctx, proto, "toExponential", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		num, err := thisNumberValue(a, this, "Number.prototype.toExponential")
		if err != nil {
			return vm.Undefined, err
		}
		f, err := vm.ToIntegerOrInfinity(a, arg(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		if math.IsNaN(num) || math.IsInf(num, 0) {
			return vm.StringValue(vm.NumberToString(num)), nil
		}
		if f < 0 || f > 100 {
			return vm.Undefined, a.NewRangeError("toExponential() argument must be between 0 and 100")
		}
		if arg(args, 0).IsUndefined() {
			return vm.StringValue(string(ftoa.FToStr(num, ftoa.ModeStandardExponential, 0, nil))), nil
		}
		return vm.StringValue(string(ftoa.FToStr(num, ftoa.ModeExponential, int(f)+1, nil))), nil
	})
}

func thisNumberValue(a *vm.Agent, v vm.Value, method string) (float64, error) {
	if v.IsNumber() {
		return v.AsNumber(), nil
	}
	if v.IsObject() && v.AsObject().Class() == "Number" {
		if p := v.AsObject().PrimitiveData(); p.IsNumber() {
			return p.AsNumber(), nil
		}
	}
	return 0, a.NewTypeError("%s requires that 'this' be a Number", method)
}

func isIntegral(f float64) bool {
	return !math.IsInf(f, 0) && f == math.Trunc(f)
}

// parseInt parses the longest prefix of s that forms an integer in radix.
// A zero radix means 10, or 16 for a 0x prefix.
func parseInt(s string, radix int) float64 {
	s = strings.TrimLeftFunc(s, vm.IsJSSpace)
	sign := 1.0
	if s != "" && (s[0] == '-' || s[0] == '+') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}
	stripPrefix := true
	if radix != 0 {
		if radix < 2 || radix > 36 {
			return math.NaN()
		}
		stripPrefix = radix == 16
	} else {
		radix = 10
	}
	if stripPrefix && len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
		radix = 16
	}
	end := 0
	for end < len(s) && digitValue(s[end]) < radix {
		end++
	}
	if end == 0 {
		return math.NaN()
	}
	digits := s[:end]
	if radix == 10 {
		f, _ := strconv.ParseFloat(digits, 64)
		return sign * f
	}
	result := 0.0
	for i := 0; i < len(digits); i++ {
		result = result*float64(radix) + float64(digitValue(digits[i]))
	}
	return sign * result
}

func digitValue(c byte) int {
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

// parseFloat parses the longest prefix of s that is a StrDecimalLiteral.
func parseFloat(s string) float64 {
	s = strings.TrimLeftFunc(s, vm.IsJSSpace)
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if strings.HasPrefix(s[i:], "Infinity") {
		if s[0] == '-' {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}
	sawDigit := false
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		sawDigit = true
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			sawDigit = true
		}
	}
	if !sawDigit {
		return math.NaN()
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expStart := j
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		if j > expStart {
			i = j
		}
	}
	f, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		// Out of range prefixes still carry their infinity.
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f
		}
		return math.NaN()
	}
	return f
}
