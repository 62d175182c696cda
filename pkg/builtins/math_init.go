package builtins

import (
	"math"
	"math/bits"
	"math/rand"

	"escore/pkg/vm"
)

type MathInitializer struct{}

func (m *MathInitializer) Name() string {
	return "Math"
}

func (m *MathInitializer) Priority() int {
	return PriorityMath
}

func (m *MathInitializer) InitRuntime(ctx *RuntimeContext) error {
	mathObj := newNamespace(ctx, "Math")

	constants := map[string]float64{
		"E":       math.E,
		"LN10":    math.Ln10,
		"LN2":     math.Ln2,
		"LOG10E":  math.Log10E,
		"LOG2E":   math.Log2E,
		"PI":      math.Pi,
		"SQRT1_2": math.Sqrt2 / 2,
		"SQRT2":   math.Sqrt2,
	}
	for name, v := range constants {
		defineConstant(mathObj, name, vm.NumberValue(v))
	}

	unary := map[string]func(float64) float64{
		"abs":    math.Abs,
		"acos":   math.Acos,
		"acosh":  math.Acosh,
		"asin":   math.Asin,
		"asinh":  math.Asinh,
		"atan":   math.Atan,
		"atanh":  math.Atanh,
		"cbrt":   math.Cbrt,
		"ceil":   math.Ceil,
		"cos":    math.Cos,
		"cosh":   math.Cosh,
		"exp":    math.Exp,
		"expm1":  math.Expm1,
		"floor":  math.Floor,
		"fround": func(x float64) float64 { return float64(float32(x)) },
		"log":    math.Log,
		"log10":  math.Log10,
		"log1p":  math.Log1p,
		"log2":   math.Log2,
		"round":  jsRound,
		"sign":   jsSign,
		"sin":    math.Sin,
		"sinh":   math.Sinh,
		"sqrt":   math.Sqrt,
		"tan":    math.Tan,
		"tanh":   math.Tanh,
		"trunc":  math.Trunc,
	}
	for name, fn := range unary {
		defineMethod(ctx, mathObj, name, 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
			x, err := toNumberArg(a, args, 0)
			if err != nil {
				return vm.Undefined, err
			}
			return vm.NumberValue(fn(x)), nil
		})
	}

	binary := map[string]func(float64, float64) float64{
		"atan2": math.Atan2,
		"pow":   jsPow,
	}
	for name, fn := range binary {
		defineMethod(ctx, mathObj, name, 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
			x, err := toNumberArg(a, args, 0)
			if err != nil {
				return vm.Undefined, err
			}
			y, err := toNumberArg(a, args, 1)
			if err != nil {
				return vm.Undefined, err
			}
			return vm.NumberValue(fn(x, y)), nil
		})
	}

	defineMethod(ctx, mathObj, "max", 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		nums, err := numberArgs(a, args)
		if err != nil {
			return vm.Undefined, err
		}
		result := math.Inf(-1)
		for _, n := range nums {
			if math.IsNaN(n) {
				return vm.NaN, nil
			}
			if n > result || (n == 0 && result == 0 && !math.Signbit(n)) {
				result = n
			}
		}
		return vm.NumberValue(result), nil
	})

	defineMethod(ctx, mathObj, "min", 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		nums, err := numberArgs(a, args)
		if err != nil {
			return vm.Undefined, err
		}
		result := math.Inf(1)
		for _, n := range nums {
			if math.IsNaN(n) {
				return vm.NaN, nil
			}
			if n < result || (n == 0 && result == 0 && math.Signbit(n)) {
				result = n
			}
		}
		return vm.NumberValue(result), nil
	})

	defineMethod(ctx, mathObj, "hypot", 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		nums, err := numberArgs(a, args)
		if err != nil {
			return vm.Undefined, err
		}
		sum, sawNaN := 0.0, false
		for _, n := range nums {
			if math.IsInf(n, 0) {
				return vm.NumberValue(math.Inf(1)), nil
			}
			if math.IsNaN(n) {
				sawNaN = true
			}
			sum += n * n
		}
		if sawNaN {
			return vm.NaN, nil
		}
		return vm.NumberValue(math.Sqrt(sum)), nil
	})

	defineMethod(ctx, mathObj, "imul", 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		x, err := vm.ToUint32(a, arg(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		y, err := vm.ToUint32(a, arg(args, 1))
		if err != nil {
			return vm.Undefined, err
		}
		return vm.NumberValue(float64(int32(x * y))), nil
	})

	defineMethod(ctx, mathObj, "clz32", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		x, err := vm.ToUint32(a, arg(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		return vm.IntValue(bits.LeadingZeros32(x)), nil
	})

	defineMethod(ctx, mathObj, "random", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		return vm.NumberValue(rand.Float64()), nil
	})

	return ctx.DefineGlobal("Math", vm.ObjectValue(mathObj))
}

func numberArgs(a *vm.Agent, args []vm.Value) ([]float64, error) {
	nums := make([]float64, len(args))
	for i, v := range args {
		n, err := vm.ToNumber(a, v)
		if err != nil {
			return nil, err
		}
		nums[i] = n
	}
	return nums, nil
}

// jsRound rounds half up, keeping -0 for inputs in [-0.5, -0].
func jsRound(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) || x == math.Trunc(x) {
		return x
	}
	if x < 0 && x >= -0.5 {
		return math.Copysign(0, -1)
	}
	r := math.Floor(x)
	if x-r >= 0.5 {
		r++
	}
	return r
}

func jsSign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return x
}

// jsPow differs from math.Pow where the exponent is NaN or the base is
// ±1 with an infinite exponent.
func jsPow(x, y float64) float64 {
	if math.IsNaN(y) {
		return math.NaN()
	}
	if math.Abs(x) == 1 && math.IsInf(y, 0) {
		return math.NaN()
	}
	return math.Pow(x, y)
}
