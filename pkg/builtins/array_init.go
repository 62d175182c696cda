package builtins

import (
	"math"
	"slices"
	"strings"

	"escore/pkg/vm"
)

// maxSafeLength is 2^53-1, the largest length of an array-like.
const maxSafeLength = 1<<53 - 1

type ArrayInitializer struct{}

func (ai *ArrayInitializer) Name() string {
	return "Array"
}

func (ai *ArrayInitializer) Priority() int {
	return PriorityArray
}

func (ai *ArrayInitializer) InitRuntime(ctx *RuntimeContext) error {
	proto := vm.ArrayCreate(0, ctx.ObjectPrototype)

	var ctor *vm.Object
	ctor = newConstructor(ctx, "Array", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		if newTarget == nil {
			newTarget = ctor
		}
		p, err := vm.GetPrototypeFromConstructor(a, newTarget, "%Array.prototype%")
		if err != nil {
			return vm.Undefined, err
		}
		if len(args) == 1 {
			if !args[0].IsNumber() {
				arr := vm.ArrayCreate(0, p)
				if err := vm.CreateDataPropertyOrThrow(a, arr, vm.IndexKey(0), args[0]); err != nil {
					return vm.Undefined, err
				}
				return vm.ObjectValue(arr), nil
			}
			arr, err := vm.ArrayCreateChecked(a, args[0].AsNumber(), p)
			if err != nil {
				return vm.Undefined, err
			}
			return vm.ObjectValue(arr), nil
		}
		arr := vm.ArrayCreate(uint32(len(args)), p)
		for i, v := range args {
			arr.DefineDataProperty(vm.IndexKey(uint32(i)), v, true, true, true)
		}
		return vm.ObjectValue(arr), nil
	}, proto)

	defineGetter(ctx, ctor, vm.SymbolKey(vm.SymSpecies), func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		return this, nil
	})

	ai.initStatics(ctx, ctor)
	ai.initPrototype(ctx, proto)
	ai.initIteratorPrototype(ctx)

	values := defineMethod(ctx, proto, "values", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		return createArrayIterator(a, this, iterateValues)
	})
	proto.DefineDataProperty(vm.SymbolKey(vm.SymIterator), vm.ObjectValue(values), true, false, true)
	ctx.Realm.SetIntrinsic("%Array.prototype.values%", values)

	unscopables := vm.OrdinaryObjectCreate(nil)
	for _, name := range []string{"at", "entries", "fill", "find", "findIndex", "findLast", "findLastIndex", "includes", "keys", "values"} {
		unscopables.DefineDataProperty(vm.StringKey(name), vm.True, true, true, true)
	}
	proto.DefineDataProperty(vm.SymbolKey(vm.SymUnscopables), vm.ObjectValue(unscopables), false, false, true)

	return ctx.DefineGlobal("Array", vm.ObjectValue(ctor))
}

func (ai *ArrayInitializer) initStatics(ctx *RuntimeContext, ctor *vm.Object) {
	defineMethod(ctx, ctor, "isArray", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		ok, err := vm.IsArray(a, arg(args, 0))
		return vm.BooleanValue(ok), err
	})

	defineMethod(ctx, ctor, "of", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		arr, err := constructArrayLike(a, this, float64(len(args)), true)
		if err != nil {
			return vm.Undefined, err
		}
		for i, v := range args {
			if err := vm.CreateDataPropertyOrThrow(a, arr, vm.IndexKey(uint32(i)), v); err != nil {
				return vm.Undefined, err
			}
		}
		if err := vm.Set(a, arr, vm.StringKey("length"), vm.IntValue(len(args)), true); err != nil {
			return vm.Undefined, err
		}
		return vm.ObjectValue(arr), nil
	})

	defineMethod(ctx, ctor, "from", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		return arrayFrom(a, this, arg(args, 0), arg(args, 1), arg(args, 2))
	})
}

// constructArrayLike creates the result of Array.of or Array.from: an
// instance of c when it is a constructor, otherwise a plain array.
func constructArrayLike(a *vm.Agent, c vm.Value, length float64, withLength bool) (*vm.Object, error) {
	if vm.IsConstructor(c) {
		var args []vm.Value
		if withLength {
			args = []vm.Value{vm.NumberValue(length)}
		}
		v, err := vm.Construct(a, c.AsObject(), args, nil)
		if err != nil {
			return nil, err
		}
		return v.AsObject(), nil
	}
	if !withLength {
		length = 0
	}
	return vm.ArrayCreateChecked(a, length, a.CurrentRealm().Intrinsic("%Array.prototype%"))
}

func arrayFrom(a *vm.Agent, c, items, mapFn, thisArg vm.Value) (vm.Value, error) {
	mapping := !mapFn.IsUndefined()
	if mapping && !vm.IsCallable(mapFn) {
		return vm.Undefined, a.NewTypeError("%s is not a function", mapFn.Inspect())
	}
	mapValue := func(v vm.Value, k int64) (vm.Value, error) {
		if !mapping {
			return v, nil
		}
		return vm.Call(a, mapFn, thisArg, []vm.Value{v, vm.NumberValue(float64(k))})
	}

	usingIterator, err := vm.GetMethod(a, items, vm.SymbolKey(vm.SymIterator))
	if err != nil {
		return vm.Undefined, err
	}
	if !usingIterator.IsUndefined() {
		arr, err := constructArrayLike(a, c, 0, false)
		if err != nil {
			return vm.Undefined, err
		}
		it, err := vm.GetIteratorFromMethod(a, items, usingIterator)
		if err != nil {
			return vm.Undefined, err
		}
		var k int64
		for {
			next, ok, err := it.Step(a)
			if err != nil {
				return vm.Undefined, err
			}
			if !ok {
				break
			}
			v, err := mapValue(next, k)
			if err == nil {
				err = vm.CreateDataPropertyOrThrow(a, arr, indexKey(k), v)
			}
			if err != nil {
				return vm.Undefined, it.Close(a, err)
			}
			k++
		}
		if err := vm.Set(a, arr, vm.StringKey("length"), vm.NumberValue(float64(k)), true); err != nil {
			return vm.Undefined, err
		}
		return vm.ObjectValue(arr), nil
	}

	arrayLike, err := vm.ToObject(a, items)
	if err != nil {
		return vm.Undefined, err
	}
	length, err := vm.LengthOfArrayLike(a, arrayLike)
	if err != nil {
		return vm.Undefined, err
	}
	arr, err := constructArrayLike(a, c, float64(length), true)
	if err != nil {
		return vm.Undefined, err
	}
	for k := int64(0); k < length; k++ {
		kValue, err := vm.Get(a, arrayLike, indexKey(k))
		if err != nil {
			return vm.Undefined, err
		}
		v, err := mapValue(kValue, k)
		if err != nil {
			return vm.Undefined, err
		}
		if err := vm.CreateDataPropertyOrThrow(a, arr, indexKey(k), v); err != nil {
			return vm.Undefined, err
		}
	}
	if err := vm.Set(a, arr, vm.StringKey("length"), vm.NumberValue(float64(length)), true); err != nil {
		return vm.Undefined, err
	}
	return vm.ObjectValue(arr), nil
}

func (ai *ArrayInitializer) initPrototype(ctx *RuntimeContext, proto *vm.Object) {
	defineMethod(ctx, proto, "push", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		o, length, err := thisArrayLike(a, this)
		if err != nil {
			return vm.Undefined, err
		}
		if length+int64(len(args)) > maxSafeLength {
			return vm.Undefined, a.NewTypeError("Pushing %d elements on an array-like of length %d is disallowed", len(args), length)
		}
		for _, v := range args {
			if err := vm.Set(a, o, indexKey(length), v, true); err != nil {
				return vm.Undefined, err
			}
			length++
		}
		return setLength(a, o, length)
	})

	defineMethod(ctx, proto, "pop", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		o, length, err := thisArrayLike(a, this)
		if err != nil {
			return vm.Undefined, err
		}
		if length == 0 {
			_, err := setLength(a, o, 0)
			return vm.Undefined, err
		}
		key := indexKey(length - 1)
		element, err := vm.Get(a, o, key)
		if err != nil {
			return vm.Undefined, err
		}
		if err := vm.DeletePropertyOrThrow(a, o, key); err != nil {
			return vm.Undefined, err
		}
		if _, err := setLength(a, o, length-1); err != nil {
			return vm.Undefined, err
		}
		return element, nil
	})

	defineMethod(ctx, proto, "shift", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		o, length, err := thisArrayLike(a, this)
		if err != nil {
			return vm.Undefined, err
		}
		if length == 0 {
			_, err := setLength(a, o, 0)
			return vm.Undefined, err
		}
		first, err := vm.Get(a, o, vm.IndexKey(0))
		if err != nil {
			return vm.Undefined, err
		}
		if err := moveElements(a, o, 1, 0, length-1); err != nil {
			return vm.Undefined, err
		}
		if err := vm.DeletePropertyOrThrow(a, o, indexKey(length-1)); err != nil {
			return vm.Undefined, err
		}
		if _, err := setLength(a, o, length-1); err != nil {
			return vm.Undefined, err
		}
		return first, nil
	})

	defineMethod(ctx, proto, "unshift", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		o, length, err := thisArrayLike(a, this)
		if err != nil {
			return vm.Undefined, err
		}
		argCount := int64(len(args))
		if argCount > 0 {
			if length+argCount > maxSafeLength {
				return vm.Undefined, a.NewTypeError("Unshifting %d elements on an array-like of length %d is disallowed", argCount, length)
			}
			if err := moveElements(a, o, 0, argCount, length); err != nil {
				return vm.Undefined, err
			}
			for j, v := range args {
				if err := vm.Set(a, o, indexKey(int64(j)), v, true); err != nil {
					return vm.Undefined, err
				}
			}
		}
		return setLength(a, o, length+argCount)
	})

	defineMethod(ctx, proto, "slice", 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		o, length, err := thisArrayLike(a, this)
		if err != nil {
			return vm.Undefined, err
		}
		k, err := relativeIndex(a, arg(args, 0), length, 0)
		if err != nil {
			return vm.Undefined, err
		}
		final, err := relativeIndex(a, arg(args, 1), length, length)
		if err != nil {
			return vm.Undefined, err
		}
		count := max(final-k, 0)
		arr, err := vm.ArraySpeciesCreate(a, o, float64(count))
		if err != nil {
			return vm.Undefined, err
		}
		var n int64
		for ; k < final; k++ {
			if err := copyIfPresent(a, o, k, arr, n); err != nil {
				return vm.Undefined, err
			}
			n++
		}
		return setLength(a, arr, n, vm.ObjectValue(arr))
	})

	defineMethod(ctx, proto, "splice", 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		o, length, err := thisArrayLike(a, this)
		if err != nil {
			return vm.Undefined, err
		}
		start, err := relativeIndex(a, arg(args, 0), length, 0)
		if err != nil {
			return vm.Undefined, err
		}
		var items []vm.Value
		var deleteCount int64
		switch len(args) {
		case 0:
		case 1:
			deleteCount = length - start
		default:
			items = args[2:]
			dc, err := vm.ToIntegerOrInfinity(a, args[1])
			if err != nil {
				return vm.Undefined, err
			}
			deleteCount = int64(math.Min(math.Max(dc, 0), float64(length-start)))
		}
		itemCount := int64(len(items))
		if length+itemCount-deleteCount > maxSafeLength {
			return vm.Undefined, a.NewTypeError("Splice result exceeds the maximum array length")
		}
		removed, err := vm.ArraySpeciesCreate(a, o, float64(deleteCount))
		if err != nil {
			return vm.Undefined, err
		}
		for k := int64(0); k < deleteCount; k++ {
			if err := copyIfPresent(a, o, start+k, removed, k); err != nil {
				return vm.Undefined, err
			}
		}
		if _, err := setLength(a, removed, deleteCount); err != nil {
			return vm.Undefined, err
		}
		switch {
		case itemCount < deleteCount:
			if err := moveElements(a, o, start+deleteCount, start+itemCount, length-start-deleteCount); err != nil {
				return vm.Undefined, err
			}
			for k := length; k > length-deleteCount+itemCount; k-- {
				if err := vm.DeletePropertyOrThrow(a, o, indexKey(k-1)); err != nil {
					return vm.Undefined, err
				}
			}
		case itemCount > deleteCount:
			if err := moveElements(a, o, start+deleteCount, start+itemCount, length-start-deleteCount); err != nil {
				return vm.Undefined, err
			}
		}
		for j, v := range items {
			if err := vm.Set(a, o, indexKey(start+int64(j)), v, true); err != nil {
				return vm.Undefined, err
			}
		}
		return setLength(a, o, length-deleteCount+itemCount, vm.ObjectValue(removed))
	})

	defineMethod(ctx, proto, "flat", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		o, length, err := thisArrayLike(a, this)
		if err != nil {
			return vm.Undefined, err
		}
		depth := 1.0
		if d := arg(args, 0); !d.IsUndefined() {
			if depth, err = vm.ToIntegerOrInfinity(a, d); err != nil {
				return vm.Undefined, err
			}
			if depth < 0 {
				depth = 0
			}
		}
		arr, err := vm.ArraySpeciesCreate(a, o, 0)
		if err != nil {
			return vm.Undefined, err
		}
		if _, err := flattenIntoArray(a, arr, o, length, 0, depth, vm.Undefined, vm.Undefined); err != nil {
			return vm.Undefined, err
		}
		return vm.ObjectValue(arr), nil
	})

	defineMethod(ctx, proto, "flatMap", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		o, length, err := thisArrayLike(a, this)
		if err != nil {
			return vm.Undefined, err
		}
		mapper, err := callback(a, arg(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		arr, err := vm.ArraySpeciesCreate(a, o, 0)
		if err != nil {
			return vm.Undefined, err
		}
		if _, err := flattenIntoArray(a, arr, o, length, 0, 1, mapper, arg(args, 1)); err != nil {
			return vm.Undefined, err
		}
		return vm.ObjectValue(arr), nil
	})

	defineMethod(ctx, proto, "concat", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		o, err := vm.ToObject(a, this)
		if err != nil {
			return vm.Undefined, err
		}
		arr, err := vm.ArraySpeciesCreate(a, o, 0)
		if err != nil {
			return vm.Undefined, err
		}
		var n int64
		for _, e := range append([]vm.Value{vm.ObjectValue(o)}, args...) {
			spreadable, err := isConcatSpreadable(a, e)
			if err != nil {
				return vm.Undefined, err
			}
			if !spreadable {
				if n >= maxSafeLength {
					return vm.Undefined, a.NewTypeError("Concatenation result exceeds the maximum array length")
				}
				if err := vm.CreateDataPropertyOrThrow(a, arr, indexKey(n), e); err != nil {
					return vm.Undefined, err
				}
				n++
				continue
			}
			length, err := vm.LengthOfArrayLike(a, e.AsObject())
			if err != nil {
				return vm.Undefined, err
			}
			if n+length > maxSafeLength {
				return vm.Undefined, a.NewTypeError("Concatenation result exceeds the maximum array length")
			}
			for k := int64(0); k < length; k++ {
				if err := copyIfPresent(a, e.AsObject(), k, arr, n); err != nil {
					return vm.Undefined, err
				}
				n++
			}
		}
		return setLength(a, arr, n, vm.ObjectValue(arr))
	})

	joining := make(map[*vm.Object]bool)
	join := func(a *vm.Agent, o *vm.Object, length int64, sep string) (vm.Value, error) {
		if joining[o] {
			return vm.StringValue(""), nil
		}
		joining[o] = true
		defer delete(joining, o)
		var sb strings.Builder
		for k := int64(0); k < length; k++ {
			if k > 0 {
				sb.WriteString(sep)
			}
			element, err := vm.Get(a, o, indexKey(k))
			if err != nil {
				return vm.Undefined, err
			}
			if element.IsNullish() {
				continue
			}
			s, err := vm.ToString(a, element)
			if err != nil {
				return vm.Undefined, err
			}
			sb.WriteString(s)
		}
		return vm.StringValue(sb.String()), nil
	}

	defineMethod(ctx, proto, "join", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		o, length, err := thisArrayLike(a, this)
		if err != nil {
			return vm.Undefined, err
		}
		sep := ","
		if s := arg(args, 0); !s.IsUndefined() {
			if sep, err = vm.ToString(a, s); err != nil {
				return vm.Undefined, err
			}
		}
		return join(a, o, length, sep)
	})

	defineMethod(ctx, proto, "toString", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		o, err := vm.ToObject(a, this)
		if err != nil {
			return vm.Undefined, err
		}
		fn, err := vm.Get(a, o, vm.StringKey("join"))
		if err != nil {
			return vm.Undefined, err
		}
		if !vm.IsCallable(fn) {
			s, err := objectToString(a, vm.ObjectValue(o))
			return vm.StringValue(s), err
		}
		return vm.Call(a, fn, vm.ObjectValue(o), nil)
	})

	defineMethod(ctx, proto, "at", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		o, length, err := thisArrayLike(a, this)
		if err != nil {
			return vm.Undefined, err
		}
		rel, err := vm.ToIntegerOrInfinity(a, arg(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		if rel < 0 {
			rel += float64(length)
		}
		if rel < 0 || rel >= float64(length) {
			return vm.Undefined, nil
		}
		return vm.Get(a, o, indexKey(int64(rel)))
	})

	defineMethod(ctx, proto, "fill", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		o, length, err := thisArrayLike(a, this)
		if err != nil {
			return vm.Undefined, err
		}
		k, err := relativeIndex(a, arg(args, 1), length, 0)
		if err != nil {
			return vm.Undefined, err
		}
		final, err := relativeIndex(a, arg(args, 2), length, length)
		if err != nil {
			return vm.Undefined, err
		}
		for ; k < final; k++ {
			if err := vm.Set(a, o, indexKey(k), arg(args, 0), true); err != nil {
				return vm.Undefined, err
			}
		}
		return vm.ObjectValue(o), nil
	})

	defineMethod(ctx, proto, "indexOf", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		o, length, err := thisArrayLike(a, this)
		if err != nil || length == 0 {
			return vm.IntValue(-1), err
		}
		k, err := relativeIndex(a, arg(args, 1), length, 0)
		if err != nil {
			return vm.Undefined, err
		}
		for ; k < length; k++ {
			present, err := vm.HasProperty(a, o, indexKey(k))
			if err != nil {
				return vm.Undefined, err
			}
			if !present {
				continue
			}
			element, err := vm.Get(a, o, indexKey(k))
			if err != nil {
				return vm.Undefined, err
			}
			if vm.IsStrictlyEqual(arg(args, 0), element) {
				return vm.NumberValue(float64(k)), nil
			}
		}
		return vm.IntValue(-1), nil
	})

	defineMethod(ctx, proto, "lastIndexOf", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		o, length, err := thisArrayLike(a, this)
		if err != nil || length == 0 {
			return vm.IntValue(-1), err
		}
		k := length - 1
		if len(args) > 1 {
			from, err := vm.ToIntegerOrInfinity(a, args[1])
			if err != nil {
				return vm.Undefined, err
			}
			if from < 0 {
				from += float64(length)
			}
			k = int64(math.Min(from, float64(length-1)))
		}
		for ; k >= 0; k-- {
			present, err := vm.HasProperty(a, o, indexKey(k))
			if err != nil {
				return vm.Undefined, err
			}
			if !present {
				continue
			}
			element, err := vm.Get(a, o, indexKey(k))
			if err != nil {
				return vm.Undefined, err
			}
			if vm.IsStrictlyEqual(arg(args, 0), element) {
				return vm.NumberValue(float64(k)), nil
			}
		}
		return vm.IntValue(-1), nil
	})

	defineMethod(ctx, proto, "includes", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		o, length, err := thisArrayLike(a, this)
		if err != nil || length == 0 {
			return vm.False, err
		}
		k, err := relativeIndex(a, arg(args, 1), length, 0)
		if err != nil {
			return vm.Undefined, err
		}
		for ; k < length; k++ {
			element, err := vm.Get(a, o, indexKey(k))
			if err != nil {
				return vm.Undefined, err
			}
			if vm.SameValueZero(arg(args, 0), element) {
				return vm.True, nil
			}
		}
		return vm.False, nil
	})

	defineMethod(ctx, proto, "forEach", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		err := eachElement(a, this, args, func(v vm.Value, k int64, o *vm.Object, result vm.Value) (bool, error) {
			return false, nil
		})
		return vm.Undefined, err
	})

	defineMethod(ctx, proto, "map", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		o, length, err := thisArrayLike(a, this)
		if err != nil {
			return vm.Undefined, err
		}
		fn, err := callback(a, arg(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		arr, err := vm.ArraySpeciesCreate(a, o, float64(length))
		if err != nil {
			return vm.Undefined, err
		}
		for k := int64(0); k < length; k++ {
			present, err := vm.HasProperty(a, o, indexKey(k))
			if err != nil {
				return vm.Undefined, err
			}
			if !present {
				continue
			}
			kValue, err := vm.Get(a, o, indexKey(k))
			if err != nil {
				return vm.Undefined, err
			}
			mapped, err := vm.Call(a, fn, arg(args, 1), []vm.Value{kValue, vm.NumberValue(float64(k)), vm.ObjectValue(o)})
			if err != nil {
				return vm.Undefined, err
			}
			if err := vm.CreateDataPropertyOrThrow(a, arr, indexKey(k), mapped); err != nil {
				return vm.Undefined, err
			}
		}
		return vm.ObjectValue(arr), nil
	})

	defineMethod(ctx, proto, "filter", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		o, err := vm.ToObject(a, this)
		if err != nil {
			return vm.Undefined, err
		}
		arr, err := vm.ArraySpeciesCreate(a, o, 0)
		if err != nil {
			return vm.Undefined, err
		}
		var n int64
		err = eachElement(a, this, args, func(v vm.Value, k int64, o *vm.Object, result vm.Value) (bool, error) {
			if !vm.ToBoolean(result) {
				return false, nil
			}
			err := vm.CreateDataPropertyOrThrow(a, arr, indexKey(n), v)
			n++
			return false, err
		})
		if err != nil {
			return vm.Undefined, err
		}
		return vm.ObjectValue(arr), nil
	})

	defineMethod(ctx, proto, "some", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		found := false
		err := eachElement(a, this, args, func(v vm.Value, k int64, o *vm.Object, result vm.Value) (bool, error) {
			found = vm.ToBoolean(result)
			return found, nil
		})
		return vm.BooleanValue(found), err
	})

	defineMethod(ctx, proto, "every", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		all := true
		err := eachElement(a, this, args, func(v vm.Value, k int64, o *vm.Object, result vm.Value) (bool, error) {
			all = vm.ToBoolean(result)
			return !all, nil
		})
		return vm.BooleanValue(all), err
	})

	defineMethod(ctx, proto, "reduce", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		return reduceArray(a, this, args, false)
	})

	defineMethod(ctx, proto, "reduceRight", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		return reduceArray(a, this, args, true)
	})

	finders := []struct {
		name      string
		fromEnd   bool
		wantIndex bool
	}{
		{"find", false, false},
		{"findIndex", false, true},
		{"findLast", true, false},
		{"findLastIndex", true, true},
	}
	for _, f := range finders {
		defineMethod(ctx, proto, f.name, 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
			return findViaPredicate(a, this, args, f.fromEnd, f.wantIndex)
		})
	}

	defineMethod(ctx, proto, "reverse", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		o, length, err := thisArrayLike(a, this)
		if err != nil {
			return vm.Undefined, err
		}
		for lower := int64(0); lower < length/2; lower++ {
			upper := length - lower - 1
			lowerKey, upperKey := indexKey(lower), indexKey(upper)
			lowerExists, err := vm.HasProperty(a, o, lowerKey)
			if err != nil {
				return vm.Undefined, err
			}
			var lowerValue, upperValue vm.Value
			if lowerExists {
				if lowerValue, err = vm.Get(a, o, lowerKey); err != nil {
					return vm.Undefined, err
				}
			}
			upperExists, err := vm.HasProperty(a, o, upperKey)
			if err != nil {
				return vm.Undefined, err
			}
			if upperExists {
				if upperValue, err = vm.Get(a, o, upperKey); err != nil {
					return vm.Undefined, err
				}
			}
			switch {
			case lowerExists && upperExists:
				err = vm.Set(a, o, lowerKey, upperValue, true)
				if err == nil {
					err = vm.Set(a, o, upperKey, lowerValue, true)
				}
			case upperExists:
				err = vm.Set(a, o, lowerKey, upperValue, true)
				if err == nil {
					err = vm.DeletePropertyOrThrow(a, o, upperKey)
				}
			case lowerExists:
				err = vm.DeletePropertyOrThrow(a, o, lowerKey)
				if err == nil {
					err = vm.Set(a, o, upperKey, lowerValue, true)
				}
			}
			if err != nil {
				return vm.Undefined, err
			}
		}
		return vm.ObjectValue(o), nil
	})

	defineMethod(ctx, proto, "sort", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		compare := arg(args, 0)
		if !compare.IsUndefined() && !vm.IsCallable(compare) {
			return vm.Undefined, a.NewTypeError("The comparison function must be either a function or undefined")
		}
		o, length, err := thisArrayLike(a, this)
		if err != nil {
			return vm.Undefined, err
		}
		var items []vm.Value
		for k := int64(0); k < length; k++ {
			present, err := vm.HasProperty(a, o, indexKey(k))
			if err != nil {
				return vm.Undefined, err
			}
			if !present {
				continue
			}
			v, err := vm.Get(a, o, indexKey(k))
			if err != nil {
				return vm.Undefined, err
			}
			items = append(items, v)
		}
		if err := sortValues(a, items, compare); err != nil {
			return vm.Undefined, err
		}
		k := int64(0)
		for ; k < int64(len(items)); k++ {
			if err := vm.Set(a, o, indexKey(k), items[k], true); err != nil {
				return vm.Undefined, err
			}
		}
		for ; k < length; k++ {
			if err := vm.DeletePropertyOrThrow(a, o, indexKey(k)); err != nil {
				return vm.Undefined, err
			}
		}
		return vm.ObjectValue(o), nil
	})

	defineMethod(ctx, proto, "keys", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		return createArrayIterator(a, this, iterateKeys)
	})

	defineMethod(ctx, proto, "entries", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		return createArrayIterator(a, this, iterateEntries)
	})
}

// initIteratorPrototype creates %ArrayIteratorPrototype%.
func (ai *ArrayInitializer) initIteratorPrototype(ctx *RuntimeContext) {
	proto := vm.OrdinaryObjectCreate(ctx.Realm.Intrinsic("%IteratorPrototype%"))
	defineMethod(ctx, proto, "next", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		it, err := thisListIterator(a, this, "Array Iterator.prototype.next")
		if err != nil {
			return vm.Undefined, err
		}
		if it.done {
			return vm.ObjectValue(vm.CreateIterResultObject(a, vm.Undefined, true)), nil
		}
		o := it.target.AsObject()
		length, err := vm.LengthOfArrayLike(a, o)
		if err != nil {
			return vm.Undefined, err
		}
		if it.index >= length {
			it.done = true
			return vm.ObjectValue(vm.CreateIterResultObject(a, vm.Undefined, true)), nil
		}
		index := it.index
		it.index++
		result := vm.NumberValue(float64(index))
		if it.kind != iterateKeys {
			element, err := vm.Get(a, o, indexKey(index))
			if err != nil {
				return vm.Undefined, err
			}
			result = element
			if it.kind == iterateEntries {
				result = vm.ObjectValue(vm.CreateArrayFromList(a, []vm.Value{vm.NumberValue(float64(index)), element}))
			}
		}
		return vm.ObjectValue(vm.CreateIterResultObject(a, result, false)), nil
	})
	defineToStringTag(proto, "Array Iterator")
	ctx.Realm.SetIntrinsic("%ArrayIteratorPrototype%", proto)
}

func createArrayIterator(a *vm.Agent, this vm.Value, kind iterationKind) (vm.Value, error) {
	o, err := vm.ToObject(a, this)
	if err != nil {
		return vm.Undefined, err
	}
	proto := a.CurrentRealm().Intrinsic("%ArrayIteratorPrototype%")
	return vm.ObjectValue(newListIterator(proto, vm.ObjectValue(o), kind)), nil
}

// indexKey converts an array-like index to a property key.
func indexKey(i int64) vm.PropertyKey {
	if i >= 0 && i < math.MaxUint32 {
		return vm.IndexKey(uint32(i))
	}
	return vm.StringKey(vm.NumberToString(float64(i)))
}

// thisArrayLike performs the ToObject and LengthOfArrayLike prologue
// shared by the generic array methods.
func thisArrayLike(a *vm.Agent, this vm.Value) (*vm.Object, int64, error) {
	o, err := vm.ToObject(a, this)
	if err != nil {
		return nil, 0, err
	}
	length, err := vm.LengthOfArrayLike(a, o)
	if err != nil {
		return nil, 0, err
	}
	return o, length, nil
}

// setLength writes o.length and returns result, or the new length when no
// result is given.
func setLength(a *vm.Agent, o *vm.Object, length int64, result ...vm.Value) (vm.Value, error) {
	n := vm.NumberValue(float64(length))
	if err := vm.Set(a, o, vm.StringKey("length"), n, true); err != nil {
		return vm.Undefined, err
	}
	if len(result) > 0 {
		return result[0], nil
	}
	return n, nil
}

// copyIfPresent copies from[k] to to[n] when from has the index.
func copyIfPresent(a *vm.Agent, from *vm.Object, k int64, to *vm.Object, n int64) error {
	present, err := vm.HasProperty(a, from, indexKey(k))
	if err != nil || !present {
		return err
	}
	v, err := vm.Get(a, from, indexKey(k))
	if err != nil {
		return err
	}
	return vm.CreateDataPropertyOrThrow(a, to, indexKey(n), v)
}

// flattenIntoArray copies the elements of source into target from index
// start, descending into arrays while depth remains. A callable mapper is
// applied to the top-level elements first. It returns the next free index.
func flattenIntoArray(a *vm.Agent, target, source *vm.Object, length, start int64, depth float64, mapper, thisArg vm.Value) (int64, error) {
	n := start
	for k := int64(0); k < length; k++ {
		present, err := vm.HasProperty(a, source, indexKey(k))
		if err != nil {
			return 0, err
		}
		if !present {
			continue
		}
		element, err := vm.Get(a, source, indexKey(k))
		if err != nil {
			return 0, err
		}
		if !mapper.IsUndefined() {
			if element, err = vm.Call(a, mapper, thisArg, []vm.Value{element, vm.NumberValue(float64(k)), vm.ObjectValue(source)}); err != nil {
				return 0, err
			}
		}
		if depth > 0 {
			isArray, err := vm.IsArray(a, element)
			if err != nil {
				return 0, err
			}
			if isArray {
				inner := element.AsObject()
				innerLength, err := vm.LengthOfArrayLike(a, inner)
				if err != nil {
					return 0, err
				}
				if n, err = flattenIntoArray(a, target, inner, innerLength, n, depth-1, vm.Undefined, vm.Undefined); err != nil {
					return 0, err
				}
				continue
			}
		}
		if n >= maxSafeLength {
			return 0, a.NewTypeError("Flattened array exceeds the maximum array length")
		}
		if err := vm.CreateDataPropertyOrThrow(a, target, indexKey(n), element); err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}

// moveElements shifts count elements of o from index src to dst, deleting
// destinations whose source is a hole. Overlapping ranges are handled.
func moveElements(a *vm.Agent, o *vm.Object, src, dst, count int64) error {
	move := func(k int64) error {
		from, to := indexKey(src+k), indexKey(dst+k)
		present, err := vm.HasProperty(a, o, from)
		if err != nil {
			return err
		}
		if !present {
			return vm.DeletePropertyOrThrow(a, o, to)
		}
		v, err := vm.Get(a, o, from)
		if err != nil {
			return err
		}
		return vm.Set(a, o, to, v, true)
	}
	if dst < src {
		for k := int64(0); k < count; k++ {
			if err := move(k); err != nil {
				return err
			}
		}
		return nil
	}
	for k := count - 1; k >= 0; k-- {
		if err := move(k); err != nil {
			return err
		}
	}
	return nil
}

func isConcatSpreadable(a *vm.Agent, v vm.Value) (bool, error) {
	if !v.IsObject() {
		return false, nil
	}
	spreadable, err := vm.Get(a, v.AsObject(), vm.SymbolKey(vm.SymIsConcatSpreadable))
	if err != nil {
		return false, err
	}
	if !spreadable.IsUndefined() {
		return vm.ToBoolean(spreadable), nil
	}
	return vm.IsArray(a, v)
}

// eachElement calls args[0] with (value, index, object) for every present
// element until visit reports stop.
func eachElement(a *vm.Agent, this vm.Value, args []vm.Value, visit func(v vm.Value, k int64, o *vm.Object, result vm.Value) (bool, error)) error {
	o, length, err := thisArrayLike(a, this)
	if err != nil {
		return err
	}
	fn, err := callback(a, arg(args, 0))
	if err != nil {
		return err
	}
	for k := int64(0); k < length; k++ {
		present, err := vm.HasProperty(a, o, indexKey(k))
		if err != nil {
			return err
		}
		if !present {
			continue
		}
		kValue, err := vm.Get(a, o, indexKey(k))
		if err != nil {
			return err
		}
		result, err := vm.Call(a, fn, arg(args, 1), []vm.Value{kValue, vm.NumberValue(float64(k)), vm.ObjectValue(o)})
		if err != nil {
			return err
		}
		stop, err := visit(kValue, k, o, result)
		if err != nil || stop {
			return err
		}
	}
	return nil
}

func reduceArray(a *vm.Agent, this vm.Value, args []vm.Value, fromEnd bool) (vm.Value, error) {
	o, length, err := thisArrayLike(a, this)
	if err != nil {
		return vm.Undefined, err
	}
	fn, err := callback(a, arg(args, 0))
	if err != nil {
		return vm.Undefined, err
	}
	k, step := int64(0), int64(1)
	if fromEnd {
		k, step = length-1, -1
	}
	inRange := func(k int64) bool { return k >= 0 && k < length }

	var acc vm.Value
	if len(args) >= 2 {
		acc = args[1]
	} else {
		found := false
		for ; inRange(k) && !found; k += step {
			present, err := vm.HasProperty(a, o, indexKey(k))
			if err != nil {
				return vm.Undefined, err
			}
			if present {
				found = true
				if acc, err = vm.Get(a, o, indexKey(k)); err != nil {
					return vm.Undefined, err
				}
			}
		}
		if !found {
			return vm.Undefined, a.NewTypeError("Reduce of empty array with no initial value")
		}
	}
	for ; inRange(k); k += step {
		present, err := vm.HasProperty(a, o, indexKey(k))
		if err != nil {
			return vm.Undefined, err
		}
		if !present {
			continue
		}
		kValue, err := vm.Get(a, o, indexKey(k))
		if err != nil {
			return vm.Undefined, err
		}
		acc, err = vm.Call(a, fn, vm.Undefined, []vm.Value{acc, kValue, vm.NumberValue(float64(k)), vm.ObjectValue(o)})
		if err != nil {
			return vm.Undefined, err
		}
	}
	return acc, nil
}

func findViaPredicate(a *vm.Agent, this vm.Value, args []vm.Value, fromEnd, wantIndex bool) (vm.Value, error) {
	o, length, err := thisArrayLike(a, this)
	if err != nil {
		return vm.Undefined, err
	}
	fn, err := callback(a, arg(args, 0))
	if err != nil {
		return vm.Undefined, err
	}
	for i := int64(0); i < length; i++ {
		k := i
		if fromEnd {
			k = length - 1 - i
		}
		kValue, err := vm.Get(a, o, indexKey(k))
		if err != nil {
			return vm.Undefined, err
		}
		result, err := vm.Call(a, fn, arg(args, 1), []vm.Value{kValue, vm.NumberValue(float64(k)), vm.ObjectValue(o)})
		if err != nil {
			return vm.Undefined, err
		}
		if vm.ToBoolean(result) {
			if wantIndex {
				return vm.NumberValue(float64(k)), nil
			}
			return kValue, nil
		}
	}
	if wantIndex {
		return vm.IntValue(-1), nil
	}
	return vm.Undefined, nil
}

// sortValues sorts items in place with SortCompare semantics: undefined
// sorts last, and without a comparator values compare as strings by code
// unit. The first abrupt completion of the comparator is returned.
func sortValues(a *vm.Agent, items []vm.Value, compare vm.Value) error {
	var sortErr error
	slices.SortStableFunc(items, func(x, y vm.Value) int {
		if sortErr != nil {
			return 0
		}
		switch {
		case x.IsUndefined() && y.IsUndefined():
			return 0
		case x.IsUndefined():
			return 1
		case y.IsUndefined():
			return -1
		}
		if !compare.IsUndefined() {
			r, err := vm.Call(a, compare, vm.Undefined, []vm.Value{x, y})
			if err != nil {
				sortErr = err
				return 0
			}
			n, err := vm.ToNumber(a, r)
			if err != nil {
				sortErr = err
				return 0
			}
			switch {
			case n < 0:
				return -1
			case n > 0:
				return 1
			}
			return 0
		}
		xs, err := vm.ToString(a, x)
		if err != nil {
			sortErr = err
			return 0
		}
		ys, err := vm.ToString(a, y)
		if err != nil {
			sortErr = err
			return 0
		}
		return slices.Compare(vm.UTF16Units(xs), vm.UTF16Units(ys))
	})
	return sortErr
}
