package builtins

import (
	"escore/pkg/vm"
)

type ObjectInitializer struct{}

func (o *ObjectInitializer) Name() string {
	return "Object"
}

func (o *ObjectInitializer) Priority() int {
	return PriorityObject
}

func (o *ObjectInitializer) InitRuntime(ctx *RuntimeContext) error {
	proto := ctx.ObjectPrototype

	var ctor *vm.Object
	ctor = newConstructor(ctx, "Object", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		if newTarget != nil && newTarget != ctor {
			obj, err := vm.OrdinaryCreateFromConstructor(a, newTarget, "%Object.prototype%")
			if err != nil {
				return vm.Undefined, err
			}
			return vm.ObjectValue(obj), nil
		}
		v := arg(args, 0)
		if v.IsNullish() {
			return vm.ObjectValue(vm.OrdinaryObjectCreate(a.CurrentRealm().Intrinsic("%Object.prototype%"))), nil
		}
		obj, err := vm.ToObject(a, v)
		if err != nil {
			return vm.Undefined, err
		}
		return vm.ObjectValue(obj), nil
	}, proto)

	o.initStatics(ctx, ctor)
	o.initPrototype(ctx, proto)

	return ctx.DefineGlobal("Object", vm.ObjectValue(ctor))
}

func (o *ObjectInitializer) initStatics(ctx *RuntimeContext, ctor *vm.Object) {
	defineMethod(ctx, ctor, "create", 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		protoArg := arg(args, 0)
		if !protoArg.IsObject() && !protoArg.IsNull() {
			return vm.Undefined, a.NewTypeError("Object prototype may only be an Object or null: %s", protoArg.Inspect())
		}
		obj := vm.OrdinaryObjectCreate(protoArg.AsObject())
		if props := arg(args, 1); !props.IsUndefined() {
			if err := objectDefineProperties(a, obj, props); err != nil {
				return vm.Undefined, err
			}
		}
		return vm.ObjectValue(obj), nil
	})

	enumerable := func(name string, kind vm.EnumerableKind) {
		defineMethod(ctx, ctor, name, 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
			obj, err := vm.ToObject(a, arg(args, 0))
			if err != nil {
				return vm.Undefined, err
			}
			list, err := vm.EnumerableOwnProperties(a, obj, kind)
			if err != nil {
				return vm.Undefined, err
			}
			return vm.ObjectValue(vm.CreateArrayFromList(a, list)), nil
		})
	}
	enumerable("keys", vm.EnumerateKeys)
	enumerable("values", vm.EnumerateValues)
	enumerable("entries", vm.EnumerateEntries)

	defineMethod(ctx, ctor, "getPrototypeOf", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		obj, err := vm.ToObject(a, arg(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		return prototypeValue(obj.Impl().GetPrototypeOf(a))
	})

	defineMethod(ctx, ctor, "setPrototypeOf", 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		target, err := vm.RequireObjectCoercible(a, arg(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		protoArg := arg(args, 1)
		if !protoArg.IsObject() && !protoArg.IsNull() {
			return vm.Undefined, a.NewTypeError("Object prototype may only be an Object or null: %s", protoArg.Inspect())
		}
		if !target.IsObject() {
			return target, nil
		}
		ok, err := target.AsObject().Impl().SetPrototypeOf(a, protoArg.AsObject())
		if err != nil {
			return vm.Undefined, err
		}
		if !ok {
			return vm.Undefined, a.NewTypeError("Cannot set prototype of %s", target.Inspect())
		}
		return target, nil
	})

	defineMethod(ctx, ctor, "defineProperty", 3, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		obj, err := requireObject(a, arg(args, 0), "Object.defineProperty")
		if err != nil {
			return vm.Undefined, err
		}
		key, err := vm.ToPropertyKey(a, arg(args, 1))
		if err != nil {
			return vm.Undefined, err
		}
		desc, err := vm.ToPropertyDescriptor(a, arg(args, 2))
		if err != nil {
			return vm.Undefined, err
		}
		if err := vm.DefinePropertyOrThrow(a, obj, key, desc); err != nil {
			return vm.Undefined, err
		}
		return args[0], nil
	})

	defineMethod(ctx, ctor, "defineProperties", 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		obj, err := requireObject(a, arg(args, 0), "Object.defineProperties")
		if err != nil {
			return vm.Undefined, err
		}
		if err := objectDefineProperties(a, obj, arg(args, 1)); err != nil {
			return vm.Undefined, err
		}
		return args[0], nil
	})

	defineMethod(ctx, ctor, "getOwnPropertyDescriptor", 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		obj, err := vm.ToObject(a, arg(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		key, err := vm.ToPropertyKey(a, arg(args, 1))
		if err != nil {
			return vm.Undefined, err
		}
		desc, err := obj.Impl().GetOwnProperty(a, key)
		if err != nil {
			return vm.Undefined, err
		}
		return vm.FromPropertyDescriptor(a, desc), nil
	})

	ownKeys := func(name string, symbols bool) {
		defineMethod(ctx, ctor, name, 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
			obj, err := vm.ToObject(a, arg(args, 0))
			if err != nil {
				return vm.Undefined, err
			}
			keys, err := obj.Impl().OwnPropertyKeys(a)
			if err != nil {
				return vm.Undefined, err
			}
			var list []vm.Value
			for _, k := range keys {
				if k.IsSymbol() == symbols {
					list = append(list, k.Value())
				}
			}
			return vm.ObjectValue(vm.CreateArrayFromList(a, list)), nil
		})
	}
	ownKeys("getOwnPropertyNames", false)
	ownKeys("getOwnPropertySymbols", true)

	defineMethod(ctx, ctor, "preventExtensions", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		v := arg(args, 0)
		if !v.IsObject() {
			return v, nil
		}
		ok, err := v.AsObject().Impl().PreventExtensions(a)
		if err != nil {
			return vm.Undefined, err
		}
		if !ok {
			return vm.Undefined, a.NewTypeError("Cannot prevent extensions")
		}
		return v, nil
	})

	defineMethod(ctx, ctor, "isExtensible", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		v := arg(args, 0)
		if !v.IsObject() {
			return vm.False, nil
		}
		ok, err := vm.IsExtensible(a, v.AsObject())
		return vm.BooleanValue(ok), err
	})

	integrity := func(name string, level vm.IntegrityLevel) {
		defineMethod(ctx, ctor, name, 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
			v := arg(args, 0)
			if !v.IsObject() {
				return v, nil
			}
			ok, err := vm.SetIntegrityLevel(a, v.AsObject(), level)
			if err != nil {
				return vm.Undefined, err
			}
			if !ok {
				return vm.Undefined, a.NewTypeError("Cannot %s object", name)
			}
			return v, nil
		})
	}
	integrity("freeze", vm.IntegrityFrozen)
	integrity("seal", vm.IntegritySealed)

	testIntegrity := func(name string, level vm.IntegrityLevel) {
		defineMethod(ctx, ctor, name, 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
			v := arg(args, 0)
			if !v.IsObject() {
				return vm.True, nil
			}
			ok, err := vm.TestIntegrityLevel(a, v.AsObject(), level)
			return vm.BooleanValue(ok), err
		})
	}
	testIntegrity("isFrozen", vm.IntegrityFrozen)
	testIntegrity("isSealed", vm.IntegritySealed)

	defineMethod(ctx, ctor, "assign", 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		to, err := vm.ToObject(a, arg(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		for _, source := range args[min(1, len(args)):] {
			if source.IsNullish() {
				continue
			}
			from, err := vm.ToObject(a, source)
			if err != nil {
				return vm.Undefined, err
			}
			keys, err := from.Impl().OwnPropertyKeys(a)
			if err != nil {
				return vm.Undefined, err
			}
			for _, key := range keys {
				desc, err := from.Impl().GetOwnProperty(a, key)
				if err != nil {
					return vm.Undefined, err
				}
				if desc == nil || !desc.Enumerable {
					continue
				}
				v, err := vm.Get(a, from, key)
				if err != nil {
					return vm.Undefined, err
				}
				if err := vm.Set(a, to, key, v, true); err != nil {
					return vm.Undefined, err
				}
			}
		}
		return vm.ObjectValue(to), nil
	})

	defineMethod(ctx, ctor, "is", 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		return vm.BooleanValue(vm.SameValue(arg(args, 0), arg(args, 1))), nil
	})

	defineMethod(ctx, ctor, "fromEntries", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		iterable, err := vm.RequireObjectCoercible(a, arg(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		obj := vm.OrdinaryObjectCreate(a.CurrentRealm().Intrinsic("%Object.prototype%"))
		entries, err := vm.IterableToList(a, iterable)
		if err != nil {
			return vm.Undefined, err
		}
		for _, entry := range entries {
			if !entry.IsObject() {
				return vm.Undefined, a.NewTypeError("Iterator value %s is not an entry object", entry.Inspect())
			}
			k, err := vm.Get(a, entry.AsObject(), vm.IndexKey(0))
			if err != nil {
				return vm.Undefined, err
			}
			v, err := vm.Get(a, entry.AsObject(), vm.IndexKey(1))
			if err != nil {
				return vm.Undefined, err
			}
			key, err := vm.ToPropertyKey(a, k)
			if err != nil {
				return vm.Undefined, err
			}
			if err := vm.CreateDataPropertyOrThrow(a, obj, key, v); err != nil {
				return vm.Undefined, err
			}
		}
		return vm.ObjectValue(obj), nil
	})
}

func (o *ObjectInitializer) initPrototype(ctx *RuntimeContext, proto *vm.Object) {
	defineMethod(ctx, proto, "hasOwnProperty", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		key, err := vm.ToPropertyKey(a, arg(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		obj, err := vm.ToObject(a, this)
		if err != nil {
			return vm.Undefined, err
		}
		has, err := vm.HasOwnProperty(a, obj, key)
		return vm.BooleanValue(has), err
	})

	defineMethod(ctx, proto, "isPrototypeOf", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		v := arg(args, 0)
		if !v.IsObject() {
			return vm.False, nil
		}
		obj, err := vm.ToObject(a, this)
		if err != nil {
			return vm.Undefined, err
		}
		for p := v.AsObject(); ; {
			next, err := p.Impl().GetPrototypeOf(a)
			if err != nil {
				return vm.Undefined, err
			}
			if next == nil {
				return vm.False, nil
			}
			if next == obj {
				return vm.True, nil
			}
			p = next
		}
	})

	defineMethod(ctx, proto, "propertyIsEnumerable", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		key, err := vm.ToPropertyKey(a, arg(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		obj, err := vm.ToObject(a, this)
		if err != nil {
			return vm.Undefined, err
		}
		desc, err := obj.Impl().GetOwnProperty(a, key)
		if err != nil {
			return vm.Undefined, err
		}
		return vm.BooleanValue(desc != nil && desc.Enumerable), nil
	})

	defineMethod(ctx, proto, "toString", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		s, err := objectToString(a, this)
		return vm.StringValue(s), err
	})

	defineMethod(ctx, proto, "toLocaleString", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		return vm.Invoke(a, this, vm.StringKey("toString"), nil)
	})

	defineMethod(ctx, proto, "valueOf", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		obj, err := vm.ToObject(a, this)
		if err != nil {
			return vm.Undefined, err
		}
		return vm.ObjectValue(obj), nil
	})

	protoKey := vm.StringKey("__proto__")
	getter := vm.CreateBuiltinFunction(ctx.Realm, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		obj, err := vm.ToObject(a, this)
		if err != nil {
			return vm.Undefined, err
		}
		return prototypeValue(obj.Impl().GetPrototypeOf(a))
	}, 0, protoKey, ctx.FunctionPrototype)
	vm.SetFunctionName(getter, protoKey, "get")
	setter := vm.CreateBuiltinFunction(ctx.Realm, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		if _, err := vm.RequireObjectCoercible(a, this); err != nil {
			return vm.Undefined, err
		}
		protoArg := arg(args, 0)
		if (!protoArg.IsObject() && !protoArg.IsNull()) || !this.IsObject() {
			return vm.Undefined, nil
		}
		ok, err := this.AsObject().Impl().SetPrototypeOf(a, protoArg.AsObject())
		if err != nil {
			return vm.Undefined, err
		}
		if !ok {
			return vm.Undefined, a.NewTypeError("Object.prototype.__proto__ setter failed")
		}
		return vm.Undefined, nil
	}, 1, protoKey, ctx.FunctionPrototype)
	vm.SetFunctionName(setter, protoKey, "set")
	proto.DefineAccessorProperty(protoKey, vm.ObjectValue(getter), vm.ObjectValue(setter), false, true)
}

func prototypeValue(proto *vm.Object, err error) (vm.Value, error) {
	if err != nil {
		return vm.Undefined, err
	}
	if proto == nil {
		return vm.Null, nil
	}
	return vm.ObjectValue(proto), nil
}

// objectDefineProperties reads every descriptor before defining any.
func objectDefineProperties(a *vm.Agent, obj *vm.Object, properties vm.Value) error {
	props, err := vm.ToObject(a, properties)
	if err != nil {
		return err
	}
	keys, err := props.Impl().OwnPropertyKeys(a)
	if err != nil {
		return err
	}
	type pending struct {
		key  vm.PropertyKey
		desc vm.PropertyDescriptor
	}
	var descriptors []pending
	for _, key := range keys {
		prop, err := props.Impl().GetOwnProperty(a, key)
		if err != nil {
			return err
		}
		if prop == nil || !prop.Enumerable {
			continue
		}
		descObj, err := vm.Get(a, props, key)
		if err != nil {
			return err
		}
		desc, err := vm.ToPropertyDescriptor(a, descObj)
		if err != nil {
			return err
		}
		descriptors = append(descriptors, pending{key, desc})
	}
	for _, p := range descriptors {
		if err := vm.DefinePropertyOrThrow(a, obj, p.key, p.desc); err != nil {
			return err
		}
	}
	return nil
}

// objectToString implements Object.prototype.toString.
func objectToString(a *vm.Agent, this vm.Value) (string, error) {
	switch {
	case this.IsUndefined():
		return "[object Undefined]", nil
	case this.IsNull():
		return "[object Null]", nil
	}
	obj, err := vm.ToObject(a, this)
	if err != nil {
		return "", err
	}
	isArray, err := vm.IsArray(a, vm.ObjectValue(obj))
	if err != nil {
		return "", err
	}
	builtinTag := "Object"
	switch {
	case isArray:
		builtinTag = "Array"
	case vm.IsCallable(vm.ObjectValue(obj)):
		builtinTag = "Function"
	default:
		switch class := obj.Class(); class {
		case "Arguments", "Error", "Boolean", "Number", "String", "Date", "RegExp":
			builtinTag = class
		}
	}
	tag, err := vm.Get(a, obj, vm.SymbolKey(vm.SymToStringTag))
	if err != nil {
		return "", err
	}
	if tag.IsString() {
		builtinTag = tag.AsString()
	}
	return "[object " + builtinTag + "]", nil
}
