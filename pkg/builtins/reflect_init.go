package builtins

import (
	"escore/pkg/vm"
)

type ReflectInitializer struct{}

func (r *ReflectInitializer) Name() string  { return "Reflect" }
func (r *ReflectInitializer) Priority() int { return PriorityReflect }

// InitRuntime installs Reflect, whose methods expose the internal
// methods of objects directly.
func (r *ReflectInitializer) InitRuntime(ctx *RuntimeContext) error {
	reflect := newNamespace(ctx, "Reflect")

	defineMethod(ctx, reflect, "apply", 3, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		target := arg(args, 0)
		if !vm.IsCallable(target) {
			return vm.Undefined, a.NewTypeError("Function.prototype.apply was called on %s, which is not a function", target.Inspect())
		}
		list, err := vm.CreateListFromArrayLike(a, arg(args, 2))
		if err != nil {
			return vm.Undefined, err
		}
		return vm.Call(a, target, arg(args, 1), list)
	})

	defineMethod(ctx, reflect, "construct", 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		target := arg(args, 0)
		if !vm.IsConstructor(target) {
			return vm.Undefined, a.NewTypeError("%s is not a constructor", target.Inspect())
		}
		nt := target
		if len(args) > 2 {
			nt = args[2]
			if !vm.IsConstructor(nt) {
				return vm.Undefined, a.NewTypeError("%s is not a constructor", nt.Inspect())
			}
		}
		list, err := vm.CreateListFromArrayLike(a, arg(args, 1))
		if err != nil {
			return vm.Undefined, err
		}
		return vm.Construct(a, target.AsObject(), list, nt.AsObject())
	})

	defineMethod(ctx, reflect, "defineProperty", 3, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		o, key, err := reflectTarget(a, args, "Reflect.defineProperty")
		if err != nil {
			return vm.Undefined, err
		}
		desc, err := vm.ToPropertyDescriptor(a, arg(args, 2))
		if err != nil {
			return vm.Undefined, err
		}
		ok, err := o.Impl().DefineOwnProperty(a, key, desc)
		return vm.BooleanValue(ok), err
	})

	defineMethod(ctx, reflect, "deleteProperty", 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		o, key, err := reflectTarget(a, args, "Reflect.deleteProperty")
		if err != nil {
			return vm.Undefined, err
		}
		ok, err := o.Impl().Delete(a, key)
		return vm.BooleanValue(ok), err
	})

	defineMethod(ctx, reflect, "get", 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		o, key, err := reflectTarget(a, args, "Reflect.get")
		if err != nil {
			return vm.Undefined, err
		}
		receiver := vm.ObjectValue(o)
		if len(args) > 2 {
			receiver = args[2]
		}
		return o.Impl().Get(a, key, receiver)
	})

	defineMethod(ctx, reflect, "getOwnPropertyDescriptor", 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		o, key, err := reflectTarget(a, args, "Reflect.getOwnPropertyDescriptor")
		if err != nil {
			return vm.Undefined, err
		}
		desc, err := o.Impl().GetOwnProperty(a, key)
		if err != nil {
			return vm.Undefined, err
		}
		return vm.FromPropertyDescriptor(a, desc), nil
	})

	defineMethod(ctx, reflect, "getPrototypeOf", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		o, err := requireObject(a, arg(args, 0), "Reflect.getPrototypeOf")
		if err != nil {
			return vm.Undefined, err
		}
		return prototypeValue(o.Impl().GetPrototypeOf(a))
	})

	defineMethod(ctx, reflect, "has", 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		o, key, err := reflectTarget(a, args, "Reflect.has")
		if err != nil {
			return vm.Undefined, err
		}
		ok, err := o.Impl().HasProperty(a, key)
		return vm.BooleanValue(ok), err
	})

	defineMethod(ctx, reflect, "isExtensible", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		o, err := requireObject(a, arg(args, 0), "Reflect.isExtensible")
		if err != nil {
			return vm.Undefined, err
		}
		ok, err := o.Impl().IsExtensible(a)
		return vm.BooleanValue(ok), err
	})

	defineMethod(ctx, reflect, "ownKeys", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		o, err := requireObject(a, arg(args, 0), "Reflect.ownKeys")
		if err != nil {
			return vm.Undefined, err
		}
		keys, err := o.Impl().OwnPropertyKeys(a)
		if err != nil {
			return vm.Undefined, err
		}
		values := make([]vm.Value, len(keys))
		for i, k := range keys {
			values[i] = k.Value()
		}
		return vm.ObjectValue(vm.CreateArrayFromList(a, values)), nil
	})

	defineMethod(ctx, reflect, "preventExtensions", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		o, err := requireObject(a, arg(args, 0), "Reflect.preventExtensions")
		if err != nil {
			return vm.Undefined, err
		}
		ok, err := o.Impl().PreventExtensions(a)
		return vm.BooleanValue(ok), err
	})

	defineMethod(ctx, reflect, "set", 3, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		o, key, err := reflectTarget(a, args, "Reflect.set")
		if err != nil {
			return vm.Undefined, err
		}
		receiver := vm.ObjectValue(o)
		if len(args) > 3 {
			receiver = args[3]
		}
		ok, err := o.Impl().Set(a, key, arg(args, 2), receiver)
		return vm.BooleanValue(ok), err
	})

	defineMethod(ctx, reflect, "setPrototypeOf", 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		o, err := requireObject(a, arg(args, 0), "Reflect.setPrototypeOf")
		if err != nil {
			return vm.Undefined, err
		}
		proto := arg(args, 1)
		if !proto.IsObject() && !proto.IsNull() {
			return vm.Undefined, a.NewTypeError("Object prototype may only be an Object or null: %s", proto.Inspect())
		}
		ok, err := o.Impl().SetPrototypeOf(a, proto.AsObject())
		return vm.BooleanValue(ok), err
	})

	return ctx.DefineGlobal("Reflect", vm.ObjectValue(reflect))
}

// reflectTarget validates the (target, propertyKey) prefix shared by most
// Reflect methods.
func reflectTarget(a *vm.Agent, args []vm.Value, method string) (*vm.Object, vm.PropertyKey, error) {
	o, err := requireObject(a, arg(args, 0), method)
	if err != nil {
		return nil, vm.PropertyKey{}, err
	}
	key, err := vm.ToPropertyKey(a, arg(args, 1))
	return o, key, err
}
