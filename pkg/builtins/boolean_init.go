package builtins

import (
	"escore/pkg/vm"
)

type BooleanInitializer struct{}

func (b *BooleanInitializer) Name() string {
	return "Boolean"
}

func (b *BooleanInitializer) Priority() int {
	return PriorityBoolean
}

func (b *BooleanInitializer) InitRuntime(ctx *RuntimeContext) error {
	proto := vm.OrdinaryObjectCreate(ctx.ObjectPrototype)
	proto.SetClass("Boolean")
	proto.SetPrimitiveData(vm.False)

	ctor := newConstructor(ctx, "Boolean", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		v := vm.BooleanValue(vm.ToBoolean(arg(args, 0)))
		if newTarget == nil {
			return v, nil
		}
		obj, err := vm.OrdinaryCreateFromConstructor(a, newTarget, "%Boolean.prototype%")
		if err != nil {
			return vm.Undefined, err
		}
		obj.SetClass("Boolean")
		obj.SetPrimitiveData(v)
		return vm.ObjectValue(obj), nil
	}, proto)

	defineMethod(ctx, proto, "valueOf", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		return thisBooleanValue(a, this, "Boolean.prototype.valueOf")
	})

	defineMethod(ctx, proto, "toString", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		v, err := thisBooleanValue(a, this, "Boolean.prototype.toString")
		if err != nil {
			return vm.Undefined, err
		}
		if v.AsBoolean() {
			return vm.StringValue("true"), nil
		}
		return vm.StringValue("false"), nil
	})

	return ctx.DefineGlobal("Boolean", vm.ObjectValue(ctor))
}

func thisBooleanValue(a *vm.Agent, v vm.Value, method string) (vm.Value, error) {
	if v.IsBoolean() {
		return v, nil
	}
	if v.IsObject() && v.AsObject().Class() == "Boolean" {
		if p := v.AsObject().PrimitiveData(); p.IsBoolean() {
			return p, nil
		}
	}
	return vm.Undefined, a.NewTypeError("%s requires that 'this' be a Boolean", method)
}
