package builtins

import (
	"escore/pkg/vm"
)

type ProxyInitializer struct{}

func (p *ProxyInitializer) Name() string  { return "Proxy" }
func (p *ProxyInitializer) Priority() int { return PriorityProxy }

func (p *ProxyInitializer) InitRuntime(ctx *RuntimeContext) error {
	ctor := newFunction(ctx, "Proxy", 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		if newTarget == nil {
			return vm.Undefined, a.NewTypeError("Constructor Proxy requires 'new'")
		}
		proxy, err := vm.ProxyCreate(a, arg(args, 0), arg(args, 1))
		if err != nil {
			return vm.Undefined, err
		}
		return vm.ObjectValue(proxy), nil
	})
	vm.MakeBuiltinConstructor(ctor)
	ctx.Realm.SetIntrinsic("%Proxy%", ctor)

	defineMethod(ctx, ctor, "revocable", 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		proxy, err := vm.ProxyCreate(a, arg(args, 0), arg(args, 1))
		if err != nil {
			return vm.Undefined, err
		}
		revoke := vm.CreateBuiltinFunction(a.CurrentRealm(), func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
			if proxy != nil {
				proxy.Impl().(*vm.ProxyObject).Revoke()
				proxy = nil
			}
			return vm.Undefined, nil
		}, 0, vm.StringKey(""), nil)
		result := vm.OrdinaryObjectCreate(a.CurrentRealm().Intrinsic("%Object.prototype%"))
		if err := vm.CreateDataPropertyOrThrow(a, result, vm.StringKey("proxy"), vm.ObjectValue(proxy)); err != nil {
			return vm.Undefined, err
		}
		if err := vm.CreateDataPropertyOrThrow(a, result, vm.StringKey("revoke"), vm.ObjectValue(revoke)); err != nil {
			return vm.Undefined, err
		}
		return vm.ObjectValue(result), nil
	})

	return ctx.DefineGlobal("Proxy", vm.ObjectValue(ctor))
}
