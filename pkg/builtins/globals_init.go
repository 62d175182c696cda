package builtins

import (
	"math"

	"escore/pkg/vm"
)

type GlobalsInitializer struct{}

func (g *GlobalsInitializer) Name() string {
	return "Globals"
}

func (g *GlobalsInitializer) Priority() int {
	return PriorityGlobals
}

func (g *GlobalsInitializer) InitRuntime(ctx *RuntimeContext) error {
	// parseInt and parseFloat are the same function objects as
	// Number.parseInt and Number.parseFloat.
	for _, name := range []string{"parseInt", "parseFloat"} {
		fn := ctx.Realm.Intrinsic("%" + name + "%")
		if fn == nil {
			continue
		}
		if err := ctx.DefineGlobal(name, vm.ObjectValue(fn)); err != nil {
			return err
		}
	}

	// Unlike the Number statics, the globals coerce their argument.
	numberTests := []struct {
		name string
		test func(float64) bool
	}{
		{"isNaN", math.IsNaN},
		{"isFinite", func(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }},
	}
	for _, nt := range numberTests {
		test := nt.test
		fn := newFunction(ctx, nt.name, 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
			num, err := vm.ToNumber(a, arg(args, 0))
			if err != nil {
				return vm.Undefined, err
			}
			return vm.BooleanValue(test(num)), nil
		})
		ctx.Realm.SetIntrinsic("%"+nt.name+"%", fn)
		if err := ctx.DefineGlobal(nt.name, vm.ObjectValue(fn)); err != nil {
			return err
		}
	}

	queueMicrotask := newFunction(ctx, "queueMicrotask", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		callback := arg(args, 0)
		if !vm.IsCallable(callback) {
			return vm.Undefined, a.NewTypeError("queueMicrotask: argument must be a function, got %s", callback.Inspect())
		}
		a.Host.EnqueueJob(a, func(a *vm.Agent) error {
			_, err := vm.Call(a, callback, vm.Undefined, nil)
			return err
		}, a.CurrentRealm())
		return vm.Undefined, nil
	})
	return ctx.DefineGlobal("queueMicrotask", vm.ObjectValue(queueMicrotask))
}
