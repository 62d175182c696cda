package builtins

import (
	"escore/pkg/vm"
)

type SymbolInitializer struct{}

func (s *SymbolInitializer) Name() string {
	return "Symbol"
}

func (s *SymbolInitializer) Priority() int {
	return PrioritySymbol
}

func (s *SymbolInitializer) InitRuntime(ctx *RuntimeContext) error {
	proto := vm.OrdinaryObjectCreate(ctx.ObjectPrototype)

	ctor := newConstructor(ctx, "Symbol", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		if newTarget != nil {
			return vm.Undefined, a.NewTypeError("Symbol is not a constructor")
		}
		desc := arg(args, 0)
		if desc.IsUndefined() {
			return vm.SymbolValue(vm.NewSymbol(vm.Undefined)), nil
		}
		str, err := vm.ToString(a, desc)
		if err != nil {
			return vm.Undefined, err
		}
		return vm.SymbolValue(vm.NewSymbol(vm.StringValue(str))), nil
	}, proto)

	for name, sym := range vm.WellKnownSymbols {
		defineConstant(ctor, name, vm.SymbolValue(sym))
	}

	defineMethod(ctx, ctor, "for", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		key, err := vm.ToString(a, arg(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		return vm.SymbolValue(a.Symbols.For(key)), nil
	})

	defineMethod(ctx, ctor, "keyFor", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		sym := arg(args, 0)
		if !sym.IsSymbol() {
			return vm.Undefined, a.NewTypeError("%s is not a symbol", sym.Inspect())
		}
		if key, ok := a.Symbols.KeyFor(sym.AsSymbol()); ok {
			return vm.StringValue(key), nil
		}
		return vm.Undefined, nil
	})

	defineMethod(ctx, proto, "toString", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		sym, err := thisSymbolValue(a, this, "Symbol.prototype.toString")
		if err != nil {
			return vm.Undefined, err
		}
		return vm.StringValue(sym.DescriptiveString()), nil
	})

	defineMethod(ctx, proto, "valueOf", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		sym, err := thisSymbolValue(a, this, "Symbol.prototype.valueOf")
		if err != nil {
			return vm.Undefined, err
		}
		return vm.SymbolValue(sym), nil
	})

	defineGetter(ctx, proto, vm.StringKey("description"), func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		sym, err := thisSymbolValue(a, this, "Symbol.prototype.description")
		if err != nil {
			return vm.Undefined, err
		}
		return sym.Description(), nil
	})

	toPrimitive := vm.CreateBuiltinFunction(ctx.Realm, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		sym, err := thisSymbolValue(a, this, "Symbol.prototype [ @@toPrimitive ]")
		if err != nil {
			return vm.Undefined, err
		}
		return vm.SymbolValue(sym), nil
	}, 1, vm.SymbolKey(vm.SymToPrimitive), ctx.FunctionPrototype)
	proto.DefineDataProperty(vm.SymbolKey(vm.SymToPrimitive), vm.ObjectValue(toPrimitive), false, false, true)
	defineToStringTag(proto, "Symbol")

	return ctx.DefineGlobal("Symbol", vm.ObjectValue(ctor))
}

// thisSymbolValue unwraps a symbol primitive or Symbol object.
func thisSymbolValue(a *vm.Agent, v vm.Value, method string) (*vm.Symbol, error) {
	if v.IsSymbol() {
		return v.AsSymbol(), nil
	}
	if v.IsObject() && v.AsObject().Class() == "Symbol" {
		if p := v.AsObject().PrimitiveData(); p.IsSymbol() {
			return p.AsSymbol(), nil
		}
	}
	return nil, a.NewTypeError("%s requires that 'this' be a Symbol", method)
}
