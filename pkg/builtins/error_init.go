package builtins

import (
	"escore/pkg/vm"
)

type ErrorInitializer struct{}

func (e *ErrorInitializer) Name() string {
	return "Error"
}

func (e *ErrorInitializer) Priority() int {
	return PriorityError
}

// nativeErrors are the NativeError constructors deriving from Error.
var nativeErrors = []string{"TypeError", "ReferenceError", "SyntaxError", "RangeError", "EvalError", "URIError"}

func (e *ErrorInitializer) InitRuntime(ctx *RuntimeContext) error {
	errorProto := vm.OrdinaryObjectCreate(ctx.ObjectPrototype)
	errorCtor := e.errorConstructor(ctx, "Error", ctx.FunctionPrototype, errorProto)

	defineMethod(ctx, errorProto, "toString", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		obj, err := requireObject(a, this, "Error.prototype.toString")
		if err != nil {
			return vm.Undefined, err
		}
		name, err := vm.Get(a, obj, vm.StringKey("name"))
		if err != nil {
			return vm.Undefined, err
		}
		nameStr := "Error"
		if !name.IsUndefined() {
			if nameStr, err = vm.ToString(a, name); err != nil {
				return vm.Undefined, err
			}
		}
		msg, err := vm.Get(a, obj, vm.StringKey("message"))
		if err != nil {
			return vm.Undefined, err
		}
		msgStr := ""
		if !msg.IsUndefined() {
			if msgStr, err = vm.ToString(a, msg); err != nil {
				return vm.Undefined, err
			}
		}
		switch {
		case nameStr == "":
			return vm.StringValue(msgStr), nil
		case msgStr == "":
			return vm.StringValue(nameStr), nil
		}
		return vm.StringValue(nameStr + ": " + msgStr), nil
	})
	if err := ctx.DefineGlobal("Error", vm.ObjectValue(errorCtor)); err != nil {
		return err
	}

	for _, name := range nativeErrors {
		proto := vm.OrdinaryObjectCreate(errorProto)
		ctor := e.errorConstructor(ctx, name, errorCtor, proto)
		if err := ctx.DefineGlobal(name, vm.ObjectValue(ctor)); err != nil {
			return err
		}
	}

	aggregateProto := vm.OrdinaryObjectCreate(errorProto)
	aggregate := e.aggregateErrorConstructor(ctx, errorCtor, aggregateProto)
	return ctx.DefineGlobal("AggregateError", vm.ObjectValue(aggregate))
}

// errorConstructor creates Error or a NativeError constructor. Calling it
// without new behaves like constructing it.
func (e *ErrorInitializer) errorConstructor(ctx *RuntimeContext, name string, parent, proto *vm.Object) *vm.Object {
	var ctor *vm.Object
	ctor = newConstructor(ctx, name, 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		if newTarget == nil {
			newTarget = ctor
		}
		obj, err := createErrorObject(a, newTarget, "%"+name+".prototype%", arg(args, 0), arg(args, 1))
		if err != nil {
			return vm.Undefined, err
		}
		return vm.ObjectValue(obj), nil
	}, proto)
	if _, err := ctor.Impl().SetPrototypeOf(ctx.Agent, parent); err != nil {
		panic(err)
	}
	proto.DefineDataProperty(vm.StringKey("name"), vm.StringValue(name), true, false, true)
	proto.DefineDataProperty(vm.StringKey("message"), vm.StringValue(""), true, false, true)
	return ctor
}

func (e *ErrorInitializer) aggregateErrorConstructor(ctx *RuntimeContext, parent, proto *vm.Object) *vm.Object {
	var ctor *vm.Object
	ctor = newConstructor(ctx, "AggregateError", 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		if newTarget == nil {
			newTarget = ctor
		}
		obj, err := createErrorObject(a, newTarget, "%AggregateError.prototype%", arg(args, 1), arg(args, 2))
		if err != nil {
			return vm.Undefined, err
		}
		errs, err := vm.IterableToList(a, arg(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		list := vm.ObjectValue(vm.CreateArrayFromList(a, errs))
		if err := vm.CreateNonEnumerableDataPropertyOrThrow(a, obj, vm.StringKey("errors"), list); err != nil {
			return vm.Undefined, err
		}
		return vm.ObjectValue(obj), nil
	}, proto)
	if _, err := ctor.Impl().SetPrototypeOf(ctx.Agent, parent); err != nil {
		panic(err)
	}
	proto.DefineDataProperty(vm.StringKey("name"), vm.StringValue("AggregateError"), true, false, true)
	proto.DefineDataProperty(vm.StringKey("message"), vm.StringValue(""), true, false, true)
	return ctor
}

// createErrorObject allocates an error instance with its message and
// InstallErrorCause applied.
func createErrorObject(a *vm.Agent, newTarget *vm.Object, defaultProto string, message, options vm.Value) (*vm.Object, error) {
	obj, err := vm.OrdinaryCreateFromConstructor(a, newTarget, defaultProto)
	if err != nil {
		return nil, err
	}
	obj.SetClass("Error")
	if !message.IsUndefined() {
		msg, err := vm.ToString(a, message)
		if err != nil {
			return nil, err
		}
		if err := vm.CreateNonEnumerableDataPropertyOrThrow(a, obj, vm.StringKey("message"), vm.StringValue(msg)); err != nil {
			return nil, err
		}
	}
	if options.IsObject() {
		has, err := vm.HasProperty(a, options.AsObject(), vm.StringKey("cause"))
		if err != nil {
			return nil, err
		}
		if has {
			cause, err := vm.Get(a, options.AsObject(), vm.StringKey("cause"))
			if err != nil {
				return nil, err
			}
			if err := vm.CreateNonEnumerableDataPropertyOrThrow(a, obj, vm.StringKey("cause"), cause); err != nil {
				return nil, err
			}
		}
	}
	return obj, nil
}
