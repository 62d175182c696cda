// Package builtins installs the standard library of a realm: the
// intrinsics beyond the few the core creates itself and the default
// global bindings. It plugs into the core as a vm.GlobalInstaller.
package builtins

import (
	"fmt"
	"io"
	"os"

	"escore/pkg/vm"
)

// Installer runs the builtin initializers for every realm an agent
// creates.
type Installer struct {
	initializers []BuiltinInitializer
	stdout       io.Writer
	stderr       io.Writer

	// Globals declared while creating intrinsics, defined once the
	// realm's global object exists.
	pending map[*vm.Realm][]globalBinding
}

type globalBinding struct {
	name  string
	value vm.Value
}

// Option configures an Installer.
type Option func(*Installer)

// WithOutput sets the writers used by console.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(in *Installer) {
		in.stdout = stdout
		in.stderr = stderr
	}
}

// WithInitializers replaces the standard initializer set.
func WithInitializers(initializers ...BuiltinInitializer) Option {
	return func(in *Installer) { in.initializers = initializers }
}

// NewInstaller returns an installer for the standard initializers.
func NewInstaller(opts ...Option) *Installer {
	in := &Installer{
		initializers: GetStandardInitializers(),
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		pending:      make(map[*vm.Realm][]globalBinding),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// CreateIntrinsics runs every initializer against realm.
func (in *Installer) CreateIntrinsics(a *vm.Agent, realm *vm.Realm) error {
	ctx := &RuntimeContext{
		Agent:             a,
		Realm:             realm,
		ObjectPrototype:   realm.Intrinsic("%Object.prototype%"),
		FunctionPrototype: realm.Intrinsic("%Function.prototype%"),
		Stdout:            in.stdout,
		Stderr:            in.stderr,
	}
	ctx.DefineGlobal = func(name string, value vm.Value) error {
		in.pending[realm] = append(in.pending[realm], globalBinding{name: name, value: value})
		return nil
	}
	for _, init := range in.initializers {
		if err := init.InitRuntime(ctx); err != nil {
			return fmt.Errorf("builtins: initializing %s: %w", init.Name(), err)
		}
	}
	a.Logger.Debug("builtins installed", "realm", realm.ID(), "modules", len(in.initializers))
	return nil
}

// SetDefaultGlobalBindings defines the globals declared for realm as
// writable, non-enumerable, configurable properties of its global object.
func (in *Installer) SetDefaultGlobalBindings(a *vm.Agent, realm *vm.Realm) error {
	for _, g := range in.pending[realm] {
		desc := vm.DataDescriptor(g.value, true, false, true)
		if err := vm.DefinePropertyOrThrow(a, realm.GlobalObject, vm.StringKey(g.name), desc); err != nil {
			return fmt.Errorf("builtins: defining global %s: %w", g.name, err)
		}
	}
	delete(in.pending, realm)
	return nil
}

// arg returns the i-th argument or undefined.
func arg(args []vm.Value, i int) vm.Value {
	if i < len(args) {
		return args[i]
	}
	return vm.Undefined
}

func newFunction(ctx *RuntimeContext, name string, length int, fn vm.NativeFunc) *vm.Object {
	return vm.CreateBuiltinFunction(ctx.Realm, fn, length, vm.StringKey(name), ctx.FunctionPrototype)
}

// defineMethod installs a builtin method: writable, non-enumerable,
// configurable.
func defineMethod(ctx *RuntimeContext, obj *vm.Object, name string, length int, fn vm.NativeFunc) *vm.Object {
	f := newFunction(ctx, name, length, fn)
	obj.SetMethod(name, vm.ObjectValue(f))
	return f
}

// defineSymbolMethod installs a method keyed by a well-known symbol.
func defineSymbolMethod(ctx *RuntimeContext, obj *vm.Object, sym *vm.Symbol, length int, fn vm.NativeFunc) *vm.Object {
	key := vm.SymbolKey(sym)
	f := vm.CreateBuiltinFunction(ctx.Realm, fn, length, key, ctx.FunctionPrototype)
	obj.DefineDataProperty(key, vm.ObjectValue(f), true, false, true)
	return f
}

// defineGetter installs a configurable accessor with only a getter.
func defineGetter(ctx *RuntimeContext, obj *vm.Object, key vm.PropertyKey, fn vm.NativeFunc) {
	f := vm.CreateBuiltinFunction(ctx.Realm, fn, 0, key, ctx.FunctionPrototype)
	vm.SetFunctionName(f, key, "get")
	obj.DefineAccessorProperty(key, vm.ObjectValue(f), vm.Undefined, false, true)
}

func defineConstant(obj *vm.Object, name string, v vm.Value) {
	obj.DefineDataProperty(vm.StringKey(name), v, false, false, false)
}

func defineToStringTag(obj *vm.Object, tag string) {
	obj.DefineDataProperty(vm.SymbolKey(vm.SymToStringTag), vm.StringValue(tag), false, false, true)
}

// newConstructor creates a builtin constructor linked with proto and
// registers both as %name% and %name.prototype%.
func newConstructor(ctx *RuntimeContext, name string, length int, fn vm.NativeFunc, proto *vm.Object) *vm.Object {
	ctor := newFunction(ctx, name, length, fn)
	vm.MakeBuiltinConstructor(ctor)
	ctor.DefineDataProperty(vm.StringKey("prototype"), vm.ObjectValue(proto), false, false, false)
	proto.DefineDataProperty(vm.StringKey("constructor"), vm.ObjectValue(ctor), true, false, true)
	ctx.Realm.SetIntrinsic("%"+name+"%", ctor)
	ctx.Realm.SetIntrinsic("%"+name+".prototype%", proto)
	return ctor
}

// newNamespace creates a plain object such as Math or Reflect.
func newNamespace(ctx *RuntimeContext, name string) *vm.Object {
	obj := vm.OrdinaryObjectCreate(ctx.ObjectPrototype)
	defineToStringTag(obj, name)
	ctx.Realm.SetIntrinsic("%"+name+"%", obj)
	return obj
}

// requireObject returns v as an object or throws a TypeError naming the
// builtin that required it.
func requireObject(a *vm.Agent, v vm.Value, method string) (*vm.Object, error) {
	if !v.IsObject() {
		return nil, a.NewTypeError("%s called on non-object", method)
	}
	return v.AsObject(), nil
}

// callback returns v when it is callable.
func callback(a *vm.Agent, v vm.Value) (vm.Value, error) {
	if !vm.IsCallable(v) {
		return vm.Undefined, a.NewTypeError("%s is not a function", v.Inspect())
	}
	return v, nil
}

func toNumberArg(a *vm.Agent, args []vm.Value, i int) (float64, error) {
	return vm.ToNumber(a, arg(args, i))
}

// relativeIndex resolves a relative start or end argument against length.
func relativeIndex(a *vm.Agent, v vm.Value, length, def int64) (int64, error) {
	if v.IsUndefined() {
		return def, nil
	}
	rel, err := vm.ToIntegerOrInfinity(a, v)
	if err != nil {
		return 0, err
	}
	if rel < 0 {
		if r := float64(length) + rel; r > 0 {
			return int64(r), nil
		}
		return 0, nil
	}
	if rel > float64(length) {
		return length, nil
	}
	return int64(rel), nil
}
