package vm

import (
	"math"
	"sync/atomic"

	"github.com/dop251/goja/ast"
)

// Realm is an isolated global object, global environment and set of
// intrinsics. Objects from different realms may reference each other.
type Realm struct {
	id int

	// Intrinsics maps %Name% to the builtin object of this realm.
	Intrinsics map[string]*Object

	GlobalObject *Object
	GlobalEnv    *GlobalEnvironment

	// TemplateMap caches the template objects of tagged templates.
	TemplateMap map[*ast.TemplateLiteral]*Object

	LoadedModules map[string]*ModuleRecord

	HostDefined any
}

// realmIDs numbers realms across every agent of the process.
var realmIDs atomic.Int64

func (r *Realm) ID() int { return r.id }

// Intrinsic returns the named intrinsic, nil when the realm has none.
func (r *Realm) Intrinsic(name string) *Object {
	return r.Intrinsics[name]
}

func (r *Realm) SetIntrinsic(name string, o *Object) {
	r.Intrinsics[name] = o
}

// CreateRealm allocates a realm with its intrinsics. The global object
// and environment are set separately by SetRealmGlobalObject.
func CreateRealm(a *Agent) (*Realm, error) {
	realm := &Realm{
		id:            int(realmIDs.Add(1)),
		Intrinsics:    make(map[string]*Object),
		TemplateMap:   make(map[*ast.TemplateLiteral]*Object),
		LoadedModules: make(map[string]*ModuleRecord),
	}
	if err := CreateIntrinsics(a, realm); err != nil {
		return nil, err
	}
	return realm, nil
}

// CreateIntrinsics creates the fundamental objects every realm needs and
// then lets the agent's installer add the standard library.
func CreateIntrinsics(a *Agent, realm *Realm) error {
	objProto := newImmutablePrototypeObject(nil)
	realm.SetIntrinsic("%Object.prototype%", objProto)

	// %Function.prototype% is itself a builtin that accepts any arguments
	// and returns undefined.
	funcProto := CreateBuiltinFunction(realm, func(a *Agent, this Value, args []Value, newTarget *Object) (Value, error) {
		return Undefined, nil
	}, 0, StringKey(""), objProto)
	realm.SetIntrinsic("%Function.prototype%", funcProto)

	thrower := CreateBuiltinFunction(realm, func(a *Agent, this Value, args []Value, newTarget *Object) (Value, error) {
		return Undefined, a.NewTypeError("'caller', 'callee', and 'arguments' properties may not be accessed on strict mode functions or the arguments objects for calls to them")
	}, 0, StringKey(""), funcProto)
	thrower.DefineDataProperty(StringKey("length"), IntValue(0), false, false, false)
	thrower.DefineDataProperty(StringKey("name"), StringValue(""), false, false, false)
	thrower.ordinary().extensible = false
	realm.SetIntrinsic("%ThrowTypeError%", thrower)

	AddRestrictedFunctionProperties(funcProto, realm)

	if a.Installer != nil {
		ctx := &ExecutionContext{Realm: realm}
		if err := a.PushContext(ctx); err != nil {
			return err
		}
		defer a.PopContext(ctx)
		return a.Installer.CreateIntrinsics(a, realm)
	}
	return nil
}

// AddRestrictedFunctionProperties installs the caller and arguments
// accessors whose get and set both throw.
func AddRestrictedFunctionProperties(f *Object, realm *Realm) {
	thrower := ObjectValue(realm.Intrinsic("%ThrowTypeError%"))
	f.DefineAccessorProperty(StringKey("caller"), thrower, thrower, false, true)
	f.DefineAccessorProperty(StringKey("arguments"), thrower, thrower, false, true)
}

// SetRealmGlobalObject creates the global environment around globalObj,
// or around a fresh ordinary object when globalObj is nil. thisValue
// defaults to the global object.
func SetRealmGlobalObject(realm *Realm, globalObj, thisValue *Object) {
	if globalObj == nil {
		globalObj = OrdinaryObjectCreate(realm.Intrinsic("%Object.prototype%"))
	}
	if thisValue == nil {
		thisValue = globalObj
	}
	realm.GlobalObject = globalObj
	realm.GlobalEnv = NewGlobalEnvironment(globalObj, thisValue)
}

// SetDefaultGlobalBindings defines the value properties of the global
// object and then the installer's bindings.
func SetDefaultGlobalBindings(a *Agent, realm *Realm) error {
	g := realm.GlobalObject
	defs := []struct {
		name string
		desc PropertyDescriptor
	}{
		{"globalThis", DataDescriptor(realm.GlobalEnv.GetThisBinding(), true, false, true)},
		{"Infinity", DataDescriptor(NumberValue(math.Inf(1)), false, false, false)},
		{"NaN", DataDescriptor(NaN, false, false, false)},
		{"undefined", DataDescriptor(Undefined, false, false, false)},
	}
	for _, d := range defs {
		if err := DefinePropertyOrThrow(a, g, StringKey(d.name), d.desc); err != nil {
			return err
		}
	}
	if a.Installer != nil {
		return a.Installer.SetDefaultGlobalBindings(a, realm)
	}
	return nil
}

// InitializeHostDefinedRealm creates a realm and pushes a context for it,
// which stays on the stack as the agent's base context.
func InitializeHostDefinedRealm(a *Agent) (*Realm, error) {
	realm, err := CreateRealm(a)
	if err != nil {
		return nil, err
	}
	ctx := &ExecutionContext{Realm: realm}
	if err := a.PushContext(ctx); err != nil {
		return nil, err
	}
	SetRealmGlobalObject(realm, nil, nil)
	if err := SetDefaultGlobalBindings(a, realm); err != nil {
		a.PopContext(ctx)
		return nil, err
	}
	a.Logger.Debug("realm initialized", "realm", realm.id, "intrinsics", len(realm.Intrinsics))
	return realm, nil
}

// immutablePrototypeObject is an object whose [[Prototype]] never changes
// once created, like %Object.prototype%.
type immutablePrototypeObject struct {
	OrdinaryObject
}

func newImmutablePrototypeObject(proto *Object) *Object {
	obj := &Object{}
	o := &immutablePrototypeObject{}
	o.init(obj, proto, "Object")
	obj.impl = o
	return obj
}

func (o *immutablePrototypeObject) SetPrototypeOf(a *Agent, proto *Object) (bool, error) {
	return proto == o.prototype, nil
}
