package vm

import "sort"

// InternalMethods is the essential internal method set every object
// exposes. OrdinaryObject provides the default behaviour; the exotic kinds
// in this package (arrays, string wrappers, arguments, bound functions,
// proxies) override a subset. The set is closed: base() is unexported.
type InternalMethods interface {
	GetPrototypeOf(a *Agent) (*Object, error)
	SetPrototypeOf(a *Agent, proto *Object) (bool, error)
	IsExtensible(a *Agent) (bool, error)
	PreventExtensions(a *Agent) (bool, error)
	GetOwnProperty(a *Agent, key PropertyKey) (*PropertyDescriptor, error)
	DefineOwnProperty(a *Agent, key PropertyKey, desc PropertyDescriptor) (bool, error)
	HasProperty(a *Agent, key PropertyKey) (bool, error)
	Get(a *Agent, key PropertyKey, receiver Value) (Value, error)
	Set(a *Agent, key PropertyKey, v Value, receiver Value) (bool, error)
	Delete(a *Agent, key PropertyKey) (bool, error)
	OwnPropertyKeys(a *Agent) ([]PropertyKey, error)

	base() *OrdinaryObject
}

// Caller is implemented by objects with a [[Call]] internal method.
type Caller interface {
	Call(a *Agent, this Value, args []Value) (Value, error)
}

// Constructor is implemented by objects with a [[Construct]] internal
// method. IsConstructor may still report false for some instances.
type Constructor interface {
	Construct(a *Agent, args []Value, newTarget *Object) (Value, error)
	IsConstructor() bool
}

// Object is a handle to an object. Identity is pointer identity; internal
// method calls dispatch to the concrete kind.
type Object struct {
	impl InternalMethods
}

func (o *Object) Impl() InternalMethods { return o.impl }

func (o *Object) ordinary() *OrdinaryObject { return o.impl.base() }

// Class returns the builtin tag used by Object.prototype.toString.
func (o *Object) Class() string { return o.ordinary().class }

func (o *Object) SetClass(class string) { o.ordinary().class = class }

// PrimitiveData returns the wrapped primitive of Boolean, Number, String and
// Symbol wrapper objects, or undefined.
func (o *Object) PrimitiveData() Value { return o.ordinary().primitive }

func (o *Object) SetPrimitiveData(v Value) { o.ordinary().primitive = v }

// Slot returns host data stored on the object by builtins.
func (o *Object) Slot(name string) (any, bool) {
	b := o.ordinary()
	if b.slots == nil {
		return nil, false
	}
	v, ok := b.slots[name]
	return v, ok
}

func (o *Object) SetSlot(name string, v any) {
	b := o.ordinary()
	if b.slots == nil {
		b.slots = make(map[string]any)
	}
	b.slots[name] = v
}

// Prototype returns the stored [[Prototype]] without running proxy traps.
func (o *Object) Prototype() *Object { return o.ordinary().prototype }

// property is a stored own property. Accessor and data fields are mutually
// exclusive, selected by accessor.
type property struct {
	value        Value
	getter       Value
	setter       Value
	writable     bool
	enumerable   bool
	configurable bool
	accessor     bool
}

func (p *property) descriptor() *PropertyDescriptor {
	if p.accessor {
		d := AccessorDescriptor(p.getter, p.setter, p.enumerable, p.configurable)
		return &d
	}
	d := DataDescriptor(p.value, p.writable, p.enumerable, p.configurable)
	return &d
}

// propertyMap keeps own properties in insertion order.
type propertyMap struct {
	m    map[PropertyKey]*property
	keys []PropertyKey
}

func (pm *propertyMap) get(k PropertyKey) *property {
	if pm.m == nil {
		return nil
	}
	return pm.m[k]
}

func (pm *propertyMap) set(k PropertyKey, p *property) {
	if pm.m == nil {
		pm.m = make(map[PropertyKey]*property)
	}
	if _, exists := pm.m[k]; !exists {
		pm.keys = append(pm.keys, k)
	}
	pm.m[k] = p
}

func (pm *propertyMap) remove(k PropertyKey) {
	if _, exists := pm.m[k]; !exists {
		return
	}
	delete(pm.m, k)
	for i, existing := range pm.keys {
		if existing == k {
			pm.keys = append(pm.keys[:i], pm.keys[i+1:]...)
			break
		}
	}
}

func (pm *propertyMap) len() int { return len(pm.m) }

// ordered returns keys as OrdinaryOwnPropertyKeys requires: array indices
// ascending, then strings in insertion order, then symbols in insertion order.
func (pm *propertyMap) ordered() []PropertyKey {
	var indices []uint32
	var strs, syms []PropertyKey
	for _, k := range pm.keys {
		if idx, ok := k.ArrayIndex(); ok {
			indices = append(indices, idx)
		} else if k.IsSymbol() {
			syms = append(syms, k)
		} else {
			strs = append(strs, k)
		}
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	out := make([]PropertyKey, 0, len(pm.keys))
	for _, idx := range indices {
		out = append(out, IndexKey(idx))
	}
	out = append(out, strs...)
	return append(out, syms...)
}

// OrdinaryObject is the default object kind and the shared storage of every
// exotic kind.
type OrdinaryObject struct {
	obj        *Object
	class      string
	prototype  *Object
	extensible bool
	props      propertyMap
	primitive  Value
	slots      map[string]any
}

func (b *OrdinaryObject) base() *OrdinaryObject { return b }

// Object returns the handle of the object this storage belongs to.
func (b *OrdinaryObject) Object() *Object { return b.obj }

func (b *OrdinaryObject) init(obj *Object, proto *Object, class string) {
	b.obj = obj
	b.prototype = proto
	b.extensible = true
	b.class = class
}

// OrdinaryObjectCreate allocates a new ordinary object.
func OrdinaryObjectCreate(proto *Object) *Object {
	obj := &Object{}
	b := &OrdinaryObject{}
	b.init(obj, proto, "Object")
	obj.impl = b
	return obj
}

func (b *OrdinaryObject) GetPrototypeOf(a *Agent) (*Object, error) {
	return b.prototype, nil
}

func (b *OrdinaryObject) SetPrototypeOf(a *Agent, proto *Object) (bool, error) {
	return OrdinarySetPrototypeOf(b.obj, proto), nil
}

func (b *OrdinaryObject) IsExtensible(a *Agent) (bool, error) {
	return b.extensible, nil
}

func (b *OrdinaryObject) PreventExtensions(a *Agent) (bool, error) {
	b.extensible = false
	return true, nil
}

func (b *OrdinaryObject) GetOwnProperty(a *Agent, key PropertyKey) (*PropertyDescriptor, error) {
	return OrdinaryGetOwnProperty(b.obj, key), nil
}

func (b *OrdinaryObject) DefineOwnProperty(a *Agent, key PropertyKey, desc PropertyDescriptor) (bool, error) {
	return OrdinaryDefineOwnProperty(a, b.obj, key, desc)
}

func (b *OrdinaryObject) HasProperty(a *Agent, key PropertyKey) (bool, error) {
	return OrdinaryHasProperty(a, b.obj, key)
}

func (b *OrdinaryObject) Get(a *Agent, key PropertyKey, receiver Value) (Value, error) {
	return OrdinaryGet(a, b.obj, key, receiver)
}

func (b *OrdinaryObject) Set(a *Agent, key PropertyKey, v Value, receiver Value) (bool, error) {
	return OrdinarySet(a, b.obj, key, v, receiver)
}

func (b *OrdinaryObject) Delete(a *Agent, key PropertyKey) (bool, error) {
	return OrdinaryDelete(a, b.obj, key)
}

func (b *OrdinaryObject) OwnPropertyKeys(a *Agent) ([]PropertyKey, error) {
	return b.props.ordered(), nil
}
