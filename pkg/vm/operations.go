package vm

// Operations on objects. Every function here may run user code through
// accessors or proxy traps and reports thrown values as errors.

func Get(a *Agent, o *Object, key PropertyKey) (Value, error) {
	return o.impl.Get(a, key, ObjectValue(o))
}

// GetV reads a property of any value, boxing primitives for the lookup.
func GetV(a *Agent, v Value, key PropertyKey) (Value, error) {
	o, err := ToObject(a, v)
	if err != nil {
		return Undefined, err
	}
	return o.impl.Get(a, key, v)
}

// Set writes o[key]. A rejected write is a TypeError when throw is set.
func Set(a *Agent, o *Object, key PropertyKey, v Value, throw bool) error {
	ok, err := o.impl.Set(a, key, v, ObjectValue(o))
	if err != nil {
		return err
	}
	if !ok && throw {
		return a.NewTypeError("Cannot assign to read only property '%s' of object", key)
	}
	return nil
}

func CreateDataProperty(a *Agent, o *Object, key PropertyKey, v Value) (bool, error) {
	return o.impl.DefineOwnProperty(a, key, DataDescriptor(v, true, true, true))
}

func CreateDataPropertyOrThrow(a *Agent, o *Object, key PropertyKey, v Value) error {
	ok, err := CreateDataProperty(a, o, key, v)
	if err != nil {
		return err
	}
	if !ok {
		return a.NewTypeError("Cannot define property %s, object is not extensible", key)
	}
	return nil
}

// CreateMethodProperty defines a writable, non-enumerable, configurable
// data property.
func CreateMethodProperty(a *Agent, o *Object, key PropertyKey, v Value) error {
	_, err := o.impl.DefineOwnProperty(a, key, DataDescriptor(v, true, false, true))
	return err
}

func CreateNonEnumerableDataPropertyOrThrow(a *Agent, o *Object, key PropertyKey, v Value) error {
	return DefinePropertyOrThrow(a, o, key, DataDescriptor(v, true, false, true))
}

func DefinePropertyOrThrow(a *Agent, o *Object, key PropertyKey, desc PropertyDescriptor) error {
	ok, err := o.impl.DefineOwnProperty(a, key, desc)
	if err != nil {
		return err
	}
	if !ok {
		return a.NewTypeError("Cannot redefine property: %s", key)
	}
	return nil
}

func DeletePropertyOrThrow(a *Agent, o *Object, key PropertyKey) error {
	ok, err := o.impl.Delete(a, key)
	if err != nil {
		return err
	}
	if !ok {
		return a.NewTypeError("Cannot delete property '%s' of object", key)
	}
	return nil
}

// GetMethod returns v[key], or undefined when it is nullish. Non-callable
// values are a TypeError.
func GetMethod(a *Agent, v Value, key PropertyKey) (Value, error) {
	fn, err := GetV(a, v, key)
	if err != nil {
		return Undefined, err
	}
	if fn.IsNullish() {
		return Undefined, nil
	}
	if !IsCallable(fn) {
		return Undefined, a.NewTypeError("%s is not a function", fn.Inspect())
	}
	return fn, nil
}

func HasProperty(a *Agent, o *Object, key PropertyKey) (bool, error) {
	return o.impl.HasProperty(a, key)
}

func HasOwnProperty(a *Agent, o *Object, key PropertyKey) (bool, error) {
	desc, err := o.impl.GetOwnProperty(a, key)
	if err != nil {
		return false, err
	}
	return desc != nil, nil
}

func IsExtensible(a *Agent, o *Object) (bool, error) {
	return o.impl.IsExtensible(a)
}

// IsCallable reports whether v has a [[Call]] internal method.
func IsCallable(v Value) bool {
	if !v.IsObject() {
		return false
	}
	switch impl := v.obj.impl.(type) {
	case *ProxyObject:
		return impl.callable
	case Caller:
		return true
	}
	return false
}

// IsConstructor reports whether v has a [[Construct]] internal method.
func IsConstructor(v Value) bool {
	if !v.IsObject() {
		return false
	}
	c, ok := v.obj.impl.(Constructor)
	return ok && c.IsConstructor()
}

func Call(a *Agent, f Value, this Value, args []Value) (Value, error) {
	if !IsCallable(f) {
		return Undefined, a.NewTypeError("%s is not a function", f.Inspect())
	}
	return f.obj.impl.(Caller).Call(a, this, args)
}

// Construct calls f as a constructor. newTarget defaults to f.
func Construct(a *Agent, f *Object, args []Value, newTarget *Object) (Value, error) {
	if newTarget == nil {
		newTarget = f
	}
	if !IsConstructor(ObjectValue(f)) {
		return Undefined, a.NewTypeError("%s is not a constructor", ObjectValue(f).Inspect())
	}
	return f.impl.(Constructor).Construct(a, args, newTarget)
}

// Invoke calls the method v[key] with v as this.
func Invoke(a *Agent, v Value, key PropertyKey, args []Value) (Value, error) {
	fn, err := GetV(a, v, key)
	if err != nil {
		return Undefined, err
	}
	return Call(a, fn, v, args)
}

type IntegrityLevel uint8

const (
	IntegritySealed IntegrityLevel = iota
	IntegrityFrozen
)

func SetIntegrityLevel(a *Agent, o *Object, level IntegrityLevel) (bool, error) {
	ok, err := o.impl.PreventExtensions(a)
	if err != nil || !ok {
		return false, err
	}
	keys, err := o.impl.OwnPropertyKeys(a)
	if err != nil {
		return false, err
	}
	for _, k := range keys {
		desc := PropertyDescriptor{}.WithConfigurable(false)
		if level == IntegrityFrozen {
			current, err := o.impl.GetOwnProperty(a, k)
			if err != nil {
				return false, err
			}
			if current == nil {
				continue
			}
			if current.IsDataDescriptor() {
				desc = desc.WithWritable(false)
			}
		}
		if err := DefinePropertyOrThrow(a, o, k, desc); err != nil {
			return false, err
		}
	}
	return true, nil
}

func TestIntegrityLevel(a *Agent, o *Object, level IntegrityLevel) (bool, error) {
	extensible, err := o.impl.IsExtensible(a)
	if err != nil || extensible {
		return false, err
	}
	keys, err := o.impl.OwnPropertyKeys(a)
	if err != nil {
		return false, err
	}
	for _, k := range keys {
		current, err := o.impl.GetOwnProperty(a, k)
		if err != nil {
			return false, err
		}
		if current == nil {
			continue
		}
		if current.Configurable {
			return false, nil
		}
		if level == IntegrityFrozen && current.IsDataDescriptor() && current.Writable {
			return false, nil
		}
	}
	return true, nil
}

// CreateArrayFromList builds an array of the current realm.
func CreateArrayFromList(a *Agent, elements []Value) *Object {
	arr := ArrayCreate(uint32(len(elements)), a.CurrentRealm().Intrinsic("%Array.prototype%"))
	impl := arr.impl.(*ArrayObject)
	for i, v := range elements {
		impl.props.set(IndexKey(uint32(i)), &property{value: v, writable: true, enumerable: true, configurable: true})
	}
	return arr
}

func LengthOfArrayLike(a *Agent, o *Object) (int64, error) {
	v, err := Get(a, o, StringKey("length"))
	if err != nil {
		return 0, err
	}
	return ToLength(a, v)
}

func CreateListFromArrayLike(a *Agent, v Value) ([]Value, error) {
	if !v.IsObject() {
		return nil, a.NewTypeError("CreateListFromArrayLike called on non-object")
	}
	n, err := LengthOfArrayLike(a, v.obj)
	if err != nil {
		return nil, err
	}
	list := make([]Value, 0, n)
	for i := int64(0); i < n; i++ {
		el, err := Get(a, v.obj, IndexKey(uint32(i)))
		if err != nil {
			return nil, err
		}
		list = append(list, el)
	}
	return list, nil
}

// OrdinaryHasInstance walks o's prototype chain looking for c.prototype.
func OrdinaryHasInstance(a *Agent, c Value, o Value) (bool, error) {
	if !IsCallable(c) {
		return false, nil
	}
	if bound, ok := c.obj.impl.(*BoundFunction); ok {
		return InstanceofOperator(a, o, ObjectValue(bound.TargetFunction))
	}
	if !o.IsObject() {
		return false, nil
	}
	proto, err := Get(a, c.obj, StringKey("prototype"))
	if err != nil {
		return false, err
	}
	if !proto.IsObject() {
		return false, a.NewTypeError("Function has non-object prototype '%s' in instanceof check", proto.Inspect())
	}
	obj := o.obj
	for {
		obj, err = obj.impl.GetPrototypeOf(a)
		if err != nil {
			return false, err
		}
		if obj == nil {
			return false, nil
		}
		if obj == proto.obj {
			return true, nil
		}
	}
}

func InstanceofOperator(a *Agent, v Value, target Value) (bool, error) {
	if !target.IsObject() {
		return false, a.NewTypeError("Right-hand side of 'instanceof' is not an object")
	}
	instOfHandler, err := GetMethod(a, target, SymbolKey(SymHasInstance))
	if err != nil {
		return false, err
	}
	if !instOfHandler.IsUndefined() {
		result, err := Call(a, instOfHandler, target, []Value{v})
		if err != nil {
			return false, err
		}
		return ToBoolean(result), nil
	}
	if !IsCallable(target) {
		return false, a.NewTypeError("Right-hand side of 'instanceof' is not callable")
	}
	return OrdinaryHasInstance(a, target, v)
}

// SpeciesConstructor returns o.constructor[@@species], or defaultCtor.
func SpeciesConstructor(a *Agent, o *Object, defaultCtor *Object) (*Object, error) {
	c, err := Get(a, o, StringKey("constructor"))
	if err != nil {
		return nil, err
	}
	if c.IsUndefined() {
		return defaultCtor, nil
	}
	if !c.IsObject() {
		return nil, a.NewTypeError("object.constructor is not an object")
	}
	s, err := Get(a, c.obj, SymbolKey(SymSpecies))
	if err != nil {
		return nil, err
	}
	if s.IsNullish() {
		return defaultCtor, nil
	}
	if IsConstructor(s) {
		return s.obj, nil
	}
	return nil, a.NewTypeError("object.constructor[Symbol.species] is not a constructor")
}

type EnumerableKind uint8

const (
	EnumerateKeys EnumerableKind = iota
	EnumerateValues
	EnumerateEntries
)

// EnumerableOwnProperties lists the enumerable string-keyed properties.
func EnumerableOwnProperties(a *Agent, o *Object, kind EnumerableKind) ([]Value, error) {
	keys, err := o.impl.OwnPropertyKeys(a)
	if err != nil {
		return nil, err
	}
	var out []Value
	for _, k := range keys {
		if k.IsSymbol() {
			continue
		}
		desc, err := o.impl.GetOwnProperty(a, k)
		if err != nil {
			return nil, err
		}
		if desc == nil || !desc.Enumerable {
			continue
		}
		if kind == EnumerateKeys {
			out = append(out, k.Value())
			continue
		}
		v, err := Get(a, o, k)
		if err != nil {
			return nil, err
		}
		if kind == EnumerateValues {
			out = append(out, v)
		} else {
			out = append(out, ObjectValue(CreateArrayFromList(a, []Value{k.Value(), v})))
		}
	}
	return out, nil
}

// CopyDataProperties copies the enumerable own properties of source onto
// target, skipping excluded keys.
func CopyDataProperties(a *Agent, target *Object, source Value, excluded []PropertyKey) error {
	if source.IsNullish() {
		return nil
	}
	from, err := ToObject(a, source)
	if err != nil {
		return err
	}
	keys, err := from.impl.OwnPropertyKeys(a)
	if err != nil {
		return err
	}
next:
	for _, k := range keys {
		for _, ex := range excluded {
			if ex == k {
				continue next
			}
		}
		desc, err := from.impl.GetOwnProperty(a, k)
		if err != nil {
			return err
		}
		if desc == nil || !desc.Enumerable {
			continue
		}
		v, err := Get(a, from, k)
		if err != nil {
			return err
		}
		if _, err := CreateDataProperty(a, target, k, v); err != nil {
			return err
		}
	}
	return nil
}

// IsArray looks through proxies.
func IsArray(a *Agent, v Value) (bool, error) {
	if !v.IsObject() {
		return false, nil
	}
	switch impl := v.obj.impl.(type) {
	case *ArrayObject:
		return true, nil
	case *ProxyObject:
		if impl.handler == nil {
			return false, a.NewTypeError("Cannot perform 'IsArray' on a proxy that has been revoked")
		}
		return IsArray(a, ObjectValue(impl.target))
	}
	return false, nil
}

// FromPropertyDescriptor converts a descriptor into an object with the
// specified fields.
func FromPropertyDescriptor(a *Agent, desc *PropertyDescriptor) Value {
	if desc == nil {
		return Undefined
	}
	o := OrdinaryObjectCreate(a.CurrentRealm().Intrinsic("%Object.prototype%"))
	set := func(name string, v Value) {
		o.DefineDataProperty(StringKey(name), v, true, true, true)
	}
	if desc.Has(FieldValue) {
		set("value", desc.Value)
	}
	if desc.Has(FieldWritable) {
		set("writable", BooleanValue(desc.Writable))
	}
	if desc.Has(FieldGet) {
		set("get", desc.Get)
	}
	if desc.Has(FieldSet) {
		set("set", desc.Set)
	}
	if desc.Has(FieldEnumerable) {
		set("enumerable", BooleanValue(desc.Enumerable))
	}
	if desc.Has(FieldConfigurable) {
		set("configurable", BooleanValue(desc.Configurable))
	}
	return ObjectValue(o)
}

// ToPropertyDescriptor reads a descriptor object. Mixing accessor and data
// fields is a TypeError.
func ToPropertyDescriptor(a *Agent, v Value) (PropertyDescriptor, error) {
	var desc PropertyDescriptor
	if !v.IsObject() {
		return desc, a.NewTypeError("Property description must be an object: %s", v.Inspect())
	}
	o := v.obj
	field := func(name string) (Value, bool, error) {
		has, err := HasProperty(a, o, StringKey(name))
		if err != nil || !has {
			return Undefined, false, err
		}
		val, err := Get(a, o, StringKey(name))
		return val, err == nil, err
	}
	if val, ok, err := field("enumerable"); err != nil {
		return desc, err
	} else if ok {
		desc = desc.WithEnumerable(ToBoolean(val))
	}
	if val, ok, err := field("configurable"); err != nil {
		return desc, err
	} else if ok {
		desc = desc.WithConfigurable(ToBoolean(val))
	}
	if val, ok, err := field("value"); err != nil {
		return desc, err
	} else if ok {
		desc = desc.WithValue(val)
	}
	if val, ok, err := field("writable"); err != nil {
		return desc, err
	} else if ok {
		desc = desc.WithWritable(ToBoolean(val))
	}
	if val, ok, err := field("get"); err != nil {
		return desc, err
	} else if ok {
		if !val.IsUndefined() && !IsCallable(val) {
			return desc, a.NewTypeError("Getter must be a function: %s", val.Inspect())
		}
		desc = desc.WithGet(val)
	}
	if val, ok, err := field("set"); err != nil {
		return desc, err
	} else if ok {
		if !val.IsUndefined() && !IsCallable(val) {
			return desc, a.NewTypeError("Setter must be a function: %s", val.Inspect())
		}
		desc = desc.WithSet(val)
	}
	if desc.IsAccessorDescriptor() && desc.IsDataDescriptor() {
		return desc, a.NewTypeError("Invalid property descriptor. Cannot both specify accessors and a value or writable attribute")
	}
	return desc, nil
}
