package vm

// Direct storage helpers for realm setup and builtin installation. They
// bypass internal method dispatch and must only be used on objects whose
// kind stores the key ordinarily.

// DefineDataProperty stores a data property, replacing any existing one.
func (o *Object) DefineDataProperty(key PropertyKey, v Value, writable, enumerable, configurable bool) {
	o.ordinary().props.set(key, &property{
		value:        v,
		writable:     writable,
		enumerable:   enumerable,
		configurable: configurable,
	})
	if arr, ok := o.impl.(*ArrayObject); ok {
		if idx, isIndex := key.ArrayIndex(); isIndex && idx >= arr.length {
			arr.length = idx + 1
		}
	}
}

// DefineAccessorProperty stores an accessor property, replacing any existing one.
func (o *Object) DefineAccessorProperty(key PropertyKey, get, set Value, enumerable, configurable bool) {
	o.ordinary().props.set(key, &property{
		getter:       get,
		setter:       set,
		enumerable:   enumerable,
		configurable: configurable,
		accessor:     true,
	})
}

// SetMethod stores v the way builtin methods are installed: writable,
// non-enumerable, configurable.
func (o *Object) SetMethod(name string, v Value) {
	o.DefineDataProperty(StringKey(name), v, true, false, true)
}

// OwnDataValue returns a stored own data property's value.
func (o *Object) OwnDataValue(key PropertyKey) (Value, bool) {
	p := o.ordinary().props.get(key)
	if p == nil || p.accessor {
		return Undefined, false
	}
	return p.value, true
}

// HasOwnStored reports whether the key is physically stored on o.
func (o *Object) HasOwnStored(key PropertyKey) bool {
	return o.ordinary().props.get(key) != nil
}

// Extensible returns the stored [[Extensible]] flag.
func (o *Object) Extensible() bool { return o.ordinary().extensible }

// StoredKeys returns the stored own keys in property order.
func (o *Object) StoredKeys() []PropertyKey { return o.ordinary().props.ordered() }
