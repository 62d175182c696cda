package vm

// The Ordinary* algorithms take the *Object handle rather than the
// OrdinaryObject storage so that nested internal method calls dispatch to
// exotic overrides.

// OrdinarySetPrototypeOf changes the stored prototype unless that would
// create a cycle or the object is non-extensible.
func OrdinarySetPrototypeOf(o *Object, proto *Object) bool {
	b := o.ordinary()
	if proto == b.prototype {
		return true
	}
	if !b.extensible {
		return false
	}
	for p := proto; p != nil; {
		if p == o {
			return false
		}
		// A proxy's [[GetPrototypeOf]] is not ordinary; stop walking there.
		if _, isProxy := p.impl.(*ProxyObject); isProxy {
			break
		}
		p = p.ordinary().prototype
	}
	b.prototype = proto
	return true
}

// OrdinaryGetOwnProperty returns a snapshot of the stored property.
func OrdinaryGetOwnProperty(o *Object, key PropertyKey) *PropertyDescriptor {
	p := o.ordinary().props.get(key)
	if p == nil {
		return nil
	}
	return p.descriptor()
}

func OrdinaryDefineOwnProperty(a *Agent, o *Object, key PropertyKey, desc PropertyDescriptor) (bool, error) {
	current, err := o.impl.GetOwnProperty(a, key)
	if err != nil {
		return false, err
	}
	extensible, err := o.impl.IsExtensible(a)
	if err != nil {
		return false, err
	}
	return ValidateAndApplyPropertyDescriptor(o, key, extensible, desc, current), nil
}

func OrdinaryHasProperty(a *Agent, o *Object, key PropertyKey) (bool, error) {
	own, err := o.impl.GetOwnProperty(a, key)
	if err != nil {
		return false, err
	}
	if own != nil {
		return true, nil
	}
	parent, err := o.impl.GetPrototypeOf(a)
	if err != nil || parent == nil {
		return false, err
	}
	return parent.impl.HasProperty(a, key)
}

func OrdinaryGet(a *Agent, o *Object, key PropertyKey, receiver Value) (Value, error) {
	desc, err := o.impl.GetOwnProperty(a, key)
	if err != nil {
		return Undefined, err
	}
	if desc == nil {
		parent, err := o.impl.GetPrototypeOf(a)
		if err != nil || parent == nil {
			return Undefined, err
		}
		return parent.impl.Get(a, key, receiver)
	}
	if desc.IsDataDescriptor() {
		return desc.Value, nil
	}
	if desc.Get.IsUndefined() {
		return Undefined, nil
	}
	return Call(a, desc.Get, receiver, nil)
}

func OrdinarySet(a *Agent, o *Object, key PropertyKey, v Value, receiver Value) (bool, error) {
	own, err := o.impl.GetOwnProperty(a, key)
	if err != nil {
		return false, err
	}
	return OrdinarySetWithOwnDescriptor(a, o, key, v, receiver, own)
}

// OrdinarySetWithOwnDescriptor walks the prototype chain until a property
// is found and, for data properties, writes to the receiver.
func OrdinarySetWithOwnDescriptor(a *Agent, o *Object, key PropertyKey, v Value, receiver Value, own *PropertyDescriptor) (bool, error) {
	if own == nil {
		parent, err := o.impl.GetPrototypeOf(a)
		if err != nil {
			return false, err
		}
		if parent != nil {
			return parent.impl.Set(a, key, v, receiver)
		}
		d := DataDescriptor(Undefined, true, true, true)
		own = &d
	}
	if own.IsDataDescriptor() {
		if !own.Writable {
			return false, nil
		}
		if !receiver.IsObject() {
			return false, nil
		}
		recv := receiver.obj
		existing, err := recv.impl.GetOwnProperty(a, key)
		if err != nil {
			return false, err
		}
		if existing != nil {
			if existing.IsAccessorDescriptor() || !existing.Writable {
				return false, nil
			}
			return recv.impl.DefineOwnProperty(a, key, PropertyDescriptor{}.WithValue(v))
		}
		return CreateDataProperty(a, recv, key, v)
	}
	if own.Set.IsUndefined() {
		return false, nil
	}
	if _, err := Call(a, own.Set, receiver, []Value{v}); err != nil {
		return false, err
	}
	return true, nil
}

func OrdinaryDelete(a *Agent, o *Object, key PropertyKey) (bool, error) {
	desc, err := o.impl.GetOwnProperty(a, key)
	if err != nil {
		return false, err
	}
	if desc == nil {
		return true, nil
	}
	if desc.Configurable {
		o.ordinary().props.remove(key)
		return true, nil
	}
	return false, nil
}
