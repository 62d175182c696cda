package vm

// DescriptorField identifies one field of a property descriptor. A
// descriptor carries the set of fields that were explicitly specified, so
// "absent" and "present but false/undefined" stay distinguishable.
type DescriptorField uint8

const (
	FieldValue DescriptorField = 1 << iota
	FieldWritable
	FieldGet
	FieldSet
	FieldEnumerable
	FieldConfigurable

	dataFields     = FieldValue | FieldWritable
	accessorFields = FieldGet | FieldSet
)

// PropertyDescriptor is an ECMAScript Property Descriptor. Get and
// Set hold undefined or a callable object.
type PropertyDescriptor struct {
	Value        Value
	Get          Value
	Set          Value
	Writable     bool
	Enumerable   bool
	Configurable bool

	Fields DescriptorField
}

// DataDescriptor returns a fully populated data descriptor.
func DataDescriptor(v Value, writable, enumerable, configurable bool) PropertyDescriptor {
	return PropertyDescriptor{
		Value:        v,
		Writable:     writable,
		Enumerable:   enumerable,
		Configurable: configurable,
		Fields:       FieldValue | FieldWritable | FieldEnumerable | FieldConfigurable,
	}
}

// AccessorDescriptor returns a fully populated accessor descriptor.
func AccessorDescriptor(get, set Value, enumerable, configurable bool) PropertyDescriptor {
	return PropertyDescriptor{
		Get:          get,
		Set:          set,
		Enumerable:   enumerable,
		Configurable: configurable,
		Fields:       FieldGet | FieldSet | FieldEnumerable | FieldConfigurable,
	}
}

func (d PropertyDescriptor) Has(f DescriptorField) bool { return d.Fields&f == f }

// IsEmpty reports whether no field is specified.
func (d PropertyDescriptor) IsEmpty() bool { return d.Fields == 0 }

func (d PropertyDescriptor) IsDataDescriptor() bool     { return d.Fields&dataFields != 0 }
func (d PropertyDescriptor) IsAccessorDescriptor() bool { return d.Fields&accessorFields != 0 }

func (d PropertyDescriptor) IsGenericDescriptor() bool {
	return !d.IsDataDescriptor() && !d.IsAccessorDescriptor()
}

// WithValue and friends return a copy with one more field specified.
func (d PropertyDescriptor) WithValue(v Value) PropertyDescriptor {
	d.Value = v
	d.Fields |= FieldValue
	return d
}

func (d PropertyDescriptor) WithWritable(b bool) PropertyDescriptor {
	d.Writable = b
	d.Fields |= FieldWritable
	return d
}

func (d PropertyDescriptor) WithGet(fn Value) PropertyDescriptor {
	d.Get = fn
	d.Fields |= FieldGet
	return d
}

func (d PropertyDescriptor) WithSet(fn Value) PropertyDescriptor {
	d.Set = fn
	d.Fields |= FieldSet
	return d
}

func (d PropertyDescriptor) WithEnumerable(b bool) PropertyDescriptor {
	d.Enumerable = b
	d.Fields |= FieldEnumerable
	return d
}

func (d PropertyDescriptor) WithConfigurable(b bool) PropertyDescriptor {
	d.Configurable = b
	d.Fields |= FieldConfigurable
	return d
}

// CompletePropertyDescriptor fills every unspecified field with its default.
func CompletePropertyDescriptor(d PropertyDescriptor) PropertyDescriptor {
	if d.IsGenericDescriptor() || d.IsDataDescriptor() {
		if !d.Has(FieldValue) {
			d.Value = Undefined
		}
		d.Fields |= FieldValue | FieldWritable
	} else {
		if !d.Has(FieldGet) {
			d.Get = Undefined
		}
		if !d.Has(FieldSet) {
			d.Set = Undefined
		}
		d.Fields |= FieldGet | FieldSet
	}
	d.Fields |= FieldEnumerable | FieldConfigurable
	return d
}

// IsCompatiblePropertyDescriptor validates desc against current without
// applying anything.
func IsCompatiblePropertyDescriptor(extensible bool, desc PropertyDescriptor, current *PropertyDescriptor) bool {
	return ValidateAndApplyPropertyDescriptor(nil, PropertyKey{}, extensible, desc, current)
}

// ValidateAndApplyPropertyDescriptor reconciles desc with the current own
// property (nil when absent). When o is nil only validation is performed.
func ValidateAndApplyPropertyDescriptor(o *Object, key PropertyKey, extensible bool, desc PropertyDescriptor, current *PropertyDescriptor) bool {
	if current == nil {
		if !extensible {
			return false
		}
		if o == nil {
			return true
		}
		p := &property{}
		if desc.IsAccessorDescriptor() {
			p.accessor = true
			p.getter, p.setter = Undefined, Undefined
			if desc.Has(FieldGet) {
				p.getter = desc.Get
			}
			if desc.Has(FieldSet) {
				p.setter = desc.Set
			}
		} else {
			p.value = Undefined
			if desc.Has(FieldValue) {
				p.value = desc.Value
			}
			p.writable = desc.Has(FieldWritable) && desc.Writable
		}
		p.enumerable = desc.Has(FieldEnumerable) && desc.Enumerable
		p.configurable = desc.Has(FieldConfigurable) && desc.Configurable
		o.ordinary().props.set(key, p)
		return true
	}

	if desc.IsEmpty() {
		return true
	}

	if !current.Configurable {
		if desc.Has(FieldConfigurable) && desc.Configurable {
			return false
		}
		if desc.Has(FieldEnumerable) && desc.Enumerable != current.Enumerable {
			return false
		}
		if !desc.IsGenericDescriptor() && desc.IsAccessorDescriptor() != current.IsAccessorDescriptor() {
			return false
		}
		if current.IsAccessorDescriptor() {
			if desc.Has(FieldGet) && !SameValue(desc.Get, current.Get) {
				return false
			}
			if desc.Has(FieldSet) && !SameValue(desc.Set, current.Set) {
				return false
			}
		} else if !current.Writable {
			if desc.Has(FieldWritable) && desc.Writable {
				return false
			}
			if desc.Has(FieldValue) && !SameValue(desc.Value, current.Value) {
				return false
			}
		}
	}

	if o == nil {
		return true
	}

	props := &o.ordinary().props
	p := props.get(key)
	if p == nil {
		// Exotic objects may report properties they do not store; those
		// are materialised on first redefinition.
		p = propertyFromDescriptor(*current)
		props.set(key, p)
	}

	switch {
	case current.IsDataDescriptor() && desc.IsAccessorDescriptor():
		p.accessor = true
		p.value = Undefined
		p.writable = false
		p.getter, p.setter = Undefined, Undefined
		if desc.Has(FieldGet) {
			p.getter = desc.Get
		}
		if desc.Has(FieldSet) {
			p.setter = desc.Set
		}
	case current.IsAccessorDescriptor() && desc.IsDataDescriptor():
		p.accessor = false
		p.getter, p.setter = Undefined, Undefined
		p.value = Undefined
		if desc.Has(FieldValue) {
			p.value = desc.Value
		}
		p.writable = desc.Has(FieldWritable) && desc.Writable
	default:
		if desc.Has(FieldValue) {
			p.value = desc.Value
		}
		if desc.Has(FieldWritable) {
			p.writable = desc.Writable
		}
		if desc.Has(FieldGet) {
			p.getter = desc.Get
		}
		if desc.Has(FieldSet) {
			p.setter = desc.Set
		}
	}
	if desc.Has(FieldEnumerable) {
		p.enumerable = desc.Enumerable
	}
	if desc.Has(FieldConfigurable) {
		p.configurable = desc.Configurable
	}
	return true
}

func propertyFromDescriptor(d PropertyDescriptor) *property {
	p := &property{enumerable: d.Enumerable, configurable: d.Configurable}
	if d.IsAccessorDescriptor() {
		p.accessor = true
		p.getter, p.setter = d.Get, d.Set
	} else {
		p.value = d.Value
		p.writable = d.Writable
	}
	return p
}
