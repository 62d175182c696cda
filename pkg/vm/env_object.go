package vm

// ObjectEnvironment binds identifiers to the properties of a binding
// object. With statements create one with isWith set.
type ObjectEnvironment struct {
	outer         Environment
	bindingObject *Object
	isWith        bool
}

func NewObjectEnvironment(o *Object, isWith bool, outer Environment) *ObjectEnvironment {
	return &ObjectEnvironment{outer: outer, bindingObject: o, isWith: isWith}
}

func (e *ObjectEnvironment) Outer() Environment { return e.outer }

func (e *ObjectEnvironment) BindingObject() *Object { return e.bindingObject }

func (e *ObjectEnvironment) IsWithEnvironment() bool { return e.isWith }

// HasBinding consults @@unscopables only for with environments, and only
// here: creation and assignment are not filtered.
func (e *ObjectEnvironment) HasBinding(a *Agent, name string) (bool, error) {
	key := StringKey(name)
	found, err := e.bindingObject.impl.HasProperty(a, key)
	if err != nil || !found {
		return false, err
	}
	if !e.isWith {
		return true, nil
	}
	unscopables, err := e.bindingObject.impl.Get(a, SymbolKey(SymUnscopables), ObjectValue(e.bindingObject))
	if err != nil {
		return false, err
	}
	if unscopables.IsObject() {
		blocked, err := unscopables.obj.impl.Get(a, key, unscopables)
		if err != nil {
			return false, err
		}
		if ToBoolean(blocked) {
			return false, nil
		}
	}
	return true, nil
}

func (e *ObjectEnvironment) CreateMutableBinding(a *Agent, name string, deletable bool) error {
	return DefinePropertyOrThrow(a, e.bindingObject, StringKey(name), DataDescriptor(Undefined, true, true, deletable))
}

// CreateImmutableBinding is never used for object environments.
func (e *ObjectEnvironment) CreateImmutableBinding(a *Agent, name string, strict bool) error {
	return a.NewTypeError("Cannot create immutable binding '%s' in an object environment", name)
}

func (e *ObjectEnvironment) InitializeBinding(a *Agent, name string, v Value) error {
	return e.SetMutableBinding(a, name, v, false)
}

func (e *ObjectEnvironment) SetMutableBinding(a *Agent, name string, v Value, strict bool) error {
	key := StringKey(name)
	stillExists, err := e.bindingObject.impl.HasProperty(a, key)
	if err != nil {
		return err
	}
	if !stillExists && strict {
		return a.NewReferenceError("%s is not defined", name)
	}
	return Set(a, e.bindingObject, key, v, strict)
}

func (e *ObjectEnvironment) GetBindingValue(a *Agent, name string, strict bool) (Value, error) {
	key := StringKey(name)
	value, err := e.bindingObject.impl.HasProperty(a, key)
	if err != nil {
		return Undefined, err
	}
	if !value {
		if !strict {
			return Undefined, nil
		}
		return Undefined, a.NewReferenceError("%s is not defined", name)
	}
	return Get(a, e.bindingObject, key)
}

func (e *ObjectEnvironment) DeleteBinding(a *Agent, name string) (bool, error) {
	return e.bindingObject.impl.Delete(a, StringKey(name))
}

func (e *ObjectEnvironment) HasThisBinding() bool  { return false }
func (e *ObjectEnvironment) HasSuperBinding() bool { return false }

func (e *ObjectEnvironment) WithBaseObject() Value {
	if e.isWith {
		return ObjectValue(e.bindingObject)
	}
	return Undefined
}
