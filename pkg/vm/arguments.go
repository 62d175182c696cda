package vm

// ArgumentsObject is a mapped arguments object: while an index stays
// mapped, reads and writes go to the matching parameter binding.
type ArgumentsObject struct {
	OrdinaryObject

	env    Environment
	mapped map[PropertyKey]string
}

// CreateUnmappedArgumentsObject is used for strict functions and
// functions with non-simple parameter lists.
func CreateUnmappedArgumentsObject(a *Agent, args []Value) *Object {
	realm := a.CurrentRealm()
	obj := OrdinaryObjectCreate(realm.Intrinsic("%Object.prototype%"))
	obj.SetClass("Arguments")
	obj.DefineDataProperty(lengthKey, IntValue(len(args)), true, false, true)
	for i, v := range args {
		obj.DefineDataProperty(IndexKey(uint32(i)), v, true, true, true)
	}
	if values := realm.Intrinsic("%Array.prototype.values%"); values != nil {
		obj.DefineDataProperty(SymbolKey(SymIterator), ObjectValue(values), true, false, true)
	}
	thrower := ObjectValue(realm.Intrinsic("%ThrowTypeError%"))
	obj.DefineAccessorProperty(StringKey("callee"), thrower, thrower, false, false)
	return obj
}

// CreateMappedArgumentsObject maps each index below len(args) to the last
// formal parameter of that position's name.
func CreateMappedArgumentsObject(a *Agent, fn *Object, formals []string, args []Value, env Environment) *Object {
	realm := a.CurrentRealm()
	obj := &Object{}
	ao := &ArgumentsObject{env: env, mapped: make(map[PropertyKey]string)}
	ao.init(obj, realm.Intrinsic("%Object.prototype%"), "Arguments")
	obj.impl = ao
	for i, v := range args {
		obj.DefineDataProperty(IndexKey(uint32(i)), v, true, true, true)
	}
	obj.DefineDataProperty(lengthKey, IntValue(len(args)), true, false, true)
	seen := make(map[string]bool)
	for i := len(formals) - 1; i >= 0; i-- {
		name := formals[i]
		if seen[name] {
			continue
		}
		seen[name] = true
		if i < len(args) {
			ao.mapped[IndexKey(uint32(i))] = name
		}
	}
	if values := realm.Intrinsic("%Array.prototype.values%"); values != nil {
		obj.DefineDataProperty(SymbolKey(SymIterator), ObjectValue(values), true, false, true)
	}
	obj.DefineDataProperty(StringKey("callee"), ObjectValue(fn), true, false, true)
	return obj
}

func (ao *ArgumentsObject) mappedValue(a *Agent, key PropertyKey) (Value, bool, error) {
	name, ok := ao.mapped[key]
	if !ok {
		return Undefined, false, nil
	}
	v, err := ao.env.GetBindingValue(a, name, false)
	return v, true, err
}

func (ao *ArgumentsObject) GetOwnProperty(a *Agent, key PropertyKey) (*PropertyDescriptor, error) {
	desc := OrdinaryGetOwnProperty(ao.obj, key)
	if desc == nil {
		return nil, nil
	}
	v, isMapped, err := ao.mappedValue(a, key)
	if err != nil {
		return nil, err
	}
	if isMapped {
		desc.Value = v
	}
	return desc, nil
}

func (ao *ArgumentsObject) DefineOwnProperty(a *Agent, key PropertyKey, desc PropertyDescriptor) (bool, error) {
	name, isMapped := ao.mapped[key]
	newArgDesc := desc
	if isMapped && desc.IsDataDescriptor() && !desc.Has(FieldValue) && desc.Has(FieldWritable) && !desc.Writable {
		v, err := ao.env.GetBindingValue(a, name, false)
		if err != nil {
			return false, err
		}
		newArgDesc = desc.WithValue(v)
	}
	allowed, err := OrdinaryDefineOwnProperty(a, ao.obj, key, newArgDesc)
	if err != nil || !allowed {
		return false, err
	}
	if isMapped {
		if desc.IsAccessorDescriptor() {
			delete(ao.mapped, key)
		} else {
			if desc.Has(FieldValue) {
				if err := ao.env.SetMutableBinding(a, name, desc.Value, false); err != nil {
					return false, err
				}
			}
			if desc.Has(FieldWritable) && !desc.Writable {
				delete(ao.mapped, key)
			}
		}
	}
	return true, nil
}

func (ao *ArgumentsObject) Get(a *Agent, key PropertyKey, receiver Value) (Value, error) {
	v, isMapped, err := ao.mappedValue(a, key)
	if err != nil || isMapped {
		return v, err
	}
	return OrdinaryGet(a, ao.obj, key, receiver)
}

func (ao *ArgumentsObject) Set(a *Agent, key PropertyKey, v Value, receiver Value) (bool, error) {
	if receiver.IsObject() && receiver.obj == ao.obj {
		if name, isMapped := ao.mapped[key]; isMapped {
			if err := ao.env.SetMutableBinding(a, name, v, false); err != nil {
				return false, err
			}
		}
	}
	return OrdinarySet(a, ao.obj, key, v, receiver)
}

func (ao *ArgumentsObject) Delete(a *Agent, key PropertyKey) (bool, error) {
	result, err := OrdinaryDelete(a, ao.obj, key)
	if err != nil {
		return false, err
	}
	if result {
		delete(ao.mapped, key)
	}
	return result, nil
}
