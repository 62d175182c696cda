package vm

// ProxyObject forwards every internal method to a handler trap, falling
// back to the target, and enforces the invariants that keep traps from
// misreporting non-configurable or non-extensible state.
type ProxyObject struct {
	OrdinaryObject

	target  *Object
	handler *Object

	callable    bool
	constructor bool
}

// ProxyCreate implements the Proxy constructor's allocation.
func ProxyCreate(a *Agent, target, handler Value) (*Object, error) {
	if !target.IsObject() {
		return nil, a.NewTypeError("Cannot create proxy with a non-object as target or handler")
	}
	if !handler.IsObject() {
		return nil, a.NewTypeError("Cannot create proxy with a non-object as target or handler")
	}
	obj := &Object{}
	p := &ProxyObject{
		target:      target.obj,
		handler:     handler.obj,
		callable:    IsCallable(target),
		constructor: IsConstructor(target),
	}
	p.init(obj, nil, "Object")
	obj.impl = p
	return obj, nil
}

// Revoke detaches the proxy; every later operation throws.
func (p *ProxyObject) Revoke() {
	p.target = nil
	p.handler = nil
}

func (p *ProxyObject) Target() *Object  { return p.target }
func (p *ProxyObject) Handler() *Object { return p.handler }

func (p *ProxyObject) trap(a *Agent, name string) (Value, error) {
	if p.handler == nil {
		return Undefined, a.NewTypeError("Cannot perform '%s' on a proxy that has been revoked", name)
	}
	return GetMethod(a, ObjectValue(p.handler), StringKey(name))
}

func (p *ProxyObject) GetPrototypeOf(a *Agent) (*Object, error) {
	trap, err := p.trap(a, "getPrototypeOf")
	if err != nil {
		return nil, err
	}
	target := p.target
	if trap.IsUndefined() {
		return target.impl.GetPrototypeOf(a)
	}
	handlerProto, err := Call(a, trap, ObjectValue(p.handler), []Value{ObjectValue(target)})
	if err != nil {
		return nil, err
	}
	if !handlerProto.IsObject() && !handlerProto.IsNull() {
		return nil, a.NewTypeError("'getPrototypeOf' on proxy: trap returned neither object nor null")
	}
	extensible, err := target.impl.IsExtensible(a)
	if err != nil || extensible {
		return handlerProto.obj, err
	}
	targetProto, err := target.impl.GetPrototypeOf(a)
	if err != nil {
		return nil, err
	}
	if handlerProto.obj != targetProto {
		return nil, a.NewTypeError("'getPrototypeOf' on proxy: proxy target is non-extensible but the trap did not return its actual prototype")
	}
	return handlerProto.obj, nil
}

func (p *ProxyObject) SetPrototypeOf(a *Agent, proto *Object) (bool, error) {
	trap, err := p.trap(a, "setPrototypeOf")
	if err != nil {
		return false, err
	}
	target := p.target
	if trap.IsUndefined() {
		return target.impl.SetPrototypeOf(a, proto)
	}
	result, err := Call(a, trap, ObjectValue(p.handler), []Value{ObjectValue(target), ObjectValue(proto)})
	if err != nil || !ToBoolean(result) {
		return false, err
	}
	extensible, err := target.impl.IsExtensible(a)
	if err != nil || extensible {
		return err == nil, err
	}
	targetProto, err := target.impl.GetPrototypeOf(a)
	if err != nil {
		return false, err
	}
	if proto != targetProto {
		return false, a.NewTypeError("'setPrototypeOf' on proxy: trap returned truish for setting a new prototype on the non-extensible proxy target")
	}
	return true, nil
}

func (p *ProxyObject) IsExtensible(a *Agent) (bool, error) {
	trap, err := p.trap(a, "isExtensible")
	if err != nil {
		return false, err
	}
	target := p.target
	if trap.IsUndefined() {
		return target.impl.IsExtensible(a)
	}
	result, err := Call(a, trap, ObjectValue(p.handler), []Value{ObjectValue(target)})
	if err != nil {
		return false, err
	}
	targetResult, err := target.impl.IsExtensible(a)
	if err != nil {
		return false, err
	}
	if ToBoolean(result) != targetResult {
		return false, a.NewTypeError("'isExtensible' on proxy: trap result does not reflect extensibility of proxy target (which is '%v')", targetResult)
	}
	return targetResult, nil
}

func (p *ProxyObject) PreventExtensions(a *Agent) (bool, error) {
	trap, err := p.trap(a, "preventExtensions")
	if err != nil {
		return false, err
	}
	target := p.target
	if trap.IsUndefined() {
		return target.impl.PreventExtensions(a)
	}
	result, err := Call(a, trap, ObjectValue(p.handler), []Value{ObjectValue(target)})
	if err != nil {
		return false, err
	}
	if ToBoolean(result) {
		extensible, err := target.impl.IsExtensible(a)
		if err != nil {
			return false, err
		}
		if extensible {
			return false, a.NewTypeError("'preventExtensions' on proxy: trap returned truish but the proxy target is extensible")
		}
	}
	return ToBoolean(result), nil
}

func (p *ProxyObject) GetOwnProperty(a *Agent, key PropertyKey) (*PropertyDescriptor, error) {
	trap, err := p.trap(a, "getOwnPropertyDescriptor")
	if err != nil {
		return nil, err
	}
	target := p.target
	if trap.IsUndefined() {
		return target.impl.GetOwnProperty(a, key)
	}
	trapResult, err := Call(a, trap, ObjectValue(p.handler), []Value{ObjectValue(target), key.Value()})
	if err != nil {
		return nil, err
	}
	if !trapResult.IsObject() && !trapResult.IsUndefined() {
		return nil, a.NewTypeError("'getOwnPropertyDescriptor' on proxy: trap returned neither object nor undefined for property '%s'", key)
	}
	targetDesc, err := target.impl.GetOwnProperty(a, key)
	if err != nil {
		return nil, err
	}
	if trapResult.IsUndefined() {
		if targetDesc == nil {
			return nil, nil
		}
		if !targetDesc.Configurable {
			return nil, a.NewTypeError("'getOwnPropertyDescriptor' on proxy: trap returned undefined for property '%s' which is non-configurable in the proxy target", key)
		}
		extensible, err := target.impl.IsExtensible(a)
		if err != nil {
			return nil, err
		}
		if !extensible {
			return nil, a.NewTypeError("'getOwnPropertyDescriptor' on proxy: trap returned undefined for property '%s' which exists in the non-extensible proxy target", key)
		}
		return nil, nil
	}
	extensible, err := target.impl.IsExtensible(a)
	if err != nil {
		return nil, err
	}
	resultDesc, err := ToPropertyDescriptor(a, trapResult)
	if err != nil {
		return nil, err
	}
	resultDesc = CompletePropertyDescriptor(resultDesc)
	if !IsCompatiblePropertyDescriptor(extensible, resultDesc, targetDesc) {
		return nil, a.NewTypeError("'getOwnPropertyDescriptor' on proxy: trap returned descriptor for property '%s' that is incompatible with the existing property in the proxy target", key)
	}
	if !resultDesc.Configurable {
		if targetDesc == nil || targetDesc.Configurable {
			return nil, a.NewTypeError("'getOwnPropertyDescriptor' on proxy: trap reported non-configurability for property '%s' which is either non-existent or configurable in the proxy target", key)
		}
		if resultDesc.Has(FieldWritable) && !resultDesc.Writable && targetDesc.Writable {
			return nil, a.NewTypeError("'getOwnPropertyDescriptor' on proxy: trap reported non-configurable and writable for property '%s' which is non-configurable, non-writable in the proxy target", key)
		}
	}
	return &resultDesc, nil
}

func (p *ProxyObject) DefineOwnProperty(a *Agent, key PropertyKey, desc PropertyDescriptor) (bool, error) {
	trap, err := p.trap(a, "defineProperty")
	if err != nil {
		return false, err
	}
	target := p.target
	if trap.IsUndefined() {
		return target.impl.DefineOwnProperty(a, key, desc)
	}
	descObj := FromPropertyDescriptor(a, &desc)
	result, err := Call(a, trap, ObjectValue(p.handler), []Value{ObjectValue(target), key.Value(), descObj})
	if err != nil || !ToBoolean(result) {
		return false, err
	}
	targetDesc, err := target.impl.GetOwnProperty(a, key)
	if err != nil {
		return false, err
	}
	extensible, err := target.impl.IsExtensible(a)
	if err != nil {
		return false, err
	}
	settingConfigFalse := desc.Has(FieldConfigurable) && !desc.Configurable
	if targetDesc == nil {
		if !extensible {
			return false, a.NewTypeError("'defineProperty' on proxy: trap returned truish for adding property '%s'  to the non-extensible proxy target", key)
		}
		if settingConfigFalse {
			return false, a.NewTypeError("'defineProperty' on proxy: trap returned truish for defining non-configurable property '%s' which is either non-existent or configurable in the proxy target", key)
		}
		return true, nil
	}
	if !IsCompatiblePropertyDescriptor(extensible, desc, targetDesc) {
		return false, a.NewTypeError("'defineProperty' on proxy: trap returned truish for adding property '%s'  that is incompatible with the existing property in the proxy target", key)
	}
	if settingConfigFalse && targetDesc.Configurable {
		return false, a.NewTypeError("'defineProperty' on proxy: trap returned truish for defining non-configurable property '%s' which is either non-existent or configurable in the proxy target", key)
	}
	if targetDesc.IsDataDescriptor() && !targetDesc.Configurable && targetDesc.Writable &&
		desc.Has(FieldWritable) && !desc.Writable {
		return false, a.NewTypeError("'defineProperty' on proxy: trap returned truish for defining non-configurable property '%s' which cannot be non-writable, unless there exists a corresponding non-configurable, non-writable own property of the target object", key)
	}
	return true, nil
}

func (p *ProxyObject) HasProperty(a *Agent, key PropertyKey) (bool, error) {
	trap, err := p.trap(a, "has")
	if err != nil {
		return false, err
	}
	target := p.target
	if trap.IsUndefined() {
		return target.impl.HasProperty(a, key)
	}
	result, err := Call(a, trap, ObjectValue(p.handler), []Value{ObjectValue(target), key.Value()})
	if err != nil {
		return false, err
	}
	if !ToBoolean(result) {
		targetDesc, err := target.impl.GetOwnProperty(a, key)
		if err != nil {
			return false, err
		}
		if targetDesc != nil {
			if !targetDesc.Configurable {
				return false, a.NewTypeError("'has' on proxy: trap returned falsish for property '%s' which exists in the proxy target as non-configurable", key)
			}
			extensible, err := target.impl.IsExtensible(a)
			if err != nil {
				return false, err
			}
			if !extensible {
				return false, a.NewTypeError("'has' on proxy: trap returned falsish for property '%s' but the proxy target is not extensible", key)
			}
		}
	}
	return ToBoolean(result), nil
}

func (p *ProxyObject) Get(a *Agent, key PropertyKey, receiver Value) (Value, error) {
	trap, err := p.trap(a, "get")
	if err != nil {
		return Undefined, err
	}
	target := p.target
	if trap.IsUndefined() {
		return target.impl.Get(a, key, receiver)
	}
	result, err := Call(a, trap, ObjectValue(p.handler), []Value{ObjectValue(target), key.Value(), receiver})
	if err != nil {
		return Undefined, err
	}
	targetDesc, err := target.impl.GetOwnProperty(a, key)
	if err != nil {
		return Undefined, err
	}
	if targetDesc != nil && !targetDesc.Configurable {
		if targetDesc.IsDataDescriptor() && !targetDesc.Writable && !SameValue(result, targetDesc.Value) {
			return Undefined, a.NewTypeError("'get' on proxy: property '%s' is a read-only and non-configurable data property on the proxy target but the proxy did not return its actual value", key)
		}
		if targetDesc.IsAccessorDescriptor() && targetDesc.Get.IsUndefined() && !result.IsUndefined() {
			return Undefined, a.NewTypeError("'get' on proxy: property '%s' is a non-configurable accessor property on the proxy target and does not have a getter function, but the trap did not return 'undefined'", key)
		}
	}
	return result, nil
}

func (p *ProxyObject) Set(a *Agent, key PropertyKey, v Value, receiver Value) (bool, error) {
	trap, err := p.trap(a, "set")
	if err != nil {
		return false, err
	}
	target := p.target
	if trap.IsUndefined() {
		return target.impl.Set(a, key, v, receiver)
	}
	result, err := Call(a, trap, ObjectValue(p.handler), []Value{ObjectValue(target), key.Value(), v, receiver})
	if err != nil || !ToBoolean(result) {
		return false, err
	}
	targetDesc, err := target.impl.GetOwnProperty(a, key)
	if err != nil {
		return false, err
	}
	if targetDesc != nil && !targetDesc.Configurable {
		if targetDesc.IsDataDescriptor() && !targetDesc.Writable && !SameValue(v, targetDesc.Value) {
			return false, a.NewTypeError("'set' on proxy: trap returned truish for property '%s' which exists in the proxy target as a non-configurable and non-writable data property with a different value", key)
		}
		if targetDesc.IsAccessorDescriptor() && targetDesc.Set.IsUndefined() {
			return false, a.NewTypeError("'set' on proxy: trap returned truish for property '%s' which exists in the proxy target as a non-configurable and non-writable accessor property without a setter", key)
		}
	}
	return true, nil
}

func (p *ProxyObject) Delete(a *Agent, key PropertyKey) (bool, error) {
	trap, err := p.trap(a, "deleteProperty")
	if err != nil {
		return false, err
	}
	target := p.target
	if trap.IsUndefined() {
		return target.impl.Delete(a, key)
	}
	result, err := Call(a, trap, ObjectValue(p.handler), []Value{ObjectValue(target), key.Value()})
	if err != nil || !ToBoolean(result) {
		return false, err
	}
	targetDesc, err := target.impl.GetOwnProperty(a, key)
	if err != nil || targetDesc == nil {
		return err == nil, err
	}
	if !targetDesc.Configurable {
		return false, a.NewTypeError("'deleteProperty' on proxy: trap returned truish for property '%s' which is non-configurable in the proxy target", key)
	}
	extensible, err := target.impl.IsExtensible(a)
	if err != nil {
		return false, err
	}
	if !extensible {
		return false, a.NewTypeError("'deleteProperty' on proxy: trap returned truish for property '%s' but the proxy target is non-extensible", key)
	}
	return true, nil
}

func (p *ProxyObject) OwnPropertyKeys(a *Agent) ([]PropertyKey, error) {
	trap, err := p.trap(a, "ownKeys")
	if err != nil {
		return nil, err
	}
	target := p.target
	if trap.IsUndefined() {
		return target.impl.OwnPropertyKeys(a)
	}
	trapResultArray, err := Call(a, trap, ObjectValue(p.handler), []Value{ObjectValue(target)})
	if err != nil {
		return nil, err
	}
	elements, err := CreateListFromArrayLike(a, trapResultArray)
	if err != nil {
		return nil, err
	}
	trapResult := make([]PropertyKey, 0, len(elements))
	seen := make(map[PropertyKey]bool, len(elements))
	for _, el := range elements {
		var k PropertyKey
		switch {
		case el.IsString():
			k = StringKey(el.str)
		case el.IsSymbol():
			k = SymbolKey(el.sym)
		default:
			return nil, a.NewTypeError("%s is not a valid property name", el.Inspect())
		}
		if seen[k] {
			return nil, a.NewTypeError("'ownKeys' on proxy: trap returned duplicate entries")
		}
		seen[k] = true
		trapResult = append(trapResult, k)
	}

	extensible, err := target.impl.IsExtensible(a)
	if err != nil {
		return nil, err
	}
	targetKeys, err := target.impl.OwnPropertyKeys(a)
	if err != nil {
		return nil, err
	}
	var configurableKeys, nonconfigurableKeys []PropertyKey
	for _, k := range targetKeys {
		desc, err := target.impl.GetOwnProperty(a, k)
		if err != nil {
			return nil, err
		}
		if desc != nil && !desc.Configurable {
			nonconfigurableKeys = append(nonconfigurableKeys, k)
		} else {
			configurableKeys = append(configurableKeys, k)
		}
	}
	if extensible && len(nonconfigurableKeys) == 0 {
		return trapResult, nil
	}
	unchecked := make(map[PropertyKey]bool, len(trapResult))
	for _, k := range trapResult {
		unchecked[k] = true
	}
	for _, k := range nonconfigurableKeys {
		if !unchecked[k] {
			return nil, a.NewTypeError("'ownKeys' on proxy: trap result did not include '%s'", k)
		}
		delete(unchecked, k)
	}
	if extensible {
		return trapResult, nil
	}
	for _, k := range configurableKeys {
		if !unchecked[k] {
			return nil, a.NewTypeError("'ownKeys' on proxy: trap result did not include '%s'", k)
		}
		delete(unchecked, k)
	}
	if len(unchecked) > 0 {
		return nil, a.NewTypeError("'ownKeys' on proxy: trap returned extra keys but proxy target is non-extensible")
	}
	return trapResult, nil
}

func (p *ProxyObject) Call(a *Agent, this Value, args []Value) (Value, error) {
	trap, err := p.trap(a, "apply")
	if err != nil {
		return Undefined, err
	}
	target := p.target
	if trap.IsUndefined() {
		return Call(a, ObjectValue(target), this, args)
	}
	argArray := CreateArrayFromList(a, args)
	return Call(a, trap, ObjectValue(p.handler), []Value{ObjectValue(target), this, ObjectValue(argArray)})
}

func (p *ProxyObject) Construct(a *Agent, args []Value, newTarget *Object) (Value, error) {
	trap, err := p.trap(a, "construct")
	if err != nil {
		return Undefined, err
	}
	target := p.target
	if trap.IsUndefined() {
		return Construct(a, target, args, newTarget)
	}
	argArray := CreateArrayFromList(a, args)
	newObj, err := Call(a, trap, ObjectValue(p.handler), []Value{ObjectValue(target), ObjectValue(argArray), ObjectValue(newTarget)})
	if err != nil {
		return Undefined, err
	}
	if !newObj.IsObject() {
		return Undefined, a.NewTypeError("proxy [[Construct]] must return an object")
	}
	return newObj, nil
}

func (p *ProxyObject) IsConstructor() bool { return p.constructor }
