package vm

// GlobalEnvironment composes an object record over the global object and a
// declarative record for lexical declarations, plus the registry of names
// introduced by var and function declarations.
type GlobalEnvironment struct {
	objectRecord      *ObjectEnvironment
	globalThis        *Object
	declarativeRecord *DeclarativeEnvironment
	varNames          []string
	varNameSet        map[string]struct{}
}

func NewGlobalEnvironment(g *Object, thisValue *Object) *GlobalEnvironment {
	return &GlobalEnvironment{
		objectRecord:      NewObjectEnvironment(g, false, nil),
		globalThis:        thisValue,
		declarativeRecord: NewDeclarativeEnvironment(nil),
		varNameSet:        make(map[string]struct{}),
	}
}

func (e *GlobalEnvironment) Outer() Environment { return nil }

func (e *GlobalEnvironment) ObjectRecord() *ObjectEnvironment { return e.objectRecord }

func (e *GlobalEnvironment) DeclarativeRecord() *DeclarativeEnvironment {
	return e.declarativeRecord
}

// VarNames returns the registered var names in registration order.
func (e *GlobalEnvironment) VarNames() []string {
	return append([]string(nil), e.varNames...)
}

func (e *GlobalEnvironment) HasBinding(a *Agent, name string) (bool, error) {
	if ok, _ := e.declarativeRecord.HasBinding(a, name); ok {
		return true, nil
	}
	return e.objectRecord.HasBinding(a, name)
}

func (e *GlobalEnvironment) CreateMutableBinding(a *Agent, name string, deletable bool) error {
	if ok, _ := e.declarativeRecord.HasBinding(a, name); ok {
		return a.NewReferenceError("Identifier '%s' has already been declared", name)
	}
	return e.declarativeRecord.CreateMutableBinding(a, name, deletable)
}

func (e *GlobalEnvironment) CreateImmutableBinding(a *Agent, name string, strict bool) error {
	if ok, _ := e.declarativeRecord.HasBinding(a, name); ok {
		return a.NewReferenceError("Identifier '%s' has already been declared", name)
	}
	return e.declarativeRecord.CreateImmutableBinding(a, name, strict)
}

func (e *GlobalEnvironment) InitializeBinding(a *Agent, name string, v Value) error {
	if ok, _ := e.declarativeRecord.HasBinding(a, name); ok {
		return e.declarativeRecord.InitializeBinding(a, name, v)
	}
	return e.objectRecord.InitializeBinding(a, name, v)
}

func (e *GlobalEnvironment) SetMutableBinding(a *Agent, name string, v Value, strict bool) error {
	if ok, _ := e.declarativeRecord.HasBinding(a, name); ok {
		return e.declarativeRecord.SetMutableBinding(a, name, v, strict)
	}
	return e.objectRecord.SetMutableBinding(a, name, v, strict)
}

func (e *GlobalEnvironment) GetBindingValue(a *Agent, name string, strict bool) (Value, error) {
	if ok, _ := e.declarativeRecord.HasBinding(a, name); ok {
		return e.declarativeRecord.GetBindingValue(a, name, strict)
	}
	return e.objectRecord.GetBindingValue(a, name, strict)
}

func (e *GlobalEnvironment) DeleteBinding(a *Agent, name string) (bool, error) {
	if ok, _ := e.declarativeRecord.HasBinding(a, name); ok {
		return e.declarativeRecord.DeleteBinding(a, name)
	}
	global := e.objectRecord.bindingObject
	exists, err := HasOwnProperty(a, global, StringKey(name))
	if err != nil {
		return false, err
	}
	if !exists {
		return true, nil
	}
	status, err := e.objectRecord.DeleteBinding(a, name)
	if err != nil {
		return false, err
	}
	if status {
		e.removeVarName(name)
	}
	return status, nil
}

func (e *GlobalEnvironment) HasThisBinding() bool  { return true }
func (e *GlobalEnvironment) HasSuperBinding() bool { return false }
func (e *GlobalEnvironment) WithBaseObject() Value { return Undefined }

func (e *GlobalEnvironment) GetThisBinding() Value { return ObjectValue(e.globalThis) }

func (e *GlobalEnvironment) HasVarDeclaration(name string) bool {
	_, ok := e.varNameSet[name]
	return ok
}

func (e *GlobalEnvironment) HasLexicalDeclaration(name string) bool {
	_, ok := e.declarativeRecord.bindings[name]
	return ok
}

// HasRestrictedGlobalProperty reports whether name is a non-configurable
// own property of the global object.
func (e *GlobalEnvironment) HasRestrictedGlobalProperty(a *Agent, name string) (bool, error) {
	global := e.objectRecord.bindingObject
	desc, err := global.impl.GetOwnProperty(a, StringKey(name))
	if err != nil || desc == nil {
		return false, err
	}
	return !desc.Configurable, nil
}

func (e *GlobalEnvironment) CanDeclareGlobalVar(a *Agent, name string) (bool, error) {
	global := e.objectRecord.bindingObject
	hasProperty, err := HasOwnProperty(a, global, StringKey(name))
	if err != nil {
		return false, err
	}
	if hasProperty {
		return true, nil
	}
	return IsExtensible(a, global)
}

func (e *GlobalEnvironment) CanDeclareGlobalFunction(a *Agent, name string) (bool, error) {
	global := e.objectRecord.bindingObject
	existing, err := global.impl.GetOwnProperty(a, StringKey(name))
	if err != nil {
		return false, err
	}
	if existing == nil {
		return IsExtensible(a, global)
	}
	if existing.Configurable {
		return true, nil
	}
	return existing.IsDataDescriptor() && existing.Writable && existing.Enumerable, nil
}

// CreateGlobalVarBinding creates an undefined-valued property only when
// absent and registers the name once.
func (e *GlobalEnvironment) CreateGlobalVarBinding(a *Agent, name string, deletable bool) error {
	global := e.objectRecord.bindingObject
	hasProperty, err := HasOwnProperty(a, global, StringKey(name))
	if err != nil {
		return err
	}
	extensible, err := IsExtensible(a, global)
	if err != nil {
		return err
	}
	if !hasProperty && extensible {
		if err := e.objectRecord.CreateMutableBinding(a, name, deletable); err != nil {
			return err
		}
		if err := e.objectRecord.InitializeBinding(a, name, Undefined); err != nil {
			return err
		}
	}
	e.addVarName(name)
	return nil
}

func (e *GlobalEnvironment) CreateGlobalFunctionBinding(a *Agent, name string, v Value, deletable bool) error {
	global := e.objectRecord.bindingObject
	key := StringKey(name)
	existing, err := global.impl.GetOwnProperty(a, key)
	if err != nil {
		return err
	}
	var desc PropertyDescriptor
	if existing == nil || existing.Configurable {
		desc = DataDescriptor(v, true, true, deletable)
	} else {
		desc = PropertyDescriptor{}.WithValue(v)
	}
	if err := DefinePropertyOrThrow(a, global, key, desc); err != nil {
		return err
	}
	if err := Set(a, global, key, v, false); err != nil {
		return err
	}
	e.addVarName(name)
	return nil
}

func (e *GlobalEnvironment) addVarName(name string) {
	if _, ok := e.varNameSet[name]; ok {
		return
	}
	e.varNameSet[name] = struct{}{}
	e.varNames = append(e.varNames, name)
}

func (e *GlobalEnvironment) removeVarName(name string) {
	if _, ok := e.varNameSet[name]; !ok {
		return
	}
	delete(e.varNameSet, name)
	for i, n := range e.varNames {
		if n == name {
			e.varNames = append(e.varNames[:i], e.varNames[i+1:]...)
			break
		}
	}
}
