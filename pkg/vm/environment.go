package vm

import "sort"

// Environment is an Environment Record. Declarative, Function, Object and
// Global records implement it.
type Environment interface {
	HasBinding(a *Agent, name string) (bool, error)
	CreateMutableBinding(a *Agent, name string, deletable bool) error
	CreateImmutableBinding(a *Agent, name string, strict bool) error
	InitializeBinding(a *Agent, name string, v Value) error
	SetMutableBinding(a *Agent, name string, v Value, strict bool) error
	GetBindingValue(a *Agent, name string, strict bool) (Value, error)
	DeleteBinding(a *Agent, name string) (bool, error)
	HasThisBinding() bool
	HasSuperBinding() bool
	WithBaseObject() Value

	// Outer returns the enclosing environment, nil for the global environment.
	Outer() Environment
}

// GetIdentifierReference walks outward from env and returns a reference
// bound to the first record that has the name. When no record has it the
// reference is unresolvable.
func GetIdentifierReference(a *Agent, env Environment, name string, strict bool) (*Reference, error) {
	for env != nil {
		exists, err := env.HasBinding(a, name)
		if err != nil {
			return nil, err
		}
		if exists {
			return &Reference{kind: EnvironmentReference, env: env, name: StringKey(name), Strict: strict}, nil
		}
		env = env.Outer()
	}
	return &Reference{kind: UnresolvableReference, name: StringKey(name), Strict: strict}, nil
}

type binding struct {
	value       Value
	mutable     bool
	initialized bool
	deletable   bool
	strict      bool
}

// DeclarativeEnvironment binds identifiers to values in memory.
type DeclarativeEnvironment struct {
	outer    Environment
	bindings map[string]*binding
}

func NewDeclarativeEnvironment(outer Environment) *DeclarativeEnvironment {
	return &DeclarativeEnvironment{outer: outer, bindings: make(map[string]*binding)}
}

func (e *DeclarativeEnvironment) Outer() Environment { return e.outer }

func (e *DeclarativeEnvironment) HasBinding(a *Agent, name string) (bool, error) {
	_, ok := e.bindings[name]
	return ok, nil
}

func (e *DeclarativeEnvironment) CreateMutableBinding(a *Agent, name string, deletable bool) error {
	if _, exists := e.bindings[name]; exists {
		return a.NewReferenceError("Identifier '%s' has already been declared", name)
	}
	e.bindings[name] = &binding{mutable: true, deletable: deletable}
	return nil
}

func (e *DeclarativeEnvironment) CreateImmutableBinding(a *Agent, name string, strict bool) error {
	if _, exists := e.bindings[name]; exists {
		return a.NewReferenceError("Identifier '%s' has already been declared", name)
	}
	e.bindings[name] = &binding{strict: strict}
	return nil
}

func (e *DeclarativeEnvironment) InitializeBinding(a *Agent, name string, v Value) error {
	b, ok := e.bindings[name]
	if !ok {
		return a.NewReferenceError("%s is not defined", name)
	}
	if b.initialized {
		return a.NewReferenceError("Identifier '%s' has already been initialized", name)
	}
	b.value = v
	b.initialized = true
	return nil
}

func (e *DeclarativeEnvironment) SetMutableBinding(a *Agent, name string, v Value, strict bool) error {
	b, ok := e.bindings[name]
	if !ok {
		return a.NewReferenceError("%s is not defined", name)
	}
	if !b.initialized {
		return a.NewReferenceError("Cannot access '%s' before initialization", name)
	}
	if !b.mutable {
		return a.NewReferenceError("Assignment to constant variable '%s'", name)
	}
	b.value = v
	return nil
}

func (e *DeclarativeEnvironment) GetBindingValue(a *Agent, name string, strict bool) (Value, error) {
	b, ok := e.bindings[name]
	if !ok {
		return Undefined, a.NewReferenceError("%s is not defined", name)
	}
	if !b.initialized {
		return Undefined, a.NewReferenceError("Cannot access '%s' before initialization", name)
	}
	return b.value, nil
}

func (e *DeclarativeEnvironment) DeleteBinding(a *Agent, name string) (bool, error) {
	b, ok := e.bindings[name]
	if !ok {
		return true, nil
	}
	if !b.deletable {
		return false, nil
	}
	delete(e.bindings, name)
	return true, nil
}

func (e *DeclarativeEnvironment) HasThisBinding() bool  { return false }
func (e *DeclarativeEnvironment) HasSuperBinding() bool { return false }
func (e *DeclarativeEnvironment) WithBaseObject() Value { return Undefined }

// IsInitialized reports whether name is bound and initialized.
func (e *DeclarativeEnvironment) IsInitialized(name string) bool {
	b, ok := e.bindings[name]
	return ok && b.initialized
}

// BindingNames returns the bound names in sorted order.
func (e *DeclarativeEnvironment) BindingNames() []string {
	names := make([]string, 0, len(e.bindings))
	for name := range e.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsMutable reports whether name is bound mutably.
func (e *DeclarativeEnvironment) IsMutable(name string) bool {
	b, ok := e.bindings[name]
	return ok && b.mutable
}
