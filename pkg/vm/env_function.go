package vm

type ThisBindingStatus uint8

const (
	ThisLexical ThisBindingStatus = iota
	ThisUninitialized
	ThisInitialized
)

// FunctionEnvironment is the top-level declarative environment of a
// function invocation. It carries the this binding and new.target.
type FunctionEnvironment struct {
	DeclarativeEnvironment

	thisValue  Value
	thisStatus ThisBindingStatus
	function   *Object
	newTarget  Value
}

// NewFunctionEnvironment creates the environment for a call of f.
// newTarget is undefined for [[Call]].
func NewFunctionEnvironment(f *Object, newTarget Value) *FunctionEnvironment {
	fn := f.impl.(*ECMAScriptFunction)
	env := &FunctionEnvironment{
		DeclarativeEnvironment: DeclarativeEnvironment{outer: fn.Environment, bindings: make(map[string]*binding)},
		function:               f,
		newTarget:              newTarget,
		thisStatus:             ThisUninitialized,
	}
	if fn.ThisMode == ThisModeLexical {
		env.thisStatus = ThisLexical
	}
	return env
}

func (e *FunctionEnvironment) FunctionObject() *Object { return e.function }

func (e *FunctionEnvironment) NewTarget() Value { return e.newTarget }

func (e *FunctionEnvironment) ThisBindingStatus() ThisBindingStatus { return e.thisStatus }

// BindThisValue initializes the this binding. A second bind is a
// ReferenceError (super() called twice).
func (e *FunctionEnvironment) BindThisValue(a *Agent, v Value) (Value, error) {
	if e.thisStatus == ThisInitialized {
		return Undefined, a.NewReferenceError("Super constructor may only be called once")
	}
	e.thisValue = v
	e.thisStatus = ThisInitialized
	return v, nil
}

func (e *FunctionEnvironment) HasThisBinding() bool { return e.thisStatus != ThisLexical }

func (e *FunctionEnvironment) HasSuperBinding() bool {
	if e.thisStatus == ThisLexical {
		return false
	}
	return e.function.impl.(*ECMAScriptFunction).HomeObject != nil
}

func (e *FunctionEnvironment) GetThisBinding(a *Agent) (Value, error) {
	if e.thisStatus == ThisUninitialized {
		return Undefined, a.NewReferenceError("Must call super constructor in derived class before accessing 'this' or returning from derived constructor")
	}
	return e.thisValue, nil
}

// GetSuperBase returns the prototype of the home object, or undefined.
func (e *FunctionEnvironment) GetSuperBase(a *Agent) (Value, error) {
	home := e.function.impl.(*ECMAScriptFunction).HomeObject
	if home == nil {
		return Undefined, nil
	}
	proto, err := home.impl.GetPrototypeOf(a)
	if err != nil {
		return Undefined, err
	}
	return ObjectValue(proto), nil
}
