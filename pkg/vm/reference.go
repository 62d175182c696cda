package vm

type ReferenceKind uint8

const (
	UnresolvableReference ReferenceKind = iota
	EnvironmentReference
	PropertyReference
)

// Reference denotes an assignable location before it is read or written.
// The base is env for environment references and base for property
// references. thisValue is set for super references.
type Reference struct {
	kind      ReferenceKind
	base      Value
	env       Environment
	name      PropertyKey
	Strict    bool
	thisValue Value
	hasThis   bool
}

// NewPropertyReference builds a reference to base[name].
func NewPropertyReference(base Value, name PropertyKey, strict bool) *Reference {
	return &Reference{kind: PropertyReference, base: base, name: name, Strict: strict}
}

// NewSuperReference builds a super property reference with an explicit
// this value.
func NewSuperReference(base Value, name PropertyKey, thisValue Value, strict bool) *Reference {
	return &Reference{kind: PropertyReference, base: base, name: name, Strict: strict, thisValue: thisValue, hasThis: true}
}

func (r *Reference) Kind() ReferenceKind { return r.kind }
func (r *Reference) Name() PropertyKey   { return r.name }
func (r *Reference) Base() Value         { return r.base }
func (r *Reference) Environment() Environment {
	return r.env
}

func (r *Reference) IsUnresolvable() bool      { return r.kind == UnresolvableReference }
func (r *Reference) IsPropertyReference() bool { return r.kind == PropertyReference }
func (r *Reference) IsSuperReference() bool    { return r.hasThis }

// GetValue reads through the reference.
func (r *Reference) GetValue(a *Agent) (Value, error) {
	switch r.kind {
	case UnresolvableReference:
		return Undefined, a.NewReferenceError("%s is not defined", r.name.Name())
	case PropertyReference:
		if r.base.IsNullish() {
			return Undefined, a.NewTypeError("Cannot read properties of %s (reading '%s')", r.base.Inspect(), r.name)
		}
		base, err := ToObject(a, r.base)
		if err != nil {
			return Undefined, err
		}
		return base.impl.Get(a, r.name, r.GetThisValue())
	}
	return r.env.GetBindingValue(a, r.name.Name(), r.Strict)
}

// PutValue writes v through the reference. Unresolvable references
// create a global property in sloppy code.
func (r *Reference) PutValue(a *Agent, v Value) error {
	switch r.kind {
	case UnresolvableReference:
		if r.Strict {
			return a.NewReferenceError("%s is not defined", r.name.Name())
		}
		return Set(a, a.GetGlobalObject(), r.name, v, false)
	case PropertyReference:
		if r.base.IsNullish() {
			return a.NewTypeError("Cannot set properties of %s (setting '%s')", r.base.Inspect(), r.name)
		}
		base, err := ToObject(a, r.base)
		if err != nil {
			return err
		}
		ok, err := base.impl.Set(a, r.name, v, r.GetThisValue())
		if err != nil {
			return err
		}
		if !ok && r.Strict {
			return a.NewTypeError("Cannot assign to read only property '%s' of %s", r.name, describeForError(r.base))
		}
		return nil
	}
	return r.env.SetMutableBinding(a, r.name.Name(), v, r.Strict)
}

// GetThisValue returns the this value of a property reference.
func (r *Reference) GetThisValue() Value {
	if r.hasThis {
		return r.thisValue
	}
	return r.base
}

// InitializeReferencedBinding initializes the binding an environment
// reference points at.
func (r *Reference) InitializeReferencedBinding(a *Agent, v Value) error {
	return r.env.InitializeBinding(a, r.name.Name(), v)
}

// Operand is what expression evaluation yields: a value or a reference.
type Operand interface {
	GetValue(a *Agent) (Value, error)
}

// GetValue returns the value of a value and reads through a reference.
func (v Value) GetValue(a *Agent) (Value, error) { return v, nil }

// GetValue resolves an operand to a value.
func GetValue(a *Agent, op Operand) (Value, error) {
	return op.GetValue(a)
}

// PutValue writes through an operand, which must be a reference.
func PutValue(a *Agent, op Operand, v Value) error {
	ref, ok := op.(*Reference)
	if !ok {
		return a.NewReferenceError("Invalid left-hand side in assignment")
	}
	return ref.PutValue(a, v)
}

func describeForError(v Value) string {
	if v.IsObject() {
		return "object"
	}
	if v.IsString() {
		return "string '" + v.str + "'"
	}
	return v.Inspect()
}
