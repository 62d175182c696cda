package vm

// IteratorRecord is an iterator together with its cached next method.
type IteratorRecord struct {
	Iterator   *Object
	NextMethod Value
	Done       bool
}

// GetIterator calls v[@@iterator]() and validates the result.
func GetIterator(a *Agent, v Value) (*IteratorRecord, error) {
	method, err := GetMethod(a, v, SymbolKey(SymIterator))
	if err != nil {
		return nil, err
	}
	if method.IsUndefined() {
		return nil, a.NewTypeError("%s is not iterable", v.Inspect())
	}
	return GetIteratorFromMethod(a, v, method)
}

func GetIteratorFromMethod(a *Agent, v Value, method Value) (*IteratorRecord, error) {
	iterator, err := Call(a, method, v, nil)
	if err != nil {
		return nil, err
	}
	if !iterator.IsObject() {
		return nil, a.NewTypeError("Result of the Symbol.iterator method is not an object")
	}
	next, err := Get(a, iterator.obj, StringKey("next"))
	if err != nil {
		return nil, err
	}
	return &IteratorRecord{Iterator: iterator.obj, NextMethod: next}, nil
}

// Step advances the iterator. It returns the value and false when the
// iterator is exhausted. Errors mark the record done.
func (r *IteratorRecord) Step(a *Agent) (Value, bool, error) {
	result, err := Call(a, r.NextMethod, ObjectValue(r.Iterator), nil)
	if err != nil {
		r.Done = true
		return Undefined, false, err
	}
	if !result.IsObject() {
		r.Done = true
		return Undefined, false, a.NewTypeError("Iterator result %s is not an object", result.Inspect())
	}
	done, err := Get(a, result.obj, StringKey("done"))
	if err != nil {
		r.Done = true
		return Undefined, false, err
	}
	if ToBoolean(done) {
		r.Done = true
		return Undefined, false, nil
	}
	v, err := Get(a, result.obj, StringKey("value"))
	if err != nil {
		r.Done = true
		return Undefined, false, err
	}
	return v, true, nil
}

// Close calls the iterator's return method. When cause is non-nil it wins
// over any error from return.
func (r *IteratorRecord) Close(a *Agent, cause error) error {
	ret, err := GetMethod(a, ObjectValue(r.Iterator), StringKey("return"))
	var result Value
	called := false
	if err == nil && !ret.IsUndefined() {
		called = true
		result, err = Call(a, ret, ObjectValue(r.Iterator), nil)
	}
	if cause != nil {
		return cause
	}
	if err != nil {
		return err
	}
	if called && !result.IsObject() {
		return a.NewTypeError("Iterator result %s is not an object", result.Inspect())
	}
	return nil
}

// IterableToList drains an iterable into a slice.
func IterableToList(a *Agent, v Value) ([]Value, error) {
	it, err := GetIterator(a, v)
	if err != nil {
		return nil, err
	}
	var values []Value
	for {
		next, ok, err := it.Step(a)
		if err != nil {
			return nil, err
		}
		if !ok {
			return values, nil
		}
		values = append(values, next)
	}
}

// CreateIterResultObject builds { value, done }.
func CreateIterResultObject(a *Agent, v Value, done bool) *Object {
	o := OrdinaryObjectCreate(a.CurrentRealm().Intrinsic("%Object.prototype%"))
	o.DefineDataProperty(StringKey("value"), v, true, true, true)
	o.DefineDataProperty(StringKey("done"), BooleanValue(done), true, true, true)
	return o
}
