package vm

import "math"

// ArrayObject is an Array exotic object. length is not stored as a
// property; it is derived on access and kept in step with the indices.
type ArrayObject struct {
	OrdinaryObject

	length         uint32
	lengthWritable bool
}

var lengthKey = StringKey("length")

// ArrayCreate allocates an array with the given length and prototype.
func ArrayCreate(length uint32, proto *Object) *Object {
	obj := &Object{}
	arr := &ArrayObject{length: length, lengthWritable: true}
	arr.init(obj, proto, "Array")
	obj.impl = arr
	return obj
}

// ArrayCreateChecked validates a numeric length first.
func ArrayCreateChecked(a *Agent, length float64, proto *Object) (*Object, error) {
	if length < 0 || length > math.MaxUint32 || length != math.Trunc(length) {
		return nil, a.NewRangeError("Invalid array length")
	}
	return ArrayCreate(uint32(length), proto), nil
}

// ArraySpeciesCreate creates an array through original's species
// constructor, or a plain array of the current realm.
func ArraySpeciesCreate(a *Agent, original *Object, length float64) (*Object, error) {
	isArray, err := IsArray(a, ObjectValue(original))
	if err != nil {
		return nil, err
	}
	if !isArray {
		return ArrayCreateChecked(a, length, a.CurrentRealm().Intrinsic("%Array.prototype%"))
	}
	c, err := Get(a, original, StringKey("constructor"))
	if err != nil {
		return nil, err
	}
	if c.IsObject() {
		s, err := Get(a, c.obj, SymbolKey(SymSpecies))
		if err != nil {
			return nil, err
		}
		c = s
		if c.IsNull() {
			c = Undefined
		}
	}
	if c.IsUndefined() {
		return ArrayCreateChecked(a, length, a.CurrentRealm().Intrinsic("%Array.prototype%"))
	}
	if !IsConstructor(c) {
		return nil, a.NewTypeError("object.constructor[Symbol.species] is not a constructor")
	}
	v, err := Construct(a, c.obj, []Value{NumberValue(length)}, nil)
	if err != nil {
		return nil, err
	}
	return v.obj, nil
}

func (arr *ArrayObject) Length() uint32 { return arr.length }

func (arr *ArrayObject) lengthDescriptor() *PropertyDescriptor {
	d := DataDescriptor(NumberValue(float64(arr.length)), arr.lengthWritable, false, false)
	return &d
}

func (arr *ArrayObject) GetOwnProperty(a *Agent, key PropertyKey) (*PropertyDescriptor, error) {
	if key == lengthKey {
		return arr.lengthDescriptor(), nil
	}
	return OrdinaryGetOwnProperty(arr.obj, key), nil
}

func (arr *ArrayObject) DefineOwnProperty(a *Agent, key PropertyKey, desc PropertyDescriptor) (bool, error) {
	if key == lengthKey {
		return arr.setLength(a, desc)
	}
	if index, ok := key.ArrayIndex(); ok {
		if index >= arr.length && !arr.lengthWritable {
			return false, nil
		}
		succeeded, err := OrdinaryDefineOwnProperty(a, arr.obj, key, desc)
		if err != nil || !succeeded {
			return false, err
		}
		if index >= arr.length {
			arr.length = index + 1
		}
		return true, nil
	}
	return OrdinaryDefineOwnProperty(a, arr.obj, key, desc)
}

// OwnPropertyKeys puts length after the indices, where creation order
// places it.
func (arr *ArrayObject) OwnPropertyKeys(a *Agent) ([]PropertyKey, error) {
	stored := arr.props.ordered()
	out := make([]PropertyKey, 0, len(stored)+1)
	i := 0
	for ; i < len(stored); i++ {
		if _, ok := stored[i].ArrayIndex(); !ok {
			break
		}
		out = append(out, stored[i])
	}
	out = append(out, lengthKey)
	return append(out, stored[i:]...), nil
}

// setLength implements ArraySetLength: shrinking deletes indices from the
// end and stops at the first non-configurable element.
func (arr *ArrayObject) setLength(a *Agent, desc PropertyDescriptor) (bool, error) {
	if !desc.Has(FieldValue) {
		if !IsCompatiblePropertyDescriptor(true, desc, arr.lengthDescriptor()) {
			return false, nil
		}
		if desc.Has(FieldWritable) && !desc.Writable {
			arr.lengthWritable = false
		}
		return true, nil
	}
	newLen, err := ToUint32(a, desc.Value)
	if err != nil {
		return false, err
	}
	numberLen, err := ToNumber(a, desc.Value)
	if err != nil {
		return false, err
	}
	if float64(newLen) != numberLen {
		return false, a.NewRangeError("Invalid array length")
	}
	newLenDesc := desc.WithValue(NumberValue(float64(newLen)))
	if newLen >= arr.length {
		if !IsCompatiblePropertyDescriptor(true, newLenDesc, arr.lengthDescriptor()) {
			return false, nil
		}
		arr.length = newLen
		if desc.Has(FieldWritable) && !desc.Writable {
			arr.lengthWritable = false
		}
		return true, nil
	}
	if !arr.lengthWritable {
		return false, nil
	}
	newWritable := !desc.Has(FieldWritable) || desc.Writable
	if !newWritable {
		newLenDesc = newLenDesc.WithWritable(true)
	}
	if !IsCompatiblePropertyDescriptor(true, newLenDesc, arr.lengthDescriptor()) {
		return false, nil
	}

	var doomed []uint32
	for _, k := range arr.props.ordered() {
		if idx, ok := k.ArrayIndex(); ok && idx >= newLen {
			doomed = append(doomed, idx)
		}
	}
	arr.length = newLen
	for i := len(doomed) - 1; i >= 0; i-- {
		deleted, err := arr.obj.impl.Delete(a, IndexKey(doomed[i]))
		if err != nil {
			return false, err
		}
		if !deleted {
			arr.length = doomed[i] + 1
			if !newWritable {
				arr.lengthWritable = false
			}
			return false, nil
		}
	}
	if !newWritable {
		arr.lengthWritable = false
	}
	return true, nil
}
