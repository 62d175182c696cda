package vm

// BoundFunction is the result of Function.prototype.bind.
type BoundFunction struct {
	OrdinaryObject

	TargetFunction *Object
	BoundThis      Value
	BoundArguments []Value
}

// BoundFunctionCreate binds target to boundThis and leading arguments.
// The bound function inherits target's prototype.
func BoundFunctionCreate(a *Agent, target *Object, boundThis Value, boundArgs []Value) (*Object, error) {
	proto, err := target.impl.GetPrototypeOf(a)
	if err != nil {
		return nil, err
	}
	obj := &Object{}
	bf := &BoundFunction{
		TargetFunction: target,
		BoundThis:      boundThis,
		BoundArguments: append([]Value(nil), boundArgs...),
	}
	bf.init(obj, proto, "Function")
	obj.impl = bf
	return obj, nil
}

func (bf *BoundFunction) args(args []Value) []Value {
	all := make([]Value, 0, len(bf.BoundArguments)+len(args))
	all = append(all, bf.BoundArguments...)
	return append(all, args...)
}

func (bf *BoundFunction) Call(a *Agent, this Value, args []Value) (Value, error) {
	return Call(a, ObjectValue(bf.TargetFunction), bf.BoundThis, bf.args(args))
}

func (bf *BoundFunction) Construct(a *Agent, args []Value, newTarget *Object) (Value, error) {
	if newTarget == bf.obj {
		newTarget = bf.TargetFunction
	}
	return Construct(a, bf.TargetFunction, bf.args(args), newTarget)
}

func (bf *BoundFunction) IsConstructor() bool {
	return IsConstructor(ObjectValue(bf.TargetFunction))
}
