package evaluator

import (
	"github.com/dop251/goja/ast"

	"escore/pkg/vm"
)

func (s *state) call(e *ast.CallExpression) (vm.Value, error) {
	a := s.a
	if _, ok := e.Callee.(*ast.SuperExpression); ok {
		return s.superCall(e)
	}
	op, err := s.evaluate(e.Callee)
	if err != nil {
		return vm.Undefined, err
	}
	fn, err := op.GetValue(a)
	if err != nil {
		return vm.Undefined, err
	}
	this := vm.Undefined
	switch ref := op.(type) {
	case *vm.Reference:
		this = thisForReference(ref)
	case *evaluatedRef:
		this = thisForReference(ref.ref)
	}
	args, err := s.arguments(e.ArgumentList)
	if err != nil {
		return vm.Undefined, err
	}
	if !vm.IsCallable(fn) {
		return vm.Undefined, a.NewTypeError("%s is not a function", exprText(e.Callee))
	}
	debugPrintf("call %s with %d args", exprText(e.Callee), len(args))
	return vm.Call(a, fn, this, args)
}

// thisForReference picks the this value of a call through ref: the base
// of a property reference, or the binding object of a with environment.
func thisForReference(ref *vm.Reference) vm.Value {
	switch {
	case ref.IsPropertyReference():
		return ref.GetThisValue()
	case ref.IsUnresolvable():
		return vm.Undefined
	}
	return ref.Environment().WithBaseObject()
}

// arguments implements ArgumentListEvaluation, expanding spread elements
// through the iterator protocol.
func (s *state) arguments(list []ast.Expression) ([]vm.Value, error) {
	a := s.a
	args := make([]vm.Value, 0, len(list))
	for _, expr := range list {
		spread, ok := expr.(*ast.SpreadElement)
		if !ok {
			v, err := s.value(expr)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
			continue
		}
		v, err := s.value(spread.Expression)
		if err != nil {
			return nil, err
		}
		it, err := vm.GetIterator(a, v)
		if err != nil {
			return nil, err
		}
		for {
			next, ok, err := it.Step(a)
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			args = append(args, next)
		}
	}
	return args, nil
}

func (s *state) newExpression(e *ast.NewExpression) (vm.Value, error) {
	a := s.a
	ctor, err := s.value(e.Callee)
	if err != nil {
		return vm.Undefined, err
	}
	args, err := s.arguments(e.ArgumentList)
	if err != nil {
		return vm.Undefined, err
	}
	if !vm.IsConstructor(ctor) {
		return vm.Undefined, a.NewTypeError("%s is not a constructor", exprText(e.Callee))
	}
	return vm.Construct(a, ctor.AsObject(), args, nil)
}

// superCall constructs the parent class with the current new.target and
// binds the result as this.
func (s *state) superCall(e *ast.CallExpression) (vm.Value, error) {
	a := s.a
	newTarget := a.GetNewTarget()
	env, ok := a.GetThisEnvironment().(*vm.FunctionEnvironment)
	if !ok || newTarget.IsUndefined() {
		return vm.Undefined, a.NewSyntaxError("'super' keyword unexpected here")
	}
	active := env.FunctionObject()
	superCtor, err := active.Impl().GetPrototypeOf(a)
	if err != nil {
		return vm.Undefined, err
	}
	args, err := s.arguments(e.ArgumentList)
	if err != nil {
		return vm.Undefined, err
	}
	if superCtor == nil || !vm.IsConstructor(vm.ObjectValue(superCtor)) {
		return vm.Undefined, a.NewTypeError("Super constructor %s of anonymous class is not a constructor", describeObject(superCtor))
	}
	result, err := vm.Construct(a, superCtor, args, newTarget.AsObject())
	if err != nil {
		return vm.Undefined, err
	}
	if _, err := env.BindThisValue(a, result); err != nil {
		return vm.Undefined, err
	}
	if err := vm.InitializeInstanceElements(a, result.AsObject(), active); err != nil {
		return vm.Undefined, err
	}
	return result, nil
}

func describeObject(o *vm.Object) string {
	if o == nil {
		return "null"
	}
	return vm.ObjectValue(o).Inspect()
}
