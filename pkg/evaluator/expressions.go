package evaluator

import (
	"errors"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"

	"escore/pkg/vm"
)

// errShortCircuit unwinds an optional chain whose base is nullish. It
// never escapes the enclosing OptionalChain node.
var errShortCircuit = errors.New("optional chain short-circuit")

// evaluatedRef is a reference whose value has already been read, produced
// by the optional part of a chain. Calls still need the reference for
// their this value.
type evaluatedRef struct {
	ref   *vm.Reference
	value vm.Value
}

func (r *evaluatedRef) GetValue(a *vm.Agent) (vm.Value, error) { return r.value, nil }

func (s *state) value(expr ast.Expression) (vm.Value, error) {
	op, err := s.evaluate(expr)
	if err != nil {
		return vm.Undefined, err
	}
	return op.GetValue(s.a)
}

// evaluate returns a reference for identifiers and member expressions and
// a value for everything else.
func (s *state) evaluate(expr ast.Expression) (vm.Operand, error) {
	a := s.a
	switch e := expr.(type) {
	case *ast.Identifier:
		return a.ResolveBinding(e.Name.String(), nil, s.strict)

	case *ast.ThisExpression:
		return a.ResolveThisBinding()

	case *ast.NullLiteral:
		return vm.Null, nil
	case *ast.BooleanLiteral:
		return vm.BooleanValue(e.Value), nil
	case *ast.NumberLiteral:
		n, err := s.numberLiteral(e)
		if err != nil {
			return nil, err
		}
		return vm.NumberValue(n), nil
	case *ast.StringLiteral:
		return vm.StringValue(e.Value.String()), nil
	case *ast.TemplateLiteral:
		return s.templateLiteral(e)
	case *ast.RegExpLiteral:
		return s.regExpLiteral(e)

	case *ast.ArrayLiteral:
		return s.arrayLiteral(e)
	case *ast.ObjectLiteral:
		return s.objectLiteral(e)

	case *ast.FunctionLiteral:
		return s.functionExpression(e, vm.StringKey(""))
	case *ast.ArrowFunctionLiteral:
		return s.arrowFunction(e, vm.StringKey(""))
	case *ast.ClassLiteral:
		if e.Name != nil {
			name := e.Name.Name.String()
			return s.classDefinition(e, name, vm.StringKey(name))
		}
		return s.classDefinition(e, "", vm.StringKey(""))

	case *ast.DotExpression:
		if _, ok := e.Left.(*ast.SuperExpression); ok {
			return s.superReference(vm.StringValue(e.Identifier.Name.String()))
		}
		base, err := s.value(e.Left)
		if err != nil {
			return nil, err
		}
		return vm.NewPropertyReference(base, vm.StringKey(e.Identifier.Name.String()), s.strict), nil

	case *ast.BracketExpression:
		if _, ok := e.Left.(*ast.SuperExpression); ok {
			name, err := s.value(e.Member)
			if err != nil {
				return nil, err
			}
			return s.superReference(name)
		}
		base, err := s.value(e.Left)
		if err != nil {
			return nil, err
		}
		name, err := s.value(e.Member)
		if err != nil {
			return nil, err
		}
		if base.IsNullish() {
			return nil, a.NewTypeError("Cannot read properties of %s (reading '%s')", base.Inspect(), s.describeKey(name))
		}
		key, err := vm.ToPropertyKey(a, name)
		if err != nil {
			return nil, err
		}
		return vm.NewPropertyReference(base, key, s.strict), nil

	case *ast.PrivateDotExpression:
		return nil, s.unsupported(e, "private names")

	case *ast.OptionalChain:
		op, err := s.evaluate(e.Expression)
		if err == errShortCircuit {
			return vm.Undefined, nil
		}
		return op, err

	case *ast.Optional:
		op, err := s.evaluate(e.Expression)
		if err != nil {
			return nil, err
		}
		v, err := op.GetValue(a)
		if err != nil {
			return nil, err
		}
		if v.IsNullish() {
			return nil, errShortCircuit
		}
		if ref, ok := op.(*vm.Reference); ok {
			return &evaluatedRef{ref: ref, value: v}, nil
		}
		return v, nil

	case *ast.CallExpression:
		return s.call(e)
	case *ast.NewExpression:
		return s.newExpression(e)

	case *ast.MetaProperty:
		if e.Meta.Name == "new" && e.Property.Name == "target" {
			return a.GetNewTarget(), nil
		}
		return nil, s.unsupported(e, "import.meta expressions")

	case *ast.UnaryExpression:
		return s.unary(e)
	case *ast.BinaryExpression:
		return s.binary(e)
	case *ast.AssignExpression:
		return s.assign(e)

	case *ast.ConditionalExpression:
		test, err := s.value(e.Test)
		if err != nil {
			return nil, err
		}
		if vm.ToBoolean(test) {
			return s.value(e.Consequent)
		}
		return s.value(e.Alternate)

	case *ast.SequenceExpression:
		v := vm.Undefined
		for _, item := range e.Sequence {
			var err error
			if v, err = s.value(item); err != nil {
				return nil, err
			}
		}
		return v, nil

	case *ast.YieldExpression:
		return nil, s.unsupported(e, "generators")
	case *ast.AwaitExpression:
		return nil, s.unsupported(e, "async functions")
	case *ast.SuperExpression:
		return nil, a.NewSyntaxError("'super' keyword unexpected here")
	case *ast.BadExpression:
		return nil, a.NewSyntaxError("Unexpected token")
	}
	return nil, a.NewSyntaxError("unsupported expression %T", expr)
}

func (s *state) describeKey(v vm.Value) string {
	if v.IsString() {
		return v.AsString()
	}
	return v.Inspect()
}

// superReference implements MakeSuperPropertyReference.
func (s *state) superReference(name vm.Value) (vm.Operand, error) {
	a := s.a
	env, ok := a.GetThisEnvironment().(*vm.FunctionEnvironment)
	if !ok || !env.HasSuperBinding() {
		return nil, a.NewSyntaxError("'super' keyword unexpected here")
	}
	actualThis, err := env.GetThisBinding(a)
	if err != nil {
		return nil, err
	}
	key, err := vm.ToPropertyKey(a, name)
	if err != nil {
		return nil, err
	}
	base, err := env.GetSuperBase(a)
	if err != nil {
		return nil, err
	}
	return vm.NewSuperReference(base, key, actualThis, s.strict), nil
}

func (s *state) arrayLiteral(e *ast.ArrayLiteral) (vm.Value, error) {
	a := s.a
	arr := vm.ArrayCreate(0, s.intrinsic("%Array.prototype%"))
	var index uint32
	for _, el := range e.Value {
		switch item := el.(type) {
		case nil:
			index++
		case *ast.SpreadElement:
			v, err := s.value(item.Expression)
			if err != nil {
				return vm.Undefined, err
			}
			it, err := vm.GetIterator(a, v)
			if err != nil {
				return vm.Undefined, err
			}
			for {
				next, ok, err := it.Step(a)
				if err != nil {
					return vm.Undefined, err
				}
				if !ok {
					break
				}
				if err := vm.CreateDataPropertyOrThrow(a, arr, vm.IndexKey(index), next); err != nil {
					return vm.Undefined, err
				}
				index++
			}
		default:
			v, err := s.value(item)
			if err != nil {
				return vm.Undefined, err
			}
			if err := vm.CreateDataPropertyOrThrow(a, arr, vm.IndexKey(index), v); err != nil {
				return vm.Undefined, err
			}
			index++
		}
	}
	if err := vm.Set(a, arr, vm.StringKey("length"), vm.NumberValue(float64(index)), true); err != nil {
		return vm.Undefined, err
	}
	return vm.ObjectValue(arr), nil
}

func (s *state) objectLiteral(e *ast.ObjectLiteral) (vm.Value, error) {
	a := s.a
	obj := vm.OrdinaryObjectCreate(s.intrinsic("%Object.prototype%"))
	for _, prop := range e.Value {
		switch p := prop.(type) {
		case *ast.PropertyShort:
			if p.Initializer != nil {
				return vm.Undefined, a.NewSyntaxError("Invalid shorthand property initializer")
			}
			name := p.Name.Name.String()
			v, err := s.value(&p.Name)
			if err != nil {
				return vm.Undefined, err
			}
			if err := vm.CreateDataPropertyOrThrow(a, obj, vm.StringKey(name), v); err != nil {
				return vm.Undefined, err
			}

		case *ast.SpreadElement:
			v, err := s.value(p.Expression)
			if err != nil {
				return vm.Undefined, err
			}
			if err := vm.CopyDataProperties(a, obj, v, nil); err != nil {
				return vm.Undefined, err
			}

		case *ast.PropertyKeyed:
			if p.Kind == ast.PropertyKindValue && !p.Computed && isProtoKey(p.Key) {
				v, err := s.value(p.Value)
				if err != nil {
					return vm.Undefined, err
				}
				switch {
				case v.IsObject():
					_, err = obj.Impl().SetPrototypeOf(a, v.AsObject())
				case v.IsNull():
					_, err = obj.Impl().SetPrototypeOf(a, nil)
				}
				if err != nil {
					return vm.Undefined, err
				}
				continue
			}
			key, err := s.propertyKey(p.Key, p.Computed)
			if err != nil {
				return vm.Undefined, err
			}
			if p.Kind == ast.PropertyKindValue {
				v, err := s.namedValue(p.Value, key)
				if err != nil {
					return vm.Undefined, err
				}
				if err := vm.CreateDataPropertyOrThrow(a, obj, key, v); err != nil {
					return vm.Undefined, err
				}
				continue
			}
			fn, ok := p.Value.(*ast.FunctionLiteral)
			if !ok {
				return vm.Undefined, a.NewSyntaxError("Invalid method definition")
			}
			if err := s.defineMethodProperty(obj, key, p.Kind, fn, true); err != nil {
				return vm.Undefined, err
			}
		}
	}
	return vm.ObjectValue(obj), nil
}

func isProtoKey(key ast.Expression) bool {
	lit, ok := key.(*ast.StringLiteral)
	return ok && lit.Value.String() == "__proto__"
}

// exprText renders a short source-like description of a callee for error
// messages.
func exprText(expr ast.Expression) string {
	switch e := expr.(type) {
	case *ast.Identifier:
		return e.Name.String()
	case *ast.ThisExpression:
		return "this"
	case *ast.SuperExpression:
		return "super"
	case *ast.DotExpression:
		return exprText(e.Left) + "." + e.Identifier.Name.String()
	case *ast.BracketExpression:
		if lit, ok := e.Member.(*ast.StringLiteral); ok {
			return exprText(e.Left) + "[" + quote(lit.Value.String()) + "]"
		}
		if lit, ok := e.Member.(*ast.NumberLiteral); ok {
			return exprText(e.Left) + "[" + lit.Literal + "]"
		}
		return exprText(e.Left) + "[...]"
	case *ast.CallExpression:
		return exprText(e.Callee) + "(...)"
	case *ast.Optional:
		return exprText(e.Expression)
	case *ast.OptionalChain:
		return exprText(e.Expression)
	case *ast.StringLiteral:
		return quote(e.Value.String())
	case *ast.NumberLiteral:
		return e.Literal
	case *ast.FunctionLiteral, *ast.ArrowFunctionLiteral:
		return "(intermediate value)"
	}
	return "expression"
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func (s *state) unary(e *ast.UnaryExpression) (vm.Value, error) {
	a := s.a
	switch e.Operator {
	case token.INCREMENT, token.DECREMENT:
		ref, err := s.evaluate(e.Operand)
		if err != nil {
			return vm.Undefined, err
		}
		old, err := ref.GetValue(a)
		if err != nil {
			return vm.Undefined, err
		}
		oldNum, err := vm.ToNumeric(a, old)
		if err != nil {
			return vm.Undefined, err
		}
		newNum := oldNum + 1
		if e.Operator == token.DECREMENT {
			newNum = oldNum - 1
		}
		if err := vm.PutValue(a, ref, vm.NumberValue(newNum)); err != nil {
			return vm.Undefined, err
		}
		if e.Postfix {
			return vm.NumberValue(oldNum), nil
		}
		return vm.NumberValue(newNum), nil

	case token.TYPEOF:
		op, err := s.evaluate(e.Operand)
		if err != nil {
			return vm.Undefined, err
		}
		if ref, ok := op.(*vm.Reference); ok && ref.IsUnresolvable() {
			return vm.StringValue("undefined"), nil
		}
		v, err := op.GetValue(a)
		if err != nil {
			return vm.Undefined, err
		}
		return vm.StringValue(v.TypeOf()), nil

	case token.DELETE:
		return s.deleteExpression(e.Operand)

	case token.VOID:
		if _, err := s.value(e.Operand); err != nil {
			return vm.Undefined, err
		}
		return vm.Undefined, nil
	}

	v, err := s.value(e.Operand)
	if err != nil {
		return vm.Undefined, err
	}
	switch e.Operator {
	case token.NOT:
		return vm.BooleanValue(!vm.ToBoolean(v)), nil
	case token.BITWISE_NOT:
		n, err := vm.ToInt32(a, v)
		if err != nil {
			return vm.Undefined, err
		}
		return vm.NumberValue(float64(^n)), nil
	case token.PLUS:
		n, err := vm.ToNumber(a, v)
		if err != nil {
			return vm.Undefined, err
		}
		return vm.NumberValue(n), nil
	case token.MINUS:
		n, err := vm.ToNumeric(a, v)
		if err != nil {
			return vm.Undefined, err
		}
		return vm.NumberValue(-n), nil
	}
	return vm.Undefined, a.NewSyntaxError("unsupported unary operator %s", e.Operator)
}

func (s *state) deleteExpression(operand ast.Expression) (vm.Value, error) {
	a := s.a
	op, err := s.evaluate(operand)
	if err != nil {
		return vm.Undefined, err
	}
	ref, ok := op.(*vm.Reference)
	if !ok {
		return vm.True, nil
	}
	switch {
	case ref.IsUnresolvable():
		return vm.True, nil
	case ref.IsPropertyReference():
		if ref.IsSuperReference() {
			return vm.Undefined, a.NewReferenceError("Unsupported reference to 'super'")
		}
		base, err := vm.ToObject(a, ref.Base())
		if err != nil {
			return vm.Undefined, err
		}
		deleted, err := base.Impl().Delete(a, ref.Name())
		if err != nil {
			return vm.Undefined, err
		}
		if !deleted && ref.Strict {
			return vm.Undefined, a.NewTypeError("Cannot delete property '%s' of %s", ref.Name(), ref.Base().Inspect())
		}
		return vm.BooleanValue(deleted), nil
	}
	deleted, err := ref.Environment().DeleteBinding(a, ref.Name().Name())
	if err != nil {
		return vm.Undefined, err
	}
	return vm.BooleanValue(deleted), nil
}

func (s *state) binary(e *ast.BinaryExpression) (vm.Value, error) {
	a := s.a
	switch e.Operator {
	case token.LOGICAL_AND, token.LOGICAL_OR, token.COALESCE:
		left, err := s.value(e.Left)
		if err != nil {
			return vm.Undefined, err
		}
		if !shouldEvaluateRight(e.Operator, left) {
			return left, nil
		}
		return s.value(e.Right)
	}

	left, err := s.value(e.Left)
	if err != nil {
		return vm.Undefined, err
	}
	right, err := s.value(e.Right)
	if err != nil {
		return vm.Undefined, err
	}
	switch e.Operator {
	case token.EQUAL, token.NOT_EQUAL:
		eq, err := vm.IsLooselyEqual(a, left, right)
		if err != nil {
			return vm.Undefined, err
		}
		return vm.BooleanValue(eq == (e.Operator == token.EQUAL)), nil
	case token.STRICT_EQUAL:
		return vm.BooleanValue(vm.IsStrictlyEqual(left, right)), nil
	case token.STRICT_NOT_EQUAL:
		return vm.BooleanValue(!vm.IsStrictlyEqual(left, right)), nil
	case token.LESS:
		less, ok, err := vm.IsLessThan(a, left, right, true)
		return vm.BooleanValue(ok && less), err
	case token.GREATER:
		less, ok, err := vm.IsLessThan(a, right, left, false)
		return vm.BooleanValue(ok && less), err
	case token.LESS_OR_EQUAL:
		less, ok, err := vm.IsLessThan(a, right, left, false)
		return vm.BooleanValue(ok && !less), err
	case token.GREATER_OR_EQUAL:
		less, ok, err := vm.IsLessThan(a, left, right, true)
		return vm.BooleanValue(ok && !less), err
	case token.INSTANCEOF:
		r, err := vm.InstanceofOperator(a, left, right)
		return vm.BooleanValue(r), err
	case token.IN:
		if !right.IsObject() {
			return vm.Undefined, a.NewTypeError("Cannot use 'in' operator to search for '%s' in %s", s.describeKey(left), right.Inspect())
		}
		key, err := vm.ToPropertyKey(a, left)
		if err != nil {
			return vm.Undefined, err
		}
		has, err := vm.HasProperty(a, right.AsObject(), key)
		return vm.BooleanValue(has), err
	}
	return applyOperator(a, e.Operator, left, right)
}

func shouldEvaluateRight(op token.Token, left vm.Value) bool {
	switch op {
	case token.LOGICAL_AND:
		return vm.ToBoolean(left)
	case token.LOGICAL_OR:
		return !vm.ToBoolean(left)
	}
	return left.IsNullish()
}

func (s *state) assign(e *ast.AssignExpression) (vm.Value, error) {
	a := s.a
	if e.Operator == token.ASSIGN {
		if isPattern(e.Left) {
			v, err := s.value(e.Right)
			if err != nil {
				return vm.Undefined, err
			}
			return v, s.bindPattern(e.Left, v, nil)
		}
		ref, err := s.evaluate(e.Left)
		if err != nil {
			return vm.Undefined, err
		}
		v, err := s.assignedValue(e.Left, e.Right)
		if err != nil {
			return vm.Undefined, err
		}
		return v, vm.PutValue(a, ref, v)
	}

	ref, err := s.evaluate(e.Left)
	if err != nil {
		return vm.Undefined, err
	}
	left, err := ref.GetValue(a)
	if err != nil {
		return vm.Undefined, err
	}
	switch e.Operator {
	case token.LOGICAL_AND, token.LOGICAL_OR, token.COALESCE:
		if !shouldEvaluateRight(e.Operator, left) {
			return left, nil
		}
		v, err := s.assignedValue(e.Left, e.Right)
		if err != nil {
			return vm.Undefined, err
		}
		return v, vm.PutValue(a, ref, v)
	}
	right, err := s.value(e.Right)
	if err != nil {
		return vm.Undefined, err
	}
	v, err := applyOperator(a, e.Operator, left, right)
	if err != nil {
		return vm.Undefined, err
	}
	return v, vm.PutValue(a, ref, v)
}

// assignedValue evaluates the right side of an assignment, naming
// anonymous functions after an identifier target.
func (s *state) assignedValue(left, right ast.Expression) (vm.Value, error) {
	if id, ok := left.(*ast.Identifier); ok && isAnonymousFunctionDefinition(right) {
		return s.namedValue(right, vm.StringKey(id.Name.String()))
	}
	return s.value(right)
}
