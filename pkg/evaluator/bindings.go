package evaluator

import (
	"math/big"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"

	"escore/pkg/vm"
)

func isPattern(target ast.Expression) bool {
	switch target.(type) {
	case *ast.ArrayPattern, *ast.ObjectPattern:
		return true
	}
	return false
}

// splitDefault separates a binding element from its default value.
func splitDefault(el ast.Expression) (ast.Expression, ast.Expression) {
	if as, ok := el.(*ast.AssignExpression); ok && as.Operator == token.ASSIGN {
		return as.Left, as.Right
	}
	return el, nil
}

// bindPattern implements BindingInitialization and DestructuringAssignment
// over one target. A nil env means the target is assigned with PutValue
// (var declarations, assignment patterns, duplicate parameters);
// otherwise bindings in env are initialized.
func (s *state) bindPattern(target ast.Expression, v vm.Value, env vm.Environment) error {
	switch t := target.(type) {
	case *ast.ArrayPattern:
		return s.bindArrayPattern(t, v, env)
	case *ast.ObjectPattern:
		return s.bindObjectPattern(t, v, env)
	}
	ref, err := s.targetReference(target, env)
	if err != nil {
		return err
	}
	return s.assignReference(ref, v, env)
}

// targetReference evaluates the reference of a non-pattern target. Member
// expressions are only valid in assignment patterns.
func (s *state) targetReference(target ast.Expression, env vm.Environment) (vm.Operand, error) {
	if id, ok := target.(*ast.Identifier); ok {
		return s.a.ResolveBinding(id.Name.String(), env, s.strict)
	}
	if env != nil {
		return nil, s.a.NewSyntaxError("Invalid destructuring binding target")
	}
	return s.evaluate(target)
}

func (s *state) assignReference(ref vm.Operand, v vm.Value, env vm.Environment) error {
	if env == nil {
		return vm.PutValue(s.a, ref, v)
	}
	return ref.(*vm.Reference).InitializeReferencedBinding(s.a, v)
}

// bindElement binds one element whose value is produced by fetch. A
// non-pattern target's reference is evaluated before the value.
func (s *state) bindElement(el ast.Expression, env vm.Environment, fetch func() (vm.Value, error)) error {
	target, init := splitDefault(el)
	var ref vm.Operand
	if !isPattern(target) {
		var err error
		if ref, err = s.targetReference(target, env); err != nil {
			return err
		}
	}
	v, err := fetch()
	if err != nil {
		return err
	}
	if init != nil && v.IsUndefined() {
		if id, ok := target.(*ast.Identifier); ok {
			v, err = s.namedValue(init, vm.StringKey(id.Name.String()))
		} else {
			v, err = s.value(init)
		}
		if err != nil {
			return err
		}
	}
	if ref == nil {
		return s.bindPattern(target, v, env)
	}
	return s.assignReference(ref, v, env)
}

func (s *state) bindArrayPattern(p *ast.ArrayPattern, v vm.Value, env vm.Environment) error {
	it, err := vm.GetIterator(s.a, v)
	if err != nil {
		return err
	}
	step := func() (vm.Value, error) {
		if it.Done {
			return vm.Undefined, nil
		}
		next, ok, err := it.Step(s.a)
		if err != nil || !ok {
			return vm.Undefined, err
		}
		return next, nil
	}
	fail := func(err error) error {
		if it.Done {
			return err
		}
		return it.Close(s.a, err)
	}

	for _, el := range p.Elements {
		if el == nil {
			if _, err := step(); err != nil {
				return fail(err)
			}
			continue
		}
		if err := s.bindElement(el, env, step); err != nil {
			return fail(err)
		}
	}
	if p.Rest != nil {
		err := s.bindElement(p.Rest, env, func() (vm.Value, error) {
			var rest []vm.Value
			for !it.Done {
				next, err := step()
				if err != nil {
					return vm.Undefined, err
				}
				if !it.Done {
					rest = append(rest, next)
				}
			}
			return vm.ObjectValue(vm.CreateArrayFromList(s.a, rest)), nil
		})
		if err != nil {
			return fail(err)
		}
	}
	if !it.Done {
		return it.Close(s.a, nil)
	}
	return nil
}

func (s *state) bindObjectPattern(p *ast.ObjectPattern, v vm.Value, env vm.Environment) error {
	if _, err := vm.RequireObjectCoercible(s.a, v); err != nil {
		if v.IsNullish() {
			return s.a.NewTypeError("Cannot destructure '%s' as it is %s.", v.Inspect(), v.Inspect())
		}
		return err
	}
	var excluded []vm.PropertyKey
	for _, prop := range p.Properties {
		var key vm.PropertyKey
		var el ast.Expression
		switch pr := prop.(type) {
		case *ast.PropertyShort:
			key = vm.StringKey(pr.Name.Name.String())
			el = &pr.Name
			if pr.Initializer != nil {
				el = &ast.AssignExpression{Operator: token.ASSIGN, Left: &pr.Name, Right: pr.Initializer}
			}
		case *ast.PropertyKeyed:
			var err error
			if key, err = s.propertyKey(pr.Key, pr.Computed); err != nil {
				return err
			}
			el = pr.Value
		default:
			return s.a.NewSyntaxError("Invalid destructuring target")
		}
		err := s.bindElement(el, env, func() (vm.Value, error) {
			return vm.GetV(s.a, v, key)
		})
		if err != nil {
			return err
		}
		excluded = append(excluded, key)
	}
	if p.Rest == nil {
		return nil
	}
	return s.bindElement(p.Rest, env, func() (vm.Value, error) {
		rest := vm.OrdinaryObjectCreate(s.intrinsic("%Object.prototype%"))
		if err := vm.CopyDataProperties(s.a, rest, v, excluded); err != nil {
			return vm.Undefined, err
		}
		return vm.ObjectValue(rest), nil
	})
}

// propertyKey evaluates a property name of an object literal, class
// element or object pattern.
func (s *state) propertyKey(key ast.Expression, computed bool) (vm.PropertyKey, error) {
	if !computed {
		switch k := key.(type) {
		case *ast.StringLiteral:
			return vm.StringKey(k.Value.String()), nil
		case *ast.Identifier:
			return vm.StringKey(k.Name.String()), nil
		case *ast.NumberLiteral:
			n, err := s.numberLiteral(k)
			if err != nil {
				return vm.PropertyKey{}, err
			}
			return vm.StringKey(vm.NumberToString(n)), nil
		case *ast.PrivateIdentifier:
			return vm.PropertyKey{}, s.unsupported(key, "private names")
		}
	}
	v, err := s.value(key)
	if err != nil {
		return vm.PropertyKey{}, err
	}
	return vm.ToPropertyKey(s.a, v)
}

func (s *state) numberLiteral(lit *ast.NumberLiteral) (float64, error) {
	switch n := lit.Value.(type) {
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	case *big.Int:
		return 0, s.unsupported(lit, "BigInt literals")
	}
	return vm.StringToNumber(lit.Literal), nil
}

// isAnonymousFunctionDefinition reports whether NamedEvaluation applies.
func isAnonymousFunctionDefinition(expr ast.Expression) bool {
	switch e := expr.(type) {
	case *ast.FunctionLiteral:
		return e.Name == nil
	case *ast.ArrowFunctionLiteral:
		return true
	case *ast.ClassLiteral:
		return e.Name == nil
	}
	return false
}

// namedValue evaluates expr, naming it after key when it is an anonymous
// function or class definition.
func (s *state) namedValue(expr ast.Expression, key vm.PropertyKey) (vm.Value, error) {
	switch e := expr.(type) {
	case *ast.FunctionLiteral:
		if e.Name == nil {
			return s.functionExpression(e, key)
		}
	case *ast.ArrowFunctionLiteral:
		return s.arrowFunction(e, key)
	case *ast.ClassLiteral:
		if e.Name == nil {
			return s.classDefinition(e, "", key)
		}
	}
	return s.value(expr)
}
