package evaluator

import (
	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"

	"escore/pkg/parser"
	"escore/pkg/vm"
)

// functionDeclarationInstantiation binds the parameters, arguments object,
// var and lexical declarations and hoisted functions of f's code in the
// running callee context.
func (s *state) functionDeclarationInstantiation(f *vm.ECMAScriptFunction, args []vm.Value) error {
	a := s.a
	ctx := s.context()
	code := f.Code
	strict := code.Strict

	env := ctx.LexicalEnvironment
	if !strict && code.HasParameterExpressions {
		env = vm.NewDeclarativeEnvironment(env)
		ctx.LexicalEnvironment = env
	}

	for _, name := range code.ParameterNames {
		has, err := env.HasBinding(a, name)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if err := env.CreateMutableBinding(a, name, false); err != nil {
			return err
		}
		if code.HasDuplicates {
			if err := env.InitializeBinding(a, name, vm.Undefined); err != nil {
				return err
			}
		}
	}

	parameterBindings := make(map[string]bool, len(code.ParameterNames)+1)
	for _, name := range code.ParameterNames {
		parameterBindings[name] = true
	}
	if code.ArgumentsObjectNeeded {
		var ao *vm.Object
		if strict || !code.SimpleParameterList {
			ao = vm.CreateUnmappedArgumentsObject(a, args)
		} else {
			ao = vm.CreateMappedArgumentsObject(a, f.Object(), code.ParameterNames, args, env)
		}
		var err error
		if strict {
			err = env.CreateImmutableBinding(a, "arguments", false)
		} else {
			err = env.CreateMutableBinding(a, "arguments", false)
		}
		if err != nil {
			return err
		}
		if err := env.InitializeBinding(a, "arguments", vm.ObjectValue(ao)); err != nil {
			return err
		}
		parameterBindings["arguments"] = true
	}

	bindEnv := env
	if code.HasDuplicates {
		bindEnv = nil
	}
	if err := s.bindParameters(code, args, bindEnv); err != nil {
		return err
	}

	functionNames := make(map[string]bool, len(code.FunctionsToInitialize))
	for _, fn := range code.FunctionsToInitialize {
		functionNames[fn.Name.Name.String()] = true
	}

	var varEnv vm.Environment
	instantiated := make(map[string]bool, len(code.VarNames))
	if !code.HasParameterExpressions {
		for name := range parameterBindings {
			instantiated[name] = true
		}
		for _, name := range code.VarNames {
			if instantiated[name] {
				continue
			}
			instantiated[name] = true
			if err := env.CreateMutableBinding(a, name, false); err != nil {
				return err
			}
			if err := env.InitializeBinding(a, name, vm.Undefined); err != nil {
				return err
			}
		}
		varEnv = env
	} else {
		varEnv = vm.NewDeclarativeEnvironment(env)
		for _, name := range code.VarNames {
			if instantiated[name] {
				continue
			}
			instantiated[name] = true
			if err := varEnv.CreateMutableBinding(a, name, false); err != nil {
				return err
			}
			initial := vm.Undefined
			if parameterBindings[name] && !functionNames[name] {
				var err error
				if initial, err = env.GetBindingValue(a, name, false); err != nil {
					return err
				}
			}
			if err := varEnv.InitializeBinding(a, name, initial); err != nil {
				return err
			}
		}
	}
	ctx.VariableEnvironment = varEnv

	lexEnv := varEnv
	if !strict {
		lexEnv = vm.NewDeclarativeEnvironment(varEnv)
	}
	ctx.LexicalEnvironment = lexEnv
	for _, d := range code.LexicalDeclarations {
		for _, name := range d.Names {
			var err error
			if d.IsConstantDeclaration() {
				err = lexEnv.CreateImmutableBinding(a, name, true)
			} else {
				err = lexEnv.CreateMutableBinding(a, name, false)
			}
			if err != nil {
				return err
			}
		}
	}

	for _, fn := range code.FunctionsToInitialize {
		fo, err := vm.InstantiateFunctionObject(a, s.program, fn, lexEnv, ctx.PrivateEnvironment, strict)
		if err != nil {
			return err
		}
		if err := varEnv.SetMutableBinding(a, fn.Name.Name.String(), vm.ObjectValue(fo), false); err != nil {
			return err
		}
	}
	return nil
}

// bindParameters implements IteratorBindingInitialization of the formal
// parameters over the argument list.
func (s *state) bindParameters(code *parser.FunctionCode, args []vm.Value, env vm.Environment) error {
	next := 0
	fetch := func() (vm.Value, error) {
		v := vm.Undefined
		if next < len(args) {
			v = args[next]
		}
		next++
		return v, nil
	}
	for _, p := range code.Params {
		var el ast.Expression = p.Target
		if p.Initializer != nil {
			el = &ast.AssignExpression{Operator: token.ASSIGN, Left: p.Target, Right: p.Initializer}
		}
		if err := s.bindElement(el, env, fetch); err != nil {
			return err
		}
	}
	if code.Rest == nil {
		return nil
	}
	return s.bindElement(code.Rest, env, func() (vm.Value, error) {
		var rest []vm.Value
		if next < len(args) {
			rest = args[next:]
		}
		return vm.ObjectValue(vm.CreateArrayFromList(s.a, rest)), nil
	})
}

// functionExpression evaluates a function expression. A named expression
// closes over an environment holding an immutable binding of its own name;
// an anonymous one takes name from its NamedEvaluation context.
func (s *state) functionExpression(e *ast.FunctionLiteral, name vm.PropertyKey) (vm.Value, error) {
	a := s.a
	if e.Generator {
		return vm.Undefined, s.unsupported(e, "generators")
	}
	if e.Async {
		return vm.Undefined, s.unsupported(e, "async functions")
	}
	code := s.program.Function(e, s.strict)
	env := s.lexicalEnvironment()
	privateEnv := s.context().PrivateEnvironment
	proto := s.intrinsic("%Function.prototype%")

	if e.Name == nil {
		closure := vm.OrdinaryFunctionCreate(a, proto, s.program, code, env, privateEnv)
		vm.SetFunctionName(closure, name, "")
		vm.MakeConstructor(a, closure, true, nil)
		return vm.ObjectValue(closure), nil
	}

	ownName := e.Name.Name.String()
	funcEnv := vm.NewDeclarativeEnvironment(env)
	if err := funcEnv.CreateImmutableBinding(a, ownName, false); err != nil {
		return vm.Undefined, err
	}
	closure := vm.OrdinaryFunctionCreate(a, proto, s.program, code, funcEnv, privateEnv)
	vm.SetFunctionName(closure, vm.StringKey(ownName), "")
	vm.MakeConstructor(a, closure, true, nil)
	if err := funcEnv.InitializeBinding(a, ownName, vm.ObjectValue(closure)); err != nil {
		return vm.Undefined, err
	}
	return vm.ObjectValue(closure), nil
}

func (s *state) arrowFunction(e *ast.ArrowFunctionLiteral, name vm.PropertyKey) (vm.Value, error) {
	if e.Async {
		return vm.Undefined, s.unsupported(e, "async functions")
	}
	code := s.program.Function(e, s.strict)
	closure := vm.OrdinaryFunctionCreate(s.a, s.intrinsic("%Function.prototype%"), s.program, code, s.lexicalEnvironment(), s.context().PrivateEnvironment)
	vm.SetFunctionName(closure, name, "")
	return vm.ObjectValue(closure), nil
}

// method creates the closure of a method definition with home as its
// [[HomeObject]].
func (s *state) method(home *vm.Object, fn *ast.FunctionLiteral, proto *vm.Object) (*vm.Object, error) {
	if fn.Generator {
		return nil, s.unsupported(fn, "generators")
	}
	if fn.Async {
		return nil, s.unsupported(fn, "async functions")
	}
	code := s.program.Function(fn, s.strict)
	closure := vm.OrdinaryFunctionCreate(s.a, proto, s.program, code, s.lexicalEnvironment(), s.context().PrivateEnvironment)
	vm.MakeMethod(closure, home)
	return closure, nil
}

// defineMethodProperty implements MethodDefinitionEvaluation for methods,
// getters and setters of object literals and classes.
func (s *state) defineMethodProperty(home *vm.Object, key vm.PropertyKey, kind ast.PropertyKind, fn *ast.FunctionLiteral, enumerable bool) error {
	closure, err := s.method(home, fn, s.intrinsic("%Function.prototype%"))
	if err != nil {
		return err
	}
	var desc vm.PropertyDescriptor
	switch kind {
	case ast.PropertyKindGet:
		vm.SetFunctionName(closure, key, "get")
		desc = vm.PropertyDescriptor{}.WithGet(vm.ObjectValue(closure)).WithEnumerable(enumerable).WithConfigurable(true)
	case ast.PropertyKindSet:
		vm.SetFunctionName(closure, key, "set")
		desc = vm.PropertyDescriptor{}.WithSet(vm.ObjectValue(closure)).WithEnumerable(enumerable).WithConfigurable(true)
	default:
		vm.SetFunctionName(closure, key, "")
		desc = vm.DataDescriptor(vm.ObjectValue(closure), true, enumerable, true)
	}
	return vm.DefinePropertyOrThrow(s.a, home, key, desc)
}
