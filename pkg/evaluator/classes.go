package evaluator

import (
	"github.com/dop251/goja/ast"

	"escore/pkg/parser"
	"escore/pkg/vm"
)

// classDefinition implements ClassDefinitionEvaluation. bindingName is the
// inner binding of a named class and may be empty; className names the
// constructor.
func (s *state) classDefinition(e *ast.ClassLiteral, bindingName string, className vm.PropertyKey) (vm.Value, error) {
	a := s.a
	ctor, err := s.checkClassBody(e)
	if err != nil {
		return vm.Undefined, err
	}

	outerStrict := s.strict
	s.strict = true
	defer func() { s.strict = outerStrict }()

	ctx := s.context()
	env := ctx.LexicalEnvironment
	classEnv := vm.NewDeclarativeEnvironment(env)
	if bindingName != "" {
		if err := classEnv.CreateImmutableBinding(a, bindingName, true); err != nil {
			return vm.Undefined, err
		}
	}
	ctx.LexicalEnvironment = classEnv
	defer func() { ctx.LexicalEnvironment = env }()

	protoParent := s.intrinsic("%Object.prototype%")
	constructorParent := s.intrinsic("%Function.prototype%")
	derived := e.SuperClass != nil
	if derived {
		superclass, err := s.value(e.SuperClass)
		if err != nil {
			return vm.Undefined, err
		}
		switch {
		case superclass.IsNull():
			protoParent = nil
		case !vm.IsConstructor(superclass):
			return vm.Undefined, a.NewTypeError("Class extends value %s is not a constructor or null", superclass.Inspect())
		default:
			pp, err := vm.Get(a, superclass.AsObject(), vm.StringKey("prototype"))
			if err != nil {
				return vm.Undefined, err
			}
			switch {
			case pp.IsNull():
				protoParent = nil
			case pp.IsObject():
				protoParent = pp.AsObject()
			default:
				return vm.Undefined, a.NewTypeError("Class extends value does not have valid prototype property %s", pp.Inspect())
			}
			constructorParent = superclass.AsObject()
		}
	}
	proto := vm.OrdinaryObjectCreate(protoParent)

	var F *vm.Object
	if ctor != nil {
		code := s.program.Function(ctor.Body, true)
		F = vm.OrdinaryFunctionCreate(a, constructorParent, s.program, code, classEnv, ctx.PrivateEnvironment)
		vm.MakeMethod(F, proto)
		vm.MakeClassConstructor(F)
		vm.SetFunctionName(F, className, "")
		vm.MakeConstructor(a, F, false, proto)
		if derived {
			F.Impl().(*vm.ECMAScriptFunction).ConstructorKind = vm.ConstructorDerived
		}
	} else {
		F = s.defaultConstructor(derived, constructorParent, className)
		vm.MakeConstructor(a, F, false, proto)
	}
	if err := vm.CreateMethodProperty(a, proto, vm.StringKey("constructor"), vm.ObjectValue(F)); err != nil {
		return vm.Undefined, err
	}

	var instanceFields, staticFields []vm.ClassFieldDefinition
	for _, el := range e.Body {
		switch m := el.(type) {
		case *ast.MethodDefinition:
			if m == ctor {
				continue
			}
			home := proto
			if m.Static {
				home = F
			}
			key, err := s.propertyKey(m.Key, m.Computed)
			if err != nil {
				return vm.Undefined, err
			}
			if err := s.defineMethodProperty(home, key, m.Kind, m.Body, false); err != nil {
				return vm.Undefined, err
			}
		case *ast.FieldDefinition:
			home := proto
			if m.Static {
				home = F
			}
			field, err := s.classField(home, m)
			if err != nil {
				return vm.Undefined, err
			}
			if m.Static {
				staticFields = append(staticFields, field)
			} else {
				instanceFields = append(instanceFields, field)
			}
		}
	}

	if bindingName != "" {
		if err := classEnv.InitializeBinding(a, bindingName, vm.ObjectValue(F)); err != nil {
			return vm.Undefined, err
		}
	}
	vm.SetClassFields(F, instanceFields)

	for _, field := range staticFields {
		v := vm.Undefined
		if field.Initializer != nil {
			if v, err = vm.Call(a, vm.ObjectValue(field.Initializer), vm.ObjectValue(F), nil); err != nil {
				return vm.Undefined, err
			}
		}
		if err := vm.CreateDataPropertyOrThrow(a, F, field.Name, v); err != nil {
			return vm.Undefined, err
		}
	}
	debugPrintf("class %s: %d instance fields, %d static fields", className, len(instanceFields), len(staticFields))
	return vm.ObjectValue(F), nil
}

// checkClassBody finds the constructor method and rejects the class
// elements this evaluator does not implement.
func (s *state) checkClassBody(e *ast.ClassLiteral) (*ast.MethodDefinition, error) {
	var ctor *ast.MethodDefinition
	for _, el := range e.Body {
		switch m := el.(type) {
		case *ast.ClassStaticBlock:
			return nil, s.unsupported(m, "class static blocks")
		case *ast.FieldDefinition:
			if _, ok := m.Key.(*ast.PrivateIdentifier); ok {
				return nil, s.unsupported(m, "private names")
			}
		case *ast.MethodDefinition:
			if _, ok := m.Key.(*ast.PrivateIdentifier); ok {
				return nil, s.unsupported(m, "private names")
			}
			if !isConstructorMethod(m) {
				continue
			}
			if ctor != nil {
				return nil, s.a.NewSyntaxError("A class may only have one constructor")
			}
			ctor = m
		}
	}
	return ctor, nil
}

func isConstructorMethod(m *ast.MethodDefinition) bool {
	if m.Static || m.Computed || m.Kind != ast.PropertyKindMethod {
		return false
	}
	lit, ok := m.Key.(*ast.StringLiteral)
	return ok && lit.Value.String() == "constructor"
}

// defaultConstructor builds the implicit constructor of a class without
// one. Derived classes forward their arguments to the parent.
func (s *state) defaultConstructor(derived bool, parent *vm.Object, className vm.PropertyKey) *vm.Object {
	var F *vm.Object
	behaviour := func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		if newTarget == nil {
			return vm.Undefined, a.NewTypeError("Class constructor %s cannot be invoked without 'new'", fieldFunctionName(className))
		}
		var result *vm.Object
		if derived {
			superCtor, err := F.Impl().GetPrototypeOf(a)
			if err != nil {
				return vm.Undefined, err
			}
			if superCtor == nil || !vm.IsConstructor(vm.ObjectValue(superCtor)) {
				return vm.Undefined, a.NewTypeError("Super constructor %s of anonymous class is not a constructor", describeObject(superCtor))
			}
			v, err := vm.Construct(a, superCtor, args, newTarget)
			if err != nil {
				return vm.Undefined, err
			}
			result = v.AsObject()
		} else {
			var err error
			if result, err = vm.OrdinaryCreateFromConstructor(a, newTarget, "%Object.prototype%"); err != nil {
				return vm.Undefined, err
			}
		}
		if err := vm.InitializeInstanceElements(a, result, F); err != nil {
			return vm.Undefined, err
		}
		return vm.ObjectValue(result), nil
	}
	F = vm.CreateBuiltinFunction(s.realm(), behaviour, 0, className, parent)
	return F
}

// classField creates the initializer function of a field. The initializer
// is a method of home whose body is the initializer expression.
func (s *state) classField(home *vm.Object, fd *ast.FieldDefinition) (vm.ClassFieldDefinition, error) {
	key, err := s.propertyKey(fd.Key, fd.Computed)
	if err != nil {
		return vm.ClassFieldDefinition{}, err
	}
	field := vm.ClassFieldDefinition{Name: key}
	if fd.Initializer == nil {
		return field, nil
	}
	code := &parser.FunctionCode{
		Node:           fd,
		Name:           fieldFunctionName(key),
		ExpressionBody: fd.Initializer,
		Strict:         true,
	}
	init := vm.OrdinaryFunctionCreate(s.a, s.intrinsic("%Function.prototype%"), s.program, code, s.lexicalEnvironment(), s.context().PrivateEnvironment)
	vm.MakeMethod(init, home)
	field.Initializer = init
	return field, nil
}

// fieldFunctionName renders key the way SetFunctionName does.
func fieldFunctionName(key vm.PropertyKey) string {
	if !key.IsSymbol() {
		return key.Name()
	}
	desc := key.Symbol().Description()
	if desc.IsUndefined() {
		return ""
	}
	return "[" + desc.AsString() + "]"
}
