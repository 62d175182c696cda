package builtins

import (
	"math"
	"strings"

	"github.com/dop251/goja/ast"

	"escore/pkg/parser"
	"escore/pkg/source"
	"escore/pkg/vm"
)

type FunctionInitializer struct{}

func (f *FunctionInitializer) Name() string {
	return "Function"
}

func (f *FunctionInitializer) Priority() int {
	return PriorityFunction
}

func (f *FunctionInitializer) InitRuntime(ctx *RuntimeContext) error {
	proto := ctx.FunctionPrototype

	var ctor *vm.Object
	ctor = newConstructor(ctx, "Function", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		if newTarget == nil {
			newTarget = ctor
		}
		fn, err := createDynamicFunction(a, newTarget, args)
		if err != nil {
			return vm.Undefined, err
		}
		return vm.ObjectValue(fn), nil
	}, proto)

	defineMethod(ctx, proto, "call", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		if !vm.IsCallable(this) {
			return vm.Undefined, a.NewTypeError("Function.prototype.call called on non-function")
		}
		var rest []vm.Value
		if len(args) > 1 {
			rest = args[1:]
		}
		return vm.Call(a, this, arg(args, 0), rest)
	})

	defineMethod(ctx, proto, "apply", 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		if !vm.IsCallable(this) {
			return vm.Undefined, a.NewTypeError("Function.prototype.apply was called on %s, which is not a function", this.Inspect())
		}
		argArray := arg(args, 1)
		if argArray.IsNullish() {
			return vm.Call(a, this, arg(args, 0), nil)
		}
		list, err := vm.CreateListFromArrayLike(a, argArray)
		if err != nil {
			return vm.Undefined, err
		}
		return vm.Call(a, this, arg(args, 0), list)
	})

	defineMethod(ctx, proto, "bind", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		if !vm.IsCallable(this) {
			return vm.Undefined, a.NewTypeError("Bind must be called on a function")
		}
		target := this.AsObject()
		var boundArgs []vm.Value
		if len(args) > 1 {
			boundArgs = args[1:]
		}
		bound, err := vm.BoundFunctionCreate(a, target, arg(args, 0), boundArgs)
		if err != nil {
			return vm.Undefined, err
		}
		length := 0.0
		hasLength, err := vm.HasOwnProperty(a, target, vm.StringKey("length"))
		if err != nil {
			return vm.Undefined, err
		}
		if hasLength {
			targetLen, err := vm.Get(a, target, vm.StringKey("length"))
			if err != nil {
				return vm.Undefined, err
			}
			if targetLen.IsNumber() {
				if n := targetLen.AsNumber(); math.IsInf(n, 1) {
					length = n
				} else if !math.IsInf(n, -1) {
					l, _ := vm.ToIntegerOrInfinity(a, targetLen)
					length = math.Max(0, l-float64(len(boundArgs)))
				}
			}
		}
		bound.DefineDataProperty(vm.StringKey("length"), vm.NumberValue(length), false, false, true)
		name, err := vm.Get(a, target, vm.StringKey("name"))
		if err != nil {
			return vm.Undefined, err
		}
		if !name.IsString() {
			name = vm.StringValue("")
		}
		vm.SetFunctionName(bound, vm.StringKey(name.AsString()), "bound")
		return vm.ObjectValue(bound), nil
	})

	defineMethod(ctx, proto, "toString", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		if !this.IsObject() {
			return vm.Undefined, a.NewTypeError("Function.prototype.toString requires that 'this' be a Function")
		}
		switch fn := this.AsObject().Impl().(type) {
		case *vm.ECMAScriptFunction:
			if fn.SourceText != "" {
				return vm.StringValue(fn.SourceText), nil
			}
		}
		if !vm.IsCallable(this) {
			return vm.Undefined, a.NewTypeError("Function.prototype.toString requires that 'this' be a Function")
		}
		name, _ := this.AsObject().OwnDataValue(vm.StringKey("name"))
		if !name.IsString() {
			name = vm.StringValue("")
		}
		return vm.StringValue("function " + name.AsString() + "() { [native code] }"), nil
	})

	hasInstance := vm.CreateBuiltinFunction(ctx.Realm, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		ok, err := vm.OrdinaryHasInstance(a, this, arg(args, 0))
		return vm.BooleanValue(ok), err
	}, 1, vm.SymbolKey(vm.SymHasInstance), proto)
	proto.DefineDataProperty(vm.SymbolKey(vm.SymHasInstance), vm.ObjectValue(hasInstance), false, false, false)

	return ctx.DefineGlobal("Function", vm.ObjectValue(ctor))
}

// createDynamicFunction implements the Function constructor: the
// parameters and body are parsed as a function expression and closed over
// the global environment.
func createDynamicFunction(a *vm.Agent, newTarget *vm.Object, args []vm.Value) (*vm.Object, error) {
	realm := a.CurrentRealm()
	if err := a.Host.EnsureCanCompileStrings(a, realm); err != nil {
		return nil, err
	}
	var params []string
	body := ""
	for i, v := range args {
		s, err := vm.ToString(a, v)
		if err != nil {
			return nil, err
		}
		if i == len(args)-1 {
			body = s
		} else {
			params = append(params, s)
		}
	}
	text := "(function anonymous(" + strings.Join(params, ",") + "\n) {\n" + body + "\n})"
	prog, err := parser.Parse(source.NewEvalSource(text), parser.GoalScript, parser.Options{})
	if err != nil {
		return nil, a.NewSyntaxError("%s", err.Error())
	}
	lit := dynamicFunctionLiteral(prog)
	if lit == nil {
		return nil, a.NewSyntaxError("Invalid function body")
	}
	if lit.Async || lit.Generator {
		return nil, a.NewSyntaxError("generator and async functions are not supported")
	}
	proto, err := vm.GetPrototypeFromConstructor(a, newTarget, "%Function.prototype%")
	if err != nil {
		return nil, err
	}
	code := prog.Function(lit, false)
	f := vm.OrdinaryFunctionCreate(a, proto, prog, code, realm.GlobalEnv, nil)
	vm.SetFunctionName(f, vm.StringKey("anonymous"), "")
	vm.MakeConstructor(a, f, true, nil)
	return f, nil
}

// dynamicFunctionLiteral returns the single function expression of a
// parsed dynamic function, or nil when the body escaped it.
func dynamicFunctionLiteral(prog *parser.Program) *ast.FunctionLiteral {
	if len(prog.AST.Body) != 1 {
		return nil
	}
	stmt, ok := prog.AST.Body[0].(*ast.ExpressionStatement)
	if !ok {
		return nil
	}
	lit, _ := stmt.Expression.(*ast.FunctionLiteral)
	return lit
}
