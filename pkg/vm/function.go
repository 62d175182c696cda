package vm

import (
	"github.com/dop251/goja/ast"

	"escore/pkg/parser"
)

type ThisMode uint8

const (
	ThisModeLexical ThisMode = iota
	ThisModeStrict
	ThisModeGlobal
)

type ConstructorKind uint8

const (
	ConstructorBase ConstructorKind = iota
	ConstructorDerived
)

// ECMAScriptFunction is a function object whose body is source code.
type ECMAScriptFunction struct {
	OrdinaryObject

	Environment        Environment
	PrivateEnvironment *PrivateEnvironment
	Code               *parser.FunctionCode
	Program            *parser.Program
	ThisMode           ThisMode
	Strict             bool
	ConstructorKind    ConstructorKind
	HomeObject         *Object
	IsClassConstructor bool
	Realm              *Realm
	ScriptOrModule     *Script
	SourceText         string

	// Fields holds the instance field initializers of a class constructor.
	Fields []ClassFieldDefinition

	constructor bool
}

// ClassFieldDefinition is one instance field of a class. Initializer is
// nil when the field has no initializer.
type ClassFieldDefinition struct {
	Name        PropertyKey
	Initializer *Object
}

func (f *ECMAScriptFunction) IsConstructor() bool { return f.constructor }

// Call implements [[Call]] for ECMAScript function objects.
func (f *ECMAScriptFunction) Call(a *Agent, this Value, args []Value) (Value, error) {
	calleeContext, err := PrepareForOrdinaryCall(a, f.obj, Undefined)
	if err != nil {
		return Undefined, err
	}
	defer a.PopContext(calleeContext)

	if f.IsClassConstructor {
		return Undefined, a.NewTypeError("Class constructor %s cannot be invoked without 'new'", functionName(f.obj))
	}
	if err := OrdinaryCallBindThis(a, f.obj, calleeContext, this); err != nil {
		return Undefined, err
	}
	result := a.Evaluator.EvaluateBody(a, f, args)
	switch result.Type {
	case CompletionReturn:
		return result.Value, nil
	case CompletionThrow:
		return Undefined, result.Err()
	}
	return Undefined, nil
}

// Construct implements [[Construct]] for base and derived constructors.
func (f *ECMAScriptFunction) Construct(a *Agent, args []Value, newTarget *Object) (Value, error) {
	var thisArgument *Object
	if f.ConstructorKind == ConstructorBase {
		var err error
		thisArgument, err = OrdinaryCreateFromConstructor(a, newTarget, "%Object.prototype%")
		if err != nil {
			return Undefined, err
		}
	}
	calleeContext, err := PrepareForOrdinaryCall(a, f.obj, ObjectValue(newTarget))
	if err != nil {
		return Undefined, err
	}
	defer a.PopContext(calleeContext)

	if f.ConstructorKind == ConstructorBase {
		if err := OrdinaryCallBindThis(a, f.obj, calleeContext, ObjectValue(thisArgument)); err != nil {
			return Undefined, err
		}
		if err := InitializeInstanceElements(a, thisArgument, f.obj); err != nil {
			return Undefined, err
		}
	}
	constructorEnv := calleeContext.LexicalEnvironment.(*FunctionEnvironment)

	result := a.Evaluator.EvaluateBody(a, f, args)
	switch result.Type {
	case CompletionReturn:
		if result.Value.IsObject() {
			return result.Value, nil
		}
		if f.ConstructorKind == ConstructorBase {
			return ObjectValue(thisArgument), nil
		}
		if !result.Value.IsUndefined() {
			return Undefined, a.NewTypeError("Derived constructors may only return object or undefined")
		}
	case CompletionThrow:
		return Undefined, result.Err()
	}
	return constructorEnv.GetThisBinding(a)
}

// PrepareForOrdinaryCall pushes a fresh context for a call of f.
func PrepareForOrdinaryCall(a *Agent, f *Object, newTarget Value) (*ExecutionContext, error) {
	fn := f.impl.(*ECMAScriptFunction)
	localEnv := NewFunctionEnvironment(f, newTarget)
	ctx := &ExecutionContext{
		Function:            f,
		Realm:               fn.Realm,
		ScriptOrModule:      fn.ScriptOrModule,
		LexicalEnvironment:  localEnv,
		VariableEnvironment: localEnv,
		PrivateEnvironment:  fn.PrivateEnvironment,
	}
	if err := a.PushContext(ctx); err != nil {
		return nil, err
	}
	return ctx, nil
}

// OrdinaryCallBindThis binds this for non-arrow functions. Sloppy
// functions see the global this for nullish values and wrapper objects
// for primitives.
func OrdinaryCallBindThis(a *Agent, f *Object, ctx *ExecutionContext, this Value) error {
	fn := f.impl.(*ECMAScriptFunction)
	if fn.ThisMode == ThisModeLexical {
		return nil
	}
	thisValue := this
	if fn.ThisMode == ThisModeGlobal {
		if this.IsNullish() {
			thisValue = fn.Realm.GlobalEnv.GetThisBinding()
		} else {
			o, err := ToObject(a, this)
			if err != nil {
				return err
			}
			thisValue = ObjectValue(o)
		}
	}
	_, err := ctx.LexicalEnvironment.(*FunctionEnvironment).BindThisValue(a, thisValue)
	return err
}

// InitializeInstanceElements defines the class fields of constructor on o.
func InitializeInstanceElements(a *Agent, o *Object, constructor *Object) error {
	for _, field := range ClassFields(constructor) {
		v := Undefined
		if field.Initializer != nil {
			var err error
			if v, err = Call(a, ObjectValue(field.Initializer), ObjectValue(o), nil); err != nil {
				return err
			}
		}
		if err := CreateDataPropertyOrThrow(a, o, field.Name, v); err != nil {
			return err
		}
	}
	return nil
}

// OrdinaryFunctionCreate allocates an ECMAScript function object for code
// closing over env.
func OrdinaryFunctionCreate(a *Agent, proto *Object, program *parser.Program, code *parser.FunctionCode, env Environment, privateEnv *PrivateEnvironment) *Object {
	obj := &Object{}
	fn := &ECMAScriptFunction{
		Environment:        env,
		PrivateEnvironment: privateEnv,
		Code:               code,
		Program:            program,
		Strict:             code.Strict,
		Realm:              a.CurrentRealm(),
		ScriptOrModule:     a.GetActiveScriptOrModule(),
		SourceText:         code.Source,
	}
	fn.init(obj, proto, "Function")
	obj.impl = fn
	switch {
	case code.Arrow:
		fn.ThisMode = ThisModeLexical
	case code.Strict:
		fn.ThisMode = ThisModeStrict
	default:
		fn.ThisMode = ThisModeGlobal
	}
	SetFunctionLength(obj, code.ExpectedArgumentCount)
	return obj
}

// MakeConstructor gives f a prototype property. When prototype is nil a
// fresh object whose constructor property points back at f is created.
func MakeConstructor(a *Agent, f *Object, writablePrototype bool, prototype *Object) {
	switch fn := f.impl.(type) {
	case *ECMAScriptFunction:
		fn.constructor = true
		fn.ConstructorKind = ConstructorBase
	case *BuiltinFunction:
		fn.constructor = true
	}
	if prototype == nil {
		prototype = OrdinaryObjectCreate(a.CurrentRealm().Intrinsic("%Object.prototype%"))
		prototype.DefineDataProperty(StringKey("constructor"), ObjectValue(f), writablePrototype, false, true)
	}
	f.DefineDataProperty(StringKey("prototype"), ObjectValue(prototype), writablePrototype, false, false)
}

// MakeClassConstructor marks f as a class constructor. Default class
// constructors are builtins and check new.target themselves.
func MakeClassConstructor(f *Object) {
	if fn, ok := f.impl.(*ECMAScriptFunction); ok {
		fn.IsClassConstructor = true
	}
}

// ClassFields returns the instance fields recorded on a class constructor.
func ClassFields(f *Object) []ClassFieldDefinition {
	switch fn := f.impl.(type) {
	case *ECMAScriptFunction:
		return fn.Fields
	case *BuiltinFunction:
		return fn.Fields
	}
	return nil
}

// SetClassFields records the instance fields of a class constructor.
func SetClassFields(f *Object, fields []ClassFieldDefinition) {
	switch fn := f.impl.(type) {
	case *ECMAScriptFunction:
		fn.Fields = fields
	case *BuiltinFunction:
		fn.Fields = fields
	}
}

// MakeMethod sets the home object used by super property lookups.
func MakeMethod(f *Object, homeObject *Object) {
	f.impl.(*ECMAScriptFunction).HomeObject = homeObject
}

// SetFunctionName defines the name property. Symbol names are rendered as
// "[description]"; prefix is "get", "set" or empty.
func SetFunctionName(f *Object, name PropertyKey, prefix string) {
	s := name.Name()
	if name.IsSymbol() {
		desc := name.Symbol().Description()
		if desc.IsUndefined() {
			s = ""
		} else {
			s = "[" + desc.str + "]"
		}
	}
	if prefix != "" {
		s = prefix + " " + s
	}
	if b, ok := f.impl.(*BuiltinFunction); ok {
		b.InitialName = StringValue(s)
	}
	f.DefineDataProperty(StringKey("name"), StringValue(s), false, false, true)
}

func SetFunctionLength(f *Object, length int) {
	f.DefineDataProperty(StringKey("length"), IntValue(length), false, false, true)
}

// InstantiateFunctionObject creates the function object of a function
// declaration.
func InstantiateFunctionObject(a *Agent, program *parser.Program, node *ast.FunctionLiteral, env Environment, privateEnv *PrivateEnvironment, outerStrict bool) (*Object, error) {
	if node.Async || node.Generator {
		return nil, a.NewSyntaxError("generator and async functions are not supported")
	}
	code := program.Function(node, outerStrict)
	name := code.Name
	if name == "" {
		name = "default"
	}
	f := OrdinaryFunctionCreate(a, a.CurrentRealm().Intrinsic("%Function.prototype%"), program, code, env, privateEnv)
	SetFunctionName(f, StringKey(name), "")
	MakeConstructor(a, f, true, nil)
	return f, nil
}

// NativeFunc is the behaviour of a builtin function. newTarget is nil for
// [[Call]].
type NativeFunc func(a *Agent, this Value, args []Value, newTarget *Object) (Value, error)

// BuiltinFunction is a function object implemented in Go.
type BuiltinFunction struct {
	OrdinaryObject

	Behaviour   NativeFunc
	Realm       *Realm
	InitialName Value

	// Fields is set when the builtin is a default class constructor.
	Fields []ClassFieldDefinition

	constructor bool
}

func (f *BuiltinFunction) IsConstructor() bool { return f.constructor }

func (f *BuiltinFunction) Call(a *Agent, this Value, args []Value) (Value, error) {
	ctx := &ExecutionContext{Function: f.obj, Realm: f.Realm}
	if err := a.PushContext(ctx); err != nil {
		return Undefined, err
	}
	defer a.PopContext(ctx)
	return f.Behaviour(a, this, args, nil)
}

func (f *BuiltinFunction) Construct(a *Agent, args []Value, newTarget *Object) (Value, error) {
	ctx := &ExecutionContext{Function: f.obj, Realm: f.Realm}
	if err := a.PushContext(ctx); err != nil {
		return Undefined, err
	}
	defer a.PopContext(ctx)
	return f.Behaviour(a, Undefined, args, newTarget)
}

// CreateBuiltinFunction allocates a builtin with the realm's
// %Function.prototype% as prototype, or proto when given.
func CreateBuiltinFunction(realm *Realm, behaviour NativeFunc, length int, name PropertyKey, proto *Object) *Object {
	if proto == nil {
		proto = realm.Intrinsic("%Function.prototype%")
	}
	obj := &Object{}
	fn := &BuiltinFunction{Behaviour: behaviour, Realm: realm}
	fn.init(obj, proto, "Function")
	obj.impl = fn
	SetFunctionLength(obj, length)
	SetFunctionName(obj, name, "")
	return obj
}

// MakeBuiltinConstructor marks a builtin as having [[Construct]].
func MakeBuiltinConstructor(f *Object) {
	f.impl.(*BuiltinFunction).constructor = true
}

// GetFunctionRealm returns the realm a constructor was created in,
// looking through bound functions and proxies.
func GetFunctionRealm(a *Agent, f *Object) (*Realm, error) {
	switch fn := f.impl.(type) {
	case *ECMAScriptFunction:
		return fn.Realm, nil
	case *BuiltinFunction:
		return fn.Realm, nil
	case *BoundFunction:
		return GetFunctionRealm(a, fn.TargetFunction)
	case *ProxyObject:
		if fn.handler == nil {
			return nil, a.NewTypeError("Cannot perform operation on a revoked proxy")
		}
		return GetFunctionRealm(a, fn.target)
	}
	return a.CurrentRealm(), nil
}

// GetPrototypeFromConstructor reads constructor.prototype, falling back to
// the named intrinsic of the constructor's realm.
func GetPrototypeFromConstructor(a *Agent, constructor *Object, intrinsicDefaultProto string) (*Object, error) {
	proto, err := Get(a, constructor, StringKey("prototype"))
	if err != nil {
		return nil, err
	}
	if proto.IsObject() {
		return proto.obj, nil
	}
	realm, err := GetFunctionRealm(a, constructor)
	if err != nil {
		return nil, err
	}
	return realm.Intrinsic(intrinsicDefaultProto), nil
}

func OrdinaryCreateFromConstructor(a *Agent, constructor *Object, intrinsicDefaultProto string) (*Object, error) {
	proto, err := GetPrototypeFromConstructor(a, constructor, intrinsicDefaultProto)
	if err != nil {
		return nil, err
	}
	return OrdinaryObjectCreate(proto), nil
}

func functionName(f *Object) string {
	if v, ok := f.OwnDataValue(StringKey("name")); ok && v.IsString() && v.str != "" {
		return v.str
	}
	return "anonymous"
}
