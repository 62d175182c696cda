package vm

import (
	"testing"
)

func TestDeclarativeBindingLifecycle(t *testing.T) {
	a, _ := newTestAgent(t)
	env := NewDeclarativeEnvironment(nil)

	if has, _ := env.HasBinding(a, "x"); has {
		t.Errorf("expected no binding before creation")
	}
	if err := env.CreateMutableBinding(a, "x", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := env.CreateMutableBinding(a, "x", false); err == nil {
		t.Errorf("expected duplicate creation to fail")
	}
	if _, err := env.GetBindingValue(a, "x", true); err == nil {
		t.Errorf("expected read of uninitialized binding to fail")
	}
	if err := env.SetMutableBinding(a, "x", IntValue(1), false); err == nil {
		t.Errorf("expected write of uninitialized binding to fail")
	}
	if err := env.InitializeBinding(a, "x", IntValue(2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := env.InitializeBinding(a, "x", IntValue(2)); err == nil {
		t.Errorf("expected double initialization to fail")
	}
	if err := env.SetMutableBinding(a, "x", IntValue(3), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := env.GetBindingValue(a, "x", true)
	if err != nil || !SameValue(v, IntValue(3)) {
		t.Errorf("expected 3, got %s (err %v)", v.Inspect(), err)
	}
}

func TestDeclarativeBindingNames(t *testing.T) {
	a, _ := newTestAgent(t)
	env := NewDeclarativeEnvironment(nil)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := env.CreateMutableBinding(a, name, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	got := env.BindingNames()
	want := []string{"alpha", "mid", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
			break
		}
	}
}

func TestDeclarativeImmutableBinding(t *testing.T) {
	a, _ := newTestAgent(t)
	env := NewDeclarativeEnvironment(nil)
	env.CreateImmutableBinding(a, "c", true)
	env.InitializeBinding(a, "c", IntValue(1))

	for _, strict := range []bool{true, false} {
		err := env.SetMutableBinding(a, "c", IntValue(2), strict)
		if err == nil {
			t.Errorf("expected immutable write to fail (strict=%v)", strict)
			continue
		}
		exc, ok := AsException(err)
		if !ok {
			t.Fatalf("expected *Exception, got %T", err)
		}
		if name, _ := ErrorNameAndMessage(exc.Value()); name != "ReferenceError" {
			t.Errorf("expected ReferenceError, got %s", name)
		}
	}
	if v, _ := env.GetBindingValue(a, "c", true); !SameValue(v, IntValue(1)) {
		t.Errorf("expected value to stay 1, got %s", v.Inspect())
	}
}

func TestDeclarativeSetAbsentNeverCreates(t *testing.T) {
	a, _ := newTestAgent(t)
	env := NewDeclarativeEnvironment(nil)
	if err := env.SetMutableBinding(a, "ghost", True, false); err == nil {
		t.Errorf("expected write to absent binding to fail")
	}
	if has, _ := env.HasBinding(a, "ghost"); has {
		t.Errorf("expected no binding to be created")
	}
}

func TestDeclarativeDeleteBinding(t *testing.T) {
	a, _ := newTestAgent(t)
	env := NewDeclarativeEnvironment(nil)
	env.CreateMutableBinding(a, "fixed", false)
	env.CreateMutableBinding(a, "loose", true)
	if ok, _ := env.DeleteBinding(a, "fixed"); ok {
		t.Errorf("expected non-deletable binding to stay")
	}
	if ok, _ := env.DeleteBinding(a, "loose"); !ok {
		t.Errorf("expected deletable binding to be removed")
	}
	if has, _ := env.HasBinding(a, "loose"); has {
		t.Errorf("expected deleted binding to be gone")
	}
}

func TestFunctionEnvironmentThisBinding(t *testing.T) {
	a, realm := newTestAgent(t)
	f := &Object{}
	fn := &ECMAScriptFunction{ThisMode: ThisModeStrict, Realm: realm}
	fn.init(f, nil, "Function")
	f.impl = fn

	env := NewFunctionEnvironment(f, Undefined)
	if !env.HasThisBinding() {
		t.Errorf("expected non-arrow function environment to have a this binding")
	}
	if env.HasSuperBinding() {
		t.Errorf("expected no super binding without a home object")
	}
	if _, err := env.GetThisBinding(a); err == nil {
		t.Errorf("expected uninitialized this to throw")
	}
	if _, err := env.BindThisValue(a, IntValue(1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := env.BindThisValue(a, IntValue(2)); err == nil {
		t.Errorf("expected second BindThisValue to fail")
	}
	if v, _ := env.GetThisBinding(a); !SameValue(v, IntValue(1)) {
		t.Errorf("expected this 1, got %s", v.Inspect())
	}

	home := OrdinaryObjectCreate(realm.Intrinsic("%Object.prototype%"))
	MakeMethod(f, home)
	if !env.HasSuperBinding() {
		t.Errorf("expected super binding with a home object")
	}
	base, _ := env.GetSuperBase(a)
	if base.AsObject() != realm.Intrinsic("%Object.prototype%") {
		t.Errorf("expected super base to be the home object's prototype")
	}

	arrow := &Object{}
	arrowFn := &ECMAScriptFunction{ThisMode: ThisModeLexical, Realm: realm}
	arrowFn.init(arrow, nil, "Function")
	arrow.impl = arrowFn
	if NewFunctionEnvironment(arrow, Undefined).HasThisBinding() {
		t.Errorf("expected arrow function environment to have no this binding")
	}
}

func TestObjectEnvironmentUnscopables(t *testing.T) {
	a, _ := newTestAgent(t)
	o := OrdinaryObjectCreate(nil)
	o.DefineDataProperty(StringKey("visible"), IntValue(1), true, true, true)
	o.DefineDataProperty(StringKey("hidden"), IntValue(2), true, true, true)
	unscopables := OrdinaryObjectCreate(nil)
	unscopables.DefineDataProperty(StringKey("hidden"), True, true, true, true)
	o.DefineDataProperty(SymbolKey(SymUnscopables), ObjectValue(unscopables), true, false, true)

	with := NewObjectEnvironment(o, true, nil)
	if has, _ := with.HasBinding(a, "visible"); !has {
		t.Errorf("expected visible binding")
	}
	if has, _ := with.HasBinding(a, "hidden"); has {
		t.Errorf("expected unscopable property to be hidden")
	}
	if !SameValue(with.WithBaseObject(), ObjectValue(o)) {
		t.Errorf("expected with base object to be the binding object")
	}

	plain := NewObjectEnvironment(o, false, nil)
	if has, _ := plain.HasBinding(a, "hidden"); !has {
		t.Errorf("expected non-with environment to ignore unscopables")
	}
	if !plain.WithBaseObject().IsUndefined() {
		t.Errorf("expected undefined with base object")
	}
}

func TestObjectEnvironmentStrictMissing(t *testing.T) {
	a, _ := newTestAgent(t)
	env := NewObjectEnvironment(OrdinaryObjectCreate(nil), false, nil)
	if _, err := env.GetBindingValue(a, "nope", true); err == nil {
		t.Errorf("expected strict read of missing property to fail")
	}
	if v, err := env.GetBindingValue(a, "nope", false); err != nil || !v.IsUndefined() {
		t.Errorf("expected sloppy read of missing property to be undefined")
	}
	if err := env.SetMutableBinding(a, "nope", True, true); err == nil {
		t.Errorf("expected strict write of missing property to fail")
	}
}

func TestGlobalEnvironmentVarAndLexical(t *testing.T) {
	a, realm := newTestAgent(t)
	env := realm.GlobalEnv
	g := realm.GlobalObject

	if err := env.CreateGlobalVarBinding(a, "v", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := env.CreateGlobalVarBinding(a, "v", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	desc := OrdinaryGetOwnProperty(g, StringKey("v"))
	if desc == nil || desc.Configurable || !desc.Writable || !desc.Enumerable {
		t.Errorf("expected non-configurable writable enumerable global property, got %+v", desc)
	}
	count := 0
	for _, n := range env.VarNames() {
		if n == "v" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected v registered once, got %d", count)
	}
	if !env.HasVarDeclaration("v") {
		t.Errorf("expected HasVarDeclaration(v)")
	}

	if err := env.CreateMutableBinding(a, "l", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !env.HasLexicalDeclaration("l") {
		t.Errorf("expected HasLexicalDeclaration(l)")
	}
	if g.HasOwnStored(StringKey("l")) {
		t.Errorf("expected lexical global to be absent from the global object")
	}
	if err := env.CreateMutableBinding(a, "l", false); err == nil {
		t.Errorf("expected redeclaration to fail")
	}

	restricted, _ := env.HasRestrictedGlobalProperty(a, "undefined")
	if !restricted {
		t.Errorf("expected undefined to be a restricted global property")
	}
}

func TestGlobalEnvironmentCanDeclare(t *testing.T) {
	a, realm := newTestAgent(t)
	env := realm.GlobalEnv
	g := realm.GlobalObject
	g.DefineDataProperty(StringKey("frozen"), True, false, false, false)
	g.DefineDataProperty(StringKey("open"), True, true, true, false)

	tests := []struct {
		name string
		want bool
	}{
		{"absent", true},
		{"frozen", false},
		{"open", true},
		{"NaN", false},
	}
	for _, tt := range tests {
		got, err := env.CanDeclareGlobalFunction(a, tt.name)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Errorf("CanDeclareGlobalFunction(%s): expected %v, got %v", tt.name, tt.want, got)
		}
	}

	g.impl.PreventExtensions(a)
	if ok, _ := env.CanDeclareGlobalVar(a, "absent"); ok {
		t.Errorf("expected var declaration on non-extensible global to fail")
	}
	if ok, _ := env.CanDeclareGlobalVar(a, "frozen"); !ok {
		t.Errorf("expected existing property to allow var declaration")
	}
}

func TestGlobalEnvironmentDeleteVar(t *testing.T) {
	a, realm := newTestAgent(t)
	env := realm.GlobalEnv
	env.CreateGlobalVarBinding(a, "gone", true)
	ok, err := env.DeleteBinding(a, "gone")
	if err != nil || !ok {
		t.Fatalf("expected deletable var to be removed, got %v, %v", ok, err)
	}
	if env.HasVarDeclaration("gone") {
		t.Errorf("expected var name to be unregistered")
	}
}

func TestGetIdentifierReference(t *testing.T) {
	a, realm := newTestAgent(t)
	outer := NewDeclarativeEnvironment(realm.GlobalEnv)
	outer.CreateMutableBinding(a, "x", false)
	outer.InitializeBinding(a, "x", IntValue(1))
	inner := NewDeclarativeEnvironment(outer)

	ref, err := GetIdentifierReference(a, inner, "x", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.IsUnresolvable() || ref.Environment() != Environment(outer) {
		t.Errorf("expected reference bound to the outer environment")
	}
	v, err := ref.GetValue(a)
	if err != nil || !SameValue(v, IntValue(1)) {
		t.Errorf("expected 1, got %s (err %v)", v.Inspect(), err)
	}

	missing, _ := GetIdentifierReference(a, inner, "missing", true)
	if !missing.IsUnresolvable() {
		t.Errorf("expected unresolvable reference")
	}
	if _, err := missing.GetValue(a); err == nil {
		t.Errorf("expected reading an unresolvable reference to fail")
	}
}
