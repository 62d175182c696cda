package vm

import (
	"testing"
)

func TestPropertyReference(t *testing.T) {
	a, realm := newTestAgent(t)
	o := OrdinaryObjectCreate(realm.Intrinsic("%Object.prototype%"))
	ref := NewPropertyReference(ObjectValue(o), StringKey("p"), true)

	if err := PutValue(a, ref, IntValue(7)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := GetValue(a, ref)
	if err != nil || !SameValue(v, IntValue(7)) {
		t.Errorf("expected 7, got %s (err %v)", v.Inspect(), err)
	}

	o.DefineDataProperty(StringKey("ro"), IntValue(1), false, true, true)
	strictRO := NewPropertyReference(ObjectValue(o), StringKey("ro"), true)
	if err := strictRO.PutValue(a, IntValue(2)); err == nil {
		t.Errorf("expected strict write to read-only property to fail")
	} else if name := errorName(t, err); name != "TypeError" {
		t.Errorf("expected TypeError, got %s", name)
	}
	sloppyRO := NewPropertyReference(ObjectValue(o), StringKey("ro"), false)
	if err := sloppyRO.PutValue(a, IntValue(2)); err != nil {
		t.Errorf("expected sloppy write to read-only property to be ignored, got %v", err)
	}
	if v, _ := o.OwnDataValue(StringKey("ro")); !SameValue(v, IntValue(1)) {
		t.Errorf("expected read-only value to stay 1, got %s", v.Inspect())
	}
}

func TestPrimitiveBaseReference(t *testing.T) {
	a, _ := newTestAgent(t)
	ref := NewPropertyReference(StringValue("abc"), StringKey("length"), true)
	v, err := ref.GetValue(a)
	if err != nil || !SameValue(v, IntValue(3)) {
		t.Errorf("expected 3, got %s (err %v)", v.Inspect(), err)
	}
	idx := NewPropertyReference(StringValue("abc"), IndexKey(1), true)
	if v, _ := idx.GetValue(a); !SameValue(v, StringValue("b")) {
		t.Errorf("expected \"b\", got %s", v.Inspect())
	}

	nullRef := NewPropertyReference(Null, StringKey("x"), false)
	if _, err := nullRef.GetValue(a); err == nil {
		t.Errorf("expected property read on null to fail")
	}
}

func TestUnresolvableReferencePut(t *testing.T) {
	a, realm := newTestAgent(t)

	strict, _ := GetIdentifierReference(a, realm.GlobalEnv, "leak", true)
	if err := strict.PutValue(a, True); err == nil {
		t.Errorf("expected strict write to undeclared name to fail")
	} else if name := errorName(t, err); name != "ReferenceError" {
		t.Errorf("expected ReferenceError, got %s", name)
	}
	if realm.GlobalObject.HasOwnStored(StringKey("leak")) {
		t.Errorf("expected no global property after a strict write")
	}

	sloppy, _ := GetIdentifierReference(a, NewDeclarativeEnvironment(nil), "leak", false)
	if !sloppy.IsUnresolvable() {
		t.Fatalf("expected unresolvable reference")
	}
	if err := sloppy.PutValue(a, True); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	desc := OrdinaryGetOwnProperty(realm.GlobalObject, StringKey("leak"))
	if desc == nil || !desc.Configurable || !desc.Writable || !desc.Enumerable {
		t.Errorf("expected a configurable global property, got %+v", desc)
	}
}

func TestSuperReferenceThisValue(t *testing.T) {
	a, realm := newTestAgent(t)
	proto := OrdinaryObjectCreate(realm.Intrinsic("%Object.prototype%"))
	receiver := OrdinaryObjectCreate(nil)
	getter := CreateBuiltinFunction(realm, func(a *Agent, this Value, args []Value, newTarget *Object) (Value, error) {
		return this, nil
	}, 0, StringKey("self"), nil)
	proto.DefineAccessorProperty(StringKey("self"), ObjectValue(getter), Undefined, false, true)

	ref := NewSuperReference(ObjectValue(proto), StringKey("self"), ObjectValue(receiver), true)
	if !ref.IsSuperReference() {
		t.Errorf("expected super reference")
	}
	v, err := ref.GetValue(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.AsObject() != receiver {
		t.Errorf("expected the getter to see the this value, got %s", v.Inspect())
	}
}

func TestPutValueOnValue(t *testing.T) {
	a, _ := newTestAgent(t)
	if err := PutValue(a, IntValue(1), IntValue(2)); err == nil {
		t.Errorf("expected PutValue on a plain value to fail")
	}
	v, err := GetValue(a, IntValue(1))
	if err != nil || !SameValue(v, IntValue(1)) {
		t.Errorf("expected GetValue on a value to return it")
	}
}

func TestAgentStack(t *testing.T) {
	a, realm := newTestAgent(t)
	base := a.RunningContext()
	if base == nil || base.Realm != realm {
		t.Fatalf("expected the realm context to stay pushed")
	}
	ctx := &ExecutionContext{Realm: realm, LexicalEnvironment: realm.GlobalEnv, VariableEnvironment: realm.GlobalEnv}
	if err := a.PushContext(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.RunningContext() != ctx {
		t.Errorf("expected pushed context to be running")
	}
	this, err := a.ResolveThisBinding()
	if err != nil || this.AsObject() != realm.GlobalObject {
		t.Errorf("expected global this, got %s", this.Inspect())
	}
	a.PopContext(ctx)
	if a.RunningContext() != base {
		t.Errorf("expected base context after pop")
	}

	defer func() {
		if recover() == nil {
			t.Errorf("expected popping a non-running context to panic")
		}
	}()
	a.PopContext(ctx)
}

func TestAgentStackDepthLimit(t *testing.T) {
	a := NewAgent(WithMaxStackDepth(3))
	realm, err := InitializeHostDefinedRealm(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var pushErr error
	for i := 0; i < 5 && pushErr == nil; i++ {
		pushErr = a.PushContext(&ExecutionContext{Realm: realm})
	}
	if pushErr == nil {
		t.Fatalf("expected stack overflow")
	}
	if name := errorName(t, pushErr); name != "RangeError" {
		t.Errorf("expected RangeError, got %s", name)
	}
	if a.StackDepth() != 3 {
		t.Errorf("expected depth 3, got %d", a.StackDepth())
	}
}

func TestRealmsAreDistinct(t *testing.T) {
	a, first := newTestAgent(t)
	second, err := CreateRealm(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID() == second.ID() {
		t.Errorf("expected distinct realm ids")
	}
	if first.Intrinsic("%Object.prototype%") == second.Intrinsic("%Object.prototype%") {
		t.Errorf("expected each realm to own its intrinsics")
	}
	g := first.GlobalObject
	for _, name := range []string{"globalThis", "NaN", "Infinity", "undefined"} {
		if !g.HasOwnStored(StringKey(name)) {
			t.Errorf("expected global %s", name)
		}
	}
	self, _ := g.OwnDataValue(StringKey("globalThis"))
	if self.AsObject() != g {
		t.Errorf("expected globalThis to be the global object")
	}
}

func TestRealmIDsAcrossAgents(t *testing.T) {
	_, first := newTestAgent(t)
	_, second := newTestAgent(t)
	if first.ID() == second.ID() {
		t.Errorf("expected realms of separate agents to have distinct ids, got %d twice", first.ID())
	}
}
