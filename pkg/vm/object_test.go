package vm

import (
	"testing"
)

func keyNames(keys []PropertyKey) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSetPrototypeOfRejectsCycles(t *testing.T) {
	a := NewAgent()
	x := OrdinaryObjectCreate(nil)
	y := OrdinaryObjectCreate(x)
	z := OrdinaryObjectCreate(y)

	if ok, _ := x.impl.SetPrototypeOf(a, x); ok {
		t.Errorf("expected self cycle to be rejected")
	}
	if ok, _ := x.impl.SetPrototypeOf(a, z); ok {
		t.Errorf("expected A->B->C->A cycle to be rejected")
	}
	if x.Prototype() != nil {
		t.Errorf("expected prototype unchanged")
	}
	other := OrdinaryObjectCreate(nil)
	if ok, _ := x.impl.SetPrototypeOf(a, other); !ok {
		t.Errorf("expected acyclic prototype change to succeed")
	}
	other.impl.PreventExtensions(a)
	if ok, _ := other.impl.SetPrototypeOf(a, OrdinaryObjectCreate(nil)); ok {
		t.Errorf("expected prototype change on non-extensible object to fail")
	}
	if ok, _ := other.impl.SetPrototypeOf(a, nil); !ok {
		t.Errorf("expected setting the same prototype on a non-extensible object to succeed")
	}
}

func TestGetWalksPrototypeChain(t *testing.T) {
	a, _ := newTestAgent(t)
	base := OrdinaryObjectCreate(nil)
	base.DefineDataProperty(StringKey("inherited"), IntValue(7), true, true, true)
	child := OrdinaryObjectCreate(base)

	v, err := Get(a, child, StringKey("inherited"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !SameValue(v, IntValue(7)) {
		t.Errorf("expected 7, got %s", v.Inspect())
	}
	has, _ := HasProperty(a, child, StringKey("inherited"))
	if !has {
		t.Errorf("expected HasProperty to see inherited property")
	}
	own, _ := HasOwnProperty(a, child, StringKey("inherited"))
	if own {
		t.Errorf("expected HasOwnProperty to be false for inherited property")
	}
	missing, _ := Get(a, child, StringKey("missing"))
	if !missing.IsUndefined() {
		t.Errorf("expected undefined for missing property, got %s", missing.Inspect())
	}
}

func TestSetCreatesOnReceiver(t *testing.T) {
	a, _ := newTestAgent(t)
	base := OrdinaryObjectCreate(nil)
	base.DefineDataProperty(StringKey("x"), IntValue(1), true, true, true)
	child := OrdinaryObjectCreate(base)

	if err := Set(a, child, StringKey("x"), IntValue(2), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := child.OwnDataValue(StringKey("x")); !SameValue(v, IntValue(2)) {
		t.Errorf("expected own x = 2 on receiver, got %s", v.Inspect())
	}
	if v, _ := base.OwnDataValue(StringKey("x")); !SameValue(v, IntValue(1)) {
		t.Errorf("expected prototype x to stay 1, got %s", v.Inspect())
	}
}

func TestSetRespectsInheritedReadOnly(t *testing.T) {
	a, _ := newTestAgent(t)
	base := OrdinaryObjectCreate(nil)
	base.DefineDataProperty(StringKey("x"), IntValue(1), false, true, true)
	child := OrdinaryObjectCreate(base)

	ok, err := child.impl.Set(a, StringKey("x"), IntValue(2), ObjectValue(child))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Errorf("expected write through inherited read-only property to fail")
	}
	if child.HasOwnStored(StringKey("x")) {
		t.Errorf("expected no own property to be created")
	}
	if err := Set(a, child, StringKey("x"), IntValue(2), true); err == nil {
		t.Errorf("expected TypeError when throw is set")
	}
}

func TestSetCallsInheritedSetter(t *testing.T) {
	a, realm := newTestAgent(t)
	var gotThis Value
	var gotArg Value
	setter := CreateBuiltinFunction(realm, func(a *Agent, this Value, args []Value, newTarget *Object) (Value, error) {
		gotThis = this
		gotArg = args[0]
		return Undefined, nil
	}, 1, StringKey("set"), nil)
	base := OrdinaryObjectCreate(nil)
	base.DefineAccessorProperty(StringKey("v"), Undefined, ObjectValue(setter), true, true)
	child := OrdinaryObjectCreate(base)

	if err := Set(a, child, StringKey("v"), IntValue(3), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gotThis.IsObject() || gotThis.AsObject() != child {
		t.Errorf("expected setter this to be the receiver")
	}
	if !SameValue(gotArg, IntValue(3)) {
		t.Errorf("expected setter argument 3, got %s", gotArg.Inspect())
	}
}

func TestDeleteNonConfigurable(t *testing.T) {
	a, _ := newTestAgent(t)
	o := OrdinaryObjectCreate(nil)
	o.DefineDataProperty(StringKey("fixed"), IntValue(1), true, true, false)
	o.DefineDataProperty(StringKey("loose"), IntValue(2), true, true, true)

	ok, err := o.impl.Delete(a, StringKey("fixed"))
	if err != nil || ok {
		t.Errorf("expected delete of non-configurable property to fail, got %v, %v", ok, err)
	}
	if !o.HasOwnStored(StringKey("fixed")) {
		t.Errorf("expected property to remain")
	}
	if err := DeletePropertyOrThrow(a, o, StringKey("fixed")); err == nil {
		t.Errorf("expected DeletePropertyOrThrow to throw")
	}
	if ok, _ := o.impl.Delete(a, StringKey("loose")); !ok {
		t.Errorf("expected delete of configurable property to succeed")
	}
	if ok, _ := o.impl.Delete(a, StringKey("absent")); !ok {
		t.Errorf("expected delete of absent property to succeed")
	}
}

func TestOwnPropertyKeysOrder(t *testing.T) {
	a := NewAgent()
	o := OrdinaryObjectCreate(nil)
	sym := NewSymbol(StringValue("s"))
	o.DefineDataProperty(StringKey("b"), True, true, true, true)
	o.DefineDataProperty(SymbolKey(sym), True, true, true, true)
	o.DefineDataProperty(StringKey("10"), True, true, true, true)
	o.DefineDataProperty(StringKey("a"), True, true, true, true)
	o.DefineDataProperty(StringKey("2"), True, true, true, true)

	keys, _ := o.impl.OwnPropertyKeys(a)
	want := []string{"2", "10", "b", "a", "[Symbol(s)]"}
	if got := keyNames(keys); !equalStrings(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestPreventExtensions(t *testing.T) {
	a, _ := newTestAgent(t)
	o := OrdinaryObjectCreate(nil)
	o.impl.PreventExtensions(a)
	ok, err := CreateDataProperty(a, o, StringKey("x"), True)
	if err != nil || ok {
		t.Errorf("expected CreateDataProperty on non-extensible object to fail")
	}
	if err := CreateDataPropertyOrThrow(a, o, StringKey("x"), True); err == nil {
		t.Errorf("expected CreateDataPropertyOrThrow to throw")
	}
}

func TestIntegrityLevels(t *testing.T) {
	a, _ := newTestAgent(t)
	o := OrdinaryObjectCreate(nil)
	o.DefineDataProperty(StringKey("x"), IntValue(1), true, true, true)

	if ok, _ := SetIntegrityLevel(a, o, IntegritySealed); !ok {
		t.Fatalf("expected seal to succeed")
	}
	sealed, _ := TestIntegrityLevel(a, o, IntegritySealed)
	frozen, _ := TestIntegrityLevel(a, o, IntegrityFrozen)
	if !sealed || frozen {
		t.Errorf("expected sealed but not frozen, got sealed=%v frozen=%v", sealed, frozen)
	}
	SetIntegrityLevel(a, o, IntegrityFrozen)
	if frozen, _ := TestIntegrityLevel(a, o, IntegrityFrozen); !frozen {
		t.Errorf("expected frozen")
	}
}

func TestArrayLengthTracksIndices(t *testing.T) {
	a, _ := newTestAgent(t)
	arr := ArrayCreate(0, nil)
	if err := CreateDataPropertyOrThrow(a, arr, IndexKey(4), True); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	length, _ := Get(a, arr, StringKey("length"))
	if !SameValue(length, IntValue(5)) {
		t.Errorf("expected length 5, got %s", length.Inspect())
	}

	if err := Set(a, arr, StringKey("length"), IntValue(2), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if arr.HasOwnStored(IndexKey(4)) {
		t.Errorf("expected index 4 to be removed by truncation")
	}

	if err := Set(a, arr, StringKey("length"), NumberValue(1.5), true); err == nil {
		t.Errorf("expected RangeError for fractional length")
	}
}

func TestArrayConstructionPathsSetLength(t *testing.T) {
	a, _ := newTestAgent(t)
	elems := []Value{IntValue(1), IntValue(2), IntValue(3)}

	stored := ArrayCreate(0, nil)
	for i, v := range elems {
		stored.DefineDataProperty(IndexKey(uint32(i)), v, true, true, true)
	}
	created := ArrayCreate(0, nil)
	for i, v := range elems {
		CreateDataPropertyOrThrow(a, created, IndexKey(uint32(i)), v)
	}
	sparse := ArrayCreate(0, nil)
	sparse.DefineDataProperty(IndexKey(6), True, true, true, true)
	sized := ArrayCreate(3, nil)
	sized.DefineDataProperty(IndexKey(0), True, true, true, true)

	tests := []struct {
		name string
		arr  *Object
		want int
	}{
		{"direct stores", stored, 3},
		{"CreateDataPropertyOrThrow", created, 3},
		{"CreateArrayFromList", CreateArrayFromList(a, elems), 3},
		{"sparse direct store", sparse, 7},
		{"store below preallocated length", sized, 3},
	}
	for _, tt := range tests {
		length, err := Get(a, tt.arr, StringKey("length"))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if !SameValue(length, IntValue(tt.want)) {
			t.Errorf("%s: expected length %d, got %s", tt.name, tt.want, length.Inspect())
		}
	}
}

func TestArrayTruncationStopsAtNonConfigurable(t *testing.T) {
	a, _ := newTestAgent(t)
	arr := ArrayCreate(0, nil)
	for i := uint32(0); i < 4; i++ {
		CreateDataPropertyOrThrow(a, arr, IndexKey(i), IntValue(int(i)))
	}
	DefinePropertyOrThrow(a, arr, IndexKey(1), PropertyDescriptor{}.WithConfigurable(false))

	ok, err := arr.impl.DefineOwnProperty(a, StringKey("length"), PropertyDescriptor{}.WithValue(IntValue(0)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Errorf("expected truncation past a non-configurable element to fail")
	}
	if got := arr.impl.(*ArrayObject).Length(); got != 2 {
		t.Errorf("expected length 2, got %d", got)
	}
}

func TestArrayReadOnlyLength(t *testing.T) {
	a, _ := newTestAgent(t)
	arr := ArrayCreate(1, nil)
	DefinePropertyOrThrow(a, arr, StringKey("length"), PropertyDescriptor{}.WithWritable(false))
	ok, _ := CreateDataProperty(a, arr, IndexKey(3), True)
	if ok {
		t.Errorf("expected adding an index past a read-only length to fail")
	}
	keys, _ := arr.impl.OwnPropertyKeys(a)
	if got := keyNames(keys); !equalStrings(got, []string{"length"}) {
		t.Errorf("expected [length], got %v", got)
	}
}

func TestStringObjectIndices(t *testing.T) {
	a, _ := newTestAgent(t)
	s := StringCreate("héllo", nil)

	v, _ := Get(a, s, IndexKey(1))
	if !SameValue(v, StringValue("é")) {
		t.Errorf("expected \"é\", got %s", v.Inspect())
	}
	length, _ := Get(a, s, StringKey("length"))
	if !SameValue(length, IntValue(5)) {
		t.Errorf("expected length 5, got %s", length.Inspect())
	}
	ok, _ := s.impl.DefineOwnProperty(a, IndexKey(0), PropertyDescriptor{}.WithValue(StringValue("x")))
	if ok {
		t.Errorf("expected redefining a string index to fail")
	}
	CreateDataProperty(a, s, StringKey("extra"), True)
	keys, _ := s.impl.OwnPropertyKeys(a)
	want := []string{"0", "1", "2", "3", "4", "length", "extra"}
	if got := keyNames(keys); !equalStrings(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestBoundFunction(t *testing.T) {
	a, realm := newTestAgent(t)
	target := CreateBuiltinFunction(realm, func(a *Agent, this Value, args []Value, newTarget *Object) (Value, error) {
		sum := this.AsNumber()
		for _, arg := range args {
			sum += arg.AsNumber()
		}
		return NumberValue(sum), nil
	}, 0, StringKey("sum"), nil)

	bound, err := BoundFunctionCreate(a, target, IntValue(100), []Value{IntValue(1)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := Call(a, ObjectValue(bound), Undefined, []Value{IntValue(2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !SameValue(got, IntValue(103)) {
		t.Errorf("expected 103, got %s", got.Inspect())
	}
	if IsConstructor(ObjectValue(bound)) {
		t.Errorf("expected bound non-constructor to not be a constructor")
	}
	if bound.Prototype() != realm.Intrinsic("%Function.prototype%") {
		t.Errorf("expected bound function to inherit target's prototype")
	}
}

func TestProxyForwardsAndChecksInvariants(t *testing.T) {
	a, realm := newTestAgent(t)
	target := OrdinaryObjectCreate(nil)
	target.DefineDataProperty(StringKey("fixed"), IntValue(1), false, true, false)
	handler := OrdinaryObjectCreate(nil)

	proxy, err := ProxyCreate(a, ObjectValue(target), ObjectValue(handler))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, _ := Get(a, proxy, StringKey("fixed"))
	if !SameValue(v, IntValue(1)) {
		t.Errorf("expected forwarded get to return 1, got %s", v.Inspect())
	}

	liar := CreateBuiltinFunction(realm, func(a *Agent, this Value, args []Value, newTarget *Object) (Value, error) {
		return IntValue(2), nil
	}, 3, StringKey("get"), nil)
	handler.DefineDataProperty(StringKey("get"), ObjectValue(liar), true, true, true)
	if _, err := Get(a, proxy, StringKey("fixed")); err == nil {
		t.Errorf("expected TypeError for trap misreporting a frozen property")
	}

	proxy.impl.(*ProxyObject).Revoke()
	if _, err := Get(a, proxy, StringKey("fixed")); err == nil {
		t.Errorf("expected TypeError on revoked proxy")
	}
}

func TestRestrictedFunctionProperties(t *testing.T) {
	a, realm := newTestAgent(t)
	funcProto := realm.Intrinsic("%Function.prototype%")
	if _, err := Get(a, funcProto, StringKey("caller")); err == nil {
		t.Errorf("expected reading caller to throw")
	}
	if err := Set(a, funcProto, StringKey("arguments"), True, false); err == nil {
		t.Errorf("expected writing arguments to throw")
	}
	thrower := realm.Intrinsic("%ThrowTypeError%")
	if thrower.Extensible() {
		t.Errorf("expected %%ThrowTypeError%% to be non-extensible")
	}
}

func TestObjectPrototypeIsImmutable(t *testing.T) {
	a, realm := newTestAgent(t)
	objProto := realm.Intrinsic("%Object.prototype%")
	if ok, _ := objProto.impl.SetPrototypeOf(a, OrdinaryObjectCreate(nil)); ok {
		t.Errorf("expected %%Object.prototype%% prototype change to fail")
	}
	if ok, _ := objProto.impl.SetPrototypeOf(a, nil); !ok {
		t.Errorf("expected setting the same prototype to succeed")
	}
}
