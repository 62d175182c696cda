package vm

import (
	"math"
	"testing"
)

func TestStringToNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"   ", 0},
		{"42", 42},
		{" \t\n42 ", 42},
		{"-1.5", -1.5},
		{"+.5", 0.5},
		{"5.", 5},
		{"1e3", 1000},
		{"1E-2", 0.01},
		{"0x1F", 31},
		{"0o17", 15},
		{"0b101", 5},
		{"Infinity", math.Inf(1)},
		{"-Infinity", math.Inf(-1)},
		{"1e1000", math.Inf(1)},
		{"007", 7},
	}
	for _, tt := range tests {
		if got := StringToNumber(tt.in); got != tt.want {
			t.Errorf("StringToNumber(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}

	for _, in := range []string{"abc", "1e", "0x", "0xG", "-0x10", "1_000", "infinity", ".", "1 2"} {
		if got := StringToNumber(in); !math.IsNaN(got) {
			t.Errorf("StringToNumber(%q): expected NaN, got %v", in, got)
		}
	}
}

func TestNumberToString(t *testing.T) {
	tenth, fifth := 0.1, 0.2
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{1, "1"},
		{-42, "-42"},
		{0.5, "0.5"},
		{tenth + fifth, "0.30000000000000004"},
		{1e21, "1e+21"},
		{1.5e-7, "1.5e-7"},
		{123456789012, "123456789012"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tt := range tests {
		if got := NumberToString(tt.in); got != tt.want {
			t.Errorf("NumberToString(%v): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestToBoolean(t *testing.T) {
	tests := []struct {
		in   Value
		want bool
	}{
		{Undefined, false},
		{Null, false},
		{IntValue(0), false},
		{NaN, false},
		{StringValue(""), false},
		{StringValue("0"), true},
		{IntValue(-1), true},
		{ObjectValue(OrdinaryObjectCreate(nil)), true},
		{SymbolValue(NewSymbol(Undefined)), true},
	}
	for _, tt := range tests {
		if got := ToBoolean(tt.in); got != tt.want {
			t.Errorf("ToBoolean(%s): expected %v, got %v", tt.in.Inspect(), tt.want, got)
		}
	}
}

func TestToPrimitiveOrder(t *testing.T) {
	a, realm := newTestAgent(t)
	var calls []string
	method := func(name string, result Value) *Object {
		return CreateBuiltinFunction(realm, func(a *Agent, this Value, args []Value, newTarget *Object) (Value, error) {
			calls = append(calls, name)
			return result, nil
		}, 0, StringKey(name), nil)
	}
	o := OrdinaryObjectCreate(nil)
	o.DefineDataProperty(StringKey("valueOf"), ObjectValue(method("valueOf", ObjectValue(o))), true, false, true)
	o.DefineDataProperty(StringKey("toString"), ObjectValue(method("toString", StringValue("str"))), true, false, true)

	v, err := ToPrimitive(a, ObjectValue(o), HintNumber)
	if err != nil || !SameValue(v, StringValue("str")) {
		t.Fatalf("expected \"str\", got %s (err %v)", v.Inspect(), err)
	}
	if !equalStrings(calls, []string{"valueOf", "toString"}) {
		t.Errorf("expected valueOf then toString, got %v", calls)
	}

	calls = nil
	if _, err := ToPrimitive(a, ObjectValue(o), HintString); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalStrings(calls, []string{"toString"}) {
		t.Errorf("expected toString only, got %v", calls)
	}

	var hint Value
	exotic := OrdinaryObjectCreate(nil)
	toPrim := CreateBuiltinFunction(realm, func(a *Agent, this Value, args []Value, newTarget *Object) (Value, error) {
		hint = args[0]
		return IntValue(9), nil
	}, 1, StringKey("[Symbol.toPrimitive]"), nil)
	exotic.DefineDataProperty(SymbolKey(SymToPrimitive), ObjectValue(toPrim), true, false, true)
	n, err := ToNumber(a, ObjectValue(exotic))
	if err != nil || n != 9 {
		t.Errorf("expected 9, got %v (err %v)", n, err)
	}
	if !SameValue(hint, StringValue("number")) {
		t.Errorf("expected hint \"number\", got %s", hint.Inspect())
	}

	if _, err := ToPrimitive(a, ObjectValue(OrdinaryObjectCreate(nil)), HintDefault); err == nil {
		t.Errorf("expected object without conversion methods to fail")
	}
}

func TestIntegerConversions(t *testing.T) {
	a, _ := newTestAgent(t)
	int32Tests := []struct {
		in   float64
		want int32
	}{
		{0, 0},
		{-1.9, -1},
		{4294967296, 0},
		{2147483648, -2147483648},
		{math.NaN(), 0},
		{math.Inf(1), 0},
	}
	for _, tt := range int32Tests {
		got, _ := ToInt32(a, NumberValue(tt.in))
		if got != tt.want {
			t.Errorf("ToInt32(%v): expected %d, got %d", tt.in, tt.want, got)
		}
	}
	if got, _ := ToUint32(a, IntValue(-1)); got != 4294967295 {
		t.Errorf("ToUint32(-1): expected 4294967295, got %d", got)
	}
	if got, _ := ToLength(a, IntValue(-5)); got != 0 {
		t.Errorf("ToLength(-5): expected 0, got %d", got)
	}
	if got, _ := ToLength(a, NumberValue(math.Inf(1))); got != 1<<53-1 {
		t.Errorf("ToLength(Infinity): expected 2^53-1, got %d", got)
	}
	if _, err := ToIndex(a, IntValue(-1)); err == nil {
		t.Errorf("expected ToIndex(-1) to fail")
	}
	if got, _ := ToIntegerOrInfinity(a, NumberValue(-0.5)); got != 0 || math.Signbit(got) {
		t.Errorf("ToIntegerOrInfinity(-0.5): expected +0, got %v", got)
	}
}

func TestToPropertyKey(t *testing.T) {
	a, _ := newTestAgent(t)
	sym := NewSymbol(StringValue("s"))
	tests := []struct {
		in   Value
		want PropertyKey
	}{
		{IntValue(1), StringKey("1")},
		{NumberValue(1.5), StringKey("1.5")},
		{StringValue("x"), StringKey("x")},
		{True, StringKey("true")},
		{SymbolValue(sym), SymbolKey(sym)},
	}
	for _, tt := range tests {
		got, err := ToPropertyKey(a, tt.in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Errorf("ToPropertyKey(%s): expected %s, got %s", tt.in.Inspect(), tt.want, got)
		}
	}
}

func TestCanonicalNumericIndexString(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"0", true},
		{"-0", true},
		{"1.5", true},
		{"Infinity", true},
		{"01", false},
		{"1e3", false},
		{"abc", false},
	}
	for _, tt := range tests {
		if _, ok := CanonicalNumericIndexString(tt.in); ok != tt.ok {
			t.Errorf("CanonicalNumericIndexString(%q): expected %v, got %v", tt.in, tt.ok, ok)
		}
	}
}

func TestEquality(t *testing.T) {
	a, _ := newTestAgent(t)
	o := ObjectValue(OrdinaryObjectCreate(nil))
	negZero := NumberValue(math.Copysign(0, -1))

	if SameValue(IntValue(0), negZero) {
		t.Errorf("expected SameValue(0, -0) to be false")
	}
	if !SameValue(NaN, NaN) {
		t.Errorf("expected SameValue(NaN, NaN) to be true")
	}
	if !SameValueZero(IntValue(0), negZero) {
		t.Errorf("expected SameValueZero(0, -0) to be true")
	}
	if IsStrictlyEqual(NaN, NaN) {
		t.Errorf("expected NaN !== NaN")
	}
	if !IsStrictlyEqual(IntValue(0), negZero) {
		t.Errorf("expected 0 === -0")
	}

	loose := []struct {
		x, y Value
		want bool
	}{
		{Null, Undefined, true},
		{Null, IntValue(0), false},
		{StringValue("1"), IntValue(1), true},
		{True, IntValue(1), true},
		{StringValue(""), IntValue(0), true},
		{o, o, true},
		{o, ObjectValue(OrdinaryObjectCreate(nil)), false},
		{NaN, NaN, false},
	}
	for _, tt := range loose {
		got, err := IsLooselyEqual(a, tt.x, tt.y)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Errorf("IsLooselyEqual(%s, %s): expected %v, got %v", tt.x.Inspect(), tt.y.Inspect(), tt.want, got)
		}
	}
}

func TestIsLessThan(t *testing.T) {
	a, _ := newTestAgent(t)
	tests := []struct {
		x, y     Value
		less, ok bool
	}{
		{IntValue(1), IntValue(2), true, true},
		{IntValue(2), IntValue(1), false, true},
		{StringValue("a"), StringValue("b"), true, true},
		{StringValue("10"), StringValue("9"), true, true},
		{StringValue("10"), IntValue(9), false, true},
		{NaN, IntValue(1), false, false},
		{StringValue("\U0001F600"), StringValue("\uffff"), true, true},
	}
	for _, tt := range tests {
		less, ok, err := IsLessThan(a, tt.x, tt.y, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if less != tt.less || ok != tt.ok {
			t.Errorf("IsLessThan(%s, %s): expected (%v, %v), got (%v, %v)", tt.x.Inspect(), tt.y.Inspect(), tt.less, tt.ok, less, ok)
		}
	}
}
