package builtins

import "testing"

func TestObjectInitializer(t *testing.T) {
	var initializer BuiltinInitializer = &ObjectInitializer{}

	if initializer.Name() != "Object" {
		t.Errorf("expected name 'Object', got %s", initializer.Name())
	}
	if initializer.Priority() != PriorityObject {
		t.Errorf("expected priority %d, got %d", PriorityObject, initializer.Priority())
	}
}

func TestObjectConstructor(t *testing.T) {
	runScriptTests(t, []scriptTest{
		{name: "wraps primitives", code: `typeof Object(1)`, want: "object"},
		{name: "returns objects", code: `var o = {}; Object(o) === o`, want: "true"},
		{name: "nullish", code: `Object.getPrototypeOf(Object(null)) === Object.prototype`, want: "true"},
		{name: "keys order", code: `Object.keys({b: 1, a: 2, 1: 0}).join()`, want: "1,b,a"},
		{name: "entries", code: `Object.entries({a: 1}).toString()`, want: "a,1"},
		{name: "values", code: `Object.values({a: 1, b: 2}).join()`, want: "1,2"},
		{name: "create null", code: `Object.getPrototypeOf(Object.create(null)) === null`, want: "true"},
		{name: "create bad proto", code: `Object.create(1)`, wantErr: "TypeError"},
		{name: "create with properties", code: `Object.create({}, {x: {value: 1, enumerable: true}}).x`, want: "1"},
		{name: "assign", code: `Object.assign({}, {a: 1}, null, {b: 2}).b`, want: "2"},
		{name: "own names of string", code: `Object.getOwnPropertyNames("ab").join()`, want: "0,1,length"},
		{name: "own symbols", code: `Object.getOwnPropertySymbols({[Symbol.iterator]: 1}).length`, want: "1"},
		{name: "is", code: `Object.is(NaN, NaN) && !Object.is(0, -0)`, want: "true"},
		{name: "fromEntries", code: `Object.fromEntries([["a", 1]]).a`, want: "1"},
	})
}

func TestObjectIntegrity(t *testing.T) {
	runScriptTests(t, []scriptTest{
		{name: "frozen write ignored", code: `var o = Object.freeze({a: 1}); o.a = 2; o.a`, want: "1"},
		{name: "frozen write strict", code: `"use strict"; var o = Object.freeze({a: 1}); o.a = 2`, wantErr: "TypeError"},
		{name: "isFrozen", code: `Object.isFrozen(Object.freeze({a: 1}))`, want: "true"},
		{name: "empty non-extensible is frozen", code: `Object.isFrozen(Object.preventExtensions({}))`, want: "true"},
		{name: "sealed is writable", code: `var o = Object.seal({a: 1}); o.a = 2; o.a + "," + Object.isSealed(o)`, want: "2,true"},
		{name: "preventExtensions", code: `"use strict"; var o = Object.preventExtensions({}); o.x = 1`, wantErr: "TypeError"},
		{name: "freeze primitive", code: `Object.freeze(1)`, want: "1"},
	})
}

func TestObjectDescriptors(t *testing.T) {
	runScriptTests(t, []scriptTest{
		{name: "accessor descriptor", code: `var d = Object.getOwnPropertyDescriptor({get x() { return 1 }}, "x"); typeof d.get + d.enumerable`, want: "functiontrue"},
		{name: "defaults are false", code: `var o = {}; Object.defineProperty(o, "x", {value: 1}); var d = Object.getOwnPropertyDescriptor(o, "x"); d.writable || d.enumerable || d.configurable`, want: "false"},
		{name: "mixed descriptor", code: `Object.defineProperty({}, "x", {get() {}, value: 1})`, wantErr: "TypeError"},
		{name: "non-callable getter", code: `Object.defineProperty({}, "x", {get: 1})`, wantErr: "TypeError"},
		{name: "redefine non-configurable", code: `var o = {}; Object.defineProperty(o, "x", {value: 1}); Object.defineProperty(o, "x", {value: 2})`, wantErr: "TypeError"},
		{name: "same value redefine", code: `var o = {}; Object.defineProperty(o, "x", {value: 1}); Object.defineProperty(o, "x", {value: 1}); o.x`, want: "1"},
		{name: "defineProperties", code: `var o = Object.defineProperties({}, {a: {value: 1, enumerable: true}, b: {value: 2}}); Object.keys(o).join()`, want: "a"},
		{name: "non-object target", code: `Object.defineProperty(1, "x", {})`, wantErr: "TypeError"},
	})
}

func TestObjectPrototype(t *testing.T) {
	runScriptTests(t, []scriptTest{
		{name: "toString null", code: `Object.prototype.toString.call(null)`, want: "[object Null]"},
		{name: "toString array", code: `Object.prototype.toString.call([])`, want: "[object Array]"},
		{name: "toString function", code: `Object.prototype.toString.call(function () {})`, want: "[object Function]"},
		{name: "toString tag", code: `Object.prototype.toString.call({[Symbol.toStringTag]: "T"})`, want: "[object T]"},
		{name: "toString arguments", code: `(function () { return Object.prototype.toString.call(arguments) })()`, want: "[object Arguments]"},
		{name: "hasOwnProperty", code: `({a: 1}).hasOwnProperty("a") && !({}).hasOwnProperty("toString")`, want: "true"},
		{name: "isPrototypeOf", code: `Object.prototype.isPrototypeOf([])`, want: "true"},
		{name: "propertyIsEnumerable", code: `[1].propertyIsEnumerable(0) && ![1].propertyIsEnumerable("length")`, want: "true"},
		{name: "immutable prototype", code: `Object.setPrototypeOf(Object.prototype, {})`, wantErr: "TypeError"},
		{name: "same prototype allowed", code: `Object.setPrototypeOf(Object.prototype, null) === Object.prototype`, want: "true"},
		{name: "__proto__ getter", code: `({}).__proto__ === Object.prototype`, want: "true"},
		{name: "__proto__ setter", code: `var p = {x: 1}; var o = {}; o.__proto__ = p; o.x`, want: "1"},
		{name: "setPrototypeOf cycle", code: `var a = {}; var b = Object.create(a); Object.setPrototypeOf(a, b)`, wantErr: "TypeError"},
		{name: "valueOf", code: `var o = {}; o.valueOf() === o`, want: "true"},
	})
}

func TestFunctionBuiltins(t *testing.T) {
	runScriptTests(t, []scriptTest{
		{name: "length and name", code: `function f(a, b) {} f.length + f.name`, want: "2f"},
		{name: "call boxes this", code: `(function () { return this }).call(5) instanceof Number`, want: "true"},
		{name: "strict this", code: `(function () { "use strict"; return typeof this }).call(5)`, want: "number"},
		{name: "apply", code: `Math.max.apply(null, [1, 3, 2])`, want: "3"},
		{name: "apply array-like", code: `Math.max.apply(null, {length: 2, 0: 4, 1: 5})`, want: "5"},
		{name: "bind", code: `function g(a, b) { return a + b } var h = g.bind(null, 1); h(2) + h.name + h.length`, want: "3bound g1"},
		{name: "bound construct", code: `function P(x) { this.x = x } var B = P.bind(null, 7); new B().x`, want: "7"},
		{name: "bound instanceof", code: `function P() {} var B = P.bind(); new P() instanceof B`, want: "true"},
		{name: "Function constructor", code: `new Function("a", "b", "return a * b")(3, 4)`, want: "12"},
		{name: "Function name", code: `Function("return 1").name`, want: "anonymous"},
		{name: "Function global scope", code: `var x = 1; (function () { var x = 2; return Function("return x")() })()`, want: "1"},
		{name: "Function syntax error", code: `Function("{")`, wantErr: "SyntaxError"},
		{name: "Function body injection", code: `Function("}, function() {")`, wantErr: "SyntaxError"},
		{name: "restricted caller", code: `(function () {}).caller`, wantErr: "TypeError"},
		{name: "native toString", code: `Function.prototype.toString.call(Math.max).includes("native code")`, want: "true"},
		{name: "source toString", code: `function f() { return 1 } f.toString()`, want: "function f() { return 1 }"},
		{name: "hasInstance", code: `Function.prototype[Symbol.hasInstance].call(Array, [])`, want: "true"},
		{name: "call non-callable", code: `Function.prototype.call.call(1)`, wantErr: "TypeError"},
		{name: "prototype is callable", code: `Function.prototype() === undefined`, want: "true"},
	})
}

func TestReflect(t *testing.T) {
	runScriptTests(t, []scriptTest{
		{name: "ownKeys", code: `Reflect.ownKeys({a: 1, [Symbol.iterator]: 0}).length`, want: "2"},
		{name: "ownKeys order", code: `Reflect.ownKeys({b: 1, 2: 1, a: 1, 1: 1}).join()`, want: "1,2,b,a"},
		{name: "has", code: `Reflect.has({a: 1}, "a") && Reflect.has([], "length")`, want: "true"},
		{name: "construct", code: `class A { constructor() { this.v = 1 } } Reflect.construct(A, []).v`, want: "1"},
		{name: "construct newTarget", code: `function F() { this.t = new.target } var o = Reflect.construct(F, [], Array); o.t === Array && o instanceof Array`, want: "true"},
		{name: "construct non-constructor", code: `Reflect.construct(Math.max, [])`, wantErr: "TypeError"},
		{name: "getPrototypeOf", code: `Reflect.getPrototypeOf([]) === Array.prototype`, want: "true"},
		{name: "defineProperty reports failure", code: `Reflect.defineProperty(Object.freeze({}), "x", {value: 1})`, want: "false"},
		{name: "apply", code: `Reflect.apply(Math.max, null, [1, 2])`, want: "2"},
		{name: "get receiver", code: `Reflect.get({get x() { return this.y }}, "x", {y: 7})`, want: "7"},
		{name: "set receiver", code: `var r = {}; Reflect.set({}, "x", 1, r); r.x`, want: "1"},
		{name: "set non-object", code: `Reflect.set(1, "x", 1)`, wantErr: "TypeError"},
		{name: "deleteProperty", code: `var o = {a: 1}; Reflect.deleteProperty(o, "a") && !("a" in o)`, want: "true"},
		{name: "isExtensible", code: `Reflect.isExtensible({}) && !Reflect.isExtensible(Object.preventExtensions({}))`, want: "true"},
		{name: "getOwnPropertyDescriptor", code: `Reflect.getOwnPropertyDescriptor({a: 1}, "a").value`, want: "1"},
		{name: "setPrototypeOf", code: `Reflect.setPrototypeOf(Object.preventExtensions({}), {})`, want: "false"},
		{name: "tag", code: `Object.prototype.toString.call(Reflect)`, want: "[object Reflect]"},
	})
}

func TestProxy(t *testing.T) {
	runScriptTests(t, []scriptTest{
		{name: "get trap", code: `var p = new Proxy({}, {get: (t, k) => "got " + String(k)}); p.foo`, want: "got foo"},
		{name: "requires new", code: `Proxy({}, {})`, wantErr: "TypeError"},
		{name: "non-object handler", code: `new Proxy({}, 1)`, wantErr: "TypeError"},
		{name: "no prototype property", code: `Proxy.prototype === undefined`, want: "true"},
		{name: "revoked", code: `var r = Proxy.revocable({}, {}); r.revoke(); r.proxy.x`, wantErr: "TypeError"},
		{name: "revoke twice", code: `var r = Proxy.revocable({}, {}); r.revoke(); r.revoke(); typeof r.proxy`, want: "object"},
		{name: "has trap", code: `"x" in new Proxy({}, {has: () => true})`, want: "true"},
		{name: "get invariant", code: `var t = {}; Object.defineProperty(t, "x", {value: 1}); new Proxy(t, {get: () => 2}).x`, wantErr: "TypeError"},
		{name: "callable proxy", code: `typeof new Proxy(function () {}, {})`, want: "function"},
		{name: "apply trap", code: `new Proxy(function () {}, {apply: (t, th, args) => args.length})(1, 2)`, want: "2"},
		{name: "construct trap", code: `new (new Proxy(function () {}, {construct: () => ({v: 3})}))().v`, want: "3"},
		{name: "ownKeys trap", code: `Object.keys(new Proxy({a: 1, b: 2}, {ownKeys: () => ["b"]})).join()`, want: "b"},
		{name: "set trap", code: `var log = []; var p = new Proxy({}, {set(t, k, v) { log.push(k + "=" + v); return true }}); p.a = 1; log.join()`, want: "a=1"},
		{name: "deleteProperty trap false strict", code: `"use strict"; delete new Proxy({a: 1}, {deleteProperty: () => false}).a`, wantErr: "TypeError"},
		{name: "forwarding", code: `var t = {}; var p = new Proxy(t, {}); p.x = 1; t.x`, want: "1"},
	})
}

func TestSymbol(t *testing.T) {
	runScriptTests(t, []scriptTest{
		{name: "registry", code: `Symbol.for("k") === Symbol.for("k")`, want: "true"},
		{name: "keyFor", code: `Symbol.keyFor(Symbol.for("k"))`, want: "k"},
		{name: "keyFor unregistered", code: `Symbol.keyFor(Symbol("k")) === undefined`, want: "true"},
		{name: "keyFor non-symbol", code: `Symbol.keyFor("k")`, wantErr: "TypeError"},
		{name: "description", code: `Symbol("d").description`, want: "d"},
		{name: "no description", code: `Symbol().description === undefined`, want: "true"},
		{name: "toString", code: `Symbol("d").toString()`, want: "Symbol(d)"},
		{name: "new", code: `new Symbol()`, wantErr: "TypeError"},
		{name: "well-known", code: `typeof Symbol.iterator`, want: "symbol"},
		{name: "wrapper", code: `Object(Symbol("x")) instanceof Symbol`, want: "true"},
		{name: "unique", code: `Symbol("a") === Symbol("a")`, want: "false"},
		{name: "toPrimitive", code: `var s = Symbol(); Object(s)[Symbol.toPrimitive]() === s`, want: "true"},
	})
}

func TestErrors(t *testing.T) {
	runScriptTests(t, []scriptTest{
		{name: "message", code: `new TypeError("m").message`, want: "m"},
		{name: "toString", code: `String(new RangeError("r"))`, want: "RangeError: r"},
		{name: "toString empty message", code: `Error.prototype.toString.call({name: "N", message: ""})`, want: "N"},
		{name: "prototype name", code: `TypeError.prototype.name`, want: "TypeError"},
		{name: "constructor chain", code: `Object.getPrototypeOf(TypeError) === Error`, want: "true"},
		{name: "prototype chain", code: `new SyntaxError() instanceof Error`, want: "true"},
		{name: "no own message", code: `new Error().hasOwnProperty("message")`, want: "false"},
		{name: "cause", code: `new Error("x", {cause: 1}).cause`, want: "1"},
		{name: "no cause", code: `"cause" in new Error("x")`, want: "false"},
		{name: "aggregate", code: `new AggregateError([1, 2], "agg").errors.length`, want: "2"},
		{name: "call without new", code: `Error("x") instanceof Error`, want: "true"},
		{name: "class tag", code: `Object.prototype.toString.call(new TypeError())`, want: "[object Error]"},
		{name: "thrown TypeError", code: `try { null.x } catch (e) { e instanceof TypeError }`, want: "true"},
		{name: "thrown ReferenceError", code: `try { missingBinding } catch (e) { e.name }`, want: "ReferenceError"},
		{name: "subclass", code: `class MyError extends Error {} var e = new MyError("x"); e instanceof MyError && e.message === "x"`, want: "true"},
	})
}
