package builtins

import "testing"

func TestJSONStringify(t *testing.T) {
	runScriptTests(t, []scriptTest{
		{name: "object", code: `JSON.stringify({a: 1, b: [1, "x", null, true]})`, want: `{"a":1,"b":[1,"x",null,true]}`},
		{name: "skips unrepresentable", code: `JSON.stringify({a: undefined, f() {}, s: Symbol()})`, want: `{}`},
		{name: "nulls in arrays", code: `JSON.stringify([undefined, function () {}])`, want: `[null,null]`},
		{name: "undefined", code: `JSON.stringify(undefined) === undefined`, want: "true"},
		{name: "quoting", code: `JSON.stringify("a\"b\n\u0001")`, want: `"a\"b\n\u0001"`},
		{name: "non-finite", code: `JSON.stringify([NaN, Infinity])`, want: `[null,null]`},
		{name: "wrappers", code: `JSON.stringify([new Number(3), new String("s"), new Boolean(false)])`, want: `[3,"s",false]`},
		{name: "toJSON", code: `JSON.stringify({toJSON(key) { return key + "!" }})`, want: `"!"`},
		{name: "nested toJSON key", code: `JSON.stringify({k: {toJSON(key) { return key }}})`, want: `{"k":"k"}`},
		{name: "indent number", code: `JSON.stringify({a: [1, 2]}, null, 2)`, want: "{\n  \"a\": [\n    1,\n    2\n  ]\n}"},
		{name: "indent string", code: `JSON.stringify([1], null, "--")`, want: "[\n--1\n]"},
		{name: "indent clamped", code: `JSON.stringify([1], null, 20).length`, want: "15"},
		{name: "empty containers", code: `JSON.stringify({a: [], b: {}}, null, 2)`, want: "{\n  \"a\": [],\n  \"b\": {}\n}"},
		{name: "property list", code: `JSON.stringify({a: 1, b: 2, c: 3}, ["c", "a", "c"])`, want: `{"c":3,"a":1}`},
		{name: "replacer function", code: `JSON.stringify({a: 1, b: "x"}, (k, v) => typeof v === "number" ? v * 10 : v)`, want: `{"a":10,"b":"x"}`},
		{name: "replacer root", code: `JSON.stringify(1, function (k, v) { return this[""] === 1 && k === "" ? "root" : v })`, want: `"root"`},
		{name: "cycle", code: `var o = {}; o.self = o; JSON.stringify(o)`, wantErr: "TypeError"},
		{name: "repeated non-cyclic", code: `var x = {}; JSON.stringify([x, x])`, want: `[{},{}]`},
		{name: "proxy array", code: `JSON.stringify(new Proxy([1, 2], {}))`, want: `[1,2]`},
		{name: "toJSON throws", code: `JSON.stringify({toJSON() { throw new RangeError("no") }})`, wantErr: "RangeError"},
	})
}

func TestJSONParse(t *testing.T) {
	runScriptTests(t, []scriptTest{
		{name: "nested", code: `JSON.parse('{"a":[1,2,{"b":null}]}').a[2].b === null`, want: "true"},
		{name: "whitespace", code: `JSON.parse(" [1, 2] \n").length`, want: "2"},
		{name: "key order", code: `Object.keys(JSON.parse('{"b":1,"a":2}')).join()`, want: "b,a"},
		{name: "duplicate keys", code: `JSON.parse('{"a":1,"a":2}').a`, want: "2"},
		{name: "escapes", code: `JSON.parse('"\\u0041\\n"')`, want: "A\n"},
		{name: "number", code: `JSON.parse("-1.5e3")`, want: "-1500"},
		{name: "realm objects", code: `JSON.parse("{}") instanceof Object && Array.isArray(JSON.parse("[]"))`, want: "true"},
		{name: "trailing comma", code: `JSON.parse("[1,]")`, wantErr: "SyntaxError"},
		{name: "trailing value", code: `JSON.parse("1 2")`, wantErr: "SyntaxError"},
		{name: "empty", code: `JSON.parse("")`, wantErr: "SyntaxError"},
		{name: "single quotes", code: `JSON.parse("{'a':1}")`, wantErr: "SyntaxError"},
		{name: "reviver deletes", code: `"a" in JSON.parse('{"a":1,"b":2}', (k, v) => k === "a" ? undefined : v)`, want: "false"},
		{name: "reviver maps", code: `JSON.parse("[1,2]", (k, v) => typeof v === "number" ? v + 1 : v).join()`, want: "2,3"},
		{name: "reviver root", code: `JSON.parse("1", (k, v) => k === "" ? "root" : v)`, want: "root"},
		{name: "tag", code: `Object.prototype.toString.call(JSON)`, want: "[object JSON]"},
	})
}
