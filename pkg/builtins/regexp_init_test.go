package builtins

import "testing"

func TestRegExpConstructor(t *testing.T) {
	runScriptTests(t, []scriptTest{
		{name: "flags", code: `new RegExp("a", "gi").flags`, want: "gi"},
		{name: "flags order", code: `new RegExp("a", "yimg").flags`, want: "gimy"},
		{name: "ignoreCase matches", code: `new RegExp("ab", "i").test("xAB")`, want: "true"},
		{name: "multiline anchors", code: `/^b/m.test("a\nb")`, want: "true"},
		{name: "duplicate flag", code: `new RegExp("a", "gg")`, wantErr: "SyntaxError"},
		{name: "unknown flag", code: `new RegExp("a", "q")`, wantErr: "SyntaxError"},
		{name: "bad pattern", code: `new RegExp("(")`, wantErr: "SyntaxError"},
		{name: "empty source", code: `new RegExp("").source`, want: "(?:)"},
		{name: "escaped slash", code: `new RegExp("a/b").source`, want: `a\/b`},
		{name: "toString", code: `String(/a\/b/g)`, want: `/a\/b/g`},
		{name: "call returns same regexp", code: `var r = /x/; RegExp(r) === r`, want: "true"},
		{name: "copy with new flags", code: `new RegExp(/x/g, "i").flags`, want: "i"},
		{name: "class tag", code: `Object.prototype.toString.call(/x/)`, want: "[object RegExp]"},
		{name: "lastIndex descriptor", code: `var d = Object.getOwnPropertyDescriptor(/x/, "lastIndex"); d.writable && !d.enumerable && !d.configurable`, want: "true"},
		{name: "prototype source", code: `RegExp.prototype.source`, want: "(?:)"},
		{name: "prototype global", code: `RegExp.prototype.global === undefined`, want: "true"},
		{name: "getter on non-regexp", code: `Object.getOwnPropertyDescriptor(RegExp.prototype, "global").get.call({})`, wantErr: "TypeError"},
	})
}

func TestRegExpExec(t *testing.T) {
	runScriptTests(t, []scriptTest{
		{name: "unmatched group", code: `/a(b)?/.exec("ac")[1] === undefined`, want: "true"},
		{name: "match array length", code: `/(a)(b)/.exec("ab").length`, want: "3"},
		{name: "match array length with unmatched group", code: `/a(b)?/.exec("ac").length`, want: "2"},
		{name: "destructure match", code: `var [, first, second] = /(\w+) (\w+)/.exec("john smith"); second + " " + first`, want: "smith john"},
		{name: "index and input", code: `var m = /b+/.exec("abbc"); m.index + m.input + m[0]`, want: "1abbcbb"},
		{name: "no match", code: `/x/.exec("abc") === null`, want: "true"},
		{name: "named groups", code: `/(?<y>\d{4})/.exec("in 2024").groups.y`, want: "2024"},
		{name: "no groups object", code: `/a/.exec("a").groups === undefined`, want: "true"},
		{name: "global advances lastIndex", code: `var r = /o/g; r.test("foo"); r.lastIndex`, want: "2"},
		{name: "global resets on failure", code: `var r = /o/g; r.lastIndex = 3; r.test("foo"); r.lastIndex`, want: "0"},
		{name: "non-global ignores lastIndex", code: `var r = /x/; r.lastIndex = 5; r.exec("x")[0]`, want: "x"},
		{name: "sticky", code: `/a/y.test("ba")`, want: "false"},
		{name: "sticky at lastIndex", code: `var r = /a/y; r.lastIndex = 1; r.test("ba")`, want: "true"},
		{name: "ignore case", code: `/B/i.test("abc")`, want: "true"},
		{name: "multiline", code: `/^b/m.test("a\nb")`, want: "true"},
		{name: "dotAll", code: `/a.b/s.test("a\nb") && !/a.b/.test("a\nb")`, want: "true"},
		{name: "indices", code: `/b/d.exec("abc").indices[0].join()`, want: "1,2"},
		{name: "exec on non-regexp", code: `RegExp.prototype.exec.call({}, "a")`, wantErr: "TypeError"},
	})
}

func TestRegExpSymbolMethods(t *testing.T) {
	runScriptTests(t, []scriptTest{
		{name: "@@match global", code: `/a/g[Symbol.match]("aXa").length`, want: "2"},
		{name: "@@search keeps lastIndex", code: `var r = /c/g; r.lastIndex = 2; r[Symbol.search]("abc") + ":" + r.lastIndex`, want: "2:2"},
		{name: "@@replace", code: `/b/[Symbol.replace]("abc", "x")`, want: "axc"},
		{name: "@@split limit", code: `/,/[Symbol.split]("a,b,c", 2).join("|")`, want: "a|b"},
		{name: "empty match global replace", code: `"ab".replace(/(?:)/g, "-")`, want: "-a-b-"},
		{name: "custom exec", code: `var r = /x/; r.exec = () => null; r.test("x")`, want: "false"},
	})
}
