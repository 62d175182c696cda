package builtins

import "testing"

func TestStringConstructor(t *testing.T) {
	runScriptTests(t, []scriptTest{
		{name: "conversion", code: `String(12) + String(null)`, want: "12null"},
		{name: "symbol description", code: `String(Symbol("x"))`, want: "Symbol(x)"},
		{name: "symbol concatenation", code: `"" + Symbol()`, wantErr: "TypeError"},
		{name: "wrapper length", code: `new String("ab").length`, want: "2"},
		{name: "wrapper indices", code: `Object.keys(new String("ab")).join()`, want: "0,1"},
		{name: "fromCharCode", code: `String.fromCharCode(72, 105)`, want: "Hi"},
		{name: "fromCodePoint", code: `String.fromCodePoint(128512).length`, want: "2"},
		{name: "fromCodePoint range", code: `String.fromCodePoint(-1)`, wantErr: "RangeError"},
		{name: "raw", code: "String.raw`a\\n${1}`", want: `a\n1`},
	})
}

func TestStringPrototypeIndexing(t *testing.T) {
	runScriptTests(t, []scriptTest{
		{name: "charAt", code: `"abc".charAt(1)`, want: "b"},
		{name: "charAt out of range", code: `"abc".charAt(5)`, want: ""},
		{name: "charCodeAt", code: `"abc".charCodeAt(0)`, want: "97"},
		{name: "surrogate pair length", code: `"😀".length`, want: "2"},
		{name: "codePointAt", code: `"😀".codePointAt(0)`, want: "128512"},
		{name: "iterates code points", code: `[..."a😀"].length`, want: "2"},
		{name: "at", code: `"abc".at(-1)`, want: "c"},
		{name: "indexOf", code: `"abcabc".indexOf("c", 3)`, want: "5"},
		{name: "lastIndexOf", code: `"abcabc".lastIndexOf("a")`, want: "3"},
		{name: "slice", code: `"abc".slice(-2)`, want: "bc"},
		{name: "substring swaps", code: `"abc".substring(2, 0)`, want: "ab"},
		{name: "startsWith position", code: `"abc".startsWith("b", 1)`, want: "true"},
		{name: "endsWith", code: `"abc".endsWith("ab", 2)`, want: "true"},
		{name: "includes rejects regexp", code: `"abc".includes(/b/)`, wantErr: "TypeError"},
		{name: "null receiver", code: `String.prototype.trim.call(null)`, wantErr: "TypeError"},
	})
}

func TestStringPrototypeTransforms(t *testing.T) {
	runScriptTests(t, []scriptTest{
		{name: "trim", code: `"  x \n".trim()`, want: "x"},
		{name: "trimStart", code: `"  x ".trimStart()`, want: "x "},
		{name: "case", code: `"aB".toUpperCase() + "aB".toLowerCase()`, want: "ABab"},
		{name: "padStart", code: `"abc".padStart(5, "-")`, want: "--abc"},
		{name: "padEnd", code: `"abc".padEnd(6, "12")`, want: "abc121"},
		{name: "repeat", code: `"ab".repeat(3)`, want: "ababab"},
		{name: "repeat negative", code: `"ab".repeat(-1)`, wantErr: "RangeError"},
		{name: "concat", code: `"a".concat(1, null)`, want: "a1null"},
		{name: "normalize", code: `"Å".normalize("NFC").length`, want: "1"},
		{name: "normalize default", code: `"Å".normalize().length`, want: "1"},
		{name: "normalize NFD", code: `"Å".normalize("NFD").length`, want: "2"},
		{name: "normalize bad form", code: `"a".normalize("bad")`, wantErr: "RangeError"},
		{name: "localeCompare", code: `"a".localeCompare("b")`, want: "-1"},
		{name: "localeCompare equal", code: `"a".localeCompare("a")`, want: "0"},
	})
}

func TestStringPrototypeSplitReplace(t *testing.T) {
	runScriptTests(t, []scriptTest{
		{name: "split string", code: `"a-b-c".split("-").join("+")`, want: "a+b+c"},
		{name: "split empty", code: `"abc".split("").length`, want: "3"},
		{name: "split limit", code: `"a-b-c".split("-", 2).join()`, want: "a,b"},
		{name: "split undefined", code: `"abc".split().length`, want: "1"},
		{name: "split regexp", code: `"a1b2".split(/\d/).join()`, want: "a,b,"},
		{name: "split regexp captures", code: `"a1b".split(/(\d)/).join()`, want: "a,1,b"},
		{name: "replace first", code: `"aXbX".replace("X", "_")`, want: "a_bX"},
		{name: "replaceAll", code: `"aXbX".replaceAll("X", "_")`, want: "a_b_"},
		{name: "replace pattern", code: `"abc".replace(/b/, "[$&]")`, want: "a[b]c"},
		{name: "replace groups", code: `"john smith".replace(/(\w+)\s(\w+)/, "$2 $1")`, want: "smith john"},
		{name: "replace named groups", code: `"2024-05".replace(/(?<y>\d+)-(?<m>\d+)/, "$<m>/$<y>")`, want: "05/2024"},
		{name: "replace dollar", code: `"abc".replace("b", "$$")`, want: "a$c"},
		{name: "replace prefix suffix", code: "\"abc\".replace(\"b\", \"$`$'\")", want: "aacc"},
		{name: "replace function", code: `"abc".replace("b", m => m.toUpperCase())`, want: "aBc"},
		{name: "replace global function", code: `"a1b2".replace(/\d/g, (d, i) => "<" + d + i + ">")`, want: "a<11>b<23>"},
		{name: "replaceAll non-global", code: `"aa".replaceAll(/a/, "b")`, wantErr: "TypeError"},
		{name: "replaceAll global", code: `"aa".replaceAll(/a/g, "b")`, want: "bb"},
	})
}

func TestStringPrototypeMatch(t *testing.T) {
	runScriptTests(t, []scriptTest{
		{name: "match index", code: `"abc".match(/b/).index`, want: "1"},
		{name: "match global", code: `"a1b22".match(/\d+/g).join()`, want: "1,22"},
		{name: "match none", code: `"abc".match(/x/g) === null`, want: "true"},
		{name: "match string", code: `"a.c".match(".")[0]`, want: "a"},
		{name: "search", code: `"abc".search(/c/)`, want: "2"},
		{name: "search miss", code: `"abc".search("x")`, want: "-1"},
		{name: "string iterator", code: `var it = "ab"[Symbol.iterator](); it.next().value + it.next().value + it.next().done`, want: "abtrue"},
	})
}
