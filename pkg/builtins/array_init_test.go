package builtins

import "testing"

func TestArrayConstructor(t *testing.T) {
	runScriptTests(t, []scriptTest{
		{name: "length argument", code: `new Array(3).length`, want: "3"},
		{name: "element arguments", code: `new Array(1, 2).join()`, want: "1,2"},
		{name: "element arguments length", code: `new Array("a", "b", "c").length`, want: "3"},
		{name: "destructure constructed array", code: `var [x, y] = Array(4, 5); x + y`, want: "9"},
		{name: "call without new", code: `Array(2).length`, want: "2"},
		{name: "negative length", code: `new Array(-1)`, wantErr: "RangeError"},
		{name: "fractional length", code: `new Array(1.5)`, wantErr: "RangeError"},
		{name: "of", code: `Array.of(7).length`, want: "1"},
		{name: "from string", code: `Array.from("abc").join()`, want: "a,b,c"},
		{name: "from array-like", code: `Array.from({length: 2, 0: "x", 1: "y"}).join("")`, want: "xy"},
		{name: "from with map", code: `Array.from([1, 2], x => x * 10).join()`, want: "10,20"},
		{name: "isArray", code: `Array.isArray([]) && !Array.isArray({length: 0})`, want: "true"},
		{name: "isArray sees through proxies", code: `Array.isArray(new Proxy([], {}))`, want: "true"},
		{name: "prototype is an array", code: `Array.isArray(Array.prototype)`, want: "true"},
		{name: "species", code: `Array[Symbol.species] === Array`, want: "true"},
		{
			name: "subclass keeps species",
			code: `class MyArray extends Array {}
				var m = new MyArray();
				m.push(1, 2);
				m.map(x => x) instanceof MyArray && m.length === 2`,
			want: "true",
		},
	})
}

func TestArrayPrototypeMutators(t *testing.T) {
	runScriptTests(t, []scriptTest{
		{name: "push returns length", code: `var a = [1, 2, 3]; a.push(4, 5)`, want: "5"},
		{name: "pop", code: `var a = [1, 2]; a.pop() + a.length`, want: "3"},
		{name: "pop empty", code: `[].pop() === undefined`, want: "true"},
		{name: "shift", code: `var a = [1, 2, 3]; a.shift(); a.join()`, want: "2,3"},
		{name: "unshift", code: `var a = [3]; a.unshift(1, 2); a.join()`, want: "1,2,3"},
		{name: "splice removes", code: `[1, 2, 3, 4].splice(1, 2).join()`, want: "2,3"},
		{name: "splice inserts", code: `var a = [1, 2, 3, 4]; a.splice(1, 2, "x"); a.join()`, want: "1,x,4"},
		{name: "reverse", code: `[1, 2, 3].reverse().join()`, want: "3,2,1"},
		{name: "fill", code: `new Array(3).fill(0, 1).join()`, want: ",0,0"},
		{name: "length truncates", code: `var a = [1, 2, 3]; a.length = 1; a.join()`, want: "1"},
		{name: "frozen push", code: `Object.freeze([]).push(1)`, wantErr: "TypeError"},
	})
}

func TestArrayPrototypeSort(t *testing.T) {
	runScriptTests(t, []scriptTest{
		{name: "default is string order", code: `[10, 9, 1].sort().join()`, want: "1,10,9"},
		{name: "comparator", code: `[10, 9, 1].sort((x, y) => x - y).join()`, want: "1,9,10"},
		{name: "undefined last", code: `[undefined, 2, 1].sort().join()`, want: "1,2,"},
		{name: "stable", code: `[{k: 1, v: "a"}, {k: 0, v: "b"}, {k: 1, v: "c"}].sort((x, y) => x.k - y.k).map(o => o.v).join("")`, want: "bac"},
		{name: "bad comparator", code: `[1, 2].sort(1)`, wantErr: "TypeError"},
		{name: "comparator throws", code: `[1, 2, 3].sort(() => { throw new RangeError("x") })`, wantErr: "RangeError"},
	})
}

func TestArrayPrototypeAccessors(t *testing.T) {
	runScriptTests(t, []scriptTest{
		{name: "join nested", code: `[1, [2, [3]]].toString()`, want: "1,2,3"},
		{name: "join nullish", code: `[null, undefined, 1].join("-")`, want: "--1"},
		{name: "join cycle", code: `var a = [1]; a.push(a); a.join()`, want: "1,"},
		{name: "slice negative", code: `[1, 2, 3].slice(-2).join()`, want: "2,3"},
		{name: "concat", code: `[1, 2].concat([3], 4).length`, want: "4"},
		{name: "concat spreadable", code: `var o = {length: 1, 0: "x"}; o[Symbol.isConcatSpreadable] = true; [].concat(o).join()`, want: "x"},
		{name: "at", code: `[1, 2, 3].at(-1)`, want: "3"},
		{name: "indexOf uses strict equality", code: `[NaN].indexOf(NaN)`, want: "-1"},
		{name: "includes uses SameValueZero", code: `[NaN].includes(NaN)`, want: "true"},
		{name: "lastIndexOf", code: `[1, 2, 1].lastIndexOf(1)`, want: "2"},
		{name: "toString on non-array", code: `Array.prototype.toString.call({})`, want: "[object Object]"},
	})
}

func TestArrayPrototypeIteration(t *testing.T) {
	runScriptTests(t, []scriptTest{
		{name: "map", code: `[1, 2, 3].map(x => x * 2).join()`, want: "2,4,6"},
		{name: "filter", code: `[1, 2, 3, 4].filter(x => x % 2 === 0).join()`, want: "2,4"},
		{name: "forEach this", code: `var s = 0; [1, 2].forEach(function (x) { s += x * this.k }, {k: 10}); s`, want: "30"},
		{name: "reduce", code: `[1, 2, 3].reduce((s, x) => s + x)`, want: "6"},
		{name: "reduce empty", code: `[].reduce((s, x) => s + x)`, wantErr: "TypeError"},
		{name: "reduceRight", code: `["a", "b", "c"].reduceRight((s, x) => s + x, "")`, want: "cba"},
		{name: "some every", code: `[1, 2].some(x => x > 1) && ![1, 2].every(x => x > 1)`, want: "true"},
		{name: "find", code: `[5, 12, 8].find(x => x > 10)`, want: "12"},
		{name: "findIndex missing", code: `[1].findIndex(x => x > 10)`, want: "-1"},
		{name: "findLast", code: `[1, 2, 3].findLast(x => x < 3)`, want: "2"},
		{name: "callback required", code: `[1].map()`, wantErr: "TypeError"},
		{name: "holes skipped", code: `var n = 0; [1, , 3].forEach(() => n++); n`, want: "2"},
	})
}

func TestArrayIterators(t *testing.T) {
	runScriptTests(t, []scriptTest{
		{name: "entries", code: `var s = ""; for (var [i, v] of ["a", "b"].entries()) s += i + v; s`, want: "0a1b"},
		{name: "keys", code: `Array.from(["a", "b"].keys()).join()`, want: "0,1"},
		{name: "values is @@iterator", code: `Array.prototype.values === Array.prototype[Symbol.iterator]`, want: "true"},
		{name: "tag", code: `Object.prototype.toString.call([].values())`, want: "[object Array Iterator]"},
		{name: "iterator is iterable", code: `var it = [1][Symbol.iterator](); it[Symbol.iterator]() === it`, want: "true"},
		{name: "exhausted stays done", code: `var it = [1].values(); it.next(); it.next(); it.next().done`, want: "true"},
		{name: "sees appended elements", code: `var a = [1]; var n = 0; for (var x of a) { if (a.length < 3) a.push(x); n++ } n`, want: "3"},
		{name: "unscopables", code: `Array.prototype[Symbol.unscopables].keys === true && Object.getPrototypeOf(Array.prototype[Symbol.unscopables]) === null`, want: "true"},
	})
}

func TestArrayPrototypeFlat(t *testing.T) {
	runScriptTests(t, []scriptTest{
		{name: "one level by default", code: `[[1, 2], [3, [4]]].flat().length`, want: "4"},
		{name: "explicit depth", code: `[1, [2, [3, [4]]]].flat(2).join("|")`, want: "1|2|3,4"},
		{name: "infinite depth", code: `[1, [2, [3, [4]]]].flat(Infinity).length`, want: "4"},
		{name: "zero depth copies", code: `var a = [[1]]; var b = a.flat(0); b !== a && b[0] === a[0]`, want: "true"},
		{name: "skips holes", code: `[1, , [2, , 3]].flat().join()`, want: "1,2,3"},
		{name: "flatMap", code: `[1, 2].flatMap(x => [x, x * 10]).join()`, want: "1,10,2,20"},
		{name: "flatMap one level", code: `[1].flatMap(x => [[x]]).length + ":" + Array.isArray([1].flatMap(x => [[x]])[0])`, want: "1:true"},
		{name: "flatMap this", code: `[1].flatMap(function () { return this.v }, {v: 7})[0]`, want: "7"},
		{name: "flatMap needs callback", code: `[1].flatMap(1)`, wantErr: "TypeError"},
	})
}
