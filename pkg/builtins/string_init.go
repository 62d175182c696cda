package builtins

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"escore/pkg/vm"
)

type StringInitializer struct{}

func (s *StringInitializer) Name() string {
	return "String"
}

func (s *StringInitializer) Priority() int {
	return PriorityString
}

func (s *StringInitializer) InitRuntime(ctx *RuntimeContext) error {
	proto := vm.StringCreate("", ctx.ObjectPrototype)

	var ctor *vm.Object
	ctor = newConstructor(ctx, "String", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		str := ""
		if len(args) > 0 {
			if newTarget == nil && args[0].IsSymbol() {
				return vm.StringValue(args[0].AsSymbol().DescriptiveString()), nil
			}
			var err error
			if str, err = vm.ToString(a, args[0]); err != nil {
				return vm.Undefined, err
			}
		}
		if newTarget == nil {
			return vm.StringValue(str), nil
		}
		p, err := vm.GetPrototypeFromConstructor(a, newTarget, "%String.prototype%")
		if err != nil {
			return vm.Undefined, err
		}
		return vm.ObjectValue(vm.StringCreate(str, p)), nil
	}, proto)

	s.initStatics(ctx, ctor)
	s.initPrototype(ctx, proto)
	s.initIteratorPrototype(ctx)

	return ctx.DefineGlobal("String", vm.ObjectValue(ctor))
}

func (s *StringInitializer) initStatics(ctx *RuntimeContext, ctor *vm.Object) {
	defineMethod(ctx, ctor, "fromCharCode", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		units := make([]uint16, len(args))
		for i, v := range args {
			n, err := vm.ToUint32(a, v)
			if err != nil {
				return vm.Undefined, err
			}
			units[i] = uint16(n)
		}
		return vm.StringValue(vm.StringFromUnits(units)), nil
	})

	defineMethod(ctx, ctor, "fromCodePoint", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		var sb strings.Builder
		for _, v := range args {
			n, err := vm.ToNumber(a, v)
			if err != nil {
				return vm.Undefined, err
			}
			if n != math.Trunc(n) || n < 0 || n > 0x10FFFF {
				return vm.Undefined, a.NewRangeError("Invalid code point %s", vm.NumberToString(n))
			}
			sb.WriteRune(rune(n))
		}
		return vm.StringValue(sb.String()), nil
	})

	defineMethod(ctx, ctor, "raw", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		cooked, err := vm.ToObject(a, arg(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		rawValue, err := vm.Get(a, cooked, vm.StringKey("raw"))
		if err != nil {
			return vm.Undefined, err
		}
		raw, err := vm.ToObject(a, rawValue)
		if err != nil {
			return vm.Undefined, err
		}
		length, err := vm.LengthOfArrayLike(a, raw)
		if err != nil {
			return vm.Undefined, err
		}
		var sb strings.Builder
		for i := int64(0); i < length; i++ {
			seg, err := vm.Get(a, raw, indexKey(i))
			if err != nil {
				return vm.Undefined, err
			}
			str, err := vm.ToString(a, seg)
			if err != nil {
				return vm.Undefined, err
			}
			sb.WriteString(str)
			if i+1 < length && int(i+1) < len(args) {
				sub, err := vm.ToString(a, args[i+1])
				if err != nil {
					return vm.Undefined, err
				}
				sb.WriteString(sub)
			}
		}
		return vm.StringValue(sb.String()), nil
	})
}

func (s *StringInitializer) initPrototype(ctx *RuntimeContext, proto *vm.Object) {
	defineMethod(ctx, proto, "toString", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		return thisStringValue(a, this, "String.prototype.toString")
	})

	defineMethod(ctx, proto, "valueOf", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		return thisStringValue(a, this, "String.prototype.valueOf")
	})

	defineMethod(ctx, proto, "charAt", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		units, pos, err := unitsAndPosition(a, this, arg(args, 0), "String.prototype.charAt")
		if err != nil {
			return vm.Undefined, err
		}
		if pos < 0 || pos >= float64(len(units)) {
			return vm.StringValue(""), nil
		}
		return vm.StringValue(vm.StringFromUnits(units[int(pos) : int(pos)+1])), nil
	})

	defineMethod(ctx, proto, "charCodeAt", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		units, pos, err := unitsAndPosition(a, this, arg(args, 0), "String.prototype.charCodeAt")
		if err != nil {
			return vm.Undefined, err
		}
		if pos < 0 || pos >= float64(len(units)) {
			return vm.NaN, nil
		}
		return vm.IntValue(int(units[int(pos)])), nil
	})

	defineMethod(ctx, proto, "codePointAt", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		units, pos, err := unitsAndPosition(a, this, arg(args, 0), "String.prototype.codePointAt")
		if err != nil {
			return vm.Undefined, err
		}
		if pos < 0 || pos >= float64(len(units)) {
			return vm.Undefined, nil
		}
		cp, _ := codePointAt(units, int(pos))
		return vm.IntValue(int(cp)), nil
	})

	defineMethod(ctx, proto, "at", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		units, pos, err := unitsAndPosition(a, this, arg(args, 0), "String.prototype.at")
		if err != nil {
			return vm.Undefined, err
		}
		if pos < 0 {
			pos += float64(len(units))
		}
		if pos < 0 || pos >= float64(len(units)) {
			return vm.Undefined, nil
		}
		return vm.StringValue(vm.StringFromUnits(units[int(pos) : int(pos)+1])), nil
	})

	defineMethod(ctx, proto, "indexOf", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		str, search, err := thisAndSearchString(a, this, arg(args, 0), "String.prototype.indexOf", false)
		if err != nil {
			return vm.Undefined, err
		}
		pos, err := clampedPosition(a, arg(args, 1), len(str), 0)
		if err != nil {
			return vm.Undefined, err
		}
		return vm.IntValue(indexOfUnits(str, search, pos)), nil
	})

	defineMethod(ctx, proto, "lastIndexOf", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		str, search, err := thisAndSearchString(a, this, arg(args, 0), "String.prototype.lastIndexOf", false)
		if err != nil {
			return vm.Undefined, err
		}
		n, err := vm.ToNumber(a, arg(args, 1))
		if err != nil {
			return vm.Undefined, err
		}
		start := len(str)
		if !math.IsNaN(n) {
			start = int(math.Min(math.Max(integer(n), 0), float64(len(str))))
		}
		for i := min(start, len(str)-len(search)); i >= 0; i-- {
			if unitsHavePrefix(str[i:], search) {
				return vm.IntValue(i), nil
			}
		}
		return vm.IntValue(-1), nil
	})

	defineMethod(ctx, proto, "includes", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		str, search, err := thisAndSearchString(a, this, arg(args, 0), "String.prototype.includes", true)
		if err != nil {
			return vm.Undefined, err
		}
		pos, err := clampedPosition(a, arg(args, 1), len(str), 0)
		if err != nil {
			return vm.Undefined, err
		}
		return vm.BooleanValue(indexOfUnits(str, search, pos) >= 0), nil
	})

	defineMethod(ctx, proto, "startsWith", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		str, search, err := thisAndSearchString(a, this, arg(args, 0), "String.prototype.startsWith", true)
		if err != nil {
			return vm.Undefined, err
		}
		start, err := clampedPosition(a, arg(args, 1), len(str), 0)
		if err != nil {
			return vm.Undefined, err
		}
		return vm.BooleanValue(unitsHavePrefix(str[start:], search)), nil
	})

	defineMethod(ctx, proto, "endsWith", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		str, search, err := thisAndSearchString(a, this, arg(args, 0), "String.prototype.endsWith", true)
		if err != nil {
			return vm.Undefined, err
		}
		end, err := clampedPosition(a, arg(args, 1), len(str), len(str))
		if err != nil {
			return vm.Undefined, err
		}
		start := end - len(search)
		return vm.BooleanValue(start >= 0 && unitsHavePrefix(str[start:end], search)), nil
	})

	defineMethod(ctx, proto, "slice", 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		units, err := thisUnits(a, this, "String.prototype.slice")
		if err != nil {
			return vm.Undefined, err
		}
		length := int64(len(units))
		from, err := relativeIndex(a, arg(args, 0), length, 0)
		if err != nil {
			return vm.Undefined, err
		}
		to, err := relativeIndex(a, arg(args, 1), length, length)
		if err != nil {
			return vm.Undefined, err
		}
		if from >= to {
			return vm.StringValue(""), nil
		}
		return vm.StringValue(vm.StringFromUnits(units[from:to])), nil
	})

	defineMethod(ctx, proto, "substring", 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		units, err := thisUnits(a, this, "String.prototype.substring")
		if err != nil {
			return vm.Undefined, err
		}
		start, err := clampedPosition(a, arg(args, 0), len(units), 0)
		if err != nil {
			return vm.Undefined, err
		}
		end, err := clampedPosition(a, arg(args, 1), len(units), len(units))
		if err != nil {
			return vm.Undefined, err
		}
		if start > end {
			start, end = end, start
		}
		return vm.StringValue(vm.StringFromUnits(units[start:end])), nil
	})

	defineMethod(ctx, proto, "concat", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		str, err := thisString(a, this, "String.prototype.concat")
		if err != nil {
			return vm.Undefined, err
		}
		var sb strings.Builder
		sb.WriteString(str)
		for _, v := range args {
			next, err := vm.ToString(a, v)
			if err != nil {
				return vm.Undefined, err
			}
			sb.WriteString(next)
		}
		return vm.StringValue(sb.String()), nil
	})

	caseMappers := map[string]func(string) string{
		"toUpperCase":       strings.ToUpper,
		"toLowerCase":       strings.ToLower,
		"toLocaleUpperCase": strings.ToUpper,
		"toLocaleLowerCase": strings.ToLower,
		"trim":              vm.TrimJSSpace,
		"trimStart":         func(s string) string { return strings.TrimLeftFunc(s, vm.IsJSSpace) },
		"trimEnd":           func(s string) string { return strings.TrimRightFunc(s, vm.IsJSSpace) },
	}
	for name, mapper := range caseMappers {
		defineMethod(ctx, proto, name, 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
			str, err := thisString(a, this, "String.prototype."+name)
			if err != nil {
				return vm.Undefined, err
			}
			return vm.StringValue(mapper(str)), nil
		})
	}

	defineMethod(ctx, proto, "repeat", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		str, err := thisString(a, this, "String.prototype.repeat")
		if err != nil {
			return vm.Undefined, err
		}
		n, err := vm.ToIntegerOrInfinity(a, arg(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		if n < 0 || math.IsInf(n, 1) {
			return vm.Undefined, a.NewRangeError("Invalid count value: %s", vm.NumberToString(n))
		}
		if str == "" || n == 0 {
			return vm.StringValue(""), nil
		}
		if float64(len(str))*n > maxStringLength {
			return vm.Undefined, a.NewRangeError("Invalid string length")
		}
		return vm.StringValue(strings.Repeat(str, int(n))), nil
	})

	for _, atStart := range []bool{true, false} {
		name := "padEnd"
		if atStart {
			name = "padStart"
		}
		defineMethod(ctx, proto, name, 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
			units, err := thisUnits(a, this, "String.prototype."+name)
			if err != nil {
				return vm.Undefined, err
			}
			return padString(a, units, arg(args, 0), arg(args, 1), atStart)
		})
	}

	defineMethod(ctx, proto, "split", 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		if _, err := vm.RequireObjectCoercible(a, this); err != nil {
			return vm.Undefined, err
		}
		if v, ok, err := delegateToSymbol(a, arg(args, 0), vm.SymSplit, this, arg(args, 1)); ok || err != nil {
			return v, err
		}
		str, err := vm.ToString(a, this)
		if err != nil {
			return vm.Undefined, err
		}
		limit := uint32(math.MaxUint32)
		if l := arg(args, 1); !l.IsUndefined() {
			if limit, err = vm.ToUint32(a, l); err != nil {
				return vm.Undefined, err
			}
		}
		sepValue := arg(args, 0)
		sep, err := vm.ToString(a, sepValue)
		if err != nil {
			return vm.Undefined, err
		}
		if limit == 0 {
			return vm.ObjectValue(vm.CreateArrayFromList(a, nil)), nil
		}
		if sepValue.IsUndefined() {
			return vm.ObjectValue(vm.CreateArrayFromList(a, []vm.Value{vm.StringValue(str)})), nil
		}
		var parts []vm.Value
		units, sepUnits := vm.UTF16Units(str), vm.UTF16Units(sep)
		if len(sepUnits) == 0 {
			for i := 0; i < len(units) && uint32(len(parts)) < limit; i++ {
				parts = append(parts, vm.StringValue(vm.StringFromUnits(units[i:i+1])))
			}
			return vm.ObjectValue(vm.CreateArrayFromList(a, parts)), nil
		}
		p := 0
		for uint32(len(parts)) < limit {
			q := indexOfUnits(units, sepUnits, p)
			if q < 0 {
				parts = append(parts, vm.StringValue(vm.StringFromUnits(units[p:])))
				break
			}
			parts = append(parts, vm.StringValue(vm.StringFromUnits(units[p:q])))
			p = q + len(sepUnits)
		}
		return vm.ObjectValue(vm.CreateArrayFromList(a, parts)), nil
	})

	defineMethod(ctx, proto, "replace", 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		return stringReplace(a, this, args, false)
	})

	defineMethod(ctx, proto, "replaceAll", 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		return stringReplace(a, this, args, true)
	})

	for _, m := range []struct {
		name string
		sym  *vm.Symbol
	}{{"match", vm.SymMatch}, {"search", vm.SymSearch}} {
		defineMethod(ctx, proto, m.name, 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
			if _, err := vm.RequireObjectCoercible(a, this); err != nil {
				return vm.Undefined, err
			}
			if v, ok, err := delegateToSymbol(a, arg(args, 0), m.sym, this); ok || err != nil {
				return v, err
			}
			str, err := vm.ToString(a, this)
			if err != nil {
				return vm.Undefined, err
			}
			rx, err := regExpCreate(a, arg(args, 0), vm.Undefined)
			if err != nil {
				return vm.Undefined, err
			}
			return vm.Invoke(a, vm.ObjectValue(rx), vm.SymbolKey(m.sym), []vm.Value{vm.StringValue(str)})
		})
	}

	defineMethod(ctx, proto, "localeCompare", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		str, err := thisString(a, this, "String.prototype.localeCompare")
		if err != nil {
			return vm.Undefined, err
		}
		that, err := vm.ToString(a, arg(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		tag := language.Und
		if l := arg(args, 1); l.IsString() {
			if parsed, err := language.Parse(l.AsString()); err == nil {
				tag = parsed
			}
		}
		return vm.IntValue(collate.New(tag).CompareString(str, that)), nil
	})

	defineMethod(ctx, proto, "normalize", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		str, err := thisString(a, this, "String.prototype.normalize")
		if err != nil {
			return vm.Undefined, err
		}
		form := "NFC"
		if f := arg(args, 0); !f.IsUndefined() {
			if form, err = vm.ToString(a, f); err != nil {
				return vm.Undefined, err
			}
		}
		forms := map[string]norm.Form{"NFC": norm.NFC, "NFD": norm.NFD, "NFKC": norm.NFKC, "NFKD": norm.NFKD}
		nf, ok := forms[form]
		if !ok {
			return vm.Undefined, a.NewRangeError("The normalization form should be one of NFC, NFD, NFKC, NFKD.")
		}
		return vm.StringValue(nf.String(str)), nil
	})

	defineSymbolMethod(ctx, proto, vm.SymIterator, 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		str, err := thisString(a, this, "String.prototype[Symbol.iterator]")
		if err != nil {
			return vm.Undefined, err
		}
		proto := a.CurrentRealm().Intrinsic("%StringIteratorPrototype%")
		return vm.ObjectValue(newListIterator(proto, vm.StringValue(str), iterateValues)), nil
	})
}

// initIteratorPrototype creates %StringIteratorPrototype%, which yields
// code points rather than code units.
func (s *StringInitializer) initIteratorPrototype(ctx *RuntimeContext) {
	proto := vm.OrdinaryObjectCreate(ctx.Realm.Intrinsic("%IteratorPrototype%"))
	defineMethod(ctx, proto, "next", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		it, err := thisListIterator(a, this, "String Iterator.prototype.next")
		if err != nil {
			return vm.Undefined, err
		}
		units := vm.UTF16Units(it.target.AsString())
		if it.done || it.index >= int64(len(units)) {
			it.done = true
			return vm.ObjectValue(vm.CreateIterResultObject(a, vm.Undefined, true)), nil
		}
		_, size := codePointAt(units, int(it.index))
		start := int(it.index)
		it.index += int64(size)
		return vm.ObjectValue(vm.CreateIterResultObject(a, vm.StringValue(vm.StringFromUnits(units[start:start+size])), false)), nil
	})
	defineToStringTag(proto, "String Iterator")
	ctx.Realm.SetIntrinsic("%StringIteratorPrototype%", proto)
}

// maxStringLength bounds the results of repeat and padding.
const maxStringLength = 1 << 30

func thisStringValue(a *vm.Agent, v vm.Value, method string) (vm.Value, error) {
	if v.IsString() {
		return v, nil
	}
	if v.IsObject() && v.AsObject().Class() == "String" {
		if p := v.AsObject().PrimitiveData(); p.IsString() {
			return p, nil
		}
	}
	return vm.Undefined, a.NewTypeError("%s requires that 'this' be a String", method)
}

// thisString coerces the receiver of a String.prototype method.
func thisString(a *vm.Agent, this vm.Value, method string) (string, error) {
	if this.IsNullish() {
		return "", a.NewTypeError("%s called on null or undefined", method)
	}
	return vm.ToString(a, this)
}

func thisUnits(a *vm.Agent, this vm.Value, method string) ([]uint16, error) {
	str, err := thisString(a, this, method)
	if err != nil {
		return nil, err
	}
	return vm.UTF16Units(str), nil
}

func unitsAndPosition(a *vm.Agent, this, position vm.Value, method string) ([]uint16, float64, error) {
	units, err := thisUnits(a, this, method)
	if err != nil {
		return nil, 0, err
	}
	pos, err := vm.ToIntegerOrInfinity(a, position)
	return units, pos, err
}

// thisAndSearchString prepares the receiver and search string of indexOf
// and friends. Methods that forbid RegExp arguments pass rejectRegExp.
func thisAndSearchString(a *vm.Agent, this, search vm.Value, method string, rejectRegExp bool) ([]uint16, []uint16, error) {
	units, err := thisUnits(a, this, method)
	if err != nil {
		return nil, nil, err
	}
	if rejectRegExp {
		isRegExp, err := isRegExp(a, search)
		if err != nil {
			return nil, nil, err
		}
		if isRegExp {
			return nil, nil, a.NewTypeError("First argument to %s must not be a regular expression", method)
		}
	}
	s, err := vm.ToString(a, search)
	if err != nil {
		return nil, nil, err
	}
	return units, vm.UTF16Units(s), nil
}

// clampedPosition converts v to an integer clamped to [0, length].
func clampedPosition(a *vm.Agent, v vm.Value, length, def int) (int, error) {
	if v.IsUndefined() {
		return def, nil
	}
	n, err := vm.ToIntegerOrInfinity(a, v)
	if err != nil {
		return 0, err
	}
	return int(math.Min(math.Max(n, 0), float64(length))), nil
}

func integer(n float64) float64 {
	if math.IsNaN(n) {
		return 0
	}
	return math.Trunc(n)
}

func unitsHavePrefix(s, prefix []uint16) bool {
	if len(prefix) > len(s) {
		return false
	}
	for i, u := range prefix {
		if s[i] != u {
			return false
		}
	}
	return true
}

// indexOfUnits finds search in s at or after from, or returns -1.
func indexOfUnits(s, search []uint16, from int) int {
	for i := from; i+len(search) <= len(s); i++ {
		if unitsHavePrefix(s[i:], search) {
			return i
		}
	}
	return -1
}

// codePointAt decodes the code point at index and reports how many code
// units it spans.
func codePointAt(units []uint16, index int) (rune, int) {
	first := units[index]
	if utf16.IsSurrogate(rune(first)) && first < 0xDC00 && index+1 < len(units) {
		second := units[index+1]
		if second >= 0xDC00 && second <= 0xDFFF {
			return utf16.DecodeRune(rune(first), rune(second)), 2
		}
	}
	return rune(first), 1
}

func padString(a *vm.Agent, units []uint16, maxLength, fillString vm.Value, atStart bool) (vm.Value, error) {
	intMax, err := vm.ToLength(a, maxLength)
	if err != nil {
		return vm.Undefined, err
	}
	str := vm.StringFromUnits(units)
	if intMax <= int64(len(units)) {
		return vm.StringValue(str), nil
	}
	filler := " "
	if !fillString.IsUndefined() {
		if filler, err = vm.ToString(a, fillString); err != nil {
			return vm.Undefined, err
		}
	}
	if filler == "" {
		return vm.StringValue(str), nil
	}
	if intMax > maxStringLength {
		return vm.Undefined, a.NewRangeError("Invalid string length")
	}
	fillLen := int(intMax) - len(units)
	fillUnits := vm.UTF16Units(filler)
	pad := make([]uint16, 0, fillLen)
	for len(pad) < fillLen {
		pad = append(pad, fillUnits[:min(len(fillUnits), fillLen-len(pad))]...)
	}
	if atStart {
		return vm.StringValue(vm.StringFromUnits(append(pad, units...))), nil
	}
	return vm.StringValue(vm.StringFromUnits(append(units, pad...))), nil
}

// delegateToSymbol calls target[sym](receiver, rest...) when target is
// an object with such a method, as String.prototype.split, match, search
// and replace do for RegExp-like arguments.
func delegateToSymbol(a *vm.Agent, target vm.Value, sym *vm.Symbol, receiver vm.Value, rest ...vm.Value) (vm.Value, bool, error) {
	if target.IsNullish() {
		return vm.Undefined, false, nil
	}
	method, err := vm.GetMethod(a, target, vm.SymbolKey(sym))
	if err != nil || method.IsUndefined() {
		return vm.Undefined, false, err
	}
	v, err := vm.Call(a, method, target, append([]vm.Value{receiver}, rest...))
	return v, true, err
}

func stringReplace(a *vm.Agent, this vm.Value, args []vm.Value, all bool) (vm.Value, error) {
	if _, err := vm.RequireObjectCoercible(a, this); err != nil {
		return vm.Undefined, err
	}
	search, replace := arg(args, 0), arg(args, 1)
	if all && search.IsObject() {
		isRegExp, err := isRegExp(a, search)
		if err != nil {
			return vm.Undefined, err
		}
		if isRegExp {
			flags, err := vm.Get(a, search.AsObject(), vm.StringKey("flags"))
			if err != nil {
				return vm.Undefined, err
			}
			f, err := vm.ToString(a, flags)
			if err != nil {
				return vm.Undefined, err
			}
			if !strings.Contains(f, "g") {
				return vm.Undefined, a.NewTypeError("replaceAll must be called with a global RegExp")
			}
		}
	}
	if v, ok, err := delegateToSymbol(a, search, vm.SymReplace, this, replace); ok || err != nil {
		return v, err
	}
	str, err := vm.ToString(a, this)
	if err != nil {
		return vm.Undefined, err
	}
	searchStr, err := vm.ToString(a, search)
	if err != nil {
		return vm.Undefined, err
	}
	functional := vm.IsCallable(replace)
	var replaceStr string
	if !functional {
		if replaceStr, err = vm.ToString(a, replace); err != nil {
			return vm.Undefined, err
		}
	}
	units, searchUnits := vm.UTF16Units(str), vm.UTF16Units(searchStr)
	advance := max(1, len(searchUnits))
	var positions []int
	for p := indexOfUnits(units, searchUnits, 0); p >= 0; p = indexOfUnits(units, searchUnits, p+advance) {
		positions = append(positions, p)
		if !all {
			break
		}
	}
	var out []uint16
	end := 0
	for _, p := range positions {
		var replacement string
		if functional {
			v, err := vm.Call(a, replace, vm.Undefined, []vm.Value{vm.StringValue(searchStr), vm.IntValue(p), vm.StringValue(str)})
			if err != nil {
				return vm.Undefined, err
			}
			if replacement, err = vm.ToString(a, v); err != nil {
				return vm.Undefined, err
			}
		} else {
			replacement, err = getSubstitution(a, searchUnits, units, p, nil, vm.Undefined, replaceStr)
			if err != nil {
				return vm.Undefined, err
			}
		}
		out = append(out, units[end:p]...)
		out = append(out, vm.UTF16Units(replacement)...)
		end = p + len(searchUnits)
	}
	out = append(out, units[end:]...)
	return vm.StringValue(vm.StringFromUnits(out)), nil
}

// getSubstitution expands the $ patterns of a replacement template.
func getSubstitution(a *vm.Agent, matched, str []uint16, position int, captures []vm.Value, namedCaptures vm.Value, replacement string) (string, error) {
	var sb strings.Builder
	tail := min(position+len(matched), len(str))
	for i := 0; i < len(replacement); i++ {
		c := replacement[i]
		if c != '$' || i+1 >= len(replacement) {
			sb.WriteByte(c)
			continue
		}
		next := replacement[i+1]
		switch {
		case next == '$':
			sb.WriteByte('$')
			i++
		case next == '&':
			sb.WriteString(vm.StringFromUnits(matched))
			i++
		case next == '`':
			sb.WriteString(vm.StringFromUnits(str[:position]))
			i++
		case next == '\'':
			sb.WriteString(vm.StringFromUnits(str[tail:]))
			i++
		case next >= '0' && next <= '9':
			digits := 1
			if i+2 < len(replacement) && replacement[i+2] >= '0' && replacement[i+2] <= '9' {
				if n, _ := strconv.Atoi(replacement[i+1 : i+3]); n >= 1 && n <= len(captures) {
					digits = 2
				}
			}
			n, _ := strconv.Atoi(replacement[i+1 : i+1+digits])
			if n < 1 || n > len(captures) {
				sb.WriteByte('$')
				continue
			}
			if capture := captures[n-1]; !capture.IsUndefined() {
				s, err := vm.ToString(a, capture)
				if err != nil {
					return "", err
				}
				sb.WriteString(s)
			}
			i += digits
		case next == '<' && !namedCaptures.IsUndefined():
			gt := strings.IndexByte(replacement[i+2:], '>')
			if gt < 0 {
				sb.WriteByte('$')
				continue
			}
			groupName := replacement[i+2 : i+2+gt]
			capture, err := vm.GetV(a, namedCaptures, vm.StringKey(groupName))
			if err != nil {
				return "", err
			}
			if !capture.IsUndefined() {
				s, err := vm.ToString(a, capture)
				if err != nil {
					return "", err
				}
				sb.WriteString(s)
			}
			i += 2 + gt
		default:
			sb.WriteByte('$')
		}
	}
	return sb.String(), nil
}
