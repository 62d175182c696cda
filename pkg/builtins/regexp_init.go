package builtins

import (
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"

	"escore/pkg/vm"
)

type RegExpInitializer struct{}

func (r *RegExpInitializer) Name() string {
	return "RegExp"
}

func (r *RegExpInitializer) Priority() int {
	return PriorityRegExp
}

// regExpData is the [[RegExpMatcher]] of a RegExp instance together with
// its [[OriginalSource]] and [[OriginalFlags]].
type regExpData struct {
	source string
	flags  string
	rx     *regexp2.Regexp
}

const regExpSlot = "RegExpMatcher"

// regExpFlags maps each valid flag to the accessor reporting it.
var regExpFlags = []struct {
	flag   byte
	getter string
}{
	{'d', "hasIndices"},
	{'g', "global"},
	{'i', "ignoreCase"},
	{'m', "multiline"},
	{'s', "dotAll"},
	{'u', "unicode"},
	{'v', "unicodeSets"},
	{'y', "sticky"},
}

func (r *RegExpInitializer) InitRuntime(ctx *RuntimeContext) error {
	proto := vm.OrdinaryObjectCreate(ctx.ObjectPrototype)

	var ctor *vm.Object
	ctor = newConstructor(ctx, "RegExp", 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		pattern, flags := arg(args, 0), arg(args, 1)
		patternIsRegExp, err := isRegExp(a, pattern)
		if err != nil {
			return vm.Undefined, err
		}
		if newTarget == nil {
			newTarget = ctor
			if patternIsRegExp && flags.IsUndefined() {
				pc, err := vm.Get(a, pattern.AsObject(), vm.StringKey("constructor"))
				if err != nil {
					return vm.Undefined, err
				}
				if vm.SameValue(pc, vm.ObjectValue(newTarget)) {
					return pattern, nil
				}
			}
		}
		if data := regExpDataOf(pattern); data != nil {
			pattern = vm.StringValue(data.source)
			if flags.IsUndefined() {
				flags = vm.StringValue(data.flags)
			}
		} else if patternIsRegExp {
			src, err := vm.Get(a, pattern.AsObject(), vm.StringKey("source"))
			if err != nil {
				return vm.Undefined, err
			}
			if flags.IsUndefined() {
				if flags, err = vm.Get(a, pattern.AsObject(), vm.StringKey("flags")); err != nil {
					return vm.Undefined, err
				}
			}
			pattern = src
		}
		obj, err := vm.OrdinaryCreateFromConstructor(a, newTarget, "%RegExp.prototype%")
		if err != nil {
			return vm.Undefined, err
		}
		if err := regExpInitialize(a, obj, pattern, flags); err != nil {
			return vm.Undefined, err
		}
		return vm.ObjectValue(obj), nil
	}, proto)

	defineGetter(ctx, ctor, vm.SymbolKey(vm.SymSpecies), func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		return this, nil
	})

	r.initPrototype(ctx, proto)
	return ctx.DefineGlobal("RegExp", vm.ObjectValue(ctor))
}

func (r *RegExpInitializer) initPrototype(ctx *RuntimeContext, proto *vm.Object) {
	defineMethod(ctx, proto, "exec", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		rx, err := thisRegExp(a, this, "RegExp.prototype.exec")
		if err != nil {
			return vm.Undefined, err
		}
		s, err := vm.ToString(a, arg(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		return regExpBuiltinExec(a, rx, s)
	})

	defineMethod(ctx, proto, "test", 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		rx, err := requireObject(a, this, "RegExp.prototype.test")
		if err != nil {
			return vm.Undefined, err
		}
		s, err := vm.ToString(a, arg(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		result, err := regExpExec(a, rx, s)
		if err != nil {
			return vm.Undefined, err
		}
		return vm.BooleanValue(!result.IsNull()), nil
	})

	defineMethod(ctx, proto, "toString", 0, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		rx, err := requireObject(a, this, "RegExp.prototype.toString")
		if err != nil {
			return vm.Undefined, err
		}
		var parts [2]string
		for i, name := range []string{"source", "flags"} {
			v, err := vm.Get(a, rx, vm.StringKey(name))
			if err != nil {
				return vm.Undefined, err
			}
			if parts[i], err = vm.ToString(a, v); err != nil {
				return vm.Undefined, err
			}
		}
		return vm.StringValue("/" + parts[0] + "/" + parts[1]), nil
	})

	defineGetter(ctx, proto, vm.StringKey("source"), func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		if this.IsObject() && this.AsObject() == a.CurrentRealm().Intrinsic("%RegExp.prototype%") {
			return vm.StringValue("(?:)"), nil
		}
		data := regExpDataOf(this)
		if data == nil {
			return vm.Undefined, a.NewTypeError("RegExp.prototype.source getter called on non-RegExp object")
		}
		return vm.StringValue(escapeRegExpPattern(data.source)), nil
	})

	defineGetter(ctx, proto, vm.StringKey("flags"), func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		rx, err := requireObject(a, this, "RegExp.prototype.flags getter")
		if err != nil {
			return vm.Undefined, err
		}
		var sb strings.Builder
		for _, f := range regExpFlags {
			v, err := vm.Get(a, rx, vm.StringKey(f.getter))
			if err != nil {
				return vm.Undefined, err
			}
			if vm.ToBoolean(v) {
				sb.WriteByte(f.flag)
			}
		}
		return vm.StringValue(sb.String()), nil
	})

	for _, f := range regExpFlags {
		defineGetter(ctx, proto, vm.StringKey(f.getter), func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
			data := regExpDataOf(this)
			if data == nil {
				if this.IsObject() && this.AsObject() == a.CurrentRealm().Intrinsic("%RegExp.prototype%") {
					return vm.Undefined, nil
				}
				return vm.Undefined, a.NewTypeError("RegExp.prototype.%s getter called on non-RegExp object", f.getter)
			}
			return vm.BooleanValue(strings.IndexByte(data.flags, f.flag) >= 0), nil
		})
	}

	defineSymbolMethod(ctx, proto, vm.SymMatch, 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		rx, err := requireObject(a, this, "RegExp.prototype[Symbol.match]")
		if err != nil {
			return vm.Undefined, err
		}
		s, err := vm.ToString(a, arg(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		flags, err := flagsOf(a, rx)
		if err != nil {
			return vm.Undefined, err
		}
		if !strings.Contains(flags, "g") {
			return regExpExec(a, rx, s)
		}
		fullUnicode := strings.ContainsAny(flags, "uv")
		if err := vm.Set(a, rx, vm.StringKey("lastIndex"), vm.IntValue(0), true); err != nil {
			return vm.Undefined, err
		}
		var matches []vm.Value
		for {
			result, err := regExpExec(a, rx, s)
			if err != nil {
				return vm.Undefined, err
			}
			if result.IsNull() {
				if len(matches) == 0 {
					return vm.Null, nil
				}
				return vm.ObjectValue(vm.CreateArrayFromList(a, matches)), nil
			}
			matchStr, err := matchString(a, result)
			if err != nil {
				return vm.Undefined, err
			}
			matches = append(matches, vm.StringValue(matchStr))
			if matchStr == "" {
				if err := advanceLastIndex(a, rx, s, fullUnicode); err != nil {
					return vm.Undefined, err
				}
			}
		}
	})

	defineSymbolMethod(ctx, proto, vm.SymSearch, 1, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		rx, err := requireObject(a, this, "RegExp.prototype[Symbol.search]")
		if err != nil {
			return vm.Undefined, err
		}
		s, err := vm.ToString(a, arg(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		lastIndexKey := vm.StringKey("lastIndex")
		previous, err := vm.Get(a, rx, lastIndexKey)
		if err != nil {
			return vm.Undefined, err
		}
		if !vm.SameValue(previous, vm.IntValue(0)) {
			if err := vm.Set(a, rx, lastIndexKey, vm.IntValue(0), true); err != nil {
				return vm.Undefined, err
			}
		}
		result, err := regExpExec(a, rx, s)
		if err != nil {
			return vm.Undefined, err
		}
		current, err := vm.Get(a, rx, lastIndexKey)
		if err != nil {
			return vm.Undefined, err
		}
		if !vm.SameValue(current, previous) {
			if err := vm.Set(a, rx, lastIndexKey, previous, true); err != nil {
				return vm.Undefined, err
			}
		}
		if result.IsNull() {
			return vm.IntValue(-1), nil
		}
		return vm.Get(a, result.AsObject(), vm.StringKey("index"))
	})

	defineSymbolMethod(ctx, proto, vm.SymReplace, 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		rx, err := requireObject(a, this, "RegExp.prototype[Symbol.replace]")
		if err != nil {
			return vm.Undefined, err
		}
		s, err := vm.ToString(a, arg(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		return regExpReplace(a, rx, s, arg(args, 1))
	})

	defineSymbolMethod(ctx, proto, vm.SymSplit, 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		rx, err := requireObject(a, this, "RegExp.prototype[Symbol.split]")
		if err != nil {
			return vm.Undefined, err
		}
		s, err := vm.ToString(a, arg(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		return regExpSplit(a, rx, s, arg(args, 1))
	})
}

// regExpInitialize validates the flags, compiles the pattern and resets
// lastIndex.
func regExpInitialize(a *vm.Agent, obj *vm.Object, pattern, flags vm.Value) error {
	p, f := "", ""
	var err error
	if !pattern.IsUndefined() {
		if p, err = vm.ToString(a, pattern); err != nil {
			return err
		}
	}
	if !flags.IsUndefined() {
		if f, err = vm.ToString(a, flags); err != nil {
			return err
		}
	}
	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	seen := make(map[rune]bool)
	for _, c := range f {
		if seen[c] || !strings.ContainsRune("dgimsuvy", c) {
			return a.NewSyntaxError("Invalid regular expression flags '%s'", f)
		}
		seen[c] = true
		switch c {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			opts |= regexp2.Singleline
		case 'u', 'v':
			opts |= regexp2.Unicode
		}
	}
	rx, err := regexp2.Compile(p, opts)
	if err != nil {
		return a.NewSyntaxError("Invalid regular expression: /%s/%s: %s", p, f, err.Error())
	}
	obj.SetClass("RegExp")
	obj.SetSlot(regExpSlot, &regExpData{source: p, flags: f, rx: rx})
	if !obj.HasOwnStored(vm.StringKey("lastIndex")) {
		obj.DefineDataProperty(vm.StringKey("lastIndex"), vm.IntValue(0), true, false, false)
	}
	return vm.Set(a, obj, vm.StringKey("lastIndex"), vm.IntValue(0), true)
}

// regExpCreate builds a RegExp of the current realm, as String.prototype
// match and search do for non-RegExp arguments.
func regExpCreate(a *vm.Agent, pattern, flags vm.Value) (*vm.Object, error) {
	obj := vm.OrdinaryObjectCreate(a.CurrentRealm().Intrinsic("%RegExp.prototype%"))
	if err := regExpInitialize(a, obj, pattern, flags); err != nil {
		return nil, err
	}
	return obj, nil
}

func regExpDataOf(v vm.Value) *regExpData {
	if !v.IsObject() {
		return nil
	}
	s, ok := v.AsObject().Slot(regExpSlot)
	if !ok {
		return nil
	}
	data, _ := s.(*regExpData)
	return data
}

func thisRegExp(a *vm.Agent, this vm.Value, method string) (*vm.Object, error) {
	if regExpDataOf(this) == nil {
		return nil, a.NewTypeError("%s called on incompatible receiver %s", method, this.Inspect())
	}
	return this.AsObject(), nil
}

// isRegExp reports whether v should be treated as a regular expression:
// @@match decides when present, the RegExpMatcher slot otherwise.
func isRegExp(a *vm.Agent, v vm.Value) (bool, error) {
	if !v.IsObject() {
		return false, nil
	}
	matcher, err := vm.Get(a, v.AsObject(), vm.SymbolKey(vm.SymMatch))
	if err != nil {
		return false, err
	}
	if !matcher.IsUndefined() {
		return vm.ToBoolean(matcher), nil
	}
	return regExpDataOf(v) != nil, nil
}

func escapeRegExpPattern(src string) string {
	if src == "" {
		return "(?:)"
	}
	var sb strings.Builder
	inClass := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '\\' && i+1 < len(src):
			sb.WriteByte(c)
			i++
			c = src[i]
		case c == '[':
			inClass = true
		case c == ']':
			inClass = false
		case c == '/' && !inClass:
			sb.WriteByte('\\')
		case c == '\n':
			sb.WriteString(`\n`)
			continue
		case c == '\r':
			sb.WriteString(`\r`)
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func flagsOf(a *vm.Agent, rx *vm.Object) (string, error) {
	v, err := vm.Get(a, rx, vm.StringKey("flags"))
	if err != nil {
		return "", err
	}
	return vm.ToString(a, v)
}

// regExpExec runs a user-overridable exec method, falling back to the
// builtin matcher.
func regExpExec(a *vm.Agent, rx *vm.Object, s string) (vm.Value, error) {
	exec, err := vm.Get(a, rx, vm.StringKey("exec"))
	if err != nil {
		return vm.Undefined, err
	}
	if vm.IsCallable(exec) {
		result, err := vm.Call(a, exec, vm.ObjectValue(rx), []vm.Value{vm.StringValue(s)})
		if err != nil {
			return vm.Undefined, err
		}
		if !result.IsObject() && !result.IsNull() {
			return vm.Undefined, a.NewTypeError("exec result must be an object or null")
		}
		return result, nil
	}
	if regExpDataOf(vm.ObjectValue(rx)) == nil {
		return vm.Undefined, a.NewTypeError("RegExp exec method called on incompatible receiver")
	}
	return regExpBuiltinExec(a, rx, s)
}

// regExpBuiltinExec matches s from lastIndex. The pattern runs over the
// string's UTF-16 code units so that every index is a code unit index.
func regExpBuiltinExec(a *vm.Agent, rx *vm.Object, s string) (vm.Value, error) {
	data := regExpDataOf(vm.ObjectValue(rx))
	lastIndexKey := vm.StringKey("lastIndex")
	liValue, err := vm.Get(a, rx, lastIndexKey)
	if err != nil {
		return vm.Undefined, err
	}
	lastIndex, err := vm.ToLength(a, liValue)
	if err != nil {
		return vm.Undefined, err
	}
	global := strings.Contains(data.flags, "g")
	sticky := strings.Contains(data.flags, "y")
	hasIndices := strings.Contains(data.flags, "d")
	if !global && !sticky {
		lastIndex = 0
	}
	units := vm.UTF16Units(s)
	fail := func() (vm.Value, error) {
		if global || sticky {
			if err := vm.Set(a, rx, lastIndexKey, vm.IntValue(0), true); err != nil {
				return vm.Undefined, err
			}
		}
		return vm.Null, nil
	}
	if lastIndex > int64(len(units)) {
		return fail()
	}
	runes := make([]rune, len(units))
	for i, u := range units {
		runes[i] = rune(u)
	}
	m, err := data.rx.FindRunesMatchStartingAt(runes, int(lastIndex))
	if err != nil {
		return vm.Undefined, a.NewError("RegExp execution failed: %s", err.Error())
	}
	if m == nil || (sticky && int64(m.Index) != lastIndex) {
		return fail()
	}
	end := m.Index + m.Length
	if global || sticky {
		if err := vm.Set(a, rx, lastIndexKey, vm.IntValue(end), true); err != nil {
			return vm.Undefined, err
		}
	}

	groups := m.Groups()
	arr := vm.ArrayCreate(uint32(len(groups)), a.CurrentRealm().Intrinsic("%Array.prototype%"))
	arr.DefineDataProperty(vm.StringKey("index"), vm.IntValue(m.Index), true, true, true)
	arr.DefineDataProperty(vm.StringKey("input"), vm.StringValue(s), true, true, true)
	var named *vm.Object
	var indices []vm.Value
	var namedIndices *vm.Object
	for i, g := range groups {
		v, span := vm.Undefined, vm.Undefined
		if len(g.Captures) > 0 {
			v = vm.StringValue(vm.StringFromUnits(units[g.Index : g.Index+g.Length]))
			span = vm.ObjectValue(vm.CreateArrayFromList(a, []vm.Value{vm.IntValue(g.Index), vm.IntValue(g.Index + g.Length)}))
		}
		arr.DefineDataProperty(vm.IndexKey(uint32(i)), v, true, true, true)
		indices = append(indices, span)
		if _, numeric := strconv.Atoi(g.Name); numeric != nil {
			if named == nil {
				named = vm.OrdinaryObjectCreate(nil)
				namedIndices = vm.OrdinaryObjectCreate(nil)
			}
			named.DefineDataProperty(vm.StringKey(g.Name), v, true, true, true)
			namedIndices.DefineDataProperty(vm.StringKey(g.Name), span, true, true, true)
		}
	}
	groupsValue := vm.Undefined
	if named != nil {
		groupsValue = vm.ObjectValue(named)
	}
	arr.DefineDataProperty(vm.StringKey("groups"), groupsValue, true, true, true)
	if hasIndices {
		indicesArr := vm.CreateArrayFromList(a, indices)
		if namedIndices != nil {
			indicesArr.DefineDataProperty(vm.StringKey("groups"), vm.ObjectValue(namedIndices), true, true, true)
		} else {
			indicesArr.DefineDataProperty(vm.StringKey("groups"), vm.Undefined, true, true, true)
		}
		arr.DefineDataProperty(vm.StringKey("indices"), vm.ObjectValue(indicesArr), true, true, true)
	}
	return vm.ObjectValue(arr), nil
}

func matchString(a *vm.Agent, result vm.Value) (string, error) {
	v, err := vm.Get(a, result.AsObject(), vm.IndexKey(0))
	if err != nil {
		return "", err
	}
	return vm.ToString(a, v)
}

// advanceLastIndex steps lastIndex past an empty match.
func advanceLastIndex(a *vm.Agent, rx *vm.Object, s string, fullUnicode bool) error {
	v, err := vm.Get(a, rx, vm.StringKey("lastIndex"))
	if err != nil {
		return err
	}
	thisIndex, err := vm.ToLength(a, v)
	if err != nil {
		return err
	}
	next := advanceStringIndex(vm.UTF16Units(s), thisIndex, fullUnicode)
	return vm.Set(a, rx, vm.StringKey("lastIndex"), vm.NumberValue(float64(next)), true)
}

func advanceStringIndex(units []uint16, index int64, fullUnicode bool) int64 {
	if !fullUnicode || index+1 >= int64(len(units)) {
		return index + 1
	}
	_, size := codePointAt(units, int(index))
	return index + int64(size)
}

func regExpReplace(a *vm.Agent, rx *vm.Object, s string, replaceValue vm.Value) (vm.Value, error) {
	units := vm.UTF16Units(s)
	functional := vm.IsCallable(replaceValue)
	var replaceStr string
	var err error
	if !functional {
		if replaceStr, err = vm.ToString(a, replaceValue); err != nil {
			return vm.Undefined, err
		}
	}
	flags, err := flagsOf(a, rx)
	if err != nil {
		return vm.Undefined, err
	}
	global := strings.Contains(flags, "g")
	fullUnicode := strings.ContainsAny(flags, "uv")
	if global {
		if err := vm.Set(a, rx, vm.StringKey("lastIndex"), vm.IntValue(0), true); err != nil {
			return vm.Undefined, err
		}
	}
	var results []*vm.Object
	for {
		result, err := regExpExec(a, rx, s)
		if err != nil {
			return vm.Undefined, err
		}
		if result.IsNull() {
			break
		}
		results = append(results, result.AsObject())
		if !global {
			break
		}
		matchStr, err := matchString(a, result)
		if err != nil {
			return vm.Undefined, err
		}
		if matchStr == "" {
			if err := advanceLastIndex(a, rx, s, fullUnicode); err != nil {
				return vm.Undefined, err
			}
		}
	}

	var out []uint16
	next := 0
	for _, result := range results {
		length, err := vm.LengthOfArrayLike(a, result)
		if err != nil {
			return vm.Undefined, err
		}
		matched, err := matchString(a, vm.ObjectValue(result))
		if err != nil {
			return vm.Undefined, err
		}
		matchedUnits := vm.UTF16Units(matched)
		indexValue, err := vm.Get(a, result, vm.StringKey("index"))
		if err != nil {
			return vm.Undefined, err
		}
		pos, err := clampedPosition(a, indexValue, len(units), 0)
		if err != nil {
			return vm.Undefined, err
		}
		var captures []vm.Value
		for n := int64(1); n < length; n++ {
			c, err := vm.Get(a, result, indexKey(n))
			if err != nil {
				return vm.Undefined, err
			}
			if !c.IsUndefined() {
				str, err := vm.ToString(a, c)
				if err != nil {
					return vm.Undefined, err
				}
				c = vm.StringValue(str)
			}
			captures = append(captures, c)
		}
		namedCaptures, err := vm.Get(a, result, vm.StringKey("groups"))
		if err != nil {
			return vm.Undefined, err
		}
		var replacement string
		if functional {
			callArgs := append([]vm.Value{vm.StringValue(matched)}, captures...)
			callArgs = append(callArgs, vm.IntValue(pos), vm.StringValue(s))
			if !namedCaptures.IsUndefined() {
				callArgs = append(callArgs, namedCaptures)
			}
			v, err := vm.Call(a, replaceValue, vm.Undefined, callArgs)
			if err != nil {
				return vm.Undefined, err
			}
			if replacement, err = vm.ToString(a, v); err != nil {
				return vm.Undefined, err
			}
		} else {
			if !namedCaptures.IsUndefined() {
				obj, err := vm.ToObject(a, namedCaptures)
				if err != nil {
					return vm.Undefined, err
				}
				namedCaptures = vm.ObjectValue(obj)
			}
			if replacement, err = getSubstitution(a, matchedUnits, units, pos, captures, namedCaptures, replaceStr); err != nil {
				return vm.Undefined, err
			}
		}
		if pos >= next {
			out = append(out, units[next:pos]...)
			out = append(out, vm.UTF16Units(replacement)...)
			next = pos + len(matchedUnits)
		}
	}
	if next < len(units) {
		out = append(out, units[next:]...)
	}
	return vm.StringValue(vm.StringFromUnits(out)), nil
}

func regExpSplit(a *vm.Agent, rx *vm.Object, s string, limit vm.Value) (vm.Value, error) {
	c, err := vm.SpeciesConstructor(a, rx, a.CurrentRealm().Intrinsic("%RegExp%"))
	if err != nil {
		return vm.Undefined, err
	}
	flags, err := flagsOf(a, rx)
	if err != nil {
		return vm.Undefined, err
	}
	fullUnicode := strings.ContainsAny(flags, "uv")
	if !strings.Contains(flags, "y") {
		flags += "y"
	}
	splitterValue, err := vm.Construct(a, c, []vm.Value{vm.ObjectValue(rx), vm.StringValue(flags)}, nil)
	if err != nil {
		return vm.Undefined, err
	}
	splitter := splitterValue.AsObject()
	lim := uint32(1<<32 - 1)
	if !limit.IsUndefined() {
		if lim, err = vm.ToUint32(a, limit); err != nil {
			return vm.Undefined, err
		}
	}
	var parts []vm.Value
	done := func() (vm.Value, error) {
		return vm.ObjectValue(vm.CreateArrayFromList(a, parts)), nil
	}
	if lim == 0 {
		return done()
	}
	units := vm.UTF16Units(s)
	size := int64(len(units))
	if size == 0 {
		z, err := regExpExec(a, splitter, s)
		if err != nil {
			return vm.Undefined, err
		}
		if z.IsNull() {
			parts = append(parts, vm.StringValue(s))
		}
		return done()
	}
	lastIndexKey := vm.StringKey("lastIndex")
	var p, q int64
	for q < size {
		if err := vm.Set(a, splitter, lastIndexKey, vm.NumberValue(float64(q)), true); err != nil {
			return vm.Undefined, err
		}
		z, err := regExpExec(a, splitter, s)
		if err != nil {
			return vm.Undefined, err
		}
		if z.IsNull() {
			q = advanceStringIndex(units, q, fullUnicode)
			continue
		}
		ev, err := vm.Get(a, splitter, lastIndexKey)
		if err != nil {
			return vm.Undefined, err
		}
		e, err := vm.ToLength(a, ev)
		if err != nil {
			return vm.Undefined, err
		}
		e = min(e, size)
		if e == p {
			q = advanceStringIndex(units, q, fullUnicode)
			continue
		}
		parts = append(parts, vm.StringValue(vm.StringFromUnits(units[p:q])))
		if uint32(len(parts)) == lim {
			return done()
		}
		p = e
		captureCount, err := vm.LengthOfArrayLike(a, z.AsObject())
		if err != nil {
			return vm.Undefined, err
		}
		for i := int64(1); i < captureCount; i++ {
			capture, err := vm.Get(a, z.AsObject(), indexKey(i))
			if err != nil {
				return vm.Undefined, err
			}
			parts = append(parts, capture)
			if uint32(len(parts)) == lim {
				return done()
			}
		}
		q = p
	}
	parts = append(parts, vm.StringValue(vm.StringFromUnits(units[p:size])))
	return done()
}
