package builtins

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"escore/pkg/vm"
)

type JSONInitializer struct{}

func (j *JSONInitializer) Name() string {
	return "JSON"
}

func (j *JSONInitializer) Priority() int {
	return PriorityJSON
}

func (j *JSONInitializer) InitRuntime(ctx *RuntimeContext) error {
	jsonObj := newNamespace(ctx, "JSON")

	defineMethod(ctx, jsonObj, "parse", 2, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		text, err := vm.ToString(a, arg(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		result, err := parseJSONToValue(a, text)
		if err != nil {
			return vm.Undefined, a.NewSyntaxError("JSON.parse: %s", err.Error())
		}
		reviver := arg(args, 1)
		if !vm.IsCallable(reviver) {
			return result, nil
		}
		root := vm.OrdinaryObjectCreate(a.CurrentRealm().Intrinsic("%Object.prototype%"))
		if err := vm.CreateDataPropertyOrThrow(a, root, vm.StringKey(""), result); err != nil {
			return vm.Undefined, err
		}
		return internalizeJSONProperty(a, root, vm.StringKey(""), reviver)
	})

	defineMethod(ctx, jsonObj, "stringify", 3, func(a *vm.Agent, this vm.Value, args []vm.Value, newTarget *vm.Object) (vm.Value, error) {
		s, ok, err := jsonStringify(a, arg(args, 0), arg(args, 1), arg(args, 2))
		if err != nil || !ok {
			return vm.Undefined, err
		}
		return vm.StringValue(s), nil
	})

	return ctx.DefineGlobal("JSON", vm.ObjectValue(jsonObj))
}

// parseJSONToValue converts JSON text to a value of the current realm,
// preserving object key order.
func parseJSONToValue(a *vm.Agent, text string) (vm.Value, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	val, err := parseJSONValueFromDecoder(a, dec)
	if err != nil {
		return vm.Undefined, err
	}
	if rest := strings.Trim(text[dec.InputOffset():], " \t\n\r"); rest != "" {
		return vm.Undefined, errors.New("unexpected token after JSON")
	}
	return val, nil
}

func parseJSONValueFromDecoder(a *vm.Agent, dec *json.Decoder) (vm.Value, error) {
	token, err := dec.Token()
	if err != nil {
		return vm.Undefined, err
	}

	switch t := token.(type) {
	case nil:
		return vm.Null, nil
	case bool:
		return vm.BooleanValue(t), nil
	case json.Number:
		return vm.NumberValue(vm.StringToNumber(t.String())), nil
	case string:
		return vm.StringValue(t), nil
	case json.Delim:
		realm := a.CurrentRealm()
		switch t {
		case '{':
			obj := vm.OrdinaryObjectCreate(realm.Intrinsic("%Object.prototype%"))
			for dec.More() {
				keyToken, err := dec.Token()
				if err != nil {
					return vm.Undefined, err
				}
				key, ok := keyToken.(string)
				if !ok {
					return vm.Undefined, errors.New("expected string key in object")
				}
				value, err := parseJSONValueFromDecoder(a, dec)
				if err != nil {
					return vm.Undefined, err
				}
				if err := vm.CreateDataPropertyOrThrow(a, obj, vm.StringKey(key), value); err != nil {
					return vm.Undefined, err
				}
			}
			if _, err := dec.Token(); err != nil {
				return vm.Undefined, err
			}
			return vm.ObjectValue(obj), nil
		case '[':
			var elements []vm.Value
			for dec.More() {
				elem, err := parseJSONValueFromDecoder(a, dec)
				if err != nil {
					return vm.Undefined, err
				}
				elements = append(elements, elem)
			}
			if _, err := dec.Token(); err != nil {
				return vm.Undefined, err
			}
			return vm.ObjectValue(vm.CreateArrayFromList(a, elements)), nil
		}
	}

	return vm.Undefined, fmt.Errorf("unexpected JSON token %v", token)
}

// internalizeJSONProperty walks the parsed result bottom-up, replacing
// each property by what the reviver returns for it.
func internalizeJSONProperty(a *vm.Agent, holder *vm.Object, name vm.PropertyKey, reviver vm.Value) (vm.Value, error) {
	val, err := vm.Get(a, holder, name)
	if err != nil {
		return vm.Undefined, err
	}
	if val.IsObject() {
		obj := val.AsObject()
		revise := func(key vm.PropertyKey) error {
			newElement, err := internalizeJSONProperty(a, obj, key, reviver)
			if err != nil {
				return err
			}
			if newElement.IsUndefined() {
				_, err = obj.Impl().Delete(a, key)
			} else {
				_, err = vm.CreateDataProperty(a, obj, key, newElement)
			}
			return err
		}
		isArray, err := vm.IsArray(a, val)
		if err != nil {
			return vm.Undefined, err
		}
		if isArray {
			length, err := vm.LengthOfArrayLike(a, obj)
			if err != nil {
				return vm.Undefined, err
			}
			for i := int64(0); i < length; i++ {
				if err := revise(indexKey(i)); err != nil {
					return vm.Undefined, err
				}
			}
		} else {
			keys, err := vm.EnumerableOwnProperties(a, obj, vm.EnumerateKeys)
			if err != nil {
				return vm.Undefined, err
			}
			for _, k := range keys {
				if err := revise(vm.StringKey(k.AsString())); err != nil {
					return vm.Undefined, err
				}
			}
		}
	}
	return vm.Call(a, reviver, vm.ObjectValue(holder), []vm.Value{name.Value(), val})
}

// jsonSerializer carries the state of one JSON.stringify call.
type jsonSerializer struct {
	a            *vm.Agent
	replacerFunc vm.Value
	propertyList []vm.PropertyKey
	hasList      bool
	stack        []*vm.Object
	gap          string
	indent       string
}

func jsonStringify(a *vm.Agent, value, replacer, space vm.Value) (string, bool, error) {
	s := &jsonSerializer{a: a}
	if replacer.IsObject() {
		if vm.IsCallable(replacer) {
			s.replacerFunc = replacer
		} else if isArray, err := vm.IsArray(a, replacer); err != nil {
			return "", false, err
		} else if isArray {
			if err := s.readPropertyList(replacer.AsObject()); err != nil {
				return "", false, err
			}
		}
	}
	if space.IsObject() {
		switch space.AsObject().Class() {
		case "Number":
			n, err := vm.ToNumber(a, space)
			if err != nil {
				return "", false, err
			}
			space = vm.NumberValue(n)
		case "String":
			str, err := vm.ToString(a, space)
			if err != nil {
				return "", false, err
			}
			space = vm.StringValue(str)
		}
	}
	switch {
	case space.IsNumber():
		n, _ := vm.ToIntegerOrInfinity(a, space)
		if n >= 1 {
			s.gap = strings.Repeat(" ", int(math.Min(10, n)))
		}
	case space.IsString():
		units := vm.UTF16Units(space.AsString())
		s.gap = vm.StringFromUnits(units[:min(10, len(units))])
	}
	wrapper := vm.OrdinaryObjectCreate(a.CurrentRealm().Intrinsic("%Object.prototype%"))
	if err := vm.CreateDataPropertyOrThrow(a, wrapper, vm.StringKey(""), value); err != nil {
		return "", false, err
	}
	return s.serializeProperty(vm.StringKey(""), wrapper)
}

func (s *jsonSerializer) readPropertyList(replacer *vm.Object) error {
	s.hasList = true
	length, err := vm.LengthOfArrayLike(s.a, replacer)
	if err != nil {
		return err
	}
	seen := make(map[string]bool)
	for k := int64(0); k < length; k++ {
		v, err := vm.Get(s.a, replacer, indexKey(k))
		if err != nil {
			return err
		}
		include := v.IsString() || v.IsNumber()
		if v.IsObject() {
			class := v.AsObject().Class()
			include = class == "String" || class == "Number"
		}
		if !include {
			continue
		}
		item, err := vm.ToString(s.a, v)
		if err != nil {
			return err
		}
		if !seen[item] {
			seen[item] = true
			s.propertyList = append(s.propertyList, vm.StringKey(item))
		}
	}
	return nil
}

// serializeProperty returns the JSON text for holder[key], or false when
// the value has no representation.
func (s *jsonSerializer) serializeProperty(key vm.PropertyKey, holder *vm.Object) (string, bool, error) {
	a := s.a
	value, err := vm.Get(a, holder, key)
	if err != nil {
		return "", false, err
	}
	if value.IsObject() {
		toJSON, err := vm.GetV(a, value, vm.StringKey("toJSON"))
		if err != nil {
			return "", false, err
		}
		if vm.IsCallable(toJSON) {
			if value, err = vm.Call(a, toJSON, value, []vm.Value{key.Value()}); err != nil {
				return "", false, err
			}
		}
	}
	if !s.replacerFunc.IsUndefined() {
		if value, err = vm.Call(a, s.replacerFunc, vm.ObjectValue(holder), []vm.Value{key.Value(), value}); err != nil {
			return "", false, err
		}
	}
	if value.IsObject() {
		switch value.AsObject().Class() {
		case "Number":
			n, err := vm.ToNumber(a, value)
			if err != nil {
				return "", false, err
			}
			value = vm.NumberValue(n)
		case "String":
			str, err := vm.ToString(a, value)
			if err != nil {
				return "", false, err
			}
			value = vm.StringValue(str)
		case "Boolean":
			value = value.AsObject().PrimitiveData()
		}
	}
	switch {
	case value.IsNull():
		return "null", true, nil
	case value.IsBoolean():
		if value.AsBoolean() {
			return "true", true, nil
		}
		return "false", true, nil
	case value.IsString():
		return quoteJSONString(value.AsString()), true, nil
	case value.IsNumber():
		n := value.AsNumber()
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return "null", true, nil
		}
		return vm.NumberToString(n), true, nil
	case value.IsObject() && !vm.IsCallable(value):
		isArray, err := vm.IsArray(a, value)
		if err != nil {
			return "", false, err
		}
		if isArray {
			str, err := s.serializeArray(value.AsObject())
			return str, err == nil, err
		}
		str, err := s.serializeObject(value.AsObject())
		return str, err == nil, err
	}
	return "", false, nil
}

func (s *jsonSerializer) enter(o *vm.Object) (string, error) {
	for _, seen := range s.stack {
		if seen == o {
			return "", s.a.NewTypeError("Converting circular structure to JSON")
		}
	}
	s.stack = append(s.stack, o)
	stepback := s.indent
	s.indent += s.gap
	return stepback, nil
}

func (s *jsonSerializer) leave(stepback string) {
	s.stack = s.stack[:len(s.stack)-1]
	s.indent = stepback
}

func (s *jsonSerializer) wrap(open, close string, parts []string, stepback string) string {
	if len(parts) == 0 {
		return open + close
	}
	if s.gap == "" {
		return open + strings.Join(parts, ",") + close
	}
	sep := ",\n" + s.indent
	return open + "\n" + s.indent + strings.Join(parts, sep) + "\n" + stepback + close
}

func (s *jsonSerializer) serializeObject(o *vm.Object) (string, error) {
	stepback, err := s.enter(o)
	if err != nil {
		return "", err
	}
	defer s.leave(stepback)

	keys := s.propertyList
	if !s.hasList {
		names, err := vm.EnumerableOwnProperties(s.a, o, vm.EnumerateKeys)
		if err != nil {
			return "", err
		}
		keys = make([]vm.PropertyKey, len(names))
		for i, n := range names {
			keys[i] = vm.StringKey(n.AsString())
		}
	}
	var parts []string
	for _, k := range keys {
		str, ok, err := s.serializeProperty(k, o)
		if err != nil {
			return "", err
		}
		if !ok {
			continue
		}
		member := quoteJSONString(k.Name()) + ":"
		if s.gap != "" {
			member += " "
		}
		parts = append(parts, member+str)
	}
	return s.wrap("{", "}", parts, stepback), nil
}

func (s *jsonSerializer) serializeArray(o *vm.Object) (string, error) {
	stepback, err := s.enter(o)
	if err != nil {
		return "", err
	}
	defer s.leave(stepback)

	length, err := vm.LengthOfArrayLike(s.a, o)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, length)
	for i := int64(0); i < length; i++ {
		str, ok, err := s.serializeProperty(indexKey(i), o)
		if err != nil {
			return "", err
		}
		if !ok {
			str = "null"
		}
		parts = append(parts, str)
	}
	return s.wrap("[", "]", parts, stepback), nil
}

// quoteJSONString implements QuoteJSONString.
func quoteJSONString(str string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range str {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&sb, `\u%04x`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
