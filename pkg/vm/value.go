package vm

import (
	"math"
	"strings"
)

type ValueType uint8

const (
	TypeUndefined ValueType = iota
	TypeNull
	TypeBoolean
	TypeNumber
	TypeString
	TypeSymbol
	TypeObject

	// TypeEmpty is the completion-record "empty" marker. It never escapes
	// into user-visible values.
	TypeEmpty
)

func (t ValueType) String() string {
	switch t {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		return "boolean"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeSymbol:
		return "symbol"
	case TypeObject:
		return "object"
	case TypeEmpty:
		return "empty"
	}
	return "unknown"
}

// Value is an ECMAScript language value. The zero Value is undefined.
type Value struct {
	typ ValueType
	num float64
	str string
	sym *Symbol
	obj *Object
}

var (
	Undefined = Value{typ: TypeUndefined}
	Null      = Value{typ: TypeNull}
	True      = Value{typ: TypeBoolean, num: 1}
	False     = Value{typ: TypeBoolean}
	Empty     = Value{typ: TypeEmpty}
	NaN       = Value{typ: TypeNumber, num: math.NaN()}
)

func NumberValue(f float64) Value { return Value{typ: TypeNumber, num: f} }

func IntValue(i int) Value { return Value{typ: TypeNumber, num: float64(i)} }

func StringValue(s string) Value { return Value{typ: TypeString, str: s} }

func BooleanValue(b bool) Value {
	if b {
		return True
	}
	return False
}

func SymbolValue(s *Symbol) Value { return Value{typ: TypeSymbol, sym: s} }

// ObjectValue wraps o; a nil object becomes null.
func ObjectValue(o *Object) Value {
	if o == nil {
		return Null
	}
	return Value{typ: TypeObject, obj: o}
}

func (v Value) Type() ValueType { return v.typ }

func (v Value) IsUndefined() bool { return v.typ == TypeUndefined }
func (v Value) IsNull() bool      { return v.typ == TypeNull }
func (v Value) IsNullish() bool   { return v.typ == TypeUndefined || v.typ == TypeNull }
func (v Value) IsBoolean() bool   { return v.typ == TypeBoolean }
func (v Value) IsNumber() bool    { return v.typ == TypeNumber }
func (v Value) IsString() bool    { return v.typ == TypeString }
func (v Value) IsSymbol() bool    { return v.typ == TypeSymbol }
func (v Value) IsObject() bool    { return v.typ == TypeObject }
func (v Value) IsEmpty() bool     { return v.typ == TypeEmpty }

func (v Value) AsBoolean() bool    { return v.typ == TypeBoolean && v.num != 0 }
func (v Value) AsNumber() float64  { return v.num }
func (v Value) AsString() string   { return v.str }
func (v Value) AsSymbol() *Symbol  { return v.sym }
func (v Value) AsObject() *Object  { return v.obj }

// TypeOf implements the typeof operator.
func (v Value) TypeOf() string {
	switch v.typ {
	case TypeUndefined, TypeEmpty:
		return "undefined"
	case TypeNull:
		return "object"
	case TypeObject:
		if IsCallable(v) {
			return "function"
		}
		return "object"
	}
	return v.typ.String()
}

// Inspect renders a value for hosts (REPL output, console.log, test
// expectations). It never invokes user code.
func (v Value) Inspect() string {
	var sb strings.Builder
	inspectValue(&sb, v, 0)
	return sb.String()
}

func inspectValue(sb *strings.Builder, v Value, depth int) {
	switch v.typ {
	case TypeUndefined, TypeEmpty:
		sb.WriteString("undefined")
	case TypeNull:
		sb.WriteString("null")
	case TypeBoolean:
		if v.AsBoolean() {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case TypeNumber:
		sb.WriteString(NumberToString(v.num))
	case TypeString:
		if depth == 0 {
			sb.WriteString(v.str)
		} else {
			sb.WriteString(quoteJSString(v.str))
		}
	case TypeSymbol:
		sb.WriteString(v.sym.DescriptiveString())
	case TypeObject:
		inspectObject(sb, v.obj, depth)
	}
}

func inspectObject(sb *strings.Builder, o *Object, depth int) {
	if depth > 2 {
		sb.WriteString("[Object]")
		return
	}
	switch impl := o.impl.(type) {
	case *ECMAScriptFunction, *BuiltinFunction, *BoundFunction:
		name := ""
		if p := o.ordinary().props.get(StringKey("name")); p != nil && !p.accessor && p.value.IsString() {
			name = p.value.str
		}
		if name == "" {
			sb.WriteString("[Function (anonymous)]")
		} else {
			sb.WriteString("[Function: " + name + "]")
		}
		return
	case *ArrayObject:
		sb.WriteString("[")
		for i := uint32(0); i < impl.length; i++ {
			if i > 0 {
				sb.WriteString(", ")
			}
			if p := impl.props.get(IndexKey(i)); p != nil && !p.accessor {
				inspectValue(sb, p.value, depth+1)
			}
		}
		sb.WriteString("]")
		return
	case *ProxyObject:
		sb.WriteString("[Proxy]")
		return
	}
	base := o.ordinary()
	if base.class == "Error" {
		name, msg := "Error", ""
		if p := lookupDataValue(o, StringKey("name")); p.IsString() {
			name = p.str
		}
		if p := lookupDataValue(o, StringKey("message")); p.IsString() {
			msg = p.str
		}
		if msg == "" {
			sb.WriteString(name)
		} else {
			sb.WriteString(name + ": " + msg)
		}
		return
	}
	if base.primitive.typ != TypeUndefined {
		sb.WriteString("[" + base.class + ": ")
		inspectValue(sb, base.primitive, depth+1)
		sb.WriteString("]")
		return
	}
	sb.WriteString("{")
	first := true
	for _, k := range base.props.keys {
		p := base.props.get(k)
		if p == nil || !p.enumerable {
			continue
		}
		if first {
			sb.WriteString(" ")
			first = false
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(k.String())
		sb.WriteString(": ")
		if p.accessor {
			sb.WriteString("[Getter/Setter]")
		} else {
			inspectValue(sb, p.value, depth+1)
		}
	}
	if !first {
		sb.WriteString(" ")
	}
	sb.WriteString("}")
}

// lookupDataValue reads a data property along the prototype chain without
// running accessors or proxy traps.
func lookupDataValue(o *Object, key PropertyKey) Value {
	for ; o != nil; o = o.ordinary().prototype {
		if _, isProxy := o.impl.(*ProxyObject); isProxy {
			return Undefined
		}
		if p := o.ordinary().props.get(key); p != nil {
			if p.accessor {
				return Undefined
			}
			return p.value
		}
	}
	return Undefined
}

func quoteJSString(s string) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			sb.WriteString(`\'`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}
