package vm

import (
	"unicode/utf16"
	"unicode/utf8"
)

// StringObject is a String exotic object. Its index properties are
// derived from the wrapped string and cannot be changed.
type StringObject struct {
	OrdinaryObject

	units []uint16
}

// StringCreate wraps value in a String object with the given prototype.
func StringCreate(value string, proto *Object) *Object {
	obj := &Object{}
	s := &StringObject{units: UTF16Units(value)}
	s.init(obj, proto, "String")
	s.primitive = StringValue(value)
	obj.impl = s
	obj.DefineDataProperty(lengthKey, IntValue(len(s.units)), false, false, false)
	return obj
}

// stringGetOwnProperty returns the descriptor of an in-range index key.
func (s *StringObject) stringGetOwnProperty(key PropertyKey) *PropertyDescriptor {
	if key.IsSymbol() {
		return nil
	}
	index, ok := key.ArrayIndex()
	if !ok || int(index) >= len(s.units) {
		return nil
	}
	d := DataDescriptor(StringValue(StringFromUnits(s.units[index:index+1])), false, true, false)
	return &d
}

func (s *StringObject) GetOwnProperty(a *Agent, key PropertyKey) (*PropertyDescriptor, error) {
	if desc := OrdinaryGetOwnProperty(s.obj, key); desc != nil {
		return desc, nil
	}
	return s.stringGetOwnProperty(key), nil
}

func (s *StringObject) DefineOwnProperty(a *Agent, key PropertyKey, desc PropertyDescriptor) (bool, error) {
	if current := s.stringGetOwnProperty(key); current != nil {
		return IsCompatiblePropertyDescriptor(s.extensible, desc, current), nil
	}
	return OrdinaryDefineOwnProperty(a, s.obj, key, desc)
}

func (s *StringObject) OwnPropertyKeys(a *Agent) ([]PropertyKey, error) {
	stored := s.props.ordered()
	out := make([]PropertyKey, 0, len(s.units)+len(stored))
	for i := range s.units {
		out = append(out, IndexKey(uint32(i)))
	}
	return append(out, stored...), nil
}

// UTF16Units encodes s as UTF-16 code units, the unit of string indexing.
func UTF16Units(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

// UTF16Length is the length property of a string.
func UTF16Length(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// StringFromUnits decodes code units. Unpaired surrogates become U+FFFD.
func StringFromUnits(units []uint16) string {
	if len(units) == 1 && units[0] < utf8.RuneSelf {
		return string(rune(units[0]))
	}
	return string(utf16.Decode(units))
}
