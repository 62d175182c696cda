package vm

import (
	"fmt"
)

// NewTypeError returns a TypeError exception from the current realm.
func (a *Agent) NewTypeError(format string, args ...any) error {
	return a.newError("%TypeError.prototype%", "TypeError", format, args...)
}

func (a *Agent) NewReferenceError(format string, args ...any) error {
	return a.newError("%ReferenceError.prototype%", "ReferenceError", format, args...)
}

func (a *Agent) NewSyntaxError(format string, args ...any) error {
	return a.newError("%SyntaxError.prototype%", "SyntaxError", format, args...)
}

func (a *Agent) NewRangeError(format string, args ...any) error {
	return a.newError("%RangeError.prototype%", "RangeError", format, args...)
}

func (a *Agent) NewError(format string, args ...any) error {
	return a.newError("%Error.prototype%", "Error", format, args...)
}

func (a *Agent) newError(protoName, name, format string, args ...any) error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Exception{value: ObjectValue(a.MakeError(protoName, name, msg))}
}

// MakeError allocates an error object with the named prototype intrinsic.
// When the realm has no such intrinsic yet (during setup), the error gets
// an own name property instead.
func (a *Agent) MakeError(protoName, name, msg string) *Object {
	var proto *Object
	if realm := a.CurrentRealm(); realm != nil {
		proto = realm.Intrinsic(protoName)
	}
	o := OrdinaryObjectCreate(proto)
	o.SetClass("Error")
	if proto == nil {
		o.DefineDataProperty(StringKey("name"), StringValue(name), true, false, true)
	}
	o.DefineDataProperty(StringKey("message"), StringValue(msg), true, false, true)
	return o
}

// ErrorValue returns the thrown value for err. Errors that are not
// exceptions (host failures) are wrapped in a plain Error.
func (a *Agent) ErrorValue(err error) Value {
	if exc, ok := AsException(err); ok {
		return exc.value
	}
	return ObjectValue(a.MakeError("%Error.prototype%", "Error", err.Error()))
}

// ErrorNameAndMessage reads name and message from a thrown value without
// running user code.
func ErrorNameAndMessage(v Value) (string, string) {
	if !v.IsObject() {
		return "", v.Inspect()
	}
	name, msg := "Error", ""
	if n := lookupDataValue(v.obj, StringKey("name")); n.IsString() {
		name = n.str
	}
	if m := lookupDataValue(v.obj, StringKey("message")); m.IsString() {
		msg = m.str
	}
	return name, msg
}
