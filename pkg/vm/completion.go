package vm

import (
	"errors"
	"fmt"
)

type CompletionType uint8

const (
	CompletionNormal CompletionType = iota
	CompletionBreak
	CompletionContinue
	CompletionReturn
	CompletionThrow
)

func (t CompletionType) String() string {
	switch t {
	case CompletionNormal:
		return "normal"
	case CompletionBreak:
		return "break"
	case CompletionContinue:
		return "continue"
	case CompletionReturn:
		return "return"
	case CompletionThrow:
		return "throw"
	}
	return fmt.Sprintf("completion(%d)", uint8(t))
}

// Completion is an ECMAScript Completion Record. Target is the
// label of a break or continue, empty when absent.
type Completion struct {
	Type   CompletionType
	Value  Value
	Target string
}

func NormalCompletion(v Value) Completion {
	return Completion{Type: CompletionNormal, Value: v}
}

// EmptyCompletion is a normal completion carrying the empty marker.
func EmptyCompletion() Completion {
	return Completion{Type: CompletionNormal, Value: Empty}
}

// ThrowCompletion converts an error returned by an abstract operation into
// a throw completion.
func ThrowCompletion(a *Agent, err error) Completion {
	return Completion{Type: CompletionThrow, Value: a.ErrorValue(err)}
}

func (c Completion) IsAbrupt() bool { return c.Type != CompletionNormal }

func (c Completion) IsThrow() bool { return c.Type == CompletionThrow }

// Err returns the thrown value as an error for throw completions, nil otherwise.
func (c Completion) Err() error {
	if c.Type != CompletionThrow {
		return nil
	}
	return &Exception{value: c.Value}
}

// UpdateEmpty returns c with v substituted when c carries the empty marker.
func UpdateEmpty(c Completion, v Value) Completion {
	if !c.Value.IsEmpty() {
		return c
	}
	return Completion{Type: c.Type, Value: v, Target: c.Target}
}

// Exception is the error form of a throw completion: every abrupt outcome
// of an abstract operation is reported as an *Exception.
type Exception struct {
	value Value
}

func NewException(v Value) *Exception { return &Exception{value: v} }

func (e *Exception) Value() Value { return e.value }

func (e *Exception) Error() string {
	return "Uncaught " + e.value.Inspect()
}

// AsException extracts the *Exception from err, if any.
func AsException(err error) (*Exception, bool) {
	var exc *Exception
	if errors.As(err, &exc) {
		return exc, true
	}
	return nil, false
}
