// Package evaluator walks goja syntax trees and evaluates them against the
// object and environment model of package vm.
package evaluator

import (
	"fmt"

	"github.com/dop251/goja/ast"

	"escore/pkg/parser"
	"escore/pkg/vm"
)

const debugEval = false

func debugPrintf(format string, args ...interface{}) {
	if debugEval {
		fmt.Printf("[Eval] "+format+"\n", args...)
	}
}

// Interpreter is the tree-walking implementation of vm.Evaluator. It
// holds no per-evaluation state and can serve any number of agents.
type Interpreter struct{}

// New returns an Interpreter ready to be installed with vm.WithEvaluator.
func New() *Interpreter {
	return &Interpreter{}
}

// EvaluateScript evaluates the statement list of a script whose global
// declarations have been instantiated.
func (in *Interpreter) EvaluateScript(a *vm.Agent, script *vm.Script) vm.Completion {
	prog := script.ECMAScriptCode
	s := &state{a: a, program: prog, strict: prog.Strict}
	debugPrintf("script %s: %d statements (strict=%v)", prog.Source.DisplayPath(), len(prog.AST.Body), s.strict)
	return s.statementList(prog.AST.Body)
}

// EvaluateBody instantiates the declarations of f's code in the running
// callee context and evaluates its body.
func (in *Interpreter) EvaluateBody(a *vm.Agent, f *vm.ECMAScriptFunction, args []vm.Value) vm.Completion {
	code := f.Code
	s := &state{a: a, program: f.Program, strict: code.Strict}
	if err := s.functionDeclarationInstantiation(f, args); err != nil {
		return vm.ThrowCompletion(a, err)
	}
	if code.ExpressionBody != nil {
		var v vm.Value
		var err error
		if _, ok := code.Node.(*ast.FieldDefinition); ok {
			// Field initializers name anonymous functions after the field.
			v, err = s.namedValue(code.ExpressionBody, vm.StringKey(code.Name))
		} else {
			v, err = s.value(code.ExpressionBody)
		}
		if err != nil {
			return vm.ThrowCompletion(a, err)
		}
		return vm.Completion{Type: vm.CompletionReturn, Value: v}
	}
	c := s.statementList(code.Body)
	switch c.Type {
	case vm.CompletionReturn, vm.CompletionThrow:
		return c
	}
	return vm.NormalCompletion(vm.Undefined)
}

// state is the evaluation state of one script or function body.
type state struct {
	a       *vm.Agent
	program *parser.Program
	strict  bool
}

func (s *state) context() *vm.ExecutionContext {
	return s.a.RunningContext()
}

func (s *state) lexicalEnvironment() vm.Environment {
	return s.context().LexicalEnvironment
}

// withLexicalEnvironment runs fn with env as the running lexical
// environment and restores the previous one on every exit path.
func (s *state) withLexicalEnvironment(env vm.Environment, fn func() vm.Completion) vm.Completion {
	ctx := s.context()
	old := ctx.LexicalEnvironment
	ctx.LexicalEnvironment = env
	defer func() { ctx.LexicalEnvironment = old }()
	return fn()
}

func (s *state) realm() *vm.Realm {
	return s.a.CurrentRealm()
}

func (s *state) intrinsic(name string) *vm.Object {
	return s.realm().Intrinsic(name)
}

func (s *state) throw(err error) vm.Completion {
	return vm.ThrowCompletion(s.a, err)
}

func (s *state) unsupported(node ast.Node, what string) error {
	pos := s.program.Position(node.Idx0())
	return s.a.NewSyntaxError("%s are not supported (%d:%d)", what, pos.Line, pos.Column)
}
