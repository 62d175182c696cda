package vm

import (
	"testing"

	"escore/pkg/parser"
	"escore/pkg/source"
)

func parseTestScript(t *testing.T, realm *Realm, code string) *Script {
	t.Helper()
	script, err := ParseScript(source.NewEvalSource(code), realm, parser.Options{}, nil)
	if err != nil {
		t.Fatalf("ParseScript(%q): %v", code, err)
	}
	return script
}

func errorName(t *testing.T, err error) string {
	t.Helper()
	exc, ok := AsException(err)
	if !ok {
		t.Fatalf("expected *Exception, got %T (%v)", err, err)
	}
	name, _ := ErrorNameAndMessage(exc.Value())
	return name
}

func TestGlobalDeclarationInstantiationBindings(t *testing.T) {
	a, realm := newTestAgent(t)
	script := parseTestScript(t, realm, `
		var v1, v2 = 1;
		let l;
		const c = 2;
		class K {}
		function f() {}
		if (true) { var nested; }
	`)
	env := realm.GlobalEnv
	if err := GlobalDeclarationInstantiation(a, script.ECMAScriptCode, env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"v1", "v2", "nested"} {
		v, ok := realm.GlobalObject.OwnDataValue(StringKey(name))
		if !ok || !v.IsUndefined() {
			t.Errorf("expected var %s on the global object as undefined, got %s", name, v.Inspect())
		}
		if !env.HasVarDeclaration(name) {
			t.Errorf("expected %s registered as a var name", name)
		}
	}

	for _, name := range []string{"l", "c", "K"} {
		if !env.HasLexicalDeclaration(name) {
			t.Errorf("expected lexical declaration %s", name)
		}
		if realm.GlobalObject.HasOwnStored(StringKey(name)) {
			t.Errorf("expected %s to be absent from the global object", name)
		}
		if _, err := env.GetBindingValue(a, name, true); err == nil {
			t.Errorf("expected %s to be uninitialized", name)
		}
	}
	if env.DeclarativeRecord().IsMutable("c") {
		t.Errorf("expected const binding to be immutable")
	}

	fv, ok := realm.GlobalObject.OwnDataValue(StringKey("f"))
	if !ok || !IsCallable(fv) {
		t.Fatalf("expected function f on the global object, got %s", fv.Inspect())
	}
	desc := OrdinaryGetOwnProperty(realm.GlobalObject, StringKey("f"))
	if desc.Configurable || !desc.Enumerable || !desc.Writable {
		t.Errorf("expected f to be writable, enumerable and non-configurable, got %+v", *desc)
	}
}

func TestGlobalDeclarationInstantiationLastFunctionWins(t *testing.T) {
	a, realm := newTestAgent(t)
	script := parseTestScript(t, realm, `
		function f() { return 1; }
		var f;
		function f(a, b) { return 2; }
	`)
	if err := GlobalDeclarationInstantiation(a, script.ECMAScriptCode, realm.GlobalEnv); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fv, _ := realm.GlobalObject.OwnDataValue(StringKey("f"))
	length, err := Get(a, fv.AsObject(), StringKey("length"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !SameValue(length, IntValue(2)) {
		t.Errorf("expected the last declaration of f (length 2), got length %s", length.Inspect())
	}
}

func TestGlobalDeclarationInstantiationConflicts(t *testing.T) {
	tests := []struct {
		name  string
		first string
		then  string
		want  string
	}{
		{"let after let", "let a;", "let a;", "SyntaxError"},
		{"let after var", "var a;", "let a;", "SyntaxError"},
		{"var after let", "let a;", "var a;", "SyntaxError"},
		{"function after const", "const a = 1;", "function a() {}", "SyntaxError"},
		{"let shadowing restricted global", "", "let undefined;", "SyntaxError"},
		{"function over restricted global", "", "function NaN() {}", "TypeError"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, realm := newTestAgent(t)
			if tt.first != "" {
				first := parseTestScript(t, realm, tt.first)
				if err := GlobalDeclarationInstantiation(a, first.ECMAScriptCode, realm.GlobalEnv); err != nil {
					t.Fatalf("unexpected error in first script: %v", err)
				}
			}
			second := parseTestScript(t, realm, tt.then)
			err := GlobalDeclarationInstantiation(a, second.ECMAScriptCode, realm.GlobalEnv)
			if err == nil {
				t.Fatalf("expected %s, got success", tt.want)
			}
			if got := errorName(t, err); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestGlobalDeclarationInstantiationIsAtomic(t *testing.T) {
	a, realm := newTestAgent(t)
	realm.GlobalObject.DefineDataProperty(StringKey("locked"), True, false, false, false)
	script := parseTestScript(t, realm, `
		let early;
		var plain;
		function locked() {}
	`)
	if err := GlobalDeclarationInstantiation(a, script.ECMAScriptCode, realm.GlobalEnv); err == nil {
		t.Fatalf("expected failure when a function cannot be declared")
	}
	if realm.GlobalEnv.HasLexicalDeclaration("early") {
		t.Errorf("expected no lexical binding after a failed instantiation")
	}
	if realm.GlobalObject.HasOwnStored(StringKey("plain")) {
		t.Errorf("expected no var binding after a failed instantiation")
	}
}

func TestParseScriptEarlyErrors(t *testing.T) {
	_, realm := newTestAgent(t)
	for _, code := range []string{
		"let x; let x;",
		"const y = 1; var y;",
		"var z; class z {}",
		"let (",
	} {
		if _, err := ParseScript(source.NewEvalSource(code), realm, parser.Options{}, nil); err == nil {
			t.Errorf("expected %q to be rejected", code)
		}
	}
}

func TestScriptEvaluationWithoutEvaluator(t *testing.T) {
	a, realm := newTestAgent(t)
	depth := a.StackDepth()
	script := parseTestScript(t, realm, "var x;")
	c := ScriptEvaluation(a, script)
	if !c.IsThrow() {
		t.Fatalf("expected throw completion, got %s", c.Type)
	}
	if a.StackDepth() != depth {
		t.Errorf("expected stack depth %d after evaluation, got %d", depth, a.StackDepth())
	}
	if !realm.GlobalEnv.HasVarDeclaration("x") {
		t.Errorf("expected declarations to be instantiated before evaluation")
	}
}

type constEvaluator struct {
	result  Completion
	running *ExecutionContext
}

func (e *constEvaluator) EvaluateScript(a *Agent, script *Script) Completion {
	e.running = a.RunningContext()
	return e.result
}

func (e *constEvaluator) EvaluateBody(a *Agent, f *ECMAScriptFunction, args []Value) Completion {
	return e.result
}

func TestScriptEvaluationContext(t *testing.T) {
	eval := &constEvaluator{result: EmptyCompletion()}
	a := NewAgent(WithEvaluator(eval))
	realm, err := InitializeHostDefinedRealm(a)
	if err != nil {
		t.Fatalf("InitializeHostDefinedRealm: %v", err)
	}
	script := parseTestScript(t, realm, "1")
	c := ScriptEvaluation(a, script)
	if c.Type != CompletionNormal || !c.Value.IsUndefined() {
		t.Errorf("expected empty result to become undefined, got %s %s", c.Type, c.Value.Inspect())
	}
	if eval.running == nil || eval.running.ScriptOrModule != script {
		t.Fatalf("expected the script context to be running during evaluation")
	}
	if eval.running.LexicalEnvironment != Environment(realm.GlobalEnv) {
		t.Errorf("expected the global environment as lexical environment")
	}
	if a.GetActiveScriptOrModule() != nil {
		t.Errorf("expected no active script after evaluation")
	}
}

func TestUpdateEmpty(t *testing.T) {
	tests := []struct {
		name string
		in   Completion
		want Value
	}{
		{"empty normal", EmptyCompletion(), IntValue(1)},
		{"valued normal", NormalCompletion(IntValue(2)), IntValue(2)},
		{"empty break", Completion{Type: CompletionBreak, Value: Empty, Target: "l"}, IntValue(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UpdateEmpty(tt.in, IntValue(1))
			if got.Type != tt.in.Type || got.Target != tt.in.Target {
				t.Errorf("expected type and target preserved, got %s %q", got.Type, got.Target)
			}
			if !SameValue(got.Value, tt.want) {
				t.Errorf("expected %s, got %s", tt.want.Inspect(), got.Value.Inspect())
			}
		})
	}
}
