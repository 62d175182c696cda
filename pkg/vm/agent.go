package vm

import (
	"context"
	"io"
	"log/slog"
)

// DefaultMaxStackDepth bounds the execution context stack; exceeding it
// throws a RangeError.
const DefaultMaxStackDepth = 2500

// ExecutionContext tracks the code being evaluated.
type ExecutionContext struct {
	Function            *Object // nil for script contexts
	Realm               *Realm
	ScriptOrModule      *Script
	LexicalEnvironment  Environment
	VariableEnvironment Environment
	PrivateEnvironment  *PrivateEnvironment
}

// PrivateEnvironment holds the private names of one class body.
type PrivateEnvironment struct {
	Outer *PrivateEnvironment
	Names map[string]*PrivateName
}

// PrivateName is the identity of a #name declared in a class body.
type PrivateName struct {
	Description string
}

func NewPrivateEnvironment(outer *PrivateEnvironment) *PrivateEnvironment {
	return &PrivateEnvironment{Outer: outer, Names: make(map[string]*PrivateName)}
}

// Resolve implements ResolvePrivateIdentifier.
func (p *PrivateEnvironment) Resolve(identifier string) *PrivateName {
	for env := p; env != nil; env = env.Outer {
		if n, ok := env.Names[identifier]; ok {
			return n
		}
	}
	return nil
}

// Evaluator runs parsed code on behalf of the core. The syntax-directed
// evaluator package provides the implementation.
type Evaluator interface {
	// EvaluateScript evaluates the statement list of an instantiated script.
	EvaluateScript(a *Agent, script *Script) Completion

	// EvaluateBody performs FunctionDeclarationInstantiation for f with args
	// and evaluates its body in the running context.
	EvaluateBody(a *Agent, f *ECMAScriptFunction, args []Value) Completion
}

// GlobalInstaller supplies the standard library of a realm. The core
// creates the fundamental intrinsics itself and then hands off to the
// installer for everything else.
type GlobalInstaller interface {
	// CreateIntrinsics registers the remaining intrinsics on realm.
	CreateIntrinsics(a *Agent, realm *Realm) error

	// SetDefaultGlobalBindings defines the global object properties.
	SetDefaultGlobalBindings(a *Agent, realm *Realm) error
}

// Agent owns the execution context stack. It is used by one goroutine at
// a time.
type Agent struct {
	stack []*ExecutionContext

	Evaluator Evaluator
	Installer GlobalInstaller
	Host      Host
	Symbols   *SymbolRegistry
	Logger    *slog.Logger

	MaxStackDepth int
}

type AgentOption func(*Agent)

func WithEvaluator(e Evaluator) AgentOption { return func(a *Agent) { a.Evaluator = e } }
func WithInstaller(i GlobalInstaller) AgentOption { return func(a *Agent) { a.Installer = i } }
func WithHost(h Host) AgentOption { return func(a *Agent) { a.Host = h } }
func WithLogger(l *slog.Logger) AgentOption { return func(a *Agent) { a.Logger = l } }
func WithMaxStackDepth(depth int) AgentOption { return func(a *Agent) { a.MaxStackDepth = depth } }

func NewAgent(opts ...AgentOption) *Agent {
	a := &Agent{
		Symbols:       NewSymbolRegistry(),
		MaxStackDepth: DefaultMaxStackDepth,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.Host == nil {
		a.Host = &DefaultHost{}
	}
	if a.Logger == nil {
		a.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return a
}

// RunningContext returns the top of the stack, nil when idle.
func (a *Agent) RunningContext() *ExecutionContext {
	if len(a.stack) == 0 {
		return nil
	}
	return a.stack[len(a.stack)-1]
}

func (a *Agent) StackDepth() int { return len(a.stack) }

// PushContext makes ctx the running execution context.
func (a *Agent) PushContext(ctx *ExecutionContext) error {
	if a.MaxStackDepth > 0 && len(a.stack) >= a.MaxStackDepth {
		return a.NewRangeError("Maximum call stack size exceeded")
	}
	a.stack = append(a.stack, ctx)
	if a.Logger.Enabled(context.Background(), slog.LevelDebug) {
		a.Logger.Debug("push context", "depth", len(a.stack), "function", ctx.Function != nil)
	}
	return nil
}

// PopContext removes ctx, which must be the running context. Callers pair
// it with PushContext through defer so abrupt completions also pop.
func (a *Agent) PopContext(ctx *ExecutionContext) {
	n := len(a.stack)
	if n == 0 || a.stack[n-1] != ctx {
		panic("vm: execution context stack is not LIFO")
	}
	a.stack[n-1] = nil
	a.stack = a.stack[:n-1]
}

// CurrentRealm returns the realm of the running context.
func (a *Agent) CurrentRealm() *Realm {
	if ctx := a.RunningContext(); ctx != nil {
		return ctx.Realm
	}
	return nil
}

// GetActiveScriptOrModule returns the script of the innermost context that
// has one.
func (a *Agent) GetActiveScriptOrModule() *Script {
	for i := len(a.stack) - 1; i >= 0; i-- {
		if s := a.stack[i].ScriptOrModule; s != nil {
			return s
		}
	}
	return nil
}

// GetGlobalObject returns the global object of the current realm.
func (a *Agent) GetGlobalObject() *Object {
	return a.CurrentRealm().GlobalObject
}

// ResolveBinding resolves name starting at env, or at the running lexical
// environment when env is nil.
func (a *Agent) ResolveBinding(name string, env Environment, strict bool) (*Reference, error) {
	if env == nil {
		env = a.RunningContext().LexicalEnvironment
	}
	return GetIdentifierReference(a, env, name, strict)
}

// GetThisEnvironment returns the nearest environment with a this binding.
func (a *Agent) GetThisEnvironment() Environment {
	env := a.RunningContext().LexicalEnvironment
	for {
		if env.HasThisBinding() {
			return env
		}
		env = env.Outer()
	}
}

func (a *Agent) ResolveThisBinding() (Value, error) {
	switch env := a.GetThisEnvironment().(type) {
	case *FunctionEnvironment:
		return env.GetThisBinding(a)
	case *GlobalEnvironment:
		return env.GetThisBinding(), nil
	}
	return Undefined, nil
}

// GetNewTarget returns new.target of the innermost non-arrow function.
func (a *Agent) GetNewTarget() Value {
	if env, ok := a.GetThisEnvironment().(*FunctionEnvironment); ok {
		return env.newTarget
	}
	return Undefined
}
