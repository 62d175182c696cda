// Package driver ties an agent, its realm, the evaluator and the host job
// queue together into a session that runs scripts.
package driver

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"escore/pkg/builtins"
	"escore/pkg/config"
	"escore/pkg/errors"
	"escore/pkg/evaluator"
	"escore/pkg/host"
	"escore/pkg/parser"
	"escore/pkg/runtime"
	"escore/pkg/source"
	"escore/pkg/vm"
)

const debugDriver = false

func debugPrintf(format string, args ...interface{}) {
	if debugDriver {
		fmt.Printf(format, args...)
	}
}

// Session is a persistent interpreter session. Bindings created by one
// evaluation are visible to the next.
type Session struct {
	agent  *vm.Agent
	realm  *vm.Realm
	host   *host.Host
	jobs   *runtime.JobQueue
	cfg    *config.Config
	stdout io.Writer
	stderr io.Writer
}

type options struct {
	cfg       *config.Config
	stdout    io.Writer
	stderr    io.Writer
	baseDir   string
	resolvers []host.Resolver
}

type Option func(*options)

func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithOutput sets where console output, results and errors are written.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(o *options) {
		o.stdout = stdout
		o.stderr = stderr
	}
}

// WithBaseDir sets the directory scripts are resolved against.
func WithBaseDir(dir string) Option {
	return func(o *options) { o.baseDir = dir }
}

// WithResolvers adds resolvers in front of the file system.
func WithResolvers(resolvers ...host.Resolver) Option {
	return func(o *options) { o.resolvers = append(o.resolvers, resolvers...) }
}

// NewSession creates a session with a fresh realm and evaluates the
// configured prelude scripts in it.
func NewSession(ctx context.Context, opts ...Option) (*Session, error) {
	o := &options{
		cfg:     config.Default(),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		baseDir: ".",
	}
	for _, opt := range opts {
		opt(o)
	}

	logger := o.cfg.NewLogger(o.stderr)
	jobs := runtime.NewJobQueue(logger)
	resolvers := append(o.resolvers, host.NewOSFileSystemResolver(o.baseDir))
	h := host.New(jobs, host.WithResolvers(resolvers...), host.WithLogger(logger))

	agent := vm.NewAgent(
		vm.WithEvaluator(evaluator.New()),
		vm.WithInstaller(builtins.NewInstaller(builtins.WithOutput(o.stdout, o.stderr))),
		vm.WithHost(h),
		vm.WithLogger(logger),
	)
	realm, err := vm.InitializeHostDefinedRealm(agent)
	if err != nil {
		return nil, fmt.Errorf("driver: initializing realm: %w", err)
	}

	s := &Session{
		agent:  agent,
		realm:  realm,
		host:   h,
		jobs:   jobs,
		cfg:    o.cfg,
		stdout: o.stdout,
		stderr: o.stderr,
	}
	for _, spec := range o.cfg.Prelude {
		src, err := h.Resolve(spec, "")
		if err != nil {
			return nil, fmt.Errorf("driver: prelude %s: %w", spec, err)
		}
		if _, errs := s.Run(ctx, src); len(errs) > 0 {
			return nil, fmt.Errorf("driver: prelude %s: %w", spec, errors.ErrorList(errs))
		}
	}
	return s, nil
}

func (s *Session) Agent() *vm.Agent { return s.agent }
func (s *Session) Realm() *vm.Realm { return s.realm }

// RunString evaluates code in the session.
func (s *Session) RunString(ctx context.Context, code string) (vm.Value, []errors.EngineError) {
	return s.Run(ctx, source.NewEvalSource(code))
}

// RunFile reads and evaluates the script at path.
func (s *Session) RunFile(ctx context.Context, path string) (vm.Value, []errors.EngineError) {
	data, err := os.ReadFile(path)
	if err != nil {
		return vm.Undefined, []errors.EngineError{&errors.RuntimeError{
			Msg:   fmt.Sprintf("failed to read file '%s': %s", path, err.Error()),
			Cause: err,
		}}
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return s.Run(ctx, source.FromFile(path, string(data)))
}

// Run parses and evaluates src, then drains the job queue. Cancellation
// is only observed before evaluating and between job rounds.
func (s *Session) Run(ctx context.Context, src *source.SourceFile) (vm.Value, []errors.EngineError) {
	if err := ctx.Err(); err != nil {
		return vm.Undefined, []errors.EngineError{interrupted(src, err)}
	}

	script, err := vm.ParseScript(src, s.realm, parser.Options{Strict: s.cfg.Strict}, nil)
	if err != nil {
		return vm.Undefined, syntaxErrors(src, err)
	}
	debugPrintf("// [driver] evaluating %s\n", src.DisplayPath())

	var errs []errors.EngineError
	c := vm.ScriptEvaluation(s.agent, script)
	result := c.Value
	if c.IsThrow() {
		errs = append(errs, uncaught(src, c.Value, c.Err()))
		result = vm.Undefined
	} else if result.IsEmpty() {
		result = vm.Undefined
	}

	if _, err := s.jobs.RunUntilIdle(ctx, s.agent, s.cfg.MaxJobRounds); err != nil {
		errs = append(errs, jobErrors(src, err)...)
	}
	return result, errs
}

// DisplayResult prints errors to the session's stderr, or the value to
// its stdout unless it is undefined. It reports whether there were no
// errors.
func (s *Session) DisplayResult(src string, value vm.Value, errs []errors.EngineError) bool {
	if len(errs) > 0 {
		errors.FprintErrors(s.stderr, src, errs)
		return false
	}
	if !value.IsUndefined() {
		fmt.Fprintln(s.stdout, value.Inspect())
	}
	return true
}

func syntaxErrors(src *source.SourceFile, err error) []errors.EngineError {
	var list errors.ErrorList
	if stderrors.As(err, &list) {
		return list
	}
	var single errors.EngineError
	if stderrors.As(err, &single) {
		return []errors.EngineError{single}
	}
	return []errors.EngineError{&errors.SyntaxError{
		Position: errors.Position{Source: src},
		Msg:      err.Error(),
		Cause:    err,
	}}
}

func uncaught(src *source.SourceFile, thrown vm.Value, cause error) *errors.RuntimeError {
	name, msg := vm.ErrorNameAndMessage(thrown)
	return &errors.RuntimeError{
		Position: errors.Position{Source: src},
		Name:     name,
		Msg:      msg,
		Cause:    cause,
	}
}

func interrupted(src *source.SourceFile, err error) *errors.RuntimeError {
	return &errors.RuntimeError{
		Position: errors.Position{Source: src},
		Msg:      "interrupted: " + err.Error(),
		Cause:    err,
	}
}

// jobErrors splits the joined error of a job-queue drain.
func jobErrors(src *source.SourceFile, err error) []errors.EngineError {
	causes := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		causes = joined.Unwrap()
	}
	out := make([]errors.EngineError, 0, len(causes))
	for _, cause := range causes {
		if exc, ok := vm.AsException(cause); ok {
			out = append(out, uncaught(src, exc.Value(), cause))
			continue
		}
		if stderrors.Is(cause, context.Canceled) || stderrors.Is(cause, context.DeadlineExceeded) {
			out = append(out, interrupted(src, cause))
			continue
		}
		out = append(out, &errors.RuntimeError{
			Position: errors.Position{Source: src},
			Msg:      cause.Error(),
			Cause:    cause,
		})
	}
	return out
}
