// Package host implements the host-defined hooks of the core on top of a
// job queue and a chain of script resolvers.
package host

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"escore/pkg/runtime"
	"escore/pkg/source"
	"escore/pkg/vm"
)

// Host implements vm.Host.
type Host struct {
	jobs             *runtime.JobQueue
	resolvers        []Resolver
	logger           *slog.Logger
	allowDynamicCode bool
}

var _ vm.Host = (*Host)(nil)

type Option func(*Host)

// WithResolvers adds resolvers to the chain.
func WithResolvers(resolvers ...Resolver) Option {
	return func(h *Host) { h.resolvers = append(h.resolvers, resolvers...) }
}

func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) { h.logger = logger }
}

// WithDynamicCode controls whether the Function constructor may compile
// strings. It is allowed by default.
func WithDynamicCode(allow bool) Option {
	return func(h *Host) { h.allowDynamicCode = allow }
}

// New creates a host scheduling jobs on jobs.
func New(jobs *runtime.JobQueue, opts ...Option) *Host {
	h := &Host{jobs: jobs, allowDynamicCode: true}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	sort.SliceStable(h.resolvers, func(i, j int) bool {
		return h.resolvers[i].Priority() < h.resolvers[j].Priority()
	})
	return h
}

// Jobs returns the queue EnqueueJob appends to.
func (h *Host) Jobs() *runtime.JobQueue { return h.jobs }

func (h *Host) EnqueueJob(a *vm.Agent, job vm.Job, realm *vm.Realm) {
	h.jobs.Enqueue(job, realm)
}

// Resolve loads specifier through the first resolver that accepts it.
func (h *Host) Resolve(specifier, fromPath string) (*source.SourceFile, error) {
	var lastErr error
	for _, r := range h.resolvers {
		if !r.CanResolve(specifier) {
			continue
		}
		src, err := r.Resolve(specifier, fromPath)
		if err == nil {
			h.logger.Debug("resolved script", "specifier", specifier, "resolver", r.Name())
			return src, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("no resolver for %q", specifier)
}

// LoadImportedModule resolves the module source and records it in the
// referrer's loaded-module table. Module records are never evaluated.
func (h *Host) LoadImportedModule(a *vm.Agent, referrer *vm.Script, specifier string) (*vm.ModuleRecord, error) {
	if referrer != nil {
		if m, ok := referrer.LoadedModules[specifier]; ok {
			return m, nil
		}
	}
	fromPath := ""
	realm := a.CurrentRealm()
	if referrer != nil {
		realm = referrer.Realm
		if src := referrer.ECMAScriptCode.Source; src != nil {
			fromPath = src.Path
		}
	}
	src, err := h.Resolve(specifier, fromPath)
	if err != nil {
		return nil, a.NewTypeError("Cannot find module '%s': %s", specifier, err.Error())
	}
	m := &vm.ModuleRecord{Realm: realm, HostDefined: src}
	if referrer != nil {
		referrer.LoadedModules[specifier] = m
	}
	if realm != nil {
		realm.LoadedModules[specifier] = m
	}
	return m, nil
}

// FinalizeImportMeta exposes the module's path as import.meta.url.
func (h *Host) FinalizeImportMeta(a *vm.Agent, meta *vm.Object, module *vm.ModuleRecord) {
	if src, ok := module.HostDefined.(*source.SourceFile); ok {
		meta.DefineDataProperty(vm.StringKey("url"), vm.StringValue(src.DisplayPath()), true, true, true)
	}
}

func (h *Host) EnsureCanCompileStrings(a *vm.Agent, realm *vm.Realm) error {
	if !h.allowDynamicCode {
		err := a.MakeError("%EvalError.prototype%", "EvalError", "Code generation from strings disallowed for this context")
		return vm.NewException(vm.ObjectValue(err))
	}
	return nil
}

func (h *Host) PromiseRejectionTracker(a *vm.Agent, promise *vm.Object, operation string) {
	h.logger.Debug("promise rejection", "operation", operation)
}
