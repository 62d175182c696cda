package vm

// Job is a unit of work scheduled by the core for the host to run after the
// current top-level evaluation.
type Job func(a *Agent) error

// Host is the set of host-defined hooks the core calls out to.
type Host interface {
	// EnqueueJob schedules job. The core never runs jobs itself.
	EnqueueJob(a *Agent, job Job, realm *Realm)

	// LoadImportedModule resolves specifier relative to referrer.
	LoadImportedModule(a *Agent, referrer *Script, specifier string) (*ModuleRecord, error)

	// FinalizeImportMeta populates the import.meta object of module.
	FinalizeImportMeta(a *Agent, meta *Object, module *ModuleRecord)

	// EnsureCanCompileStrings allows hosts to forbid dynamic code.
	EnsureCanCompileStrings(a *Agent, realm *Realm) error

	// PromiseRejectionTracker observes rejected promises without handlers.
	PromiseRejectionTracker(a *Agent, promise *Object, operation string)
}

// PendingJob is a job together with the realm it was enqueued for.
type PendingJob struct {
	Job   Job
	Realm *Realm
}

// DefaultHost accepts every hook as a no-op and collects enqueued jobs.
type DefaultHost struct {
	Jobs []PendingJob
}

func (h *DefaultHost) EnqueueJob(a *Agent, job Job, realm *Realm) {
	h.Jobs = append(h.Jobs, PendingJob{Job: job, Realm: realm})
}

func (h *DefaultHost) LoadImportedModule(a *Agent, referrer *Script, specifier string) (*ModuleRecord, error) {
	return nil, a.NewSyntaxError("Cannot use import statement outside a module")
}

func (h *DefaultHost) FinalizeImportMeta(a *Agent, meta *Object, module *ModuleRecord) {}

func (h *DefaultHost) EnsureCanCompileStrings(a *Agent, realm *Realm) error { return nil }

func (h *DefaultHost) PromiseRejectionTracker(a *Agent, promise *Object, operation string) {}

// RunJob runs a job with a context for its realm pushed, the way host
// job callbacks are prepared.
func RunJob(a *Agent, job Job, realm *Realm) error {
	if realm == nil {
		return job(a)
	}
	ctx := &ExecutionContext{Realm: realm}
	if err := a.PushContext(ctx); err != nil {
		return err
	}
	defer a.PopContext(ctx)
	return job(a)
}
