package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"escore/pkg/vm"
)

// DefaultMaxRounds bounds RunUntilIdle when no limit is given.
const DefaultMaxRounds = 10000

// ErrNotIdle is returned when the queue still holds jobs after the
// maximum number of drain rounds.
var ErrNotIdle = errors.New("runtime: job queue not idle")

// JobQueue is the host job queue. Jobs are only run by RunUntilIdle,
// which the host calls between top-level evaluations.
type JobQueue struct {
	mu     sync.Mutex
	jobs   []vm.PendingJob
	logger *slog.Logger
}

// NewJobQueue creates an empty queue. A nil logger discards output.
func NewJobQueue(logger *slog.Logger) *JobQueue {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &JobQueue{
		jobs:   make([]vm.PendingJob, 0, 16),
		logger: logger,
	}
}

// Enqueue appends job for realm to the queue.
func (q *JobQueue) Enqueue(job vm.Job, realm *vm.Realm) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, vm.PendingJob{Job: job, Realm: realm})
}

// Len returns the number of pending jobs.
func (q *JobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Reset drops all pending jobs.
func (q *JobQueue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = make([]vm.PendingJob, 0, 16)
}

// take removes and returns the jobs pending at the start of a round.
func (q *JobQueue) take() []vm.PendingJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	jobs := q.jobs
	q.jobs = make([]vm.PendingJob, 0, 16)
	return jobs
}

// RunUntilIdle runs jobs in FIFO order until the queue is empty. Jobs
// enqueued while a round runs are picked up by the next round. A failing
// job does not stop the others; the failures are joined into the
// returned error. ctx is checked before each round.
func (q *JobQueue) RunUntilIdle(ctx context.Context, a *vm.Agent, maxRounds int) (int, error) {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	ran := 0
	var errs []error
	for round := 0; ; round++ {
		if err := ctx.Err(); err != nil {
			return ran, errors.Join(append(errs, err)...)
		}
		jobs := q.take()
		if len(jobs) == 0 {
			break
		}
		if round == maxRounds {
			q.mu.Lock()
			q.jobs = append(jobs, q.jobs...)
			q.mu.Unlock()
			errs = append(errs, fmt.Errorf("%w after %d rounds", ErrNotIdle, maxRounds))
			break
		}
		q.logger.Debug("draining jobs", "round", round, "jobs", len(jobs))
		for _, pj := range jobs {
			if err := vm.RunJob(a, pj.Job, pj.Realm); err != nil {
				errs = append(errs, err)
			}
			ran++
		}
	}
	return ran, errors.Join(errs...)
}
