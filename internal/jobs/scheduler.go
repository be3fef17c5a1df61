package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/lantern-dev/lantern/internal/logging"
)

var ErrSchedulerClosed = errors.New("scheduler closed")
var ErrJobPanicked = errors.New("job panicked")

// Job is a handle to a scheduled unit of work. It completes exactly once;
// waiters observe the outcome through Done/Wait/Err.
type Job struct {
	id   string
	name string
	done chan struct{}
	err  error
}

func (j *Job) ID() string {
	return j.id
}

func (j *Job) Name() string {
	return j.name
}

func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Err returns the job outcome. It returns nil while the job is still running.
func (j *Job) Err() error {
	select {
	case <-j.done:
		return j.err
	default:
		return nil
	}
}

// Wait blocks until the job completes or ctx is done. Giving up does not stop
// the job.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-j.done:
		return j.err
	}
}

func newCompletedJob(name string, err error) *Job {
	job := &Job{
		id:   uuid.New().String(),
		name: name,
		done: make(chan struct{}),
		err:  err,
	}
	close(job.done)
	return job
}

// Scheduler runs background jobs on a bounded pool of workers.
type Scheduler struct {
	logger *slog.Logger
	slots  chan struct{}

	mutex  sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

func NewScheduler(workers int, logger *slog.Logger) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{
		logger: logger,
		slots:  make(chan struct{}, workers),
	}
}

// Schedule queues fn for execution and returns its handle. The job context is
// detached from ctx: context values (logger, reporting meta) flow through,
// cancellation of the caller does not. After Close, Schedule returns an
// already-completed job with ErrSchedulerClosed.
func (s *Scheduler) Schedule(ctx context.Context, name string, fn func(context.Context) error) *Job {
	s.mutex.Lock()
	if s.closed {
		s.mutex.Unlock()
		return newCompletedJob(name, ErrSchedulerClosed)
	}
	s.wg.Add(1)
	s.mutex.Unlock()

	job := &Job{
		id:   uuid.New().String(),
		name: name,
		done: make(chan struct{}),
	}

	jobCtx := context.WithoutCancel(ctx)
	jobCtx = logging.AddMetaToContext(jobCtx,
		slog.String("jobId", job.id),
		slog.String("jobName", job.name),
	)

	go func() {
		defer s.wg.Done()

		s.slots <- struct{}{}
		defer func() {
			<-s.slots
		}()

		recordJobStarted(jobCtx)

		err := runRecovered(jobCtx, fn)
		job.err = err
		close(job.done)

		logger := logging.FromContext(jobCtx)
		if err != nil {
			logger.Error("Job failed", slog.String("error", err.Error()))
		} else {
			logger.Info("Job completed")
		}
		recordJobCompleted(jobCtx, err == nil)
	}()

	return job
}

func runRecovered(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrJobPanicked, r)
		}
	}()
	return fn(ctx)
}

// Close stops accepting new jobs and waits for in-flight jobs to finish.
func (s *Scheduler) Close() {
	s.mutex.Lock()
	s.closed = true
	s.mutex.Unlock()

	s.wg.Wait()
}
