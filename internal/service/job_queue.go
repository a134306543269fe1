package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var ErrQueueFull = errors.New("job queue full")

// Job is one unit of request work executed by the pool. Done receives the
// result exactly once and is then closed.
type Job struct {
	ID   string
	Ctx  context.Context
	Run  func(ctx context.Context) error
	Done chan error
}

type JobQueue struct {
	jobs    chan *Job
	running atomic.Int32
	workers int

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewJobQueue initializes a new job queue with a fixed amount of workers
// that limits the max amount of jobs that can be queued at once
func NewJobQueue(workers, maxQueued int) *JobQueue {
	if workers <= 0 {
		workers = 1
	}

	if maxQueued < 0 {
		maxQueued = 0
	}

	zap.L().Debug("Initializing job queue", zap.Int("workers", workers), zap.Int("max_jobs", maxQueued))

	return &JobQueue{
		jobs:    make(chan *Job, maxQueued),
		workers: workers,
	}
}

func (q *JobQueue) StartWorkerPool() {
	for range q.workers {
		q.wg.Add(1)
		go q.worker()
	}
}

func (q *JobQueue) worker() {
	defer q.wg.Done()

	for job := range q.jobs {
		var err error

		// Requests that gave up while queued are not started at all
		if err = job.Ctx.Err(); err == nil {
			err = job.Run(job.Ctx)
		}

		job.Done <- err
		close(job.Done)

		q.running.Add(-1)
		jobsRunning.Dec()

		if err != nil {
			zap.L().Debug("Job finished with an error", zap.String("job_id", job.ID), zap.Error(err))
		} else {
			zap.L().Debug("Job finished successfully", zap.String("job_id", job.ID))
		}
	}
}

// Enqueue hands a job to the pool without blocking. Done must be buffered.
func (q *JobQueue) Enqueue(job *Job) error {
	select {
	case q.jobs <- job:
		q.running.Add(1)
		jobsRunning.Inc()
		zap.L().Debug("New job enqueued", zap.Int32("enqueued", q.running.Load()), zap.String("job_id", job.ID))
		return nil
	default:
		return ErrQueueFull
	}
}

// Do runs fn on the pool and waits for it. It returns ErrQueueFull when the
// pool is saturated and ctx.Err() if ctx ends first.
func (q *JobQueue) Do(ctx context.Context, id string, fn func(ctx context.Context) error) error {
	done := make(chan error, 1)

	err := q.Enqueue(&Job{
		ID:   id,
		Ctx:  ctx,
		Run:  fn,
		Done: done,
	})
	if err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		// Prefer a result that raced with the cancellation
		select {
		case err := <-done:
			return err
		default:
		}

		return ctx.Err()
	}
}

// Running returns the number of jobs queued or executing.
func (q *JobQueue) Running() int32 {
	return q.running.Load()
}

// Stop lets the workers finish what was queued and waits for them.
// Enqueue must not be called afterwards.
func (q *JobQueue) Stop() {
	q.stopOnce.Do(func() {
		close(q.jobs)
	})

	q.wg.Wait()
}
