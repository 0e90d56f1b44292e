package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const DefaultJobTimeout = 2 * time.Minute

var (
	jobTracer          = otel.Tracer("finlink/scheduler")
	jobMeter           = otel.Meter("finlink/scheduler")
	jobDuration, _     = jobMeter.Float64Histogram("scheduler.job.duration", metric.WithDescription("Job execution duration in seconds"), metric.WithUnit("s"))
	jobTotal, _        = jobMeter.Int64Counter("scheduler.job.total", metric.WithDescription("Total jobs executed by status"))
	jobQueueDropped, _ = jobMeter.Int64Counter("scheduler.job.queue_dropped", metric.WithDescription("Jobs dropped due to full queue"))
)

var ErrQueueFull = errors.New("job queue full")

// Result is the outcome of one job.
type Result struct {
	Key      string
	Err      error
	Duration time.Duration
}

// WorkerPool runs jobs on a fixed number of goroutines. Each job gets its own
// timeout; a failing job never stops the others.
type WorkerPool struct {
	workerCount int
	jobDelay    time.Duration
	jobTimeout  time.Duration
	jobs        chan Job
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc

	mu      sync.Mutex
	results []Result
}

// PoolConfig configures a WorkerPool. Zero values get defaults.
type PoolConfig struct {
	Workers    int
	QueueSize  int
	JobDelay   time.Duration
	JobTimeout time.Duration
}

// NewWorkerPool creates a worker pool bound to parent. Cancelling parent stops
// the workers after their current job.
func NewWorkerPool(parent context.Context, cfg PoolConfig) *WorkerPool {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = cfg.Workers
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = DefaultJobTimeout
	}
	ctx, cancel := context.WithCancel(parent)

	return &WorkerPool{
		workerCount: cfg.Workers,
		jobDelay:    cfg.JobDelay,
		jobTimeout:  cfg.JobTimeout,
		jobs:        make(chan Job, cfg.QueueSize),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start() {
	log.Printf("[Pool] starting %d worker(s)", wp.workerCount)

	for i := 1; i <= wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			return

		case job, ok := <-wp.jobs:
			if !ok {
				return
			}
			wp.processJob(id, job)

			if wp.jobDelay > 0 {
				select {
				case <-time.After(wp.jobDelay):
				case <-wp.ctx.Done():
					return
				}
			}
		}
	}
}

func (wp *WorkerPool) processJob(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(wp.ctx, wp.jobTimeout)
	defer cancel()

	ctx, span := jobTracer.Start(ctx, "job.execute",
		trace.WithAttributes(
			attribute.Int("worker.id", workerID),
			attribute.String("job.description", job.Description()),
			attribute.String("job.key", job.Key()),
		),
	)
	defer span.End()

	start := time.Now()
	err := job.Execute(ctx)
	elapsed := time.Since(start)
	jobDuration.Record(ctx, elapsed.Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		jobTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "error")))
		log.Printf("[Pool] worker %d: %s failed after %s: %v", workerID, job.Description(), elapsed.Round(time.Millisecond), err)
	} else {
		jobTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "success")))
		log.Printf("[Pool] worker %d: %s done in %s", workerID, job.Description(), elapsed.Round(time.Millisecond))
	}

	wp.mu.Lock()
	wp.results = append(wp.results, Result{Key: job.Key(), Err: err, Duration: elapsed})
	wp.mu.Unlock()
}

// Submit queues a job without blocking. A full queue drops the job with
// ErrQueueFull.
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	case wp.jobs <- job:
		return nil
	default:
		jobQueueDropped.Add(context.Background(), 1)
		return fmt.Errorf("%w: dropping %s", ErrQueueFull, job.Description())
	}
}

// SubmitBatch queues jobs and returns how many were accepted.
func (wp *WorkerPool) SubmitBatch(jobs []Job) int {
	submitted := 0
	for _, job := range jobs {
		if err := wp.Submit(job); err != nil {
			log.Printf("[Pool] %v", err)
			continue
		}
		submitted++
	}
	log.Printf("[Pool] submitted %d/%d job(s)", submitted, len(jobs))
	return submitted
}

// Wait closes the queue, waits for queued jobs to finish and returns their
// results. The pool cannot be reused afterwards.
func (wp *WorkerPool) Wait() []Result {
	close(wp.jobs)
	wp.wg.Wait()
	wp.cancel()

	wp.mu.Lock()
	defer wp.mu.Unlock()
	out := make([]Result, len(wp.results))
	copy(out, wp.results)
	return out
}

// ShutdownWithTimeout waits like Wait but cancels running jobs once timeout
// elapses.
func (wp *WorkerPool) ShutdownWithTimeout(timeout time.Duration) []Result {
	done := make(chan []Result, 1)
	go func() { done <- wp.Wait() }()

	select {
	case results := <-done:
		return results
	case <-time.After(timeout):
		log.Printf("[Pool] shutdown timeout after %s, cancelling running jobs", timeout)
		wp.cancel()
		return <-done
	}
}
