// Package workqueue runs jobs on a fixed pool of worker goroutines and hands
// back tickets that can be polled, waited on, or canceled before they start.
package workqueue

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-rig/internal/logger"
)

// Job is a unit of work executed by a worker.
type Job func() error

var (
	ErrNoWorkers         = errors.New("workqueue: attempting to create worker pool with less than 1 worker")
	ErrNegativeQueueSize = errors.New("workqueue: attempting to create worker pool with a negative queue size")
	ErrQueueFull         = errors.New("workqueue: queue is full")
	ErrQueueClosed       = errors.New("workqueue: queue is closed")
	ErrCanceled          = errors.New("workqueue: job canceled before it started")
	ErrJobPanicked       = errors.New("workqueue: job panicked")
)

// Queue is a fixed pool of workers draining a bounded job channel.
type Queue struct {
	workers int
	jobs    chan *Ticket
	wg      sync.WaitGroup
	// live counts queued tickets that are neither started nor canceled.
	live atomic.Int64

	// mu orders Submit against Close so nothing is sent on a closed channel.
	mu     sync.RWMutex
	closed bool
}

// New starts numWorkers goroutines reading from a queue holding up to
// queueSize waiting jobs. A queueSize of 0 means a job is only accepted when
// a worker is idle and ready to receive it.
func New(numWorkers, queueSize int) (*Queue, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if queueSize < 0 {
		return nil, ErrNegativeQueueSize
	}

	q := &Queue{
		workers: numWorkers,
		jobs:    make(chan *Ticket, queueSize),
	}

	q.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go q.worker(i)
	}

	logger.Debug("work queue started",
		zap.Int("workers", numWorkers),
		zap.Int("queue_size", queueSize))

	return q, nil
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	for t := range q.jobs {
		if err := t.run(); err != nil && errors.Is(err, ErrJobPanicked) {
			logger.Error("job panicked", zap.Int("worker", id), zap.Error(err))
		}
	}
}

// Submit queues job and returns its ticket. It never blocks: when no slot is
// free it returns ErrQueueFull, after Close it returns ErrQueueClosed.
func (q *Queue) Submit(job Job) (*Ticket, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return nil, ErrQueueClosed
	}

	t := newTicket(job)
	t.queue = q
	q.live.Add(1)
	select {
	case q.jobs <- t:
		return t, nil
	default:
		q.live.Add(-1)
		logger.Debug("work queue full",
			zap.Int("slots", cap(q.jobs)),
			zap.Int("occupied", len(q.jobs)),
			zap.Int("pending", q.Pending()))
		return nil, ErrQueueFull
	}
}

// Close stops accepting work, lets the workers finish everything already
// queued and waits for them to exit. Safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
	logger.Debug("work queue stopped", zap.Int("workers", q.workers))
}

// Workers returns the number of worker goroutines.
func (q *Queue) Workers() int {
	return q.workers
}

// Pending returns the number of queued jobs still waiting for a worker.
// Canceled jobs keep their slot until a worker pops them but are not counted.
func (q *Queue) Pending() int {
	return int(q.live.Load())
}

// Inline runs job on the calling goroutine and returns its resolved ticket.
// Used when no queue is available so callers handle both paths the same way.
func Inline(job Job) *Ticket {
	var err error
	func() {
		defer recoverJob(&err)
		err = job()
	}()
	return NewDoneTicket(err)
}

func recoverJob(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", ErrJobPanicked, r)
	}
}
