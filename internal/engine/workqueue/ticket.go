package workqueue

import "sync/atomic"

const (
	statePending int32 = iota
	stateRunning
	stateDone
	stateCanceled
)

// Ticket tracks one submitted job.
//
// A ticket resolves exactly once, either when its job returns or when it is
// canceled before a worker picks it up. Err is only meaningful after that.
type Ticket struct {
	job   Job
	queue *Queue
	state atomic.Int32
	done  chan struct{}
	err   error
}

func newTicket(job Job) *Ticket {
	return &Ticket{
		job:  job,
		done: make(chan struct{}),
	}
}

// NewDoneTicket returns a ticket that is already resolved with err.
func NewDoneTicket(err error) *Ticket {
	t := &Ticket{done: make(chan struct{}), err: err}
	t.state.Store(stateDone)
	close(t.done)
	return t
}

func (t *Ticket) run() (err error) {
	if !t.state.CompareAndSwap(statePending, stateRunning) {
		return nil
	}
	t.dequeued()
	defer func() {
		t.err = err
		t.state.Store(stateDone)
		close(t.done)
	}()
	defer recoverJob(&err)
	return t.job()
}

func (t *Ticket) dequeued() {
	if t.queue != nil {
		t.queue.live.Add(-1)
	}
}

// IsDone reports whether the ticket has resolved. It never blocks.
func (t *Ticket) IsDone() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the ticket resolves.
func (t *Ticket) Wait() {
	<-t.done
}

// Done returns a channel closed once the ticket resolves.
func (t *Ticket) Done() <-chan struct{} {
	return t.done
}

// Cancel resolves the ticket with ErrCanceled if its job has not started.
// It returns false when the job is already running or finished; the caller
// must then Wait for it.
func (t *Ticket) Cancel() bool {
	if !t.state.CompareAndSwap(statePending, stateCanceled) {
		return false
	}
	t.dequeued()
	t.err = ErrCanceled
	close(t.done)
	return true
}

// Canceled reports whether the ticket was resolved by Cancel.
func (t *Ticket) Canceled() bool {
	return t.state.Load() == stateCanceled
}

// Err returns the job's error once resolved, nil while still pending.
func (t *Ticket) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}
