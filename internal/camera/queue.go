package camera

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// task is one queued unit of work executed by the command queue goroutine.
type task struct {
	name string
	run  func()
	done chan struct{} // non-nil for blocking submissions
}

// commandQueue owns the only goroutine allowed to touch open device
// handles. Tasks run strictly in FIFO order, one at a time.
//
// Caller contract: a task must never submit a blocking task to its own
// queue; the queue cannot make progress while a task waits on it.
type commandQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []task
	stopped bool
	done    chan struct{}

	excMu      sync.Mutex
	excHandler Handler
	excCB      ExceptionCallback
}

func newCommandQueue() *commandQueue {
	q := &commandQueue{done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.loop()
	return q
}

// enqueue submits fn without waiting for its completion. It never blocks.
func (q *commandQueue) enqueue(name string, fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		log.Warn().Str("task", name).Msg("Dropping task submitted to stopped queue")
		return
	}
	q.pending = append(q.pending, task{name: name, run: fn})
	q.cond.Signal()
}

// enqueueAndWait submits fn and blocks the caller until it has run to
// completion. Reserved for the explicitly synchronous operations (release,
// stop preview, parameter reads, synchronous sink binding).
func (q *commandQueue) enqueueAndWait(name string, fn func()) {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		log.Warn().Str("task", name).Msg("Dropping blocking task submitted to stopped queue")
		return
	}
	done := make(chan struct{})
	q.pending = append(q.pending, task{name: name, run: fn, done: done})
	q.cond.Signal()
	q.mu.Unlock()

	<-done
}

// setExceptionCallback binds the process-wide handler for runtime faults
// that have no per-operation callback. A nil cb restores the default
// behavior of re-raising on the queue goroutine.
func (q *commandQueue) setExceptionCallback(h Handler, cb ExceptionCallback) {
	q.excMu.Lock()
	q.excHandler = h
	q.excCB = cb
	q.excMu.Unlock()
}

func (q *commandQueue) exceptionCallback() (Handler, ExceptionCallback) {
	q.excMu.Lock()
	defer q.excMu.Unlock()
	return q.excHandler, q.excCB
}

// stop terminates the loop after the current task. Pending tasks are
// dropped; blocked enqueueAndWait callers are released.
func (q *commandQueue) stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.stopped = true
	dropped := q.pending
	q.pending = nil
	q.cond.Signal()
	q.mu.Unlock()

	for _, t := range dropped {
		if t.done != nil {
			close(t.done)
		}
	}
	<-q.done
}

func (q *commandQueue) loop() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.stopped {
			q.cond.Wait()
		}
		if q.stopped {
			q.mu.Unlock()
			return
		}
		t := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		q.execute(t)
	}
}

// raised wraps an error thrown inside a task via raise so execute can tell
// reported faults apart from plain panics.
type raised struct{ err error }

// raise aborts the current task with err. The fault is routed to the bound
// exception callback, or re-raised on the queue goroutine when none is set.
func raise(err error) {
	panic(raised{err: err})
}

// execute runs one task with per-task fault isolation: a fault inside the
// task never terminates the loop as long as an exception callback is bound.
func (q *commandQueue) execute(t task) {
	if t.done != nil {
		defer close(t.done)
	}
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		var err error
		if f, ok := r.(raised); ok {
			err = f.err
		} else {
			err = fmt.Errorf("panic in camera task %s: %v", t.name, r)
		}

		h, cb := q.exceptionCallback()
		if cb == nil {
			// Fail loud: no exception callback means the fault propagates.
			panic(err)
		}
		log.Error().Err(err).Str("task", t.name).Msg("Camera task fault")
		if h != nil {
			h.Post(func() { cb(err) })
		} else {
			cb(err)
		}
	}()

	t.run()
}
