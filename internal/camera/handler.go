package camera

import "sync"

// Handler is the notification context a callback is delivered on. Callbacks
// registered with a Handler never run on the command queue goroutine;
// Dispatch posts them onto the Handler instead.
type Handler interface {
	// Post schedules fn for execution on the handler's context. Functions
	// posted to the same handler run in posting order.
	Post(fn func())
}

// SerialHandler runs posted functions one at a time, in order, on a
// dedicated goroutine. It is the standard notification context for callers
// that do not bring their own event loop.
type SerialHandler struct {
	mu      sync.Mutex
	pending []func()
	cond    *sync.Cond
	stopped bool
	done    chan struct{}
}

var _ Handler = (*SerialHandler)(nil)

// NewHandler creates and starts a SerialHandler.
func NewHandler() *SerialHandler {
	h := &SerialHandler{done: make(chan struct{})}
	h.cond = sync.NewCond(&h.mu)
	go h.loop()
	return h
}

// Post schedules fn on the handler goroutine. Posting after Stop is a no-op.
func (h *SerialHandler) Post(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	h.pending = append(h.pending, fn)
	h.cond.Signal()
}

// Stop drains the pending functions and terminates the handler goroutine.
// It blocks until the last pending function has run.
func (h *SerialHandler) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		<-h.done
		return
	}
	h.stopped = true
	h.cond.Signal()
	h.mu.Unlock()
	<-h.done
}

func (h *SerialHandler) loop() {
	defer close(h.done)
	for {
		h.mu.Lock()
		for len(h.pending) == 0 && !h.stopped {
			h.cond.Wait()
		}
		if len(h.pending) == 0 && h.stopped {
			h.mu.Unlock()
			return
		}
		fn := h.pending[0]
		h.pending = h.pending[1:]
		h.mu.Unlock()

		fn()
	}
}
