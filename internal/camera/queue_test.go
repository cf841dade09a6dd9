package camera

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandQueue_FIFO(t *testing.T) {
	q := newCommandQueue()
	defer q.stop()

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		q.enqueue("n", func() { got = append(got, i) })
	}
	q.enqueueAndWait("barrier", func() {})

	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestCommandQueue_EnqueueAndWaitBlocksUntilDone(t *testing.T) {
	q := newCommandQueue()
	defer q.stop()

	var value int
	q.enqueue("slow", func() { value = 1 })
	q.enqueueAndWait("sync", func() { value = 2 })

	assert.Equal(t, 2, value)
}

func TestCommandQueue_RaiseGoesToExceptionCallback(t *testing.T) {
	q := newCommandQueue()
	defer q.stop()

	boom := errors.New("boom")
	var got error
	q.setExceptionCallback(nil, func(err error) { got = err })

	q.enqueue("faulty", func() { raise(boom) })
	// The loop must survive the fault and keep executing tasks.
	var after bool
	q.enqueueAndWait("after", func() { after = true })

	assert.True(t, after)
	assert.ErrorIs(t, got, boom)
}

func TestCommandQueue_PanicIsWrappedForExceptionCallback(t *testing.T) {
	q := newCommandQueue()
	defer q.stop()

	var got error
	q.setExceptionCallback(nil, func(err error) { got = err })

	q.enqueue("buggy", func() { panic("unexpected") })
	q.enqueueAndWait("barrier", func() {})

	require.Error(t, got)
	assert.Contains(t, got.Error(), "unexpected")
}

func TestCommandQueue_RaiseWithoutCallbackPanics(t *testing.T) {
	q := &commandQueue{done: make(chan struct{})}

	assert.Panics(t, func() {
		q.execute(task{name: "faulty", run: func() { raise(errors.New("boom")) }})
	})
}

func TestCommandQueue_ExceptionCallbackPostsOnHandler(t *testing.T) {
	q := newCommandQueue()
	defer q.stop()

	h := NewHandler()
	defer h.Stop()

	done := make(chan error, 1)
	q.setExceptionCallback(h, func(err error) { done <- err })

	boom := errors.New("boom")
	q.enqueue("faulty", func() { raise(boom) })

	assert.ErrorIs(t, <-done, boom)
}

func TestCommandQueue_StopReleasesBlockedWaiters(t *testing.T) {
	q := newCommandQueue()

	block := make(chan struct{})
	q.enqueue("block", func() { <-block })

	released := make(chan struct{})
	go func() {
		q.enqueueAndWait("pending", func() {})
		close(released)
	}()

	close(block)
	q.stop()
	<-released
}
