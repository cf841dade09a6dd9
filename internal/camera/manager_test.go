package camera_test

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorenh/camerad/internal/camera"
	"github.com/sorenh/camerad/internal/driver"
	"github.com/sorenh/camerad/internal/driver/fakecam"
)

// openResult records one OpenCallback outcome.
type openResult struct {
	event string
	proxy *camera.Proxy
	id    int
}

// openRecorder is an OpenCallback that forwards outcomes to a channel.
type openRecorder struct {
	ch chan openResult
}

func newOpenRecorder() *openRecorder {
	return &openRecorder{ch: make(chan openResult, 16)}
}

func (r *openRecorder) OnOpened(p *camera.Proxy) {
	r.ch <- openResult{event: "opened", proxy: p, id: p.ID()}
}

func (r *openRecorder) OnDisabled(id int) {
	r.ch <- openResult{event: "disabled", id: id}
}

func (r *openRecorder) OnOpenFailure(id int) {
	r.ch <- openResult{event: "failure", id: id}
}

func (r *openRecorder) OnAlreadyOpened(id int) {
	r.ch <- openResult{event: "already", id: id}
}

func (r *openRecorder) OnReconnectFailure(p *camera.Proxy) {
	r.ch <- openResult{event: "reconnectFailure", proxy: p, id: p.ID()}
}

func (r *openRecorder) wait(t *testing.T) openResult {
	t.Helper()
	select {
	case res := <-r.ch:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for open callback")
		return openResult{}
	}
}

// manualHandler collects posted functions and runs them only on Flush,
// which makes delivery timing deterministic in tests.
type manualHandler struct {
	mu    sync.Mutex
	posts []func()
}

func (h *manualHandler) Post(fn func()) {
	h.mu.Lock()
	h.posts = append(h.posts, fn)
	h.mu.Unlock()
}

// Flush runs everything posted so far and reports how many ran.
func (h *manualHandler) Flush() int {
	h.mu.Lock()
	posts := h.posts
	h.posts = nil
	h.mu.Unlock()

	for _, fn := range posts {
		fn()
	}
	return len(posts)
}

func fakeManager() *camera.Manager {
	return camera.NewManager(fakecam.Open(fakecam.Options{}), fakecam.Enumerate(2))
}

func TestManager_Open_DeliversProxy(t *testing.T) {
	m := fakeManager()
	defer m.Close()

	h := camera.NewHandler()
	defer h.Stop()

	rec := newOpenRecorder()
	m.Open(h, 0, rec)

	res := rec.wait(t)
	assert.Equal(t, "opened", res.event)
	require.NotNil(t, res.proxy)
	assert.Equal(t, 0, res.proxy.ID())
	assert.Equal(t, 1, m.Count())
}

func TestManager_Open_AlreadyOpened(t *testing.T) {
	m := fakeManager()
	defer m.Close()

	h := camera.NewHandler()
	defer h.Stop()

	rec := newOpenRecorder()
	m.Open(h, 0, rec)
	require.Equal(t, "opened", rec.wait(t).event)

	m.Open(h, 0, rec)
	res := rec.wait(t)
	assert.Equal(t, "already", res.event)
	assert.Equal(t, 0, res.id)
	assert.Equal(t, 1, m.Count())
}

func TestManager_Open_ConcurrentAttemptsOneWinner(t *testing.T) {
	var opens atomic.Int32
	opener := func(id int) (driver.Device, error) {
		opens.Add(1)
		return fakecam.New(fakecam.Options{ID: id}), nil
	}
	m := camera.NewManager(opener, fakecam.Enumerate(1))
	defer m.Close()

	h := camera.NewHandler()
	defer h.Stop()

	rec := newOpenRecorder()
	const attempts = 8
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Open(h, 0, rec)
		}()
	}
	wg.Wait()

	var opened, already int
	for i := 0; i < attempts; i++ {
		switch rec.wait(t).event {
		case "opened":
			opened++
		case "already":
			already++
		}
	}
	assert.Equal(t, 1, opened)
	assert.Equal(t, attempts-1, already)
	assert.Equal(t, int32(1), opens.Load())
}

func TestManager_Open_Disabled(t *testing.T) {
	opener := func(id int) (driver.Device, error) {
		return nil, fmt.Errorf("policy: %w", driver.ErrDisabled)
	}
	m := camera.NewManager(opener, fakecam.Enumerate(1))
	defer m.Close()

	h := camera.NewHandler()
	defer h.Stop()

	rec := newOpenRecorder()
	m.Open(h, 0, rec)

	res := rec.wait(t)
	assert.Equal(t, "disabled", res.event)
	assert.Equal(t, 0, m.Count())
}

func TestManager_Open_HardwareFailure(t *testing.T) {
	opener := func(id int) (driver.Device, error) {
		return nil, errors.New("ioctl failed")
	}
	m := camera.NewManager(opener, fakecam.Enumerate(1))
	defer m.Close()

	h := camera.NewHandler()
	defer h.Stop()

	rec := newOpenRecorder()
	m.Open(h, 7, rec)

	res := rec.wait(t)
	assert.Equal(t, "failure", res.event)
	assert.Equal(t, 7, res.id)
}

func TestManager_ListCameras(t *testing.T) {
	m := fakeManager()
	defer m.Close()

	infos, err := m.ListCameras()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, 0, infos[0].ID)
	assert.Equal(t, 1, infos[1].ID)
}

func TestManager_ListCameras_EnumerationError(t *testing.T) {
	enumerator := func() ([]driver.Info, error) {
		return nil, errors.New("enumeration failed")
	}
	m := camera.NewManager(fakecam.Open(fakecam.Options{}), enumerator)
	defer m.Close()

	_, err := m.ListCameras()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to enumerate")
}

func TestManager_Close_ReleasesSessions(t *testing.T) {
	dev := fakecam.New(fakecam.Options{})
	opener := func(id int) (driver.Device, error) { return dev, nil }
	m := camera.NewManager(opener, fakecam.Enumerate(1))

	h := camera.NewHandler()
	defer h.Stop()

	rec := newOpenRecorder()
	m.Open(h, 0, rec)
	require.Equal(t, "opened", rec.wait(t).event)

	m.Close()
	assert.True(t, dev.Closed())
}
