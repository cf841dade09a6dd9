// Package camera implements a single-owner asynchronous session façade over
// a camera backend. One dedicated goroutine (the command queue) owns every
// open device handle; callers interact through a Proxy whose operations are
// queued onto that goroutine, with results delivered via typed callbacks on
// caller-supplied Handlers. A small set of operations is synchronous because
// downstream resource cleanup depends on their completion ordering.
package camera

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/sorenh/camerad/internal/driver"
)

// Manager hands out camera sessions. At most one session is open per camera
// ID at any time; all open attempts are serialized through the command
// queue, so concurrent opens of the same ID resolve deterministically.
type Manager struct {
	queue      *commandQueue
	opener     driver.Opener
	enumerator driver.Enumerator

	// sessions is owned by the command queue goroutine.
	sessions map[int]*session
}

// NewManager creates a Manager backed by the given opener and enumerator
// and starts its command queue.
func NewManager(opener driver.Opener, enumerator driver.Enumerator) *Manager {
	return &Manager{
		queue:      newCommandQueue(),
		opener:     opener,
		enumerator: enumerator,
		sessions:   make(map[int]*session),
	}
}

// ListCameras returns information about the attached camera devices. It
// does not touch open device handles and is safe to call from any
// goroutine.
func (m *Manager) ListCameras() ([]driver.Info, error) {
	infos, err := m.enumerator()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate cameras: %w", err)
	}
	return infos, nil
}

// Open opens the camera with the given ID asynchronously. The outcome is
// reported exactly once through cb on h: OnOpened with a Proxy on success,
// or one of the fault methods. Open is the sole entry point for obtaining
// a Proxy.
func (m *Manager) Open(h Handler, cameraID int, cb OpenCallback) {
	m.queue.enqueue("open", func() {
		if _, ok := m.sessions[cameraID]; ok {
			log.Warn().Int("camera", cameraID).Msg("Open rejected: already opened")
			h.Post(func() { cb.OnAlreadyOpened(cameraID) })
			return
		}

		dev, err := m.opener(cameraID)
		if err != nil {
			if errors.Is(err, driver.ErrDisabled) {
				log.Warn().Err(err).Int("camera", cameraID).Msg("Camera disabled")
				h.Post(func() { cb.OnDisabled(cameraID) })
			} else {
				log.Error().Err(err).Int("camera", cameraID).Msg("Camera open failed")
				h.Post(func() { cb.OnOpenFailure(cameraID) })
			}
			return
		}

		s := newSession(m, cameraID, dev)
		m.sessions[cameraID] = s
		log.Info().Int("camera", cameraID).Str("name", dev.Info().Name).Msg("Camera opened")
		h.Post(func() { cb.OnOpened(s.proxy) })
	})
}

// SetDefaultExceptionCallback binds the process-wide callback for runtime
// faults that have no per-operation callback. cb is invoked on h. Passing a
// nil cb restores the default behavior: the fault is re-raised on the
// command queue goroutine.
func (m *Manager) SetDefaultExceptionCallback(h Handler, cb ExceptionCallback) {
	m.queue.setExceptionCallback(h, cb)
}

// Close releases every open session and stops the command queue. The
// Manager must not be used afterwards.
func (m *Manager) Close() {
	m.queue.enqueueAndWait("closeAll", func() {
		for id, s := range m.sessions {
			if err := s.device.Close(); err != nil {
				log.Error().Err(err).Int("camera", id).Msg("Failed to close camera")
			}
			s.released = true
			delete(m.sessions, id)
		}
	})
	m.queue.stop()
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	var n int
	m.queue.enqueueAndWait("count", func() { n = len(m.sessions) })
	return n
}
