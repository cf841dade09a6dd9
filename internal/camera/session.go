package camera

import (
	"github.com/rs/zerolog/log"

	"github.com/sorenh/camerad/internal/driver"
)

// previewDelivery selects how preview frames reach the bound callback.
type previewDelivery int

const (
	previewOff previewDelivery = iota
	previewContinuous
	previewOneShot
	previewBuffered
)

// session is the per-device state behind a Proxy: the device handle, the
// parameter cache with its dirty flag, the callback bindings, and the
// preview buffer pool. Every field except proxy/id is owned by the command
// queue goroutine.
type session struct {
	mgr    *Manager
	id     int
	device driver.Device
	proxy  *Proxy

	dispatch *dispatcher

	params driver.Params
	dirty  bool

	preview   previewDelivery
	buffers   [][]byte
	capturing bool
	released  bool
}

func newSession(m *Manager, id int, dev driver.Device) *session {
	s := &session{
		mgr:      m,
		id:       id,
		device:   dev,
		dispatch: newDispatcher(),
	}
	s.proxy = &Proxy{s: s}

	// Driver taps fire on backend goroutines; they only re-enqueue, keeping
	// all session state on the command queue goroutine.
	dev.SetFrameFunc(s.onDriverFrame)
	dev.SetFaceFunc(s.onDriverFaces)
	dev.SetZoomFunc(s.onDriverZoom)
	dev.SetFocusMoveFunc(s.onDriverFocusMove)
	dev.SetErrorFunc(s.onDriverError)
	return s
}

// onDriverFrame routes one preview frame according to the active delivery
// mode.
func (s *session) onDriverFrame(f driver.Frame) {
	s.mgr.queue.enqueue("previewFrame", func() {
		if s.released {
			return
		}
		switch s.preview {
		case previewOff:
		case previewContinuous:
			s.dispatch.dispatch(event{kind: kindPreviewFrame, data: f.Data})
		case previewOneShot:
			s.dispatch.dispatch(event{kind: kindPreviewFrame, data: f.Data})
			s.dispatch.unbind(kindPreviewFrame)
			s.preview = previewOff
		case previewBuffered:
			if len(s.buffers) == 0 {
				log.Debug().Int("camera", s.id).Msg("Dropping preview frame, buffer pool empty")
				return
			}
			buf := s.buffers[0]
			s.buffers = s.buffers[1:]
			n := copy(buf, f.Data)
			s.dispatch.dispatch(event{kind: kindPreviewFrame, data: buf[:n]})
		}
	})
}

func (s *session) onDriverFaces(faces []driver.Face) {
	s.mgr.queue.enqueue("faceDetection", func() {
		if s.released {
			return
		}
		s.dispatch.dispatch(event{kind: kindFaceDetection, faces: faces})
	})
}

func (s *session) onDriverZoom(value int, stopped bool) {
	s.mgr.queue.enqueue("zoomChange", func() {
		if s.released {
			return
		}
		s.dispatch.dispatch(event{kind: kindZoom, value: value, flag: stopped})
	})
}

func (s *session) onDriverFocusMove(moving bool) {
	s.mgr.queue.enqueue("autoFocusMove", func() {
		if s.released {
			return
		}
		s.dispatch.dispatch(event{kind: kindAutoFocusMove, flag: moving})
	})
}

// onDriverError handles out-of-band hardware faults raised after open. A
// bound error callback receives them; otherwise they go through the
// exception path so they stay visible.
func (s *session) onDriverError(code int) {
	s.mgr.queue.enqueue("deviceError", func() {
		if s.released {
			return
		}
		log.Error().Int("camera", s.id).Int("code", code).Msg("Device fault")
		if !s.dispatch.dispatch(event{kind: kindError, code: code}) {
			raise(&DeviceError{CameraID: s.id, Code: code})
		}
	})
}

// checkLive aborts the current task when the session was already released.
func (s *session) checkLive() {
	if s.released {
		raise(ErrReleased)
	}
}
