package camera

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/sorenh/camerad/internal/driver"
)

// Proxy is the caller-facing surface of an open camera session. Every
// operation posts a task onto the command queue; the few documented
// synchronous methods additionally block until their task completes.
//
// Callers must not invoke a synchronous method from inside a callback that
// runs on the command queue's tasks (there are none by construction) nor
// from another task submitted to the same queue; doing so deadlocks the
// queue. This is a caller contract, not enforced at runtime.
type Proxy struct {
	s *session
}

// ID returns the camera ID this proxy controls.
func (p *Proxy) ID() int {
	return p.s.id
}

// Device returns the underlying driver handle. It exists solely for handing
// the device over to an external consumer (e.g. a recorder) after Unlock;
// any other use breaks the single-owner model.
func (p *Proxy) Device() driver.Device {
	return p.s.device
}

// Release tears down the device handle. With synchronous=true the call
// blocks until teardown completes, at which point the camera ID is
// immediately available for a new Open. With synchronous=false teardown is
// queued and the call returns at once.
func (p *Proxy) Release(synchronous bool) {
	s := p.s
	run := func() {
		if s.released {
			return
		}
		s.released = true
		delete(s.mgr.sessions, s.id)
		if err := s.device.Close(); err != nil {
			log.Error().Err(err).Int("camera", s.id).Msg("Failed to close camera")
		}
		log.Info().Int("camera", s.id).Msg("Camera released")
	}
	if synchronous {
		s.mgr.queue.enqueueAndWait("release", run)
	} else {
		s.mgr.queue.enqueue("release", run)
	}
}

// Reconnect re-establishes the link to the device after control was handed
// to an external consumer. The outcome arrives through cb on h: OnOpened on
// success, OnReconnectFailure otherwise.
func (p *Proxy) Reconnect(h Handler, cb OpenCallback) {
	s := p.s
	s.mgr.queue.enqueue("reconnect", func() {
		s.checkLive()
		if err := s.device.Reconnect(); err != nil {
			log.Error().Err(err).Int("camera", s.id).Msg("Camera reconnect failed")
			h.Post(func() { cb.OnReconnectFailure(p) })
			return
		}
		h.Post(func() { cb.OnOpened(p) })
	})
}

// Lock re-acquires exclusive control of the device.
func (p *Proxy) Lock() {
	s := p.s
	s.mgr.queue.enqueue("lock", func() {
		s.checkLive()
		if err := s.device.Lock(); err != nil {
			raise(fmt.Errorf("lock camera %d: %w", s.id, err))
		}
	})
}

// Unlock hands exclusive control to an external consumer without releasing
// the handle.
func (p *Proxy) Unlock() {
	s := p.s
	s.mgr.queue.enqueue("unlock", func() {
		s.checkLive()
		if err := s.device.Unlock(); err != nil {
			raise(fmt.Errorf("unlock camera %d: %w", s.id, err))
		}
	})
}

// SetPreviewSink binds the rendering destination for preview frames.
func (p *Proxy) SetPreviewSink(sink driver.PreviewSink) {
	p.s.mgr.queue.enqueue("setPreviewSink", p.previewSinkTask(sink))
}

// SetPreviewSinkSync binds the rendering destination and blocks until the
// device acknowledged the binding.
func (p *Proxy) SetPreviewSinkSync(sink driver.PreviewSink) {
	p.s.mgr.queue.enqueueAndWait("setPreviewSink", p.previewSinkTask(sink))
}

func (p *Proxy) previewSinkTask(sink driver.PreviewSink) func() {
	s := p.s
	return func() {
		s.checkLive()
		if err := s.device.SetPreviewSink(sink); err != nil {
			raise(fmt.Errorf("set preview sink on camera %d: %w", s.id, err))
		}
	}
}

// StartPreview starts the camera preview.
func (p *Proxy) StartPreview() {
	s := p.s
	s.mgr.queue.enqueue("startPreview", func() {
		s.checkLive()
		if err := s.device.StartPreview(); err != nil {
			raise(fmt.Errorf("start preview on camera %d: %w", s.id, err))
		}
	})
}

// StartPreviewWithCallback starts the preview and invokes cb on h once the
// preview is running.
func (p *Proxy) StartPreviewWithCallback(h Handler, cb PreviewStartedCallback) {
	s := p.s
	s.mgr.queue.enqueue("startPreview", func() {
		s.checkLive()
		if err := s.device.StartPreview(); err != nil {
			raise(fmt.Errorf("start preview on camera %d: %w", s.id, err))
		}
		h.Post(func() { cb() })
	})
}

// StopPreview stops the preview and blocks until it has fully stopped, so
// the caller can tear down dependent surfaces immediately afterwards.
func (p *Proxy) StopPreview() {
	s := p.s
	s.mgr.queue.enqueueAndWait("stopPreview", func() {
		s.checkLive()
		if err := s.device.StopPreview(); err != nil {
			raise(fmt.Errorf("stop preview on camera %d: %w", s.id, err))
		}
	})
}

// SetPreviewFrameCallback binds cb for continuous preview frame delivery on
// h. A nil cb removes the binding. Frames already dispatched to a previous
// callback are not retracted.
func (p *Proxy) SetPreviewFrameCallback(h Handler, cb PreviewFrameCallback) {
	p.bindPreview(h, cb, previewContinuous)
}

// SetOneShotPreviewCallback binds cb for exactly the next preview frame.
func (p *Proxy) SetOneShotPreviewCallback(h Handler, cb PreviewFrameCallback) {
	p.bindPreview(h, cb, previewOneShot)
}

// SetPreviewFrameCallbackWithBuffer binds cb for buffer-backed delivery:
// each frame is copied into a caller-supplied buffer from the pool filled
// via AddCallbackBuffer. Frames arriving while the pool is empty are
// dropped.
func (p *Proxy) SetPreviewFrameCallbackWithBuffer(h Handler, cb PreviewFrameCallback) {
	p.bindPreview(h, cb, previewBuffered)
}

func (p *Proxy) bindPreview(h Handler, cb PreviewFrameCallback, mode previewDelivery) {
	s := p.s
	s.mgr.queue.enqueue("setPreviewCallback", func() {
		s.checkLive()
		if cb == nil {
			s.dispatch.unbind(kindPreviewFrame)
			s.preview = previewOff
			return
		}
		s.preview = mode
		s.dispatch.bind(kindPreviewFrame, h, func(ev event) { cb(ev.data, p) })
	})
}

// AddCallbackBuffer returns a buffer to the preview buffer pool.
func (p *Proxy) AddCallbackBuffer(buf []byte) {
	s := p.s
	s.mgr.queue.enqueue("addCallbackBuffer", func() {
		s.checkLive()
		s.buffers = append(s.buffers, buf)
	})
}

// AutoFocus runs one focus sweep and reports the result through cb on h.
func (p *Proxy) AutoFocus(h Handler, cb AutoFocusCallback) {
	s := p.s
	s.mgr.queue.enqueue("autoFocus", func() {
		s.checkLive()
		s.dispatch.bind(kindAutoFocus, h, func(ev event) { cb(ev.flag, p) })
		focused, err := s.device.AutoFocus()
		if err != nil {
			s.dispatch.unbind(kindAutoFocus)
			raise(fmt.Errorf("autofocus on camera %d: %w", s.id, err))
		}
		s.dispatch.dispatch(event{kind: kindAutoFocus, flag: focused})
		s.dispatch.unbind(kindAutoFocus)
	})
}

// CancelAutoFocus requests cancellation of the focus sweep. Best effort: it
// takes effect once its task reaches the front of the queue; an already
// dispatched focus result is not retracted.
func (p *Proxy) CancelAutoFocus() {
	s := p.s
	s.mgr.queue.enqueue("cancelAutoFocus", func() {
		s.checkLive()
		s.dispatch.unbind(kindAutoFocus)
		if err := s.device.CancelAutoFocus(); err != nil {
			raise(fmt.Errorf("cancel autofocus on camera %d: %w", s.id, err))
		}
	})
}

// SetAutoFocusMoveCallback subscribes to continuous-focus lens movement
// notifications. A nil cb removes the binding.
func (p *Proxy) SetAutoFocusMoveCallback(h Handler, cb AutoFocusMoveCallback) {
	s := p.s
	s.mgr.queue.enqueue("setAutoFocusMoveCallback", func() {
		s.checkLive()
		if cb == nil {
			s.dispatch.unbind(kindAutoFocusMove)
			return
		}
		s.dispatch.bind(kindAutoFocusMove, h, func(ev event) { cb(ev.flag, p) })
	})
}

// TakePicture captures a still image. Each non-nil callback is invoked at
// most once on h, in shutter, raw, postview, jpeg order as the device
// produces the stages. A capture issued before the previous capture's final
// stage was delivered is rejected with ErrCaptureInProgress.
func (p *Proxy) TakePicture(h Handler, shutter ShutterCallback, raw, postview, jpeg PictureCallback) {
	s := p.s
	s.mgr.queue.enqueue("takePicture", func() {
		s.checkLive()
		if s.capturing {
			raise(fmt.Errorf("camera %d: %w", s.id, ErrCaptureInProgress))
		}
		s.capturing = true

		var stages driver.CaptureStages
		if shutter != nil {
			s.dispatch.bind(kindShutter, h, func(ev event) { shutter(p) })
			stages.Shutter = func() { s.dispatch.dispatch(event{kind: kindShutter}) }
		}
		if raw != nil {
			s.dispatch.bind(kindRaw, h, func(ev event) { raw(ev.data, p) })
			stages.Raw = func(data []byte) { s.dispatch.dispatch(event{kind: kindRaw, data: data}) }
		}
		if postview != nil {
			s.dispatch.bind(kindPostview, h, func(ev event) { postview(ev.data, p) })
			stages.Postview = func(data []byte) { s.dispatch.dispatch(event{kind: kindPostview, data: data}) }
		}
		if jpeg != nil {
			s.dispatch.bind(kindJPEG, h, func(ev event) { jpeg(ev.data, p) })
			stages.JPEG = func(data []byte) { s.dispatch.dispatch(event{kind: kindJPEG, data: data}) }
		}

		err := s.device.TakePicture(stages)
		s.dispatch.unbind(kindShutter)
		s.dispatch.unbind(kindRaw)
		s.dispatch.unbind(kindPostview)
		s.dispatch.unbind(kindJPEG)
		if err != nil {
			// The session stays open and usable; only this capture failed.
			s.capturing = false
			raise(fmt.Errorf("take picture on camera %d: %w", s.id, err))
		}

		// The capture is complete once every dispatched stage has been
		// delivered. The sentinel rides the same handler FIFO behind them.
		h.Post(func() {
			s.mgr.queue.enqueue("captureComplete", func() { s.capturing = false })
		})
	})
}

// SetDisplayOrientation adjusts the preview rotation. degrees must be 0,
// 90, 180 or 270.
func (p *Proxy) SetDisplayOrientation(degrees int) {
	s := p.s
	s.mgr.queue.enqueue("setDisplayOrientation", func() {
		s.checkLive()
		if err := s.device.SetDisplayOrientation(degrees); err != nil {
			raise(fmt.Errorf("set orientation on camera %d: %w", s.id, err))
		}
	})
}

// SetZoomChangeCallback subscribes to smooth-zoom progress. A nil cb
// removes the binding.
func (p *Proxy) SetZoomChangeCallback(h Handler, cb ZoomChangeCallback) {
	s := p.s
	s.mgr.queue.enqueue("setZoomChangeCallback", func() {
		s.checkLive()
		if cb == nil {
			s.dispatch.unbind(kindZoom)
			return
		}
		s.dispatch.bind(kindZoom, h, func(ev event) { cb(ev.value, ev.flag, p) })
	})
}

// SetFaceDetectionCallback binds the face-detection result callback. A nil
// cb removes the binding.
func (p *Proxy) SetFaceDetectionCallback(h Handler, cb FaceDetectionCallback) {
	s := p.s
	s.mgr.queue.enqueue("setFaceDetectionCallback", func() {
		s.checkLive()
		if cb == nil {
			s.dispatch.unbind(kindFaceDetection)
			return
		}
		s.dispatch.bind(kindFaceDetection, h, func(ev event) { cb(ev.faces, p) })
	})
}

// StartFaceDetection starts face detection on the device.
func (p *Proxy) StartFaceDetection() {
	s := p.s
	s.mgr.queue.enqueue("startFaceDetection", func() {
		s.checkLive()
		if err := s.device.StartFaceDetection(); err != nil {
			raise(fmt.Errorf("start face detection on camera %d: %w", s.id, err))
		}
	})
}

// StopFaceDetection stops face detection. Best effort, like
// CancelAutoFocus.
func (p *Proxy) StopFaceDetection() {
	s := p.s
	s.mgr.queue.enqueue("stopFaceDetection", func() {
		s.checkLive()
		if err := s.device.StopFaceDetection(); err != nil {
			raise(fmt.Errorf("stop face detection on camera %d: %w", s.id, err))
		}
	})
}

// SetErrorCallback binds the callback for low-level device faults raised
// after open. A nil cb removes the binding, restoring the exception path.
func (p *Proxy) SetErrorCallback(h Handler, cb ErrorCallback) {
	s := p.s
	s.mgr.queue.enqueue("setErrorCallback", func() {
		s.checkLive()
		if cb == nil {
			s.dispatch.unbind(kindError)
			return
		}
		s.dispatch.bind(kindError, h, func(ev event) { cb(ev.code, p) })
	})
}

// SetParameters applies params to the device and marks the cached snapshot
// dirty.
func (p *Proxy) SetParameters(params driver.Params) {
	s := p.s
	snapshot := params.Clone()
	s.mgr.queue.enqueue("setParameters", func() {
		s.checkLive()
		if err := s.device.SetParameters(snapshot); err != nil {
			raise(fmt.Errorf("set parameters on camera %d: %w", s.id, err))
		}
		s.dirty = true
	})
}

// Parameters returns the current parameter snapshot. The cached copy is
// returned without a device round-trip when clean; a dirty or missing cache
// costs exactly one round-trip. The returned map is the caller's to keep.
func (p *Proxy) Parameters() driver.Params {
	s := p.s
	var out driver.Params
	s.mgr.queue.enqueueAndWait("getParameters", func() {
		s.checkLive()
		if s.params == nil || s.dirty {
			params, err := s.device.Parameters()
			if err != nil {
				raise(fmt.Errorf("get parameters on camera %d: %w", s.id, err))
			}
			s.params = params
			s.dirty = false
		}
		out = s.params.Clone()
	})
	return out
}

// RefreshParameters refetches the parameter snapshot from the device
// regardless of the dirty flag.
func (p *Proxy) RefreshParameters() {
	s := p.s
	s.mgr.queue.enqueue("refreshParameters", func() {
		s.checkLive()
		params, err := s.device.Parameters()
		if err != nil {
			raise(fmt.Errorf("refresh parameters on camera %d: %w", s.id, err))
		}
		s.params = params
		s.dirty = false
	})
}

// EnableShutterSound toggles the capture sound.
func (p *Proxy) EnableShutterSound(enabled bool) {
	s := p.s
	s.mgr.queue.enqueue("enableShutterSound", func() {
		s.checkLive()
		if err := s.device.EnableShutterSound(enabled); err != nil {
			raise(fmt.Errorf("toggle shutter sound on camera %d: %w", s.id, err))
		}
	})
}
