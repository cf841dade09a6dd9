package camera

import "github.com/sorenh/camerad/internal/driver"

// OpenCallback receives the outcome of Manager.Open or Proxy.Reconnect.
// Exactly one method is invoked per open attempt, on the Handler supplied
// with the attempt.
type OpenCallback interface {
	// OnOpened is called with the proxy for the newly opened device.
	OnOpened(p *Proxy)

	// OnDisabled is called when the device is disabled by policy.
	OnDisabled(cameraID int)

	// OnOpenFailure is called when the hardware open attempt fails.
	OnOpenFailure(cameraID int)

	// OnAlreadyOpened is called when the device already has an open session.
	OnAlreadyOpened(cameraID int)

	// OnReconnectFailure is called when Proxy.Reconnect fails.
	OnReconnectFailure(p *Proxy)
}

// ErrorCallback receives low-level device faults raised after open. code is
// one of the driver.Error* values.
type ErrorCallback func(code int, p *Proxy)

// ShutterCallback is invoked when the shutter fires during a capture.
type ShutterCallback func(p *Proxy)

// PictureCallback receives image data for one capture stage.
type PictureCallback func(data []byte, p *Proxy)

// PreviewFrameCallback receives preview frame data.
type PreviewFrameCallback func(data []byte, p *Proxy)

// AutoFocusCallback receives the result of one focus sweep.
type AutoFocusCallback func(focused bool, p *Proxy)

// AutoFocusMoveCallback reports continuous-focus lens movement.
type AutoFocusMoveCallback func(moving bool, p *Proxy)

// ZoomChangeCallback reports smooth zoom progress. stopped is true for the
// final value of a zoom move.
type ZoomChangeCallback func(value int, stopped bool, p *Proxy)

// FaceDetectionCallback receives detected faces for a preview frame.
type FaceDetectionCallback func(faces []driver.Face, p *Proxy)

// PreviewStartedCallback is invoked once the preview is running.
type PreviewStartedCallback func()

// ExceptionCallback receives runtime faults that have no per-operation
// callback. When no exception callback is bound the fault is re-raised on
// the command queue goroutine instead of being swallowed.
type ExceptionCallback func(err error)
