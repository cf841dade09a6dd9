package camera

import (
	"errors"
	"fmt"
)

// Fault kinds reported by the façade. Use errors.Is() to check for these
// errors in calling code.
var (
	// ErrAlreadyOpened is reported when opening a camera ID that already
	// has an open session.
	ErrAlreadyOpened = errors.New("camera: device already opened")

	// ErrDisabled is reported when the device is administratively disabled.
	ErrDisabled = errors.New("camera: device disabled")

	// ErrOpenFailure is reported when the hardware open attempt fails.
	ErrOpenFailure = errors.New("camera: device open failure")

	// ErrReconnectFailure is reported when re-establishing the device link
	// fails after control was handed back.
	ErrReconnectFailure = errors.New("camera: reconnection failure")

	// ErrReleased is raised when an operation reaches the queue after the
	// session was released.
	ErrReleased = errors.New("camera: session released")

	// ErrCaptureInProgress is raised when TakePicture is issued before the
	// previous capture delivered its final stage callback.
	ErrCaptureInProgress = errors.New("camera: capture in progress")
)

// DeviceError is a low-level hardware fault reported by the device after
// open, routed through the exception path when no error callback is bound.
type DeviceError struct {
	CameraID int
	Code     int
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("camera %d: device fault %d", e.CameraID, e.Code)
}
