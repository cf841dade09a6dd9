// Package driver defines the contract between camerad and a concrete camera
// backend (V4L2, fake). The façade in internal/camera treats a Device as an
// opaque collaborator: it never reinterprets device behavior beyond
// classifying faults at the boundary.
package driver

import "errors"

//go:generate mockgen -source=driver.go -destination=mocks/device_mock.go -package=mocks

// Low-level error codes reported through the error sink after open.
const (
	// ErrorUnknown is an unspecified device failure.
	ErrorUnknown = 1
	// ErrorServerDied indicates the backing media service went away.
	ErrorServerDied = 100
)

// Sentinel errors used for fault classification at the façade boundary.
var (
	// ErrDisabled is returned by an Opener when the device exists but is
	// administratively disabled (e.g. by device policy).
	ErrDisabled = errors.New("driver: device disabled")

	// ErrNotSupported is returned by operations the backend cannot perform
	// (e.g. face detection on a plain V4L2 webcam).
	ErrNotSupported = errors.New("driver: operation not supported")

	// ErrClosed is returned when an operation is attempted on a closed device.
	ErrClosed = errors.New("driver: device closed")
)

// Info describes an attached camera device.
type Info struct {
	ID     int
	Node   string // device node, e.g. /dev/video0
	Name   string
	Driver string
}

// Params is a flat view of the device configuration, keyed by parameter
// name. Values are stringly typed the way V4L2 controls and camera HALs
// expose them.
type Params map[string]string

// Clone returns an independent copy of p.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Frame is one preview frame as produced by the backend.
type Frame struct {
	Data   []byte
	Width  int
	Height int
	Format string // fourcc, e.g. "MJPG"
}

// Face is a detected face in preview coordinates.
type Face struct {
	X, Y          int
	Width, Height int
	Score         int
}

// CaptureStages carries the optional per-stage callbacks for TakePicture.
// The device invokes each non-nil stage at most once, in field order, on
// the goroutine that called TakePicture. Backends that cannot produce a
// stage (e.g. raw on V4L2) simply skip it.
type CaptureStages struct {
	Shutter  func()
	Raw      func(data []byte)
	Postview func(data []byte)
	JPEG     func(data []byte)
}

// PreviewSink is the rendering destination for preview frames. It stands in
// for the platform surface the preview would be drawn onto.
type PreviewSink interface {
	WriteFrame(f Frame) error
}

// Device is the operation surface camerad requires from a camera backend.
//
// A Device is not safe for concurrent use; camerad serializes every call
// onto its command queue goroutine. Sink and func registrations take effect
// for subsequent events only.
type Device interface {
	// Info returns static information about the device. Immutable after open.
	Info() Info

	// Reconnect re-establishes the link to the device after control was
	// handed to an external consumer via Unlock.
	Reconnect() error

	// Lock re-acquires exclusive control of the device.
	Lock() error

	// Unlock releases exclusive control so an external consumer (e.g. a
	// recorder) can drive the device without closing it.
	Unlock() error

	// SetPreviewSink binds the rendering destination for preview frames.
	SetPreviewSink(sink PreviewSink) error

	// SetFrameFunc registers a tap invoked for every preview frame, on the
	// backend's streaming goroutine. A nil fn clears the tap.
	SetFrameFunc(fn func(Frame))

	StartPreview() error
	StopPreview() error

	// Parameters reads the current configuration from the device.
	Parameters() (Params, error)

	// SetParameters applies p to the device.
	SetParameters(p Params) error

	// AutoFocus runs one focus sweep and reports whether focus converged.
	// Blocks until the sweep ends or CancelAutoFocus is observed.
	AutoFocus() (focused bool, err error)

	CancelAutoFocus() error

	// TakePicture captures a still image, invoking the supplied stages as
	// data becomes available.
	TakePicture(stages CaptureStages) error

	// SetDisplayOrientation adjusts preview rotation. degrees must be one
	// of 0, 90, 180, 270.
	SetDisplayOrientation(degrees int) error

	StartFaceDetection() error
	StopFaceDetection() error

	// SetFaceFunc registers the face-detection event tap. A nil fn clears it.
	SetFaceFunc(fn func(faces []Face))

	// SetZoomFunc registers the smooth-zoom progress tap. A nil fn clears it.
	SetZoomFunc(fn func(value int, stopped bool))

	// SetFocusMoveFunc registers the continuous-focus lens movement tap.
	// A nil fn clears it.
	SetFocusMoveFunc(fn func(moving bool))

	// SetErrorFunc registers the low-level fault tap, invoked with one of
	// the Error* codes when the device fails out-of-band.
	SetErrorFunc(fn func(code int))

	// EnableShutterSound toggles the capture sound.
	EnableShutterSound(enabled bool) error

	// Close releases the device handle.
	Close() error
}

// Opener opens the camera with the given ID.
type Opener func(id int) (Device, error)

// Enumerator lists the attached camera devices.
type Enumerator func() ([]Info, error)
