//go:build linux

package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/blackjack/webcam"
	"github.com/rs/zerolog/log"
)

// mjpegFourCC is V4L2_PIX_FMT_MJPG ('MJPG' little-endian).
const mjpegFourCC = webcam.PixelFormat(0x47504A4D)

// V4L2 control IDs used for the parameter mapping.
const (
	cidBrightness   webcam.ControlID = 0x00980900
	cidContrast     webcam.ControlID = 0x00980901
	cidSaturation   webcam.ControlID = 0x00980902
	cidFocusAuto    webcam.ControlID = 0x009a090c
	cidZoomAbsolute webcam.ControlID = 0x009a090d
)

// waitFrameTimeoutSec is the per-iteration frame wait in the streaming loop.
const waitFrameTimeoutSec = 2

// V4L2Device drives a video4linux camera through github.com/blackjack/webcam.
// Frames are requested in MJPEG so captured stills are already JPEG encoded.
type V4L2Device struct {
	info Info
	cam  *webcam.Webcam

	mu          sync.Mutex
	controls    map[webcam.ControlID]webcam.Control
	values      map[string]int
	frameFn     func(Frame)
	faceFn      func([]Face)
	zoomFn      func(value int, stopped bool)
	focusFn     func(moving bool)
	errFn       func(code int)
	sink        PreviewSink
	capture     chan captureResult
	width       uint32
	height      uint32
	streaming   bool
	closed      bool
	locked      bool
	orientation int
	stop        chan struct{}
	done        chan struct{}
}

var _ Device = (*V4L2Device)(nil)

// captureResult resolves one pending TakePicture against the streaming
// loop: a frame on success, the loop's fault otherwise.
type captureResult struct {
	data []byte
	err  error
}

// OpenV4L2 opens /dev/video<id> and negotiates an MJPEG format of the given
// size. width/height of 0 lets the driver pick.
func OpenV4L2(id int, width, height uint32) (*V4L2Device, error) {
	node := fmt.Sprintf("/dev/video%d", id)
	cam, err := webcam.Open(node)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", node, err)
	}

	if _, ok := cam.GetSupportedFormats()[mjpegFourCC]; !ok {
		_ = cam.Close()
		return nil, fmt.Errorf("%s: no MJPEG support: %w", node, ErrNotSupported)
	}

	_, w, h, err := cam.SetImageFormat(mjpegFourCC, width, height)
	if err != nil {
		_ = cam.Close()
		return nil, fmt.Errorf("failed to set image format on %s: %w", node, err)
	}

	d := &V4L2Device{
		info: Info{
			ID:     id,
			Node:   node,
			Name:   sysfsName(id),
			Driver: "v4l2",
		},
		cam:      cam,
		controls: cam.GetControls(),
		values:   make(map[string]int),
		width:    w,
		height:   h,
		locked:   true,
	}
	log.Debug().Str("node", node).Uint32("width", w).Uint32("height", h).Msg("Opened V4L2 device")
	return d, nil
}

// EnumerateV4L2 lists the /dev/video* nodes currently present.
func EnumerateV4L2() ([]Info, error) {
	nodes, err := filepath.Glob("/dev/video*")
	if err != nil {
		return nil, fmt.Errorf("failed to list video nodes: %w", err)
	}

	var infos []Info
	for _, node := range nodes {
		id, err := strconv.Atoi(strings.TrimPrefix(node, "/dev/video"))
		if err != nil {
			continue
		}
		infos = append(infos, Info{
			ID:     id,
			Node:   node,
			Name:   sysfsName(id),
			Driver: "v4l2",
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}

// sysfsName reads the human-readable device name from sysfs, falling back to
// the node path.
func sysfsName(id int) string {
	data, err := os.ReadFile(fmt.Sprintf("/sys/class/video4linux/video%d/name", id))
	if err != nil {
		return fmt.Sprintf("video%d", id)
	}
	return strings.TrimSpace(string(data))
}

func (d *V4L2Device) Info() Info {
	return d.info
}

func (d *V4L2Device) Reconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.locked = true
	return nil
}

func (d *V4L2Device) Lock() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.locked = true
	return nil
}

func (d *V4L2Device) Unlock() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.locked = false
	return nil
}

func (d *V4L2Device) SetPreviewSink(sink PreviewSink) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.sink = sink
	return nil
}

func (d *V4L2Device) SetFrameFunc(fn func(Frame)) {
	d.mu.Lock()
	d.frameFn = fn
	d.mu.Unlock()
}

func (d *V4L2Device) StartPreview() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if d.streaming {
		return nil
	}
	if err := d.cam.StartStreaming(); err != nil {
		return fmt.Errorf("failed to start streaming: %w", err)
	}
	d.streaming = true
	d.stop = make(chan struct{})
	d.done = make(chan struct{})
	go d.streamLoop(d.stop, d.done)
	return nil
}

func (d *V4L2Device) StopPreview() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	if !d.streaming {
		d.mu.Unlock()
		return nil
	}
	d.streaming = false
	stop, done := d.stop, d.done
	d.mu.Unlock()

	close(stop)
	<-done
	if err := d.cam.StopStreaming(); err != nil {
		return fmt.Errorf("failed to stop streaming: %w", err)
	}
	return nil
}

// streamLoop pumps frames from the kernel buffers to the registered tap and
// sink until stopped.
func (d *V4L2Device) streamLoop(stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		default:
		}

		if err := d.cam.WaitForFrame(waitFrameTimeoutSec); err != nil {
			var timeout *webcam.Timeout
			if errors.As(err, &timeout) {
				continue
			}
			d.reportError(err)
			return
		}

		raw, err := d.cam.ReadFrame()
		if err != nil {
			d.reportError(err)
			return
		}
		if len(raw) == 0 {
			continue
		}

		// ReadFrame hands back a kernel-owned buffer; copy before fanning out.
		data := make([]byte, len(raw))
		copy(data, raw)

		d.mu.Lock()
		frameFn := d.frameFn
		sink := d.sink
		capture := d.capture
		w, h := d.width, d.height
		d.capture = nil
		d.mu.Unlock()

		frame := Frame{Data: data, Width: int(w), Height: int(h), Format: "MJPG"}
		if capture != nil {
			capture <- captureResult{data: data}
		}
		if sink != nil {
			if err := sink.WriteFrame(frame); err != nil {
				log.Warn().Err(err).Str("node", d.info.Node).Msg("Preview sink rejected frame")
			}
		}
		if frameFn != nil {
			frameFn(frame)
		}
	}
}

// reportError forwards a streaming fault to the registered error tap and
// fails any capture still waiting on the loop, so the caller blocked in
// TakePicture gets an error instead of a frame that will never arrive.
func (d *V4L2Device) reportError(err error) {
	log.Error().Err(err).Str("node", d.info.Node).Msg("V4L2 streaming fault")
	d.mu.Lock()
	errFn := d.errFn
	capture := d.capture
	d.capture = nil
	d.streaming = false
	d.mu.Unlock()
	if capture != nil {
		capture <- captureResult{err: err}
	}
	if errFn != nil {
		errFn(ErrorUnknown)
	}
}

func (d *V4L2Device) Parameters() (Params, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}

	p := Params{
		"preview-size":   fmt.Sprintf("%dx%d", d.width, d.height),
		"preview-format": "mjpeg",
		"rotation":       strconv.Itoa(d.orientation),
	}
	for name, cid := range controlNames {
		ctrl, ok := d.controls[cid]
		if !ok {
			continue
		}
		value, ok := d.values[name]
		if !ok {
			// Not set through us yet; report the control midpoint.
			value = controlMidpoint(ctrl.Min, ctrl.Max)
		}
		p[name] = strconv.Itoa(value)
	}
	return p, nil
}

// controlMidpoint returns the middle of a control range. Widened before
// arithmetic so full-range int32 controls do not overflow.
func controlMidpoint(min, max int32) int {
	return int(min) + (int(max)-int(min))/2
}

// controlNames maps parameter names to the V4L2 controls backing them.
var controlNames = map[string]webcam.ControlID{
	"brightness": cidBrightness,
	"contrast":   cidContrast,
	"saturation": cidSaturation,
	"zoom":       cidZoomAbsolute,
}

func (d *V4L2Device) SetParameters(p Params) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}

	for name, cid := range controlNames {
		raw, ok := p[name]
		if !ok {
			continue
		}
		if _, ok := d.controls[cid]; !ok {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", name, raw, err)
		}
		if err := d.cam.SetControl(cid, int32(value)); err != nil {
			return fmt.Errorf("failed to set %s: %w", name, err)
		}
		d.values[name] = value
		if name == "zoom" && d.zoomFn != nil {
			// V4L2 zoom is absolute, so the move completes with the ioctl.
			go d.zoomFn(value, true)
		}
	}
	return nil
}

func (d *V4L2Device) AutoFocus() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false, ErrClosed
	}
	if err := d.cam.SetControl(cidFocusAuto, 1); err != nil {
		// Fixed-focus camera: report converged rather than failing the sweep.
		log.Debug().Err(err).Str("node", d.info.Node).Msg("No autofocus control")
	} else if fn := d.focusFn; fn != nil {
		// V4L2 has no lens-movement events, so bracket the sweep ourselves.
		go func() {
			fn(true)
			fn(false)
		}()
	}
	return true, nil
}

func (d *V4L2Device) CancelAutoFocus() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if err := d.cam.SetControl(cidFocusAuto, 0); err != nil {
		log.Debug().Err(err).Str("node", d.info.Node).Msg("No autofocus control")
	}
	return nil
}

// TakePicture grabs one MJPEG frame and delivers it as the jpeg stage. Raw
// and postview stages are not available from V4L2 and are skipped.
func (d *V4L2Device) TakePicture(stages CaptureStages) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	streaming := d.streaming
	var capture chan captureResult
	if streaming {
		capture = make(chan captureResult, 1)
		d.capture = capture
	}
	d.mu.Unlock()

	if stages.Shutter != nil {
		stages.Shutter()
	}

	var data []byte
	if streaming {
		res := <-capture
		if res.err != nil {
			return fmt.Errorf("preview stream failed during capture: %w", res.err)
		}
		data = res.data
	} else {
		var err error
		data, err = d.grabSingleFrame()
		if err != nil {
			return err
		}
	}

	if stages.JPEG != nil {
		stages.JPEG(data)
	}
	return nil
}

// grabSingleFrame streams just long enough to read one frame.
func (d *V4L2Device) grabSingleFrame() ([]byte, error) {
	if err := d.cam.StartStreaming(); err != nil {
		return nil, fmt.Errorf("failed to start streaming for capture: %w", err)
	}
	defer func() {
		if err := d.cam.StopStreaming(); err != nil {
			log.Warn().Err(err).Str("node", d.info.Node).Msg("Failed to stop streaming after capture")
		}
	}()

	for {
		if err := d.cam.WaitForFrame(waitFrameTimeoutSec); err != nil {
			var timeout *webcam.Timeout
			if errors.As(err, &timeout) {
				continue
			}
			return nil, fmt.Errorf("failed to wait for capture frame: %w", err)
		}
		raw, err := d.cam.ReadFrame()
		if err != nil {
			return nil, fmt.Errorf("failed to read capture frame: %w", err)
		}
		if len(raw) == 0 {
			continue
		}
		data := make([]byte, len(raw))
		copy(data, raw)
		return data, nil
	}
}

func (d *V4L2Device) SetDisplayOrientation(degrees int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if degrees%90 != 0 || degrees < 0 || degrees > 270 {
		return fmt.Errorf("invalid orientation %d: must be 0, 90, 180 or 270", degrees)
	}
	d.orientation = degrees
	return nil
}

// StartFaceDetection is not available on plain V4L2 hardware.
func (d *V4L2Device) StartFaceDetection() error {
	return ErrNotSupported
}

func (d *V4L2Device) StopFaceDetection() error {
	return ErrNotSupported
}

func (d *V4L2Device) SetFaceFunc(fn func([]Face)) {
	d.mu.Lock()
	d.faceFn = fn
	d.mu.Unlock()
}

func (d *V4L2Device) SetZoomFunc(fn func(int, bool)) {
	d.mu.Lock()
	d.zoomFn = fn
	d.mu.Unlock()
}

func (d *V4L2Device) SetFocusMoveFunc(fn func(bool)) {
	d.mu.Lock()
	d.focusFn = fn
	d.mu.Unlock()
}

func (d *V4L2Device) SetErrorFunc(fn func(int)) {
	d.mu.Lock()
	d.errFn = fn
	d.mu.Unlock()
}

func (d *V4L2Device) EnableShutterSound(bool) error {
	// Webcams have no shutter transducer. Accept and ignore.
	return nil
}

func (d *V4L2Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	streaming := d.streaming
	stop, done := d.stop, d.done
	d.streaming = false
	d.mu.Unlock()

	if streaming {
		close(stop)
		<-done
		if err := d.cam.StopStreaming(); err != nil {
			log.Warn().Err(err).Str("node", d.info.Node).Msg("Failed to stop streaming on close")
		}
	}
	return d.cam.Close()
}
