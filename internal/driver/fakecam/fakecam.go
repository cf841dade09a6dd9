// Package fakecam provides an in-memory camera backend with deterministic
// behavior. It backs the daemon's --fake mode and the camera façade tests,
// where real hardware would make ordering assertions flaky.
package fakecam

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/sorenh/camerad/internal/driver"
)

// Options configures a fake camera.
type Options struct {
	ID     int
	Width  int
	Height int

	// FrameInterval, when non-zero, emits synthetic preview frames on a
	// ticker while the preview runs. Zero means frames are only produced
	// through EmitFrame, which keeps tests deterministic.
	FrameInterval time.Duration
}

// Camera is a fake driver.Device producing synthetic JPEG frames.
type Camera struct {
	info driver.Info
	opts Options

	mu          sync.Mutex
	params      driver.Params
	frameFn     func(driver.Frame)
	faceFn      func([]driver.Face)
	zoomFn      func(int, bool)
	focusFn     func(bool)
	errFn       func(int)
	sink        driver.PreviewSink
	previewing  bool
	facesOn     bool
	closed      bool
	locked      bool
	afCancelled bool
	frameSeq    int
	stop        chan struct{}
}

var _ driver.Device = (*Camera)(nil)

// New creates a fake camera. Zero-value dimensions default to 640x480.
func New(opts Options) *Camera {
	if opts.Width == 0 {
		opts.Width = 640
	}
	if opts.Height == 0 {
		opts.Height = 480
	}
	return &Camera{
		info: driver.Info{
			ID:     opts.ID,
			Node:   fmt.Sprintf("fake%d", opts.ID),
			Name:   "Fake Camera",
			Driver: "fakecam",
		},
		opts: opts,
		params: driver.Params{
			"preview-size":   fmt.Sprintf("%dx%d", opts.Width, opts.Height),
			"preview-format": "mjpeg",
			"brightness":     "128",
			"contrast":       "32",
			"zoom":           "0",
			"rotation":       "0",
		},
		locked: true,
	}
}

func (c *Camera) Info() driver.Info { return c.info }

func (c *Camera) Reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return driver.ErrClosed
	}
	c.locked = true
	return nil
}

func (c *Camera) Lock() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return driver.ErrClosed
	}
	c.locked = true
	return nil
}

func (c *Camera) Unlock() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return driver.ErrClosed
	}
	c.locked = false
	return nil
}

func (c *Camera) SetPreviewSink(sink driver.PreviewSink) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return driver.ErrClosed
	}
	c.sink = sink
	return nil
}

func (c *Camera) SetFrameFunc(fn func(driver.Frame)) {
	c.mu.Lock()
	c.frameFn = fn
	c.mu.Unlock()
}

func (c *Camera) StartPreview() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return driver.ErrClosed
	}
	if c.previewing {
		return nil
	}
	c.previewing = true
	if c.opts.FrameInterval > 0 {
		c.stop = make(chan struct{})
		go c.tick(c.stop)
	}
	return nil
}

func (c *Camera) StopPreview() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return driver.ErrClosed
	}
	if !c.previewing {
		return nil
	}
	c.previewing = false
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	return nil
}

func (c *Camera) tick(stop chan struct{}) {
	ticker := time.NewTicker(c.opts.FrameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.EmitFrame()
		}
	}
}

// EmitFrame produces one synthetic preview frame if the preview is running.
// It reports whether a frame was delivered.
func (c *Camera) EmitFrame() bool {
	c.mu.Lock()
	if c.closed || !c.previewing {
		c.mu.Unlock()
		return false
	}
	c.frameSeq++
	seq := c.frameSeq
	frameFn := c.frameFn
	sink := c.sink
	w, h := c.opts.Width, c.opts.Height
	c.mu.Unlock()

	frame := driver.Frame{
		Data:   encodeTestImage(w, h, seq),
		Width:  w,
		Height: h,
		Format: "MJPG",
	}
	if sink != nil {
		_ = sink.WriteFrame(frame)
	}
	if frameFn != nil {
		frameFn(frame)
	}
	return true
}

// EmitFaces delivers a face-detection event if detection is enabled.
func (c *Camera) EmitFaces(faces []driver.Face) bool {
	c.mu.Lock()
	on := c.facesOn && !c.closed
	faceFn := c.faceFn
	c.mu.Unlock()
	if !on || faceFn == nil {
		return false
	}
	faceFn(faces)
	return true
}

// EmitFocusMove injects a continuous-focus lens movement notification.
func (c *Camera) EmitFocusMove(moving bool) {
	c.mu.Lock()
	focusFn := c.focusFn
	c.mu.Unlock()
	if focusFn != nil {
		focusFn(moving)
	}
}

// EmitError injects a low-level device fault.
func (c *Camera) EmitError(code int) {
	c.mu.Lock()
	errFn := c.errFn
	c.mu.Unlock()
	if errFn != nil {
		errFn(code)
	}
}

func (c *Camera) Parameters() (driver.Params, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, driver.ErrClosed
	}
	return c.params.Clone(), nil
}

func (c *Camera) SetParameters(p driver.Params) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return driver.ErrClosed
	}
	zoomFn := c.zoomFn
	var zoomed string
	for k, v := range p {
		if k == "zoom" && c.params[k] != v {
			zoomed = v
		}
		c.params[k] = v
	}
	if zoomed != "" && zoomFn != nil {
		var value int
		_, _ = fmt.Sscanf(zoomed, "%d", &value)
		go zoomFn(value, true)
	}
	return nil
}

func (c *Camera) AutoFocus() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, driver.ErrClosed
	}
	cancelled := c.afCancelled
	c.afCancelled = false
	return !cancelled, nil
}

func (c *Camera) CancelAutoFocus() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return driver.ErrClosed
	}
	c.afCancelled = true
	return nil
}

func (c *Camera) TakePicture(stages driver.CaptureStages) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return driver.ErrClosed
	}
	c.frameSeq++
	seq := c.frameSeq
	w, h := c.opts.Width, c.opts.Height
	c.mu.Unlock()

	data := encodeTestImage(w, h, seq)
	if stages.Shutter != nil {
		stages.Shutter()
	}
	if stages.Raw != nil {
		stages.Raw(data)
	}
	if stages.Postview != nil {
		stages.Postview(data)
	}
	if stages.JPEG != nil {
		stages.JPEG(data)
	}
	return nil
}

func (c *Camera) SetDisplayOrientation(degrees int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return driver.ErrClosed
	}
	if degrees%90 != 0 || degrees < 0 || degrees > 270 {
		return fmt.Errorf("invalid orientation %d: must be 0, 90, 180 or 270", degrees)
	}
	c.params["rotation"] = fmt.Sprintf("%d", degrees)
	return nil
}

func (c *Camera) StartFaceDetection() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return driver.ErrClosed
	}
	c.facesOn = true
	return nil
}

func (c *Camera) StopFaceDetection() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return driver.ErrClosed
	}
	c.facesOn = false
	return nil
}

func (c *Camera) SetFaceFunc(fn func([]driver.Face)) {
	c.mu.Lock()
	c.faceFn = fn
	c.mu.Unlock()
}

func (c *Camera) SetZoomFunc(fn func(int, bool)) {
	c.mu.Lock()
	c.zoomFn = fn
	c.mu.Unlock()
}

func (c *Camera) SetFocusMoveFunc(fn func(bool)) {
	c.mu.Lock()
	c.focusFn = fn
	c.mu.Unlock()
}

func (c *Camera) SetErrorFunc(fn func(int)) {
	c.mu.Lock()
	c.errFn = fn
	c.mu.Unlock()
}

func (c *Camera) EnableShutterSound(bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return driver.ErrClosed
	}
	return nil
}

// Closed reports whether Close has been called.
func (c *Camera) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.previewing = false
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	return nil
}

// encodeTestImage renders a gradient keyed by seq so consecutive frames are
// distinguishable, encoded as JPEG.
func encodeTestImage(w, h, seq int) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	shade := uint8(seq * 29)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x), G: uint8(y), B: shade, A: 255,
			})
		}
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		// Encoding an in-memory NRGBA cannot fail; keep the contract total.
		return nil
	}
	return buf.Bytes()
}

// Open returns a driver.Opener producing fake cameras with the given options.
func Open(opts Options) driver.Opener {
	return func(id int) (driver.Device, error) {
		o := opts
		o.ID = id
		return New(o), nil
	}
}

// Enumerate returns a driver.Enumerator listing count fake cameras.
func Enumerate(count int) driver.Enumerator {
	return func() ([]driver.Info, error) {
		infos := make([]driver.Info, count)
		for i := range infos {
			infos[i] = driver.Info{
				ID:     i,
				Node:   fmt.Sprintf("fake%d", i),
				Name:   "Fake Camera",
				Driver: "fakecam",
			}
		}
		return infos, nil
	}
}
