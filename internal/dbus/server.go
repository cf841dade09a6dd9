// SPDX-License-Identifier: GPL-3.0-only

// Package dbus provides the D-Bus service exposing camera sessions and the
// photo store.
package dbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/sorenh/camerad/internal/camera"
	"github.com/sorenh/camerad/internal/driver"
	"github.com/sorenh/camerad/internal/media"
)

// ErrCameraNotOpen is returned for operations on a camera without an open session.
var ErrCameraNotOpen = errors.New("camera not open")

// ErrRateLimitExceeded is returned when capture or parameter requests exceed the rate limit.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// ErrCaptureBusy is returned when a capture is requested while one is already in flight.
var ErrCaptureBusy = errors.New("capture already in progress")

// ErrTimeout is returned when the camera fails to respond in time.
var ErrTimeout = errors.New("camera operation timed out")

// ErrUnknownParameter is returned when a parameter key is not known to the camera.
var ErrUnknownParameter = errors.New("unknown parameter")

const (
	// rateLimitPerSecond is the maximum number of capture/parameter requests per second.
	rateLimitPerSecond = 20

	// rateLimitBurst is the maximum burst size for capture/parameter requests.
	rateLimitBurst = 5

	// defaultOpenTimeout bounds how long OpenCamera waits for the session to come up.
	defaultOpenTimeout = 5 * time.Second

	// defaultCaptureTimeout bounds how long TakePicture waits for the final image.
	defaultCaptureTimeout = 10 * time.Second
)

const (
	// ServiceName is the D-Bus service name.
	ServiceName = "io.github.sorenh.Camerad"

	// ObjectPath is the D-Bus object path.
	ObjectPath = "/io/github/sorenh/Camerad"

	// InterfaceName is the D-Bus interface name.
	InterfaceName = "io.github.sorenh.Camerad"
)

// IntrospectXML is the D-Bus introspection XML for the service.
const IntrospectXML = `
<node name="` + ObjectPath + `">
  <interface name="` + InterfaceName + `">
    <method name="ListCameras">
      <arg name="cameras" type="a(iss)" direction="out"/>
    </method>
    <method name="OpenCamera">
      <arg name="id" type="i" direction="in"/>
    </method>
    <method name="ReleaseCamera">
      <arg name="id" type="i" direction="in"/>
    </method>
    <method name="StartPreview">
      <arg name="id" type="i" direction="in"/>
    </method>
    <method name="StopPreview">
      <arg name="id" type="i" direction="in"/>
    </method>
    <method name="TakePicture">
      <arg name="id" type="i" direction="in"/>
      <arg name="photoId" type="x" direction="out"/>
    </method>
    <method name="GetParameter">
      <arg name="id" type="i" direction="in"/>
      <arg name="key" type="s" direction="in"/>
      <arg name="value" type="s" direction="out"/>
    </method>
    <method name="SetParameter">
      <arg name="id" type="i" direction="in"/>
      <arg name="key" type="s" direction="in"/>
      <arg name="value" type="s" direction="in"/>
    </method>
    <method name="ListPhotos">
      <arg name="photos" type="a(xsiis)" direction="out"/>
    </method>
    <method name="DeletePhoto">
      <arg name="photoId" type="x" direction="in"/>
    </method>
    <signal name="CameraAdded">
      <arg name="node" type="s"/>
    </signal>
    <signal name="CameraRemoved">
      <arg name="node" type="s"/>
    </signal>
    <signal name="PictureTaken">
      <arg name="id" type="i"/>
      <arg name="photoId" type="x"/>
      <arg name="path" type="s"/>
    </signal>
  </interface>
  ` + introspect.IntrospectDataString + `
</node>
`

// PhotoStore is the subset of the media store the service needs.
// This allows for substituting a store in tests.
type PhotoStore interface {
	SavePhoto(ctx context.Context, jpegData []byte, orientation int, takenAt time.Time) (media.Item, error)
	List(ctx context.Context) ([]media.Item, error)
	Delete(ctx context.Context, id int64) error
}

// CameraInfo represents camera information returned via D-Bus.
// Serializes to D-Bus type (iss) - id, device node and human-readable name.
type CameraInfo struct {
	ID   int32
	Node string
	Name string
}

// PhotoInfo represents an indexed photo returned via D-Bus.
// Serializes to D-Bus type (xsiis).
type PhotoInfo struct {
	ID          int64
	Path        string
	Width       int32
	Height      int32
	Description string
}

// Server implements the D-Bus service for camera control.
//
// Thread safety:
//   - Camera sessions are owned by the manager's command queue; the server
//     only holds proxies, whose operations are safe from any goroutine.
//   - The connMu mutex protects the D-Bus connection field for signal emission.
//   - The mu mutex protects the proxy table and per-camera capture guards.
type Server struct {
	conn        *dbus.Conn
	connMu      sync.RWMutex // Protects conn field only
	manager     *camera.Manager
	store       PhotoStore
	handler     *camera.SerialHandler
	rateLimiter *rate.Limiter

	mu        sync.Mutex
	proxies   map[int32]*camera.Proxy
	capturing map[int32]bool

	openTimeout    time.Duration
	captureTimeout time.Duration
}

// NewServer creates a new D-Bus server on top of the given camera manager
// and photo store.
func NewServer(manager *camera.Manager, store PhotoStore) *Server {
	return &Server{
		manager:        manager,
		store:          store,
		handler:        camera.NewHandler(),
		rateLimiter:    rate.NewLimiter(rateLimitPerSecond, rateLimitBurst),
		proxies:        make(map[int32]*camera.Proxy),
		capturing:      make(map[int32]bool),
		openTimeout:    defaultOpenTimeout,
		captureTimeout: defaultCaptureTimeout,
	}
}

// Start connects to the session bus and exports the service.
func (s *Server) Start() error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	// Ensure connection is closed if setup fails
	success := false
	defer func() {
		if !success {
			if closeErr := conn.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("Failed to close D-Bus connection during cleanup")
			}
		}
	}()

	err = conn.Export(s, ObjectPath, InterfaceName)
	if err != nil {
		return fmt.Errorf("failed to export server: %w", err)
	}

	err = conn.Export(introspect.Introspectable(IntrospectXML), ObjectPath, "org.freedesktop.DBus.Introspectable")
	if err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(ServiceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("name %s already taken", ServiceName)
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	success = true
	log.Info().Str("service", ServiceName).Msg("D-Bus service started")
	return nil
}

// Stop disconnects from the session bus and releases all open sessions.
func (s *Server) Stop() error {
	s.mu.Lock()
	proxies := s.proxies
	s.proxies = make(map[int32]*camera.Proxy)
	s.mu.Unlock()

	for id, p := range proxies {
		p.Release(true)
		log.Debug().Int32("camera", id).Msg("Session released on shutdown")
	}

	s.handler.Stop()

	s.connMu.Lock()
	conn := s.conn
	s.conn = nil
	s.connMu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

// proxy returns the open session proxy for a camera.
func (s *Server) proxy(id int32) (*camera.Proxy, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proxies[id]
	return p, ok
}

// openWaiter adapts the asynchronous open callbacks to a channel the
// D-Bus method can block on.
type openWaiter struct {
	ch chan openOutcome
}

type openOutcome struct {
	proxy *camera.Proxy
	err   error
}

func newOpenWaiter() *openWaiter {
	return &openWaiter{ch: make(chan openOutcome, 1)}
}

func (w *openWaiter) OnOpened(p *camera.Proxy)        { w.ch <- openOutcome{proxy: p} }
func (w *openWaiter) OnDisabled(cameraID int)         { w.ch <- openOutcome{err: camera.ErrDisabled} }
func (w *openWaiter) OnOpenFailure(cameraID int)      { w.ch <- openOutcome{err: camera.ErrOpenFailure} }
func (w *openWaiter) OnAlreadyOpened(cameraID int)    { w.ch <- openOutcome{err: camera.ErrAlreadyOpened} }
func (w *openWaiter) OnReconnectFailure(p *camera.Proxy) {
	w.ch <- openOutcome{err: camera.ErrReconnectFailure}
}

// ListCameras returns all cameras currently known to the backend.
func (s *Server) ListCameras() ([]CameraInfo, *dbus.Error) {
	cameras, err := s.manager.ListCameras()
	if err != nil {
		log.Error().Err(err).Msg("Failed to enumerate cameras")
		return nil, dbus.MakeFailedError(err)
	}

	result := make([]CameraInfo, len(cameras))
	for i, c := range cameras {
		// #nosec G115 -- camera IDs are small non-negative indices
		result[i] = CameraInfo{ID: int32(c.ID), Node: c.Node, Name: c.Name}
	}

	log.Debug().Int("count", len(result)).Msg("Listed cameras")
	return result, nil
}

// OpenCamera opens a session on the given camera.
func (s *Server) OpenCamera(id int32) *dbus.Error {
	w := newOpenWaiter()
	s.manager.Open(s.handler, int(id), w)

	select {
	case outcome := <-w.ch:
		if outcome.err != nil {
			log.Error().Err(outcome.err).Int32("camera", id).Msg("Failed to open camera")
			return dbus.MakeFailedError(outcome.err)
		}
		s.mu.Lock()
		s.proxies[id] = outcome.proxy
		s.mu.Unlock()
		log.Info().Int32("camera", id).Msg("Camera opened")
		return nil
	case <-time.After(s.openTimeout):
		log.Error().Int32("camera", id).Msg("Timed out opening camera")
		return dbus.MakeFailedError(ErrTimeout)
	}
}

// ReleaseCamera closes the session on the given camera.
func (s *Server) ReleaseCamera(id int32) *dbus.Error {
	s.mu.Lock()
	p, ok := s.proxies[id]
	delete(s.proxies, id)
	delete(s.capturing, id)
	s.mu.Unlock()

	if !ok {
		return dbus.MakeFailedError(ErrCameraNotOpen)
	}

	p.Release(true)
	log.Info().Int32("camera", id).Msg("Camera released")
	return nil
}

// StartPreview starts the preview stream on the given camera.
func (s *Server) StartPreview(id int32) *dbus.Error {
	p, ok := s.proxy(id)
	if !ok {
		return dbus.MakeFailedError(ErrCameraNotOpen)
	}

	p.StartPreview()
	log.Debug().Int32("camera", id).Msg("Preview started")
	return nil
}

// StopPreview stops the preview stream on the given camera.
func (s *Server) StopPreview(id int32) *dbus.Error {
	p, ok := s.proxy(id)
	if !ok {
		return dbus.MakeFailedError(ErrCameraNotOpen)
	}

	p.StopPreview()
	log.Debug().Int32("camera", id).Msg("Preview stopped")
	return nil
}

// TakePicture captures a still image, stores it and returns its photo id.
func (s *Server) TakePicture(id int32) (int64, *dbus.Error) {
	if !s.rateLimiter.Allow() {
		log.Warn().Msg("Rate limit exceeded for TakePicture")
		return 0, dbus.MakeFailedError(ErrRateLimitExceeded)
	}

	p, ok := s.proxy(id)
	if !ok {
		return 0, dbus.MakeFailedError(ErrCameraNotOpen)
	}

	s.mu.Lock()
	if s.capturing[id] {
		s.mu.Unlock()
		return 0, dbus.MakeFailedError(ErrCaptureBusy)
	}
	s.capturing[id] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.capturing, id)
		s.mu.Unlock()
	}()

	jpeg := make(chan []byte, 1)
	p.TakePicture(s.handler,
		func(_ *camera.Proxy) {
			log.Debug().Int32("camera", id).Msg("Shutter fired")
		},
		nil, nil,
		func(data []byte, _ *camera.Proxy) {
			jpeg <- data
		})

	var data []byte
	select {
	case data = <-jpeg:
	case <-time.After(s.captureTimeout):
		log.Error().Int32("camera", id).Msg("Timed out waiting for capture")
		return 0, dbus.MakeFailedError(ErrTimeout)
	}

	orientation := 0
	if v, ok := p.Parameters()["rotation"]; ok {
		if _, err := fmt.Sscanf(v, "%d", &orientation); err != nil {
			orientation = 0
		}
	}

	item, err := s.store.SavePhoto(context.Background(), data, orientation, time.Now())
	if err != nil {
		log.Error().Err(err).Int32("camera", id).Msg("Failed to store photo")
		return 0, dbus.MakeFailedError(err)
	}

	s.emitPictureTaken(id, item.ID, item.Path)
	return item.ID, nil
}

// GetParameter returns the value of a single camera parameter.
func (s *Server) GetParameter(id int32, key string) (string, *dbus.Error) {
	p, ok := s.proxy(id)
	if !ok {
		return "", dbus.MakeFailedError(ErrCameraNotOpen)
	}

	value, ok := p.Parameters()[key]
	if !ok {
		return "", dbus.MakeFailedError(fmt.Errorf("%w: %s", ErrUnknownParameter, key))
	}

	log.Debug().Int32("camera", id).Str("key", key).Str("value", value).Msg("Got parameter")
	return value, nil
}

// SetParameter updates a single camera parameter.
func (s *Server) SetParameter(id int32, key, value string) *dbus.Error {
	if !s.rateLimiter.Allow() {
		log.Warn().Msg("Rate limit exceeded for SetParameter")
		return dbus.MakeFailedError(ErrRateLimitExceeded)
	}

	p, ok := s.proxy(id)
	if !ok {
		return dbus.MakeFailedError(ErrCameraNotOpen)
	}

	p.SetParameters(driver.Params{key: value})
	log.Debug().Int32("camera", id).Str("key", key).Str("value", value).Msg("Set parameter")
	return nil
}

// ListPhotos returns all stored photos, newest first.
func (s *Server) ListPhotos() ([]PhotoInfo, *dbus.Error) {
	items, err := s.store.List(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list photos")
		return nil, dbus.MakeFailedError(err)
	}

	result := make([]PhotoInfo, len(items))
	for i, it := range items {
		// #nosec G115 -- pixel dimensions fit in int32
		result[i] = PhotoInfo{
			ID:          it.ID,
			Path:        it.Path,
			Width:       int32(it.Width),
			Height:      int32(it.Height),
			Description: it.Description(),
		}
	}

	log.Debug().Int("count", len(result)).Msg("Listed photos")
	return result, nil
}

// DeletePhoto removes a stored photo and its backing file.
func (s *Server) DeletePhoto(photoID int64) *dbus.Error {
	if err := s.store.Delete(context.Background(), photoID); err != nil {
		log.Error().Err(err).Int64("photo", photoID).Msg("Failed to delete photo")
		return dbus.MakeFailedError(err)
	}
	return nil
}

// emitPictureTaken emits the PictureTaken signal.
func (s *Server) emitPictureTaken(id int32, photoID int64, path string) {
	s.connMu.RLock()
	conn := s.conn
	s.connMu.RUnlock()

	if conn == nil {
		return
	}

	err := conn.Emit(ObjectPath, InterfaceName+".PictureTaken", id, photoID, path)
	if err != nil {
		log.Error().Err(err).Msg("Failed to emit PictureTaken signal")
	}
}

// EmitCameraAdded emits the CameraAdded signal.
func (s *Server) EmitCameraAdded(node string) {
	s.connMu.RLock()
	conn := s.conn
	s.connMu.RUnlock()

	if conn == nil {
		return
	}

	err := conn.Emit(ObjectPath, InterfaceName+".CameraAdded", node)
	if err != nil {
		log.Error().Err(err).Msg("Failed to emit CameraAdded signal")
	}
	log.Info().Str("node", node).Msg("Camera added")
}

// EmitCameraRemoved emits the CameraRemoved signal.
func (s *Server) EmitCameraRemoved(node string) {
	s.connMu.RLock()
	conn := s.conn
	s.connMu.RUnlock()

	if conn == nil {
		return
	}

	err := conn.Emit(ObjectPath, InterfaceName+".CameraRemoved", node)
	if err != nil {
		log.Error().Err(err).Msg("Failed to emit CameraRemoved signal")
	}
	log.Info().Str("node", node).Msg("Camera removed")
}
