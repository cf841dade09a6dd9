// SPDX-License-Identifier: GPL-3.0-only

package dbus

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorenh/camerad/internal/camera"
	"github.com/sorenh/camerad/internal/driver/fakecam"
	"github.com/sorenh/camerad/internal/media"
)

// newTestServer wires a server over a fake camera backend and a temporary
// photo store.
func newTestServer(t *testing.T) (*Server, *media.Store) {
	t.Helper()

	manager := camera.NewManager(
		fakecam.Open(fakecam.Options{Width: 64, Height: 48}),
		fakecam.Enumerate(2),
	)
	t.Cleanup(manager.Close)

	dir := t.TempDir()
	store, err := media.OpenStore(filepath.Join(dir, "photos.db"), filepath.Join(dir, "photos"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	return NewServer(manager, store), store
}

func TestServiceConstants(t *testing.T) {
	assert.Equal(t, "io.github.sorenh.Camerad", ServiceName)
	assert.Equal(t, "/io/github/sorenh/Camerad", ObjectPath)
	assert.Contains(t, IntrospectXML, `<method name="TakePicture">`)
	assert.Contains(t, IntrospectXML, `<signal name="PictureTaken">`)
}

func TestServer_ListCameras(t *testing.T) {
	s, _ := newTestServer(t)

	cameras, derr := s.ListCameras()
	require.Nil(t, derr)
	require.Len(t, cameras, 2)
	assert.Equal(t, CameraInfo{ID: 0, Node: "fake0", Name: "Fake Camera"}, cameras[0])
	assert.Equal(t, CameraInfo{ID: 1, Node: "fake1", Name: "Fake Camera"}, cameras[1])
}

func TestServer_OpenCamera(t *testing.T) {
	s, _ := newTestServer(t)

	require.Nil(t, s.OpenCamera(0))

	_, ok := s.proxy(0)
	assert.True(t, ok, "session proxy should be tracked")
}

func TestServer_OpenCamera_AlreadyOpen(t *testing.T) {
	s, _ := newTestServer(t)

	require.Nil(t, s.OpenCamera(0))

	derr := s.OpenCamera(0)
	require.NotNil(t, derr)
	assert.Contains(t, derr.Error(), "already")
}

func TestServer_ReleaseCamera(t *testing.T) {
	s, _ := newTestServer(t)

	require.Nil(t, s.OpenCamera(0))
	require.Nil(t, s.ReleaseCamera(0))

	// The session is gone; further operations report not-open.
	assert.NotNil(t, s.ReleaseCamera(0))
	assert.NotNil(t, s.StartPreview(0))

	// And the camera can be opened again.
	assert.Nil(t, s.OpenCamera(0))
}

func TestServer_Preview(t *testing.T) {
	s, _ := newTestServer(t)

	require.Nil(t, s.OpenCamera(0))
	assert.Nil(t, s.StartPreview(0))
	assert.Nil(t, s.StopPreview(0))
}

func TestServer_Preview_NotOpen(t *testing.T) {
	s, _ := newTestServer(t)

	derr := s.StartPreview(3)
	require.NotNil(t, derr)
	assert.Contains(t, derr.Error(), "not open")
}

func TestServer_TakePicture(t *testing.T) {
	s, store := newTestServer(t)

	require.Nil(t, s.OpenCamera(0))

	photoID, derr := s.TakePicture(0)
	require.Nil(t, derr)
	assert.NotZero(t, photoID)

	item, err := store.Get(context.Background(), photoID)
	require.NoError(t, err)
	assert.FileExists(t, item.Path)
	assert.Equal(t, 64, item.Width)
	assert.Equal(t, 48, item.Height)
}

func TestServer_TakePicture_NotOpen(t *testing.T) {
	s, _ := newTestServer(t)

	_, derr := s.TakePicture(0)
	require.NotNil(t, derr)
	assert.Contains(t, derr.Error(), "not open")
}

func TestServer_TakePicture_Busy(t *testing.T) {
	s, _ := newTestServer(t)

	require.Nil(t, s.OpenCamera(0))

	s.mu.Lock()
	s.capturing[0] = true
	s.mu.Unlock()

	_, derr := s.TakePicture(0)
	require.NotNil(t, derr)
	assert.Contains(t, derr.Error(), "in progress")
}

func TestServer_Parameters(t *testing.T) {
	s, _ := newTestServer(t)

	require.Nil(t, s.OpenCamera(0))

	value, derr := s.GetParameter(0, "brightness")
	require.Nil(t, derr)
	assert.Equal(t, "128", value)

	require.Nil(t, s.SetParameter(0, "brightness", "200"))

	value, derr = s.GetParameter(0, "brightness")
	require.Nil(t, derr)
	assert.Equal(t, "200", value)
}

func TestServer_GetParameter_Unknown(t *testing.T) {
	s, _ := newTestServer(t)

	require.Nil(t, s.OpenCamera(0))

	_, derr := s.GetParameter(0, "no-such-key")
	require.NotNil(t, derr)
	assert.Contains(t, derr.Error(), "unknown parameter")
}

func TestServer_RateLimit(t *testing.T) {
	s, _ := newTestServer(t)

	require.Nil(t, s.OpenCamera(0))

	limited := 0
	for i := 0; i < 3*rateLimitBurst; i++ {
		if derr := s.SetParameter(0, "contrast", "40"); derr != nil {
			if strings.Contains(derr.Error(), "rate limit") {
				limited++
			}
		}
	}
	assert.Positive(t, limited, "burst of parameter writes should hit the rate limit")
}

func TestServer_Photos(t *testing.T) {
	s, _ := newTestServer(t)

	require.Nil(t, s.OpenCamera(0))

	photoID, derr := s.TakePicture(0)
	require.Nil(t, derr)

	photos, derr := s.ListPhotos()
	require.Nil(t, derr)
	require.Len(t, photos, 1)
	assert.Equal(t, photoID, photos[0].ID)
	assert.Equal(t, int32(64), photos[0].Width)
	assert.Equal(t, int32(48), photos[0].Height)
	assert.Contains(t, photos[0].Description, "Photo taken on")

	require.Nil(t, s.DeletePhoto(photoID))

	photos, derr = s.ListPhotos()
	require.Nil(t, derr)
	assert.Empty(t, photos)

	assert.NotNil(t, s.DeletePhoto(photoID), "double delete should fail")
}

func TestServer_Stop_ReleasesSessions(t *testing.T) {
	s, _ := newTestServer(t)

	require.Nil(t, s.OpenCamera(0))
	require.Nil(t, s.OpenCamera(1))

	require.NoError(t, s.Stop())

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Empty(t, s.proxies)
}
