// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorenh/camerad/internal/camera"
	"github.com/sorenh/camerad/internal/driver"
	"github.com/sorenh/camerad/internal/driver/fakecam"
)

func TestNodeSet(t *testing.T) {
	cameras := []driver.Info{
		{ID: 0, Node: "/dev/video0", Name: "Cam A"},
		{ID: 1, Node: "/dev/video2", Name: "Cam B"},
	}

	set := nodeSet(cameras)
	require.Len(t, set, 2)
	assert.Equal(t, "Cam A", set["/dev/video0"].Name)
	assert.Equal(t, "Cam B", set["/dev/video2"].Name)
}

func TestTrackerDiff(t *testing.T) {
	trk := newTracker([]driver.Info{
		{ID: 0, Node: "/dev/video0"},
	})

	added, removed := trk.diff([]driver.Info{
		{ID: 0, Node: "/dev/video0"},
		{ID: 1, Node: "/dev/video2"},
	})
	assert.Equal(t, []string{"/dev/video2"}, added)
	assert.Empty(t, removed)

	added, removed = trk.diff([]driver.Info{
		{ID: 1, Node: "/dev/video2"},
	})
	assert.Empty(t, added)
	assert.Equal(t, []string{"/dev/video0"}, removed)

	// Unchanged snapshot reports nothing.
	added, removed = trk.diff([]driver.Info{
		{ID: 1, Node: "/dev/video2"},
	})
	assert.Empty(t, added)
	assert.Empty(t, removed)
}

func TestTrackerDiff_EmptySnapshots(t *testing.T) {
	trk := newTracker(nil)

	added, removed := trk.diff(nil)
	assert.Empty(t, added)
	assert.Empty(t, removed)
}

func TestEnumerateWithRetry_Success(t *testing.T) {
	manager := camera.NewManager(
		fakecam.Open(fakecam.Options{}),
		fakecam.Enumerate(2),
	)
	t.Cleanup(manager.Close)

	cameras, err := enumerateWithRetry(manager, 0)
	require.NoError(t, err)
	assert.Len(t, cameras, 2)
}

func TestEnumerateWithRetry_Failure(t *testing.T) {
	enumErr := errors.New("usb gone")
	manager := camera.NewManager(
		fakecam.Open(fakecam.Options{}),
		func() ([]driver.Info, error) { return nil, enumErr },
	)
	t.Cleanup(manager.Close)

	_, err := enumerateWithRetry(manager, 0)
	assert.ErrorIs(t, err, enumErr)
}
