package driver

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControlMidpoint(t *testing.T) {
	tests := []struct {
		name     string
		min, max int32
		expected int
	}{
		{name: "byte range", min: 0, max: 255, expected: 127},
		{name: "symmetric range", min: -36000, max: 36000, expected: 0},
		{name: "degenerate range", min: 100, max: 100, expected: 100},
		{name: "full int32 range", min: math.MinInt32, max: math.MaxInt32, expected: -1},
		{name: "high positive range", min: math.MaxInt32 - 10, max: math.MaxInt32, expected: math.MaxInt32 - 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, controlMidpoint(tt.min, tt.max))
		})
	}
}

func TestV4L2Device_StreamFaultFailsPendingCapture(t *testing.T) {
	d := &V4L2Device{streaming: true}
	codes := make(chan int, 1)
	d.SetErrorFunc(func(code int) { codes <- code })

	captureErr := make(chan error, 1)
	go func() {
		captureErr <- d.TakePicture(CaptureStages{})
	}()

	// Wait for TakePicture to register its pending capture.
	require.Eventually(t, func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.capture != nil
	}, 5*time.Second, time.Millisecond)

	streamErr := errors.New("device went away")
	d.reportError(streamErr)

	select {
	case err := <-captureErr:
		require.Error(t, err)
		assert.ErrorIs(t, err, streamErr)
	case <-time.After(5 * time.Second):
		t.Fatal("TakePicture still blocked after streaming fault")
	}

	select {
	case code := <-codes:
		assert.Equal(t, ErrorUnknown, code)
	case <-time.After(5 * time.Second):
		t.Fatal("error tap not invoked")
	}

	d.mu.Lock()
	assert.Nil(t, d.capture)
	assert.False(t, d.streaming)
	d.mu.Unlock()
}

func TestV4L2Device_StreamFaultWithoutPendingCapture(t *testing.T) {
	d := &V4L2Device{streaming: true}
	codes := make(chan int, 1)
	d.SetErrorFunc(func(code int) { codes <- code })

	d.reportError(errors.New("short read"))

	select {
	case code := <-codes:
		assert.Equal(t, ErrorUnknown, code)
	case <-time.After(5 * time.Second):
		t.Fatal("error tap not invoked")
	}
}
