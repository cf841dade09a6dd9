package hotplug

import (
	"errors"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/pilebones/go-udev/netlink"
	"github.com/stretchr/testify/assert"
)

func TestNewMonitor(t *testing.T) {
	handlerCalled := false
	handler := func(event Event) {
		handlerCalled = true
	}

	monitor := NewMonitor(handler)
	assert.NotNil(t, monitor)
	assert.NotNil(t, monitor.handler)

	monitor.handler(Event{Type: EventAdd})
	assert.True(t, handlerCalled)
}

func TestMonitor_StopWithoutStart(t *testing.T) {
	monitor := NewMonitor(nil)
	// Stop should be safe to call even if not started
	err := monitor.Stop()
	assert.NoError(t, err)
}

func TestDeviceNode(t *testing.T) {
	tests := []struct {
		name    string
		devname string
		want    string
	}{
		{"absolute node", "/dev/video0", "/dev/video0"},
		{"relative node from kernel uevent", "video2", "/dev/video2"},
		{"missing DEVNAME", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uevent := netlink.UEvent{Env: map[string]string{}}
			if tt.devname != "" {
				uevent.Env["DEVNAME"] = tt.devname
			}
			assert.Equal(t, tt.want, deviceNode(uevent))
		})
	}
}

func TestMonitor_HandleEvent(t *testing.T) {
	tests := []struct {
		name          string
		uevent        netlink.UEvent
		expectHandler bool
		expected      Event
	}{
		{
			name: "add event triggers handler",
			uevent: netlink.UEvent{
				Action: netlink.ADD,
				KObj:   "/devices/pci0000:00/usb1/1-1/video4linux/video0",
				Env: map[string]string{
					"SUBSYSTEM": "video4linux",
					"DEVNAME":   "/dev/video0",
				},
			},
			expectHandler: true,
			expected:      Event{Type: EventAdd, Node: "/dev/video0"},
		},
		{
			name: "remove event triggers handler",
			uevent: netlink.UEvent{
				Action: netlink.REMOVE,
				KObj:   "/devices/pci0000:00/usb1/1-1/video4linux/video0",
				Env: map[string]string{
					"SUBSYSTEM": "video4linux",
					"DEVNAME":   "/dev/video0",
				},
			},
			expectHandler: true,
			expected:      Event{Type: EventRemove, Node: "/dev/video0"},
		},
		{
			name: "event without device node is ignored",
			uevent: netlink.UEvent{
				Action: netlink.ADD,
				KObj:   "/devices/pci0000:00/usb1/1-1/video4linux/v4l-subdev0",
				Env: map[string]string{
					"SUBSYSTEM": "video4linux",
				},
			},
			expectHandler: false,
		},
		{
			name: "change action is ignored",
			uevent: netlink.UEvent{
				Action: netlink.CHANGE,
				KObj:   "/devices/pci0000:00/usb1/1-1/video4linux/video0",
				Env: map[string]string{
					"SUBSYSTEM": "video4linux",
					"DEVNAME":   "/dev/video0",
				},
			},
			expectHandler: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mu sync.Mutex
			handlerCalled := false
			var receivedEvent Event

			handler := func(event Event) {
				mu.Lock()
				defer mu.Unlock()
				handlerCalled = true
				receivedEvent = event
			}

			monitor := NewMonitor(handler)
			monitor.handleEvent(tt.uevent)

			mu.Lock()
			defer mu.Unlock()

			if tt.expectHandler {
				assert.True(t, handlerCalled, "handler should have been called")
				assert.Equal(t, tt.expected, receivedEvent)
			} else {
				assert.False(t, handlerCalled, "handler should not have been called")
			}
		})
	}
}

func TestMonitor_HandleEvent_NilHandler(t *testing.T) {
	monitor := NewMonitor(nil)
	uevent := netlink.UEvent{
		Action: netlink.ADD,
		KObj:   "/devices/pci0000:00/usb1/1-1/video4linux/video0",
		Env: map[string]string{
			"SUBSYSTEM": "video4linux",
			"DEVNAME":   "/dev/video0",
		},
	}

	assert.NotPanics(t, func() {
		monitor.handleEvent(uevent)
	})
}

func TestMonitor_CreateMatcher(t *testing.T) {
	monitor := NewMonitor(nil)
	matcher := monitor.createMatcher()

	assert.NotNil(t, matcher)
	assert.Len(t, matcher.Rules, 2) // add and remove rules

	err := matcher.Compile()
	assert.NoError(t, err)

	tests := []struct {
		name     string
		uevent   netlink.UEvent
		expected bool
	}{
		{
			name: "matches add event for video device",
			uevent: netlink.UEvent{
				Action: netlink.ADD,
				KObj:   "/devices/pci0000:00/usb1/1-1/video4linux/video0",
				Env: map[string]string{
					"SUBSYSTEM": "video4linux",
					"DEVNAME":   "/dev/video0",
				},
			},
			expected: true,
		},
		{
			name: "matches remove event for video device",
			uevent: netlink.UEvent{
				Action: netlink.REMOVE,
				KObj:   "/devices/pci0000:00/usb1/1-1/video4linux/video0",
				Env: map[string]string{
					"SUBSYSTEM": "video4linux",
					"DEVNAME":   "/dev/video0",
				},
			},
			expected: true,
		},
		{
			name: "does not match different subsystem",
			uevent: netlink.UEvent{
				Action: netlink.ADD,
				KObj:   "/devices/pci0000:00/usb1/1-1",
				Env: map[string]string{
					"SUBSYSTEM": "usb",
					"DEVNAME":   "/dev/bus/usb/001/004",
				},
			},
			expected: false,
		},
		{
			name: "does not match change action",
			uevent: netlink.UEvent{
				Action: netlink.CHANGE,
				KObj:   "/devices/pci0000:00/usb1/1-1/video4linux/video0",
				Env: map[string]string{
					"SUBSYSTEM": "video4linux",
					"DEVNAME":   "/dev/video0",
				},
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := matcher.Evaluate(tt.uevent)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestMonitor_SetRecoveryHandler(t *testing.T) {
	monitor := NewMonitor(nil)
	assert.Nil(t, monitor.recoveryHandler)

	handlerCalled := false
	monitor.SetRecoveryHandler(func() {
		handlerCalled = true
	})
	assert.NotNil(t, monitor.recoveryHandler)

	monitor.recoveryHandler()
	assert.True(t, handlerCalled)
}

func TestIsBufferOverflowError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error returns false",
			err:      nil,
			expected: false,
		},
		{
			name:     "ENOBUFS syscall error returns true",
			err:      syscall.ENOBUFS,
			expected: true,
		},
		{
			name:     "error message with 'no buffer space available' returns true",
			err:      errors.New("unable to check available uevent, err: no buffer space available"),
			expected: true,
		},
		{
			name:     "generic error returns false",
			err:      errors.New("some other error"),
			expected: false,
		},
		{
			name:     "different syscall error returns false",
			err:      syscall.EINVAL,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isBufferOverflowError(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestMonitor_RemoveEventDebouncing(t *testing.T) {
	var mu sync.Mutex
	callCount := 0

	handler := func(event Event) {
		mu.Lock()
		defer mu.Unlock()
		callCount++
	}

	monitor := NewMonitor(handler)

	// Unplugging a UVC camera emits one uevent per USB interface; only the
	// first REMOVE per node should reach the handler.
	uevent := netlink.UEvent{
		Action: netlink.REMOVE,
		KObj:   "/devices/pci0000:00/usb1/1-1/video4linux/video0",
		Env: map[string]string{
			"SUBSYSTEM": "video4linux",
			"DEVNAME":   "/dev/video0",
		},
	}
	monitor.handleEvent(uevent)
	monitor.handleEvent(uevent)
	monitor.handleEvent(uevent)

	mu.Lock()
	assert.Equal(t, 1, callCount, "repeated REMOVE within debounce window should be ignored")
	mu.Unlock()
}

func TestMonitor_RemoveEventDebouncing_DifferentNodes(t *testing.T) {
	var mu sync.Mutex
	callCount := 0

	handler := func(event Event) {
		mu.Lock()
		defer mu.Unlock()
		callCount++
	}

	monitor := NewMonitor(handler)

	for _, devname := range []string{"/dev/video0", "/dev/video2"} {
		monitor.handleEvent(netlink.UEvent{
			Action: netlink.REMOVE,
			KObj:   "/devices/pci0000:00/usb1/1-1/video4linux",
			Env: map[string]string{
				"SUBSYSTEM": "video4linux",
				"DEVNAME":   devname,
			},
		})
	}

	mu.Lock()
	assert.Equal(t, 2, callCount, "REMOVE events for different nodes should both trigger handler")
	mu.Unlock()
}

func TestMonitor_ShouldDebounceRemove(t *testing.T) {
	monitor := NewMonitor(nil)
	node := "/dev/video0"

	assert.False(t, monitor.shouldDebounceRemove(node), "first call should not debounce")
	assert.True(t, monitor.shouldDebounceRemove(node), "immediate second call should debounce")

	monitor.mu.Lock()
	_, exists := monitor.lastRemoveTime[node]
	monitor.mu.Unlock()
	assert.True(t, exists, "node should be in lastRemoveTime map")
}

func TestMonitor_ShouldDebounceRemove_Cleanup(t *testing.T) {
	monitor := NewMonitor(nil)

	oldNode := "/dev/video9"
	monitor.mu.Lock()
	monitor.lastRemoveTime[oldNode] = time.Now().Add(-2 * time.Minute)
	monitor.mu.Unlock()

	// Processing a new node triggers cleanup of the stale entry.
	monitor.shouldDebounceRemove("/dev/video0")

	monitor.mu.Lock()
	_, oldExists := monitor.lastRemoveTime[oldNode]
	_, newExists := monitor.lastRemoveTime["/dev/video0"]
	monitor.mu.Unlock()

	assert.False(t, oldExists, "old entry should be cleaned up")
	assert.True(t, newExists, "new entry should exist")
}

func TestMonitor_AddEventsNotDebounced(t *testing.T) {
	var mu sync.Mutex
	callCount := 0

	handler := func(event Event) {
		mu.Lock()
		defer mu.Unlock()
		callCount++
	}

	monitor := NewMonitor(handler)

	uevent := netlink.UEvent{
		Action: netlink.ADD,
		KObj:   "/devices/pci0000:00/usb1/1-1/video4linux/video0",
		Env: map[string]string{
			"SUBSYSTEM": "video4linux",
			"DEVNAME":   "/dev/video0",
		},
	}

	monitor.handleEvent(uevent)
	monitor.handleEvent(uevent)
	monitor.handleEvent(uevent)

	mu.Lock()
	assert.Equal(t, 3, callCount, "ADD events should not be debounced")
	mu.Unlock()
}
