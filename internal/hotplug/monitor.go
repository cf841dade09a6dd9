// Package hotplug provides camera attach/detach detection via netlink/udev events.
package hotplug

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/pilebones/go-udev/netlink"
	"github.com/rs/zerolog/log"
)

const (
	// netlinkBufferSize is the receive buffer size for the netlink socket.
	// USB hot-plug generates many netlink messages rapidly; 2MB prevents
	// ENOBUFS errors during typical scenarios.
	netlinkBufferSize = 2 * 1024 * 1024 // 2 MB

	// videoSubsystem is the udev subsystem name for V4L2 capture devices.
	videoSubsystem = "video4linux"

	// removeDebounceWindow suppresses duplicate REMOVE events for the same
	// device node. Unplugging a UVC camera emits one uevent per interface.
	removeDebounceWindow = 2 * time.Second

	// debounceEntryMaxAge bounds how long stale debounce entries are kept.
	debounceEntryMaxAge = time.Minute
)

// EventType represents the type of device event.
type EventType int

const (
	// EventAdd indicates a camera was connected.
	EventAdd EventType = iota
	// EventRemove indicates a camera was disconnected.
	EventRemove
)

// Event represents a camera hot-plug event.
type Event struct {
	Type EventType
	// Node is the device node, e.g. /dev/video0.
	Node string
}

// EventHandler is called when a camera event occurs.
type EventHandler func(event Event)

// RecoveryHandler is called when the monitor recovers from an error condition
// (e.g., netlink buffer overflow) and needs to trigger a re-enumeration.
type RecoveryHandler func()

// Monitor watches for V4L2 capture device connect/disconnect events.
type Monitor struct {
	conn            *netlink.UEventConn
	handler         EventHandler
	recoveryHandler RecoveryHandler
	quit            chan struct{}
	stopped         bool
	lastRemoveTime  map[string]time.Time
	mu              sync.Mutex
}

// NewMonitor creates a new hot-plug monitor with the given event handler.
func NewMonitor(handler EventHandler) *Monitor {
	return &Monitor{
		handler:        handler,
		lastRemoveTime: make(map[string]time.Time),
	}
}

// SetRecoveryHandler sets the handler called when the monitor recovers from
// errors. This should trigger a camera re-enumeration to recover from
// potentially missed events.
func (m *Monitor) SetRecoveryHandler(handler RecoveryHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recoveryHandler = handler
}

// Start begins monitoring for device events.
// This method is non-blocking; events are processed in a background goroutine.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != nil {
		return fmt.Errorf("monitor already started")
	}

	m.conn = &netlink.UEventConn{}
	if err := m.conn.Connect(netlink.UdevEvent); err != nil {
		m.conn = nil
		return fmt.Errorf("failed to connect to netlink: %w", err)
	}

	// Increase socket receive buffer to prevent ENOBUFS during rapid hot-plug events
	if err := setSocketBufferSize(m.conn.Fd, netlinkBufferSize); err != nil {
		log.Warn().Err(err).Int("size", netlinkBufferSize).Msg("Failed to set netlink buffer size")
		// Continue anyway - the default buffer may still work for most cases
	} else {
		log.Debug().Int("size", netlinkBufferSize).Msg("Netlink socket buffer size configured")
	}

	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	matcher := m.createMatcher()

	m.quit = m.conn.Monitor(queue, errs, matcher)
	m.stopped = false

	go m.processEvents(queue, errs)

	log.Info().Msg("hotplug monitor started")
	return nil
}

// Stop stops the monitor and releases resources.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil || m.stopped {
		return nil
	}

	m.stopped = true

	// Signal the monitor goroutine to stop
	select {
	case m.quit <- struct{}{}:
	default:
	}

	if err := m.conn.Close(); err != nil {
		return fmt.Errorf("failed to close netlink connection: %w", err)
	}

	m.conn = nil
	log.Info().Msg("hotplug monitor stopped")
	return nil
}

// createMatcher creates a matcher for V4L2 capture device events.
func (m *Monitor) createMatcher() *netlink.RuleDefinitions {
	rules := &netlink.RuleDefinitions{}

	addAction := "add"
	removeAction := "remove"
	subsystemPattern := fmt.Sprintf("^%s$", videoSubsystem)

	rules.AddRule(netlink.RuleDefinition{
		Action: &addAction,
		Env: map[string]string{
			"SUBSYSTEM": subsystemPattern,
		},
	})

	rules.AddRule(netlink.RuleDefinition{
		Action: &removeAction,
		Env: map[string]string{
			"SUBSYSTEM": subsystemPattern,
		},
	})

	return rules
}

// processEvents handles incoming udev events.
func (m *Monitor) processEvents(queue chan netlink.UEvent, errs chan error) {
	for {
		select {
		case event, ok := <-queue:
			if !ok {
				return
			}
			m.handleEvent(event)
		case err, ok := <-errs:
			if !ok {
				return
			}
			m.mu.Lock()
			stopped := m.stopped
			recoveryHandler := m.recoveryHandler
			m.mu.Unlock()
			if stopped {
				return
			}

			// Handle netlink buffer overflow (ENOBUFS) gracefully.
			// When this occurs, events may have been dropped, so we trigger
			// a recovery refresh to re-enumerate cameras.
			if isBufferOverflowError(err) {
				log.Warn().Msg("Netlink buffer overflow detected, triggering recovery refresh")
				if recoveryHandler != nil {
					go recoveryHandler()
				}
				continue
			}

			log.Error().Err(err).Msg("hotplug monitor error")
		}
	}
}

// setSocketBufferSize sets the receive buffer size for a socket.
// It first tries SO_RCVBUFFORCE (requires CAP_NET_ADMIN), then falls back to SO_RCVBUF.
func setSocketBufferSize(fd int, size int) error {
	err := syscall.SetsockoptInt(fd, syscall.SOL_SOCKET, syscall.SO_RCVBUFFORCE, size)
	if err == nil {
		return nil
	}

	// Fall back to SO_RCVBUF - limited by net.core.rmem_max sysctl
	return syscall.SetsockoptInt(fd, syscall.SOL_SOCKET, syscall.SO_RCVBUF, size)
}

// isBufferOverflowError checks if the error is a netlink buffer overflow (ENOBUFS).
func isBufferOverflowError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ENOBUFS) {
		return true
	}
	// Fallback: check error message for non-wrapped cases from the udev library
	return strings.Contains(strings.ToLower(err.Error()), "no buffer space available")
}

// deviceNode extracts the /dev node for a uevent. Udev daemon events carry
// an absolute DEVNAME; raw kernel uevents carry the name relative to /dev.
func deviceNode(uevent netlink.UEvent) string {
	name := uevent.Env["DEVNAME"]
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "/") {
		return name
	}
	return "/dev/" + name
}

// shouldDebounceRemove reports whether a REMOVE event for the given node
// arrived within the debounce window of the previous one.
func (m *Monitor) shouldDebounceRemove(node string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for n, at := range m.lastRemoveTime {
		if now.Sub(at) > debounceEntryMaxAge {
			delete(m.lastRemoveTime, n)
		}
	}

	if at, ok := m.lastRemoveTime[node]; ok && now.Sub(at) < removeDebounceWindow {
		return true
	}
	m.lastRemoveTime[node] = now
	return false
}

// handleEvent processes a single udev event.
func (m *Monitor) handleEvent(uevent netlink.UEvent) {
	node := deviceNode(uevent)
	// Events without a device node belong to metadata subdevices.
	if node == "" {
		return
	}

	log.Debug().
		Str("action", string(uevent.Action)).
		Str("devpath", uevent.KObj).
		Str("node", node).
		Msg("Video device event")

	var eventType EventType
	switch uevent.Action {
	case netlink.ADD:
		eventType = EventAdd
		log.Info().Str("node", node).Msg("Camera connected")
	case netlink.REMOVE:
		if m.shouldDebounceRemove(node) {
			return
		}
		eventType = EventRemove
		log.Info().Str("node", node).Msg("Camera disconnected")
	default:
		return
	}

	if m.handler != nil {
		m.handler(Event{Type: eventType, Node: node})
	}
}
