// Package main provides the entry point for the camera daemon.
package main

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sorenh/camerad/internal/camera"
	"github.com/sorenh/camerad/internal/config"
	"github.com/sorenh/camerad/internal/dbus"
	"github.com/sorenh/camerad/internal/driver"
	"github.com/sorenh/camerad/internal/driver/fakecam"
	"github.com/sorenh/camerad/internal/hotplug"
	"github.com/sorenh/camerad/internal/media"
)

var (
	configPath string
	verbose    bool
	fake       bool

	rootCmd = &cobra.Command{
		Use:   "camerad",
		Short: "D-Bus daemon exposing camera capture sessions",
		Long: `camerad is a D-Bus service that owns the cameras attached to the
machine. It exposes methods for opening camera sessions, running preview,
taking pictures into a photo store and tuning capture parameters, and emits
signals when cameras are connected or disconnected.`,
		Run: func(cmd *cobra.Command, args []string) {
			run()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&fake, "fake", false, "Use a synthetic camera backend instead of V4L2 devices")
}

func defaultConfigPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir + "/camerad/config.yaml"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return home + "/.config/camerad/config.yaml"
}

// setupLogging configures the global logger from the config, with the
// verbose flag forcing debug level.
func setupLogging(cfg config.Logging) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
		level = parsed
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// backend selects the camera driver from the config and flags.
func backend(cfg config.Camera) (driver.Opener, driver.Enumerator) {
	if fake || cfg.Fake {
		log.Info().Msg("Using synthetic camera backend")
		opts := fakecam.Options{
			Width:         cfg.PreviewWidth,
			Height:        cfg.PreviewHeight,
			FrameInterval: 33 * time.Millisecond,
		}
		return fakecam.Open(opts), fakecam.Enumerate(1)
	}

	// #nosec G115 -- preview dimensions are validated positive
	width, height := uint32(cfg.PreviewWidth), uint32(cfg.PreviewHeight)
	opener := func(id int) (driver.Device, error) {
		dev, err := driver.OpenV4L2(id, width, height)
		if err != nil {
			return nil, err
		}
		return dev, nil
	}
	return opener, driver.EnumerateV4L2
}

func run() {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("Failed to load configuration")
	}

	setupLogging(cfg.Logging)
	log.Info().Msg("Starting camerad")

	opener, enumerator := backend(cfg.Camera)
	manager := camera.NewManager(opener, enumerator)

	handler := camera.NewHandler()
	manager.SetDefaultExceptionCallback(handler, func(err error) {
		log.Error().Err(err).Msg("Unhandled camera fault")
	})

	cameras, err := manager.ListCameras()
	if err != nil {
		log.Error().Err(err).Msg("Failed to enumerate cameras")
	}
	if len(cameras) == 0 {
		log.Warn().Msg("No cameras found")
	} else {
		log.Info().Int("count", len(cameras)).Msg("Found cameras")
	}

	store, err := media.OpenStore(cfg.Storage.Database, cfg.Storage.Directory)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open photo store")
	}

	server := dbus.NewServer(manager, store)
	if err := server.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start D-Bus server")
	}

	trk := newTracker(cameras)
	monitor := hotplug.NewMonitor(createHotplugHandler(manager, server, trk))
	monitor.SetRecoveryHandler(createRecoveryHandler(manager, server, trk))
	if err := monitor.Start(); err != nil {
		log.Error().Err(err).Msg("Failed to start hotplug monitor (hot-plug detection disabled)")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Info().Msg("Daemon running, press Ctrl+C to stop")
	<-sigChan

	log.Info().Msg("Shutting down...")
	if err := monitor.Stop(); err != nil {
		log.Error().Err(err).Msg("Failed to stop hotplug monitor")
	}
	if err := server.Stop(); err != nil {
		log.Error().Err(err).Msg("Failed to stop D-Bus server")
	}
	manager.Close()
	handler.Stop()
	if err := store.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close photo store")
	}

	log.Info().Msg("Daemon stopped")
}

// refreshMu serializes camera re-enumeration between the hotplug handler
// and the recovery handler.
var refreshMu sync.Mutex

// enumerateWithRetry attempts to enumerate cameras with linear backoff.
func enumerateWithRetry(manager *camera.Manager, maxRetries int) ([]driver.Info, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			// Linear backoff: 500ms, 1000ms, 1500ms, ...
			backoff := time.Duration(attempt) * 500 * time.Millisecond
			log.Debug().
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying camera enumeration")
			time.Sleep(backoff)
		}

		cameras, err := manager.ListCameras()
		if err != nil {
			lastErr = err
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Int("maxRetries", maxRetries+1).
				Msg("Camera enumeration failed")
			continue
		}

		if attempt > 0 {
			log.Info().Int("attempts", attempt+1).Msg("Camera enumeration succeeded after retry")
		}
		return cameras, nil
	}
	return nil, lastErr
}

// nodeSet maps camera device nodes to their enumeration info.
func nodeSet(cameras []driver.Info) map[string]driver.Info {
	set := make(map[string]driver.Info, len(cameras))
	for _, c := range cameras {
		set[c.Node] = c
	}
	return set
}

// tracker remembers the last enumeration snapshot so the hot-plug handlers
// can tell which cameras appeared or disappeared.
type tracker struct {
	mu   sync.Mutex
	seen map[string]driver.Info
}

func newTracker(initial []driver.Info) *tracker {
	return &tracker{seen: nodeSet(initial)}
}

// diff replaces the snapshot with current and returns the nodes that were
// added and removed relative to the previous one.
func (t *tracker) diff(current []driver.Info) (added, removed []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	after := nodeSet(current)
	for node := range after {
		if _, exists := t.seen[node]; !exists {
			added = append(added, node)
		}
	}
	for node := range t.seen {
		if _, exists := after[node]; !exists {
			removed = append(removed, node)
		}
	}
	t.seen = after
	return added, removed
}

// emitCameraDiff folds an enumeration snapshot into the tracker and emits
// signals for the changes.
func emitCameraDiff(server *dbus.Server, trk *tracker, current []driver.Info) {
	added, removed := trk.diff(current)
	for _, node := range added {
		server.EmitCameraAdded(node)
	}
	for _, node := range removed {
		server.EmitCameraRemoved(node)
	}
}

// createHotplugHandler returns an event handler that re-enumerates cameras
// and emits D-Bus signals for the difference.
func createHotplugHandler(manager *camera.Manager, server *dbus.Server, trk *tracker) hotplug.EventHandler {
	return func(event hotplug.Event) {
		refreshMu.Lock()
		defer refreshMu.Unlock()

		// For add events, wait for the device to fully initialize.
		// UVC devices need time to register all their V4L2 nodes.
		if event.Type == hotplug.EventAdd {
			time.Sleep(500 * time.Millisecond)
		}

		after, err := enumerateWithRetry(manager, 3)
		if err != nil {
			log.Error().Err(err).Msg("Failed to enumerate cameras after hot-plug event (all retries exhausted)")
			return
		}

		emitCameraDiff(server, trk, after)
	}
}

// createRecoveryHandler returns a handler for netlink buffer overflow
// recovery. It re-enumerates cameras to recover from potentially missed
// udev events.
func createRecoveryHandler(manager *camera.Manager, server *dbus.Server, trk *tracker) hotplug.RecoveryHandler {
	return func() {
		refreshMu.Lock()
		defer refreshMu.Unlock()

		log.Info().Msg("Performing recovery enumeration after netlink buffer overflow")

		// Wait a moment for any pending USB operations to settle
		time.Sleep(500 * time.Millisecond)

		after, err := enumerateWithRetry(manager, 3)
		if err != nil {
			log.Error().Err(err).Msg("Recovery enumeration failed (all retries exhausted)")
			return
		}

		emitCameraDiff(server, trk, after)
		log.Info().Int("cameras", len(after)).Msg("Recovery enumeration completed")
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Failed to execute command")
	}
}
