package app

import (
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// HotReloader polls the running binary's modification time and fires a
// callback once a newer build lands. Used during development so the
// studio can offer to restart itself after a recompile.
type HotReloader struct {
	path     string
	baseline time.Time
	interval time.Duration
	stop     chan struct{}

	onNewBinary func()
}

// NewHotReloader watches the current executable. Returns nil when the
// executable cannot be resolved, in which case reloading is simply off.
func NewHotReloader(interval time.Duration) *HotReloader {
	path, err := os.Executable()
	if err != nil {
		return nil
	}
	// go build replaces the file, so follow symlinks to the real one.
	if real, err := filepath.EvalSymlinks(path); err == nil {
		path = real
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil
	}

	return &HotReloader{
		path:     path,
		baseline: info.ModTime(),
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// OnNewBinary sets the callback fired when a newer binary is seen. It
// runs on a background goroutine, so UI work must be marshalled over.
func (h *HotReloader) OnNewBinary(callback func()) {
	h.onNewBinary = callback
}

// Start begins polling in the background. Safe to call again after the
// watcher fired or was stopped.
func (h *HotReloader) Start() {
	h.stop = make(chan struct{})
	go h.watch()
}

// Stop ends the polling goroutine.
func (h *HotReloader) Stop() {
	close(h.stop)
}

func (h *HotReloader) watch() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			info, err := os.Stat(h.path)
			if err != nil {
				continue
			}
			if info.ModTime().After(h.baseline) {
				if h.onNewBinary != nil {
					h.onNewBinary()
				}
				// Fire once per build.
				return
			}
		}
	}
}

// ExecPath returns the path of the watched binary.
func (h *HotReloader) ExecPath() string {
	return h.path
}

// ResetBaseline accepts the current binary as the baseline. Call when
// the user declines a restart so the prompt does not repeat.
func (h *HotReloader) ResetBaseline() {
	if info, err := os.Stat(h.path); err == nil {
		h.baseline = info.ModTime()
	}
}

// Restart replaces the current process with a fresh instance of the
// binary, keeping arguments and environment. Does not return on success.
func (h *HotReloader) Restart() error {
	return syscall.Exec(h.path, os.Args, os.Environ())
}
