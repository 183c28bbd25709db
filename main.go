// Package main provides the entry point for the Palm Studio desktop
// application.
package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"palm-reader/internal/app"
	"palm-reader/internal/store"
	"palm-reader/internal/version"
	"palm-reader/pkg/log"
	"palm-reader/ui/studio"
)

func main() {
	logger := log.NewLogger()
	if err := godotenv.Load(); err != nil {
		logger.Warnf("No .env file loaded: %v", err)
	}
	logger.Infof("Starting Palm Studio v%s", version.Version)

	root := os.Getenv("DATA_DIR")
	if root == "" {
		root = "./data"
	}
	st, err := store.Open(root)
	if err != nil {
		logger.Fatalf("Failed to open analysis store: %v", err)
	}

	appState := app.NewState(st, logger)

	fyneApp := fyneapp.NewWithID("com.palmreader.studio")
	fyneApp.Settings().SetTheme(&app.StudioTheme{})

	win := studio.New(fyneApp, appState)
	win.Resize(fyne.NewSize(1280, 860))

	// An analysis id or record path on the command line opens directly
	if len(os.Args) > 1 {
		id := strings.TrimSuffix(filepath.Base(os.Args[1]), ".json")
		if err := appState.OpenAnalysis(id); err != nil {
			logger.Errorf("Failed to open analysis %s: %v", id, err)
		}
	}

	setupHotReload(win, logger)

	win.ShowAndRun()
}

// setupHotReload offers a restart when the binary is recompiled while
// the studio is open.
func setupHotReload(win *studio.Studio, logger *logrus.Logger) {
	reloader := app.NewHotReloader(2 * time.Second)
	if reloader == nil {
		logger.Warn("Hot reload disabled: unable to determine executable path")
		return
	}
	logger.Infof("Hot reload: watching %s", reloader.ExecPath())

	reloader.OnNewBinary(func() {
		dialog.ShowConfirm("New Version Available",
			"The application binary has been updated.\nRestart now?",
			func(restart bool) {
				if !restart {
					reloader.ResetBaseline()
					reloader.Start()
					return
				}
				logger.Info("Hot reload: restarting")
				if err := reloader.Restart(); err != nil {
					logger.Errorf("Hot reload: restart failed: %v", err)
				}
			}, win)
	})

	reloader.Start()
}
