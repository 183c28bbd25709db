package studio

import (
	"fmt"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"palm-reader/internal/app"
	"palm-reader/internal/version"
)

const prefKeyLastDir = "lastDirectory"

// Studio is the main correction window.
type Studio struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	canvas    *LineCanvas
	sidePanel *SidePanel
	statusBar *widget.Label

	// Menu items that need state tracking
	fitToWindowItem *fyne.MenuItem
}

// New creates the studio window.
func New(fyneApp fyne.App, state *app.State) *Studio {
	win := fyneApp.NewWindow("Palm Studio")

	st := &Studio{
		Window: win,
		app:    fyneApp,
		state:  state,
	}

	st.setupUI()
	st.setupMenus()
	st.setupEventHandlers()

	return st
}

// setupUI creates the main layout.
func (st *Studio) setupUI() {
	st.canvas = NewLineCanvas()

	st.sidePanel = NewSidePanel(st.state, st.canvas)
	st.sidePanel.SetWindow(st.Window)

	st.statusBar = widget.NewLabel("Ready")

	toolbar := st.createToolbar()

	// Canvas area with toolbar on top
	canvasArea := container.NewBorder(
		toolbar,               // top
		nil,                   // bottom
		nil,                   // left
		nil,                   // right
		st.canvas.Container(), // center
	)

	// Main layout: side panel | canvas area
	split := container.NewHSplit(
		st.sidePanel.Container(),
		canvasArea,
	)
	split.SetOffset(0.25) // Side panel takes 25% of width

	content := container.NewBorder(
		nil,                               // top
		container.NewPadded(st.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		split,                             // center
	)

	st.SetContent(content)
}

// createToolbar creates the toolbar with zoom controls.
func (st *Studio) createToolbar() fyne.CanvasObject {
	zoomOutBtn := widget.NewButton("-", func() {
		st.onZoomOut()
	})
	zoomInBtn := widget.NewButton("+", func() {
		st.onZoomIn()
	})
	fitBtn := widget.NewButton("Fit", func() {
		st.onToggleFitToWindow()
	})
	actualBtn := widget.NewButton("1:1", func() {
		st.onActualSize()
	})

	return container.NewHBox(
		widget.NewLabel("Zoom:"),
		zoomOutBtn,
		zoomInBtn,
		fitBtn,
		actualBtn,
	)
}

// setupMenus creates the application menus.
func (st *Studio) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Analysis...", st.onOpenAnalysis),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Open Photo...", st.onOpenPhoto),
		fyne.NewMenuItem("Open Photo + Landmark File...", st.onOpenPhotoWithLandmarks),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Correction", st.onSaveCorrection),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { st.app.Quit() }),
	)

	st.fitToWindowItem = fyne.NewMenuItem("  Fit to Window", st.onToggleFitToWindow)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", st.onZoomIn),
		fyne.NewMenuItem("Zoom Out", st.onZoomOut),
		st.fitToWindowItem,
		fyne.NewMenuItem("Actual Size", st.onActualSize),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", st.onAbout),
	)

	mainMenu := fyne.NewMainMenu(fileMenu, viewMenu, helpMenu)
	st.SetMainMenu(mainMenu)
}

// setupEventHandlers registers for state events.
func (st *Studio) setupEventHandlers() {
	st.state.On(app.EventAnalysisLoaded, func(data interface{}) {
		rec := st.state.Analysis
		st.canvas.SetPhoto(st.state.Clean)
		st.canvas.SetLines(st.state.Lines)
		st.canvas.SetRegion(rec.Region)
		st.canvas.SetFitToWindow(true)
		st.fitToWindowItem.Label = "✓ Fit to Window"

		st.SetTitle("Palm Studio - " + shortID(rec.ID))
		st.updateStatus("Analysis loaded: " + rec.ID)
	})

	st.state.On(app.EventLinesChanged, func(data interface{}) {
		st.canvas.SetLines(st.state.Lines)
	})

	st.state.On(app.EventModified, func(data interface{}) {
		if modified, ok := data.(bool); ok && modified {
			title := st.Title()
			if len(title) > 0 && title[len(title)-1] != '*' {
				st.SetTitle(title + " *")
			}
		}
	})

	st.state.On(app.EventCorrectionSaved, func(data interface{}) {
		st.SetTitle("Palm Studio - " + shortID(st.state.Analysis.ID))
		st.updateStatus("Correction saved")
	})
}

// updateStatus updates the status bar text.
func (st *Studio) updateStatus(text string) {
	st.statusBar.SetText(text)
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (st *Studio) getLastDir() fyne.ListableURI {
	path := st.app.Preferences().String(prefKeyLastDir)
	if path == "" {
		return nil
	}
	uri := storage.NewFileURI(path)
	listable, err := storage.ListerForURI(uri)
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (st *Studio) saveLastDir(filePath string) {
	dir := filepath.Dir(filePath)
	st.app.Preferences().SetString(prefKeyLastDir, dir)
}

// Menu action handlers

func (st *Studio) onOpenAnalysis() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		st.saveLastDir(path)

		// Records are stored as <id>.json under the analyses directory
		id := strings.TrimSuffix(filepath.Base(path), ".json")
		if err := st.state.OpenAnalysis(id); err != nil {
			dialog.ShowError(err, st.Window)
		}
	}, st.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	if loc := st.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (st *Studio) onOpenPhoto() {
	st.pickPhoto(func(photoPath string) {
		st.detectAndOpen(photoPath, "")
	})
}

func (st *Studio) onOpenPhotoWithLandmarks() {
	st.pickPhoto(func(photoPath string) {
		fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
			if err != nil || reader == nil {
				return
			}
			reader.Close()
			st.detectAndOpen(photoPath, reader.URI().Path())
		}, st.Window)
		fd.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
		if loc := st.getLastDir(); loc != nil {
			fd.SetLocation(loc)
		}
		fd.Show()
	})
}

// pickPhoto shows an image open dialog and hands the chosen path on.
func (st *Studio) pickPhoto(then func(path string)) {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		st.saveLastDir(path)
		then(path)
	}, st.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".bmp"}))
	if loc := st.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// detectAndOpen runs detection in the background so the landmark service
// round trip does not block the UI.
func (st *Studio) detectAndOpen(photoPath, landmarkPath string) {
	st.updateStatus("Detecting palm...")
	go func() {
		if err := st.state.OpenPhoto(photoPath, landmarkPath); err != nil {
			st.updateStatus("Detection failed")
			dialog.ShowError(err, st.Window)
		}
	}()
}

func (st *Studio) onSaveCorrection() {
	if st.state.Analysis == nil {
		st.updateStatus("Nothing to save")
		return
	}
	go func() {
		if err := st.state.SaveCorrection(); err != nil {
			dialog.ShowError(err, st.Window)
		}
	}()
}

func (st *Studio) onZoomIn() {
	st.disableFitToWindow()
	st.canvas.ZoomIn()
}

func (st *Studio) onZoomOut() {
	st.disableFitToWindow()
	st.canvas.ZoomOut()
}

func (st *Studio) onToggleFitToWindow() {
	enabled := !st.canvas.GetFitToWindow()
	st.canvas.SetFitToWindow(enabled)

	if enabled {
		st.fitToWindowItem.Label = "✓ Fit to Window"
	} else {
		st.fitToWindowItem.Label = "  Fit to Window"
	}
}

func (st *Studio) onActualSize() {
	st.disableFitToWindow()
	st.canvas.SetZoom(1.0)
}

func (st *Studio) disableFitToWindow() {
	if st.canvas.GetFitToWindow() {
		st.canvas.SetFitToWindow(false)
		st.fitToWindowItem.Label = "  Fit to Window"
	}
}

func (st *Studio) onAbout() {
	dialog.ShowInformation("About Palm Studio",
		fmt.Sprintf("Palm Studio v%s\n\n"+
			"Review and correction tool for palm line extraction.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		st.Window)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
