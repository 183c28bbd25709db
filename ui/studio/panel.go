package studio

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"palm-reader/internal/app"
	"palm-reader/internal/overlay"
	"palm-reader/internal/pipeline"
	"palm-reader/pkg/geometry"
)

// SidePanel holds the editing controls next to the canvas.
type SidePanel struct {
	state  *app.State
	canvas *LineCanvas
	window fyne.Window

	container *fyne.Container

	// Analysis card
	idLabel   *widget.Label
	handLabel *widget.Label
	sizeLabel *widget.Label

	// Lines card
	categoryRadio *widget.RadioGroup
	scoreLabels   map[pipeline.Category]*widget.Label
	drawCheck     *widget.Check
	appendCheck   *widget.Check
	clearBtn      *widget.Button

	// Reading card
	readingBtn   *widget.Button
	sourceLabel  *widget.Label
	readingLabel *widget.Label

	saveBtn *widget.Button
}

// NewSidePanel creates the side panel and wires it to the state and the
// canvas.
func NewSidePanel(state *app.State, canvas *LineCanvas) *SidePanel {
	p := &SidePanel{
		state:       state,
		canvas:      canvas,
		scoreLabels: make(map[pipeline.Category]*widget.Label),
	}

	p.buildUI()
	p.wireCanvas()

	state.On(app.EventAnalysisLoaded, func(data interface{}) {
		p.refreshInfo()
		p.updateScores()
		p.sourceLabel.SetText("")
		p.readingLabel.SetText("")
	})
	state.On(app.EventLinesChanged, func(data interface{}) {
		p.updateScores()
	})
	state.On(app.EventCorrectionSaved, func(data interface{}) {
		p.refreshInfo()
		p.updateScores()
	})

	return p
}

// SetWindow sets the parent window for dialogs.
func (p *SidePanel) SetWindow(win fyne.Window) {
	p.window = win
}

// Container returns the panel container for embedding in layouts.
func (p *SidePanel) Container() fyne.CanvasObject {
	return container.NewVScroll(p.container)
}

func (p *SidePanel) buildUI() {
	// Analysis info
	p.idLabel = widget.NewLabel("No analysis loaded")
	p.handLabel = widget.NewLabel("")
	p.sizeLabel = widget.NewLabel("")

	analysisCard := widget.NewCard("Analysis", "", container.NewVBox(
		p.idLabel,
		p.handLabel,
		p.sizeLabel,
	))

	// Line selection and editing
	names := make([]string, 0, 3)
	for _, cat := range pipeline.Categories() {
		names = append(names, cat.String())
	}
	p.categoryRadio = widget.NewRadioGroup(names, func(selected string) {
		cat, err := pipeline.ParseCategory(selected)
		if err != nil {
			return
		}
		p.canvas.SetActiveCategory(cat)
	})
	p.categoryRadio.Horizontal = true
	p.categoryRadio.SetSelected(pipeline.Life.String())

	scoreBox := container.NewVBox()
	for _, cat := range pipeline.Categories() {
		label := widget.NewLabel(fmt.Sprintf("%-6s -", cat.String()))
		label.TextStyle = fyne.TextStyle{Monospace: true}
		p.scoreLabels[cat] = label
		scoreBox.Add(label)
	}

	p.drawCheck = widget.NewCheck("Draw strokes", func(checked bool) {
		p.canvas.SetDrawMode(checked)
	})
	p.appendCheck = widget.NewCheck("Append to existing segments", nil)

	p.clearBtn = widget.NewButton("Clear Line", func() {
		p.state.ClearLine(p.canvas.ActiveCategory())
	})

	linesCard := widget.NewCard("Lines", "", container.NewVBox(
		p.categoryRadio,
		scoreBox,
		p.drawCheck,
		p.appendCheck,
		p.clearBtn,
	))

	// Reading
	p.sourceLabel = widget.NewLabel("")
	p.readingLabel = widget.NewLabel("")
	p.readingLabel.Wrapping = fyne.TextWrapWord
	p.readingBtn = widget.NewButton("Generate Reading", func() {
		p.generateReading()
	})

	readingCard := widget.NewCard("Reading", "", container.NewVBox(
		p.readingBtn,
		p.sourceLabel,
		p.readingLabel,
	))

	p.saveBtn = widget.NewButton("Save Correction", func() {
		p.saveCorrection()
	})

	p.container = container.NewVBox(
		analysisCard,
		linesCard,
		readingCard,
		p.saveBtn,
	)
}

// wireCanvas routes finished strokes into the working line set.
func (p *SidePanel) wireCanvas() {
	p.canvas.OnStroke(func(points []geometry.PointInt) {
		stroke := overlay.Simplify(points, overlay.ExportEpsilon)
		if len(stroke) < 2 {
			return
		}

		cat := p.canvas.ActiveCategory()
		if p.appendCheck.Checked {
			p.state.AppendSegment(cat, stroke)
		} else {
			p.state.ReplaceLine(cat, [][]geometry.PointInt{stroke})
		}
	})
}

func (p *SidePanel) refreshInfo() {
	rec := p.state.Analysis
	if rec == nil {
		p.idLabel.SetText("No analysis loaded")
		p.handLabel.SetText("")
		p.sizeLabel.SetText("")
		return
	}

	id := rec.ID
	if len(id) > 8 {
		id = id[:8]
	}
	if rec.Corrected {
		p.idLabel.SetText(fmt.Sprintf("ID: %s (corrected)", id))
	} else {
		p.idLabel.SetText("ID: " + id)
	}
	p.handLabel.SetText(fmt.Sprintf("Hand: %s (%.2f)", rec.Hand.Label, rec.Hand.Score))
	p.sizeLabel.SetText(fmt.Sprintf("Image: %dx%d", rec.Width, rec.Height))
}

func (p *SidePanel) updateScores() {
	for _, cat := range pipeline.Categories() {
		label := p.scoreLabels[cat]
		if p.state.Analysis == nil {
			label.SetText(fmt.Sprintf("%-6s -", cat.String()))
			continue
		}

		segments := p.state.Lines[cat]
		points := 0
		for _, seg := range segments {
			points += len(seg)
		}
		if points == 0 {
			label.SetText(fmt.Sprintf("%-6s not drawn", cat.String()))
			continue
		}
		label.SetText(fmt.Sprintf("%-6s %.2f (%d pts)", cat.String(), p.state.LineScore(cat), points))
	}
}

func (p *SidePanel) generateReading() {
	p.readingBtn.Disable()
	go func() {
		defer p.readingBtn.Enable()

		report, source, err := p.state.Reading()
		if err != nil {
			dialog.ShowError(err, p.window)
			return
		}

		p.sourceLabel.SetText("Source: " + string(source))
		text := ""
		for _, cat := range pipeline.Categories() {
			line := report[cat]
			text += fmt.Sprintf("%s: %s; %s\n", cat.String(), line.Feature, line.Reading)
		}
		p.readingLabel.SetText(text)
	}()
}

func (p *SidePanel) saveCorrection() {
	if p.state.Analysis == nil {
		return
	}

	p.saveBtn.Disable()
	go func() {
		defer p.saveBtn.Enable()

		if err := p.state.SaveCorrection(); err != nil {
			dialog.ShowError(err, p.window)
		}
	}()
}
