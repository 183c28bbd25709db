// Package studio provides the desktop UI for reviewing and hand
// correcting palm line extractions.
package studio

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"palm-reader/internal/pipeline"
	"palm-reader/pkg/colorutil"
	"palm-reader/pkg/geometry"
)

const (
	minZoom  = 0.1
	maxZoom  = 10.0
	zoomStep = 1.25
)

// LineCanvas displays the palm photo with the line overlay and supports
// pan, zoom and drawing replacement strokes.
type LineCanvas struct {
	widget.BaseWidget

	// Scene
	photo  image.Image
	lines  map[pipeline.Category][][]geometry.PointInt
	region geometry.RectInt
	active pipeline.Category

	// Display state
	raster *fynecanvas.Raster
	zoom   float64

	// Stroke being drawn, in image coordinates
	drawMode bool
	drawing  bool
	stroke   []geometry.PointInt

	// Container
	scroll  *zoomScroll
	content *drawableContent
	imgSize fyne.Size

	// Fit to window
	fitToWindow    bool
	lastScrollSize fyne.Size

	// Callbacks
	onZoomChange func(zoom float64)
	onStroke     func(points []geometry.PointInt)
}

// zoomScroll wraps a scroll container but intercepts the wheel for zoom.
type zoomScroll struct {
	widget.BaseWidget
	scroll *container.Scroll
	canvas *LineCanvas
}

func newZoomScroll(content fyne.CanvasObject, canvas *LineCanvas) *zoomScroll {
	scroll := container.NewScroll(content)
	scroll.Direction = container.ScrollBoth
	zs := &zoomScroll{scroll: scroll, canvas: canvas}
	zs.ExtendBaseWidget(zs)
	return zs
}

func (zs *zoomScroll) Scrolled(ev *fyne.ScrollEvent) {
	// Wheel zooms, scrollbars pan
	if ev.Scrolled.DY > 0 {
		zs.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		zs.canvas.ZoomOut()
	}
}

func (zs *zoomScroll) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(zs.scroll)
}

// Offset returns the scroll container's current offset.
func (zs *zoomScroll) Offset() fyne.Position {
	return zs.scroll.Offset
}

// Size returns the scroll container's size.
func (zs *zoomScroll) Size() fyne.Size {
	return zs.scroll.Size()
}

// Refresh refreshes the scroll container.
func (zs *zoomScroll) Refresh() {
	zs.scroll.Refresh()
	zs.BaseWidget.Refresh()
}

// Resize sets the size of the scroll container.
func (zs *zoomScroll) Resize(size fyne.Size) {
	zs.scroll.Resize(size)
	zs.BaseWidget.Resize(size)
}

// drawableContent wraps the raster to handle mouse events.
type drawableContent struct {
	widget.BaseWidget
	canvas *LineCanvas
	raster *fynecanvas.Raster
}

func newDrawableContent(lc *LineCanvas, raster *fynecanvas.Raster) *drawableContent {
	dc := &drawableContent{
		canvas: lc,
		raster: raster,
	}
	dc.ExtendBaseWidget(dc)
	return dc
}

func (dc *drawableContent) CreateRenderer() fyne.WidgetRenderer {
	return &drawableContentRenderer{content: dc}
}

func (dc *drawableContent) MinSize() fyne.Size {
	return dc.raster.MinSize()
}

func (dc *drawableContent) Dragged(ev *fyne.DragEvent) {
	if !dc.canvas.drawMode {
		return
	}

	// ev.Position is relative to the viewport, add the scroll offset
	// for the content position
	scrollOffset := dc.canvas.scroll.Offset()
	imgX, imgY := dc.canvas.CanvasToImage(
		float64(ev.Position.X+scrollOffset.X),
		float64(ev.Position.Y+scrollOffset.Y),
	)
	p := geometry.PointInt{X: int(imgX), Y: int(imgY)}

	if !dc.canvas.drawing {
		dc.canvas.drawing = true
		dc.canvas.stroke = dc.canvas.stroke[:0]
	}

	// Slow drags report the same pixel repeatedly
	if n := len(dc.canvas.stroke); n > 0 && dc.canvas.stroke[n-1] == p {
		return
	}

	dc.canvas.stroke = append(dc.canvas.stroke, p)
	dc.canvas.Refresh()
}

func (dc *drawableContent) DragEnd() {
	if !dc.canvas.drawMode || !dc.canvas.drawing {
		return
	}

	dc.canvas.drawing = false
	stroke := append([]geometry.PointInt(nil), dc.canvas.stroke...)
	dc.canvas.stroke = dc.canvas.stroke[:0]
	dc.canvas.Refresh()

	// Single-point strokes are accidental clicks
	if dc.canvas.onStroke != nil && len(stroke) >= 2 {
		dc.canvas.onStroke(stroke)
	}
}

func (dc *drawableContent) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		dc.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		dc.canvas.ZoomOut()
	}
}

type drawableContentRenderer struct {
	content *drawableContent
}

func (r *drawableContentRenderer) Layout(size fyne.Size) {
	r.content.raster.Resize(size)
}

func (r *drawableContentRenderer) MinSize() fyne.Size {
	return r.content.raster.MinSize()
}

func (r *drawableContentRenderer) Refresh() {
	r.content.raster.Refresh()
}

func (r *drawableContentRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.content.raster}
}

func (r *drawableContentRenderer) Destroy() {}

// NewLineCanvas creates a new line canvas.
func NewLineCanvas() *LineCanvas {
	lc := &LineCanvas{
		zoom:    1.0,
		active:  pipeline.Life,
		imgSize: fyne.NewSize(400, 300),
	}

	lc.raster = fynecanvas.NewRaster(lc.draw)
	lc.raster.ScaleMode = fynecanvas.ImageScalePixels
	lc.raster.SetMinSize(lc.imgSize)

	lc.content = newDrawableContent(lc, lc.raster)

	// Wheel = zoom, scrollbars = pan
	lc.scroll = newZoomScroll(lc.content, lc)

	lc.ExtendBaseWidget(lc)
	return lc
}

// Container returns the canvas container for embedding in layouts.
func (lc *LineCanvas) Container() fyne.CanvasObject {
	return lc.scroll
}

// SetPhoto sets the photo to display.
func (lc *LineCanvas) SetPhoto(img image.Image) {
	lc.photo = img
	lc.updateContentSize()
}

// SetLines sets the line segments to overlay, in image coordinates.
func (lc *LineCanvas) SetLines(lines map[pipeline.Category][][]geometry.PointInt) {
	lc.lines = lines
	lc.Refresh()
}

// SetRegion sets the palm box to outline.
func (lc *LineCanvas) SetRegion(region geometry.RectInt) {
	lc.region = region
	lc.Refresh()
}

// SetActiveCategory highlights one category and directs strokes to it.
func (lc *LineCanvas) SetActiveCategory(cat pipeline.Category) {
	lc.active = cat
	lc.Refresh()
}

// ActiveCategory returns the highlighted category.
func (lc *LineCanvas) ActiveCategory() pipeline.Category {
	return lc.active
}

// SetDrawMode toggles stroke drawing. While enabled, drags draw instead
// of panning.
func (lc *LineCanvas) SetDrawMode(enabled bool) {
	lc.drawMode = enabled
	if !enabled {
		lc.drawing = false
		lc.stroke = lc.stroke[:0]
		lc.Refresh()
	}
}

// DrawMode reports whether stroke drawing is enabled.
func (lc *LineCanvas) DrawMode() bool {
	return lc.drawMode
}

// SetZoom sets the zoom level.
func (lc *LineCanvas) SetZoom(zoom float64) {
	if zoom < minZoom {
		zoom = minZoom
	}
	if zoom > maxZoom {
		zoom = maxZoom
	}
	lc.zoom = zoom
	lc.updateContentSize()

	if lc.onZoomChange != nil {
		lc.onZoomChange(zoom)
	}
}

// GetZoom returns the current zoom level.
func (lc *LineCanvas) GetZoom() float64 {
	return lc.zoom
}

// ZoomIn increases the zoom level.
func (lc *LineCanvas) ZoomIn() {
	lc.SetZoom(lc.zoom * zoomStep)
}

// ZoomOut decreases the zoom level.
func (lc *LineCanvas) ZoomOut() {
	lc.SetZoom(lc.zoom / zoomStep)
}

// FitToWindow adjusts zoom to fit the photo in the visible area.
func (lc *LineCanvas) FitToWindow() {
	bounds := lc.photoBounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return
	}

	viewSize := lc.scroll.Size()
	if viewSize.Width <= 0 || viewSize.Height <= 0 {
		return
	}

	zoomX := float64(viewSize.Width) / float64(bounds.Dx())
	zoomY := float64(viewSize.Height) / float64(bounds.Dy())

	zoom := zoomX
	if zoomY < zoomX {
		zoom = zoomY
	}

	lc.SetZoom(zoom * 0.95) // Leave a small margin
}

// SetFitToWindow enables or disables auto-fit on resize.
func (lc *LineCanvas) SetFitToWindow(fit bool) {
	lc.fitToWindow = fit
	if fit {
		lc.FitToWindow()
	}
}

// GetFitToWindow returns the current fit-to-window state.
func (lc *LineCanvas) GetFitToWindow() bool {
	return lc.fitToWindow
}

// CheckResize checks if the scroll container was resized and auto-fits
// if enabled.
func (lc *LineCanvas) CheckResize(size fyne.Size) {
	if !lc.fitToWindow {
		return
	}
	if size.Width > 0 && size.Height > 0 && size != lc.lastScrollSize {
		lc.lastScrollSize = size
		lc.FitToWindow()
	}
}

// OnZoomChange sets a callback for zoom changes.
func (lc *LineCanvas) OnZoomChange(callback func(zoom float64)) {
	lc.onZoomChange = callback
}

// OnStroke sets a callback for completed strokes. Points are in image
// coordinates.
func (lc *LineCanvas) OnStroke(callback func(points []geometry.PointInt)) {
	lc.onStroke = callback
}

// ImageToCanvas converts image coordinates to canvas coordinates.
func (lc *LineCanvas) ImageToCanvas(imgX, imgY float64) (canvasX, canvasY float64) {
	canvasX = imgX * lc.zoom
	canvasY = imgY * lc.zoom
	return
}

// CanvasToImage converts canvas coordinates to image coordinates.
func (lc *LineCanvas) CanvasToImage(canvasX, canvasY float64) (imgX, imgY float64) {
	imgX = canvasX / lc.zoom
	imgY = canvasY / lc.zoom
	return
}

// Refresh refreshes the canvas display.
func (lc *LineCanvas) Refresh() {
	lc.raster.Refresh()
}

func (lc *LineCanvas) photoBounds() image.Rectangle {
	if lc.photo == nil {
		return image.Rect(0, 0, 0, 0)
	}
	b := lc.photo.Bounds()
	return image.Rect(0, 0, b.Dx(), b.Dy())
}

// updateContentSize updates the content size based on photo and zoom.
func (lc *LineCanvas) updateContentSize() {
	bounds := lc.photoBounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		lc.imgSize = fyne.NewSize(400, 300)
	} else {
		width := float32(float64(bounds.Dx()) * lc.zoom)
		height := float32(float64(bounds.Dy()) * lc.zoom)
		lc.imgSize = fyne.NewSize(width, height)
	}

	lc.raster.SetMinSize(lc.imgSize)
	lc.raster.Resize(lc.imgSize)
	if lc.content != nil {
		lc.content.Resize(lc.imgSize)
		lc.content.Refresh()
	}
	lc.raster.Refresh()
	if lc.scroll != nil {
		lc.scroll.Refresh()
	}
}

// draw is the raster drawing function.
func (lc *LineCanvas) draw(w, h int) image.Image {
	// Check for size change and auto-fit if enabled
	currentSize := fyne.NewSize(float32(w), float32(h))
	if lc.fitToWindow && currentSize != lc.lastScrollSize && w > 0 && h > 0 {
		lc.lastScrollSize = currentSize
		// Schedule fit after this draw completes
		go func() {
			lc.FitToWindow()
		}()
	}

	output := image.NewRGBA(image.Rect(0, 0, w, h))

	// Fill with black background (set alpha channel)
	for i := 3; i < len(output.Pix); i += 4 {
		output.Pix[i] = 255
	}

	if lc.photo != nil {
		lc.compositePhoto(output, w, h)
	}

	if lc.region.Width > 0 && lc.region.Height > 0 {
		lc.drawBox(output, lc.region, colorutil.Yellow)
	}

	for _, cat := range pipeline.Categories() {
		thickness := 2
		if cat == lc.active {
			thickness = 4
		}
		for _, segment := range lc.lines[cat] {
			lc.drawPolyline(output, segment, cat.Color(), thickness)
			if cat == lc.active {
				for _, p := range segment {
					lc.drawVertex(output, p, colorutil.White)
				}
			}
		}
	}

	// Stroke in progress on top of everything
	if len(lc.stroke) >= 2 {
		lc.drawPolyline(output, lc.stroke, lc.active.Color(), 5)
	}

	return output
}

// compositePhoto draws the photo scaled by the current zoom.
func (lc *LineCanvas) compositePhoto(output *image.RGBA, w, h int) {
	src := lc.photo
	srcBounds := src.Bounds()

	for y := 0; y < h; y++ {
		srcY := int(float64(y)/lc.zoom) + srcBounds.Min.Y
		if srcY >= srcBounds.Max.Y {
			break
		}
		for x := 0; x < w; x++ {
			srcX := int(float64(x)/lc.zoom) + srcBounds.Min.X
			if srcX >= srcBounds.Max.X {
				break
			}
			output.Set(x, y, src.At(srcX, srcY))
		}
	}
}

// drawPolyline draws connected segments between consecutive points,
// scaling image coordinates by the current zoom.
func (lc *LineCanvas) drawPolyline(output *image.RGBA, points []geometry.PointInt, col color.RGBA, thickness int) {
	for i := 1; i < len(points); i++ {
		x1 := int(float64(points[i-1].X) * lc.zoom)
		y1 := int(float64(points[i-1].Y) * lc.zoom)
		x2 := int(float64(points[i].X) * lc.zoom)
		y2 := int(float64(points[i].Y) * lc.zoom)
		lc.drawLine(output, x1, y1, x2, y2, col, thickness)
	}
}

// drawBox outlines a rectangle given in image coordinates.
func (lc *LineCanvas) drawBox(output *image.RGBA, r geometry.RectInt, col color.RGBA) {
	x1 := int(float64(r.X) * lc.zoom)
	y1 := int(float64(r.Y) * lc.zoom)
	x2 := int(float64(r.X+r.Width) * lc.zoom)
	y2 := int(float64(r.Y+r.Height) * lc.zoom)

	lc.drawLine(output, x1, y1, x2, y1, col, 1)
	lc.drawLine(output, x2, y1, x2, y2, col, 1)
	lc.drawLine(output, x2, y2, x1, y2, col, 1)
	lc.drawLine(output, x1, y2, x1, y1, col, 1)
}

// drawVertex marks a polyline vertex with a small filled square.
func (lc *LineCanvas) drawVertex(output *image.RGBA, p geometry.PointInt, col color.RGBA) {
	bounds := output.Bounds()
	cx := int(float64(p.X) * lc.zoom)
	cy := int(float64(p.Y) * lc.zoom)

	for dy := -2; dy <= 2; dy++ {
		for dx := -2; dx <= 2; dx++ {
			px, py := cx+dx, cy+dy
			if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
				output.Set(px, py, col)
			}
		}
	}
}

// drawLine draws a line between two points using Bresenham's algorithm.
func (lc *LineCanvas) drawLine(output *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness int) {
	bounds := output.Bounds()

	dx := x2 - x1
	dy := y2 - y1
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy

	for {
		// Draw thick point
		for t := -thickness / 2; t <= thickness/2; t++ {
			for s := -thickness / 2; s <= thickness/2; s++ {
				px, py := x1+s, y1+t
				if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
					output.Set(px, py, col)
				}
			}
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// CreateRenderer implements fyne.Widget.
func (lc *LineCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &lineCanvasRenderer{canvas: lc}
}

type lineCanvasRenderer struct {
	canvas *LineCanvas
}

func (r *lineCanvasRenderer) Layout(size fyne.Size) {
	if r.canvas.scroll != nil {
		r.canvas.scroll.Resize(size)
	} else if r.canvas.content != nil {
		r.canvas.content.Resize(size)
	}
	r.canvas.CheckResize(size)
}

func (r *lineCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

func (r *lineCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *lineCanvasRenderer) Objects() []fyne.CanvasObject {
	if r.canvas.scroll != nil {
		return []fyne.CanvasObject{r.canvas.scroll}
	}
	return []fyne.CanvasObject{r.canvas.content}
}

func (r *lineCanvasRenderer) Destroy() {}
