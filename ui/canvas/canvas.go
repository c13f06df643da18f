// Package canvas provides the interactive image canvas: it adapts the UI
// toolkit's pointer events into the gesture recognizer and paints the
// photograph with the calibration overlay on top.
package canvas

import (
	"image"
	"image/color"

	"offside-checker/internal/app"
	"offside-checker/internal/gesture"
	"offside-checker/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"
)

const (
	mousePointerID = 0
	touchPointerID = 1
)

// ImageCanvas displays the loaded photograph under the calibration overlay
// and routes all pointer input through the gesture recognizer.
type ImageCanvas struct {
	widget.BaseWidget

	state      *app.State
	recognizer *gesture.Recognizer
	raster     *fynecanvas.Raster
}

var (
	_ desktop.Mouseable = (*ImageCanvas)(nil)
	_ desktop.Hoverable = (*ImageCanvas)(nil)
	_ fyne.Scrollable   = (*ImageCanvas)(nil)
	_ mobile.Touchable  = (*ImageCanvas)(nil)
)

// New creates the canvas bound to the application state.
func New(state *app.State) *ImageCanvas {
	ic := &ImageCanvas{state: state}
	ic.recognizer = gesture.New(state, state, state.View(), state.NotifyViewChanged)

	ic.raster = fynecanvas.NewRaster(ic.draw)
	ic.raster.ScaleMode = fynecanvas.ImageScalePixels

	for _, event := range []app.EventType{
		app.EventImageLoaded,
		app.EventModeChanged,
		app.EventCalibrationChanged,
		app.EventRaysChanged,
		app.EventViewChanged,
		app.EventDragChanged,
		app.EventHoverChanged,
	} {
		state.AddListener(event, ic.Refresh)
	}

	ic.ExtendBaseWidget(ic)
	return ic
}

// Refresh repaints the canvas.
func (ic *ImageCanvas) Refresh() {
	ic.raster.Refresh()
}

func eventPoint(pos fyne.Position) geometry.Point2D {
	return geometry.NewPoint2D(float64(pos.X), float64(pos.Y))
}

// MouseDown implements desktop.Mouseable.
func (ic *ImageCanvas) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	ic.state.SetHover(nil)
	ic.recognizer.PointerDown(mousePointerID, eventPoint(ev.Position))
}

// MouseUp implements desktop.Mouseable.
func (ic *ImageCanvas) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	ic.recognizer.PointerUp(mousePointerID, eventPoint(ev.Position))
}

// MouseIn implements desktop.Hoverable.
func (ic *ImageCanvas) MouseIn(ev *desktop.MouseEvent) {
	ic.MouseMoved(ev)
}

// MouseMoved feeds in-gesture movement to the recognizer, and otherwise
// maintains the ray hover preview.
func (ic *ImageCanvas) MouseMoved(ev *desktop.MouseEvent) {
	pos := eventPoint(ev.Position)
	if ic.recognizer.Active() {
		ic.recognizer.PointerMove(mousePointerID, pos)
		return
	}
	if ic.state.Mode() == app.ModeRayDrawing {
		imagePt := ic.state.View().ScreenToImage(pos)
		ic.state.SetHover(&imagePt)
	}
}

// MouseOut cancels any in-progress gesture; leaving the canvas must never
// leave a drag stuck half-done.
func (ic *ImageCanvas) MouseOut() {
	ic.recognizer.PointerCancel(mousePointerID)
	ic.state.SetHover(nil)
}

// Scrolled implements wheel zoom anchored at the cursor.
func (ic *ImageCanvas) Scrolled(ev *fyne.ScrollEvent) {
	ic.recognizer.Wheel(eventPoint(ev.Position), float64(ev.Scrolled.DY))
}

// TouchDown implements mobile.Touchable.
func (ic *ImageCanvas) TouchDown(ev *mobile.TouchEvent) {
	ic.state.SetHover(nil)
	ic.recognizer.PointerDown(touchPointerID, eventPoint(ev.Position))
}

// TouchUp implements mobile.Touchable.
func (ic *ImageCanvas) TouchUp(ev *mobile.TouchEvent) {
	ic.recognizer.PointerUp(touchPointerID, eventPoint(ev.Position))
}

// TouchCancel implements mobile.Touchable.
func (ic *ImageCanvas) TouchCancel(ev *mobile.TouchEvent) {
	ic.recognizer.PointerCancel(touchPointerID)
}

// CreateRenderer implements fyne.Widget.
func (ic *ImageCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &imageCanvasRenderer{canvas: ic}
}

type imageCanvasRenderer struct {
	canvas *ImageCanvas
}

func (r *imageCanvasRenderer) Layout(size fyne.Size) {
	r.canvas.raster.Resize(size)
	r.canvas.state.View().SetCanvasSize(float64(size.Width), float64(size.Height))
}

func (r *imageCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

func (r *imageCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *imageCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.raster}
}

func (r *imageCanvasRenderer) Destroy() {}

// draw is the raster drawing function. w and h are device pixels; event
// coordinates are device-independent, so the ratio between them is the DPR
// applied to the overlay pass.
func (ic *ImageCanvas) draw(w, h int) image.Image {
	output := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(output.Pix); i += 4 {
		output.Pix[i] = 255
	}

	size := ic.Size()
	dpr := 1.0
	if size.Width > 0 {
		dpr = float64(w) / float64(size.Width)
	}
	ic.state.SetDevicePixelRatio(dpr)

	layer := ic.state.Image()
	if layer == nil || layer.Image == nil {
		return output
	}

	frame := ic.state.Frame()
	ic.compositeImage(output, layer.Image, frame, dpr)
	ic.drawOverlay(output, frame, dpr)
	return output
}

// compositeImage paints the photograph through the inverse effective
// transform, nearest-neighbor.
func (ic *ImageCanvas) compositeImage(output *image.RGBA, src image.Image, frame app.Frame, dpr float64) {
	bounds := output.Bounds()
	srcBounds := src.Bounds()

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			// Device pixel -> screen point -> image point.
			imgX := (float64(x)/dpr - frame.EffOffset.X) / frame.EffScale
			imgY := (float64(y)/dpr - frame.EffOffset.Y) / frame.EffScale

			srcX := srcBounds.Min.X + int(imgX)
			srcY := srcBounds.Min.Y + int(imgY)
			if imgX < 0 || imgY < 0 || srcX < srcBounds.Min.X || srcX >= srcBounds.Max.X ||
				srcY < srcBounds.Min.Y || srcY >= srcBounds.Max.Y {
				continue
			}
			output.Set(x, y, src.At(srcX, srcY))
		}
	}
}

// toDevice maps an image-space point to output device pixels.
func toDevice(p geometry.Point2D, frame app.Frame, dpr float64) (int, int) {
	screen := geometry.ImageToScreen(p, frame.EffScale, frame.EffOffset)
	return int(screen.X * dpr), int(screen.Y * dpr)
}

func scaleColor(c color.RGBA, alpha float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * alpha),
		G: uint8(float64(c.G) * alpha),
		B: uint8(float64(c.B) * alpha),
		A: 255,
	}
}
