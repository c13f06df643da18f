// Package app provides application lifecycle management and the canonical
// data model: calibration points, the vanishing point, offside rays, and
// the interaction mode.
package app

import (
	"fmt"
	"image/color"
	"sync"

	"offside-checker/internal/gesture"
	"offside-checker/internal/image"
	"offside-checker/internal/view"
	"offside-checker/pkg/colorutil"
	"offside-checker/pkg/geometry"
)

// Mode identifies the current interaction mode.
type Mode int

const (
	// ModeUploading means no image is loaded yet.
	ModeUploading Mode = iota
	// ModeCalibrating collects up to four calibration points.
	ModeCalibrating
	// ModeRayDrawing places offside rays through the vanishing point.
	ModeRayDrawing
)

func (m Mode) String() string {
	switch m {
	case ModeCalibrating:
		return "Calibrating"
	case ModeRayDrawing:
		return "Drawing rays"
	default:
		return "Waiting for image"
	}
}

// maxCalibrationPoints is the full calibration: two points per reference
// line, two lines. A further add is a silent no-op.
const maxCalibrationPoints = 4

// Calibration holds the user-placed reference points. The point sequence is
// the single source of truth; the two lines are derived, never stored.
type Calibration struct {
	Points []geometry.Point2D `json:"points"`
}

// Line1 returns the line through points 0 and 1, if both exist.
func (c Calibration) Line1() (geometry.Line, bool) {
	if len(c.Points) < 2 {
		return geometry.Line{}, false
	}
	return geometry.NewLine(c.Points[0], c.Points[1]), true
}

// Line2 returns the line through points 2 and 3, if both exist.
func (c Calibration) Line2() (geometry.Line, bool) {
	if len(c.Points) < maxCalibrationPoints {
		return geometry.Line{}, false
	}
	return geometry.NewLine(c.Points[2], c.Points[3]), true
}

// OffsideRay is a user-placed ray through the vanishing point. The through
// point is its only free parameter; the drawn line is the vanishing point
// to the through point, extended to the viewport.
type OffsideRay struct {
	ID      string
	Through geometry.Point2D
	Color   color.RGBA
}

// EventType identifies different application events.
type EventType int

const (
	EventImageLoaded EventType = iota
	EventModeChanged
	EventCalibrationChanged
	EventRaysChanged
	EventViewChanged
	EventDragChanged
	EventHoverChanged
)

// EventListener is called when an event fires.
type EventListener func()

// State holds the application state: the loaded image, the view transform,
// the calibration model, and the ray collection. All gesture and geometry
// work runs synchronously inside the UI event that triggered it; the mutex
// only guards listener registration against state reads from draw callbacks.
type State struct {
	mu sync.RWMutex

	mode          Mode
	calibration   Calibration
	vanishing     *geometry.Point2D
	parallelError bool

	rays       []*OffsideRay
	rayCounter int

	drag  *gesture.DragState
	hover *geometry.Point2D

	layer *image.Layer
	view  *view.View
	dpr   float64

	listeners map[EventType][]EventListener
}

// NewState creates an empty application state in uploading mode.
func NewState() *State {
	return &State{
		mode:      ModeUploading,
		view:      view.New(),
		dpr:       1,
		listeners: make(map[EventType][]EventListener),
	}
}

// View returns the view transform state. The gesture recognizer and the
// zoom toolbar mutate it directly; everything else treats it as read-only.
func (s *State) View() *view.View {
	return s.view
}

// AddListener registers a listener for an event type.
func (s *State) AddListener(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// notify calls all listeners for an event. This is the explicit
// recompute-and-notify step: every intent handler ends with one or more
// notify calls, and rendering hangs off the listeners.
func (s *State) notify(event EventType) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()
	for _, l := range listeners {
		l()
	}
}

// NotifyViewChanged is invoked by the gesture recognizer after pan, pinch,
// or wheel mutate the view outside the intent path.
func (s *State) NotifyViewChanged() {
	s.notify(EventViewChanged)
}

// SetImage installs a decoded image and enters calibrating mode. Passing
// nil is a full reset back to uploading mode.
func (s *State) SetImage(layer *image.Layer) {
	s.layer = layer
	s.clearModel()
	if layer == nil {
		s.mode = ModeUploading
		s.view.SetImageSize(0, 0)
	} else {
		s.mode = ModeCalibrating
		s.view.SetImageSize(float64(layer.Width()), float64(layer.Height()))
	}
	s.notify(EventImageLoaded)
	s.notify(EventModeChanged)
	s.notify(EventCalibrationChanged)
	s.notify(EventRaysChanged)
}

// Image returns the loaded image layer, or nil.
func (s *State) Image() *image.Layer {
	return s.layer
}

// SetDevicePixelRatio records the rendering surface's DPR for the render
// contract. It never affects the image/screen transforms.
func (s *State) SetDevicePixelRatio(dpr float64) {
	if dpr > 0 {
		s.dpr = dpr
	}
}

// Mode returns the current interaction mode.
func (s *State) Mode() Mode {
	return s.mode
}

// VanishingPoint returns a copy of the vanishing point, or nil while the
// calibration lines are absent or parallel.
func (s *State) VanishingPoint() *geometry.Point2D {
	if s.vanishing == nil {
		return nil
	}
	vp := *s.vanishing
	return &vp
}

// ParallelError reports whether the last vanishing-point computation found
// the calibration lines parallel.
func (s *State) ParallelError() bool {
	return s.parallelError
}

// Calibration returns a copy of the calibration state.
func (s *State) Calibration() Calibration {
	return Calibration{Points: append([]geometry.Point2D(nil), s.calibration.Points...)}
}

// Rays returns copies of the rays in creation order.
func (s *State) Rays() []OffsideRay {
	out := make([]OffsideRay, 0, len(s.rays))
	for _, r := range s.rays {
		out = append(out, *r)
	}
	return out
}

// NextRayColor is the color the next created ray would receive.
func (s *State) NextRayColor() color.RGBA {
	return colorutil.RayColor(len(s.rays))
}

// CalibrationPoints implements gesture.Model.
func (s *State) CalibrationPoints() []geometry.Point2D {
	return append([]geometry.Point2D(nil), s.calibration.Points...)
}

// RayPoints implements gesture.Model.
func (s *State) RayPoints() []gesture.RayPoint {
	out := make([]gesture.RayPoint, 0, len(s.rays))
	for _, r := range s.rays {
		out = append(out, gesture.RayPoint{ID: r.ID, Point: r.Through})
	}
	return out
}

// AddPoint implements the add-point intent. While calibrating it appends a
// calibration point (max four; a fifth is a silent no-op) and attempts the
// vanishing point at four. While drawing rays with a vanishing point
// present it creates a new ray at the clicked point.
func (s *State) AddPoint(imagePt geometry.Point2D) {
	switch s.mode {
	case ModeCalibrating:
		if len(s.calibration.Points) >= maxCalibrationPoints {
			return
		}
		s.calibration.Points = append(s.calibration.Points, imagePt)
		if len(s.calibration.Points) == maxCalibrationPoints {
			s.recomputeVanishingPoint()
			if !s.parallelError {
				s.mode = ModeRayDrawing
				s.notify(EventModeChanged)
			}
		}
		s.notify(EventCalibrationChanged)

	case ModeRayDrawing:
		if s.vanishing == nil {
			return
		}
		s.rayCounter++
		ray := &OffsideRay{
			ID:      fmt.Sprintf("ray-%d", s.rayCounter),
			Through: imagePt,
			Color:   colorutil.RayColor(len(s.rays)),
		}
		s.rays = append(s.rays, ray)
		s.notify(EventRaysChanged)
	}
}

// DragPreview implements gesture.Intents: the live drag position is stored
// for rendering, but the model stays untouched until the drag commits.
func (s *State) DragPreview(drag gesture.DragState) {
	d := drag
	s.drag = &d
	s.notify(EventDragChanged)
}

// CommitDrag implements the commit-drag intent. A calibration-point drag
// overwrites the point and re-derives the vanishing point; a failed
// re-derivation sets the parallel flag but keeps the previous vanishing
// point as the last good value until the user corrects the line. A ray drag
// just moves the through point.
func (s *State) CommitDrag(drag gesture.DragState) {
	s.drag = nil
	s.notify(EventDragChanged)

	switch drag.Source.Kind {
	case gesture.SourceCalibrationPoint:
		i := drag.Source.PointIndex
		if i < 0 || i >= len(s.calibration.Points) {
			return
		}
		s.calibration.Points[i] = drag.Current
		if len(s.calibration.Points) == maxCalibrationPoints {
			prev := s.vanishing
			s.recomputeVanishingPoint()
			if s.parallelError {
				s.vanishing = prev
			} else if s.mode == ModeCalibrating {
				// A drag that un-parallels the lines completes calibration.
				s.mode = ModeRayDrawing
				s.notify(EventModeChanged)
			}
		}
		s.notify(EventCalibrationChanged)

	case gesture.SourceRay:
		for _, r := range s.rays {
			if r.ID == drag.Source.RayID {
				r.Through = drag.Current
				s.notify(EventRaysChanged)
				return
			}
		}
	}
}

// CancelDrag implements gesture.Intents; the preview is discarded.
func (s *State) CancelDrag() {
	s.drag = nil
	s.notify(EventDragChanged)
}

// recomputeVanishingPoint intersects the two derived calibration lines.
func (s *State) recomputeVanishingPoint() {
	line1, ok1 := s.calibration.Line1()
	line2, ok2 := s.calibration.Line2()
	if !ok1 || !ok2 {
		s.vanishing = nil
		s.parallelError = false
		return
	}
	if vp, ok := geometry.LineIntersection(line1, line2); ok {
		s.vanishing = &vp
		s.parallelError = false
	} else {
		s.vanishing = nil
		s.parallelError = true
	}
}

// SetHover records the image-space hover preview point shown while in
// ray-drawing mode with no gesture active. Pass nil to clear.
func (s *State) SetHover(pt *geometry.Point2D) {
	if pt == nil && s.hover == nil {
		return
	}
	if pt == nil {
		s.hover = nil
	} else {
		p := *pt
		s.hover = &p
	}
	s.notify(EventHoverChanged)
}

// RemoveRay deletes a single ray by id. Remaining rays keep their colors.
func (s *State) RemoveRay(id string) {
	for i, r := range s.rays {
		if r.ID == id {
			s.rays = append(s.rays[:i], s.rays[i+1:]...)
			s.notify(EventRaysChanged)
			return
		}
	}
}

// ClearRays empties the ray collection; calibration and mode are untouched.
func (s *State) ClearRays() {
	if len(s.rays) == 0 {
		return
	}
	s.rays = nil
	s.notify(EventRaysChanged)
}

// ResetCalibration returns to calibrating mode and clears the points, the
// vanishing point, the parallel flag, and all rays.
func (s *State) ResetCalibration() {
	s.clearModel()
	if s.mode != ModeUploading {
		s.mode = ModeCalibrating
	}
	s.notify(EventModeChanged)
	s.notify(EventCalibrationChanged)
	s.notify(EventRaysChanged)
}

// FullReset discards the loaded image and returns to uploading mode.
func (s *State) FullReset() {
	s.SetImage(nil)
}

// Restore installs a previously saved calibration and ray set, e.g. from a
// session file. Rays keep their saved ids and colors; the id counter is
// advanced past them so new rays stay unique. The vanishing point and mode
// are re-derived from the points.
func (s *State) Restore(points []geometry.Point2D, rays []OffsideRay) {
	if s.layer == nil {
		return
	}
	if len(points) > maxCalibrationPoints {
		points = points[:maxCalibrationPoints]
	}
	s.calibration = Calibration{Points: append([]geometry.Point2D(nil), points...)}
	s.recomputeVanishingPoint()

	s.rays = nil
	s.rayCounter = 0
	for _, r := range rays {
		ray := r
		s.rays = append(s.rays, &ray)
		var n int
		if _, err := fmt.Sscanf(r.ID, "ray-%d", &n); err == nil && n > s.rayCounter {
			s.rayCounter = n
		}
	}

	if s.vanishing != nil {
		s.mode = ModeRayDrawing
	} else {
		s.mode = ModeCalibrating
	}
	s.notify(EventModeChanged)
	s.notify(EventCalibrationChanged)
	s.notify(EventRaysChanged)
}

func (s *State) clearModel() {
	s.calibration = Calibration{}
	s.vanishing = nil
	s.parallelError = false
	s.rays = nil
	s.drag = nil
	s.hover = nil
	s.view.Reset()
}
