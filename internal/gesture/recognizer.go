// Package gesture turns raw pointer, touch, and wheel events into semantic
// intents: add a calibration or ray point, drag an existing point, pan the
// view, or zoom it. It owns the disambiguation between those gestures; the
// data model is only touched through the Intents interface, and only when a
// gesture commits.
package gesture

import (
	"time"

	"offside-checker/internal/view"
	"offside-checker/pkg/geometry"
)

const (
	// HitRadius is the screen-space distance within which a pointer-down
	// grabs an existing point instead of starting a fresh tap.
	HitRadius = 12.0

	// DragSlop is how far (screen pixels) a pointer may wander before the
	// gesture stops being a tap candidate.
	DragSlop = 6.0

	// TapDuration is the longest press that still counts as a tap.
	TapDuration = 300 * time.Millisecond
)

// DragSourceKind discriminates what a drag is moving.
type DragSourceKind int

const (
	// SourceCalibrationPoint drags one of the four calibration points.
	SourceCalibrationPoint DragSourceKind = iota
	// SourceRay drags an offside ray's through point.
	SourceRay
)

// DragSource identifies the entity a drag gesture is repositioning.
type DragSource struct {
	Kind       DragSourceKind
	PointIndex int    // valid when Kind == SourceCalibrationPoint
	RayID      string // valid when Kind == SourceRay
}

// DragState tracks an in-progress drag. It exists only for the lifetime of
// the gesture; the model is not mutated until the drag commits.
type DragState struct {
	Source   DragSource
	Original geometry.Point2D // image space, position at pointer-down
	Current  geometry.Point2D // image space, live position
}

// RayPoint is a hit-testable ray through point.
type RayPoint struct {
	ID    string
	Point geometry.Point2D // image space
}

// Model is the read-only slice of the data model the recognizer hit-tests
// against. Points are returned in image space and converted through the
// view's effective transform.
type Model interface {
	CalibrationPoints() []geometry.Point2D
	RayPoints() []RayPoint
}

// Intents receives the semantic results of recognized gestures.
// DragPreview fires on every move of an uncommitted drag so rendering can
// show the live position; the model must not change until CommitDrag.
type Intents interface {
	AddPoint(imagePt geometry.Point2D)
	DragPreview(drag DragState)
	CommitDrag(drag DragState)
	CancelDrag()
}

type phase int

const (
	phaseIdle phase = iota
	phaseTapCandidate
	phaseDrag
	phasePan
	phasePinch
	phaseInert
)

// Recognizer is the per-pointer-session gesture state machine. It is not
// safe for concurrent use; all events must arrive from the single UI event
// loop, in dispatch order.
type Recognizer struct {
	model   Model
	intents Intents
	view    *view.View

	// onViewChanged fires after any direct view mutation (pan, pinch,
	// wheel) so the owner can schedule a redraw.
	onViewChanged func()

	now func() time.Time

	phase     phase
	pointerID int
	downPos   geometry.Point2D // screen space
	downImage geometry.Point2D
	downTime  time.Time
	lastPos   geometry.Point2D
	target    DragSource
	hasTarget bool
	drag      DragState

	pointers       map[int]geometry.Point2D
	pinchStartDist float64
	pinchStartZoom float64
	lastMidpoint   geometry.Point2D
}

// New creates a recognizer bound to a model, an intent sink, and the view
// it pans and zooms directly.
func New(model Model, intents Intents, v *view.View, onViewChanged func()) *Recognizer {
	return &Recognizer{
		model:         model,
		intents:       intents,
		view:          v,
		onViewChanged: onViewChanged,
		now:           time.Now,
		pointers:      make(map[int]geometry.Point2D),
	}
}

// Active reports whether any gesture is currently in progress. The hover
// preview is only shown while this is false.
func (r *Recognizer) Active() bool {
	return r.phase != phaseIdle || len(r.pointers) > 0
}

// Drag returns the in-progress drag state, if any, for render preview.
func (r *Recognizer) Drag() (DragState, bool) {
	if r.phase == phaseDrag {
		return r.drag, true
	}
	return DragState{}, false
}

// PointerDown starts a gesture session, or upgrades the session to a pinch
// when a second pointer joins. pos is in screen space.
func (r *Recognizer) PointerDown(id int, pos geometry.Point2D) {
	r.pointers[id] = pos

	if len(r.pointers) >= 2 {
		r.beginPinch()
		return
	}

	r.phase = phaseTapCandidate
	r.pointerID = id
	r.downPos = pos
	r.lastPos = pos
	r.downImage = r.view.ScreenToImage(pos)
	r.downTime = r.now()
	r.target, r.hasTarget = r.hitTest(pos)
}

// beginPinch abandons any single-pointer gesture in favor of two-finger
// zoom. A half-done drag is discarded, not committed.
func (r *Recognizer) beginPinch() {
	if r.phase == phaseDrag {
		r.intents.CancelDrag()
	}
	r.phase = phasePinch

	a, b := r.firstTwoPointers()
	r.pinchStartDist = a.Distance(b)
	if r.pinchStartDist == 0 {
		r.pinchStartDist = 1
	}
	r.pinchStartZoom = r.view.Zoom()
	r.lastMidpoint = midpoint(a, b)
}

// PointerMove advances the active gesture. Movement within DragSlop of the
// down position keeps a tap candidate uncommitted.
func (r *Recognizer) PointerMove(id int, pos geometry.Point2D) {
	if _, ok := r.pointers[id]; !ok {
		return
	}
	r.pointers[id] = pos

	if r.phase == phasePinch {
		r.updatePinch()
		return
	}
	if id != r.pointerID {
		return
	}

	switch r.phase {
	case phaseTapCandidate:
		if pos.Distance(r.downPos) <= DragSlop {
			return
		}
		switch {
		case r.hasTarget:
			r.phase = phaseDrag
			r.drag = DragState{
				Source:   r.target,
				Original: r.dragOrigin(r.target),
				Current:  r.view.ScreenToImage(pos),
			}
			r.intents.DragPreview(r.drag)
		case r.view.Zoom() > view.MinZoom:
			r.phase = phasePan
			r.view.PanBy(pos.Sub(r.lastPos))
			r.notifyView()
		default:
			// Not zoomed and nothing under the pointer: casual scrolling
			// must not create points, so the gesture goes inert.
			r.phase = phaseInert
		}

	case phaseDrag:
		r.drag.Current = r.view.ScreenToImage(pos)
		r.intents.DragPreview(r.drag)

	case phasePan:
		r.view.PanBy(pos.Sub(r.lastPos))
		r.notifyView()
	}

	r.lastPos = pos
}

// updatePinch combines ratio zoom around the live midpoint with a
// translation for midpoint drift, so two fingers can pinch and pan in the
// same gesture.
func (r *Recognizer) updatePinch() {
	a, b := r.firstTwoPointers()
	mid := midpoint(a, b)

	ratio := a.Distance(b) / r.pinchStartDist
	r.view.ZoomTo(mid, r.pinchStartZoom*ratio)
	r.view.PanBy(mid.Sub(r.lastMidpoint))
	r.lastMidpoint = mid
	r.notifyView()
}

// PointerUp ends a gesture. A short, unmoved, untargeted press adds a
// point; a drag commits; pan and pinch have already updated the view and
// emit nothing to the model.
func (r *Recognizer) PointerUp(id int, pos geometry.Point2D) {
	if _, ok := r.pointers[id]; !ok {
		return
	}
	delete(r.pointers, id)

	if r.phase == phasePinch {
		if len(r.pointers) < 2 {
			// Remaining finger must not fall through to tap handling.
			r.reset()
		} else {
			a, b := r.firstTwoPointers()
			r.pinchStartDist = a.Distance(b)
			r.pinchStartZoom = r.view.Zoom()
			r.lastMidpoint = midpoint(a, b)
		}
		return
	}
	if id != r.pointerID {
		return
	}

	switch r.phase {
	case phaseTapCandidate:
		if !r.hasTarget && r.now().Sub(r.downTime) < TapDuration {
			r.intents.AddPoint(r.downImage)
		}
	case phaseDrag:
		r.drag.Current = r.view.ScreenToImage(pos)
		r.intents.CommitDrag(r.drag)
	}
	r.reset()
}

// PointerCancel aborts the session without committing anything. Leaving
// the canvas or losing the input device lands here; skipping it is how
// stuck-drag bugs happen.
func (r *Recognizer) PointerCancel(id int) {
	delete(r.pointers, id)
	if r.phase == phaseDrag {
		r.intents.CancelDrag()
	}
	if len(r.pointers) == 0 || id == r.pointerID {
		r.reset()
	}
}

// Wheel zooms by a fixed multiplicative step anchored at the cursor.
func (r *Recognizer) Wheel(pos geometry.Point2D, deltaY float64) {
	if deltaY == 0 {
		return
	}
	factor := view.WheelFactor
	if deltaY < 0 {
		factor = 1 / view.WheelFactor
	}
	r.view.ZoomAround(pos, factor)
	r.notifyView()
}

func (r *Recognizer) reset() {
	r.phase = phaseIdle
	r.hasTarget = false
	r.drag = DragState{}
	for id := range r.pointers {
		delete(r.pointers, id)
	}
}

func (r *Recognizer) notifyView() {
	if r.onViewChanged != nil {
		r.onViewChanged()
	}
}

func (r *Recognizer) dragOrigin(src DragSource) geometry.Point2D {
	switch src.Kind {
	case SourceRay:
		for _, rp := range r.model.RayPoints() {
			if rp.ID == src.RayID {
				return rp.Point
			}
		}
	case SourceCalibrationPoint:
		pts := r.model.CalibrationPoints()
		if src.PointIndex >= 0 && src.PointIndex < len(pts) {
			return pts[src.PointIndex]
		}
	}
	return r.downImage
}

// hitTest finds the entity under a screen position. Ray through points are
// tested before calibration points because they are drawn on top; among
// calibration points, later-added points win ties for the same reason.
func (r *Recognizer) hitTest(pos geometry.Point2D) (DragSource, bool) {
	best := DragSource{}
	bestDist := HitRadius
	found := false

	for _, rp := range r.model.RayPoints() {
		d := r.view.ImageToScreen(rp.Point).Distance(pos)
		if d <= bestDist {
			best = DragSource{Kind: SourceRay, RayID: rp.ID}
			bestDist = d
			found = true
		}
	}
	if found {
		return best, true
	}

	for i, pt := range r.model.CalibrationPoints() {
		d := r.view.ImageToScreen(pt).Distance(pos)
		if d <= bestDist {
			best = DragSource{Kind: SourceCalibrationPoint, PointIndex: i}
			bestDist = d
			found = true
		}
	}
	return best, found
}

func (r *Recognizer) firstTwoPointers() (geometry.Point2D, geometry.Point2D) {
	ids := make([]int, 0, len(r.pointers))
	for id := range r.pointers {
		ids = append(ids, id)
	}
	// Map order is not stable; pick the two smallest ids so the pair is
	// deterministic across calls within one pinch.
	minA, minB := -1, -1
	for _, id := range ids {
		if minA == -1 || id < minA {
			minB = minA
			minA = id
		} else if minB == -1 || id < minB {
			minB = id
		}
	}
	return r.pointers[minA], r.pointers[minB]
}

func midpoint(a, b geometry.Point2D) geometry.Point2D {
	return geometry.Point2D{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}
