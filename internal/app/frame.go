package app

import (
	"image/color"

	"offside-checker/internal/gesture"
	"offside-checker/pkg/geometry"
)

// Frame is the per-frame render contract: everything the render pass needs
// to paint the current state, with no back-references into the live model.
// All points are image space; EffScale/EffOffset map them to screen space.
type Frame struct {
	Mode Mode

	EffScale  float64
	EffOffset geometry.Point2D
	DPR       float64

	Calibration    Calibration
	Line1          *geometry.Line
	Line2          *geometry.Line
	VanishingPoint *geometry.Point2D
	ParallelError  bool

	Rays      []OffsideRay
	NextColor color.RGBA

	// Hover is the ray preview point, present only in ray-drawing mode
	// while no gesture is active.
	Hover *geometry.Point2D

	// Drag, when present, is the live position of an uncommitted drag; the
	// renderer draws the dragged point there instead of at its committed
	// position.
	Drag *gesture.DragState
}

// Frame assembles the render contract from the current state.
func (s *State) Frame() Frame {
	scale, offset := s.view.Effective()

	f := Frame{
		Mode:          s.mode,
		EffScale:      scale,
		EffOffset:     offset,
		DPR:           s.dpr,
		Calibration:   s.Calibration(),
		ParallelError: s.parallelError,
		Rays:          s.Rays(),
		NextColor:     s.NextRayColor(),
		VanishingPoint: s.VanishingPoint(),
	}

	if line1, ok := f.Calibration.Line1(); ok {
		f.Line1 = &line1
	}
	if line2, ok := f.Calibration.Line2(); ok {
		f.Line2 = &line2
	}
	if s.mode == ModeRayDrawing && s.hover != nil && s.drag == nil {
		hover := *s.hover
		f.Hover = &hover
	}
	if s.drag != nil {
		drag := *s.drag
		f.Drag = &drag
	}
	return f
}
