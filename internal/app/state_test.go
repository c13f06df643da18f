package app

import (
	"image"
	"math"
	"testing"

	"offside-checker/internal/gesture"
	appimage "offside-checker/internal/image"
	"offside-checker/pkg/colorutil"
	"offside-checker/pkg/geometry"
)

func newCalibratingState() *State {
	s := NewState()
	s.View().SetCanvasSize(800, 600)
	s.SetImage(appimage.FromImage(image.NewRGBA(image.Rect(0, 0, 800, 600))))
	return s
}

func clickPoints(s *State, pts ...geometry.Point2D) {
	for _, p := range pts {
		s.AddPoint(p)
	}
}

func TestImageLoadEntersCalibrating(t *testing.T) {
	s := NewState()
	if s.Mode() != ModeUploading {
		t.Fatalf("fresh state should be uploading, got %v", s.Mode())
	}
	s.SetImage(appimage.FromImage(image.NewRGBA(image.Rect(0, 0, 100, 80))))
	if s.Mode() != ModeCalibrating {
		t.Errorf("image load should enter calibrating, got %v", s.Mode())
	}
	w, h := s.View().ImageSize()
	if w != 100 || h != 80 {
		t.Errorf("view image size not set: %vx%v", w, h)
	}
}

func TestCalibrationFlowConverging(t *testing.T) {
	s := newCalibratingState()
	clickPoints(s,
		geometry.NewPoint2D(0, 0), geometry.NewPoint2D(10, 10),
		geometry.NewPoint2D(0, 10), geometry.NewPoint2D(10, 0),
	)

	if s.Mode() != ModeRayDrawing {
		t.Fatalf("four converging points should enter ray drawing, got %v", s.Mode())
	}
	if s.ParallelError() {
		t.Error("no parallel error expected")
	}
	vp := s.VanishingPoint()
	if vp == nil {
		t.Fatal("expected a vanishing point")
	}
	if math.Abs(vp.X-5) > 1e-9 || math.Abs(vp.Y-5) > 1e-9 {
		t.Errorf("vanishing point: expected (5,5), got (%v,%v)", vp.X, vp.Y)
	}
}

func TestCalibrationFlowParallel(t *testing.T) {
	s := newCalibratingState()
	clickPoints(s,
		geometry.NewPoint2D(0, 0), geometry.NewPoint2D(10, 0),
		geometry.NewPoint2D(0, 10), geometry.NewPoint2D(10, 10),
	)

	if s.Mode() != ModeCalibrating {
		t.Errorf("parallel lines must stay calibrating, got %v", s.Mode())
	}
	if !s.ParallelError() {
		t.Error("expected the parallel error flag")
	}
	if s.VanishingPoint() != nil {
		t.Error("expected no vanishing point for parallel lines")
	}
}

func TestFifthCalibrationPointIsNoOp(t *testing.T) {
	s := newCalibratingState()
	clickPoints(s,
		geometry.NewPoint2D(0, 0), geometry.NewPoint2D(10, 0),
		geometry.NewPoint2D(0, 10), geometry.NewPoint2D(10, 10),
	)
	// Parallel, so still calibrating; a fifth click must not be stored.
	s.AddPoint(geometry.NewPoint2D(50, 50))

	if n := len(s.Calibration().Points); n != 4 {
		t.Errorf("expected 4 points after a fifth click, got %d", n)
	}
}

func TestLinesDeriveFromPoints(t *testing.T) {
	s := newCalibratingState()

	if _, ok := s.Calibration().Line1(); ok {
		t.Error("line1 must not exist before 2 points")
	}
	clickPoints(s, geometry.NewPoint2D(0, 0), geometry.NewPoint2D(10, 10))
	if _, ok := s.Calibration().Line1(); !ok {
		t.Error("line1 must exist at 2 points")
	}
	if _, ok := s.Calibration().Line2(); ok {
		t.Error("line2 must not exist before 4 points")
	}
}

func TestDragRederivesVanishingPoint(t *testing.T) {
	s := newCalibratingState()
	clickPoints(s,
		geometry.NewPoint2D(0, 0), geometry.NewPoint2D(10, 10),
		geometry.NewPoint2D(0, 10), geometry.NewPoint2D(10, 0),
	)

	// Move point 0 so line1 becomes the x-axis: intersection moves to (10,0).
	s.CommitDrag(gesture.DragState{
		Source:   gesture.DragSource{Kind: gesture.SourceCalibrationPoint, PointIndex: 0},
		Original: geometry.NewPoint2D(0, 0),
		Current:  geometry.NewPoint2D(20, 20),
	})

	vp := s.VanishingPoint()
	if vp == nil {
		t.Fatal("expected a vanishing point after drag")
	}
	// Line1 is still y=x, so the intersection stays (5,5): dragging along
	// the same infinite line must not change the result.
	if math.Abs(vp.X-5) > 1e-9 || math.Abs(vp.Y-5) > 1e-9 {
		t.Fatalf("expected (5,5), got (%v,%v)", vp.X, vp.Y)
	}

	// Now actually change the line's direction.
	s.CommitDrag(gesture.DragState{
		Source:   gesture.DragSource{Kind: gesture.SourceCalibrationPoint, PointIndex: 1},
		Original: geometry.NewPoint2D(10, 10),
		Current:  geometry.NewPoint2D(10, 0),
	})
	vp = s.VanishingPoint()
	if vp == nil {
		t.Fatal("expected a vanishing point after second drag")
	}
	if math.Abs(vp.X-5) < 1e-9 && math.Abs(vp.Y-5) < 1e-9 {
		t.Error("vanishing point must be recomputed from the dragged position")
	}
}

func TestParallelDragKeepsLastGoodVanishingPoint(t *testing.T) {
	s := newCalibratingState()
	clickPoints(s,
		geometry.NewPoint2D(0, 0), geometry.NewPoint2D(10, 10),
		geometry.NewPoint2D(0, 10), geometry.NewPoint2D(10, 0),
	)

	// Drag point 1 so line1 parallels line2.
	s.CommitDrag(gesture.DragState{
		Source:   gesture.DragSource{Kind: gesture.SourceCalibrationPoint, PointIndex: 1},
		Original: geometry.NewPoint2D(10, 10),
		Current:  geometry.NewPoint2D(10, -10),
	})

	if !s.ParallelError() {
		t.Error("expected the parallel flag after the bad drag")
	}
	vp := s.VanishingPoint()
	if vp == nil {
		t.Fatal("the previous vanishing point must survive as the last good value")
	}
	if math.Abs(vp.X-5) > 1e-9 || math.Abs(vp.Y-5) > 1e-9 {
		t.Errorf("stale vanishing point should still be (5,5), got (%v,%v)", vp.X, vp.Y)
	}
}

func TestDragRecoversFromParallelCalibration(t *testing.T) {
	s := newCalibratingState()
	clickPoints(s,
		geometry.NewPoint2D(0, 0), geometry.NewPoint2D(10, 0),
		geometry.NewPoint2D(0, 10), geometry.NewPoint2D(10, 10),
	)
	if s.Mode() != ModeCalibrating || !s.ParallelError() {
		t.Fatal("setup should be stuck with parallel lines")
	}

	// Tilt line2 so the lines converge again.
	s.CommitDrag(gesture.DragState{
		Source:   gesture.DragSource{Kind: gesture.SourceCalibrationPoint, PointIndex: 3},
		Original: geometry.NewPoint2D(10, 10),
		Current:  geometry.NewPoint2D(10, 40),
	})

	if s.ParallelError() {
		t.Error("flag must clear once the determinant clears tolerance")
	}
	if s.Mode() != ModeRayDrawing {
		t.Errorf("fixing the lines must complete calibration, got %v", s.Mode())
	}
	if s.VanishingPoint() == nil {
		t.Error("expected a vanishing point after recovery")
	}
}

func TestRayCreationAndColors(t *testing.T) {
	s := newCalibratingState()
	clickPoints(s,
		geometry.NewPoint2D(0, 0), geometry.NewPoint2D(10, 10),
		geometry.NewPoint2D(0, 10), geometry.NewPoint2D(10, 0),
	)

	clickPoints(s,
		geometry.NewPoint2D(100, 100),
		geometry.NewPoint2D(200, 100),
		geometry.NewPoint2D(300, 100),
	)

	rays := s.Rays()
	if len(rays) != 3 {
		t.Fatalf("expected 3 rays, got %d", len(rays))
	}
	for i, r := range rays {
		if r.Color != colorutil.RayColor(i) {
			t.Errorf("ray %d has wrong palette color", i)
		}
	}

	// Ids are unique even across deletions.
	seen := map[string]bool{}
	for _, r := range rays {
		if seen[r.ID] {
			t.Errorf("duplicate ray id %q", r.ID)
		}
		seen[r.ID] = true
	}
}

func TestDeletingRayKeepsOtherColors(t *testing.T) {
	s := newCalibratingState()
	clickPoints(s,
		geometry.NewPoint2D(0, 0), geometry.NewPoint2D(10, 10),
		geometry.NewPoint2D(0, 10), geometry.NewPoint2D(10, 0),
	)
	clickPoints(s,
		geometry.NewPoint2D(100, 100),
		geometry.NewPoint2D(200, 100),
		geometry.NewPoint2D(300, 100),
	)

	before := s.Rays()
	s.RemoveRay(before[1].ID)

	after := s.Rays()
	if len(after) != 2 {
		t.Fatalf("expected 2 rays after deletion, got %d", len(after))
	}
	if after[0].Color != before[0].Color || after[1].Color != before[2].Color {
		t.Error("deleting a ray must not recolor the remaining rays")
	}
	if after[0].ID != before[0].ID || after[1].ID != before[2].ID {
		t.Error("deleting a ray must not reassign ids")
	}
}

func TestRayDragMovesThroughPoint(t *testing.T) {
	s := newCalibratingState()
	clickPoints(s,
		geometry.NewPoint2D(0, 0), geometry.NewPoint2D(10, 10),
		geometry.NewPoint2D(0, 10), geometry.NewPoint2D(10, 0),
	)
	s.AddPoint(geometry.NewPoint2D(100, 100))
	ray := s.Rays()[0]

	s.CommitDrag(gesture.DragState{
		Source:   gesture.DragSource{Kind: gesture.SourceRay, RayID: ray.ID},
		Original: ray.Through,
		Current:  geometry.NewPoint2D(150, 170),
	})

	moved := s.Rays()[0]
	if math.Abs(moved.Through.X-150) > 1e-9 || math.Abs(moved.Through.Y-170) > 1e-9 {
		t.Errorf("ray did not move: %v", moved.Through)
	}
	if moved.Color != ray.Color || moved.ID != ray.ID {
		t.Error("drag must only change the through point")
	}
}

func TestResetCalibrationClearsEverythingButImage(t *testing.T) {
	s := newCalibratingState()
	clickPoints(s,
		geometry.NewPoint2D(0, 0), geometry.NewPoint2D(10, 10),
		geometry.NewPoint2D(0, 10), geometry.NewPoint2D(10, 0),
	)
	s.AddPoint(geometry.NewPoint2D(100, 100))

	s.ResetCalibration()

	if s.Mode() != ModeCalibrating {
		t.Errorf("expected calibrating after reset, got %v", s.Mode())
	}
	if len(s.Calibration().Points) != 0 || s.VanishingPoint() != nil ||
		len(s.Rays()) != 0 || s.ParallelError() {
		t.Error("reset must clear points, vanishing point, rays, and the flag")
	}
	if s.Image() == nil {
		t.Error("reset calibration must keep the image")
	}
}

func TestClearRaysLeavesCalibration(t *testing.T) {
	s := newCalibratingState()
	clickPoints(s,
		geometry.NewPoint2D(0, 0), geometry.NewPoint2D(10, 10),
		geometry.NewPoint2D(0, 10), geometry.NewPoint2D(10, 0),
	)
	s.AddPoint(geometry.NewPoint2D(100, 100))

	s.ClearRays()

	if len(s.Rays()) != 0 {
		t.Error("expected no rays")
	}
	if s.Mode() != ModeRayDrawing || s.VanishingPoint() == nil {
		t.Error("clear-rays must leave mode and calibration untouched")
	}
}

func TestFullResetReturnsToUploading(t *testing.T) {
	s := newCalibratingState()
	clickPoints(s, geometry.NewPoint2D(0, 0), geometry.NewPoint2D(10, 10))

	s.FullReset()

	if s.Mode() != ModeUploading {
		t.Errorf("expected uploading after full reset, got %v", s.Mode())
	}
	if s.Image() != nil || len(s.Calibration().Points) != 0 {
		t.Error("full reset must discard the image and the model")
	}
}

func TestRayClickWithoutVanishingPointIsNoOp(t *testing.T) {
	s := NewState()
	// No image at all: clicks do nothing.
	s.AddPoint(geometry.NewPoint2D(10, 10))
	if len(s.Calibration().Points) != 0 || len(s.Rays()) != 0 {
		t.Error("clicks in uploading mode must be ignored")
	}
}

func TestFrameExposesDragPreview(t *testing.T) {
	s := newCalibratingState()
	clickPoints(s, geometry.NewPoint2D(0, 0), geometry.NewPoint2D(10, 10))

	drag := gesture.DragState{
		Source:   gesture.DragSource{Kind: gesture.SourceCalibrationPoint, PointIndex: 0},
		Original: geometry.NewPoint2D(0, 0),
		Current:  geometry.NewPoint2D(4, 4),
	}
	s.DragPreview(drag)

	f := s.Frame()
	if f.Drag == nil {
		t.Fatal("frame must expose the live drag")
	}
	if math.Abs(f.Drag.Current.X-4) > 1e-9 {
		t.Errorf("wrong live drag position: %v", f.Drag.Current)
	}
	// Preview must not have touched the committed point.
	if f.Calibration.Points[0].X != 0 {
		t.Error("preview leaked into the committed model")
	}

	s.CancelDrag()
	if s.Frame().Drag != nil {
		t.Error("cancelled drag must leave the frame")
	}
}

func TestFrameHoverOnlyInRayMode(t *testing.T) {
	s := newCalibratingState()
	hover := geometry.NewPoint2D(42, 24)
	s.SetHover(&hover)

	if s.Frame().Hover != nil {
		t.Error("hover preview must not show while calibrating")
	}

	clickPoints(s,
		geometry.NewPoint2D(0, 0), geometry.NewPoint2D(10, 10),
		geometry.NewPoint2D(0, 10), geometry.NewPoint2D(10, 0),
	)
	s.SetHover(&hover)
	f := s.Frame()
	if f.Hover == nil {
		t.Fatal("hover preview expected in ray-drawing mode")
	}
	if f.NextColor != colorutil.RayColor(0) {
		t.Error("frame must expose the next ray color")
	}
}
