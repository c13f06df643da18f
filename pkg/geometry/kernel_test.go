package geometry

import (
	"math"
	"testing"
)

func TestLineIntersectionKnownPoint(t *testing.T) {
	a := NewLine(NewPoint2D(0, 0), NewPoint2D(10, 10))
	b := NewLine(NewPoint2D(0, 10), NewPoint2D(10, 0))

	p, ok := LineIntersection(a, b)
	if !ok {
		t.Fatal("expected an intersection for crossing diagonals")
	}
	if math.Abs(p.X-5) > 1e-9 || math.Abs(p.Y-5) > 1e-9 {
		t.Errorf("intersection failed: expected (5,5), got (%v,%v)", p.X, p.Y)
	}
}

func TestLineIntersectionSymmetry(t *testing.T) {
	pairs := [][2]Line{
		{
			NewLine(NewPoint2D(0, 0), NewPoint2D(10, 10)),
			NewLine(NewPoint2D(0, 10), NewPoint2D(10, 0)),
		},
		{
			NewLine(NewPoint2D(100, 250), NewPoint2D(900, 240)),
			NewLine(NewPoint2D(80, 700), NewPoint2D(950, 620)),
		},
		{
			NewLine(NewPoint2D(-5, 3), NewPoint2D(7, -2)),
			NewLine(NewPoint2D(0, 0), NewPoint2D(1, 9)),
		},
	}

	for i, pair := range pairs {
		ab, okAB := LineIntersection(pair[0], pair[1])
		ba, okBA := LineIntersection(pair[1], pair[0])
		if !okAB || !okBA {
			t.Fatalf("pair %d: expected intersections both ways", i)
		}
		if math.Abs(ab.X-ba.X) > 1e-9 || math.Abs(ab.Y-ba.Y) > 1e-9 {
			t.Errorf("pair %d: asymmetric result: (%v,%v) vs (%v,%v)",
				i, ab.X, ab.Y, ba.X, ba.Y)
		}
	}
}

func TestLineIntersectionParallel(t *testing.T) {
	a := NewLine(NewPoint2D(0, 0), NewPoint2D(10, 0))
	b := NewLine(NewPoint2D(0, 5), NewPoint2D(10, 5))

	if _, ok := LineIntersection(a, b); ok {
		t.Error("expected no intersection for horizontal parallel lines")
	}

	// Coincident lines have a zero determinant too.
	if _, ok := LineIntersection(a, a); ok {
		t.Error("expected no intersection for a line with itself")
	}
}

func TestExtendLineToBoundsHorizontal(t *testing.T) {
	p1, p2 := ExtendLineToBounds(NewPoint2D(10, 50), NewPoint2D(20, 50), 100, 100)

	if math.Abs(p1.X-0) > 1e-9 || math.Abs(p1.Y-50) > 1e-9 {
		t.Errorf("left endpoint: expected (0,50), got (%v,%v)", p1.X, p1.Y)
	}
	if math.Abs(p2.X-100) > 1e-9 || math.Abs(p2.Y-50) > 1e-9 {
		t.Errorf("right endpoint: expected (100,50), got (%v,%v)", p2.X, p2.Y)
	}
}

func TestExtendLineToBoundsVertical(t *testing.T) {
	p1, p2 := ExtendLineToBounds(NewPoint2D(30, 10), NewPoint2D(30, 90), 100, 200)

	if math.Abs(p1.Y-0) > 1e-9 || math.Abs(p2.Y-200) > 1e-9 {
		t.Errorf("expected crossings at y=0 and y=200, got y=%v and y=%v", p1.Y, p2.Y)
	}
	if math.Abs(p1.X-30) > 1e-9 || math.Abs(p2.X-30) > 1e-9 {
		t.Errorf("expected x=30 on both endpoints, got %v and %v", p1.X, p2.X)
	}
}

func TestExtendLineToBoundsOrderIndependent(t *testing.T) {
	lines := [][2]Point2D{
		{NewPoint2D(12, 34), NewPoint2D(480, 310)},
		{NewPoint2D(5, 5), NewPoint2D(5, 99)},
		{NewPoint2D(0, 200), NewPoint2D(600, 210)},
	}

	for i, line := range lines {
		a1, a2 := ExtendLineToBounds(line[0], line[1], 640, 480)
		b1, b2 := ExtendLineToBounds(line[1], line[0], 640, 480)
		if a1.Distance(b1) > 1e-6 || a2.Distance(b2) > 1e-6 {
			t.Errorf("line %d: endpoint pair depends on point order: (%v,%v) vs (%v,%v)",
				i, a1, a2, b1, b2)
		}
	}
}

func TestExtendLineToBoundsDegenerate(t *testing.T) {
	p := NewPoint2D(50, 50)
	a, b := ExtendLineToBounds(p, p, 100, 100)

	// No direction to extend along, but the function must still return a
	// drawable pair rather than failing.
	if math.IsNaN(a.X) || math.IsNaN(a.Y) || math.IsNaN(b.X) || math.IsNaN(b.Y) {
		t.Error("degenerate input produced NaN endpoints")
	}
	if a.Distance(p) > fallbackExtent || b.Distance(p) > fallbackExtent {
		t.Errorf("degenerate endpoints unexpectedly far from input: %v %v", a, b)
	}
}

func TestTransformRoundTrip(t *testing.T) {
	points := []Point2D{
		NewPoint2D(0, 0),
		NewPoint2D(123.456, -78.9),
		NewPoint2D(-1000, 2500.25),
	}
	scales := []float64{0.25, 1, 3.7}
	offsets := []Point2D{
		NewPoint2D(0, 0),
		NewPoint2D(-50, 120.5),
	}

	for _, p := range points {
		for _, s := range scales {
			for _, o := range offsets {
				back := ScreenToImage(ImageToScreen(p, s, o), s, o)
				if math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
					t.Errorf("round trip failed for %v scale=%v offset=%v: got %v", p, s, o, back)
				}
			}
		}
	}
}

func TestPanForZoomAroundPointAnchors(t *testing.T) {
	baseScale := 0.5
	baseOffset := NewPoint2D(40, 10)
	center := NewPoint2D(400, 300)
	focal := NewPoint2D(250, 180)

	oldZoom := 1.6
	oldPan := NewPoint2D(-30, 12)
	oldEffScale := baseScale * oldZoom
	oldEffOffset := NewPoint2D(
		baseOffset.X*oldZoom+center.X*(1-oldZoom)+oldPan.X,
		baseOffset.Y*oldZoom+center.Y*(1-oldZoom)+oldPan.Y,
	)

	imagePt := ScreenToImage(focal, oldEffScale, oldEffOffset)

	for _, ratio := range []float64{0.2, 0.5, 1, 2, 5} {
		newZoom := oldZoom * ratio
		pan := PanForZoomAroundPoint(focal, newZoom, baseScale, baseOffset, center, oldEffScale, oldEffOffset)

		newEffScale := baseScale * newZoom
		newEffOffset := NewPoint2D(
			baseOffset.X*newZoom+center.X*(1-newZoom)+pan.X,
			baseOffset.Y*newZoom+center.Y*(1-newZoom)+pan.Y,
		)
		screen := ImageToScreen(imagePt, newEffScale, newEffOffset)

		if math.Abs(screen.X-focal.X) > 1e-6 || math.Abs(screen.Y-focal.Y) > 1e-6 {
			t.Errorf("ratio %v: focal point drifted from (%v,%v) to (%v,%v)",
				ratio, focal.X, focal.Y, screen.X, screen.Y)
		}
	}
}
