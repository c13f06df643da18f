package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// ParallelTolerance is the determinant threshold below which two lines are
// treated as parallel. It is measured in raw image-pixel units, so its
// effective angular sensitivity scales with how far apart the two points
// defining each line are: widely spread points trip it at a shallower
// real-world angle than points a few pixels apart. This is a known
// characteristic of the threshold, inherited from the calibration UX it
// serves, not a defect.
const ParallelTolerance = 1e-10

// fallbackExtent is how far a line is extended in each direction when its
// defining points nearly coincide and no viewport crossings can be found.
const fallbackExtent = 10000

// LineIntersection computes the intersection of two infinite lines.
// It returns ok=false when the lines are parallel within ParallelTolerance.
func LineIntersection(a, b Line) (Point2D, bool) {
	x1, y1 := a.P1.X, a.P1.Y
	x2, y2 := a.P2.X, a.P2.Y
	x3, y3 := b.P1.X, b.P1.Y
	x4, y4 := b.P2.X, b.P2.Y

	det := (x1-x2)*(y3-y4) - (y1-y2)*(x3-x4)
	if math.Abs(det) < ParallelTolerance {
		return Point2D{}, false
	}

	// Each line contributes one row (y1-y2)x + (x2-x1)y = (y1-y2)x1 + (x2-x1)y1
	// of a 2x2 system; the matrix determinant equals det above.
	coeffs := mat.NewDense(2, 2, []float64{
		y1 - y2, x2 - x1,
		y3 - y4, x4 - x3,
	})
	rhs := mat.NewVecDense(2, []float64{
		(y1-y2)*x1 + (x2-x1)*y1,
		(y3-y4)*x3 + (x4-x3)*y3,
	})

	var solution mat.VecDense
	if err := solution.SolveVec(coeffs, rhs); err != nil {
		return Point2D{}, false
	}
	return Point2D{X: solution.AtVec(0), Y: solution.AtVec(1)}, true
}

// ExtendLineToBounds computes the two points where the infinite line through
// p1 and p2 crosses the rectangle [0,width] x [0,height]. Crossings are
// accepted while the cross-axis coordinate stays within one rectangle
// dimension outside either edge, which deliberately over-admits far
// off-screen candidates so lines nearly parallel to an edge still extend
// cleanly. Near-coincident candidates (within 0.5 units) are deduplicated
// and the first two survivors are returned.
//
// The returned pair is ordered canonically so the same line yields the same
// endpoints regardless of the order of p1 and p2.
//
// If fewer than two crossings survive (p1 and p2 nearly coincide), the line
// is extended fallbackExtent units in each direction along the p1->p2
// vector so the renderer always receives something drawable.
func ExtendLineToBounds(p1, p2 Point2D, width, height float64) (Point2D, Point2D) {
	dx := p2.X - p1.X
	dy := p2.Y - p1.Y

	var candidates []Point2D
	if dx != 0 {
		for _, x := range [2]float64{0, width} {
			t := (x - p1.X) / dx
			y := p1.Y + t*dy
			if y >= -height && y <= 2*height {
				candidates = append(candidates, Point2D{X: x, Y: y})
			}
		}
	}
	if dy != 0 {
		for _, y := range [2]float64{0, height} {
			t := (y - p1.Y) / dy
			x := p1.X + t*dx
			if x >= -width && x <= 2*width {
				candidates = append(candidates, Point2D{X: x, Y: y})
			}
		}
	}

	// A line through a corner crosses two edges at nearly the same point.
	var unique []Point2D
	for _, c := range candidates {
		dup := false
		for _, u := range unique {
			if math.Abs(c.X-u.X) < 0.5 && math.Abs(c.Y-u.Y) < 0.5 {
				dup = true
				break
			}
		}
		if !dup {
			unique = append(unique, c)
		}
	}

	if len(unique) < 2 {
		a := Point2D{X: p1.X - dx*fallbackExtent, Y: p1.Y - dy*fallbackExtent}
		b := Point2D{X: p1.X + dx*fallbackExtent, Y: p1.Y + dy*fallbackExtent}
		return orderEndpoints(a, b)
	}
	return orderEndpoints(unique[0], unique[1])
}

func orderEndpoints(a, b Point2D) (Point2D, Point2D) {
	if b.X < a.X || (b.X == a.X && b.Y < a.Y) {
		return b, a
	}
	return a, b
}

// ImageToScreen maps an image-space point to screen space under a uniform
// scale and offset. Device pixel ratio is applied later, at canvas-pixel
// resolution, never here.
func ImageToScreen(p Point2D, scale float64, offset Point2D) Point2D {
	return Point2D{X: p.X*scale + offset.X, Y: p.Y*scale + offset.Y}
}

// ScreenToImage is the exact inverse of ImageToScreen.
func ScreenToImage(p Point2D, scale float64, offset Point2D) Point2D {
	return Point2D{X: (p.X - offset.X) / scale, Y: (p.Y - offset.Y) / scale}
}

// PanForZoomAroundPoint solves for the pan vector that keeps the image
// point currently under focal (a screen-space point) under that same screen
// point after the zoom level changes to newZoom.
//
// The effective transform is effScale = baseScale*zoom and
// effOffset = baseOffset*zoom + center*(1-zoom) + pan. The old effective
// transform is inverted to recover the focal image point, then the offset
// equation is solved for pan at the new zoom with the screen position held
// fixed. Every zoom path (wheel, pinch, toolbar buttons) goes through this
// so zooming stays anchored instead of jumping.
func PanForZoomAroundPoint(focal Point2D, newZoom, baseScale float64, baseOffset, center Point2D, oldEffScale float64, oldEffOffset Point2D) Point2D {
	imagePt := ScreenToImage(focal, oldEffScale, oldEffOffset)

	newEffScale := baseScale * newZoom
	newEffOffset := focal.Sub(imagePt.Scale(newEffScale))

	return Point2D{
		X: newEffOffset.X - baseOffset.X*newZoom - center.X*(1-newZoom),
		Y: newEffOffset.Y - baseOffset.Y*newZoom - center.Y*(1-newZoom),
	}
}
