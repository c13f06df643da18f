// Package canvas drawing primitives for the calibration overlay.
package canvas

import (
	"image"
	"image/color"

	"offside-checker/internal/app"
	"offside-checker/internal/gesture"
	"offside-checker/pkg/colorutil"
	"offside-checker/pkg/geometry"
)

const (
	lineThickness   = 2
	markerRadius    = 6.0
	vanishingRadius = 8.0
)

var (
	calibrationLineColor  = colorutil.White
	calibrationPointColor = color.RGBA{R: 240, G: 240, B: 240, A: 255}
	vanishingColor        = colorutil.Magenta
)

// drawOverlay paints the calibration lines, the vanishing point, the rays,
// the hover preview, and the point markers on top of the composited image.
// An uncommitted drag overrides the dragged point's position so the user
// sees it at the pointer, not where it was committed.
func (ic *ImageCanvas) drawOverlay(output *image.RGBA, frame app.Frame, dpr float64) {
	imgW, imgH := ic.state.View().ImageSize()
	if imgW <= 0 || imgH <= 0 {
		return
	}

	points := frame.Calibration.Points
	rays := frame.Rays
	if frame.Drag != nil {
		points = append([]geometry.Point2D(nil), points...)
		rays = append([]app.OffsideRay(nil), rays...)
		switch frame.Drag.Source.Kind {
		case gesture.SourceCalibrationPoint:
			if i := frame.Drag.Source.PointIndex; i >= 0 && i < len(points) {
				points[i] = frame.Drag.Current
			}
		case gesture.SourceRay:
			for i := range rays {
				if rays[i].ID == frame.Drag.Source.RayID {
					rays[i].Through = frame.Drag.Current
				}
			}
		}
	}

	thickness := int(lineThickness * dpr)
	if thickness < 1 {
		thickness = 1
	}

	// Reference lines, re-derived from the (possibly live) points.
	if len(points) >= 2 {
		ic.drawImageLine(output, points[0], points[1], imgW, imgH, calibrationLineColor, thickness, frame, dpr)
	}
	if len(points) >= 4 {
		ic.drawImageLine(output, points[2], points[3], imgW, imgH, calibrationLineColor, thickness, frame, dpr)
	}

	// Offside rays, each through the committed vanishing point.
	if frame.VanishingPoint != nil {
		vp := *frame.VanishingPoint
		for _, ray := range rays {
			ic.drawImageLine(output, vp, ray.Through, imgW, imgH, ray.Color, thickness, frame, dpr)
		}
		if frame.Hover != nil {
			preview := scaleColor(frame.NextColor, 0.6)
			ic.drawImageLine(output, vp, *frame.Hover, imgW, imgH, preview, thickness, frame, dpr)
		}

		x, y := toDevice(vp, frame, dpr)
		ic.drawMarker(output, x, y, vanishingRadius*dpr, vanishingColor, false)
	}

	for _, ray := range rays {
		x, y := toDevice(ray.Through, frame, dpr)
		ic.drawMarker(output, x, y, markerRadius*dpr, ray.Color, true)
	}
	for _, p := range points {
		x, y := toDevice(p, frame, dpr)
		ic.drawMarker(output, x, y, markerRadius*dpr, calibrationPointColor, true)
	}
}

// drawImageLine extends an image-space line to the image bounds and draws
// it in device pixels.
func (ic *ImageCanvas) drawImageLine(output *image.RGBA, p1, p2 geometry.Point2D, imgW, imgH float64, col color.RGBA, thickness int, frame app.Frame, dpr float64) {
	e1, e2 := geometry.ExtendLineToBounds(p1, p2, imgW, imgH)
	x1, y1 := toDevice(e1, frame, dpr)
	x2, y2 := toDevice(e2, frame, dpr)
	ic.drawLine(output, x1, y1, x2, y2, col, thickness)
}

// drawLine draws a thick line using Bresenham's algorithm.
func (ic *ImageCanvas) drawLine(output *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness int) {
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

// drawMarker draws a circular point marker, filled or as a 2px ring.
func (ic *ImageCanvas) drawMarker(output *image.RGBA, cx, cy int, radius float64, col color.RGBA, filled bool) {
	bounds := output.Bounds()

	minX := cx - int(radius) - 1
	maxX := cx + int(radius) + 1
	minY := cy - int(radius) - 1
	maxY := cy + int(radius) + 1

	r2 := radius * radius
	innerR2 := (radius - 2) * (radius - 2)

	for y := minY; y <= maxY; y++ {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}
		for x := minX; x <= maxX; x++ {
			if x < bounds.Min.X || x >= bounds.Max.X {
				continue
			}
			dx := float64(x - cx)
			dy := float64(y - cy)
			dist2 := dx*dx + dy*dy

			if filled {
				if dist2 <= r2 {
					output.Set(x, y, col)
				}
			} else if dist2 <= r2 && dist2 >= innerR2 {
				output.Set(x, y, col)
			}
		}
	}
}
