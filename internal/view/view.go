// Package view owns the zoom and pan state for the image canvas and derives
// the effective image-to-screen transform from it.
package view

import (
	"offside-checker/pkg/geometry"
)

const (
	// MinZoom is fit-to-container; zooming out past it is not allowed.
	MinZoom = 1.0
	// MaxZoom bounds how far the user can magnify the image.
	MaxZoom = 5.0

	// StepFactor is the multiplicative step used by the toolbar zoom buttons.
	StepFactor = 1.25
	// WheelFactor is the multiplicative step per mouse-wheel notch.
	WheelFactor = 1.1

	// minVisibleFraction is how much of the scaled image must remain inside
	// the canvas on each axis after a pan.
	minVisibleFraction = 0.2
)

// View maintains the current zoom level and pan offset plus the base
// fit-to-container layout, recomputed whenever the container resizes or the
// image changes. The effective transform it derives is the single mapping
// from image space to screen space used by hit-testing and rendering.
type View struct {
	zoom float64
	pan  geometry.Point2D

	imageWidth  float64
	imageHeight float64

	canvasWidth  float64
	canvasHeight float64

	baseScale  float64
	baseOffset geometry.Point2D
}

// New creates a view at zoom 1 with no pan.
func New() *View {
	return &View{zoom: MinZoom, baseScale: 1}
}

// SetImageSize installs a new image. Zoom and pan reset because they are
// per-image UI state.
func (v *View) SetImageSize(width, height float64) {
	v.imageWidth = width
	v.imageHeight = height
	v.zoom = MinZoom
	v.pan = geometry.Point2D{}
	v.recomputeBase()
}

// SetCanvasSize updates the container size and recomputes the base layout.
// The current pan is re-clamped against the new geometry.
func (v *View) SetCanvasSize(width, height float64) {
	v.canvasWidth = width
	v.canvasHeight = height
	v.recomputeBase()
	v.pan = v.ClampPan(v.pan, v.zoom)
}

// recomputeBase derives the fit-to-container scale and centering offset.
func (v *View) recomputeBase() {
	if v.imageWidth <= 0 || v.imageHeight <= 0 || v.canvasWidth <= 0 || v.canvasHeight <= 0 {
		v.baseScale = 1
		v.baseOffset = geometry.Point2D{}
		return
	}
	scaleX := v.canvasWidth / v.imageWidth
	scaleY := v.canvasHeight / v.imageHeight
	v.baseScale = scaleX
	if scaleY < scaleX {
		v.baseScale = scaleY
	}
	v.baseOffset = geometry.Point2D{
		X: (v.canvasWidth - v.imageWidth*v.baseScale) / 2,
		Y: (v.canvasHeight - v.imageHeight*v.baseScale) / 2,
	}
}

// Effective returns the composed scale and offset mapping image space to
// screen space: effScale = baseScale*zoom and
// effOffset = baseOffset*zoom + center*(1-zoom) + pan.
func (v *View) Effective() (scale float64, offset geometry.Point2D) {
	scale = v.baseScale * v.zoom
	center := v.center()
	offset = geometry.Point2D{
		X: v.baseOffset.X*v.zoom + center.X*(1-v.zoom) + v.pan.X,
		Y: v.baseOffset.Y*v.zoom + center.Y*(1-v.zoom) + v.pan.Y,
	}
	return scale, offset
}

func (v *View) center() geometry.Point2D {
	return geometry.Point2D{X: v.canvasWidth / 2, Y: v.canvasHeight / 2}
}

// ClampPan restricts a candidate pan so at least minVisibleFraction of the
// scaled image stays inside the canvas on every axis. At zoom 1 the image
// already fits the canvas, so the clamp collapses the pan to {0,0} and no
// panning is possible.
func (v *View) ClampPan(candidate geometry.Point2D, zoom float64) geometry.Point2D {
	if zoom <= MinZoom {
		return geometry.Point2D{}
	}
	if v.imageWidth <= 0 || v.imageHeight <= 0 || v.canvasWidth <= 0 || v.canvasHeight <= 0 {
		return candidate
	}

	center := v.center()
	scaledW := v.imageWidth * v.baseScale * zoom
	scaledH := v.imageHeight * v.baseScale * zoom

	// The non-pan part of the effective offset for this zoom level.
	fixedX := v.baseOffset.X*zoom + center.X*(1-zoom)
	fixedY := v.baseOffset.Y*zoom + center.Y*(1-zoom)

	clamped := candidate
	clamped.X = clampRange(clamped.X,
		-(1-minVisibleFraction)*scaledW-fixedX,
		v.canvasWidth-minVisibleFraction*scaledW-fixedX)
	clamped.Y = clampRange(clamped.Y,
		-(1-minVisibleFraction)*scaledH-fixedY,
		v.canvasHeight-minVisibleFraction*scaledH-fixedY)
	return clamped
}

func clampRange(val, lo, hi float64) float64 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

func clampZoom(zoom float64) float64 {
	if zoom < MinZoom {
		return MinZoom
	}
	if zoom > MaxZoom {
		return MaxZoom
	}
	return zoom
}

// ZoomTo sets an absolute zoom level anchored at a screen-space focal point:
// the image point under the focal point stays under it after the change.
func (v *View) ZoomTo(focal geometry.Point2D, newZoom float64) {
	newZoom = clampZoom(newZoom)
	oldScale, oldOffset := v.Effective()
	pan := geometry.PanForZoomAroundPoint(focal, newZoom, v.baseScale, v.baseOffset, v.center(), oldScale, oldOffset)
	v.zoom = newZoom
	v.pan = v.ClampPan(pan, newZoom)
}

// ZoomAround multiplies the zoom level by factor, anchored at focal.
// Wheel zoom uses this with WheelFactor; pinch uses the live ratio.
func (v *View) ZoomAround(focal geometry.Point2D, factor float64) {
	v.ZoomTo(focal, v.zoom*factor)
}

// ZoomIn zooms one toolbar step anchored at the canvas center.
func (v *View) ZoomIn() {
	v.ZoomAround(v.center(), StepFactor)
}

// ZoomOut zooms out one toolbar step anchored at the canvas center.
func (v *View) ZoomOut() {
	v.ZoomAround(v.center(), 1/StepFactor)
}

// PanBy translates the view by a screen-space delta, through the clamp.
func (v *View) PanBy(delta geometry.Point2D) {
	v.pan = v.ClampPan(v.pan.Add(delta), v.zoom)
}

// Reset returns to zoom 1 and pan {0,0}.
func (v *View) Reset() {
	v.zoom = MinZoom
	v.pan = geometry.Point2D{}
}

// Zoom returns the current zoom level.
func (v *View) Zoom() float64 {
	return v.zoom
}

// Pan returns the current pan offset in screen pixels.
func (v *View) Pan() geometry.Point2D {
	return v.pan
}

// CanvasSize returns the current container size.
func (v *View) CanvasSize() (width, height float64) {
	return v.canvasWidth, v.canvasHeight
}

// ImageSize returns the loaded image's pixel dimensions.
func (v *View) ImageSize() (width, height float64) {
	return v.imageWidth, v.imageHeight
}

// ScreenToImage converts a screen-space point to image space using the
// current effective transform.
func (v *View) ScreenToImage(p geometry.Point2D) geometry.Point2D {
	scale, offset := v.Effective()
	return geometry.ScreenToImage(p, scale, offset)
}

// ImageToScreen converts an image-space point to screen space using the
// current effective transform.
func (v *View) ImageToScreen(p geometry.Point2D) geometry.Point2D {
	scale, offset := v.Effective()
	return geometry.ImageToScreen(p, scale, offset)
}
