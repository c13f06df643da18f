// Package share assembles the payload for the remote share facility: a
// JSON snapshot of the calibration and ray set plus a compressed copy of
// the photograph under a fixed size ceiling. Storage, upload, and URL
// generation live on the far side of this boundary and are not handled
// here.
package share

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"
	xdraw "golang.org/x/image/draw"

	"offside-checker/internal/app"
	"offside-checker/pkg/colorutil"
	"offside-checker/pkg/geometry"
)

const (
	// MaxImageBytes is the ceiling for the compressed image payload.
	MaxImageBytes = 900 * 1024

	// maxDimension bounds the longer image side before JPEG encoding;
	// large photos are downscaled first so quality stepping rarely has to
	// go below the first notch.
	maxDimension = 1920

	qualityStart = 90
	qualityFloor = 30
	qualityStep  = 10
)

// Ray is the serialized form of an offside ray.
type Ray struct {
	ID      string           `json:"id"`
	Through geometry.Point2D `json:"through"`
	Color   string           `json:"color"`
}

// Snapshot is the serializable calibration + ray-set state.
type Snapshot struct {
	CalibrationPoints []geometry.Point2D `json:"calibrationPoints"`
	VanishingPoint    *geometry.Point2D  `json:"vanishingPoint,omitempty"`
	Rays              []Ray              `json:"rays"`
	ImageWidth        int                `json:"imageWidth"`
	ImageHeight       int                `json:"imageHeight"`
}

// Payload pairs the snapshot with the compressed image.
type Payload struct {
	Snapshot  Snapshot
	ImageJPEG []byte
}

// FromState captures a snapshot of the current application state.
func FromState(st *app.State) (Snapshot, error) {
	layer := st.Image()
	if layer == nil {
		return Snapshot{}, fmt.Errorf("no image loaded")
	}

	calibration := st.Calibration()
	snap := Snapshot{
		CalibrationPoints: calibration.Points,
		VanishingPoint:    st.VanishingPoint(),
		ImageWidth:        layer.Width(),
		ImageHeight:       layer.Height(),
	}
	for _, r := range st.Rays() {
		snap.Rays = append(snap.Rays, Ray{
			ID:      r.ID,
			Through: r.Through,
			Color:   colorutil.Hex(r.Color),
		})
	}
	return snap, nil
}

// Encode serializes a snapshot as JSON.
func (s Snapshot) Encode() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Build captures the snapshot and compresses the image into a payload.
func Build(st *app.State) (Payload, error) {
	snap, err := FromState(st)
	if err != nil {
		return Payload{}, err
	}
	jpeg, err := CompressImage(st.Image().Image)
	if err != nil {
		return Payload{}, err
	}
	return Payload{Snapshot: snap, ImageJPEG: jpeg}, nil
}

// Write stores the payload on disk: the snapshot JSON at jsonPath and the
// compressed image next to it with a .jpg extension.
func (p Payload) Write(jsonPath string) error {
	data, err := p.Snapshot.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return err
	}
	jpegPath := strings.TrimSuffix(jsonPath, filepath.Ext(jsonPath)) + ".jpg"
	return os.WriteFile(jpegPath, p.ImageJPEG, 0o644)
}

// CompressImage produces a JPEG rendition of the photograph no larger than
// MaxImageBytes, downscaling first and then stepping the JPEG quality down
// until the payload fits.
func CompressImage(img image.Image) ([]byte, error) {
	img = downscale(img)

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("converting image: %w", err)
	}
	defer mat.Close()

	for quality := qualityStart; quality >= qualityFloor; quality -= qualityStep {
		buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat,
			[]int{gocv.IMWriteJpegQuality, quality})
		if err != nil {
			return nil, fmt.Errorf("encoding jpeg at quality %d: %w", quality, err)
		}
		data := append([]byte(nil), buf.GetBytes()...)
		buf.Close()

		if len(data) <= MaxImageBytes {
			return data, nil
		}
	}
	return nil, fmt.Errorf("image does not fit %d bytes even at quality %d",
		MaxImageBytes, qualityFloor)
}

// downscale limits the longer side to maxDimension, preserving aspect.
func downscale(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	longer := w
	if h > longer {
		longer = h
	}
	if longer <= maxDimension {
		return img
	}

	factor := float64(maxDimension) / float64(longer)
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*factor), int(float64(h)*factor)))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
	return dst
}
