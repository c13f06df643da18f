// Package project provides session file handling and persistence.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"offside-checker/internal/app"
	"offside-checker/pkg/colorutil"
	"offside-checker/pkg/geometry"
)

// Extension is the session file suffix.
const Extension = ".offside"

// Ray is the serialized form of an offside ray in a session file.
type Ray struct {
	ID      string           `json:"id"`
	Through geometry.Point2D `json:"through"`
	Color   string           `json:"color"`
}

// File represents an offside checker session file.
type File struct {
	Version  int       `json:"version"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	// Image path (relative to the session file when possible)
	ImagePath string `json:"image,omitempty"`

	Calibration    []geometry.Point2D `json:"calibration"`
	VanishingPoint *geometry.Point2D  `json:"vanishing_point,omitempty"`
	Rays           []Ray              `json:"rays,omitempty"`
}

// New creates an empty session file for an image.
func New(imagePath string) *File {
	now := time.Now()
	return &File{
		Version:   1,
		Created:   now,
		Modified:  now,
		ImagePath: imagePath,
	}
}

// FromState captures the current calibration and rays into a session file.
func FromState(st *app.State) *File {
	f := New("")
	if layer := st.Image(); layer != nil {
		f.ImagePath = layer.Path
	}
	f.Calibration = st.Calibration().Points
	f.VanishingPoint = st.VanishingPoint()
	for _, r := range st.Rays() {
		f.Rays = append(f.Rays, Ray{
			ID:      r.ID,
			Through: r.Through,
			Color:   colorutil.Hex(r.Color),
		})
	}
	return f
}

// Apply restores the file's calibration and rays into the state. The image
// must already be loaded.
func (f *File) Apply(st *app.State) {
	rays := make([]app.OffsideRay, 0, len(f.Rays))
	for _, r := range f.Rays {
		c, _ := colorutil.ParseHex(r.Color)
		rays = append(rays, app.OffsideRay{ID: r.ID, Through: r.Through, Color: c})
	}
	st.Restore(f.Calibration, rays)
}

// Load reads a session file from disk.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing session %s: %w", filepath.Base(path), err)
	}
	return &f, nil
}

// Save writes the session file to disk.
func (f *File) Save(path string) error {
	f.Modified = time.Now()
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
