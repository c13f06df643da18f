// Command sharepack builds a share payload from a saved session: a JSON
// snapshot of the calibration and rays plus a size-capped JPEG of the photo.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"offside-checker/internal/app"
	offimage "offside-checker/internal/image"
	"offside-checker/internal/project"
	"offside-checker/internal/share"
)

func main() {
	sessionPath := flag.String("session", "", "Path to a saved .offside session")
	outPath := flag.String("out", "", "Output JSON path (default: <session>.json)")
	flag.Parse()

	if *sessionPath == "" {
		fmt.Println("Usage: sharepack -session <path.offside> [-out snapshot.json]")
		os.Exit(1)
	}

	f, err := project.Load(*sessionPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load session: %v\n", err)
		os.Exit(1)
	}

	layer, err := offimage.Load(f.ImagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image %s: %v\n", f.ImagePath, err)
		os.Exit(1)
	}

	state := app.NewState()
	state.SetImage(layer)
	f.Apply(state)

	fmt.Printf("Loaded session: %d calibration points, %d rays, image %dx%d\n",
		len(f.Calibration), len(f.Rays), layer.Width(), layer.Height())
	if vp := state.VanishingPoint(); vp != nil {
		fmt.Printf("Vanishing point: (%.1f, %.1f)\n", vp.X, vp.Y)
	}

	payload, err := share.Build(state)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build payload: %v\n", err)
		os.Exit(1)
	}

	dest := *outPath
	if dest == "" {
		dest = strings.TrimSuffix(*sessionPath, project.Extension) + ".json"
	}
	if err := payload.Write(dest); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write payload: %v\n", err)
		os.Exit(1)
	}

	jpegPath := strings.TrimSuffix(dest, filepath.Ext(dest)) + ".jpg"
	fmt.Printf("Wrote %s and %s (%d bytes JPEG)\n", dest, jpegPath, len(payload.ImageJPEG))
}
