package project

import (
	"image"
	"path/filepath"
	"testing"

	"offside-checker/internal/app"
	appimage "offside-checker/internal/image"
	"offside-checker/pkg/geometry"
)

func TestSessionRoundTrip(t *testing.T) {
	st := app.NewState()
	st.View().SetCanvasSize(800, 600)
	st.SetImage(appimage.FromImage(image.NewRGBA(image.Rect(0, 0, 640, 480))))
	for _, p := range []geometry.Point2D{
		geometry.NewPoint2D(0, 0), geometry.NewPoint2D(10, 10),
		geometry.NewPoint2D(0, 10), geometry.NewPoint2D(10, 0),
	} {
		st.AddPoint(p)
	}
	st.AddPoint(geometry.NewPoint2D(120, 80))

	path := filepath.Join(t.TempDir(), "match"+Extension)
	if err := FromState(st).Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	restored := app.NewState()
	restored.View().SetCanvasSize(800, 600)
	restored.SetImage(appimage.FromImage(image.NewRGBA(image.Rect(0, 0, 640, 480))))
	loaded.Apply(restored)

	if restored.Mode() != app.ModeRayDrawing {
		t.Errorf("expected ray-drawing after restore, got %v", restored.Mode())
	}
	if restored.VanishingPoint() == nil {
		t.Fatal("vanishing point must be re-derived on restore")
	}
	rays := restored.Rays()
	if len(rays) != 1 {
		t.Fatalf("expected 1 restored ray, got %d", len(rays))
	}
	orig := st.Rays()[0]
	if rays[0].ID != orig.ID || rays[0].Color != orig.Color {
		t.Error("ray id and color must survive the round trip")
	}

	// New rays after a restore must not collide with restored ids.
	restored.AddPoint(geometry.NewPoint2D(300, 300))
	all := restored.Rays()
	if all[0].ID == all[1].ID {
		t.Errorf("duplicate ray id after restore: %q", all[1].ID)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.offside")); err == nil {
		t.Error("expected an error for a missing session file")
	}
}
