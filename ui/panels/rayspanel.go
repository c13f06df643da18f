// Package panels provides the side panels of the main window.
package panels

import (
	"fmt"

	"offside-checker/internal/app"
	"offside-checker/pkg/colorutil"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// RaysPanel lists the drawn offside rays with per-ray delete buttons.
type RaysPanel struct {
	state *app.State

	list        *widget.List
	countLabel  *widget.Label
	clearBtn    *widget.Button
	statusLabel *widget.Label
	box         *fyne.Container

	rays []app.OffsideRay
}

// NewRaysPanel creates the rays panel and subscribes it to state changes.
func NewRaysPanel(state *app.State) *RaysPanel {
	rp := &RaysPanel{state: state}

	rp.countLabel = widget.NewLabel("Rays: 0")
	rp.statusLabel = widget.NewLabel("Load an image to begin")
	rp.statusLabel.Wrapping = fyne.TextWrapWord

	rp.list = widget.NewList(
		func() int { return len(rp.rays) },
		func() fyne.CanvasObject {
			swatch := canvas.NewRectangle(colorutil.White)
			swatch.SetMinSize(fyne.NewSize(16, 16))
			label := widget.NewLabel("ray")
			del := widget.NewButtonWithIcon("", theme.DeleteIcon(), nil)
			return container.NewBorder(nil, nil, swatch, del, label)
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id < 0 || id >= len(rp.rays) {
				return
			}
			ray := rp.rays[id]
			row := obj.(*fyne.Container)
			swatch := row.Objects[1].(*canvas.Rectangle)
			del := row.Objects[2].(*widget.Button)
			label := row.Objects[0].(*widget.Label)

			swatch.FillColor = ray.Color
			swatch.Refresh()
			label.SetText(fmt.Sprintf("%s  (%.0f, %.0f)", ray.ID, ray.Through.X, ray.Through.Y))
			rayID := ray.ID
			del.OnTapped = func() {
				rp.state.RemoveRay(rayID)
			}
		},
	)

	rp.clearBtn = widget.NewButton("Clear All Rays", func() {
		rp.state.ClearRays()
	})

	header := container.NewVBox(
		widget.NewLabelWithStyle("Offside Rays", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		rp.countLabel,
		rp.statusLabel,
	)
	footer := container.NewVBox(rp.clearBtn)
	rp.box = container.NewBorder(header, footer, nil, nil, rp.list)

	for _, ev := range []app.EventType{
		app.EventImageLoaded,
		app.EventModeChanged,
		app.EventCalibrationChanged,
		app.EventRaysChanged,
	} {
		state.AddListener(ev, rp.refresh)
	}
	rp.refresh()

	return rp
}

// Container returns the panel's root container.
func (rp *RaysPanel) Container() fyne.CanvasObject {
	return rp.box
}

func (rp *RaysPanel) refresh() {
	rp.rays = rp.state.Rays()
	rp.countLabel.SetText(fmt.Sprintf("Rays: %d", len(rp.rays)))
	rp.statusLabel.SetText(rp.statusText())
	rp.clearBtn.Disable()
	if len(rp.rays) > 0 {
		rp.clearBtn.Enable()
	}
	rp.list.Refresh()
}

func (rp *RaysPanel) statusText() string {
	switch rp.state.Mode() {
	case app.ModeCalibrating:
		n := len(rp.state.Calibration().Points)
		if rp.state.ParallelError() {
			return "Calibration lines are parallel. Drag a point to fix."
		}
		return fmt.Sprintf("Calibrating: %d of 4 points placed", n)
	case app.ModeRayDrawing:
		return "Tap the image to draw an offside ray"
	default:
		return "Load an image to begin"
	}
}
