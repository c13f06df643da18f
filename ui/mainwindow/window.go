// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"os"
	"path/filepath"

	"offside-checker/internal/app"
	offimage "offside-checker/internal/image"
	"offside-checker/internal/project"
	"offside-checker/internal/share"
	"offside-checker/internal/version"
	"offside-checker/ui/canvas"
	"offside-checker/ui/panels"
	"offside-checker/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const (
	prefKeyLastDir   = "lastDirectory"
	prefKeyLastImage = "lastImage"
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	prefs     *prefs.Prefs
	canvas    *canvas.ImageCanvas
	raysPanel *panels.RaysPanel
	statusBar *widget.Label

	sessionPath string
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow("Offside Checker")

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		prefs:  p,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.New(mw.state)
	mw.raysPanel = panels.NewRaysPanel(mw.state)

	mw.statusBar = widget.NewLabel("Open an image to begin calibration")

	toolbar := mw.createToolbar()

	// Canvas area with toolbar on top
	canvasArea := container.NewBorder(
		toolbar, // top
		nil,     // bottom
		nil,     // left
		nil,     // right
		mw.canvas,
	)

	// Main layout: rays panel | canvas area
	split := container.NewHSplit(
		mw.raysPanel.Container(),
		canvasArea,
	)
	split.SetOffset(0.22)

	content := container.NewBorder(
		nil,                               // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		split,
	)

	mw.SetContent(content)
}

// createToolbar creates the toolbar with zoom controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	openBtn := widget.NewButton("Open Image...", mw.onOpenImage)
	zoomOutBtn := widget.NewButton("-", mw.onZoomOut)
	zoomInBtn := widget.NewButton("+", mw.onZoomIn)
	resetBtn := widget.NewButton("Reset View", mw.onResetView)

	return container.NewHBox(
		openBtn,
		widget.NewSeparator(),
		widget.NewLabel("Zoom:"),
		zoomOutBtn,
		zoomInBtn,
		resetBtn,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", mw.onOpenImage),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Open Session...", mw.onOpenSession),
		fyne.NewMenuItem("Save Session", mw.onSaveSession),
		fyne.NewMenuItem("Save Session As...", mw.onSaveSessionAs),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Snapshot...", mw.onExportSnapshot),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.onZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.onZoomOut),
		fyne.NewMenuItem("Reset View", mw.onResetView),
	)

	calibrationMenu := fyne.NewMenu("Calibration",
		fyne.NewMenuItem("Restart Calibration", mw.onRestartCalibration),
		fyne.NewMenuItem("Clear Rays", mw.onClearRays),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mainMenu := fyne.NewMainMenu(fileMenu, viewMenu, calibrationMenu, helpMenu)
	mw.SetMainMenu(mainMenu)
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.AddListener(app.EventImageLoaded, mw.updateStatusFromState)
	mw.state.AddListener(app.EventModeChanged, mw.updateStatusFromState)
	mw.state.AddListener(app.EventCalibrationChanged, mw.updateStatusFromState)
	mw.state.AddListener(app.EventRaysChanged, mw.updateStatusFromState)
	mw.state.AddListener(app.EventViewChanged, mw.updateStatusFromState)
}

// updateStatusFromState rebuilds the status bar text from the model.
func (mw *MainWindow) updateStatusFromState() {
	var text string
	switch mw.state.Mode() {
	case app.ModeUploading:
		text = "Open an image to begin calibration"
	case app.ModeCalibrating:
		n := len(mw.state.Calibration().Points)
		text = fmt.Sprintf("Calibrating: %d/4 points", n)
		if mw.state.ParallelError() {
			text += "  |  lines are parallel, drag a point"
		}
	case app.ModeRayDrawing:
		text = fmt.Sprintf("Rays: %d", len(mw.state.Rays()))
		if mw.state.ParallelError() {
			text += "  |  lines are parallel, drag a point"
		}
	}
	if mw.state.Image() != nil {
		text += fmt.Sprintf("  |  zoom %.0f%%", mw.state.View().Zoom()*100)
	}
	mw.statusBar.SetText(text)
}

func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefKeyLastDir)
	if path == "" {
		return nil
	}
	uri := storage.NewFileURI(path)
	listable, err := storage.ListerForURI(uri)
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetString(prefKeyLastDir, filepath.Dir(filePath))
	if err := mw.prefs.Save(); err != nil {
		mw.updateStatus("Failed to save preferences: " + err.Error())
	}
}

// LoadImage loads an image from disk and resets the session around it.
func (mw *MainWindow) LoadImage(path string) error {
	layer, err := offimage.Load(path)
	if err != nil {
		return err
	}
	mw.state.SetImage(layer)
	mw.sessionPath = ""
	mw.prefs.SetString(prefKeyLastImage, path)
	mw.SetTitle("Offside Checker - " + filepath.Base(path))
	return nil
}

// LoadSession loads a saved session file and its image.
func (mw *MainWindow) LoadSession(path string) error {
	f, err := project.Load(path)
	if err != nil {
		return err
	}
	if err := mw.LoadImage(f.ImagePath); err != nil {
		return fmt.Errorf("session image: %w", err)
	}
	f.Apply(mw.state)
	mw.sessionPath = path
	mw.SetTitle("Offside Checker - " + filepath.Base(path))
	return nil
}

// RestoreLastImage reloads the previously opened image, if any.
func (mw *MainWindow) RestoreLastImage() {
	path := mw.prefs.String(prefKeyLastImage)
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := mw.LoadImage(path); err != nil {
		mw.updateStatus("Failed to restore image: " + err.Error())
	}
}

// Menu action handlers

func (mw *MainWindow) onOpenImage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		if err := mw.LoadImage(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(offimage.SupportedFormats()))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onOpenSession() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		if err := mw.LoadSession(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{project.Extension}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onSaveSession() {
	if mw.sessionPath == "" {
		mw.onSaveSessionAs()
		return
	}
	mw.saveSessionTo(mw.sessionPath)
}

func (mw *MainWindow) onSaveSessionAs() {
	if mw.state.Image() == nil {
		mw.updateStatus("Nothing to save yet")
		return
	}
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != project.Extension {
			path += project.Extension
		}
		mw.saveLastDir(path)
		mw.saveSessionTo(path)
	}, mw.Window)
	fd.SetFileName("session" + project.Extension)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) saveSessionTo(path string) {
	f := project.FromState(mw.state)
	if err := f.Save(path); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.sessionPath = path
	mw.SetTitle("Offside Checker - " + filepath.Base(path))
	mw.updateStatus("Session saved: " + path)
}

// onExportSnapshot writes the share payload: a JSON snapshot and a
// size-capped JPEG next to it.
func (mw *MainWindow) onExportSnapshot() {
	payload, err := share.Build(mw.state)
	if err != nil {
		mw.updateStatus("Export: " + err.Error())
		return
	}
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != ".json" {
			path += ".json"
		}
		mw.saveLastDir(path)
		if err := payload.Write(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus("Snapshot exported: " + path)
	}, mw.Window)
	fd.SetFileName("offside-snapshot.json")
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onZoomIn() {
	mw.state.View().ZoomIn()
	mw.state.NotifyViewChanged()
}

func (mw *MainWindow) onZoomOut() {
	mw.state.View().ZoomOut()
	mw.state.NotifyViewChanged()
}

func (mw *MainWindow) onResetView() {
	mw.state.View().Reset()
	mw.state.NotifyViewChanged()
}

func (mw *MainWindow) onRestartCalibration() {
	if mw.state.Image() == nil {
		return
	}
	dialog.ShowConfirm("Restart Calibration",
		"Discard the current calibration and all rays?",
		func(ok bool) {
			if ok {
				mw.state.ResetCalibration()
			}
		}, mw.Window)
}

func (mw *MainWindow) onClearRays() {
	mw.state.ClearRays()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About Offside Checker",
		fmt.Sprintf("Offside Checker v%s\n\n"+
			"Calibrate a vanishing point from two pitch lines,\n"+
			"then draw offside rays through any player.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
