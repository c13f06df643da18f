// Package main provides the entry point for the Offside Checker application.
package main

import (
	"log"
	"os"
	"strings"
	"time"

	"offside-checker/internal/app"
	"offside-checker/internal/project"
	"offside-checker/internal/version"
	"offside-checker/ui/mainwindow"
	"offside-checker/ui/prefs"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
)

const appTitle = "Offside Checker"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s v%s", appTitle, version.Version)

	fyneApp := fyneapp.NewWithID("offside-checker")
	fyneApp.Settings().SetTheme(&app.OffsideTheme{})

	appState := app.NewState()
	appPrefs := prefs.Load()

	win := mainwindow.New(fyneApp, appState, appPrefs)
	win.Resize(fyne.NewSize(1200, 800))

	// Handle command line arguments: a session file or an image
	if len(os.Args) > 1 {
		path := os.Args[1]
		var err error
		if strings.HasSuffix(path, project.Extension) {
			err = win.LoadSession(path)
		} else {
			err = win.LoadImage(path)
		}
		if err != nil {
			log.Printf("Failed to load %s: %v", path, err)
		}
	} else {
		win.RestoreLastImage()
	}

	setupHotReload(win)

	win.ShowAndRun()
}

// setupHotReload configures automatic restart detection when the binary is recompiled.
func setupHotReload(win *mainwindow.MainWindow) {
	reloader := app.NewHotReloader(2 * time.Second)
	if reloader == nil {
		log.Println("Hot reload: unable to determine executable path")
		return
	}

	log.Printf("Hot reload: watching %s (modified %s)",
		reloader.ExecPath(), reloader.StartupTime().Format("15:04:05"))

	reloader.OnNewBinary(func() {
		log.Println("Hot reload: newer binary detected")
		dialog.ShowConfirm("New Version Available",
			"The application binary has been updated.\nRestart now?",
			func(restart bool) {
				if restart {
					log.Println("Hot reload: restarting...")
					if err := reloader.Restart(); err != nil {
						log.Printf("Hot reload: restart failed: %v", err)
					}
					return
				}
				reloader.ResetBaseline()
				reloader.Start()
			}, win.Window)
	})

	reloader.Start()
}
