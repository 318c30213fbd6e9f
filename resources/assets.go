package resources

import (
	"embed"
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
)

const iconDir = "icons/"

// Icon file names.
const (
	AppIconFile        = "app.svg"
	TrayIconFile       = "tray.svg"
	TrayActiveIconFile = "tray_active.svg"
)

//go:embed icons/*.svg
var iconFS embed.FS

var iconCache sync.Map

// Icon returns a Fyne resource for the given icon file.
func Icon(fileName string) (fyne.Resource, error) {
	return loadResource(iconFS, iconDir+fileName, &iconCache)
}

// MustIcon returns a Fyne resource or panics on error.
func MustIcon(fileName string) fyne.Resource {
	resource, err := Icon(fileName)
	if err != nil {
		panic(err)
	}
	return resource
}

// AppIcon is the window and application icon.
func AppIcon() fyne.Resource { return MustIcon(AppIconFile) }

// TrayIcon is shown in the system tray while no session runs.
func TrayIcon() fyne.Resource { return MustIcon(TrayIconFile) }

// TrayActiveIcon is shown in the system tray during a session.
func TrayActiveIcon() fyne.Resource { return MustIcon(TrayActiveIconFile) }

func loadResource(fs embed.FS, path string, cache *sync.Map) (fyne.Resource, error) {
	if cached, ok := cache.Load(path); ok {
		return cached.(fyne.Resource), nil
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load resource %s: %w", path, err)
	}

	resource := fyne.NewStaticResource(path, data)
	cache.Store(path, resource)
	return resource, nil
}
