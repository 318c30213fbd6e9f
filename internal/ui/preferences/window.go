package preferences

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

var logLevels = []string{"trace", "debug", "info", "warn", "error"}

// Window handles the preferences UI.
type Window struct {
	window      fyne.Window
	settings    Settings
	onSave      func(Settings)
	historyPath *widget.Entry
	backend     *widget.Select
	presets     *widget.Entry
	opacity     *widget.Slider
	onTop       *widget.Check
	notify      *widget.Check
	bell        *widget.Check
	idleCheck   *widget.Check
	idleAfter   *widget.Entry
	logLevel    *widget.Select
	status      *widget.Label
}

// New creates a preferences window.
func New(app fyne.App, settings Settings, onSave func(Settings)) *Window {
	window := app.NewWindow("focustimer Settings")

	historyPath := widget.NewEntry()
	backend := widget.NewSelect([]string{BackendJSON, BackendSQLite}, nil)
	presets := widget.NewEntry()
	presets.SetPlaceHolder("15, 30, 45, 60")

	opacity := widget.NewSlider(MinOpacity, MaxOpacity)
	opacity.Step = 0.05

	onTop := widget.NewCheck("Keep the timer window on top", nil)
	notify := widget.NewCheck("Desktop notification when a timer ends", nil)
	bell := widget.NewCheck("Bell when a timer ends", nil)
	idleCheck := widget.NewCheck("Pause automatically when idle", nil)
	idleAfter := widget.NewEntry()
	logLevel := widget.NewSelect(logLevels, nil)
	status := widget.NewLabel("")

	form := container.NewVBox(
		widget.NewLabelWithStyle("History", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabel("History file"),
		historyPath,
		container.NewHBox(widget.NewLabel("Backend"), backend),
		widget.NewLabelWithStyle("Sessions", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewBorder(nil, nil, widget.NewLabel("Presets (min)"), nil, presets),
		idleCheck,
		container.NewHBox(widget.NewLabel("Idle after"), idleAfter, widget.NewLabel("min")),
		widget.NewLabelWithStyle("Timer window", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabel("Opacity"),
		opacity,
		onTop,
		notify,
		bell,
		container.NewHBox(widget.NewLabel("Log level"), logLevel),
		status,
	)

	saveButton := widget.NewButton("Save", nil)
	saveButton.Importance = widget.HighImportance
	cancelButton := widget.NewButton("Cancel", nil)
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	content := container.NewBorder(nil, buttons, nil, nil, container.NewVScroll(form))
	window.SetContent(content)
	window.Resize(fyne.NewSize(440, 520))
	window.SetCloseIntercept(window.Hide)

	prefs := &Window{
		window:      window,
		onSave:      onSave,
		historyPath: historyPath,
		backend:     backend,
		presets:     presets,
		opacity:     opacity,
		onTop:       onTop,
		notify:      notify,
		bell:        bell,
		idleCheck:   idleCheck,
		idleAfter:   idleAfter,
		logLevel:    logLevel,
		status:      status,
	}
	prefs.UpdateSettings(settings)

	saveButton.OnTapped = prefs.handleSave
	cancelButton.OnTapped = func() {
		prefs.UpdateSettings(prefs.settings)
		window.Hide()
	}

	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// Settings returns the last saved settings.
func (prefs *Window) Settings() Settings {
	return prefs.settings.Clone()
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings Settings) {
	prefs.settings = settings.Clone()
	prefs.historyPath.SetText(settings.HistoryPath)
	prefs.backend.SetSelected(settings.Backend)
	prefs.presets.SetText(FormatPresets(settings.Presets))
	prefs.opacity.Value = settings.OverlayOpacity
	prefs.opacity.Refresh()
	prefs.onTop.SetChecked(settings.AlwaysOnTop)
	prefs.notify.SetChecked(settings.Notify)
	prefs.bell.SetChecked(settings.Bell)
	prefs.idleCheck.SetChecked(settings.IdlePauseEnabled)
	prefs.idleAfter.SetText(strconv.Itoa(int(settings.IdlePauseAfter / time.Minute)))
	prefs.logLevel.SetSelected(settings.LogLevel)
	prefs.status.SetText("")
}

func (prefs *Window) handleSave() {
	settings := prefs.settings.Clone()

	if path := strings.TrimSpace(prefs.historyPath.Text); path != "" {
		settings.HistoryPath = path
	}
	if ValidBackend(prefs.backend.Selected) {
		settings.Backend = prefs.backend.Selected
	}
	presets, err := ParsePresets(prefs.presets.Text)
	if err != nil {
		prefs.status.SetText(err.Error())
		return
	}
	settings.Presets = presets

	settings.OverlayOpacity = prefs.opacity.Value
	settings.AlwaysOnTop = prefs.onTop.Checked
	settings.Notify = prefs.notify.Checked
	settings.Bell = prefs.bell.Checked
	settings.IdlePauseEnabled = prefs.idleCheck.Checked
	if minutes, ok := parsePositiveInt(prefs.idleAfter.Text); ok {
		settings.IdlePauseAfter = time.Duration(minutes) * time.Minute
	}
	if prefs.logLevel.Selected != "" {
		settings.LogLevel = prefs.logLevel.Selected
	}

	prefs.settings = settings
	prefs.status.SetText("")
	if prefs.onSave != nil {
		prefs.onSave(settings.Clone())
	}
	prefs.window.Hide()
}

// ParsePresets reads a comma separated list of positive minute values.
func ParsePresets(value string) ([]int, error) {
	var presets []int
	for _, field := range strings.Split(value, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		minutes, ok := parsePositiveInt(field)
		if !ok {
			return nil, fmt.Errorf("preset %q is not a positive number of minutes", field)
		}
		presets = append(presets, minutes)
	}
	if len(presets) == 0 {
		return nil, fmt.Errorf("at least one preset is required")
	}
	return presets, nil
}

// FormatPresets renders presets the way ParsePresets reads them.
func FormatPresets(presets []int) string {
	fields := make([]string, len(presets))
	for i, minutes := range presets {
		fields[i] = strconv.Itoa(minutes)
	}
	return strings.Join(fields, ", ")
}

func parsePositiveInt(value string) (int, bool) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}
