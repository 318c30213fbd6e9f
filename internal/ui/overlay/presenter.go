package overlay

import (
	"sync"

	"focustimer/internal/core/model"
	"focustimer/internal/core/timekeeper"

	"fyne.io/fyne/v2"
	"github.com/hashicorp/go-hclog"
)

// Presenter opens a floating window for every session.
type Presenter struct {
	app    fyne.App
	logger hclog.Logger

	mu     sync.Mutex
	config Config
}

// NewPresenter creates a Presenter.
func NewPresenter(app fyne.App, config Config, logger hclog.Logger) *Presenter {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Presenter{app: app, config: config, logger: logger}
}

// SetConfig changes the configuration of windows opened later.
func (presenter *Presenter) SetConfig(config Config) {
	presenter.mu.Lock()
	defer presenter.mu.Unlock()
	presenter.config = config
}

// Present subscribes to keeper, opens the window and returns a channel closed once
// the window is gone.
func (presenter *Presenter) Present(plan model.Plan, keeper *timekeeper.TimeKeeper) <-chan struct{} {
	presenter.mu.Lock()
	config := presenter.config
	presenter.mu.Unlock()

	events := keeper.Subscribe(32)
	var window *Window
	fyne.DoAndWait(func() {
		window = New(presenter.app, config, plan, keeper, presenter.logger)
		window.Show()
	})
	go window.Follow(events, keeper.Snapshot, keeper.Done())
	return window.Done()
}

// opacityAlpha converts an opacity fraction to an 8-bit alpha.
func opacityAlpha(opacity float64) uint8 {
	if opacity <= 0 || opacity >= 1 {
		return 255
	}
	return uint8(opacity*255 + 0.5)
}
