package menu

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"focustimer/internal/core/history"
	"focustimer/internal/core/model"
	"focustimer/internal/core/timekeeper"
	"focustimer/internal/session"
	"focustimer/internal/storage"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-hclog"
)

// SessionRunner runs one session to completion.
type SessionRunner interface {
	Run(ctx context.Context, plan model.Plan, observe func(timekeeper.Snapshot)) (session.Outcome, error)
}

// HistoryLoader reads the history log.
type HistoryLoader interface {
	Load(ctx context.Context) ([]model.Session, error)
	ByDate(ctx context.Context, date time.Time) ([]model.Session, error)
}

// Options configures the menu model.
type Options struct {
	Context context.Context
	Runner  SessionRunner
	History HistoryLoader
	Presets []int
	Now     func() time.Time
	Logger  hclog.Logger
}

type screen int

const (
	screenMain screen = iota
	screenType
	screenDuration
	screenCustom
	screenConfirm
	screenRunning
	screenResult
	screenHistory
	screenDate
	screenReport
)

type item struct {
	key   string
	label string
}

type sessionDoneMsg struct {
	outcome session.Outcome
	err     error
}

type reportMsg struct {
	report  history.Report
	warning string
}

// Model is the interactive terminal menu.
type Model struct {
	ctx     context.Context
	runner  SessionRunner
	history HistoryLoader
	presets []int
	now     func() time.Time
	logger  hclog.Logger

	screen    screen
	cursor    int
	objective string
	kind      model.SessionType
	minutes   int
	input     textinput.Model
	problem   string
	notice    string

	keys keyMap
	help help.Model

	snapshot      timekeeper.Snapshot
	outcome       session.Outcome
	runErr        error
	report        history.Report
	warning       string
	cancelSession context.CancelFunc
	quitAfterRun  bool
	quitting      bool
}

// New creates the menu model.
func New(options Options) *Model {
	if options.Context == nil {
		options.Context = context.Background()
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.Logger == nil {
		options.Logger = hclog.NewNullLogger()
	}
	if len(options.Presets) == 0 {
		options.Presets = []int{15, 30, 45, 60}
	}
	return &Model{
		ctx:     options.Context,
		runner:  options.Runner,
		history: options.History,
		presets: options.Presets,
		now:     options.Now,
		logger:  options.Logger.Named("menu"),
		screen:  screenMain,
		input:   textinput.New(),
		keys:    defaultKeys(),
		help:    help.New(),
	}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case liveMsg:
		if m.screen == screenRunning {
			m.snapshot = msg.snapshot
		}
		return m, waitForSnapshot(msg.updates)
	case sessionDoneMsg:
		return m.handleSessionDone(msg)
	case reportMsg:
		m.report = msg.report
		m.warning = msg.warning
		m.screen = screenReport
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Cancel) {
		if m.screen == screenRunning {
			m.quitAfterRun = true
			m.stopSession()
			return m, nil
		}
		return m.quit()
	}

	switch m.screen {
	case screenRunning:
		return m, nil
	case screenCustom:
		return m.handleInput(msg, m.submitMinutes)
	case screenDate:
		return m.handleInput(msg, m.submitDate)
	case screenConfirm:
		return m.handleConfirm(msg)
	case screenResult:
		return m.handleAcknowledge(msg, screenMain)
	case screenReport:
		return m.handleAcknowledge(msg, screenHistory)
	}

	items := m.items()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Back):
		return m.back()
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(items)-1 {
			m.cursor++
		}
		return m, nil
	case key.Matches(msg, m.keys.Select):
		if len(items) == 0 {
			return m, nil
		}
		return m.choose(items[m.cursor].key)
	}
	pressed := msg.String()
	for _, entry := range items {
		if entry.key == pressed {
			return m.choose(pressed)
		}
	}
	return m, nil
}

func (m *Model) items() []item {
	switch m.screen {
	case screenMain:
		return []item{
			{key: "1", label: model.ObjectiveStudy},
			{key: "2", label: model.ObjectiveWork},
			{key: "3", label: model.ObjectiveOther},
			{key: "4", label: "History"},
			{key: "0", label: "Exit"},
		}
	case screenType:
		return []item{
			{key: "1", label: "Timer (countdown to zero)"},
			{key: "2", label: "Stopwatch (counts up until you finish)"},
			{key: "0", label: "Back"},
		}
	case screenDuration:
		items := make([]item, 0, len(m.presets)+2)
		for i, minutes := range m.presets {
			items = append(items, item{key: strconv.Itoa(i + 1), label: fmt.Sprintf("%d minutes", minutes)})
		}
		items = append(items,
			item{key: strconv.Itoa(len(m.presets) + 1), label: "Custom duration"},
			item{key: "0", label: "Back"},
		)
		return items
	case screenHistory:
		return []item{
			{key: "1", label: fmt.Sprintf("Daily (last %d days)", history.DailyDays)},
			{key: "2", label: fmt.Sprintf("Weekly (last %d weeks)", history.WeeklyWeeks)},
			{key: "3", label: fmt.Sprintf("Monthly (last %d months)", history.MonthlyCount)},
			{key: "4", label: "Specific date"},
			{key: "0", label: "Back"},
		}
	}
	return nil
}

func (m *Model) choose(hotkey string) (tea.Model, tea.Cmd) {
	m.problem = ""
	switch m.screen {
	case screenMain:
		m.notice = ""
		switch hotkey {
		case "1":
			return m.pickObjective(model.ObjectiveStudy)
		case "2":
			return m.pickObjective(model.ObjectiveWork)
		case "3":
			return m.pickObjective(model.ObjectiveOther)
		case "4":
			m.goTo(screenHistory)
		case "0":
			return m.quit()
		}
	case screenType:
		switch hotkey {
		case "1":
			m.kind = model.SessionTimer
			m.goTo(screenDuration)
		case "2":
			m.kind = model.SessionStopwatch
			m.minutes = 0
			m.goTo(screenConfirm)
		case "0":
			return m.back()
		}
	case screenDuration:
		if hotkey == "0" {
			return m.back()
		}
		choice, err := strconv.Atoi(hotkey)
		if err != nil {
			return m, nil
		}
		if choice >= 1 && choice <= len(m.presets) {
			m.minutes = m.presets[choice-1]
			m.goTo(screenConfirm)
		} else if choice == len(m.presets)+1 {
			m.goTo(screenCustom)
			return m, m.focusInput("25", 4, validateMinutes)
		}
	case screenHistory:
		switch hotkey {
		case "1":
			return m, m.loadReport(history.PeriodDaily, time.Time{})
		case "2":
			return m, m.loadReport(history.PeriodWeekly, time.Time{})
		case "3":
			return m, m.loadReport(history.PeriodMonthly, time.Time{})
		case "4":
			m.goTo(screenDate)
			return m, m.focusInput("DD/MM/YYYY", len("DD/MM/YYYY"), validateDate)
		case "0":
			return m.back()
		}
	}
	return m, nil
}

func (m *Model) pickObjective(objective string) (tea.Model, tea.Cmd) {
	m.objective = objective
	m.goTo(screenType)
	return m, nil
}

func (m *Model) goTo(next screen) {
	m.screen = next
	m.cursor = 0
}

func (m *Model) back() (tea.Model, tea.Cmd) {
	m.problem = ""
	switch m.screen {
	case screenType, screenHistory:
		m.goTo(screenMain)
	case screenDuration:
		m.goTo(screenType)
	case screenCustom:
		m.goTo(screenDuration)
	case screenDate:
		m.goTo(screenHistory)
	}
	return m, nil
}

func (m *Model) focusInput(placeholder string, limit int, validate textinput.ValidateFunc) tea.Cmd {
	m.input.Reset()
	m.input.Prompt = ""
	m.input.Placeholder = placeholder
	m.input.CharLimit = limit
	m.input.Validate = validate
	m.input.Err = nil
	return m.input.Focus()
}

func (m *Model) handleInput(msg tea.KeyMsg, submit func(string) (tea.Model, tea.Cmd)) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		return submit(m.input.Value())
	case key.Matches(msg, m.keys.Back):
		m.input.Blur()
		return m.back()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) submitMinutes(value string) (tea.Model, tea.Cmd) {
	minutes, err := strconv.Atoi(value)
	if err != nil || minutes <= 0 {
		m.problem = "Enter a positive whole number of minutes."
		m.input.SetValue("")
		return m, nil
	}
	m.problem = ""
	m.minutes = minutes
	m.input.Blur()
	m.goTo(screenConfirm)
	return m, nil
}

func (m *Model) submitDate(value string) (tea.Model, tea.Cmd) {
	date, err := history.ParseDate(value)
	if err != nil {
		m.problem = "Invalid format. Use DD/MM/YYYY (for example 16/02/2026)."
		m.input.SetValue("")
		return m, nil
	}
	m.problem = ""
	m.input.Blur()
	return m, m.loadReport(history.PeriodDate, date)
}

func (m *Model) handleConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		return m.startSession()
	case key.Matches(msg, m.keys.Decline):
		m.notice = "Session cancelled."
		m.goTo(screenMain)
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	default:
		m.problem = "Press 'y' to start or 'n' to go back."
	}
	return m, nil
}

func (m *Model) handleAcknowledge(msg tea.KeyMsg, next screen) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m.quit()
	}
	m.goTo(next)
	return m, nil
}

func (m *Model) plan() model.Plan {
	return model.Plan{Objective: m.objective, Type: m.kind, Minutes: m.minutes}
}

func (m *Model) startSession() (tea.Model, tea.Cmd) {
	plan := m.plan()
	if err := plan.Validate(); err != nil {
		m.problem = err.Error()
		return m, nil
	}
	if m.runner == nil {
		m.problem = "Sessions are not available."
		return m, nil
	}

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelSession = cancel
	m.snapshot = initialSnapshot(plan)
	m.outcome = session.Outcome{}
	m.runErr = nil
	m.problem = ""
	m.goTo(screenRunning)

	updates := make(chan timekeeper.Snapshot, 8)
	runner := m.runner
	run := func() tea.Msg {
		defer close(updates)
		defer cancel()
		outcome, err := runner.Run(ctx, plan, func(snapshot timekeeper.Snapshot) {
			select {
			case updates <- snapshot:
			default:
			}
		})
		return sessionDoneMsg{outcome: outcome, err: err}
	}
	return m, tea.Batch(run, waitForSnapshot(updates))
}

func initialSnapshot(plan model.Plan) timekeeper.Snapshot {
	mode := timekeeper.ModeStopwatch
	if plan.Countdown() {
		mode = timekeeper.ModeCountdown
	}
	return timekeeper.Snapshot{Mode: mode, State: timekeeper.StateRunning, Total: plan.Duration()}
}

// waitForSnapshot delivers the next live snapshot and re-arms itself through
// Update until the channel closes.
func waitForSnapshot(updates <-chan timekeeper.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snapshot, ok := <-updates
		if !ok {
			return nil
		}
		return liveMsg{snapshot: snapshot, updates: updates}
	}
}

type liveMsg struct {
	snapshot timekeeper.Snapshot
	updates  <-chan timekeeper.Snapshot
}

func (m *Model) stopSession() {
	if m.cancelSession != nil {
		m.cancelSession()
	}
}

func (m *Model) handleSessionDone(msg sessionDoneMsg) (tea.Model, tea.Cmd) {
	m.cancelSession = nil
	m.outcome = msg.outcome
	m.runErr = msg.err
	if msg.err != nil {
		m.logger.Error("session failed", "error", msg.err)
	}
	if m.quitAfterRun {
		return m.quit()
	}
	m.goTo(screenResult)
	return m, nil
}

func (m *Model) loadReport(period history.Period, date time.Time) tea.Cmd {
	loader := m.history
	ctx := m.ctx
	today := m.now()
	logger := m.logger
	return func() tea.Msg {
		var (
			sessions []model.Session
			warning  string
		)
		if loader != nil {
			var (
				loaded []model.Session
				err    error
			)
			if period == history.PeriodDate {
				loaded, err = loader.ByDate(ctx, date)
			} else {
				loaded, err = loader.Load(ctx)
			}
			switch {
			case errors.Is(err, storage.ErrCorruptHistory):
				warning = "Warning: the history file is corrupt; showing no data."
				logger.Warn("history corrupt", "error", err)
			case err != nil:
				warning = "Warning: the history could not be read; showing no data."
				logger.Warn("history unreadable", "error", err)
			default:
				sessions = loaded
			}
		}
		report, err := history.BuildReport(period, sessions, today, date)
		if err != nil {
			warning = err.Error()
		}
		return reportMsg{report: report, warning: warning}
	}
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.stopSession()
	m.quitting = true
	return m, tea.Quit
}

func validateMinutes(value string) error {
	for _, r := range value {
		if r < '0' || r > '9' {
			return errors.New("digits only")
		}
	}
	return nil
}

func validateDate(value string) error {
	for _, r := range value {
		if (r < '0' || r > '9') && r != '/' {
			return errors.New("digits and '/' only")
		}
	}
	return nil
}
