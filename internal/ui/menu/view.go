package menu

import (
	"fmt"
	"strings"
	"time"

	"focustimer/internal/core/timekeeper"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	itemStyle = lipgloss.NewStyle().
			Padding(0, 1)

	itemSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("170")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	clockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")).
			Bold(true)

	pausedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("69"))

	problemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func (m *Model) View() string {
	if m.quitting {
		return "Goodbye! Keep focusing.\n"
	}

	var body string
	switch m.screen {
	case screenMain:
		body = m.listView("FOCUS TIMER", "Choose an objective", "")
	case screenType:
		body = m.listView("NEW SESSION", "Objective: "+m.objective, "How should the session be measured?")
	case screenDuration:
		body = m.listView("TIMER", "Objective: "+m.objective, "How long?")
	case screenHistory:
		body = m.listView("HISTORY", "Choose a period", "")
	case screenCustom:
		body = m.inputView("CUSTOM DURATION", "Minutes: ")
	case screenDate:
		body = m.inputView("HISTORY BY DATE", "Date (DD/MM/YYYY): ")
	case screenConfirm:
		body = m.confirmView()
	case screenRunning:
		body = m.runningView()
	case screenResult:
		body = m.resultView()
	case screenReport:
		body = m.reportView()
	}
	return boxStyle.Render(body) + "\n"
}

func (m *Model) listView(title, subtitle, question string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(subtitle))
	b.WriteString("\n\n")
	if question != "" {
		b.WriteString(question)
		b.WriteString("\n")
	}
	for i, entry := range m.items() {
		line := fmt.Sprintf("%s. %s", entry.key, entry.label)
		if i == m.cursor {
			b.WriteString(itemSelectedStyle.Render("> " + line))
		} else {
			b.WriteString(itemStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	m.writeStatus(&b)
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys.listHelp()))
	return b.String()
}

func (m *Model) inputView(title, prompt string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")
	b.WriteString(prompt)
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.input.Err != nil {
		b.WriteString(helpStyle.Render(m.input.Err.Error()))
		b.WriteString("\n")
	}
	m.writeStatus(&b)
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys.inputHelp()))
	return b.String()
}

func (m *Model) confirmView() string {
	plan := m.plan()
	var b strings.Builder
	b.WriteString(titleStyle.Render("CONFIRM"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Objective: %s\n", plan.Objective)
	fmt.Fprintf(&b, "Type:      %s\n", plan.Type.Label())
	if plan.Countdown() {
		fmt.Fprintf(&b, "Duration:  %d minutes\n", plan.Minutes)
	} else {
		b.WriteString("Duration:  until you press Finish\n")
	}
	m.writeStatus(&b)
	b.WriteString("\n")
	b.WriteString("Start session?\n")
	b.WriteString(m.help.View(m.keys.confirmHelp()))
	return b.String()
}

func (m *Model) runningView() string {
	snapshot := m.snapshot
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s - %s", strings.ToUpper(m.kind.Label()), m.objective)))
	b.WriteString("\n\n")
	clock := formatClock(snapshot.Display())
	if snapshot.State == timekeeper.StatePaused {
		b.WriteString(pausedStyle.Render(clock + "  PAUSED"))
	} else {
		b.WriteString(clockStyle.Render(clock))
	}
	b.WriteString("\n")
	if snapshot.Mode == timekeeper.ModeCountdown {
		b.WriteString(progressBar(snapshot.Segments()))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("Use the floating window to pause or finish • ctrl+c: cancel"))
	return b.String()
}

func (m *Model) resultView() string {
	outcome := m.outcome
	var b strings.Builder
	b.WriteString(titleStyle.Render("SESSION OVER"))
	b.WriteString("\n\n")
	switch {
	case m.runErr != nil:
		b.WriteString(problemStyle.Render("The session could not run: " + m.runErr.Error()))
	case outcome.State == timekeeper.StateCancelled:
		b.WriteString(noticeStyle.Render("Session cancelled. Nothing was recorded."))
	case outcome.SaveErr != nil:
		b.WriteString(problemStyle.Render(fmt.Sprintf("Could not save %d minutes: %v", outcome.Minutes, outcome.SaveErr)))
	case outcome.State == timekeeper.StateCompleted:
		b.WriteString(noticeStyle.Render(fmt.Sprintf("Time is up! Session saved: %d minutes of %s.", outcome.Minutes, outcome.Plan.Objective)))
	default:
		b.WriteString(noticeStyle.Render(fmt.Sprintf("Session finished. Session saved: %d minutes of %s.", outcome.Minutes, outcome.Plan.Objective)))
	}
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("any key: back to menu • q: quit"))
	return b.String()
}

func (m *Model) reportView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.report.Title))
	b.WriteString("\n\n")
	if m.warning != "" {
		b.WriteString(problemStyle.Render(m.warning))
		b.WriteString("\n")
	}
	if len(m.report.Lines) == 0 {
		b.WriteString(helpStyle.Render(m.report.Empty))
		b.WriteString("\n")
	}
	for _, line := range m.report.Lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("any key: back • q: quit"))
	return b.String()
}

func (m *Model) writeStatus(b *strings.Builder) {
	if m.problem != "" {
		b.WriteString("\n")
		b.WriteString(problemStyle.Render(m.problem))
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}
}

func formatClock(value time.Duration) string {
	total := int(value / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

func progressBar(filled int) string {
	return "[" + strings.Repeat("#", filled) + strings.Repeat("·", timekeeper.ProgressSegments-filled) + "]"
}
