package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"focustimer/internal/core/history"
	"focustimer/internal/core/model"
	"focustimer/internal/storage"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	reportTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("86")).
				Bold(true)

	reportEmptyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))

	reportWarningStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214"))
)

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	historyCmd := &cobra.Command{Use: "history", Short: "Print focus history reports"}

	periods := []struct {
		period history.Period
		short  string
	}{
		{period: history.PeriodDaily, short: fmt.Sprintf("Minutes per day for the last %d days", history.DailyDays)},
		{period: history.PeriodWeekly, short: fmt.Sprintf("Minutes per week for the last %d weeks", history.WeeklyWeeks)},
		{period: history.PeriodMonthly, short: fmt.Sprintf("Minutes per month for the last %d months", history.MonthlyCount)},
	}
	for _, entry := range periods {
		historyCmd.AddCommand(&cobra.Command{
			Use:   string(entry.period),
			Short: entry.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return printReport(cmd, flags, entry.period, time.Time{})
			},
		})
	}

	historyCmd.AddCommand(&cobra.Command{
		Use:   "date DD/MM/YYYY",
		Short: "Minutes recorded on one day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := history.ParseDate(args[0])
			if err != nil {
				return err
			}
			return printReport(cmd, flags, history.PeriodDate, date)
		},
	})
	return historyCmd
}

func printReport(cmd *cobra.Command, flags *globalFlags, period history.Period, date time.Time) error {
	env, err := loadEnvironment(flags)
	if err != nil {
		return err
	}
	defer env.Close()

	store, err := env.openHistory()
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	sessions, loadErr := loadSessions(ctx, store, period, date)
	if loadErr != nil {
		env.logger.Warn("history unreadable", "path", env.settings.HistoryPath, "error", loadErr)
		sessions = nil
	}

	report, err := history.BuildReport(period, sessions, time.Now(), date)
	if err != nil {
		return err
	}
	writeReport(cmd.OutOrStdout(), report, loadErr)
	return nil
}

func writeReport(out io.Writer, report history.Report, loadErr error) {
	_, _ = fmt.Fprintln(out, reportTitleStyle.Render(report.Title))
	switch {
	case errors.Is(loadErr, storage.ErrCorruptHistory):
		_, _ = fmt.Fprintln(out, reportWarningStyle.Render("Warning: the history file is corrupt; showing no data."))
	case loadErr != nil:
		_, _ = fmt.Fprintln(out, reportWarningStyle.Render("Warning: the history could not be read; showing no data."))
	}
	if len(report.Lines) == 0 {
		_, _ = fmt.Fprintln(out, reportEmptyStyle.Render(report.Empty))
		return
	}
	for _, line := range report.Lines {
		_, _ = fmt.Fprintln(out, line)
	}
}

// loadSessions reads only the requested day for date reports.
func loadSessions(ctx context.Context, store storage.HistoryStore, period history.Period, date time.Time) ([]model.Session, error) {
	if period == history.PeriodDate {
		return store.ByDate(ctx, date)
	}
	return store.Load(ctx)
}
