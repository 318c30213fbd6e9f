package main

import (
	"context"
	"errors"
	"fmt"

	"focustimer/internal/core/model"
	"focustimer/internal/core/timekeeper"
	"focustimer/internal/session"
	"focustimer/internal/ui/menu"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

const farewell = "Goodbye! Keep focusing."

func runInteractive(cmd *cobra.Command, flags *globalFlags) error {
	return runDesktop(cmd, flags, func(ctx context.Context, host *desktopHost) error {
		menuModel := menu.New(menu.Options{
			Context: ctx,
			Runner:  host.runner,
			History: host.store,
			Presets: host.settings.Presets,
			Logger:  host.env.logger,
		})
		program := tea.NewProgram(menuModel, tea.WithAltScreen(), tea.WithContext(ctx))
		_, err := program.Run()
		if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("run menu: %w", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), farewell)
		return nil
	})
}

func newStartCmd(flags *globalFlags) *cobra.Command {
	var (
		objective string
		minutes   int
		stopwatch bool
	)

	start := &cobra.Command{
		Use:   "start --objective <name> (--minutes N | --stopwatch)",
		Short: "Run one session without the menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			plan := startPlan(objective, minutes, stopwatch)
			if err := plan.Validate(); err != nil {
				return err
			}
			return runDesktop(cmd, flags, func(ctx context.Context, host *desktopHost) error {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s session started for %s. Use the floating window to pause or finish.\n", plan.Type.Label(), plan.Objective)
				outcome, err := host.runner.Run(ctx, plan, nil)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), describeOutcome(outcome))
				return nil
			})
		},
	}
	start.Flags().StringVar(&objective, "objective", model.ObjectiveStudy, "session objective, for example Study, Work or Other")
	start.Flags().IntVar(&minutes, "minutes", 0, "countdown length in minutes")
	start.Flags().BoolVar(&stopwatch, "stopwatch", false, "count up until the session is finished")
	start.MarkFlagsMutuallyExclusive("minutes", "stopwatch")
	start.MarkFlagsOneRequired("minutes", "stopwatch")
	return start
}

func startPlan(objective string, minutes int, stopwatch bool) model.Plan {
	if stopwatch {
		return model.Plan{Objective: objective, Type: model.SessionStopwatch}
	}
	return model.Plan{Objective: objective, Type: model.SessionTimer, Minutes: minutes}
}

func describeOutcome(outcome session.Outcome) string {
	switch {
	case outcome.State == timekeeper.StateCancelled:
		return "Session cancelled. Nothing was recorded."
	case outcome.SaveErr != nil:
		return fmt.Sprintf("Could not save %d minutes of %s: %v", outcome.Minutes, outcome.Plan.Objective, outcome.SaveErr)
	case outcome.State == timekeeper.StateCompleted:
		return fmt.Sprintf("Time is up! Session saved: %d minutes of %s.", outcome.Minutes, outcome.Plan.Objective)
	default:
		return fmt.Sprintf("Session finished. Session saved: %d minutes of %s.", outcome.Minutes, outcome.Plan.Objective)
	}
}
