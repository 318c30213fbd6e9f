package history

import (
	"testing"
	"time"

	"focustimer/internal/core/model"
)

func TestBuildReport(t *testing.T) {
	today := day(2026, 2, 18)
	sessions := []model.Session{
		session(day(2026, 2, 16), 30),
		session(day(2026, 2, 18), 95),
	}

	tests := []struct {
		name      string
		period    Period
		date      time.Time
		wantTitle string
		wantLines []string
	}{
		{
			name:      "daily",
			period:    PeriodDaily,
			wantTitle: "DAILY HISTORY (last 30 days)",
			wantLines: []string{
				"2026-02-16 = 30 minutes | 0.5 hours | ###",
				"2026-02-18 = 95 minutes | 1.6 hours | #########",
			},
		},
		{
			name:      "weekly",
			period:    PeriodWeekly,
			wantTitle: "WEEKLY HISTORY (last 30 weeks)",
			wantLines: []string{"2026-02-16 ~ 2026-02-22 = 125 minutes | 2.1 hours | ############"},
		},
		{
			name:      "monthly",
			period:    PeriodMonthly,
			wantTitle: "MONTHLY HISTORY (last 12 months)",
			wantLines: []string{"2026-02 = 125 minutes | 2.1 hours | ############"},
		},
		{
			name:      "date",
			period:    PeriodDate,
			date:      day(2026, 2, 16),
			wantTitle: "HISTORY FOR 16/02/2026",
			wantLines: []string{"2026-02-16 = 30 minutes | 0.5 hours | ###"},
		},
		{
			name:      "empty date",
			period:    PeriodDate,
			date:      day(2026, 2, 17),
			wantTitle: "HISTORY FOR 17/02/2026",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := BuildReport(tt.period, sessions, today, tt.date)
			if err != nil {
				t.Fatalf("BuildReport: %v", err)
			}
			if report.Title != tt.wantTitle {
				t.Fatalf("title = %q want %q", report.Title, tt.wantTitle)
			}
			if len(report.Lines) != len(tt.wantLines) {
				t.Fatalf("lines = %q want %q", report.Lines, tt.wantLines)
			}
			for i := range tt.wantLines {
				if report.Lines[i] != tt.wantLines[i] {
					t.Fatalf("line %d = %q want %q", i, report.Lines[i], tt.wantLines[i])
				}
			}
			if report.Empty == "" {
				t.Fatalf("empty message missing")
			}
		})
	}
}

func TestBuildReportUnknownPeriod(t *testing.T) {
	if _, err := BuildReport("yearly", nil, day(2026, 2, 18), time.Time{}); err == nil {
		t.Fatalf("expected error for unknown period")
	}
}
