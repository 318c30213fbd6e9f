package history

import (
	"fmt"
	"time"

	"focustimer/internal/core/model"
)

// Period selects a history report.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodDate    Period = "date"
)

// Report is a rendered history view.
type Report struct {
	Title string
	Lines []string
	// Empty is shown instead of Lines when there is no data.
	Empty string
}

// BuildReport aggregates sessions for period. date is only used by PeriodDate.
func BuildReport(period Period, sessions []model.Session, today, date time.Time) (Report, error) {
	var (
		report  Report
		buckets []Bucket
	)
	switch period {
	case PeriodDaily:
		report = Report{Title: fmt.Sprintf("DAILY HISTORY (last %d days)", DailyDays), Empty: fmt.Sprintf("No data recorded in the last %d days.", DailyDays)}
		buckets = Daily(sessions, today)
	case PeriodWeekly:
		report = Report{Title: fmt.Sprintf("WEEKLY HISTORY (last %d weeks)", WeeklyWeeks), Empty: fmt.Sprintf("No data recorded in the last %d weeks.", WeeklyWeeks)}
		buckets = Weekly(sessions, today)
	case PeriodMonthly:
		report = Report{Title: fmt.Sprintf("MONTHLY HISTORY (last %d months)", MonthlyCount), Empty: fmt.Sprintf("No data recorded in the last %d months.", MonthlyCount)}
		buckets = Monthly(sessions, today)
	case PeriodDate:
		shown := date.Format("02/01/2006")
		report = Report{Title: "HISTORY FOR " + shown, Empty: "No data recorded on " + shown + "."}
		if minutes := ForDate(sessions, date); minutes > 0 {
			day := model.DateOf(date)
			buckets = []Bucket{{Label: day.Format(model.DateLayout), Start: day, End: day, Minutes: minutes}}
		}
	default:
		return Report{}, fmt.Errorf("unknown history period %q", period)
	}

	for _, bucket := range buckets {
		report.Lines = append(report.Lines, bucket.Line())
	}
	return report, nil
}
