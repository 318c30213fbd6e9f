package history

import (
	"fmt"
	"strings"
	"time"

	"focustimer/internal/core/model"
)

// Report windows used by the history menu.
const (
	DailyDays    = 30
	WeeklyWeeks  = 30
	MonthlyCount = 12
)

// InputDateLayout is the day/month/year format typed by the user.
const InputDateLayout = "2/1/2006"

// Bucket is the total of one reporting period.
type Bucket struct {
	Label string
	// Start and End are the first and last calendar day of the period.
	Start   time.Time
	End     time.Time
	Minutes int
}

// Line formats the bucket as a report line.
func (bucket Bucket) Line() string {
	return FormatLine(bucket.Label, bucket.Minutes)
}

// totals indexes minutes by calendar day.
type totals map[string]int

func index(sessions []model.Session) totals {
	byDay := make(totals, len(sessions))
	for _, session := range sessions {
		byDay[session.Date.Format(model.DateLayout)] += session.Minutes
	}
	return byDay
}

// sum adds the minutes of every day in [start, end].
func (byDay totals) sum(start, end time.Time) int {
	minutes := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		minutes += byDay[day.Format(model.DateLayout)]
	}
	return minutes
}

// ForDate returns the minutes recorded on the calendar day of date.
func ForDate(sessions []model.Session, date time.Time) int {
	return index(sessions)[date.Format(model.DateLayout)]
}

// Daily returns the non-empty days among the last DailyDays days, oldest first.
func Daily(sessions []model.Session, today time.Time) []Bucket {
	byDay := index(sessions)
	today = model.DateOf(today)

	var buckets []Bucket
	for i := DailyDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		label := day.Format(model.DateLayout)
		if minutes := byDay[label]; minutes > 0 {
			buckets = append(buckets, Bucket{Label: label, Start: day, End: day, Minutes: minutes})
		}
	}
	return buckets
}

// WeekStart returns the Monday of the week containing day.
func WeekStart(day time.Time) time.Time {
	day = model.DateOf(day)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// Weekly returns the non-empty Monday-start weeks among the last WeeklyWeeks weeks,
// oldest first.
func Weekly(sessions []model.Session, today time.Time) []Bucket {
	byDay := index(sessions)
	current := WeekStart(today)

	var buckets []Bucket
	for i := WeeklyWeeks - 1; i >= 0; i-- {
		start := current.AddDate(0, 0, -7*i)
		end := start.AddDate(0, 0, 6)
		if minutes := byDay.sum(start, end); minutes > 0 {
			buckets = append(buckets, Bucket{
				Label:   start.Format(model.DateLayout) + " ~ " + end.Format(model.DateLayout),
				Start:   start,
				End:     end,
				Minutes: minutes,
			})
		}
	}
	return buckets
}

// Monthly returns the non-empty calendar months among the last MonthlyCount months,
// oldest first.
func Monthly(sessions []model.Session, today time.Time) []Bucket {
	byDay := index(sessions)
	current := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())

	var buckets []Bucket
	for i := MonthlyCount - 1; i >= 0; i-- {
		start := current.AddDate(0, -i, 0)
		end := start.AddDate(0, 1, -1)
		if minutes := byDay.sum(start, end); minutes > 0 {
			buckets = append(buckets, Bucket{Label: start.Format("2006-01"), Start: start, End: end, Minutes: minutes})
		}
	}
	return buckets
}

// FormatLine renders "<label> = <m> minutes | <h.h> hours | <bars>" with one bar per
// full ten minutes.
func FormatLine(label string, minutes int) string {
	bars := ""
	if minutes > 0 {
		bars = strings.Repeat("#", minutes/10)
	}
	return fmt.Sprintf("%s = %d minutes | %.1f hours | %s", label, minutes, float64(minutes)/60, bars)
}

// ParseDate parses a DD/MM/YYYY date in the local time zone.
func ParseDate(input string) (time.Time, error) {
	date, err := time.ParseInLocation(InputDateLayout, strings.TrimSpace(input), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: use DD/MM/YYYY (for example 16/02/2026)", input)
	}
	return date, nil
}
