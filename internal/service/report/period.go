package report

import (
	"fmt"
	"time"

	"github.com/jwalitptl/feedback-api/internal/model"
)

// Period is an inclusive range of calendar days.
type Period struct {
	Start time.Time
	End   time.Time
}

// PeriodFor derives the reporting period of t that contains today.
func PeriodFor(t model.ReportType, today time.Time) (Period, error) {
	d := dateOf(today)
	switch t {
	case model.ReportDaily:
		return Period{Start: d, End: d}, nil
	case model.ReportWeekly:
		// weeks run Monday to Sunday
		offset := (int(d.Weekday()) + 6) % 7
		start := d.AddDate(0, 0, -offset)
		return Period{Start: start, End: start.AddDate(0, 0, 6)}, nil
	case model.ReportMonthly:
		start := date(d.Year(), d.Month(), 1)
		return Period{Start: start, End: start.AddDate(0, 1, -1)}, nil
	case model.ReportQuarterly:
		first := time.Month((int(d.Month())-1)/3*3 + 1)
		start := date(d.Year(), first, 1)
		return Period{Start: start, End: start.AddDate(0, 3, -1)}, nil
	case model.ReportAnnual:
		return Period{Start: date(d.Year(), time.January, 1), End: date(d.Year(), time.December, 31)}, nil
	case model.ReportAdhoc:
		return Period{}, fmt.Errorf("ad hoc reports need an explicit period")
	default:
		return Period{}, fmt.Errorf("unknown report type %q", t)
	}
}

// resolvePeriod uses the given bounds when both are present and derives them
// from the type otherwise.
func resolvePeriod(t model.ReportType, start, end *time.Time, today time.Time) (Period, error) {
	if start != nil && end != nil {
		p := Period{Start: dateOf(*start), End: dateOf(*end)}
		if p.End.Before(p.Start) {
			return Period{}, fmt.Errorf("period end must not be before period start")
		}
		return p, nil
	}
	return PeriodFor(t, today)
}

// Bounds returns the instants covering every moment of the period.
func (p Period) Bounds() (time.Time, time.Time) {
	return p.Start, p.End.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func (p Period) String() string {
	if p.Start.Equal(p.End) {
		return p.Start.Format(time.DateOnly)
	}
	return p.Start.Format(time.DateOnly) + " to " + p.End.Format(time.DateOnly)
}

// dateOf is the UTC calendar day of t, whatever the server's zone.
func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return date(t.Year(), t.Month(), t.Day())
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
