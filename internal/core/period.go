package core

import "time"

// Period is the calendar month selected for reporting. Start is the first
// instant of the month, End the last.
type Period struct {
	Start Date
	End   Date
}

// ResolvePeriod computes the reporting period for an anchor date. A zero
// anchor means "the current real-world date".
func ResolvePeriod(anchor Date) Period {
	return resolvePeriodAt(anchor, time.Now())
}

func resolvePeriodAt(anchor Date, now time.Time) Period {
	t := anchor.Time
	if anchor.IsEmpty() {
		t = now
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return Period{Start: Date{Time: start}, End: Date{Time: end}}
}

// Previous returns the period for the month before this one.
func (p Period) Previous() Period {
	return resolvePeriodAt(Date{Time: p.Start.AddDate(0, -1, 0)}, time.Time{})
}

// Contains reports whether the date falls inside the period's month.
func (p Period) Contains(d Date) bool {
	return p.Start.SameMonth(d)
}

// ClampDay replaces the day-of-month of t, clamping to the month's last day
// when day exceeds it (e.g. day 31 in February yields Feb 28/29).
func ClampDay(t Date, day int) Date {
	lastDay := time.Date(t.Year(), t.Time.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
	if day > lastDay {
		day = lastDay
	}
	return Date{Time: time.Date(t.Year(), t.Time.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())}
}
