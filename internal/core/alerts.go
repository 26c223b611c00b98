package core

import "time"

// PendingClosingTemplates selects templates whose billing cycle closes today
// and which have no instance in the selected period yet. These surface as a
// dashboard warning asking the user to confirm the amount and generate.
//
// The closing date is built from the selected period's year/month and the
// template's closing day, but compared against the wall-clock "today". When
// the user browses a past or future period the two mix; that behavior is kept
// deliberately. A closing day past the month's end rolls into the next month
// (time.Date normalization), also kept.
func PendingClosingTemplates(templates []RecurringTemplate, expenses []Expense, period Period, now time.Time) []RecurringTemplate {
	instances := IndexInstances(expenses)
	today := Date{Time: now}

	var out []RecurringTemplate
	for _, t := range templates {
		closing := Date{Time: time.Date(period.Start.Year(), period.Start.Time.Month(), t.ClosingDay,
			0, 0, 0, 0, now.Location())}
		if !closing.SameDay(today) {
			continue
		}
		if instances.MonthInstance(t.ID, period) != nil {
			continue
		}
		out = append(out, t)
	}
	return out
}
