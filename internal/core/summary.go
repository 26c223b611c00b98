package core

import "math"

// MonthlySummary aggregates one reporting period. All amounts share the same
// currency minor unit, so Pending == Total - Paid holds exactly.
type MonthlySummary struct {
	Total             Money
	Paid              Money
	Pending           Money
	Recurring         Money
	ExpectedRecurring Money
	Income            Money
}

// SummaryOptions tunes the aggregation.
type SummaryOptions struct {
	// ExcludeInactiveForecast drops templates outside their validity window
	// from ExpectedRecurring. Off by default: an ended template without a
	// same-month instance still inflates the forecast, matching the
	// historical behavior.
	ExcludeInactiveForecast bool
}

// Summarize aggregates expenses, incomes and template forecasts for one
// period. Pure: identical inputs always produce identical output.
func Summarize(period Period, expenses []Expense, incomes []Income, templates []RecurringTemplate, opts SummaryOptions) MonthlySummary {
	var s MonthlySummary
	instances := IndexInstances(expenses)

	for _, e := range expenses {
		if !period.Contains(e.DueDate) {
			continue
		}
		s.Total.Cents += e.Amount.Cents
		if e.Paid {
			s.Paid.Cents += e.Amount.Cents
		}
		if e.RecurringTemplateID != "" {
			s.Recurring.Cents += e.Amount.Cents
		}
	}
	// Derived, not independently summed.
	s.Pending.Cents = s.Total.Cents - s.Paid.Cents

	for _, in := range incomes {
		if period.Contains(in.Date) {
			s.Income.Cents += in.Amount.Cents
		}
	}

	// Forecast: every template without a same-month instance still owes its
	// expected amount this period.
	for _, t := range templates {
		if opts.ExcludeInactiveForecast && !IsTemplateActive(t, period.Start) {
			continue
		}
		if instances.MonthInstance(t.ID, period) == nil {
			s.ExpectedRecurring.Cents += t.ExpectedAmount.Cents
		}
	}
	return s
}

// SummaryComparison pairs the selected period with the one before it for
// month-over-month deltas.
type SummaryComparison struct {
	CurrentMonth     MonthlySummary
	PreviousMonth    MonthlySummary
	PercentageChange float64
}

// Compare summarizes the period and its predecessor and computes the total
// percentage change between them.
func Compare(period Period, expenses []Expense, incomes []Income, templates []RecurringTemplate, opts SummaryOptions) SummaryComparison {
	current := Summarize(period, expenses, incomes, templates, opts)
	previous := Summarize(period.Previous(), expenses, incomes, templates, opts)
	return SummaryComparison{
		CurrentMonth:     current,
		PreviousMonth:    previous,
		PercentageChange: PercentageChange(previous.Total.Cents, current.Total.Cents),
	}
}

// PercentageChange follows the dashboard convention: a previous total of
// zero yields 0% when the current is also zero, 100% when it is positive.
func PercentageChange(previous, current int64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	change := (float64(current) - float64(previous)) / float64(previous) * 100
	if math.IsNaN(change) {
		return 0
	}
	return change
}
