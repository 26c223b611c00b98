package core

import "sort"

// statusRank orders templates for display: the ones still needing attention
// come first. The rank values are part of the contract.
var statusRank = map[TemplateStatus]int{
	StatusPending:   0,
	StatusGenerated: 1,
	StatusPaid:      2,
	StatusInactive:  3,
}

// Rank returns the display rank of a status; unknown statuses sort last.
func (s TemplateStatus) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return len(statusRank)
}

// IsTemplateActive reports whether the template's validity window covers
// asOf. Activity is evaluated at the period start, so a window opening or
// closing mid-month counts for the whole month.
func IsTemplateActive(t RecurringTemplate, asOf Date) bool {
	if !t.StartDate.IsEmpty() && t.StartDate.After(asOf.Time) {
		return false
	}
	if !t.EndDate.IsEmpty() && t.EndDate.Before(asOf.Time) {
		return false
	}
	return true
}

// InstanceIndex groups expenses by the template that generated them, so
// classification and aggregation do a single pass over the records instead
// of one scan per template.
type InstanceIndex map[string][]Expense

// IndexInstances builds an InstanceIndex from all expenses. Manually entered
// expenses (no template reference) are skipped.
func IndexInstances(expenses []Expense) InstanceIndex {
	idx := make(InstanceIndex)
	for _, e := range expenses {
		if e.RecurringTemplateID == "" {
			continue
		}
		idx[e.RecurringTemplateID] = append(idx[e.RecurringTemplateID], e)
	}
	return idx
}

// MonthInstance returns the first instance of the template whose due date
// falls in the same month as the period start, or nil.
func (idx InstanceIndex) MonthInstance(templateID string, period Period) *Expense {
	for i, e := range idx[templateID] {
		if period.Contains(e.DueDate) {
			return &idx[templateID][i]
		}
	}
	return nil
}

// ClassifyTemplate determines the template's state for a period: inactive,
// pending (no instance yet this month), generated (instance exists, unpaid)
// or paid.
func ClassifyTemplate(t RecurringTemplate, period Period, instances InstanceIndex) TemplateStatus {
	if !IsTemplateActive(t, period.Start) {
		return StatusInactive
	}
	inst := instances.MonthInstance(t.ID, period)
	if inst == nil {
		return StatusPending
	}
	if inst.Paid {
		return StatusPaid
	}
	return StatusGenerated
}

// SortTemplatesByStatus orders templates by status rank, stable otherwise.
func SortTemplatesByStatus(templates []RecurringTemplate, period Period, instances InstanceIndex) {
	sort.SliceStable(templates, func(i, j int) bool {
		ri := ClassifyTemplate(templates[i], period, instances).Rank()
		rj := ClassifyTemplate(templates[j], period, instances).Rank()
		return ri < rj
	})
}
