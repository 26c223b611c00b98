package core

import "testing"

func TestIsTemplateActive(t *testing.T) {
	asOf := NewDate(2024, 3, 1)

	tests := []struct {
		name     string
		template RecurringTemplate
		want     bool
	}{
		{
			name:     "no validity window is always active",
			template: RecurringTemplate{},
			want:     true,
		},
		{
			name:     "start in the future",
			template: RecurringTemplate{StartDate: NewDate(2024, 4, 1)},
			want:     false,
		},
		{
			name:     "start exactly at period start",
			template: RecurringTemplate{StartDate: NewDate(2024, 3, 1)},
			want:     true,
		},
		{
			name:     "ended last day of february",
			template: RecurringTemplate{EndDate: NewDate(2024, 2, 29)},
			want:     false,
		},
		{
			name:     "end exactly at period start",
			template: RecurringTemplate{EndDate: NewDate(2024, 3, 1)},
			want:     true,
		},
		{
			name: "window covering the period",
			template: RecurringTemplate{
				StartDate: NewDate(2024, 1, 1),
				EndDate:   NewDate(2024, 12, 31),
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTemplateActive(tt.template, asOf); got != tt.want {
				t.Errorf("IsTemplateActive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyTemplate(t *testing.T) {
	period := ResolvePeriod(NewDate(2024, 3, 15))
	tpl := RecurringTemplate{ID: "tpl-1", Description: "internet"}

	tests := []struct {
		name     string
		template RecurringTemplate
		expenses []Expense
		want     TemplateStatus
	}{
		{
			name:     "no instance this month",
			template: tpl,
			expenses: nil,
			want:     StatusPending,
		},
		{
			name:     "instance generated but unpaid",
			template: tpl,
			expenses: []Expense{{ID: "e1", RecurringTemplateID: "tpl-1", DueDate: NewDate(2024, 3, 10)}},
			want:     StatusGenerated,
		},
		{
			name:     "instance paid",
			template: tpl,
			expenses: []Expense{{ID: "e1", RecurringTemplateID: "tpl-1", DueDate: NewDate(2024, 3, 10), Paid: true}},
			want:     StatusPaid,
		},
		{
			name:     "instance in another month does not count",
			template: tpl,
			expenses: []Expense{{ID: "e1", RecurringTemplateID: "tpl-1", DueDate: NewDate(2024, 2, 10), Paid: true}},
			want:     StatusPending,
		},
		{
			name:     "instance of another template does not count",
			template: tpl,
			expenses: []Expense{{ID: "e1", RecurringTemplateID: "tpl-2", DueDate: NewDate(2024, 3, 10)}},
			want:     StatusPending,
		},
		{
			name:     "inactive wins regardless of instances",
			template: RecurringTemplate{ID: "tpl-1", EndDate: NewDate(2024, 2, 29)},
			expenses: []Expense{{ID: "e1", RecurringTemplateID: "tpl-1", DueDate: NewDate(2024, 3, 10), Paid: true}},
			want:     StatusInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyTemplate(tt.template, period, IndexInstances(tt.expenses))
			if got != tt.want {
				t.Errorf("ClassifyTemplate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatusRank(t *testing.T) {
	order := []TemplateStatus{StatusPending, StatusGenerated, StatusPaid, StatusInactive}
	for i, s := range order {
		if s.Rank() != i {
			t.Errorf("%s.Rank() = %d, want %d", s, s.Rank(), i)
		}
	}
	if TemplateStatus("bogus").Rank() != len(order) {
		t.Error("unknown status should sort last")
	}
}

func TestSortTemplatesByStatus(t *testing.T) {
	period := ResolvePeriod(NewDate(2024, 3, 1))
	templates := []RecurringTemplate{
		{ID: "paid", Description: "a"},
		{ID: "inactive", Description: "b", EndDate: NewDate(2024, 1, 31)},
		{ID: "pending", Description: "c"},
		{ID: "generated", Description: "d"},
	}
	expenses := []Expense{
		{RecurringTemplateID: "paid", DueDate: NewDate(2024, 3, 5), Paid: true},
		{RecurringTemplateID: "generated", DueDate: NewDate(2024, 3, 8)},
	}

	SortTemplatesByStatus(templates, period, IndexInstances(expenses))

	want := []string{"pending", "generated", "paid", "inactive"}
	for i, id := range want {
		if templates[i].ID != id {
			t.Fatalf("position %d = %s, want %s", i, templates[i].ID, id)
		}
	}
}

func TestSortTemplatesByStatus_Stable(t *testing.T) {
	period := ResolvePeriod(NewDate(2024, 3, 1))
	templates := []RecurringTemplate{
		{ID: "first"},
		{ID: "second"},
		{ID: "third"},
	}

	SortTemplatesByStatus(templates, period, nil)

	for i, id := range []string{"first", "second", "third"} {
		if templates[i].ID != id {
			t.Fatalf("equal-rank templates reordered: position %d = %s", i, templates[i].ID)
		}
	}
}
