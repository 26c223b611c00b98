package core

import (
	"testing"
	"time"
)

func TestResolvePeriod(t *testing.T) {
	tests := []struct {
		name      string
		anchor    Date
		wantStart Date
		wantEnd   Date
	}{
		{
			name:      "mid month anchor",
			anchor:    NewDate(2024, 3, 15),
			wantStart: NewDate(2024, 3, 1),
			wantEnd:   Date{Time: time.Date(2024, 3, 31, 23, 59, 59, 999999999, time.UTC)},
		},
		{
			name:      "leap february",
			anchor:    NewDate(2024, 2, 10),
			wantStart: NewDate(2024, 2, 1),
			wantEnd:   Date{Time: time.Date(2024, 2, 29, 23, 59, 59, 999999999, time.UTC)},
		},
		{
			name:      "december wraps year",
			anchor:    NewDate(2023, 12, 31),
			wantStart: NewDate(2023, 12, 1),
			wantEnd:   Date{Time: time.Date(2023, 12, 31, 23, 59, 59, 999999999, time.UTC)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolvePeriod(tt.anchor)
			if !got.Start.Equal(tt.wantStart.Time) {
				t.Errorf("Start = %v, want %v", got.Start, tt.wantStart)
			}
			if !got.End.Equal(tt.wantEnd.Time) {
				t.Errorf("End = %v, want %v", got.End, tt.wantEnd)
			}
		})
	}
}

func TestResolvePeriod_ZeroAnchorUsesNow(t *testing.T) {
	now := time.Now()
	got := ResolvePeriod(Date{})
	if got.Start.Year() != now.Year() || got.Start.Time.Month() != now.Month() {
		t.Errorf("zero anchor resolved to %v, want current month", got.Start)
	}
	if got.Start.Day() != 1 {
		t.Errorf("Start day = %d, want 1", got.Start.Day())
	}
}

func TestPeriodPrevious(t *testing.T) {
	p := ResolvePeriod(NewDate(2024, 1, 20))
	prev := p.Previous()
	if prev.Start.Year() != 2023 || prev.Start.Time.Month() != time.December {
		t.Errorf("Previous().Start = %v, want December 2023", prev.Start)
	}
}

func TestPeriodContains(t *testing.T) {
	p := ResolvePeriod(NewDate(2024, 4, 1))
	if !p.Contains(NewDate(2024, 4, 30)) {
		t.Error("April 30 should be inside the April period")
	}
	if p.Contains(NewDate(2024, 3, 31)) {
		t.Error("March 31 should be outside the April period")
	}
	if p.Contains(NewDate(2023, 4, 15)) {
		t.Error("April of another year should be outside the period")
	}
}

func TestClampDay(t *testing.T) {
	tests := []struct {
		name string
		in   Date
		day  int
		want Date
	}{
		{"plain replacement", NewDate(2024, 3, 10), 15, NewDate(2024, 3, 15)},
		{"day 31 in february clamps", NewDate(2024, 2, 10), 31, NewDate(2024, 2, 29)},
		{"day 31 in april clamps to 30", NewDate(2024, 4, 2), 31, NewDate(2024, 4, 30)},
		{"non leap february", NewDate(2023, 2, 5), 30, NewDate(2023, 2, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampDay(tt.in, tt.day)
			if !got.Equal(tt.want.Time) {
				t.Errorf("ClampDay(%v, %d) = %v, want %v", tt.in, tt.day, got, tt.want)
			}
		})
	}
}
