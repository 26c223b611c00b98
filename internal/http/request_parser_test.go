package http

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseRequestBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid object", `{"description":"Luz"}`, false},
		{"empty body", "", false},
		{"invalid json", `{"description":`, true},
		{"array body", `[1,2,3]`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/expenses", bytes.NewBufferString(tt.body))
			_, err := ParseRequestBody(r)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseRequestBody() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequestBody_Has(t *testing.T) {
	r := httptest.NewRequest("PATCH", "/api/expenses", strings.NewReader(`{"paid":false,"payment_date":""}`))
	body, err := ParseRequestBody(r)
	if err != nil {
		t.Fatalf("ParseRequestBody: %v", err)
	}

	if !body.Has("paid") {
		t.Error("Has(paid) = false, want true even with a false value")
	}
	if !body.Has("payment_date") {
		t.Error("Has(payment_date) = false, want true even with an empty value")
	}
	if body.Has("description") {
		t.Error("Has(description) = true for an absent key")
	}
}

func TestRequestBody_Money(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCents int64
		wantErr   bool
	}{
		{"decimal point", `{"amount":"123.45"}`, 12345, false},
		{"decimal comma", `{"amount":"123,45"}`, 12345, false},
		{"json number", `{"amount":99.9}`, 9990, false},
		{"integer reais", `{"amount":"150"}`, 15000, false},
		{"absent key", `{}`, 0, false},
		{"empty string", `{"amount":""}`, 0, true},
		{"garbage", `{"amount":"abc"}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/expenses", strings.NewReader(tt.body))
			body, err := ParseRequestBody(r)
			if err != nil {
				t.Fatalf("ParseRequestBody: %v", err)
			}
			m, err := body.Money("amount")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Money() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && m.Cents != tt.wantCents {
				t.Errorf("Money() = %d cents, want %d", m.Cents, tt.wantCents)
			}
		})
	}
}

func TestRequestBody_Date(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/expenses", strings.NewReader(
		`{"due_date":"2026-03-12","end_date":"","bad":"12/03/2026"}`))
	body, err := ParseRequestBody(r)
	if err != nil {
		t.Fatalf("ParseRequestBody: %v", err)
	}

	d, err := body.Date("due_date")
	if err != nil {
		t.Fatalf("Date(due_date): %v", err)
	}
	if d.Format("2006-01-02") != "2026-03-12" {
		t.Errorf("Date(due_date) = %v, want 2026-03-12", d)
	}

	cleared, err := body.Date("end_date")
	if err != nil {
		t.Fatalf("Date(end_date): %v", err)
	}
	if !cleared.IsEmpty() {
		t.Error("empty date string should parse to the zero date")
	}

	if _, err := body.Date("bad"); err == nil {
		t.Error("Date(bad) = nil error for a non-ISO date")
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims whitespace", "  conta de luz  ", "conta de luz"},
		{"strips control chars", "luz\x00\x01", "luz"},
		{"keeps accents", "Cartão de crédito", "Cartão de crédito"},
		{"keeps newline and tab", "a\nb\tc", "a\nb\tc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeInput(tt.input); got != tt.want {
				t.Errorf("sanitizeInput(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseMonthParams(t *testing.T) {
	now := time.Date(2026, time.August, 28, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		query     string
		wantYear  int
		wantMonth int
	}{
		{"defaults to now", "", 2026, 8},
		{"explicit period", "year=2025&month=12", 2025, 12},
		{"month only", "month=2", 2026, 2},
		{"month out of range", "month=13", 2026, 8},
		{"month zero", "month=0", 2026, 8},
		{"negative year", "year=-44&month=2", 2026, 2},
		{"five-digit year", "year=12026", 2026, 8},
		{"year before epoch", "year=1969", 2026, 8},
		{"non-numeric ignored", "year=abc&month=xyz", 2026, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/dashboard?"+tt.query, nil)
			got := ParseMonthParams(r, now)
			if got.Year != tt.wantYear || got.Month != tt.wantMonth {
				t.Errorf("ParseMonthParams() = %d-%d, want %d-%d",
					got.Year, got.Month, tt.wantYear, tt.wantMonth)
			}
		})
	}
}
