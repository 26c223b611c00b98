package http

import (
	"log/slog"
	"net/http"
	"time"

	"contas/internal/core"
)

type summaryJSON struct {
	TotalCents             int64  `json:"total_cents"`
	Total                  string `json:"total"`
	PaidCents              int64  `json:"paid_cents"`
	Paid                   string `json:"paid"`
	PendingCents           int64  `json:"pending_cents"`
	Pending                string `json:"pending"`
	RecurringCents         int64  `json:"recurring_cents"`
	Recurring              string `json:"recurring"`
	ExpectedRecurringCents int64  `json:"expected_recurring_cents"`
	ExpectedRecurring      string `json:"expected_recurring"`
	IncomeCents            int64  `json:"income_cents"`
	Income                 string `json:"income"`
}

func toSummaryJSON(s core.MonthlySummary) summaryJSON {
	return summaryJSON{
		TotalCents:             s.Total.Cents,
		Total:                  s.Total.Format(),
		PaidCents:              s.Paid.Cents,
		Paid:                   s.Paid.Format(),
		PendingCents:           s.Pending.Cents,
		Pending:                s.Pending.Format(),
		RecurringCents:         s.Recurring.Cents,
		Recurring:              s.Recurring.Format(),
		ExpectedRecurringCents: s.ExpectedRecurring.Cents,
		ExpectedRecurring:      s.ExpectedRecurring.Format(),
		IncomeCents:            s.Income.Cents,
		Income:                 s.Income.Format(),
	}
}

type templateStatusJSON struct {
	templateJSON
	Status string `json:"status"`
}

type dashboardJSON struct {
	Year             int                  `json:"year"`
	Month            int                  `json:"month"`
	CurrentMonth     summaryJSON          `json:"current_month"`
	PreviousMonth    summaryJSON          `json:"previous_month"`
	PercentageChange float64              `json:"percentage_change"`
	Templates        []templateStatusJSON `json:"templates"`
	PendingAlerts    []templateJSON       `json:"pending_alerts"`
}

// handleDashboard renders the monthly overview: summary with previous-month
// comparison, templates ordered by status and closing-day alerts.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	user := userID(r)
	now := s.now()
	params := ParseMonthParams(r, now)

	key := dashboardCacheKey(user, params.Year, params.Month, now)
	if cached, found := s.dashboardCache.Get(key); found {
		slog.DebugContext(r.Context(), "Dashboard cache hit",
			"user_id", user, "year", params.Year, "month", params.Month)
		writeJSON(w, http.StatusOK, cached)
		return
	}

	snapshot, err := s.ledger.LoadSnapshot(r.Context(), user)
	if err != nil {
		slog.ErrorContext(r.Context(), "Load snapshot failed", "error", err)
		writeDomainError(w, err)
		return
	}

	anchor := core.Date{Time: time.Date(params.Year, time.Month(params.Month), 1, 0, 0, 0, 0, now.Location())}
	period := core.ResolvePeriod(anchor)

	opts := core.SummaryOptions{ExcludeInactiveForecast: s.excludeInactiveForecast}
	comparison := core.Compare(period, snapshot.Expenses, snapshot.Incomes, snapshot.Templates, opts)

	instances := core.IndexInstances(snapshot.Expenses)
	templates := make([]core.RecurringTemplate, len(snapshot.Templates))
	copy(templates, snapshot.Templates)
	core.SortTemplatesByStatus(templates, period, instances)

	statuses := make([]templateStatusJSON, 0, len(templates))
	for _, tpl := range templates {
		statuses = append(statuses, templateStatusJSON{
			templateJSON: toTemplateJSON(tpl),
			Status:       string(core.ClassifyTemplate(tpl, period, instances)),
		})
	}

	alerts := core.PendingClosingTemplates(snapshot.Templates, snapshot.Expenses, period, now)
	alertsJSON := make([]templateJSON, 0, len(alerts))
	for _, tpl := range alerts {
		alertsJSON = append(alertsJSON, toTemplateJSON(tpl))
	}

	resp := dashboardJSON{
		Year:             params.Year,
		Month:            params.Month,
		CurrentMonth:     toSummaryJSON(comparison.CurrentMonth),
		PreviousMonth:    toSummaryJSON(comparison.PreviousMonth),
		PercentageChange: comparison.PercentageChange,
		Templates:        statuses,
		PendingAlerts:    alertsJSON,
	}

	if user != "" {
		s.dashboardCache.Set(key, resp)
	}
	writeJSON(w, http.StatusOK, resp)
}
