package http

import (
	"log/slog"
	"net/http"

	"contas/internal/core"
	"contas/internal/store"
)

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleGetTemplates(w, r)
	case http.MethodPost:
		s.handleCreateTemplate(w, r)
	case http.MethodPatch:
		s.handleUpdateTemplate(w, r)
	case http.MethodDelete:
		s.handleDeleteTemplate(w, r)
	default:
		methodNotAllowed(w, "GET, POST, PATCH, DELETE")
	}
}

func (s *Server) handleGetTemplates(w http.ResponseWriter, r *http.Request) {
	user := userID(r)

	if id := r.URL.Query().Get("id"); id != "" {
		tpl, err := s.ledger.GetTemplate(r.Context(), user, id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTemplateJSON(tpl))
		return
	}

	templates, err := s.ledger.ListTemplates(r.Context(), user)
	if err != nil {
		slog.ErrorContext(r.Context(), "List templates failed", "error", err)
		writeDomainError(w, err)
		return
	}

	out := make([]templateJSON, 0, len(templates))
	for _, tpl := range templates {
		out = append(out, toTemplateJSON(tpl))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	user := userID(r)

	body, err := ParseRequestBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := body.Money("expected_amount")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	closingDay, err := body.Int("closing_day")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	dueDay, err := body.Int("due_day")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	interval, err := body.Int("notification_interval")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	startDate, err := body.Date("start_date")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	endDate, err := body.Date("end_date")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	tpl := core.RecurringTemplate{
		Description:          body.String("description"),
		Category:             body.String("category"),
		ExpectedAmount:       amount,
		ClosingDay:           closingDay,
		DueDay:               dueDay,
		NotificationInterval: interval,
		StartDate:            startDate,
		EndDate:              endDate,
	}

	created, err := s.ledger.CreateTemplate(r.Context(), user, tpl)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateDashboard(user)
	writeJSON(w, http.StatusCreated, toTemplateJSON(created))
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	body, err := ParseRequestBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var patch store.TemplatePatch
	if body.Has("description") {
		v := body.String("description")
		patch.Description = &v
	}
	if body.Has("category") {
		v := body.String("category")
		patch.Category = &v
	}
	if body.Has("expected_amount") {
		v, err := body.Money("expected_amount")
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		patch.ExpectedAmount = &v
	}
	if body.Has("closing_day") {
		v, err := body.Int("closing_day")
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		patch.ClosingDay = &v
	}
	if body.Has("due_day") {
		v, err := body.Int("due_day")
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		patch.DueDay = &v
	}
	if body.Has("notification_interval") {
		v, err := body.Int("notification_interval")
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		patch.NotificationInterval = &v
	}
	if body.Has("start_date") {
		v, err := body.Date("start_date")
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		patch.StartDate = &v
	}
	if body.Has("end_date") {
		v, err := body.Date("end_date")
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		patch.EndDate = &v
	}

	updated, err := s.ledger.UpdateTemplate(r.Context(), user, id, patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateDashboard(user)
	writeJSON(w, http.StatusOK, toTemplateJSON(updated))
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	if err := s.ledger.DeleteTemplate(r.Context(), user, id); err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateDashboard(user)
	w.WriteHeader(http.StatusNoContent)
}

// handleGenerateExpense confirms one month of a template: the caller sends
// the real statement amount and gets back the generated instance.
func (s *Server) handleGenerateExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	user := userID(r)

	body, err := ParseRequestBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	templateID := body.String("template_id")
	if templateID == "" {
		writeError(w, http.StatusBadRequest, "missing template_id")
		return
	}
	amount, err := body.Money("amount")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	targetDate, err := body.Date("target_date")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if targetDate.IsEmpty() {
		targetDate = core.Date{Time: s.now()}
	}

	expense, err := s.generator.GenerateExpense(r.Context(), user, templateID, amount, targetDate)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateDashboard(user)
	writeJSON(w, http.StatusCreated, toExpenseJSON(expense))
}
