// Package sqlite implements the record store on an embedded SQLite
// database. Each table is namespaced by user id; document ids are random
// UUIDs minted on create.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"contas/internal/core"
	"contas/internal/store"
)

type Repository struct {
	db *sql.DB
}

var _ store.RecordStore = (*Repository)(nil)
var _ store.ExportQueue = (*Repository)(nil)

func New(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// nullDate maps the domain's "absent" sentinel (zero Date) to SQL NULL.
func nullDate(d core.Date) sql.NullTime {
	if d.IsEmpty() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: d.Time, Valid: true}
}

func dateOf(nt sql.NullTime) core.Date {
	if !nt.Valid {
		return core.Date{}
	}
	return core.Date{Time: nt.Time}
}

// setClause accumulates column assignments for dynamic partial updates.
type setClause struct {
	cols []string
	args []any
}

func (s *setClause) add(col string, v any) {
	s.cols = append(s.cols, col+" = ?")
	s.args = append(s.args, v)
}

func (s *setClause) empty() bool { return len(s.cols) == 0 }

func (s *setClause) sql() string { return strings.Join(s.cols, ", ") }

// --- Expenses ---

const expenseCols = `id, description, amount_cents, due_date, paid, payment_date,
	category, recurring_template_id, notification_interval, created_at, updated_at`

func scanExpense(row interface{ Scan(...any) error }) (core.Expense, error) {
	var (
		e          core.Expense
		dueDate    time.Time
		payment    sql.NullTime
		templateID sql.NullString
		created    time.Time
		updated    time.Time
	)
	err := row.Scan(&e.ID, &e.Description, &e.Amount.Cents, &dueDate, &e.Paid, &payment,
		&e.Category, &templateID, &e.NotificationInterval, &created, &updated)
	if err != nil {
		return core.Expense{}, err
	}
	e.DueDate = core.Date{Time: dueDate}
	e.PaymentDate = dateOf(payment)
	e.RecurringTemplateID = templateID.String
	e.CreatedAt = core.Date{Time: created}
	e.UpdatedAt = core.Date{Time: updated}
	return e, nil
}

func (r *Repository) CreateExpense(ctx context.Context, userID string, e core.Expense) (core.Expense, error) {
	now := time.Now().UTC()
	e.ID = uuid.NewString()
	e.CreatedAt = core.Date{Time: now}
	e.UpdatedAt = core.Date{Time: now}

	var templateID sql.NullString
	if e.RecurringTemplateID != "" {
		templateID = sql.NullString{String: e.RecurringTemplateID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO expenses
		(id, user_id, description, amount_cents, due_date, paid, payment_date,
		 category, recurring_template_id, notification_interval, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, userID, e.Description, e.Amount.Cents, e.DueDate.Time, e.Paid, nullDate(e.PaymentDate),
		e.Category, templateID, e.NotificationInterval, now, now)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"description", e.Description,
		"amount_cents", e.Amount.Cents,
		"due_date", e.DueDate.Format("2006-01-02"))

	return e, nil
}

func (r *Repository) GetExpense(ctx context.Context, userID, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseCols+` FROM expenses WHERE user_id = ? AND id = ?`, userID, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, store.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (r *Repository) UpdateExpense(ctx context.Context, userID, id string, p store.ExpensePatch) (core.Expense, error) {
	var set setClause
	if p.Description != nil {
		set.add("description", *p.Description)
	}
	if p.Amount != nil {
		set.add("amount_cents", p.Amount.Cents)
	}
	if p.DueDate != nil {
		set.add("due_date", p.DueDate.Time)
	}
	if p.Paid != nil {
		set.add("paid", *p.Paid)
	}
	if p.PaymentDate != nil {
		set.add("payment_date", nullDate(*p.PaymentDate))
	}
	if p.Category != nil {
		set.add("category", *p.Category)
	}
	if p.NotificationInterval != nil {
		set.add("notification_interval", *p.NotificationInterval)
	}
	if set.empty() {
		return r.GetExpense(ctx, userID, id)
	}
	set.add("updated_at", time.Now().UTC())

	if err := r.exec(ctx, "expenses", set, userID, id); err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	return r.GetExpense(ctx, userID, id)
}

func (r *Repository) DeleteExpense(ctx context.Context, userID, id string) error {
	return r.delete(ctx, "expenses", userID, id)
}

func (r *Repository) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseCols+` FROM expenses WHERE user_id = ? ORDER BY due_date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- Recurring templates ---

const templateCols = `id, description, category, expected_amount_cents, closing_day, due_day,
	notification_interval, start_date, end_date, last_generated_date, created_at, updated_at`

func scanTemplate(row interface{ Scan(...any) error }) (core.RecurringTemplate, error) {
	var (
		t             core.RecurringTemplate
		start, end    sql.NullTime
		lastGenerated sql.NullTime
		created       time.Time
		updated       time.Time
	)
	err := row.Scan(&t.ID, &t.Description, &t.Category, &t.ExpectedAmount.Cents, &t.ClosingDay,
		&t.DueDay, &t.NotificationInterval, &start, &end, &lastGenerated, &created, &updated)
	if err != nil {
		return core.RecurringTemplate{}, err
	}
	t.StartDate = dateOf(start)
	t.EndDate = dateOf(end)
	t.LastGeneratedDate = dateOf(lastGenerated)
	t.CreatedAt = core.Date{Time: created}
	t.UpdatedAt = core.Date{Time: updated}
	return t, nil
}

func (r *Repository) CreateTemplate(ctx context.Context, userID string, t core.RecurringTemplate) (core.RecurringTemplate, error) {
	now := time.Now().UTC()
	t.ID = uuid.NewString()
	t.CreatedAt = core.Date{Time: now}
	t.UpdatedAt = core.Date{Time: now}

	_, err := r.db.ExecContext(ctx, `INSERT INTO templates
		(id, user_id, description, category, expected_amount_cents, closing_day, due_day,
		 notification_interval, start_date, end_date, last_generated_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, userID, t.Description, t.Category, t.ExpectedAmount.Cents, t.ClosingDay, t.DueDay,
		t.NotificationInterval, nullDate(t.StartDate), nullDate(t.EndDate),
		nullDate(t.LastGeneratedDate), now, now)
	if err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("insert template: %w", err)
	}

	slog.InfoContext(ctx, "Recurring template saved",
		"id", t.ID,
		"description", t.Description,
		"closing_day", t.ClosingDay,
		"due_day", t.DueDay)

	return t, nil
}

func (r *Repository) GetTemplate(ctx context.Context, userID, id string) (core.RecurringTemplate, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+templateCols+` FROM templates WHERE user_id = ? AND id = ?`, userID, id)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringTemplate{}, store.ErrNotFound
	}
	if err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

func (r *Repository) UpdateTemplate(ctx context.Context, userID, id string, p store.TemplatePatch) (core.RecurringTemplate, error) {
	var set setClause
	if p.Description != nil {
		set.add("description", *p.Description)
	}
	if p.Category != nil {
		set.add("category", *p.Category)
	}
	if p.ExpectedAmount != nil {
		set.add("expected_amount_cents", p.ExpectedAmount.Cents)
	}
	if p.ClosingDay != nil {
		set.add("closing_day", *p.ClosingDay)
	}
	if p.DueDay != nil {
		set.add("due_day", *p.DueDay)
	}
	if p.NotificationInterval != nil {
		set.add("notification_interval", *p.NotificationInterval)
	}
	if p.StartDate != nil {
		set.add("start_date", nullDate(*p.StartDate))
	}
	if p.EndDate != nil {
		set.add("end_date", nullDate(*p.EndDate))
	}
	if p.LastGeneratedDate != nil {
		set.add("last_generated_date", nullDate(*p.LastGeneratedDate))
	}
	if set.empty() {
		return r.GetTemplate(ctx, userID, id)
	}
	set.add("updated_at", time.Now().UTC())

	if err := r.exec(ctx, "templates", set, userID, id); err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("update template: %w", err)
	}
	return r.GetTemplate(ctx, userID, id)
}

func (r *Repository) DeleteTemplate(ctx context.Context, userID, id string) error {
	// Generated instances are never touched; they keep their dangling
	// template reference by design.
	return r.delete(ctx, "templates", userID, id)
}

func (r *Repository) ListTemplates(ctx context.Context, userID string) ([]core.RecurringTemplate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+templateCols+` FROM templates WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// --- Incomes ---

const incomeCols = `id, description, amount_cents, date, category, recurring, recurring_day,
	created_at, updated_at`

func scanIncome(row interface{ Scan(...any) error }) (core.Income, error) {
	var (
		in      core.Income
		date    time.Time
		created time.Time
		updated time.Time
	)
	err := row.Scan(&in.ID, &in.Description, &in.Amount.Cents, &date, &in.Category,
		&in.Recurring, &in.RecurringDay, &created, &updated)
	if err != nil {
		return core.Income{}, err
	}
	in.Date = core.Date{Time: date}
	in.CreatedAt = core.Date{Time: created}
	in.UpdatedAt = core.Date{Time: updated}
	return in, nil
}

func (r *Repository) CreateIncome(ctx context.Context, userID string, in core.Income) (core.Income, error) {
	now := time.Now().UTC()
	in.ID = uuid.NewString()
	in.CreatedAt = core.Date{Time: now}
	in.UpdatedAt = core.Date{Time: now}

	_, err := r.db.ExecContext(ctx, `INSERT INTO incomes
		(id, user_id, description, amount_cents, date, category, recurring, recurring_day, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, userID, in.Description, in.Amount.Cents, in.Date.Time, in.Category,
		in.Recurring, in.RecurringDay, now, now)
	if err != nil {
		return core.Income{}, fmt.Errorf("insert income: %w", err)
	}

	slog.InfoContext(ctx, "Income saved",
		"id", in.ID,
		"description", in.Description,
		"amount_cents", in.Amount.Cents)

	return in, nil
}

func (r *Repository) UpdateIncome(ctx context.Context, userID, id string, p store.IncomePatch) (core.Income, error) {
	var set setClause
	if p.Description != nil {
		set.add("description", *p.Description)
	}
	if p.Amount != nil {
		set.add("amount_cents", p.Amount.Cents)
	}
	if p.Date != nil {
		set.add("date", p.Date.Time)
	}
	if p.Category != nil {
		set.add("category", *p.Category)
	}
	if p.Recurring != nil {
		set.add("recurring", *p.Recurring)
	}
	if p.RecurringDay != nil {
		set.add("recurring_day", *p.RecurringDay)
	}
	if set.empty() {
		return r.GetIncome(ctx, userID, id)
	}
	set.add("updated_at", time.Now().UTC())

	if err := r.exec(ctx, "incomes", set, userID, id); err != nil {
		return core.Income{}, fmt.Errorf("update income: %w", err)
	}
	return r.GetIncome(ctx, userID, id)
}

func (r *Repository) GetIncome(ctx context.Context, userID, id string) (core.Income, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+incomeCols+` FROM incomes WHERE user_id = ? AND id = ?`, userID, id)
	in, err := scanIncome(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Income{}, store.ErrNotFound
	}
	if err != nil {
		return core.Income{}, fmt.Errorf("get income: %w", err)
	}
	return in, nil
}

func (r *Repository) DeleteIncome(ctx context.Context, userID, id string) error {
	return r.delete(ctx, "incomes", userID, id)
}

func (r *Repository) ListIncomes(ctx context.Context, userID string) ([]core.Income, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+incomeCols+` FROM incomes WHERE user_id = ? ORDER BY date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	defer rows.Close()

	var out []core.Income
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// --- Recurring incomes ---

const recurringIncomeCols = `id, description, expected_amount_cents, day, last_generated_date,
	created_at, updated_at`

func scanRecurringIncome(row interface{ Scan(...any) error }) (core.RecurringIncome, error) {
	var (
		ri            core.RecurringIncome
		lastGenerated sql.NullTime
		created       time.Time
		updated       time.Time
	)
	err := row.Scan(&ri.ID, &ri.Description, &ri.ExpectedAmount.Cents, &ri.Day,
		&lastGenerated, &created, &updated)
	if err != nil {
		return core.RecurringIncome{}, err
	}
	ri.LastGeneratedDate = dateOf(lastGenerated)
	ri.CreatedAt = core.Date{Time: created}
	ri.UpdatedAt = core.Date{Time: updated}
	return ri, nil
}

func (r *Repository) CreateRecurringIncome(ctx context.Context, userID string, ri core.RecurringIncome) (core.RecurringIncome, error) {
	now := time.Now().UTC()
	ri.ID = uuid.NewString()
	ri.CreatedAt = core.Date{Time: now}
	ri.UpdatedAt = core.Date{Time: now}

	_, err := r.db.ExecContext(ctx, `INSERT INTO recurring_incomes
		(id, user_id, description, expected_amount_cents, day, last_generated_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ri.ID, userID, ri.Description, ri.ExpectedAmount.Cents, ri.Day,
		nullDate(ri.LastGeneratedDate), now, now)
	if err != nil {
		return core.RecurringIncome{}, fmt.Errorf("insert recurring income: %w", err)
	}

	return ri, nil
}

func (r *Repository) GetRecurringIncome(ctx context.Context, userID, id string) (core.RecurringIncome, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recurringIncomeCols+` FROM recurring_incomes WHERE user_id = ? AND id = ?`, userID, id)
	ri, err := scanRecurringIncome(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringIncome{}, store.ErrNotFound
	}
	if err != nil {
		return core.RecurringIncome{}, fmt.Errorf("get recurring income: %w", err)
	}
	return ri, nil
}

func (r *Repository) UpdateRecurringIncome(ctx context.Context, userID, id string, p store.RecurringIncomePatch) (core.RecurringIncome, error) {
	var set setClause
	if p.Description != nil {
		set.add("description", *p.Description)
	}
	if p.ExpectedAmount != nil {
		set.add("expected_amount_cents", p.ExpectedAmount.Cents)
	}
	if p.Day != nil {
		set.add("day", *p.Day)
	}
	if p.LastGeneratedDate != nil {
		set.add("last_generated_date", nullDate(*p.LastGeneratedDate))
	}
	if set.empty() {
		return r.GetRecurringIncome(ctx, userID, id)
	}
	set.add("updated_at", time.Now().UTC())

	if err := r.exec(ctx, "recurring_incomes", set, userID, id); err != nil {
		return core.RecurringIncome{}, fmt.Errorf("update recurring income: %w", err)
	}
	return r.GetRecurringIncome(ctx, userID, id)
}

func (r *Repository) DeleteRecurringIncome(ctx context.Context, userID, id string) error {
	return r.delete(ctx, "recurring_incomes", userID, id)
}

func (r *Repository) ListRecurringIncomes(ctx context.Context, userID string) ([]core.RecurringIncome, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recurringIncomeCols+` FROM recurring_incomes WHERE user_id = ? ORDER BY day, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list recurring incomes: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringIncome
	for rows.Next() {
		ri, err := scanRecurringIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring income: %w", err)
		}
		out = append(out, ri)
	}
	return out, rows.Err()
}

// --- Shared helpers ---

func (r *Repository) exec(ctx context.Context, table string, set setClause, userID, id string) error {
	args := append(set.args, userID, id)
	res, err := r.db.ExecContext(ctx,
		`UPDATE `+table+` SET `+set.sql()+` WHERE user_id = ? AND id = ?`, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *Repository) delete(ctx context.Context, table, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM `+table+` WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id FROM expenses
		UNION SELECT user_id FROM templates
		UNION SELECT user_id FROM incomes
		UNION SELECT user_id FROM recurring_incomes
		ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// --- Export queue ---

func (r *Repository) ListUnexportedExpenses(ctx context.Context, limit int) ([]store.ExportCandidate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, id FROM expenses WHERE export_state = 'pending' ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unexported expenses: %w", err)
	}
	defer rows.Close()

	var out []store.ExportCandidate
	for rows.Next() {
		var c store.ExportCandidate
		if err := rows.Scan(&c.UserID, &c.ID); err != nil {
			return nil, fmt.Errorf("scan export candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) MarkExpenseExported(ctx context.Context, userID, id string) error {
	return r.markExportState(ctx, userID, id, "exported")
}

func (r *Repository) MarkExpenseExportError(ctx context.Context, userID, id string) error {
	return r.markExportState(ctx, userID, id, "error")
}

func (r *Repository) markExportState(ctx context.Context, userID, id, state string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET export_state = ? WHERE user_id = ? AND id = ?`, state, userID, id)
	if err != nil {
		return fmt.Errorf("mark export state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark export state: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
