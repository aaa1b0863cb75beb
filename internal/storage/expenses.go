package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"accountbook/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// countableExpenseFilter is the budget exclusion policy, shared verbatim by
// the alert engine's spend sum and the dashboard aggregations so the two
// views cannot disagree. An entry is excluded when its own flag is set OR
// its (active) category's flag is set; an explicit entry-level false cannot
// override an excluding category.
const countableExpenseFilter = `
	AND e.exclude_from_budget = 0
	AND (c.exclude_from_budget IS NULL OR c.exclude_from_budget = 0)`

func (r *Repository) CreateExpense(ctx context.Context, e *core.Expense) error {
	now := time.Now()
	e.CreatedAt, e.UpdatedAt = now, now
	if e.Status == "" {
		e.Status = core.StatusActive
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (uuid, family_uuid, category_uuid, user_uuid, amount_cents,
			description, date, exclude_from_budget, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UUID.String(), e.FamilyUUID.String(), e.CategoryUUID.String(), e.UserUUID.String(),
		core.AmountToCents(e.Amount), e.Description, encodeTime(e.Date),
		boolToInt(e.ExcludeFromBudget), string(e.Status),
		encodeTime(e.CreatedAt), encodeTime(e.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	e.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("expense insert id: %w", err)
	}
	return nil
}

// FindActiveExpense returns (nil, nil) when no active expense has the uuid.
func (r *Repository) FindActiveExpense(ctx context.Context, expenseUUID uuid.UUID) (*core.Expense, error) {
	row := r.db.QueryRowContext(ctx, expenseColumns+`
		FROM expenses e
		WHERE e.uuid = ? AND e.status = ?`,
		expenseUUID.String(), string(core.StatusActive))

	e, err := scanExpenseRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find expense: %w", err)
	}
	return e, nil
}

func (r *Repository) UpdateExpense(ctx context.Context, e *core.Expense) error {
	e.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses
		SET category_uuid = ?, amount_cents = ?, description = ?, date = ?,
			exclude_from_budget = ?, updated_at = ?
		WHERE uuid = ? AND status = ?`,
		e.CategoryUUID.String(), core.AmountToCents(e.Amount), e.Description,
		encodeTime(e.Date), boolToInt(e.ExcludeFromBudget), encodeTime(e.UpdatedAt),
		e.UUID.String(), string(core.StatusActive))
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) SoftDeleteExpense(ctx context.Context, expenseUUID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET status = ?, updated_at = ? WHERE uuid = ? AND status = ?`,
		string(core.StatusDeleted), encodeTime(time.Now()),
		expenseUUID.String(), string(core.StatusActive))
	if err != nil {
		return fmt.Errorf("soft delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ExpenseFilter narrows ListExpenses. Zero-valued fields are ignored.
type ExpenseFilter struct {
	FamilyUUID   uuid.UUID
	CategoryUUID uuid.UUID
	Start        time.Time
	End          time.Time
	Limit        int
	Offset       int
}

// ListExpenses returns a page of active expenses, newest first, plus the
// total count for the filter.
func (r *Repository) ListExpenses(ctx context.Context, f ExpenseFilter) ([]core.Expense, int, error) {
	where := []string{"e.family_uuid = ?", "e.status = ?"}
	args := []any{f.FamilyUUID.String(), string(core.StatusActive)}

	if f.CategoryUUID != uuid.Nil {
		where = append(where, "e.category_uuid = ?")
		args = append(args, f.CategoryUUID.String())
	}
	if !f.Start.IsZero() {
		where = append(where, "e.date >= ?")
		args = append(args, encodeTime(f.Start))
	}
	if !f.End.IsZero() {
		where = append(where, "e.date <= ?")
		args = append(args, encodeTime(f.End))
	}

	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM expenses e WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count expenses: %w", err)
	}

	query := expenseColumns + " FROM expenses e WHERE " + cond + " ORDER BY e.date DESC, e.id DESC"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpenseRow(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	return expenses, total, rows.Err()
}

// SumCountableExpenses totals active expenses in [start, end] after applying
// the exclusion policy. An empty ledger sums to zero.
func (r *Repository) SumCountableExpenses(ctx context.Context, familyUUID uuid.UUID, start, end time.Time) (decimal.Decimal, error) {
	return sumCountableExpenses(ctx, r.db, familyUUID, start, end)
}

func sumCountableExpenses(ctx context.Context, q dbtx, familyUUID uuid.UUID, start, end time.Time) (decimal.Decimal, error) {
	var cents int64
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(e.amount_cents), 0)
		FROM expenses e
		LEFT JOIN categories c ON c.uuid = e.category_uuid AND c.status = 'ACTIVE'
		WHERE e.family_uuid = ?
		AND e.status = 'ACTIVE'
		AND e.date >= ? AND e.date <= ?`+countableExpenseFilter,
		familyUUID.String(), encodeTime(start), encodeTime(end)).Scan(&cents)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum countable expenses: %w", err)
	}
	return core.AmountFromCents(cents), nil
}

// CategoryExpenseStat is one row of the dashboard category breakdown.
type CategoryExpenseStat struct {
	CategoryUUID uuid.UUID
	Name         string
	Total        decimal.Decimal
}

// CategoryExpenseStats aggregates countable spend per category, largest
// first, under the same exclusion policy as SumCountableExpenses.
func (r *Repository) CategoryExpenseStats(ctx context.Context, familyUUID uuid.UUID, start, end time.Time) ([]CategoryExpenseStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.uuid, c.name, SUM(e.amount_cents) AS total_cents
		FROM expenses e
		LEFT JOIN categories c ON c.uuid = e.category_uuid AND c.status = 'ACTIVE'
		WHERE e.family_uuid = ?
		AND e.status = 'ACTIVE'
		AND e.date >= ? AND e.date <= ?
		AND c.uuid IS NOT NULL`+countableExpenseFilter+`
		GROUP BY c.uuid, c.name
		ORDER BY total_cents DESC`,
		familyUUID.String(), encodeTime(start), encodeTime(end))
	if err != nil {
		return nil, fmt.Errorf("category stats: %w", err)
	}
	defer rows.Close()

	var stats []CategoryExpenseStat
	for rows.Next() {
		var (
			s       CategoryExpenseStat
			uuidStr string
			cents   int64
		)
		if err := rows.Scan(&uuidStr, &s.Name, &cents); err != nil {
			return nil, fmt.Errorf("scan category stat: %w", err)
		}
		s.CategoryUUID = parseUUID(uuidStr)
		s.Total = core.AmountFromCents(cents)
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

const expenseColumns = `
	SELECT e.id, e.uuid, e.family_uuid, e.category_uuid, e.user_uuid, e.amount_cents,
		e.description, e.date, e.exclude_from_budget, e.status, e.created_at, e.updated_at`

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanExpenseRow(row scanner) (*core.Expense, error) {
	var (
		e        core.Expense
		uuidStr  string
		famStr   string
		catStr   string
		userStr  string
		cents    int64
		date     string
		excluded int64
		status   string
		created  string
		updated  string
	)
	if err := row.Scan(&e.ID, &uuidStr, &famStr, &catStr, &userStr, &cents,
		&e.Description, &date, &excluded, &status, &created, &updated); err != nil {
		return nil, err
	}
	e.UUID = parseUUID(uuidStr)
	e.FamilyUUID = parseUUID(famStr)
	e.CategoryUUID = parseUUID(catStr)
	e.UserUUID = parseUUID(userStr)
	e.Amount = core.AmountFromCents(cents)
	e.Date = decodeTime(date)
	e.ExcludeFromBudget = excluded != 0
	e.Status = core.Status(status)
	e.CreatedAt = decodeTime(created)
	e.UpdatedAt = decodeTime(updated)
	return &e, nil
}
