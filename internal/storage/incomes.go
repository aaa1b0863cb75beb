package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"accountbook/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (r *Repository) CreateIncome(ctx context.Context, in *core.Income) error {
	now := time.Now()
	in.CreatedAt, in.UpdatedAt = now, now
	if in.Status == "" {
		in.Status = core.StatusActive
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO incomes (uuid, family_uuid, user_uuid, amount_cents, description,
			date, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.UUID.String(), in.FamilyUUID.String(), in.UserUUID.String(),
		core.AmountToCents(in.Amount), in.Description, encodeTime(in.Date),
		string(in.Status), encodeTime(in.CreatedAt), encodeTime(in.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert income: %w", err)
	}

	in.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("income insert id: %w", err)
	}
	return nil
}

// FindActiveIncome returns (nil, nil) when no active income has the uuid.
func (r *Repository) FindActiveIncome(ctx context.Context, incomeUUID uuid.UUID) (*core.Income, error) {
	row := r.db.QueryRowContext(ctx, incomeColumns+`
		FROM incomes
		WHERE uuid = ? AND status = ?`,
		incomeUUID.String(), string(core.StatusActive))

	in, err := scanIncome(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find income: %w", err)
	}
	return in, nil
}

func (r *Repository) UpdateIncome(ctx context.Context, in *core.Income) error {
	in.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE incomes
		SET amount_cents = ?, description = ?, date = ?, updated_at = ?
		WHERE uuid = ? AND status = ?`,
		core.AmountToCents(in.Amount), in.Description, encodeTime(in.Date),
		encodeTime(in.UpdatedAt), in.UUID.String(), string(core.StatusActive))
	if err != nil {
		return fmt.Errorf("update income: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) SoftDeleteIncome(ctx context.Context, incomeUUID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE incomes SET status = ?, updated_at = ? WHERE uuid = ? AND status = ?`,
		string(core.StatusDeleted), encodeTime(time.Now()),
		incomeUUID.String(), string(core.StatusActive))
	if err != nil {
		return fmt.Errorf("soft delete income: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) ListIncomes(ctx context.Context, familyUUID uuid.UUID, start, end time.Time, limit, offset int) ([]core.Income, error) {
	query := incomeColumns + `
		FROM incomes
		WHERE family_uuid = ? AND status = ?`
	args := []any{familyUUID.String(), string(core.StatusActive)}

	if !start.IsZero() {
		query += " AND date >= ?"
		args = append(args, encodeTime(start))
	}
	if !end.IsZero() {
		query += " AND date <= ?"
		args = append(args, encodeTime(end))
	}
	query += " ORDER BY date DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	defer rows.Close()

	var incomes []core.Income
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		incomes = append(incomes, *in)
	}
	return incomes, rows.Err()
}

// SumIncomes totals active incomes in [start, end]. Incomes carry no
// exclusion flags.
func (r *Repository) SumIncomes(ctx context.Context, familyUUID uuid.UUID, start, end time.Time) (decimal.Decimal, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM incomes
		WHERE family_uuid = ? AND status = ? AND date >= ? AND date <= ?`,
		familyUUID.String(), string(core.StatusActive),
		encodeTime(start), encodeTime(end)).Scan(&cents)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum incomes: %w", err)
	}
	return core.AmountFromCents(cents), nil
}

const incomeColumns = `
	SELECT id, uuid, family_uuid, user_uuid, amount_cents, description, date,
		status, created_at, updated_at`

func scanIncome(row scanner) (*core.Income, error) {
	var (
		in      core.Income
		uuidStr string
		famStr  string
		userStr string
		cents   int64
		date    string
		status  string
		created string
		updated string
	)
	if err := row.Scan(&in.ID, &uuidStr, &famStr, &userStr, &cents,
		&in.Description, &date, &status, &created, &updated); err != nil {
		return nil, err
	}
	in.UUID = parseUUID(uuidStr)
	in.FamilyUUID = parseUUID(famStr)
	in.UserUUID = parseUUID(userStr)
	in.Amount = core.AmountFromCents(cents)
	in.Date = decodeTime(date)
	in.Status = core.Status(status)
	in.CreatedAt = decodeTime(created)
	in.UpdatedAt = decodeTime(updated)
	return &in, nil
}
