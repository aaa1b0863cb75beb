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

func (r *Repository) CreateFamily(ctx context.Context, f *core.Family) error {
	now := time.Now()
	f.CreatedAt, f.UpdatedAt = now, now
	if f.Status == "" {
		f.Status = core.StatusActive
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO families (uuid, name, monthly_budget_cents, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		f.UUID.String(), f.Name, core.AmountToCents(f.MonthlyBudget), string(f.Status),
		encodeTime(f.CreatedAt), encodeTime(f.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert family: %w", err)
	}

	f.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("family insert id: %w", err)
	}
	return nil
}

// FindActiveFamily returns (nil, nil) when the family does not exist or is
// soft-deleted.
func (r *Repository) FindActiveFamily(ctx context.Context, familyUUID uuid.UUID) (*core.Family, error) {
	return findActiveFamily(ctx, r.db, familyUUID)
}

func findActiveFamily(ctx context.Context, q dbtx, familyUUID uuid.UUID) (*core.Family, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, uuid, name, monthly_budget_cents, status, created_at, updated_at
		FROM families
		WHERE uuid = ? AND status = ?`,
		familyUUID.String(), string(core.StatusActive))

	f, err := scanFamily(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find family: %w", err)
	}
	return f, nil
}

func scanFamily(row *sql.Row) (*core.Family, error) {
	var (
		f           core.Family
		uuidStr     string
		budgetCents int64
		status      string
		created     string
		updated     string
	)
	if err := row.Scan(&f.ID, &uuidStr, &f.Name, &budgetCents, &status, &created, &updated); err != nil {
		return nil, err
	}
	f.UUID = parseUUID(uuidStr)
	f.MonthlyBudget = core.AmountFromCents(budgetCents)
	f.Status = core.Status(status)
	f.CreatedAt = decodeTime(created)
	f.UpdatedAt = decodeTime(updated)
	return &f, nil
}

func (r *Repository) UpdateFamilyName(ctx context.Context, familyUUID uuid.UUID, name string) error {
	return r.updateFamily(ctx, familyUUID, "name = ?", name)
}

func (r *Repository) UpdateMonthlyBudget(ctx context.Context, familyUUID uuid.UUID, amount decimal.Decimal) error {
	return r.updateFamily(ctx, familyUUID, "monthly_budget_cents = ?", core.AmountToCents(amount))
}

func (r *Repository) SoftDeleteFamily(ctx context.Context, familyUUID uuid.UUID) error {
	return r.updateFamily(ctx, familyUUID, "status = ?", string(core.StatusDeleted))
}

func (r *Repository) updateFamily(ctx context.Context, familyUUID uuid.UUID, set string, arg any) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE families SET "+set+", updated_at = ? WHERE uuid = ? AND status = ?",
		arg, encodeTime(time.Now()), familyUUID.String(), string(core.StatusActive))
	if err != nil {
		return fmt.Errorf("update family: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) AddMember(ctx context.Context, m *core.FamilyMember) error {
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now()
	}
	if m.Status == "" {
		m.Status = core.MemberActive
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO family_members (family_uuid, user_uuid, role, status, joined_at)
		VALUES (?, ?, ?, ?, ?)`,
		m.FamilyUUID.String(), m.UserUUID.String(), string(m.Role), string(m.Status),
		encodeTime(m.JoinedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.ErrAlreadyMember
		}
		return fmt.Errorf("insert member: %w", err)
	}

	m.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("member insert id: %w", err)
	}
	return nil
}

// FindMember returns (nil, nil) when the user is not part of the family.
func (r *Repository) FindMember(ctx context.Context, familyUUID, userUUID uuid.UUID) (*core.FamilyMember, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, family_uuid, user_uuid, role, status, joined_at
		FROM family_members
		WHERE family_uuid = ? AND user_uuid = ?`,
		familyUUID.String(), userUUID.String())

	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find member: %w", err)
	}
	return m, nil
}

func (r *Repository) ListActiveMembers(ctx context.Context, familyUUID uuid.UUID) ([]core.FamilyMember, error) {
	return listActiveMembers(ctx, r.db, familyUUID)
}

func listActiveMembers(ctx context.Context, q dbtx, familyUUID uuid.UUID) ([]core.FamilyMember, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, family_uuid, user_uuid, role, status, joined_at
		FROM family_members
		WHERE family_uuid = ? AND status = ?
		ORDER BY joined_at`,
		familyUUID.String(), string(core.MemberActive))
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []core.FamilyMember
	for rows.Next() {
		var (
			m          core.FamilyMember
			familyStr  string
			userStr    string
			role       string
			status     string
			joined     string
		)
		if err := rows.Scan(&m.ID, &familyStr, &userStr, &role, &status, &joined); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.FamilyUUID = parseUUID(familyStr)
		m.UserUUID = parseUUID(userStr)
		m.Role = core.MemberRole(role)
		m.Status = core.MemberStatus(status)
		m.JoinedAt = decodeTime(joined)
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *Repository) SetMemberStatus(ctx context.Context, familyUUID, userUUID uuid.UUID, status core.MemberStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE family_members SET status = ? WHERE family_uuid = ? AND user_uuid = ?`,
		string(status), familyUUID.String(), userUUID.String())
	if err != nil {
		return fmt.Errorf("update member status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func scanMember(row *sql.Row) (*core.FamilyMember, error) {
	var (
		m         core.FamilyMember
		familyStr string
		userStr   string
		role      string
		status    string
		joined    string
	)
	if err := row.Scan(&m.ID, &familyStr, &userStr, &role, &status, &joined); err != nil {
		return nil, err
	}
	m.FamilyUUID = parseUUID(familyStr)
	m.UserUUID = parseUUID(userStr)
	m.Role = core.MemberRole(role)
	m.Status = core.MemberStatus(status)
	m.JoinedAt = decodeTime(joined)
	return &m, nil
}
