package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"accountbook/internal/core"

	"github.com/google/uuid"
)

func (r *Repository) CreateCategory(ctx context.Context, c *core.Category) error {
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	if c.Status == "" {
		c.Status = core.StatusActive
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (uuid, family_uuid, name, color, icon, exclude_from_budget,
			status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.UUID.String(), c.FamilyUUID.String(), c.Name, c.Color, c.Icon,
		boolToInt(c.ExcludeFromBudget), string(c.Status),
		encodeTime(c.CreatedAt), encodeTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}

	c.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("category insert id: %w", err)
	}
	return nil
}

// FindActiveCategory returns (nil, nil) when no active category has the uuid.
func (r *Repository) FindActiveCategory(ctx context.Context, categoryUUID uuid.UUID) (*core.Category, error) {
	row := r.db.QueryRowContext(ctx, categoryColumns+`
		FROM categories
		WHERE uuid = ? AND status = ?`,
		categoryUUID.String(), string(core.StatusActive))

	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	return c, nil
}

func (r *Repository) ListCategories(ctx context.Context, familyUUID uuid.UUID) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, categoryColumns+`
		FROM categories
		WHERE family_uuid = ? AND status = ?
		ORDER BY name`,
		familyUUID.String(), string(core.StatusActive))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

func (r *Repository) UpdateCategory(ctx context.Context, c *core.Category) error {
	c.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE categories
		SET name = ?, color = ?, icon = ?, exclude_from_budget = ?, updated_at = ?
		WHERE uuid = ? AND status = ?`,
		c.Name, c.Color, c.Icon, boolToInt(c.ExcludeFromBudget), encodeTime(c.UpdatedAt),
		c.UUID.String(), string(core.StatusActive))
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) SoftDeleteCategory(ctx context.Context, categoryUUID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE categories SET status = ?, updated_at = ? WHERE uuid = ? AND status = ?`,
		string(core.StatusDeleted), encodeTime(time.Now()),
		categoryUUID.String(), string(core.StatusActive))
	if err != nil {
		return fmt.Errorf("soft delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

const categoryColumns = `
	SELECT id, uuid, family_uuid, name, color, icon, exclude_from_budget,
		status, created_at, updated_at`

func scanCategory(row scanner) (*core.Category, error) {
	var (
		c        core.Category
		uuidStr  string
		famStr   string
		excluded int64
		status   string
		created  string
		updated  string
	)
	if err := row.Scan(&c.ID, &uuidStr, &famStr, &c.Name, &c.Color, &c.Icon,
		&excluded, &status, &created, &updated); err != nil {
		return nil, err
	}
	c.UUID = parseUUID(uuidStr)
	c.FamilyUUID = parseUUID(famStr)
	c.ExcludeFromBudget = excluded != 0
	c.Status = core.Status(status)
	c.CreatedAt = decodeTime(created)
	c.UpdatedAt = decodeTime(updated)
	return &c, nil
}
