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

// MonthlySummary is a worker-maintained rollup of countable spend for one
// family month.
type MonthlySummary struct {
	FamilyUUID  uuid.UUID
	Month       string // YYYY-MM
	Total       decimal.Decimal
	RefreshedAt time.Time
}

func (r *Repository) UpsertMonthlySummary(ctx context.Context, s *MonthlySummary) error {
	s.RefreshedAt = time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO monthly_summaries (family_uuid, month, total_cents, refreshed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (family_uuid, month)
		DO UPDATE SET total_cents = excluded.total_cents, refreshed_at = excluded.refreshed_at`,
		s.FamilyUUID.String(), s.Month, core.AmountToCents(s.Total), encodeTime(s.RefreshedAt))
	if err != nil {
		return fmt.Errorf("upsert monthly summary: %w", err)
	}
	return nil
}

// GetMonthlySummary returns (nil, nil) when no rollup exists for the month.
func (r *Repository) GetMonthlySummary(ctx context.Context, familyUUID uuid.UUID, month string) (*MonthlySummary, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT family_uuid, month, total_cents, refreshed_at
		FROM monthly_summaries
		WHERE family_uuid = ? AND month = ?`,
		familyUUID.String(), month)

	var (
		s         MonthlySummary
		famStr    string
		cents     int64
		refreshed string
	)
	err := row.Scan(&famStr, &s.Month, &cents, &refreshed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get monthly summary: %w", err)
	}
	s.FamilyUUID = parseUUID(famStr)
	s.Total = core.AmountFromCents(cents)
	s.RefreshedAt = decodeTime(refreshed)
	return &s, nil
}
