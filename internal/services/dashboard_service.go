package services

import (
	"context"
	"fmt"
	"time"

	"accountbook/internal/budget"
	"accountbook/internal/core"
	"accountbook/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MonthlyStats is the dashboard view of one family month. Spend and the
// category breakdown follow the same exclusion policy as budget alerts.
type MonthlyStats struct {
	Month        string
	Budget       decimal.Decimal
	Spend        decimal.Decimal
	Income       decimal.Decimal
	UsagePercent decimal.Decimal
	Categories   []storage.CategoryExpenseStat
}

// DashboardService aggregates monthly figures, live or from the worker's
// precomputed rollups.
type DashboardService struct {
	repo *storage.Repository
}

func NewDashboardService(repo *storage.Repository) *DashboardService {
	return &DashboardService{repo: repo}
}

// GetMonthlyStats computes the live dashboard for the calendar month of ref.
func (s *DashboardService) GetMonthlyStats(ctx context.Context, actor, familyUUID uuid.UUID, ref time.Time) (*MonthlyStats, error) {
	if _, err := requireActiveMember(ctx, s.repo, familyUUID, actor); err != nil {
		return nil, err
	}

	family, err := s.repo.FindActiveFamily(ctx, familyUUID)
	if err != nil {
		return nil, fmt.Errorf("load family: %w", err)
	}
	if family == nil {
		return nil, core.ErrNotFound
	}

	start, end := budget.MonthBounds(ref)

	spend, err := s.repo.SumCountableExpenses(ctx, familyUUID, start, end)
	if err != nil {
		return nil, err
	}
	income, err := s.repo.SumIncomes(ctx, familyUUID, start, end)
	if err != nil {
		return nil, err
	}
	categories, err := s.repo.CategoryExpenseStats(ctx, familyUUID, start, end)
	if err != nil {
		return nil, err
	}

	return &MonthlyStats{
		Month:        budget.PeriodKey(ref),
		Budget:       family.MonthlyBudget,
		Spend:        spend,
		Income:       income,
		UsagePercent: budget.UsagePercent(spend, family.MonthlyBudget),
		Categories:   categories,
	}, nil
}

// GetCachedSummary returns the worker-maintained spend rollup for a month,
// or (nil, nil) when the worker has not processed that month yet.
func (s *DashboardService) GetCachedSummary(ctx context.Context, actor, familyUUID uuid.UUID, month string) (*storage.MonthlySummary, error) {
	if _, err := requireActiveMember(ctx, s.repo, familyUUID, actor); err != nil {
		return nil, err
	}
	return s.repo.GetMonthlySummary(ctx, familyUUID, month)
}
