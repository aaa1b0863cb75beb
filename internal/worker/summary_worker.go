// Package worker consumes ledger change events and maintains the
// precomputed monthly spend rollups.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"accountbook/internal/amqp"
	"accountbook/internal/budget"
	"accountbook/internal/storage"

	applog "accountbook/internal/log"
)

// SummaryWorker recomputes a family's monthly rollup from scratch on every
// ledger change, so redelivered or reordered messages converge to the same
// total.
type SummaryWorker struct {
	repo   *storage.Repository
	logger *slog.Logger
}

func NewSummaryWorker(repo *storage.Repository) *SummaryWorker {
	return &SummaryWorker{
		repo:   repo,
		logger: slog.Default().With(applog.FieldComponent, applog.ComponentWorker),
	}
}

func (w *SummaryWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	start, end := budget.MonthBounds(msg.OccurredAt)
	month := budget.PeriodKey(msg.OccurredAt)

	total, err := w.repo.SumCountableExpenses(ctx, msg.FamilyUUID, start, end)
	if err != nil {
		return fmt.Errorf("sum expenses for summary: %w", err)
	}

	summary := &storage.MonthlySummary{
		FamilyUUID: msg.FamilyUUID,
		Month:      month,
		Total:      total,
	}
	if err := w.repo.UpsertMonthlySummary(ctx, summary); err != nil {
		return fmt.Errorf("store summary: %w", err)
	}

	w.logger.InfoContext(ctx, "Monthly summary refreshed",
		applog.FieldFamilyUUID, msg.FamilyUUID,
		applog.FieldAlertMonth, month,
		"total", total.String())
	return nil
}
