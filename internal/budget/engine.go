package budget

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"accountbook/internal/core"
	applog "accountbook/internal/log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrDuplicateAlert is returned by Store.InsertNotification when the dedup
// index already holds a row for the same (family, user, type, month).
var ErrDuplicateAlert = errors.New("budget alert already exists")

// Store is the slice of persistence the engine needs. All methods run
// against the engine's own transaction, never the caller's.
type Store interface {
	// FindActiveFamily returns (nil, nil) when the family is missing or
	// soft-deleted.
	FindActiveFamily(ctx context.Context, familyUUID uuid.UUID) (*core.Family, error)

	// SumCountableExpenses totals active expenses inside [start, end],
	// applying the entry/category exclusion policy. Empty ledger sums to zero.
	SumCountableExpenses(ctx context.Context, familyUUID uuid.UUID, start, end time.Time) (decimal.Decimal, error)

	ListActiveMembers(ctx context.Context, familyUUID uuid.UUID) ([]core.FamilyMember, error)

	// BudgetAlertExists reports whether the user already holds a
	// notification for (family, type, month).
	BudgetAlertExists(ctx context.Context, familyUUID, userUUID uuid.UUID, alertType, alertMonth string) (bool, error)

	InsertNotification(ctx context.Context, n *core.Notification) error
}

// UnitOfWork opens a fresh transaction for fn, independent of whatever
// transaction performed the write that triggered the engine.
type UnitOfWork interface {
	Run(ctx context.Context, fn func(Store) error) error
}

// Publisher emits a fire-and-forget event for each created alert.
type Publisher interface {
	PublishAlertCreated(ctx context.Context, n *core.Notification) error
}

// Engine evaluates budget usage after every spend-affecting write and
// persists per-member threshold notifications.
type Engine struct {
	uow    UnitOfWork
	events Publisher // optional
	logger *slog.Logger
}

// NewEngine builds an engine. events may be nil, in which case no alert
// events are published.
func NewEngine(uow UnitOfWork, events Publisher) *Engine {
	return &Engine{
		uow:    uow,
		events: events,
		logger: slog.Default().With(applog.FieldComponent, applog.ComponentBudgetAlerts),
	}
}

// OnLedgerChange re-evaluates the family's budget usage for the calendar
// month of occurredAt. It is meant to be called after the originating write
// has committed; it runs in its own transaction and never returns an error —
// failures are logged and swallowed so they cannot affect the trigger.
func (e *Engine) OnLedgerChange(ctx context.Context, familyUUID uuid.UUID, occurredAt time.Time) {
	err := e.uow.Run(ctx, func(s Store) error {
		return e.check(ctx, s, familyUUID, occurredAt)
	})
	if err != nil {
		e.logger.ErrorContext(ctx, "Budget alert check failed",
			applog.FieldFamilyUUID, familyUUID,
			applog.FieldAlertMonth, PeriodKey(occurredAt),
			applog.FieldError, err)
	}
}

func (e *Engine) check(ctx context.Context, s Store, familyUUID uuid.UUID, occurredAt time.Time) error {
	family, err := s.FindActiveFamily(ctx, familyUUID)
	if err != nil {
		return err
	}
	if family == nil {
		e.logger.DebugContext(ctx, "Family not found or inactive",
			applog.FieldFamilyUUID, familyUUID)
		return nil
	}

	if !family.BudgetEnabled() {
		e.logger.DebugContext(ctx, "Monthly budget not set",
			applog.FieldFamilyUUID, familyUUID)
		return nil
	}

	start, end := MonthBounds(occurredAt)
	spend, err := s.SumCountableExpenses(ctx, familyUUID, start, end)
	if err != nil {
		return err
	}

	pct := UsagePercent(spend, family.MonthlyBudget)
	e.logger.InfoContext(ctx, "Budget check",
		applog.FieldFamilyUUID, familyUUID,
		applog.FieldAlertMonth, PeriodKey(occurredAt),
		"spend", spend.String(),
		"budget", family.MonthlyBudget.String(),
		applog.FieldPercentage, pct.String())

	// Only the highest crossed tier fires. A jump straight past 100% does
	// not back-fill the 50%/80% alerts that were never evaluated.
	tier, crossed := Classify(spend, family.MonthlyBudget)
	if !crossed {
		e.logger.DebugContext(ctx, "No alert needed",
			applog.FieldPercentage, pct.String())
		return nil
	}

	return e.notifyMembers(ctx, s, family, tier, pct, spend, PeriodKey(occurredAt))
}

// notifyMembers issues one notification per active member that does not
// already hold one for (tier, month). Each member is handled independently:
// a failed insert is logged and the fan-out continues.
func (e *Engine) notifyMembers(ctx context.Context, s Store, family *core.Family, tier Tier, pct, spend decimal.Decimal, alertMonth string) error {
	members, err := s.ListActiveMembers(ctx, family.UUID)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		e.logger.DebugContext(ctx, "No active members",
			applog.FieldFamilyUUID, family.UUID)
		return nil
	}

	for _, member := range members {
		exists, err := s.BudgetAlertExists(ctx, family.UUID, member.UserUUID, tier.Code(), alertMonth)
		if err != nil {
			e.logger.ErrorContext(ctx, "Dedup check failed",
				applog.FieldFamilyUUID, family.UUID,
				applog.FieldUserUUID, member.UserUUID,
				applog.FieldError, err)
			continue
		}
		if exists {
			e.logger.DebugContext(ctx, "Alert already exists",
				applog.FieldFamilyUUID, family.UUID,
				applog.FieldUserUUID, member.UserUUID,
				applog.FieldAlertType, tier.Code(),
				applog.FieldAlertMonth, alertMonth)
			continue
		}

		n := &core.Notification{
			UUID:          uuid.New(),
			FamilyUUID:    family.UUID,
			UserUUID:      member.UserUUID,
			Type:          tier.Code(),
			Title:         tier.Title(),
			Message:       composeMessage(tier, family.Name, family.MonthlyBudget, spend, pct),
			ReferenceType: "BUDGET",
			AlertMonth:    alertMonth,
			IsRead:        false,
			CreatedAt:     time.Now(),
		}

		if err := s.InsertNotification(ctx, n); err != nil {
			if errors.Is(err, ErrDuplicateAlert) {
				// A concurrent check for the same month slipped past the
				// existence read; the unique index caught it.
				e.logger.DebugContext(ctx, "Alert created concurrently",
					applog.FieldFamilyUUID, family.UUID,
					applog.FieldUserUUID, member.UserUUID,
					applog.FieldAlertType, tier.Code())
				continue
			}
			e.logger.ErrorContext(ctx, "Failed to insert budget alert",
				applog.FieldFamilyUUID, family.UUID,
				applog.FieldUserUUID, member.UserUUID,
				applog.FieldAlertType, tier.Code(),
				applog.FieldError, err)
			continue
		}

		e.logger.InfoContext(ctx, "Budget alert created",
			applog.FieldFamilyUUID, family.UUID,
			applog.FieldUserUUID, member.UserUUID,
			applog.FieldAlertType, tier.Code(),
			applog.FieldPercentage, pct.String())

		if e.events != nil {
			if err := e.events.PublishAlertCreated(ctx, n); err != nil {
				e.logger.WarnContext(ctx, "Failed to publish alert event",
					applog.FieldError, err)
			}
		}
	}

	return nil
}
