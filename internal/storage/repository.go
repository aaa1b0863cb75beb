// Package storage persists the accountbook domain in SQLite.
//
// All monetary amounts are stored as integer cents so sums stay exact; the
// decimal conversion happens at the repository boundary. Timestamps are
// stored as fixed-width UTC strings so range comparisons are lexicographic.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"accountbook/internal/budget"
	"accountbook/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02 15:04:05"

// dbtx is satisfied by both *sql.DB and *sql.Tx so query helpers can run
// inside or outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Repository struct {
	db *sql.DB
}

func Open(dbPath string) (*Repository, error) {
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

	if err := RunMigrations(dbPath); err != nil {
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

// AlertUnitOfWork returns the budget engine's unit of work. Each Run begins
// a fresh transaction on the pool, independent of whatever statement or
// transaction performed the triggering write.
func (r *Repository) AlertUnitOfWork() budget.UnitOfWork {
	return alertUnitOfWork{db: r.db}
}

type alertUnitOfWork struct {
	db *sql.DB
}

func (u alertUnitOfWork) Run(ctx context.Context, fn func(budget.Store) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin alert transaction: %w", err)
	}

	if err := fn(txStore{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback alert transaction: %v (after: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit alert transaction: %w", err)
	}
	return nil
}

// txStore adapts a transaction to budget.Store.
type txStore struct {
	q dbtx
}

func (s txStore) FindActiveFamily(ctx context.Context, familyUUID uuid.UUID) (*core.Family, error) {
	return findActiveFamily(ctx, s.q, familyUUID)
}

func (s txStore) SumCountableExpenses(ctx context.Context, familyUUID uuid.UUID, start, end time.Time) (decimal.Decimal, error) {
	return sumCountableExpenses(ctx, s.q, familyUUID, start, end)
}

func (s txStore) ListActiveMembers(ctx context.Context, familyUUID uuid.UUID) ([]core.FamilyMember, error) {
	return listActiveMembers(ctx, s.q, familyUUID)
}

func (s txStore) BudgetAlertExists(ctx context.Context, familyUUID, userUUID uuid.UUID, alertType, alertMonth string) (bool, error) {
	return budgetAlertExists(ctx, s.q, familyUUID, userUUID, alertType, alertMonth)
}

func (s txStore) InsertNotification(ctx context.Context, n *core.Notification) error {
	return insertNotification(ctx, s.q, n)
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func decodeTime(s string) time.Time {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseUUID(s string) uuid.UUID {
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return u
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
