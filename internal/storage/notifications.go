package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"accountbook/internal/budget"
	"accountbook/internal/core"

	"github.com/google/uuid"
)

func (r *Repository) InsertNotification(ctx context.Context, n *core.Notification) error {
	return insertNotification(ctx, r.db, n)
}

func insertNotification(ctx context.Context, q dbtx, n *core.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	alertMonth := sql.NullString{String: n.AlertMonth, Valid: n.AlertMonth != ""}
	res, err := q.ExecContext(ctx, `
		INSERT INTO notifications (uuid, family_uuid, user_uuid, type, title, message,
			reference_type, alert_month, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.UUID.String(), n.FamilyUUID.String(), n.UserUUID.String(), n.Type,
		n.Title, n.Message, n.ReferenceType, alertMonth, boolToInt(n.IsRead),
		encodeTime(n.CreatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return budget.ErrDuplicateAlert
		}
		return fmt.Errorf("insert notification: %w", err)
	}

	n.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("notification insert id: %w", err)
	}
	return nil
}

func (r *Repository) BudgetAlertExists(ctx context.Context, familyUUID, userUUID uuid.UUID, alertType, alertMonth string) (bool, error) {
	return budgetAlertExists(ctx, r.db, familyUUID, userUUID, alertType, alertMonth)
}

func budgetAlertExists(ctx context.Context, q dbtx, familyUUID, userUUID uuid.UUID, alertType, alertMonth string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE family_uuid = ? AND user_uuid = ? AND type = ? AND alert_month = ?
		)`,
		familyUUID.String(), userUUID.String(), alertType, alertMonth).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check budget alert: %w", err)
	}
	return exists, nil
}

// ListNotificationsByUser returns a page of the user's notifications, newest
// first, plus the total count.
func (r *Repository) ListNotificationsByUser(ctx context.Context, userUUID uuid.UUID, limit, offset int) ([]core.Notification, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_uuid = ?",
		userUUID.String()).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	query := `
		SELECT id, uuid, family_uuid, user_uuid, type, title, message,
			reference_type, alert_month, is_read, created_at
		FROM notifications
		WHERE user_uuid = ?
		ORDER BY created_at DESC, id DESC`
	args := []any{userUUID.String()}
	if limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []core.Notification
	for rows.Next() {
		var (
			n          core.Notification
			uuidStr    string
			famStr     string
			userStr    string
			alertMonth sql.NullString
			isRead     int64
			created    string
		)
		if err := rows.Scan(&n.ID, &uuidStr, &famStr, &userStr, &n.Type, &n.Title,
			&n.Message, &n.ReferenceType, &alertMonth, &isRead, &created); err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		n.UUID = parseUUID(uuidStr)
		n.FamilyUUID = parseUUID(famStr)
		n.UserUUID = parseUUID(userStr)
		n.AlertMonth = alertMonth.String
		n.IsRead = isRead != 0
		n.CreatedAt = decodeTime(created)
		notifications = append(notifications, n)
	}
	return notifications, total, rows.Err()
}

func (r *Repository) CountUnreadNotifications(ctx context.Context, userUUID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_uuid = ? AND is_read = 0",
		userUUID.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkNotificationRead only touches notifications addressed to userUUID so a
// user cannot acknowledge someone else's alert.
func (r *Repository) MarkNotificationRead(ctx context.Context, notificationUUID, userUUID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1 WHERE uuid = ? AND user_uuid = ?",
		notificationUUID.String(), userUUID.String())
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}
