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

func (r *Repository) CreateInvitation(ctx context.Context, inv *core.Invitation) error {
	inv.CreatedAt = time.Now()
	if inv.Status == "" {
		inv.Status = core.InvitationPending
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO invitations (uuid, family_uuid, code, created_by, status, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		inv.UUID.String(), inv.FamilyUUID.String(), inv.Code, inv.CreatedBy.String(),
		string(inv.Status), encodeTime(inv.ExpiresAt), encodeTime(inv.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert invitation: %w", err)
	}

	inv.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("invitation insert id: %w", err)
	}
	return nil
}

// FindPendingInvitation looks up an unexpired PENDING invitation by its code.
// Returns (nil, nil) when no such invitation exists.
func (r *Repository) FindPendingInvitation(ctx context.Context, code string) (*core.Invitation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, uuid, family_uuid, code, created_by, accepted_by, status, expires_at, created_at
		FROM invitations
		WHERE code = ? AND status = ? AND expires_at > ?`,
		code, string(core.InvitationPending), encodeTime(time.Now()))

	var (
		inv        core.Invitation
		uuidStr    string
		famStr     string
		createdBy  string
		acceptedBy sql.NullString
		status     string
		expires    string
		created    string
	)
	err := row.Scan(&inv.ID, &uuidStr, &famStr, &inv.Code, &createdBy, &acceptedBy,
		&status, &expires, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find invitation: %w", err)
	}

	inv.UUID = parseUUID(uuidStr)
	inv.FamilyUUID = parseUUID(famStr)
	inv.CreatedBy = parseUUID(createdBy)
	if acceptedBy.Valid {
		inv.AcceptedBy = parseUUID(acceptedBy.String)
	}
	inv.Status = core.InvitationStatus(status)
	inv.ExpiresAt = decodeTime(expires)
	inv.CreatedAt = decodeTime(created)
	return &inv, nil
}

// MarkInvitationAccepted flips a PENDING invitation to ACCEPTED. The status
// guard in the WHERE clause makes double-acceptance lose the race.
func (r *Repository) MarkInvitationAccepted(ctx context.Context, invitationUUID, acceptedBy uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invitations SET status = ?, accepted_by = ? WHERE uuid = ? AND status = ?`,
		string(core.InvitationAccepted), acceptedBy.String(),
		invitationUUID.String(), string(core.InvitationPending))
	if err != nil {
		return fmt.Errorf("accept invitation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrInvitationUsed
	}
	return nil
}
