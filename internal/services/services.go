// Package services orchestrates domain operations across storage, the
// budget alert engine and AMQP. Every operation takes the acting user
// explicitly; there is no ambient identity.
package services

import (
	"context"
	"fmt"

	"accountbook/internal/core"
	"accountbook/internal/storage"

	"github.com/google/uuid"
)

// requireActiveMember resolves the acting user's membership in the family.
// Non-members and inactive members get core.ErrForbidden.
func requireActiveMember(ctx context.Context, repo *storage.Repository, familyUUID, userUUID uuid.UUID) (*core.FamilyMember, error) {
	member, err := repo.FindMember(ctx, familyUUID, userUUID)
	if err != nil {
		return nil, fmt.Errorf("resolve membership: %w", err)
	}
	if member == nil || member.Status != core.MemberActive {
		return nil, core.ErrForbidden
	}
	return member, nil
}

// requireOwner is requireActiveMember plus an owner-role check.
func requireOwner(ctx context.Context, repo *storage.Repository, familyUUID, userUUID uuid.UUID) (*core.FamilyMember, error) {
	member, err := requireActiveMember(ctx, repo, familyUUID, userUUID)
	if err != nil {
		return nil, err
	}
	if !member.IsOwner() {
		return nil, core.ErrForbidden
	}
	return member, nil
}
