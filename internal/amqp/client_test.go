package amqp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"accountbook/internal/core"

	"github.com/google/uuid"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("connection refused"), true},
		{"connection closed", errors.New("connection closed"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("broken pipe"), true},
		{"closed network connection", errors.New("use of closed network connection"), true},
		{"delivery channel closed", errors.New("message channel closed"), true},
		{"other error", errors.New("some other error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isConnectionError(tt.err)
			if result != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, result, tt.expected)
			}
		})
	}
}

func TestNilClientDropsPublishes(t *testing.T) {
	var client *Client
	ctx := context.Background()

	if err := client.PublishLedgerChanged(ctx, uuid.New(), time.Now()); err != nil {
		t.Errorf("nil PublishLedgerChanged() error = %v", err)
	}
	if err := client.PublishAlertCreated(ctx, &core.Notification{UUID: uuid.New()}); err != nil {
		t.Errorf("nil PublishAlertCreated() error = %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("nil Close() error = %v", err)
	}
}

func TestLedgerChangedMessage_JSON(t *testing.T) {
	familyUUID := uuid.New()
	occurredAt := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	msg := NewLedgerChangedMessage(familyUUID, occurredAt)
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := LedgerChangedMessageFromJSON(data)
	if err != nil {
		t.Fatalf("LedgerChangedMessageFromJSON() error = %v", err)
	}
	if parsed.FamilyUUID != familyUUID {
		t.Errorf("FamilyUUID = %v, want %v", parsed.FamilyUUID, familyUUID)
	}
	if !parsed.OccurredAt.Equal(occurredAt) {
		t.Errorf("OccurredAt = %v, want %v", parsed.OccurredAt, occurredAt)
	}
}

func TestAlertCreatedMessage_JSON(t *testing.T) {
	n := &core.Notification{
		UUID:       uuid.New(),
		FamilyUUID: uuid.New(),
		UserUUID:   uuid.New(),
		Type:       "BUDGET_80_EXCEEDED",
		AlertMonth: "2025-03",
	}

	msg := NewAlertCreatedMessage(n)
	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := AlertCreatedMessageFromJSON(data)
	if err != nil {
		t.Fatalf("AlertCreatedMessageFromJSON() error = %v", err)
	}
	if parsed.NotificationUUID != n.UUID {
		t.Errorf("NotificationUUID = %v, want %v", parsed.NotificationUUID, n.UUID)
	}
	if parsed.Type != n.Type || parsed.AlertMonth != n.AlertMonth {
		t.Errorf("parsed = %+v", parsed)
	}
}

func TestLedgerChangedMessage_InvalidJSON(t *testing.T) {
	if _, err := LedgerChangedMessageFromJSON([]byte(`{"family_uuid": 42}`)); err == nil {
		t.Error("LedgerChangedMessageFromJSON() should fail with invalid JSON")
	}
}
