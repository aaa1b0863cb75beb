package amqp

import (
	"encoding/json"
	"time"

	"accountbook/internal/core"

	"github.com/google/uuid"
)

// LedgerChangedMessage signals that a family's expense ledger changed.
// It carries only identifiers; the worker re-reads the ledger so a stale
// or redelivered message converges to the same summary.
type LedgerChangedMessage struct {
	FamilyUUID uuid.UUID `json:"family_uuid"`
	OccurredAt time.Time `json:"occurred_at"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewLedgerChangedMessage(familyUUID uuid.UUID, occurredAt time.Time) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		FamilyUUID: familyUUID,
		OccurredAt: occurredAt,
		Timestamp:  time.Now(),
	}
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// AlertCreatedMessage announces a stored budget alert to downstream
// consumers (push delivery, digests).
type AlertCreatedMessage struct {
	NotificationUUID uuid.UUID `json:"notification_uuid"`
	FamilyUUID       uuid.UUID `json:"family_uuid"`
	UserUUID         uuid.UUID `json:"user_uuid"`
	Type             string    `json:"type"`
	AlertMonth       string    `json:"alert_month"`
	Timestamp        time.Time `json:"timestamp"`
}

func NewAlertCreatedMessage(n *core.Notification) *AlertCreatedMessage {
	return &AlertCreatedMessage{
		NotificationUUID: n.UUID,
		FamilyUUID:       n.FamilyUUID,
		UserUUID:         n.UserUUID,
		Type:             n.Type,
		AlertMonth:       n.AlertMonth,
		Timestamp:        time.Now(),
	}
}

func (m *AlertCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func AlertCreatedMessageFromJSON(data []byte) (*AlertCreatedMessage, error) {
	var msg AlertCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
