package http

import (
	"net/http"
	"time"

	"accountbook/internal/core"
)

type notificationView struct {
	UUID          string `json:"uuid"`
	FamilyUUID    string `json:"family_uuid"`
	Type          string `json:"type"`
	Title         string `json:"title"`
	Message       string `json:"message"`
	ReferenceType string `json:"reference_type,omitempty"`
	AlertMonth    string `json:"alert_month,omitempty"`
	IsRead        bool   `json:"is_read"`
	CreatedAt     string `json:"created_at"`
}

func newNotificationView(n *core.Notification) notificationView {
	return notificationView{
		UUID:          n.UUID.String(),
		FamilyUUID:    n.FamilyUUID.String(),
		Type:          n.Type,
		Title:         n.Title,
		Message:       n.Message,
		ReferenceType: n.ReferenceType,
		AlertMonth:    n.AlertMonth,
		IsRead:        n.IsRead,
		CreatedAt:     n.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	actor, err := actingUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	limit, offset := parsePagination(r)
	notifications, total, err := s.notifications.ListNotifications(r.Context(), actor, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]notificationView, 0, len(notifications))
	for i := range notifications {
		views = append(views, newNotificationView(&notifications[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": views,
		"total":         total,
		"limit":         limit,
		"offset":        offset,
	})
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	actor, err := actingUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	count, err := s.notifications.CountUnread(r.Context(), actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": count})
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	actor, err := actingUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	notificationUUID, err := pathUUID(r, "uuid")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.notifications.MarkRead(r.Context(), actor, notificationUUID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
