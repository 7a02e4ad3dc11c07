package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/flatmate/flatmate-backend/internal/api/respond"
	"github.com/flatmate/flatmate-backend/internal/services"
)

type NotificationHandler struct {
	notifier *services.Notifier
}

func NewNotificationHandler(n *services.Notifier) *NotificationHandler {
	return &NotificationHandler{notifier: n}
}

// ListAdmin handles GET /api/notifications/admin
func (h *NotificationHandler) ListAdmin(w http.ResponseWriter, r *http.Request) {
	notifs, err := h.notifier.ListAdmin(r.Context())
	if err != nil {
		respond.WriteInternalError(w, "Failed to load notifications")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifs,
		"count":         len(notifs),
	})
}

// ListForMember handles GET /api/notifications/members/{memberId}
func (h *NotificationHandler) ListForMember(w http.ResponseWriter, r *http.Request) {
	memberID := mux.Vars(r)["memberId"]
	notifs, err := h.notifier.ListForMember(r.Context(), memberID)
	if err != nil {
		respond.WriteInternalError(w, "Failed to load notifications")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifs,
		"count":         len(notifs),
	})
}
