package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/flatmate/flatmate-backend/internal/api/respond"
	"github.com/flatmate/flatmate-backend/internal/model"
	"github.com/flatmate/flatmate-backend/internal/services"
)

type MemberHandler struct {
	svc *services.MemberService
}

func NewMemberHandler(svc *services.MemberService) *MemberHandler { return &MemberHandler{svc: svc} }

// ListMembers handles GET /api/members?q=<term>
func (h *MemberHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.svc.ListMembers(r.Context())
	if err != nil {
		respond.WriteInternalError(w, "Failed to load members")
		return
	}
	members = services.FilterMembers(members, r.URL.Query().Get("q"))
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"members": members,
		"count":   len(members),
	})
}

// GetMember handles GET /api/members/{memberId}
func (h *MemberHandler) GetMember(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["memberId"]
	m, err := h.svc.GetMember(r.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "member not found")
			return
		}
		respond.WriteInternalError(w, "Failed to load member")
		return
	}
	respond.WriteJSON(w, http.StatusOK, m)
}
