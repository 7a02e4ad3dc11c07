package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/flatmate/flatmate-backend/internal/api/respond"
	"github.com/flatmate/flatmate-backend/internal/identity"
	"github.com/flatmate/flatmate-backend/internal/services"
)

type QueryHandler struct {
	svc *services.QueryService
}

func NewQueryHandler(svc *services.QueryService) *QueryHandler { return &QueryHandler{svc: svc} }

// SubmitQuery handles POST /api/queries. Identity comes from the forwarded
// auth headers; the body may override profile fields for kiosk submissions.
func (h *QueryHandler) SubmitQuery(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Subject string            `json:"subject"`
		Message string            `json:"message"`
		Profile *identity.Profile `json:"profile,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	caller := identity.FromRequest(r)
	if in.Profile != nil {
		caller = *in.Profile
	}

	id, err := h.svc.SubmitQuery(r.Context(), caller, in.Subject, in.Message)
	if err != nil {
		writeServiceError(w, err, "Failed to submit query")
		return
	}
	respond.WriteJSON(w, http.StatusCreated, map[string]string{"queryId": id})
}

// ListQueries handles GET /api/queries?status=<open|resolved|all>
func (h *QueryHandler) ListQueries(w http.ResponseWriter, r *http.Request) {
	queries, err := h.svc.ListQueries(r.Context())
	if err != nil {
		respond.WriteInternalError(w, "Failed to load queries")
		return
	}
	queries = services.FilterByStatus(queries, r.URL.Query().Get("status"))
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"queries": queries,
		"count":   len(queries),
	})
}

// SetStatus handles PUT /api/queries/{queryId}/status
func (h *QueryHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	queryID := mux.Vars(r)["queryId"]
	if err := h.svc.SetStatus(r.Context(), queryID, in.Status); err != nil {
		writeServiceError(w, err, "Failed to update query status")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"queryId": queryID, "status": in.Status})
}

// Reply handles POST /api/queries/{queryId}/replies
func (h *QueryHandler) Reply(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Message  string  `json:"message"`
		MemberID *string `json:"memberId,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	queryID := mux.Vars(r)["queryId"]
	if err := h.svc.Reply(r.Context(), queryID, in.MemberID, in.Message); err != nil {
		writeServiceError(w, err, "Failed to send reply")
		return
	}
	respond.WriteJSON(w, http.StatusCreated, map[string]string{"queryId": queryID})
}
