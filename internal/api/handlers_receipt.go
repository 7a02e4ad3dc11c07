package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/flatmate/flatmate-backend/internal/api/respond"
	"github.com/flatmate/flatmate-backend/internal/model"
	"github.com/flatmate/flatmate-backend/internal/services"
)

type ReceiptHandler struct {
	receipts *services.ReceiptService
	members  *services.MemberService
}

func NewReceiptHandler(receipts *services.ReceiptService, members *services.MemberService) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts, members: members}
}

// CreateReceipt handles POST /api/receipts. The member's current balance is
// read server-side; the caller supplies only the id, amount and method.
func (h *ReceiptHandler) CreateReceipt(w http.ResponseWriter, r *http.Request) {
	var in struct {
		MemberID string  `json:"memberId"`
		Amount   float64 `json:"amount"`
		Method   string  `json:"method"`
		Note     string  `json:"note,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if in.MemberID == "" {
		respond.WriteBadRequest(w, "memberId is required")
		return
	}

	member, err := h.members.GetMember(r.Context(), in.MemberID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "member not found")
			return
		}
		respond.WriteInternalError(w, "Failed to load member")
		return
	}

	receiptID, err := h.receipts.CreateReceipt(r.Context(), member, in.Amount, in.Method, in.Note)
	if err != nil {
		writeServiceError(w, err, "Failed to create receipt")
		return
	}
	respond.WriteJSON(w, http.StatusCreated, map[string]string{"receiptId": receiptID})
}

// ListReceipts handles GET /api/receipts
func (h *ReceiptHandler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := h.receipts.ListReceipts(r.Context())
	if err != nil {
		respond.WriteInternalError(w, "Failed to load receipts")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"receipts": receipts,
		"count":    len(receipts),
	})
}
