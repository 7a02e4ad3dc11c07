package api

import (
	"net/http"

	"github.com/flatmate/flatmate-backend/internal/api/respond"
	"github.com/flatmate/flatmate-backend/internal/gateway"
)

type GatewayHandler struct{}

func NewGatewayHandler() *GatewayHandler { return &GatewayHandler{} }

// GetConfig handles GET /api/gateway/config
func (h *GatewayHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, gateway.DefaultConfig())
}
