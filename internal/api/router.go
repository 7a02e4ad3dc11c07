package api

import (
	"github.com/gorilla/mux"

	"github.com/flatmate/flatmate-backend/internal/api/recovery"
	"github.com/flatmate/flatmate-backend/internal/api/requestid"
	"github.com/flatmate/flatmate-backend/internal/config"
	"github.com/flatmate/flatmate-backend/internal/recordstore"
	"github.com/flatmate/flatmate-backend/internal/services"
)

// NewRouter wires all engines over the given record store.
func NewRouter(store recordstore.Store, cfg *config.Config, isHealthy func() bool) *mux.Router {
	router := mux.NewRouter()

	// Global middlewares
	router.Use(recovery.Middleware)
	router.Use(requestid.Middleware)

	// Engines
	notifier := services.NewNotifier(store)
	memberSvc := services.NewMemberService(store)
	querySvc := services.NewQueryService(store, notifier, cfg.QueryRatePerMinute, cfg.QueryRateBurst)
	receiptSvc := services.NewReceiptService(store, notifier)

	// Handlers
	healthHandler := NewHealthHandler(isHealthy)
	memberHandler := NewMemberHandler(memberSvc)
	queryHandler := NewQueryHandler(querySvc)
	receiptHandler := NewReceiptHandler(receiptSvc, memberSvc)
	notificationHandler := NewNotificationHandler(notifier)
	gatewayHandler := NewGatewayHandler()

	// Health
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	// Member directory
	router.HandleFunc("/api/members", memberHandler.ListMembers).Methods("GET")
	router.HandleFunc("/api/members/{memberId}", memberHandler.GetMember).Methods("GET")

	// Query workflow
	router.HandleFunc("/api/queries", queryHandler.SubmitQuery).Methods("POST")
	router.HandleFunc("/api/queries", queryHandler.ListQueries).Methods("GET")
	router.HandleFunc("/api/queries/{queryId}/status", queryHandler.SetStatus).Methods("PUT")
	router.HandleFunc("/api/queries/{queryId}/replies", queryHandler.Reply).Methods("POST")

	// Receipt ledger
	router.HandleFunc("/api/receipts", receiptHandler.CreateReceipt).Methods("POST")
	router.HandleFunc("/api/receipts", receiptHandler.ListReceipts).Methods("GET")

	// Notification inboxes
	router.HandleFunc("/api/notifications/admin", notificationHandler.ListAdmin).Methods("GET")
	router.HandleFunc("/api/notifications/members/{memberId}", notificationHandler.ListForMember).Methods("GET")

	// Payment gateway checkout config
	router.HandleFunc("/api/gateway/config", gatewayHandler.GetConfig).Methods("GET")

	return router
}
