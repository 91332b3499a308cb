package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"careconnect-backend/internal/domain"
	"careconnect-backend/internal/security"
	"careconnect-backend/internal/service"
	"careconnect-backend/internal/storage"
)

// RouterDeps bundles everything the router wires together.
type RouterDeps struct {
	Auth          service.AuthService
	Listings      service.ListingService
	Bookings      service.BookingService
	Payments      service.PaymentService
	Escrow        service.EscrowService
	Ledger        service.LedgerService
	Bids          service.BidService
	Notifications service.NotificationService
	Tokens        security.TokenManager
	BlobStore     storage.BlobStore
}

// NewRouter assembles the full REST surface.
func NewRouter(deps RouterDeps) *mux.Router {
	r := mux.NewRouter()

	authHandler := NewAuthHandler(deps.Auth)
	listingHandler := NewListingHandler(deps.Listings)
	bookingHandler := NewBookingHandler(deps.Bookings)
	paymentHandler := NewPaymentHandler(deps.Payments)
	bidHandler := NewBidHandler(deps.Bids)
	withdrawalHandler := NewWithdrawalHandler(deps.Escrow)
	adminHandler := NewAdminHandler(deps.Escrow)
	ledgerHandler := NewLedgerHandler(deps.Ledger)
	notificationHandler := NewNotificationHandler(deps.Notifications)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	// Public endpoints.
	r.HandleFunc("/api/v1/auth/signup", authHandler.Signup).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/auth/login", authHandler.Login).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/payments/webhook", paymentHandler.Webhook).Methods(http.MethodPost)

	if deps.BlobStore != nil {
		RegisterBlobRoutes(r, deps.BlobStore)
	}

	authn := AuthMiddleware(deps.Tokens)
	providerOnly := RequireRole(domain.UserRoleProvider)
	clientOnly := RequireRole(domain.UserRoleClient)
	adminOnly := RequireRole(domain.UserRoleAdmin)

	// Authenticated endpoints.
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(authn)

	// Listings.
	api.HandleFunc("/listings", listingHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/listings", listingHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/listings/mine", listingHandler.ListMine).Methods(http.MethodGet)
	api.HandleFunc("/listings/{id}", listingHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/listings/{id}", listingHandler.Update).Methods(http.MethodPut)
	api.HandleFunc("/listings/{id}", listingHandler.Delete).Methods(http.MethodDelete)
	api.Handle("/listings/{id}/bids", http.HandlerFunc(bidHandler.ListForListing)).Methods(http.MethodGet)

	// Bookings.
	api.Handle("/bookings", clientOnly(http.HandlerFunc(bookingHandler.Create))).Methods(http.MethodPost)
	api.HandleFunc("/bookings/client", bookingHandler.ListMineAsClient).Methods(http.MethodGet)
	api.HandleFunc("/bookings/provider", bookingHandler.ListMineAsProvider).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{id}", bookingHandler.Get).Methods(http.MethodGet)
	api.Handle("/bookings/{id}/accept", providerOnly(http.HandlerFunc(bookingHandler.Accept))).Methods(http.MethodPost)
	api.Handle("/bookings/{id}/reject", providerOnly(http.HandlerFunc(bookingHandler.Reject))).Methods(http.MethodPost)
	api.Handle("/bookings/{id}/start", providerOnly(http.HandlerFunc(bookingHandler.Start))).Methods(http.MethodPost)
	api.Handle("/bookings/{id}/complete", providerOnly(http.HandlerFunc(bookingHandler.Complete))).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/cancel", bookingHandler.Cancel).Methods(http.MethodPost)

	// Payments.
	api.Handle("/payments/intents", clientOnly(http.HandlerFunc(paymentHandler.CreateIntent))).Methods(http.MethodPost)
	api.Handle("/payments/intents/{id}/confirm", clientOnly(http.HandlerFunc(paymentHandler.ConfirmIntent))).Methods(http.MethodPost)

	// Bids.
	api.Handle("/bids", providerOnly(http.HandlerFunc(bidHandler.Place))).Methods(http.MethodPost)
	api.HandleFunc("/bids/mine", bidHandler.ListMine).Methods(http.MethodGet)
	api.Handle("/bids/{id}/accept", clientOnly(http.HandlerFunc(bidHandler.Accept))).Methods(http.MethodPost)

	// Provider withdrawals and earnings.
	api.Handle("/withdrawals", providerOnly(http.HandlerFunc(withdrawalHandler.ListMine))).Methods(http.MethodGet)
	api.Handle("/withdrawals/preview-fees", providerOnly(http.HandlerFunc(withdrawalHandler.PreviewFees))).Methods(http.MethodGet)
	api.Handle("/withdrawals/{id}", providerOnly(http.HandlerFunc(withdrawalHandler.Get))).Methods(http.MethodGet)
	api.Handle("/withdrawals/{id}/request", providerOnly(http.HandlerFunc(withdrawalHandler.Request))).Methods(http.MethodPost)
	api.Handle("/withdrawals/{id}/cancel", providerOnly(http.HandlerFunc(withdrawalHandler.Cancel))).Methods(http.MethodPost)

	// Ledger.
	api.HandleFunc("/ledger/balance", ledgerHandler.GetBalance).Methods(http.MethodGet)
	api.HandleFunc("/ledger/transactions", ledgerHandler.GetTransactions).Methods(http.MethodGet)
	api.HandleFunc("/ledger/summary", ledgerHandler.GetSummary).Methods(http.MethodGet)

	// Notifications.
	api.HandleFunc("/notifications", notificationHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/notifications/{id}/read", notificationHandler.MarkRead).Methods(http.MethodPost)

	// File uploads (avatars, provider credential documents).
	if deps.BlobStore != nil {
		api.HandleFunc("/uploads/presign", NewBlobHandler(deps.BlobStore).HandlePresign).Methods(http.MethodPost)
	}

	// Admin back office.
	admin := r.PathPrefix("/api/v1/admin").Subrouter()
	admin.Use(authn, adminOnly)
	admin.HandleFunc("/withdrawals", adminHandler.ListWithdrawals).Methods(http.MethodGet)
	admin.HandleFunc("/withdrawals/bulk-approve", adminHandler.BulkApprove).Methods(http.MethodPost)
	admin.HandleFunc("/withdrawals/{id}/approve", adminHandler.Approve).Methods(http.MethodPost)
	admin.HandleFunc("/withdrawals/{id}/reject", adminHandler.Reject).Methods(http.MethodPost)
	admin.HandleFunc("/withdrawals/{id}/audit", adminHandler.AuditTrail).Methods(http.MethodGet)
	admin.HandleFunc("/escrow/statistics", adminHandler.Statistics).Methods(http.MethodGet)
	admin.HandleFunc("/escrow/commission-report", adminHandler.CommissionReport).Methods(http.MethodGet)

	return r
}
