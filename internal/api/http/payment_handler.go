package http

import (
	"io"
	"net/http"

	"careconnect-backend/internal/domain"
	"careconnect-backend/internal/logger"
	"careconnect-backend/internal/service"
)

type PaymentHandler struct {
	payments service.PaymentService
}

func NewPaymentHandler(payments service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type createIntentRequest struct {
	BookingID int64 `json:"booking_id"`
}

type confirmIntentRequest struct {
	PaymentMethodRef string `json:"payment_method_ref"`
}

type intentResponse struct {
	Payment      *domain.Payment `json:"payment"`
	ClientSecret string          `json:"client_secret"`
}

func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)

	var req createIntentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payment, clientSecret, err := h.payments.CreateIntent(r.Context(), claims.UserID, req.BookingID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, intentResponse{Payment: payment, ClientSecret: clientSecret})
}

func (h *PaymentHandler) ConfirmIntent(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid payment id")
		return
	}

	var req confirmIntentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payment, err := h.payments.ConfirmIntent(r.Context(), claims.UserID, id, req.PaymentMethodRef)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, payment)
}

// Webhook receives processor callbacks. It is unauthenticated; the HMAC
// signature header is the authentication.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable payload")
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get("X-Webhook-Signature")
	if err := h.payments.HandleWebhook(r.Context(), payload, signature); err != nil {
		// Signature failures get a 400 so the processor knows the delivery
		// was rejected; everything else is retried by the processor on 5xx.
		logger.Warn("Webhook processing failed", "error", err)
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}
