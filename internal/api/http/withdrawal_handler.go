package http

import (
	"net/http"
	"strconv"

	"careconnect-backend/internal/service"
)

// WithdrawalHandler serves the provider-facing side of the escrow engine.
type WithdrawalHandler struct {
	escrow service.EscrowService
}

func NewWithdrawalHandler(escrow service.EscrowService) *WithdrawalHandler {
	return &WithdrawalHandler{escrow: escrow}
}

type requestWithdrawalRequest struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
}

func (h *WithdrawalHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	page, pageSize := pageParams(r)

	items, total, err := h.escrow.ListProviderWithdrawals(r.Context(), claims.UserID, page, pageSize)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, listEnvelope{Items: items, Total: total, Page: page, PageSize: pageSize})
}

func (h *WithdrawalHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid withdrawal id")
		return
	}

	wr, err := h.escrow.GetWithdrawal(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if wr.ProviderID != claims.UserID {
		writeError(w, http.StatusForbidden, "you do not have access to this resource")
		return
	}
	writeSuccess(w, http.StatusOK, wr)
}

func (h *WithdrawalHandler) Request(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid withdrawal id")
		return
	}

	var req requestWithdrawalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BankName == "" || req.AccountNumber == "" {
		writeError(w, http.StatusBadRequest, "bank_name and account_number are required")
		return
	}

	wr, err := h.escrow.RequestWithdrawal(r.Context(), claims.UserID, id, &service.RequestWithdrawalCommand{
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, wr)
}

func (h *WithdrawalHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid withdrawal id")
		return
	}

	wr, err := h.escrow.CancelWithdrawal(r.Context(), claims.UserID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, wr)
}

// PreviewFees answers "what would I receive for this amount" without
// touching any state.
func (h *WithdrawalHandler) PreviewFees(w http.ResponseWriter, r *http.Request) {
	grossCents, err := strconv.ParseInt(r.URL.Query().Get("gross_cents"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "gross_cents query parameter is required")
		return
	}

	fees, err := h.escrow.PreviewFees(grossCents)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, fees)
}
