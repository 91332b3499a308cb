package http

import (
	"net/http"

	"careconnect-backend/internal/service"
)

type LedgerHandler struct {
	ledger service.LedgerService
}

func NewLedgerHandler(ledger service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

func (h *LedgerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)

	balance, err := h.ledger.GetBalance(r.Context(), claims.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, balance)
}

func (h *LedgerHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	page, pageSize := pageParams(r)

	items, total, err := h.ledger.GetTransactions(r.Context(), claims.UserID, page, pageSize)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, listEnvelope{Items: items, Total: total, Page: page, PageSize: pageSize})
}

func (h *LedgerHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)

	summary, err := h.ledger.GetSummary(r.Context(), claims.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, summary)
}
