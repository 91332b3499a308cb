package http

import (
	"net/http"
	"strconv"
	"time"

	"careconnect-backend/internal/repository"
	"careconnect-backend/internal/service"
)

// AdminHandler serves the back-office side of the escrow engine.
type AdminHandler struct {
	escrow service.EscrowService
}

func NewAdminHandler(escrow service.EscrowService) *AdminHandler {
	return &AdminHandler{escrow: escrow}
}

type approveWithdrawalRequest struct {
	TransactionReference string `json:"transaction_reference"`
	Notes                string `json:"notes"`
}

type rejectWithdrawalRequest struct {
	Reason string `json:"reason"`
}

type bulkApproveRequest struct {
	WithdrawalIDs        []int64 `json:"withdrawal_ids"`
	TransactionReference string  `json:"transaction_reference"`
	Notes                string  `json:"notes"`
}

func (h *AdminHandler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)

	from, err := dateParam(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date, expected yyyy-mm-dd")
		return
	}
	to, err := dateParam(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date, expected yyyy-mm-dd")
		return
	}
	providerID, _ := strconv.ParseInt(r.URL.Query().Get("provider_id"), 10, 64)

	filter := repository.EscrowFilter{
		EscrowStatus:     r.URL.Query().Get("escrow_status"),
		WithdrawalStatus: r.URL.Query().Get("withdrawal_status"),
		ProviderID:       providerID,
		From:             from,
		To:               to,
		Page:             page,
		PageSize:         pageSize,
	}

	items, total, err := h.escrow.ListWithdrawals(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, listEnvelope{Items: items, Total: total, Page: page, PageSize: pageSize})
}

func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid withdrawal id")
		return
	}

	var req approveWithdrawalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	wr, err := h.escrow.ApproveWithdrawal(r.Context(), claims.UserID, id, &service.ApproveWithdrawalCommand{
		TransactionReference: req.TransactionReference,
		Notes:                req.Notes,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, wr)
}

func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid withdrawal id")
		return
	}

	var req rejectWithdrawalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	wr, err := h.escrow.RejectWithdrawal(r.Context(), claims.UserID, id, &service.RejectWithdrawalCommand{
		Reason: req.Reason,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, wr)
}

func (h *AdminHandler) BulkApprove(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)

	var req bulkApproveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.escrow.BulkApprove(r.Context(), claims.UserID, req.WithdrawalIDs, &service.ApproveWithdrawalCommand{
		TransactionReference: req.TransactionReference,
		Notes:                req.Notes,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, result)
}

func (h *AdminHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid withdrawal id")
		return
	}

	events, err := h.escrow.GetAuditTrail(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, events)
}

func (h *AdminHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.escrow.Statistics(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, stats)
}

func (h *AdminHandler) CommissionReport(w http.ResponseWriter, r *http.Request) {
	groupBy := r.URL.Query().Get("group_by")
	if groupBy == "" {
		groupBy = "day"
	}

	from, err := dateParam(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date, expected yyyy-mm-dd")
		return
	}
	to, err := dateParam(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date, expected yyyy-mm-dd")
		return
	}

	// Default to the trailing 30 days.
	now := time.Now().UTC()
	fromT := now.AddDate(0, 0, -30)
	toT := now
	if from != nil {
		fromT = *from
	}
	if to != nil {
		toT = *to
	}

	rows, err := h.escrow.CommissionReport(r.Context(), groupBy, fromT, toT)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, rows)
}
