package http

import (
	"net/http"

	"careconnect-backend/internal/domain"
	"careconnect-backend/internal/service"
)

type BidHandler struct {
	bids service.BidService
}

func NewBidHandler(bids service.BidService) *BidHandler {
	return &BidHandler{bids: bids}
}

type placeBidRequest struct {
	ListingID   int64  `json:"listing_id"`
	AmountCents int64  `json:"amount_cents"`
	Message     string `json:"message"`
}

type acceptBidResponse struct {
	Bid     *domain.Bid     `json:"bid"`
	Booking *domain.Booking `json:"booking"`
}

func (h *BidHandler) Place(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)

	var req placeBidRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bid, err := h.bids.PlaceBid(r.Context(), claims.UserID, req.ListingID, req.AmountCents, req.Message)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, bid)
}

func (h *BidHandler) Accept(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid bid id")
		return
	}

	bid, booking, err := h.bids.AcceptBid(r.Context(), claims.UserID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, acceptBidResponse{Bid: bid, Booking: booking})
}

func (h *BidHandler) ListForListing(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	listingID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	bids, err := h.bids.ListBidsForListing(r.Context(), claims.UserID, listingID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, bids)
}

func (h *BidHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	page, pageSize := pageParams(r)

	items, total, err := h.bids.ListMyBids(r.Context(), claims.UserID, page, pageSize)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, listEnvelope{Items: items, Total: total, Page: page, PageSize: pageSize})
}
