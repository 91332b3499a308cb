package http

import (
	"net/http"

	"careconnect-backend/internal/domain"
	"careconnect-backend/internal/service"
)

type ListingHandler struct {
	listings service.ListingService
}

func NewListingHandler(listings service.ListingService) *ListingHandler {
	return &ListingHandler{listings: listings}
}

type createListingRequest struct {
	Type            string `json:"type"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	HourlyRateCents int64  `json:"hourly_rate_cents"`
	Location        string `json:"location"`
}

func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)

	var req createListingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	listing := &domain.Listing{
		OwnerID:         claims.UserID,
		Type:            domain.ListingType(req.Type),
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		HourlyRateCents: req.HourlyRateCents,
		Location:        req.Location,
	}
	if err := h.listings.CreateListing(r.Context(), listing); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, listing)
}

func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid listing id")
		return
	}
	listing, err := h.listings.GetListing(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, listing)
}

func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	var req createListingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	listing := &domain.Listing{
		ID:              id,
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		HourlyRateCents: req.HourlyRateCents,
		Location:        req.Location,
		Available:       true,
	}
	if err := h.listings.UpdateListing(r.Context(), claims.UserID, listing); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, listing)
}

func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid listing id")
		return
	}
	isAdmin := claims.Role == domain.UserRoleAdmin
	if err := h.listings.DeleteListing(r.Context(), claims.UserID, id, isAdmin); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	listingType := domain.ListingType(r.URL.Query().Get("type"))
	category := r.URL.Query().Get("category")

	items, total, err := h.listings.ListListings(r.Context(), listingType, category, page, pageSize)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, listEnvelope{Items: items, Total: total, Page: page, PageSize: pageSize})
}

func (h *ListingHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	page, pageSize := pageParams(r)

	items, total, err := h.listings.ListMyListings(r.Context(), claims.UserID, page, pageSize)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, listEnvelope{Items: items, Total: total, Page: page, PageSize: pageSize})
}
