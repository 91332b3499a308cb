package http

import (
	"context"
	"net/http"
	"time"

	"careconnect-backend/internal/domain"
	"careconnect-backend/internal/service"
)

type BookingHandler struct {
	bookings service.BookingService
}

func NewBookingHandler(bookings service.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

type createBookingRequest struct {
	ListingID       int64     `json:"listing_id"`
	BookingDate     string    `json:"booking_date"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	ServiceLocation string    `json:"service_location"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)

	var req createBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	booking, err := h.bookings.CreateBooking(r.Context(), &service.CreateBookingCommand{
		ClientID:        claims.UserID,
		ListingID:       req.ListingID,
		BookingDate:     req.BookingDate,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		ServiceLocation: req.ServiceLocation,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, booking)
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}
	booking, err := h.bookings.GetBooking(r.Context(), claims.UserID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, booking)
}

func (h *BookingHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.bookings.AcceptBooking)
}

func (h *BookingHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.bookings.StartBooking)
}

func (h *BookingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.bookings.CompleteBooking)
}

func (h *BookingHandler) Reject(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	var req reasonRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	booking, err := h.bookings.RejectBooking(r.Context(), claims.UserID, id, req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, booking)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	var req reasonRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	booking, err := h.bookings.CancelBooking(r.Context(), claims.UserID, id, req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, booking)
}

func (h *BookingHandler) ListMineAsClient(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	page, pageSize := pageParams(r)
	status := r.URL.Query().Get("status")

	items, total, err := h.bookings.ListClientBookings(r.Context(), claims.UserID, status, page, pageSize)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, listEnvelope{Items: items, Total: total, Page: page, PageSize: pageSize})
}

func (h *BookingHandler) ListMineAsProvider(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	page, pageSize := pageParams(r)
	status := r.URL.Query().Get("status")

	items, total, err := h.bookings.ListProviderBookings(r.Context(), claims.UserID, status, page, pageSize)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, listEnvelope{Items: items, Total: total, Page: page, PageSize: pageSize})
}

func (h *BookingHandler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, int64, int64) (*domain.Booking, error)) {
	claims, _ := claimsFrom(r)
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	booking, err := fn(r.Context(), claims.UserID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, booking)
}
