package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ms-busbooking/internal/auth"
	"ms-busbooking/internal/booking"
	"ms-busbooking/internal/logger"
	"ms-busbooking/internal/models"
	"ms-busbooking/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	BookingService *booking.Service
	Logger         *logger.Logger
}

// statusForError maps the domain error taxonomy onto HTTP codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrSeatNotAvailable):
		return http.StatusConflict
	case errors.Is(err, models.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, models.ErrBusinessRule):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// CreateBooking books one seat for the authenticated passenger.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	passengerID, ok := auth.PassengerIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req models.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.ScheduleID == "" || req.SeatID == "" {
		http.Error(w, "schedule_id and seat_id are required", http.StatusBadRequest)
		return
	}

	ticket, err := h.BookingService.Book(r.Context(), passengerID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateBooking: %v", err))
		http.Error(w, "Could not book seat: "+err.Error(), statusForError(err))
		return
	}

	resp := models.BookingResponse{
		TicketID:      ticket.TicketID,
		TicketNumber:  ticket.TicketNumber,
		ScheduleID:    ticket.ScheduleID,
		SeatID:        ticket.SeatID,
		BoardingPoint: ticket.BoardingPoint,
		DroppingPoint: ticket.DroppingPoint,
		FareAmount:    ticket.FareAmount,
		FareCurrency:  ticket.FareCurrency,
	}

	utils.WriteSuccess(w, http.StatusCreated, "seat booked, awaiting payment", resp)
}

// GetTicket returns one ticket; passengers can only see their own.
func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketId")
	passengerID, _ := auth.PassengerIDFromContext(r.Context())

	ticket, err := h.BookingService.GetTicket(r.Context(), ticketID)
	if err != nil {
		http.Error(w, "Ticket not found", http.StatusNotFound)
		return
	}
	if ticket.PassengerID != passengerID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ticket)
}

// ListMyTickets returns the authenticated passenger's tickets.
func (h *Handler) ListMyTickets(w http.ResponseWriter, r *http.Request) {
	passengerID, ok := auth.PassengerIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	tickets, err := h.BookingService.TicketsByPassenger(r.Context(), passengerID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListMyTickets: %v", err))
		http.Error(w, "Could not load tickets", http.StatusInternalServerError)
		return
	}
	if tickets == nil {
		tickets = []models.Ticket{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tickets)
}

// ConfirmBooking marks a booking paid. Normally the Stripe webhook does
// this; the endpoint exists for operator-assisted payments.
func (h *Handler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketId")

	if err := h.BookingService.Confirm(r.Context(), ticketID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ConfirmBooking: %v", err))
		http.Error(w, "Could not confirm booking: "+err.Error(), statusForError(err))
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "booking confirmed", nil)
}

// CancelBooking cancels a ticket and releases its seat.
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketId")

	if err := h.BookingService.Cancel(r.Context(), ticketID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CancelBooking: %v", err))
		http.Error(w, "Could not cancel booking: "+err.Error(), statusForError(err))
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "booking cancelled", nil)
}

// SeatMap renders the availability map for a schedule.
func (h *Handler) SeatMap(w http.ResponseWriter, r *http.Request) {
	scheduleID := chi.URLParam(r, "scheduleId")

	entries, err := h.BookingService.SeatMap(r.Context(), scheduleID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("SeatMap: %v", err))
		http.Error(w, "Could not load seat map", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

// CreatePaymentIntent starts a Stripe payment for a booked ticket.
func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketId")
	h.Logger.Info("API", fmt.Sprintf("CreatePaymentIntent: ticketId=%s", ticketID))

	intent, err := h.BookingService.CreatePaymentIntent(r.Context(), ticketID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreatePaymentIntent: %v", err))
		http.Error(w, "Failed to create payment intent: "+err.Error(), statusForError(err))
		return
	}

	response := struct {
		ClientSecret    string `json:"clientSecret"`
		PaymentIntentID string `json:"paymentIntentId"`
	}{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// StripeWebhook handles payment outcome events from Stripe.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	if err := h.BookingService.HandleStripeWebhook(r); err != nil {
		h.Logger.Error("API", fmt.Sprintf("StripeWebhook: %v", err))

		if webhookErr, ok := err.(*booking.WebhookError); ok {
			http.Error(w, webhookErr.PublicError, webhookErr.StatusCode)
			return
		}
		http.Error(w, "Webhook processing error", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
}

type seatIDsRequest struct {
	SeatIDs []string `json:"seat_ids"`
}

// BlockSeats takes seats out of sale, cancelling any live bookings.
// Seats must belong to the schedule in the URL.
func (h *Handler) BlockSeats(w http.ResponseWriter, r *http.Request) {
	scheduleID := chi.URLParam(r, "scheduleId")

	var req seatIDsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.SeatIDs) == 0 {
		http.Error(w, "seat_ids is required", http.StatusBadRequest)
		return
	}

	for _, seatID := range req.SeatIDs {
		if err := h.BookingService.BlockSeat(r.Context(), scheduleID, seatID); err != nil {
			h.Logger.Error("API", fmt.Sprintf("BlockSeats: seat %s: %v", seatID, err))
			http.Error(w, fmt.Sprintf("Could not block seat %s: %v", seatID, err), statusForError(err))
			return
		}
	}

	utils.WriteSuccess(w, http.StatusOK, "seats blocked", nil)
}

// UnblockSeats returns blocked seats to sale.
func (h *Handler) UnblockSeats(w http.ResponseWriter, r *http.Request) {
	scheduleID := chi.URLParam(r, "scheduleId")

	var req seatIDsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.SeatIDs) == 0 {
		http.Error(w, "seat_ids is required", http.StatusBadRequest)
		return
	}

	for _, seatID := range req.SeatIDs {
		if err := h.BookingService.UnblockSeat(r.Context(), scheduleID, seatID); err != nil {
			h.Logger.Error("API", fmt.Sprintf("UnblockSeats: seat %s: %v", seatID, err))
			http.Error(w, fmt.Sprintf("Could not unblock seat %s: %v", seatID, err), statusForError(err))
			return
		}
	}

	utils.WriteSuccess(w, http.StatusOK, "seats unblocked", nil)
}
