package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ms-busbooking/internal/logger"
	"ms-busbooking/internal/models"
	"ms-busbooking/internal/schedule"
	"ms-busbooking/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	ScheduleService *schedule.Service
	Logger          *logger.Logger
}

type publishRequest struct {
	BusID         string  `json:"bus_id"`
	Origin        string  `json:"origin"`
	Destination   string  `json:"destination"`
	BoardingPoint string  `json:"boarding_point"`
	DroppingPoint string  `json:"dropping_point"`
	JourneyDate   string  `json:"journey_date"` // YYYY-MM-DD
	DepartureTime string  `json:"departure_time"`
	FareAmount    float64 `json:"fare_amount"`
	FareCurrency  string  `json:"fare_currency"`
	Rows          int     `json:"rows"`
	Columns       int     `json:"columns"`
}

// PublishSchedule creates a schedule and its seat inventory.
func (h *Handler) PublishSchedule(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	journeyDate, err := time.Parse("2006-01-02", req.JourneyDate)
	if err != nil {
		http.Error(w, "journey_date must be formatted YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	published, err := h.ScheduleService.Publish(r.Context(), schedule.PublishRequest{
		BusID:         req.BusID,
		Origin:        req.Origin,
		Destination:   req.Destination,
		BoardingPoint: req.BoardingPoint,
		DroppingPoint: req.DroppingPoint,
		JourneyDate:   journeyDate,
		DepartureTime: req.DepartureTime,
		FareAmount:    req.FareAmount,
		FareCurrency:  req.FareCurrency,
		Rows:          req.Rows,
		Columns:       req.Columns,
	})
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("PublishSchedule: %v", err))
		status := http.StatusInternalServerError
		if errors.Is(err, models.ErrInvalidArgument) {
			status = http.StatusBadRequest
		} else if errors.Is(err, models.ErrBusinessRule) {
			status = http.StatusUnprocessableEntity
		}
		http.Error(w, "Could not publish schedule: "+err.Error(), status)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, "schedule published", published)
}

// SearchSchedules lists active schedules for a route and date.
func (h *Handler) SearchSchedules(w http.ResponseWriter, r *http.Request) {
	origin := r.URL.Query().Get("from")
	destination := r.URL.Query().Get("to")
	dateRaw := r.URL.Query().Get("date")

	date, err := time.Parse("2006-01-02", dateRaw)
	if err != nil {
		http.Error(w, "date must be formatted YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	schedules, err := h.ScheduleService.Search(r.Context(), origin, destination, date)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("SearchSchedules: %v", err))
		status := http.StatusInternalServerError
		if errors.Is(err, models.ErrInvalidArgument) {
			status = http.StatusBadRequest
		}
		http.Error(w, "Could not search schedules: "+err.Error(), status)
		return
	}
	if schedules == nil {
		schedules = []models.Schedule{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(schedules)
}

// GetSchedule returns one schedule.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	scheduleID := chi.URLParam(r, "scheduleId")

	found, err := h.ScheduleService.Get(r.Context(), scheduleID)
	if err != nil {
		http.Error(w, "Schedule not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(found)
}

// DeactivateSchedule takes a schedule off sale.
func (h *Handler) DeactivateSchedule(w http.ResponseWriter, r *http.Request) {
	scheduleID := chi.URLParam(r, "scheduleId")

	if err := h.ScheduleService.Deactivate(r.Context(), scheduleID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeactivateSchedule: %v", err))
		http.Error(w, "Could not deactivate schedule: "+err.Error(), http.StatusInternalServerError)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "schedule deactivated", nil)
}
