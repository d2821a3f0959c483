// Package schedule manages journey schedules: publishing one creates
// the full seat inventory for the bus, and search feeds the customer
// booking flow.
package schedule

import (
	"context"
	"fmt"
	"time"

	"ms-busbooking/internal/logger"
	"ms-busbooking/internal/models"
	"ms-busbooking/internal/utils"
)

type DBLayer interface {
	CreateSchedule(ctx context.Context, schedule *models.Schedule) error
	CreateSeats(ctx context.Context, seats []models.Seat) error
	GetSchedule(ctx context.Context, scheduleID string) (*models.Schedule, error)
	SearchSchedules(ctx context.Context, origin, destination string, date time.Time) ([]models.Schedule, error)
	DeactivateSchedule(ctx context.Context, scheduleID string) error
}

// PublishRequest describes a journey plus the bus's seat layout. One
// seat is created per row/column position.
type PublishRequest struct {
	BusID         string    `json:"bus_id"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	BoardingPoint string    `json:"boarding_point"`
	DroppingPoint string    `json:"dropping_point"`
	JourneyDate   time.Time `json:"journey_date"`
	DepartureTime string    `json:"departure_time"`
	FareAmount    float64   `json:"fare_amount"`
	FareCurrency  string    `json:"fare_currency"`
	Rows          int       `json:"rows"`
	Columns       int       `json:"columns"`
}

type Service struct {
	DB     DBLayer
	logger *logger.Logger
	now    func() time.Time
}

func NewService(db DBLayer, log *logger.Logger) *Service {
	return &Service{DB: db, logger: log, now: time.Now}
}

const maxLayoutRows = 26 // row labels are single letters A..Z

// Publish stores the schedule and bulk-creates its seat inventory, one
// available seat per position, labelled "A1".."Z9" row by row.
func (s *Service) Publish(ctx context.Context, req PublishRequest) (*models.Schedule, error) {
	if req.BusID == "" || req.Origin == "" || req.Destination == "" {
		return nil, fmt.Errorf("%w: bus_id, origin and destination are required", models.ErrInvalidArgument)
	}
	if req.Rows <= 0 || req.Rows > maxLayoutRows {
		return nil, fmt.Errorf("%w: rows must be between 1 and %d", models.ErrInvalidArgument, maxLayoutRows)
	}
	if req.Columns <= 0 {
		return nil, fmt.Errorf("%w: columns must be a positive integer", models.ErrInvalidArgument)
	}
	if req.FareAmount <= 0 {
		return nil, fmt.Errorf("%w: fare amount must be positive", models.ErrInvalidArgument)
	}
	if journeyInPast(req.JourneyDate, s.now()) {
		return nil, fmt.Errorf("%w: journey date %s is in the past", models.ErrBusinessRule, req.JourneyDate.Format("2006-01-02"))
	}

	boardingPoint := req.BoardingPoint
	if boardingPoint == "" {
		boardingPoint = req.Origin
	}
	droppingPoint := req.DroppingPoint
	if droppingPoint == "" {
		droppingPoint = req.Destination
	}

	schedule := &models.Schedule{
		ScheduleID:    utils.GenerateID(),
		BusID:         req.BusID,
		Origin:        req.Origin,
		Destination:   req.Destination,
		BoardingPoint: boardingPoint,
		DroppingPoint: droppingPoint,
		JourneyDate:   req.JourneyDate,
		DepartureTime: req.DepartureTime,
		FareAmount:    req.FareAmount,
		FareCurrency:  req.FareCurrency,
		IsActive:      true,
		CreatedAt:     s.now(),
	}

	seats := make([]models.Seat, 0, req.Rows*req.Columns)
	for row := 1; row <= req.Rows; row++ {
		for col := 1; col <= req.Columns; col++ {
			label := fmt.Sprintf("%c%d", 'A'+row-1, col)
			seat, err := models.NewSeat(utils.GenerateID(), schedule.ScheduleID, label, row, col)
			if err != nil {
				return nil, err
			}
			seats = append(seats, *seat)
		}
	}

	if err := s.DB.CreateSchedule(ctx, schedule); err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}
	if err := s.DB.CreateSeats(ctx, seats); err != nil {
		return nil, fmt.Errorf("failed to create seats: %w", err)
	}

	s.logger.Info("SCHEDULE", fmt.Sprintf("published schedule %s (%s → %s, %d seats)", schedule.ScheduleID, schedule.Origin, schedule.Destination, len(seats)))
	return schedule, nil
}

// Search lists active schedules for a route and date.
func (s *Service) Search(ctx context.Context, origin, destination string, date time.Time) ([]models.Schedule, error) {
	if origin == "" || destination == "" {
		return nil, fmt.Errorf("%w: origin and destination are required", models.ErrInvalidArgument)
	}
	return s.DB.SearchSchedules(ctx, origin, destination, date)
}

// Get fetches one schedule.
func (s *Service) Get(ctx context.Context, scheduleID string) (*models.Schedule, error) {
	schedule, err := s.DB.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("schedule %s not found: %w", scheduleID, err)
	}
	return schedule, nil
}

// Deactivate takes a schedule off sale. Existing bookings stay; new
// BookSeat calls fail the active check.
func (s *Service) Deactivate(ctx context.Context, scheduleID string) error {
	if err := s.DB.DeactivateSchedule(ctx, scheduleID); err != nil {
		return fmt.Errorf("failed to deactivate schedule %s: %w", scheduleID, err)
	}
	s.logger.Info("SCHEDULE", fmt.Sprintf("schedule %s deactivated", scheduleID))
	return nil
}

func journeyInPast(journeyDate, now time.Time) bool {
	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return journeyDate.Before(today)
}
