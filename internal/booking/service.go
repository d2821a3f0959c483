// Package booking owns the coupled Seat+Ticket state. Every transition
// that touches both entities goes through this service so a confirmed
// ticket can never leave its seat merely booked, or vice versa.
package booking

import (
	"context"
	"fmt"
	"time"

	"ms-busbooking/internal/logger"
	"ms-busbooking/internal/models"
	"ms-busbooking/internal/utils"
)

type DBLayer interface {
	GetSeat(ctx context.Context, seatID string) (*models.Seat, error)
	GetSeatsBySchedule(ctx context.Context, scheduleID string) ([]models.Seat, error)
	GetTicket(ctx context.Context, ticketID string) (*models.Ticket, error)
	GetTicketsByPassenger(ctx context.Context, passengerID string) ([]models.Ticket, error)
	GetSchedule(ctx context.Context, scheduleID string) (*models.Schedule, error)
	BookSeat(ctx context.Context, ticket *models.Ticket) error
	ConfirmBooking(ctx context.Context, ticket *models.Ticket, seat *models.Seat) error
	CancelBooking(ctx context.Context, ticket *models.Ticket, seat *models.Seat) error
	BlockSeat(ctx context.Context, seat *models.Seat, ticket *models.Ticket) error
	UpdateSeat(ctx context.Context, seat *models.Seat) error
}

type SeatHold interface {
	HoldSeat(ctx context.Context, seatID, ticketID string) (bool, error)
	ReleaseSeat(ctx context.Context, seatID, ticketID string) error
}

type EventPublisher interface {
	PublishBookingCreated(ticket models.Ticket) error
	PublishBookingConfirmed(ticket models.Ticket) error
	PublishBookingCancelled(ticket models.Ticket) error
}

// QRGenerator renders the encrypted boarding code embedded in a
// confirmed ticket.
type QRGenerator interface {
	GenerateEncryptedQR(ticket models.Ticket) ([]byte, error)
}

type Service struct {
	DB            DBLayer
	Holds         SeatHold
	Events        EventPublisher
	QR            QRGenerator
	TicketNumbers *utils.TicketNumberGenerator
	logger        *logger.Logger
	now           func() time.Time
}

func NewService(db DBLayer, holds SeatHold, events EventPublisher, qr QRGenerator, log *logger.Logger) *Service {
	return &Service{
		DB:            db,
		Holds:         holds,
		Events:        events,
		QR:            qr,
		TicketNumbers: utils.NewTicketNumberGenerator(),
		logger:        log,
		now:           time.Now,
	}
}

// CanBookSeat reports whether a booking attempt on the seat could
// succeed right now. Pure; seat-map rendering uses it without touching
// any state. The authoritative check happens in the storage layer.
func (s *Service) CanBookSeat(seat *models.Seat) bool {
	return seat.Status == models.SeatStatusAvailable
}

// BookSeat creates an unconfirmed ticket for the passenger and
// transitions the seat Available → Booked. The boarding point, dropping
// point and fare are copied from the schedule; empty overrides fall
// back to the schedule's endpoints.
//
// The in-memory availability check is only a fast path. The storage
// layer re-checks with a conditional update, so of two concurrent
// bookers exactly one wins and the other gets ErrSeatNotAvailable.
func (s *Service) BookSeat(ctx context.Context, seat *models.Seat, passenger *models.Passenger, schedule *models.Schedule, boardingPoint, droppingPoint string) (*models.Ticket, error) {
	if !s.CanBookSeat(seat) {
		return nil, fmt.Errorf("%w: seat %s is %s", models.ErrSeatNotAvailable, seat.SeatNumber, seat.Status)
	}
	if !schedule.IsActive {
		return nil, fmt.Errorf("%w: schedule %s is not active", models.ErrBusinessRule, schedule.ScheduleID)
	}
	if journeyInPast(schedule.JourneyDate, s.now()) {
		return nil, fmt.Errorf("%w: journey date %s is in the past", models.ErrBusinessRule, schedule.JourneyDate.Format("2006-01-02"))
	}

	number, err := s.TicketNumbers.Generate()
	if err != nil {
		return nil, err
	}
	if boardingPoint == "" {
		boardingPoint = schedule.BoardingPoint
	}
	if droppingPoint == "" {
		droppingPoint = schedule.DroppingPoint
	}
	ticket := models.NewTicket(
		utils.GenerateID(), number, schedule.ScheduleID, passenger.PassengerID, seat.SeatID,
		boardingPoint, droppingPoint, schedule.FareAmount, schedule.FareCurrency, s.now(),
	)

	// Front-line filter: the redis hold turns most losing racers away
	// before they hit the database, and its TTL doubles as the
	// reservation expiry for bookings that never get paid.
	held, err := s.Holds.HoldSeat(ctx, seat.SeatID, ticket.TicketID)
	if err != nil {
		return nil, fmt.Errorf("seat hold error: %w", err)
	}
	if !held {
		return nil, fmt.Errorf("%w: seat %s is held by another booking", models.ErrSeatNotAvailable, seat.SeatNumber)
	}

	if err := s.DB.BookSeat(ctx, ticket); err != nil {
		if relErr := s.Holds.ReleaseSeat(ctx, seat.SeatID, ticket.TicketID); relErr != nil {
			s.logger.Warn("BOOKING", fmt.Sprintf("failed to release hold on seat %s: %v", seat.SeatID, relErr))
		}
		return nil, err
	}

	// The entity transition comes last: a caller whose booking lost the
	// race gets its seat back untouched.
	if err := seat.Book(ticket.TicketID); err != nil {
		return nil, err
	}

	s.logger.LogBooking("BOOK", ticket.TicketID, fmt.Sprintf("seat %s on schedule %s for passenger %s", seat.SeatNumber, schedule.ScheduleID, passenger.PassengerID))
	if err := s.Events.PublishBookingCreated(*ticket); err != nil {
		s.logger.Warn("KAFKA", fmt.Sprintf("publish booking created: %v", err))
	}
	return ticket, nil
}

// ConfirmBooking marks the ticket confirmed and the seat sold, as one
// atomic unit. Called on the payment success signal.
func (s *Service) ConfirmBooking(ctx context.Context, ticket *models.Ticket, seat *models.Seat) error {
	if ticket.SeatID != seat.SeatID {
		return fmt.Errorf("%w: ticket %s and seat %s do not match", models.ErrBusinessRule, ticket.TicketID, seat.SeatID)
	}
	if ticket.Cancelled {
		return fmt.Errorf("%w: ticket %s is already cancelled", models.ErrInvalidState, ticket.TicketNumber)
	}
	// Validate the seat transition before mutating the ticket so a
	// failure leaves both entities untouched.
	if err := seat.ConfirmBooking(); err != nil {
		return err
	}
	if err := ticket.Confirm(); err != nil {
		return err
	}

	if s.QR != nil {
		qrBytes, err := s.QR.GenerateEncryptedQR(*ticket)
		if err != nil {
			return fmt.Errorf("failed to generate boarding QR: %w", err)
		}
		ticket.QRCode = qrBytes
	}

	if err := s.DB.ConfirmBooking(ctx, ticket, seat); err != nil {
		return err
	}

	if err := s.Holds.ReleaseSeat(ctx, seat.SeatID, ticket.TicketID); err != nil {
		s.logger.Warn("BOOKING", fmt.Sprintf("failed to release hold on seat %s: %v", seat.SeatID, err))
	}
	s.logger.LogBooking("CONFIRM", ticket.TicketID, fmt.Sprintf("seat %s sold", seat.SeatNumber))
	if err := s.Events.PublishBookingConfirmed(*ticket); err != nil {
		s.logger.Warn("KAFKA", fmt.Sprintf("publish booking confirmed: %v", err))
	}
	return nil
}

// CancelBooking cancels the ticket and releases the seat, always
// paired. Called on explicit cancellation or the payment failure
// signal; cancelling a sold seat models the post-payment refund flow.
func (s *Service) CancelBooking(ctx context.Context, ticket *models.Ticket, seat *models.Seat) error {
	if ticket.SeatID != seat.SeatID {
		return fmt.Errorf("%w: ticket %s and seat %s do not match", models.ErrBusinessRule, ticket.TicketID, seat.SeatID)
	}
	if err := seat.CancelBooking(); err != nil {
		return err
	}
	ticket.Cancel()

	if err := s.DB.CancelBooking(ctx, ticket, seat); err != nil {
		return err
	}

	if err := s.Holds.ReleaseSeat(ctx, seat.SeatID, ticket.TicketID); err != nil {
		s.logger.Warn("BOOKING", fmt.Sprintf("failed to release hold on seat %s: %v", seat.SeatID, err))
	}
	s.logger.LogBooking("CANCEL", ticket.TicketID, fmt.Sprintf("seat %s released", seat.SeatNumber))
	if err := s.Events.PublishBookingCancelled(*ticket); err != nil {
		s.logger.Warn("KAFKA", fmt.Sprintf("publish booking cancelled: %v", err))
	}
	return nil
}

func journeyInPast(journeyDate, now time.Time) bool {
	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return journeyDate.Before(today)
}
