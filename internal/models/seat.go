package models

import (
	"fmt"
	"strings"

	"github.com/uptrace/bun"
)

// SeatStatus is the booking state of one seat on one scheduled journey.
type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "available"
	SeatStatusBooked    SeatStatus = "booked"
	SeatStatusSold      SeatStatus = "sold"
	SeatStatusBlocked   SeatStatus = "blocked"
)

// Seat is one physical position on one scheduled journey. Status and
// TicketID only change together, through the transition methods below;
// nothing else may mutate them.
type Seat struct {
	bun.BaseModel `bun:"table:seats"`

	SeatID     string     `bun:"seat_id,pk" json:"seat_id"`
	ScheduleID string     `bun:"schedule_id,notnull" json:"schedule_id"`
	SeatNumber string     `bun:"seat_number,notnull" json:"seat_number"`
	Row        int        `bun:"seat_row,notnull" json:"row"`
	Column     int        `bun:"seat_col,notnull" json:"column"`
	Status     SeatStatus `bun:"status,notnull" json:"status"`
	TicketID   string     `bun:"ticket_id,nullzero" json:"ticket_id,omitempty"`
}

// NewSeat creates an available seat for a schedule. Seats are created
// in bulk when a schedule is published, one per physical bus position.
func NewSeat(id, scheduleID, seatNumber string, row, column int) (*Seat, error) {
	if strings.TrimSpace(seatNumber) == "" {
		return nil, fmt.Errorf("%w: seat number must not be empty", ErrInvalidArgument)
	}
	if row <= 0 {
		return nil, fmt.Errorf("%w: row must be a positive integer, got %d", ErrInvalidArgument, row)
	}
	if column <= 0 {
		return nil, fmt.Errorf("%w: column must be a positive integer, got %d", ErrInvalidArgument, column)
	}
	return &Seat{
		SeatID:     id,
		ScheduleID: scheduleID,
		SeatNumber: seatNumber,
		Row:        row,
		Column:     column,
		Status:     SeatStatusAvailable,
	}, nil
}

// Book transitions Available → Booked and associates the ticket.
func (s *Seat) Book(ticketID string) error {
	if s.Status != SeatStatusAvailable {
		return fmt.Errorf("%w: seat %s is %s, not available", ErrInvalidState, s.SeatNumber, s.Status)
	}
	s.Status = SeatStatusBooked
	s.TicketID = ticketID
	return nil
}

// ConfirmBooking transitions Booked → Sold after payment succeeds.
func (s *Seat) ConfirmBooking() error {
	if s.Status != SeatStatusBooked {
		return fmt.Errorf("%w: seat %s is %s, cannot confirm", ErrInvalidState, s.SeatNumber, s.Status)
	}
	s.Status = SeatStatusSold
	return nil
}

// CancelBooking releases a Booked or Sold seat back to Available and
// clears the ticket association.
func (s *Seat) CancelBooking() error {
	if s.Status != SeatStatusBooked && s.Status != SeatStatusSold {
		return fmt.Errorf("%w: seat %s is %s, nothing to cancel", ErrInvalidState, s.SeatNumber, s.Status)
	}
	s.Status = SeatStatusAvailable
	s.TicketID = ""
	return nil
}

// Block takes the seat out of sale from any state. Administrative
// override; no ticket association is implied.
func (s *Seat) Block() {
	s.Status = SeatStatusBlocked
	s.TicketID = ""
}

// Unblock resets a blocked seat to Available. Blocked seats never
// return to sale automatically.
func (s *Seat) Unblock() error {
	if s.Status != SeatStatusBlocked {
		return fmt.Errorf("%w: seat %s is %s, not blocked", ErrInvalidState, s.SeatNumber, s.Status)
	}
	s.Status = SeatStatusAvailable
	s.TicketID = ""
	return nil
}
