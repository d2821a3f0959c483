package models

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Ticket is a passenger's reservation record against one seat. It is
// created unconfirmed at booking time, then either confirmed (payment
// success) or cancelled (explicit cancellation or payment failure).
type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	TicketID      string    `bun:"ticket_id,pk" json:"ticket_id"`
	TicketNumber  string    `bun:"ticket_number,notnull,unique" json:"ticket_number"`
	ScheduleID    string    `bun:"schedule_id,notnull" json:"schedule_id"`
	PassengerID   string    `bun:"passenger_id,notnull" json:"passenger_id"`
	SeatID        string    `bun:"seat_id,notnull" json:"seat_id"`
	BoardingPoint string    `bun:"boarding_point" json:"boarding_point"`
	DroppingPoint string    `bun:"dropping_point" json:"dropping_point"`
	FareAmount    float64   `bun:"fare_amount,notnull" json:"fare_amount"`
	FareCurrency  string    `bun:"fare_currency,notnull" json:"fare_currency"`
	Confirmed     bool      `bun:"confirmed" json:"confirmed"`
	Cancelled     bool      `bun:"cancelled" json:"cancelled"`
	QRCode        []byte    `bun:"qr_code" json:"-"`
	IssuedAt      time.Time `bun:"issued_at,notnull" json:"issued_at"`
}

// NewTicket creates an unconfirmed, non-cancelled ticket. Uniqueness of
// the ticket number is enforced by the persistence layer.
func NewTicket(id, ticketNumber, scheduleID, passengerID, seatID, boardingPoint, droppingPoint string, fareAmount float64, fareCurrency string, issuedAt time.Time) *Ticket {
	return &Ticket{
		TicketID:      id,
		TicketNumber:  ticketNumber,
		ScheduleID:    scheduleID,
		PassengerID:   passengerID,
		SeatID:        seatID,
		BoardingPoint: boardingPoint,
		DroppingPoint: droppingPoint,
		FareAmount:    fareAmount,
		FareCurrency:  fareCurrency,
		IssuedAt:      issuedAt,
	}
}

// Confirm marks the ticket confirmed. A cancelled ticket stays
// cancelled; it can never be confirmed afterwards.
func (t *Ticket) Confirm() error {
	if t.Cancelled {
		return fmt.Errorf("%w: ticket %s is already cancelled", ErrInvalidState, t.TicketNumber)
	}
	t.Confirmed = true
	return nil
}

// Cancel marks the ticket cancelled. Cancelling is idempotent, and
// cancelling a confirmed ticket is allowed: that models a post-payment
// cancellation whose refund is handled by the payment collaborator.
func (t *Ticket) Cancel() {
	t.Cancelled = true
}
