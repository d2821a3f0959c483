// Package db persists seats and tickets with bun. The at-most-one-booker
// guarantee lives here: booking a seat is a conditional update that only
// matches an available row, and confirm/cancel write ticket and seat in
// one transaction so the pair can never diverge.
package db

import (
	"context"
	"database/sql"
	"fmt"

	"ms-busbooking/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- SEATS ----------------

func (d *DB) GetSeat(ctx context.Context, seatID string) (*models.Seat, error) {
	var seat models.Seat
	err := d.Bun.NewSelect().
		Model(&seat).
		Where("seat_id = ?", seatID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

func (d *DB) GetSeatsBySchedule(ctx context.Context, scheduleID string) ([]models.Seat, error) {
	var seats []models.Seat
	err := d.Bun.NewSelect().
		Model(&seats).
		Where("schedule_id = ?", scheduleID).
		Order("seat_row", "seat_col").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return seats, nil
}

// UpdateSeat writes a seat row unconditionally. Only block/unblock uses
// it; booking transitions go through the conditional paths below.
func (d *DB) UpdateSeat(ctx context.Context, seat *models.Seat) error {
	_, err := d.Bun.NewUpdate().
		Model(seat).
		Column("status", "ticket_id").
		Where("seat_id = ?", seat.SeatID).
		Exec(ctx)
	return err
}

// ---------------- TICKETS ----------------

func (d *DB) GetTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("ticket_id = ?", ticketID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (d *DB) GetTicketsByPassenger(ctx context.Context, passengerID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("passenger_id = ?", passengerID).
		Order("issued_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// ---------------- SCHEDULES ----------------

func (d *DB) GetSchedule(ctx context.Context, scheduleID string) (*models.Schedule, error) {
	var schedule models.Schedule
	err := d.Bun.NewSelect().
		Model(&schedule).
		Where("schedule_id = ?", scheduleID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

// ---------------- COUPLED TRANSITIONS ----------------

// BookSeat inserts the ticket and flips its seat to booked in one
// transaction. The seat update is conditional on the row still being
// available; if another booking got there first, zero rows match and
// the whole transaction rolls back with ErrSeatNotAvailable.
func (d *DB) BookSeat(ctx context.Context, ticket *models.Ticket) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.Seat)(nil)).
			Set("status = ?", models.SeatStatusBooked).
			Set("ticket_id = ?", ticket.TicketID).
			Where("seat_id = ?", ticket.SeatID).
			Where("status = ?", models.SeatStatusAvailable).
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("%w: seat %s was taken by a concurrent booking", models.ErrSeatNotAvailable, ticket.SeatID)
		}
		_, err = tx.NewInsert().Model(ticket).Exec(ctx)
		return err
	})
}

// ConfirmBooking persists the confirmed ticket and the sold seat as one
// atomic unit.
func (d *DB) ConfirmBooking(ctx context.Context, ticket *models.Ticket, seat *models.Seat) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().
			Model(ticket).
			Column("confirmed", "qr_code").
			Where("ticket_id = ?", ticket.TicketID).
			Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewUpdate().
			Model(seat).
			Column("status").
			Where("seat_id = ?", seat.SeatID).
			Exec(ctx)
		return err
	})
}

// CancelBooking persists the cancelled ticket and the released seat as
// one atomic unit.
func (d *DB) CancelBooking(ctx context.Context, ticket *models.Ticket, seat *models.Seat) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().
			Model(ticket).
			Column("cancelled").
			Where("ticket_id = ?", ticket.TicketID).
			Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewUpdate().
			Model(seat).
			Column("status", "ticket_id").
			Where("seat_id = ?", seat.SeatID).
			Exec(ctx)
		return err
	})
}

// BlockSeat writes the blocked seat and, when a live booking existed on
// it, the cancelled ticket in the same transaction.
func (d *DB) BlockSeat(ctx context.Context, seat *models.Seat, ticket *models.Ticket) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if ticket != nil {
			if _, err := tx.NewUpdate().
				Model(ticket).
				Column("cancelled").
				Where("ticket_id = ?", ticket.TicketID).
				Exec(ctx); err != nil {
				return err
			}
		}
		_, err := tx.NewUpdate().
			Model(seat).
			Column("status", "ticket_id").
			Where("seat_id = ?", seat.SeatID).
			Exec(ctx)
		return err
	})
}
