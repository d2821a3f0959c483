package booking

import (
	"context"
	"fmt"

	"ms-busbooking/internal/models"
)

// The methods below are the workflow glue consumed by HTTP handlers and
// the payment webhook: they load the aggregates, delegate to the core
// operations, and surface the typed errors unchanged.

// SeatMap returns the schedule's seats with their availability flag.
func (s *Service) SeatMap(ctx context.Context, scheduleID string) ([]models.SeatMapEntry, error) {
	seats, err := s.DB.GetSeatsBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load seats for schedule %s: %w", scheduleID, err)
	}
	entries := make([]models.SeatMapEntry, len(seats))
	for i := range seats {
		entries[i] = models.SeatMapEntry{
			SeatID:     seats[i].SeatID,
			SeatNumber: seats[i].SeatNumber,
			Row:        seats[i].Row,
			Column:     seats[i].Column,
			Status:     seats[i].Status,
			Bookable:   s.CanBookSeat(&seats[i]),
		}
	}
	return entries, nil
}

// Book resolves the booking request against the stored schedule and
// seat and runs BookSeat.
func (s *Service) Book(ctx context.Context, passengerID string, req models.BookingRequest) (*models.Ticket, error) {
	schedule, err := s.DB.GetSchedule(ctx, req.ScheduleID)
	if err != nil {
		return nil, fmt.Errorf("schedule %s not found: %w", req.ScheduleID, err)
	}
	seat, err := s.DB.GetSeat(ctx, req.SeatID)
	if err != nil {
		return nil, fmt.Errorf("seat %s not found: %w", req.SeatID, err)
	}
	if seat.ScheduleID != schedule.ScheduleID {
		return nil, fmt.Errorf("%w: seat %s does not belong to schedule %s", models.ErrBusinessRule, req.SeatID, req.ScheduleID)
	}
	passenger := &models.Passenger{PassengerID: passengerID}
	return s.BookSeat(ctx, seat, passenger, schedule, req.BoardingPoint, req.DroppingPoint)
}

// Confirm loads the ticket and its seat and confirms both. Payment
// success lands here.
func (s *Service) Confirm(ctx context.Context, ticketID string) error {
	ticket, seat, err := s.loadPair(ctx, ticketID)
	if err != nil {
		return err
	}
	return s.ConfirmBooking(ctx, ticket, seat)
}

// Cancel loads the ticket and its seat and cancels both. Payment
// failure and explicit passenger cancellation land here.
func (s *Service) Cancel(ctx context.Context, ticketID string) error {
	ticket, seat, err := s.loadPair(ctx, ticketID)
	if err != nil {
		return err
	}
	return s.CancelBooking(ctx, ticket, seat)
}

// GetTicket fetches a single ticket.
func (s *Service) GetTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	ticket, err := s.DB.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("ticket %s not found: %w", ticketID, err)
	}
	return ticket, nil
}

// TicketsByPassenger lists a passenger's tickets, newest first.
func (s *Service) TicketsByPassenger(ctx context.Context, passengerID string) ([]models.Ticket, error) {
	return s.DB.GetTicketsByPassenger(ctx, passengerID)
}

// BlockSeat takes a seat out of sale. A live booking on the seat is
// cancelled in the same transaction so no confirmed ticket dangles on a
// blocked seat.
func (s *Service) BlockSeat(ctx context.Context, scheduleID, seatID string) error {
	seat, err := s.DB.GetSeat(ctx, seatID)
	if err != nil {
		return fmt.Errorf("seat %s not found: %w", seatID, err)
	}
	if seat.ScheduleID != scheduleID {
		return fmt.Errorf("%w: seat %s does not belong to schedule %s", models.ErrBusinessRule, seatID, scheduleID)
	}
	var ticket *models.Ticket
	if seat.TicketID != "" {
		ticket, err = s.DB.GetTicket(ctx, seat.TicketID)
		if err != nil {
			return fmt.Errorf("ticket %s not found: %w", seat.TicketID, err)
		}
		ticket.Cancel()
	}
	heldBy := seat.TicketID
	seat.Block()
	if err := s.DB.BlockSeat(ctx, seat, ticket); err != nil {
		return err
	}
	if heldBy != "" {
		if err := s.Holds.ReleaseSeat(ctx, seat.SeatID, heldBy); err != nil {
			s.logger.Warn("BOOKING", fmt.Sprintf("failed to release hold on blocked seat %s: %v", seat.SeatID, err))
		}
	}
	s.logger.LogBooking("BLOCK", seat.SeatID, fmt.Sprintf("seat %s blocked", seat.SeatNumber))
	return nil
}

// UnblockSeat returns a blocked seat to sale.
func (s *Service) UnblockSeat(ctx context.Context, scheduleID, seatID string) error {
	seat, err := s.DB.GetSeat(ctx, seatID)
	if err != nil {
		return fmt.Errorf("seat %s not found: %w", seatID, err)
	}
	if seat.ScheduleID != scheduleID {
		return fmt.Errorf("%w: seat %s does not belong to schedule %s", models.ErrBusinessRule, seatID, scheduleID)
	}
	if err := seat.Unblock(); err != nil {
		return err
	}
	if err := s.DB.UpdateSeat(ctx, seat); err != nil {
		return err
	}
	s.logger.LogBooking("UNBLOCK", seat.SeatID, fmt.Sprintf("seat %s available again", seat.SeatNumber))
	return nil
}

func (s *Service) loadPair(ctx context.Context, ticketID string) (*models.Ticket, *models.Seat, error) {
	ticket, err := s.DB.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, nil, fmt.Errorf("ticket %s not found: %w", ticketID, err)
	}
	seat, err := s.DB.GetSeat(ctx, ticket.SeatID)
	if err != nil {
		return nil, nil, fmt.Errorf("seat %s not found: %w", ticket.SeatID, err)
	}
	return ticket, seat, nil
}
