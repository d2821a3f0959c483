package booking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ms-busbooking/internal/booking"
	"ms-busbooking/internal/logger"
	"ms-busbooking/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock implementations

type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) GetSeat(ctx context.Context, seatID string) (*models.Seat, error) {
	args := m.Called(ctx, seatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Seat), args.Error(1)
}

func (m *MockDBLayer) GetSeatsBySchedule(ctx context.Context, scheduleID string) ([]models.Seat, error) {
	args := m.Called(ctx, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Seat), args.Error(1)
}

func (m *MockDBLayer) GetTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockDBLayer) GetTicketsByPassenger(ctx context.Context, passengerID string) ([]models.Ticket, error) {
	args := m.Called(ctx, passengerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ticket), args.Error(1)
}

func (m *MockDBLayer) GetSchedule(ctx context.Context, scheduleID string) (*models.Schedule, error) {
	args := m.Called(ctx, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Schedule), args.Error(1)
}

func (m *MockDBLayer) BookSeat(ctx context.Context, ticket *models.Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *MockDBLayer) ConfirmBooking(ctx context.Context, ticket *models.Ticket, seat *models.Seat) error {
	args := m.Called(ctx, ticket, seat)
	return args.Error(0)
}

func (m *MockDBLayer) CancelBooking(ctx context.Context, ticket *models.Ticket, seat *models.Seat) error {
	args := m.Called(ctx, ticket, seat)
	return args.Error(0)
}

func (m *MockDBLayer) BlockSeat(ctx context.Context, seat *models.Seat, ticket *models.Ticket) error {
	args := m.Called(ctx, seat, ticket)
	return args.Error(0)
}

func (m *MockDBLayer) UpdateSeat(ctx context.Context, seat *models.Seat) error {
	args := m.Called(ctx, seat)
	return args.Error(0)
}

type MockSeatHold struct {
	mock.Mock
}

func (m *MockSeatHold) HoldSeat(ctx context.Context, seatID, ticketID string) (bool, error) {
	args := m.Called(ctx, seatID, ticketID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSeatHold) ReleaseSeat(ctx context.Context, seatID, ticketID string) error {
	args := m.Called(ctx, seatID, ticketID)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishBookingCreated(ticket models.Ticket) error {
	args := m.Called(ticket)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishBookingConfirmed(ticket models.Ticket) error {
	args := m.Called(ticket)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishBookingCancelled(ticket models.Ticket) error {
	args := m.Called(ticket)
	return args.Error(0)
}

type MockQRGenerator struct {
	mock.Mock
}

func (m *MockQRGenerator) GenerateEncryptedQR(ticket models.Ticket) ([]byte, error) {
	args := m.Called(ticket)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Helpers

func newTestService(db *MockDBLayer, holds *MockSeatHold, events *MockEventPublisher, qr *MockQRGenerator) *booking.Service {
	var qrGen booking.QRGenerator
	if qr != nil {
		qrGen = qr
	}
	return booking.NewService(db, holds, events, qrGen, logger.NewNopLogger())
}

func availableSeat() *models.Seat {
	seat, _ := models.NewSeat("seat-1", "sched-1", "A1", 1, 1)
	return seat
}

func activeSchedule() *models.Schedule {
	return &models.Schedule{
		ScheduleID:    "sched-1",
		BusID:         "bus-1",
		Origin:        "Colombo",
		Destination:   "Kandy",
		BoardingPoint: "Colombo Fort",
		DroppingPoint: "Kandy Clock Tower",
		JourneyDate:   time.Now().UTC().Add(48 * time.Hour),
		DepartureTime: "08:30",
		FareAmount:    1500,
		FareCurrency:  "LKR",
		IsActive:      true,
	}
}

func passenger() *models.Passenger {
	return &models.Passenger{PassengerID: "pass-1"}
}

// Tests

func TestCanBookSeat(t *testing.T) {
	svc := newTestService(&MockDBLayer{}, &MockSeatHold{}, &MockEventPublisher{}, nil)

	seat := availableSeat()
	assert.True(t, svc.CanBookSeat(seat))

	require.NoError(t, seat.Book("T1"))
	assert.False(t, svc.CanBookSeat(seat))

	seat2 := availableSeat()
	seat2.Block()
	assert.False(t, svc.CanBookSeat(seat2))
}

func TestBookSeat_Success(t *testing.T) {
	db := &MockDBLayer{}
	holds := &MockSeatHold{}
	events := &MockEventPublisher{}
	svc := newTestService(db, holds, events, nil)

	seat := availableSeat()
	schedule := activeSchedule()

	holds.On("HoldSeat", mock.Anything, "seat-1", mock.AnythingOfType("string")).Return(true, nil)
	db.On("BookSeat", mock.Anything, mock.AnythingOfType("*models.Ticket")).Return(nil)
	events.On("PublishBookingCreated", mock.AnythingOfType("models.Ticket")).Return(nil)

	ticket, err := svc.BookSeat(context.Background(), seat, passenger(), schedule, "", "")
	require.NoError(t, err)
	require.NotNil(t, ticket)

	// Seat transitioned with the new ticket attached
	assert.Equal(t, models.SeatStatusBooked, seat.Status)
	assert.Equal(t, ticket.TicketID, seat.TicketID)

	// Ticket copied the schedule's endpoints and fare
	assert.Equal(t, "Colombo Fort", ticket.BoardingPoint)
	assert.Equal(t, "Kandy Clock Tower", ticket.DroppingPoint)
	assert.Equal(t, 1500.0, ticket.FareAmount)
	assert.Equal(t, "LKR", ticket.FareCurrency)
	assert.False(t, ticket.Confirmed)
	assert.False(t, ticket.Cancelled)
	assert.Regexp(t, `^BB-\d{8}-`, ticket.TicketNumber)

	db.AssertExpectations(t)
	holds.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestBookSeat_BoardingOverrides(t *testing.T) {
	db := &MockDBLayer{}
	holds := &MockSeatHold{}
	events := &MockEventPublisher{}
	svc := newTestService(db, holds, events, nil)

	holds.On("HoldSeat", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	db.On("BookSeat", mock.Anything, mock.Anything).Return(nil)
	events.On("PublishBookingCreated", mock.Anything).Return(nil)

	ticket, err := svc.BookSeat(context.Background(), availableSeat(), passenger(), activeSchedule(), "Pettah", "Peradeniya")
	require.NoError(t, err)
	assert.Equal(t, "Pettah", ticket.BoardingPoint)
	assert.Equal(t, "Peradeniya", ticket.DroppingPoint)
}

func TestBookSeat_SeatNotAvailable(t *testing.T) {
	db := &MockDBLayer{}
	holds := &MockSeatHold{}
	events := &MockEventPublisher{}
	svc := newTestService(db, holds, events, nil)

	seat := availableSeat()
	require.NoError(t, seat.Book("T-existing"))

	_, err := svc.BookSeat(context.Background(), seat, passenger(), activeSchedule(), "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrSeatNotAvailable)

	// Nothing was persisted or published
	db.AssertNotCalled(t, "BookSeat", mock.Anything, mock.Anything)
	holds.AssertNotCalled(t, "HoldSeat", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookSeat_InactiveSchedule(t *testing.T) {
	db := &MockDBLayer{}
	holds := &MockSeatHold{}
	events := &MockEventPublisher{}
	svc := newTestService(db, holds, events, nil)

	seat := availableSeat()
	schedule := activeSchedule()
	schedule.IsActive = false

	_, err := svc.BookSeat(context.Background(), seat, passenger(), schedule, "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrBusinessRule)

	// Seat status unchanged
	assert.Equal(t, models.SeatStatusAvailable, seat.Status)
	db.AssertNotCalled(t, "BookSeat", mock.Anything, mock.Anything)
}

func TestBookSeat_PastJourneyDate(t *testing.T) {
	db := &MockDBLayer{}
	holds := &MockSeatHold{}
	events := &MockEventPublisher{}
	svc := newTestService(db, holds, events, nil)

	schedule := activeSchedule()
	schedule.JourneyDate = time.Now().UTC().Add(-48 * time.Hour)

	_, err := svc.BookSeat(context.Background(), availableSeat(), passenger(), schedule, "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrBusinessRule)
}

func TestBookSeat_HoldContended(t *testing.T) {
	db := &MockDBLayer{}
	holds := &MockSeatHold{}
	events := &MockEventPublisher{}
	svc := newTestService(db, holds, events, nil)

	holds.On("HoldSeat", mock.Anything, "seat-1", mock.Anything).Return(false, nil)

	seat := availableSeat()
	_, err := svc.BookSeat(context.Background(), seat, passenger(), activeSchedule(), "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrSeatNotAvailable)
	db.AssertNotCalled(t, "BookSeat", mock.Anything, mock.Anything)

	// The losing caller gets its seat back untouched
	assert.Equal(t, models.SeatStatusAvailable, seat.Status)
	assert.Empty(t, seat.TicketID)
}

func TestBookSeat_StorageConflictReleasesHold(t *testing.T) {
	db := &MockDBLayer{}
	holds := &MockSeatHold{}
	events := &MockEventPublisher{}
	svc := newTestService(db, holds, events, nil)

	holds.On("HoldSeat", mock.Anything, "seat-1", mock.Anything).Return(true, nil)
	holds.On("ReleaseSeat", mock.Anything, "seat-1", mock.Anything).Return(nil)
	db.On("BookSeat", mock.Anything, mock.Anything).Return(models.ErrSeatNotAvailable)

	seat := availableSeat()
	_, err := svc.BookSeat(context.Background(), seat, passenger(), activeSchedule(), "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrSeatNotAvailable)

	holds.AssertCalled(t, "ReleaseSeat", mock.Anything, "seat-1", mock.Anything)
	events.AssertNotCalled(t, "PublishBookingCreated", mock.Anything)

	// The losing caller gets its seat back untouched
	assert.Equal(t, models.SeatStatusAvailable, seat.Status)
	assert.Empty(t, seat.TicketID)
}

func bookedPair(t *testing.T) (*models.Ticket, *models.Seat) {
	seat := availableSeat()
	ticket := models.NewTicket(
		"tik-1", "BB-20250831-K7Q2MD", "sched-1", "pass-1", seat.SeatID,
		"Colombo Fort", "Kandy Clock Tower", 1500, "LKR", time.Now(),
	)
	require.NoError(t, seat.Book(ticket.TicketID))
	return ticket, seat
}

func TestConfirmBooking_Success(t *testing.T) {
	db := &MockDBLayer{}
	holds := &MockSeatHold{}
	events := &MockEventPublisher{}
	qr := &MockQRGenerator{}
	svc := newTestService(db, holds, events, qr)

	ticket, seat := bookedPair(t)

	qr.On("GenerateEncryptedQR", mock.AnythingOfType("models.Ticket")).Return([]byte("qr-bytes"), nil)
	db.On("ConfirmBooking", mock.Anything, ticket, seat).Return(nil)
	holds.On("ReleaseSeat", mock.Anything, seat.SeatID, ticket.TicketID).Return(nil)
	events.On("PublishBookingConfirmed", mock.Anything).Return(nil)

	require.NoError(t, svc.ConfirmBooking(context.Background(), ticket, seat))

	assert.True(t, ticket.Confirmed)
	assert.Equal(t, models.SeatStatusSold, seat.Status)
	assert.Equal(t, []byte("qr-bytes"), ticket.QRCode)
	db.AssertExpectations(t)
}

func TestConfirmBooking_MismatchedPair(t *testing.T) {
	db := &MockDBLayer{}
	svc := newTestService(db, &MockSeatHold{}, &MockEventPublisher{}, nil)

	ticket, _ := bookedPair(t)
	otherSeat, _ := models.NewSeat("seat-other", "sched-1", "B2", 2, 2)

	err := svc.ConfirmBooking(context.Background(), ticket, otherSeat)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrBusinessRule)
	assert.False(t, ticket.Confirmed)
	db.AssertNotCalled(t, "ConfirmBooking", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmBooking_CancelledTicket(t *testing.T) {
	db := &MockDBLayer{}
	svc := newTestService(db, &MockSeatHold{}, &MockEventPublisher{}, nil)

	ticket, seat := bookedPair(t)
	ticket.Cancel()

	err := svc.ConfirmBooking(context.Background(), ticket, seat)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidState)

	// Neither entity moved
	assert.False(t, ticket.Confirmed)
	assert.Equal(t, models.SeatStatusBooked, seat.Status)
	db.AssertNotCalled(t, "ConfirmBooking", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelBooking_Success(t *testing.T) {
	db := &MockDBLayer{}
	holds := &MockSeatHold{}
	events := &MockEventPublisher{}
	svc := newTestService(db, holds, events, nil)

	ticket, seat := bookedPair(t)

	db.On("CancelBooking", mock.Anything, ticket, seat).Return(nil)
	holds.On("ReleaseSeat", mock.Anything, seat.SeatID, ticket.TicketID).Return(nil)
	events.On("PublishBookingCancelled", mock.Anything).Return(nil)

	require.NoError(t, svc.CancelBooking(context.Background(), ticket, seat))

	assert.True(t, ticket.Cancelled)
	assert.Equal(t, models.SeatStatusAvailable, seat.Status)
	assert.Empty(t, seat.TicketID)
	db.AssertExpectations(t)
}

func TestCancelBooking_SoldSeat(t *testing.T) {
	// Post-payment cancellation: state machine permits it, refund is
	// the payment collaborator's concern.
	db := &MockDBLayer{}
	holds := &MockSeatHold{}
	events := &MockEventPublisher{}
	svc := newTestService(db, holds, events, nil)

	ticket, seat := bookedPair(t)
	require.NoError(t, seat.ConfirmBooking())
	require.NoError(t, ticket.Confirm())

	db.On("CancelBooking", mock.Anything, ticket, seat).Return(nil)
	holds.On("ReleaseSeat", mock.Anything, seat.SeatID, ticket.TicketID).Return(nil)
	events.On("PublishBookingCancelled", mock.Anything).Return(nil)

	require.NoError(t, svc.CancelBooking(context.Background(), ticket, seat))
	assert.Equal(t, models.SeatStatusAvailable, seat.Status)
	assert.True(t, ticket.Cancelled)
}

func TestCancelBooking_MismatchedPair(t *testing.T) {
	db := &MockDBLayer{}
	svc := newTestService(db, &MockSeatHold{}, &MockEventPublisher{}, nil)

	ticket, _ := bookedPair(t)
	otherSeat, _ := models.NewSeat("seat-other", "sched-1", "B2", 2, 2)

	err := svc.CancelBooking(context.Background(), ticket, otherSeat)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrBusinessRule)
	assert.False(t, ticket.Cancelled)
}

func TestCancelBooking_AvailableSeatFails(t *testing.T) {
	db := &MockDBLayer{}
	svc := newTestService(db, &MockSeatHold{}, &MockEventPublisher{}, nil)

	seat := availableSeat()
	ticket := models.NewTicket(
		"tik-1", "BB-20250831-K7Q2MD", "sched-1", "pass-1", seat.SeatID,
		"Colombo Fort", "Kandy", 1500, "LKR", time.Now(),
	)

	err := svc.CancelBooking(context.Background(), ticket, seat)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidState)
	db.AssertNotCalled(t, "CancelBooking", mock.Anything, mock.Anything, mock.Anything)
}

func TestSeatMap_RendersAvailability(t *testing.T) {
	db := &MockDBLayer{}
	svc := newTestService(db, &MockSeatHold{}, &MockEventPublisher{}, nil)

	free, _ := models.NewSeat("seat-1", "sched-1", "A1", 1, 1)
	taken, _ := models.NewSeat("seat-2", "sched-1", "A2", 1, 2)
	require.NoError(t, taken.Book("T9"))
	blocked, _ := models.NewSeat("seat-3", "sched-1", "A3", 1, 3)
	blocked.Block()

	db.On("GetSeatsBySchedule", mock.Anything, "sched-1").Return([]models.Seat{*free, *taken, *blocked}, nil)

	entries, err := svc.SeatMap(context.Background(), "sched-1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.True(t, entries[0].Bookable)
	assert.False(t, entries[1].Bookable)
	assert.False(t, entries[2].Bookable)
	assert.Equal(t, models.SeatStatusBooked, entries[1].Status)
}

func TestBook_SeatFromWrongSchedule(t *testing.T) {
	db := &MockDBLayer{}
	svc := newTestService(db, &MockSeatHold{}, &MockEventPublisher{}, nil)

	schedule := activeSchedule()
	foreign, _ := models.NewSeat("seat-1", "sched-other", "A1", 1, 1)

	db.On("GetSchedule", mock.Anything, "sched-1").Return(schedule, nil)
	db.On("GetSeat", mock.Anything, "seat-1").Return(foreign, nil)

	_, err := svc.Book(context.Background(), "pass-1", models.BookingRequest{ScheduleID: "sched-1", SeatID: "seat-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrBusinessRule)
}

func TestConfirm_ByTicketID(t *testing.T) {
	db := &MockDBLayer{}
	holds := &MockSeatHold{}
	events := &MockEventPublisher{}
	svc := newTestService(db, holds, events, nil)

	ticket, seat := bookedPair(t)

	db.On("GetTicket", mock.Anything, ticket.TicketID).Return(ticket, nil)
	db.On("GetSeat", mock.Anything, seat.SeatID).Return(seat, nil)
	db.On("ConfirmBooking", mock.Anything, ticket, seat).Return(nil)
	holds.On("ReleaseSeat", mock.Anything, seat.SeatID, ticket.TicketID).Return(nil)
	events.On("PublishBookingConfirmed", mock.Anything).Return(nil)

	require.NoError(t, svc.Confirm(context.Background(), ticket.TicketID))
	assert.True(t, ticket.Confirmed)
	assert.Equal(t, models.SeatStatusSold, seat.Status)
}

func TestConfirm_TicketNotFound(t *testing.T) {
	db := &MockDBLayer{}
	svc := newTestService(db, &MockSeatHold{}, &MockEventPublisher{}, nil)

	db.On("GetTicket", mock.Anything, "missing").Return(nil, errors.New("sql: no rows in result set"))

	err := svc.Confirm(context.Background(), "missing")
	assert.Error(t, err)
}

func TestBlockSeat_CancelsLiveBooking(t *testing.T) {
	db := &MockDBLayer{}
	holds := &MockSeatHold{}
	events := &MockEventPublisher{}
	svc := newTestService(db, holds, events, nil)

	ticket, seat := bookedPair(t)

	db.On("GetSeat", mock.Anything, seat.SeatID).Return(seat, nil)
	db.On("GetTicket", mock.Anything, ticket.TicketID).Return(ticket, nil)
	db.On("BlockSeat", mock.Anything, seat, ticket).Return(nil)
	holds.On("ReleaseSeat", mock.Anything, seat.SeatID, ticket.TicketID).Return(nil)

	require.NoError(t, svc.BlockSeat(context.Background(), "sched-1", seat.SeatID))
	assert.Equal(t, models.SeatStatusBlocked, seat.Status)
	assert.Empty(t, seat.TicketID)
	assert.True(t, ticket.Cancelled)
}

func TestBlockSeat_WrongSchedule(t *testing.T) {
	db := &MockDBLayer{}
	svc := newTestService(db, &MockSeatHold{}, &MockEventPublisher{}, nil)

	seat := availableSeat()
	db.On("GetSeat", mock.Anything, seat.SeatID).Return(seat, nil)

	err := svc.BlockSeat(context.Background(), "sched-other", seat.SeatID)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrBusinessRule)

	// Seat untouched, nothing persisted
	assert.Equal(t, models.SeatStatusAvailable, seat.Status)
	db.AssertNotCalled(t, "BlockSeat", mock.Anything, mock.Anything, mock.Anything)
}

func TestUnblockSeat(t *testing.T) {
	db := &MockDBLayer{}
	svc := newTestService(db, &MockSeatHold{}, &MockEventPublisher{}, nil)

	seat := availableSeat()
	seat.Block()

	db.On("GetSeat", mock.Anything, seat.SeatID).Return(seat, nil)
	db.On("UpdateSeat", mock.Anything, seat).Return(nil)

	require.NoError(t, svc.UnblockSeat(context.Background(), "sched-1", seat.SeatID))
	assert.Equal(t, models.SeatStatusAvailable, seat.Status)

	// A second unblock fails: the seat is no longer blocked
	err := svc.UnblockSeat(context.Background(), "sched-1", seat.SeatID)
	assert.ErrorIs(t, err, models.ErrInvalidState)

	// A seat from another schedule is rejected outright
	err = svc.UnblockSeat(context.Background(), "sched-other", seat.SeatID)
	assert.ErrorIs(t, err, models.ErrBusinessRule)
}
