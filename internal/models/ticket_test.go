package models_test

import (
	"testing"
	"time"

	"ms-busbooking/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTicket() *models.Ticket {
	return models.NewTicket(
		"tik-1", "BB-20250101-ABCD12", "sched-1", "pass-1", "seat-1",
		"Colombo Fort", "Kandy", 1500.00, "LKR", time.Now(),
	)
}

func TestNewTicket_StartsUnconfirmed(t *testing.T) {
	ticket := newTestTicket()

	assert.False(t, ticket.Confirmed)
	assert.False(t, ticket.Cancelled)
	assert.Equal(t, "seat-1", ticket.SeatID)
	assert.Equal(t, 1500.00, ticket.FareAmount)
	assert.Equal(t, "LKR", ticket.FareCurrency)
}

func TestTicket_Confirm(t *testing.T) {
	ticket := newTestTicket()

	require.NoError(t, ticket.Confirm())
	assert.True(t, ticket.Confirmed)
}

func TestTicket_ConfirmAfterCancelFails(t *testing.T) {
	ticket := newTestTicket()
	ticket.Cancel()

	err := ticket.Confirm()
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidState)
	assert.False(t, ticket.Confirmed)
}

func TestTicket_CancelIsIdempotent(t *testing.T) {
	ticket := newTestTicket()

	ticket.Cancel()
	assert.True(t, ticket.Cancelled)

	ticket.Cancel()
	assert.True(t, ticket.Cancelled)
}

func TestTicket_CancelAfterConfirmAllowed(t *testing.T) {
	// Post-payment cancellation: the refund is the payment
	// collaborator's problem, the state machine permits it.
	ticket := newTestTicket()
	require.NoError(t, ticket.Confirm())

	ticket.Cancel()
	assert.True(t, ticket.Cancelled)
}
