// Package models defines the booking domain entities and the error
// taxonomy shared by the service, persistence and API layers. These
// sentinel values let handlers map failures to HTTP responses without
// string matching: ErrInvalidArgument and ErrInvalidState come from
// entity constructors and transitions, ErrSeatNotAvailable from the
// booking entry point, and ErrBusinessRule from cross-entity checks
// that should never fail under correct orchestration.
package models

import "errors"

// ErrInvalidArgument is returned when an entity is constructed from
// malformed input (empty seat number, non-positive row/column).
var ErrInvalidArgument = errors.New("invalid argument")

// ErrInvalidState is returned when a transition is attempted from a
// state that forbids it, such as booking a non-available seat or
// confirming a cancelled ticket.
var ErrInvalidState = errors.New("invalid state")

// ErrSeatNotAvailable is the booking entry point's specific case of an
// invalid state: someone else holds or bought the seat. Callers should
// re-query the seat map and let the passenger pick another seat.
var ErrSeatNotAvailable = errors.New("seat not available")

// ErrBusinessRule signals a cross-entity consistency violation
// (mismatched ticket/seat pairing, inactive or past-date schedule).
// Under correct orchestration it never fires, so it is logged as an
// invariant breach and the request is aborted.
var ErrBusinessRule = errors.New("business rule violation")
