package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Schedule is a bus's journey instance on a specific date, with the
// fare and route endpoints copied onto every ticket booked against it.
type Schedule struct {
	bun.BaseModel `bun:"table:schedules"`

	ScheduleID    string    `bun:"schedule_id,pk" json:"schedule_id"`
	BusID         string    `bun:"bus_id,notnull" json:"bus_id"`
	Origin        string    `bun:"origin,notnull" json:"origin"`
	Destination   string    `bun:"destination,notnull" json:"destination"`
	BoardingPoint string    `bun:"boarding_point,notnull" json:"boarding_point"`
	DroppingPoint string    `bun:"dropping_point,notnull" json:"dropping_point"`
	JourneyDate   time.Time `bun:"journey_date,notnull" json:"journey_date"`
	DepartureTime string    `bun:"departure_time,notnull" json:"departure_time"`
	FareAmount    float64   `bun:"fare_amount,notnull" json:"fare_amount"`
	FareCurrency  string    `bun:"fare_currency,notnull" json:"fare_currency"`
	IsActive      bool      `bun:"is_active,notnull" json:"is_active"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"created_at"`
}

// Passenger carries the identity the booking core needs; contact
// attributes ride along for notifications downstream.
type Passenger struct {
	bun.BaseModel `bun:"table:passengers"`

	PassengerID string `bun:"passenger_id,pk" json:"passenger_id"`
	FullName    string `bun:"full_name" json:"full_name"`
	Email       string `bun:"email" json:"email"`
	Phone       string `bun:"phone" json:"phone"`
}

// SeatMapEntry is one seat in the seat-map response, with the
// availability flag the UI renders from.
type SeatMapEntry struct {
	SeatID     string     `json:"seat_id"`
	SeatNumber string     `json:"seat_number"`
	Row        int        `json:"row"`
	Column     int        `json:"column"`
	Status     SeatStatus `json:"status"`
	Bookable   bool       `json:"bookable"`
}

// BookingRequest is the body of POST /api/v1/bookings.
type BookingRequest struct {
	ScheduleID    string `json:"schedule_id"`
	SeatID        string `json:"seat_id"`
	BoardingPoint string `json:"boarding_point,omitempty"`
	DroppingPoint string `json:"dropping_point,omitempty"`
}

// BookingResponse is returned after a successful booking; payment is
// still pending at this point.
type BookingResponse struct {
	TicketID      string  `json:"ticket_id"`
	TicketNumber  string  `json:"ticket_number"`
	ScheduleID    string  `json:"schedule_id"`
	SeatID        string  `json:"seat_id"`
	BoardingPoint string  `json:"boarding_point"`
	DroppingPoint string  `json:"dropping_point"`
	FareAmount    float64 `json:"fare_amount"`
	FareCurrency  string  `json:"fare_currency"`
}
