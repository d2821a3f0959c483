// Package kafka streams booking lifecycle events so downstream
// consumers (notifications, analytics) can react without polling.
package kafka

import (
	"context"
	"encoding/json"

	"ms-busbooking/internal/models"

	"github.com/segmentio/kafka-go"
)

const (
	TopicBookingCreated   = "booking-created"
	TopicBookingConfirmed = "booking-confirmed"
	TopicBookingCancelled = "booking-cancelled"
)

// bookingEvent is the wire format shared by all three topics.
type bookingEvent struct {
	TicketID     string  `json:"ticket_id"`
	TicketNumber string  `json:"ticket_number"`
	ScheduleID   string  `json:"schedule_id"`
	PassengerID  string  `json:"passenger_id"`
	SeatID       string  `json:"seat_id"`
	FareAmount   float64 `json:"fare_amount"`
	FareCurrency string  `json:"fare_currency"`
}

type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{Writer: writer}
}

func (p *Producer) publish(topic string, ticket models.Ticket) error {
	event := bookingEvent{
		TicketID:     ticket.TicketID,
		TicketNumber: ticket.TicketNumber,
		ScheduleID:   ticket.ScheduleID,
		PassengerID:  ticket.PassengerID,
		SeatID:       ticket.SeatID,
		FareAmount:   ticket.FareAmount,
		FareCurrency: ticket.FareCurrency,
	}
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(ticket.TicketID),
			Value: msgBytes,
		},
	)
}

func (p *Producer) PublishBookingCreated(ticket models.Ticket) error {
	return p.publish(TopicBookingCreated, ticket)
}

func (p *Producer) PublishBookingConfirmed(ticket models.Ticket) error {
	return p.publish(TopicBookingConfirmed, ticket)
}

func (p *Producer) PublishBookingCancelled(ticket models.Ticket) error {
	return p.publish(TopicBookingCancelled, ticket)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// NopProducer drops events. Used when KAFKA_ENABLED=false.
type NopProducer struct{}

func (NopProducer) PublishBookingCreated(models.Ticket) error   { return nil }
func (NopProducer) PublishBookingConfirmed(models.Ticket) error { return nil }
func (NopProducer) PublishBookingCancelled(models.Ticket) error { return nil }
