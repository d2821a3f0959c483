package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strings"

	"ms-busbooking/internal/models"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/webhook"
)

// InitStripe initializes the Stripe API with the secret key.
func InitStripe() {
	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
}

// CreatePaymentIntent creates a Stripe payment intent for an unpaid
// ticket. The ticket id rides in the intent metadata so the webhook can
// route the outcome back to the booking.
func (s *Service) CreatePaymentIntent(ctx context.Context, ticketID string) (*stripe.PaymentIntent, error) {
	s.logger.Info("PAYMENT", fmt.Sprintf("Creating payment intent for ticket: %s", ticketID))

	ticket, err := s.DB.GetTicket(ctx, ticketID)
	if err != nil {
		s.logger.Error("PAYMENT", fmt.Sprintf("Failed to find ticket %s: %v", ticketID, err))
		return nil, err
	}
	if ticket.Cancelled {
		return nil, fmt.Errorf("%w: ticket %s is cancelled", models.ErrInvalidState, ticket.TicketNumber)
	}
	if ticket.Confirmed {
		return nil, fmt.Errorf("%w: ticket %s is already paid", models.ErrInvalidState, ticket.TicketNumber)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(fareInCents(ticket.FareAmount)),
		Currency: stripe.String(strings.ToLower(ticket.FareCurrency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("ticket_id", ticketID)

	intent, err := paymentintent.New(params)
	if err != nil {
		s.logger.Error("PAYMENT", fmt.Sprintf("Failed to create Stripe payment intent: %v", err))
		return nil, err
	}

	s.logger.Info("PAYMENT", fmt.Sprintf("Created payment intent %s for ticket %s (%s %0.2f)", intent.ID, ticketID, ticket.FareCurrency, ticket.FareAmount))
	return intent, nil
}

// fareInCents converts a fare to the smallest currency unit. Rounded,
// not truncated: 19.99 has no exact float representation and would
// otherwise come out as 1998.
func fareInCents(fare float64) int64 {
	return int64(math.Round(fare * 100))
}

// WebhookError carries enough detail to log the real failure while
// exposing only a safe message to the caller.
type WebhookError struct {
	Category      string // "configuration", "validation", "processing"
	StatusCode    int
	PublicError   string
	InternalError string
	OriginalErr   error
}

func (e *WebhookError) Error() string {
	return e.InternalError
}

// HandleStripeWebhook verifies and routes Stripe webhook events:
// payment success confirms the booking, payment failure cancels it and
// releases the seat.
func (s *Service) HandleStripeWebhook(r *http.Request) error {
	webhookSecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	if webhookSecret == "" {
		s.logger.Error("WEBHOOK", "Stripe webhook secret is not configured")
		return &WebhookError{
			Category:      "configuration",
			StatusCode:    http.StatusInternalServerError,
			PublicError:   "Webhook processing error",
			InternalError: "Stripe webhook secret is not configured",
		}
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid webhook payload",
			InternalError: fmt.Sprintf("Failed to read webhook payload: %v", err),
			OriginalErr:   err,
		}
	}

	opts := webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	}
	event, err := webhook.ConstructEventWithOptions(payload, r.Header.Get("Stripe-Signature"), webhookSecret, opts)
	if err != nil {
		s.logger.Error("WEBHOOK", fmt.Sprintf("Webhook signature verification failed: %v", err))
		return &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid webhook signature",
			InternalError: fmt.Sprintf("Webhook signature verification failed: %v", err),
			OriginalErr:   err,
		}
	}

	s.logger.Info("WEBHOOK", fmt.Sprintf("Processing Stripe webhook event: %s", event.Type))

	switch event.Type {
	case "payment_intent.succeeded":
		ticketID, werr := ticketIDFromEvent(event)
		if werr != nil {
			return werr
		}
		if err := s.Confirm(r.Context(), ticketID); err != nil {
			s.logger.Error("WEBHOOK", fmt.Sprintf("Failed to confirm booking %s: %v", ticketID, err))
			return &WebhookError{
				Category:      "processing",
				StatusCode:    http.StatusInternalServerError,
				PublicError:   "Failed to process payment",
				InternalError: fmt.Sprintf("Failed to confirm booking %s: %v", ticketID, err),
				OriginalErr:   err,
			}
		}
		s.logger.Info("WEBHOOK", fmt.Sprintf("Payment succeeded, booking %s confirmed", ticketID))

	case "payment_intent.payment_failed", "payment_intent.canceled":
		ticketID, werr := ticketIDFromEvent(event)
		if werr != nil {
			return werr
		}
		if err := s.Cancel(r.Context(), ticketID); err != nil {
			s.logger.Error("WEBHOOK", fmt.Sprintf("Failed to cancel booking %s: %v", ticketID, err))
			return &WebhookError{
				Category:      "processing",
				StatusCode:    http.StatusInternalServerError,
				PublicError:   "Failed to process payment failure",
				InternalError: fmt.Sprintf("Failed to cancel booking %s: %v", ticketID, err),
				OriginalErr:   err,
			}
		}
		s.logger.Info("WEBHOOK", fmt.Sprintf("Payment failed, booking %s cancelled and seat released", ticketID))

	default:
		s.logger.Info("WEBHOOK", fmt.Sprintf("Ignoring unhandled event type: %s", event.Type))
	}

	return nil
}

func ticketIDFromEvent(event stripe.Event) (string, *WebhookError) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return "", &WebhookError{
			Category:      "processing",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid event data",
			InternalError: fmt.Sprintf("Failed to unmarshal payment intent: %v", err),
			OriginalErr:   err,
		}
	}
	ticketID, exists := intent.Metadata["ticket_id"]
	if !exists {
		return "", &WebhookError{
			Category:      "processing",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid payment intent data",
			InternalError: "Payment intent has no ticket_id in metadata",
		}
	}
	return ticketID, nil
}
