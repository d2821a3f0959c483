// Package redis implements the front-line seat holds. A hold is a
// SetNX key with a TTL: it turns most concurrent bookers away before
// they reach the database, and its expiry releases seats whose booking
// never got paid. The database's conditional update stays the
// authoritative check.
package redis

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const defaultHoldTTL = 5 * time.Minute

type Holds struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *log.Logger
}

func NewHolds(client *redis.Client) *Holds {
	return &Holds{
		Client: client,
		TTL:    holdTTLFromEnv(),
		Logger: log.Default(),
	}
}

// holdTTLFromEnv reads SEAT_HOLD_TTL_MINUTES, falling back to 5 minutes.
func holdTTLFromEnv() time.Duration {
	raw := os.Getenv("SEAT_HOLD_TTL_MINUTES")
	if raw == "" {
		return defaultHoldTTL
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		log.Printf("REDIS: invalid SEAT_HOLD_TTL_MINUTES value %q, using default 5 minutes", raw)
		return defaultHoldTTL
	}
	return time.Duration(minutes) * time.Minute
}

func holdKey(seatID string) string {
	return "seat_hold:" + seatID
}

// HoldSeat claims the seat for a ticket. Returns false when another
// ticket already holds it.
func (h *Holds) HoldSeat(ctx context.Context, seatID, ticketID string) (bool, error) {
	return h.Client.SetNX(ctx, holdKey(seatID), ticketID, h.TTL).Result()
}

// ReleaseSeat drops the hold, but only when this ticket owns it. A
// racer whose hold already expired must not release the next holder.
func (h *Holds) ReleaseSeat(ctx context.Context, seatID, ticketID string) error {
	key := holdKey(seatID)
	val, err := h.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already expired
	}
	if err != nil {
		return err
	}
	if val == ticketID {
		_, err = h.Client.Del(ctx, key).Result()
		return err
	}
	h.Logger.Printf("REDIS: hold on seat %s belongs to ticket %s, not released for %s", seatID, val, ticketID)
	return nil
}

// HeldBy reports which ticket currently holds the seat, if any.
func (h *Holds) HeldBy(ctx context.Context, seatID string) (string, bool, error) {
	val, err := h.Client.Get(ctx, holdKey(seatID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}
