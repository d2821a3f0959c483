package redis

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a client backed by miniredis so no real Redis
// server is needed.
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	if err := client.Ping(context.Background()).Err(); err != nil {
		mr.Close()
		t.Fatalf("Failed to connect to miniredis: %v", err)
	}
	return client, mr
}

func newTestHolds(client *redis.Client) *Holds {
	return &Holds{Client: client, TTL: time.Minute, Logger: log.Default()}
}

func TestHoldSeat_Exclusive(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()
	ctx := context.Background()

	h := newTestHolds(client)

	held, err := h.HoldSeat(ctx, "seat-1", "T1")
	require.NoError(t, err)
	assert.True(t, held)

	// Second ticket cannot hold the same seat
	held, err = h.HoldSeat(ctx, "seat-1", "T2")
	require.NoError(t, err)
	assert.False(t, held)

	// Release frees it for the next ticket
	require.NoError(t, h.ReleaseSeat(ctx, "seat-1", "T1"))
	held, err = h.HoldSeat(ctx, "seat-1", "T3")
	require.NoError(t, err)
	assert.True(t, held)
}

func TestReleaseSeat_OnlyOwnerReleases(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()
	ctx := context.Background()

	h := newTestHolds(client)
	var logged bytes.Buffer
	h.Logger = log.New(&logged, "", 0)

	held, err := h.HoldSeat(ctx, "seat-1", "T1")
	require.NoError(t, err)
	require.True(t, held)

	// A non-owner release is a no-op, and the skip is logged
	require.NoError(t, h.ReleaseSeat(ctx, "seat-1", "T2"))
	assert.Contains(t, logged.String(), "seat-1")

	owner, ok, err := h.HeldBy(ctx, "seat-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "T1", owner)

	// Releasing an expired hold is also a no-op
	mr.FastForward(2 * time.Minute)
	require.NoError(t, h.ReleaseSeat(ctx, "seat-1", "T1"))
}

func TestHoldSeat_ExpiryReleasesSeat(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()
	ctx := context.Background()

	h := newTestHolds(client)

	held, err := h.HoldSeat(ctx, "seat-1", "T1")
	require.NoError(t, err)
	require.True(t, held)

	// An unpaid booking's hold lapses after the TTL
	mr.FastForward(2 * time.Minute)

	held, err = h.HoldSeat(ctx, "seat-1", "T2")
	require.NoError(t, err)
	assert.True(t, held)
}

func TestHoldSeat_ConcurrentRace(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()
	ctx := context.Background()

	h := newTestHolds(client)

	const racers = 10
	var wg sync.WaitGroup
	results := make(chan bool, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			held, err := h.HoldSeat(ctx, "seat-1", fmt.Sprintf("T%d", n))
			require.NoError(t, err)
			results <- held
		}(i)
	}
	wg.Wait()
	close(results)

	winners := 0
	for held := range results {
		if held {
			winners++
		}
	}
	assert.Equal(t, 1, winners, "exactly one concurrent booker may win the hold")
}
