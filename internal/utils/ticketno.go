package utils

import (
	"crypto/rand"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Alphabet for ticket codes. 0/O and 1/I are left out so the code
// survives being read over the phone at a boarding point.
const ticketAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// TicketNumberGenerator produces human-readable ticket codes like
// "BB-20250831-K7Q2MD". The clock and random source are injectable so
// tests can pin the output; uniqueness across the system is enforced by
// the tickets table, not here.
type TicketNumberGenerator struct {
	now    func() time.Time
	random io.Reader
}

func NewTicketNumberGenerator() *TicketNumberGenerator {
	return &TicketNumberGenerator{now: time.Now, random: rand.Reader}
}

// NewTicketNumberGeneratorWithSource pins the clock and random source.
func NewTicketNumberGeneratorWithSource(now func() time.Time, random io.Reader) *TicketNumberGenerator {
	return &TicketNumberGenerator{now: now, random: random}
}

// Generate returns the next ticket number.
func (g *TicketNumberGenerator) Generate() (string, error) {
	buf := make([]byte, 6)
	if _, err := io.ReadFull(g.random, buf); err != nil {
		return "", fmt.Errorf("ticket number generation failed: %w", err)
	}
	code := make([]byte, len(buf))
	for i, b := range buf {
		code[i] = ticketAlphabet[int(b)%len(ticketAlphabet)]
	}
	return fmt.Sprintf("BB-%s-%s", g.now().UTC().Format("20060102"), code), nil
}

// GenerateID returns a random UUID for entities that are not issued by
// the database.
func GenerateID() string {
	return uuid.New().String()
}
