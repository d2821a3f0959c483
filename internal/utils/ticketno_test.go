package utils

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketNumberGenerator_Deterministic(t *testing.T) {
	fixed := time.Date(2025, 8, 31, 10, 0, 0, 0, time.UTC)
	gen := NewTicketNumberGeneratorWithSource(
		func() time.Time { return fixed },
		bytes.NewReader([]byte{0, 1, 2, 3, 4, 5}),
	)

	number, err := gen.Generate()
	require.NoError(t, err)
	assert.Equal(t, "BB-20250831-234567", number)
}

func TestTicketNumberGenerator_Format(t *testing.T) {
	gen := NewTicketNumberGenerator()

	number, err := gen.Generate()
	require.NoError(t, err)
	assert.Regexp(t, `^BB-\d{8}-[23456789ABCDEFGHJKLMNPQRSTUVWXYZ]{6}$`, number)
}

func TestTicketNumberGenerator_ExhaustedSource(t *testing.T) {
	gen := NewTicketNumberGeneratorWithSource(time.Now, bytes.NewReader([]byte{1, 2}))

	_, err := gen.Generate()
	assert.Error(t, err)
}

func TestGenerateID_Shape(t *testing.T) {
	id := GenerateID()
	assert.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`, id)
	assert.NotEqual(t, id, GenerateID())
}
