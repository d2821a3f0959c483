package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFareInCents(t *testing.T) {
	assert.Equal(t, int64(150000), fareInCents(1500))
	assert.Equal(t, int64(1999), fareInCents(19.99))
	assert.Equal(t, int64(10), fareInCents(0.1))
	assert.Equal(t, int64(0), fareInCents(0))
}
