package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	ID       string  `json:"id" validate:"required"`
	Status   string  `json:"status" validate:"omitempty,oneof=PENDING ACTIVE"`
	Price    float64 `json:"price" validate:"gt=0"`
	Internal string  `json:"-"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		err := ValidateStruct(sampleRequest{ID: "c1", Status: "ACTIVE", Price: 3})
		assert.NoError(t, err)
	})

	t.Run("uses json field names", func(t *testing.T) {
		err := ValidateStruct(sampleRequest{Status: "UNKNOWN", Price: 0})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "id is required")
		assert.Contains(t, err.Error(), "status must be one of: PENDING ACTIVE")
		assert.Contains(t, err.Error(), "price must be greater than 0")
	})
}

func TestParseTimestamp(t *testing.T) {
	stored, err := ParseTimestamp("2024-03-01T10:00:00.000Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T10:00:00.000Z", FormatTimestamp(stored))

	client, err := ParseTimestamp("2024-03-01T12:00:00+02:00")
	require.NoError(t, err)
	assert.True(t, client.Equal(stored))

	_, err = ParseTimestamp("yesterday")
	assert.Error(t, err)
}
