package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seqvault/seqvault/internal/db/models"
)

func TestDatasetStateValid(t *testing.T) {
	for _, state := range models.DatasetStates {
		assert.True(t, state.Valid(), state)
	}

	for _, state := range []models.DatasetState{"", "OK", "sleeping"} {
		assert.False(t, state.Valid(), state)
	}
}
