package services_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"counselcore/models"
	"counselcore/services"
)

func TestSlotRegistryReserveRelease(t *testing.T) {
	db := newTestDB(t)
	registry := services.NewSlotRegistry()

	counselor := createUser(t, db, models.RoleCounselor)
	slot := createSlots(t, db, counselor.ID, 1, baseTime.Add(48*time.Hour))[0]
	sessionID := uuid.New()

	require.NoError(t, registry.Reserve(db, slot.ID, sessionID))

	bound := reloadSlot(t, db, slot.ID)
	assert.False(t, bound.IsAvailable)
	require.NotNil(t, bound.BoundSessionID)
	assert.Equal(t, sessionID, *bound.BoundSessionID)

	t.Run("a bound slot cannot be reserved again", func(t *testing.T) {
		err := registry.Reserve(db, slot.ID, uuid.New())
		require.ErrorIs(t, err, services.ErrSlotUnavailable)
		// The original binding is intact.
		assert.Equal(t, sessionID, *reloadSlot(t, db, slot.ID).BoundSessionID)
	})

	require.NoError(t, registry.Release(db, slot.ID))
	freed := reloadSlot(t, db, slot.ID)
	assert.True(t, freed.IsAvailable)
	assert.Nil(t, freed.BoundSessionID)

	t.Run("releasing an unbound slot fails", func(t *testing.T) {
		require.ErrorIs(t, registry.Release(db, slot.ID), services.ErrSlotNotBound)
	})

	t.Run("unknown slot", func(t *testing.T) {
		require.ErrorIs(t, registry.Reserve(db, uuid.New(), uuid.New()), services.ErrNotFound)
		require.ErrorIs(t, registry.Release(db, uuid.New()), services.ErrNotFound)
	})
}

func TestSlotRegistryConcurrentReservationSingleWinner(t *testing.T) {
	db := newTestDB(t)
	registry := services.NewSlotRegistry()

	counselor := createUser(t, db, models.RoleCounselor)
	slot := createSlots(t, db, counselor.ID, 1, baseTime.Add(48*time.Hour))[0]

	const contenders = 16
	var wg sync.WaitGroup
	results := make(chan error, contenders)

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- registry.Reserve(db, slot.ID, uuid.New())
		}()
	}
	wg.Wait()
	close(results)

	var won, lost int
	for err := range results {
		switch {
		case err == nil:
			won++
		case errors.Is(err, services.ErrSlotUnavailable):
			lost++
		default:
			t.Fatalf("unexpected reservation error: %v", err)
		}
	}
	assert.Equal(t, 1, won, "exactly one contender may win the slot")
	assert.Equal(t, contenders-1, lost)

	bound := reloadSlot(t, db, slot.ID)
	assert.False(t, bound.IsAvailable)
	assert.NotNil(t, bound.BoundSessionID)
}
