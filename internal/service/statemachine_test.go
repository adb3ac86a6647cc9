package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-room-inventory/internal/model"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to model.RoomStatus
		want     bool
	}{
		{model.RoomAvailable, model.RoomOccupied, true},
		{model.RoomAvailable, model.RoomMaintenance, true},
		{model.RoomAvailable, model.RoomOutOfOrder, true},
		{model.RoomOccupied, model.RoomAvailable, true},
		{model.RoomOccupied, model.RoomMaintenance, true},
		{model.RoomOccupied, model.RoomOutOfOrder, false},
		{model.RoomMaintenance, model.RoomAvailable, true},
		{model.RoomMaintenance, model.RoomOutOfOrder, true},
		{model.RoomMaintenance, model.RoomOccupied, false},
		{model.RoomOutOfOrder, model.RoomMaintenance, true},
		{model.RoomOutOfOrder, model.RoomAvailable, true},
		{model.RoomOutOfOrder, model.RoomOccupied, false},
		// Same-state moves are allowed no-ops.
		{model.RoomAvailable, model.RoomAvailable, true},
		{model.RoomOutOfOrder, model.RoomOutOfOrder, true},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTransitionApplies(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	room := model.Room{ID: 7, HotelID: 1, Type: model.RoomTypeDouble, Status: model.RoomAvailable}

	updated, change, payload, err := Transition(room, model.RoomMaintenance, "deep clean", false, now)
	require.NoError(t, err)
	require.NotNil(t, payload)

	assert.Equal(t, model.RoomMaintenance, updated.Status)
	assert.Equal(t, now, updated.UpdatedAt)
	assert.Equal(t, model.RoomAvailable, change.FromStatus)
	assert.Equal(t, model.RoomMaintenance, change.ToStatus)
	assert.Equal(t, "deep clean", change.Reason)
	assert.Equal(t, room.ID, payload.RoomID)
	assert.Equal(t, room.Type, payload.RoomType)
}

func TestTransitionSameStateIsNoOp(t *testing.T) {
	now := time.Now().UTC()
	room := model.Room{ID: 3, Status: model.RoomMaintenance}

	updated, _, payload, err := Transition(room, model.RoomMaintenance, "", false, now)
	require.NoError(t, err)
	assert.Nil(t, payload)
	assert.Equal(t, room, updated)
}

func TestTransitionRejectsIllegalMove(t *testing.T) {
	now := time.Now().UTC()
	room := model.Room{ID: 9, Status: model.RoomOutOfOrder}

	_, _, _, err := Transition(room, model.RoomOccupied, "", false, now)
	var tErr *InvalidTransitionError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, uint64(9), tErr.RoomID)
	assert.Equal(t, model.RoomOutOfOrder, tErr.From)
	assert.Equal(t, model.RoomOccupied, tErr.To)
}

func TestTransitionBlocksAvailableDuringActiveStay(t *testing.T) {
	now := time.Now().UTC()
	room := model.Room{ID: 4, Status: model.RoomOccupied}

	_, _, _, err := Transition(room, model.RoomAvailable, "checkout", true, now)
	var bErr *ActiveBookingConflictError
	require.ErrorAs(t, err, &bErr)
	assert.Equal(t, uint64(4), bErr.RoomID)

	// Once the stay no longer covers now, the same move succeeds.
	updated, _, payload, err := Transition(room, model.RoomAvailable, "checkout", false, now)
	require.NoError(t, err)
	require.NotNil(t, payload)
	assert.Equal(t, model.RoomAvailable, updated.Status)
}
