package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-room-inventory/internal/model"
)

func floorOf(n int32) *int32 { return &n }

func TestSelectRoomDefaultsToFirstCandidate(t *testing.T) {
	cands := []model.Room{
		room(1, 102, 1, model.RoomTypeDouble, model.RoomAvailable),
		room(2, 201, 2, model.RoomTypeDouble, model.RoomAvailable),
	}
	got, ok := selectRoom(cands, AssignmentPreferences{}, nil)
	require.True(t, ok)
	assert.Equal(t, uint64(1), got.ID)
}

func TestSelectRoomPreferredFloor(t *testing.T) {
	cands := []model.Room{
		room(1, 102, 1, model.RoomTypeDouble, model.RoomAvailable),
		room(2, 201, 2, model.RoomTypeDouble, model.RoomAvailable),
	}
	got, ok := selectRoom(cands, AssignmentPreferences{PreferredFloor: floorOf(2)}, nil)
	require.True(t, ok)
	assert.Equal(t, uint64(2), got.ID)

	// An unavailable preferred floor falls back to the first candidate.
	got, ok = selectRoom(cands, AssignmentPreferences{PreferredFloor: floorOf(9)}, nil)
	require.True(t, ok)
	assert.Equal(t, uint64(1), got.ID)
}

// With adjacency requested and room 201 already picked, the engine takes
// 202 over the lower-ordered candidate on another floor.
func TestSelectRoomAdjacency(t *testing.T) {
	cands := []model.Room{
		room(1, 105, 1, model.RoomTypeDouble, model.RoomAvailable),
		room(3, 202, 2, model.RoomTypeDouble, model.RoomAvailable),
		room(4, 210, 2, model.RoomTypeDouble, model.RoomAvailable),
	}
	last := room(2, 201, 2, model.RoomTypeDouble, model.RoomAvailable)

	got, ok := selectRoom(cands, AssignmentPreferences{AdjacentRooms: true}, &last)
	require.True(t, ok)
	assert.Equal(t, uint64(3), got.ID)

	// 210 is on the same floor but too far; without 202 the heuristic
	// falls back to the first candidate.
	got, ok = selectRoom(cands[:1], AssignmentPreferences{AdjacentRooms: true}, &last)
	require.True(t, ok)
	assert.Equal(t, uint64(1), got.ID)
}

func TestSelectRoomNoCandidates(t *testing.T) {
	_, ok := selectRoom(nil, AssignmentPreferences{}, nil)
	assert.False(t, ok)
}

func TestWithoutChosenSkipsOverlappingPicks(t *testing.T) {
	cands := []model.Room{
		room(1, 101, 1, model.RoomTypeDouble, model.RoomAvailable),
		room(2, 102, 1, model.RoomTypeDouble, model.RoomAvailable),
	}
	it := item(10, model.RoomTypeDouble, nil, date(2026, 9, 1), date(2026, 9, 5))
	chosen := map[uint64][]model.BookingLineItem{
		1: {item(9, model.RoomTypeDouble, nil, date(2026, 9, 3), date(2026, 9, 7))},
	}

	got := withoutChosen(cands, chosen, it)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(2), got[0].ID)

	// A back-to-back pick on the same room does not conflict.
	later := item(11, model.RoomTypeDouble, nil, date(2026, 9, 7), date(2026, 9, 9))
	got = withoutChosen(cands, chosen, later)
	assert.Len(t, got, 2)
}

func TestCandidateRoomsIgnoreUnassignedItems(t *testing.T) {
	rooms := []model.Room{
		room(1, 101, 1, model.RoomTypeDouble, model.RoomAvailable),
		room(2, 102, 1, model.RoomTypeDouble, model.RoomAvailable),
	}
	r1 := uint64(1)
	items := []model.BookingLineItem{
		item(10, model.RoomTypeDouble, &r1, date(2026, 9, 1), date(2026, 9, 5)),
		item(11, model.RoomTypeDouble, nil, date(2026, 9, 1), date(2026, 9, 5)),
	}

	got := CandidateRooms(rooms, items, date(2026, 9, 2), date(2026, 9, 4))
	require.Len(t, got, 1)
	assert.Equal(t, uint64(2), got[0].ID)
}
