package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-room-inventory/internal/model"
	"github.com/iliyamo/hotel-room-inventory/internal/queue"
)

func criteria(hotelID uint64, roomType model.RoomType) model.SearchCriteria {
	return model.SearchCriteria{
		HotelID:  hotelID,
		RoomType: roomType,
		CheckIn:  time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC),
	}
}

func bookingEvent(hotelID uint64, roomType model.RoomType, in, out time.Time) queue.ChangeEvent {
	return queue.ChangeEvent{
		Type: queue.EventBookingCreated, HotelID: hotelID, Sequence: 1, Timestamp: time.Now().UTC(),
		Booking: &queue.BookingPayload{BookingRef: "ref", RoomType: roomType, CheckIn: in, CheckOut: out},
	}
}

func statusEvent(hotelID uint64, roomType model.RoomType) queue.ChangeEvent {
	return queue.ChangeEvent{
		Type: queue.EventStatusChanged, HotelID: hotelID, Sequence: 2, Timestamp: time.Now().UTC(),
		Status: &queue.StatusPayload{RoomID: 1, RoomType: roomType, FromStatus: model.RoomAvailable, ToStatus: model.RoomMaintenance},
	}
}

func receive(t *testing.T, tr *ChannelTransport) queue.ChangeEvent {
	t.Helper()
	select {
	case ev, ok := <-tr.Events():
		require.True(t, ok, "transport closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return queue.ChangeEvent{}
	}
}

func assertNothing(t *testing.T, tr *ChannelTransport) {
	t.Helper()
	select {
	case ev := <-tr.Events():
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubDeliversMatchingEvents(t *testing.T) {
	h := New(time.Minute, time.Minute)
	defer h.Close()

	tr := NewChannelTransport(8)
	state := h.Subscribe(1, criteria(1, ""), tr)
	require.NotEmpty(t, state.ID)

	ev := bookingEvent(1, model.RoomTypeDouble, criteria(1, "").CheckIn, criteria(1, "").CheckOut)
	h.Broadcast(ev)

	got := receive(t, tr)
	assert.Equal(t, queue.EventBookingCreated, got.Type)
	assert.Equal(t, uint64(1), got.HotelID)
}

func TestHubFiltersByHotel(t *testing.T) {
	h := New(time.Minute, time.Minute)
	defer h.Close()

	tr := NewChannelTransport(8)
	h.Subscribe(1, criteria(1, ""), tr)

	h.Broadcast(statusEvent(2, model.RoomTypeDouble))
	assertNothing(t, tr)
}

func TestHubFiltersByRoomType(t *testing.T) {
	h := New(time.Minute, time.Minute)
	defer h.Close()

	tr := NewChannelTransport(8)
	h.Subscribe(1, criteria(1, model.RoomTypeSuite), tr)

	h.Broadcast(statusEvent(1, model.RoomTypeDouble))
	assertNothing(t, tr)

	h.Broadcast(statusEvent(1, model.RoomTypeSuite))
	got := receive(t, tr)
	assert.Equal(t, queue.EventStatusChanged, got.Type)
}

func TestHubFiltersByInterval(t *testing.T) {
	h := New(time.Minute, time.Minute)
	defer h.Close()

	tr := NewChannelTransport(8)
	c := criteria(1, "")
	h.Subscribe(1, c, tr)

	// A stay ending exactly at the searched check-in does not overlap.
	h.Broadcast(bookingEvent(1, model.RoomTypeDouble, c.CheckIn.AddDate(0, 0, -7), c.CheckIn))
	assertNothing(t, tr)

	h.Broadcast(bookingEvent(1, model.RoomTypeDouble, c.CheckIn.AddDate(0, 0, 1), c.CheckOut))
	got := receive(t, tr)
	assert.Equal(t, queue.EventBookingCreated, got.Type)
}

func TestHubRoomAssignedMatchesAnyTypeFilter(t *testing.T) {
	h := New(time.Minute, time.Minute)
	defer h.Close()

	tr := NewChannelTransport(8)
	h.Subscribe(1, criteria(1, model.RoomTypeSuite), tr)

	h.Broadcast(queue.ChangeEvent{
		Type: queue.EventRoomAssigned, HotelID: 1, Sequence: 3, Timestamp: time.Now().UTC(),
		Assigned: &queue.AssignedPayload{BookingRef: "ref", LineItemID: 1, RoomID: 2, Number: 201},
	})
	got := receive(t, tr)
	assert.Equal(t, queue.EventRoomAssigned, got.Type)
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	h := New(time.Minute, time.Minute)
	defer h.Close()

	tr := NewChannelTransport(8)
	state := h.Subscribe(1, criteria(1, ""), tr)
	h.Unsubscribe(state.ID)

	assert.Eventually(t, func() bool { return h.SessionCount() == 0 }, time.Second, 10*time.Millisecond)
	h.Broadcast(statusEvent(1, model.RoomTypeDouble))
	// Unsubscribing twice is harmless.
	h.Unsubscribe(state.ID)
	assert.False(t, h.Touch(state.ID))
}

func TestHubSweepsIdleSessions(t *testing.T) {
	h := New(50*time.Millisecond, 10*time.Millisecond)
	defer h.Close()

	tr := NewChannelTransport(8)
	state := h.Subscribe(1, criteria(1, ""), tr)
	require.True(t, h.Touch(state.ID))

	assert.Eventually(t, func() bool { return h.SessionCount() == 0 }, time.Second, 10*time.Millisecond)
	assert.False(t, h.Touch(state.ID))
}

func TestHubTouchKeepsSessionAlive(t *testing.T) {
	h := New(150*time.Millisecond, 25*time.Millisecond)
	defer h.Close()

	tr := NewChannelTransport(8)
	state := h.Subscribe(1, criteria(1, ""), tr)

	deadline := time.Now().Add(400 * time.Millisecond)
	for time.Now().Before(deadline) {
		require.True(t, h.Touch(state.ID))
		time.Sleep(25 * time.Millisecond)
	}
	assert.Equal(t, 1, h.SessionCount())
}
