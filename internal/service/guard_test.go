package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-room-inventory/internal/model"
	"github.com/iliyamo/hotel-room-inventory/internal/repository"
)

// memReserver implements AtomicReserver over a mutex-guarded capacity
// table, standing in for the MySQL store's locking transaction.
type memReserver struct {
	mu       sync.Mutex
	capacity int
	items    map[uint64]model.BookingLineItem
	nextID   uint64

	// failures injects transient errors before attempts succeed.
	failures int
	attempts int
}

func newMemReserver(capacity int) *memReserver {
	return &memReserver{capacity: capacity, items: make(map[uint64]model.BookingLineItem)}
}

func (m *memReserver) ReserveOnce(_ context.Context, req ReserveRequest) (*ReservationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	if m.failures > 0 {
		m.failures--
		return nil, repository.ErrVersionConflict
	}
	overlapping := 0
	for _, it := range m.items {
		if it.Status.Active() && it.Overlaps(req.CheckIn, req.CheckOut) {
			overlapping++
		}
	}
	available := m.capacity - overlapping
	if available < req.Quantity {
		return nil, &ConflictError{HotelID: req.HotelID, RoomType: req.RoomType, Requested: req.Quantity, Available: available}
	}
	ids := make([]uint64, req.Quantity)
	for i := range ids {
		m.nextID++
		ids[i] = m.nextID
		m.items[m.nextID] = model.BookingLineItem{
			ID: m.nextID, HotelID: req.HotelID, RoomType: req.RoomType,
			CheckIn: req.CheckIn, CheckOut: req.CheckOut, Status: model.LineItemPending,
		}
	}
	return &ReservationResult{
		BookingRef:  "ref",
		LineItemIDs: ids,
		Available:   available - req.Quantity,
	}, nil
}

func (m *memReserver) CancelOnce(_ context.Context, ids []uint64) (*CancelResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cancelled := []uint64{}
	for _, id := range ids {
		it, ok := m.items[id]
		if !ok || !it.Status.Active() {
			continue
		}
		it.Status = model.LineItemCancelled
		m.items[id] = it
		cancelled = append(cancelled, id)
	}
	return &CancelResult{Cancelled: cancelled}, nil
}

func (m *memReserver) activeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, it := range m.items {
		if it.Status.Active() {
			n++
		}
	}
	return n
}

func reserveReq(qty int) ReserveRequest {
	return ReserveRequest{
		HotelID:  1,
		RoomType: model.RoomTypeDouble,
		CheckIn:  date(2026, 9, 1),
		CheckOut: date(2026, 9, 5),
		Quantity: qty,
	}
}

func TestGuardValidatesInput(t *testing.T) {
	g := NewGuard(newMemReserver(5), 3, time.Millisecond)
	var vErr *ValidationError

	req := reserveReq(1)
	req.CheckOut = req.CheckIn
	_, err := g.Reserve(context.Background(), req)
	require.ErrorAs(t, err, &vErr)

	req = reserveReq(1)
	req.RoomType = "PENTHOUSE"
	_, err = g.Reserve(context.Background(), req)
	require.ErrorAs(t, err, &vErr)

	_, err = g.Reserve(context.Background(), reserveReq(0))
	require.ErrorAs(t, err, &vErr)

	_, err = g.Cancel(context.Background(), nil)
	require.ErrorAs(t, err, &vErr)
}

// Concurrent reservations contending for the same room-nights must never
// oversell: the winners' quantities sum to at most the capacity and every
// loser gets a ConflictError.
func TestGuardConcurrentReservationsNeverOversell(t *testing.T) {
	const capacity = 5
	const callers = 20

	store := newMemReserver(capacity)
	g := NewGuard(store, 3, time.Millisecond)

	var wg sync.WaitGroup
	results := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = g.Reserve(context.Background(), reserveReq(1))
		}(i)
	}
	wg.Wait()

	granted := 0
	conflicts := 0
	for _, err := range results {
		switch {
		case err == nil:
			granted++
		default:
			var cErr *ConflictError
			require.ErrorAs(t, err, &cErr)
			assert.GreaterOrEqual(t, cErr.Available, 0)
			conflicts++
		}
	}
	assert.Equal(t, capacity, granted)
	assert.Equal(t, callers-capacity, conflicts)
	assert.Equal(t, capacity, store.activeCount())
}

func TestGuardReserveCancelRoundTrip(t *testing.T) {
	store := newMemReserver(2)
	g := NewGuard(store, 3, time.Millisecond)

	res, err := g.Reserve(context.Background(), reserveReq(2))
	require.NoError(t, err)
	require.Len(t, res.LineItemIDs, 2)
	assert.Equal(t, 0, res.Available)

	// Fully booked now.
	_, err = g.Reserve(context.Background(), reserveReq(1))
	var cErr *ConflictError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, 0, cErr.Available)

	cancel, err := g.Cancel(context.Background(), res.LineItemIDs)
	require.NoError(t, err)
	assert.ElementsMatch(t, res.LineItemIDs, cancel.Cancelled)

	// Cancelling again is a no-op, and the capacity is reusable.
	cancel, err = g.Cancel(context.Background(), res.LineItemIDs)
	require.NoError(t, err)
	assert.Empty(t, cancel.Cancelled)

	_, err = g.Reserve(context.Background(), reserveReq(2))
	require.NoError(t, err)
}

func TestGuardRetriesTransientFailures(t *testing.T) {
	store := newMemReserver(1)
	store.failures = 2
	g := NewGuard(store, 3, time.Millisecond)

	res, err := g.Reserve(context.Background(), reserveReq(1))
	require.NoError(t, err)
	require.Len(t, res.LineItemIDs, 1)
	assert.Equal(t, 3, store.attempts)
}

func TestGuardGivesUpAfterRetryBudget(t *testing.T) {
	store := newMemReserver(1)
	store.failures = 10
	g := NewGuard(store, 3, time.Millisecond)

	_, err := g.Reserve(context.Background(), reserveReq(1))
	var sErr *TransientStoreError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, 3, sErr.Attempts)
	assert.ErrorIs(t, err, repository.ErrVersionConflict)
	assert.Equal(t, 3, store.attempts)
}

func TestGuardDoesNotRetryConflicts(t *testing.T) {
	store := newMemReserver(0)
	g := NewGuard(store, 5, time.Millisecond)

	_, err := g.Reserve(context.Background(), reserveReq(1))
	var cErr *ConflictError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, 1, store.attempts)
}
