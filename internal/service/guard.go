package service

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/hotel-room-inventory/internal/model"
	"github.com/iliyamo/hotel-room-inventory/internal/repository"
)

// ReserveRequest describes one reservation attempt: quantity units of a
// room type for a stay interval.
type ReserveRequest struct {
	HotelID  uint64
	RoomType model.RoomType
	CheckIn  time.Time
	CheckOut time.Time
	Quantity int
}

// ReservationResult is returned on a successful reservation.  Available
// is the remaining capacity after this reservation committed.
type ReservationResult struct {
	BookingRef  string            `json:"booking_ref"`
	LineItemIDs []uint64          `json:"line_item_ids"`
	PriceCents  uint32            `json:"price_cents"`
	DemandLevel model.DemandLevel `json:"demand_level"`
	Available   int               `json:"available"`
}

// CancelResult reports which line items a cancellation released.
type CancelResult struct {
	Cancelled []uint64 `json:"cancelled"`
}

// AtomicReserver runs one all-or-nothing reservation or cancellation
// attempt inside the store's isolation boundary: the availability check
// and the line-item writes happen in the same transaction, never against
// a cached snapshot.  *Store implements it against MySQL.
type AtomicReserver interface {
	ReserveOnce(ctx context.Context, req ReserveRequest) (*ReservationResult, error)
	CancelOnce(ctx context.Context, ids []uint64) (*CancelResult, error)
}

// Guard is the correctness-critical write path for reservations.  It
// validates input, delegates the atomic check-then-act to the store and
// retries transient write conflicts with bounded exponential backoff.
// Genuine unavailability (ConflictError) is never retried; the caller
// may re-query and decide.
type Guard struct {
	store       AtomicReserver
	maxAttempts int
	baseBackoff time.Duration
}

// NewGuard constructs a Guard.  maxAttempts bounds the retry budget;
// baseBackoff is the first retry delay and doubles per attempt.
func NewGuard(store AtomicReserver, maxAttempts int, baseBackoff time.Duration) *Guard {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseBackoff <= 0 {
		baseBackoff = 25 * time.Millisecond
	}
	return &Guard{store: store, maxAttempts: maxAttempts, baseBackoff: baseBackoff}
}

// Reserve books quantity units of the requested type, all-or-nothing.
// For N concurrent calls contending for the same room-nights, the total
// quantity granted never exceeds the true remaining capacity; the losers
// receive a ConflictError carrying the capacity they saw.
func (g *Guard) Reserve(ctx context.Context, req ReserveRequest) (*ReservationResult, error) {
	if err := validateStay(req.CheckIn, req.CheckOut); err != nil {
		return nil, err
	}
	if !model.ValidRoomType(req.RoomType) {
		return nil, &ValidationError{Field: "room_type", Reason: "is unknown"}
	}
	if req.Quantity < 1 {
		return nil, &ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	var res *ReservationResult
	err := g.withRetries(ctx, "reserve", func(ctx context.Context) error {
		var err error
		res, err = g.store.ReserveOnce(ctx, req)
		return err
	})
	return res, err
}

// Cancel releases the given line items and their intervals.
func (g *Guard) Cancel(ctx context.Context, ids []uint64) (*CancelResult, error) {
	if len(ids) == 0 {
		return nil, &ValidationError{Field: "line_item_ids", Reason: "is required"}
	}
	var res *CancelResult
	err := g.withRetries(ctx, "cancel", func(ctx context.Context) error {
		var err error
		res, err = g.store.CancelOnce(ctx, ids)
		return err
	})
	return res, err
}

// withRetries runs fn, retrying transient store failures with
// exponential backoff until the attempt budget is spent.  Any other
// error is surfaced verbatim on the first occurrence.
func (g *Guard) withRetries(ctx context.Context, op string, fn func(context.Context) error) error {
	backoff := g.baseBackoff
	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !repository.IsTransient(err) {
			return err
		}
		lastErr = err
		if attempt == g.maxAttempts {
			break
		}
		log.Printf("guard: transient %s failure (attempt %d/%d), retrying in %s: %v",
			op, attempt, g.maxAttempts, backoff, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return &TransientStoreError{Attempts: g.maxAttempts, Err: lastErr}
}
