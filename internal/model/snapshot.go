package model

import "time"

// DemandLevel is the discrete demand classification of a room type over a
// date range, derived from its booked ratio.  It drives the price
// multiplier applied on top of the base price.
type DemandLevel string

const (
	DemandLow    DemandLevel = "LOW"
	DemandNormal DemandLevel = "NORMAL"
	DemandHigh   DemandLevel = "HIGH"
	DemandPeak   DemandLevel = "PEAK"
)

// TypeAvailability is the availability answer for a single room type over
// a requested date range.
//
// Fields:
//  RoomType        – the room type the figures refer to.
//  AvailableCount  – units still free for the whole interval.
//  CandidateRooms  – IDs of concrete rooms with no interval conflict,
//                    ordered by floor then room number.
//  CurrentPriceCents – demand-adjusted nightly price.
//  PriceChangeCents  – CurrentPriceCents minus the base price (signed).
//  DemandLevel     – demand classification for the interval.
type TypeAvailability struct {
	RoomType          RoomType    `json:"room_type"`
	AvailableCount    int         `json:"available_count"`
	CandidateRooms    []uint64    `json:"candidate_rooms"`
	CurrentPriceCents uint32      `json:"current_price_cents"`
	PriceChangeCents  int64       `json:"price_change_cents"`
	DemandLevel       DemandLevel `json:"demand_level"`
}

// AvailabilitySnapshot is the cache-owned, ephemeral result of one
// availability computation.  It is never a source of truth: the
// reservation path always recomputes inside the store transaction.
//
// Fields:
//  HotelID    – hotel the snapshot was computed for.
//  PerType    – per-room-type availability figures.
//  ComputedAt – when the snapshot was computed.
//  TTL        – how long the snapshot may be served after ComputedAt.
type AvailabilitySnapshot struct {
	HotelID    uint64             `json:"hotel_id"`
	PerType    []TypeAvailability `json:"per_type"`
	ComputedAt time.Time          `json:"computed_at"`
	TTL        time.Duration      `json:"ttl"`
}

// Fresh reports whether the snapshot is still within its TTL at the given
// instant.
func (s AvailabilitySnapshot) Fresh(now time.Time) bool {
	return now.Sub(s.ComputedAt) <= s.TTL
}
