package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-room-inventory/internal/config"
	"github.com/iliyamo/hotel-room-inventory/internal/model"
	"github.com/iliyamo/hotel-room-inventory/internal/queue"
	"github.com/iliyamo/hotel-room-inventory/internal/service"
)

func testConfig() config.CacheConfig {
	return config.CacheConfig{Enabled: true, TTL: 30 * time.Second, LocalTTL: 10 * time.Second, Prefix: "avail"}
}

func testClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()}), mr
}

func query(hotelID uint64) service.AvailabilityQuery {
	return service.AvailabilityQuery{
		HotelID:  hotelID,
		RoomType: model.RoomTypeDouble,
		CheckIn:  time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC),
	}
}

func snapshot(hotelID uint64) *model.AvailabilitySnapshot {
	return &model.AvailabilitySnapshot{
		HotelID: hotelID,
		PerType: []model.TypeAvailability{{
			RoomType:          model.RoomTypeDouble,
			AvailableCount:    3,
			CandidateRooms:    []uint64{1, 2, 3},
			CurrentPriceCents: 10000,
			DemandLevel:       model.DemandNormal,
		}},
		ComputedAt: time.Now().UTC(),
		TTL:        30 * time.Second,
	}
}

func TestHybridCacheRoundTrip(t *testing.T) {
	rdb, _ := testClient(t)
	hc := New(testConfig(), rdb)
	ctx := context.Background()
	q := query(1)

	require.Nil(t, hc.Get(ctx, q))

	hc.Set(ctx, q, snapshot(1))
	got := hc.Get(ctx, q)
	require.NotNil(t, got)
	assert.Equal(t, uint64(1), got.HotelID)
	assert.Equal(t, 3, got.PerType[0].AvailableCount)

	// A different query must not hit the same entry.
	other := query(1)
	other.CheckOut = other.CheckOut.AddDate(0, 0, 1)
	assert.Nil(t, hc.Get(ctx, other))
}

func TestHybridCacheKeyCoversAllParameters(t *testing.T) {
	hc := New(testConfig(), nil)
	base := query(1)

	variants := []service.AvailabilityQuery{}
	v := base
	v.HotelID = 2
	variants = append(variants, v)
	v = base
	v.RoomType = model.RoomTypeSuite
	variants = append(variants, v)
	v = base
	v.CheckIn = v.CheckIn.AddDate(0, 0, 1)
	variants = append(variants, v)
	v = base
	v.MinOccupancy = 3
	variants = append(variants, v)

	for _, variant := range variants {
		assert.NotEqual(t, hc.Key(base), hc.Key(variant))
	}
	assert.Equal(t, hc.Key(base), hc.Key(base))
}

func TestHybridCacheInvalidateHotel(t *testing.T) {
	rdb, _ := testClient(t)
	hc := New(testConfig(), rdb)
	ctx := context.Background()

	q1, q2, other := query(1), query(1), query(2)
	q2.RoomType = model.RoomTypeSuite
	hc.Set(ctx, q1, snapshot(1))
	hc.Set(ctx, q2, snapshot(1))
	hc.Set(ctx, other, snapshot(2))

	hc.InvalidateHotel(ctx, 1)

	assert.Nil(t, hc.Get(ctx, q1))
	assert.Nil(t, hc.Get(ctx, q2))
	assert.NotNil(t, hc.Get(ctx, other))
}

func TestHybridCacheInvalidatesOnBusEvents(t *testing.T) {
	rdb, _ := testClient(t)
	hc := New(testConfig(), rdb)
	bus := queue.NewBus(16)
	hc.AttachInvalidator(bus)
	ctx := context.Background()
	q := query(1)

	hc.Set(ctx, q, snapshot(1))
	require.NotNil(t, hc.Get(ctx, q))

	bus.Publish(queue.ChangeEvent{Type: queue.EventBookingCreated, HotelID: 1, Sequence: 1, Timestamp: time.Now().UTC()})
	bus.Close()

	assert.Nil(t, hc.Get(ctx, q))
}

func TestHybridCacheGetOrComputeCachesResult(t *testing.T) {
	rdb, _ := testClient(t)
	hc := New(testConfig(), rdb)
	ctx := context.Background()
	q := query(1)

	computes := 0
	compute := func(context.Context) (*model.AvailabilitySnapshot, error) {
		computes++
		return snapshot(1), nil
	}

	first, err := hc.GetOrCompute(ctx, q, compute)
	require.NoError(t, err)
	second, err := hc.GetOrCompute(ctx, q, compute)
	require.NoError(t, err)

	assert.Equal(t, 1, computes)
	assert.Equal(t, first.HotelID, second.HotelID)
}

func TestHybridCacheServesFromLocalTierWhenRedisDown(t *testing.T) {
	rdb, mr := testClient(t)
	hc := New(testConfig(), rdb)
	ctx := context.Background()
	q := query(1)

	hc.Set(ctx, q, snapshot(1))
	mr.Close()

	// Redis is gone; the local tier still answers.
	got := hc.Get(ctx, q)
	require.NotNil(t, got)
	assert.Equal(t, uint64(1), got.HotelID)
}

func TestHybridCacheDisabledIsPassThrough(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	hc := New(cfg, nil)
	ctx := context.Background()
	q := query(1)

	hc.Set(ctx, q, snapshot(1))
	assert.Nil(t, hc.Get(ctx, q))

	computes := 0
	for i := 0; i < 2; i++ {
		_, err := hc.GetOrCompute(ctx, q, func(context.Context) (*model.AvailabilitySnapshot, error) {
			computes++
			return snapshot(1), nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, computes)
}

func TestHybridCacheExpiredSnapshotIsMiss(t *testing.T) {
	rdb, _ := testClient(t)
	hc := New(testConfig(), rdb)
	ctx := context.Background()
	q := query(1)

	stale := snapshot(1)
	stale.ComputedAt = time.Now().UTC().Add(-time.Minute)
	hc.Set(ctx, q, stale)

	assert.Nil(t, hc.Get(ctx, q))
}
