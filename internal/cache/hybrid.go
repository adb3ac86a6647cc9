package cache

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/hotel-room-inventory/internal/config"
	"github.com/iliyamo/hotel-room-inventory/internal/model"
	"github.com/iliyamo/hotel-room-inventory/internal/queue"
	"github.com/iliyamo/hotel-room-inventory/internal/service"
)

// HybridCache caches availability snapshots in two tiers: Redis shared
// across instances, and a short-lived in-process map used only while
// Redis is unreachable.  Reads degrade in order Redis -> local ->
// direct computation, never fail because of the cache, and the write
// path never consults it at all.
//
// Invalidation is coarse per hotel: any committed change event evicts
// every cached snapshot of that hotel.  A per-hotel Redis set tracks the
// live keys so eviction needs no SCAN.
type HybridCache struct {
	cfg   config.CacheConfig
	rdb   *redis.Client
	local *localTier
	now   func() time.Time
}

// New constructs a HybridCache.  rdb may be nil; the cache then serves
// from the local tier only.
func New(cfg config.CacheConfig, rdb *redis.Client) *HybridCache {
	return &HybridCache{
		cfg:   cfg,
		rdb:   rdb,
		local: newLocalTier(cfg.LocalTTL),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// AttachInvalidator subscribes the cache to the event bus.  Every change
// event is a committed inventory mutation, so each one evicts the
// affected hotel's snapshots.
func (h *HybridCache) AttachInvalidator(bus *queue.Bus) {
	bus.Subscribe(func(ev queue.ChangeEvent) {
		h.InvalidateHotel(context.Background(), ev.HotelID)
	})
}

// Key builds the stable cache key for a query.  All parameters that
// influence the snapshot participate in the digest.
func (h *HybridCache) Key(q service.AvailabilityQuery) string {
	tail := fmt.Sprintf("hotel:%d:type:%s:in:%s:out:%s:occ:%d",
		q.HotelID, q.RoomType,
		q.CheckIn.Format("2006-01-02"), q.CheckOut.Format("2006-01-02"),
		q.MinOccupancy)
	sum := sha1.Sum([]byte(tail))
	return fmt.Sprintf("%s:%x", h.cfg.Prefix, sum[:])
}

// hotelKeySet names the Redis set holding the live keys of a hotel.
func (h *HybridCache) hotelKeySet(hotelID uint64) string {
	return fmt.Sprintf("%s:hotel:%d:keys", h.cfg.Prefix, hotelID)
}

// Get returns a cached snapshot for the query, or nil on a miss.
func (h *HybridCache) Get(ctx context.Context, q service.AvailabilityQuery) *model.AvailabilitySnapshot {
	if !h.cfg.Enabled {
		return nil
	}
	key := h.Key(q)
	now := h.now()
	if h.rdb != nil {
		bs, err := h.rdb.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var snap model.AvailabilitySnapshot
			if json.Unmarshal(bs, &snap) == nil && snap.Fresh(now) {
				return &snap
			}
			return nil
		case err == redis.Nil:
			return nil
		default:
			log.Printf("cache: redis get failed, falling back to local tier: %v", err)
		}
	}
	if snap, ok := h.local.get(key, now); ok && snap.Fresh(now) {
		return snap
	}
	return nil
}

// Set stores a snapshot in both tiers.  Failures are logged and
// swallowed; a cache write must never fail a read request.
func (h *HybridCache) Set(ctx context.Context, q service.AvailabilityQuery, snap *model.AvailabilitySnapshot) {
	if !h.cfg.Enabled || snap == nil {
		return
	}
	key := h.Key(q)
	h.local.set(key, q.HotelID, snap, h.now())
	if h.rdb == nil {
		return
	}
	bs, err := json.Marshal(snap)
	if err != nil {
		log.Printf("cache: marshal snapshot failed: %v", err)
		return
	}
	pipe := h.rdb.TxPipeline()
	pipe.SetEx(ctx, key, bs, h.cfg.TTL)
	setKey := h.hotelKeySet(q.HotelID)
	pipe.SAdd(ctx, setKey, key)
	pipe.Expire(ctx, setKey, h.cfg.TTL*2)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("cache: redis set failed: %v", err)
	}
}

// GetOrCompute answers from cache when possible, otherwise computes a
// fresh snapshot and caches it.
func (h *HybridCache) GetOrCompute(ctx context.Context, q service.AvailabilityQuery, compute func(context.Context) (*model.AvailabilitySnapshot, error)) (*model.AvailabilitySnapshot, error) {
	if snap := h.Get(ctx, q); snap != nil {
		return snap, nil
	}
	snap, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	h.Set(ctx, q, snap)
	return snap, nil
}

// InvalidateHotel evicts every cached snapshot of the hotel from both
// tiers.
func (h *HybridCache) InvalidateHotel(ctx context.Context, hotelID uint64) {
	h.local.invalidateHotel(hotelID)
	if h.rdb == nil {
		return
	}
	setKey := h.hotelKeySet(hotelID)
	keys, err := h.rdb.SMembers(ctx, setKey).Result()
	if err != nil {
		log.Printf("cache: redis invalidate failed for hotel %d: %v", hotelID, err)
		return
	}
	keys = append(keys, setKey)
	if err := h.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Printf("cache: redis delete failed for hotel %d: %v", hotelID, err)
	}
}
