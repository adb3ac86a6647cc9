package cache

import (
	"sync"
	"time"

	"github.com/iliyamo/hotel-room-inventory/internal/model"
)

// localTier is the in-process fallback used when Redis is unreachable.
// Entries carry their own deadline and an index by hotel so that
// invalidation can evict every snapshot of a hotel without scanning.
type localTier struct {
	mu      sync.Mutex
	entries map[string]localEntry
	byHotel map[uint64]map[string]struct{}
	ttl     time.Duration
}

type localEntry struct {
	snapshot *model.AvailabilitySnapshot
	hotelID  uint64
	expires  time.Time
}

func newLocalTier(ttl time.Duration) *localTier {
	return &localTier{
		entries: make(map[string]localEntry),
		byHotel: make(map[uint64]map[string]struct{}),
		ttl:     ttl,
	}
}

func (l *localTier) get(key string, now time.Time) (*model.AvailabilitySnapshot, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		return nil, false
	}
	if now.After(e.expires) {
		l.remove(key, e.hotelID)
		return nil, false
	}
	return e.snapshot, true
}

func (l *localTier) set(key string, hotelID uint64, snap *model.AvailabilitySnapshot, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[key] = localEntry{snapshot: snap, hotelID: hotelID, expires: now.Add(l.ttl)}
	keys := l.byHotel[hotelID]
	if keys == nil {
		keys = make(map[string]struct{})
		l.byHotel[hotelID] = keys
	}
	keys[key] = struct{}{}
}

func (l *localTier) invalidateHotel(hotelID uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key := range l.byHotel[hotelID] {
		delete(l.entries, key)
	}
	delete(l.byHotel, hotelID)
}

// remove must be called with the mutex held.
func (l *localTier) remove(key string, hotelID uint64) {
	delete(l.entries, key)
	if keys := l.byHotel[hotelID]; keys != nil {
		delete(keys, key)
		if len(keys) == 0 {
			delete(l.byHotel, hotelID)
		}
	}
}
