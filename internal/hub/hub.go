// Package hub fans committed inventory change events out to live search
// sessions.  Sessions subscribe with the criteria of an in-progress
// availability search; the hub pushes only the events that could change
// that search's result and expires sessions after an inactivity window.
package hub

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/hotel-room-inventory/internal/model"
	"github.com/iliyamo/hotel-room-inventory/internal/queue"
)

// sessionBuffer bounds the per-session delivery queue.  A subscriber
// that falls this far behind is disconnected rather than allowed to
// stall delivery to everyone else.
const sessionBuffer = 32

// Hub owns the live search sessions.  All state is in-process; a session
// does not survive a restart and the client is expected to resubscribe.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*session
	byHotel  map[uint64]map[string]*session

	window     time.Duration // inactivity window before a session expires
	sweepEvery time.Duration
	now        func() time.Time

	done chan struct{}
	wg   sync.WaitGroup
}

type session struct {
	state     model.SearchSession
	transport Transport
	ch        chan queue.ChangeEvent
	quit      chan struct{}
	once      sync.Once
}

// New constructs a Hub and starts its inactivity sweeper.  window is how
// long a session may stay silent before it is dropped.
func New(window, sweepEvery time.Duration) *Hub {
	if window <= 0 {
		window = 5 * time.Minute
	}
	if sweepEvery <= 0 {
		sweepEvery = 30 * time.Second
	}
	h := &Hub{
		sessions:   make(map[string]*session),
		byHotel:    make(map[uint64]map[string]*session),
		window:     window,
		sweepEvery: sweepEvery,
		now:        func() time.Time { return time.Now().UTC() },
		done:       make(chan struct{}),
	}
	h.wg.Add(1)
	go h.sweep()
	return h
}

// Attach subscribes the hub to the event bus.
func (h *Hub) Attach(bus *queue.Bus) {
	bus.Subscribe(h.Broadcast)
}

// Subscribe registers a new search session and returns its public state.
// The hub takes ownership of the transport and closes it when the
// session ends.
func (h *Hub) Subscribe(userID uint64, criteria model.SearchCriteria, transport Transport) model.SearchSession {
	now := h.now()
	s := &session{
		state: model.SearchSession{
			ID:           uuid.NewString(),
			UserID:       userID,
			Criteria:     criteria,
			SubscribedAt: now,
			LastSeenAt:   now,
		},
		transport: transport,
		ch:        make(chan queue.ChangeEvent, sessionBuffer),
		quit:      make(chan struct{}),
	}

	h.mu.Lock()
	h.sessions[s.state.ID] = s
	hotel := h.byHotel[criteria.HotelID]
	if hotel == nil {
		hotel = make(map[string]*session)
		h.byHotel[criteria.HotelID] = hotel
	}
	hotel[s.state.ID] = s
	h.mu.Unlock()

	h.wg.Add(1)
	go h.deliver(s)
	return s.state
}

// Unsubscribe ends a session.  Unknown IDs are ignored; unsubscribing is
// idempotent.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	s, ok := h.sessions[id]
	if ok {
		h.removeLocked(s)
	}
	h.mu.Unlock()
	if ok {
		s.stop()
	}
}

// Touch records client activity, pushing the session's expiry out.  It
// reports whether the session is still live.
func (h *Hub) Touch(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[id]
	if !ok {
		return false
	}
	s.state.LastSeenAt = h.now()
	return true
}

// SessionCount reports the number of live sessions.
func (h *Hub) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Broadcast pushes ev to every session whose criteria it matches.  It is
// the bus subscriber callback and must not block: a session whose queue
// is full is disconnected.
func (h *Hub) Broadcast(ev queue.ChangeEvent) {
	h.mu.Lock()
	var slow []*session
	for _, s := range h.byHotel[ev.HotelID] {
		if !matches(s.state.Criteria, ev) {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			log.Printf("hub: session %s too slow, disconnecting", s.state.ID)
			h.removeLocked(s)
			slow = append(slow, s)
		}
	}
	h.mu.Unlock()
	for _, s := range slow {
		s.stop()
	}
}

// Close stops the sweeper and ends every session.
func (h *Hub) Close() {
	close(h.done)
	h.mu.Lock()
	all := make([]*session, 0, len(h.sessions))
	for _, s := range h.sessions {
		all = append(all, s)
	}
	h.sessions = make(map[string]*session)
	h.byHotel = make(map[uint64]map[string]*session)
	h.mu.Unlock()
	for _, s := range all {
		s.stop()
	}
	h.wg.Wait()
}

// deliver drains one session's queue onto its transport.
func (h *Hub) deliver(s *session) {
	defer h.wg.Done()
	defer s.transport.Close()
	for {
		select {
		case <-s.quit:
			return
		case ev := <-s.ch:
			if err := s.transport.Send(ev); err != nil {
				h.Unsubscribe(s.state.ID)
				return
			}
		}
	}
}

// sweep drops sessions that have been idle past the window.
func (h *Hub) sweep() {
	defer h.wg.Done()
	ticker := time.NewTicker(h.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			cutoff := h.now().Add(-h.window)
			h.mu.Lock()
			var expired []*session
			for _, s := range h.sessions {
				if s.state.LastSeenAt.Before(cutoff) {
					expired = append(expired, s)
				}
			}
			for _, s := range expired {
				h.removeLocked(s)
			}
			h.mu.Unlock()
			for _, s := range expired {
				s.stop()
			}
		}
	}
}

// removeLocked unregisters s; the caller holds the mutex.
func (h *Hub) removeLocked(s *session) {
	delete(h.sessions, s.state.ID)
	hotel := h.byHotel[s.state.Criteria.HotelID]
	delete(hotel, s.state.ID)
	if len(hotel) == 0 {
		delete(h.byHotel, s.state.Criteria.HotelID)
	}
}

func (s *session) stop() {
	s.once.Do(func() { close(s.quit) })
}

// matches reports whether ev could change the result of a search with
// the given criteria.  Room lifecycle events match on type alone since
// they affect every interval; booking and price events carry an interval
// and must overlap the searched one.
func matches(c model.SearchCriteria, ev queue.ChangeEvent) bool {
	if ev.HotelID != c.HotelID {
		return false
	}
	if rt, ok := eventRoomType(ev); ok && c.RoomType != "" && rt != c.RoomType {
		return false
	}
	switch {
	case ev.Booking != nil:
		return overlaps(c, ev.Booking.CheckIn, ev.Booking.CheckOut)
	case ev.Price != nil:
		return overlaps(c, ev.Price.CheckIn, ev.Price.CheckOut)
	}
	return true
}

func overlaps(c model.SearchCriteria, checkIn, checkOut time.Time) bool {
	return checkIn.Before(c.CheckOut) && checkOut.After(c.CheckIn)
}

// eventRoomType extracts the room type an event concerns, when it has
// one.  ROOM_ASSIGNED carries no type; it matches every type filter.
func eventRoomType(ev queue.ChangeEvent) (model.RoomType, bool) {
	switch {
	case ev.Room != nil:
		return ev.Room.RoomType, true
	case ev.Status != nil:
		return ev.Status.RoomType, true
	case ev.Booking != nil:
		return ev.Booking.RoomType, true
	case ev.Price != nil:
		return ev.Price.RoomType, true
	}
	return "", false
}
