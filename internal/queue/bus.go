package queue

import (
	"log"
	"sort"
	"sync"
)

// maxPendingPerHotel bounds how many out-of-order events the bus will
// hold back per hotel while waiting for a sequence gap to fill.  When the
// bound is exceeded the pending events are flushed in sequence order so a
// lost event can never stall a hotel's stream forever.
const maxPendingPerHotel = 64

// Bus is the typed in-process publish/subscribe channel for ChangeEvents.
// It replaces any string-keyed emitter: the event surface is the closed
// EventType set and subscribers receive the full typed envelope.
//
// Delivery guarantees: events for one hotel reach every subscriber in
// sequence order (commits may publish out of order; the bus reorders
// using the per-hotel sequence number).  Subscriber callbacks run on the
// single dispatch goroutine and must not block.
type Bus struct {
	mu   sync.Mutex
	subs []func(ChangeEvent)

	in   chan ChangeEvent
	done chan struct{}
	wg   sync.WaitGroup

	lastSeq map[uint64]uint64                 // per-hotel highest delivered sequence
	pending map[uint64]map[uint64]ChangeEvent // per-hotel held-back events by sequence
}

// NewBus constructs a Bus and starts its dispatch goroutine.  The buffer
// decouples publishers (commit paths) from subscriber work.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 256
	}
	b := &Bus{
		in:      make(chan ChangeEvent, buffer),
		done:    make(chan struct{}),
		lastSeq: make(map[uint64]uint64),
		pending: make(map[uint64]map[uint64]ChangeEvent),
	}
	b.wg.Add(1)
	go b.dispatch()
	return b
}

// Subscribe registers fn to receive every delivered event.  Subscriptions
// are expected to be set up during startup, before events flow.
func (b *Bus) Subscribe(fn func(ChangeEvent)) {
	b.mu.Lock()
	b.subs = append(b.subs, fn)
	b.mu.Unlock()
}

// Publish hands an event to the bus.  It is safe for concurrent use and
// blocks only when the internal buffer is full.  Events published after
// Close are dropped.
func (b *Bus) Publish(ev ChangeEvent) {
	select {
	case <-b.done:
		log.Printf("eventbus: dropping event after close: type=%s hotel=%d seq=%d", ev.Type, ev.HotelID, ev.Sequence)
	case b.in <- ev:
	}
}

// Close stops the dispatch goroutine after draining buffered events.
func (b *Bus) Close() {
	close(b.done)
	b.wg.Wait()
}

func (b *Bus) dispatch() {
	defer b.wg.Done()
	for {
		select {
		case ev := <-b.in:
			b.handle(ev)
		case <-b.done:
			// Drain whatever publishers managed to enqueue.
			for {
				select {
				case ev := <-b.in:
					b.handle(ev)
				default:
					return
				}
			}
		}
	}
}

// handle delivers ev respecting per-hotel sequence order, holding back
// events that arrive ahead of a gap.
func (b *Bus) handle(ev ChangeEvent) {
	last, seen := b.lastSeq[ev.HotelID]
	switch {
	case !seen:
		// First event observed for this hotel anchors the sequence.
		b.deliver(ev)
		b.lastSeq[ev.HotelID] = ev.Sequence
	case ev.Sequence <= last:
		// Duplicate or replay; deliver anyway (at-least-once).
		b.deliver(ev)
	case ev.Sequence == last+1:
		b.deliver(ev)
		b.lastSeq[ev.HotelID] = ev.Sequence
	default:
		p := b.pending[ev.HotelID]
		if p == nil {
			p = make(map[uint64]ChangeEvent)
			b.pending[ev.HotelID] = p
		}
		p[ev.Sequence] = ev
		if len(p) > maxPendingPerHotel {
			b.flush(ev.HotelID)
			return
		}
	}
	b.drain(ev.HotelID)
}

// drain delivers any held-back events that have become contiguous.
func (b *Bus) drain(hotelID uint64) {
	p := b.pending[hotelID]
	for len(p) > 0 {
		next, ok := p[b.lastSeq[hotelID]+1]
		if !ok {
			return
		}
		delete(p, next.Sequence)
		b.deliver(next)
		b.lastSeq[hotelID] = next.Sequence
	}
}

// flush gives up on the gap and delivers all pending events for the hotel
// in sequence order.
func (b *Bus) flush(hotelID uint64) {
	p := b.pending[hotelID]
	seqs := make([]uint64, 0, len(p))
	for s := range p {
		seqs = append(seqs, s)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })
	for _, s := range seqs {
		ev := p[s]
		b.deliver(ev)
		b.lastSeq[hotelID] = ev.Sequence
	}
	delete(b.pending, hotelID)
}

func (b *Bus) deliver(ev ChangeEvent) {
	b.mu.Lock()
	subs := b.subs
	b.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}
