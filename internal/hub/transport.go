package hub

import (
	"errors"

	"github.com/iliyamo/hotel-room-inventory/internal/queue"
)

// Transport delivers matched events to one subscribed client.  The HTTP
// layer wraps an SSE response in one; tests use ChannelTransport.
type Transport interface {
	Send(ev queue.ChangeEvent) error
	Close() error
}

// ErrTransportClosed is returned by Send after the transport closed.
var ErrTransportClosed = errors.New("hub: transport closed")

// ChannelTransport exposes delivered events on a Go channel.
type ChannelTransport struct {
	ch     chan queue.ChangeEvent
	done   chan struct{}
	closed bool
}

// NewChannelTransport builds a transport buffering up to size events.
func NewChannelTransport(size int) *ChannelTransport {
	if size <= 0 {
		size = 16
	}
	return &ChannelTransport{
		ch:   make(chan queue.ChangeEvent, size),
		done: make(chan struct{}),
	}
}

// Events is the receive side for the subscriber.
func (t *ChannelTransport) Events() <-chan queue.ChangeEvent { return t.ch }

// Send enqueues ev, dropping it when the buffer is full rather than
// blocking the hub's delivery goroutine.
func (t *ChannelTransport) Send(ev queue.ChangeEvent) error {
	select {
	case <-t.done:
		return ErrTransportClosed
	default:
	}
	select {
	case t.ch <- ev:
		return nil
	default:
		return errors.New("hub: subscriber too slow, event dropped")
	}
}

// Close releases the transport.  Safe to call once.
func (t *ChannelTransport) Close() error {
	if !t.closed {
		t.closed = true
		close(t.done)
		close(t.ch)
	}
	return nil
}
