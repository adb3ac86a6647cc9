package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-inventory/internal/hub"
	"github.com/iliyamo/hotel-room-inventory/internal/model"
	"github.com/iliyamo/hotel-room-inventory/internal/queue"
	"github.com/iliyamo/hotel-room-inventory/internal/service"
)

// SessionHandler exposes live search sessions over Server-Sent Events.
// A client subscribes with its search criteria and receives every
// inventory change that could affect that search until it disconnects
// or goes idle past the hub's window.
type SessionHandler struct {
	Hub *hub.Hub
}

func NewSessionHandler(h *hub.Hub) *SessionHandler {
	return &SessionHandler{Hub: h}
}

// sseTransport writes hub events as SSE frames.  Send runs on the hub's
// delivery goroutine while the handler goroutine blocks on the request
// context, so writes are serialized with a mutex.
type sseTransport struct {
	mu     sync.Mutex
	resp   *echo.Response
	closed bool
}

func (t *sseTransport) Send(ev queue.ChangeEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return hub.ErrTransportClosed
	}
	bs, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(t.resp, "event: %s\ndata: %s\n\n", ev.Type, bs); err != nil {
		return err
	}
	t.resp.Flush()
	return nil
}

func (t *sseTransport) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	return nil
}

// Subscribe handles GET /v1/hotels/:id/events.  The connection stays
// open, streaming matched change events, until the client disconnects.
func (h *SessionHandler) Subscribe(c echo.Context) error {
	hotelID, err := parseHotelID(c)
	if err != nil {
		return writeError(c, err)
	}
	checkIn, checkOut, err := parseStay(c)
	if err != nil {
		return writeError(c, err)
	}
	roomType := model.RoomType(c.QueryParam("room_type"))
	if roomType != "" && !model.ValidRoomType(roomType) {
		return writeError(c, &service.ValidationError{Field: "room_type", Reason: "is unknown"})
	}
	var userID uint64
	if v, ok := c.Get("user_id").(uint64); ok {
		userID = v
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)

	transport := &sseTransport{resp: resp}
	state := h.Hub.Subscribe(userID, model.SearchCriteria{
		HotelID:  hotelID,
		RoomType: roomType,
		CheckIn:  checkIn,
		CheckOut: checkOut,
	}, transport)

	// The first frame hands the client its session ID for touch and
	// unsubscribe calls.
	bs, _ := json.Marshal(state)
	fmt.Fprintf(resp, "event: session\ndata: %s\n\n", bs)
	resp.Flush()

	<-c.Request().Context().Done()
	h.Hub.Unsubscribe(state.ID)
	return nil
}

// Touch handles POST /v1/sessions/:id/touch, keeping a session alive
// across the inactivity window.
func (h *SessionHandler) Touch(c echo.Context) error {
	if !h.Hub.Touch(c.Param("id")) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Unsubscribe handles DELETE /v1/sessions/:id.
func (h *SessionHandler) Unsubscribe(c echo.Context) error {
	h.Hub.Unsubscribe(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}
