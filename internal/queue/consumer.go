// consumer.go contains the background consumer that listens to the
// inventory.events queue and appends structured lines to
// logs/inventory.log.  It gives operators a durable audit trail of every
// inventory mutation without touching the primary database.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartAuditConsumer connects to RabbitMQ, declares the inventory.events
// queue (durable), and starts consuming messages.  Each message is
// appended to logs/inventory.log in a single-line, human-friendly format.
// The function runs a reconnect loop with backoff; processing errors are
// logged and the offending message is rejected without requeue so the
// server keeps operating.
func StartAuditConsumer(url string) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("audit-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn); err != nil {
			log.Printf("audit-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("audit-consumer: set QoS failed: %v", err)
	}

	_, err = ch.QueueDeclare(inventoryQueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(inventoryQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body); err != nil {
			log.Printf("audit-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte) error {
	var ev ChangeEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	// Ensure logs directory exists
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "inventory.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(auditLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// auditLine renders one event as a single log line.
func auditLine(ev ChangeEvent) string {
	detail := ""
	switch {
	case ev.Room != nil:
		detail = fmt.Sprintf("room_id=%d number=%d type=%s floor=%d",
			ev.Room.RoomID, ev.Room.Number, ev.Room.RoomType, ev.Room.Floor)
	case ev.Status != nil:
		detail = fmt.Sprintf("room_id=%d %s->%s reason=%q",
			ev.Status.RoomID, ev.Status.FromStatus, ev.Status.ToStatus, ev.Status.Reason)
	case ev.Booking != nil:
		detail = fmt.Sprintf("booking_ref=%s type=%s nights=[%s,%s) items=%d",
			ev.Booking.BookingRef, ev.Booking.RoomType,
			ev.Booking.CheckIn.Format("2006-01-02"), ev.Booking.CheckOut.Format("2006-01-02"),
			len(ev.Booking.LineItemIDs))
	case ev.Assigned != nil:
		detail = fmt.Sprintf("booking_ref=%s line_item=%d room_id=%d number=%d",
			ev.Assigned.BookingRef, ev.Assigned.LineItemID, ev.Assigned.RoomID, ev.Assigned.Number)
	case ev.Price != nil:
		detail = fmt.Sprintf("type=%s demand=%s->%s price=%d cents",
			ev.Price.RoomType, ev.Price.FromDemand, ev.Price.ToDemand, ev.Price.PriceCents)
	}
	return fmt.Sprintf("[%s] %s | hotel=%d | seq=%d | %s\n",
		ev.Timestamp.UTC().Format(time.RFC3339), ev.Type, ev.HotelID, ev.Sequence, detail)
}
