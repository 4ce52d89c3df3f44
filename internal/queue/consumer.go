package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/train-ticket-inventory/internal/model"
)

// BatchSink receives converted ChangeEvent batches in delivery order.
// The cache syncer is the production sink.
type BatchSink interface {
	Apply(ctx context.Context, events []model.ChangeEvent) error
}

// SeatFeedConsumer connects to the broker, declares the change-feed
// queue (durable) and applies each message's seat transitions to the
// sink.  A single consumer with prefetch 1 keeps ledger commit order:
// no second message is in flight while one is being applied.  The
// consumer runs a reconnect loop with exponential backoff and only
// stops when the context is cancelled.
type SeatFeedConsumer struct {
	URL       string
	QueueName string
	Sink      BatchSink
}

// Run blocks until ctx is cancelled, consuming and applying feed
// messages.  Broker failures are logged and retried; they never
// propagate.
func (c *SeatFeedConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			log.Printf("seat-feed: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := c.consumeLoop(ctx, conn); err != nil {
			log.Printf("seat-feed: consume loop ended: %v; reconnecting", err)
			_ = conn.Close()
			if !sleep(ctx, 2*time.Second) {
				return ctx.Err()
			}
			continue
		}
		_ = conn.Close()
		return ctx.Err()
	}
}

func (c *SeatFeedConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Prefetch 1: ordering across messages depends on applying them
	// strictly one at a time.
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}

	if _, err := ch.QueueDeclare(c.QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(c.QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.handle(ctx, d)
		}
	}
}

// handle applies one delivery.  Malformed payloads are rejected
// without requeue to avoid a poison loop; sink failures requeue the
// message so the batch is retried in place, keeping delivery order.
func (c *SeatFeedConsumer) handle(ctx context.Context, d amqp.Delivery) {
	var ev BinlogEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		log.Printf("seat-feed: unmarshal message failed: %v", err)
		_ = d.Nack(false, false)
		return
	}
	events := ev.ChangeEvents()
	if len(events) == 0 {
		_ = d.Ack(false)
		return
	}
	if err := c.Sink.Apply(ctx, events); err != nil {
		log.Printf("seat-feed: apply batch failed: %v", err)
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

// sleep waits for the duration or the context, whichever ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
