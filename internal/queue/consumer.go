package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// NotificationHandler processes one notification. Returning an error
// rejects the message without requeue.
type NotificationHandler func(ctx context.Context, n *Notification) error

// handlerTimeout bounds a single notification delivery
const handlerTimeout = 30 * time.Second

// Consumer pulls notifications off the queue and hands them to a
// NotificationHandler on a small worker pool.
type Consumer struct {
	conn     *Connection
	handler  NotificationHandler
	workers  int
	prefetch int
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	Workers  int
	Prefetch int
}

// DefaultConsumerConfig returns sensible defaults
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Workers:  3,
		Prefetch: 1, // one in flight per worker keeps delivery fair
	}
}

// NewConsumer creates a new queue consumer
func NewConsumer(conn *Connection, handler NotificationHandler, cfg ConsumerConfig) *Consumer {
	if cfg.Workers <= 0 {
		cfg.Workers = 3
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}
	return &Consumer{
		conn:     conn,
		handler:  handler,
		workers:  cfg.Workers,
		prefetch: cfg.Prefetch,
	}
}

// Start begins consuming. Workers run until the context is canceled or
// Stop is called.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	ch := c.conn.Channel()
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(
		NotificationQueueName,
		"",    // auto-generated consumer tag
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	slog.Info("notification consumer started", "workers", c.workers, "prefetch", c.prefetch)

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go func(id int) {
			defer c.wg.Done()
			c.run(ctx, id, deliveries)
		}(i)
	}
	return nil
}

// Stop cancels the workers and waits for in-flight deliveries
func (c *Consumer) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	slog.Info("notification consumer stopped")
}

func (c *Consumer) run(ctx context.Context, id int, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-deliveries:
			if !ok {
				slog.Info("delivery channel closed", "worker", id)
				return
			}
			c.deliver(ctx, id, msg)
		}
	}
}

func (c *Consumer) deliver(ctx context.Context, worker int, msg amqp.Delivery) {
	var n Notification
	if err := json.Unmarshal(msg.Body, &n); err != nil {
		slog.Error("malformed notification dropped", "worker", worker, "error", err)
		_ = msg.Reject(false)
		return
	}

	handlerCtx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()

	start := time.Now()
	if err := c.handler(handlerCtx, &n); err != nil {
		slog.Error("notification handling failed",
			"worker", worker,
			"notification_id", n.ID,
			"type", n.Type,
			"error", err,
			"duration", time.Since(start),
		)
		_ = msg.Reject(false)
		return
	}

	if err := msg.Ack(false); err != nil {
		slog.Error("ack failed", "worker", worker, "notification_id", n.ID, "error", err)
	}
}
