// Package queue delivers progression notifications over RabbitMQ.
// Events are published after state is committed; a lost notification
// never loses progression.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	NotificationQueueName = "promptcraft.notifications"

	maxRedials = 10
	maxBackoff = 30 * time.Second
)

// Notification is the wire form of a progression event
type Notification struct {
	ID         uuid.UUID       `json:"id"`
	EventID    uuid.UUID       `json:"event_id"`
	Type       string          `json:"type"`
	UserID     string          `json:"user_id"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Connection manages the RabbitMQ connection and redials when the
// broker drops it.
type Connection struct {
	url      string
	conn     *amqp.Connection
	channel  *amqp.Channel
	mu       sync.RWMutex
	closed   bool
	redials  int
}

// NewConnection dials the broker and declares the notification queue
func NewConnection(url string) (*Connection, error) {
	c := &Connection{url: url}
	if err := c.dial(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Connection) dial() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	// Notifications are transient UX; a day-old level-up is noise.
	_, err = ch.QueueDeclare(
		NotificationQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		amqp.Table{
			"x-message-ttl": int32(24 * time.Hour / time.Millisecond),
		},
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("declare notification queue: %w", err)
	}

	c.conn = conn
	c.channel = ch
	go c.watchClose(conn)

	slog.Info("connected to RabbitMQ", "url", sanitizeURL(c.url))
	return nil
}

// watchClose redials with exponential backoff when the broker closes
// the connection underneath us.
func (c *Connection) watchClose(conn *amqp.Connection) {
	err, ok := <-conn.NotifyClose(make(chan *amqp.Error, 1))
	if !ok || err == nil {
		return
	}

	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return
	}

	slog.Warn("RabbitMQ connection lost, redialing", "error", err, "redials", c.redials)

	for attempt := 1; attempt <= maxRedials; attempt++ {
		c.redials++
		time.Sleep(backoff(attempt))

		if err := c.dial(); err != nil {
			slog.Error("redial failed", "error", err, "attempt", attempt)
			continue
		}
		slog.Info("reconnected to RabbitMQ", "attempts", attempt)
		return
	}
	slog.Error("giving up on RabbitMQ after repeated redial failures", "attempts", maxRedials)
}

func backoff(attempt int) time.Duration {
	d := time.Duration(1<<(attempt-1)) * time.Second
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// Channel returns the current channel
func (c *Connection) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

// IsConnected reports whether the broker connection is live
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.conn.IsClosed()
}

// Close shuts the connection down and stops redialing
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// PublishJSON publishes data as a persistent JSON message
func (c *Connection) PublishJSON(ctx context.Context, queue string, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return c.Channel().PublishWithContext(
		ctx,
		"",    // default exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// sanitizeURL truncates the URL for logging so credentials stay out of
// the logs
func sanitizeURL(url string) string {
	if len(url) > 20 {
		return url[:20] + "..."
	}
	return url
}
