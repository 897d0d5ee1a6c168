package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/promptcraft/promptcraft/internal/domain"
)

// Publisher publishes progression events as notifications. It
// implements progression.EventPublisher.
type Publisher struct {
	conn *Connection
}

// NewPublisher creates a new queue publisher
func NewPublisher(conn *Connection) *Publisher {
	return &Publisher{conn: conn}
}

// Publish converts a domain event into a notification and enqueues it
func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	notification, err := FromEvent(event)
	if err != nil {
		return err
	}

	if err := p.conn.PublishJSON(ctx, NotificationQueueName, notification); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	slog.Info("published notification",
		"notification_id", notification.ID,
		"type", notification.Type,
		"user_id", notification.UserID,
	)

	return nil
}

// FromEvent builds the wire notification for a domain event. The full
// event is carried as the payload so consumers can render details.
func FromEvent(event domain.Event) (*Notification, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	return &Notification{
		ID:         uuid.New(),
		EventID:    event.EventID(),
		Type:       event.EventType(),
		UserID:     event.UserID(),
		Payload:    payload,
		OccurredAt: event.OccurredAt(),
	}, nil
}
