package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Event Interface and Base Event
// -----------------------------------------------------------------------------

// Event types emitted by progression mutations.
const (
	EventTypeLevelUp             = "progression.level_up"
	EventTypeQuestCompleted      = "progression.quest_completed"
	EventTypeAchievementUnlocked = "progression.achievement_unlocked"
	EventTypeChallengeSubmitted  = "progression.challenge_submitted"
)

// Event represents a progression domain event
type Event interface {
	// EventID returns the unique identifier for this event
	EventID() uuid.UUID
	// EventType returns the type name of this event
	EventType() string
	// OccurredAt returns when this event occurred
	OccurredAt() time.Time
	// UserID returns the user whose ledger produced this event
	UserID() string
}

// BaseEvent provides common event fields
type BaseEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	User      string    `json:"user_id"`
}

// NewBaseEvent creates a new BaseEvent
func NewBaseEvent(eventType, userID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now(),
		User:      userID,
	}
}

func (e BaseEvent) EventID() uuid.UUID    { return e.ID }
func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) UserID() string        { return e.User }

// -----------------------------------------------------------------------------
// Progression Events
// -----------------------------------------------------------------------------

// LevelUp is emitted when an XP award pushes a ledger past a level threshold
type LevelUp struct {
	BaseEvent
	OldLevel int `json:"old_level"`
	NewLevel int `json:"new_level"`
}

// NewLevelUp creates a LevelUp event
func NewLevelUp(userID string, oldLevel, newLevel int) LevelUp {
	return LevelUp{
		BaseEvent: NewBaseEvent(EventTypeLevelUp, userID),
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
	}
}

// QuestCompleted is emitted when a quest transitions to completed
type QuestCompleted struct {
	BaseEvent
	QuestID string `json:"quest_id"`
	Score   int    `json:"score"`
	XP      int    `json:"xp"`
}

// NewQuestCompleted creates a QuestCompleted event
func NewQuestCompleted(userID, questID string, score, xp int) QuestCompleted {
	return QuestCompleted{
		BaseEvent: NewBaseEvent(EventTypeQuestCompleted, userID),
		QuestID:   questID,
		Score:     score,
		XP:        xp,
	}
}

// AchievementUnlocked is emitted when a newly satisfied achievement
// condition adds a badge to the ledger
type AchievementUnlocked struct {
	BaseEvent
	BadgeID string `json:"badge_id"`
	Rarity  string `json:"rarity"`
}

// NewAchievementUnlocked creates an AchievementUnlocked event
func NewAchievementUnlocked(userID, badgeID, rarity string) AchievementUnlocked {
	return AchievementUnlocked{
		BaseEvent: NewBaseEvent(EventTypeAchievementUnlocked, userID),
		BadgeID:   badgeID,
		Rarity:    rarity,
	}
}

// ChallengeSubmitted is emitted when a challenge submission is scored
type ChallengeSubmitted struct {
	BaseEvent
	ChallengeID string `json:"challenge_id"`
	Score       int    `json:"score"`
}

// NewChallengeSubmitted creates a ChallengeSubmitted event
func NewChallengeSubmitted(userID, challengeID string, score int) ChallengeSubmitted {
	return ChallengeSubmitted{
		BaseEvent:   NewBaseEvent(EventTypeChallengeSubmitted, userID),
		ChallengeID: challengeID,
		Score:       score,
	}
}

// -----------------------------------------------------------------------------
// Event Handler and Dispatcher
// -----------------------------------------------------------------------------

// EventHandler processes domain events
type EventHandler func(event Event)

// EventDispatcher manages event subscriptions and publishing
type EventDispatcher struct {
	mu          sync.RWMutex
	handlers    map[string][]EventHandler
	allHandlers []EventHandler // handlers for all events
}

// NewEventDispatcher creates a new event dispatcher
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{
		handlers: make(map[string][]EventHandler),
	}
}

// Subscribe registers a handler for a specific event type
func (d *EventDispatcher) Subscribe(eventType string, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

// SubscribeAll registers a handler for all event types
func (d *EventDispatcher) SubscribeAll(handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.allHandlers = append(d.allHandlers, handler)
}

// Publish dispatches an event to all registered handlers
func (d *EventDispatcher) Publish(event Event) {
	d.mu.RLock()
	handlers := append([]EventHandler{}, d.handlers[event.EventType()]...)
	handlers = append(handlers, d.allHandlers...)
	d.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}
