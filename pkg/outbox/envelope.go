package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/kukumart/marketplace-backend/pkg/enums"
)

// ActorRef identifies who produced the event.
type ActorRef struct {
	UserID uuid.UUID  `json:"userId"`
	Role   enums.Role `json:"role,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
// Audience lists the non-admin users allowed to see the event on the live feed.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Audience   []uuid.UUID     `json:"audience,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// FeedMessage is what the publisher broadcasts on the change feed.
type FeedMessage struct {
	EventID       string                    `json:"eventId"`
	EventType     enums.OutboxEventType     `json:"eventType"`
	AggregateType enums.OutboxAggregateType `json:"aggregateType"`
	AggregateID   uuid.UUID                 `json:"aggregateId"`
	OccurredAt    time.Time                 `json:"occurredAt"`
	Actor         *ActorRef                 `json:"actor,omitempty"`
	Audience      []uuid.UUID               `json:"audience,omitempty"`
	Data          json.RawMessage           `json:"data"`
}

// VisibleTo reports whether a non-admin user may receive the message.
func (m FeedMessage) VisibleTo(userID uuid.UUID) bool {
	if m.Actor != nil && m.Actor.UserID == userID {
		return true
	}
	for _, id := range m.Audience {
		if id == userID {
			return true
		}
	}
	return false
}
