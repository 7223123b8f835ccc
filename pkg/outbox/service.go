package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	"github.com/kukumart/marketplace-backend/pkg/logger"
)

const currentVersion = 1

var (
	ErrNoTransaction = errors.New("outbox: emit needs the caller's transaction")
	ErrInvalidEvent  = errors.New("outbox: invalid event")
)

// DomainEvent is a state change worth announcing once the surrounding
// transaction commits.
type DomainEvent struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   uuid.UUID
	Actor         *ActorRef
	Audience      []uuid.UUID
	Data          any
	Version       int
	OccurredAt    time.Time
}

func (e DomainEvent) check() error {
	switch {
	case !e.EventType.IsValid():
		return fmt.Errorf("%w: event type %q", ErrInvalidEvent, e.EventType)
	case !e.AggregateType.IsValid():
		return fmt.Errorf("%w: aggregate type %q", ErrInvalidEvent, e.AggregateType)
	case e.AggregateID == uuid.Nil:
		return fmt.Errorf("%w: %s has no aggregate id", ErrInvalidEvent, e.EventType)
	}
	return nil
}

// Emitter writes domain events inside the caller's transaction.
type Emitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error
}

type Service struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg, now: func() time.Time { return time.Now().UTC() }}
}

// Emit stores event as an unpublished outbox row. The row id doubles as the
// envelope's event id so consumers can deduplicate on either.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if tx == nil {
		return ErrNoTransaction
	}
	if err := event.check(); err != nil {
		return err
	}
	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("encode %s data: %w", event.EventType, err)
	}

	row := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
	}
	envelope := PayloadEnvelope{
		Version:    event.Version,
		EventID:    row.ID.String(),
		OccurredAt: event.OccurredAt,
		Actor:      event.Actor,
		Audience:   event.Audience,
		Data:       data,
	}
	if envelope.Version == 0 {
		envelope.Version = currentVersion
	}
	if envelope.OccurredAt.IsZero() {
		envelope.OccurredAt = s.now()
	}
	if row.Payload, err = json.Marshal(envelope); err != nil {
		return fmt.Errorf("encode %s envelope: %w", event.EventType, err)
	}
	if err := s.repo.Insert(tx, row); err != nil {
		return err
	}

	if s.logg != nil && ctx != nil {
		s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
			"event_id":       envelope.EventID,
			"event_type":     event.EventType,
			"aggregate_type": event.AggregateType,
			"aggregate_id":   event.AggregateID.String(),
		}), "outbox event queued")
	}
	return nil
}
