package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	"github.com/kukumart/marketplace-backend/pkg/outbox"
	"github.com/kukumart/marketplace-backend/pkg/outbox/payloads"
)

// EventDescriptor ties an event type to its aggregate and feed topic.
type EventDescriptor struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string
	decode        func(json.RawMessage) (any, error)
}

// describe registers T as the payload schema of eventType. The topic is the
// aggregate name.
func describe[T any](eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType) EventDescriptor {
	return EventDescriptor{
		EventType:     eventType,
		AggregateType: aggregate,
		Topic:         string(aggregate),
		decode: func(raw json.RawMessage) (any, error) {
			payload := new(T)
			if err := json.Unmarshal(raw, payload); err != nil {
				return nil, err
			}
			return payload, nil
		},
	}
}

// ResolvedEvent is a decoded outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

// FeedMessage converts the resolved row into the broadcast shape.
func (r *ResolvedEvent) FeedMessage(event models.OutboxEvent) outbox.FeedMessage {
	env := r.Envelope
	return outbox.FeedMessage{
		EventID:       env.EventID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		OccurredAt:    env.OccurredAt,
		Actor:         env.Actor,
		Audience:      env.Audience,
		Data:          env.Data,
	}
}

// NonRetryableError marks a row that will never publish, however often it
// is retried.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error { return e.Err }

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

func poison(format string, args ...any) error {
	return NewNonRetryableError(fmt.Errorf(format, args...))
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

func NewEventRegistry() *EventRegistry {
	return newRegistry(
		describe[payloads.OrderCreatedEvent](enums.EventOrderCreated, enums.AggregateOrder),
		describe[payloads.OrderStatusChangedEvent](enums.EventOrderStatusChanged, enums.AggregateOrder),
		describe[payloads.OrderDeletedEvent](enums.EventOrderDeleted, enums.AggregateOrder),
		describe[payloads.PaymentApprovedEvent](enums.EventPaymentApproved, enums.AggregateOrder),
		describe[payloads.WithdrawalRequestedEvent](enums.EventWithdrawalRequested, enums.AggregateWithdrawal),
		describe[payloads.WithdrawalSettledEvent](enums.EventWithdrawalSettled, enums.AggregateWithdrawal),
		describe[payloads.VendorRegisteredEvent](enums.EventVendorRegistered, enums.AggregateVendor),
		describe[payloads.VendorDecidedEvent](enums.EventVendorDecided, enums.AggregateVendor),
		describe[payloads.ProductVisibilityEvent](enums.EventProductVisibility, enums.AggregateProduct),
		describe[payloads.ProductUpdatedEvent](enums.EventProductUpdated, enums.AggregateProduct),
		describe[payloads.ProductDeletedEvent](enums.EventProductDeleted, enums.AggregateProduct),
		describe[payloads.UserUpdatedEvent](enums.EventUserUpdated, enums.AggregateUser),
		describe[payloads.UserDeletedEvent](enums.EventUserDeleted, enums.AggregateUser),
		describe[payloads.ActivityRecordedEvent](enums.EventActivityRecorded, enums.AggregateActivity),
		describe[payloads.SettingsUpdatedEvent](enums.EventSettingsUpdated, enums.AggregateSettings),
	)
}

func newRegistry(descs ...EventDescriptor) *EventRegistry {
	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor, len(descs))}
	for _, desc := range descs {
		reg.entries[desc.EventType] = desc
	}
	return reg
}

// Resolve validates the row and decodes its typed payload. Every failure is
// a NonRetryableError: a malformed row stays malformed.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	switch {
	case !ok:
		return nil, poison("unsupported event type %s", event.EventType)
	case desc.AggregateType != event.AggregateType:
		return nil, poison("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType)
	case event.AggregateID == uuid.Nil:
		return nil, NewNonRetryableError(errors.New("missing aggregate_id"))
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, poison("decode envelope: %w", err)
	}
	if data := bytes.TrimSpace(envelope.Data); len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, poison("payload missing for %s", event.EventType)
	}
	payload, err := desc.decode(envelope.Data)
	if err != nil {
		return nil, poison("decode %s payload: %w", event.EventType, err)
	}
	return &ResolvedEvent{Descriptor: desc, Envelope: envelope, Payload: payload}, nil
}
