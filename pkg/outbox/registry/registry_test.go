package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	"github.com/kukumart/marketplace-backend/pkg/outbox"
	"github.com/kukumart/marketplace-backend/pkg/outbox/payloads"
)

func TestEventRegistryResolveSuccess(t *testing.T) {
	reg := NewEventRegistry()

	orderID := uuid.New()
	buyer := uuid.New()
	event := models.OutboxEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Payload: mustEnvelope(t, payloads.OrderStatusChangedEvent{
			OrderID: orderID,
			UserID:  buyer,
			From:    enums.OrderStatusPending,
			To:      enums.OrderStatusProcessing,
		}, []uuid.UUID{buyer}),
	}

	resolved, err := reg.Resolve(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Descriptor.Topic != "order" {
		t.Fatalf("unexpected topic %q", resolved.Descriptor.Topic)
	}
	payload, ok := resolved.Payload.(*payloads.OrderStatusChangedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", resolved.Payload)
	}
	if payload.To != enums.OrderStatusProcessing {
		t.Fatalf("payload mismatch %+v", payload)
	}

	msg := resolved.FeedMessage(event)
	if msg.EventID == "" || msg.AggregateID != orderID {
		t.Fatalf("unexpected feed message %+v", msg)
	}
	if !msg.VisibleTo(buyer) || msg.VisibleTo(uuid.New()) {
		t.Fatalf("audience filter mismatch")
	}
}

func TestEventRegistryResolveUnknownEvent(t *testing.T) {
	reg := NewEventRegistry()
	_, err := reg.Resolve(models.OutboxEvent{EventType: "mystery", AggregateType: enums.AggregateOrder, AggregateID: uuid.New()})
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
}

func TestEventRegistryResolveAggregateMismatch(t *testing.T) {
	reg := NewEventRegistry()
	_, err := reg.Resolve(models.OutboxEvent{
		EventType:     enums.EventWithdrawalRequested,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelope(t, payloads.WithdrawalRequestedEvent{Amount: 10000}, nil),
	})
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
}

func TestEventRegistryResolveMissingPayload(t *testing.T) {
	reg := NewEventRegistry()
	raw, _ := json.Marshal(outbox.PayloadEnvelope{Version: 1, EventID: "e", OccurredAt: time.Now(), Data: json.RawMessage("null")})
	_, err := reg.Resolve(models.OutboxEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       raw,
	})
	if err == nil {
		t.Fatal("expected missing payload error")
	}
}

func mustEnvelope(t *testing.T, data any, audience []uuid.UUID) json.RawMessage {
	t.Helper()
	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	env, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Audience:   audience,
		Data:       payload,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return env
}
