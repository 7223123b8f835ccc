package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/kukumart/marketplace-backend/pkg/config"
	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	"github.com/kukumart/marketplace-backend/pkg/logger"
	"github.com/kukumart/marketplace-backend/pkg/metrics"
	"github.com/kukumart/marketplace-backend/pkg/outbox"
	"github.com/kukumart/marketplace-backend/pkg/outbox/idempotency"
	"github.com/kukumart/marketplace-backend/pkg/outbox/registry"
	"github.com/kukumart/marketplace-backend/pkg/redis"
)

func TestServiceProcessBatchContinuesAfterFailure(t *testing.T) {
	repo := &fakeRepo{events: []models.OutboxEvent{newEvent(0), newEvent(0)}}
	feed := &fakeFeed{errs: []error{errors.New("transient"), nil}}
	service := newTestService(t, repo, feed, &fakeRegistry{}, nil, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if len(repo.failed) != 1 || repo.failed[0] != repo.events[0].ID {
		t.Fatalf("expected first row marked failed, got %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != repo.events[1].ID {
		t.Fatalf("expected second row marked published, got %v", repo.published)
	}
}

func TestPublishWritesFeedMessageOnAggregateChannel(t *testing.T) {
	event := newEvent(0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	feed := &fakeFeed{}
	service := newTestService(t, repo, feed, &fakeRegistry{}, nil, nil)

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if len(feed.sent) != 1 {
		t.Fatalf("expected one publish, got %d", len(feed.sent))
	}
	if feed.sent[0].channel != "test:feed:order" {
		t.Fatalf("unexpected channel %q", feed.sent[0].channel)
	}
	var msg outbox.FeedMessage
	if err := json.Unmarshal(feed.sent[0].payload, &msg); err != nil {
		t.Fatalf("decode feed message: %v", err)
	}
	if msg.AggregateID != event.AggregateID || msg.EventType != enums.EventOrderCreated {
		t.Fatalf("unexpected feed message %+v", msg)
	}
}

func TestServiceProcessBatchParksNonRetryable(t *testing.T) {
	event := newEvent(0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	reg := &fakeRegistry{err: registry.NewNonRetryableError(errors.New("invalid payload"))}
	feed := &fakeFeed{}
	service := newTestService(t, repo, feed, reg, nil, nil)

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if len(repo.terminal) != 1 || repo.terminal[0] != event.ID {
		t.Fatalf("expected row parked, got %v", repo.terminal)
	}
	if len(feed.sent) != 0 {
		t.Fatalf("nothing should be published")
	}
}

func TestServiceProcessBatchParksOnMaxAttempts(t *testing.T) {
	event := newEvent(1)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	feed := &fakeFeed{errs: []error{errors.New("transient")}}
	service := newTestService(t, repo, feed, &fakeRegistry{}, nil, &config.OutboxConfig{MaxAttempts: 2})

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if len(repo.terminal) != 1 {
		t.Fatalf("expected row parked after max attempts, got %v", repo.terminal)
	}
	if len(repo.failed) != 0 {
		t.Fatalf("parked row should not also be marked failed")
	}
}

func TestDedupeSkipsAlreadyBroadcastEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewFromRedis(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	dedupe, err := idempotency.NewGuard(client, time.Hour, "publisher-test")
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}

	event := newEvent(0)
	feed := &fakeFeed{}
	first := newTestService(t, &fakeRepo{events: []models.OutboxEvent{event}}, feed, &fakeRegistry{}, dedupe, nil)
	if _, err := first.processBatch(context.Background()); err != nil {
		t.Fatalf("first batch: %v", err)
	}

	// The row comes back as if the published mark had been rolled back.
	replayRepo := &fakeRepo{events: []models.OutboxEvent{event}}
	second := newTestService(t, replayRepo, feed, &fakeRegistry{}, dedupe, nil)
	if _, err := second.processBatch(context.Background()); err != nil {
		t.Fatalf("second batch: %v", err)
	}

	if len(feed.sent) != 1 {
		t.Fatalf("expected a single broadcast, got %d", len(feed.sent))
	}
	if len(replayRepo.published) != 1 {
		t.Fatalf("replayed row should still be marked published")
	}
}

func TestDedupeMarkReleasedWhenPublishFails(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewFromRedis(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	dedupe, err := idempotency.NewGuard(client, time.Hour, "publisher-test")
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}

	event := newEvent(0)
	feed := &fakeFeed{errs: []error{errors.New("redis down")}}
	service := newTestService(t, &fakeRepo{events: []models.OutboxEvent{event}}, feed, &fakeRegistry{}, dedupe, nil)
	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch: %v", err)
	}

	claimed, err := dedupe.Claim(context.Background(), dedupeConsumer, event.ID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !claimed {
		t.Fatalf("failed publish must not leave the event marked")
	}
}

func TestDuplicateAndPublishedOutcomesAreCounted(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewFromRedis(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	dedupe, err := idempotency.NewGuard(client, time.Hour, "publisher-test")
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	reg := prometheus.NewRegistry()

	event := newEvent(0)
	service := newTestService(t, &fakeRepo{events: []models.OutboxEvent{event}}, &fakeFeed{}, &fakeRegistry{}, dedupe, nil)
	service.metrics = metrics.NewOutbox(reg)
	for i := 0; i < 2; i++ {
		if _, err := service.processBatch(context.Background()); err != nil {
			t.Fatalf("batch %d: %v", i, err)
		}
	}

	if got := outcomeCount(t, reg, metrics.OutcomePublished); got != 1 {
		t.Fatalf("expected one published row, got %f", got)
	}
	if got := outcomeCount(t, reg, metrics.OutcomeDuplicate); got != 1 {
		t.Fatalf("expected one duplicate row, got %f", got)
	}
}

func outcomeCount(t *testing.T, reg *prometheus.Registry, outcome string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != "outbox_events_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "outcome" && label.GetValue() == outcome {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestPurgeRunsOncePerInterval(t *testing.T) {
	repo := &fakeRepo{}
	service := newTestService(t, repo, &fakeFeed{}, &fakeRegistry{}, nil, &config.OutboxConfig{Retention: 7 * 24 * time.Hour})
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	service.maybePurge(context.Background())
	service.maybePurge(context.Background())
	if len(repo.purgeCutoffs) != 1 {
		t.Fatalf("expected a single purge inside the interval, got %d", len(repo.purgeCutoffs))
	}
	if want := now.Add(-7 * 24 * time.Hour); !repo.purgeCutoffs[0].Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, repo.purgeCutoffs[0])
	}

	now = now.Add(purgeInterval)
	service.maybePurge(context.Background())
	if len(repo.purgeCutoffs) != 2 {
		t.Fatalf("expected a second purge after the interval, got %d", len(repo.purgeCutoffs))
	}
}

func TestPurgeDisabledWithoutRetention(t *testing.T) {
	repo := &fakeRepo{}
	service := newTestService(t, repo, &fakeFeed{}, &fakeRegistry{}, nil, nil)
	service.maybePurge(context.Background())
	if len(repo.purgeCutoffs) != 0 {
		t.Fatalf("purge must not run without a retention window")
	}
}

func TestNextBackoffCaps(t *testing.T) {
	if got := nextBackoff(0, time.Second, 10*time.Second); got != 2*time.Second {
		t.Fatalf("expected 2s got %s", got)
	}
	if got := nextBackoff(8*time.Second, time.Second, 10*time.Second); got != 10*time.Second {
		t.Fatalf("expected cap at 10s got %s", got)
	}
}

func newEvent(attempts int) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
		AttemptCount:  attempts,
	}
}

func newTestService(t *testing.T, repo *fakeRepo, feed *fakeFeed, reg registryResolver, dedupe dedupeGuard, outboxCfg *config.OutboxConfig) *Service {
	t.Helper()
	cfg := &config.Config{}
	if outboxCfg != nil {
		cfg.Outbox = *outboxCfg
	}
	params := ServiceParams{
		Config:     cfg,
		Logger:     logger.Nop(),
		DB:         fakeDB{},
		Feed:       feed,
		Repository: repo,
		Registry:   reg,
	}
	if dedupe != nil {
		params.Dedupe = dedupe
	}
	service, err := NewService(params)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

type fakeDB struct{}

func (fakeDB) Ping(context.Context) error { return nil }

func (fakeDB) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type sentMessage struct {
	channel string
	payload []byte
}

type fakeFeed struct {
	errs []error
	sent []sentMessage
}

func (f *fakeFeed) Ping(context.Context) error { return nil }

func (f *fakeFeed) FeedChannel(topic string) string { return "test:feed:" + topic }

func (f *fakeFeed) Publish(_ context.Context, channel string, payload []byte) error {
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return err
		}
	}
	f.sent = append(f.sent, sentMessage{channel: channel, payload: payload})
	return nil
}

type fakeRepo struct {
	events       []models.OutboxEvent
	published    []uuid.UUID
	failed       []uuid.UUID
	terminal     []uuid.UUID
	purgeCutoffs []time.Time
}

func (f *fakeRepo) FetchUnpublishedForPublish(_ *gorm.DB, limit, _ int) ([]models.OutboxEvent, error) {
	if limit < len(f.events) {
		return f.events[:limit], nil
	}
	return f.events, nil
}

func (f *fakeRepo) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, _ error, _ int) error {
	f.terminal = append(f.terminal, id)
	return nil
}

func (f *fakeRepo) DeletePublishedBefore(_ *gorm.DB, cutoff time.Time, _ int) (int64, error) {
	f.purgeCutoffs = append(f.purgeCutoffs, cutoff)
	return 2, nil
}

// fakeRegistry resolves every row, using the row id as the event id.
type fakeRegistry struct {
	err error
}

func (f *fakeRegistry) Resolve(event models.OutboxEvent) (*registry.ResolvedEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{
			EventType:     event.EventType,
			AggregateType: event.AggregateType,
			Topic:         string(event.AggregateType),
		},
		Envelope: outbox.PayloadEnvelope{
			Version:    1,
			EventID:    event.ID.String(),
			OccurredAt: time.Now().UTC(),
			Data:       json.RawMessage(`{}`),
		},
	}, nil
}
