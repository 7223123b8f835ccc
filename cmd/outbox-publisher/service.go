package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/kukumart/marketplace-backend/pkg/config"
	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/logger"
	"github.com/kukumart/marketplace-backend/pkg/metrics"
	"github.com/kukumart/marketplace-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize      = 50
	defaultPollInterval   = 500 * time.Millisecond
	defaultMaxAttempts    = 10
	defaultPublishTimeout = 5 * time.Second
	maxBackoff            = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond

	purgeInterval  = 10 * time.Minute
	purgeBatchRows = 500

	dedupeConsumer = "feed-publisher"
)

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type feedPublisher interface {
	Ping(context.Context) error
	Publish(ctx context.Context, channel string, payload []byte) error
	FeedChannel(topic string) string
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
	DeletePublishedBefore(tx *gorm.DB, cutoff time.Time, limit int) (int64, error)
}

type registryResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

// dedupeGuard remembers which events already went out, so a row whose
// published mark was lost to a rolled-back transaction is not broadcast twice.
type dedupeGuard interface {
	Claim(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Release(ctx context.Context, consumer string, eventID uuid.UUID) error
}

type ServiceParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         dbClient
	Feed       feedPublisher
	Repository outboxRepository
	Registry   registryResolver
	Dedupe     dedupeGuard
	Metrics    *metrics.Outbox
}

// Service drains the outbox onto the Redis change feed.
type Service struct {
	logg     *logger.Logger
	db       dbClient
	feed     feedPublisher
	repo     outboxRepository
	registry registryResolver
	dedupe   dedupeGuard
	metrics  *metrics.Outbox
	limiter  *rate.Limiter

	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
	retention    time.Duration
	lastPurge    time.Time
	now          func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Config == nil:
		return nil, errors.New("config is required")
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.DB == nil:
		return nil, errors.New("database client is required")
	case params.Feed == nil:
		return nil, errors.New("feed publisher is required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository is required")
	case params.Registry == nil:
		return nil, errors.New("event registry is required")
	}

	cfg := params.Config.Outbox
	batch := orDefault(cfg.BatchSize, defaultBatchSize)
	limit := rate.Inf
	if cfg.PublishRatePerSec > 0 {
		limit = rate.Limit(cfg.PublishRatePerSec)
	}
	poll := defaultPollInterval
	if cfg.PollIntervalMS > 0 {
		poll = time.Duration(cfg.PollIntervalMS) * time.Millisecond
	}

	return &Service{
		logg:         params.Logger,
		db:           params.DB,
		feed:         params.Feed,
		repo:         params.Repository,
		registry:     params.Registry,
		dedupe:       params.Dedupe,
		metrics:      params.Metrics,
		limiter:      rate.NewLimiter(limit, batch),
		batchSize:    batch,
		maxAttempts:  orDefault(cfg.MaxAttempts, defaultMaxAttempts),
		pollInterval: poll,
		retention:    cfg.Retention,
		now:          func() time.Time { return time.Now().UTC() },
	}, nil
}

func orDefault(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// Run polls until ctx is cancelled. An empty poll waits one interval; a
// failed batch backs off exponentially up to maxBackoff.
func (s *Service) Run(ctx context.Context) error {
	for name, ping := range map[string]func(context.Context) error{"database": s.db.Ping, "redis": s.feed.Ping} {
		if err := ping(ctx); err != nil {
			return fmt.Errorf("%s not reachable: %w", name, err)
		}
	}

	backoff := s.pollInterval
	for ctx.Err() == nil {
		s.maybePurge(ctx)

		busy, err := s.processBatch(ctx)
		wait := s.pollInterval
		switch {
		case errors.Is(err, context.Canceled):
			return err
		case err != nil:
			s.logg.Error(ctx, "outbox batch failed", err)
			backoff = nextBackoff(backoff, s.pollInterval, maxBackoff)
			wait = backoff
		case busy:
			backoff = s.pollInterval
			continue
		default:
			backoff = s.pollInterval
		}
		if err := sleep(ctx, withJitter(wait)); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// processBatch handles one locked batch and reports whether it found rows.
// Per-row failures are settled on the row; only storage errors abort.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	var claimed int
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.repo.FetchUnpublishedForPublish(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return err
		}
		claimed = len(rows)
		for _, row := range rows {
			if err := s.limiter.Wait(ctx); err != nil {
				return err
			}
			outcome, err := s.handle(ctx, tx, row)
			if err != nil {
				return err
			}
			s.metrics.Event(outcome, string(row.AggregateType))
		}
		return nil
	})
	s.metrics.Batch(claimed)
	return claimed > 0, err
}

// handle publishes one row and records the result on it.
func (s *Service) handle(ctx context.Context, tx *gorm.DB, row models.OutboxEvent) (string, error) {
	resolved, err := s.registry.Resolve(row)
	if err != nil {
		return metrics.OutcomeParked, s.park(ctx, tx, row, nil, err)
	}
	fields := s.eventFields(row, resolved)

	sent, err := s.publishResolved(ctx, row, resolved)
	if err == nil {
		if err := s.repo.MarkPublishedTx(tx, row.ID); err != nil {
			return "", fmt.Errorf("mark published %s: %w", row.ID, err)
		}
		if !sent {
			s.logg.Info(s.logg.WithFields(ctx, fields), "outbox event already broadcast")
			return metrics.OutcomeDuplicate, nil
		}
		s.logg.Info(s.logg.WithFields(ctx, fields), "outbox event published")
		return metrics.OutcomePublished, nil
	}

	var permanent registry.NonRetryableError
	if errors.As(err, &permanent) {
		return metrics.OutcomeParked, s.park(ctx, tx, row, fields, err)
	}
	attempt := row.AttemptCount + 1
	fields["attempt_count"] = attempt
	if attempt >= s.maxAttempts {
		fields["terminal_reason"] = "max_attempts"
		return metrics.OutcomeParked, s.park(ctx, tx, row, fields, fmt.Errorf("max publish attempts reached: %w", err))
	}

	s.logg.Warn(s.logg.WithField(s.logg.WithFields(ctx, fields), "error", err.Error()), "outbox publish failed")
	if err := s.repo.MarkFailedTx(tx, row.ID, err); err != nil {
		return "", fmt.Errorf("mark failure %s: %w", row.ID, err)
	}
	return metrics.OutcomeRetry, nil
}

func (s *Service) park(ctx context.Context, tx *gorm.DB, row models.OutboxEvent, fields map[string]any, cause error) error {
	if fields == nil {
		fields = s.eventFields(row, nil)
	}
	s.logg.Warn(s.logg.WithField(s.logg.WithFields(ctx, fields), "error", cause.Error()), "outbox event will not be retried")
	if err := s.repo.MarkTerminalTx(tx, row.ID, cause, s.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", row.ID, err)
	}
	return nil
}

// publishResolved broadcasts the feed message on the aggregate's channel. It
// reports false without publishing when an earlier attempt already did.
func (s *Service) publishResolved(ctx context.Context, row models.OutboxEvent, resolved *registry.ResolvedEvent) (bool, error) {
	payload, err := json.Marshal(resolved.FeedMessage(row))
	if err != nil {
		return false, registry.NewNonRetryableError(fmt.Errorf("encode feed message: %w", err))
	}

	eventID, parseErr := uuid.Parse(resolved.Envelope.EventID)
	guarded := s.dedupe != nil && parseErr == nil
	if guarded {
		claimed, err := s.dedupe.Claim(ctx, dedupeConsumer, eventID)
		if err != nil {
			return false, err
		}
		if !claimed {
			return false, nil
		}
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	if err := s.feed.Publish(publishCtx, s.feed.FeedChannel(resolved.Descriptor.Topic), payload); err != nil {
		if guarded {
			if relErr := s.dedupe.Release(ctx, dedupeConsumer, eventID); relErr != nil {
				s.logg.Error(ctx, "release dedupe claim", relErr)
			}
		}
		return false, err
	}
	return true, nil
}

// maybePurge trims published rows past the retention window, at most once
// per purgeInterval. Failures are logged and retried next interval.
func (s *Service) maybePurge(ctx context.Context) {
	if s.retention <= 0 {
		return
	}
	now := s.now()
	if !s.lastPurge.IsZero() && now.Sub(s.lastPurge) < purgeInterval {
		return
	}
	s.lastPurge = now

	var removed int64
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := s.repo.DeletePublishedBefore(tx, now.Add(-s.retention), purgeBatchRows)
		removed = n
		return err
	})
	if err != nil {
		s.logg.Error(ctx, "outbox purge failed", err)
		return
	}
	s.metrics.Purged(removed)
	if removed > 0 {
		s.logg.Info(s.logg.WithField(ctx, "rows", removed), "outbox purged published rows")
	}
}

func (s *Service) eventFields(row models.OutboxEvent, resolved *registry.ResolvedEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":      row.ID.String(),
		"event_type":     row.EventType,
		"aggregate_type": row.AggregateType,
		"aggregate_id":   row.AggregateID.String(),
		"attempt_count":  row.AttemptCount,
	}
	if resolved != nil {
		fields["event_id"] = resolved.Envelope.EventID
		fields["occurred_at"] = resolved.Envelope.OccurredAt.Format(time.RFC3339Nano)
		fields["channel"] = s.feed.FeedChannel(resolved.Descriptor.Topic)
	}
	if row.LastError != nil {
		fields["last_error"] = *row.LastError
	}
	return fields
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, limit time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	return min(current*2, limit)
}

func withJitter(d time.Duration) time.Duration {
	return d + rand.N(jitterWindow)
}
