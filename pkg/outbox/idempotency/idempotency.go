// Package idempotency keeps outbox consumers from handling the same event
// twice. A claim is a Redis key km:idempotency:evt:<consumer>:<event_id>
// whose value names the instance that took it.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

type claimStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// Guard hands out per-event claims that expire after ttl.
type Guard struct {
	store claimStore
	ttl   time.Duration
	owner string
}

// NewGuard builds a guard whose claims are tagged with owner, usually the
// worker instance id. A zero ttl keeps claims forever.
func NewGuard(store claimStore, ttl time.Duration, owner string) (*Guard, error) {
	if store == nil {
		return nil, errors.New("claim store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if owner == "" {
		owner = "unknown"
	}
	return &Guard{store: store, ttl: ttl, owner: owner}, nil
}

// Claim reports true when the caller is the first to handle eventID for
// consumer. A false result means another attempt already did.
func (g *Guard) Claim(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	key, err := g.key(consumer, eventID)
	if err != nil {
		return false, err
	}
	return g.store.SetNX(ctx, key, g.owner, g.ttl)
}

// Release drops a claim this guard holds so the event can be retried. Claims
// held by another owner are left alone.
func (g *Guard) Release(ctx context.Context, consumer string, eventID uuid.UUID) error {
	key, err := g.key(consumer, eventID)
	if err != nil {
		return err
	}
	holder, err := g.store.Get(ctx, key)
	switch {
	case errors.Is(err, goredis.Nil):
		return nil
	case err != nil:
		return err
	case holder != g.owner:
		return nil
	}
	return g.store.Del(ctx, key)
}

func (g *Guard) key(consumer string, eventID uuid.UUID) (string, error) {
	if consumer == "" {
		return "", errors.New("consumer name is required")
	}
	if eventID == uuid.Nil {
		return "", errors.New("event id is required")
	}
	return g.store.IdempotencyKey("evt:"+consumer, eventID.String()), nil
}
