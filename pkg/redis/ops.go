package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore is the key/value surface used by request and event
// deduplication.
type IdempotencyStore interface {
	Get(context.Context, string) (string, error)
	SetNX(context.Context, string, any, time.Duration) (bool, error)
	Set(context.Context, string, any, time.Duration) error
	IdempotencyKey(scope, id string) string
	Del(context.Context, ...string) error
}

// Publisher fans a payload out on a change-feed channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	FeedChannel(topic string) string
}

// Subscriber opens a subscription on one or more change-feed channels.
type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) (*redis.PubSub, error)
	FeedChannel(topic string) string
}

// fixedWindow increments the counter and arms its expiry in one round trip
// so a crash between the two cannot leave a counter that never resets.
var fixedWindow = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	rdb, err := c.conn()
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, value, ttl).Err()
}

// Get returns Nil when key is absent.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	rdb, err := c.conn()
	if err != nil {
		return "", err
	}
	return rdb.Get(ctx, key).Result()
}

func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	rdb, err := c.conn()
	if err != nil {
		return false, err
	}
	return rdb.SetNX(ctx, key, value, ttl).Result()
}

func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	rdb, err := c.conn()
	if err != nil {
		return false, err
	}
	n, err := rdb.Exists(ctx, key).Result()
	return n > 0, err
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	rdb, err := c.conn()
	if err != nil {
		return err
	}
	return rdb.Del(ctx, keys...).Err()
}

// AddToSet adds members to the set at key and pushes its expiry out to ttl.
func (c *Client) AddToSet(ctx context.Context, key string, ttl time.Duration, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	rdb, err := c.conn()
	if err != nil {
		return err
	}
	args := make([]any, len(members))
	for i, m := range members {
		args[i] = m
	}
	_, err = rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, key, args...)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	return err
}

func (c *Client) SetMembers(ctx context.Context, key string) ([]string, error) {
	rdb, err := c.conn()
	if err != nil {
		return nil, err
	}
	return rdb.SMembers(ctx, key).Result()
}

// FixedWindowAllow counts a hit against scope and reports whether the count
// is still within limit for the current window.
func (c *Client) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	rdb, err := c.conn()
	if err != nil {
		return false, 0, err
	}
	if window <= 0 {
		return false, 0, fmt.Errorf("rate window must be positive, got %s", window)
	}
	count, err := fixedWindow.Run(ctx, rdb, []string{c.RateLimitKey(scope)}, window.Milliseconds()).Int64()
	if err != nil {
		return false, 0, fmt.Errorf("rate window %s: %w", scope, err)
	}
	return count <= limit, count, nil
}

func (c *Client) Publish(ctx context.Context, channel string, payload []byte) error {
	rdb, err := c.conn()
	if err != nil {
		return err
	}
	return rdb.Publish(ctx, channel, payload).Err()
}

// Subscribe returns once the server has confirmed the subscription, so no
// message published afterwards is missed.
func (c *Client) Subscribe(ctx context.Context, channels ...string) (*redis.PubSub, error) {
	rdb, err := c.conn()
	if err != nil {
		return nil, err
	}
	sub := rdb.Subscribe(ctx, channels...)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %v: %w", channels, err)
	}
	return sub, nil
}
