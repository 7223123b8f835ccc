// Package redis wraps go-redis with the handful of operations the
// marketplace needs and the km: key namespace they share.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/kukumart/marketplace-backend/pkg/config"
	"github.com/kukumart/marketplace-backend/pkg/logger"
)

// Nil is returned by reads of missing keys.
var Nil = redis.Nil

var errNotInitialized = errors.New("redis client not initialized")

// Client is safe for concurrent use. The zero value fails every call.
type Client struct {
	rdb *redis.Client
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(context.Context) error
}

// New dials Redis from cfg and fails unless the server answers a PING.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{"addr": opts.Addr, "db": opts.DB})
		logg.Info(ctx, "redis connection established")
	}
	return &Client{rdb: rdb}, nil
}

// NewFromRedis wraps an existing go-redis client, typically one pointed at
// miniredis in tests.
func NewFromRedis(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// optionsFromConfig prefers KUKUMART_REDIS_URL and lets the discrete
// settings fill whatever the URL leaves unset.
func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	opts := &redis.Options{Addr: cfg.Address, Password: cfg.Password, DB: cfg.DB}
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
		if opts.DB == 0 {
			opts.DB = cfg.DB
		}
	}
	if opts.Addr == "" {
		return nil, errors.New("redis url or address is required")
	}

	opts.PoolSize = firstPositive(opts.PoolSize, cfg.PoolSize)
	opts.MinIdleConns = firstPositive(opts.MinIdleConns, cfg.MinIdleConns)
	opts.DialTimeout = firstPositive(opts.DialTimeout, cfg.DialTimeout)
	opts.ReadTimeout = firstPositive(opts.ReadTimeout, cfg.ReadTimeout)
	opts.WriteTimeout = firstPositive(opts.WriteTimeout, cfg.WriteTimeout)
	return opts, nil
}

func firstPositive[T ~int | ~int64](values ...T) T {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	var zero T
	return zero
}

func (c *Client) conn() (*redis.Client, error) {
	if c == nil || c.rdb == nil {
		return nil, errNotInitialized
	}
	return c.rdb, nil
}

// Ping verifies the connection.
func (c *Client) Ping(ctx context.Context) error {
	rdb, err := c.conn()
	if err != nil {
		return err
	}
	return rdb.Ping(ctx).Err()
}

// Close releases the connection pool. Closing a zero Client is a no-op.
func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
