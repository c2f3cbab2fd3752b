// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis connects Warden to the Redis list that backs the outbound mail
queue.

Traffic has two shapes. Request handlers LPUSH one message and return, and a
small number of dispatchers sit in BRPOP for up to the dequeue timeout. A
blocked BRPOP holds its connection for the full wait, so the pool keeps one
idle connection per consumer and sizes the rest for producers.

Usage:

	client, err := redis.NewClient(ctx, redis.PoolConfig{URL: cfg.RedisURL, Consumers: 1}, logger)
*/
package redis

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/warden/internal/platform/constants"
)

const (
	dialTimeout  = 3 * time.Second
	readTimeout  = 2 * time.Second
	writeTimeout = 2 * time.Second
	pingTimeout  = 2 * time.Second

	// poolTimeout bounds how long an LPUSH waits for a free connection.
	poolTimeout = 3 * time.Second

	defaultProducers = 4
	connMaxIdleTime  = 5 * time.Minute
)

// PoolConfig describes how the queue will be used.
type PoolConfig struct {
	// URL is a redis:// or rediss:// connection URL.
	URL string

	// Consumers is the number of goroutines blocking in BRPOP.
	Consumers int

	// Producers is the number of concurrent enqueues to provision for.
	// Zero selects a small default.
	Producers int
}

// Options parses the URL and applies the queue-shaped pool settings.
func Options(cfg PoolConfig) (*redis.Options, error) {
	options, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	consumers := max(cfg.Consumers, 0)
	producers := cfg.Producers
	if producers <= 0 {
		producers = defaultProducers
	}

	options.ClientName = constants.AppName + "-outbox"

	// Blocked consumers must never starve producers of a connection.
	options.PoolSize = consumers + producers
	options.MinIdleConns = consumers
	options.MaxIdleConns = consumers + 1
	options.PoolTimeout = poolTimeout
	options.ConnMaxIdleTime = connMaxIdleTime

	options.DialTimeout = dialTimeout
	options.ReadTimeout = readTimeout
	options.WriteTimeout = writeTimeout

	// Shutdown cancels the dispatcher context; let that interrupt a pending BRPOP.
	options.ContextTimeoutEnabled = true

	return options, nil
}

/*
NewClient builds a client for the mail queue and pings it once.

Parameters:
  - context: bounds the initial ping
  - cfg: PoolConfig
  - logger: *slog.Logger

Returns:
  - *redis.Client: connected client, owned by the caller
  - error: URL or connectivity failure
*/
func NewClient(context stdctx.Context, cfg PoolConfig, logger *slog.Logger) (*redis.Client, error) {
	options, err := Options(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(options)

	if err := Ping(context, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis_client_connected",
		slog.String("addr", options.Addr),
		slog.Int("db", options.DB),
		slog.Int("pool_size", options.PoolSize),
		slog.Int("consumers", options.MinIdleConns),
	)

	return client, nil
}

// Ping backs the readiness probe.
func Ping(context stdctx.Context, client *redis.Client) error {
	pingCtx, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}

	return nil
}
