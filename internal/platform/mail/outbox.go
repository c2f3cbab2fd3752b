// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOutbox is a FIFO [Queue] backed by a Redis list.
//
// Producers LPUSH, the dispatcher BRPOPs, so messages survive an API restart
// as long as Redis does.
type RedisOutbox struct {
	client *redis.Client
	key    string
	wait   time.Duration
}

// NewRedisOutbox builds an outbox on key. wait bounds each blocking pop.
func NewRedisOutbox(client *redis.Client, key string, wait time.Duration) *RedisOutbox {
	return &RedisOutbox{client: client, key: key, wait: wait}
}

// Enqueue appends a message to the outbox.
func (outbox *RedisOutbox) Enqueue(context context.Context, message Message) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("mail_outbox_encode_failed: %w", err)
	}

	if err := outbox.client.LPush(context, outbox.key, payload).Err(); err != nil {
		return fmt.Errorf("mail_outbox_push_failed: %w", err)
	}

	return nil
}

// Dequeue pops the oldest message, waiting up to the configured duration.
func (outbox *RedisOutbox) Dequeue(context context.Context) (*Message, error) {
	result, err := outbox.client.BRPop(context, outbox.wait, outbox.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mail_outbox_pop_failed: %w", err)
	}

	// BRPOP returns [key, value]
	if len(result) != 2 {
		return nil, fmt.Errorf("mail_outbox_pop_failed: unexpected reply length %d", len(result))
	}

	var message Message
	if err := json.Unmarshal([]byte(result[1]), &message); err != nil {
		return nil, fmt.Errorf("mail_outbox_decode_failed: %w", err)
	}

	return &message, nil
}

// Len reports the number of queued messages.
func (outbox *RedisOutbox) Len(context context.Context) (int64, error) {
	return outbox.client.LLen(context, outbox.key).Result()
}
