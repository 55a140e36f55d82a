// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisNotifier publishes notifications as JSON on a pub/sub channel.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	owned   bool
}

// NewRedisNotifier publishes through an existing client. Close does not
// close the client.
func NewRedisNotifier(client *redis.Client, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

// NewRedisNotifierFromURL connects to the Redis server at url.
func NewRedisNotifierFromURL(ctx context.Context, url, channel string) (*RedisNotifier, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RedisNotifier{client: client, channel: channel, owned: true}, nil
}

// Notify publishes n.
func (r *RedisNotifier) Notify(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("publishing notification: %w", err)
	}
	return nil
}

// Channel returns the pub/sub channel name.
func (r *RedisNotifier) Channel() string {
	return r.channel
}

// Close closes the client if the notifier created it.
func (r *RedisNotifier) Close() error {
	if !r.owned {
		return nil
	}
	return r.client.Close()
}
