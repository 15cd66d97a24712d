// internal/feed/redis.go
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Rdb is the global Redis client. Connect it once at application startup.
var Rdb *redis.Client

// ConnectRedis initializes the global Redis client with environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
func ConnectRedis() error {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// RedisBus implements Bus over redis pub/sub, one channel per table.
type RedisBus struct {
	Logger *logrus.Logger
}

// NewRedisBus returns a Bus backed by the global Redis client.
func NewRedisBus(logger *logrus.Logger) *RedisBus {
	return &RedisBus{Logger: logger}
}

func channelFor(table string) string {
	return "feed:" + table
}

// Publish serializes the event to JSON and broadcasts it on the table's
// channel. Subscribers that are not listening at this moment miss the event;
// that is acceptable because every event only means "refetch".
func (b *RedisBus) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal feed event: %w", err)
	}
	if err := Rdb.Publish(ctx, channelFor(e.Table), data).Err(); err != nil {
		return fmt.Errorf("failed to publish to '%s': %w", channelFor(e.Table), err)
	}
	return nil
}

// Subscribe registers on the table's channel and delivers matching events to
// fn from a dedicated goroutine until Unsubscribe is called.
func (b *RedisBus) Subscribe(ctx context.Context, table string, filter Filter, mask Mask, fn func(Event)) (Subscription, error) {
	ps := Rdb.Subscribe(ctx, channelFor(table))

	// Force the SUBSCRIBE round trip so a failed redis connection surfaces
	// here instead of as a silently dead subscription.
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("failed to subscribe to '%s': %w", channelFor(table), err)
	}

	sub := &redisSubscription{ps: ps}
	go func() {
		for msg := range ps.Channel() {
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				if b.Logger != nil {
					b.Logger.Warnf("feed: dropping malformed event on %s: %v", msg.Channel, err)
				}
				continue
			}
			if !mask.Has(e.Kind) || !filter.Matches(e) {
				continue
			}
			fn(e)
		}
	}()
	return sub, nil
}

type redisSubscription struct {
	ps *redis.PubSub
}

// Unsubscribe closes the pub/sub connection; the delivery goroutine exits
// when the message channel drains.
func (s *redisSubscription) Unsubscribe() {
	_ = s.ps.Close()
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
