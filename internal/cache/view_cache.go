package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/eaglebank/user-crud/internal/logger"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// ViewCache is a generic JSON-backed Redis cache for read projections.
// Redis calls go through a circuit breaker: while it is open every Get is a
// miss and writes are skipped, so a sick Redis never fails a request.
//
// A nil *ViewCache is valid and caches nothing.
type ViewCache[T any] struct {
	client goredis.Cmdable
	ttl    time.Duration
	cb     *gobreaker.CircuitBreaker
}

// NewViewCache creates a ViewCache backed by client. A ttl of 0 keeps keys
// until they are deleted.
func NewViewCache[T any](client goredis.Cmdable, name string, ttl time.Duration) *ViewCache[T] {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Log.WithFields(logrus.Fields{"breaker": name}).
				Warnf("circuit breaker state changed from %s to %s", from, to)
		},
	}
	return &ViewCache[T]{client: client, ttl: ttl, cb: gobreaker.NewCircuitBreaker(st)}
}

// Get retrieves and unmarshals a value. Returns (nil, false) on any miss,
// open breaker or deserialisation error.
func (c *ViewCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	if c == nil {
		return nil, false
	}
	res, err := c.cb.Execute(func() (interface{}, error) {
		data, err := c.client.Get(ctx, key).Bytes()
		if errors.Is(err, goredis.Nil) {
			// A miss is not a Redis failure.
			return nil, nil
		}
		return data, err
	})
	if err != nil || res == nil {
		return nil, false
	}
	var v T
	if err := json.Unmarshal(res.([]byte), &v); err != nil {
		return nil, false
	}
	return &v, true
}

// Set marshals value and stores it under key.
// Errors are logged rather than returned; a failed cache write is non-fatal.
func (c *ViewCache[T]) Set(ctx context.Context, key string, value *T) {
	if c == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		logger.Log.WithField("key", key).Errorf("view cache: marshal error: %v", err)
		return
	}
	_, err = c.cb.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, key, data, c.ttl).Err()
	})
	if err != nil {
		logger.Log.WithField("key", key).Warnf("view cache: write error: %v", err)
	}
}

// Delete removes a key.
func (c *ViewCache[T]) Delete(ctx context.Context, key string) {
	if c == nil {
		return
	}
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.client.Del(ctx, key).Err()
	})
	if err != nil {
		logger.Log.WithField("key", key).Warnf("view cache: delete error: %v", err)
	}
}
