// Package cache stores solved shots and plans so repeated requests for the
// same course skip the search.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrMiss = errors.New("cache: miss")

type Cache interface {
	// Get returns ErrMiss for absent or expired keys.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores val; a zero ttl never expires.
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Close() error
}

// Open returns a redis cache for a non-empty url and an in-memory one otherwise.
func Open(redisURL string) (Cache, error) {
	if redisURL == "" {
		return NewMemory(), nil
	}
	rdb, err := Connect(redisURL)
	if err != nil {
		return nil, fmt.Errorf("cache: redis: %w", err)
	}
	return NewRedis(rdb, DefaultPrefix), nil
}

// Key hashes parts into a fixed-length key under kind, e.g. "shot:3f2a...".
func Key(kind string, parts ...any) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%v\x00", p)
	}
	return kind + ":" + hex.EncodeToString(h.Sum(nil))[:32]
}

func GetJSON(ctx context.Context, c Cache, key string, v any) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}

func kindOf(key string) string {
	kind, _, _ := strings.Cut(key, ":")
	return kind
}
