// Package cache memoizes company-scoped read views for a short time.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
)

// View names a kind of cached read.
type View string

const (
	ViewActive    View = "active"
	ViewCompleted View = "completed"
	ViewSearch    View = "search"
	ViewStats     View = "stats"
	ViewAnalytics View = "analytics"
)

// Key identifies a cached value. Variant separates entries of the same view
// that differ per caller or per page.
type Key struct {
	CompanyCode string
	View        View
	Variant     string
}

func (k Key) String() string {
	return k.CompanyCode + ":" + string(k.View) + ":" + k.Variant
}

// Cache is a key-value store with per-entry TTL and per-company invalidation.
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key Key) ([]byte, bool, error)
	// Generation returns the company's invalidation counter.
	Generation(ctx context.Context, companyCode string) (uint64, error)
	// Set stores value unless the company was invalidated after generation
	// was read, in which case the value is dropped.
	Set(ctx context.Context, key Key, value []byte, ttl time.Duration, generation uint64) error
	// Invalidate drops every entry of the company and bumps its generation.
	Invalidate(ctx context.Context, companyCode string) error
}

// Policy holds the TTL of each view kind.
type Policy struct {
	TaskList  time.Duration
	Analytics time.Duration
}

// TTL returns how long entries of view stay valid.
func (p Policy) TTL(view View) time.Duration {
	switch view {
	case ViewAnalytics, ViewStats:
		return p.Analytics
	default:
		return p.TaskList
	}
}

// Max returns the longest TTL in the policy.
func (p Policy) Max() time.Duration {
	if p.Analytics > p.TaskList {
		return p.Analytics
	}
	return p.TaskList
}

// GetOrCompute returns the cached value for key, or computes, stores and returns it.
// A value computed while the company was invalidated is returned but not stored.
// Cache failures are logged and never fail the read.
func GetOrCompute[T any](ctx context.Context, c Cache, key Key, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	if raw, ok, err := c.Get(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key.String()).Msg("cache get failed")
	} else if ok {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		log.Warn().Str("key", key.String()).Msg("discarding undecodable cache entry")
	}

	generation, genErr := c.Generation(ctx, key.CompanyCode)
	if genErr != nil {
		log.Warn().Err(genErr).Str("key", key.String()).Msg("cache generation read failed")
	}

	value, err := compute(ctx)
	if err != nil || genErr != nil {
		return value, err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Str("key", key.String()).Msg("cache encode failed")
		return value, nil
	}
	if err := c.Set(ctx, key, raw, ttl, generation); err != nil {
		log.Warn().Err(err).Str("key", key.String()).Msg("cache set failed")
	}

	return value, nil
}
