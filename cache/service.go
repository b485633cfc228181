package cache

import (
	"context"
	"time"

	"github.com/goliatone/go-roster-cache/internal/cacheinfra"
)

// TTLClass buckets cache entries by how long they may serve reads before a
// fresh fetch is forced. Invalidation does not wait for expiry: any write
// that changes underlying rows deletes the affected keys immediately, TTL is
// only the backstop for entries no mutation knows about.
type TTLClass int

const (
	// TTLShort expires after 5 minutes. Used for club detail views that mix
	// member and invitation state owned by the external platform.
	TTLShort TTLClass = iota
	// TTLMedium expires after 1 hour. The default for listings, ratings and
	// chart data.
	TTLMedium
	// TTLLong expires after 12 hours. For near-static reference data.
	TTLLong
)

// Duration returns the time-to-live of the class.
func (c TTLClass) Duration() time.Duration { return c.toInternal().Duration() }

// String implements fmt.Stringer.
func (c TTLClass) String() string { return c.toInternal().String() }

func (c TTLClass) toInternal() cacheinfra.Class {
	switch c {
	case TTLShort:
		return cacheinfra.ClassShort
	case TTLMedium:
		return cacheinfra.ClassMedium
	case TTLLong:
		return cacheinfra.ClassLong
	default:
		return cacheinfra.ClassMedium
	}
}

// FetchFn is the function signature CacheService expects when fetching from
// the store of record.
type FetchFn[T any] func(ctx context.Context) (T, error)

// CacheService exposes the read-through caching operations the roster layer
// needs. Implementations must make Delete idempotent and must never return a
// partially written value; concurrent GetOrFetch callers for the same key may
// compute independently.
type CacheService interface {
	// GetOrFetch returns the cached value under key, or invokes fetchFn,
	// stores any non-nil result under the class's TTL, and returns it.
	GetOrFetch(ctx context.Context, key string, class TTLClass, fetchFn func(ctx context.Context) (any, error)) (any, error)
	// Get reports the cached value for key, if any.
	Get(ctx context.Context, key string) (any, bool)
	// Set overwrites the entry unconditionally.
	Set(ctx context.Context, key string, class TTLClass, value any) error
	// Delete removes a single entry. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// DeleteKeys removes every named entry.
	DeleteKeys(ctx context.Context, keys []string) error
	// Flush drops the entire cache. Administrative escape valve only.
	Flush(ctx context.Context) error
}

// GetOrFetch is a type-safe wrapper around CacheService.GetOrFetch. A nil
// result (possible when fetchFn returns a typed nil or no value) maps to the
// zero value of T rather than a panicking type assertion.
func GetOrFetch[T any](ctx context.Context, service CacheService, key string, class TTLClass, fetchFn FetchFn[T]) (T, error) {
	result, err := service.GetOrFetch(ctx, key, class, func(ctx context.Context) (any, error) {
		return fetchFn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	if result == nil {
		var zero T
		return zero, nil
	}
	typed, ok := result.(T)
	if !ok {
		var zero T
		return zero, nil
	}
	return typed, nil
}
