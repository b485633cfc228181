package cacheinfra

import (
	"context"
	"time"

	"github.com/viccon/sturdyc"
)

// Class selects which expiry bucket an entry is written into. The buckets
// mirror how the roster data ages: club detail listings churn within minutes
// (Short), most listings and chart data survive a session (Medium), and
// near-static reference data holds for half a day (Long).
type Class int

const (
	ClassShort Class = iota
	ClassMedium
	ClassLong

	numClasses = 3
)

// Duration returns the time-to-live for entries stored under the class.
func (c Class) Duration() time.Duration {
	switch c {
	case ClassShort:
		return 5 * time.Minute
	case ClassMedium:
		return time.Hour
	case ClassLong:
		return 12 * time.Hour
	default:
		return time.Hour
	}
}

// String implements fmt.Stringer for log output.
func (c Class) String() string {
	switch c {
	case ClassShort:
		return "short"
	case ClassMedium:
		return "medium"
	case ClassLong:
		return "long"
	default:
		return "unknown"
	}
}

// Config holds the configuration for the sturdyc cache adapter. Every TTL
// class gets its own client because sturdyc fixes the TTL per client.
type Config struct {
	// Capacity defines the maximum number of entries per TTL class.
	// Must be greater than 0.
	Capacity int

	// NumShards determines the number of cache shards for concurrent access.
	// Higher values improve concurrency but increase memory overhead.
	// Must be greater than 0. Default: 256
	NumShards int

	// EvictionPercentage specifies what percentage of entries to evict
	// when a class reaches its capacity. Must be between 1-100.
	// Default: 10 (evict 10% of entries)
	EvictionPercentage int

	// EvictionInterval sets how often the cache checks for expired entries.
	// Zero value uses the sturdyc default interval.
	EvictionInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults for most use cases.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          256,
		EvictionPercentage: 10,
		EvictionInterval:   0,
	}
}

// ToSturdycOptions converts the Config to a sturdyc.Option slice. Capacity,
// NumShards, TTL and EvictionPercentage are passed directly to sturdyc.New()
// and are not included in the options.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option

	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}

	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}

	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}

	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// SturdycService backs the public cache service with one sturdyc client per
// TTL class. Keys are unique across classes (the key space encodes the
// entity), so lookups that do not know the class probe every client.
type SturdycService struct {
	clients [numClasses]*sturdyc.Client[any]
}

// NewSturdycService validates the configuration and initializes one sturdyc
// client per TTL class.
func NewSturdycService(cfg Config) (*SturdycService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &SturdycService{}
	for class := ClassShort; class <= ClassLong; class++ {
		s.clients[class] = sturdyc.New[any](
			cfg.Capacity,
			cfg.NumShards,
			class.Duration(),
			cfg.EvictionPercentage,
			cfg.ToSturdycOptions()...,
		)
	}

	return s, nil
}

// Get probes every class for the key. Classes never share keys, so at most
// one client answers.
func (s *SturdycService) Get(ctx context.Context, key string) (any, bool) {
	for _, client := range s.clients {
		if value, ok := client.Get(key); ok {
			return value, true
		}
	}
	return nil, false
}

// Set overwrites the entry unconditionally under the class's TTL.
func (s *SturdycService) Set(ctx context.Context, key string, class Class, value any) error {
	s.clients[s.classIndex(class)].Set(key, value)
	return nil
}

// GetOrFetch returns the cached value for key, or invokes fetchFn and stores
// the result. Only non-nil results are stored, so a failed or empty compute
// never shadows a later successful one. Concurrent callers for the same key
// may compute independently; the per-key store is atomic, so a reader never
// observes a partially written value.
func (s *SturdycService) GetOrFetch(ctx context.Context, key string, class Class, fetchFn func(ctx context.Context) (any, error)) (any, error) {
	if value, ok := s.Get(ctx, key); ok {
		return value, nil
	}

	value, err := fetchFn(ctx)
	if err != nil {
		return nil, err
	}

	if value != nil {
		s.clients[s.classIndex(class)].Set(key, value)
	}

	return value, nil
}

// Delete removes the key from every class. Deleting an absent key is a no-op.
func (s *SturdycService) Delete(ctx context.Context, key string) error {
	for _, client := range s.clients {
		client.Delete(key)
	}
	return nil
}

// Flush drops every entry in every class. Administrative escape valve only;
// normal writes invalidate their exact key set instead.
func (s *SturdycService) Flush(ctx context.Context) error {
	for _, client := range s.clients {
		for _, key := range client.ScanKeys() {
			client.Delete(key)
		}
	}
	return nil
}

func (s *SturdycService) classIndex(class Class) Class {
	if class < ClassShort || class > ClassLong {
		return ClassMedium
	}
	return class
}
