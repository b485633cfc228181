package cache

import (
	"context"
	"fmt"

	"github.com/goliatone/go-roster-cache/internal/cacheinfra"
	"github.com/rs/zerolog"
)

// backend is the surface the fail-open wrapper needs from the cache
// infrastructure. *cacheinfra.SturdycService satisfies it.
type backend interface {
	Get(ctx context.Context, key string) (any, bool)
	Set(ctx context.Context, key string, class cacheinfra.Class, value any) error
	GetOrFetch(ctx context.Context, key string, class cacheinfra.Class, fetchFn func(ctx context.Context) (any, error)) (any, error)
	Delete(ctx context.Context, key string) error
	Flush(ctx context.Context) error
}

// failOpenService degrades cache backend failures to misses. Read paths fall
// through to the store of record and the request succeeds; only Delete and
// Flush surface backend errors, because a swallowed delete would leave a
// stale entry with nothing left to remove it.
type failOpenService struct {
	backend backend
	log     zerolog.Logger
}

func newFailOpenService(b backend, logger zerolog.Logger) *failOpenService {
	return &failOpenService{
		backend: b,
		log:     logger.With().Str("component", "cache").Logger(),
	}
}

var _ CacheService = (*failOpenService)(nil)

func (s *failOpenService) GetOrFetch(ctx context.Context, key string, class TTLClass, fetchFn func(ctx context.Context) (any, error)) (any, error) {
	var fetchErr error
	value, err := func() (v any, e error) {
		defer recoverToError(&e)
		return s.backend.GetOrFetch(ctx, key, class.toInternal(), func(ctx context.Context) (any, error) {
			v, err := fetchFn(ctx)
			fetchErr = err
			return v, err
		})
	}()
	if fetchErr != nil {
		// The store of record failed; that is the caller's error, not a
		// cache degradation.
		return nil, fetchErr
	}
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache backend unavailable, falling through to store of record")
		return fetchFn(ctx)
	}
	return value, nil
}

func (s *failOpenService) Get(ctx context.Context, key string) (any, bool) {
	var value any
	var ok bool
	err := func() (e error) {
		defer recoverToError(&e)
		value, ok = s.backend.Get(ctx, key)
		return nil
	}()
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache read degraded to miss")
		return nil, false
	}
	return value, ok
}

func (s *failOpenService) Set(ctx context.Context, key string, class TTLClass, value any) error {
	err := func() (e error) {
		defer recoverToError(&e)
		return s.backend.Set(ctx, key, class.toInternal(), value)
	}()
	if err != nil {
		// A lost write only costs a future miss.
		s.log.Warn().Err(err).Str("key", key).Msg("cache write dropped")
	}
	return nil
}

func (s *failOpenService) Delete(ctx context.Context, key string) error {
	err := func() (e error) {
		defer recoverToError(&e)
		return s.backend.Delete(ctx, key)
	}()
	if err != nil {
		return fmt.Errorf("cache delete %s: %w", key, err)
	}
	return nil
}

func (s *failOpenService) DeleteKeys(ctx context.Context, keys []string) error {
	for _, key := range keys {
		if err := s.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (s *failOpenService) Flush(ctx context.Context) error {
	err := func() (e error) {
		defer recoverToError(&e)
		return s.backend.Flush(ctx)
	}()
	if err != nil {
		return fmt.Errorf("cache flush: %w", err)
	}
	return nil
}

func recoverToError(e *error) {
	if r := recover(); r != nil {
		*e = fmt.Errorf("cache backend panic: %v", r)
	}
}
