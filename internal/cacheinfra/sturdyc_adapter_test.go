package cacheinfra

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestService(t *testing.T) *SturdycService {
	t.Helper()

	svc, err := NewSturdycService(Config{
		Capacity:           100,
		NumShards:          4,
		EvictionPercentage: 10,
	})
	if err != nil {
		t.Fatalf("NewSturdycService() error = %v", err)
	}
	return svc
}

func TestClassDuration(t *testing.T) {
	tests := []struct {
		class Class
		want  time.Duration
	}{
		{ClassShort, 5 * time.Minute},
		{ClassMedium, time.Hour},
		{ClassLong, 12 * time.Hour},
		{Class(99), time.Hour},
	}

	for _, tt := range tests {
		if got := tt.class.Duration(); got != tt.want {
			t.Errorf("Class(%d).Duration() = %v, want %v", tt.class, got, tt.want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"zero capacity", Config{Capacity: 0, NumShards: 4, EvictionPercentage: 10}, true},
		{"zero shards", Config{Capacity: 10, NumShards: 0, EvictionPercentage: 10}, true},
		{"eviction too high", Config{Capacity: 10, NumShards: 4, EvictionPercentage: 101}, true},
		{"eviction zero", Config{Capacity: 10, NumShards: 4, EvictionPercentage: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var cfgErr *ConfigError
				if !errors.As(err, &cfgErr) {
					t.Errorf("Validate() error type = %T, want *ConfigError", err)
				}
			}
		})
	}
}

func TestSetGetDeleteRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if err := svc.Set(ctx, "k1", ClassMedium, "v1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok := svc.Get(ctx, "k1")
	if !ok || got != "v1" {
		t.Errorf("Get() = %v, %v; want v1, true", got, ok)
	}

	if err := svc.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, ok := svc.Get(ctx, "k1"); ok {
		t.Error("Get() after Delete() reported a hit")
	}

	// deleting an absent key is not an error
	if err := svc.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete(absent) error = %v", err)
	}
}

func TestSetOverwritesAcrossCalls(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	svc.Set(ctx, "k", ClassShort, 1)
	svc.Set(ctx, "k", ClassShort, 2)

	got, _ := svc.Get(ctx, "k")
	if got != 2 {
		t.Errorf("Get() after overwrite = %v, want 2", got)
	}
}

func TestGetOrFetchComputesOnMissOnly(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	calls := 0
	fetch := func(ctx context.Context) (any, error) {
		calls++
		return "computed", nil
	}

	for i := 0; i < 3; i++ {
		got, err := svc.GetOrFetch(ctx, "k", ClassMedium, fetch)
		if err != nil {
			t.Fatalf("GetOrFetch() error = %v", err)
		}
		if got != "computed" {
			t.Errorf("GetOrFetch() = %v, want computed", got)
		}
	}

	if calls != 1 {
		t.Errorf("fetchFn called %d times, want 1", calls)
	}
}

func TestGetOrFetchDoesNotStoreNil(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	calls := 0
	fetch := func(ctx context.Context) (any, error) {
		calls++
		return nil, nil
	}

	svc.GetOrFetch(ctx, "k", ClassMedium, fetch)
	svc.GetOrFetch(ctx, "k", ClassMedium, fetch)

	if calls != 2 {
		t.Errorf("fetchFn called %d times, want 2 (nil results must not be cached)", calls)
	}
}

func TestGetOrFetchPropagatesFetchError(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	wantErr := errors.New("store of record down")
	_, err := svc.GetOrFetch(ctx, "k", ClassMedium, func(ctx context.Context) (any, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("GetOrFetch() error = %v, want %v", err, wantErr)
	}

	if _, ok := svc.Get(ctx, "k"); ok {
		t.Error("failed fetch left an entry behind")
	}
}

func TestFlushDropsEverything(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	svc.Set(ctx, "a", ClassShort, 1)
	svc.Set(ctx, "b", ClassMedium, 2)
	svc.Set(ctx, "c", ClassLong, 3)

	if err := svc.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	for _, key := range []string{"a", "b", "c"} {
		if _, ok := svc.Get(ctx, key); ok {
			t.Errorf("Get(%q) hit after Flush()", key)
		}
	}
}
