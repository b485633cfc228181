// Package cache provides the read-through caching service the roster layer
// sits on. Entries are bucketed into TTL classes (short/medium/long) and are
// proactively deleted by the invalidation router when a write changes the
// underlying rows; TTL expiry is only the backstop.
//
// The default implementation (NewCacheService) is an in-process sharded cache
// that fails open: if the backend misbehaves, reads degrade to misses and the
// caller's fetch function still runs against the store of record.
package cache
