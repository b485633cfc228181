// Package di wires the cache, invalidation, advisory, and query components
// into one container so applications assemble the stack in a single call.
package di

import (
	"errors"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-roster-cache/advisory"
	"github.com/goliatone/go-roster-cache/cache"
	"github.com/goliatone/go-roster-cache/catalog"
	"github.com/goliatone/go-roster-cache/invalidation"
	"github.com/goliatone/go-roster-cache/roles"
	"github.com/goliatone/go-roster-cache/roster"
	"github.com/goliatone/go-roster-cache/rostercache"
)

// Config tunes the container-owned components.
type Config struct {
	Cache    cache.Config
	Advisory advisory.Config
	Logger   zerolog.Logger
}

// DefaultConfig returns the configuration used when none is provided.
func DefaultConfig() Config {
	return Config{
		Cache:    cache.DefaultConfig(),
		Advisory: advisory.DefaultConfig(),
		Logger:   zerolog.Nop(),
	}
}

// Dependencies are the externally owned collaborators the container wires
// together. Store and Directory are required. Generator is optional: without
// it, rating saves do not schedule advice. AssignmentStore and LegacyStore
// are optional together: without them there is no role resolver.
type Dependencies struct {
	Store       roster.Store
	Directory   roster.ClubDirectory
	Generator   advisory.Generator
	Assignments roles.AssignmentStore
	Legacy      roles.LegacyAttributeStore
	Clock       clockwork.Clock
}

// Container holds singleton instances of every component.
type Container struct {
	config Config

	cacheService cache.CacheService
	keys         roster.KeySpace
	router       *invalidation.Router
	scheduler    *advisory.Scheduler
	resolver     *roles.Resolver
	queries      *rostercache.Queries
	manager      *rostercache.Manager
}

// NewContainer builds the full stack around the provided dependencies.
func NewContainer(deps Dependencies, config Config) (*Container, error) {
	if deps.Store == nil {
		return nil, errors.New("di: Store is required")
	}
	if deps.Directory == nil {
		return nil, errors.New("di: Directory is required")
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}

	cacheService, err := cache.NewCacheService(config.Cache, config.Logger)
	if err != nil {
		return nil, err
	}

	keys := roster.NewKeySpace()
	router := invalidation.NewRouter(cacheService, deps.Directory, keys, config.Logger)

	c := &Container{
		config:       config,
		cacheService: cacheService,
		keys:         keys,
		router:       router,
	}

	var requester rostercache.AdviceRequester
	if deps.Generator != nil {
		c.scheduler = advisory.NewScheduler(deps.Store, deps.Store, deps.Generator, router, deps.Clock, config.Advisory, config.Logger)
		requester = c.scheduler
	}

	if deps.Assignments != nil && deps.Legacy != nil {
		c.resolver = roles.NewResolver(deps.Assignments, deps.Legacy, config.Logger)
	}

	c.queries = rostercache.NewQueries(deps.Store, deps.Directory, cacheService, keys, router, config.Logger)
	c.manager = rostercache.NewManager(deps.Store, router, requester, config.Logger)
	return c, nil
}

// NewContainerWithDefaults builds the stack with default configuration.
func NewContainerWithDefaults(deps Dependencies) (*Container, error) {
	return NewContainer(deps, DefaultConfig())
}

// CacheService returns the shared cache service.
func (c *Container) CacheService() cache.CacheService { return c.cacheService }

// Keys returns the shared key space.
func (c *Container) Keys() roster.KeySpace { return c.keys }

// Router returns the invalidation router.
func (c *Container) Router() *invalidation.Router { return c.router }

// Queries returns the cached read surface.
func (c *Container) Queries() *rostercache.Queries { return c.queries }

// Manager returns the mutation surface.
func (c *Container) Manager() *rostercache.Manager { return c.manager }

// Scheduler returns the advice scheduler, or nil when no generator was
// provided.
func (c *Container) Scheduler() *advisory.Scheduler { return c.scheduler }

// Resolver returns the role resolver, or nil when the role stores were not
// provided.
func (c *Container) Resolver() *roles.Resolver { return c.resolver }

// Config returns a copy of the configuration used by this container.
func (c *Container) Config() Config { return c.config }

// Close stops background work. Call it on shutdown.
func (c *Container) Close() {
	if c.scheduler != nil {
		c.scheduler.Close()
	}
}

// NewCachedPlayerCatalog wires a cached player catalog over the provided
// repository, sharing the container's cache and invalidation router.
//
// A package-level function because the repository surface is generic while
// methods cannot be.
func NewCachedPlayerCatalog(c *Container, base catalog.PlayerRepository, store roster.Store) *catalog.CachedPlayers {
	return catalog.NewCachedPlayers(base, c.cacheService, c.keys, c.router, store, c.config.Logger)
}
