// Package catalog exposes a cached player catalog on top of a generic
// repository. Reads go through the cache under the same keys the
// invalidation router manages; writes pass through and emit the player
// mutation so every roster listing containing the player refreshes.
package catalog

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-roster-cache/cache"
	"github.com/goliatone/go-roster-cache/invalidation"
	"github.com/goliatone/go-roster-cache/roster"
)

// PlayerRepository is the slice of the generic repository surface the
// catalog uses.
type PlayerRepository interface {
	List(ctx context.Context, criteria ...repository.SelectCriteria) ([]*roster.Player, int, error)
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*roster.Player, error)
	Create(ctx context.Context, record *roster.Player, criteria ...repository.InsertCriteria) (*roster.Player, error)
	Update(ctx context.Context, record *roster.Player, criteria ...repository.UpdateCriteria) (*roster.Player, error)
}

// The full generic repository satisfies the narrow surface.
var _ PlayerRepository = (repository.Repository[*roster.Player])(nil)

// Notifier routes a committed mutation to the invalidation layer.
type Notifier interface {
	OnMutation(ctx context.Context, lookups invalidation.Lookups, m invalidation.Mutation) error
}

type playerList struct {
	Players []*roster.Player `json:"players"`
	Total   int              `json:"total"`
}

// CachedPlayers is the cached catalog over one owner's player pool.
type CachedPlayers struct {
	base     PlayerRepository
	cache    cache.CacheService
	keys     roster.KeySpace
	notifier Notifier
	lookups  invalidation.Lookups
	log      zerolog.Logger
}

func NewCachedPlayers(base PlayerRepository, cacheSvc cache.CacheService, keys roster.KeySpace, notifier Notifier, lookups invalidation.Lookups, log zerolog.Logger) *CachedPlayers {
	return &CachedPlayers{
		base:     base,
		cache:    cacheSvc,
		keys:     keys,
		notifier: notifier,
		lookups:  lookups,
		log:      log.With().Str("component", "player_catalog").Logger(),
	}
}

// AllPlayers lists an owner's entire pool, read-through cached.
func (c *CachedPlayers) AllPlayers(ctx context.Context, ownerID int64, season roster.Season) ([]*roster.Player, int, error) {
	key := c.keys.PlayersKey(ownerID, season, true)
	res, err := cache.GetOrFetch(ctx, c.cache, key, cache.TTLMedium, func(ctx context.Context) (playerList, error) {
		players, total, err := c.base.List(ctx, byOwner(ownerID))
		if err != nil {
			return playerList{}, err
		}
		return playerList{Players: players, Total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return res.Players, res.Total, nil
}

// PlayerByID fetches a single player. Detail rows are cheap and uncached;
// the listings are where the read pressure is.
func (c *CachedPlayers) PlayerByID(ctx context.Context, id string) (*roster.Player, error) {
	return c.base.GetByID(ctx, id)
}

// SavePlayer creates or updates a player, then invalidates every listing
// that shows them.
func (c *CachedPlayers) SavePlayer(ctx context.Context, player *roster.Player, season roster.Season) (*roster.Player, error) {
	var (
		saved *roster.Player
		err   error
	)
	if player.ID == 0 {
		saved, err = c.base.Create(ctx, player)
	} else {
		saved, err = c.base.Update(ctx, player)
	}
	if err != nil {
		return nil, err
	}

	ev := invalidation.PlayerSaved{Player: *saved, Season: season}
	if err := c.notifier.OnMutation(ctx, c.lookups, ev); err != nil {
		return nil, err
	}
	return saved, nil
}

func byOwner(ownerID int64) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("p.owner_id = ?", ownerID)
	}
}
