package invalidation

import (
	"context"
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-roster-cache/roster"
)

// Deleter is the slice of the cache surface the router needs.
type Deleter interface {
	DeleteKeys(ctx context.Context, keys []string) error
	Flush(ctx context.Context) error
}

// Lookups are the store reads planning needs to enumerate affected keys.
// Callers pass the store handle bound to the mutation's transaction, so the
// plan sees the rows as they were inside that transaction.
type Lookups interface {
	TeamByID(ctx context.Context, teamID int64) (*roster.Team, error)
	TeamsForPlayer(ctx context.Context, playerID int64, season roster.Season) ([]roster.Team, error)
	TrainersForTeam(ctx context.Context, teamID int64) ([]roster.TrainerAssignment, error)
}

// ConsistencyError means the affected key set for a mutation could not be
// computed. The mutation must not commit: a write whose invalidation plan is
// unknown would leave stale entries serving indefinitely.
type ConsistencyError struct {
	Mutation string
	Err      error
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("cannot plan invalidation for %s: %v", e.Mutation, e.Err)
}

func (e *ConsistencyError) Unwrap() error { return e.Err }

// Plan is the exhaustive key set one mutation invalidates.
type Plan struct {
	Mutation string
	Keys     []string
}

// Router translates committed mutations into cache deletions. Every mutation
// type has an exhaustive routing rule; availability listing keys, whose club
// sets are only known at read time, are tracked as they are cached and
// consumed here.
type Router struct {
	cache     Deleter
	directory roster.ClubDirectory
	keys      roster.KeySpace
	log       zerolog.Logger

	// availability maps club id to the set of available-trainer keys whose
	// club set includes that club. Process-local: entries cached by other
	// processes are invalidated by their own routers.
	availability *xsync.MapOf[int64, *xsync.MapOf[string, struct{}]]
}

func NewRouter(cache Deleter, directory roster.ClubDirectory, keys roster.KeySpace, log zerolog.Logger) *Router {
	return &Router{
		cache:        cache,
		directory:    directory,
		keys:         keys,
		log:          log.With().Str("component", "invalidation_router").Logger(),
		availability: xsync.NewMapOf[int64, *xsync.MapOf[string, struct{}]](),
	}
}

// TrackAvailabilityKey records that an available-trainer listing was cached
// under key for the given club set, so trainer and club mutations can find
// every listing that club feeds.
func (r *Router) TrackAvailabilityKey(clubIDs []int64, key string) {
	for _, clubID := range clubIDs {
		set, _ := r.availability.LoadOrCompute(clubID, func() *xsync.MapOf[string, struct{}] {
			return xsync.NewMapOf[string, struct{}]()
		})
		set.Store(key, struct{}{})
	}
}

// Plan computes the key set affected by m. Run it inside the mutation's
// transaction via the same lookups handle; a ConsistencyError aborts the
// mutation.
func (r *Router) Plan(ctx context.Context, lookups Lookups, m Mutation) (*Plan, error) {
	keys, err := r.affectedKeys(ctx, lookups, m)
	if err != nil {
		return nil, &ConsistencyError{Mutation: m.Name(), Err: err}
	}
	return &Plan{Mutation: m.Name(), Keys: dedupe(keys)}, nil
}

// Execute deletes the planned keys. Call it after the mutation commits.
func (r *Router) Execute(ctx context.Context, plan *Plan) error {
	if len(plan.Keys) == 0 {
		return nil
	}
	if err := r.cache.DeleteKeys(ctx, plan.Keys); err != nil {
		return fmt.Errorf("delete keys for %s: %w", plan.Mutation, err)
	}
	r.log.Debug().
		Str("mutation", plan.Mutation).
		Int("keys", len(plan.Keys)).
		Msg("cache invalidated")
	return nil
}

// OnMutation plans and executes in one step, for callers that do not split
// planning from commit.
func (r *Router) OnMutation(ctx context.Context, lookups Lookups, m Mutation) error {
	plan, err := r.Plan(ctx, lookups, m)
	if err != nil {
		return err
	}
	return r.Execute(ctx, plan)
}

// FlushAll drops the entire cache and the availability index. The escape
// hatch for operational surprises, not part of any mutation path.
func (r *Router) FlushAll(ctx context.Context) error {
	r.availability.Clear()
	if err := r.cache.Flush(ctx); err != nil {
		return fmt.Errorf("flush cache: %w", err)
	}
	r.log.Info().Msg("cache flushed")
	return nil
}

func (r *Router) affectedKeys(ctx context.Context, lookups Lookups, m Mutation) ([]string, error) {
	ks := r.keys
	switch ev := m.(type) {
	case TeamCreated:
		t := ev.Team
		// a new team can link the owner to a club, so the owner's club list
		// is suspect too
		return []string{
			ks.TeamsKey(t.OwnerID, t.Season, roster.TeamsOwned),
			ks.TeamsKey(t.OwnerID, t.Season, roster.TeamsManaged),
			ks.ManagedTeamsKey(t.OwnerID, t.Season),
			ks.ClubsKey(t.OwnerID),
		}, nil

	case TeamRenamed:
		t := ev.Team
		keys := []string{
			ks.TeamsKey(t.OwnerID, t.Season, roster.TeamsOwned),
			ks.TeamsKey(t.OwnerID, t.Season, roster.TeamsManaged),
			ks.ManagedTeamsKey(t.OwnerID, t.Season),
		}
		trainers, err := lookups.TrainersForTeam(ctx, t.ID)
		if err != nil {
			return nil, fmt.Errorf("enumerate trainers of team %d: %w", t.ID, err)
		}
		for _, tr := range trainers {
			keys = append(keys,
				ks.TeamsKey(tr.UserID, t.Season, roster.TeamsManaged),
				ks.ManagedTeamsKey(tr.UserID, t.Season),
			)
		}
		return keys, nil

	case MembershipAdded:
		return r.membershipKeys(ev.TeamID, ev.PlayerID, ev.TeamOwnerID, ev.CatalogOwnerID, ev.Season), nil

	case MembershipRemoved:
		return r.membershipKeys(ev.TeamID, ev.PlayerID, ev.TeamOwnerID, ev.CatalogOwnerID, ev.Season), nil

	case RatingSaved:
		// history listings are keyed per day and rebuilt cheaply; only the
		// rating list and the averages go stale immediately
		return []string{
			ks.RatingsKey(ev.PlayerID, ev.TeamID, ev.Season),
			ks.SpiderKey(ev.PlayerID, ev.TeamID, ev.Season),
		}, nil

	case AdviceGenerated:
		return []string{
			ks.SpiderKey(ev.PlayerID, ev.TeamID, ev.Season),
		}, nil

	case TrainerAssigned:
		return r.trainerKeys(ctx, lookups, ev.TeamID, ev.UserID, ev.Season)

	case TrainerRemoved:
		return r.trainerKeys(ctx, lookups, ev.TeamID, ev.UserID, ev.Season)

	case TrainerRoleChanged:
		return r.trainerKeys(ctx, lookups, ev.TeamID, ev.UserID, ev.Season)

	case ClubChanged:
		keys := []string{ks.ClubKey(ev.ClubID)}
		members, err := r.directory.Members(ctx, ev.ClubID)
		if err != nil {
			return nil, fmt.Errorf("enumerate members of club %d: %w", ev.ClubID, err)
		}
		for _, member := range members {
			keys = append(keys, ks.ClubsKey(member.UserID))
		}
		// membership and invitation changes feed every availability listing
		// this club contributes to
		return append(keys, r.takeAvailabilityKeys(ev.ClubID)...), nil

	case PlayerSaved:
		keys := []string{ks.PlayersKey(ev.Player.OwnerID, ev.Season, true)}
		teams, err := lookups.TeamsForPlayer(ctx, ev.Player.ID, ev.Season)
		if err != nil {
			return nil, fmt.Errorf("enumerate teams of player %d: %w", ev.Player.ID, err)
		}
		for _, t := range teams {
			keys = append(keys, ks.PlayersKey(t.ID, ev.Season, false))
		}
		return keys, nil
	}

	return nil, fmt.Errorf("no routing rule for mutation %q", m.Name())
}

// membershipKeys covers every view a roster change touches: the team roster,
// the catalog owner's player pool, the per-player aggregates, and the team
// owner's listings, which embed player counts.
func (r *Router) membershipKeys(teamID, playerID, teamOwnerID, catalogOwnerID int64, season roster.Season) []string {
	ks := r.keys
	return []string{
		ks.PlayersKey(teamID, season, false),
		ks.PlayersKey(catalogOwnerID, season, true),
		ks.RatingsKey(playerID, teamID, season),
		ks.SpiderKey(playerID, teamID, season),
		ks.HistoryKey(playerID),
		ks.TeamsKey(teamOwnerID, season, roster.TeamsOwned),
		ks.TeamsKey(teamOwnerID, season, roster.TeamsManaged),
		ks.ManagedTeamsKey(teamOwnerID, season),
	}
}

func (r *Router) trainerKeys(ctx context.Context, lookups Lookups, teamID, userID int64, season roster.Season) ([]string, error) {
	ks := r.keys
	keys := []string{
		ks.TeamTrainersKey(teamID, season),
		ks.TeamsKey(userID, season, roster.TeamsManaged),
		ks.ManagedTeamsKey(userID, season),
	}
	team, err := lookups.TeamByID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("resolve club of team %d: %w", teamID, err)
	}
	if team.ClubID != 0 {
		keys = append(keys, r.takeAvailabilityKeys(team.ClubID)...)
	}
	return keys, nil
}

func (r *Router) takeAvailabilityKeys(clubID int64) []string {
	set, ok := r.availability.LoadAndDelete(clubID)
	if !ok {
		return nil
	}
	var keys []string
	set.Range(func(key string, _ struct{}) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
