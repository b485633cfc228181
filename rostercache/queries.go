package rostercache

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-roster-cache/cache"
	"github.com/goliatone/go-roster-cache/roster"
)

// availabilityTracker records cached available-trainer keys so mutations can
// find them later.
type availabilityTracker interface {
	TrackAvailabilityKey(clubIDs []int64, key string)
}

// Queries is the cached read surface. Every method is a read-through: on a
// miss the store of record (or the club directory) is consulted and the
// result cached under a deterministic key.
//
// TTL classes are a backstop, not the consistency mechanism; mutations
// delete the exact keys they affect. Club details and availability listings
// run on the short class because they change in the external directory,
// outside this module's mutation paths.
type Queries struct {
	store     roster.Store
	directory roster.ClubDirectory
	cache     cache.CacheService
	keys      roster.KeySpace
	tracker   availabilityTracker
	log       zerolog.Logger
}

func NewQueries(store roster.Store, directory roster.ClubDirectory, cacheSvc cache.CacheService, keys roster.KeySpace, tracker availabilityTracker, log zerolog.Logger) *Queries {
	return &Queries{
		store:     store,
		directory: directory,
		cache:     cacheSvc,
		keys:      keys,
		tracker:   tracker,
		log:       log.With().Str("component", "roster_queries").Logger(),
	}
}

// TeamsOwned lists the teams a user owns in a season.
func (q *Queries) TeamsOwned(ctx context.Context, userID int64, season roster.Season) ([]roster.Team, error) {
	key := q.keys.TeamsKey(userID, season, roster.TeamsOwned)
	return cache.GetOrFetch(ctx, q.cache, key, cache.TTLMedium, func(ctx context.Context) ([]roster.Team, error) {
		return q.store.TeamsOwnedBy(ctx, userID, season)
	})
}

// TeamsManaged lists the teams a user trains but does not own, in a season.
func (q *Queries) TeamsManaged(ctx context.Context, userID int64, season roster.Season) ([]roster.Team, error) {
	key := q.keys.TeamsKey(userID, season, roster.TeamsManaged)
	return cache.GetOrFetch(ctx, q.cache, key, cache.TTLMedium, func(ctx context.Context) ([]roster.Team, error) {
		return q.store.TeamsManagedBy(ctx, userID, season)
	})
}

// ManagedTeams lists every team a user can act on in a season, owned and
// managed together.
func (q *Queries) ManagedTeams(ctx context.Context, userID int64, season roster.Season) ([]roster.Team, error) {
	key := q.keys.ManagedTeamsKey(userID, season)
	return cache.GetOrFetch(ctx, q.cache, key, cache.TTLMedium, func(ctx context.Context) ([]roster.Team, error) {
		owned, err := q.store.TeamsOwnedBy(ctx, userID, season)
		if err != nil {
			return nil, err
		}
		managed, err := q.store.TeamsManagedBy(ctx, userID, season)
		if err != nil {
			return nil, err
		}
		return append(owned, managed...), nil
	})
}

// Players lists the roster of one team for a season.
func (q *Queries) Players(ctx context.Context, teamID int64, season roster.Season) ([]roster.Player, error) {
	key := q.keys.PlayersKey(teamID, season, false)
	return cache.GetOrFetch(ctx, q.cache, key, cache.TTLMedium, func(ctx context.Context) ([]roster.Player, error) {
		return q.store.PlayersForTeam(ctx, teamID, season)
	})
}

// AllPlayers lists a user's entire player pool.
func (q *Queries) AllPlayers(ctx context.Context, ownerID int64, season roster.Season) ([]roster.Player, error) {
	key := q.keys.PlayersKey(ownerID, season, true)
	return cache.GetOrFetch(ctx, q.cache, key, cache.TTLMedium, func(ctx context.Context) ([]roster.Player, error) {
		return q.store.AllPlayers(ctx, ownerID, season)
	})
}

// Ratings lists a player's ratings within a team, newest first.
func (q *Queries) Ratings(ctx context.Context, playerID, teamID int64, season roster.Season) ([]roster.Rating, error) {
	key := q.keys.RatingsKey(playerID, teamID, season)
	return cache.GetOrFetch(ctx, q.cache, key, cache.TTLMedium, func(ctx context.Context) ([]roster.Rating, error) {
		return q.store.RatingsFor(ctx, playerID, teamID, season)
	})
}

// Spider returns the per-skill averages behind the spider chart.
func (q *Queries) Spider(ctx context.Context, playerID, teamID int64, season roster.Season) ([]roster.SkillAverage, error) {
	key := q.keys.SpiderKey(playerID, teamID, season)
	return cache.GetOrFetch(ctx, q.cache, key, cache.TTLMedium, func(ctx context.Context) ([]roster.SkillAverage, error) {
		return q.store.SkillAverages(ctx, playerID, teamID, season)
	})
}

// History returns a player's rating timeline across teams and seasons,
// oldest first. It runs on the short class: rating saves deliberately do not
// delete it, so the TTL bounds how long the timeline lags.
func (q *Queries) History(ctx context.Context, playerID int64) ([]roster.Rating, error) {
	key := q.keys.HistoryKey(playerID)
	return cache.GetOrFetch(ctx, q.cache, key, cache.TTLShort, func(ctx context.Context) ([]roster.Rating, error) {
		return q.store.RatingHistory(ctx, playerID)
	})
}

// PlayerCard assembles the detail view of a player in a team: the player
// row plus season aggregates. Composed out of cached pieces, so each part
// invalidates independently.
func (q *Queries) PlayerCard(ctx context.Context, playerID, teamID int64, season roster.Season) (*roster.PlayerCard, error) {
	player, err := q.store.PlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}
	averages, err := q.Spider(ctx, playerID, teamID, season)
	if err != nil {
		return nil, err
	}
	ratings, err := q.Ratings(ctx, playerID, teamID, season)
	if err != nil {
		return nil, err
	}

	card := &roster.PlayerCard{
		Player:        *player,
		Season:        season,
		SkillAverages: averages,
		RatingCount:   len(ratings),
	}
	advice, err := q.store.LatestAdvice(ctx, playerID, teamID, season)
	switch {
	case err == nil:
		card.Advice = advice
	case errors.Is(err, roster.ErrNotFound):
	default:
		return nil, err
	}
	return card, nil
}

// Clubs lists the clubs a user belongs to.
func (q *Queries) Clubs(ctx context.Context, userID int64) ([]roster.ClubSummary, error) {
	key := q.keys.ClubsKey(userID)
	return cache.GetOrFetch(ctx, q.cache, key, cache.TTLMedium, func(ctx context.Context) ([]roster.ClubSummary, error) {
		return q.directory.ClubsForUser(ctx, userID)
	})
}

// ClubDetails returns one club's cached details.
func (q *Queries) ClubDetails(ctx context.Context, clubID int64) (*roster.ClubSummary, error) {
	key := q.keys.ClubKey(clubID)
	return cache.GetOrFetch(ctx, q.cache, key, cache.TTLShort, func(ctx context.Context) (*roster.ClubSummary, error) {
		return q.directory.Club(ctx, clubID)
	})
}

// TeamTrainers lists the trainers assigned to a team for a season.
func (q *Queries) TeamTrainers(ctx context.Context, teamID int64, season roster.Season) ([]roster.TrainerAssignment, error) {
	key := q.keys.TeamTrainersKey(teamID, season)
	return cache.GetOrFetch(ctx, q.cache, key, cache.TTLMedium, func(ctx context.Context) ([]roster.TrainerAssignment, error) {
		assignments, err := q.store.TrainersForTeam(ctx, teamID)
		if err != nil {
			return nil, err
		}
		scoped := make([]roster.TrainerAssignment, 0, len(assignments))
		for _, a := range assignments {
			if a.Season == season {
				scoped = append(scoped, a)
			}
		}
		return scoped, nil
	})
}

// AvailableTrainers lists who can still be assigned to a team out of the
// given clubs: club members not already on the team, plus open invitations.
// The cached value is the club-derived candidate pool, shared by every team
// drawing on the same clubs; the per-team exclusion is applied on top, so it
// tracks the (separately invalidated) trainer list. The pool key is
// registered with the invalidation index so trainer and club mutations can
// find and drop it.
func (q *Queries) AvailableTrainers(ctx context.Context, teamID int64, season roster.Season, clubIDs []int64) ([]roster.AvailableTrainer, error) {
	key := q.keys.AvailableTrainersKey(clubIDs)
	q.tracker.TrackAvailabilityKey(clubIDs, key)
	pool, err := cache.GetOrFetch(ctx, q.cache, key, cache.TTLShort, func(ctx context.Context) ([]roster.AvailableTrainer, error) {
		return q.buildCandidatePool(ctx, clubIDs)
	})
	if err != nil {
		return nil, err
	}

	assigned, err := q.TeamTrainers(ctx, teamID, season)
	if err != nil {
		return nil, fmt.Errorf("list assigned trainers: %w", err)
	}
	taken := make(map[int64]struct{}, len(assigned))
	for _, a := range assigned {
		taken[a.UserID] = struct{}{}
	}

	out := make([]roster.AvailableTrainer, 0, len(pool))
	for _, candidate := range pool {
		if candidate.Status == roster.TrainerStatusMember {
			if _, ok := taken[candidate.UserID]; ok {
				continue
			}
		}
		out = append(out, candidate)
	}
	return out, nil
}

func (q *Queries) buildCandidatePool(ctx context.Context, clubIDs []int64) ([]roster.AvailableTrainer, error) {
	var out []roster.AvailableTrainer
	seen := make(map[int64]struct{})
	for _, clubID := range clubIDs {
		members, err := q.directory.Members(ctx, clubID)
		if err != nil {
			return nil, fmt.Errorf("list members of club %d: %w", clubID, err)
		}
		for _, member := range members {
			if _, ok := seen[member.UserID]; ok {
				continue
			}
			seen[member.UserID] = struct{}{}
			out = append(out, roster.AvailableTrainer{
				Status:      roster.TrainerStatusMember,
				UserID:      member.UserID,
				DisplayName: member.DisplayName,
				Role:        member.Role,
			})
		}

		invitations, err := q.directory.OpenInvitations(ctx, clubID)
		if err != nil {
			return nil, fmt.Errorf("list invitations of club %d: %w", clubID, err)
		}
		for _, inv := range invitations {
			out = append(out, roster.AvailableTrainer{
				Status:       roster.TrainerStatusInvited,
				DisplayName:  inv.Email,
				InvitationID: inv.ID,
				Email:        inv.Email,
			})
		}
	}
	return out, nil
}
