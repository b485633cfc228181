package rostercache

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-roster-cache/invalidation"
	"github.com/goliatone/go-roster-cache/roles"
	"github.com/goliatone/go-roster-cache/roster"
)

// AdviceRequester is notified after a rating save so advice generation can
// be (re)scheduled.
type AdviceRequester interface {
	OnRatingSaved(ctx context.Context, playerID, teamID int64, season roster.Season) error
}

// Manager runs every mutation with the write-then-invalidate contract: the
// write and its invalidation plan happen inside one transaction, and the
// planned keys are deleted only after the transaction commits. A mutation
// whose plan cannot be computed rolls back.
type Manager struct {
	store     roster.Store
	router    *invalidation.Router
	scheduler AdviceRequester
	log       zerolog.Logger
}

// NewManager builds a Manager. scheduler may be nil when advice generation
// is disabled.
func NewManager(store roster.Store, router *invalidation.Router, scheduler AdviceRequester, log zerolog.Logger) *Manager {
	return &Manager{
		store:     store,
		router:    router,
		scheduler: scheduler,
		log:       log.With().Str("component", "roster_manager").Logger(),
	}
}

// mutate is the shared write path: fn performs the write against the
// transaction and returns the mutation it committed; its invalidation plan
// is computed against the same transaction and executed after commit.
func (m *Manager) mutate(ctx context.Context, fn func(ctx context.Context, tx roster.Store) (invalidation.Mutation, error)) error {
	var plan *invalidation.Plan
	err := m.store.RunInTx(ctx, func(ctx context.Context, tx roster.Store) error {
		ev, err := fn(ctx, tx)
		if err != nil {
			return err
		}
		plan, err = m.router.Plan(ctx, tx, ev)
		return err
	})
	if err != nil {
		return err
	}
	return m.router.Execute(ctx, plan)
}

// CreateTeam inserts a new team.
func (m *Manager) CreateTeam(ctx context.Context, team *roster.Team) error {
	return m.mutate(ctx, func(ctx context.Context, tx roster.Store) (invalidation.Mutation, error) {
		if err := tx.CreateTeam(ctx, team); err != nil {
			return nil, err
		}
		return invalidation.TeamCreated{Team: *team}, nil
	})
}

// RenameTeam changes a team's name.
func (m *Manager) RenameTeam(ctx context.Context, teamID int64, name string) error {
	return m.mutate(ctx, func(ctx context.Context, tx roster.Store) (invalidation.Mutation, error) {
		team, err := tx.RenameTeam(ctx, teamID, name)
		if err != nil {
			return nil, err
		}
		return invalidation.TeamRenamed{Team: *team}, nil
	})
}

// SavePlayer creates or updates a player.
func (m *Manager) SavePlayer(ctx context.Context, player *roster.Player, season roster.Season) error {
	return m.mutate(ctx, func(ctx context.Context, tx roster.Store) (invalidation.Mutation, error) {
		if err := tx.SavePlayer(ctx, player); err != nil {
			return nil, err
		}
		return invalidation.PlayerSaved{Player: *player, Season: season}, nil
	})
}

// AddPlayerToTeam puts a player on a team's roster for a season.
func (m *Manager) AddPlayerToTeam(ctx context.Context, teamID, playerID int64, season roster.Season) error {
	return m.mutate(ctx, func(ctx context.Context, tx roster.Store) (invalidation.Mutation, error) {
		team, err := tx.TeamByID(ctx, teamID)
		if err != nil {
			return nil, err
		}
		player, err := tx.PlayerByID(ctx, playerID)
		if err != nil {
			return nil, err
		}
		membership := &roster.TeamMembership{TeamID: teamID, PlayerID: playerID, Season: season}
		if err := tx.AddMembership(ctx, membership); err != nil {
			return nil, err
		}
		return invalidation.MembershipAdded{
			TeamID:         teamID,
			PlayerID:       playerID,
			TeamOwnerID:    team.OwnerID,
			CatalogOwnerID: player.OwnerID,
			Season:         season,
		}, nil
	})
}

// RemovePlayerFromTeam takes a player off a team's roster for a season.
func (m *Manager) RemovePlayerFromTeam(ctx context.Context, teamID, playerID int64, season roster.Season) error {
	return m.mutate(ctx, func(ctx context.Context, tx roster.Store) (invalidation.Mutation, error) {
		team, err := tx.TeamByID(ctx, teamID)
		if err != nil {
			return nil, err
		}
		player, err := tx.PlayerByID(ctx, playerID)
		if err != nil {
			return nil, err
		}
		if err := tx.RemoveMembership(ctx, teamID, playerID, season); err != nil {
			return nil, err
		}
		return invalidation.MembershipRemoved{
			TeamID:         teamID,
			PlayerID:       playerID,
			TeamOwnerID:    team.OwnerID,
			CatalogOwnerID: player.OwnerID,
			Season:         season,
		}, nil
	})
}

// SaveRating inserts a rating, then hands the player to the advice
// scheduler. A second rating for the same player, team, and day is rejected
// with roster.ErrDuplicateRating. Advice scheduling failures are logged,
// never surfaced: the rating is already committed.
func (m *Manager) SaveRating(ctx context.Context, rating *roster.Rating) error {
	err := m.mutate(ctx, func(ctx context.Context, tx roster.Store) (invalidation.Mutation, error) {
		if err := tx.CreateRating(ctx, rating); err != nil {
			return nil, err
		}
		return invalidation.RatingSaved{
			PlayerID: rating.PlayerID,
			TeamID:   rating.TeamID,
			Season:   rating.Season,
		}, nil
	})
	if err != nil {
		return err
	}

	if m.scheduler != nil {
		if err := m.scheduler.OnRatingSaved(ctx, rating.PlayerID, rating.TeamID, rating.Season); err != nil {
			m.log.Warn().Err(err).
				Int64("player_id", rating.PlayerID).
				Int64("team_id", rating.TeamID).
				Msg("advice scheduling failed")
		}
	}
	return nil
}

// AssignTrainer adds a trainer to a team. The actor must outrank the role
// being granted.
func (m *Manager) AssignTrainer(ctx context.Context, actor roles.Role, teamID, userID int64, role roles.Role, season roster.Season) error {
	if !actor.CanAssign(role) {
		return fmt.Errorf("%w: %s cannot grant %s", roles.ErrPermissionDenied, actor.DisplayName(), role.DisplayName())
	}
	return m.mutate(ctx, func(ctx context.Context, tx roster.Store) (invalidation.Mutation, error) {
		a := &roster.TrainerAssignment{TeamID: teamID, UserID: userID, Season: season, Role: role}
		if err := tx.AssignTrainer(ctx, a); err != nil {
			return nil, err
		}
		return invalidation.TrainerAssigned{TeamID: teamID, UserID: userID, Season: season}, nil
	})
}

// RemoveTrainer takes a trainer off a team after the removal rules pass.
func (m *Manager) RemoveTrainer(ctx context.Context, actor roles.Role, actorID, teamID, userID int64, season roster.Season) error {
	target, err := m.trainerRole(ctx, teamID, userID)
	if err != nil {
		return err
	}
	if err := roles.CanRemoveTrainer(actor, target, actorID == userID); err != nil {
		return err
	}
	return m.mutate(ctx, func(ctx context.Context, tx roster.Store) (invalidation.Mutation, error) {
		if err := tx.RemoveTrainer(ctx, teamID, userID); err != nil {
			return nil, err
		}
		return invalidation.TrainerRemoved{TeamID: teamID, UserID: userID, Season: season}, nil
	})
}

// ChangeTrainerRole updates a trainer's role on a team after the change
// rules pass.
func (m *Manager) ChangeTrainerRole(ctx context.Context, actor roles.Role, actorID, teamID, userID int64, next roles.Role, season roster.Season) error {
	current, err := m.trainerRole(ctx, teamID, userID)
	if err != nil {
		return err
	}
	if err := roles.CanChangeTrainerRole(actor, current, next, actorID == userID); err != nil {
		return err
	}
	return m.mutate(ctx, func(ctx context.Context, tx roster.Store) (invalidation.Mutation, error) {
		if err := tx.UpdateTrainerRole(ctx, teamID, userID, next); err != nil {
			return nil, err
		}
		return invalidation.TrainerRoleChanged{TeamID: teamID, UserID: userID, Season: season, Role: next}, nil
	})
}

// NotifyClubChanged reacts to a club-data change in the external directory.
// There is no local write, only invalidation.
func (m *Manager) NotifyClubChanged(ctx context.Context, clubID int64) error {
	return m.router.OnMutation(ctx, m.store, invalidation.ClubChanged{ClubID: clubID})
}

func (m *Manager) trainerRole(ctx context.Context, teamID, userID int64) (roles.Role, error) {
	trainers, err := m.store.TrainersForTeam(ctx, teamID)
	if err != nil {
		return "", fmt.Errorf("list team trainers: %w", err)
	}
	for _, t := range trainers {
		if t.UserID == userID {
			return t.Role, nil
		}
	}
	return "", fmt.Errorf("trainer %d on team %d: %w", userID, teamID, roster.ErrNotFound)
}
