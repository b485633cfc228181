package roster

import (
	"context"

	"github.com/goliatone/go-roster-cache/roles"
)

// Store is the system of record for teams, players, ratings, advice, and
// trainer assignments. Implementations return ErrNotFound for missing rows
// and ErrDuplicateRating for a second rating on the same (player, team, day).
type Store interface {
	CreateTeam(ctx context.Context, team *Team) error
	RenameTeam(ctx context.Context, teamID int64, name string) (*Team, error)
	TeamByID(ctx context.Context, teamID int64) (*Team, error)
	TeamsOwnedBy(ctx context.Context, userID int64, season Season) ([]Team, error)
	TeamsManagedBy(ctx context.Context, userID int64, season Season) ([]Team, error)

	SavePlayer(ctx context.Context, player *Player) error
	PlayerByID(ctx context.Context, playerID int64) (*Player, error)
	PlayersForTeam(ctx context.Context, teamID int64, season Season) ([]Player, error)
	AllPlayers(ctx context.Context, ownerID int64, season Season) ([]Player, error)

	AddMembership(ctx context.Context, m *TeamMembership) error
	RemoveMembership(ctx context.Context, teamID, playerID int64, season Season) error
	TeamsForPlayer(ctx context.Context, playerID int64, season Season) ([]Team, error)

	CreateRating(ctx context.Context, rating *Rating) error
	RatingsFor(ctx context.Context, playerID, teamID int64, season Season) ([]Rating, error)
	SkillAverages(ctx context.Context, playerID, teamID int64, season Season) ([]SkillAverage, error)
	RatingHistory(ctx context.Context, playerID int64) ([]Rating, error)

	SaveAdvice(ctx context.Context, advice *CoachAdvice) error
	LatestAdvice(ctx context.Context, playerID, teamID int64, season Season) (*CoachAdvice, error)

	AssignTrainer(ctx context.Context, a *TrainerAssignment) error
	RemoveTrainer(ctx context.Context, teamID, userID int64) error
	UpdateTrainerRole(ctx context.Context, teamID, userID int64, role roles.Role) error
	TrainersForTeam(ctx context.Context, teamID int64) ([]TrainerAssignment, error)
	TeamsTrainedBy(ctx context.Context, userID int64) ([]Team, error)

	// RunInTx runs fn against a Store bound to one transaction. Returning an
	// error rolls everything back.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
