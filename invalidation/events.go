package invalidation

import (
	"github.com/goliatone/go-roster-cache/roles"
	"github.com/goliatone/go-roster-cache/roster"
)

// Mutation is one committed write against the system of record. The set of
// mutations is sealed: the router enumerates exactly the keys each one
// affects, and an unknown mutation is a routing bug rather than a silent
// cache leak.
type Mutation interface {
	// Name identifies the mutation in logs and errors.
	Name() string

	sealed()
}

// TeamCreated fires after a new team row is inserted.
type TeamCreated struct {
	Team roster.Team
}

// TeamRenamed fires after a team's name changes.
type TeamRenamed struct {
	Team roster.Team
}

// MembershipAdded fires after a player joins a team for a season.
// TeamOwnerID scopes the team listings; CatalogOwnerID scopes the player
// pool — the player may belong to a different user's catalog than the team.
type MembershipAdded struct {
	TeamID         int64
	PlayerID       int64
	TeamOwnerID    int64
	CatalogOwnerID int64
	Season         roster.Season
}

// MembershipRemoved fires after a player leaves a team for a season.
type MembershipRemoved struct {
	TeamID         int64
	PlayerID       int64
	TeamOwnerID    int64
	CatalogOwnerID int64
	Season         roster.Season
}

// RatingSaved fires after a new rating row is inserted.
type RatingSaved struct {
	PlayerID int64
	TeamID   int64
	Season   roster.Season
}

// AdviceGenerated fires after the advisory pipeline writes an advice row,
// including failed placeholders.
type AdviceGenerated struct {
	PlayerID int64
	TeamID   int64
	Season   roster.Season
}

// TrainerAssigned fires after a trainer is added to a team.
type TrainerAssigned struct {
	TeamID int64
	UserID int64
	Season roster.Season
}

// TrainerRemoved fires after a trainer is removed from a team.
type TrainerRemoved struct {
	TeamID int64
	UserID int64
	Season roster.Season
}

// TrainerRoleChanged fires after a trainer's role changes on a team.
type TrainerRoleChanged struct {
	TeamID int64
	UserID int64
	Season roster.Season
	Role   roles.Role
}

// ClubChanged signals that club data changed in the external directory:
// details, membership, or invitations.
type ClubChanged struct {
	ClubID int64
}

// PlayerSaved fires after a player row is created or updated.
type PlayerSaved struct {
	Player roster.Player
	Season roster.Season
}

func (TeamCreated) Name() string        { return "team_created" }
func (TeamRenamed) Name() string        { return "team_renamed" }
func (MembershipAdded) Name() string    { return "membership_added" }
func (MembershipRemoved) Name() string  { return "membership_removed" }
func (RatingSaved) Name() string        { return "rating_saved" }
func (AdviceGenerated) Name() string    { return "advice_generated" }
func (TrainerAssigned) Name() string    { return "trainer_assigned" }
func (TrainerRemoved) Name() string     { return "trainer_removed" }
func (TrainerRoleChanged) Name() string { return "trainer_role_changed" }
func (ClubChanged) Name() string        { return "club_changed" }
func (PlayerSaved) Name() string        { return "player_saved" }

func (TeamCreated) sealed()        {}
func (TeamRenamed) sealed()        {}
func (MembershipAdded) sealed()    {}
func (MembershipRemoved) sealed()  {}
func (RatingSaved) sealed()        {}
func (AdviceGenerated) sealed()    {}
func (TrainerAssigned) sealed()    {}
func (TrainerRemoved) sealed()     {}
func (TrainerRoleChanged) sealed() {}
func (ClubChanged) sealed()        {}
func (PlayerSaved) sealed()        {}
