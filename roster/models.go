package roster

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-roster-cache/roles"
)

// Team is a roster a trainer owns or manages within a season.
type Team struct {
	bun.BaseModel `bun:"table:teams,alias:t"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Name      string    `bun:"name,notnull"`
	CoachName string    `bun:"coach_name,nullzero"`
	OwnerID   int64     `bun:"owner_id,notnull"`
	ClubID    int64     `bun:"club_id,nullzero"`
	Season    Season    `bun:"season,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (t *Team) Validate() error {
	if err := validation.ValidateStruct(t,
		validation.Field(&t.Name, validation.Required, validation.Length(1, 120)),
		validation.Field(&t.OwnerID, validation.Required),
	); err != nil {
		return &ValidationError{Field: "team", Reason: err.Error()}
	}
	if _, err := ParseSeason(string(t.Season)); err != nil {
		return err
	}
	return nil
}

// Player is one person on a trainer's roster. Players belong to an owner
// scope, not to a single team; teams reference them through memberships.
type Player struct {
	bun.BaseModel `bun:"table:players,alias:p"`

	ID        int64     `bun:"id,pk,autoincrement"`
	OwnerID   int64     `bun:"owner_id,notnull"`
	FirstName string    `bun:"first_name,notnull"`
	LastName  string    `bun:"last_name,notnull"`
	BirthDate time.Time `bun:"birth_date,nullzero"`
	Position  string    `bun:"position,nullzero"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (p *Player) Validate() error {
	if err := validation.ValidateStruct(p,
		validation.Field(&p.OwnerID, validation.Required),
		validation.Field(&p.FirstName, validation.Required, validation.Length(1, 80)),
		validation.Field(&p.LastName, validation.Required, validation.Length(1, 80)),
	); err != nil {
		return &ValidationError{Field: "player", Reason: err.Error()}
	}
	return nil
}

// TeamMembership links a player to a team for one season.
type TeamMembership struct {
	bun.BaseModel `bun:"table:team_members,alias:tm"`

	ID       int64     `bun:"id,pk,autoincrement"`
	TeamID   int64     `bun:"team_id,notnull"`
	PlayerID int64     `bun:"player_id,notnull"`
	Season   Season    `bun:"season,notnull"`
	Number   int       `bun:"number,nullzero"`
	Position string    `bun:"position,nullzero"`
	AddedAt  time.Time `bun:"added_at,nullzero,notnull,default:current_timestamp"`
}

// skillMax bounds every per-skill score.
const skillMax = 10

// Rating is one per-day skill assessment of a player within a team. At most
// one rating exists per (player, team, date).
type Rating struct {
	bun.BaseModel `bun:"table:ratings,alias:r"`

	ID         int64     `bun:"id,pk,autoincrement"`
	PlayerID   int64     `bun:"player_id,notnull"`
	TeamID     int64     `bun:"team_id,notnull"`
	Season     Season    `bun:"season,notnull"`
	RatingDate time.Time `bun:"rating_date,notnull"`

	Attacking int `bun:"attacking,notnull"`
	Defending int `bun:"defending,notnull"`
	Technique int `bun:"technique,notnull"`
	Speed     int `bun:"speed,notnull"`
	Stamina   int `bun:"stamina,notnull"`
	Strength  int `bun:"strength,notnull"`
	Insight   int `bun:"insight,notnull"`
	Passing   int `bun:"passing,notnull"`
	Mentality int `bun:"mentality,notnull"`
	Teamplay  int `bun:"teamplay,notnull"`

	Notes     string    `bun:"notes,nullzero"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Skills returns the rating's scores keyed by skill name.
func (r *Rating) Skills() map[string]int {
	return map[string]int{
		"attacking": r.Attacking,
		"defending": r.Defending,
		"technique": r.Technique,
		"speed":     r.Speed,
		"stamina":   r.Stamina,
		"strength":  r.Strength,
		"insight":   r.Insight,
		"passing":   r.Passing,
		"mentality": r.Mentality,
		"teamplay":  r.Teamplay,
	}
}

func (r *Rating) Validate() error {
	if r.PlayerID == 0 || r.TeamID == 0 {
		return &ValidationError{Field: "rating", Reason: "player and team are required"}
	}
	if r.RatingDate.IsZero() {
		return &ValidationError{Field: "rating_date", Reason: "cannot be blank"}
	}
	if _, err := ParseSeason(string(r.Season)); err != nil {
		return err
	}
	for name, score := range r.Skills() {
		if err := validation.Validate(score, validation.Min(0), validation.Max(skillMax)); err != nil {
			return &ValidationError{Field: name, Reason: err.Error()}
		}
	}
	return nil
}

// SkillAverage holds the mean score of one skill across a set of ratings.
type SkillAverage struct {
	Skill   string  `bun:"skill"`
	Average float64 `bun:"average"`
}

// CoachAdvice is a generated training recommendation for a player. Failed
// rows are placeholders written when generation did not complete; they keep
// the ratings hash so a retry for unchanged input can be skipped.
type CoachAdvice struct {
	bun.BaseModel `bun:"table:coach_advice,alias:ca"`

	ID          int64     `bun:"id,pk,autoincrement"`
	PlayerID    int64     `bun:"player_id,notnull"`
	TeamID      int64     `bun:"team_id,notnull"`
	Season      Season    `bun:"season,notnull"`
	RatingsHash string    `bun:"ratings_hash,notnull"`
	Advice      string    `bun:"advice,nullzero"`
	Failed      bool      `bun:"failed,notnull,default:false"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// TrainerAssignment links a trainer to a team together with a snapshot of
// the club role the trainer held when listed.
type TrainerAssignment struct {
	bun.BaseModel `bun:"table:team_trainers,alias:tt"`

	ID       int64      `bun:"id,pk,autoincrement"`
	TeamID   int64      `bun:"team_id,notnull"`
	UserID   int64      `bun:"user_id,notnull"`
	Season   Season     `bun:"season,notnull"`
	Role     roles.Role `bun:"role,notnull"`
	Function string     `bun:"function,nullzero"`
	Note     string     `bun:"note,nullzero"`
	AddedAt  time.Time  `bun:"added_at,nullzero,notnull,default:current_timestamp"`
}

// TrainerStatus distinguishes club members from people who only hold an open
// invitation.
type TrainerStatus string

const (
	TrainerStatusMember  TrainerStatus = "member"
	TrainerStatusInvited TrainerStatus = "invited"
)

// AvailableTrainer is one entry of the "who can still be assigned" listing
// for a team. Invited entries have no user yet; they carry the invitation id
// and email instead.
type AvailableTrainer struct {
	Status       TrainerStatus `json:"status"`
	UserID       int64         `json:"user_id,omitempty"`
	DisplayName  string        `json:"display_name"`
	Role         roles.Role    `json:"role,omitempty"`
	InvitationID int64         `json:"invitation_id,omitempty"`
	Email        string        `json:"email,omitempty"`
}

// PlayerCard is the read model behind a player detail view: the player plus
// season-scoped aggregates.
type PlayerCard struct {
	Player        Player         `json:"player"`
	Season        Season         `json:"season"`
	SkillAverages []SkillAverage `json:"skill_averages"`
	RatingCount   int            `json:"rating_count"`
	Advice        *CoachAdvice   `json:"advice,omitempty"`
}

// ClubSummary is the cached projection of a club's core details.
type ClubSummary struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	City    string `json:"city"`
	Website string `json:"website,omitempty"`
}

// ClubMember is one person inside a club, with their effective role.
type ClubMember struct {
	UserID      int64      `json:"user_id"`
	DisplayName string     `json:"display_name"`
	Email       string     `json:"email"`
	Role        roles.Role `json:"role"`
}

// ClubInvitation is an open invitation to join a club.
type ClubInvitation struct {
	ID        int64     `json:"id"`
	ClubID    int64     `json:"club_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// ClubDirectory is the external system of record for clubs and their people.
// The cache layer sits in front of it; mutations to club data happen outside
// this module and arrive as change notifications.
type ClubDirectory interface {
	Club(ctx context.Context, clubID int64) (*ClubSummary, error)
	ClubsForUser(ctx context.Context, userID int64) ([]ClubSummary, error)
	Members(ctx context.Context, clubID int64) ([]ClubMember, error)
	OpenInvitations(ctx context.Context, clubID int64) ([]ClubInvitation, error)
}
