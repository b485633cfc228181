package roles

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
)

// Assignment is one row of the dedicated role assignment table, the
// authoritative record of a user's role within a club.
type Assignment struct {
	bun.BaseModel `bun:"table:club_role_assignments,alias:cra"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    int64     `bun:"user_id,notnull"`
	ClubID    int64     `bun:"club_id,notnull"`
	Role      Role      `bun:"role,notnull"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// AssignmentStore reads and writes the assignment table. Find returns
// (nil, nil) when the user has no assignment in the club.
type AssignmentStore interface {
	Find(ctx context.Context, userID, clubID int64) (*Assignment, error)
	UpdateRole(ctx context.Context, userID, clubID int64, role Role) (bool, error)
	List(ctx context.Context) ([]Assignment, error)
}

// LegacyAttributeStore is the external platform's per-user attribute storage,
// kept as a read fallback and dual-write target during migration. BaseRole
// returns "" when the user holds no role in the club.
type LegacyAttributeStore interface {
	BaseRole(ctx context.Context, userID, clubID int64) (Role, error)
	SetBaseRole(ctx context.Context, userID, clubID int64, role Role) error
	IsCoordinator(ctx context.Context, userID, clubID int64) (bool, error)
	SetCoordinator(ctx context.Context, userID, clubID int64, coordinator bool) error
}

// Resolver answers "what role does this user hold in this club". The
// assignment table wins; the legacy attribute store is consulted only for
// users that have never been written through SaveRole.
type Resolver struct {
	assignments AssignmentStore
	legacy      LegacyAttributeStore
	log         zerolog.Logger
}

func NewResolver(assignments AssignmentStore, legacy LegacyAttributeStore, log zerolog.Logger) *Resolver {
	return &Resolver{
		assignments: assignments,
		legacy:      legacy,
		log:         log.With().Str("component", "role_resolver").Logger(),
	}
}

// Resolve returns the user's effective role in the club, or "" when the user
// holds none. Assignment rows are authoritative; absent one, the legacy base
// role is read and a member with the coordinator marker is surfaced as the
// synthetic sports coordinator role.
func (r *Resolver) Resolve(ctx context.Context, userID, clubID int64) (Role, error) {
	a, err := r.assignments.Find(ctx, userID, clubID)
	if err != nil {
		return "", fmt.Errorf("find role assignment: %w", err)
	}
	if a != nil {
		return a.Role, nil
	}

	base, err := r.legacy.BaseRole(ctx, userID, clubID)
	if err != nil {
		return "", fmt.Errorf("read legacy role: %w", err)
	}
	if base != RoleTrainer {
		return base, nil
	}
	coordinator, err := r.legacy.IsCoordinator(ctx, userID, clubID)
	if err != nil {
		return "", fmt.Errorf("read coordinator marker: %w", err)
	}
	return Compose(base, coordinator), nil
}

// SaveRole persists a role change to both stores: the legacy attribute store
// receives the decomposed base role and coordinator marker, then the
// assignment table is updated. Synthetic roles never reach the legacy store
// undecomposed.
func (r *Resolver) SaveRole(ctx context.Context, userID, clubID int64, role Role) error {
	base, coordinator := role.Decompose()
	if !base.IsStandard() {
		return &UnknownRoleError{Raw: string(role)}
	}

	if err := r.legacy.SetBaseRole(ctx, userID, clubID, base); err != nil {
		return fmt.Errorf("write legacy role: %w", err)
	}
	if err := r.legacy.SetCoordinator(ctx, userID, clubID, coordinator); err != nil {
		return fmt.Errorf("write coordinator marker: %w", err)
	}

	updated, err := r.assignments.UpdateRole(ctx, userID, clubID, role)
	if err != nil {
		return fmt.Errorf("update role assignment: %w", err)
	}
	r.log.Debug().
		Int64("user_id", userID).
		Int64("club_id", clubID).
		Str("role", string(role)).
		Bool("assignment_updated", updated).
		Msg("role saved")
	return nil
}

// Reconcile repairs drift between the two stores after a partial dual-write
// failure: every assignment row is recomputed from the legacy attributes and
// updated when it disagrees. Returns the number of rows corrected.
func (r *Resolver) Reconcile(ctx context.Context) (int, error) {
	assignments, err := r.assignments.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list role assignments: %w", err)
	}

	corrected := 0
	for _, a := range assignments {
		base, err := r.legacy.BaseRole(ctx, a.UserID, a.ClubID)
		if err != nil {
			return corrected, fmt.Errorf("read legacy role for user %d: %w", a.UserID, err)
		}
		if base == "" {
			continue
		}
		effective := base
		if base == RoleTrainer {
			coordinator, err := r.legacy.IsCoordinator(ctx, a.UserID, a.ClubID)
			if err != nil {
				return corrected, fmt.Errorf("read coordinator marker for user %d: %w", a.UserID, err)
			}
			effective = Compose(base, coordinator)
		}
		if effective == a.Role {
			continue
		}
		if _, err := r.assignments.UpdateRole(ctx, a.UserID, a.ClubID, effective); err != nil {
			return corrected, fmt.Errorf("reconcile role for user %d: %w", a.UserID, err)
		}
		r.log.Info().
			Int64("user_id", a.UserID).
			Int64("club_id", a.ClubID).
			Str("from", string(a.Role)).
			Str("to", string(effective)).
			Msg("role assignment reconciled")
		corrected++
	}
	return corrected, nil
}
