package roles

import (
	"fmt"
	"sort"
	"strings"
)

// Role is a user's effective role within a club. The set is closed: free-form
// strings never enter the system, so a typo cannot create a role nobody can
// assign or resolve.
//
// RoleTrainer carries the external platform's wire value "member"; the
// platform has no native representation for RoleSportsCoordinator, which is
// synthesized from a member role plus a coordinator marker in the legacy
// attribute store.
type Role string

const (
	RoleOwner             Role = "owner"
	RoleManager           Role = "manager"
	RoleTrainer           Role = "member"
	RoleSportsCoordinator Role = "sports_coordinator"
)

// ParseRole maps a raw role string onto the closed set.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleOwner:
		return RoleOwner, nil
	case RoleManager:
		return RoleManager, nil
	case RoleTrainer:
		return RoleTrainer, nil
	case RoleSportsCoordinator:
		return RoleSportsCoordinator, nil
	}
	return "", &UnknownRoleError{Raw: raw}
}

// UnknownRoleError reports a role string outside the closed set.
type UnknownRoleError struct {
	Raw string
}

func (e *UnknownRoleError) Error() string {
	return fmt.Sprintf("unknown role %q", e.Raw)
}

// DisplayName returns the UI naming for a role. The platform's "member" is
// presented as "Trainer". Unknown roles fall back to a capitalized form of
// the raw value so a foreign role is at least legible.
func (r Role) DisplayName() string {
	switch r {
	case RoleOwner:
		return "Owner"
	case RoleManager:
		return "Manager"
	case RoleTrainer:
		return "Trainer"
	case RoleSportsCoordinator:
		return "Sports Coordinator"
	}
	return capitalize(string(r))
}

// Level positions the role in the assignment hierarchy. Higher means more
// access. Unknown roles rank below everything.
func (r Role) Level() int {
	switch r {
	case RoleOwner:
		return 100
	case RoleManager:
		return 80
	case RoleSportsCoordinator:
		return 60
	case RoleTrainer:
		return 40
	}
	return 0
}

// CanAssign reports whether a holder of r may assign target to someone else.
// Only roles strictly below the holder's own level are assignable.
func (r Role) CanAssign(target Role) bool {
	return target.Level() < r.Level()
}

// IsStandard reports whether the role exists natively in the external
// platform. The synthetic sports coordinator does not.
func (r Role) IsStandard() bool {
	switch r {
	case RoleOwner, RoleManager, RoleTrainer:
		return true
	}
	return false
}

// Decompose splits a role into the base role stored in the legacy attribute
// store and the coordinator marker. The synthetic coordinator role is stored
// as member plus the marker; every other role maps to itself.
func (r Role) Decompose() (base Role, coordinator bool) {
	if r == RoleSportsCoordinator {
		return RoleTrainer, true
	}
	return r, false
}

// Compose is the inverse of Decompose.
func Compose(base Role, coordinator bool) Role {
	if base == RoleTrainer && coordinator {
		return RoleSportsCoordinator
	}
	return base
}

// AllRoles lists the closed role set ordered by descending level.
func AllRoles() []Role {
	return []Role{RoleOwner, RoleManager, RoleSportsCoordinator, RoleTrainer}
}

// AssignableRoles lists the roles a holder may assign to others, ordered by
// descending level.
func AssignableRoles(holder Role) []Role {
	var out []Role
	for _, r := range AllRoles() {
		if holder.CanAssign(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level() > out[j].Level() })
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
