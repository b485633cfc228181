package roles

import (
	"errors"
	"fmt"
)

// ErrPermissionDenied is the sentinel wrapped by every authorization failure.
var ErrPermissionDenied = errors.New("permission denied")

// CanRemoveTrainer checks whether actor may remove a trainer holding target
// from a team. Owners cannot be removed, nobody removes themselves through
// this path, and the actor must outrank the target.
func CanRemoveTrainer(actor, target Role, self bool) error {
	if self {
		return fmt.Errorf("%w: cannot remove own trainer assignment", ErrPermissionDenied)
	}
	if target == RoleOwner {
		return fmt.Errorf("%w: the club owner cannot be removed", ErrPermissionDenied)
	}
	if target.Level() >= actor.Level() {
		return fmt.Errorf("%w: %s cannot remove a %s", ErrPermissionDenied, actor.DisplayName(), target.DisplayName())
	}
	return nil
}

// CanChangeTrainerRole checks whether actor may change a trainer's role from
// current to next. The actor must outrank both the current and the requested
// role, and the owner role can neither be granted nor revoked here.
func CanChangeTrainerRole(actor, current, next Role, self bool) error {
	if self {
		return fmt.Errorf("%w: cannot change own role", ErrPermissionDenied)
	}
	if current == RoleOwner || next == RoleOwner {
		return fmt.Errorf("%w: ownership does not change through role assignment", ErrPermissionDenied)
	}
	if !actor.CanAssign(current) {
		return fmt.Errorf("%w: %s cannot modify a %s", ErrPermissionDenied, actor.DisplayName(), current.DisplayName())
	}
	if !actor.CanAssign(next) {
		return fmt.Errorf("%w: %s cannot grant %s", ErrPermissionDenied, actor.DisplayName(), next.DisplayName())
	}
	return nil
}
