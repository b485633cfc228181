package roles

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Role
		wantErr bool
	}{
		{name: "owner", raw: "owner", want: RoleOwner},
		{name: "manager mixed case", raw: "Manager", want: RoleManager},
		{name: "member maps to trainer", raw: "member", want: RoleTrainer},
		{name: "sports coordinator", raw: "sports_coordinator", want: RoleSportsCoordinator},
		{name: "padded input", raw: "  owner ", want: RoleOwner},
		{name: "unknown role", raw: "admin", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRole(tt.raw)
			if tt.wantErr {
				var ure *UnknownRoleError
				if !errors.As(err, &ure) {
					t.Fatalf("expected UnknownRoleError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleOwner, "Owner"},
		{RoleManager, "Manager"},
		{RoleTrainer, "Trainer"},
		{RoleSportsCoordinator, "Sports Coordinator"},
		{Role("goalkeeper_coach"), "Goalkeeper_coach"},
	}

	for _, tt := range tests {
		if got := tt.role.DisplayName(); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.role, got, tt.want)
		}
	}
}

func TestLevelOrdering(t *testing.T) {
	order := []Role{RoleOwner, RoleManager, RoleSportsCoordinator, RoleTrainer}
	for i := 1; i < len(order); i++ {
		if order[i-1].Level() <= order[i].Level() {
			t.Errorf("%s should outrank %s", order[i-1], order[i])
		}
	}
	if Role("intruder").Level() != 0 {
		t.Errorf("unknown role should have level 0")
	}
}

func TestCanAssign(t *testing.T) {
	if !RoleOwner.CanAssign(RoleManager) {
		t.Error("owner should assign manager")
	}
	if RoleManager.CanAssign(RoleManager) {
		t.Error("manager should not assign own level")
	}
	if RoleTrainer.CanAssign(RoleSportsCoordinator) {
		t.Error("trainer should not assign upward")
	}
}

func TestAssignableRoles(t *testing.T) {
	got := AssignableRoles(RoleManager)
	want := []Role{RoleSportsCoordinator, RoleTrainer}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestDecomposeCompose(t *testing.T) {
	for _, r := range AllRoles() {
		if back := Compose(r.Decompose()); back != r {
			t.Errorf("Compose(Decompose(%q)) = %q", r, back)
		}
	}
	base, coordinator := RoleSportsCoordinator.Decompose()
	if base != RoleTrainer || !coordinator {
		t.Errorf("coordinator should decompose to member+marker, got %q %v", base, coordinator)
	}
}

func TestCanRemoveTrainer(t *testing.T) {
	tests := []struct {
		name    string
		actor   Role
		target  Role
		self    bool
		wantErr bool
	}{
		{name: "owner removes trainer", actor: RoleOwner, target: RoleTrainer},
		{name: "manager removes coordinator", actor: RoleManager, target: RoleSportsCoordinator},
		{name: "owner cannot be removed", actor: RoleOwner, target: RoleOwner, wantErr: true},
		{name: "equal rank denied", actor: RoleManager, target: RoleManager, wantErr: true},
		{name: "self removal denied", actor: RoleOwner, target: RoleTrainer, self: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanRemoveTrainer(tt.actor, tt.target, tt.self)
			if tt.wantErr != (err != nil) {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrPermissionDenied) {
				t.Errorf("error should wrap ErrPermissionDenied, got %v", err)
			}
		})
	}
}

func TestCanChangeTrainerRole(t *testing.T) {
	tests := []struct {
		name    string
		actor   Role
		current Role
		next    Role
		self    bool
		wantErr bool
	}{
		{name: "owner promotes trainer", actor: RoleOwner, current: RoleTrainer, next: RoleManager},
		{name: "manager grants coordinator", actor: RoleManager, current: RoleTrainer, next: RoleSportsCoordinator},
		{name: "cannot grant ownership", actor: RoleOwner, current: RoleManager, next: RoleOwner, wantErr: true},
		{name: "cannot demote owner", actor: RoleOwner, current: RoleOwner, next: RoleManager, wantErr: true},
		{name: "manager cannot grant manager", actor: RoleManager, current: RoleTrainer, next: RoleManager, wantErr: true},
		{name: "self change denied", actor: RoleOwner, current: RoleTrainer, next: RoleManager, self: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanChangeTrainerRole(tt.actor, tt.current, tt.next, tt.self)
			if tt.wantErr != (err != nil) {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
