package roles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

type bunAssignmentStore struct {
	db bun.IDB
}

// NewAssignmentStore returns an AssignmentStore backed by the
// club_role_assignments table.
func NewAssignmentStore(db bun.IDB) AssignmentStore {
	return &bunAssignmentStore{db: db}
}

func (s *bunAssignmentStore) Find(ctx context.Context, userID, clubID int64) (*Assignment, error) {
	a := new(Assignment)
	err := s.db.NewSelect().
		Model(a).
		Where("cra.user_id = ?", userID).
		Where("cra.club_id = ?", clubID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select role assignment: %w", err)
	}
	return a, nil
}

func (s *bunAssignmentStore) UpdateRole(ctx context.Context, userID, clubID int64, role Role) (bool, error) {
	res, err := s.db.NewUpdate().
		Model((*Assignment)(nil)).
		Set("role = ?", role).
		Set("updated_at = ?", time.Now().UTC()).
		Where("user_id = ?", userID).
		Where("club_id = ?", clubID).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("update role assignment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update role assignment: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	a := &Assignment{UserID: userID, ClubID: clubID, Role: role, UpdatedAt: time.Now().UTC()}
	if _, err := s.db.NewInsert().Model(a).Exec(ctx); err != nil {
		return false, fmt.Errorf("insert role assignment: %w", err)
	}
	return true, nil
}

func (s *bunAssignmentStore) List(ctx context.Context) ([]Assignment, error) {
	var out []Assignment
	if err := s.db.NewSelect().Model(&out).Order("cra.club_id", "cra.user_id").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list role assignments: %w", err)
	}
	return out, nil
}
