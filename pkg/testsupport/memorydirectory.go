package testsupport

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-roster-cache/roster"
)

// MemoryDirectory is a roster.ClubDirectory backed by maps, standing in for
// the external club system.
type MemoryDirectory struct {
	mu          sync.Mutex
	clubs       map[int64]roster.ClubSummary
	members     map[int64][]roster.ClubMember
	invitations map[int64][]roster.ClubInvitation

	MembersErr error
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		clubs:       make(map[int64]roster.ClubSummary),
		members:     make(map[int64][]roster.ClubMember),
		invitations: make(map[int64][]roster.ClubInvitation),
	}
}

// AddClub registers a club with its members and open invitations.
func (d *MemoryDirectory) AddClub(club roster.ClubSummary, members []roster.ClubMember, invitations []roster.ClubInvitation) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clubs[club.ID] = club
	d.members[club.ID] = members
	d.invitations[club.ID] = invitations
}

func (d *MemoryDirectory) Club(_ context.Context, clubID int64) (*roster.ClubSummary, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	club, ok := d.clubs[clubID]
	if !ok {
		return nil, fmt.Errorf("club %d: %w", clubID, roster.ErrNotFound)
	}
	return &club, nil
}

func (d *MemoryDirectory) ClubsForUser(_ context.Context, userID int64) ([]roster.ClubSummary, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []roster.ClubSummary
	for clubID, members := range d.members {
		for _, m := range members {
			if m.UserID == userID {
				out = append(out, d.clubs[clubID])
				break
			}
		}
	}
	return out, nil
}

func (d *MemoryDirectory) Members(_ context.Context, clubID int64) ([]roster.ClubMember, error) {
	if d.MembersErr != nil {
		return nil, d.MembersErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]roster.ClubMember(nil), d.members[clubID]...), nil
}

func (d *MemoryDirectory) OpenInvitations(_ context.Context, clubID int64) ([]roster.ClubInvitation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]roster.ClubInvitation(nil), d.invitations[clubID]...), nil
}
