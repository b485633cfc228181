// Package testsupport provides in-memory doubles for the storage and
// directory interfaces, used across the package tests.
package testsupport

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-roster-cache/roles"
	"github.com/goliatone/go-roster-cache/roster"
)

// MemoryStore is a roster.Store kept entirely in memory. RunInTx gives real
// rollback semantics by snapshotting state, so transactional behavior can be
// asserted without a database.
//
// Error injection fields make a specific operation fail; they apply inside
// transactions too.
type MemoryStore struct {
	mu sync.Mutex

	teams       map[int64]*roster.Team
	players     map[int64]*roster.Player
	memberships []roster.TeamMembership
	ratings     []roster.Rating
	advice      []roster.CoachAdvice
	trainers    []roster.TrainerAssignment
	nextID      int64

	TrainersForTeamErr error
	TeamsForPlayerErr  error
	SaveAdviceErr      error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		teams:   make(map[int64]*roster.Team),
		players: make(map[int64]*roster.Player),
		nextID:  1,
	}
}

func (s *MemoryStore) id() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *MemoryStore) CreateTeam(_ context.Context, team *roster.Team) error {
	if err := team.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	team.ID = s.id()
	team.CreatedAt = time.Now()
	cp := *team
	s.teams[team.ID] = &cp
	return nil
}

func (s *MemoryStore) RenameTeam(_ context.Context, teamID int64, name string) (*roster.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	team, ok := s.teams[teamID]
	if !ok {
		return nil, fmt.Errorf("team %d: %w", teamID, roster.ErrNotFound)
	}
	team.Name = name
	team.UpdatedAt = time.Now()
	cp := *team
	return &cp, nil
}

func (s *MemoryStore) TeamByID(_ context.Context, teamID int64) (*roster.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	team, ok := s.teams[teamID]
	if !ok {
		return nil, fmt.Errorf("team %d: %w", teamID, roster.ErrNotFound)
	}
	cp := *team
	return &cp, nil
}

func (s *MemoryStore) TeamsOwnedBy(_ context.Context, userID int64, season roster.Season) ([]roster.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []roster.Team
	for _, t := range s.teams {
		if t.OwnerID == userID && t.Season == season {
			out = append(out, *t)
		}
	}
	sortTeams(out)
	return out, nil
}

func (s *MemoryStore) TeamsManagedBy(_ context.Context, userID int64, season roster.Season) ([]roster.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []roster.Team
	for _, a := range s.trainers {
		if a.UserID != userID {
			continue
		}
		t, ok := s.teams[a.TeamID]
		if !ok || t.Season != season || t.OwnerID == userID {
			continue
		}
		out = append(out, *t)
	}
	sortTeams(out)
	return out, nil
}

func (s *MemoryStore) SavePlayer(_ context.Context, player *roster.Player) error {
	if err := player.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if player.ID == 0 {
		player.ID = s.id()
	}
	player.UpdatedAt = time.Now()
	cp := *player
	s.players[player.ID] = &cp
	return nil
}

func (s *MemoryStore) PlayerByID(_ context.Context, playerID int64) (*roster.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		return nil, fmt.Errorf("player %d: %w", playerID, roster.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) PlayersForTeam(_ context.Context, teamID int64, season roster.Season) ([]roster.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []roster.Player
	for _, m := range s.memberships {
		if m.TeamID != teamID || m.Season != season {
			continue
		}
		if p, ok := s.players[m.PlayerID]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *MemoryStore) AllPlayers(_ context.Context, ownerID int64, _ roster.Season) ([]roster.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []roster.Player
	for _, p := range s.players {
		if p.OwnerID == ownerID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) AddMembership(_ context.Context, m *roster.TeamMembership) error {
	if _, err := roster.ParseSeason(string(m.Season)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.id()
	m.AddedAt = time.Now()
	s.memberships = append(s.memberships, *m)
	return nil
}

func (s *MemoryStore) RemoveMembership(_ context.Context, teamID, playerID int64, season roster.Season) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.memberships {
		if m.TeamID == teamID && m.PlayerID == playerID && m.Season == season {
			s.memberships = append(s.memberships[:i], s.memberships[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("membership of player %d in team %d: %w", playerID, teamID, roster.ErrNotFound)
}

func (s *MemoryStore) TeamsForPlayer(_ context.Context, playerID int64, season roster.Season) ([]roster.Team, error) {
	if s.TeamsForPlayerErr != nil {
		return nil, s.TeamsForPlayerErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []roster.Team
	for _, m := range s.memberships {
		if m.PlayerID != playerID || m.Season != season {
			continue
		}
		if t, ok := s.teams[m.TeamID]; ok {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateRating(_ context.Context, rating *roster.Rating) error {
	if err := rating.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	day := rating.RatingDate.Truncate(24 * time.Hour)
	for _, r := range s.ratings {
		if r.PlayerID == rating.PlayerID && r.TeamID == rating.TeamID &&
			r.RatingDate.Truncate(24*time.Hour).Equal(day) {
			return roster.ErrDuplicateRating
		}
	}
	rating.ID = s.id()
	s.ratings = append(s.ratings, *rating)
	return nil
}

func (s *MemoryStore) RatingsFor(_ context.Context, playerID, teamID int64, season roster.Season) ([]roster.Rating, error) {
	out := s.ratingsScoped(playerID, teamID, season)
	sort.Slice(out, func(i, j int) bool { return out[i].RatingDate.After(out[j].RatingDate) })
	return out, nil
}

func (s *MemoryStore) RatingHistory(_ context.Context, playerID int64) ([]roster.Rating, error) {
	s.mu.Lock()
	var out []roster.Rating
	for _, r := range s.ratings {
		if r.PlayerID == playerID {
			out = append(out, r)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].RatingDate.Before(out[j].RatingDate) })
	return out, nil
}

func (s *MemoryStore) ratingsScoped(playerID, teamID int64, season roster.Season) []roster.Rating {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []roster.Rating
	for _, r := range s.ratings {
		if r.PlayerID == playerID && r.TeamID == teamID && r.Season == season {
			out = append(out, r)
		}
	}
	return out
}

func (s *MemoryStore) SkillAverages(ctx context.Context, playerID, teamID int64, season roster.Season) ([]roster.SkillAverage, error) {
	ratings := s.ratingsScoped(playerID, teamID, season)
	if len(ratings) == 0 {
		return []roster.SkillAverage{}, nil
	}

	sums := make(map[string]int)
	for _, r := range ratings {
		for skill, score := range r.Skills() {
			sums[skill] += score
		}
	}
	skills := make([]string, 0, len(sums))
	for skill := range sums {
		skills = append(skills, skill)
	}
	sort.Strings(skills)

	out := make([]roster.SkillAverage, 0, len(skills))
	for _, skill := range skills {
		out = append(out, roster.SkillAverage{
			Skill:   skill,
			Average: float64(sums[skill]) / float64(len(ratings)),
		})
	}
	return out, nil
}

func (s *MemoryStore) SaveAdvice(_ context.Context, advice *roster.CoachAdvice) error {
	if s.SaveAdviceErr != nil {
		return s.SaveAdviceErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	advice.ID = s.id()
	advice.CreatedAt = time.Now()
	s.advice = append(s.advice, *advice)
	return nil
}

func (s *MemoryStore) LatestAdvice(_ context.Context, playerID, teamID int64, season roster.Season) (*roster.CoachAdvice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.advice) - 1; i >= 0; i-- {
		a := s.advice[i]
		if a.PlayerID == playerID && a.TeamID == teamID && a.Season == season {
			return &a, nil
		}
	}
	return nil, fmt.Errorf("advice for player %d: %w", playerID, roster.ErrNotFound)
}

func (s *MemoryStore) AssignTrainer(_ context.Context, a *roster.TrainerAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id()
	a.AddedAt = time.Now()
	s.trainers = append(s.trainers, *a)
	return nil
}

func (s *MemoryStore) RemoveTrainer(_ context.Context, teamID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.trainers {
		if a.TeamID == teamID && a.UserID == userID {
			s.trainers = append(s.trainers[:i], s.trainers[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("trainer %d on team %d: %w", userID, teamID, roster.ErrNotFound)
}

func (s *MemoryStore) UpdateTrainerRole(_ context.Context, teamID, userID int64, role roles.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.trainers {
		if a.TeamID == teamID && a.UserID == userID {
			s.trainers[i].Role = role
			return nil
		}
	}
	return fmt.Errorf("trainer %d on team %d: %w", userID, teamID, roster.ErrNotFound)
}

func (s *MemoryStore) TrainersForTeam(_ context.Context, teamID int64) ([]roster.TrainerAssignment, error) {
	if s.TrainersForTeamErr != nil {
		return nil, s.TrainersForTeamErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []roster.TrainerAssignment
	for _, a := range s.trainers {
		if a.TeamID == teamID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *MemoryStore) TeamsTrainedBy(_ context.Context, userID int64) ([]roster.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []roster.Team
	for _, a := range s.trainers {
		if a.UserID != userID {
			continue
		}
		if t, ok := s.teams[a.TeamID]; ok {
			out = append(out, *t)
		}
	}
	sortTeams(out)
	return out, nil
}

// RunInTx snapshots the store, runs fn, and restores the snapshot when fn
// fails.
func (s *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx roster.Store) error) error {
	snapshot := s.snapshot()
	if err := fn(ctx, s); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	teams       map[int64]*roster.Team
	players     map[int64]*roster.Player
	memberships []roster.TeamMembership
	ratings     []roster.Rating
	advice      []roster.CoachAdvice
	trainers    []roster.TrainerAssignment
	nextID      int64
}

func (s *MemoryStore) snapshot() memorySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memorySnapshot{
		teams:       make(map[int64]*roster.Team, len(s.teams)),
		players:     make(map[int64]*roster.Player, len(s.players)),
		memberships: append([]roster.TeamMembership(nil), s.memberships...),
		ratings:     append([]roster.Rating(nil), s.ratings...),
		advice:      append([]roster.CoachAdvice(nil), s.advice...),
		trainers:    append([]roster.TrainerAssignment(nil), s.trainers...),
		nextID:      s.nextID,
	}
	for id, t := range s.teams {
		cp := *t
		snap.teams[id] = &cp
	}
	for id, p := range s.players {
		cp := *p
		snap.players[id] = &cp
	}
	return snap
}

func (s *MemoryStore) restore(snap memorySnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams = snap.teams
	s.players = snap.players
	s.memberships = snap.memberships
	s.ratings = snap.ratings
	s.advice = snap.advice
	s.trainers = snap.trainers
	s.nextID = snap.nextID
}

// RatingCount reports the number of stored ratings, for assertions.
func (s *MemoryStore) RatingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ratings)
}

func sortTeams(teams []roster.Team) {
	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })
}
