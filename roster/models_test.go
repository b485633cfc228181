package roster

import (
	"errors"
	"testing"
	"time"
)

func validRating() *Rating {
	return &Rating{
		PlayerID:   11,
		TeamID:     3,
		Season:     "2025-2026",
		RatingDate: time.Date(2025, time.October, 2, 0, 0, 0, 0, time.UTC),
		Attacking:  7,
		Defending:  6,
		Technique:  8,
		Speed:      7,
		Stamina:    6,
		Strength:   5,
		Insight:    7,
		Passing:    8,
		Mentality:  6,
		Teamplay:   9,
	}
}

func TestRatingValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Rating)
		wantErr bool
	}{
		{name: "valid", mutate: func(r *Rating) {}},
		{name: "zero scores allowed", mutate: func(r *Rating) { r.Attacking = 0 }},
		{name: "max score allowed", mutate: func(r *Rating) { r.Teamplay = 10 }},
		{name: "score above bound", mutate: func(r *Rating) { r.Speed = 11 }, wantErr: true},
		{name: "negative score", mutate: func(r *Rating) { r.Insight = -1 }, wantErr: true},
		{name: "missing player", mutate: func(r *Rating) { r.PlayerID = 0 }, wantErr: true},
		{name: "missing date", mutate: func(r *Rating) { r.RatingDate = time.Time{} }, wantErr: true},
		{name: "bad season", mutate: func(r *Rating) { r.Season = "2025" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRating()
			tt.mutate(r)
			err := r.Validate()
			if tt.wantErr {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRatingSkillsCoversEveryColumn(t *testing.T) {
	skills := validRating().Skills()
	if len(skills) != 10 {
		t.Fatalf("expected 10 skills, got %d", len(skills))
	}
	if skills["teamplay"] != 9 {
		t.Errorf("teamplay = %d, want 9", skills["teamplay"])
	}
}

func TestTeamValidate(t *testing.T) {
	team := &Team{Name: "U12 Blue", OwnerID: 7, Season: "2025-2026"}
	if err := team.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	team.Name = ""
	if err := team.Validate(); err == nil {
		t.Error("empty name should fail validation")
	}

	team.Name = "U12 Blue"
	team.Season = "not-a-season"
	if err := team.Validate(); err == nil {
		t.Error("malformed season should fail validation")
	}
}

func TestPlayerValidate(t *testing.T) {
	player := &Player{OwnerID: 7, FirstName: "Ada", LastName: "Jensen"}
	if err := player.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	player.LastName = ""
	if err := player.Validate(); err == nil {
		t.Error("empty last name should fail validation")
	}
}
