package di

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/goliatone/go-roster-cache/advisory"
	"github.com/goliatone/go-roster-cache/pkg/testsupport"
	"github.com/goliatone/go-roster-cache/roster"
)

type staticGenerator struct{}

func (staticGenerator) Generate(_ context.Context, _ advisory.Snapshot) (string, error) {
	return "keep practicing set pieces", nil
}

func TestNewContainerRequiresStoreAndDirectory(t *testing.T) {
	if _, err := NewContainerWithDefaults(Dependencies{Directory: testsupport.NewMemoryDirectory()}); err == nil {
		t.Error("missing store should be rejected")
	}
	if _, err := NewContainerWithDefaults(Dependencies{Store: testsupport.NewMemoryStore()}); err == nil {
		t.Error("missing directory should be rejected")
	}
}

func TestContainerWiresFullStack(t *testing.T) {
	deps := Dependencies{
		Store:     testsupport.NewMemoryStore(),
		Directory: testsupport.NewMemoryDirectory(),
		Generator: staticGenerator{},
		Clock:     clockwork.NewFakeClock(),
	}
	c, err := NewContainerWithDefaults(deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Close()

	if c.Queries() == nil || c.Manager() == nil || c.Router() == nil {
		t.Fatal("core components missing")
	}
	if c.Scheduler() == nil {
		t.Fatal("scheduler should exist when a generator is provided")
	}
	if c.Resolver() != nil {
		t.Error("resolver should be nil without role stores")
	}

	ctx := context.Background()
	season := roster.Season("2025-2026")
	team := &roster.Team{Name: "U12 Blue", OwnerID: 7, Season: season}
	if err := c.Manager().CreateTeam(ctx, team); err != nil {
		t.Fatalf("create team: %v", err)
	}
	teams, err := c.Queries().TeamsOwned(ctx, 7, season)
	if err != nil {
		t.Fatalf("read teams: %v", err)
	}
	if len(teams) != 1 || teams[0].Name != "U12 Blue" {
		t.Errorf("teams = %+v", teams)
	}
}

func TestContainerWithoutGeneratorStillMutates(t *testing.T) {
	deps := Dependencies{
		Store:     testsupport.NewMemoryStore(),
		Directory: testsupport.NewMemoryDirectory(),
	}
	c, err := NewContainerWithDefaults(deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Close()

	if c.Scheduler() != nil {
		t.Error("no generator, no scheduler")
	}

	ctx := context.Background()
	season := roster.Season("2025-2026")
	team := &roster.Team{Name: "U12 Blue", OwnerID: 7, Season: season}
	if err := c.Manager().CreateTeam(ctx, team); err != nil {
		t.Fatalf("create team: %v", err)
	}
	player := &roster.Player{OwnerID: 7, FirstName: "Ada", LastName: "Jensen"}
	if err := c.Manager().SavePlayer(ctx, player, season); err != nil {
		t.Fatalf("save player: %v", err)
	}
	if err := c.Manager().AddPlayerToTeam(ctx, team.ID, player.ID, season); err != nil {
		t.Fatalf("membership: %v", err)
	}

	rating := &roster.Rating{
		PlayerID:   player.ID,
		TeamID:     team.ID,
		Season:     season,
		RatingDate: time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC),
		Attacking:  7, Defending: 6, Technique: 6, Speed: 6, Stamina: 6,
		Strength: 6, Insight: 6, Passing: 6, Mentality: 6, Teamplay: 6,
	}
	if err := c.Manager().SaveRating(ctx, rating); err != nil {
		t.Fatalf("rating without scheduler should work: %v", err)
	}
}
