package advisory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-roster-cache/invalidation"
	"github.com/goliatone/go-roster-cache/roster"
)

const season = roster.Season("2025-2026")

type fakeAdviceStore struct {
	mu       sync.Mutex
	averages []roster.SkillAverage
	latest   *roster.CoachAdvice
	saved    []*roster.CoachAdvice
	avgErr   error
}

func (s *fakeAdviceStore) SkillAverages(_ context.Context, _, _ int64, _ roster.Season) ([]roster.SkillAverage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.avgErr != nil {
		return nil, s.avgErr
	}
	return append([]roster.SkillAverage(nil), s.averages...), nil
}

func (s *fakeAdviceStore) LatestAdvice(_ context.Context, _, _ int64, _ roster.Season) (*roster.CoachAdvice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return nil, roster.ErrNotFound
	}
	return s.latest, nil
}

func (s *fakeAdviceStore) SaveAdvice(_ context.Context, advice *roster.CoachAdvice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, advice)
	s.latest = advice
	return nil
}

func (s *fakeAdviceStore) setAverages(averages []roster.SkillAverage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.averages = averages
}

func (s *fakeAdviceStore) savedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

func (s *fakeAdviceStore) lastSaved() *roster.CoachAdvice {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saved) == 0 {
		return nil
	}
	return s.saved[len(s.saved)-1]
}

type fakeGenerator struct {
	text string
	err  error
}

func (g *fakeGenerator) Generate(_ context.Context, _ Snapshot) (string, error) {
	return g.text, g.err
}

type fakeNotifier struct {
	mu        sync.Mutex
	mutations []invalidation.Mutation
}

func (n *fakeNotifier) OnMutation(_ context.Context, _ invalidation.Lookups, m invalidation.Mutation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.mutations = append(n.mutations, m)
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.mutations)
}

type fakeLookups struct{}

func (fakeLookups) TeamByID(_ context.Context, _ int64) (*roster.Team, error) { return nil, nil }
func (fakeLookups) TeamsForPlayer(_ context.Context, _ int64, _ roster.Season) ([]roster.Team, error) {
	return nil, nil
}
func (fakeLookups) TrainersForTeam(_ context.Context, _ int64) ([]roster.TrainerAssignment, error) {
	return nil, nil
}

func someAverages() []roster.SkillAverage {
	return []roster.SkillAverage{
		{Skill: "attacking", Average: 7.5},
		{Skill: "defending", Average: 6.0},
	}
}

type schedulerHarness struct {
	s        *Scheduler
	store    *fakeAdviceStore
	gen      *fakeGenerator
	notifier *fakeNotifier
	clock    *clockwork.FakeClock
	done     chan string
}

func newHarness(t *testing.T) *schedulerHarness {
	t.Helper()
	h := &schedulerHarness{
		store:    &fakeAdviceStore{averages: someAverages()},
		gen:      &fakeGenerator{text: "work on defending"},
		notifier: &fakeNotifier{},
		clock:    clockwork.NewFakeClock(),
		done:     make(chan string, 8),
	}
	h.s = NewScheduler(h.store, fakeLookups{}, h.gen, h.notifier, h.clock, Config{Delay: time.Minute, GenerateTimeout: time.Second}, zerolog.Nop())
	h.s.jobDone = func(key string) { h.done <- key }
	t.Cleanup(h.s.Close)
	return h
}

func (h *schedulerHarness) fire(t *testing.T) {
	t.Helper()
	h.clock.Advance(time.Minute)
	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatal("advice job did not run")
	}
}

func TestRatingSaveProducesAdvice(t *testing.T) {
	h := newHarness(t)

	if err := h.s.OnRatingSaved(context.Background(), 11, 3, season); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.store.savedCount() != 0 {
		t.Fatal("advice should not be written before the delay elapses")
	}

	h.fire(t)

	advice := h.store.lastSaved()
	if advice == nil {
		t.Fatal("no advice written")
	}
	if advice.Advice != "work on defending" {
		t.Errorf("advice text = %q", advice.Advice)
	}
	if advice.Failed {
		t.Error("successful generation should not be marked failed")
	}
	if advice.RatingsHash != ContentHash(someAverages()) {
		t.Error("advice should carry the content hash of its input")
	}
	if h.notifier.count() != 1 {
		t.Errorf("expected one AdviceGenerated mutation, got %d", h.notifier.count())
	}
}

func TestIdenticalContentCollapsesIntoOneJob(t *testing.T) {
	h := newHarness(t)

	for i := 0; i < 3; i++ {
		if err := h.s.OnRatingSaved(context.Background(), 11, 3, season); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	h.fire(t)

	if got := h.store.savedCount(); got != 1 {
		t.Errorf("saved %d advice rows, want 1", got)
	}
}

func TestCurrentAdviceSkipsScheduling(t *testing.T) {
	h := newHarness(t)
	h.store.latest = &roster.CoachAdvice{RatingsHash: ContentHash(someAverages())}

	if err := h.s.OnRatingSaved(context.Background(), 11, 3, season); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.clock.Advance(time.Minute)

	select {
	case <-h.done:
		t.Fatal("no job should have been scheduled")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFailedPlaceholderStillDebouncesUnchangedInput(t *testing.T) {
	h := newHarness(t)
	h.store.latest = &roster.CoachAdvice{RatingsHash: ContentHash(someAverages()), Failed: true}

	if err := h.s.OnRatingSaved(context.Background(), 11, 3, season); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.clock.Advance(time.Minute)

	select {
	case <-h.done:
		t.Fatal("unchanged data after a failed placeholder must not retry generation")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestChangedInputRetriesAfterFailedPlaceholder(t *testing.T) {
	h := newHarness(t)
	h.store.latest = &roster.CoachAdvice{RatingsHash: ContentHash(nil), Failed: true}

	if err := h.s.OnRatingSaved(context.Background(), 11, 3, season); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.fire(t)

	advice := h.store.lastSaved()
	if advice == nil || advice.Failed {
		t.Fatal("changed input after a failed placeholder should produce real advice")
	}
}

func TestChangedInputSupersedesPendingJob(t *testing.T) {
	h := newHarness(t)

	if err := h.s.OnRatingSaved(context.Background(), 11, 3, season); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.store.setAverages([]roster.SkillAverage{{Skill: "attacking", Average: 9.0}})

	h.fire(t)

	if got := h.store.savedCount(); got != 0 {
		t.Errorf("superseded job wrote %d rows, want 0", got)
	}
}

func TestGeneratorFailureWritesPlaceholder(t *testing.T) {
	h := newHarness(t)
	h.gen.err = errors.New("model unavailable")

	if err := h.s.OnRatingSaved(context.Background(), 11, 3, season); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.fire(t)

	advice := h.store.lastSaved()
	if advice == nil {
		t.Fatal("placeholder should be written on failure")
	}
	if !advice.Failed {
		t.Error("placeholder should be marked failed")
	}
	if advice.Advice != PlaceholderAdvice {
		t.Errorf("placeholder text = %q, want %q", advice.Advice, PlaceholderAdvice)
	}
	if advice.RatingsHash != ContentHash(someAverages()) {
		t.Error("placeholder should carry the input hash so the debounce holds")
	}
	if h.notifier.count() != 1 {
		t.Error("placeholder writes still emit AdviceGenerated")
	}
}

func TestNoRatingsIsAnError(t *testing.T) {
	h := newHarness(t)
	h.store.setAverages(nil)

	err := h.s.OnRatingSaved(context.Background(), 11, 3, season)
	if !errors.Is(err, ErrNoRatings) {
		t.Fatalf("expected ErrNoRatings, got %v", err)
	}
}

func TestCloseStopsPendingJobs(t *testing.T) {
	h := newHarness(t)

	if err := h.s.OnRatingSaved(context.Background(), 11, 3, season); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.s.Close()
	h.clock.Advance(time.Minute)

	select {
	case <-h.done:
		t.Fatal("stopped job should not run")
	case <-time.After(50 * time.Millisecond):
	}
	if err := h.s.OnRatingSaved(context.Background(), 11, 3, season); err == nil {
		t.Error("scheduling after Close should fail")
	}
}
