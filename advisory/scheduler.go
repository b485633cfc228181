package advisory

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-roster-cache/invalidation"
	"github.com/goliatone/go-roster-cache/roster"
)

// Generator produces advice text for a snapshot. Implementations may be
// slow or flaky; the scheduler bounds them with a timeout and records a
// failed placeholder when they do not deliver.
type Generator interface {
	Generate(ctx context.Context, snap Snapshot) (string, error)
}

// AdviceStore is the slice of the roster store the scheduler needs.
type AdviceStore interface {
	SkillAverages(ctx context.Context, playerID, teamID int64, season roster.Season) ([]roster.SkillAverage, error)
	LatestAdvice(ctx context.Context, playerID, teamID int64, season roster.Season) (*roster.CoachAdvice, error)
	SaveAdvice(ctx context.Context, advice *roster.CoachAdvice) error
}

// Notifier receives the mutation emitted after an advice row is written.
type Notifier interface {
	OnMutation(ctx context.Context, lookups invalidation.Lookups, m invalidation.Mutation) error
}

// ErrNoRatings means a job was requested for a player with no ratings in
// the season.
var ErrNoRatings = errors.New("no ratings to advise on")

// PlaceholderAdvice is the text written on a failed generation attempt. The
// row still carries the input hash, so the debounce keeps working; the
// Failed flag lets an administrative regeneration find these rows.
const PlaceholderAdvice = "Advice could not be generated for the current ratings. It will be retried when the ratings change."

// Config tunes the scheduler.
type Config struct {
	// Delay is the debounce window between a rating save and the advice
	// job running. Further saves with the same content collapse into the
	// pending job.
	Delay time.Duration
	// GenerateTimeout bounds one generator call.
	GenerateTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Delay:           2 * time.Minute,
		GenerateTimeout: 30 * time.Second,
	}
}

// Scheduler turns rating saves into deferred advice generation. Jobs are
// debounced on the content hash of the player's skill averages: saving the
// same numbers twice schedules one job, and a job whose input changed
// before it ran steps aside for the newer one.
type Scheduler struct {
	store     AdviceStore
	lookups   invalidation.Lookups
	generator Generator
	notifier  Notifier
	clock     clockwork.Clock
	cfg       Config
	log       zerolog.Logger

	pending *xsync.MapOf[string, clockwork.Timer]
	closed  atomic.Bool

	// jobDone, when set, observes job completion. Tests only.
	jobDone func(jobKey string)
}

func NewScheduler(store AdviceStore, lookups invalidation.Lookups, generator Generator, notifier Notifier, clock clockwork.Clock, cfg Config, log zerolog.Logger) *Scheduler {
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultConfig().Delay
	}
	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = DefaultConfig().GenerateTimeout
	}
	return &Scheduler{
		store:     store,
		lookups:   lookups,
		generator: generator,
		notifier:  notifier,
		clock:     clock,
		cfg:       cfg,
		log:       log.With().Str("component", "advice_scheduler").Logger(),
		pending:   xsync.NewMapOf[string, clockwork.Timer](),
	}
}

// OnRatingSaved requests advice for a player after a rating save. The call
// is advisory: it returns an error for observability, but callers must not
// fail the rating save on it.
func (s *Scheduler) OnRatingSaved(ctx context.Context, playerID, teamID int64, season roster.Season) error {
	if s.closed.Load() {
		return errors.New("scheduler closed")
	}

	averages, err := s.store.SkillAverages(ctx, playerID, teamID, season)
	if err != nil {
		return fmt.Errorf("read skill averages: %w", err)
	}
	if len(averages) == 0 {
		return ErrNoRatings
	}
	hash := ContentHash(averages)

	// the hash debounce covers failed placeholders too: a failure is not
	// retried until the input actually changes
	if latest, err := s.store.LatestAdvice(ctx, playerID, teamID, season); err == nil {
		if latest.RatingsHash == hash {
			return nil
		}
	} else if !errors.Is(err, roster.ErrNotFound) {
		return fmt.Errorf("read latest advice: %w", err)
	}

	key := jobKey(playerID, teamID, season, hash)
	if _, loaded := s.pending.Load(key); loaded {
		return nil
	}

	jobID := uuid.NewString()
	timer := s.clock.AfterFunc(s.cfg.Delay, func() {
		defer s.pending.Delete(key)
		s.run(jobID, playerID, teamID, season, hash)
		if s.jobDone != nil {
			s.jobDone(key)
		}
	})
	if _, loaded := s.pending.LoadOrStore(key, timer); loaded {
		// lost the race to another save with identical content
		timer.Stop()
		return nil
	}

	s.log.Debug().
		Str("job_id", jobID).
		Int64("player_id", playerID).
		Int64("team_id", teamID).
		Str("season", string(season)).
		Str("ratings_hash", hash).
		Msg("advice job scheduled")
	return nil
}

// Close stops every pending timer. Jobs already running finish.
func (s *Scheduler) Close() {
	s.closed.Store(true)
	s.pending.Range(func(key string, timer clockwork.Timer) bool {
		timer.Stop()
		s.pending.Delete(key)
		return true
	})
}

func (s *Scheduler) run(jobID string, playerID, teamID int64, season roster.Season, scheduledHash string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.GenerateTimeout)
	defer cancel()

	log := s.log.With().Str("job_id", jobID).Int64("player_id", playerID).Int64("team_id", teamID).Logger()

	averages, err := s.store.SkillAverages(ctx, playerID, teamID, season)
	if err != nil {
		log.Error().Err(err).Msg("advice job cannot re-read averages")
		return
	}
	hash := ContentHash(averages)
	if hash != scheduledHash {
		// input changed while deferred; the save that changed it scheduled
		// its own job
		log.Debug().Msg("advice job superseded")
		return
	}
	if latest, err := s.store.LatestAdvice(ctx, playerID, teamID, season); err == nil {
		if latest.RatingsHash == hash {
			log.Debug().Msg("advice already current")
			return
		}
	}

	snap := Snapshot{PlayerID: playerID, TeamID: teamID, Season: season, Averages: averages}
	advice := &roster.CoachAdvice{
		PlayerID:    playerID,
		TeamID:      teamID,
		Season:      season,
		RatingsHash: hash,
	}

	text, genErr := s.generator.Generate(ctx, snap)
	if genErr != nil {
		// a failed placeholder marks the attempt so reads can show a retry
		// state instead of nothing
		advice.Failed = true
		advice.Advice = PlaceholderAdvice
		log.Warn().Err(genErr).Msg("advice generation failed, writing placeholder")
	} else {
		advice.Advice = text
	}

	if err := s.store.SaveAdvice(ctx, advice); err != nil {
		log.Error().Err(err).Msg("cannot persist advice")
		return
	}

	ev := invalidation.AdviceGenerated{PlayerID: playerID, TeamID: teamID, Season: season}
	if err := s.notifier.OnMutation(ctx, s.lookups, ev); err != nil {
		log.Error().Err(err).Msg("advice invalidation failed")
		return
	}
	log.Info().Bool("failed", advice.Failed).Msg("advice job finished")
}

func jobKey(playerID, teamID int64, season roster.Season, hash string) string {
	return fmt.Sprintf("%d:%d:%s:%s", playerID, teamID, season, hash)
}
