package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/goliatone/go-roster-cache/internal/dbconfig"
	"github.com/goliatone/go-roster-cache/roles"
)

type bunStore struct {
	db bun.IDB
}

// NewBunStore wraps an existing bun handle as a Store.
func NewBunStore(db bun.IDB) Store {
	return &bunStore{db: db}
}

// OpenSQLite opens a SQLite-backed bun handle.
func OpenSQLite(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// OpenPostgres opens a Postgres-backed bun handle.
func OpenPostgres(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

// OpenPostgresFromEnv opens a Postgres-backed bun handle from the DB_*
// environment variables.
func OpenPostgresFromEnv() (*bun.DB, error) {
	return OpenPostgres(dbconfig.NewConfigFromEnv().DSN())
}

func (s *bunStore) CreateTeam(ctx context.Context, team *Team) error {
	if err := team.Validate(); err != nil {
		return err
	}
	if _, err := s.db.NewInsert().Model(team).Exec(ctx); err != nil {
		return fmt.Errorf("insert team: %w", err)
	}
	return nil
}

func (s *bunStore) RenameTeam(ctx context.Context, teamID int64, name string) (*Team, error) {
	team, err := s.TeamByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	team.Name = name
	team.UpdatedAt = time.Now().UTC()
	if err := team.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.db.NewUpdate().
		Model(team).
		Column("name", "updated_at").
		WherePK().
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("rename team: %w", err)
	}
	return team, nil
}

func (s *bunStore) TeamByID(ctx context.Context, teamID int64) (*Team, error) {
	team := new(Team)
	err := s.db.NewSelect().Model(team).Where("t.id = ?", teamID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("team %d: %w", teamID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select team: %w", err)
	}
	return team, nil
}

func (s *bunStore) TeamsOwnedBy(ctx context.Context, userID int64, season Season) ([]Team, error) {
	var teams []Team
	err := s.db.NewSelect().
		Model(&teams).
		Where("t.owner_id = ?", userID).
		Where("t.season = ?", season).
		Order("t.name").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select owned teams: %w", err)
	}
	return teams, nil
}

func (s *bunStore) TeamsManagedBy(ctx context.Context, userID int64, season Season) ([]Team, error) {
	var teams []Team
	err := s.db.NewSelect().
		Model(&teams).
		Join("JOIN team_trainers AS tt ON tt.team_id = t.id").
		Where("tt.user_id = ?", userID).
		Where("t.season = ?", season).
		Where("t.owner_id != ?", userID).
		Order("t.name").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select managed teams: %w", err)
	}
	return teams, nil
}

func (s *bunStore) SavePlayer(ctx context.Context, player *Player) error {
	if err := player.Validate(); err != nil {
		return err
	}
	player.UpdatedAt = time.Now().UTC()
	if player.ID == 0 {
		if _, err := s.db.NewInsert().Model(player).Exec(ctx); err != nil {
			return fmt.Errorf("insert player: %w", err)
		}
		return nil
	}
	if _, err := s.db.NewUpdate().Model(player).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("update player: %w", err)
	}
	return nil
}

func (s *bunStore) PlayerByID(ctx context.Context, playerID int64) (*Player, error) {
	player := new(Player)
	err := s.db.NewSelect().Model(player).Where("p.id = ?", playerID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("player %d: %w", playerID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select player: %w", err)
	}
	return player, nil
}

func (s *bunStore) PlayersForTeam(ctx context.Context, teamID int64, season Season) ([]Player, error) {
	var players []Player
	err := s.db.NewSelect().
		Model(&players).
		Join("JOIN team_members AS tm ON tm.player_id = p.id").
		Where("tm.team_id = ?", teamID).
		Where("tm.season = ?", season).
		Order("p.last_name", "p.first_name").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select team players: %w", err)
	}
	return players, nil
}

func (s *bunStore) AllPlayers(ctx context.Context, ownerID int64, season Season) ([]Player, error) {
	var players []Player
	err := s.db.NewSelect().
		Model(&players).
		Where("p.owner_id = ?", ownerID).
		Order("p.last_name", "p.first_name").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select all players: %w", err)
	}
	return players, nil
}

func (s *bunStore) AddMembership(ctx context.Context, m *TeamMembership) error {
	if _, err := ParseSeason(string(m.Season)); err != nil {
		return err
	}
	if _, err := s.db.NewInsert().Model(m).Exec(ctx); err != nil {
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

func (s *bunStore) RemoveMembership(ctx context.Context, teamID, playerID int64, season Season) error {
	res, err := s.db.NewDelete().
		Model((*TeamMembership)(nil)).
		Where("team_id = ?", teamID).
		Where("player_id = ?", playerID).
		Where("season = ?", season).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("membership of player %d in team %d: %w", playerID, teamID, ErrNotFound)
	}
	return nil
}

func (s *bunStore) TeamsForPlayer(ctx context.Context, playerID int64, season Season) ([]Team, error) {
	var teams []Team
	err := s.db.NewSelect().
		Model(&teams).
		Join("JOIN team_members AS tm ON tm.team_id = t.id").
		Where("tm.player_id = ?", playerID).
		Where("tm.season = ?", season).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select teams for player: %w", err)
	}
	return teams, nil
}

func (s *bunStore) CreateRating(ctx context.Context, rating *Rating) error {
	if err := rating.Validate(); err != nil {
		return err
	}
	day := rating.RatingDate.Truncate(24 * time.Hour)
	exists, err := s.db.NewSelect().
		Model((*Rating)(nil)).
		Where("player_id = ?", rating.PlayerID).
		Where("team_id = ?", rating.TeamID).
		Where("rating_date >= ? AND rating_date < ?", day, day.Add(24*time.Hour)).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("check rating uniqueness: %w", err)
	}
	if exists {
		return ErrDuplicateRating
	}
	if _, err := s.db.NewInsert().Model(rating).Exec(ctx); err != nil {
		return fmt.Errorf("insert rating: %w", err)
	}
	return nil
}

func (s *bunStore) RatingsFor(ctx context.Context, playerID, teamID int64, season Season) ([]Rating, error) {
	var ratings []Rating
	err := s.ratingScope(playerID, teamID, season, &ratings).
		Order("r.rating_date DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select ratings: %w", err)
	}
	return ratings, nil
}

func (s *bunStore) RatingHistory(ctx context.Context, playerID int64) ([]Rating, error) {
	var ratings []Rating
	err := s.db.NewSelect().
		Model(&ratings).
		Where("r.player_id = ?", playerID).
		Order("r.rating_date ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select rating history: %w", err)
	}
	return ratings, nil
}

func (s *bunStore) ratingScope(playerID, teamID int64, season Season, dest *[]Rating) *bun.SelectQuery {
	return s.db.NewSelect().
		Model(dest).
		Where("r.player_id = ?", playerID).
		Where("r.team_id = ?", teamID).
		Where("r.season = ?", season)
}

// skillOrder fixes the presentation order of the spider chart axes.
var skillOrder = []string{
	"attacking", "defending", "technique", "speed", "stamina",
	"strength", "insight", "passing", "mentality", "teamplay",
}

func (s *bunStore) SkillAverages(ctx context.Context, playerID, teamID int64, season Season) ([]SkillAverage, error) {
	var row struct {
		Attacking sql.NullFloat64 `bun:"attacking"`
		Defending sql.NullFloat64 `bun:"defending"`
		Technique sql.NullFloat64 `bun:"technique"`
		Speed     sql.NullFloat64 `bun:"speed"`
		Stamina   sql.NullFloat64 `bun:"stamina"`
		Strength  sql.NullFloat64 `bun:"strength"`
		Insight   sql.NullFloat64 `bun:"insight"`
		Passing   sql.NullFloat64 `bun:"passing"`
		Mentality sql.NullFloat64 `bun:"mentality"`
		Teamplay  sql.NullFloat64 `bun:"teamplay"`
	}

	q := s.db.NewSelect().Model((*Rating)(nil))
	for _, skill := range skillOrder {
		q = q.ColumnExpr(fmt.Sprintf("AVG(r.%s) AS %s", skill, skill))
	}
	err := q.
		Where("r.player_id = ?", playerID).
		Where("r.team_id = ?", teamID).
		Where("r.season = ?", season).
		Scan(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("select skill averages: %w", err)
	}

	byName := map[string]sql.NullFloat64{
		"attacking": row.Attacking, "defending": row.Defending,
		"technique": row.Technique, "speed": row.Speed,
		"stamina": row.Stamina, "strength": row.Strength,
		"insight": row.Insight, "passing": row.Passing,
		"mentality": row.Mentality, "teamplay": row.Teamplay,
	}
	if !byName["attacking"].Valid {
		// no ratings at all
		return []SkillAverage{}, nil
	}

	out := make([]SkillAverage, 0, len(skillOrder))
	for _, skill := range skillOrder {
		out = append(out, SkillAverage{Skill: skill, Average: byName[skill].Float64})
	}
	return out, nil
}

func (s *bunStore) SaveAdvice(ctx context.Context, advice *CoachAdvice) error {
	if _, err := s.db.NewInsert().Model(advice).Exec(ctx); err != nil {
		return fmt.Errorf("insert advice: %w", err)
	}
	return nil
}

func (s *bunStore) LatestAdvice(ctx context.Context, playerID, teamID int64, season Season) (*CoachAdvice, error) {
	advice := new(CoachAdvice)
	err := s.db.NewSelect().
		Model(advice).
		Where("ca.player_id = ?", playerID).
		Where("ca.team_id = ?", teamID).
		Where("ca.season = ?", season).
		Order("ca.created_at DESC", "ca.id DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("advice for player %d: %w", playerID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select advice: %w", err)
	}
	return advice, nil
}

func (s *bunStore) AssignTrainer(ctx context.Context, a *TrainerAssignment) error {
	if _, err := s.db.NewInsert().Model(a).Exec(ctx); err != nil {
		return fmt.Errorf("insert trainer assignment: %w", err)
	}
	return nil
}

func (s *bunStore) RemoveTrainer(ctx context.Context, teamID, userID int64) error {
	res, err := s.db.NewDelete().
		Model((*TrainerAssignment)(nil)).
		Where("team_id = ?", teamID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete trainer assignment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("trainer %d on team %d: %w", userID, teamID, ErrNotFound)
	}
	return nil
}

func (s *bunStore) UpdateTrainerRole(ctx context.Context, teamID, userID int64, role roles.Role) error {
	res, err := s.db.NewUpdate().
		Model((*TrainerAssignment)(nil)).
		Set("role = ?", role).
		Where("team_id = ?", teamID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update trainer role: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("trainer %d on team %d: %w", userID, teamID, ErrNotFound)
	}
	return nil
}

func (s *bunStore) TrainersForTeam(ctx context.Context, teamID int64) ([]TrainerAssignment, error) {
	var trainers []TrainerAssignment
	err := s.db.NewSelect().
		Model(&trainers).
		Where("tt.team_id = ?", teamID).
		Order("tt.added_at").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select team trainers: %w", err)
	}
	return trainers, nil
}

func (s *bunStore) TeamsTrainedBy(ctx context.Context, userID int64) ([]Team, error) {
	var teams []Team
	err := s.db.NewSelect().
		Model(&teams).
		Join("JOIN team_trainers AS tt ON tt.team_id = t.id").
		Where("tt.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select trained teams: %w", err)
	}
	return teams, nil
}

func (s *bunStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	db, ok := s.db.(*bun.DB)
	if !ok {
		// already inside a transaction
		return fn(ctx, s)
	}
	return db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &bunStore{db: tx})
	})
}
