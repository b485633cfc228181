package roster

import (
	"sort"
	"strconv"
	"strings"
)

// KeySpace derives every cache key used by the module. Keys are pure
// functions of their identifying inputs, so readers and invalidators always
// agree on the exact string. The "::" separator never appears in any segment
// (segments are numeric ids or validated season tokens), so keys cannot
// collide by concatenation.
type KeySpace struct {
	// Namespace prefixes every key. Defaults to "roster" via NewKeySpace.
	Namespace string
}

func NewKeySpace() KeySpace {
	return KeySpace{Namespace: "roster"}
}

const keySep = "::"

func (k KeySpace) join(parts ...string) string {
	return k.Namespace + keySep + strings.Join(parts, keySep)
}

// TeamVariant selects which team listing a key addresses.
type TeamVariant string

const (
	TeamsOwned   TeamVariant = "owned"
	TeamsManaged TeamVariant = "managed"
)

// TeamsKey addresses a user's team list for a season, split by ownership
// variant.
func (k KeySpace) TeamsKey(userID int64, season Season, variant TeamVariant) string {
	return k.join("teams", string(variant), itoa(userID), string(season))
}

// ManagedTeamsKey addresses the cross-club listing of all teams a user can
// act on as a manager.
func (k KeySpace) ManagedTeamsKey(userID int64, season Season) string {
	return k.join("managed_teams", itoa(userID), string(season))
}

// PlayersKey addresses a player listing. scopeID is the team for roster
// views; with allPlayers it is the owning user, the key covers the whole
// player pool and the season is ignored (the pool is not season-scoped).
func (k KeySpace) PlayersKey(scopeID int64, season Season, allPlayers bool) string {
	if allPlayers {
		return k.join("players", "all", itoa(scopeID))
	}
	return k.join("players", "team", itoa(scopeID), string(season))
}

// RatingsKey addresses the rating list of one player within one team.
func (k KeySpace) RatingsKey(playerID, teamID int64, season Season) string {
	return k.join("ratings", itoa(playerID), itoa(teamID), string(season))
}

// SpiderKey addresses the per-skill averages behind the spider chart.
func (k KeySpace) SpiderKey(playerID, teamID int64, season Season) string {
	return k.join("spider", itoa(playerID), itoa(teamID), string(season))
}

// HistoryKey addresses the rating history timeline of one player. The
// timeline spans teams and seasons, so the player id is the whole scope.
func (k KeySpace) HistoryKey(playerID int64) string {
	return k.join("history", itoa(playerID))
}

// ClubKey addresses one club's cached details.
func (k KeySpace) ClubKey(clubID int64) string {
	return k.join("club", itoa(clubID))
}

// ClubsKey addresses the list of clubs a user belongs to.
func (k KeySpace) ClubsKey(userID int64) string {
	return k.join("clubs", itoa(userID))
}

// TeamTrainersKey addresses the trainer list of one team for a season.
func (k KeySpace) TeamTrainersKey(teamID int64, season Season) string {
	return k.join("team_trainers", itoa(teamID), string(season))
}

// AvailableTrainersKey addresses the assignable-trainer listing derived from
// a set of clubs. The club id set is sorted, so the same clubs in any order
// yield the same key.
func (k KeySpace) AvailableTrainersKey(clubIDs []int64) string {
	sorted := make([]int64, len(clubIDs))
	copy(sorted, clubIDs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	ids := make([]string, len(sorted))
	for i, id := range sorted {
		ids[i] = itoa(id)
	}
	return k.join("available_trainers", strings.Join(ids, ","))
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
