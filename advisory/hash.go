package advisory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/goliatone/go-roster-cache/roster"
)

// Snapshot is the input the advice generator sees: one player's per-skill
// averages at a point in time.
type Snapshot struct {
	PlayerID int64
	TeamID   int64
	Season   roster.Season
	Averages []roster.SkillAverage
}

// ContentHash fingerprints a set of skill averages. Skills are sorted by
// name and averages rendered with fixed precision, so the same numbers
// always hash identically regardless of source ordering or float noise
// below the fourth decimal.
func ContentHash(averages []roster.SkillAverage) string {
	sorted := make([]roster.SkillAverage, len(averages))
	copy(sorted, averages)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Skill < sorted[j].Skill })

	var b strings.Builder
	for i, avg := range sorted {
		if i > 0 {
			b.WriteByte(';')
		}
		fmt.Fprintf(&b, "%s=%.4f", avg.Skill, avg.Average)
	}
	return fmt.Sprintf("%016x", xxhash.Sum64String(b.String()))
}

// Hash returns the content hash of the snapshot's averages.
func (s Snapshot) Hash() string {
	return ContentHash(s.Averages)
}
