package roster

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Season identifies one playing season as "<start>-<end>", e.g. "2025-2026".
// The end year is always start+1; a season token is the unit every scoped
// cache key carries, so two seasons never share cached data.
type Season string

var seasonPattern = regexp.MustCompile(`^\d{4}-\d{4}$`)

// seasonRolloverMonth is the month a new season starts. August matches the
// typical European club calendar.
const seasonRolloverMonth = time.August

// ParseSeason validates and normalizes a raw season token.
func ParseSeason(raw string) (Season, error) {
	err := validation.Validate(raw,
		validation.Required,
		validation.Match(seasonPattern).Error("must look like 2025-2026"),
	)
	if err != nil {
		return "", &ValidationError{Field: "season", Reason: err.Error()}
	}

	start, _ := strconv.Atoi(raw[:4])
	end, _ := strconv.Atoi(raw[5:])
	if end != start+1 {
		return "", &ValidationError{Field: "season", Reason: fmt.Sprintf("end year must be %d, got %d", start+1, end)}
	}
	if start < 1900 || start > time.Now().Year()+5 {
		return "", &ValidationError{Field: "season", Reason: fmt.Sprintf("start year %d out of range", start)}
	}
	return Season(raw), nil
}

// SeasonForYear builds the season whose start year is the given year.
func SeasonForYear(startYear int) Season {
	return Season(fmt.Sprintf("%d-%d", startYear, startYear+1))
}

// SeasonAt returns the season containing the given instant. Before the
// rollover month the instant still belongs to the season started the year
// before.
func SeasonAt(t time.Time) Season {
	year := t.Year()
	if t.Month() < seasonRolloverMonth {
		year--
	}
	return SeasonForYear(year)
}

// CurrentSeason returns the season containing now.
func CurrentSeason() Season {
	return SeasonAt(time.Now())
}

// StartYear returns the season's first calendar year. Returns 0 for a
// malformed token.
func (s Season) StartYear() int {
	if !seasonPattern.MatchString(string(s)) {
		return 0
	}
	year, _ := strconv.Atoi(string(s)[:4])
	return year
}

func (s Season) String() string {
	return string(s)
}
