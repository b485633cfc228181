package roster

import (
	"strings"
	"testing"
)

func TestKeysAreDeterministic(t *testing.T) {
	ks := NewKeySpace()
	season := Season("2025-2026")

	tests := []struct {
		name string
		key  string
		want string
	}{
		{
			name: "owned teams",
			key:  ks.TeamsKey(7, season, TeamsOwned),
			want: "roster::teams::owned::7::2025-2026",
		},
		{
			name: "managed teams variant",
			key:  ks.TeamsKey(7, season, TeamsManaged),
			want: "roster::teams::managed::7::2025-2026",
		},
		{
			name: "managed teams listing",
			key:  ks.ManagedTeamsKey(7, season),
			want: "roster::managed_teams::7::2025-2026",
		},
		{
			name: "team players",
			key:  ks.PlayersKey(3, season, false),
			want: "roster::players::team::3::2025-2026",
		},
		{
			name: "all players ignores season",
			key:  ks.PlayersKey(7, season, true),
			want: "roster::players::all::7",
		},
		{
			name: "ratings",
			key:  ks.RatingsKey(11, 3, season),
			want: "roster::ratings::11::3::2025-2026",
		},
		{
			name: "spider",
			key:  ks.SpiderKey(11, 3, season),
			want: "roster::spider::11::3::2025-2026",
		},
		{
			name: "history spans teams and seasons",
			key:  ks.HistoryKey(11),
			want: "roster::history::11",
		},
		{
			name: "club",
			key:  ks.ClubKey(5),
			want: "roster::club::5",
		},
		{
			name: "clubs for user",
			key:  ks.ClubsKey(7),
			want: "roster::clubs::7",
		},
		{
			name: "team trainers",
			key:  ks.TeamTrainersKey(3, season),
			want: "roster::team_trainers::3::2025-2026",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.key != tt.want {
				t.Errorf("got %q, want %q", tt.key, tt.want)
			}
		})
	}
}

func TestAvailableTrainersKeySortsClubs(t *testing.T) {
	ks := NewKeySpace()

	a := ks.AvailableTrainersKey([]int64{9, 2, 5})
	b := ks.AvailableTrainersKey([]int64{5, 9, 2})
	if a != b {
		t.Errorf("club order should not matter: %q vs %q", a, b)
	}
	if want := "roster::available_trainers::2,5,9"; a != want {
		t.Errorf("got %q, want %q", a, want)
	}
}

func TestAvailableTrainersKeyDoesNotMutateInput(t *testing.T) {
	ks := NewKeySpace()
	clubs := []int64{9, 2, 5}
	ks.AvailableTrainersKey(clubs)
	if clubs[0] != 9 || clubs[1] != 2 || clubs[2] != 5 {
		t.Errorf("input slice was reordered: %v", clubs)
	}
}

func TestKeysCarryNamespace(t *testing.T) {
	ks := KeySpace{Namespace: "staging"}
	if key := ks.ClubKey(5); !strings.HasPrefix(key, "staging::") {
		t.Errorf("custom namespace ignored: %q", key)
	}
}

func TestScopedKeysDifferAcrossSeasons(t *testing.T) {
	ks := NewKeySpace()
	if ks.RatingsKey(11, 3, "2024-2025") == ks.RatingsKey(11, 3, "2025-2026") {
		t.Error("seasons must never share a ratings key")
	}
}
