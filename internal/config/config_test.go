package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

const testConfigYAML = `
season:
  name: "2026 Season"
  start_date: "2026-06-06"
  weeks: 14
  blackout_dates:
    - date: "2026-07-04"
      reason: "Independence Day"

conferences:
  - name: Eastern
    divisions:
      - name: North
        teams: [Buffalo Glacier, Toronto Ironhawks, Montreal Sentries, Boston Riptide]
      - name: South
        teams: [Richmond Rebellion, Louisville Stampede, Atlanta Firewing, Charlotte Thunder]
  - name: Western
    divisions:
      - name: North
        teams: [Minneapolis Chill, Calgary Nightwolves, Spokane Tempest, Seattle Storm]
      - name: South
        teams: [San Jose Quakebirds, Phoenix Dustrunners, El Paso Vortex, Denver Rapids]

strategy: conference_weighted

matchups:
  intra_division: 2
  inter_division: 1
  inter_conference: 2
  inter_conference_pairs:
    - [Buffalo Glacier, Minneapolis Chill]

rules:
  max_games_per_week: 8

guidelines:
  min_weeks_between_rematch: 3
  max_consecutive_byes: 1

scheduler:
  seed: 42

playoffs:
  teams_per_conference: 4

log:
  level: debug
`

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(testConfigYAML))
	require.NoError(t, err)

	t.Run("season", func(t *testing.T) {
		assert.Equal(t, mustDate("2026-06-06"), cfg.Season.StartDate.Time)
		assert.Equal(t, 14, cfg.Season.Weeks)
		assert.Equal(t, "2026 Season", cfg.Season.Name)
	})

	t.Run("blackout dates", func(t *testing.T) {
		require.Len(t, cfg.Season.BlackoutDates, 1)
		reason, ok := cfg.IsBlackout(mustDate("2026-07-04"))
		assert.True(t, ok)
		assert.Equal(t, "Independence Day", reason)
		_, ok = cfg.IsBlackout(mustDate("2026-07-05"))
		assert.False(t, ok, "2026-07-05 should not be a blackout")
	})

	t.Run("teams", func(t *testing.T) {
		teams := cfg.Teams()
		require.Len(t, teams, 16)
		assert.Equal(t, TeamInfo{Name: "Buffalo Glacier", Conference: "Eastern", Division: "North"}, teams[0])
		assert.Equal(t, "Eastern North", teams[0].FullDivision())
		assert.Len(t, cfg.AllTeams(), 16)
		assert.Equal(t, []string{"Eastern", "Western"}, cfg.ConferenceNames())
	})

	t.Run("matchups", func(t *testing.T) {
		m := cfg.Matchups
		assert.Equal(t, 2, m.IntraDivision)
		assert.Equal(t, 1, m.InterDivision)
		assert.Equal(t, 2, m.InterConference)
		assert.Equal(t, [][]string{{"Buffalo Glacier", "Minneapolis Chill"}}, m.InterConferencePairs)
	})

	t.Run("defaults", func(t *testing.T) {
		assert.Equal(t, 20, cfg.Scheduler.Attempts)
		assert.Equal(t, 5000, cfg.Scheduler.Budget)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "console", cfg.Log.Format)
	})

	t.Run("playoff weeks", func(t *testing.T) {
		assert.Equal(t, 3, cfg.PlayoffWeeks())
	})
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		replace [2]string
		wantErr string
	}{
		{
			name:    "zero weeks",
			replace: [2]string{"weeks: 14", "weeks: 0"},
			wantErr: "weeks must be positive",
		},
		{
			name:    "zero capacity",
			replace: [2]string{"max_games_per_week: 8", "max_games_per_week: 0"},
			wantErr: "max_games_per_week",
		},
		{
			name:    "duplicate team",
			replace: [2]string{"Boston Riptide]", "Charlotte Thunder]"},
			wantErr: "appears in both",
		},
		{
			name:    "pairing within one conference",
			replace: [2]string{"[Buffalo Glacier, Minneapolis Chill]", "[Buffalo Glacier, Boston Riptide]"},
			wantErr: "both in",
		},
		{
			name:    "pairing with unknown team",
			replace: [2]string{"[Buffalo Glacier, Minneapolis Chill]", "[Buffalo Glacier, Nowhere]"},
			wantErr: "unknown team",
		},
		{
			name:    "playoff size not a power of two",
			replace: [2]string{"teams_per_conference: 4", "teams_per_conference: 3"},
			wantErr: "power of two",
		},
		{
			name:    "more playoff spots than teams",
			replace: [2]string{"teams_per_conference: 4", "teams_per_conference: 16"},
			wantErr: "fewer than 16 playoff spots",
		},
		{
			name:    "playoffs with three conferences",
			replace: [2]string{"\nstrategy:", "  - name: Central\n    divisions:\n      - name: North\n        teams: [Omaha Prairie, Tulsa Twisters]\n\nstrategy:"},
			wantErr: "at most 2 conferences",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yaml := strings.Replace(testConfigYAML, tt.replace[0], tt.replace[1], 1)
			_, err := LoadFromBytes([]byte(yaml))
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}

	t.Run("missing start date", func(t *testing.T) {
		_, err := LoadFromBytes([]byte("season:\n  weeks: 3\n"))
		assert.Error(t, err)
	})

	t.Run("invalid date", func(t *testing.T) {
		yaml := strings.Replace(testConfigYAML, `"2026-06-06"`, `"June 6"`, 1)
		_, err := LoadFromBytes([]byte(yaml))
		assert.ErrorContains(t, err, "invalid date")
	})
}

func TestLoadFromFile(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFromFile(t.TempDir() + "/nope.yaml")
		assert.Error(t, err)
	})
}
