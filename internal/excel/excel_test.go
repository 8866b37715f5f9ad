package excel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/derekprior/laxsim/internal/config"
	"github.com/derekprior/laxsim/internal/schedule"
	"github.com/derekprior/laxsim/internal/season"
	"github.com/derekprior/laxsim/internal/strategy"
)

func date(y, m, d int) config.Date {
	return config.Date{Time: time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)}
}

func testData() (*config.Config, *schedule.Result) {
	cfg := &config.Config{
		Season: config.Season{
			StartDate: date(2026, 6, 6),
			Weeks:     3,
			BlackoutDates: []config.BlackoutDate{
				{Date: date(2026, 6, 13), Reason: "Tournament Weekend"},
			},
		},
		Conferences: []config.Conference{{
			Name: "Eastern",
			Divisions: []config.Division{
				{Name: "North", Teams: []string{"Buffalo Glacier", "Toronto Ironhawks", "Montreal Sentries", "Boston Riptide"}},
			},
		}},
		Rules: config.Rules{MaxGamesPerWeek: 2},
	}

	game := func(label, home, away string) strategy.Game {
		return strategy.Game{Home: home, Away: away, Label: label, Kind: strategy.KindDivision}
	}
	result := &schedule.Result{
		Weeks: [][]strategy.Game{
			{game("Game 1", "Buffalo Glacier", "Toronto Ironhawks"), game("Game 2", "Montreal Sentries", "Boston Riptide")},
			{game("Game 3", "Buffalo Glacier", "Montreal Sentries")},
			{game("Game 4", "Toronto Ironhawks", "Boston Riptide")},
		},
		Unplaced: []strategy.Game{game("Game 5", "Boston Riptide", "Buffalo Glacier")},
	}
	return cfg, result
}

func TestGenerateWorkbook(t *testing.T) {
	cfg, result := testData()
	f, err := Generate(cfg, result, schedule.GameDays(cfg))
	require.NoError(t, err)

	t.Run("master sheet has headers", func(t *testing.T) {
		val, _ := f.GetCellValue(masterSheet, "A1")
		assert.Equal(t, "Week", val)
		val, _ = f.GetCellValue(masterSheet, "D1")
		assert.Equal(t, "Game", val)
	})

	t.Run("master sheet has game rows", func(t *testing.T) {
		rows, _ := f.GetRows(masterSheet)
		var found []string
		for _, row := range rows[1:] {
			if len(row) >= 5 && row[3] == "Toronto Ironhawks @ Buffalo Glacier" {
				found = row
			}
		}
		require.NotNil(t, found, "Toronto @ Buffalo not found in master sheet")
		assert.Equal(t, []string{"1", "06/06/2026", "Sat", "Toronto Ironhawks @ Buffalo Glacier", "division"}, found[:5])
	})

	t.Run("skipped game day shown in date order", func(t *testing.T) {
		rows, _ := f.GetRows(masterSheet)
		// header, two week-1 games, blackout, week 2, week 3
		require.Len(t, rows, 6)
		assert.Equal(t, "", rows[3][0])
		assert.Equal(t, "06/13/2026", rows[3][1])
		assert.Equal(t, "Tournament Weekend", rows[3][3])
		assert.Equal(t, "06/20/2026", rows[4][1])
	})

	t.Run("unscheduled sheet lists unplaced games", func(t *testing.T) {
		val, _ := f.GetCellValue(unscheduledSheet, "A2")
		assert.Equal(t, "Buffalo Glacier @ Boston Riptide", val)
	})

	t.Run("team sheet shows games and byes", func(t *testing.T) {
		rows, _ := f.GetRows("Boston Riptide")
		require.Len(t, rows, 4, "header + 3 weeks")
		assert.Equal(t, []string{"Montreal Sentries", "Away"}, rows[1][2:4])
		assert.Equal(t, "BYE", rows[2][2])
		assert.Equal(t, []string{"Toronto Ironhawks", "Away"}, rows[3][2:4])
	})

	t.Run("default Sheet1 removed", func(t *testing.T) {
		idx, _ := f.GetSheetIndex("Sheet1")
		assert.Negative(t, idx)
	})
}

func TestNoUnscheduledSheetWhenComplete(t *testing.T) {
	cfg, result := testData()
	result.Unplaced = nil
	f, err := Generate(cfg, result, schedule.GameDays(cfg))
	require.NoError(t, err)
	idx, _ := f.GetSheetIndex(unscheduledSheet)
	assert.Negative(t, idx, "Unscheduled sheet should only exist when games are unplaced")
}

func TestWriteAndRead(t *testing.T) {
	cfg, result := testData()
	f, err := Generate(cfg, result, schedule.GameDays(cfg))
	require.NoError(t, err)

	path := t.TempDir() + "/test.xlsx"
	require.NoError(t, f.SaveAs(path))

	f2, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f2.Close()

	games, err := ReadMaster(f2)
	require.NoError(t, err)
	require.Len(t, games, 4)

	weeks := Weeks(games, cfg.Season.Weeks)
	for w := range result.Weeks {
		require.Len(t, weeks[w], len(result.Weeks[w]), "week %d", w+1)
		for i, g := range weeks[w] {
			want := result.Weeks[w][i]
			assert.Equal(t, want.Home, g.Home, "week %d game %d", w+1, i)
			assert.Equal(t, want.Away, g.Away, "week %d game %d", w+1, i)
			assert.Equal(t, want.Kind, g.Kind, "week %d game %d", w+1, i)
		}
	}
	assert.Equal(t, "row 2", games[0].Game.Label)
}

func TestReadMasterRejectsMalformedRows(t *testing.T) {
	tests := []struct {
		name string
		row  []any
	}{
		{"bad week", []any{"one", "06/06/2026", "Sat", "A @ B", "division"}},
		{"bad date", []any{1, "June 6", "Sat", "A @ B", "division"}},
		{"not a game", []any{1, "06/06/2026", "Sat", "A vs B", "division"}},
		{"bad type", []any{1, "06/06/2026", "Sat", "A @ B", "exhibition"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := excelize.NewFile()
			f.NewSheet(masterSheet)
			f.SetSheetRow(masterSheet, "A1", &[]any{"Week", "Date", "Day", "Game", "Type"})
			f.SetSheetRow(masterSheet, "A2", &tt.row)
			_, err := ReadMaster(f)
			assert.Error(t, err)
		})
	}
}

func TestUpdateTeamSheets(t *testing.T) {
	cfg, result := testData()
	f, err := Generate(cfg, result, schedule.GameDays(cfg))
	require.NoError(t, err)
	// Hand edit the week 1 opponent on the master sheet.
	f.SetCellValue(masterSheet, "D2", "Boston Riptide @ Buffalo Glacier")

	path := t.TempDir() + "/edited.xlsx"
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, UpdateTeamSheets(path, cfg))

	f2, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f2.Close()
	val, _ := f2.GetCellValue("Buffalo Glacier", "C2")
	assert.Equal(t, "Boston Riptide", val)
	val, _ = f2.GetCellValue("Toronto Ironhawks", "C2")
	assert.Equal(t, "BYE", val)
}

func TestGenerateSeason(t *testing.T) {
	cfg, err := config.LoadFromBytes([]byte(`
season:
  start_date: "2026-06-06"
  weeks: 3
conferences:
  - name: Eastern
    divisions:
      - name: North
        teams: [Buffalo Glacier, Toronto Ironhawks, Montreal Sentries, Boston Riptide]
matchups:
  intra_division: 1
rules:
  max_games_per_week: 2
playoffs:
  teams_per_conference: 2
`))
	require.NoError(t, err)
	s, err := season.Build(cfg, zap.NewNop())
	require.NoError(t, err)
	reports, err := s.SimulateAll()
	require.NoError(t, err)

	f, err := GenerateSeason(s, reports)
	require.NoError(t, err)

	for _, sheet := range []string{masterSheet, "Results", "Standings", "Player Stats", "Playoffs", "Playoff Stats"} {
		idx, _ := f.GetSheetIndex(sheet)
		assert.GreaterOrEqual(t, idx, 0, "missing sheet %s", sheet)
	}

	t.Run("one result row per game", func(t *testing.T) {
		rows, _ := f.GetRows("Results")
		assert.Len(t, rows, 1+6+1, "header + 6 regular + 1 final")
	})

	t.Run("standings list every team", func(t *testing.T) {
		rows, _ := f.GetRows("Standings")
		assert.Len(t, rows, 5)
	})

	t.Run("player stats include goalie rates", func(t *testing.T) {
		rows, _ := f.GetRows("Player Stats")
		require.Len(t, rows, 1+4*14)
		assert.Equal(t, "OVR", rows[0][3])
		goalies := 0
		for _, row := range rows[1:] {
			assert.NotEmpty(t, row[3], "overall rating for %s", row[1])
			if row[2] == "Goalie" {
				goalies++
				require.GreaterOrEqual(t, len(row), 13, "goalie row %v", row)
				assert.NotEmpty(t, row[11], "save percentage for %s", row[1])
			}
		}
		assert.Equal(t, 8, goalies)
	})

	t.Run("playoff stats cover only the finalists", func(t *testing.T) {
		rows, _ := f.GetRows("Playoff Stats")
		// 12 skaters and the starting goalie from each finalist
		require.Len(t, rows, 1+2*13)
		final := s.PlayoffResults()[0]
		for _, row := range rows[1:] {
			assert.Contains(t, []string{final.Home, final.Away}, row[0])
			assert.Equal(t, "1", row[4], "games played for %s", row[1])
		}
	})

	t.Run("playoff sheet names the champion", func(t *testing.T) {
		champ, ok := s.Champion()
		require.True(t, ok, "no champion")
		val, _ := f.GetCellValue("Playoffs", "F2")
		assert.Equal(t, champ.Team, val)
		val, _ = f.GetCellValue("Playoffs", "A2")
		assert.Equal(t, "Championship", val)
	})
}
