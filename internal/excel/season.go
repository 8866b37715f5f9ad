package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/laxsim/internal/match"
	"github.com/derekprior/laxsim/internal/roster"
	"github.com/derekprior/laxsim/internal/season"
	"github.com/derekprior/laxsim/internal/standings"
)

// GenerateSeason creates the schedule workbook for a simulated season and
// adds its results, standings, player stats, and playoff sheets. Playoff
// player totals get their own sheet once the bracket is seeded.
func GenerateSeason(s *season.Season, reports []*season.WeekReport) (*excelize.File, error) {
	f, err := Generate(s.Config(), s.Schedule(), s.GameDays())
	if err != nil {
		return nil, err
	}
	if err := writeResultsSheet(f, reports); err != nil {
		return nil, fmt.Errorf("writing results sheet: %w", err)
	}
	if err := writeStandingsSheet(f, s); err != nil {
		return nil, fmt.Errorf("writing standings sheet: %w", err)
	}
	if err := writePlayerSheet(f, s.Registry()); err != nil {
		return nil, fmt.Errorf("writing player stats sheet: %w", err)
	}
	if err := writePlayoffSheet(f, s); err != nil {
		return nil, fmt.Errorf("writing playoffs sheet: %w", err)
	}
	if s.Bracket() != nil {
		if err := writePlayoffStatsSheet(f, s.Registry()); err != nil {
			return nil, fmt.Errorf("writing playoff stats sheet: %w", err)
		}
	}
	return f, nil
}

func score(r match.Result) string {
	s := fmt.Sprintf("%d-%d", r.HomeScore, r.AwayScore)
	if r.Overtime {
		s += " (OT)"
	}
	return s
}

func writeResultsSheet(f *excelize.File, reports []*season.WeekReport) error {
	var rows [][]any
	for _, rep := range reports {
		for _, g := range rep.Games {
			rows = append(rows, []any{
				rep.Week, rep.Date.Format(dateLayout), string(rep.Phase), rep.Round,
				g.Home, score(g), g.Away, g.Winner(), g.PlayerOfMatch,
			})
		}
	}
	headers := []string{"Week", "Date", "Phase", "Round", "Home", "Score", "Away", "Winner", "Player of the Match"}
	return writeTable(f, "Results", headers, rows, []float64{8, 16, 18, 26, 26, 14, 26, 26, 40})
}

func writeStandingsSheet(f *excelize.File, s *season.Season) error {
	var rows [][]any
	for _, conf := range s.Config().Conferences {
		for _, div := range conf.Divisions {
			for _, r := range s.Table().Division(conf.Name + " " + div.Name) {
				rows = append(rows, standingsRow(r))
			}
		}
	}
	headers := []string{"Conference", "Division", "Team", "GP", "W", "L", "OTL", "PTS", "GF", "GA", "DIFF"}
	return writeTable(f, "Standings", headers, rows, []float64{14, 12, 26, 6, 6, 6, 6, 6, 6, 6, 8})
}

func standingsRow(r standings.Record) []any {
	return []any{
		r.Conference, r.Division, r.Team,
		r.GamesPlayed, r.Wins, r.Losses, r.OvertimeLosses, r.Points(),
		r.GoalsFor, r.GoalsAgainst, r.GoalDiff(),
	}
}

var playerHeaders = []string{"Team", "Player", "Position", "OVR", "GP", "G", "A", "PTS", "Shots", "Saves", "GA", "SV%", "GAA", "POM"}

var playerWidths = []float64{26, 40, 12, 6, 6, 6, 6, 6, 8, 8, 6, 8, 8, 6}

// playerRows lists each player's totals for stage. Players who did not
// appear are left out of the postseason.
func playerRows(players []*roster.Player, stage roster.Stage) [][]any {
	var rows [][]any
	for _, p := range players {
		stats, goalie := p.Totals(stage)
		if stage == roster.Postseason && stats.GamesPlayed == 0 {
			continue
		}
		row := []any{
			p.Team, p.Name, p.Position.String(), fmt.Sprintf("%.0f", p.Overall()), stats.GamesPlayed,
			stats.Goals, stats.Assists, stats.Points(), stats.Shots,
		}
		if goalie != nil {
			row = append(row, goalie.Saves, goalie.GoalsAgainst,
				fmt.Sprintf("%.3f", goalie.SavePercentage()), fmt.Sprintf("%.2f", goalie.GoalsAgainstAverage()))
		} else {
			row = append(row, "", "", "", "")
		}
		row = append(row, stats.PlayerOfMatch)
		rows = append(rows, row)
	}
	return rows
}

func writePlayerSheet(f *excelize.File, reg *roster.Registry) error {
	return writeTable(f, "Player Stats", playerHeaders, playerRows(reg.Players(), roster.RegularSeason), playerWidths)
}

func writePlayoffStatsSheet(f *excelize.File, reg *roster.Registry) error {
	return writeTable(f, "Playoff Stats", playerHeaders, playerRows(reg.Players(), roster.Postseason), playerWidths)
}

func writePlayoffSheet(f *excelize.File, s *season.Season) error {
	var rows [][]any
	if b := s.Bracket(); b != nil {
		for _, round := range b.Rounds() {
			for _, g := range round.Games {
				row := []any{round.Name, g.Conference, g.High.String(), g.Low.String(), "", ""}
				if w, ok := g.Winner(); ok {
					row[4] = score(*g.Result)
					row[5] = w.Team
				}
				rows = append(rows, row)
			}
		}
	}
	headers := []string{"Round", "Conference", "Home", "Away", "Score", "Winner"}
	return writeTable(f, "Playoffs", headers, rows, []float64{26, 14, 30, 30, 14, 26})
}
