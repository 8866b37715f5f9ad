package validator

import (
	"fmt"
	"math"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/laxsim/internal/config"
	"github.com/derekprior/laxsim/internal/excel"
	"github.com/derekprior/laxsim/internal/schedule"
	"github.com/derekprior/laxsim/internal/strategy"
)

// Violation represents a constraint violation found during validation.
type Violation struct {
	Row     int
	Type    string // "error" or "warning"
	Message string
	Weeks   int // for rematch violations: weeks between games (0 = not applicable)
}

// Validate reads a schedule Excel file and checks it against the config rules.
func Validate(cfg *config.Config, path string) ([]Violation, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	games, err := excel.ReadMaster(f)
	if err != nil {
		return nil, fmt.Errorf("reading schedule: %w", err)
	}
	return check(cfg, games)
}

func check(cfg *config.Config, games []excel.ScheduledGame) ([]Violation, error) {
	strat, err := strategy.Get(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	expected, err := strat.GenerateMatchups(cfg.Teams(), cfg.Matchups)
	if err != nil {
		return nil, fmt.Errorf("generating matchups: %w", err)
	}
	weeks := excel.Weeks(games, cfg.Season.Weeks)

	var violations []Violation

	// Check hard constraints
	violations = append(violations, checkWeeks(cfg, weeks, games, expected)...)
	violations = append(violations, checkMatchups(expected, games)...)
	violations = append(violations, checkSeasonLength(cfg, games)...)

	// Check soft constraints
	violations = append(violations, checkGameDates(cfg, games)...)
	violations = append(violations, checkRematchProximity(cfg, games)...)
	violations = append(violations, checkConsecutiveByes(cfg, weeks)...)
	violations = append(violations, checkByeBalance(cfg, weeks)...)

	return violations, nil
}

// checkWeeks runs the schedule verifier over the sheet: no team twice in
// a week, no week over capacity, and every team's game counts as generated.
func checkWeeks(cfg *config.Config, weeks [][]strategy.Game, games []excel.ScheduledGame, expected []strategy.Game) []Violation {
	var violations []Violation
	for _, p := range schedule.Verify(weeks, cfg.Rules.MaxGamesPerWeek, strategy.Tally(expected)).Problems {
		v := Violation{Type: "error", Message: p.String()}
		if p.Week >= 0 {
			v.Row = firstRowOfWeek(games, p.Week)
		}
		violations = append(violations, v)
	}
	return violations
}

func firstRowOfWeek(games []excel.ScheduledGame, week int) int {
	for _, g := range games {
		if g.Week == week {
			return g.Row
		}
	}
	return 0
}

// checkMatchups compares the sheet's games to the generated matchups as
// multisets of (home, away, type).
func checkMatchups(expected []strategy.Game, games []excel.ScheduledGame) []Violation {
	type key struct {
		home, away string
		kind       strategy.Kind
	}
	want := make(map[key]int)
	for _, g := range expected {
		want[key{g.Home, g.Away, g.Kind}]++
	}

	var violations []Violation
	for _, g := range games {
		k := key{g.Game.Home, g.Game.Away, g.Game.Kind}
		if want[k] == 0 {
			violations = append(violations, Violation{
				Row:     g.Row,
				Type:    "error",
				Message: fmt.Sprintf("unexpected %s game %s", g.Game.Kind, g.Game),
			})
			continue
		}
		want[k]--
	}

	var missing []string
	for k, n := range want {
		for i := 0; i < n; i++ {
			missing = append(missing, fmt.Sprintf("%s @ %s (%s)", k.away, k.home, k.kind))
		}
	}
	sort.Strings(missing)
	for _, m := range missing {
		violations = append(violations, Violation{Type: "error", Message: "missing game " + m})
	}
	return violations
}

func checkSeasonLength(cfg *config.Config, games []excel.ScheduledGame) []Violation {
	var violations []Violation
	for _, g := range games {
		if g.Week >= cfg.Season.Weeks {
			violations = append(violations, Violation{
				Row:  g.Row,
				Type: "error",
				Message: fmt.Sprintf("%s is in week %d but the regular season has %d weeks",
					g.Game, g.Week+1, cfg.Season.Weeks),
			})
		}
	}
	return violations
}

func checkGameDates(cfg *config.Config, games []excel.ScheduledGame) []Violation {
	days := schedule.GameDays(cfg)
	var violations []Violation
	for _, g := range games {
		if g.Week >= len(days) || g.Date.Equal(days[g.Week]) {
			continue
		}
		violations = append(violations, Violation{
			Row:  g.Row,
			Type: "warning",
			Message: fmt.Sprintf("%s is dated %s but week %d is %s",
				g.Game, g.Date.Format("01/02"), g.Week+1, days[g.Week].Format("01/02")),
		})
	}
	return violations
}

func checkRematchProximity(cfg *config.Config, games []excel.ScheduledGame) []Violation {
	if cfg.Guidelines.MinWeeksBetweenRematch <= 0 {
		return nil
	}

	type matchup struct{ a, b string }
	matchWeeks := make(map[matchup][]int)
	for _, g := range games {
		a, b := g.Game.Home, g.Game.Away
		if a > b {
			a, b = b, a
		}
		matchWeeks[matchup{a, b}] = append(matchWeeks[matchup{a, b}], g.Week)
	}

	var violations []Violation
	for mk, weeks := range matchWeeks {
		sort.Ints(weeks)
		for i := 1; i < len(weeks); i++ {
			gap := weeks[i] - weeks[i-1]
			if gap < cfg.Guidelines.MinWeeksBetweenRematch {
				violations = append(violations, Violation{
					Type:  "warning",
					Weeks: gap,
					Message: fmt.Sprintf("%s vs %s rematch after %d weeks (min %d): weeks %d and %d",
						mk.a, mk.b, gap, cfg.Guidelines.MinWeeksBetweenRematch, weeks[i-1]+1, weeks[i]+1),
				})
			}
		}
	}
	// Sort by severity: fewest weeks (worst) first
	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].Weeks != violations[j].Weeks {
			return violations[i].Weeks < violations[j].Weeks
		}
		return violations[i].Message < violations[j].Message
	})
	return violations
}

func checkConsecutiveByes(cfg *config.Config, weeks [][]strategy.Game) []Violation {
	limit := cfg.Guidelines.MaxConsecutiveByes
	if limit <= 0 {
		return nil
	}

	var violations []Violation
	metrics := schedule.Metrics(cfg.AllTeams(), weeks)
	for _, team := range cfg.AllTeams() {
		byes := metrics[team].ByeWeeks
		run := 1
		for i := 1; i <= len(byes); i++ {
			if i < len(byes) && byes[i] == byes[i-1]+1 {
				run++
				continue
			}
			if run > limit {
				violations = append(violations, Violation{
					Type: "warning",
					Message: fmt.Sprintf("%s has %d consecutive byes ending week %d (max %d)",
						team, run, byes[i-1]+1, limit),
				})
			}
			run = 1
		}
	}
	return violations
}

func checkByeBalance(cfg *config.Config, weeks [][]strategy.Game) []Violation {
	metrics := schedule.Metrics(cfg.AllTeams(), weeks)
	maxByes, minByes := 0, math.MaxInt
	for _, m := range metrics {
		maxByes = max(maxByes, len(m.ByeWeeks))
		minByes = min(minByes, len(m.ByeWeeks))
	}
	if len(metrics) > 0 && maxByes-minByes > 1 {
		return []Violation{{
			Type:    "warning",
			Message: fmt.Sprintf("bye imbalance: min %d, max %d across teams", minByes, maxByes),
		}}
	}
	return nil
}
