// Package standings tracks team records and orders them for display and
// playoff seeding.
package standings

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/derekprior/laxsim/internal/config"
	"github.com/derekprior/laxsim/internal/match"
)

// Record is one team's regular-season record.
type Record struct {
	Team       string
	Conference string
	Division   string

	GamesPlayed    int
	Wins           int
	Losses         int
	OvertimeLosses int
	GoalsFor       int
	GoalsAgainst   int
}

// Points awards two for a win and one for an overtime loss.
func (r Record) Points() int {
	return 2*r.Wins + r.OvertimeLosses
}

func (r Record) GoalDiff() int {
	return r.GoalsFor - r.GoalsAgainst
}

// FullDivision returns the league-unique division name.
func (r Record) FullDivision() string {
	return config.TeamInfo{Conference: r.Conference, Division: r.Division}.FullDivision()
}

// Table accumulates results into records.
type Table struct {
	records map[string]*Record
	order   []string
}

func NewTable(teams []config.TeamInfo) *Table {
	t := &Table{records: make(map[string]*Record, len(teams))}
	for _, info := range teams {
		t.records[info.Name] = &Record{Team: info.Name, Conference: info.Conference, Division: info.Division}
		t.order = append(t.order, info.Name)
	}
	return t
}

// Record adds a finished game to both teams' records.
func (t *Table) Record(r match.Result) error {
	home, ok := t.records[r.Home]
	if !ok {
		return fmt.Errorf("recording %s @ %s: unknown team %q", r.Away, r.Home, r.Home)
	}
	away, ok := t.records[r.Away]
	if !ok {
		return fmt.Errorf("recording %s @ %s: unknown team %q", r.Away, r.Home, r.Away)
	}
	if r.HomeScore == r.AwayScore {
		return fmt.Errorf("recording %s @ %s: game ended tied %d-%d", r.Away, r.Home, r.HomeScore, r.AwayScore)
	}

	home.GamesPlayed++
	away.GamesPlayed++
	home.GoalsFor += r.HomeScore
	home.GoalsAgainst += r.AwayScore
	away.GoalsFor += r.AwayScore
	away.GoalsAgainst += r.HomeScore

	winner, loser := home, away
	if r.AwayScore > r.HomeScore {
		winner, loser = away, home
	}
	winner.Wins++
	if r.Overtime {
		loser.OvertimeLosses++
	} else {
		loser.Losses++
	}
	return nil
}

// Get returns a copy of a team's record.
func (t *Table) Get(team string) (Record, bool) {
	r, ok := t.records[team]
	if !ok {
		return Record{}, false
	}
	return *r, true
}

// Standings returns every record, best first.
func (t *Table) Standings() []Record {
	return t.filter(func(Record) bool { return true })
}

// Division returns the records of one division, named in full
// ("Eastern North"), best first.
func (t *Table) Division(fullName string) []Record {
	return t.filter(func(r Record) bool { return r.FullDivision() == fullName })
}

// Conference returns the records of one conference, best first.
func (t *Table) Conference(name string) []Record {
	return t.filter(func(r Record) bool { return r.Conference == name })
}

func (t *Table) filter(keep func(Record) bool) []Record {
	var out []Record
	for _, name := range t.order {
		if r := *t.records[name]; keep(r) {
			out = append(out, r)
		}
	}
	Sort(out)
	return out
}

// Sort orders records by points, goal differential, and wins, all
// descending, then by team name so the order is total.
func Sort(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Points() != b.Points() {
			return a.Points() > b.Points()
		}
		if a.GoalDiff() != b.GoalDiff() {
			return a.GoalDiff() > b.GoalDiff()
		}
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		return a.Team < b.Team
	})
}

// Summary describes scoring across a set of games.
type Summary struct {
	Games         int
	OvertimeGames int
	MeanGoals     float64
	StdDevGoals   float64
	HomeWins      int
}

// Summarize computes league-wide scoring statistics.
func Summarize(results []match.Result) Summary {
	s := Summary{Games: len(results)}
	if len(results) == 0 {
		return s
	}
	totals := make([]float64, len(results))
	for i, r := range results {
		totals[i] = float64(r.HomeScore + r.AwayScore)
		if r.Overtime {
			s.OvertimeGames++
		}
		if r.HomeScore > r.AwayScore {
			s.HomeWins++
		}
	}
	if len(totals) < 2 {
		s.MeanGoals = totals[0]
		return s
	}
	s.MeanGoals, s.StdDevGoals = stat.MeanStdDev(totals, nil)
	return s
}
