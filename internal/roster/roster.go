// Package roster holds the players and teams a season is simulated with.
package roster

import (
	"fmt"
	"math/rand"

	"github.com/derekprior/laxsim/internal/config"
)

type Position int

const (
	Attack Position = iota
	Midfield
	Defense
	Goalie
)

func (p Position) String() string {
	switch p {
	case Attack:
		return "Attack"
	case Midfield:
		return "Midfield"
	case Defense:
		return "Defense"
	case Goalie:
		return "Goalie"
	default:
		return fmt.Sprintf("Position(%d)", int(p))
	}
}

// Ratings are a player's fixed abilities on a 0-100 scale.
type Ratings struct {
	Shooting int
	Passing  int
	Defense  int
	Stamina  int
}

// Stage selects which totals a game is recorded into.
type Stage int

const (
	RegularSeason Stage = iota
	Postseason
)

// Stats are cumulative totals shared by every position.
type Stats struct {
	GamesPlayed int
	Goals       int
	Assists     int
	Shots       int

	PlayerOfMatch int
}

func (s Stats) Points() int {
	return s.Goals + s.Assists
}

// GoalieStats are cumulative totals only goalies carry.
type GoalieStats struct {
	Saves        int
	GoalsAgainst int
	Minutes      int
}

// SavePercentage returns saves over shots faced, or 0 before any shots.
// It is safe to call on nil.
func (g *GoalieStats) SavePercentage() float64 {
	if g == nil {
		return 0
	}
	faced := g.Saves + g.GoalsAgainst
	if faced == 0 {
		return 0
	}
	return float64(g.Saves) / float64(faced)
}

// GoalsAgainstAverage returns goals allowed per 60 minutes played.
func (g *GoalieStats) GoalsAgainstAverage() float64 {
	if g == nil || g.Minutes == 0 {
		return 0
	}
	return float64(g.GoalsAgainst) * 60 / float64(g.Minutes)
}

type Player struct {
	Name     string
	Team     string
	Position Position
	Ratings  Ratings

	// Stats holds regular season totals and Playoff the postseason's.
	Stats   Stats
	Playoff Stats

	// Goalie and PlayoffGoalie are non-nil exactly when Position is Goalie.
	Goalie        *GoalieStats
	PlayoffGoalie *GoalieStats
}

func (p *Player) IsGoalie() bool {
	return p.Goalie != nil
}

// Totals returns the player's totals for stage. The goalie totals are nil
// for skaters.
func (p *Player) Totals(stage Stage) (*Stats, *GoalieStats) {
	if stage == Postseason {
		return &p.Playoff, p.PlayoffGoalie
	}
	return &p.Stats, p.Goalie
}

// SavePercentage returns the regular season save percentage.
func (p *Player) SavePercentage() float64 {
	return p.Goalie.SavePercentage()
}

// GoalsAgainstAverage returns the regular season goals against average.
func (p *Player) GoalsAgainstAverage() float64 {
	return p.Goalie.GoalsAgainstAverage()
}

// Overall weights a player's ratings by what their position relies on.
func (p *Player) Overall() float64 {
	r := p.Ratings
	s, pa, d, st := float64(r.Shooting), float64(r.Passing), float64(r.Defense), float64(r.Stamina)
	switch p.Position {
	case Attack:
		return s*0.45 + pa*0.3 + st*0.2 + d*0.05
	case Midfield:
		return s*0.25 + pa*0.35 + d*0.15 + st*0.25
	case Defense:
		return d*0.6 + pa*0.2 + st*0.2
	default:
		return d*0.8 + st*0.2
	}
}

type Team struct {
	Name       string
	Conference string
	Division   string
	Players    []*Player
}

// FullDivision returns the league-unique division name, e.g. "Eastern North".
func (t *Team) FullDivision() string {
	return config.TeamInfo{Name: t.Name, Conference: t.Conference, Division: t.Division}.FullDivision()
}

// StartingGoalie returns the goalie with the best defense rating, or nil
// for a team without one.
func (t *Team) StartingGoalie() *Player {
	var best *Player
	for _, p := range t.ByPosition(Goalie) {
		if best == nil || p.Ratings.Defense > best.Ratings.Defense {
			best = p
		}
	}
	return best
}

// ByPosition returns the team's players at pos in roster order.
func (t *Team) ByPosition(pos Position) []*Player {
	var out []*Player
	for _, p := range t.Players {
		if p.Position == pos {
			out = append(out, p)
		}
	}
	return out
}

// Skaters returns every player who is not a goalie.
func (t *Team) Skaters() []*Player {
	var out []*Player
	for _, p := range t.Players {
		if p.Position != Goalie {
			out = append(out, p)
		}
	}
	return out
}

type ratingRange struct{ lo, hi int }

var positionRatings = map[Position][4]ratingRange{
	Attack:   {{70, 95}, {60, 85}, {40, 65}, {70, 90}},
	Midfield: {{60, 85}, {70, 95}, {50, 75}, {75, 95}},
	Defense:  {{40, 65}, {50, 70}, {80, 95}, {65, 85}},
	Goalie:   {{10, 30}, {40, 60}, {85, 95}, {60, 80}},
}

var lineup = []struct {
	pos   Position
	count int
}{
	{Attack, 4},
	{Midfield, 4},
	{Defense, 4},
	{Goalie, 2},
}

// NewPlayer draws ratings for pos from its position's ranges.
func NewPlayer(name, team string, pos Position, rng *rand.Rand) *Player {
	draw := func(r ratingRange) int { return r.lo + rng.Intn(r.hi-r.lo+1) }
	ranges := positionRatings[pos]
	p := &Player{
		Name:     name,
		Team:     team,
		Position: pos,
		Ratings: Ratings{
			Shooting: draw(ranges[0]),
			Passing:  draw(ranges[1]),
			Defense:  draw(ranges[2]),
			Stamina:  draw(ranges[3]),
		},
	}
	if pos == Goalie {
		p.Goalie = &GoalieStats{}
		p.PlayoffGoalie = &GoalieStats{}
	}
	return p
}

// Registry owns every team and player of one season.
type Registry struct {
	teams []*Team
	index map[string]*Team
}

// NewRegistry builds a full roster for each team. Ratings come from rng,
// so a fixed seed reproduces the same league.
func NewRegistry(teams []config.TeamInfo, rng *rand.Rand) *Registry {
	r := &Registry{index: make(map[string]*Team, len(teams))}
	for _, info := range teams {
		t := &Team{Name: info.Name, Conference: info.Conference, Division: info.Division}
		for _, slot := range lineup {
			for i := 1; i <= slot.count; i++ {
				name := fmt.Sprintf("%s %s %d", info.Name, slot.pos, i)
				t.Players = append(t.Players, NewPlayer(name, info.Name, slot.pos, rng))
			}
		}
		r.teams = append(r.teams, t)
		r.index[t.Name] = t
	}
	return r
}

// Team looks up a team by name.
func (r *Registry) Team(name string) (*Team, bool) {
	t, ok := r.index[name]
	return t, ok
}

// Teams returns every team in configuration order.
func (r *Registry) Teams() []*Team {
	return r.teams
}

// Players returns every player in the league.
func (r *Registry) Players() []*Player {
	var out []*Player
	for _, t := range r.teams {
		out = append(out, t.Players...)
	}
	return out
}
