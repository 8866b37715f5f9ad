// Package match simulates a single lacrosse game shot by shot.
package match

import (
	"math"
	"math/rand"
	"sort"

	"github.com/derekprior/laxsim/internal/roster"
)

const (
	regulationMinutes = 60
	baseShots         = 30
	baseGoalChance    = 0.3
	assistChance      = 0.7
)

// PlayerLine is one player's contribution to a single game.
type PlayerLine struct {
	Player       *roster.Player
	Goals        int
	Assists      int
	Shots        int
	Saves        int
	GoalsAgainst int
}

// Impact scores a line for player-of-the-match selection.
func (l PlayerLine) Impact() float64 {
	return float64(l.Goals*4+l.Assists*3) + float64(l.Saves)*0.5
}

// Result is the outcome of a game. Overtime games always have a winner.
type Result struct {
	Home      string
	Away      string
	HomeScore int
	AwayScore int
	HomeShots int
	AwayShots int

	Overtime        bool
	OvertimeMinutes int

	PlayerOfMatch string
	Lines         []PlayerLine
}

func (r Result) Winner() string {
	if r.HomeScore > r.AwayScore {
		return r.Home
	}
	return r.Away
}

func (r Result) Loser() string {
	if r.HomeScore > r.AwayScore {
		return r.Away
	}
	return r.Home
}

// Simulator plays games with a caller-supplied random source so a season
// can be replayed from its seed.
type Simulator struct {
	rng *rand.Rand
}

func NewSimulator(rng *rand.Rand) *Simulator {
	return &Simulator{rng: rng}
}

// side is one team's state during a game.
type side struct {
	team    *roster.Team
	skaters []*roster.Player
	goalie  *roster.Player
	lines   map[*roster.Player]*PlayerLine
	score   int
	shots   int
}

func newSide(t *roster.Team) *side {
	s := &side{
		team:    t,
		skaters: t.Skaters(),
		goalie:  t.StartingGoalie(),
		lines:   make(map[*roster.Player]*PlayerLine),
	}
	for _, p := range s.skaters {
		s.lines[p] = &PlayerLine{Player: p}
	}
	if s.goalie != nil {
		s.lines[s.goalie] = &PlayerLine{Player: s.goalie}
	}
	return s
}

// Play simulates home against away and adds the game to every
// participating player's totals for stage.
func (s *Simulator) Play(home, away *roster.Team, stage roster.Stage) Result {
	h, a := newSide(home), newSide(away)

	homeShots := s.shotCount(home, away)
	awayShots := s.shotCount(away, home)
	for i := 0; i < homeShots; i++ {
		s.shoot(h, a)
	}
	for i := 0; i < awayShots; i++ {
		s.shoot(a, h)
	}

	r := Result{Home: home.Name, Away: away.Name}
	for h.score == a.score {
		r.Overtime = true
		r.OvertimeMinutes++
		first, second := h, a
		if s.rng.Intn(2) == 1 {
			first, second = a, h
		}
		if s.shoot(first, second) {
			break
		}
		s.shoot(second, first)
	}

	r.HomeScore, r.AwayScore = h.score, a.score
	r.HomeShots, r.AwayShots = h.shots, a.shots
	minutes := regulationMinutes + r.OvertimeMinutes
	for _, sd := range []*side{h, a} {
		r.Lines = append(r.Lines, sd.record(minutes, stage)...)
	}
	if mvp := s.playerOfMatch(r.Lines); mvp != nil {
		stats, _ := mvp.Totals(stage)
		stats.PlayerOfMatch++
		r.PlayerOfMatch = mvp.Name
	}
	return r
}

// shotCount scales the base shot volume by attacking strength over
// defending strength.
func (s *Simulator) shotCount(attack, defend *roster.Team) int {
	ratio := offense(attack) / math.Max(defense(defend), 1)
	return int(math.Round(baseShots * ratio * (0.8 + 0.4*s.rng.Float64())))
}

func offense(t *roster.Team) float64 {
	var sum float64
	var n int
	for _, p := range t.Players {
		if p.Position == roster.Attack || p.Position == roster.Midfield {
			sum += float64(p.Ratings.Shooting+p.Ratings.Passing) / 2
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func defense(t *roster.Team) float64 {
	var sum float64
	var n int
	for _, p := range t.Players {
		if p.Position == roster.Defense || p.Position == roster.Goalie {
			sum += float64(p.Ratings.Defense+p.Ratings.Stamina) / 2
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// shoot takes one shot for att against def and reports whether it scored.
func (s *Simulator) shoot(att, def *side) bool {
	if len(att.skaters) == 0 {
		return false
	}
	shooter := s.choose(att.skaters, scorerWeight, nil)
	att.shots++
	att.lines[shooter].Shots++

	goalieRating := 50.0
	if def.goalie != nil {
		goalieRating = float64(def.goalie.Ratings.Defense)
	}
	chance := baseGoalChance * float64(shooter.Ratings.Shooting) / goalieRating
	chance = math.Min(math.Max(chance, 0.05), 0.6)

	if s.rng.Float64() >= chance {
		if def.goalie != nil {
			def.lines[def.goalie].Saves++
		}
		return false
	}

	att.score++
	att.lines[shooter].Goals++
	if def.goalie != nil {
		def.lines[def.goalie].GoalsAgainst++
	}
	if s.rng.Float64() < assistChance {
		if assister := s.choose(att.skaters, assisterWeight, shooter); assister != nil {
			att.lines[assister].Assists++
		}
	}
	return true
}

func scorerWeight(p *roster.Player) float64 {
	w := float64(p.Ratings.Shooting)*0.7 + float64(p.Ratings.Passing)*0.3
	if p.Position == roster.Attack {
		w *= 1.2
	}
	return w
}

func assisterWeight(p *roster.Player) float64 {
	w := float64(p.Ratings.Passing)*0.6 + float64(p.Ratings.Stamina)*0.4
	if p.Position == roster.Midfield {
		w *= 1.2
	}
	return w
}

// choose picks a player with probability proportional to weight, never
// returning exclude.
func (s *Simulator) choose(players []*roster.Player, weight func(*roster.Player) float64, exclude *roster.Player) *roster.Player {
	var total float64
	for _, p := range players {
		if p != exclude {
			total += weight(p)
		}
	}
	if total <= 0 {
		return nil
	}
	r := s.rng.Float64() * total
	var last *roster.Player
	for _, p := range players {
		if p == exclude {
			continue
		}
		last = p
		r -= weight(p)
		if r < 0 {
			return p
		}
	}
	return last
}

// record folds the game into each player's totals for stage and returns
// the lines in roster order.
func (sd *side) record(minutes int, stage roster.Stage) []PlayerLine {
	var lines []PlayerLine
	for _, p := range sd.team.Players {
		l, ok := sd.lines[p]
		if !ok {
			continue
		}
		stats, goalie := p.Totals(stage)
		stats.GamesPlayed++
		stats.Goals += l.Goals
		stats.Assists += l.Assists
		stats.Shots += l.Shots
		if goalie != nil {
			goalie.Saves += l.Saves
			goalie.GoalsAgainst += l.GoalsAgainst
			goalie.Minutes += minutes
		}
		lines = append(lines, *l)
	}
	return lines
}

func (s *Simulator) playerOfMatch(lines []PlayerLine) *roster.Player {
	var top []*roster.Player
	best := -1.0
	for _, l := range lines {
		switch impact := l.Impact(); {
		case impact > best:
			best = impact
			top = []*roster.Player{l.Player}
		case impact == best:
			top = append(top, l.Player)
		}
	}
	if len(top) == 0 {
		return nil
	}
	return top[s.rng.Intn(len(top))]
}

// TopLines returns up to n lines with the highest impact, goalies or
// skaters only as selected, in descending order.
func TopLines(lines []PlayerLine, n int, goalies bool) []PlayerLine {
	var out []PlayerLine
	for _, l := range lines {
		if l.Player.IsGoalie() == goalies {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Impact() > out[j].Impact()
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
