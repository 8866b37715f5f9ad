// Package playoff seeds conference brackets from the standings and
// advances winners round by round to a champion.
package playoff

import (
	"errors"
	"fmt"

	"github.com/derekprior/laxsim/internal/match"
	"github.com/derekprior/laxsim/internal/standings"
)

var (
	ErrRoundIncomplete = errors.New("playoff round has unplayed games")
	ErrNotEnoughTeams  = errors.New("not enough teams for the playoff bracket")
	ErrBracketComplete = errors.New("playoffs are over")
)

// Seed is a qualified team and its rank within its conference.
type Seed struct {
	Team       string
	Conference string
	Rank       int
}

func (s Seed) String() string {
	return fmt.Sprintf("(%d) %s", s.Rank, s.Team)
}

// Game is a single elimination matchup. The better seed hosts, except in
// the championship where the first conference's champion does.
type Game struct {
	Conference string // empty for the championship
	High       Seed
	Low        Seed
	Result     *match.Result
}

func (g *Game) Home() string { return g.High.Team }
func (g *Game) Away() string { return g.Low.Team }

// Winner returns the seed that won, or false before the game is played.
func (g *Game) Winner() (Seed, bool) {
	if g.Result == nil {
		return Seed{}, false
	}
	if g.Result.Winner() == g.High.Team {
		return g.High, true
	}
	return g.Low, true
}

type Round struct {
	Name  string
	Games []*Game
	final bool
}

func (r *Round) complete() bool {
	for _, g := range r.Games {
		if g.Result == nil {
			return false
		}
	}
	return true
}

// Bracket is a single-elimination tournament within each conference
// followed by a championship between conference winners.
type Bracket struct {
	conferences []string
	rounds      []*Round
	champion    *Seed
}

// Seeding takes the top n teams of each conference from the standings.
func Seeding(table *standings.Table, conferences []string, n int) (map[string][]Seed, error) {
	seeds := make(map[string][]Seed, len(conferences))
	for _, conf := range conferences {
		records := table.Conference(conf)
		if len(records) < n {
			return nil, fmt.Errorf("%w: %s has %d teams, need %d", ErrNotEnoughTeams, conf, len(records), n)
		}
		for i, r := range records[:n] {
			seeds[conf] = append(seeds[conf], Seed{Team: r.Team, Conference: conf, Rank: i + 1})
		}
	}
	return seeds, nil
}

// New builds the first round of the bracket. Every conference must bring
// the same power-of-two number of seeds; at most two conferences meet in
// the championship, with the first conference's champion hosting.
func New(seeds map[string][]Seed, conferences []string) (*Bracket, error) {
	if len(conferences) == 0 || len(conferences) > 2 {
		return nil, fmt.Errorf("playoffs need one or two conferences, have %d", len(conferences))
	}
	n := len(seeds[conferences[0]])
	if n < 2 || n&(n-1) != 0 {
		return nil, fmt.Errorf("%w: %d seeds per conference is not a power of two >= 2", ErrNotEnoughTeams, n)
	}
	for _, conf := range conferences {
		if len(seeds[conf]) != n {
			return nil, fmt.Errorf("%w: %s has %d seeds, want %d", ErrNotEnoughTeams, conf, len(seeds[conf]), n)
		}
	}

	b := &Bracket{conferences: conferences}
	round := &Round{}
	for _, conf := range conferences {
		field := seeds[conf]
		order := bracketOrder(n)
		for i := 0; i < len(order); i += 2 {
			round.Games = append(round.Games, newGame(conf, field[order[i]-1], field[order[i+1]-1]))
		}
	}
	b.name(round, n)
	b.rounds = append(b.rounds, round)
	return b, nil
}

func newGame(conf string, a, b Seed) *Game {
	if b.Rank < a.Rank {
		a, b = b, a
	}
	return &Game{Conference: conf, High: a, Low: b}
}

// bracketOrder lists seeds 1..n so that adjacent pairs are first-round
// games and the top two seeds can only meet in the final.
func bracketOrder(n int) []int {
	order := []int{1}
	for size := 2; size <= n; size *= 2 {
		next := make([]int, 0, size)
		for _, s := range order {
			next = append(next, s, size+1-s)
		}
		order = next
	}
	return order
}

// name labels a conference round by how many teams each conference has
// left, and marks the last round of the bracket.
func (b *Bracket) name(r *Round, remaining int) {
	if remaining == 2 && len(b.conferences) == 1 {
		r.Name = "Championship"
		r.final = true
		return
	}
	switch remaining {
	case 2:
		r.Name = "Conference Final"
	case 4:
		r.Name = "Conference Semifinal"
	case 8:
		r.Name = "Conference Quarterfinal"
	default:
		r.Name = fmt.Sprintf("Conference Round of %d", remaining)
	}
}

// Current returns the round being played, or nil once there is a champion.
func (b *Bracket) Current() *Round {
	if b.champion != nil {
		return nil
	}
	return b.rounds[len(b.rounds)-1]
}

// Rounds returns every round created so far, earliest first.
func (b *Bracket) Rounds() []*Round {
	return b.rounds
}

// Record stores the result of a game in the current round.
func (b *Bracket) Record(r match.Result) error {
	round := b.Current()
	if round == nil {
		return ErrBracketComplete
	}
	for _, g := range round.Games {
		if g.Home() != r.Home || g.Away() != r.Away {
			continue
		}
		if g.Result != nil {
			return fmt.Errorf("%s: %s @ %s already played", round.Name, r.Away, r.Home)
		}
		if r.HomeScore == r.AwayScore {
			return fmt.Errorf("%s: %s @ %s cannot end tied", round.Name, r.Away, r.Home)
		}
		g.Result = &r
		return nil
	}
	return fmt.Errorf("%s: no game %s @ %s", round.Name, r.Away, r.Home)
}

// Advance closes the current round. Winners are paired in bracket order
// for the next round; after the last round the champion is crowned.
func (b *Bracket) Advance() error {
	round := b.Current()
	if round == nil {
		return ErrBracketComplete
	}
	if !round.complete() {
		return fmt.Errorf("%s: %w", round.Name, ErrRoundIncomplete)
	}

	winners := make(map[string][]Seed)
	for _, g := range round.Games {
		w, _ := g.Winner()
		winners[g.Conference] = append(winners[g.Conference], w)
	}

	if round.final {
		champ := winners[round.Games[0].Conference][0]
		b.champion = &champ
		return nil
	}

	next := &Round{}
	if len(winners[b.conferences[0]]) == 1 {
		east, west := winners[b.conferences[0]][0], winners[b.conferences[1]][0]
		next.Name = "Championship"
		next.final = true
		next.Games = []*Game{{High: east, Low: west}}
	} else {
		for _, conf := range b.conferences {
			w := winners[conf]
			for i := 0; i < len(w); i += 2 {
				next.Games = append(next.Games, newGame(conf, w[i], w[i+1]))
			}
		}
		b.name(next, len(winners[b.conferences[0]]))
	}
	b.rounds = append(b.rounds, next)
	return nil
}

// Champion returns the winner of the final round.
func (b *Bracket) Champion() (Seed, bool) {
	if b.champion == nil {
		return Seed{}, false
	}
	return *b.champion, true
}

func (b *Bracket) Done() bool {
	return b.champion != nil
}
