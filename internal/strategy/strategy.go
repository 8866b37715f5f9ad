package strategy

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/derekprior/laxsim/internal/config"
)

// ErrUnbalanced is returned when the league topology and repeat counts
// do not give every team the same number of games.
var ErrUnbalanced = errors.New("unbalanced matchups")

// Kind classifies a matchup by the relationship between its two teams.
type Kind int

const (
	KindDivision Kind = iota
	KindConference
	KindInterConference
)

func (k Kind) String() string {
	switch k {
	case KindDivision:
		return "division"
	case KindConference:
		return "conference"
	case KindInterConference:
		return "inter-conference"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "division":
		return KindDivision, nil
	case "conference":
		return KindConference, nil
	case "inter-conference":
		return KindInterConference, nil
	default:
		return 0, fmt.Errorf("unknown matchup type %q", s)
	}
}

// Game represents a single matchup between two teams.
type Game struct {
	Home  string
	Away  string
	Label string // unique identifier like "Game 1"
	Kind  Kind
}

func (g Game) String() string {
	return fmt.Sprintf("%s @ %s", g.Away, g.Home)
}

// Involves reports whether team plays in g.
func (g Game) Involves(team string) bool {
	return g.Home == team || g.Away == team
}

// Strategy generates the list of matchups for a season.
type Strategy interface {
	GenerateMatchups(teams []config.TeamInfo, rules config.Matchups) ([]Game, error)
}

// Get returns a Strategy by name.
func Get(name string) (Strategy, error) {
	switch name {
	case "conference_weighted":
		return &ConferenceWeighted{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy: %q", name)
	}
}

// ConferenceWeighted generates matchups from three repeat counts: every
// pair of division rivals, every pair across sibling divisions of one
// conference, and every pair in the inter-conference pairing table.
type ConferenceWeighted struct{}

func (s *ConferenceWeighted) GenerateMatchups(teams []config.TeamInfo, rules config.Matchups) ([]Game, error) {
	var games []Game
	gameNum := 1
	add := func(home, away string, kind Kind) {
		games = append(games, Game{
			Home:  home,
			Away:  away,
			Label: fmt.Sprintf("Game %d", gameNum),
			Kind:  kind,
		})
		gameNum++
	}

	conferences := groupTeams(teams)

	// Intra-division: each pair plays IntraDivision times, home alternating.
	for _, conf := range conferences {
		for _, div := range conf.divisions {
			for i := 0; i < len(div); i++ {
				for j := i + 1; j < len(div); j++ {
					for k := 0; k < rules.IntraDivision; k++ {
						if (i+j+k)%2 == 1 {
							add(div[i], div[j], KindDivision)
						} else {
							add(div[j], div[i], KindDivision)
						}
					}
				}
			}
		}
	}

	// Inter-division: each cross pair of sibling divisions plays InterDivision
	// times. Alternate home/away to balance across teams.
	for _, conf := range conferences {
		for a := 0; a < len(conf.divisions); a++ {
			for b := a + 1; b < len(conf.divisions); b++ {
				for i, t0 := range conf.divisions[a] {
					for j, t1 := range conf.divisions[b] {
						for k := 0; k < rules.InterDivision; k++ {
							if (i+j+k)%2 == 0 {
								add(t0, t1, KindConference)
							} else {
								add(t1, t0, KindConference)
							}
						}
					}
				}
			}
		}
	}

	// Inter-conference: a designed pairing table, never random pairs.
	if rules.InterConference > 0 {
		pairs := rules.InterConferencePairs
		if len(pairs) == 0 {
			var err error
			pairs, err = defaultPairings(conferences)
			if err != nil {
				return nil, err
			}
		}
		for _, p := range pairs {
			for k := 0; k < rules.InterConference; k++ {
				if k%2 == 0 {
					add(p[0], p[1], KindInterConference)
				} else {
					add(p[1], p[0], KindInterConference)
				}
			}
		}
	}

	if err := checkBalanced(teams, games); err != nil {
		return nil, err
	}
	return games, nil
}

type conferenceTeams struct {
	name      string
	divisions [][]string
}

// groupTeams rebuilds the conference/division nesting in input order.
func groupTeams(teams []config.TeamInfo) []conferenceTeams {
	var out []conferenceTeams
	confIdx := make(map[string]int)
	divIdx := make(map[[2]string]int)
	for _, t := range teams {
		ci, ok := confIdx[t.Conference]
		if !ok {
			ci = len(out)
			confIdx[t.Conference] = ci
			out = append(out, conferenceTeams{name: t.Conference})
		}
		key := [2]string{t.Conference, t.Division}
		di, ok := divIdx[key]
		if !ok {
			di = len(out[ci].divisions)
			divIdx[key] = di
			out[ci].divisions = append(out[ci].divisions, nil)
		}
		out[ci].divisions[di] = append(out[ci].divisions[di], t.Name)
	}
	return out
}

// defaultPairings pairs division d, team i of the first conference with
// division d, team i of the second. It requires exactly two conferences
// with the same shape.
func defaultPairings(conferences []conferenceTeams) ([][]string, error) {
	if len(conferences) != 2 {
		return nil, fmt.Errorf("%w: default inter-conference pairing needs exactly 2 conferences, have %d",
			ErrUnbalanced, len(conferences))
	}
	c0, c1 := conferences[0], conferences[1]
	if len(c0.divisions) != len(c1.divisions) {
		return nil, fmt.Errorf("%w: conferences %q and %q have different division counts",
			ErrUnbalanced, c0.name, c1.name)
	}
	var pairs [][]string
	for d := range c0.divisions {
		if len(c0.divisions[d]) != len(c1.divisions[d]) {
			return nil, fmt.Errorf("%w: division %d differs in size between %q and %q",
				ErrUnbalanced, d+1, c0.name, c1.name)
		}
		for i := range c0.divisions[d] {
			pairs = append(pairs, []string{c0.divisions[d][i], c1.divisions[d][i]})
		}
	}
	return pairs, nil
}

// checkBalanced fails when any team's total deviates from the first team's.
func checkBalanced(teams []config.TeamInfo, games []Game) error {
	if len(teams) == 0 {
		return nil
	}
	counts := Tally(games)
	expected := counts[teams[0].Name].Games
	var deviations []string
	for _, t := range teams {
		if got := counts[t.Name].Games; got != expected {
			deviations = append(deviations, fmt.Sprintf("%s has %d games, expected %d", t.Name, got, expected))
		}
	}
	for team := range counts {
		if !containsTeam(teams, team) {
			deviations = append(deviations, fmt.Sprintf("%s is not in the league", team))
		}
	}
	if len(deviations) > 0 {
		sort.Strings(deviations)
		return fmt.Errorf("%w: %s", ErrUnbalanced, strings.Join(deviations, "; "))
	}
	return nil
}

func containsTeam(teams []config.TeamInfo, name string) bool {
	for _, t := range teams {
		if t.Name == name {
			return true
		}
	}
	return false
}

// Count is a per-team matchup tally.
type Count struct {
	Games int
	Home  int
	Away  int
}

// Tally counts games, home games, and away games per team.
func Tally(games []Game) map[string]Count {
	counts := make(map[string]Count)
	for _, g := range games {
		h := counts[g.Home]
		h.Games++
		h.Home++
		counts[g.Home] = h

		a := counts[g.Away]
		a.Games++
		a.Away++
		counts[g.Away] = a
	}
	return counts
}
