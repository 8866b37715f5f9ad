package schedule

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/derekprior/laxsim/internal/strategy"
)

// Problem is a single hard-constraint violation found by Verify.
// Week is zero-based and -1 for season-wide problems.
type Problem struct {
	Week    int
	Team    string
	Message string
}

func (p Problem) String() string {
	if p.Week < 0 {
		return p.Message
	}
	return fmt.Sprintf("week %d: %s", p.Week+1, p.Message)
}

// Report collects every problem Verify found.
type Report struct {
	Problems []Problem
}

// OK reports whether the schedule passed every check.
func (r Report) OK() bool {
	return len(r.Problems) == 0
}

// Err joins the problems into a single error, or returns nil.
func (r Report) Err() error {
	if r.OK() {
		return nil
	}
	msgs := make([]string, len(r.Problems))
	for i, p := range r.Problems {
		msgs[i] = p.String()
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Verify checks a week-by-week schedule against the hard constraints: no
// team plays twice in a week or against itself, and no week exceeds
// capacity. When expected is non-nil each team's game, home, and away
// counts must also match it.
func Verify(weeks [][]strategy.Game, capacity int, expected map[string]strategy.Count) Report {
	var r Report
	add := func(week int, team, format string, args ...any) {
		r.Problems = append(r.Problems, Problem{Week: week, Team: team, Message: fmt.Sprintf(format, args...)})
	}

	for w, games := range weeks {
		if capacity > 0 && len(games) > capacity {
			add(w, "", "%d games exceed the limit of %d", len(games), capacity)
		}
		seen := make(map[string]string)
		for _, g := range games {
			if g.Home == g.Away {
				add(w, g.Home, "%s plays itself in %s", g.Home, g.Label)
				continue
			}
			for _, team := range []string{g.Home, g.Away} {
				if prev, ok := seen[team]; ok {
					add(w, team, "%s plays twice (%s and %s)", team, prev, g.Label)
					continue
				}
				seen[team] = g.Label
			}
		}
	}

	if expected == nil {
		return r
	}

	var all []strategy.Game
	for _, games := range weeks {
		all = append(all, games...)
	}
	actual := strategy.Tally(all)

	teams := make([]string, 0, len(expected))
	for team := range expected {
		teams = append(teams, team)
	}
	for team := range actual {
		if _, ok := expected[team]; !ok {
			teams = append(teams, team)
		}
	}
	sort.Strings(teams)
	for _, team := range teams {
		want, got := expected[team], actual[team]
		if want != got {
			add(-1, team, "%s has %d games (%d home, %d away), want %d (%d home, %d away)",
				team, got.Games, got.Home, got.Away, want.Games, want.Home, want.Away)
		}
	}
	return r
}
