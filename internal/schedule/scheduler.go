package schedule

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"github.com/derekprior/laxsim/internal/strategy"
)

// ErrInvariant reports a schedule that breaks its own hard constraints.
// It indicates a scheduler defect, never bad input.
var ErrInvariant = errors.New("schedule invariant violated")

// Method names the algorithm that produced a Result.
type Method string

const (
	MethodBacktracking Method = "backtracking"
	MethodGreedy       Method = "greedy"
)

// Options controls a scheduling run.
type Options struct {
	Weeks           int
	MaxGamesPerWeek int
	Seed            int64

	// Attempts is the number of seeded restarts of the backtracking search
	// and Budget the number of search nodes each one may visit before the
	// scheduler falls back to greedy placement with repair.
	Attempts int
	Budget   int

	Logger *zap.Logger
}

// TeamMetrics holds per-team schedule statistics.
type TeamMetrics struct {
	Games    int
	Home     int
	Away     int
	ByeWeeks []int
}

// Result is the output of the scheduling process.
type Result struct {
	Weeks       [][]strategy.Game // week index -> games that week
	Unplaced    []strategy.Game
	Method      Method
	TeamMetrics map[string]*TeamMetrics
}

// Scheduled returns the number of games placed across all weeks.
func (r *Result) Scheduled() int {
	n := 0
	for _, w := range r.Weeks {
		n += len(w)
	}
	return n
}

// Complete reports whether every matchup was placed.
func (r *Result) Complete() bool {
	return len(r.Unplaced) == 0
}

// Schedule assigns every game to a week so that no team plays twice in a
// week and no week holds more than opts.MaxGamesPerWeek games. Games that
// cannot be placed are returned in Result.Unplaced; an error is returned
// only for malformed input or a broken invariant.
func Schedule(teams []string, games []strategy.Game, opts Options) (*Result, error) {
	if opts.Weeks <= 0 {
		return nil, fmt.Errorf("weeks must be positive, got %d", opts.Weeks)
	}
	if opts.MaxGamesPerWeek <= 0 {
		return nil, fmt.Errorf("max games per week must be positive, got %d", opts.MaxGamesPerWeek)
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 1
	}
	if opts.Budget <= 0 {
		opts.Budget = 5000
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	s, err := newScheduler(teams, games, opts)
	if err != nil {
		return nil, err
	}
	result := s.run()

	if got := result.Scheduled() + len(result.Unplaced); got != len(games) {
		return nil, fmt.Errorf("%w: %d scheduled + %d unplaced != %d generated",
			ErrInvariant, result.Scheduled(), len(result.Unplaced), len(games))
	}
	if report := Verify(result.Weeks, opts.MaxGamesPerWeek, nil); !report.OK() {
		return nil, fmt.Errorf("%w: %v", ErrInvariant, report.Err())
	}
	result.TeamMetrics = Metrics(teams, result.Weeks)
	return result, nil
}

type scheduler struct {
	opts  Options
	games []strategy.Game
	teams []string
	home  []int // game -> team index
	away  []int

	week      []int    // game -> assigned week, -1 when unplaced
	busy      [][]bool // team -> week -> has a game
	load      []int    // week -> games assigned
	remaining []int    // team -> games not yet placed
	placed    int

	nodes     int
	best      []int
	bestCount int
}

func newScheduler(teams []string, games []strategy.Game, opts Options) (*scheduler, error) {
	index := make(map[string]int, len(teams))
	for i, t := range teams {
		index[t] = i
	}
	s := &scheduler{
		opts:  opts,
		games: games,
		teams: teams,
		home:  make([]int, len(games)),
		away:  make([]int, len(games)),
		week:  make([]int, len(games)),
		busy:  make([][]bool, len(teams)),
		load:  make([]int, opts.Weeks),
	}
	for i, g := range games {
		h, ok := index[g.Home]
		if !ok {
			return nil, fmt.Errorf("game %s: unknown team %q", g.Label, g.Home)
		}
		a, ok := index[g.Away]
		if !ok {
			return nil, fmt.Errorf("game %s: unknown team %q", g.Label, g.Away)
		}
		if h == a {
			return nil, fmt.Errorf("game %s: %s cannot play itself", g.Label, g.Home)
		}
		s.home[i], s.away[i] = h, a
	}
	for t := range s.busy {
		s.busy[t] = make([]bool, opts.Weeks)
	}
	s.remaining = make([]int, len(teams))
	s.reset()
	return s, nil
}

func (s *scheduler) reset() {
	for i := range s.week {
		s.week[i] = -1
	}
	for t := range s.busy {
		for w := range s.busy[t] {
			s.busy[t][w] = false
		}
		s.remaining[t] = 0
	}
	for w := range s.load {
		s.load[w] = 0
	}
	for i := range s.games {
		s.remaining[s.home[i]]++
		s.remaining[s.away[i]]++
	}
	s.placed = 0
	s.nodes = 0
}

func (s *scheduler) run() *Result {
	log := s.opts.Logger

	for attempt := 0; attempt < s.opts.Attempts; attempt++ {
		rng := rand.New(rand.NewSource(s.opts.Seed + int64(attempt)))
		order := rng.Perm(len(s.games))
		s.reset()
		if s.search(order) {
			log.Debug("backtracking search placed every game",
				zap.Int("attempt", attempt), zap.Int("nodes", s.nodes))
			return s.result(MethodBacktracking)
		}
		log.Debug("backtracking attempt failed",
			zap.Int("attempt", attempt), zap.Int("nodes", s.nodes), zap.Int("deepest", s.bestCount))
	}

	bestSearch := append([]int(nil), s.best...)
	bestSearchCount := s.bestCount

	rng := rand.New(rand.NewSource(s.opts.Seed))
	s.greedy(rng)
	log.Info("backtracking budget exhausted, using greedy placement",
		zap.Int("greedy_placed", s.placed), zap.Int("search_placed", bestSearchCount), zap.Int("games", len(s.games)))

	if bestSearchCount > s.placed {
		s.restore(bestSearch)
		return s.result(MethodBacktracking)
	}
	return s.result(MethodGreedy)
}

func (s *scheduler) canPlace(g, w int) bool {
	return s.load[w] < s.opts.MaxGamesPerWeek && !s.busy[s.home[g]][w] && !s.busy[s.away[g]][w]
}

func (s *scheduler) place(g, w int) {
	s.week[g] = w
	s.busy[s.home[g]][w] = true
	s.busy[s.away[g]][w] = true
	s.load[w]++
	s.remaining[s.home[g]]--
	s.remaining[s.away[g]]--
	s.placed++
}

func (s *scheduler) unplace(g int) {
	w := s.week[g]
	s.week[g] = -1
	s.busy[s.home[g]][w] = false
	s.busy[s.away[g]][w] = false
	s.load[w]--
	s.remaining[s.home[g]]++
	s.remaining[s.away[g]]++
	s.placed--
}

// restore replays a saved game->week assignment.
func (s *scheduler) restore(weeks []int) {
	s.reset()
	for g, w := range weeks {
		if w >= 0 {
			s.place(g, w)
		}
	}
}

// search is a depth-first backtracking search that always branches on the
// most constrained unplaced game. It returns false when the subtree has no
// solution or the node budget ran out.
func (s *scheduler) search(order []int) bool {
	s.nodes++
	if s.placed > s.bestCount {
		s.bestCount = s.placed
		s.best = append(s.best[:0], s.week...)
	}
	if s.placed == len(s.games) {
		return true
	}
	if s.nodes > s.opts.Budget || !s.teamsCanFinish() {
		return false
	}

	g, domain := s.mostConstrained(order)
	if domain == 0 {
		return false
	}
	for _, w := range s.candidateWeeks(g) {
		s.place(g, w)
		if s.search(order) {
			return true
		}
		s.unplace(g)
		if s.nodes > s.opts.Budget {
			return false
		}
	}
	return false
}

// teamsCanFinish reports whether every team still has at least as many
// open weeks as it has games left to place.
func (s *scheduler) teamsCanFinish() bool {
	for t, left := range s.remaining {
		if left == 0 {
			continue
		}
		open := 0
		for w := range s.load {
			if !s.busy[t][w] && s.load[w] < s.opts.MaxGamesPerWeek {
				open++
			}
		}
		if open < left {
			return false
		}
	}
	return true
}

// mostConstrained returns the unplaced game with the fewest feasible weeks.
// Ties go to the game whose teams have the most games left, then to the
// earliest game in the shuffled order.
func (s *scheduler) mostConstrained(order []int) (int, int) {
	best, bestDomain, bestLoad := -1, 0, 0
	for _, g := range order {
		if s.week[g] >= 0 {
			continue
		}
		domain := 0
		for w := range s.load {
			if s.canPlace(g, w) {
				domain++
			}
		}
		if domain == 0 {
			return g, 0
		}
		load := s.remaining[s.home[g]] + s.remaining[s.away[g]]
		if best < 0 || domain < bestDomain || (domain == bestDomain && load > bestLoad) {
			best, bestDomain, bestLoad = g, domain, load
		}
	}
	return best, bestDomain
}

// candidateWeeks lists the weeks game g fits in, emptiest first, then
// lowest index.
func (s *scheduler) candidateWeeks(g int) []int {
	var weeks []int
	for w := range s.load {
		if s.canPlace(g, w) {
			weeks = append(weeks, w)
		}
	}
	sort.SliceStable(weeks, func(i, j int) bool {
		return s.load[weeks[i]] < s.load[weeks[j]]
	})
	return weeks
}

// greedy places games one at a time, least flexible kind first, repairing
// a blocked game with a single swap when it has no open week.
func (s *scheduler) greedy(rng *rand.Rand) {
	s.reset()
	for _, g := range s.greedyOrder(rng) {
		if w := s.bestWeek(g); w >= 0 {
			s.place(g, w)
			continue
		}
		s.repair(g)
	}
}

// greedyOrder groups games by kind, inter-conference first, and shuffles
// within each group.
func (s *scheduler) greedyOrder(rng *rand.Rand) []int {
	groups := make(map[strategy.Kind][]int)
	for i, g := range s.games {
		groups[g.Kind] = append(groups[g.Kind], i)
	}
	var order []int
	for _, kind := range []strategy.Kind{strategy.KindInterConference, strategy.KindConference, strategy.KindDivision} {
		group := groups[kind]
		rng.Shuffle(len(group), func(i, j int) {
			group[i], group[j] = group[j], group[i]
		})
		order = append(order, group...)
	}
	return order
}

// bestWeek picks the open week with the fewest games, preferring weeks that
// keep at least one spare slot; ties go to the lowest index.
func (s *scheduler) bestWeek(g int) int {
	best := -1
	roomy := func(w int) bool { return s.load[w] < s.opts.MaxGamesPerWeek-1 }
	for w := range s.load {
		if !s.canPlace(g, w) {
			continue
		}
		switch {
		case best < 0:
			best = w
		case roomy(w) && !roomy(best):
			best = w
		case roomy(w) == roomy(best) && s.load[w] < s.load[best]:
			best = w
		}
	}
	return best
}

// repair finds a week where exactly one of g's teams is busy, moves that
// team's game to another week both of its teams have open, and places g in
// the freed spot.
func (s *scheduler) repair(g int) bool {
	h, a := s.home[g], s.away[g]
	for w := range s.load {
		homeBusy, awayBusy := s.busy[h][w], s.busy[a][w]
		if homeBusy == awayBusy {
			continue
		}
		blocker := h
		if awayBusy {
			blocker = a
		}
		victim := s.gameAt(blocker, w)
		if victim < 0 {
			continue
		}
		for alt := range s.load {
			if alt == w || !s.canPlace(victim, alt) {
				continue
			}
			s.unplace(victim)
			s.place(victim, alt)
			s.place(g, w)
			return true
		}
	}
	return false
}

func (s *scheduler) gameAt(team, w int) int {
	for g, gw := range s.week {
		if gw == w && (s.home[g] == team || s.away[g] == team) {
			return g
		}
	}
	return -1
}

func (s *scheduler) result(method Method) *Result {
	r := &Result{
		Weeks:  make([][]strategy.Game, s.opts.Weeks),
		Method: method,
	}
	for g, w := range s.week {
		if w < 0 {
			r.Unplaced = append(r.Unplaced, s.games[g])
			continue
		}
		r.Weeks[w] = append(r.Weeks[w], s.games[g])
	}
	return r
}

// Metrics derives per-team game, home, away, and bye-week counts from a
// week-by-week schedule.
func Metrics(teams []string, weeks [][]strategy.Game) map[string]*TeamMetrics {
	metrics := make(map[string]*TeamMetrics, len(teams))
	for _, t := range teams {
		metrics[t] = &TeamMetrics{}
	}
	for w, games := range weeks {
		playing := make(map[string]bool)
		for _, g := range games {
			playing[g.Home] = true
			playing[g.Away] = true
			if m, ok := metrics[g.Home]; ok {
				m.Games++
				m.Home++
			}
			if m, ok := metrics[g.Away]; ok {
				m.Games++
				m.Away++
			}
		}
		for _, t := range teams {
			if !playing[t] {
				metrics[t].ByeWeeks = append(metrics[t].ByeWeeks, w)
			}
		}
	}
	return metrics
}
