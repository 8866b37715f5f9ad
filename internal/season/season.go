// Package season builds a league season from configuration and plays it
// one week at a time, regular season first and playoffs after.
package season

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/derekprior/laxsim/internal/config"
	"github.com/derekprior/laxsim/internal/match"
	"github.com/derekprior/laxsim/internal/playoff"
	"github.com/derekprior/laxsim/internal/roster"
	"github.com/derekprior/laxsim/internal/schedule"
	"github.com/derekprior/laxsim/internal/standings"
	"github.com/derekprior/laxsim/internal/strategy"
)

var (
	ErrIncompleteSchedule = errors.New("schedule is incomplete")
	ErrSeasonComplete     = errors.New("season is complete")
)

type Phase string

const (
	RegularSeason Phase = "Regular Season"
	Playoffs      Phase = "Playoffs"
)

// WeekReport describes one simulated week.
type WeekReport struct {
	Week       int // 1-based across regular season and playoffs
	Date       time.Time
	Phase      Phase
	Round      string
	Games      []match.Result
	Byes       []string
	TopSkaters []match.PlayerLine
	TopGoalies []match.PlayerLine
}

type Season struct {
	ID   uuid.UUID
	Name string

	cfg      *config.Config
	log      *zap.Logger
	games    []strategy.Game
	sched    *schedule.Result
	days     []time.Time
	registry *roster.Registry
	table    *standings.Table
	sim      *match.Simulator
	bracket  *playoff.Bracket

	week           int
	results        []match.Result
	playoffResults []match.Result
}

// Build generates matchups, schedules them, and rosters every team. An
// incomplete schedule is an error wrapping ErrIncompleteSchedule unless
// the config allows partial schedules.
func Build(cfg *config.Config, log *zap.Logger) (*Season, error) {
	if log == nil {
		log = zap.NewNop()
	}
	teams := cfg.Teams()

	strat, err := strategy.Get(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	games, err := strat.GenerateMatchups(teams, cfg.Matchups)
	if err != nil {
		return nil, fmt.Errorf("generating matchups: %w", err)
	}

	res, err := schedule.Schedule(cfg.AllTeams(), games, schedule.Options{
		Weeks:           cfg.Season.Weeks,
		MaxGamesPerWeek: cfg.Rules.MaxGamesPerWeek,
		Seed:            cfg.Scheduler.Seed,
		Attempts:        cfg.Scheduler.Attempts,
		Budget:          cfg.Scheduler.Budget,
		Logger:          log,
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling: %w", err)
	}
	if !res.Complete() {
		if !cfg.Scheduler.AllowPartial {
			return nil, fmt.Errorf("%w: %d of %d matchups unplaced", ErrIncompleteSchedule, len(res.Unplaced), len(games))
		}
		log.Warn("continuing with a partial schedule", zap.Int("unplaced", len(res.Unplaced)))
	} else if report := schedule.Verify(res.Weeks, cfg.Rules.MaxGamesPerWeek, strategy.Tally(games)); !report.OK() {
		return nil, fmt.Errorf("%w: %v", schedule.ErrInvariant, report.Err())
	}

	rng := rand.New(rand.NewSource(cfg.Simulation.Seed))
	s := &Season{
		ID:       uuid.New(),
		Name:     cfg.Season.Name,
		cfg:      cfg,
		games:    games,
		sched:    res,
		days:     schedule.GameDays(cfg),
		registry: roster.NewRegistry(teams, rng),
		table:    standings.NewTable(teams),
		sim:      match.NewSimulator(rng),
	}
	s.log = log.With(zap.String("season", s.ID.String()))
	s.log.Info("season built",
		zap.String("name", s.Name),
		zap.Int("teams", len(teams)),
		zap.Int("games", len(games)),
		zap.String("method", string(res.Method)))
	return s, nil
}

// Done reports whether every week, including the final, has been played.
func (s *Season) Done() bool {
	if s.week < s.cfg.Season.Weeks {
		return false
	}
	if s.cfg.Playoffs.TeamsPerConference == 0 {
		return true
	}
	return s.bracket != nil && s.bracket.Done()
}

// SimulateWeek plays the next week. Weeks always run in order because
// standings and player totals carry forward.
func (s *Season) SimulateWeek() (*WeekReport, error) {
	if s.Done() {
		return nil, ErrSeasonComplete
	}

	report := &WeekReport{Week: s.week + 1}
	if s.week < len(s.days) {
		report.Date = s.days[s.week]
	}

	var err error
	if s.week < s.cfg.Season.Weeks {
		err = s.playRegularWeek(report)
	} else {
		err = s.playPlayoffRound(report)
	}
	if err != nil {
		return nil, fmt.Errorf("week %d: %w", report.Week, err)
	}

	var lines []match.PlayerLine
	for _, g := range report.Games {
		lines = append(lines, g.Lines...)
	}
	report.TopSkaters = match.TopLines(lines, 3, false)
	report.TopGoalies = match.TopLines(lines, 3, true)

	s.week++
	s.log.Debug("week simulated",
		zap.Int("week", report.Week),
		zap.String("phase", string(report.Phase)),
		zap.Int("games", len(report.Games)))

	if s.week == s.cfg.Season.Weeks && s.cfg.Playoffs.TeamsPerConference > 0 {
		if err := s.seedPlayoffs(); err != nil {
			return nil, err
		}
	}
	if champ, ok := s.Champion(); ok {
		s.log.Info("champion crowned", zap.String("team", champ.Team))
	}
	return report, nil
}

func (s *Season) playRegularWeek(report *WeekReport) error {
	report.Phase = RegularSeason
	playing := make(map[string]bool)
	for _, g := range s.sched.Weeks[s.week] {
		r, err := s.play(g.Home, g.Away, roster.RegularSeason)
		if err != nil {
			return err
		}
		if err := s.table.Record(r); err != nil {
			return err
		}
		s.results = append(s.results, r)
		report.Games = append(report.Games, r)
		playing[g.Home], playing[g.Away] = true, true
	}
	for _, t := range s.cfg.AllTeams() {
		if !playing[t] {
			report.Byes = append(report.Byes, t)
		}
	}
	return nil
}

func (s *Season) playPlayoffRound(report *WeekReport) error {
	report.Phase = Playoffs
	round := s.bracket.Current()
	report.Round = round.Name
	for _, g := range round.Games {
		r, err := s.play(g.Home(), g.Away(), roster.Postseason)
		if err != nil {
			return err
		}
		if err := s.bracket.Record(r); err != nil {
			return err
		}
		s.playoffResults = append(s.playoffResults, r)
		report.Games = append(report.Games, r)
	}
	return s.bracket.Advance()
}

func (s *Season) play(home, away string, stage roster.Stage) (match.Result, error) {
	h, ok := s.registry.Team(home)
	if !ok {
		return match.Result{}, fmt.Errorf("unknown team %q", home)
	}
	a, ok := s.registry.Team(away)
	if !ok {
		return match.Result{}, fmt.Errorf("unknown team %q", away)
	}
	return s.sim.Play(h, a, stage), nil
}

func (s *Season) seedPlayoffs() error {
	conferences := s.cfg.ConferenceNames()
	seeds, err := playoff.Seeding(s.table, conferences, s.cfg.Playoffs.TeamsPerConference)
	if err != nil {
		return fmt.Errorf("seeding playoffs: %w", err)
	}
	b, err := playoff.New(seeds, conferences)
	if err != nil {
		return fmt.Errorf("building bracket: %w", err)
	}
	s.bracket = b
	s.log.Info("regular season complete, playoffs seeded",
		zap.Int("teams_per_conference", s.cfg.Playoffs.TeamsPerConference))
	return nil
}

// SimulateAll plays every remaining week.
func (s *Season) SimulateAll() ([]*WeekReport, error) {
	var reports []*WeekReport
	for !s.Done() {
		r, err := s.SimulateWeek()
		if err != nil {
			return reports, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// NextWeek returns the 1-based number of the next week to be played.
func (s *Season) NextWeek() int                  { return s.week + 1 }
func (s *Season) Config() *config.Config         { return s.cfg }
func (s *Season) Games() []strategy.Game         { return s.games }
func (s *Season) Schedule() *schedule.Result     { return s.sched }
func (s *Season) GameDays() []time.Time          { return s.days }
func (s *Season) Registry() *roster.Registry     { return s.registry }
func (s *Season) Table() *standings.Table        { return s.table }
func (s *Season) Results() []match.Result        { return s.results }
func (s *Season) PlayoffResults() []match.Result { return s.playoffResults }

// Bracket returns the playoff bracket, or nil before it is seeded.
func (s *Season) Bracket() *playoff.Bracket { return s.bracket }

// Champion returns the league champion once the final has been played.
func (s *Season) Champion() (playoff.Seed, bool) {
	if s.bracket == nil {
		return playoff.Seed{}, false
	}
	return s.bracket.Champion()
}

// Summary describes scoring across the regular season.
func (s *Season) Summary() standings.Summary {
	return standings.Summarize(s.results)
}
