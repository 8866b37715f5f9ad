package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Date is a wrapper around time.Time for YAML date parsing.
type Date struct {
	Time time.Time
}

func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	t, err := time.Parse("2006-01-02", value.Value)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", value.Value, err)
	}
	d.Time = t
	return nil
}

type BlackoutDate struct {
	Date   Date   `yaml:"date"`
	Reason string `yaml:"reason"`
}

type Season struct {
	Name          string         `yaml:"name"`
	StartDate     Date           `yaml:"start_date"`
	Weeks         int            `yaml:"weeks"`
	BlackoutDates []BlackoutDate `yaml:"blackout_dates"`
}

type Division struct {
	Name  string   `yaml:"name"`
	Teams []string `yaml:"teams"`
}

type Conference struct {
	Name      string     `yaml:"name"`
	Divisions []Division `yaml:"divisions"`
}

// Matchups holds the repeat counts for each relationship between two teams.
type Matchups struct {
	IntraDivision   int `yaml:"intra_division"`
	InterDivision   int `yaml:"inter_division"`
	InterConference int `yaml:"inter_conference"`

	// InterConferencePairs is the designed cross-conference pairing table.
	// Each entry names exactly two teams from different conferences.
	InterConferencePairs [][]string `yaml:"inter_conference_pairs"`
}

type Rules struct {
	MaxGamesPerWeek int `yaml:"max_games_per_week"`
}

type Guidelines struct {
	MinWeeksBetweenRematch int `yaml:"min_weeks_between_rematch"`
	MaxConsecutiveByes     int `yaml:"max_consecutive_byes"`
}

type Scheduler struct {
	Seed         int64 `yaml:"seed"`
	Attempts     int   `yaml:"attempts"`
	Budget       int   `yaml:"budget"`
	AllowPartial bool  `yaml:"allow_partial"`
}

type Playoffs struct {
	TeamsPerConference int `yaml:"teams_per_conference"`
}

type Simulation struct {
	Seed int64 `yaml:"seed"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	Season      Season       `yaml:"season"`
	Conferences []Conference `yaml:"conferences"`
	Strategy    string       `yaml:"strategy"`
	Matchups    Matchups     `yaml:"matchups"`
	Rules       Rules        `yaml:"rules"`
	Guidelines  Guidelines   `yaml:"guidelines"`
	Scheduler   Scheduler    `yaml:"scheduler"`
	Playoffs    Playoffs     `yaml:"playoffs"`
	Simulation  Simulation   `yaml:"simulation"`
	Log         Log          `yaml:"log"`
}

// TeamInfo is the minimal description of a team needed to generate and
// schedule matchups.
type TeamInfo struct {
	Name       string
	Conference string
	Division   string
}

// FullDivision returns the league-unique division name, e.g. "Eastern North".
func (t TeamInfo) FullDivision() string {
	if t.Conference == "" {
		return t.Division
	}
	return t.Conference + " " + t.Division
}

// AllTeams returns all team names in config order.
func (c *Config) AllTeams() []string {
	var teams []string
	for _, conf := range c.Conferences {
		for _, d := range conf.Divisions {
			teams = append(teams, d.Teams...)
		}
	}
	return teams
}

// Teams returns every team with its conference and division, in config order.
func (c *Config) Teams() []TeamInfo {
	var teams []TeamInfo
	for _, conf := range c.Conferences {
		for _, d := range conf.Divisions {
			for _, t := range d.Teams {
				teams = append(teams, TeamInfo{Name: t, Conference: conf.Name, Division: d.Name})
			}
		}
	}
	return teams
}

// ConferenceNames returns conference names in config order.
func (c *Config) ConferenceNames() []string {
	names := make([]string, 0, len(c.Conferences))
	for _, conf := range c.Conferences {
		names = append(names, conf.Name)
	}
	return names
}

// PlayoffWeeks returns the number of weeks the playoff bracket needs:
// one per conference round plus the championship when there are two or
// more conferences.
func (c *Config) PlayoffWeeks() int {
	n := c.Playoffs.TeamsPerConference
	if n == 0 {
		return 0
	}
	rounds := 0
	for n > 1 {
		n /= 2
		rounds++
	}
	if len(c.Conferences) > 1 {
		rounds++
	}
	return rounds
}

// IsBlackout reports whether d is a configured blackout date.
func (c *Config) IsBlackout(d time.Time) (string, bool) {
	for _, b := range c.Season.BlackoutDates {
		if b.Date.Time.Equal(d) {
			return b.Reason, true
		}
	}
	return "", false
}

// LoadFromBytes parses YAML bytes into a Config and validates it.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile reads and parses a YAML config file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromBytes(data)
}

func (c *Config) applyDefaults() {
	if c.Strategy == "" {
		c.Strategy = "conference_weighted"
	}
	if c.Scheduler.Attempts == 0 {
		c.Scheduler.Attempts = 20
	}
	if c.Scheduler.Budget == 0 {
		c.Scheduler.Budget = 5000
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

func (c *Config) validate() error {
	if c.Season.StartDate.Time.IsZero() {
		return fmt.Errorf("season start_date is required")
	}
	if c.Season.Weeks <= 0 {
		return fmt.Errorf("season weeks must be positive, got %d", c.Season.Weeks)
	}
	if c.Rules.MaxGamesPerWeek <= 0 {
		return fmt.Errorf("rules.max_games_per_week must be positive, got %d", c.Rules.MaxGamesPerWeek)
	}
	if c.Scheduler.Attempts < 0 || c.Scheduler.Budget < 0 {
		return fmt.Errorf("scheduler attempts and budget cannot be negative")
	}

	if len(c.Conferences) == 0 {
		return fmt.Errorf("at least one conference is required")
	}

	// Check for duplicate team names
	conferenceOf := make(map[string]string)
	seen := make(map[string]string)
	for _, conf := range c.Conferences {
		if len(conf.Divisions) == 0 {
			return fmt.Errorf("conference %q has no divisions", conf.Name)
		}
		for _, div := range conf.Divisions {
			if len(div.Teams) == 0 {
				return fmt.Errorf("division %q has no teams", div.Name)
			}
			for _, team := range div.Teams {
				if prevDiv, ok := seen[team]; ok {
					return fmt.Errorf("team %q appears in both %q and %q divisions", team, prevDiv, div.Name)
				}
				seen[team] = div.Name
				conferenceOf[team] = conf.Name
			}
		}
	}

	m := c.Matchups
	if m.IntraDivision < 0 || m.InterDivision < 0 || m.InterConference < 0 {
		return fmt.Errorf("matchup repeat counts cannot be negative")
	}
	for _, pair := range m.InterConferencePairs {
		if len(pair) != 2 {
			return fmt.Errorf("inter_conference_pairs entry %v must name exactly two teams", pair)
		}
		for _, team := range pair {
			if _, ok := conferenceOf[team]; !ok {
				return fmt.Errorf("inter_conference_pairs: unknown team %q", team)
			}
		}
		if conferenceOf[pair[0]] == conferenceOf[pair[1]] {
			return fmt.Errorf("inter_conference_pairs: %q and %q are both in %q", pair[0], pair[1], conferenceOf[pair[0]])
		}
	}

	if n := c.Playoffs.TeamsPerConference; n != 0 {
		if len(c.Conferences) > 2 {
			return fmt.Errorf("playoffs support at most 2 conferences, have %d", len(c.Conferences))
		}
		if n < 2 || n&(n-1) != 0 {
			return fmt.Errorf("playoffs.teams_per_conference must be a power of two >= 2, got %d", n)
		}
		for _, conf := range c.Conferences {
			size := 0
			for _, d := range conf.Divisions {
				size += len(d.Teams)
			}
			if size < n {
				return fmt.Errorf("conference %q has %d teams, fewer than %d playoff spots", conf.Name, size, n)
			}
		}
	}

	for _, b := range c.Season.BlackoutDates {
		if b.Date.Time.IsZero() {
			return fmt.Errorf("blackout date %q is missing a date", b.Reason)
		}
	}

	return nil
}
