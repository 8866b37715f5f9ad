package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/derekprior/laxsim/internal/config"
	"github.com/derekprior/laxsim/internal/excel"
	"github.com/derekprior/laxsim/internal/logger"
	"github.com/derekprior/laxsim/internal/schedule"
	"github.com/derekprior/laxsim/internal/season"
	"github.com/derekprior/laxsim/internal/standings"
	"github.com/derekprior/laxsim/internal/strategy"
	"github.com/derekprior/laxsim/internal/validator"
)

const defaultConfigFile = "config.yaml"

func resolveConfigPath(configFlag string) (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile, nil
	}
	return "", fmt.Errorf("no config file found. Either create %s in the current directory or pass --config", defaultConfigFile)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "laxsim",
		Short: "Lacrosse league scheduler and season simulator",
	}

	var initOutputPath string
	initCmd := &cobra.Command{
		Use:          "init",
		Short:        "Create a starter config.yaml in the current directory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(initOutputPath)
		},
	}
	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", defaultConfigFile, "Output path for the config file")

	var configFile string

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Generate and validate schedules",
	}
	scheduleCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: config.yaml in current directory)")

	var outputFile string
	generateCmd := &cobra.Command{
		Use:          "generate",
		Short:        "Generate a schedule from a config file",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			return runGenerate(configPath, outputFile)
		},
	}
	generateCmd.Flags().StringVarP(&outputFile, "output", "o", "schedule.xlsx", "Output Excel file path")

	validateCmd := &cobra.Command{
		Use:          "validate <schedule.xlsx>",
		Short:        "Validate a schedule against config rules",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			return runValidate(configPath, args[0])
		},
	}

	seasonCmd := &cobra.Command{
		Use:   "season",
		Short: "Simulate seasons",
	}
	seasonCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: config.yaml in current directory)")

	var seasonOutput string
	var weeks int
	simulateCmd := &cobra.Command{
		Use:          "simulate",
		Short:        "Build a season and simulate it week by week",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			return runSimulate(configPath, seasonOutput, weeks)
		},
	}
	simulateCmd.Flags().StringVarP(&seasonOutput, "output", "o", "season.xlsx", "Output Excel file path")
	simulateCmd.Flags().IntVar(&weeks, "weeks", 0, "Number of weeks to simulate (default: the whole season)")

	scheduleCmd.AddCommand(generateCmd, validateCmd)
	seasonCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(initCmd, scheduleCmd, seasonCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runInit(outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use -o to write elsewhere", outputPath)
	}

	if err := os.WriteFile(outputPath, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("✓ Created %s\n", outputPath)
	return nil
}

const configTemplate = `# Lacrosse League Season Configuration
# ====================================
# This file defines the league, how matchups are generated, and how the
# season is scheduled and simulated.

# Season defines the first game day and the number of regular season weeks.
# Every team plays at most once per week.
season:
  name: "2026 Season"
  start_date: "2026-06-06"
  weeks: 14

  # Blackout dates are skipped; the game day slides forward one week and
  # pushes the rest of the season with it.
  blackout_dates:
    - date: "2026-07-04"
      reason: "Independence Day"

# Conferences and their divisions. Team names must be unique across the league.
conferences:
  - name: Eastern
    divisions:
      - name: North
        teams: [Buffalo Glacier, Toronto Ironhawks, Montreal Sentries, Boston Riptide]
      - name: South
        teams: [Richmond Rebellion, Louisville Stampede, Atlanta Firewing, Charlotte Thunder]
  - name: Western
    divisions:
      - name: North
        teams: [Minneapolis Chill, Calgary Nightwolves, Spokane Tempest, Seattle Storm]
      - name: South
        teams: [San Jose Quakebirds, Phoenix Dustrunners, El Paso Vortex, Denver Rapids]

# Strategy determines how matchups are generated.
# "conference_weighted" plays division rivals most, the other division in
# the conference less, and a fixed cross-conference partner least.
strategy: conference_weighted

# How many times each pair of teams meets, by relationship. Home games
# alternate between repeat meetings.
matchups:
  intra_division: 2
  inter_division: 1
  inter_conference: 2

  # Cross-conference partners. When omitted, division d team i of the first
  # conference is paired with division d team i of the second.
  # inter_conference_pairs:
  #   - [Buffalo Glacier, Minneapolis Chill]

# Rules are hard constraints. A schedule that violates these is invalid.
rules:
  max_games_per_week: 8            # Games that can be played in a single week

# Guidelines are soft constraints, reported as warnings by validate.
guidelines:
  min_weeks_between_rematch: 3     # Weeks before two teams should meet again
  max_consecutive_byes: 1          # Byes in a row before a team is flagged

# The scheduler backtracks with random restarts, then falls back to a
# greedy placement. Each attempt is capped at budget search steps.
scheduler:
  seed: 42
  attempts: 20
  budget: 5000
  allow_partial: false

# Top teams per conference advance. Must be a power of two. Set to 0 to
# skip the playoffs.
playoffs:
  teams_per_conference: 4

simulation:
  seed: 7

# Log level (debug, info, warn, error) and format (console or json).
log:
  level: info
  format: console
`

func loadConfig(configPath string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func runGenerate(configPath, outputPath string) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	strat, err := strategy.Get(cfg.Strategy)
	if err != nil {
		return err
	}
	games, err := strat.GenerateMatchups(cfg.Teams(), cfg.Matchups)
	if err != nil {
		return fmt.Errorf("generating matchups: %w", err)
	}

	fmt.Printf("Scheduling %d games into %d weeks (max %d per week)...\n",
		len(games), cfg.Season.Weeks, cfg.Rules.MaxGamesPerWeek)

	result, err := schedule.Schedule(cfg.AllTeams(), games, schedule.Options{
		Weeks:           cfg.Season.Weeks,
		MaxGamesPerWeek: cfg.Rules.MaxGamesPerWeek,
		Seed:            cfg.Scheduler.Seed,
		Attempts:        cfg.Scheduler.Attempts,
		Budget:          cfg.Scheduler.Budget,
		Logger:          log,
	})
	if err != nil {
		return fmt.Errorf("scheduling: %w", err)
	}

	if result.Complete() {
		fmt.Printf("✓ All %d games scheduled (%s)\n", result.Scheduled(), result.Method)
	} else {
		fmt.Fprintf(os.Stderr, "⚠ %d of %d games could not be scheduled\n", len(result.Unplaced), len(games))
		fmt.Fprintf(os.Stderr, "\nGenerating partial schedule...\n")
	}

	fmt.Println("\nPer Team Metrics:")
	fmt.Printf("  %-22s %6s %5s %5s %5s\n", "Team", "Games", "Home", "Away", "Byes")
	for _, team := range cfg.AllTeams() {
		m := result.TeamMetrics[team]
		fmt.Printf("  %-22s %6d %5d %5d %5d\n", team, m.Games, m.Home, m.Away, len(m.ByeWeeks))
	}

	f, err := excel.Generate(cfg, result, schedule.GameDays(cfg))
	if err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}

	fmt.Printf("\n✓ Schedule saved to %s\n", outputPath)
	if !result.Complete() {
		return fmt.Errorf("schedule is incomplete: %d of %d games scheduled", result.Scheduled(), len(games))
	}
	return nil
}

func runValidate(configPath, schedulePath string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	violations, err := validator.Validate(cfg, schedulePath)
	if err != nil {
		return fmt.Errorf("validating: %w", err)
	}

	errors := 0
	warnings := 0
	for _, v := range violations {
		where := ""
		if v.Row > 0 {
			where = fmt.Sprintf(" (row %d)", v.Row)
		}
		switch v.Type {
		case "error":
			errors++
			fmt.Printf("✗ Rule violation%s: %s\n", where, v.Message)
		case "warning":
			warnings++
			fmt.Printf("⚠ Guideline violation%s: %s\n", where, v.Message)
		}
	}

	fmt.Printf("\nValidation complete: %d rule violations, %d guideline violations\n", errors, warnings)

	// Regenerate team sheets from master schedule
	if err := excel.UpdateTeamSheets(schedulePath, cfg); err != nil {
		return fmt.Errorf("updating team sheets: %w", err)
	}
	fmt.Printf("✓ Team sheets updated in %s\n", schedulePath)

	if errors > 0 {
		return fmt.Errorf("%d constraint violations found", errors)
	}
	return nil
}

func runSimulate(configPath, outputPath string, weeks int) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	s, err := season.Build(cfg, log)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d teams, %d regular season games\n\n", s.Name, len(cfg.AllTeams()), len(s.Games()))

	var reports []*season.WeekReport
	for !s.Done() && (weeks <= 0 || len(reports) < weeks) {
		r, err := s.SimulateWeek()
		if err != nil {
			return err
		}
		reports = append(reports, r)
		printWeek(r)
	}
	if !s.Done() {
		fmt.Printf("Stopped before week %d\n\n", s.NextWeek())
	}

	printStandings(s)
	if b := s.Bracket(); b != nil {
		fmt.Println("\nPlayoffs:")
		for _, round := range b.Rounds() {
			fmt.Printf("  %s\n", round.Name)
			for _, g := range round.Games {
				line := fmt.Sprintf("    %s vs %s", g.High, g.Low)
				if w, ok := g.Winner(); ok {
					line += fmt.Sprintf(": %s advances", w.Team)
				}
				fmt.Println(line)
			}
		}
	}
	if champ, ok := s.Champion(); ok {
		fmt.Printf("\n✓ Champion: %s (%d playoff games played)\n", champ.Team, len(s.PlayoffResults()))
	}

	sum := s.Summary()
	if sum.Games > 0 {
		fmt.Printf("\n%d games, %.1f goals per game (σ %.1f), %d overtime, home teams won %d\n",
			sum.Games, sum.MeanGoals, sum.StdDevGoals, sum.OvertimeGames, sum.HomeWins)
	}

	f, err := excel.GenerateSeason(s, reports)
	if err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}
	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}
	fmt.Printf("\n✓ Season saved to %s\n", outputPath)
	return nil
}

func printWeek(r *season.WeekReport) {
	title := fmt.Sprintf("Week %d (%s) %s", r.Week, r.Date.Format("01/02/2006"), r.Phase)
	if r.Round != "" {
		title += ": " + r.Round
	}
	fmt.Println(title)
	for _, g := range r.Games {
		ot := ""
		if g.Overtime {
			ot = " (OT)"
		}
		fmt.Printf("  %-22s %2d @ %-22s %2d%s\n", g.Away, g.AwayScore, g.Home, g.HomeScore, ot)
	}
	if len(r.Byes) > 0 {
		fmt.Printf("  Byes: %s\n", strings.Join(r.Byes, ", "))
	}
	if len(r.TopSkaters) > 0 {
		top := r.TopSkaters[0]
		fmt.Printf("  Top skater: %s (%dG %dA)\n", top.Player.Name, top.Goals, top.Assists)
	}
	fmt.Println()
}

func printStandings(s *season.Season) {
	fmt.Println("Standings:")
	for _, conf := range s.Config().Conferences {
		for _, div := range conf.Divisions {
			full := conf.Name + " " + div.Name
			fmt.Printf("  %s\n", full)
			fmt.Printf("    %-22s %3s %3s %3s %3s %4s %5s\n", "Team", "GP", "W", "L", "OTL", "PTS", "DIFF")
			for _, r := range s.Table().Division(full) {
				printRecord(r)
			}
		}
	}
}

func printRecord(r standings.Record) {
	fmt.Printf("    %-22s %3d %3d %3d %3d %4d %+5d\n",
		r.Team, r.GamesPlayed, r.Wins, r.Losses, r.OvertimeLosses, r.Points(), r.GoalDiff())
}
