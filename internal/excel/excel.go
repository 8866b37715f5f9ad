package excel

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/laxsim/internal/config"
	"github.com/derekprior/laxsim/internal/schedule"
	"github.com/derekprior/laxsim/internal/strategy"
)

const (
	masterSheet      = "Master Schedule"
	unscheduledSheet = "Unscheduled"
	dateLayout       = "01/02/2006"
)

// Generate creates an Excel workbook with the master schedule, any
// unscheduled matchups, and per-team sheets.
func Generate(cfg *config.Config, result *schedule.Result, days []time.Time) (*excelize.File, error) {
	f := excelize.NewFile()

	// Set default font for the workbook
	f.SetDefaultFont("Arial")

	if err := writeMasterSheet(f, result.Weeks, days, schedule.SkippedDates(cfg)); err != nil {
		return nil, fmt.Errorf("writing master sheet: %w", err)
	}

	if len(result.Unplaced) > 0 {
		if err := writeUnscheduledSheet(f, result.Unplaced); err != nil {
			return nil, fmt.Errorf("writing unscheduled sheet: %w", err)
		}
	}

	if err := writeTeamSheets(f, cfg.AllTeams(), result.Weeks, days); err != nil {
		return nil, fmt.Errorf("writing team sheets: %w", err)
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

type styles struct {
	header int
	cell   int
	center int
}

func newStyles(f *excelize.File) styles {
	var s styles
	s.header, _ = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 14, Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	s.cell, _ = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 14, Family: "Arial"},
	})
	s.center, _ = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 14, Family: "Arial"},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	return s
}

// writeTable writes a header row and data rows to sheet, creating it if
// needed, and applies the shared styles.
func writeTable(f *excelize.File, sheet string, headers []string, rows [][]any, widths []float64) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	st := newStyles(f)

	for i, h := range headers {
		f.SetCellValue(sheet, cellRef(i+1, 1), h)
	}
	if st.header != 0 {
		f.SetCellStyle(sheet, cellRef(1, 1), cellRef(len(headers), 1), st.header)
	}

	for r, row := range rows {
		for c, v := range row {
			f.SetCellValue(sheet, cellRef(c+1, r+2), v)
		}
	}
	if st.cell != 0 && len(rows) > 0 {
		f.SetCellStyle(sheet, cellRef(1, 2), cellRef(len(headers), len(rows)+1), st.cell)
	}

	for i, w := range widths {
		col := colLetter(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}
	return nil
}

func writeMasterSheet(f *excelize.File, weeks [][]strategy.Game, days []time.Time, skipped []config.BlackoutDate) error {
	type masterRow struct {
		date  time.Time
		cells []any
	}
	var rows []masterRow
	for w, games := range weeks {
		var d time.Time
		if w < len(days) {
			d = days[w]
		}
		for _, g := range games {
			rows = append(rows, masterRow{d, []any{w + 1, d.Format(dateLayout), d.Format("Mon"), g.String(), g.Kind.String()}})
		}
	}
	// Skipped game days show the blackout reason in place of a game.
	for _, b := range skipped {
		d := b.Date.Time
		rows = append(rows, masterRow{d, []any{"", d.Format(dateLayout), d.Format("Mon"), b.Reason, ""}})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].date.Before(rows[j].date)
	})

	cells := make([][]any, len(rows))
	for i, r := range rows {
		cells[i] = r.cells
	}
	headers := []string{"Week", "Date", "Day", "Game", "Type"}
	if err := writeTable(f, masterSheet, headers, cells, []float64{8, 16, 8, 48, 18}); err != nil {
		return err
	}

	// Conditional formatting: non-game cells in the game column get light red
	if len(rows) > 0 {
		redFill, _ := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFC7CE"}},
			Font: &excelize.Font{Size: 14, Family: "Arial"},
		})
		f.SetConditionalFormat(masterSheet, fmt.Sprintf("D2:D%d", len(rows)+1), []excelize.ConditionalFormatOptions{
			{
				Type:     "formula",
				Criteria: `AND(D2<>"",ISERROR(FIND(" @ ",D2)))`,
				Format:   &redFill,
			},
		})
	}
	return nil
}

func writeUnscheduledSheet(f *excelize.File, unplaced []strategy.Game) error {
	rows := make([][]any, len(unplaced))
	for i, g := range unplaced {
		rows[i] = []any{g.String(), g.Kind.String()}
	}
	return writeTable(f, unscheduledSheet, []string{"Game", "Type"}, rows, []float64{48, 18})
}

func writeTeamSheets(f *excelize.File, teams []string, weeks [][]strategy.Game, days []time.Time) error {
	for _, team := range teams {
		var rows [][]any
		for w, games := range weeks {
			date := ""
			if w < len(days) {
				date = days[w].Format(dateLayout)
			}
			row := []any{w + 1, date, "BYE", "", ""}
			for _, g := range games {
				if !g.Involves(team) {
					continue
				}
				if team == g.Home {
					row = []any{w + 1, date, g.Away, "Home", g.Kind.String()}
				} else {
					row = []any{w + 1, date, g.Home, "Away", g.Kind.String()}
				}
			}
			rows = append(rows, row)
		}

		if idx, _ := f.GetSheetIndex(team); idx >= 0 {
			if err := f.DeleteSheet(team); err != nil {
				return err
			}
		}
		headers := []string{"Week", "Date", "Opponent", "Home/Away", "Type"}
		if err := writeTable(f, team, headers, rows, []float64{8, 16, 28, 14, 18}); err != nil {
			return fmt.Errorf("sheet %s: %w", team, err)
		}
	}
	return nil
}

// ScheduledGame is a game read back from the master sheet.
type ScheduledGame struct {
	Row  int
	Week int // zero-based
	Date time.Time
	Game strategy.Game
}

// ReadMaster parses the games on the master sheet. Rows without a week
// number are blackout notes and are skipped. Each game is labeled with
// its row so problems can be traced back to the sheet.
func ReadMaster(f *excelize.File) ([]ScheduledGame, error) {
	rows, err := f.GetRows(masterSheet)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", masterSheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s is empty", masterSheet)
	}

	var games []ScheduledGame
	for i, row := range rows[1:] {
		rowNum := i + 2
		if len(row) < 4 || row[0] == "" {
			continue
		}
		week, err := strconv.Atoi(row[0])
		if err != nil || week < 1 {
			return nil, fmt.Errorf("row %d: invalid week %q", rowNum, row[0])
		}
		date, err := time.Parse(dateLayout, row[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid date %q", rowNum, row[1])
		}
		away, home, ok := parseGameCell(row[3])
		if !ok {
			return nil, fmt.Errorf("row %d: %q is not a game", rowNum, row[3])
		}
		var kind strategy.Kind
		if len(row) > 4 && row[4] != "" {
			if kind, err = strategy.ParseKind(row[4]); err != nil {
				return nil, fmt.Errorf("row %d: %w", rowNum, err)
			}
		}
		games = append(games, ScheduledGame{
			Row:  rowNum,
			Week: week - 1,
			Date: date,
			Game: strategy.Game{Home: home, Away: away, Kind: kind, Label: fmt.Sprintf("row %d", rowNum)},
		})
	}
	return games, nil
}

// Weeks groups games by week. The result has at least minWeeks entries.
func Weeks(games []ScheduledGame, minWeeks int) [][]strategy.Game {
	n := minWeeks
	for _, g := range games {
		n = max(n, g.Week+1)
	}
	weeks := make([][]strategy.Game, n)
	for _, g := range games {
		weeks[g.Week] = append(weeks[g.Week], g.Game)
	}
	return weeks
}

// parseGameCell parses "Away @ Home" and returns (away, home, true).
func parseGameCell(cell string) (away, home string, ok bool) {
	away, home, ok = strings.Cut(cell, " @ ")
	if !ok || away == "" || home == "" {
		return "", "", false
	}
	return away, home, true
}

// UpdateTeamSheets rebuilds every team sheet from the master sheet of the
// workbook at path, so hand edits to the master flow through.
func UpdateTeamSheets(path string, cfg *config.Config) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	games, err := ReadMaster(f)
	if err != nil {
		return err
	}
	if err := writeTeamSheets(f, cfg.AllTeams(), Weeks(games, cfg.Season.Weeks), schedule.GameDays(cfg)); err != nil {
		return err
	}
	return f.Save()
}

func cellRef(col, row int) string {
	return fmt.Sprintf("%s%d", colLetter(col), row)
}

func colLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
