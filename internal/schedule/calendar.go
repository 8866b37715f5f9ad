package schedule

import (
	"time"

	"github.com/derekprior/laxsim/internal/config"
)

// GameDays returns the date of every week in the season: the regular
// season weeks followed by the playoff weeks. Weeks are seven days apart,
// and a week whose date is a blackout slides forward a week, pushing the
// rest of the season with it.
func GameDays(cfg *config.Config) []time.Time {
	total := cfg.Season.Weeks + cfg.PlayoffWeeks()
	days := make([]time.Time, 0, total)
	d := cfg.Season.StartDate.Time
	for len(days) < total {
		if _, blackout := cfg.IsBlackout(d); blackout {
			d = d.AddDate(0, 0, 7)
			continue
		}
		days = append(days, d)
		d = d.AddDate(0, 0, 7)
	}
	return days
}

// SkippedDates returns the blackout dates that displaced a game day, in
// date order, for display alongside the schedule.
func SkippedDates(cfg *config.Config) []config.BlackoutDate {
	total := cfg.Season.Weeks + cfg.PlayoffWeeks()
	var skipped []config.BlackoutDate
	d := cfg.Season.StartDate.Time
	for placed := 0; placed < total; d = d.AddDate(0, 0, 7) {
		if reason, blackout := cfg.IsBlackout(d); blackout {
			skipped = append(skipped, config.BlackoutDate{Date: config.Date{Time: d}, Reason: reason})
			continue
		}
		placed++
	}
	return skipped
}
