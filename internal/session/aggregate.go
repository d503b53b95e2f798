package session

import (
	"fmt"

	"github.com/terra-clan/practice-tracker/internal/models"
)

// Totals sums targets and completions over all records.
// Each record contributes at most its own target.
func Totals(records []models.MapRecord) models.Totals {
	var totals models.Totals
	for _, rec := range records {
		totals.Goal += rec.TargetCount
		totals.Completed += rec.CappedCount()
	}
	return totals
}

// Tick adds one second to the active category. Other categories are untouched.
func Tick(timers models.Timers, active models.Category) models.Timers {
	if timers == nil {
		timers = make(models.Timers)
	}
	timers[active]++
	return timers
}

// FormatClock renders seconds as HH:MM:SS
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// FormatLap renders seconds as MM:SS; minutes are not wrapped at an hour
func FormatLap(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
