package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/terra-clan/practice-tracker/internal/models"
)

func TestTotalsCapsOvershoot(t *testing.T) {
	records := []models.MapRecord{
		{ID: "a", CurrentCount: 7, TargetCount: 5},
		{ID: "b", CurrentCount: 2, TargetCount: 3},
	}

	totals := Totals(records)
	assert.Equal(t, models.Totals{Completed: 7, Goal: 8}, totals)
	assert.Equal(t, models.Totals{}, Totals(nil))
}

func TestTickOnlyActiveCategory(t *testing.T) {
	timers := models.Timers{models.CategoryTraining: 4, models.CategoryFairytale: 9}

	timers = Tick(timers, models.CategoryTraining)
	timers = Tick(timers, models.CategoryTraining)

	assert.Equal(t, 6, timers[models.CategoryTraining])
	assert.Equal(t, 9, timers[models.CategoryFairytale])

	fresh := Tick(nil, models.Category("drills"))
	assert.Equal(t, models.Timers{"drills": 1}, fresh)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatClock(0))
	assert.Equal(t, "01:01:01", FormatClock(3661))
	assert.Equal(t, "00:00:00", FormatClock(-5))
	assert.Equal(t, "02:05", FormatLap(125))
	assert.Equal(t, "61:01", FormatLap(3661))
}
