package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gynergyAPI/internal/journal"
)

func TestClassifyMoodTrend(t *testing.T) {
	cases := []struct {
		name    string
		history []int
		want    journal.MoodTrend
	}{
		{"empty", nil, journal.TrendStable},
		{"too short", []int{2, 9, 2}, journal.TrendStable},
		{"improving", []int{3, 4, 6, 7}, journal.TrendImproving},
		{"declining", []int{8, 7, 5, 4}, journal.TrendDeclining},
		{"flat", []int{5, 5, 5, 5}, journal.TrendStable},
		{"noisy but flat", []int{5, 6, 6, 5}, journal.TrendStable},
		{"exactly at improving threshold", []int{5, 5, 5, 6}, journal.TrendImproving},
		{"odd length splits on floor mid", []int{3, 3, 6, 6, 6}, journal.TrendImproving},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyMoodTrend(tc.history))
		})
	}
}

func TestDaysBetween(t *testing.T) {
	loc := time.UTC
	aug1 := time.Date(2026, 8, 1, 23, 30, 0, 0, loc)
	aug2 := time.Date(2026, 8, 2, 0, 15, 0, 0, loc)

	// Calendar days, not 24h periods: 45 minutes apart is still one day.
	assert.Equal(t, 1, daysBetween(aug1, aug2))
	assert.Equal(t, 0, daysBetween(aug1, aug1))
	assert.Equal(t, -1, daysBetween(aug2, aug1))
	assert.Equal(t, 31, daysBetween(aug1, time.Date(2026, 9, 1, 6, 0, 0, 0, loc)))
}

func TestIsLastISOWeek(t *testing.T) {
	// 2026-12-28 falls in ISO week 53 of 2026; a week later is week 1.
	assert.True(t, isLastISOWeek(time.Date(2026, 12, 28, 12, 0, 0, 0, time.UTC)))
	assert.False(t, isLastISOWeek(time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)))
}

func TestMilestoneDays(t *testing.T) {
	assert.Equal(t, []int{7, 14, 21, 30, 45}, MilestoneDays)
	assert.Equal(t, 45, MilestoneDays[len(MilestoneDays)-1])
	assert.Equal(t, JourneyLengthDays, MilestoneDays[len(MilestoneDays)-1])
}
