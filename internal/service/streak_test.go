package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextStreak(t *testing.T) {
	today := date(2026, 3, 10)
	yesterday := date(2026, 3, 9)
	lastWeek := date(2026, 3, 3)
	tomorrow := date(2026, 3, 11)

	tests := []struct {
		name      string
		current   int
		lastLogin *time.Time
		want      int
	}{
		{"first ever login", 0, nil, 1},
		{"consecutive day extends", 3, &yesterday, 4},
		{"same day is idempotent", 4, &today, 4},
		{"same day with zero streak normalizes to one", 0, &today, 1},
		{"gap resets", 7, &lastWeek, 1},
		{"clock skew into the future resets", 5, &tomorrow, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextStreak(tt.current, tt.lastLogin, today))
		})
	}
}

func TestNextStreakIgnoresTimeOfDay(t *testing.T) {
	lastLogin := time.Date(2026, 3, 9, 23, 59, 0, 0, time.UTC)
	today := time.Date(2026, 3, 10, 0, 1, 0, 0, time.UTC)

	assert.Equal(t, 3, NextStreak(2, &lastLogin, today))
}

func TestDateOnly(t *testing.T) {
	got := DateOnly(time.Date(2026, 3, 10, 18, 42, 7, 999, time.UTC))
	assert.Equal(t, date(2026, 3, 10), got)
}
