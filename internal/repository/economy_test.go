package repository

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNextStreak(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC)
	}
	ptr := func(t time.Time) *time.Time { return &t }

	tests := []struct {
		name     string
		last     *time.Time
		today    time.Time
		current  int
		expected int
	}{
		{name: "First ever claim", last: nil, today: day(10), current: 0, expected: 1},
		{name: "Claimed yesterday", last: ptr(day(9)), today: day(10), current: 1, expected: 2},
		{name: "Third consecutive day", last: ptr(day(9)), today: day(10), current: 2, expected: 3},
		{name: "One day gap resets", last: ptr(day(8)), today: day(10), current: 3, expected: 1},
		{name: "Long gap resets", last: ptr(day(1)), today: day(10), current: 30, expected: 1},
		{name: "Yesterday with a clock time", last: ptr(day(9).Add(15 * time.Hour)), today: day(10), current: 4, expected: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, nextStreak(tt.last, tt.today, tt.current))
		})
	}
}

func TestStreakBonus(t *testing.T) {
	params := DailyRewardParams{
		BaseReward:     decimal.RequireFromString("10"),
		StreakUnit:     decimal.RequireFromString("2"),
		MaxStreakBonus: decimal.RequireFromString("50"),
	}

	tests := []struct {
		streak   int
		expected string
	}{
		{1, "2"},
		{3, "6"},
		{25, "50"},
		{26, "50"},
		{100, "50"},
	}

	for _, tt := range tests {
		bonus := streakBonus(params, tt.streak)
		assert.True(t, bonus.Equal(decimal.RequireFromString(tt.expected)),
			"streak=%d bonus=%s", tt.streak, bonus)
	}
}
