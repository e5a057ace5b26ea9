package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LeadershipLevel is one tier of the static promotion ladder.
type LeadershipLevel struct {
	Level          int
	Name           string
	Multiplier     float64
	StudentsNeeded int
}

// LeadershipLevels is read-only configuration, ordered by level.
var LeadershipLevels = []LeadershipLevel{
	{Level: 1, Name: "Novice", Multiplier: 1.0, StudentsNeeded: 0},
	{Level: 2, Name: "Mentor", Multiplier: 1.2, StudentsNeeded: 3},
	{Level: 3, Name: "Guide", Multiplier: 1.5, StudentsNeeded: 10},
	{Level: 4, Name: "Master", Multiplier: 2.0, StudentsNeeded: 25},
	{Level: 5, Name: "Guru", Multiplier: 3.0, StudentsNeeded: 50},
}

// LevelForStudents returns the highest level whose student requirement is met.
func LevelForStudents(studentCount int) int {
	level := 1
	for _, l := range LeadershipLevels {
		if studentCount >= l.StudentsNeeded {
			level = l.Level
		}
	}
	return level
}

func LevelByNumber(level int) (LeadershipLevel, bool) {
	for _, l := range LeadershipLevels {
		if l.Level == level {
			return l, true
		}
	}
	return LeadershipLevel{}, false
}

type DailyClaim struct {
	UserID      int64
	NewStreak   int
	BaseReward  decimal.Decimal
	StreakBonus decimal.Decimal
	TotalReward decimal.Decimal
	ClaimedAt   time.Time
}

type ActivityReward struct {
	UserID       int64
	ActivityType string
	Minutes      int
	PointsEarned int
	CoinsEarned  decimal.Decimal
}

type TeachingReward struct {
	TeacherID    int64
	StudentID    int64
	PointsEarned int
	CoinsEarned  decimal.Decimal
	NewLevel     int
	Promoted     bool
}

type Promotion struct {
	UserID       int64
	OldLevel     int
	NewLevel     int
	Bonus        decimal.Decimal
	StudentCount int
}
