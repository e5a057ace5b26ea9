package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID              int64
	Username        string
	FirstName       string
	WalletAddress   *string
	TotalPoints     int
	TotalTokens     decimal.Decimal
	AcademyCoins    decimal.Decimal
	LeadershipLevel int
	DailyStreak     int
	LastRewardDate  *time.Time
	CompletedTasks  int
	ReferrerID      *int64
	IsAdmin         bool
	FirstSeenAt     time.Time
}

// UserStats is the aggregated read model behind the profile screen.
type UserStats struct {
	User               *User
	LevelName          string
	LevelMultiplier    float64
	StudentCount       int
	NextLevelStudents  int
	StartedTasks       int
	TotalTasks         int
	ReferralCount      int
	RecentTransactions []*LedgerEntry
}

type TopReferrer struct {
	UserID        int64
	Username      string
	FirstName     string
	ReferralCount int
	PointsEarned  int
	ReferredIDs   []int64
}
