package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType is the closed set of balance-affecting events.
type EntryType string

const (
	EntryMine             EntryType = "mine"
	EntryTransfer         EntryType = "transfer"
	EntryTaskReward       EntryType = "task_reward"
	EntryReferralBonus    EntryType = "referral_bonus"
	EntryDailyReward      EntryType = "daily_reward"
	EntryLearningActivity EntryType = "learning_activity"
	EntryTeachingReward   EntryType = "teaching_reward"
	EntryPromotion        EntryType = "promotion"
	EntryConversion       EntryType = "conversion"
)

// LedgerEntry is an immutable fact. FromAccount nil means the system account.
// Entries are only ever appended, never updated or deleted. One event may
// touch several assets (a task reward carries points and tokens), so the
// amount is kept per asset; every cached user balance equals the signed sum
// of the matching column across all entries touching that account.
type LedgerEntry struct {
	ID          uuid.UUID
	Type        EntryType
	FromAccount *int64
	ToAccount   int64
	Points      int
	Tokens      decimal.Decimal
	Coins       decimal.Decimal
	Reason      string
	CreatedAt   time.Time
}

type PayoutStatus string

const (
	PayoutPending PayoutStatus = "pending"
	PayoutSent    PayoutStatus = "sent"
	PayoutFailed  PayoutStatus = "failed"
)

// Payout is one outbox row: a token amount owed to a user's external wallet.
// Rows are written in the same transaction as the reward entry they mirror
// and processed after commit; their fate never feeds back into the ledger.
type Payout struct {
	ID          uuid.UUID
	UserID      int64
	TokenAmount decimal.Decimal
	Status      PayoutStatus
	TxHash      *string
	FailReason  *string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}
