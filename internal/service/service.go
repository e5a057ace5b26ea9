package service

import (
	"context"
	"errors"
	"time"

	"rewards_academy/internal/model"
	"rewards_academy/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Domain errors. All of them are detected before any mutation (or resolved
// by a conditional update inside one), so the caller can always retry or
// show a message without worrying about half-applied state.
var (
	ErrUserNotFound = errors.New("user not found")

	ErrInvalidTask     = errors.New("unknown or inactive task")
	ErrInvalidState    = errors.New("task is not in the required state")
	ErrInvalidProof    = errors.New("proof does not meet the requirements")
	ErrAlreadyApproved = errors.New("task already approved")
	ErrNotSubmitted    = errors.New("task has not been submitted")

	ErrAlreadyClaimedToday = errors.New("daily reward already claimed today")
	ErrAlreadyReferred     = errors.New("user was already referred")
	ErrSelfReferral        = errors.New("users cannot refer themselves")
	ErrAlreadyRewarded     = errors.New("teaching reward already granted for this student")
	ErrInvalidActivity     = errors.New("activity duration must be positive")

	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrSelfTransfer      = errors.New("cannot transfer to yourself")

	ErrNoWalletConfigured = errors.New("no wallet address configured")
	ErrPayoutFailed       = errors.New("payout failed")
)

// RewardsConfig fixes the bonus constants. Everything here is configuration,
// not behavior; see config.yaml for the shipped values.
type RewardsConfig struct {
	ReferralPoints      int
	ReferralTokens      decimal.Decimal
	ReferralCoins       decimal.Decimal
	DailyBaseReward     decimal.Decimal
	DailyStreakUnit     decimal.Decimal
	MaxStreakBonus      decimal.Decimal
	ActivityUnitMinutes int
	ActivityCoinRate    decimal.Decimal
	TeachingPoints      int
	TeachingCoins       decimal.Decimal
	PromotionUnit       decimal.Decimal
}

type UserServiceI interface {
	RegisterUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, userID int64) (*model.User, error)
	SetWallet(ctx context.Context, userID int64, walletAddress string) error
}

type TaskServiceI interface {
	ListTasks(ctx context.Context) ([]*model.Task, error)
	Start(ctx context.Context, userID int64, taskNumber int) error
	Submit(ctx context.Context, userID int64, taskNumber int, proof string) (*model.TaskSubmission, error)
	Approve(ctx context.Context, userID int64, taskNumber int) (*model.LedgerEntry, error)
}

type LedgerServiceI interface {
	Transfer(ctx context.Context, fromID, toID int64, amount decimal.Decimal, reason string) (*model.LedgerEntry, error)
	Mine(ctx context.Context, toID int64, amount decimal.Decimal, reason string) (*model.LedgerEntry, error)
	GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error)
	GetTotalMinted(ctx context.Context) (decimal.Decimal, error)
}

type BonusServiceI interface {
	RegisterReferral(ctx context.Context, referrerID, referredID int64) (*model.LedgerEntry, error)
	ClaimDaily(ctx context.Context, userID int64) (*model.DailyClaim, error)
	RecordActivity(ctx context.Context, userID int64, activityType string, minutes int) (*model.ActivityReward, error)
	RewardTeaching(ctx context.Context, teacherID, studentID int64) (*model.TeachingReward, error)
	EvaluatePromotion(ctx context.Context, userID int64) (*model.Promotion, error)
}

type StatsServiceI interface {
	GetUserStats(ctx context.Context, userID int64) (*model.UserStats, error)
	GetPendingApprovals(ctx context.Context) ([]*model.PendingApproval, error)
	GetTopReferrers(ctx context.Context, limit int) ([]*model.TopReferrer, error)
	GetTransactionHistory(ctx context.Context, userID int64, limit int) ([]*model.LedgerEntry, error)
}

type UserRepository interface {
	UpsertUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, userID int64) (*model.User, error)
	UpdateUserWallet(ctx context.Context, userID int64, walletAddress string) error
}

type TaskRepository interface {
	GetTaskByNumber(ctx context.Context, taskNumber int) (*model.Task, error)
	ListActiveTasks(ctx context.Context) ([]*model.Task, error)
	GetUserByID(ctx context.Context, userID int64) (*model.User, error)
	StartTask(ctx context.Context, userID int64, taskNumber int) error
	SubmitTask(ctx context.Context, userID int64, taskNumber int, proof string) error
	ApproveTask(ctx context.Context, userID int64, task *model.Task) (*model.LedgerEntry, *model.Payout, error)
}

type LedgerRepository interface {
	Transfer(ctx context.Context, fromID, toID int64, amount decimal.Decimal, reason string) (*model.LedgerEntry, error)
	Mine(ctx context.Context, toID int64, amount decimal.Decimal, reason string) (*model.LedgerEntry, error)
	GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error)
	GetTotalMinted(ctx context.Context) (decimal.Decimal, error)
}

type BonusRepository interface {
	CreateReferral(ctx context.Context, referrerID, referredID int64, bonus repository.ReferralBonus) (*model.LedgerEntry, error)
	ClaimDaily(ctx context.Context, userID int64, now time.Time, params repository.DailyRewardParams) (*model.DailyClaim, error)
	RecordActivity(ctx context.Context, reward *model.ActivityReward) error
	RewardTeaching(ctx context.Context, teacherID, studentID int64, points int, coins decimal.Decimal) (*model.LedgerEntry, error)
	EvaluatePromotion(ctx context.Context, userID int64, promotionUnit decimal.Decimal) (*model.Promotion, error)
	GetUserByID(ctx context.Context, userID int64) (*model.User, error)
}

type ReportsRepository interface {
	GetUserByID(ctx context.Context, userID int64) (*model.User, error)
	GetTaskCounts(ctx context.Context, userID int64) (total, started, completed int, err error)
	CountStudents(ctx context.Context, teacherID int64) (int, error)
	CountReferrals(ctx context.Context, userID int64) (int, error)
	GetTransactionHistory(ctx context.Context, userID int64, limit int) ([]*model.LedgerEntry, error)
	GetPendingApprovals(ctx context.Context) ([]*model.PendingApproval, error)
	GetTopReferrers(ctx context.Context, limit int) ([]*model.TopReferrer, error)
}

type PayoutRepository interface {
	ListPendingPayouts(ctx context.Context, limit int) ([]*model.Payout, error)
	ResolvePayout(ctx context.Context, payoutID uuid.UUID, status model.PayoutStatus, txHash, failReason *string) error
	GetUserWallet(ctx context.Context, userID int64) (*string, error)
}

// SubmissionNotifier receives "new submission" events for the admin channel.
type SubmissionNotifier interface {
	NotifySubmission(submission *model.TaskSubmission)
}

// WalletClient is the external token-transfer service.
type WalletClient interface {
	Transfer(ctx context.Context, walletAddress string, amount decimal.Decimal) (string, error)
}
