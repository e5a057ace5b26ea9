// Package mocks provides testify mocks for the repository interfaces used
// by the service tests.
package mocks

import (
	"context"
	"time"

	"rewards_academy/internal/model"
	"rewards_academy/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) GetTaskByNumber(ctx context.Context, taskNumber int) (*model.Task, error) {
	args := m.Called(ctx, taskNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskRepository) ListActiveTasks(ctx context.Context) ([]*model.Task, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Task), args.Error(1)
}

func (m *MockTaskRepository) GetUserByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockTaskRepository) StartTask(ctx context.Context, userID int64, taskNumber int) error {
	args := m.Called(ctx, userID, taskNumber)
	return args.Error(0)
}

func (m *MockTaskRepository) SubmitTask(ctx context.Context, userID int64, taskNumber int, proof string) error {
	args := m.Called(ctx, userID, taskNumber, proof)
	return args.Error(0)
}

func (m *MockTaskRepository) ApproveTask(ctx context.Context, userID int64, task *model.Task) (*model.LedgerEntry, *model.Payout, error) {
	args := m.Called(ctx, userID, task)
	var entry *model.LedgerEntry
	var payout *model.Payout
	if args.Get(0) != nil {
		entry = args.Get(0).(*model.LedgerEntry)
	}
	if args.Get(1) != nil {
		payout = args.Get(1).(*model.Payout)
	}
	return entry, payout, args.Error(2)
}

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Transfer(ctx context.Context, fromID, toID int64, amount decimal.Decimal, reason string) (*model.LedgerEntry, error) {
	args := m.Called(ctx, fromID, toID, amount, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) Mine(ctx context.Context, toID int64, amount decimal.Decimal, reason string) (*model.LedgerEntry, error) {
	args := m.Called(ctx, toID, amount, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedgerRepository) GetTotalMinted(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockBonusRepository struct {
	mock.Mock
}

func (m *MockBonusRepository) CreateReferral(ctx context.Context, referrerID, referredID int64, bonus repository.ReferralBonus) (*model.LedgerEntry, error) {
	args := m.Called(ctx, referrerID, referredID, bonus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LedgerEntry), args.Error(1)
}

func (m *MockBonusRepository) ClaimDaily(ctx context.Context, userID int64, now time.Time, params repository.DailyRewardParams) (*model.DailyClaim, error) {
	args := m.Called(ctx, userID, now, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DailyClaim), args.Error(1)
}

func (m *MockBonusRepository) RecordActivity(ctx context.Context, reward *model.ActivityReward) error {
	args := m.Called(ctx, reward)
	return args.Error(0)
}

func (m *MockBonusRepository) RewardTeaching(ctx context.Context, teacherID, studentID int64, points int, coins decimal.Decimal) (*model.LedgerEntry, error) {
	args := m.Called(ctx, teacherID, studentID, points, coins)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LedgerEntry), args.Error(1)
}

func (m *MockBonusRepository) EvaluatePromotion(ctx context.Context, userID int64, promotionUnit decimal.Decimal) (*model.Promotion, error) {
	args := m.Called(ctx, userID, promotionUnit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Promotion), args.Error(1)
}

func (m *MockBonusRepository) GetUserByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type MockPayoutRepository struct {
	mock.Mock
}

func (m *MockPayoutRepository) ListPendingPayouts(ctx context.Context, limit int) ([]*model.Payout, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Payout), args.Error(1)
}

func (m *MockPayoutRepository) ResolvePayout(ctx context.Context, payoutID uuid.UUID, status model.PayoutStatus, txHash, failReason *string) error {
	args := m.Called(ctx, payoutID, status, txHash, failReason)
	return args.Error(0)
}

func (m *MockPayoutRepository) GetUserWallet(ctx context.Context, userID int64) (*string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*string), args.Error(1)
}

type MockWalletClient struct {
	mock.Mock
}

func (m *MockWalletClient) Transfer(ctx context.Context, walletAddress string, amount decimal.Decimal) (string, error) {
	args := m.Called(ctx, walletAddress, amount)
	return args.String(0), args.Error(1)
}

type MockSubmissionNotifier struct {
	mock.Mock
}

func (m *MockSubmissionNotifier) NotifySubmission(submission *model.TaskSubmission) {
	m.Called(submission)
}

type MockPayoutNotifier struct {
	mock.Mock
}

func (m *MockPayoutNotifier) NotifyPayout(payout *model.Payout, txHash string) {
	m.Called(payout, txHash)
}
