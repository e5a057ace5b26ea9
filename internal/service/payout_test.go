package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"rewards_academy/internal/model"
	"rewards_academy/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func pendingPayout(userID int64, amount string) *model.Payout {
	return &model.Payout{
		ID:          uuid.New(),
		UserID:      userID,
		TokenAmount: decimal.RequireFromString(amount),
		Status:      model.PayoutPending,
		CreatedAt:   time.Now().UTC(),
	}
}

func TestPayoutDispatcher_ProcessNoWallet(t *testing.T) {
	payout := pendingPayout(100, "30")

	mockRepo := &mocks.MockPayoutRepository{}
	mockRepo.On("GetUserWallet", mock.Anything, int64(100)).Return(nil, nil)
	mockRepo.On("ResolvePayout", mock.Anything, payout.ID, model.PayoutFailed,
		(*string)(nil), mock.MatchedBy(func(reason *string) bool {
			return reason != nil && *reason == ErrNoWalletConfigured.Error()
		})).Return(nil)

	mockClient := &mocks.MockWalletClient{}

	dispatcher := NewPayoutDispatcher(mockRepo, mockClient, nil, time.Second, time.Minute)
	err := dispatcher.Process(context.Background(), payout)

	assert.ErrorIs(t, err, ErrNoWalletConfigured)
	mockClient.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestPayoutDispatcher_ProcessTransferFails(t *testing.T) {
	payout := pendingPayout(100, "30")
	wallet := "EQDrjaLahLkMB-hMCmkzOyBuHJ139ZUYmPHu6RRBKnbdLIYI"
	transferErr := errors.New("wallet service: rpc timeout")

	mockRepo := &mocks.MockPayoutRepository{}
	mockRepo.On("GetUserWallet", mock.Anything, int64(100)).Return(&wallet, nil)
	mockRepo.On("ResolvePayout", mock.Anything, payout.ID, model.PayoutFailed,
		(*string)(nil), mock.MatchedBy(func(reason *string) bool {
			return reason != nil && *reason == transferErr.Error()
		})).Return(nil)

	mockClient := &mocks.MockWalletClient{}
	mockClient.On("Transfer", mock.Anything, wallet, payout.TokenAmount).
		Return("", transferErr)

	dispatcher := NewPayoutDispatcher(mockRepo, mockClient, nil, time.Second, time.Minute)
	err := dispatcher.Process(context.Background(), payout)

	assert.ErrorIs(t, err, ErrPayoutFailed)
	assert.ErrorIs(t, err, transferErr)
	mockRepo.AssertExpectations(t)
	mockClient.AssertExpectations(t)
}

func TestPayoutDispatcher_ProcessSucceeds(t *testing.T) {
	payout := pendingPayout(100, "30")
	wallet := "EQDrjaLahLkMB-hMCmkzOyBuHJ139ZUYmPHu6RRBKnbdLIYI"
	txHash := "b5f1a2c9d8e7"

	mockRepo := &mocks.MockPayoutRepository{}
	mockRepo.On("GetUserWallet", mock.Anything, int64(100)).Return(&wallet, nil)
	mockRepo.On("ResolvePayout", mock.Anything, payout.ID, model.PayoutSent,
		mock.MatchedBy(func(hash *string) bool {
			return hash != nil && *hash == txHash
		}), (*string)(nil)).Return(nil)

	mockClient := &mocks.MockWalletClient{}
	mockClient.On("Transfer", mock.Anything, wallet, payout.TokenAmount).
		Return(txHash, nil)

	mockNotifier := &mocks.MockPayoutNotifier{}
	mockNotifier.On("NotifyPayout", payout, txHash).Return()

	dispatcher := NewPayoutDispatcher(mockRepo, mockClient, mockNotifier, time.Second, time.Minute)
	err := dispatcher.Process(context.Background(), payout)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockClient.AssertExpectations(t)
	mockNotifier.AssertExpectations(t)
}

func TestPayoutDispatcher_DrainProcessesPendingRows(t *testing.T) {
	first := pendingPayout(100, "30")
	second := pendingPayout(200, "10")
	wallet := "EQDrjaLahLkMB-hMCmkzOyBuHJ139ZUYmPHu6RRBKnbdLIYI"

	mockRepo := &mocks.MockPayoutRepository{}
	mockRepo.On("ListPendingPayouts", mock.Anything, payoutBatchSize).
		Return([]*model.Payout{first, second}, nil).Once()
	mockRepo.On("GetUserWallet", mock.Anything, mock.Anything).Return(&wallet, nil)
	mockRepo.On("ResolvePayout", mock.Anything, mock.Anything, model.PayoutSent,
		mock.Anything, (*string)(nil)).Return(nil)

	mockClient := &mocks.MockWalletClient{}
	mockClient.On("Transfer", mock.Anything, wallet, mock.Anything).
		Return("hash", nil).Twice()

	dispatcher := NewPayoutDispatcher(mockRepo, mockClient, nil, time.Second, time.Minute)
	dispatcher.drain(context.Background())

	mockRepo.AssertExpectations(t)
	mockClient.AssertExpectations(t)
}

func TestPayoutDispatcher_RunStopsOnContextCancel(t *testing.T) {
	mockRepo := &mocks.MockPayoutRepository{}
	mockRepo.On("ListPendingPayouts", mock.Anything, payoutBatchSize).
		Return([]*model.Payout{}, nil)

	dispatcher := NewPayoutDispatcher(mockRepo, &mocks.MockWalletClient{}, nil,
		time.Second, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go dispatcher.Run(ctx)
	cancel()

	select {
	case <-dispatcher.Done():
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop after context cancellation")
	}
}
