package service

import (
	"context"
	"testing"

	"rewards_academy/internal/model"
	"rewards_academy/internal/repository"
	"rewards_academy/internal/service/mocks"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestLedgerService_Transfer(t *testing.T) {
	tests := []struct {
		name          string
		fromID        int64
		toID          int64
		amount        decimal.Decimal
		mockSetup     func(repo *mocks.MockLedgerRepository)
		expectedError error
	}{
		{
			name:          "Zero amount rejected",
			fromID:        100,
			toID:          200,
			amount:        decimal.Zero,
			mockSetup:     func(repo *mocks.MockLedgerRepository) {},
			expectedError: ErrInvalidAmount,
		},
		{
			name:          "Negative amount rejected",
			fromID:        100,
			toID:          200,
			amount:        decimal.RequireFromString("-5"),
			mockSetup:     func(repo *mocks.MockLedgerRepository) {},
			expectedError: ErrInvalidAmount,
		},
		{
			name:          "Transfer to yourself rejected",
			fromID:        100,
			toID:          100,
			amount:        decimal.RequireFromString("5"),
			mockSetup:     func(repo *mocks.MockLedgerRepository) {},
			expectedError: ErrSelfTransfer,
		},
		{
			name:   "Balance too low",
			fromID: 100,
			toID:   200,
			amount: decimal.RequireFromString("1000"),
			mockSetup: func(repo *mocks.MockLedgerRepository) {
				repo.On("Transfer", mock.Anything, int64(100), int64(200),
					decimal.RequireFromString("1000"), "gift").
					Return(nil, repository.ErrInsufficientFunds)
			},
			expectedError: ErrInsufficientFunds,
		},
		{
			name:   "Recipient does not exist",
			fromID: 100,
			toID:   999,
			amount: decimal.RequireFromString("5"),
			mockSetup: func(repo *mocks.MockLedgerRepository) {
				repo.On("Transfer", mock.Anything, int64(100), int64(999),
					decimal.RequireFromString("5"), "gift").
					Return(nil, repository.ErrNotFound)
			},
			expectedError: ErrUserNotFound,
		},
		{
			name:   "Transfer succeeds",
			fromID: 100,
			toID:   200,
			amount: decimal.RequireFromString("12.5"),
			mockSetup: func(repo *mocks.MockLedgerRepository) {
				from := int64(100)
				repo.On("Transfer", mock.Anything, int64(100), int64(200),
					decimal.RequireFromString("12.5"), "gift").
					Return(&model.LedgerEntry{
						Type:        model.EntryTransfer,
						FromAccount: &from,
						ToAccount:   200,
						Coins:       decimal.RequireFromString("12.5"),
					}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockLedgerRepository{}
			tt.mockSetup(mockRepo)

			svc := NewLedgerService(mockRepo)
			entry, err := svc.Transfer(context.Background(), tt.fromID, tt.toID, tt.amount, "gift")

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, entry)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, model.EntryTransfer, entry.Type)
				assert.NotNil(t, entry.FromAccount)
				assert.Equal(t, tt.fromID, *entry.FromAccount)
				assert.True(t, entry.Coins.Equal(tt.amount))
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestLedgerService_Mine(t *testing.T) {
	tests := []struct {
		name          string
		amount        decimal.Decimal
		mockSetup     func(repo *mocks.MockLedgerRepository)
		expectedError error
	}{
		{
			name:          "Non-positive amount rejected",
			amount:        decimal.Zero,
			mockSetup:     func(repo *mocks.MockLedgerRepository) {},
			expectedError: ErrInvalidAmount,
		},
		{
			name:   "Minted entry has no source account",
			amount: decimal.RequireFromString("100"),
			mockSetup: func(repo *mocks.MockLedgerRepository) {
				repo.On("Mine", mock.Anything, int64(100),
					decimal.RequireFromString("100"), "airdrop").
					Return(&model.LedgerEntry{
						Type:      model.EntryMine,
						ToAccount: 100,
						Coins:     decimal.RequireFromString("100"),
					}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockLedgerRepository{}
			tt.mockSetup(mockRepo)

			svc := NewLedgerService(mockRepo)
			entry, err := svc.Mine(context.Background(), 100, tt.amount, "airdrop")

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, entry)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, model.EntryMine, entry.Type)
				assert.Nil(t, entry.FromAccount)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestLedgerService_GetBalance(t *testing.T) {
	mockRepo := &mocks.MockLedgerRepository{}
	mockRepo.On("GetBalance", mock.Anything, int64(100)).
		Return(decimal.RequireFromString("42.5"), nil)
	mockRepo.On("GetBalance", mock.Anything, int64(999)).
		Return(decimal.Zero, repository.ErrNotFound)

	svc := NewLedgerService(mockRepo)

	balance, err := svc.GetBalance(context.Background(), 100)
	assert.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("42.5")))

	_, err = svc.GetBalance(context.Background(), 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
	mockRepo.AssertExpectations(t)
}
