package service

import (
	"context"
	"testing"
	"time"

	"rewards_academy/internal/model"
	"rewards_academy/internal/repository"
	"rewards_academy/internal/service/mocks"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func testRewardsConfig() RewardsConfig {
	return RewardsConfig{
		ReferralPoints:      5,
		ReferralTokens:      decimal.RequireFromString("5"),
		ReferralCoins:       decimal.RequireFromString("2"),
		DailyBaseReward:     decimal.RequireFromString("10"),
		DailyStreakUnit:     decimal.RequireFromString("2"),
		MaxStreakBonus:      decimal.RequireFromString("50"),
		ActivityUnitMinutes: 10,
		ActivityCoinRate:    decimal.RequireFromString("0.1"),
		TeachingPoints:      10,
		TeachingCoins:       decimal.RequireFromString("5"),
		PromotionUnit:       decimal.RequireFromString("10"),
	}
}

func TestBonusService_RegisterReferral(t *testing.T) {
	tests := []struct {
		name          string
		referrerID    int64
		referredID    int64
		mockSetup     func(repo *mocks.MockBonusRepository)
		expectedError error
	}{
		{
			name:          "Self referral rejected before any write",
			referrerID:    100,
			referredID:    100,
			mockSetup:     func(repo *mocks.MockBonusRepository) {},
			expectedError: ErrSelfReferral,
		},
		{
			name:       "User already referred by someone else",
			referrerID: 100,
			referredID: 200,
			mockSetup: func(repo *mocks.MockBonusRepository) {
				repo.On("CreateReferral", mock.Anything, int64(100), int64(200), mock.Anything).
					Return(nil, repository.ErrAlreadyReferred)
			},
			expectedError: ErrAlreadyReferred,
		},
		{
			name:       "First referral pays the fixed bonus",
			referrerID: 100,
			referredID: 200,
			mockSetup: func(repo *mocks.MockBonusRepository) {
				repo.On("CreateReferral", mock.Anything, int64(100), int64(200),
					mock.MatchedBy(func(b repository.ReferralBonus) bool {
						return b.Points == 5 && b.Tokens.Equal(decimal.RequireFromString("5"))
					})).
					Return(&model.LedgerEntry{
						Type:      model.EntryReferralBonus,
						ToAccount: 100,
						Points:    5,
						Tokens:    decimal.RequireFromString("5"),
					}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockBonusRepository{}
			tt.mockSetup(mockRepo)

			svc := NewBonusService(mockRepo, testRewardsConfig())
			entry, err := svc.RegisterReferral(context.Background(), tt.referrerID, tt.referredID)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, entry)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, model.EntryReferralBonus, entry.Type)
				assert.Equal(t, tt.referrerID, entry.ToAccount)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestBonusService_ClaimDaily(t *testing.T) {
	now := time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name          string
		mockSetup     func(repo *mocks.MockBonusRepository)
		expectedError error
		checkClaim    func(*testing.T, *model.DailyClaim)
	}{
		{
			name: "Second claim the same day is rejected",
			mockSetup: func(repo *mocks.MockBonusRepository) {
				repo.On("ClaimDaily", mock.Anything, int64(100), now, mock.Anything).
					Return(nil, repository.ErrAlreadyClaimed)
			},
			expectedError: ErrAlreadyClaimedToday,
		},
		{
			name: "Unknown user",
			mockSetup: func(repo *mocks.MockBonusRepository) {
				repo.On("ClaimDaily", mock.Anything, int64(100), now, mock.Anything).
					Return(nil, repository.ErrNotFound)
			},
			expectedError: ErrUserNotFound,
		},
		{
			name: "Claim forwards the configured reward parameters",
			mockSetup: func(repo *mocks.MockBonusRepository) {
				repo.On("ClaimDaily", mock.Anything, int64(100), now,
					mock.MatchedBy(func(p repository.DailyRewardParams) bool {
						return p.BaseReward.Equal(decimal.RequireFromString("10")) &&
							p.StreakUnit.Equal(decimal.RequireFromString("2")) &&
							p.MaxStreakBonus.Equal(decimal.RequireFromString("50"))
					})).
					Return(&model.DailyClaim{
						UserID:      100,
						NewStreak:   3,
						BaseReward:  decimal.RequireFromString("10"),
						StreakBonus: decimal.RequireFromString("6"),
						TotalReward: decimal.RequireFromString("16"),
						ClaimedAt:   now,
					}, nil)
			},
			checkClaim: func(t *testing.T, claim *model.DailyClaim) {
				assert.Equal(t, 3, claim.NewStreak)
				assert.True(t, claim.TotalReward.Equal(decimal.RequireFromString("16")))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockBonusRepository{}
			tt.mockSetup(mockRepo)

			svc := NewBonusService(mockRepo, testRewardsConfig())
			svc.now = func() time.Time { return now }

			claim, err := svc.ClaimDaily(context.Background(), 100)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, claim)
			} else {
				assert.NoError(t, err)
				tt.checkClaim(t, claim)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestBonusService_RecordActivity(t *testing.T) {
	tests := []struct {
		name           string
		minutes        int
		mockSetup      func(repo *mocks.MockBonusRepository)
		expectedError  error
		expectedPoints int
		expectedCoins  string
	}{
		{
			name:          "Zero minutes rejected",
			minutes:       0,
			mockSetup:     func(repo *mocks.MockBonusRepository) {},
			expectedError: ErrInvalidActivity,
		},
		{
			name:          "Negative minutes rejected",
			minutes:       -15,
			mockSetup:     func(repo *mocks.MockBonusRepository) {},
			expectedError: ErrInvalidActivity,
		},
		{
			name:    "Partial unit is not rewarded with points",
			minutes: 25,
			mockSetup: func(repo *mocks.MockBonusRepository) {
				repo.On("RecordActivity", mock.Anything, mock.Anything).Return(nil)
			},
			expectedPoints: 2,
			expectedCoins:  "2.5",
		},
		{
			name:    "Under one unit still earns coins",
			minutes: 7,
			mockSetup: func(repo *mocks.MockBonusRepository) {
				repo.On("RecordActivity", mock.Anything, mock.Anything).Return(nil)
			},
			expectedPoints: 0,
			expectedCoins:  "0.7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockBonusRepository{}
			tt.mockSetup(mockRepo)

			svc := NewBonusService(mockRepo, testRewardsConfig())
			reward, err := svc.RecordActivity(context.Background(), 100, "lesson", tt.minutes)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, reward)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedPoints, reward.PointsEarned)
				assert.True(t, reward.CoinsEarned.Equal(decimal.RequireFromString(tt.expectedCoins)),
					"coins = %s", reward.CoinsEarned)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestBonusService_RewardTeaching(t *testing.T) {
	teachingEntry := &model.LedgerEntry{
		Type:      model.EntryTeachingReward,
		ToAccount: 100,
		Points:    10,
		Coins:     decimal.RequireFromString("5"),
	}

	tests := []struct {
		name          string
		teacherID     int64
		studentID     int64
		mockSetup     func(repo *mocks.MockBonusRepository)
		expectedError error
		checkReward   func(*testing.T, *model.TeachingReward)
	}{
		{
			name:          "Teaching yourself is rejected",
			teacherID:     100,
			studentID:     100,
			mockSetup:     func(repo *mocks.MockBonusRepository) {},
			expectedError: ErrSelfReferral,
		},
		{
			name:      "Same student pair is rewarded once",
			teacherID: 100,
			studentID: 200,
			mockSetup: func(repo *mocks.MockBonusRepository) {
				repo.On("RewardTeaching", mock.Anything, int64(100), int64(200), 10,
					decimal.RequireFromString("5")).
					Return(nil, repository.ErrAlreadyRewarded)
			},
			expectedError: ErrAlreadyRewarded,
		},
		{
			name:      "Reward without promotion",
			teacherID: 100,
			studentID: 200,
			mockSetup: func(repo *mocks.MockBonusRepository) {
				repo.On("RewardTeaching", mock.Anything, int64(100), int64(200), 10,
					decimal.RequireFromString("5")).
					Return(teachingEntry, nil)
				repo.On("EvaluatePromotion", mock.Anything, int64(100),
					decimal.RequireFromString("10")).
					Return(nil, nil)
			},
			checkReward: func(t *testing.T, reward *model.TeachingReward) {
				assert.Equal(t, 10, reward.PointsEarned)
				assert.False(t, reward.Promoted)
			},
		},
		{
			name:      "Third student promotes the teacher",
			teacherID: 100,
			studentID: 300,
			mockSetup: func(repo *mocks.MockBonusRepository) {
				repo.On("RewardTeaching", mock.Anything, int64(100), int64(300), 10,
					decimal.RequireFromString("5")).
					Return(teachingEntry, nil)
				repo.On("EvaluatePromotion", mock.Anything, int64(100),
					decimal.RequireFromString("10")).
					Return(&model.Promotion{
						UserID:       100,
						OldLevel:     1,
						NewLevel:     2,
						Bonus:        decimal.RequireFromString("20"),
						StudentCount: 3,
					}, nil)
			},
			checkReward: func(t *testing.T, reward *model.TeachingReward) {
				assert.True(t, reward.Promoted)
				assert.Equal(t, 2, reward.NewLevel)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockBonusRepository{}
			tt.mockSetup(mockRepo)

			svc := NewBonusService(mockRepo, testRewardsConfig())
			reward, err := svc.RewardTeaching(context.Background(), tt.teacherID, tt.studentID)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, reward)
			} else {
				assert.NoError(t, err)
				tt.checkReward(t, reward)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestBonusService_EvaluatePromotionIdempotent(t *testing.T) {
	mockRepo := &mocks.MockBonusRepository{}
	mockRepo.On("EvaluatePromotion", mock.Anything, int64(100),
		decimal.RequireFromString("10")).
		Return(nil, nil).Twice()

	svc := NewBonusService(mockRepo, testRewardsConfig())

	for i := 0; i < 2; i++ {
		promotion, err := svc.EvaluatePromotion(context.Background(), 100)
		assert.NoError(t, err)
		assert.Nil(t, promotion)
	}
	mockRepo.AssertExpectations(t)
}
