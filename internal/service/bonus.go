package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rewards_academy/internal/model"
	"rewards_academy/internal/repository"

	"github.com/shopspring/decimal"
)

type BonusService struct {
	repo BonusRepository
	cfg  RewardsConfig

	// now is swappable for streak tests.
	now func() time.Time
}

func NewBonusService(repo BonusRepository, cfg RewardsConfig) *BonusService {
	return &BonusService{
		repo: repo,
		cfg:  cfg,
		now:  time.Now,
	}
}

// RegisterReferral pays the fixed referral bonus to the referrer. A user can
// be referred once, ever, regardless of who refers them.
func (s *BonusService) RegisterReferral(ctx context.Context, referrerID, referredID int64) (*model.LedgerEntry, error) {
	if referrerID == referredID {
		return nil, ErrSelfReferral
	}

	bonus := repository.ReferralBonus{
		Points: s.cfg.ReferralPoints,
		Tokens: s.cfg.ReferralTokens,
		Coins:  s.cfg.ReferralCoins,
	}

	entry, err := s.repo.CreateReferral(ctx, referrerID, referredID, bonus)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyReferred):
			return nil, ErrAlreadyReferred
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		default:
			return nil, fmt.Errorf("failed to register referral: %w", err)
		}
	}

	return entry, nil
}

// ClaimDaily grants the daily reward. Claiming on consecutive calendar days
// grows the streak; a gap of two days or more resets it to one.
func (s *BonusService) ClaimDaily(ctx context.Context, userID int64) (*model.DailyClaim, error) {
	params := repository.DailyRewardParams{
		BaseReward:     s.cfg.DailyBaseReward,
		StreakUnit:     s.cfg.DailyStreakUnit,
		MaxStreakBonus: s.cfg.MaxStreakBonus,
	}

	claim, err := s.repo.ClaimDaily(ctx, userID, s.now(), params)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyClaimed):
			return nil, ErrAlreadyClaimedToday
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		default:
			return nil, fmt.Errorf("failed to claim daily reward: %w", err)
		}
	}

	return claim, nil
}

// RecordActivity credits a learning session: one point per full unit of
// minutes, coins proportional to the minutes spent.
func (s *BonusService) RecordActivity(ctx context.Context, userID int64, activityType string, minutes int) (*model.ActivityReward, error) {
	if minutes <= 0 {
		return nil, ErrInvalidActivity
	}

	points := minutes / s.cfg.ActivityUnitMinutes
	coins := s.cfg.ActivityCoinRate.Mul(decimal.NewFromInt(int64(minutes)))

	reward := &model.ActivityReward{
		UserID:       userID,
		ActivityType: activityType,
		Minutes:      minutes,
		PointsEarned: points,
		CoinsEarned:  coins,
	}

	if err := s.repo.RecordActivity(ctx, reward); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to record activity: %w", err)
	}

	return reward, nil
}

// RewardTeaching credits a teacher for one new student and re-evaluates the
// leadership level afterwards. Safe to call on every teaching event.
func (s *BonusService) RewardTeaching(ctx context.Context, teacherID, studentID int64) (*model.TeachingReward, error) {
	if teacherID == studentID {
		return nil, ErrSelfReferral
	}

	_, err := s.repo.RewardTeaching(ctx, teacherID, studentID, s.cfg.TeachingPoints, s.cfg.TeachingCoins)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyRewarded):
			return nil, ErrAlreadyRewarded
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		default:
			return nil, fmt.Errorf("failed to reward teaching: %w", err)
		}
	}

	reward := &model.TeachingReward{
		TeacherID:    teacherID,
		StudentID:    studentID,
		PointsEarned: s.cfg.TeachingPoints,
		CoinsEarned:  s.cfg.TeachingCoins,
	}

	promotion, err := s.EvaluatePromotion(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if promotion != nil {
		reward.Promoted = true
		reward.NewLevel = promotion.NewLevel
	}

	return reward, nil
}

// EvaluatePromotion is idempotent: without new students it changes nothing
// and appends no entries.
func (s *BonusService) EvaluatePromotion(ctx context.Context, userID int64) (*model.Promotion, error) {
	promotion, err := s.repo.EvaluatePromotion(ctx, userID, s.cfg.PromotionUnit)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to evaluate promotion: %w", err)
	}

	return promotion, nil
}
