package service

import (
	"context"
	"errors"
	"fmt"

	"rewards_academy/internal/cache"
	"rewards_academy/internal/model"
	"rewards_academy/internal/repository"
	"rewards_academy/pkg/logger"

	"go.uber.org/zap"
)

const recentTransactionLimit = 5

// StatsService serves the read-only views. Nothing in here mutates engine
// state; the leaderboard cache is an optional fast path over Postgres.
type StatsService struct {
	repo        ReportsRepository
	leaderboard *cache.LeaderboardCache
}

func NewStatsService(repo ReportsRepository, leaderboard *cache.LeaderboardCache) *StatsService {
	return &StatsService{
		repo:        repo,
		leaderboard: leaderboard,
	}
}

func (s *StatsService) GetUserStats(ctx context.Context, userID int64) (*model.UserStats, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	total, started, _, err := s.repo.GetTaskCounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task counts: %w", err)
	}

	students, err := s.repo.CountStudents(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count students: %w", err)
	}

	referrals, err := s.repo.CountReferrals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count referrals: %w", err)
	}

	recent, err := s.repo.GetTransactionHistory(ctx, userID, recentTransactionLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent transactions: %w", err)
	}

	stats := &model.UserStats{
		User:               user,
		StudentCount:       students,
		StartedTasks:       started,
		TotalTasks:         total,
		ReferralCount:      referrals,
		RecentTransactions: recent,
	}

	if level, ok := model.LevelByNumber(user.LeadershipLevel); ok {
		stats.LevelName = level.Name
		stats.LevelMultiplier = level.Multiplier
	}
	if next, ok := model.LevelByNumber(user.LeadershipLevel + 1); ok {
		stats.NextLevelStudents = next.StudentsNeeded
	}

	return stats, nil
}

func (s *StatsService) GetPendingApprovals(ctx context.Context) ([]*model.PendingApproval, error) {
	approvals, err := s.repo.GetPendingApprovals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending approvals: %w", err)
	}
	return approvals, nil
}

func (s *StatsService) GetTopReferrers(ctx context.Context, limit int) ([]*model.TopReferrer, error) {
	if s.leaderboard != nil {
		referrers, err := s.leaderboard.GetTopReferrers(ctx, limit)
		if err == nil {
			return referrers, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Logger().Warn("leaderboard cache read failed", zap.Error(err))
		}
	}

	referrers, err := s.repo.GetTopReferrers(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top referrers: %w", err)
	}

	if s.leaderboard != nil {
		if err := s.leaderboard.SetTopReferrers(ctx, referrers); err != nil {
			logger.Logger().Warn("leaderboard cache write failed", zap.Error(err))
		}
	}

	return referrers, nil
}

func (s *StatsService) GetTransactionHistory(ctx context.Context, userID int64, limit int) ([]*model.LedgerEntry, error) {
	entries, err := s.repo.GetTransactionHistory(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}
	return entries, nil
}
