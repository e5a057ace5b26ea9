package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"rewards_academy/internal/middleware"
	"rewards_academy/internal/service"
	"rewards_academy/pkg/auth"
	"rewards_academy/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

const defaultLeaderboardLimit = 10

type statsRoutes struct {
	ss service.StatsServiceI
	a  *auth.TelegramAuth
}

func NewStatsRoutes(handler *gin.RouterGroup, ss service.StatsServiceI, a *auth.TelegramAuth, adm *middleware.Authorization) {
	r := &statsRoutes{ss: ss, a: a}
	h := handler.Group("/stats")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.GET("/me", r.GetMyStats)
		h.GET("/leaderboard", r.GetLeaderboard)
		h.GET("/approvals", adm.AdminOnly(), r.GetPendingApprovals)
	}
}

type UserStatsResponse struct {
	User              UserResponse          `json:"user"`
	LevelName         string                `json:"level_name"`
	LevelMultiplier   float64               `json:"level_multiplier"`
	StudentCount      int                   `json:"student_count"`
	NextLevelStudents int                   `json:"next_level_students,omitempty"`
	StartedTasks      int                   `json:"started_tasks"`
	TotalTasks        int                   `json:"total_tasks"`
	ReferralCount     int                   `json:"referral_count"`
	RecentActivity    []LedgerEntryResponse `json:"recent_activity"`
}

func (r *statsRoutes) GetMyStats(c *gin.Context) {
	log := logger.Logger()

	user, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := r.ss.GetUserStats(c.Request.Context(), user.ID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		log.Error("failed to get user stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get user stats"})
		return
	}

	recent := make([]LedgerEntryResponse, len(stats.RecentTransactions))
	for i, entry := range stats.RecentTransactions {
		recent[i] = LedgerEntryResponse{
			ID:          entry.ID.String(),
			Type:        string(entry.Type),
			FromAccount: entry.FromAccount,
			ToAccount:   entry.ToAccount,
			Points:      entry.Points,
			Tokens:      entry.Tokens.String(),
			Coins:       entry.Coins.String(),
			Reason:      entry.Reason,
			CreatedAt:   entry.CreatedAt,
		}
	}

	u := stats.User
	c.JSON(http.StatusOK, UserStatsResponse{
		User: UserResponse{
			UserID:          u.ID,
			Username:        u.Username,
			FirstName:       u.FirstName,
			WalletAddress:   u.WalletAddress,
			TotalPoints:     u.TotalPoints,
			TotalTokens:     u.TotalTokens.String(),
			AcademyCoins:    u.AcademyCoins.String(),
			LeadershipLevel: u.LeadershipLevel,
			DailyStreak:     u.DailyStreak,
			CompletedTasks:  u.CompletedTasks,
		},
		LevelName:         stats.LevelName,
		LevelMultiplier:   stats.LevelMultiplier,
		StudentCount:      stats.StudentCount,
		NextLevelStudents: stats.NextLevelStudents,
		StartedTasks:      stats.StartedTasks,
		TotalTasks:        stats.TotalTasks,
		ReferralCount:     stats.ReferralCount,
		RecentActivity:    recent,
	})
}

type TopReferrerResponse struct {
	UserID        int64  `json:"user_id"`
	Username      string `json:"username"`
	FirstName     string `json:"first_name"`
	ReferralCount int    `json:"referral_count"`
	PointsEarned  int    `json:"points_earned"`
}

func (r *statsRoutes) GetLeaderboard(c *gin.Context) {
	log := logger.Logger()

	limit := defaultLeaderboardLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		if parsed < 100 {
			limit = parsed
		}
	}

	referrers, err := r.ss.GetTopReferrers(c.Request.Context(), limit)
	if err != nil {
		log.Error("failed to get leaderboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get leaderboard"})
		return
	}

	out := make([]TopReferrerResponse, len(referrers))
	for i, ref := range referrers {
		out[i] = TopReferrerResponse{
			UserID:        ref.UserID,
			Username:      ref.Username,
			FirstName:     ref.FirstName,
			ReferralCount: ref.ReferralCount,
			PointsEarned:  ref.PointsEarned,
		}
	}

	c.JSON(http.StatusOK, out)
}

type PendingApprovalResponse struct {
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username"`
	FirstName   string    `json:"first_name"`
	TaskNumber  int       `json:"task_number"`
	TaskTitle   string    `json:"task_title"`
	Proof       string    `json:"proof"`
	SubmittedAt time.Time `json:"submitted_at"`
}

func (r *statsRoutes) GetPendingApprovals(c *gin.Context) {
	log := logger.Logger()

	approvals, err := r.ss.GetPendingApprovals(c.Request.Context())
	if err != nil {
		log.Error("failed to get pending approvals", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get pending approvals"})
		return
	}

	out := make([]PendingApprovalResponse, len(approvals))
	for i, approval := range approvals {
		out[i] = PendingApprovalResponse{
			UserID:      approval.UserID,
			Username:    approval.Username,
			FirstName:   approval.FirstName,
			TaskNumber:  approval.TaskNumber,
			TaskTitle:   approval.TaskTitle,
			Proof:       approval.SubmittedProof,
			SubmittedAt: approval.SubmittedAt,
		}
	}

	c.JSON(http.StatusOK, out)
}
