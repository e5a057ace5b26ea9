package api

import (
	"errors"
	"net/http"

	"rewards_academy/internal/model"
	"rewards_academy/internal/service"
	"rewards_academy/pkg/auth"
	"rewards_academy/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type rewardRoutes struct {
	bs service.BonusServiceI
	a  *auth.TelegramAuth
}

func NewRewardRoutes(handler *gin.RouterGroup, bs service.BonusServiceI, a *auth.TelegramAuth) {
	r := &rewardRoutes{bs: bs, a: a}
	h := handler.Group("/rewards")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.POST("/daily", r.ClaimDaily)
		h.POST("/activity", r.RecordActivity)
		h.POST("/teaching", r.RewardTeaching)
		h.GET("/levels", r.GetLevels)
	}
}

type DailyClaimResponse struct {
	Streak      int    `json:"streak"`
	BaseReward  string `json:"base_reward"`
	StreakBonus string `json:"streak_bonus"`
	TotalReward string `json:"total_reward"`
}

func (r *rewardRoutes) ClaimDaily(c *gin.Context) {
	log := logger.Logger()

	user, ok := currentUser(c)
	if !ok {
		return
	}

	claim, err := r.bs.ClaimDaily(c.Request.Context(), user.ID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyClaimedToday):
			c.JSON(http.StatusConflict, gin.H{"error": "daily reward already claimed today"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			log.Error("failed to claim daily reward", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to claim daily reward"})
		}
		return
	}

	c.JSON(http.StatusOK, DailyClaimResponse{
		Streak:      claim.NewStreak,
		BaseReward:  claim.BaseReward.String(),
		StreakBonus: claim.StreakBonus.String(),
		TotalReward: claim.TotalReward.String(),
	})
}

type ActivityRequest struct {
	ActivityType string `json:"activity_type" binding:"required"`
	Minutes      int    `json:"minutes" binding:"required"`
}

type ActivityResponse struct {
	PointsEarned int    `json:"points_earned"`
	CoinsEarned  string `json:"coins_earned"`
}

func (r *rewardRoutes) RecordActivity(c *gin.Context) {
	log := logger.Logger()

	var req ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}

	reward, err := r.bs.RecordActivity(c.Request.Context(), user.ID, req.ActivityType, req.Minutes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidActivity):
			c.JSON(http.StatusBadRequest, gin.H{"error": "activity duration must be positive"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			log.Error("failed to record activity", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record activity"})
		}
		return
	}

	c.JSON(http.StatusOK, ActivityResponse{
		PointsEarned: reward.PointsEarned,
		CoinsEarned:  reward.CoinsEarned.String(),
	})
}

type TeachingRequest struct {
	StudentID int64 `json:"student_id" binding:"required"`
}

type TeachingResponse struct {
	PointsEarned int    `json:"points_earned"`
	CoinsEarned  string `json:"coins_earned"`
	Promoted     bool   `json:"promoted"`
	NewLevel     int    `json:"new_level,omitempty"`
}

func (r *rewardRoutes) RewardTeaching(c *gin.Context) {
	log := logger.Logger()

	var req TeachingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}

	reward, err := r.bs.RewardTeaching(c.Request.Context(), user.ID, req.StudentID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfReferral):
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot teach yourself"})
		case errors.Is(err, service.ErrAlreadyRewarded):
			c.JSON(http.StatusConflict, gin.H{"error": "teaching reward already granted for this student"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			log.Error("failed to reward teaching", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reward teaching"})
		}
		return
	}

	c.JSON(http.StatusOK, TeachingResponse{
		PointsEarned: reward.PointsEarned,
		CoinsEarned:  reward.CoinsEarned.String(),
		Promoted:     reward.Promoted,
		NewLevel:     reward.NewLevel,
	})
}

type LevelResponse struct {
	Level          int     `json:"level"`
	Name           string  `json:"name"`
	Multiplier     float64 `json:"multiplier"`
	StudentsNeeded int     `json:"students_needed"`
}

func (r *rewardRoutes) GetLevels(c *gin.Context) {
	out := make([]LevelResponse, len(model.LeadershipLevels))
	for i, level := range model.LeadershipLevels {
		out[i] = LevelResponse{
			Level:          level.Level,
			Name:           level.Name,
			Multiplier:     level.Multiplier,
			StudentsNeeded: level.StudentsNeeded,
		}
	}

	c.JSON(http.StatusOK, out)
}
