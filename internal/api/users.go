package api

import (
	"errors"
	"net/http"
	"strconv"

	"rewards_academy/internal/model"
	"rewards_academy/internal/service"
	"rewards_academy/pkg/auth"
	"rewards_academy/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type userRoutes struct {
	us service.UserServiceI
	bs service.BonusServiceI
	a  *auth.TelegramAuth
}

func NewUserRoutes(handler *gin.RouterGroup, us service.UserServiceI, bs service.BonusServiceI, a *auth.TelegramAuth) {
	r := &userRoutes{us: us, bs: bs, a: a}
	h := handler.Group("/users")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.POST("/", r.RegisterUser)
		h.GET("/:user_id", r.GetUser)
		h.PATCH("/wallet", r.SetWallet)
	}
}

type RegisterUserRequest struct {
	Referrer *int64 `json:"referrer"`
}

type RegisterUserResponse struct {
	UserID         int64 `json:"user_id"`
	ReferralPlaced bool  `json:"referral_placed"`
}

func (r *userRoutes) RegisterUser(c *gin.Context) {
	log := logger.Logger()

	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}

	u := &model.User{
		ID:         user.ID,
		Username:   user.Username,
		FirstName:  user.FirstName,
		ReferrerID: req.Referrer,
	}

	if err := r.us.RegisterUser(c.Request.Context(), u); err != nil {
		log.Error("failed to register user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		return
	}

	out := RegisterUserResponse{UserID: user.ID}

	// The referral bonus is settled separately from the profile upsert:
	// re-registering never pays twice, and a bad referrer never blocks
	// registration itself.
	if req.Referrer != nil {
		_, err := r.bs.RegisterReferral(c.Request.Context(), *req.Referrer, user.ID)
		switch {
		case err == nil:
			out.ReferralPlaced = true
		case errors.Is(err, service.ErrAlreadyReferred),
			errors.Is(err, service.ErrSelfReferral),
			errors.Is(err, service.ErrUserNotFound):
			log.Info("referral not placed",
				zap.Int64("referrer_id", *req.Referrer),
				zap.Int64("referred_id", user.ID),
				zap.Error(err))
		default:
			log.Error("failed to register referral", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register referral"})
			return
		}
	}

	c.JSON(http.StatusCreated, out)
}

type UserResponse struct {
	UserID          int64   `json:"user_id"`
	Username        string  `json:"username"`
	FirstName       string  `json:"first_name"`
	WalletAddress   *string `json:"wallet_address,omitempty"`
	TotalPoints     int     `json:"total_points"`
	TotalTokens     string  `json:"total_tokens"`
	AcademyCoins    string  `json:"academy_coins"`
	LeadershipLevel int     `json:"leadership_level"`
	DailyStreak     int     `json:"daily_streak"`
	CompletedTasks  int     `json:"completed_tasks"`
}

func (r *userRoutes) GetUser(c *gin.Context) {
	log := logger.Logger()

	id, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		log.Error("failed to parse user_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	u, err := r.us.GetUserByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		log.Error("failed to get user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get user"})
		return
	}

	c.JSON(http.StatusOK, UserResponse{
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
	})
}

type SetWalletRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required"`
}

func (r *userRoutes) SetWallet(c *gin.Context) {
	log := logger.Logger()

	var req SetWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := r.us.SetWallet(c.Request.Context(), user.ID, req.WalletAddress); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		log.Error("failed to set wallet", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to set wallet"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "wallet updated"})
}
