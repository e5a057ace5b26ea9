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
	"github.com/shopspring/decimal"
)

const defaultHistoryLimit = 50

type ledgerRoutes struct {
	ls service.LedgerServiceI
	ss service.StatsServiceI
	a  *auth.TelegramAuth
}

func NewLedgerRoutes(handler *gin.RouterGroup, ls service.LedgerServiceI, ss service.StatsServiceI, a *auth.TelegramAuth, adm *middleware.Authorization) {
	r := &ledgerRoutes{ls: ls, ss: ss, a: a}
	h := handler.Group("/ledger")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.GET("/balance", r.GetBalance)
		h.GET("/history", r.GetHistory)
		h.POST("/transfer", r.Transfer)
		h.POST("/mine", adm.AdminOnly(), r.Mine)
		h.GET("/minted", adm.AdminOnly(), r.GetTotalMinted)
	}
}

func (r *ledgerRoutes) GetBalance(c *gin.Context) {
	log := logger.Logger()

	user, ok := currentUser(c)
	if !ok {
		return
	}

	balance, err := r.ls.GetBalance(c.Request.Context(), user.ID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		log.Error("failed to get balance", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance.String()})
}

type LedgerEntryResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	FromAccount *int64    `json:"from_account,omitempty"`
	ToAccount   int64     `json:"to_account"`
	Points      int       `json:"points"`
	Tokens      string    `json:"tokens"`
	Coins       string    `json:"coins"`
	Reason      string    `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (r *ledgerRoutes) GetHistory(c *gin.Context) {
	log := logger.Logger()

	user, ok := currentUser(c)
	if !ok {
		return
	}

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		if parsed < limit {
			limit = parsed
		}
	}

	entries, err := r.ss.GetTransactionHistory(c.Request.Context(), user.ID, limit)
	if err != nil {
		log.Error("failed to get transaction history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get transaction history"})
		return
	}

	out := make([]LedgerEntryResponse, len(entries))
	for i, entry := range entries {
		out[i] = LedgerEntryResponse{
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

	c.JSON(http.StatusOK, out)
}

type TransferRequest struct {
	ToUserID int64  `json:"to_user_id" binding:"required"`
	Amount   string `json:"amount" binding:"required"`
	Reason   string `json:"reason"`
}

func (r *ledgerRoutes) Transfer(c *gin.Context) {
	log := logger.Logger()

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}

	entry, err := r.ls.Transfer(c.Request.Context(), user.ID, req.ToUserID, amount, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		case errors.Is(err, service.ErrSelfTransfer):
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot transfer to yourself"})
		case errors.Is(err, service.ErrInsufficientFunds):
			c.JSON(http.StatusForbidden, gin.H{"error": "insufficient funds"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			log.Error("failed to transfer", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to transfer"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transaction_id": entry.ID.String(),
		"amount":         entry.Coins.String(),
	})
}

func (r *ledgerRoutes) GetTotalMinted(c *gin.Context) {
	log := logger.Logger()

	total, err := r.ls.GetTotalMinted(c.Request.Context())
	if err != nil {
		log.Error("failed to get total minted", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get total minted"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"total_minted": total.String()})
}

type MineRequest struct {
	UserID int64  `json:"user_id" binding:"required"`
	Amount string `json:"amount" binding:"required"`
	Reason string `json:"reason"`
}

func (r *ledgerRoutes) Mine(c *gin.Context) {
	log := logger.Logger()

	var req MineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	entry, err := r.ls.Mine(c.Request.Context(), req.UserID, amount, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			log.Error("failed to mine", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mine"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transaction_id": entry.ID.String(),
		"amount":         entry.Coins.String(),
	})
}
