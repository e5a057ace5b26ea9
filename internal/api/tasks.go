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

type taskRoutes struct {
	ts service.TaskServiceI
	a  *auth.TelegramAuth
}

func NewTaskRoutes(handler *gin.RouterGroup, ts service.TaskServiceI, a *auth.TelegramAuth, adm *middleware.Authorization) {
	r := &taskRoutes{ts: ts, a: a}
	h := handler.Group("/tasks")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.GET("/", r.ListTasks)
		h.POST("/:task_number/start", r.StartTask)
		h.POST("/:task_number/submit", r.SubmitTask)
		h.POST("/:task_number/approve", adm.AdminOnly(), r.ApproveTask)
	}
}

type TaskResponse struct {
	TaskNumber   int    `json:"task_number"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	RewardPoints int    `json:"reward_points"`
	RewardTokens string `json:"reward_tokens"`
}

func (r *taskRoutes) ListTasks(c *gin.Context) {
	log := logger.Logger()

	tasks, err := r.ts.ListTasks(c.Request.Context())
	if err != nil {
		log.Error("failed to list tasks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tasks"})
		return
	}

	out := make([]TaskResponse, len(tasks))
	for i, task := range tasks {
		out[i] = TaskResponse{
			TaskNumber:   task.TaskNumber,
			Title:        task.Title,
			Description:  task.Description,
			RewardPoints: task.RewardPoints,
			RewardTokens: task.RewardTokens.String(),
		}
	}

	c.JSON(http.StatusOK, out)
}

func (r *taskRoutes) StartTask(c *gin.Context) {
	log := logger.Logger()

	taskNumber, err := strconv.Atoi(c.Param("task_number"))
	if err != nil {
		log.Error("failed to parse task_number", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task_number"})
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := r.ts.Start(c.Request.Context(), user.ID, taskNumber); err != nil {
		if errors.Is(err, service.ErrInvalidTask) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown or inactive task"})
			return
		}
		log.Error("failed to start task", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "started"})
}

type SubmitTaskRequest struct {
	Proof string `json:"proof" binding:"required"`
}

type SubmitTaskResponse struct {
	TaskNumber  int       `json:"task_number"`
	TaskTitle   string    `json:"task_title"`
	SubmittedAt time.Time `json:"submitted_at"`
}

func (r *taskRoutes) SubmitTask(c *gin.Context) {
	log := logger.Logger()

	taskNumber, err := strconv.Atoi(c.Param("task_number"))
	if err != nil {
		log.Error("failed to parse task_number", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task_number"})
		return
	}

	var req SubmitTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}

	submission, err := r.ts.Submit(c.Request.Context(), user.ID, taskNumber, req.Proof)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTask):
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown or inactive task"})
		case errors.Is(err, service.ErrInvalidProof):
			c.JSON(http.StatusBadRequest, gin.H{"error": "proof does not meet the requirements"})
		case errors.Is(err, service.ErrInvalidState):
			c.JSON(http.StatusConflict, gin.H{"error": "task must be started before submitting"})
		default:
			log.Error("failed to submit task", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit task"})
		}
		return
	}

	c.JSON(http.StatusOK, SubmitTaskResponse{
		TaskNumber:  submission.TaskNumber,
		TaskTitle:   submission.TaskTitle,
		SubmittedAt: submission.SubmittedAt,
	})
}

type ApproveTaskRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

type ApproveTaskResponse struct {
	UserID       int64  `json:"user_id"`
	TaskNumber   int    `json:"task_number"`
	PointsEarned int    `json:"points_earned"`
	TokensEarned string `json:"tokens_earned"`
}

func (r *taskRoutes) ApproveTask(c *gin.Context) {
	log := logger.Logger()

	taskNumber, err := strconv.Atoi(c.Param("task_number"))
	if err != nil {
		log.Error("failed to parse task_number", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task_number"})
		return
	}

	var req ApproveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	entry, err := r.ts.Approve(c.Request.Context(), req.UserID, taskNumber)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTask):
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown task"})
		case errors.Is(err, service.ErrAlreadyApproved):
			c.JSON(http.StatusConflict, gin.H{"error": "task already approved"})
		case errors.Is(err, service.ErrNotSubmitted):
			c.JSON(http.StatusConflict, gin.H{"error": "task has not been submitted"})
		default:
			log.Error("failed to approve task", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to approve task"})
		}
		return
	}

	c.JSON(http.StatusOK, ApproveTaskResponse{
		UserID:       req.UserID,
		TaskNumber:   taskNumber,
		PointsEarned: entry.Points,
		TokensEarned: entry.Tokens.String(),
	})
}
