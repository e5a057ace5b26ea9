package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rewards_academy/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type taskRow struct {
	TaskNumber   int             `db:"task_number"`
	Title        string          `db:"title"`
	Description  string          `db:"description"`
	RewardPoints int             `db:"reward_points"`
	RewardTokens decimal.Decimal `db:"reward_tokens"`
	IsActive     bool            `db:"is_active"`
	CreatedAt    time.Time       `db:"created_at"`
}

func (t *taskRow) toModel() *model.Task {
	return &model.Task{
		TaskNumber:   t.TaskNumber,
		Title:        t.Title,
		Description:  t.Description,
		RewardPoints: t.RewardPoints,
		RewardTokens: t.RewardTokens,
		IsActive:     t.IsActive,
		CreatedAt:    t.CreatedAt,
	}
}

type userTaskRow struct {
	UserID         int64      `db:"user_id"`
	TaskNumber     int        `db:"task_number"`
	Status         string     `db:"status"`
	SubmittedProof *string    `db:"submitted_proof"`
	SubmittedAt    *time.Time `db:"submitted_at"`
	ApprovedAt     *time.Time `db:"approved_at"`
	CreatedAt      time.Time  `db:"created_at"`
}

func (r *Repository) GetTaskByNumber(ctx context.Context, taskNumber int) (*model.Task, error) {
	query, args, err := squirrel.
		Select("*").
		From("tasks").
		Where(squirrel.Eq{"task_number": taskNumber}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var task taskRow
	err = r.db.GetContext(ctx, &task, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	return task.toModel(), nil
}

func (r *Repository) ListActiveTasks(ctx context.Context) ([]*model.Task, error) {
	query, args, err := squirrel.
		Select("*").
		From("tasks").
		Where(squirrel.Eq{"is_active": true}).
		OrderBy("task_number").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []*taskRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]*model.Task, len(rows))
	for i, row := range rows {
		tasks[i] = row.toModel()
	}

	return tasks, nil
}

func (r *Repository) GetUserTask(ctx context.Context, userID int64, taskNumber int) (*model.UserTask, error) {
	query, args, err := squirrel.
		Select("*").
		From("user_tasks").
		Where(squirrel.Eq{"user_id": userID, "task_number": taskNumber}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row userTaskRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &model.UserTask{
		UserID:         row.UserID,
		TaskNumber:     row.TaskNumber,
		Status:         model.TaskStatus(row.Status),
		SubmittedProof: row.SubmittedProof,
		SubmittedAt:    row.SubmittedAt,
		ApprovedAt:     row.ApprovedAt,
		CreatedAt:      row.CreatedAt,
	}, nil
}

// StartTask creates the workflow row in state started. Restarting an already
// started task is a no-op upsert; later states are left untouched.
func (r *Repository) StartTask(ctx context.Context, userID int64, taskNumber int) error {
	query, args, err := squirrel.
		Insert("user_tasks").
		SetMap(map[string]interface{}{
			"user_id":     userID,
			"task_number": taskNumber,
			"status":      string(model.TaskStarted),
		}).
		Suffix(`ON CONFLICT (user_id, task_number) DO UPDATE SET
			status = EXCLUDED.status
			WHERE user_tasks.status = ?`, string(model.TaskStarted)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build start task query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to start task: %w", err)
	}

	return nil
}

// SubmitTask stores the proof, moving started -> submitted. The predicate on
// the current status makes a stale or duplicate submit affect zero rows.
func (r *Repository) SubmitTask(ctx context.Context, userID int64, taskNumber int, proof string) error {
	query, args, err := squirrel.
		Update("user_tasks").
		SetMap(map[string]interface{}{
			"status":          string(model.TaskSubmitted),
			"submitted_proof": proof,
			"submitted_at":    time.Now().UTC(),
		}).
		Where(squirrel.Eq{
			"user_id":     userID,
			"task_number": taskNumber,
			"status":      string(model.TaskStarted),
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build submit query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to submit task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return r.diagnoseWorkflowState(ctx, userID, taskNumber, model.TaskStarted)
	}

	return nil
}

// ApproveTask is the atomic unit behind reward settlement: the conditional
// submitted -> approved flip, the task_reward ledger entry, the
// completed_tasks increment and the payout outbox row either all commit or
// none do. Concurrent approvals resolve to exactly one winner because only
// one of them flips the status row.
func (r *Repository) ApproveTask(ctx context.Context, userID int64, task *model.Task) (*model.LedgerEntry, *model.Payout, error) {
	var (
		entry  *model.LedgerEntry
		payout *model.Payout
	)

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		now := time.Now().UTC()

		query, args, err := squirrel.
			Update("user_tasks").
			SetMap(map[string]interface{}{
				"status":      string(model.TaskApproved),
				"approved_at": now,
			}).
			Where(squirrel.Eq{
				"user_id":     userID,
				"task_number": task.TaskNumber,
				"status":      string(model.TaskSubmitted),
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build approve query: %w", err)
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to approve task: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return r.diagnoseWorkflowState(ctx, userID, task.TaskNumber, model.TaskSubmitted)
		}

		entry = &model.LedgerEntry{
			Type:      model.EntryTaskReward,
			ToAccount: userID,
			Points:    task.RewardPoints,
			Tokens:    task.RewardTokens,
			Reason:    fmt.Sprintf("Task #%d approved: %s", task.TaskNumber, task.Title),
		}
		if err := r.appendEntryTx(ctx, tx, entry); err != nil {
			return err
		}

		countQuery, countArgs, err := squirrel.
			Update("users").
			Set("completed_tasks", squirrel.Expr("completed_tasks + 1")).
			Where(squirrel.Eq{"id": userID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, countQuery, countArgs...); err != nil {
			return fmt.Errorf("failed to update completed tasks: %w", err)
		}

		if task.RewardTokens.IsPositive() {
			payout = &model.Payout{
				ID:          uuid.New(),
				UserID:      userID,
				TokenAmount: task.RewardTokens,
				Status:      model.PayoutPending,
				CreatedAt:   now,
			}
			if err := r.createPayoutTx(ctx, tx, payout); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return entry, payout, nil
}

// diagnoseWorkflowState turns a zero-row conditional update into the precise
// domain error: which earlier or later state the row is actually in.
func (r *Repository) diagnoseWorkflowState(ctx context.Context, userID int64, taskNumber int, wanted model.TaskStatus) error {
	userTask, err := r.GetUserTask(ctx, userID, taskNumber)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if wanted == model.TaskStarted {
				return ErrTaskNotStarted
			}
			return ErrTaskNotSubmitted
		}
		return err
	}

	switch userTask.Status {
	case model.TaskApproved:
		return ErrAlreadyApproved
	case wanted:
		return fmt.Errorf("task %d for user %d in state %s but update affected no rows",
			taskNumber, userID, userTask.Status)
	default:
		if wanted == model.TaskStarted {
			return ErrTaskNotStarted
		}
		return ErrTaskNotSubmitted
	}
}
