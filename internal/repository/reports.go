package repository

import (
	"context"
	"fmt"
	"time"

	"rewards_academy/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

type pendingApprovalRow struct {
	UserID         int64     `db:"user_id"`
	Username       string    `db:"username"`
	FirstName      string    `db:"first_name"`
	TaskNumber     int       `db:"task_number"`
	TaskTitle      string    `db:"title"`
	SubmittedProof string    `db:"submitted_proof"`
	SubmittedAt    time.Time `db:"submitted_at"`
}

type topReferrerRow struct {
	UserID        int64         `db:"id"`
	Username      string        `db:"username"`
	FirstName     string        `db:"first_name"`
	ReferralCount int           `db:"referral_count"`
	PointsEarned  int           `db:"points_earned"`
	ReferredIDs   pq.Int64Array `db:"referred_ids"`
}

type taskCountsRow struct {
	TotalTasks     int `db:"total_tasks"`
	StartedTasks   int `db:"started_tasks"`
	CompletedTasks int `db:"completed_tasks"`
}

// GetPendingApprovals lists submitted tasks awaiting an admin, oldest first.
func (r *Repository) GetPendingApprovals(ctx context.Context) ([]*model.PendingApproval, error) {
	query, args, err := squirrel.
		Select(
			"ut.user_id",
			"u.username",
			"u.first_name",
			"ut.task_number",
			"t.title",
			"ut.submitted_proof",
			"ut.submitted_at",
		).
		From("user_tasks ut").
		Join("users u ON u.id = ut.user_id").
		Join("tasks t ON t.task_number = ut.task_number").
		Where(squirrel.Eq{"ut.status": string(model.TaskSubmitted)}).
		OrderBy("ut.submitted_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build pending approvals query: %w", err)
	}

	var rows []*pendingApprovalRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending approvals: %w", err)
	}

	approvals := make([]*model.PendingApproval, len(rows))
	for i, row := range rows {
		approvals[i] = &model.PendingApproval{
			UserID:         row.UserID,
			Username:       row.Username,
			FirstName:      row.FirstName,
			TaskNumber:     row.TaskNumber,
			TaskTitle:      row.TaskTitle,
			SubmittedProof: row.SubmittedProof,
			SubmittedAt:    row.SubmittedAt,
		}
	}

	return approvals, nil
}

// GetTopReferrers ranks users by referral count, with the earned referral
// points and the invited ids aggregated alongside.
func (r *Repository) GetTopReferrers(ctx context.Context, limit int) ([]*model.TopReferrer, error) {
	query, args, err := squirrel.
		Select(
			"u.id",
			"u.username",
			"u.first_name",
			"COUNT(r.referred_id) as referral_count",
			"array_agg(r.referred_id) as referred_ids",
		).
		Column(`COALESCE((SELECT SUM(le.points) FROM ledger_entries le
			WHERE le.to_account = u.id AND le.entry_type = ?), 0) as points_earned`,
			string(model.EntryReferralBonus)).
		From("users u").
		Join("referrals r ON r.referrer_id = u.id").
		GroupBy("u.id", "u.username", "u.first_name").
		OrderBy("referral_count DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build top referrers query: %w", err)
	}

	var rows []*topReferrerRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get top referrers: %w", err)
	}

	referrers := make([]*model.TopReferrer, len(rows))
	for i, row := range rows {
		referrers[i] = &model.TopReferrer{
			UserID:        row.UserID,
			Username:      row.Username,
			FirstName:     row.FirstName,
			ReferralCount: row.ReferralCount,
			PointsEarned:  row.PointsEarned,
			ReferredIDs:   row.ReferredIDs,
		}
	}

	return referrers, nil
}

// GetTaskCounts returns how many active tasks exist and how many of them the
// user has started and completed.
func (r *Repository) GetTaskCounts(ctx context.Context, userID int64) (total, started, completed int, err error) {
	query, args, err := squirrel.
		Select(
			"COUNT(*) as total_tasks",
			"COUNT(ut.user_id) as started_tasks",
		).
		Column("COALESCE(SUM(CASE WHEN ut.status = ? THEN 1 ELSE 0 END), 0) as completed_tasks",
			string(model.TaskApproved)).
		From("tasks t").
		LeftJoin("user_tasks ut ON ut.task_number = t.task_number AND ut.user_id = ?", userID).
		Where(squirrel.Eq{"t.is_active": true}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to build task counts query: %w", err)
	}

	var row taskCountsRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to get task counts: %w", err)
	}

	return row.TotalTasks, row.StartedTasks, row.CompletedTasks, nil
}

func (r *Repository) CountReferrals(ctx context.Context, userID int64) (int, error) {
	query, args, err := squirrel.
		Select("COUNT(*)").
		From("referrals").
		Where(squirrel.Eq{"referrer_id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	err = r.db.GetContext(ctx, &count, query, args...)
	if err != nil {
		return 0, err
	}

	return count, nil
}
