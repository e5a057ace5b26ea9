package repository

import (
	"context"
	"fmt"
	"time"

	"rewards_academy/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type payoutRow struct {
	ID          uuid.UUID       `db:"id"`
	UserID      int64           `db:"user_id"`
	TokenAmount decimal.Decimal `db:"token_amount"`
	Status      string          `db:"status"`
	TxHash      *string         `db:"tx_hash"`
	FailReason  *string         `db:"fail_reason"`
	CreatedAt   time.Time       `db:"created_at"`
	ProcessedAt *time.Time      `db:"processed_at"`
}

func (p *payoutRow) toModel() *model.Payout {
	return &model.Payout{
		ID:          p.ID,
		UserID:      p.UserID,
		TokenAmount: p.TokenAmount,
		Status:      model.PayoutStatus(p.Status),
		TxHash:      p.TxHash,
		FailReason:  p.FailReason,
		CreatedAt:   p.CreatedAt,
		ProcessedAt: p.ProcessedAt,
	}
}

func (r *Repository) createPayoutTx(ctx context.Context, tx *sqlx.Tx, payout *model.Payout) error {
	query, args, err := squirrel.
		Insert("payouts").
		SetMap(map[string]interface{}{
			"id":           payout.ID,
			"user_id":      payout.UserID,
			"token_amount": payout.TokenAmount,
			"status":       string(payout.Status),
			"created_at":   payout.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build payout insert query: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert payout: %w", err)
	}

	return nil
}

// ListPendingPayouts returns the oldest unprocessed outbox rows.
func (r *Repository) ListPendingPayouts(ctx context.Context, limit int) ([]*model.Payout, error) {
	query, args, err := squirrel.
		Select("*").
		From("payouts").
		Where(squirrel.Eq{"status": string(model.PayoutPending)}).
		OrderBy("created_at").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []*payoutRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending payouts: %w", err)
	}

	payouts := make([]*model.Payout, len(rows))
	for i, row := range rows {
		payouts[i] = row.toModel()
	}

	return payouts, nil
}

// ResolvePayout finalizes one outbox row. The predicate on the pending
// status keeps two dispatcher passes from double-sending the same payout.
func (r *Repository) ResolvePayout(ctx context.Context, payoutID uuid.UUID, status model.PayoutStatus, txHash, failReason *string) error {
	query, args, err := squirrel.
		Update("payouts").
		SetMap(map[string]interface{}{
			"status":       string(status),
			"tx_hash":      txHash,
			"fail_reason":  failReason,
			"processed_at": time.Now().UTC(),
		}).
		Where(squirrel.Eq{
			"id":     payoutID,
			"status": string(model.PayoutPending),
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build payout update query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to resolve payout: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
