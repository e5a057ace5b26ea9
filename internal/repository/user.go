package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rewards_academy/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type userRow struct {
	ID              int64           `db:"id"`
	Username        string          `db:"username"`
	FirstName       string          `db:"first_name"`
	WalletAddress   *string         `db:"wallet_address"`
	TotalPoints     int             `db:"total_points"`
	TotalTokens     decimal.Decimal `db:"total_tokens"`
	AcademyCoins    decimal.Decimal `db:"academy_coins"`
	LeadershipLevel int             `db:"leadership_level"`
	DailyStreak     int             `db:"daily_streak"`
	LastRewardDate  *time.Time      `db:"last_reward_date"`
	CompletedTasks  int             `db:"completed_tasks"`
	ReferrerID      *int64          `db:"referrer_id"`
	IsAdmin         bool            `db:"is_admin"`
	FirstSeenAt     time.Time       `db:"first_seen_at"`
}

func (u *userRow) toModel() *model.User {
	return &model.User{
		ID:              u.ID,
		Username:        u.Username,
		FirstName:       u.FirstName,
		WalletAddress:   u.WalletAddress,
		TotalPoints:     u.TotalPoints,
		TotalTokens:     u.TotalTokens,
		AcademyCoins:    u.AcademyCoins,
		LeadershipLevel: u.LeadershipLevel,
		DailyStreak:     u.DailyStreak,
		LastRewardDate:  u.LastRewardDate,
		CompletedTasks:  u.CompletedTasks,
		ReferrerID:      u.ReferrerID,
		IsAdmin:         u.IsAdmin,
		FirstSeenAt:     u.FirstSeenAt,
	}
}

// UpsertUser creates the user on first interaction and refreshes the profile
// fields afterwards. Referral attribution is written once and never changed.
func (r *Repository) UpsertUser(ctx context.Context, user *model.User) error {
	query, args, err := squirrel.
		Insert("users").
		SetMap(map[string]interface{}{
			"id":          user.ID,
			"username":    user.Username,
			"first_name":  user.FirstName,
			"referrer_id": user.ReferrerID,
		}).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name`).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build user upsert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	return nil
}

func (r *Repository) GetUserByID(ctx context.Context, userID int64) (*model.User, error) {
	var user userRow
	query, args, err := squirrel.
		Select("*").
		From("users").
		Where(squirrel.Eq{"id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user.toModel(), nil
}

func (r *Repository) getUserWithTx(ctx context.Context, tx *sqlx.Tx, userID int64, forUpdate bool) (*model.User, error) {
	builder := squirrel.
		Select("*").
		From("users").
		Where(squirrel.Eq{"id": userID}).
		PlaceholderFormat(squirrel.Dollar)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	var user userRow
	err = tx.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user.toModel(), nil
}

func (r *Repository) UpdateUserWallet(ctx context.Context, userID int64, walletAddress string) error {
	query, args, err := squirrel.
		Update("users").
		Set("wallet_address", walletAddress).
		Where(squirrel.Eq{"id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update wallet: %w", err)
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

func (r *Repository) GetUserWallet(ctx context.Context, userID int64) (*string, error) {
	query, args, err := squirrel.
		Select("wallet_address").
		From("users").
		Where(squirrel.Eq{"id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var wallet *string
	err = r.db.GetContext(ctx, &wallet, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return wallet, nil
}
