package repository

import (
	"context"
	"fmt"

	"rewards_academy/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// ReferralBonus is the fixed reward paid to a referrer for one new user.
type ReferralBonus struct {
	Points int
	Tokens decimal.Decimal
	Coins  decimal.Decimal
}

// CreateReferral records the edge and pays the bonus atomically. A user can
// be referred at most once globally, so the existence check and the insert
// run in one transaction.
func (r *Repository) CreateReferral(ctx context.Context, referrerID, referredID int64, bonus ReferralBonus) (*model.LedgerEntry, error) {
	var entry *model.LedgerEntry

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		// The unique index on referred_id decides the race: of two
		// concurrent registrations only one insert lands a row.
		insertQuery, insertArgs, err := squirrel.
			Insert("referrals").
			SetMap(map[string]interface{}{
				"referrer_id":   referrerID,
				"referred_id":   referredID,
				"bonus_awarded": true,
			}).
			Suffix("ON CONFLICT (referred_id) DO NOTHING").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build referral insert query: %w", err)
		}

		result, err := tx.ExecContext(ctx, insertQuery, insertArgs...)
		if err != nil {
			return fmt.Errorf("failed to insert referral: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrAlreadyReferred
		}

		entry = &model.LedgerEntry{
			Type:      model.EntryReferralBonus,
			ToAccount: referrerID,
			Points:    bonus.Points,
			Tokens:    bonus.Tokens,
			Coins:     bonus.Coins,
			Reason:    fmt.Sprintf("Referral bonus for inviting user %d", referredID),
		}
		return r.appendEntryTx(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}
