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

type ledgerEntryRow struct {
	ID          uuid.UUID       `db:"id"`
	EntryType   string          `db:"entry_type"`
	FromAccount *int64          `db:"from_account"`
	ToAccount   int64           `db:"to_account"`
	Points      int             `db:"points"`
	Tokens      decimal.Decimal `db:"tokens"`
	Coins       decimal.Decimal `db:"coins"`
	Reason      string          `db:"reason"`
	CreatedAt   time.Time       `db:"created_at"`
}

func (e *ledgerEntryRow) toModel() *model.LedgerEntry {
	return &model.LedgerEntry{
		ID:          e.ID,
		Type:        model.EntryType(e.EntryType),
		FromAccount: e.FromAccount,
		ToAccount:   e.ToAccount,
		Points:      e.Points,
		Tokens:      e.Tokens,
		Coins:       e.Coins,
		Reason:      e.Reason,
		CreatedAt:   e.CreatedAt,
	}
}

// appendEntryTx inserts the entry and applies the matching balance mutations
// to the cached user columns inside the caller's transaction. The cached
// balances and the entry log therefore always move together.
func (r *Repository) appendEntryTx(ctx context.Context, tx *sqlx.Tx, entry *model.LedgerEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query, args, err := squirrel.
		Insert("ledger_entries").
		SetMap(map[string]interface{}{
			"id":           entry.ID,
			"entry_type":   string(entry.Type),
			"from_account": entry.FromAccount,
			"to_account":   entry.ToAccount,
			"points":       entry.Points,
			"tokens":       entry.Tokens,
			"coins":        entry.Coins,
			"reason":       entry.Reason,
			"created_at":   entry.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build ledger insert query: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	if err := r.applyBalanceTx(ctx, tx, entry.ToAccount, entry.Points, entry.Tokens, entry.Coins); err != nil {
		return err
	}

	if entry.FromAccount != nil {
		err := r.applyBalanceTx(ctx, tx, *entry.FromAccount,
			-entry.Points, entry.Tokens.Neg(), entry.Coins.Neg())
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *Repository) applyBalanceTx(ctx context.Context, tx *sqlx.Tx, userID int64, points int, tokens, coins decimal.Decimal) error {
	query, args, err := squirrel.
		Update("users").
		Set("total_points", squirrel.Expr("total_points + ?", points)).
		Set("total_tokens", squirrel.Expr("total_tokens + ?", tokens)).
		Set("academy_coins", squirrel.Expr("academy_coins + ?", coins)).
		Where(squirrel.Eq{"id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build balance update query: %w", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update balances: %w", err)
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

// AppendEntry records a standalone entry outside any workflow transition and
// returns the recipient's coin balance after the append.
func (r *Repository) AppendEntry(ctx context.Context, entry *model.LedgerEntry) (decimal.Decimal, error) {
	var balance decimal.Decimal

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := r.appendEntryTx(ctx, tx, entry); err != nil {
			return err
		}

		query, args, err := squirrel.
			Select("academy_coins").
			From("users").
			Where(squirrel.Eq{"id": entry.ToAccount}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}
		return tx.GetContext(ctx, &balance, query, args...)
	})
	if err != nil {
		return decimal.Zero, err
	}

	return balance, nil
}

// GetBalance returns the user's academy coin balance, the transferable asset.
func (r *Repository) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	query, args, err := squirrel.
		Select("academy_coins").
		From("users").
		Where(squirrel.Eq{"id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return decimal.Zero, err
	}

	var balance decimal.Decimal
	err = r.db.GetContext(ctx, &balance, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, err
	}

	return balance, nil
}

// Transfer moves academy coins between users: one entry, debit and credit
// applied in the same transaction. The sender row is locked so a concurrent
// transfer cannot spend the same balance twice.
func (r *Repository) Transfer(ctx context.Context, fromID, toID int64, amount decimal.Decimal, reason string) (*model.LedgerEntry, error) {
	var entry *model.LedgerEntry

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Select("academy_coins").
			From("users").
			Where(squirrel.Eq{"id": fromID}).
			Suffix("FOR UPDATE").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var balance decimal.Decimal
		err = tx.GetContext(ctx, &balance, query, args...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		if balance.LessThan(amount) {
			return ErrInsufficientFunds
		}

		from := fromID
		entry = &model.LedgerEntry{
			Type:        model.EntryTransfer,
			FromAccount: &from,
			ToAccount:   toID,
			Coins:       amount,
			Reason:      reason,
		}
		return r.appendEntryTx(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// Mine credits freshly issued coins to a user and bumps the global
// total_minted counter in the same transaction.
func (r *Repository) Mine(ctx context.Context, toID int64, amount decimal.Decimal, reason string) (*model.LedgerEntry, error) {
	var entry *model.LedgerEntry

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		entry = &model.LedgerEntry{
			Type:      model.EntryMine,
			ToAccount: toID,
			Coins:     amount,
			Reason:    reason,
		}
		if err := r.appendEntryTx(ctx, tx, entry); err != nil {
			return err
		}

		query, args, err := squirrel.
			Update("system_counters").
			Set("value", squirrel.Expr("value + ?", amount)).
			Where(squirrel.Eq{"name": "total_minted"}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to update total_minted: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func (r *Repository) GetTotalMinted(ctx context.Context) (decimal.Decimal, error) {
	query, args, err := squirrel.
		Select("value").
		From("system_counters").
		Where(squirrel.Eq{"name": "total_minted"}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return decimal.Zero, err
	}

	var total decimal.Decimal
	err = r.db.GetContext(ctx, &total, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, err
	}

	return total, nil
}

func (r *Repository) GetTransactionHistory(ctx context.Context, userID int64, limit int) ([]*model.LedgerEntry, error) {
	query, args, err := squirrel.
		Select("id", "entry_type", "from_account", "to_account", "points", "tokens", "coins", "reason", "created_at").
		From("ledger_entries").
		Where(squirrel.Or{
			squirrel.Eq{"to_account": userID},
			squirrel.Eq{"from_account": userID},
		}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build history query: %w", err)
	}

	var rows []*ledgerEntryRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}

	entries := make([]*model.LedgerEntry, len(rows))
	for i, row := range rows {
		entries[i] = row.toModel()
	}

	return entries, nil
}
