package service

import (
	"context"
	"errors"
	"fmt"

	"rewards_academy/internal/model"
	"rewards_academy/internal/repository"

	"github.com/shopspring/decimal"
)

type LedgerService struct {
	repo LedgerRepository
}

func NewLedgerService(repo LedgerRepository) *LedgerService {
	return &LedgerService{repo: repo}
}

// Transfer moves academy coins between two users. Validation happens before
// any mutation; the repository applies the entry and both balance changes in
// one transaction, so a transfer either fully lands or not at all.
func (s *LedgerService) Transfer(ctx context.Context, fromID, toID int64, amount decimal.Decimal, reason string) (*model.LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if fromID == toID {
		return nil, ErrSelfTransfer
	}

	entry, err := s.repo.Transfer(ctx, fromID, toID, amount, reason)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientFunds):
			return nil, ErrInsufficientFunds
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		default:
			return nil, fmt.Errorf("failed to transfer: %w", err)
		}
	}

	return entry, nil
}

// Mine issues new coins to a user. The admin gate lives at the API layer;
// here only the accounting is done, total_minted included.
func (s *LedgerService) Mine(ctx context.Context, toID int64, amount decimal.Decimal, reason string) (*model.LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	entry, err := s.repo.Mine(ctx, toID, amount, reason)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to mine: %w", err)
	}

	return entry, nil
}

// GetTotalMinted reports how many coins have ever been issued through Mine.
func (s *LedgerService) GetTotalMinted(ctx context.Context) (decimal.Decimal, error) {
	total, err := s.repo.GetTotalMinted(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get total minted: %w", err)
	}
	return total, nil
}

func (s *LedgerService) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	balance, err := s.repo.GetBalance(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return decimal.Zero, ErrUserNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}

	return balance, nil
}
