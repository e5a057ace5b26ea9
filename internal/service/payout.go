package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rewards_academy/internal/model"
	"rewards_academy/pkg/logger"

	"go.uber.org/zap"
)

const payoutBatchSize = 20

// PayoutNotifier receives "payment proof" events for the admin channel.
type PayoutNotifier interface {
	NotifyPayout(payout *model.Payout, txHash string)
}

// PayoutDispatcher drains the payout outbox in the background. Rows are
// written by reward transactions and picked up here strictly after commit,
// so a slow or failing wallet service can never hold a lock on ledger rows
// or undo a settled reward.
type PayoutDispatcher struct {
	repo     PayoutRepository
	client   WalletClient
	notifier PayoutNotifier

	timeout  time.Duration
	interval time.Duration

	wake chan struct{}
	done chan struct{}
}

func NewPayoutDispatcher(repo PayoutRepository, client WalletClient, notifier PayoutNotifier, timeout, interval time.Duration) *PayoutDispatcher {
	return &PayoutDispatcher{
		repo:     repo,
		client:   client,
		notifier: notifier,
		timeout:  timeout,
		interval: interval,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Wake nudges the dispatcher without blocking the caller. Safe to call from
// any goroutine; a pending nudge is enough.
func (d *PayoutDispatcher) Wake() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Run processes the outbox until ctx is canceled. The interval ticker also
// retries rows left pending by an earlier crash.
func (d *PayoutDispatcher) Run(ctx context.Context) {
	defer close(d.done)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		d.drain(ctx)

		select {
		case <-ctx.Done():
			return
		case <-d.wake:
		case <-ticker.C:
		}
	}
}

// Done is closed once Run has returned.
func (d *PayoutDispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *PayoutDispatcher) drain(ctx context.Context) {
	log := logger.Logger()

	for {
		payouts, err := d.repo.ListPendingPayouts(ctx, payoutBatchSize)
		if err != nil {
			log.Error("failed to list pending payouts", zap.Error(err))
			return
		}
		if len(payouts) == 0 {
			return
		}

		for _, payout := range payouts {
			if ctx.Err() != nil {
				return
			}
			if err := d.Process(ctx, payout); err != nil {
				log.Warn("payout not delivered",
					zap.String("payout_id", payout.ID.String()),
					zap.Int64("user_id", payout.UserID),
					zap.Error(err))
			}
		}

		if len(payouts) < payoutBatchSize {
			return
		}
	}
}

// Process attempts one payout. Every outcome, including failure, only
// touches the outbox row: the ledger entry it mirrors is already final.
func (d *PayoutDispatcher) Process(ctx context.Context, payout *model.Payout) error {
	wallet, err := d.repo.GetUserWallet(ctx, payout.UserID)
	if err != nil {
		return fmt.Errorf("failed to look up wallet: %w", err)
	}

	if wallet == nil || *wallet == "" {
		reason := ErrNoWalletConfigured.Error()
		if err := d.repo.ResolvePayout(ctx, payout.ID, model.PayoutFailed, nil, &reason); err != nil {
			return fmt.Errorf("failed to record missing wallet: %w", err)
		}
		return ErrNoWalletConfigured
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	txHash, err := d.client.Transfer(callCtx, *wallet, payout.TokenAmount)
	if err != nil {
		reason := err.Error()
		if resolveErr := d.repo.ResolvePayout(ctx, payout.ID, model.PayoutFailed, nil, &reason); resolveErr != nil {
			return fmt.Errorf("failed to record payout failure: %w", resolveErr)
		}
		return errors.Join(ErrPayoutFailed, err)
	}

	if err := d.repo.ResolvePayout(ctx, payout.ID, model.PayoutSent, &txHash, nil); err != nil {
		return fmt.Errorf("failed to record payout success: %w", err)
	}

	if d.notifier != nil {
		d.notifier.NotifyPayout(payout, txHash)
	}

	return nil
}
