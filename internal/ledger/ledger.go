// Package ledger is the only writer of user balances.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"timed-auction/internal/biddingerrors"
	"timed-auction/internal/keylock"
	model "timed-auction/internal/models"
)

// BalanceStore persists balances. AdjustBalance must refuse a change that
// takes a balance below zero.
type BalanceStore interface {
	GetUser(ctx context.Context, userID string) (model.User, error)
	AdjustBalance(ctx context.Context, userID string, delta int64) (int64, error)
}

// Ledger applies debits and credits one at a time per user
type Ledger struct {
	store BalanceStore
	locks *keylock.KeyedMutex
}

// New creates a Ledger over store
func New(store BalanceStore) *Ledger {
	return &Ledger{
		store: store,
		locks: keylock.New(),
	}
}

// Balance returns a user's current balance
func (l *Ledger) Balance(ctx context.Context, userID string) (int64, error) {
	user, err := l.store.GetUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("ledger: balance of %s: %w", userID, err)
	}
	return user.Balance, nil
}

// Debit removes amount from a user's balance and returns the new balance.
// It fails with ErrInsufficientFunds, leaving the balance untouched, when the
// balance is smaller than amount.
func (l *Ledger) Debit(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("ledger: debit %s by %d: %w", userID, amount, biddingerrors.ErrInvalidBid)
	}

	unlock, err := l.locks.Lock(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("ledger: debit %s: %w", userID, err)
	}
	defer unlock()

	user, err := l.store.GetUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("ledger: debit %s: %w", userID, err)
	}
	if user.Balance < amount {
		return user.Balance, fmt.Errorf("ledger: debit %s by %d with balance %d: %w",
			userID, amount, user.Balance, biddingerrors.ErrInsufficientFunds)
	}

	balance, err := l.store.AdjustBalance(ctx, userID, -amount)
	if err != nil {
		// the store guard tripping after our own check means another writer
		// bypassed the ledger
		if errors.Is(err, biddingerrors.ErrInsufficientFunds) {
			return balance, fmt.Errorf("ledger: debit %s: %w", userID, err)
		}
		return 0, fmt.Errorf("ledger: debit %s: %w", userID, err)
	}
	return balance, nil
}

// Credit adds amount to a user's balance and returns the new balance
func (l *Ledger) Credit(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("ledger: credit %s by %d: %w", userID, amount, biddingerrors.ErrInvalidBid)
	}

	unlock, err := l.locks.Lock(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("ledger: credit %s: %w", userID, err)
	}
	defer unlock()

	balance, err := l.store.AdjustBalance(ctx, userID, amount)
	if err != nil {
		return 0, fmt.Errorf("ledger: credit %s: %w", userID, err)
	}
	return balance, nil
}
