package repository

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"go-bank-ledger/logger"
	"go-bank-ledger/metrics"
	"go-bank-ledger/model"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ILedgerStore applies balance changes as single database transactions.
type ILedgerStore interface {
	ApplyDelta(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal, txType model.TransactionType) (*model.Account, error)
	ApplyTransferAtomically(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal, txType model.TransactionType) (*model.Account, *model.Account, error)
}

// RetryConfig bounds how often a transaction that lost a race with a
// concurrent writer is run again.
type RetryConfig struct {
	MaxRetries      uint
	InitialInterval time.Duration
}

// LedgerStore owns every write to accounts.balance. Each call locks the
// affected rows, re-checks that no balance goes negative, updates the
// balances and records the movement, all in one transaction.
type LedgerStore struct {
	DB           *sql.DB
	accounts     *AccountRepository
	transactions *TransactionRepository
	retry        RetryConfig
}

func NewLedgerStore(db *sql.DB, accounts *AccountRepository, transactions *TransactionRepository, retry RetryConfig) *LedgerStore {
	return &LedgerStore{
		DB:           db,
		accounts:     accounts,
		transactions: transactions,
		retry:        retry,
	}
}

type balanceChange struct {
	accountID uuid.UUID
	delta     decimal.Decimal
}

// ApplyDelta adds delta (which may be negative) to one account.
func (s *LedgerStore) ApplyDelta(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal, txType model.TransactionType) (*model.Account, error) {
	record := &model.Transaction{Type: txType, Amount: delta.Abs()}
	if delta.IsNegative() {
		record.FromAccountID = uuid.NullUUID{UUID: accountID, Valid: true}
	} else {
		record.ToAccountID = uuid.NullUUID{UUID: accountID, Valid: true}
	}

	accounts, err := s.apply(ctx, record, balanceChange{accountID: accountID, delta: delta})
	if err != nil {
		return nil, err
	}
	return accounts[accountID], nil
}

// ApplyTransferAtomically moves amount from one account to another. Either
// both balances change or neither does.
func (s *LedgerStore) ApplyTransferAtomically(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal, txType model.TransactionType) (*model.Account, *model.Account, error) {
	if fromID == toID {
		return nil, nil, fmt.Errorf("transfer source and target are the same account %s", fromID)
	}

	record := &model.Transaction{
		Type:          txType,
		FromAccountID: uuid.NullUUID{UUID: fromID, Valid: true},
		ToAccountID:   uuid.NullUUID{UUID: toID, Valid: true},
		Amount:        amount,
	}

	accounts, err := s.apply(ctx, record,
		balanceChange{accountID: fromID, delta: amount.Neg()},
		balanceChange{accountID: toID, delta: amount},
	)
	if err != nil {
		return nil, nil, err
	}
	return accounts[fromID], accounts[toID], nil
}

func (s *LedgerStore) apply(ctx context.Context, record *model.Transaction, changes ...balanceChange) (map[uuid.UUID]*model.Account, error) {
	b := backoff.NewExponentialBackOff()
	if s.retry.InitialInterval > 0 {
		b.InitialInterval = s.retry.InitialInterval
	}

	log := logger.Log.WithFields(logrus.Fields{
		"type":   record.Type,
		"amount": record.Amount.String(),
	})

	accounts, err := backoff.Retry(ctx, func() (map[uuid.UUID]*model.Account, error) {
		accounts, err := s.applyOnce(ctx, record, changes)
		if err != nil && !isTransient(err) {
			return nil, backoff.Permanent(err)
		}
		return accounts, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(s.retry.MaxRetries+1),
		backoff.WithNotify(func(err error, next time.Duration) {
			metrics.IncStoreRetry()
			log.WithError(err).WithField("retry_in", next.String()).Warn("Ledger transaction conflicted, retrying")
		}),
	)

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	return accounts, err
}

func (s *LedgerStore) applyOnce(ctx context.Context, record *model.Transaction, changes []balanceChange) (map[uuid.UUID]*model.Account, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	order := lockOrder(changes)
	accounts := make(map[uuid.UUID]*model.Account, len(order))
	for _, id := range order {
		acc, err := s.accounts.GetAccountForUpdate(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		accounts[id] = acc
	}

	for _, c := range changes {
		acc := accounts[c.accountID]
		if c.delta.IsNegative() && !acc.CanDebit(c.delta.Neg()) {
			return nil, ErrInsufficientFunds
		}
		acc.Balance = acc.Balance.Add(c.delta)
	}

	for _, id := range order {
		if err := s.accounts.UpdateAccountBalance(ctx, tx, id, accounts[id].Balance); err != nil {
			return nil, fmt.Errorf("could not update balance of account %s: %w", id, err)
		}
	}

	if err := s.transactions.CreateTransaction(ctx, tx, record); err != nil {
		return nil, fmt.Errorf("could not create transaction record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit transaction: %w", err)
	}
	return accounts, nil
}

// lockOrder returns the distinct account ids in byte order. Locking rows in
// a fixed order keeps two opposite transfers from deadlocking each other.
func lockOrder(changes []balanceChange) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(changes))
	for _, c := range changes {
		if !slices.Contains(ids, c.accountID) {
			ids = append(ids, c.accountID)
		}
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	return ids
}
