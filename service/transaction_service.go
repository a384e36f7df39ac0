package service

import (
	"context"
	"errors"
	"fmt"
	"go-bank-ledger/logger"
	"go-bank-ledger/metrics"
	"go-bank-ledger/model"
	"go-bank-ledger/repository"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// KeyResolver maps a payment key to the account it is bound to.
type KeyResolver interface {
	Resolve(ctx context.Context, keyValue string) (uuid.UUID, error)
}

// TransactionService is the ledger engine. It resolves the accounts involved
// in an operation, validates it and hands the balance change to the ledger
// store, which is the only writer of balances.
type TransactionService struct {
	accountRepo     repository.IAccountRepository
	transactionRepo repository.ITransactionRepository
	keys            KeyResolver
	ledger          repository.ILedgerStore
	cache           *AccountCache
}

func NewTransactionService(
	accountRepo repository.IAccountRepository,
	transactionRepo repository.ITransactionRepository,
	keys KeyResolver,
	ledger repository.ILedgerStore,
	cache *AccountCache,
) *TransactionService {
	return &TransactionService{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		keys:            keys,
		ledger:          ledger,
		cache:           cache,
	}
}

// targetResolver finds the receiving account of a two-account operation.
type targetResolver func(ctx context.Context) (*model.Account, error)

// operation describes one money movement for execute.
type operation struct {
	txType      model.TransactionType
	clientID    uuid.UUID
	accountType model.AccountType
	amount      decimal.Decimal
	// credit marks operations that add to the source account and
	// therefore skip the sufficiency check.
	credit bool
	target targetResolver
}

type outcome struct {
	source *model.Account
	target *model.Account
}

func (s *TransactionService) Deposit(ctx context.Context, clientID uuid.UUID, req model.OperationRequest) (*model.TransactionSummary, error) {
	res, err := s.execute(ctx, operation{
		txType:      model.TransactionDeposit,
		clientID:    clientID,
		accountType: req.AccountType,
		amount:      req.Value,
		credit:      true,
	})
	if err != nil {
		return nil, err
	}
	return singleSummary(model.TransactionDeposit, req.Value, res.source), nil
}

func (s *TransactionService) Withdraw(ctx context.Context, clientID uuid.UUID, req model.OperationRequest) (*model.TransactionSummary, error) {
	res, err := s.execute(ctx, operation{
		txType:      model.TransactionWithdraw,
		clientID:    clientID,
		accountType: req.AccountType,
		amount:      req.Value,
	})
	if err != nil {
		return nil, err
	}
	return singleSummary(model.TransactionWithdraw, req.Value, res.source), nil
}

// Transfer moves money to any existing account; the receiver does not have
// to belong to the caller.
func (s *TransactionService) Transfer(ctx context.Context, clientID uuid.UUID, req model.TransferRequest) (*model.TransferSummary, error) {
	res, err := s.execute(ctx, operation{
		txType:      model.TransactionTransfer,
		clientID:    clientID,
		accountType: req.AccountType,
		amount:      req.Value,
		target:      s.accountByID(req.ReceiverID),
	})
	if err != nil {
		return nil, err
	}
	return transferSummary(model.TransactionTransfer, req.Value, res), nil
}

// PayByKey moves money to the account a registered pix key points at.
func (s *TransactionService) PayByKey(ctx context.Context, clientID uuid.UUID, req model.PixRequest) (*model.TransferSummary, error) {
	res, err := s.execute(ctx, operation{
		txType:      model.TransactionPix,
		clientID:    clientID,
		accountType: req.AccountType,
		amount:      req.Value,
		target:      s.accountByKey(req.PixKey),
	})
	if err != nil {
		return nil, err
	}
	return transferSummary(model.TransactionPix, req.Value, res), nil
}

// ListTransactionsForAccount returns the history of an account owned by clientID.
func (s *TransactionService) ListTransactionsForAccount(ctx context.Context, clientID, accountID uuid.UUID) ([]*model.Transaction, error) {
	if _, err := findOwnedAccount(ctx, s.accountRepo, clientID, accountID); err != nil {
		return nil, err
	}
	return s.transactionRepo.GetTransactionsByAccountID(ctx, accountID)
}

func (s *TransactionService) execute(ctx context.Context, op operation) (res outcome, err error) {
	start := time.Now()
	log := logger.Log.WithFields(logrus.Fields{
		"operation":    op.txType,
		"client_id":    op.clientID,
		"account_type": op.accountType,
		"amount":       op.amount.String(),
	})
	defer func() {
		result := "success"
		if err != nil {
			result = string(KindOf(err))
		}
		metrics.ObserveOperation(string(op.txType), result, time.Since(start))
	}()

	if err = validateAmount(op.amount); err != nil {
		log.WithError(err).Info("Rejected operation amount")
		return res, err
	}

	source, err := s.accountRepo.FindByClientIDAndType(ctx, op.clientID, op.accountType)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return res, fmt.Errorf("%w: no %s account for this client", ErrAccountNotFound, op.accountType)
		}
		return res, err
	}

	var target *model.Account
	if op.target != nil {
		target, err = op.target(ctx)
		if err != nil {
			return res, err
		}
		if target.ID == source.ID {
			return res, ErrSameAccountTransfer
		}
	}

	if !op.credit && !source.CanDebit(op.amount) {
		log.WithField("balance", source.Balance.String()).Info("Insufficient funds for operation")
		return res, ErrInsufficientFunds
	}

	if target == nil {
		delta := op.amount
		if !op.credit {
			delta = delta.Neg()
		}
		res.source, err = s.ledger.ApplyDelta(ctx, source.ID, delta, op.txType)
	} else {
		res.source, res.target, err = s.ledger.ApplyTransferAtomically(ctx, source.ID, target.ID, op.amount, op.txType)
	}
	if err != nil {
		err = translateLedgerError(err)
		if KindOf(err) == KindInternal {
			log.WithError(err).Error("Ledger store failed to apply operation")
		}
		return res, err
	}

	owners := []uuid.UUID{res.source.ClientID}
	if res.target != nil && res.target.ClientID != res.source.ClientID {
		owners = append(owners, res.target.ClientID)
	}
	s.cache.Invalidate(ctx, owners...)

	log.WithField("account_id", res.source.ID).Info("Operation completed successfully")
	return res, nil
}

func (s *TransactionService) accountByID(id uuid.UUID) targetResolver {
	return func(ctx context.Context) (*model.Account, error) {
		acc, err := s.accountRepo.FindByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReceiverAccountNotFound
		}
		return acc, err
	}
}

func (s *TransactionService) accountByKey(key string) targetResolver {
	return func(ctx context.Context) (*model.Account, error) {
		accountID, err := s.keys.Resolve(ctx, key)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPixKeyNotFound
		}
		if err != nil {
			return nil, err
		}
		return s.accountByID(accountID)(ctx)
	}
}

// Bounds on an amount's decimal representation, checked before any arithmetic.
const (
	minAmountExponent = -32
	maxAmountExponent = 15
	maxAmountDigits   = 19 - minAmountExponent
)

// validateAmount accepts strictly positive amounts no larger than
// model.MaxAmount with at most model.MoneyScale fractional digits.
func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	if exp := amount.Exponent(); exp < minAmountExponent || exp > maxAmountExponent || amount.NumDigits() > maxAmountDigits {
		return fmt.Errorf("%w: out of range", ErrInvalidAmount)
	}
	if amount.GreaterThan(model.MaxAmount) {
		return fmt.Errorf("%w: must not exceed %s", ErrInvalidAmount, model.MaxAmount)
	}
	if !amount.Equal(amount.Truncate(model.MoneyScale)) {
		return fmt.Errorf("%w: at most %d decimal places are allowed", ErrInvalidAmount, model.MoneyScale)
	}
	return nil
}

// translateLedgerError maps store sentinels raised under the row lock.
// An account disappearing between resolution and locking reads as not found.
func translateLedgerError(err error) error {
	switch {
	case errors.Is(err, repository.ErrInsufficientFunds):
		return ErrInsufficientFunds
	case errors.Is(err, repository.ErrNotFound):
		return ErrAccountNotFound
	default:
		return fmt.Errorf("could not apply ledger operation: %w", err)
	}
}

func singleSummary(txType model.TransactionType, amount decimal.Decimal, acc *model.Account) *model.TransactionSummary {
	return &model.TransactionSummary{
		AccountID: acc.ID,
		Type:      txType,
		Amount:    amount,
		Balance:   acc.Balance,
	}
}

func transferSummary(txType model.TransactionType, amount decimal.Decimal, res outcome) *model.TransferSummary {
	return &model.TransferSummary{
		FromAccountID: res.source.ID,
		ToAccountID:   res.target.ID,
		Type:          txType,
		Amount:        amount,
		FromBalance:   res.source.Balance,
		ToBalance:     res.target.Balance,
	}
}

// findOwnedAccount loads an account and checks that clientID owns it.
func findOwnedAccount(ctx context.Context, repo repository.IAccountRepository, clientID, accountID uuid.UUID) (*model.Account, error) {
	acc, err := repo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if acc.ClientID != clientID {
		logger.Log.WithFields(logrus.Fields{
			"client_id":  clientID,
			"account_id": accountID,
		}).Warn("Permission denied for account access")
		return nil, ErrPermissionDenied
	}
	return acc, nil
}
