// file: service/account_service.go

package service

import (
	"context"
	"errors"
	"fmt"
	"go-bank-ledger/logger"
	"go-bank-ledger/model"
	"go-bank-ledger/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// AgencyChecker reports whether a branch exists.
type AgencyChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// AccountService handles the account lifecycle. A client holds at most one
// account per account type; the rule is checked on create and on update.
type AccountService struct {
	repo     repository.IAccountRepository
	agencies AgencyChecker
	cache    *AccountCache
	loads    singleflight.Group
}

func NewAccountService(repo repository.IAccountRepository, agencies AgencyChecker, cache *AccountCache) *AccountService {
	return &AccountService{
		repo:     repo,
		agencies: agencies,
		cache:    cache,
	}
}

// CreateAccount opens a zero-balance account for clientID and invalidates the client's account cache.
func (s *AccountService) CreateAccount(ctx context.Context, clientID uuid.UUID, req model.CreateAccountRequest) (*model.Account, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"client_id":    clientID,
		"account_type": req.AccountType,
	})

	agencyID, err := s.ensureAgency(ctx, req.AgencyID)
	if err != nil {
		return nil, err
	}

	owned, err := s.repo.FindByClientID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if hasAccountType(owned, req.AccountType, uuid.Nil) {
		log.Info("Client already holds an account of this type")
		return nil, ErrAccountTypeConflict
	}

	number, err := s.repo.NextAccountNumber(ctx)
	if err != nil {
		return nil, err
	}

	account, err := s.repo.Save(ctx, &model.Account{
		Number:      number,
		AccountType: req.AccountType,
		AgencyID:    agencyID,
		ClientID:    clientID,
		Balance:     decimal.Zero,
	})
	if err != nil {
		return nil, translateSaveError(err)
	}

	s.cache.Invalidate(ctx, clientID)
	log.WithField("account_id", account.ID).Info("Account created")
	return account, nil
}

func (s *AccountService) GetAccount(ctx context.Context, clientID, accountID uuid.UUID) (*model.Account, error) {
	return findOwnedAccount(ctx, s.repo, clientID, accountID)
}

// UpdateAccount changes the type and/or agency of an owned account. The
// resulting type must not collide with any of the client's other accounts.
func (s *AccountService) UpdateAccount(ctx context.Context, clientID, accountID uuid.UUID, req model.UpdateAccountRequest) (*model.Account, error) {
	account, err := findOwnedAccount(ctx, s.repo, clientID, accountID)
	if err != nil {
		return nil, err
	}
	if req.AccountType == nil && req.AgencyID == nil {
		return account, nil
	}

	if req.AgencyID != nil {
		agencyID, err := s.ensureAgency(ctx, *req.AgencyID)
		if err != nil {
			return nil, err
		}
		account.AgencyID = agencyID
	}
	if req.AccountType != nil {
		account.AccountType = *req.AccountType
	}

	owned, err := s.repo.FindByClientID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if hasAccountType(owned, account.AccountType, account.ID) {
		logger.Log.WithFields(logrus.Fields{
			"account_id":   account.ID,
			"account_type": account.AccountType,
		}).Info("Update would give the client two accounts of the same type")
		return nil, ErrAccountTypeConflict
	}

	updated, err := s.repo.Update(ctx, account)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, translateSaveError(err)
	}
	s.cache.Invalidate(ctx, clientID)
	return updated, nil
}

// DeleteAccount removes an owned account. Its pix keys go with it and its
// history keeps the movements with the account reference cleared.
func (s *AccountService) DeleteAccount(ctx context.Context, clientID, accountID uuid.UUID) error {
	if _, err := findOwnedAccount(ctx, s.repo, clientID, accountID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, accountID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return err
	}
	s.cache.Invalidate(ctx, clientID)
	logger.Log.WithField("account_id", accountID).Info("Account deleted")
	return nil
}

// ListAccountsForClient lists a client's accounts, utilizing a cache-aside
// strategy. Concurrent misses for the same client share one store read,
// which is detached from the first caller's cancellation.
func (s *AccountService) ListAccountsForClient(ctx context.Context, clientID uuid.UUID) ([]*model.Account, error) {
	if accounts, ok := s.cache.GetAccounts(ctx, clientID); ok {
		return accounts, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	loaded, err, _ := s.loads.Do(clientID.String(), func() (interface{}, error) {
		gen := s.cache.Generation(clientID)
		accounts, err := s.repo.FindByClientID(loadCtx, clientID)
		if err != nil {
			return nil, err
		}
		s.cache.SetAccounts(loadCtx, clientID, accounts, gen)
		return accounts, nil
	})
	if err != nil {
		return nil, err
	}
	return loaded.([]*model.Account), nil
}

// GetAllAccounts retrieves all accounts. Caching is not applied here as admin data may need to be fresh.
func (s *AccountService) GetAllAccounts(ctx context.Context) ([]*model.Account, error) {
	return s.repo.GetAllAccounts(ctx)
}

func (s *AccountService) ensureAgency(ctx context.Context, raw string) (uuid.UUID, error) {
	agencyID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q is not a valid agency id", ErrAgencyNotFound, raw)
	}
	exists, err := s.agencies.Exists(ctx, agencyID)
	if err != nil {
		return uuid.Nil, err
	}
	if !exists {
		return uuid.Nil, ErrAgencyNotFound
	}
	return agencyID, nil
}

// hasAccountType reports whether any account other than exclude has type t.
func hasAccountType(accounts []*model.Account, t model.AccountType, exclude uuid.UUID) bool {
	for _, acc := range accounts {
		if acc.ID != exclude && acc.AccountType == t {
			return true
		}
	}
	return false
}

// translateSaveError maps the store's unique constraint on
// (client_id, account_type), hit by a concurrent create or update.
func translateSaveError(err error) error {
	if errors.Is(err, repository.ErrConflict) {
		return ErrAccountTypeConflict
	}
	return err
}
