package service

import (
	"context"
	"errors"
	"fmt"
	"go-bank-ledger/logger"
	"go-bank-ledger/model"
	"go-bank-ledger/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type PixKeyService struct {
	keys     repository.IPixKeyRepository
	accounts repository.IAccountRepository
}

func NewPixKeyService(keys repository.IPixKeyRepository, accounts repository.IAccountRepository) *PixKeyService {
	return &PixKeyService{keys: keys, accounts: accounts}
}

// Register binds a key to the caller's account of the requested type.
// Keys are globally unique.
func (s *PixKeyService) Register(ctx context.Context, clientID uuid.UUID, req model.RegisterPixKeyRequest) (*model.PixKey, error) {
	account, err := s.accounts.FindByClientIDAndType(ctx, clientID, req.AccountType)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: no %s account for this client", ErrAccountNotFound, req.AccountType)
		}
		return nil, err
	}

	key := &model.PixKey{KeyValue: req.KeyValue, AccountID: account.ID}
	if err := s.keys.Create(ctx, key); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrPixKeyConflict
		}
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"client_id":  clientID,
		"account_id": account.ID,
	}).Info("Pix key registered")
	return key, nil
}

func (s *PixKeyService) List(ctx context.Context, clientID uuid.UUID) ([]*model.PixKey, error) {
	return s.keys.ListByClientID(ctx, clientID)
}
