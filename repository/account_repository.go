package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"go-bank-ledger/logger"
	"go-bank-ledger/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// IAccountRepository is the account store consumed by the services.
type IAccountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	FindByClientID(ctx context.Context, clientID uuid.UUID) ([]*model.Account, error)
	FindByClientIDAndType(ctx context.Context, clientID uuid.UUID, accountType model.AccountType) (*model.Account, error)
	Save(ctx context.Context, account *model.Account) (*model.Account, error)
	Update(ctx context.Context, account *model.Account) (*model.Account, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetAllAccounts(ctx context.Context) ([]*model.Account, error)
	NextAccountNumber(ctx context.Context) (string, error)
}

const accountColumns = `id, number, account_type, agency_id, client_id, balance, created_at`

type AccountRepository struct {
	DB *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{DB: db}
}

func scanAccount(row scanner) (*model.Account, error) {
	var acc model.Account
	if err := row.Scan(&acc.ID, &acc.Number, &acc.AccountType, &acc.AgencyID, &acc.ClientID, &acc.Balance, &acc.CreatedAt); err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *AccountRepository) queryAccounts(ctx context.Context, log *logrus.Entry, query string, args ...any) ([]*model.Account, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.WithError(err).Error("Failed to execute accounts query")
		return nil, err
	}
	defer rows.Close()

	accounts := []*model.Account{}
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			log.WithError(err).Error("Failed to scan account row")
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

// FindByID returns ErrNotFound when no account has the given id.
func (r *AccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	log := logger.Log.WithField("account_id", id)
	log.Info("Executing query to get account by ID")

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	acc, err := scanAccount(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if err != sql.ErrNoRows {
			log.WithError(err).Error("Failed to execute get account by ID query")
		}
		return nil, translateError(err)
	}
	return acc, nil
}

// FindByClientID retrieves all accounts owned by a client.
func (r *AccountRepository) FindByClientID(ctx context.Context, clientID uuid.UUID) ([]*model.Account, error) {
	log := logger.Log.WithField("client_id", clientID)
	log.Info("Executing query to get accounts by client ID")

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE client_id = $1 ORDER BY created_at`
	return r.queryAccounts(ctx, log, query, clientID)
}

func (r *AccountRepository) FindByClientIDAndType(ctx context.Context, clientID uuid.UUID, accountType model.AccountType) (*model.Account, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"client_id":    clientID,
		"account_type": accountType,
	})
	log.Info("Executing query to get account by client ID and type")

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE client_id = $1 AND account_type = $2`
	acc, err := scanAccount(r.DB.QueryRowContext(ctx, query, clientID, accountType))
	if err != nil {
		if err != sql.ErrNoRows {
			log.WithError(err).Error("Failed to execute get account by client ID and type query")
		}
		return nil, translateError(err)
	}
	return acc, nil
}

// Save inserts the account or, when its id already exists, updates its type
// and agency. The balance column is written only on insert; afterwards it
// changes exclusively through LedgerStore so a stale copy can never overwrite it.
func (r *AccountRepository) Save(ctx context.Context, account *model.Account) (*model.Account, error) {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}

	log := logger.Log.WithFields(logrus.Fields{
		"account_id":   account.ID,
		"client_id":    account.ClientID,
		"account_type": account.AccountType,
		"agency_id":    account.AgencyID,
	})
	log.Info("Executing query to save account")

	query := `
		INSERT INTO accounts (id, number, account_type, agency_id, client_id, balance)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET account_type = EXCLUDED.account_type, agency_id = EXCLUDED.agency_id
		RETURNING ` + accountColumns

	saved, err := scanAccount(r.DB.QueryRowContext(ctx, query,
		account.ID, account.Number, account.AccountType, account.AgencyID, account.ClientID, account.Balance))
	if err != nil {
		log.WithError(err).Error("Failed to execute save account query")
		return nil, translateError(err)
	}
	return saved, nil
}

// Update changes the type and agency of an existing account. It never
// inserts, so an account deleted after it was read stays deleted and
// Update returns ErrNotFound.
func (r *AccountRepository) Update(ctx context.Context, account *model.Account) (*model.Account, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"account_id":   account.ID,
		"account_type": account.AccountType,
		"agency_id":    account.AgencyID,
	})
	log.Info("Executing query to update account")

	query := `
		UPDATE accounts SET account_type = $2, agency_id = $3
		WHERE id = $1
		RETURNING ` + accountColumns

	updated, err := scanAccount(r.DB.QueryRowContext(ctx, query, account.ID, account.AccountType, account.AgencyID))
	if err != nil {
		err = translateError(err)
		if !errors.Is(err, ErrNotFound) {
			log.WithError(err).Error("Failed to execute update account query")
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes the account permanently. It returns ErrNotFound if nothing was deleted.
func (r *AccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.Log.WithField("account_id", id)
	log.Info("Executing query to delete account")

	res, err := r.DB.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		log.WithError(err).Error("Failed to execute delete account query")
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetAllAccounts retrieves all accounts from the database. For admin use only.
func (r *AccountRepository) GetAllAccounts(ctx context.Context) ([]*model.Account, error) {
	log := logger.Log.WithField("scope", "all")
	log.Info("Executing query to get all accounts")

	return r.queryAccounts(ctx, log, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at`)
}

// NextAccountNumber draws the next ten-digit account number from a sequence.
func (r *AccountRepository) NextAccountNumber(ctx context.Context) (string, error) {
	var n int64
	if err := r.DB.QueryRowContext(ctx, `SELECT nextval('account_number_seq')`).Scan(&n); err != nil {
		logger.Log.WithError(err).Error("Failed to draw account number")
		return "", err
	}
	return fmt.Sprintf("%010d", n), nil
}

// GetAccountForUpdate reads an account and locks its row until tx ends.
func (r *AccountRepository) GetAccountForUpdate(ctx context.Context, tx Querier, accountID uuid.UUID) (*model.Account, error) {
	log := logger.Log.WithField("account_id", accountID)
	log.Info("Executing query to get account for update")

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	acc, err := scanAccount(tx.QueryRowContext(ctx, query, accountID))
	if err != nil {
		if err == sql.ErrNoRows {
			log.Info("Account not found for update")
		} else {
			log.WithError(err).Error("Failed to execute get account for update query")
		}
		return nil, translateError(err)
	}
	return acc, nil
}

func (r *AccountRepository) UpdateAccountBalance(ctx context.Context, tx Querier, accountID uuid.UUID, newBalance decimal.Decimal) error {
	log := logger.Log.WithFields(logrus.Fields{
		"account_id":  accountID,
		"new_balance": newBalance.String(),
	})
	log.Info("Executing query to update account balance")

	_, err := tx.ExecContext(ctx, `UPDATE accounts SET balance = $1 WHERE id = $2`, newBalance, accountID)
	if err != nil {
		log.WithError(err).Error("Failed to execute update account balance query")
		return err
	}
	return nil
}
