package repository

import (
	"context"
	"database/sql"
	"go-bank-ledger/logger"
	"go-bank-ledger/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ITransactionRepository defines the contract for ledger history reads.
type ITransactionRepository interface {
	GetTransactionsByAccountID(ctx context.Context, accountID uuid.UUID) ([]*model.Transaction, error)
}

// TransactionRepository implements ITransactionRepository.
type TransactionRepository struct {
	DB *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{DB: db}
}

// CreateTransaction records a movement inside the caller's transaction.
func (r *TransactionRepository) CreateTransaction(ctx context.Context, tx Querier, transaction *model.Transaction) error {
	if transaction.ID == uuid.Nil {
		transaction.ID = uuid.New()
	}

	log := logger.Log.WithFields(logrus.Fields{
		"transaction_id":  transaction.ID,
		"type":            transaction.Type,
		"from_account_id": transaction.FromAccountID,
		"to_account_id":   transaction.ToAccountID,
		"amount":          transaction.Amount.String(),
	})
	log.Info("Executing query to create a new transaction")

	query := `INSERT INTO transactions (id, type, from_account_id, to_account_id, amount) VALUES ($1, $2, $3, $4, $5) RETURNING created_at`
	err := tx.QueryRowContext(ctx, query,
		transaction.ID, transaction.Type, transaction.FromAccountID, transaction.ToAccountID, transaction.Amount,
	).Scan(&transaction.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create transaction query")
		return err
	}
	return nil
}

// GetTransactionsByAccountID lists every movement into or out of an account, newest first.
func (r *TransactionRepository) GetTransactionsByAccountID(ctx context.Context, accountID uuid.UUID) ([]*model.Transaction, error) {
	log := logger.Log.WithField("account_id", accountID)
	log.Info("Executing query to get transactions by account ID")

	query := `
		SELECT id, type, from_account_id, to_account_id, amount, created_at
		FROM transactions
		WHERE from_account_id = $1 OR to_account_id = $1
		ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, accountID)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for transactions by account ID")
		return nil, err
	}
	defer rows.Close()

	transactions := []*model.Transaction{}
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.Type, &t.FromAccountID, &t.ToAccountID, &t.Amount, &t.CreatedAt); err != nil {
			log.WithError(err).Error("Failed to scan transaction row")
			return nil, err
		}
		transactions = append(transactions, &t)
	}
	return transactions, rows.Err()
}
