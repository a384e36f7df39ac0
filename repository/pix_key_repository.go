package repository

import (
	"context"
	"database/sql"
	"go-bank-ledger/logger"
	"go-bank-ledger/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// IPixKeyRepository is the payment-key directory.
type IPixKeyRepository interface {
	Resolve(ctx context.Context, keyValue string) (uuid.UUID, error)
	Create(ctx context.Context, key *model.PixKey) error
	ListByClientID(ctx context.Context, clientID uuid.UUID) ([]*model.PixKey, error)
}

type PixKeyRepository struct {
	DB *sql.DB
}

func NewPixKeyRepository(db *sql.DB) *PixKeyRepository {
	return &PixKeyRepository{DB: db}
}

// Resolve returns the account id a key points at, or ErrNotFound.
func (r *PixKeyRepository) Resolve(ctx context.Context, keyValue string) (uuid.UUID, error) {
	log := logger.Log.WithField("pix_key", keyValue)
	log.Info("Executing query to resolve pix key")

	var accountID uuid.UUID
	err := r.DB.QueryRowContext(ctx, `SELECT account_id FROM pix_keys WHERE key_value = $1`, keyValue).Scan(&accountID)
	if err != nil {
		if err != sql.ErrNoRows {
			log.WithError(err).Error("Failed to execute resolve pix key query")
		}
		return uuid.Nil, translateError(err)
	}
	return accountID, nil
}

// Create registers a key. A key that is already taken yields ErrConflict.
func (r *PixKeyRepository) Create(ctx context.Context, key *model.PixKey) error {
	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}

	log := logger.Log.WithFields(logrus.Fields{
		"pix_key":    key.KeyValue,
		"account_id": key.AccountID,
	})
	log.Info("Executing query to create pix key")

	query := `INSERT INTO pix_keys (id, key_value, account_id) VALUES ($1, $2, $3) RETURNING created_at`
	err := r.DB.QueryRowContext(ctx, query, key.ID, key.KeyValue, key.AccountID).Scan(&key.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create pix key query")
		return translateError(err)
	}
	return nil
}

// ListByClientID returns the keys of every account the client owns.
func (r *PixKeyRepository) ListByClientID(ctx context.Context, clientID uuid.UUID) ([]*model.PixKey, error) {
	log := logger.Log.WithField("client_id", clientID)
	log.Info("Executing query to list pix keys by client ID")

	query := `
		SELECT p.id, p.key_value, p.account_id, p.created_at
		FROM pix_keys p
		JOIN accounts a ON a.id = p.account_id
		WHERE a.client_id = $1
		ORDER BY p.created_at`

	rows, err := r.DB.QueryContext(ctx, query, clientID)
	if err != nil {
		log.WithError(err).Error("Failed to execute list pix keys query")
		return nil, err
	}
	defer rows.Close()

	keys := []*model.PixKey{}
	for rows.Next() {
		var k model.PixKey
		if err := rows.Scan(&k.ID, &k.KeyValue, &k.AccountID, &k.CreatedAt); err != nil {
			log.WithError(err).Error("Failed to scan pix key row")
			return nil, err
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}
