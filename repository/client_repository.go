package repository

import (
	"context"
	"database/sql"
	"go-bank-ledger/logger"

	"github.com/google/uuid"
)

// ClientRepository maps authenticated users to the bank clients they act as.
type ClientRepository struct {
	DB *sql.DB
}

func NewClientRepository(db *sql.DB) *ClientRepository {
	return &ClientRepository{DB: db}
}

// FindIDByUserID returns ErrNotFound when the user has no client profile.
func (r *ClientRepository) FindIDByUserID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	var clientID uuid.UUID
	err := r.DB.QueryRowContext(ctx, `SELECT id FROM clients WHERE user_id = $1`, userID).Scan(&clientID)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to execute find client by user query")
		}
		return uuid.Nil, translateError(err)
	}
	return clientID, nil
}
