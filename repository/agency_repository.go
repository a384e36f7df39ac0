package repository

import (
	"context"
	"database/sql"
	"go-bank-ledger/logger"

	"github.com/google/uuid"
)

type AgencyRepository struct {
	DB *sql.DB
}

func NewAgencyRepository(db *sql.DB) *AgencyRepository {
	return &AgencyRepository{DB: db}
}

func (r *AgencyRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM agencies WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		logger.Log.WithError(err).WithField("agency_id", id).Error("Failed to execute agency exists query")
		return false, err
	}
	return exists, nil
}
