package model

import (
	"time"

	"github.com/google/uuid"
)

// PixKey is an opaque payment alias that resolves to exactly one account.
type PixKey struct {
	ID        uuid.UUID `json:"id"`
	KeyValue  string    `json:"key_value"`
	AccountID uuid.UUID `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
}
