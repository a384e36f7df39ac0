package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionDeposit  TransactionType = "DEPOSIT"
	TransactionWithdraw TransactionType = "WITHDRAW"
	TransactionTransfer TransactionType = "TRANSFER"
	TransactionPix      TransactionType = "PIX"
)

// Transaction is one persisted ledger movement. Deposits have no source
// account and withdrawals have no destination account.
type Transaction struct {
	ID            uuid.UUID       `json:"id"`
	Type          TransactionType `json:"type"`
	FromAccountID uuid.NullUUID   `json:"from_account_id"`
	ToAccountID   uuid.NullUUID   `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TransactionSummary is returned by single-account operations.
type TransactionSummary struct {
	AccountID uuid.UUID       `json:"account_id"`
	Type      TransactionType `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Balance   decimal.Decimal `json:"balance"`
}

// TransferSummary is returned by two-account operations.
type TransferSummary struct {
	FromAccountID uuid.UUID       `json:"from_account_id"`
	ToAccountID   uuid.UUID       `json:"to_account_id"`
	Type          TransactionType `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	FromBalance   decimal.Decimal `json:"from_balance"`
	ToBalance     decimal.Decimal `json:"to_balance"`
}
