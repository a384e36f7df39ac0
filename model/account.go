package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits kept for balances and amounts.
const MoneyScale = 4

// MaxAmount is the largest value a NUMERIC(19,4) column holds.
var MaxAmount = decimal.RequireFromString("999999999999999.9999")

type AccountType string

const (
	AccountTypeChecking AccountType = "CHECKING"
	AccountTypeSavings  AccountType = "SAVINGS"
)

func (t AccountType) Valid() bool {
	return t == AccountTypeChecking || t == AccountTypeSavings
}

type Account struct {
	ID          uuid.UUID       `json:"id"`
	Number      string          `json:"number"`
	AccountType AccountType     `json:"account_type"`
	AgencyID    uuid.UUID       `json:"agency_id"`
	ClientID    uuid.UUID       `json:"client_id"`
	Balance     decimal.Decimal `json:"balance"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CanDebit reports whether amount can leave the account without the balance going negative.
func (a *Account) CanDebit(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}
