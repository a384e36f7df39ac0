// file: model/request.go

package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest opens an account of the given type at an agency.
type CreateAccountRequest struct {
	AccountType AccountType `json:"account_type" validate:"required,oneof=CHECKING SAVINGS"`
	AgencyID    string      `json:"agency_id" validate:"required,uuid"`
}

// UpdateAccountRequest changes the type and/or agency of an account.
// Nil fields are left unchanged.
type UpdateAccountRequest struct {
	AccountType *AccountType `json:"account_type,omitempty" validate:"omitempty,oneof=CHECKING SAVINGS"`
	AgencyID    *string      `json:"agency_id,omitempty" validate:"omitempty,uuid"`
}

// OperationRequest is the payload for deposits and withdrawals.
// Positivity of Value is checked by the ledger so that it reports InvalidAmount.
type OperationRequest struct {
	AccountType AccountType     `json:"account_type" validate:"required,oneof=CHECKING SAVINGS"`
	Value       decimal.Decimal `json:"value"`
}

// TransferRequest moves money from the caller's account of AccountType to ReceiverID.
type TransferRequest struct {
	AccountType AccountType     `json:"account_type" validate:"required,oneof=CHECKING SAVINGS"`
	Value       decimal.Decimal `json:"value"`
	ReceiverID  uuid.UUID       `json:"receiver_id"`
}

// PixRequest moves money from the caller's account of AccountType to the account behind PixKey.
type PixRequest struct {
	AccountType AccountType     `json:"account_type" validate:"required,oneof=CHECKING SAVINGS"`
	Value       decimal.Decimal `json:"value"`
	PixKey      string          `json:"pix_key" validate:"required,max=77"`
}

// RegisterPixKeyRequest binds KeyValue to the caller's account of AccountType.
type RegisterPixKeyRequest struct {
	AccountType AccountType `json:"account_type" validate:"required,oneof=CHECKING SAVINGS"`
	KeyValue    string      `json:"key_value" validate:"required,min=1,max=77"`
}
