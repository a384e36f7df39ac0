package service

import (
	"errors"
)

var (
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrAccountNotFound         = errors.New("account not found")
	ErrReceiverAccountNotFound = errors.New("receiver account not found")
	ErrPixKeyNotFound          = errors.New("pix key not found")
	ErrAgencyNotFound          = errors.New("agency not found")
	ErrAccountTypeConflict     = errors.New("account type already exists")
	ErrPixKeyConflict          = errors.New("pix key already registered")
	ErrSameAccountTransfer     = errors.New("cannot transfer money to the same account")
	ErrPermissionDenied        = errors.New("account belongs to another client")
	ErrClientNotFound          = errors.New("no client profile for this user")
	ErrInvalidToken            = errors.New("invalid or expired token")
)

// ErrorKind is the caller-facing failure reason of a service error.
type ErrorKind string

const (
	KindInvalidAmount     ErrorKind = "invalid_amount"
	KindInsufficientFunds ErrorKind = "insufficient_funds"
	KindNotFound          ErrorKind = "not_found"
	KindConflict          ErrorKind = "conflict"
	KindForbidden         ErrorKind = "forbidden"
	KindUnauthorized      ErrorKind = "unauthorized"
	KindInvalid           ErrorKind = "invalid"
	KindInternal          ErrorKind = "internal"
)

// KindOf classifies err. Errors that are not one of the service sentinels
// are internal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidAmount):
		return KindInvalidAmount
	case errors.Is(err, ErrInsufficientFunds):
		return KindInsufficientFunds
	case errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrReceiverAccountNotFound),
		errors.Is(err, ErrPixKeyNotFound),
		errors.Is(err, ErrAgencyNotFound):
		return KindNotFound
	case errors.Is(err, ErrAccountTypeConflict), errors.Is(err, ErrPixKeyConflict):
		return KindConflict
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, ErrClientNotFound):
		return KindForbidden
	case errors.Is(err, ErrInvalidToken):
		return KindUnauthorized
	case errors.Is(err, ErrSameAccountTransfer):
		return KindInvalid
	default:
		return KindInternal
	}
}
