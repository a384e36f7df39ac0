package handler

import (
	"go-bank-ledger/common"
	"go-bank-ledger/service"
	"net/http"
)

func ErrorHandlingMiddleware(next func(http.ResponseWriter, *http.Request) *common.AppError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := next(w, r); err != nil {
			err.Send(w)
		}
	}
}

var kindStatus = map[service.ErrorKind]int{
	service.KindInvalidAmount:     http.StatusBadRequest,
	service.KindInvalid:           http.StatusBadRequest,
	service.KindInsufficientFunds: http.StatusUnprocessableEntity,
	service.KindNotFound:          http.StatusNotFound,
	service.KindConflict:          http.StatusConflict,
	service.KindForbidden:         http.StatusForbidden,
	service.KindUnauthorized:      http.StatusUnauthorized,
}

// serviceError maps a service error to its HTTP status. Internal errors
// are reported with fallback instead of the underlying message.
func serviceError(err error, fallback string) *common.AppError {
	kind := service.KindOf(err)
	code, ok := kindStatus[kind]
	if !ok {
		return common.NewAppError(http.StatusInternalServerError, fallback, err).WithKind(string(service.KindInternal))
	}
	return common.NewAppError(code, err.Error(), err).WithKind(string(kind))
}
