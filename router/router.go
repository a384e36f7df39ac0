package router

import (
	"go-bank-ledger/common"
	"go-bank-ledger/handler"
	"net/http"

	_ "go-bank-ledger/docs"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type appHandler = func(http.ResponseWriter, *http.Request) *common.AppError

func NewRouter(
	healthHandler *handler.HealthHandler,
	accountHandler *handler.AccountHandler,
	transactionHandler *handler.TransactionHandler,
	pixKeyHandler *handler.PixKeyHandler,
	authMiddleware func(http.Handler) http.Handler,
) http.Handler {
	mux := http.NewServeMux()

	protected := func(h appHandler) http.Handler {
		return authMiddleware(handler.ErrorHandlingMiddleware(h))
	}
	adminOnly := func(h appHandler) http.Handler {
		return authMiddleware(handler.AdminMiddleware(handler.ErrorHandlingMiddleware(h)))
	}

	mux.HandleFunc("GET /health", healthHandler.HealthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	mux.Handle("POST /api/accounts", protected(accountHandler.CreateAccount))
	mux.Handle("GET /api/accounts", protected(accountHandler.ListMyAccounts))
	mux.Handle("GET /api/accounts/{id}", protected(accountHandler.GetAccount))
	mux.Handle("PUT /api/accounts/{id}", protected(accountHandler.UpdateAccount))
	mux.Handle("DELETE /api/accounts/{id}", protected(accountHandler.DeleteAccount))
	mux.Handle("GET /api/accounts/{id}/transactions", protected(transactionHandler.ListTransactionsForAccount))

	mux.Handle("POST /api/transactions/deposit", protected(transactionHandler.Deposit))
	mux.Handle("POST /api/transactions/withdraw", protected(transactionHandler.Withdraw))
	mux.Handle("POST /api/transactions/transfer", protected(transactionHandler.Transfer))
	mux.Handle("POST /api/transactions/pix", protected(transactionHandler.PayByKey))

	mux.Handle("POST /api/pix-keys", protected(pixKeyHandler.RegisterPixKey))
	mux.Handle("GET /api/pix-keys", protected(pixKeyHandler.ListPixKeys))

	mux.Handle("GET /api/admin/accounts", adminOnly(accountHandler.ListAllAccounts))

	return mux
}
