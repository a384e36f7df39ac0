package handler

import (
	"context"
	"go-bank-ledger/common"
	"go-bank-ledger/model"
	"net/http"

	"github.com/google/uuid"
)

// Ledger is the set of money-moving operations consumed by TransactionHandler.
type Ledger interface {
	Deposit(ctx context.Context, clientID uuid.UUID, req model.OperationRequest) (*model.TransactionSummary, error)
	Withdraw(ctx context.Context, clientID uuid.UUID, req model.OperationRequest) (*model.TransactionSummary, error)
	Transfer(ctx context.Context, clientID uuid.UUID, req model.TransferRequest) (*model.TransferSummary, error)
	PayByKey(ctx context.Context, clientID uuid.UUID, req model.PixRequest) (*model.TransferSummary, error)
	ListTransactionsForAccount(ctx context.Context, clientID, accountID uuid.UUID) ([]*model.Transaction, error)
}

// TransactionHandler holds dependencies for transaction-related handlers.
type TransactionHandler struct {
	service Ledger
}

// NewTransactionHandler creates a new TransactionHandler with its dependencies.
func NewTransactionHandler(s Ledger) *TransactionHandler {
	return &TransactionHandler{service: s}
}

// Deposit godoc
// @Summary      Deposit into one of the caller's accounts
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        deposit body model.OperationRequest true "Account type and amount"
// @Success      201  {object}  model.TransactionSummary
// @Failure      400  {object}  common.AppError "Invalid amount"
// @Failure      404  {object}  common.AppError "Caller has no account of this type"
// @Failure      500  {object}  common.AppError "Internal server error while processing deposit"
// @Router       /api/transactions/deposit [post]
func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.OperationRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}
	clientID, appErr := callerClientID(r)
	if appErr != nil {
		return appErr
	}

	summary, err := h.service.Deposit(r.Context(), clientID, req)
	if err != nil {
		return serviceError(err, "Could not process deposit")
	}

	writeJSON(w, http.StatusCreated, summary)
	return nil
}

// Withdraw godoc
// @Summary      Withdraw from one of the caller's accounts
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        withdraw body model.OperationRequest true "Account type and amount"
// @Success      201  {object}  model.TransactionSummary
// @Failure      400  {object}  common.AppError "Invalid amount"
// @Failure      404  {object}  common.AppError "Caller has no account of this type"
// @Failure      422  {object}  common.AppError "Insufficient funds"
// @Router       /api/transactions/withdraw [post]
func (h *TransactionHandler) Withdraw(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.OperationRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}
	clientID, appErr := callerClientID(r)
	if appErr != nil {
		return appErr
	}

	summary, err := h.service.Withdraw(r.Context(), clientID, req)
	if err != nil {
		return serviceError(err, "Could not process withdrawal")
	}

	writeJSON(w, http.StatusCreated, summary)
	return nil
}

// Transfer godoc
// @Summary      Transfer money to another account
// @Description  Moves money from the caller's account of the given type to any existing account.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        transfer body model.TransferRequest true "Details of the financial transfer"
// @Success      201  {object}  model.TransferSummary
// @Failure      400  {object}  common.AppError "Invalid amount or same-account transfer"
// @Failure      401  {object}  common.AppError "Unauthorized: Invalid or missing token"
// @Failure      404  {object}  common.AppError "Sender or receiver account not found"
// @Failure      422  {object}  common.AppError "Insufficient funds"
// @Failure      500  {object}  common.AppError "Internal server error while processing transfer"
// @Router       /api/transactions/transfer [post]
func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.TransferRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}
	clientID, appErr := callerClientID(r)
	if appErr != nil {
		return appErr
	}

	summary, err := h.service.Transfer(r.Context(), clientID, req)
	if err != nil {
		return serviceError(err, "Could not process transfer")
	}

	writeJSON(w, http.StatusCreated, summary)
	return nil
}

// PayByKey godoc
// @Summary      Pay to a pix key
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        pix body model.PixRequest true "Account type, amount and receiver key"
// @Success      201  {object}  model.TransferSummary
// @Failure      400  {object}  common.AppError "Invalid amount or same-account payment"
// @Failure      404  {object}  common.AppError "Sender account, key or receiver account not found"
// @Failure      422  {object}  common.AppError "Insufficient funds"
// @Router       /api/transactions/pix [post]
func (h *TransactionHandler) PayByKey(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.PixRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}
	clientID, appErr := callerClientID(r)
	if appErr != nil {
		return appErr
	}

	summary, err := h.service.PayByKey(r.Context(), clientID, req)
	if err != nil {
		return serviceError(err, "Could not process pix payment")
	}

	writeJSON(w, http.StatusCreated, summary)
	return nil
}

// ListTransactionsForAccount godoc
// @Summary      List account transaction history
// @Description  Retrieves the transaction history for a specific account owned by the caller, newest first.
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "The ID of the account to retrieve transactions for"
// @Success      200  {array}   model.Transaction "A list of transactions for the account"
// @Failure      400  {object}  common.AppError "Invalid account ID in URL path"
// @Failure      401  {object}  common.AppError "Unauthorized: Invalid or missing token"
// @Failure      403  {object}  common.AppError "Forbidden: Caller does not own the specified account"
// @Failure      404  {object}  common.AppError "Account with the specified ID not found"
// @Failure      500  {object}  common.AppError "Internal server error while retrieving transactions"
// @Router       /api/accounts/{id}/transactions [get]
func (h *TransactionHandler) ListTransactionsForAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	clientID, appErr := callerClientID(r)
	if appErr != nil {
		return appErr
	}
	accountID, appErr := pathID(r, "id")
	if appErr != nil {
		return appErr
	}

	transactions, err := h.service.ListTransactionsForAccount(r.Context(), clientID, accountID)
	if err != nil {
		return serviceError(err, "Could not retrieve transactions")
	}

	writeJSON(w, http.StatusOK, transactions)
	return nil
}
