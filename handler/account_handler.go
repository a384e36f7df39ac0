package handler

import (
	"context"
	"encoding/json"
	"go-bank-ledger/common"
	"go-bank-ledger/logger"
	"go-bank-ledger/model"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AccountManager is the account lifecycle consumed by AccountHandler.
type AccountManager interface {
	CreateAccount(ctx context.Context, clientID uuid.UUID, req model.CreateAccountRequest) (*model.Account, error)
	GetAccount(ctx context.Context, clientID, accountID uuid.UUID) (*model.Account, error)
	UpdateAccount(ctx context.Context, clientID, accountID uuid.UUID, req model.UpdateAccountRequest) (*model.Account, error)
	DeleteAccount(ctx context.Context, clientID, accountID uuid.UUID) error
	ListAccountsForClient(ctx context.Context, clientID uuid.UUID) ([]*model.Account, error)
	GetAllAccounts(ctx context.Context) ([]*model.Account, error)
}

type AccountHandler struct {
	service AccountManager
}

func NewAccountHandler(service AccountManager) *AccountHandler {
	return &AccountHandler{service: service}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// CreateAccount godoc
// @Summary      Open a bank account
// @Description  Opens a zero-balance account of the given type at an agency. A client holds at most one account per type.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        account body model.CreateAccountRequest true "Account type and agency"
// @Success      201  {object}  model.Account
// @Failure      400  {object}  common.AppError "Invalid request body"
// @Failure      401  {object}  common.AppError "Unauthorized: Invalid or missing token"
// @Failure      403  {object}  common.AppError "Caller has no client profile"
// @Failure      404  {object}  common.AppError "Agency not found"
// @Failure      409  {object}  common.AppError "An account of this type already exists"
// @Failure      500  {object}  common.AppError "Internal server error"
// @Router       /api/accounts [post]
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.CreateAccountRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	clientID, appErr := callerClientID(r)
	if appErr != nil {
		return appErr
	}

	logger.Log.WithFields(logrus.Fields{
		"client_id":    clientID,
		"account_type": req.AccountType,
	}).Info("Create account request received")

	account, err := h.service.CreateAccount(r.Context(), clientID, req)
	if err != nil {
		return serviceError(err, "Could not create account")
	}

	writeJSON(w, http.StatusCreated, account)
	return nil
}

// GetAccount godoc
// @Summary      Get one of the caller's accounts
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Account ID"
// @Success      200  {object}  model.Account
// @Failure      400  {object}  common.AppError "Invalid account ID in URL path"
// @Failure      403  {object}  common.AppError "Account belongs to another client"
// @Failure      404  {object}  common.AppError "Account not found"
// @Router       /api/accounts/{id} [get]
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	clientID, appErr := callerClientID(r)
	if appErr != nil {
		return appErr
	}
	accountID, appErr := pathID(r, "id")
	if appErr != nil {
		return appErr
	}

	account, err := h.service.GetAccount(r.Context(), clientID, accountID)
	if err != nil {
		return serviceError(err, "Could not retrieve account")
	}

	writeJSON(w, http.StatusOK, account)
	return nil
}

// UpdateAccount godoc
// @Summary      Change account type or agency
// @Description  Omitted fields are left unchanged. The resulting type must not collide with another of the caller's accounts.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Account ID"
// @Param        account body model.UpdateAccountRequest true "Fields to change"
// @Success      200  {object}  model.Account
// @Failure      400  {object}  common.AppError "Invalid request"
// @Failure      403  {object}  common.AppError "Account belongs to another client"
// @Failure      404  {object}  common.AppError "Account or agency not found"
// @Failure      409  {object}  common.AppError "An account of this type already exists"
// @Router       /api/accounts/{id} [put]
func (h *AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.UpdateAccountRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	clientID, appErr := callerClientID(r)
	if appErr != nil {
		return appErr
	}
	accountID, appErr := pathID(r, "id")
	if appErr != nil {
		return appErr
	}

	account, err := h.service.UpdateAccount(r.Context(), clientID, accountID, req)
	if err != nil {
		return serviceError(err, "Could not update account")
	}

	writeJSON(w, http.StatusOK, account)
	return nil
}

// DeleteAccount godoc
// @Summary      Close one of the caller's accounts
// @Tags         accounts
// @Security     BearerAuth
// @Param        id path string true "Account ID"
// @Success      204
// @Failure      403  {object}  common.AppError "Account belongs to another client"
// @Failure      404  {object}  common.AppError "Account not found"
// @Router       /api/accounts/{id} [delete]
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	clientID, appErr := callerClientID(r)
	if appErr != nil {
		return appErr
	}
	accountID, appErr := pathID(r, "id")
	if appErr != nil {
		return appErr
	}

	if err := h.service.DeleteAccount(r.Context(), clientID, accountID); err != nil {
		return serviceError(err, "Could not delete account")
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// ListMyAccounts godoc
// @Summary      List the caller's accounts
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   model.Account
// @Failure      401  {object}  common.AppError "Unauthorized: Invalid or missing token"
// @Failure      403  {object}  common.AppError "Caller has no client profile"
// @Router       /api/accounts [get]
func (h *AccountHandler) ListMyAccounts(w http.ResponseWriter, r *http.Request) *common.AppError {
	clientID, appErr := callerClientID(r)
	if appErr != nil {
		return appErr
	}

	accounts, err := h.service.ListAccountsForClient(r.Context(), clientID)
	if err != nil {
		return serviceError(err, "Could not retrieve accounts")
	}

	writeJSON(w, http.StatusOK, accounts)
	return nil
}

// ListAllAccounts godoc
// @Summary      List every account
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   model.Account
// @Failure      403  {object}  common.AppError "Admin privileges required"
// @Router       /api/admin/accounts [get]
func (h *AccountHandler) ListAllAccounts(w http.ResponseWriter, r *http.Request) *common.AppError {
	accounts, err := h.service.GetAllAccounts(r.Context())
	if err != nil {
		return serviceError(err, "Could not retrieve accounts")
	}

	writeJSON(w, http.StatusOK, accounts)
	return nil
}
