package handler

import (
	"context"
	"go-bank-ledger/common"
	"go-bank-ledger/model"
	"net/http"

	"github.com/google/uuid"
)

type PixKeyManager interface {
	Register(ctx context.Context, clientID uuid.UUID, req model.RegisterPixKeyRequest) (*model.PixKey, error)
	List(ctx context.Context, clientID uuid.UUID) ([]*model.PixKey, error)
}

type PixKeyHandler struct {
	service PixKeyManager
}

func NewPixKeyHandler(s PixKeyManager) *PixKeyHandler {
	return &PixKeyHandler{service: s}
}

// RegisterPixKey godoc
// @Summary      Register a pix key
// @Description  Binds a globally unique key to the caller's account of the given type.
// @Tags         pix
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        key body model.RegisterPixKeyRequest true "Account type and key"
// @Success      201  {object}  model.PixKey
// @Failure      400  {object}  common.AppError "Invalid request body"
// @Failure      404  {object}  common.AppError "Caller has no account of this type"
// @Failure      409  {object}  common.AppError "Key already registered"
// @Router       /api/pix-keys [post]
func (h *PixKeyHandler) RegisterPixKey(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RegisterPixKeyRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}
	clientID, appErr := callerClientID(r)
	if appErr != nil {
		return appErr
	}

	key, err := h.service.Register(r.Context(), clientID, req)
	if err != nil {
		return serviceError(err, "Could not register pix key")
	}

	writeJSON(w, http.StatusCreated, key)
	return nil
}

// ListPixKeys godoc
// @Summary      List the caller's pix keys
// @Tags         pix
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   model.PixKey
// @Router       /api/pix-keys [get]
func (h *PixKeyHandler) ListPixKeys(w http.ResponseWriter, r *http.Request) *common.AppError {
	clientID, appErr := callerClientID(r)
	if appErr != nil {
		return appErr
	}

	keys, err := h.service.List(r.Context(), clientID)
	if err != nil {
		return serviceError(err, "Could not retrieve pix keys")
	}

	writeJSON(w, http.StatusOK, keys)
	return nil
}
