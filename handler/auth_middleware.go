package handler

import (
	"context"
	"errors"
	"go-bank-ledger/common"
	"go-bank-ledger/model"
	"go-bank-ledger/service"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

const (
	UserIDKey   contextKey = "userID"
	UserRoleKey contextKey = "userRole"
	ClientIDKey contextKey = "clientID"
)

// IdentityResolver verifies bearer tokens and maps users to clients.
type IdentityResolver interface {
	ParseToken(tokenString string) (*model.AppClaims, error)
	ResolveClientID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

// AuthMiddleware authenticates the request and stores the caller's user id,
// role and, when the user has a client profile, client id in the context.
func AuthMiddleware(identity IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				err := common.NewAppError(http.StatusUnauthorized, "Authorization header is required", nil)
				err.Send(w)
				return
			}

			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
				err := common.NewAppError(http.StatusUnauthorized, "Invalid authorization header format", nil)
				err.Send(w)
				return
			}

			claims, err := identity.ParseToken(headerParts[1])
			if err != nil {
				appErr := common.NewAppError(http.StatusUnauthorized, "Invalid or expired token", err)
				appErr.WithKind(string(service.KindUnauthorized)).Send(w)
				return
			}
			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", err).Send(w)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			ctx = context.WithValue(ctx, UserRoleKey, claims.Role)

			clientID, err := identity.ResolveClientID(ctx, userID)
			switch {
			case err == nil:
				ctx = context.WithValue(ctx, ClientIDKey, clientID)
			case errors.Is(err, service.ErrClientNotFound):
				// Admins may call admin routes without a client profile.
			default:
				common.NewAppError(http.StatusInternalServerError, "Could not resolve caller identity", err).Send(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := r.Context().Value(UserRoleKey).(model.Role)

		if !ok || role != model.RoleAdmin {
			err := common.NewAppError(http.StatusForbidden, "Access denied. Admin privileges required.", nil)
			err.WithKind(string(service.KindForbidden)).Send(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// callerClientID returns the client the authenticated user acts as.
func callerClientID(r *http.Request) (uuid.UUID, *common.AppError) {
	clientID, ok := r.Context().Value(ClientIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, serviceError(service.ErrClientNotFound, "")
	}
	return clientID, nil
}

func pathID(r *http.Request, name string) (uuid.UUID, *common.AppError) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, common.NewAppError(http.StatusBadRequest, "Invalid "+name+" in URL path", err)
	}
	return id, nil
}
