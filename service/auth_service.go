package service

import (
	"context"
	"errors"
	"fmt"
	"go-bank-ledger/logger"
	"go-bank-ledger/model"
	"go-bank-ledger/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ClientLookup finds the client profile of an authenticated user.
type ClientLookup interface {
	FindIDByUserID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

// IdentityService turns a bearer token into the caller identity the ledger
// works with. Tokens are issued elsewhere; this service only verifies them.
type IdentityService struct {
	clients ClientLookup
	jwtKey  []byte
}

func NewIdentityService(clients ClientLookup, secretKey string) *IdentityService {
	return &IdentityService{
		clients: clients,
		jwtKey:  []byte(secretKey),
	}
}

// ParseToken verifies an HS256 token and returns its claims.
func (s *IdentityService) ParseToken(tokenString string) (*model.AppClaims, error) {
	claims := &model.AppClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		logger.Log.WithError(err).Debug("Rejected bearer token")
		return nil, ErrInvalidToken
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, fmt.Errorf("%w: user_id claim is not a uuid", ErrInvalidToken)
	}
	return claims, nil
}

// ResolveClientID returns the client the user acts as.
func (s *IdentityService) ResolveClientID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	clientID, err := s.clients.FindIDByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return uuid.Nil, ErrClientNotFound
		}
		return uuid.Nil, err
	}
	return clientID, nil
}
