package model

import "github.com/golang-jwt/jwt/v5"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type AppClaims struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}
