// Package models — JWT token claim'leri.
package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims, access token'da taşınan claim'ler.
// jwt.RegisteredClaims; exp, iat, sub gibi standart alanları sağlar.
type TokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
