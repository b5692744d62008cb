// Package middleware, HTTP request pipeline'ına eklenen ara katmanları
// barındırır.
//
// Go'da middleware bir fonksiyondur: func(next http.Handler) http.Handler.
// Middleware kendi işini yapar (token doğrula), sonra next'i çağırır;
// hata varsa next çağrılmaz — request burada durur.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/akinalp/kolab/handlers"
	"github.com/akinalp/kolab/pkg"
	"github.com/akinalp/kolab/repository"
	"github.com/akinalp/kolab/services"
)

// AuthMiddleware, JWT token doğrulama middleware'ı.
type AuthMiddleware struct {
	authService services.AuthService
	userRepo    repository.UserRepository
}

// NewAuthMiddleware, constructor.
func NewAuthMiddleware(authService services.AuthService, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		userRepo:    userRepo,
	}
}

// Require, JWT token zorunlu kılan middleware.
// Header formatı: Authorization: Bearer <token>.
// Token geçerliyse kullanıcı DB'den getirilip context'e konur —
// token geçerli ama kullanıcı silinmiş olabilir.
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "invalid authorization format, use: Bearer <token>")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := m.authService.ValidateAccessToken(tokenString)
		if err != nil {
			pkg.Error(w, err)
			return
		}

		user, err := m.userRepo.GetByID(r.Context(), claims.UserID)
		if err != nil {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found")
			return
		}

		// Password hash context'te taşınmamalı
		user.PasswordHash = ""

		ctx := context.WithValue(r.Context(), handlers.UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
