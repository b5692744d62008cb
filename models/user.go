// Package models, uygulamanın domain modellerini (veri yapıları) tanımlar.
//
// Model, veritabanındaki bir tablonun Go karşılığıdır; aynı zamanda
// API'den gelen/giden verilerin şeklini de belirler. `json:"..."`
// tag'leri serialize/deserialize davranışını kontrol eder.
package models

import (
	"fmt"
	"net/mail"
	"time"
	"unicode/utf8"
)

// User, kimlik doğrulama kaydını temsil eder.
// Profil bilgileri ayrı tutulur (bkz. Profile) — users tablosu sadece
// login için gereken minimumu taşır.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // json:"-" → API response'a DAHİL ETME
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RegisterRequest, kayıt olurken frontend'den gelen veri.
// Password plaintext gelir — hash'leme service katmanında yapılır.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate, RegisterRequest'in geçerli olup olmadığını kontrol eder.
//   - Email: RFC 5322 formatında olmalı
//   - Password: 8-72 karakter (72 = bcrypt input sınırı)
func (r *RegisterRequest) Validate() error {
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return fmt.Errorf("invalid email address")
	}

	passLen := utf8.RuneCountInString(r.Password)
	if passLen < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	if len(r.Password) > 72 {
		return fmt.Errorf("password must be at most 72 bytes")
	}

	return nil
}

// LoginRequest, giriş yaparken frontend'den gelen veri.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest, access token yenileme payload'ı.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ForgotPasswordRequest, şifre sıfırlama isteği payload'ı.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest, email'deki link ile gelen yeni şifre payload'ı.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// Validate, yeni şifrenin kurallara uyduğunu kontrol eder.
func (r *ResetPasswordRequest) Validate() error {
	if r.Token == "" {
		return fmt.Errorf("token is required")
	}
	passLen := utf8.RuneCountInString(r.NewPassword)
	if passLen < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	if len(r.NewPassword) > 72 {
		return fmt.Errorf("password must be at most 72 bytes")
	}
	return nil
}

// AuthResponse, başarılı login/register/refresh sonrası dönen veri.
type AuthResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
