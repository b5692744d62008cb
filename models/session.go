// Package models — Session ve PasswordResetToken modelleri.
//
// Session, refresh token oturumlarını temsil eder. Refresh token'ın
// kendisi DB'de saklanmaz — SHA256 hash'i saklanır. DB sızsa bile
// token'lar kullanılamaz.
package models

import "time"

// Session, bir refresh token oturumunu temsil eder.
type Session struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	RefreshTokenHash string    `json:"-"`
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
}

// IsExpired, oturumun süresinin dolup dolmadığını döner.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// PasswordResetToken, şifre sıfırlama token kaydını temsil eder.
// Token plaintext olarak sadece email'de bulunur; DB'de hash saklanır.
// Tek kullanımlıktır — kullanılınca Used işaretlenir.
type PasswordResetToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

// IsValid, token'ın hâlâ kullanılabilir olup olmadığını döner.
func (t *PasswordResetToken) IsValid() bool {
	return !t.Used && time.Now().Before(t.ExpiresAt)
}
