// Package repository — SessionRepository ve ResetTokenRepository interface'leri.
//
// İkisi de hash'lenmiş token saklar: lookup her zaman hash üzerinden
// yapılır, plaintext token DB'ye asla yazılmaz.
package repository

import (
	"context"

	"github.com/akinalp/kolab/models"
)

// SessionRepository, refresh token oturumları için interface.
type SessionRepository interface {
	// Create, yeni bir oturum kaydı oluşturur.
	Create(ctx context.Context, session *models.Session) error

	// GetByTokenHash, refresh token hash'i ile oturum döner.
	// Bulunamazsa pkg.ErrNotFound.
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)

	// Delete, bir oturumu siler (logout veya token rotation).
	Delete(ctx context.Context, id string) error

	// DeleteByUser, kullanıcının tüm oturumlarını siler.
	// Şifre değişiminde çağrılır — tüm cihazlardan çıkış yapılır.
	DeleteByUser(ctx context.Context, userID string) error

	// DeleteExpired, süresi dolmuş oturumları temizler.
	DeleteExpired(ctx context.Context) (int64, error)
}

// ResetTokenRepository, şifre sıfırlama token'ları için interface.
type ResetTokenRepository interface {
	// Create, yeni bir reset token kaydı oluşturur.
	Create(ctx context.Context, token *models.PasswordResetToken) error

	// GetByTokenHash, token hash'i ile kaydı döner. Bulunamazsa pkg.ErrNotFound.
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error)

	// MarkUsed, token'ı kullanılmış olarak işaretler (tek kullanımlık).
	MarkUsed(ctx context.Context, id string) error

	// InvalidateForUser, kullanıcının bekleyen tüm reset token'larını
	// kullanılmış işaretler. Yeni istek eskileri geçersiz kılar.
	InvalidateForUser(ctx context.Context, userID string) error
}
