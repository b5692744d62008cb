// Package repository, veritabanı erişim katmanını tanımlar.
//
// Her entity için bir interface + bir SQLite implementasyonu vardır.
// Service katmanı interface'lere bağımlıdır — testlerde fake, prod'da
// SQLite implementasyonu geçilir (Dependency Inversion).
package repository

import (
	"context"

	"github.com/akinalp/kolab/models"
)

// UserRepository, kullanıcı kimlik kayıtları için interface.
type UserRepository interface {
	// CreateWithProfile, kullanıcı ve boş profil satırını tek
	// transaction'da oluşturur — yarıda kalırsa ikisi de geri alınır.
	// Email zaten kayıtlıysa pkg.ErrAlreadyExists döner.
	CreateWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error

	// GetByID, ID ile kullanıcı döner. Bulunamazsa pkg.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByEmail, email ile kullanıcı döner. Bulunamazsa pkg.ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// UpdatePassword, kullanıcının şifre hash'ini günceller.
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
