// Package repository — UserRepository SQLite implementasyonu.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/akinalp/kolab/database"
	"github.com/akinalp/kolab/models"
	"github.com/akinalp/kolab/pkg"
)

// sqliteUserRepo, UserRepository'nin SQLite implementasyonu.
// Private struct — dışarıdan sadece interface üzerinden erişilir.
type sqliteUserRepo struct {
	db *sql.DB
}

// NewSQLiteUserRepo, constructor. Dependency injection ile DB bağlantısı alır.
func NewSQLiteUserRepo(db *sql.DB) UserRepository {
	return &sqliteUserRepo{db: db}
}

// CreateWithProfile, kullanıcı ve profil satırını atomik olarak yazar.
// Profil insert'i başarısız olursa kullanıcı da oluşmaz — yarım kayıt
// (login olabilen ama profili olmayan kullanıcı) mümkün değildir.
func (r *sqliteUserRepo) CreateWithProfile(ctx context.Context, u *models.User, p *models.Profile) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, email, password_hash, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?)`,
			u.ID, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				return fmt.Errorf("%w: email %s", pkg.ErrAlreadyExists, u.Email)
			}
			return fmt.Errorf("user create: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO profiles (id, email) VALUES (?, ?)`, p.ID, p.Email); err != nil {
			return fmt.Errorf("profile create: %w", err)
		}
		return nil
	})
}

// GetByID, ID ile kullanıcı döner.
func (r *sqliteUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT id, email, password_hash, created_at, updated_at
	          FROM users WHERE id = ?`

	var u models.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user %s", pkg.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("user get by id: %w", err)
	}
	return &u, nil
}

// GetByEmail, email ile kullanıcı döner. Email karşılaştırması
// case-insensitive yapılır.
func (r *sqliteUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, password_hash, created_at, updated_at
	          FROM users WHERE email = ? COLLATE NOCASE`

	var u models.User
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user with email %s", pkg.ErrNotFound, email)
	}
	if err != nil {
		return nil, fmt.Errorf("user get by email: %w", err)
	}
	return &u, nil
}

// UpdatePassword, kullanıcının şifre hash'ini günceller.
func (r *sqliteUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query, passwordHash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("user update password: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("user update password rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: user %s", pkg.ErrNotFound, id)
	}
	return nil
}
