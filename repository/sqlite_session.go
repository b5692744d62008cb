// Package repository — SessionRepository ve ResetTokenRepository
// SQLite implementasyonları.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/akinalp/kolab/models"
	"github.com/akinalp/kolab/pkg"
)

type sqliteSessionRepo struct {
	db *sql.DB
}

// NewSQLiteSessionRepo, constructor.
func NewSQLiteSessionRepo(db *sql.DB) SessionRepository {
	return &sqliteSessionRepo{db: db}
}

func (r *sqliteSessionRepo) Create(ctx context.Context, s *models.Session) error {
	query := `INSERT INTO sessions (id, user_id, refresh_token_hash, expires_at, created_at)
	          VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, s.ID, s.UserID, s.RefreshTokenHash, s.ExpiresAt, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("session create: %w", err)
	}
	return nil
}

func (r *sqliteSessionRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error) {
	query := `SELECT id, user_id, refresh_token_hash, expires_at, created_at
	          FROM sessions WHERE refresh_token_hash = ?`

	var s models.Session
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&s.ID, &s.UserID, &s.RefreshTokenHash, &s.ExpiresAt, &s.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: session", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("session get by token hash: %w", err)
	}
	return &s, nil
}

func (r *sqliteSessionRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

func (r *sqliteSessionRepo) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("session delete by user: %w", err)
	}
	return nil
}

func (r *sqliteSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < CURRENT_TIMESTAMP`)
	if err != nil {
		return 0, fmt.Errorf("session delete expired: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("session delete expired rows affected: %w", err)
	}
	return n, nil
}

// ─── ResetTokenRepository ───

type sqliteResetTokenRepo struct {
	db *sql.DB
}

// NewSQLiteResetTokenRepo, constructor.
func NewSQLiteResetTokenRepo(db *sql.DB) ResetTokenRepository {
	return &sqliteResetTokenRepo{db: db}
}

func (r *sqliteResetTokenRepo) Create(ctx context.Context, t *models.PasswordResetToken) error {
	query := `INSERT INTO password_reset_tokens (id, user_id, token_hash, expires_at, used, created_at)
	          VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, t.ID, t.UserID, t.TokenHash, t.ExpiresAt, t.Used, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("reset token create: %w", err)
	}
	return nil
}

func (r *sqliteResetTokenRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error) {
	query := `SELECT id, user_id, token_hash, expires_at, used, created_at
	          FROM password_reset_tokens WHERE token_hash = ?`

	var t models.PasswordResetToken
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.Used, &t.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: reset token", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reset token get by hash: %w", err)
	}
	return &t, nil
}

func (r *sqliteResetTokenRepo) MarkUsed(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE password_reset_tokens SET used = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("reset token mark used: %w", err)
	}
	return nil
}

func (r *sqliteResetTokenRepo) InvalidateForUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE password_reset_tokens SET used = 1 WHERE user_id = ? AND used = 0`, userID); err != nil {
		return fmt.Errorf("reset token invalidate for user: %w", err)
	}
	return nil
}
