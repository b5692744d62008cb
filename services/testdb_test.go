package services

import (
	"context"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akinalp/kolab/database"
	"github.com/akinalp/kolab/models"
	"github.com/akinalp/kolab/repository"
)

// testdb_test.go — service testleri gerçek bir SQLite dosyası üzerinde
// koşar. modernc.org/sqlite pure-Go olduğu için CI'da ekstra kurulum
// gerektirmez; migration'lar embed'den çalıştırılır.

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	migrations, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	require.NoError(t, err)

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), migrations)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Conn.Close() })
	return db
}

// registerUser, AuthService üzerinden kullanıcı + profil açar.
func registerUser(t *testing.T, auth AuthService, emailAddr string) *models.AuthResponse {
	t.Helper()
	resp, err := auth.Register(context.Background(), &models.RegisterRequest{
		Email:    emailAddr,
		Password: "correct-horse",
	})
	require.NoError(t, err)
	return resp
}

// newAuthService, test DB'si üzerinde AuthService kurar.
func newAuthService(t *testing.T, db *database.DB) AuthService {
	t.Helper()
	return NewAuthService(
		repository.NewSQLiteUserRepo(db.Conn),
		repository.NewSQLiteSessionRepo(db.Conn),
		repository.NewSQLiteResetTokenRepo(db.Conn),
		nil, // email konfigüre edilmemiş
		"test-secret",
		15, // access: 15 dk
		7,  // refresh: 7 gün
	)
}
