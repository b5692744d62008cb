package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/kolab/models"
	"github.com/akinalp/kolab/pkg"
	"github.com/akinalp/kolab/repository"
)

func TestRegisterCreatesUserAndProfile(t *testing.T) {
	db := newTestDB(t)
	auth := newAuthService(t, db)
	ctx := context.Background()

	resp := registerUser(t, auth, "ada@example.edu")
	require.NotNil(t, resp.User)
	assert.Equal(t, "ada@example.edu", resp.User.Email)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	// Kayıtla birlikte boş profil satırı açılır — ID'si user ID'dir.
	profileRepo := repository.NewSQLiteProfileRepo(db.Conn)
	p, err := profileRepo.GetByID(ctx, resp.User.ID)
	require.NoError(t, err)
	require.NotNil(t, p.Email)
	assert.Equal(t, "ada@example.edu", *p.Email)
}

func TestRegisterDuplicateEmailRejected(t *testing.T) {
	db := newTestDB(t)
	auth := newAuthService(t, db)

	registerUser(t, auth, "ada@example.edu")
	_, err := auth.Register(context.Background(), &models.RegisterRequest{
		Email:    "ada@example.edu",
		Password: "another-pass",
	})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)
}

func TestRegisterValidation(t *testing.T) {
	auth := newAuthService(t, newTestDB(t))
	ctx := context.Background()

	_, err := auth.Register(ctx, &models.RegisterRequest{Email: "not-an-email", Password: "longenough"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	_, err = auth.Register(ctx, &models.RegisterRequest{Email: "a@b.co", Password: "short"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestLogin(t *testing.T) {
	auth := newAuthService(t, newTestDB(t))
	ctx := context.Background()
	registerUser(t, auth, "ada@example.edu")

	resp, err := auth.Login(ctx, &models.LoginRequest{Email: "ada@example.edu", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)

	_, err = auth.Login(ctx, &models.LoginRequest{Email: "ada@example.edu", Password: "wrong-pass"})
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	// Email mi şifre mi yanlış ayırt edilmez — ikisi de unauthorized.
	_, err = auth.Login(ctx, &models.LoginRequest{Email: "nobody@example.edu", Password: "correct-horse"})
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
}

func TestRefreshTokenRotation(t *testing.T) {
	auth := newAuthService(t, newTestDB(t))
	ctx := context.Background()
	first := registerUser(t, auth, "ada@example.edu")

	second, err := auth.RefreshToken(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// Rotation: eski refresh token ikinci kez kullanılamaz.
	_, err = auth.RefreshToken(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	// Yenisi çalışır.
	_, err = auth.RefreshToken(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

func TestLogoutInvalidatesRefreshToken(t *testing.T) {
	auth := newAuthService(t, newTestDB(t))
	ctx := context.Background()
	resp := registerUser(t, auth, "ada@example.edu")

	require.NoError(t, auth.Logout(ctx, resp.RefreshToken))
	_, err := auth.RefreshToken(ctx, resp.RefreshToken)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	// Bilinmeyen token ile logout sessizce başarılıdır.
	assert.NoError(t, auth.Logout(ctx, "no-such-token"))
}

func TestValidateAccessToken(t *testing.T) {
	auth := newAuthService(t, newTestDB(t))
	resp := registerUser(t, auth, "ada@example.edu")

	claims, err := auth.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "ada@example.edu", claims.Email)

	_, err = auth.ValidateAccessToken("garbage")
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	// Başka secret ile imzalanmış token reddedilir.
	otherSvc := NewAuthService(nil, nil, nil, nil, "different-secret", 15, 7)
	_, err = otherSvc.ValidateAccessToken(resp.AccessToken)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
}

func TestForgotPasswordWithoutSenderIsNoop(t *testing.T) {
	auth := newAuthService(t, newTestDB(t))
	registerUser(t, auth, "ada@example.edu")

	// Email sender konfigüre edilmemişse akış sessizce devre dışıdır.
	assert.NoError(t, auth.ForgotPassword(context.Background(), "ada@example.edu"))
}

func TestResetPasswordFlow(t *testing.T) {
	db := newTestDB(t)
	auth := newAuthService(t, db)
	ctx := context.Background()
	resp := registerUser(t, auth, "ada@example.edu")

	// Token DB'ye hash'lenmiş yazılır — email gönderimi burada taklit edilir.
	plainToken := "af1349b9f5f9a1a6a0404dea36dcc949"
	resetRepo := repository.NewSQLiteResetTokenRepo(db.Conn)
	require.NoError(t, resetRepo.Create(ctx, &models.PasswordResetToken{
		ID:        uuid.NewString(),
		UserID:    resp.User.ID,
		TokenHash: hashToken(plainToken),
		ExpiresAt: time.Now().UTC().Add(20 * time.Minute),
		CreatedAt: time.Now().UTC(),
	}))

	require.NoError(t, auth.ResetPassword(ctx, &models.ResetPasswordRequest{
		Token:       plainToken,
		NewPassword: "brand-new-pass",
	}))

	// Eski şifre artık geçmez, yenisi geçer.
	_, err := auth.Login(ctx, &models.LoginRequest{Email: "ada@example.edu", Password: "correct-horse"})
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
	_, err = auth.Login(ctx, &models.LoginRequest{Email: "ada@example.edu", Password: "brand-new-pass"})
	assert.NoError(t, err)

	// Sıfırlama tüm oturumları kapatır.
	_, err = auth.RefreshToken(ctx, resp.RefreshToken)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	// Token tek kullanımlıktır.
	err = auth.ResetPassword(ctx, &models.ResetPasswordRequest{
		Token:       plainToken,
		NewPassword: "yet-another-pass",
	})
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	db := newTestDB(t)
	auth := newAuthService(t, db)
	ctx := context.Background()
	resp := registerUser(t, auth, "ada@example.edu")

	plainToken := "deadbeefdeadbeefdeadbeefdeadbeef"
	resetRepo := repository.NewSQLiteResetTokenRepo(db.Conn)
	require.NoError(t, resetRepo.Create(ctx, &models.PasswordResetToken{
		ID:        uuid.NewString(),
		UserID:    resp.User.ID,
		TokenHash: hashToken(plainToken),
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	}))

	err := auth.ResetPassword(ctx, &models.ResetPasswordRequest{
		Token:       plainToken,
		NewPassword: "brand-new-pass",
	})
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
}
