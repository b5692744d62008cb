// Package services, business logic katmanını barındırır.
//
// Service Layer Pattern: Handler (HTTP) ile Repository (DB) arasında
// oturan katmandır. Tüm iş kuralları burada yaşar — şifre hash'leme,
// JWT üretimi, arama durum makinesi.
//
// Service ASLA http.Request/Response bilmez — sadece domain modelleri
// alır/verir. Service ASLA doğrudan SQL çalıştırmaz — Repository
// interface'i kullanır.
package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/akinalp/kolab/models"
	"github.com/akinalp/kolab/pkg"
	"github.com/akinalp/kolab/pkg/email"
	"github.com/akinalp/kolab/repository"
)

// resetTokenTTL: şifre sıfırlama linkinin geçerlilik süresi.
// Email'deki metin ile tutarlı olmalı.
const resetTokenTTL = 20 * time.Minute

// AuthService interface'i — dışarıya açık API.
// Handler bu interface'e bağımlıdır, concrete struct'a değil.
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*models.AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)

	// ForgotPassword, kullanıcıya sıfırlama linki mailler.
	// Email kayıtlı değilse de nil döner — hesap varlığı sızdırılmaz.
	ForgotPassword(ctx context.Context, emailAddr string) error

	// ResetPassword, mail'deki token ile yeni şifre atar.
	ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error
}

// authService, AuthService interface'inin implementasyonu.
type authService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	resetRepo   repository.ResetTokenRepository
	emailSender email.EmailSender // nil olabilir — email konfigüre edilmemişse
	jwtSecret   []byte
	accessExp   time.Duration
	refreshExp  time.Duration
}

// NewAuthService, constructor.
// emailSender nil geçilirse ForgotPassword sessizce devre dışı kalır
// (development ortamı RESEND_API_KEY olmadan çalışabilsin diye).
func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	resetRepo repository.ResetTokenRepository,
	emailSender email.EmailSender,
	jwtSecret string,
	accessExpMinutes int,
	refreshExpDays int,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		resetRepo:   resetRepo,
		emailSender: emailSender,
		jwtSecret:   []byte(jwtSecret),
		accessExp:   time.Duration(accessExpMinutes) * time.Minute,
		refreshExp:  time.Duration(refreshExpDays) * 24 * time.Hour,
	}
}

// Register, yeni kullanıcı kaydı oluşturur.
// Kullanıcı ile birlikte boş bir profil satırı da aynı transaction'da
// açılır — profil ID'si user ID ile aynıdır, kullanıcı sonradan doldurur.
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	profile := &models.Profile{ID: user.ID, Email: &user.Email}
	if err := s.userRepo.CreateWithProfile(ctx, user, profile); err != nil {
		return nil, err // ErrAlreadyExists olabilir
	}

	return s.generateTokens(ctx, user)
}

// Login, kullanıcı girişi yapar.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			// Email mi şifre mi yanlış belli edilmez
			return nil, fmt.Errorf("%w: invalid email or password", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", pkg.ErrUnauthorized)
	}

	return s.generateTokens(ctx, user)
}

// RefreshToken, refresh token ile yeni bir token çifti üretir.
// Token rotation: eski session silinir, yenisi oluşturulur — çalınan
// bir refresh token en fazla bir kez kullanılabilir.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	session, err := s.sessionRepo.GetByTokenHash(ctx, hashToken(refreshToken))
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid refresh token", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	if session.IsExpired() {
		if delErr := s.sessionRepo.Delete(ctx, session.ID); delErr != nil {
			return nil, fmt.Errorf("failed to delete expired session: %w", delErr)
		}
		return nil, fmt.Errorf("%w: refresh token expired", pkg.ErrUnauthorized)
	}

	if err := s.sessionRepo.Delete(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("failed to delete old session: %w", err)
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	return s.generateTokens(ctx, user)
}

// Logout, refresh token'ı iptal eder (session siler).
// Token zaten geçersizse sessizce başarılı sayılır.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.sessionRepo.GetByTokenHash(ctx, hashToken(refreshToken))
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil
		}
		return err
	}

	return s.sessionRepo.Delete(ctx, session.ID)
}

// ValidateAccessToken, JWT access token'ı doğrular ve claims'i döner.
func (s *authService) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (any, error) {
		// alg confusion saldırısına karşı imza yöntemi kontrol edilir
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", pkg.ErrUnauthorized)
	}

	return claims, nil
}

// ForgotPassword, şifre sıfırlama akışını başlatır.
//
// Hesap varlığı sızdırılmaz: email kayıtlı olsun olmasın handler'a
// aynı yanıt döner. Plaintext token sadece email'de bulunur — DB'ye
// SHA256 hash'i yazılır.
func (s *authService) ForgotPassword(ctx context.Context, emailAddr string) error {
	if s.emailSender == nil {
		log.Println("[auth] password reset requested but email sender is not configured")
		return nil
	}

	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil
		}
		return err
	}

	// Yeni istek eski bekleyen token'ları geçersiz kılar
	if err := s.resetRepo.InvalidateForUser(ctx, user.ID); err != nil {
		return err
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	plainToken := hex.EncodeToString(tokenBytes)

	record := &models.PasswordResetToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: hashToken(plainToken),
		ExpiresAt: time.Now().UTC().Add(resetTokenTTL),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.resetRepo.Create(ctx, record); err != nil {
		return err
	}

	if err := s.emailSender.SendPasswordReset(ctx, user.Email, plainToken); err != nil {
		return fmt.Errorf("%w: %s", pkg.ErrInternal, err.Error())
	}

	return nil
}

// ResetPassword, token'ı doğrular ve yeni şifreyi atar.
// Başarılı sıfırlama kullanıcının tüm oturumlarını kapatır.
func (s *authService) ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	record, err := s.resetRepo.GetByTokenHash(ctx, hashToken(req.Token))
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return fmt.Errorf("%w: invalid or expired reset token", pkg.ErrUnauthorized)
		}
		return err
	}

	if !record.IsValid() {
		return fmt.Errorf("%w: invalid or expired reset token", pkg.ErrUnauthorized)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), 12)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, record.UserID, string(hash)); err != nil {
		return err
	}

	if err := s.resetRepo.MarkUsed(ctx, record.ID); err != nil {
		return err
	}

	// Tüm cihazlardan çıkış — çalınmış oturumlar da kapanır
	return s.sessionRepo.DeleteByUser(ctx, record.UserID)
}

// ─── Private Helpers ───

// generateTokens, access (JWT) + refresh (opaque) token çifti üretir.
func (s *authService) generateTokens(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	now := time.Now()
	accessClaims := &models.TokenClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessExp)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "kolab",
		},
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims)
	accessString, err := accessToken.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshBytes := make([]byte, 32)
	if _, err := rand.Read(refreshBytes); err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	refreshString := hex.EncodeToString(refreshBytes)

	session := &models.Session{
		ID:               uuid.NewString(),
		UserID:           user.ID,
		RefreshTokenHash: hashToken(refreshString),
		ExpiresAt:        now.UTC().Add(s.refreshExp),
		CreatedAt:        now.UTC(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	user.PasswordHash = ""
	return &models.AuthResponse{
		User:         user,
		AccessToken:  accessString,
		RefreshToken: refreshString,
	}, nil
}

// hashToken, opaque token'ların DB'de saklanan SHA256 hash'ini üretir.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
