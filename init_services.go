// Package main — Service katmanı başlatma.
//
// initServices, tüm service implementasyonlarını oluşturur.
// Her service, ihtiyaç duyduğu repository interface'lerini ve diğer
// dependency'leri constructor injection ile alır.
//
// ÖNEMLİ sıralama kuralı: profileService → callService'den ÖNCE —
// CallService arama broadcast'lerini caller adıyla dekore etmek için
// ProfileGetter olarak ProfileService'i kullanır.
package main

import (
	"log"
	"time"

	"github.com/akinalp/kolab/config"
	"github.com/akinalp/kolab/models"
	"github.com/akinalp/kolab/pkg/cache"
	"github.com/akinalp/kolab/pkg/email"
	"github.com/akinalp/kolab/pkg/ratelimit"
	"github.com/akinalp/kolab/services"
	"github.com/akinalp/kolab/ws"
)

// Services, tüm service instance'larını tutan container struct.
type Services struct {
	Auth          services.AuthService
	Profile       services.ProfileService
	Collaboration services.CollaborationService
	Call          services.CallService
}

// RateLimiters, rate limiter instance'larını tutan container.
type RateLimiters struct {
	Login *ratelimit.LoginRateLimiter
}

// initServices, tüm service'leri ve rate limiter'ları oluşturur.
//
// Dönen cleanup fonksiyonu cache ve limiter background goroutine'lerini
// durdurur — main shutdown sırasında çağırır.
func initServices(repos *Repositories, hub ws.RelayPublisher, cfg *config.Config) (*Services, *RateLimiters, func()) {
	// Email — RESEND_API_KEY yoksa nil geçilir, şifre sıfırlama token'ı
	// sadece loglanır. Development ortamı Resend hesabı olmadan çalışır.
	var emailSender email.EmailSender
	if cfg.Email.ResendAPIKey != "" {
		emailSender = email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.FromEmail, cfg.Email.AppURL)
		log.Println("[main] email sender enabled (resend)")
	} else {
		log.Println("[main] RESEND_API_KEY not set — password reset emails disabled")
	}

	authService := services.NewAuthService(
		repos.User,
		repos.Session,
		repos.ResetToken,
		emailSender,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	// Profil cache'i ProfileService ile CallService arasında paylaşılır:
	// arama broadcast'lerinin isim dekorasyonu her event'te DB'ye gitmez.
	profileCache := cache.New[string, models.Profile](30*time.Second, 5*time.Minute)

	profileService := services.NewProfileService(repos.Profile, profileCache)
	collabService := services.NewCollaborationService(repos.Collaboration, repos.Profile, repos.User)
	callService := services.NewCallService(hub, repos.Call, profileService, cfg.Call.RingTimeout)

	loginLimiter := ratelimit.NewLoginRateLimiter(5, 2*time.Minute)

	cleanup := func() {
		profileCache.Close()
		loginLimiter.Close()
	}

	return &Services{
			Auth:          authService,
			Profile:       profileService,
			Collaboration: collabService,
			Call:          callService,
		}, &RateLimiters{Login: loginLimiter},
		cleanup
}
