// Package config, uygulamanın tüm konfigürasyonunu merkezi olarak yönetir.
// Environment variable'lardan okur, .env dosyasını da destekler.
//
// Tüm ayarlar tek bir Config nesnesinde toplanır — her yerde ayrı ayrı
// os.Getenv() çağırmak yerine wire-up sırasında bu nesne taşınır.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config, uygulamanın tüm konfigürasyon değerlerini taşır.
// Her alt bölüm ayrı bir struct — her struct tek bir concern'ü temsil eder.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Email    EmailConfig
	ICE      ICEConfig
	Call     CallConfig
}

// ServerConfig, HTTP server ayarları.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig, SQLite database ayarları.
type DatabaseConfig struct {
	Path string // SQLite dosya yolu (ör: ./data/kolab.db)
}

// JWTConfig, JWT token ayarları.
type JWTConfig struct {
	Secret             string // Token imzalama anahtarı — GİZLİ TUTULMALI
	AccessTokenExpiry  int    // Dakika cinsinden (varsayılan: 15)
	RefreshTokenExpiry int    // Gün cinsinden (varsayılan: 7)
}

// EmailConfig, Resend üzerinden email gönderimi ayarları.
// Üçü de dolu değilse email servisi devre dışı kalır (şifre sıfırlama çalışmaz).
type EmailConfig struct {
	ResendAPIKey string
	FromEmail    string // Resend'de doğrulanmış domain altında olmalı
	AppURL       string // Reset link'lerinde kullanılan public URL
}

// ICEConfig, WebRTC NAT traversal için STUN sunucu listesi.
// Hem server (client'lara config dağıtımı) hem kolabcall client'ı kullanır.
type ICEConfig struct {
	STUNURLs []string
}

// CallConfig, P2P arama davranış ayarları.
type CallConfig struct {
	// RingTimeout: Yanıtlanmayan bir aramanın otomatik decline edilme süresi.
	// Orijinal davranışta timeout yoktu — arama süresiz çalar kalırdı.
	// Relay mesajı kaybolursa caller sonsuza kadar "calling" durumunda
	// kalmasın diye sınır eklendi.
	RingTimeout time.Duration

	// QualityInterval: Client'ın inbound video istatistiklerini örnekleme aralığı.
	QualityInterval time.Duration
}

// Load, environment variable'lardan Config oluşturur.
// .env dosyası varsa önce onu yükler (development kolaylığı için).
func Load() (*Config, error) {
	// .env dosyasını yükle — dosya yoksa hata vermez, sessizce devam eder.
	// Production'da bu dosya olmaz, gerçek env variable'lar kullanılır.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "9090"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	accessExpiry, err := strconv.Atoi(getEnv("JWT_ACCESS_EXPIRY_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_EXPIRY_MINUTES: %w", err)
	}

	refreshExpiry, err := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRY_DAYS", "7"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_REFRESH_EXPIRY_DAYS: %w", err)
	}

	ringTimeout, err := strconv.Atoi(getEnv("CALL_RING_TIMEOUT_SECONDS", "45"))
	if err != nil {
		return nil, fmt.Errorf("invalid CALL_RING_TIMEOUT_SECONDS: %w", err)
	}

	qualityInterval, err := strconv.Atoi(getEnv("CALL_QUALITY_INTERVAL_SECONDS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid CALL_QUALITY_INTERVAL_SECONDS: %w", err)
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/kolab.db"),
		},
		JWT: JWTConfig{
			Secret:             jwtSecret,
			AccessTokenExpiry:  accessExpiry,
			RefreshTokenExpiry: refreshExpiry,
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromEmail:    getEnv("RESEND_FROM", ""),
			AppURL:       getEnv("APP_URL", ""),
		},
		ICE: ICEConfig{
			STUNURLs: splitList(getEnv("ICE_STUN_URLS",
				"stun:stun.l.google.com:19302,stun:stun1.l.google.com:19302")),
		},
		Call: CallConfig{
			RingTimeout:     time.Duration(ringTimeout) * time.Second,
			QualityInterval: time.Duration(qualityInterval) * time.Second,
		},
	}

	return cfg, nil
}

// Addr, HTTP server'ın dinleyeceği adresi döner (ör: "0.0.0.0:9090").
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv, environment variable'ı okur, yoksa fallback değeri döner.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

// splitList, virgülle ayrılmış env değerini temizlenmiş string dilimine çevirir.
func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
