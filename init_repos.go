// Package main — Repository katmanı başlatma.
//
// initRepositories, tüm repository implementasyonlarını oluşturur.
// Her repository bir SQL.DB bağlantısı alır ve interface döner.
// main.go'daki wire-up'ı modülerleştirmek için bu dosyaya taşındı.
package main

import (
	"database/sql"

	"github.com/akinalp/kolab/repository"
)

// Repositories, tüm repository instance'larını tutan container struct.
//
// Neden struct? Ayrı değişkenler yerine tek struct kullanmak fonksiyon
// imzalarını temiz tutar ve yeni repository eklendiğinde sadece struct +
// initRepositories güncellenir.
type Repositories struct {
	User          repository.UserRepository
	Session       repository.SessionRepository
	ResetToken    repository.ResetTokenRepository
	Profile       repository.ProfileRepository
	Collaboration repository.CollaborationRepository
	Call          repository.CallRepository
}

// initRepositories, veritabanı bağlantısından tüm repository'leri oluşturur.
//
// Her NewSQLite* fonksiyonu aynı *sql.DB'yi alır — Go'nun sql.DB'si
// thread-safe connection pool'dur, paylaşılması güvenlidir.
func initRepositories(conn *sql.DB) *Repositories {
	return &Repositories{
		User:          repository.NewSQLiteUserRepo(conn),
		Session:       repository.NewSQLiteSessionRepo(conn),
		ResetToken:    repository.NewSQLiteResetTokenRepo(conn),
		Profile:       repository.NewSQLiteProfileRepo(conn),
		Collaboration: repository.NewSQLiteCollaborationRepo(conn),
		Call:          repository.NewSQLiteCallRepo(conn),
	}
}
