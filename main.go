// Package main, kolab backend uygulamasının giriş noktasıdır.
//
// Bu dosyanın görevi — Dependency Injection "wire-up":
//   1.  Config'i yükle
//   2.  Database'i başlat (embedded migration'lar ile)
//   3.  Repository'leri oluştur (DB bağlantısı ile)
//   4.  WebSocket Hub'ı başlat
//   5.  Service'leri oluştur (repository'ler + hub ile)
//   6.  Hub callback'lerini bağla (signaling → CallService)
//   7.  Handler'ları oluştur (service'ler ile)
//   8.  HTTP router'ı kur, route'ları bağla
//   9.  CORS yapılandır
//  10.  HTTP Server'ı başlat
//  11.  Graceful shutdown
//
// Wire-up adımları init_*.go dosyalarına bölünmüştür.
// Global değişken YOK — her şey burada oluşturulup birbirine bağlanıyor.
package main

import (
	"context"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/akinalp/kolab/config"
	"github.com/akinalp/kolab/database"
	"github.com/akinalp/kolab/ws"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] kolab server starting...")

	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	log.Printf("[main] config loaded (port=%d)", cfg.Server.Port)

	// ─── 2. Database ───
	//
	// Migration SQL dosyaları binary'ye gömülüdür — deploy edilen binary
	// yanında dosya taşımaz. fs.Sub ile migrations/ alt dizinine iniyoruz.
	migrationsFS, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	if err != nil {
		log.Fatalf("[main] failed to open embedded migrations: %v", err)
	}

	db, err := database.New(cfg.Database.Path, migrationsFS)
	if err != nil {
		log.Fatalf("[main] failed to initialize database: %v", err)
	}
	defer db.Close()

	// ─── 3. Repository Layer ───
	repos := initRepositories(db.Conn)

	// ─── 4. WebSocket Hub ───
	//
	// Hub, tüm WebSocket bağlantılarını yöneten merkezi yapıdır.
	// `go hub.Run()` ayrı bir goroutine'de event loop başlatır:
	// register/unregister channel'larını dinler ve client map'ini günceller.
	// Hub aynı zamanda RelayPublisher interface'ini implement eder —
	// CallService hub'a doğrudan bağımlı olmak yerine interface üzerinden erişir.
	hub := ws.NewHub()

	// ─── 5. Service Layer ───
	svcs, limiters, cleanup := initServices(repos, hub, cfg)
	defer cleanup()

	// ─── 6. Hub Callback'leri ───
	registerHubCallbacks(hub, svcs.Call)

	go hub.Run()

	// ─── 7. Handler Layer ───
	h := initHandlers(svcs, limiters, hub, cfg)

	// ─── 8. HTTP Router ───
	mux := http.NewServeMux()
	initRoutes(mux, h, svcs.Auth, repos.User)

	// ─── 9. CORS ───
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:3000", // web dev server
			"http://localhost:1420", // Tauri dev
			"tauri://localhost",     // Tauri production
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		Debug:            false,
	})

	handler := corsHandler.Handler(mux)

	// ─── 10. HTTP Server ───
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ─── 11. Graceful Shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[main] server listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	<-done
	log.Println("[main] shutting down...")

	// Önce aktif aramaları sonlandır — her iki tarafa call-ended gider,
	// ring timer'ları durur. Sonra WebSocket bağlantıları kapanır ve
	// HTTP server mevcut request'lerin bitmesini bekler (5sn timeout).
	svcs.Call.Shutdown()
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("[main] forced shutdown: %v", err)
	}

	log.Println("[main] server stopped gracefully")
}
