// Package main — HTTP route registration.
//
// initRoutes, tüm API endpoint'lerini mux'a bağlar.
// Middleware chain helper'ı burada tanımlıdır:
//   - auth: JWT token doğrulaması
package main

import (
	"fmt"
	"net/http"

	"github.com/akinalp/kolab/middleware"
	"github.com/akinalp/kolab/repository"
	"github.com/akinalp/kolab/services"
)

// initRoutes, middleware chain'i kurar ve tüm endpoint'leri mux'a bağlar.
//
// Route sıralama kuralı: Literal path'ler parametrik path'lerden ÖNCE tanımlanmalı.
// Örnek: "/api/profiles/search" → "/api/profiles/{id}" öncesinde,
// yoksa Go router "search" kelimesini bir profil ID'si olarak yorumlar.
func initRoutes(
	mux *http.ServeMux,
	h *Handlers,
	authService services.AuthService,
	userRepo repository.UserRepository,
) {
	// ─── Middleware ───
	authMw := middleware.NewAuthMiddleware(authService, userRepo)

	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(http.HandlerFunc(handler))
	}

	// Health check
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","service":"kolab"}`)
	})

	// Auth — public endpoint'ler (token gerekmez)
	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/auth/refresh", h.Auth.Refresh)
	mux.HandleFunc("POST /api/auth/logout", h.Auth.Logout)
	mux.HandleFunc("POST /api/auth/forgot-password", h.Auth.ForgotPassword)
	mux.HandleFunc("POST /api/auth/reset-password", h.Auth.ResetPassword)

	// Protected endpoint'ler — auth() sarar
	mux.Handle("GET /api/users/me", auth(h.Auth.Me))

	// Profiles
	mux.Handle("GET /api/profiles/search", auth(h.Profile.Search))
	mux.Handle("GET /api/profiles/{id}", auth(h.Profile.Get))
	mux.Handle("PATCH /api/profiles/me", auth(h.Profile.UpdateMe))

	// Collaborations — (requester, collaborator) çifti üzerinde durum yönetimi
	mux.Handle("GET /api/collaborations", auth(h.Collaboration.List))
	mux.Handle("PUT /api/collaborations/{userId}", auth(h.Collaboration.SetStatus))
	mux.Handle("DELETE /api/collaborations/{userId}", auth(h.Collaboration.Remove))

	// Calls — aktif arama durumu, geçmiş, presence ve ICE config
	mux.Handle("GET /api/calls/active", auth(h.Call.Active))
	mux.Handle("GET /api/calls/history", auth(h.Call.History))
	mux.Handle("GET /api/calls/online", auth(h.Call.Online))
	mux.Handle("GET /api/calls/config", auth(h.Call.Config))

	// WebSocket — signaling relay bağlantısı
	//
	// Neden auth middleware kullanmıyoruz?
	// WebSocket upgrade sırasında tarayıcılar custom HTTP header gönderemez.
	// Bu yüzden JWT token URL query parameter olarak gönderilir:
	//   ws://server/ws?token=JWT_TOKEN
	// WS handler kendi içinde token doğrulaması yapar.
	mux.HandleFunc("GET /ws", h.WS.HandleConnection)
}
