// Package main — Handler katmanı başlatma.
//
// initHandlers, tüm HTTP handler'larını oluşturur.
// Her handler, ihtiyaç duyduğu service interface'lerini constructor'dan alır.
// Handler'lar "thin" dir — sadece HTTP parse + service call + response write.
package main

import (
	"github.com/akinalp/kolab/config"
	"github.com/akinalp/kolab/handlers"
	"github.com/akinalp/kolab/ws"
)

// Handlers, tüm handler instance'larını tutan container struct.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Profile       *handlers.ProfileHandler
	Collaboration *handlers.CollaborationHandler
	Call          *handlers.CallHandler
	WS            *ws.Handler
}

// initHandlers, tüm handler'ları service ve rate limiter dependency'leri ile oluşturur.
func initHandlers(svcs *Services, limiters *RateLimiters, hub *ws.Hub, cfg *config.Config) *Handlers {
	return &Handlers{
		Auth:          handlers.NewAuthHandler(svcs.Auth, limiters.Login),
		Profile:       handlers.NewProfileHandler(svcs.Profile),
		Collaboration: handlers.NewCollaborationHandler(svcs.Collaboration),
		Call:          handlers.NewCallHandler(svcs.Call, cfg.ICE.STUNURLs),
		WS:            ws.NewHandler(hub, svcs.Auth),
	}
}
