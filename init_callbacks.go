// Package main — WebSocket Hub callback wire-up.
//
// registerHubCallbacks, Hub'ın signaling/disconnect callback'lerini ayarlar.
//
// Bu callback'ler neden burada (main package'da)?
// Hub ws paketinde yaşıyor, ama arama durum makinesi service katmanında.
// Hub'ın service'lere bağımlı olmasını istemiyoruz (Dependency Inversion).
// main package wire-up noktasıdır — tüm katmanları birbirine bağlar.
//
// Callback'ler client goroutine'lerinden `go` ile çağrılır — CallService
// broadcast için Hub'a geri döndüğünde mutex çakışması olmaz.
package main

import (
	"github.com/akinalp/kolab/services"
	"github.com/akinalp/kolab/ws"
)

// registerHubCallbacks, tüm Hub callback'lerini register eder.
func registerHubCallbacks(hub *ws.Hub, callService services.CallService) {
	// Signaling broadcast'leri (offer/answer/decline/end/ICE/hand-raise/chat)
	// CallService'in durum makinesinden geçer — in-call-only relay, busy
	// kontrolü ve from_user_id rewrite orada yapılır.
	hub.SetOnSignal(callService.HandleSignal)

	// Kullanıcının son WS bağlantısı koptuğunda aktif araması varsa
	// karşı tarafa call-ended iletilir.
	hub.SetOnDisconnect(callService.HandleDisconnect)
}
