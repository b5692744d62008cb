package ws

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/akinalp/kolab/models"
)

// TokenValidator, WebSocket handler'ın JWT doğrulaması için kullandığı
// interface.
//
// services.AuthService yerine kendi interface'imizi tanımlıyoruz çünkü
// services → ws yönünde zaten bağımlılık var (RelayPublisher) —
// ws → services olsaydı import cycle oluşurdu. Ayrıca handler'ın
// AuthService'in tüm metodlarına ihtiyacı yok (Interface Segregation).
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

// upgrader, HTTP bağlantısını WebSocket'e yükseltir.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CheckOrigin: Production'da domain kontrolü yapılmalı.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler, WebSocket bağlantı isteklerini işleyen HTTP handler'ı.
type Handler struct {
	hub            *Hub
	tokenValidator TokenValidator
}

// NewHandler, yeni bir WebSocket handler oluşturur.
func NewHandler(hub *Hub, tokenValidator TokenValidator) *Handler {
	return &Handler{
		hub:            hub,
		tokenValidator: tokenValidator,
	}
}

// HandleConnection, bağlantıyı WebSocket'e yükseltir ve client'ı Hub'a
// kaydeder.
//
// Token URL query parameter olarak gelir (ws://server/ws?token=JWT) —
// tarayıcı WebSocket API'si custom header göndermeyi desteklemez.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokenValidator.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for user %s: %v", claims.UserID, err)
		return
	}

	client := &Client{
		hub:           h.hub,
		conn:          conn,
		userID:        claims.UserID,
		send:          make(chan []byte, sendBufferSize),
		subscriptions: make(map[string]bool),
	}

	h.hub.register <- client

	// WritePump ayrı goroutine'de; ReadPump bu goroutine'de çalışır ve
	// bağlantı kapanana kadar bloklar — handler erken dönmez.
	go client.WritePump()
	client.ReadPump()
}
