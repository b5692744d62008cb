package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/akinalp/kolab/models"
)

// RelayPublisher, service katmanının signaling event'leri yaymak için
// kullandığı interface.
//
// Dependency Inversion: Service'ler Hub'ın concrete struct'ına değil,
// bu interface'e bağımlıdır. Testlerde fake publisher geçilir.
type RelayPublisher interface {
	// BroadcastToChannel, kanala abone tüm client'lara event gönderir.
	BroadcastToChannel(channel string, event models.SignalKind, payload any)

	// IsUserOnline, kullanıcının en az bir aktif bağlantısı olup
	// olmadığını döner. Arama başlatmadan önce kontrol edilir.
	IsUserOnline(userID string) bool

	// GetOnlineUserIDs, bağlı tüm kullanıcı ID'lerini döner.
	GetOnlineUserIDs() []string
}

// Callback tipleri — ws paketinin services'e bağımlı olmaması için
// fonksiyon tipleri kullanılır. Wire-up package main'de yapılır.
type (
	// SignalCallback, client'tan gelen bir signaling broadcast'i için
	// çağrılır. channel hedef kanaldır ("calls:<userID>").
	SignalCallback func(fromUserID, channel string, event models.SignalKind, payload json.RawMessage)

	// DisconnectCallback, kullanıcının son bağlantısı koptuğunda çağrılır.
	DisconnectCallback func(userID string)
)

// Hub, tüm WebSocket bağlantılarını ve kanal aboneliklerini yöneten
// merkezi yapıdır (Observer pattern).
//
// Run() goroutine'i register/unregister channel'larından select ile
// okur; broadcast'ler mutex korumalı map'ler üzerinden senkron yapılır.
type Hub struct {
	// clients: userID → Client set (bir kullanıcının birden fazla
	// cihazı/sekmesi olabilir).
	clients map[string]map[*Client]bool

	// channels: kanal adı → abone Client set.
	channels map[string]map[*Client]bool

	mu sync.RWMutex

	register   chan *Client
	unregister chan *Client

	// onSignal: client'tan gelen her broadcast için çağrılır.
	// Doğrulama, state güncelleme ve relay sorumluluğu callback'e
	// (pratikte CallService) aittir.
	onSignal SignalCallback

	// onDisconnect: kullanıcı tamamen koptuğunda çağrılır —
	// aktif araması varsa karşı tarafa call-ended iletilir.
	onDisconnect DisconnectCallback
}

// NewHub, yeni bir Hub oluşturur.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		channels:   make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// SetOnSignal, signaling callback'ini bağlar. Run() başlamadan önce
// çağrılmalıdır.
func (h *Hub) SetOnSignal(cb SignalCallback) {
	h.onSignal = cb
}

// SetOnDisconnect, disconnect callback'ini bağlar.
func (h *Hub) SetOnDisconnect(cb DisconnectCallback) {
	h.onDisconnect = cb
}

// Run, Hub'ın ana event loop'udur. main'de `go hub.Run()` ile başlatılır.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

// addClient, yeni bir client'ı Hub'a ekler ve kendi signaling
// kanalına otomatik abone eder.
func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true

	h.subscribeLocked(client, CallChannel(client.userID))

	log.Printf("[ws] client connected: user=%s (connections: %d)",
		client.userID, len(h.clients[client.userID]))
}

// removeClient, bir client'ı Hub'dan ve tüm kanallardan çıkarır.
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()

	fullyGone := false
	if clients, ok := h.clients[client.userID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			close(client.send)

			for channel := range client.subscriptions {
				h.unsubscribeLocked(client, channel)
			}

			if len(clients) == 0 {
				delete(h.clients, client.userID)
				fullyGone = true
				log.Printf("[ws] user fully disconnected: %s", client.userID)
			} else {
				log.Printf("[ws] client disconnected: user=%s (remaining: %d)",
					client.userID, len(clients))
			}
		}
	}
	h.mu.Unlock()

	// Callback mutex dışında çağrılır — CallService broadcast yapmak
	// isterse deadlock oluşmaz.
	if fullyGone && h.onDisconnect != nil {
		go h.onDisconnect(client.userID)
	}
}

// Subscribe, client'ı bir kanala abone eder.
func (h *Hub) Subscribe(client *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribeLocked(client, channel)
}

// Unsubscribe, client'ın kanal aboneliğini kaldırır.
// Kendi signaling kanalından çıkılamaz — arama alamaz hale gelirdi.
func (h *Hub) Unsubscribe(client *Client, channel string) {
	if channel == CallChannel(client.userID) {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unsubscribeLocked(client, channel)
}

func (h *Hub) subscribeLocked(client *Client, channel string) {
	if _, ok := h.channels[channel]; !ok {
		h.channels[channel] = make(map[*Client]bool)
	}
	h.channels[channel][client] = true
	client.subscriptions[channel] = true
}

func (h *Hub) unsubscribeLocked(client *Client, channel string) {
	if subs, ok := h.channels[channel]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.channels, channel)
		}
	}
	delete(client.subscriptions, channel)
}

// BroadcastToChannel, kanala abone tüm client'lara event gönderir.
// Yavaş client'lar (send buffer dolu) bağlantıdan düşürülür —
// signaling mesajları gecikmeye tahammülsüzdür, biriktirilmez.
func (h *Hub) BroadcastToChannel(channel string, event models.SignalKind, payload any) {
	rawPayload, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[ws] failed to marshal payload for %s: %v", channel, err)
		return
	}

	data, err := json.Marshal(Envelope{
		Type:    TypeBroadcast,
		Event:   event,
		Payload: rawPayload,
	})
	if err != nil {
		log.Printf("[ws] failed to marshal envelope for %s: %v", channel, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.channels[channel] {
		select {
		case client.send <- data:
		default:
			// Buffer dolu — bu client yavaş, kapat
			go func(c *Client) { h.unregister <- c }(client)
		}
	}
}

// IsUserOnline, kullanıcının aktif bağlantısı olup olmadığını döner.
func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// GetOnlineUserIDs, bağlı olan tüm kullanıcı ID'lerini döner.
func (h *Hub) GetOnlineUserIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		ids = append(ids, userID)
	}
	return ids
}

// Shutdown, tüm client bağlantılarını kapatır (graceful shutdown).
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			close(client.send)
		}
	}
	h.clients = make(map[string]map[*Client]bool)
	h.channels = make(map[string]map[*Client]bool)
	log.Println("[ws] hub shut down, all connections closed")
}
