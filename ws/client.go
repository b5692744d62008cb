package ws

import (
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket bağlantı sabitleri
const (
	// writeWait: Bir mesajı yazmak için maksimum bekleme süresi.
	writeWait = 10 * time.Second

	// pongWait: Client'ın heartbeat göndermesi için beklenen maksimum
	// süre. 3 heartbeat kaçırma = 30s × 3 = 90s.
	pongWait = 90 * time.Second

	// maxMessageSize: Client'ın gönderebileceği maksimum mesaj boyutu.
	// SDP offer'ları birkaç KB olabilir — sınır buna göre geniş tutuldu.
	maxMessageSize = 32 * 1024

	// sendBufferSize: Her client'ın send channel buffer boyutu.
	sendBufferSize = 256
)

// Client, tek bir WebSocket bağlantısını temsil eder.
//
// Her bağlantı için iki goroutine çalışır:
// - ReadPump: Client'dan gelen mesajları okur → Hub'a/callback'e iletir
// - WritePump: Hub'dan gelen mesajları client'a yazar
//
// gorilla/websocket aynı anda tek okuma ve tek yazma destekler —
// iki ayrı goroutine ile okuma ve yazma birbirini bloklamaz.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string

	// send, client'a gönderilecek mesajların buffer'landığı channel.
	send chan []byte

	// subscriptions: client'ın abone olduğu kanallar.
	// Sadece Hub mutex'i altında erişilir.
	subscriptions map[string]bool

	mu sync.Mutex // conn yazmalarını korur
}

// ReadPump, bağlantıdan gelen mesajları okur ve işler.
// Bağlantı kapanana kadar bloklar; kapanınca Hub'dan çıkış yapar.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("[ws] failed to set read deadline for user %s: %v", c.userID, err)
		return
	}

	for {
		_, rawMessage, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] unexpected close for user %s: %v", c.userID, err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(rawMessage, &env); err != nil {
			log.Printf("[ws] invalid message from user %s: %v", c.userID, err)
			continue
		}

		c.handleEnvelope(env)
	}
}

// handleEnvelope, client'dan gelen mesajları türüne göre işler.
func (c *Client) handleEnvelope(env Envelope) {
	switch env.Type {
	case TypeHeartbeat:
		// Heartbeat geldi — deadline'ı yenile ve ack gönder.
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("[ws] failed to set read deadline for user %s: %v", c.userID, err)
			return
		}
		c.sendEnvelope(Envelope{Type: TypeHeartbeatAck})

	case TypeSubscribe:
		if !validChannel(env.Channel) {
			c.sendEnvelope(Envelope{Type: TypeError, Error: "invalid channel"})
			return
		}
		c.hub.Subscribe(c, env.Channel)

	case TypeUnsubscribe:
		if !validChannel(env.Channel) {
			return
		}
		c.hub.Unsubscribe(c, env.Channel)

	case TypeBroadcast:
		c.handleBroadcast(env)

	default:
		log.Printf("[ws] unknown message type from user %s: %s", c.userID, env.Type)
	}
}

// handleBroadcast, signaling broadcast'ini doğrular ve callback'e iletir.
//
// Relay/doğrulama sorumluluğu callback'tedir (pratikte CallService) —
// ws paketi call state bilmez. Callback `go` ile çağrılır: service
// broadcast sırasında Hub mutex'ine ihtiyaç duyarsa deadlock oluşmaz.
func (c *Client) handleBroadcast(env Envelope) {
	if !validChannel(env.Channel) {
		c.sendEnvelope(Envelope{Type: TypeError, Error: "invalid channel"})
		return
	}
	if !env.Event.Valid() {
		c.sendEnvelope(Envelope{Type: TypeError, Error: "unknown event: " + string(env.Event)})
		return
	}

	if c.hub.onSignal != nil {
		go c.hub.onSignal(c.userID, env.Channel, env.Event, env.Payload)
	}
}

// validChannel, kanal adının bilinen şemaya uyduğunu kontrol eder.
// Şu an tek şema var: "calls:<userID>".
func validChannel(channel string) bool {
	rest, ok := strings.CutPrefix(channel, "calls:")
	return ok && rest != ""
}

// sendEnvelope, client'a tek bir mesaj gönderir.
func (c *Client) sendEnvelope(env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("[ws] failed to marshal envelope for user %s: %v", c.userID, err)
		return
	}

	select {
	case c.send <- data:
	default:
		// Buffer dolu — client muhtemelen donmuş, bağlantıyı kapat
		log.Printf("[ws] send buffer full for user %s, dropping connection", c.userID)
		c.hub.unregister <- c
	}
}

// WritePump, send channel'dan gelen mesajları bağlantıya yazar.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for {
		message, ok := <-c.send
		if !ok {
			// Channel kapatıldı — Hub client'ı çıkardı
			c.writeMessage(websocket.CloseMessage, nil)
			return
		}

		if err := c.writeMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// writeMessage, bağlantıya mesaj yazar. gorilla/websocket conn'a aynı
// anda birden fazla yazma yasak — mutex ile korunur.
func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
