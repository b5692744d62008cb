package callsession

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/akinalp/kolab/models"
	"github.com/akinalp/kolab/ws"
)

// InboundSignal, relay'den gelen tek bir signaling mesajıdır.
type InboundSignal struct {
	Kind    models.SignalKind
	Payload json.RawMessage
}

// Signaler, signaling relay adaptörünün Engine'e dönük yüzüdür.
//
// Teslimat best-effort ve at-most-once'tır: alıcı offline ise mesaj
// sessizce kaybolur, karşı taraftaki geçiş hiç tetiklenmez. Retry,
// acknowledgement ya da kalıcılık yok.
type Signaler interface {
	// SendTo, payload'ı alıcının calls:<recipientID> kanalına yayınlar.
	// Gönderim hatası ErrRelayUnavailable'a sarılır.
	SendTo(recipientID string, kind models.SignalKind, payload any) error

	// Signals, gelen mesajların akışını döner. Kanal, bağlantı
	// kapandığında kapanır.
	Signals() <-chan InboundSignal

	Close() error
}

const (
	relayWriteWait    = 10 * time.Second
	relayPongWait     = 90 * time.Second
	heartbeatInterval = 30 * time.Second
	inboundBufferSize = 64
)

// RelayClient, gorilla/websocket üzerinden sunucunun /ws endpoint'ine
// bağlanan Signaler implementasyonudur. Sunucu, bağlantıyı kuran
// kullanıcıyı kendi calls:<userID> kanalına otomatik abone eder — gelen
// signaling için ek subscribe gerekmez.
type RelayClient struct {
	conn    *websocket.Conn
	signals chan InboundSignal

	writeMu sync.Mutex
	closeMu sync.Mutex
	closed  bool
	done    chan struct{}
}

// DialRelay, serverURL'in /ws endpoint'ine JWT ile bağlanır.
// serverURL http(s) şemalı olabilir — ws(s)'e çevrilir.
func DialRelay(ctx context.Context, serverURL, token string) (*RelayClient, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid server url: %v", ErrRelayUnavailable, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"

	// Tarayıcılar WebSocket upgrade'inde custom header gönderemediği için
	// sunucu token'ı query parameter olarak bekler; aynı sözleşmeye uyuyoruz.
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial: %v", ErrRelayUnavailable, err)
	}

	c := &RelayClient{
		conn:    conn,
		signals: make(chan InboundSignal, inboundBufferSize),
		done:    make(chan struct{}),
	}

	go c.readLoop()
	go c.heartbeatLoop()
	return c, nil
}

func (c *RelayClient) SendTo(recipientID string, kind models.SignalKind, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: marshal payload: %v", ErrRelayUnavailable, err)
	}
	env := ws.Envelope{
		Type:    ws.TypeBroadcast,
		Channel: ws.CallChannel(recipientID),
		Event:   kind,
		Payload: raw,
	}
	if err := c.writeJSON(env); err != nil {
		return fmt.Errorf("%w: send %s: %v", ErrRelayUnavailable, kind, err)
	}
	return nil
}

func (c *RelayClient) Signals() <-chan InboundSignal {
	return c.signals
}

// Close, bağlantıyı kapatır. Idempotent.
func (c *RelayClient) Close() error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)
	return c.conn.Close()
}

func (c *RelayClient) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(relayWriteWait))
	return c.conn.WriteJSON(v)
}

// readLoop, gelen envelope'ları parse edip signals kanalına iter.
// broadcast dışındaki tipler (heartbeat_ack, error) burada tüketilir.
func (c *RelayClient) readLoop() {
	defer close(c.signals)
	_ = c.conn.SetReadDeadline(time.Now().Add(relayPongWait))

	for {
		var env ws.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			c.closeMu.Lock()
			closed := c.closed
			c.closeMu.Unlock()
			if !closed {
				log.Printf("[relay] connection lost: %v", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(relayPongWait))

		switch env.Type {
		case ws.TypeBroadcast:
			sig := InboundSignal{Kind: env.Event, Payload: env.Payload}
			select {
			case c.signals <- sig:
			default:
				// Engine reducer'ı takıldıysa en eski mesajı düşürmek
				// yerine yenisini düşürüyoruz — at-most-once sözleşmesi.
				log.Printf("[relay] inbound buffer full, dropping %s", env.Event)
			}
		case ws.TypeHeartbeatAck:
			// deadline yukarıda yenilendi
		case ws.TypeError:
			log.Printf("[relay] server error: %s", env.Error)
		}
	}
}

func (c *RelayClient) heartbeatLoop() {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.writeJSON(ws.Envelope{Type: ws.TypeHeartbeat}); err != nil {
				return
			}
		}
	}
}
