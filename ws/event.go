// Package ws, WebSocket bağlantı yönetimi ve signaling relay'ini sağlar.
//
// Mimari:
// - Hub: Tüm bağlantıları ve kanal aboneliklerini yöneten merkezi yapı
// - Client: Her WebSocket bağlantısını temsil eder
// - Envelope: Client-server arası iletilen mesaj formatı
//
// Relay modeli kanal bazlıdır: her kullanıcı bağlanınca kendi
// "calls:<userID>" kanalına otomatik abone olur. Bir kullanıcıya
// signaling mesajı göndermek, onun kanalına broadcast etmektir.
// Sunucu medyaya hiç dokunmaz — sadece SDP/ICE/kontrol mesajlarını
// iletir.
package ws

import (
	"encoding/json"

	"github.com/akinalp/kolab/models"
)

// Mesaj tipleri (Envelope.Type).
const (
	// TypeBroadcast: kanal üzerinden event relay'i. Hem client→server
	// hem server→client yönünde kullanılır.
	TypeBroadcast = "broadcast"

	// TypeSubscribe / TypeUnsubscribe: ek kanal aboneliği yönetimi.
	// Kendi kanalına abonelik otomatiktir, bunlar opsiyoneldir.
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"

	// TypeHeartbeat: client her 30sn'de gönderir — "hâlâ bağlıyım".
	// Sunucu TypeHeartbeatAck ile yanıtlar ve read deadline'ı yeniler.
	TypeHeartbeat    = "heartbeat"
	TypeHeartbeatAck = "heartbeat_ack"

	// TypeError: sunucunun reddettiği mesajlar için geri bildirim.
	TypeError = "error"
)

// Envelope, WebSocket üzerinden iletilen bir mesajı temsil eder.
//
// Client → Server broadcast örneği:
//
//	{ "type": "broadcast", "channel": "calls:<hedefUserID>",
//	  "event": "ice-candidate", "payload": { ... } }
//
// Server → Client'a relay edilirken channel alanı düşer — alıcı zaten
// sadece abone olduğu kanalların mesajlarını görür:
//
//	{ "type": "broadcast", "event": "ice-candidate", "payload": { ... } }
type Envelope struct {
	Type    string            `json:"type"`
	Channel string            `json:"channel,omitempty"`
	Event   models.SignalKind `json:"event,omitempty"`
	Payload json.RawMessage   `json:"payload,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// CallChannel, bir kullanıcının signaling kanal adını üretir.
// Kanal adlandırması wire format'ın parçasıdır — client tarafı da
// aynı şemayı kullanır.
func CallChannel(userID string) string {
	return "calls:" + userID
}
