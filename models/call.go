// Package models — Call domain modeli.
//
// P2P arama iki ayrı yerde yaşar:
// - ActiveCall: in-memory arama durumu (service katmanında tutulur).
//   Sunucu yeniden başlatılırsa aktif aramalar temizlenir.
// - Call: DB'deki kalıcı arama geçmişi kaydı (calls tablosu).
//
// WebRTC signaling: sunucu sadece SDP offer/answer ve ICE candidate
// alışverişini relay eder. Medya (ses/video) doğrudan kullanıcılar
// arasında akar.
package models

import (
	"encoding/json"
	"time"
)

// CallStatus, bir aramanın durumunu temsil eden typed constant.
type CallStatus string

const (
	CallStatusCalling   CallStatus = "calling"   // başlatıldı, karşı taraf henüz yanıtlamadı
	CallStatusConnected CallStatus = "connected" // kabul edildi, WebRTC bağlantısı kuruldu
	CallStatusDeclined  CallStatus = "declined"  // reddedildi (veya ring timeout)
	CallStatusEnded     CallStatus = "ended"     // sonlandırıldı
)

// Call, calls tablosundaki bir arama geçmişi kaydını temsil eder.
type Call struct {
	ID          string     `json:"id"`
	CallerID    string     `json:"caller_id"`
	CalleeID    string     `json:"callee_id"`
	Status      CallStatus `json:"status"`
	Reason      *string    `json:"reason"` // decline sebebi: "busy", "timeout", nil = kullanıcı reddi
	StartedAt   time.Time  `json:"started_at"`
	ConnectedAt *time.Time `json:"connected_at"`
	EndedAt     *time.Time `json:"ended_at"`
}

// ActiveCall, devam eden bir aramayı in-memory temsil eder.
type ActiveCall struct {
	ID        string     `json:"id"`
	CallerID  string     `json:"caller_id"`
	CalleeID  string     `json:"callee_id"`
	Status    CallStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// CallBroadcast, arama event'lerinde broadcast edilen payload.
// Her iki tarafın da görünen isim/avatar bilgisini taşır — frontend
// karşı tarafın bilgisini arama ekranında gösterir.
type CallBroadcast struct {
	ID              string     `json:"id"`
	CallerID        string     `json:"caller_id"`
	CallerName      string     `json:"caller_name"`
	CallerAvatarURL *string    `json:"caller_avatar"`
	CalleeID        string     `json:"callee_id"`
	CalleeName      string     `json:"callee_name"`
	CalleeAvatarURL *string    `json:"callee_avatar"`
	Status          CallStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ─── Signaling payload'ları ───
//
// Field isimleri wire format'ın parçasıdır — client reducer'ı bu
// isimlerle parse eder. Değiştirilirse iki taraf anlaşamaz.

// SignalKind, relay edilen signaling event türü.
type SignalKind string

const (
	SignalCallOffer    SignalKind = "call-offer"
	SignalCallAnswer   SignalKind = "call-answer"
	SignalICECandidate SignalKind = "ice-candidate"
	SignalCallDeclined SignalKind = "call-declined"
	SignalCallEnded    SignalKind = "call-ended"
	SignalHandRaise    SignalKind = "hand-raise"
	SignalCallChat     SignalKind = "call-chat"
)

// Valid, event türünün bilinen bir signaling kind olup olmadığını döner.
func (k SignalKind) Valid() bool {
	switch k {
	case SignalCallOffer, SignalCallAnswer, SignalICECandidate,
		SignalCallDeclined, SignalCallEnded, SignalHandRaise, SignalCallChat:
		return true
	}
	return false
}

// SignalEnvelope, relay kanalından geçen wire mesajı.
// Type her zaman "broadcast"tır; Event signaling kind'ı taşır.
type SignalEnvelope struct {
	Type    string          `json:"type"`
	Event   SignalKind      `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// OfferPayload, call-offer event'inin payload'ı.
type OfferPayload struct {
	CallID     string  `json:"call_id"`
	Offer      SDP     `json:"offer"`
	FromUserID string  `json:"from_user_id"`
	ToUserID   string  `json:"to_user_id"`
	CallerName *string `json:"caller_name,omitempty"`
}

// AnswerPayload, call-answer event'inin payload'ı.
type AnswerPayload struct {
	CallID     string `json:"call_id"`
	Answer     SDP    `json:"answer"`
	FromUserID string `json:"from_user_id"`
	ToUserID   string `json:"to_user_id"`
}

// CandidatePayload, ice-candidate event'inin payload'ı.
// Candidate, RTCIceCandidateInit ile aynı şekildedir.
type CandidatePayload struct {
	CallID     string          `json:"call_id,omitempty"`
	Candidate  json.RawMessage `json:"candidate"`
	FromUserID string          `json:"from_user_id"`
}

// DeclinePayload, call-declined event'inin payload'ı.
// Reason "timeout" ise arama yanıtlanmadan süresi dolmuş demektir.
type DeclinePayload struct {
	CallID     string  `json:"call_id"`
	FromUserID string  `json:"from_user_id"`
	Reason     *string `json:"reason,omitempty"`
}

// EndPayload, call-ended event'inin payload'ı.
type EndPayload struct {
	CallID     string `json:"call_id,omitempty"`
	FromUserID string `json:"from_user_id"`
}

// HandRaisePayload, hand-raise event'inin payload'ı.
type HandRaisePayload struct {
	FromUserID string `json:"from_user_id"`
	IsRaised   bool   `json:"is_raised"`
}

// ChatPayload, call-chat event'inin payload'ı.
// Arama içi mesajlar sadece relay edilir — DB'ye kaydedilmez.
type ChatPayload struct {
	FromUserID string `json:"from_user_id"`
	Sender     string `json:"sender"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
}

// SDP, bir WebRTC session description taşır.
// Type "offer" veya "answer"; SDP ham description metni.
type SDP struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}
