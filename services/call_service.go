// Package services — CallService: P2P arama durum makinesi.
//
// Aktif arama durumu in-memory tutulur (sunucu restart'ında temizlenir);
// arama geçmişi calls tablosuna yazılır.
//
// Durum akışı:
//
//	calling → connected → ended
//	calling → declined             (kullanıcı reddi, busy veya timeout)
//	calling → ended                (caller vazgeçti veya bağlantı koptu)
//
// Signaling akışı: client'lar "calls:<hedefUserID>" kanalına broadcast
// gönderir; Hub bunları HandleSignal'a iletir. CallService doğrular,
// state'i günceller ve mesajı hedef kanala relay eder. SDP/ICE içeriği
// hiç parse edilmez — opak geçer.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/akinalp/kolab/models"
	"github.com/akinalp/kolab/pkg"
	"github.com/akinalp/kolab/repository"
	"github.com/akinalp/kolab/ws"
)

// Decline sebepleri — DeclinePayload.Reason ve calls.reason kolonunda
// kullanılır.
const (
	declineReasonBusy    = "busy"
	declineReasonTimeout = "timeout"
)

// ProfileGetter, CallService'in broadcast dekorasyonu için ihtiyaç
// duyduğu tek metod (Interface Segregation). ProfileService karşılar.
type ProfileGetter interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
}

// CallService interface'i — dışarıya açık API.
type CallService interface {
	// HandleSignal, Hub'dan gelen her signaling broadcast'i için
	// çağrılır. channel hedef kanaldır ("calls:<userID>").
	HandleSignal(fromUserID, channel string, kind models.SignalKind, payload json.RawMessage)

	// HandleDisconnect, kullanıcının son WS bağlantısı koptuğunda
	// çağrılır. Aktif araması varsa karşı tarafa call-ended iletilir.
	HandleDisconnect(userID string)

	// GetUserCall, kullanıcının aktif aramasını döner.
	// Arama yoksa pkg.ErrNotFound.
	GetUserCall(userID string) (*models.ActiveCall, error)

	// ListHistory, kullanıcının arama geçmişini döner.
	ListHistory(ctx context.Context, userID string, limit int) ([]models.Call, error)

	// OnlineUserIDs, şu anda WS bağlantısı olan kullanıcı ID'lerini
	// döner. Frontend "aranabilir" listesini bununla işaretler.
	OnlineUserIDs() []string

	// Shutdown, bekleyen ring timer'larını durdurur.
	Shutdown()
}

// callService, CallService interface'inin implementasyonu.
type callService struct {
	hub      ws.RelayPublisher
	callRepo repository.CallRepository
	profiles ProfileGetter

	// ringTimeout: yanıtlanmayan aramanın otomatik decline süresi.
	// Relay mesajı kaybolursa caller sonsuza kadar "calling" durumunda
	// kalmasın diye eklendi.
	ringTimeout time.Duration

	mu sync.RWMutex
	// activeCalls: callID → aktif arama.
	activeCalls map[string]*models.ActiveCall
	// userCalls: userID → callID. Busy kontrolü O(1) yapılır.
	userCalls map[string]string
	// ringTimers: callID → ring timeout timer'ı.
	ringTimers map[string]*time.Timer
}

// NewCallService, constructor.
func NewCallService(
	hub ws.RelayPublisher,
	callRepo repository.CallRepository,
	profiles ProfileGetter,
	ringTimeout time.Duration,
) CallService {
	return &callService{
		hub:         hub,
		callRepo:    callRepo,
		profiles:    profiles,
		ringTimeout: ringTimeout,
		activeCalls: make(map[string]*models.ActiveCall),
		userCalls:   make(map[string]string),
		ringTimers:  make(map[string]*time.Timer),
	}
}

// HandleSignal, signaling event'ini türüne göre işler.
//
// call-offer/answer/declined/ended durum makinesini günceller;
// ice-candidate, hand-raise ve call-chat sadece relay edilir.
func (s *callService) HandleSignal(fromUserID, channel string, kind models.SignalKind, payload json.RawMessage) {
	targetID := userIDFromChannel(channel)
	if targetID == "" {
		return
	}

	switch kind {
	case models.SignalCallOffer:
		s.handleOffer(fromUserID, targetID, payload)
	case models.SignalCallAnswer:
		s.handleAnswer(fromUserID, targetID, payload)
	case models.SignalCallDeclined:
		s.handleDecline(fromUserID, targetID, payload)
	case models.SignalCallEnded:
		s.handleEnd(fromUserID, targetID, payload)
	case models.SignalICECandidate, models.SignalHandRaise, models.SignalCallChat:
		s.relayInCall(fromUserID, targetID, kind, payload)
	}
}

// handleOffer, yeni arama başlatma isteğini işler.
//
// Kurallar:
// - Kendini arayamazsın.
// - Hedef çevrimdışıysa arama başlamaz — caller'a decline döner.
// - İki taraftan biri meşgulse caller'a reason="busy" decline döner.
func (s *callService) handleOffer(fromUserID, targetID string, payload json.RawMessage) {
	var offer models.OfferPayload
	if err := json.Unmarshal(payload, &offer); err != nil {
		log.Printf("[call] invalid offer payload from %s: %v", fromUserID, err)
		return
	}
	if offer.CallID == "" {
		offer.CallID = uuid.NewString()
	}
	// Gönderen kimliği payload'dan değil bağlantıdan alınır — spoof engeli
	offer.FromUserID = fromUserID
	offer.ToUserID = targetID

	if targetID == fromUserID {
		s.declineToCaller(fromUserID, offer.CallID, nil)
		return
	}

	if !s.hub.IsUserOnline(targetID) {
		log.Printf("[call] offer to offline user %s from %s", targetID, fromUserID)
		s.declineToCaller(fromUserID, offer.CallID, nil)
		return
	}

	s.mu.Lock()
	if _, busy := s.userCalls[fromUserID]; busy {
		s.mu.Unlock()
		reason := declineReasonBusy
		s.declineToCaller(fromUserID, offer.CallID, &reason)
		return
	}
	if _, busy := s.userCalls[targetID]; busy {
		s.mu.Unlock()
		reason := declineReasonBusy
		s.declineToCaller(fromUserID, offer.CallID, &reason)
		return
	}

	call := &models.ActiveCall{
		ID:        offer.CallID,
		CallerID:  fromUserID,
		CalleeID:  targetID,
		Status:    models.CallStatusCalling,
		CreatedAt: time.Now().UTC(),
	}
	s.activeCalls[call.ID] = call
	s.userCalls[fromUserID] = call.ID
	s.userCalls[targetID] = call.ID

	// Ring timeout: süre dolunca arama otomatik decline edilir.
	callID := call.ID
	s.ringTimers[callID] = time.AfterFunc(s.ringTimeout, func() {
		s.ringTimeoutFired(callID)
	})
	s.mu.Unlock()

	// Geçmiş kaydı
	if err := s.callRepo.Create(context.Background(), &models.Call{
		ID:        call.ID,
		CallerID:  call.CallerID,
		CalleeID:  call.CalleeID,
		Status:    models.CallStatusCalling,
		StartedAt: call.CreatedAt,
	}); err != nil {
		log.Printf("[call] failed to persist call %s: %v", call.ID, err)
	}

	// Caller ismi ile dekore edilip callee'ye iletilir — callee arama
	// ekranında kim aradığını DB sorgusu yapmadan gösterir.
	if name := s.displayName(fromUserID); name != "" {
		offer.CallerName = &name
	}

	s.hub.BroadcastToChannel(ws.CallChannel(targetID), models.SignalCallOffer, offer)
	log.Printf("[call] offer relayed: call=%s caller=%s callee=%s", call.ID, fromUserID, targetID)
}

// handleAnswer, callee'nin kabul yanıtını işler.
// Sadece aramanın callee'si answer gönderebilir; arama "calling"
// durumunda olmalıdır.
func (s *callService) handleAnswer(fromUserID, targetID string, payload json.RawMessage) {
	var answer models.AnswerPayload
	if err := json.Unmarshal(payload, &answer); err != nil {
		log.Printf("[call] invalid answer payload from %s: %v", fromUserID, err)
		return
	}
	answer.FromUserID = fromUserID
	answer.ToUserID = targetID

	s.mu.Lock()
	call, ok := s.activeCalls[answer.CallID]
	if !ok || call.CalleeID != fromUserID || call.CallerID != targetID ||
		call.Status != models.CallStatusCalling {
		s.mu.Unlock()
		log.Printf("[call] stale or invalid answer from %s for call %s", fromUserID, answer.CallID)
		return
	}

	call.Status = models.CallStatusConnected
	s.stopRingTimerLocked(call.ID)
	s.mu.Unlock()

	if err := s.callRepo.MarkConnected(context.Background(), call.ID); err != nil {
		log.Printf("[call] failed to mark call %s connected: %v", call.ID, err)
	}

	s.hub.BroadcastToChannel(ws.CallChannel(targetID), models.SignalCallAnswer, answer)
	log.Printf("[call] answered: call=%s", call.ID)
}

// handleDecline, ret yanıtını işler.
//
// ID eşleşme koruması: payload'daki call_id aktif aramayla eşleşmiyorsa
// event yoksayılır — eski bir aramanın gecikmiş decline'ı yeni aramayı
// düşüremez.
func (s *callService) handleDecline(fromUserID, targetID string, payload json.RawMessage) {
	var decline models.DeclinePayload
	if err := json.Unmarshal(payload, &decline); err != nil {
		log.Printf("[call] invalid decline payload from %s: %v", fromUserID, err)
		return
	}
	decline.FromUserID = fromUserID

	s.mu.Lock()
	call, ok := s.activeCalls[decline.CallID]
	if !ok || (call.CallerID != fromUserID && call.CalleeID != fromUserID) {
		s.mu.Unlock()
		log.Printf("[call] stale decline from %s for call %s, ignoring", fromUserID, decline.CallID)
		return
	}
	s.cleanupCallLocked(call)
	s.mu.Unlock()

	if err := s.callRepo.MarkDeclined(context.Background(), call.ID, decline.Reason); err != nil {
		log.Printf("[call] failed to mark call %s declined: %v", call.ID, err)
	}

	s.hub.BroadcastToChannel(ws.CallChannel(targetID), models.SignalCallDeclined, decline)
	log.Printf("[call] declined: call=%s by=%s", call.ID, fromUserID)
}

// handleEnd, arama sonlandırmayı işler. İki taraf da sonlandırabilir;
// henüz "connected" olmamış bir aramayı caller'ın sonlandırması
// vazgeçme (cancel) anlamına gelir — kayıt yine "ended" yazılır.
func (s *callService) handleEnd(fromUserID, targetID string, payload json.RawMessage) {
	var end models.EndPayload
	if err := json.Unmarshal(payload, &end); err != nil {
		log.Printf("[call] invalid end payload from %s: %v", fromUserID, err)
		return
	}
	end.FromUserID = fromUserID

	s.mu.Lock()
	callID, ok := s.userCalls[fromUserID]
	if !ok {
		s.mu.Unlock()
		return
	}
	call := s.activeCalls[callID]
	s.cleanupCallLocked(call)
	s.mu.Unlock()

	end.CallID = call.ID
	if err := s.callRepo.MarkEnded(context.Background(), call.ID); err != nil {
		log.Printf("[call] failed to mark call %s ended: %v", call.ID, err)
	}

	s.hub.BroadcastToChannel(ws.CallChannel(targetID), models.SignalCallEnded, end)
	log.Printf("[call] ended: call=%s by=%s", call.ID, fromUserID)
}

// relayInCall, içerik taşımayan kontrol/ICE mesajlarını relay eder.
// Gönderen ile hedef aynı aramada değilse mesaj düşürülür — bir
// kullanıcı arama dışındaki birine kontrol mesajı gönderemez.
func (s *callService) relayInCall(fromUserID, targetID string, kind models.SignalKind, payload json.RawMessage) {
	s.mu.RLock()
	callID, ok := s.userCalls[fromUserID]
	var inSameCall bool
	if ok {
		if call, exists := s.activeCalls[callID]; exists {
			inSameCall = call.CallerID == targetID || call.CalleeID == targetID
		}
	}
	s.mu.RUnlock()

	if !inSameCall {
		log.Printf("[call] dropped %s from %s to %s (not in a shared call)", kind, fromUserID, targetID)
		return
	}

	// from_user_id alanı spoof edilemesin diye yeniden yazılır
	var base map[string]any
	if err := json.Unmarshal(payload, &base); err != nil {
		return
	}
	base["from_user_id"] = fromUserID

	s.hub.BroadcastToChannel(ws.CallChannel(targetID), kind, base)
}

// HandleDisconnect, kopan kullanıcının aktif aramasını sonlandırır.
func (s *callService) HandleDisconnect(userID string) {
	s.mu.Lock()
	callID, ok := s.userCalls[userID]
	if !ok {
		s.mu.Unlock()
		return
	}
	call := s.activeCalls[callID]
	s.cleanupCallLocked(call)
	s.mu.Unlock()

	peerID := call.CallerID
	if peerID == userID {
		peerID = call.CalleeID
	}

	if err := s.callRepo.MarkEnded(context.Background(), call.ID); err != nil {
		log.Printf("[call] failed to mark call %s ended: %v", call.ID, err)
	}

	s.hub.BroadcastToChannel(ws.CallChannel(peerID), models.SignalCallEnded, models.EndPayload{
		CallID:     call.ID,
		FromUserID: userID,
	})
	log.Printf("[call] ended due to disconnect: call=%s user=%s", call.ID, userID)
}

// GetUserCall, kullanıcının aktif aramasını döner.
func (s *callService) GetUserCall(userID string) (*models.ActiveCall, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	callID, ok := s.userCalls[userID]
	if !ok {
		return nil, fmt.Errorf("%w: no active call for user %s", pkg.ErrNotFound, userID)
	}
	call := *s.activeCalls[callID] // kopya döner — caller mutate edemez
	return &call, nil
}

// ListHistory, arama geçmişini döner.
func (s *callService) ListHistory(ctx context.Context, userID string, limit int) ([]models.Call, error) {
	return s.callRepo.ListByUser(ctx, userID, limit)
}

// OnlineUserIDs, hub'a bağlı kullanıcıları döner.
func (s *callService) OnlineUserIDs() []string {
	return s.hub.GetOnlineUserIDs()
}

// Shutdown, bekleyen tüm ring timer'larını durdurur.
func (s *callService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, timer := range s.ringTimers {
		timer.Stop()
		delete(s.ringTimers, id)
	}
}

// ─── Private Helpers ───

// ringTimeoutFired, ring süresi dolunca çağrılır. Arama hâlâ "calling"
// durumundaysa reason="timeout" ile iki tarafa da decline iletilir.
func (s *callService) ringTimeoutFired(callID string) {
	s.mu.Lock()
	call, ok := s.activeCalls[callID]
	if !ok || call.Status != models.CallStatusCalling {
		s.mu.Unlock()
		return
	}
	s.cleanupCallLocked(call)
	s.mu.Unlock()

	reason := declineReasonTimeout
	if err := s.callRepo.MarkDeclined(context.Background(), call.ID, &reason); err != nil {
		log.Printf("[call] failed to mark call %s timed out: %v", call.ID, err)
	}

	payload := models.DeclinePayload{
		CallID:     call.ID,
		FromUserID: call.CalleeID,
		Reason:     &reason,
	}
	// Caller çalmayı durdurur, callee gelen arama ekranını kapatır
	s.hub.BroadcastToChannel(ws.CallChannel(call.CallerID), models.SignalCallDeclined, payload)
	s.hub.BroadcastToChannel(ws.CallChannel(call.CalleeID), models.SignalCallDeclined, payload)
	log.Printf("[call] ring timeout: call=%s", call.ID)
}

// declineToCaller, hiç kurulamayan aramalar için caller'a decline gönderir.
func (s *callService) declineToCaller(callerID, callID string, reason *string) {
	s.hub.BroadcastToChannel(ws.CallChannel(callerID), models.SignalCallDeclined, models.DeclinePayload{
		CallID:     callID,
		FromUserID: callerID,
		Reason:     reason,
	})
}

// cleanupCallLocked, aramayı in-memory state'ten düşürür.
// s.mu yazma kilidi altında çağrılmalıdır.
func (s *callService) cleanupCallLocked(call *models.ActiveCall) {
	delete(s.activeCalls, call.ID)
	delete(s.userCalls, call.CallerID)
	delete(s.userCalls, call.CalleeID)
	s.stopRingTimerLocked(call.ID)
}

// stopRingTimerLocked, aramanın ring timer'ını durdurur.
func (s *callService) stopRingTimerLocked(callID string) {
	if timer, ok := s.ringTimers[callID]; ok {
		timer.Stop()
		delete(s.ringTimers, callID)
	}
}

// displayName, profil cache/DB'den kullanıcının görünen ismini çeker.
// Profil bulunamazsa boş string döner — dekorasyon opsiyoneldir.
func (s *callService) displayName(userID string) string {
	p, err := s.profiles.GetProfile(context.Background(), userID)
	if err != nil {
		return ""
	}
	return p.DisplayName()
}

// userIDFromChannel, "calls:<userID>" kanal adından userID'yi çıkarır.
func userIDFromChannel(channel string) string {
	rest, ok := strings.CutPrefix(channel, "calls:")
	if !ok {
		return ""
	}
	return rest
}
