package callsession

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/akinalp/kolab/models"
)

// State, arama durum makinesinin durumları.
//
// Terminal ended/declined ayrı durum değildir — temizlik sonrası Idle'a
// çökerler; sonuç host'a Event olarak bildirilir.
type State string

const (
	StateIdle      State = "idle"
	StateCalling   State = "calling"   // giden arama, cevap bekliyor
	StateRinging   State = "ringing"   // gelen arama, lokal kabul/ret bekliyor
	StateConnected State = "connected" // answer gönderildi/alındı (optimistic)
)

// Config, Engine davranış ayarları.
type Config struct {
	// SelfID: authenticate olmuş lokal kullanıcının ID'si.
	SelfID string

	// SelfName: chat mesajlarında sender etiketi.
	SelfName string

	// RingTimeout: cevaplanmayan aramanın lokal tarafta düşürülme süresi.
	// Sunucudaki timer'ın aynası — relay mesajı kaybolursa bile arama
	// süresiz çalar kalmaz.
	RingTimeout time.Duration

	// QualityInterval: gelen video istatistiklerinin örnekleme aralığı.
	QualityInterval time.Duration
}

// CallInfo, aktif aramanın kimliği.
type CallInfo struct {
	ID       string
	PeerID   string // karşı tarafın kullanıcı ID'si
	Outbound bool
}

// IncomingCall, Ringing durumundaki gelen arama kaydı.
// Medya henüz edinilmemiştir — kullanıcı reddedebilir.
type IncomingCall struct {
	CallID     string
	CallerID   string
	CallerName string
	Offer      models.SDP
}

// EventKind, Engine'in host'a (konsol UI) bildirdiği olay türleri.
type EventKind string

const (
	EventIncomingCall     EventKind = "incoming-call"
	EventConnected        EventKind = "connected"
	EventEnded            EventKind = "ended"
	EventDeclined         EventKind = "declined"
	EventConnectionStatus EventKind = "connection-status"
	EventHandRaise        EventKind = "hand-raise"
	EventChat             EventKind = "chat"
	EventQuality          EventKind = "quality"
	EventError            EventKind = "error"
)

// Event, Engine'den host'a akan tek bir bildirim.
type Event struct {
	Kind     EventKind
	CallID   string
	PeerID   string
	PeerName string
	Reason   string
	Sender   string
	Message  string
	IsRaised bool
	Status   ConnectionStatus
	Quality  Quality
	Err      error
}

// ─── İç event modeli ───
//
// Her UI aksiyonu ve her gelen relay mesajı tek bir iç event'e dönüşür
// ve tek mutex'in koruduğu apply() reducer'ından geçer. Dağınık mutable
// flag yok: durum yazarı yalnızca reducer'dır.

type eventKind int

const (
	evStartCall eventKind = iota
	evAnswerCall
	evDeclineCall
	evEndCall
	evOfferReceived
	evAnswerReceived
	evCandidateReceived
	evDeclinedReceived
	evEndedReceived
	evHandRaiseReceived
	evChatReceived
	evLocalCandidate
	evConnState
	evRingTimeout
	evScreenEnded
	evRelayLost
)

type event struct {
	kind      eventKind
	calleeID  string
	payload   json.RawMessage
	candidate json.RawMessage
	status    ConnectionStatus
	callID    string
}

// Engine, arama durum makinesinin tek yazarıdır.
//
// Lokal stream + peer bağlantısı çifti tek bir mutex ile korunur:
// relay callback'leri, peer callback'leri ve UI aksiyonları keyfi
// zamanlarda iç içe gelebilir ve hepsi aynı idempotent temizlikte
// birleşmek zorundadır (lokal endCall ile remote call-ended yarışı dahil).
type Engine struct {
	cfg      Config
	sig      Signaler
	capturer Capturer
	newPeer  PeerFactory

	mu         sync.Mutex
	state      State
	call       *CallInfo
	incoming   *IncomingCall
	peer       Peer
	local      LocalStream
	screen     LocalStream
	connStatus ConnectionStatus
	ringTimer  *time.Timer
	sampler    *qualitySampler
	recorder   *Recorder
	duration   *durationTimer

	muted         bool
	videoDisabled bool
	screenSharing bool
	handRaised    bool

	internal chan event
	events   chan Event
	done     chan struct{}
	closeOne sync.Once
}

// NewEngine, Engine'i kurar ve dispatch goroutine'ini başlatır.
func NewEngine(cfg Config, sig Signaler, capturer Capturer, newPeer PeerFactory) *Engine {
	e := &Engine{
		cfg:      cfg,
		sig:      sig,
		capturer: capturer,
		newPeer:  newPeer,
		state:    StateIdle,
		duration: newDurationTimer(),
		internal: make(chan event, 64),
		events:   make(chan Event, 32),
		done:     make(chan struct{}),
	}
	go e.dispatchLoop()
	return e
}

// Events, host'a akan bildirim kanalını döner.
func (e *Engine) Events() <-chan Event { return e.events }

// Close, aktif aramayı sonlandırır ve dispatch'i durdurur.
func (e *Engine) Close() {
	_ = e.End()
	e.closeOne.Do(func() { close(e.done) })
}

// ─── Public yaşam döngüsü aksiyonları ───

// StartCall, calleeID'ye giden bir arama başlatır.
// Medya edinilir, peer kurulur, offer karşı tarafın kanalına gönderilir.
func (e *Engine) StartCall(calleeID string) error {
	return e.apply(event{kind: evStartCall, calleeID: calleeID})
}

// Answer, Ringing durumundaki gelen aramayı kabul eder.
func (e *Engine) Answer() error {
	return e.apply(event{kind: evAnswerCall})
}

// Decline, gelen aramayı reddeder. Medya hiç edinilmemişti.
func (e *Engine) Decline() error {
	return e.apply(event{kind: evDeclineCall})
}

// End, aktif aramayı sonlandırır. Aktif arama yoksa sessiz no-op —
// null referans üzerinden çökme olmaz.
func (e *Engine) End() error {
	return e.apply(event{kind: evEndCall})
}

// State, mevcut durumu döner.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// ConnectionState, transport'un kabalaştırılmış durumunu döner.
func (e *Engine) ConnectionState() ConnectionStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connStatus
}

// ActiveCall, aktif aramanın kopyasını döner; yoksa nil.
func (e *Engine) ActiveCall() *CallInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.call == nil {
		return nil
	}
	c := *e.call
	return &c
}

// Incoming, Ringing durumundaki gelen aramanın kopyasını döner; yoksa nil.
func (e *Engine) Incoming() *IncomingCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.incoming == nil {
		return nil
	}
	ic := *e.incoming
	return &ic
}

// ─── Dispatch ───

// dispatchLoop, relay mesajlarını ve peer callback'lerini tek tek
// reducer'a besler. Peer callback'leri internal kanal üzerinden gelir —
// pion goroutine'i reducer mutex'inde bloklanmaz ve kaynak başına
// sıralama korunur.
func (e *Engine) dispatchLoop() {
	signals := e.sig.Signals()
	for {
		select {
		case <-e.done:
			return
		case ev := <-e.internal:
			_ = e.apply(ev)
		case sig, ok := <-signals:
			if !ok {
				signals = nil
				_ = e.apply(event{kind: evRelayLost})
				continue
			}
			e.routeSignal(sig)
		}
	}
}

func (e *Engine) routeSignal(sig InboundSignal) {
	var kind eventKind
	switch sig.Kind {
	case models.SignalCallOffer:
		kind = evOfferReceived
	case models.SignalCallAnswer:
		kind = evAnswerReceived
	case models.SignalICECandidate:
		kind = evCandidateReceived
	case models.SignalCallDeclined:
		kind = evDeclinedReceived
	case models.SignalCallEnded:
		kind = evEndedReceived
	case models.SignalHandRaise:
		kind = evHandRaiseReceived
	case models.SignalCallChat:
		kind = evChatReceived
	default:
		return
	}
	_ = e.apply(event{kind: kind, payload: sig.Payload})
}

func (e *Engine) enqueue(ev event) {
	select {
	case e.internal <- ev:
	case <-e.done:
	}
}

// ─── Reducer ───

// apply, durum makinesinin tek giriş noktasıdır.
func (e *Engine) apply(ev event) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch ev.kind {
	case evStartCall:
		return e.startCallLocked(ev.calleeID)
	case evAnswerCall:
		return e.answerLocked()
	case evDeclineCall:
		return e.declineLocked()
	case evEndCall:
		return e.endLocked()
	case evOfferReceived:
		e.offerReceivedLocked(ev.payload)
	case evAnswerReceived:
		e.answerReceivedLocked(ev.payload)
	case evCandidateReceived:
		e.candidateReceivedLocked(ev.payload)
	case evDeclinedReceived:
		e.declinedReceivedLocked(ev.payload)
	case evEndedReceived:
		e.endedReceivedLocked(ev.payload)
	case evHandRaiseReceived:
		e.relayNotifyLocked(EventHandRaise, ev.payload)
	case evChatReceived:
		e.relayNotifyLocked(EventChat, ev.payload)
	case evLocalCandidate:
		e.localCandidateLocked(ev.candidate)
	case evConnState:
		e.connStateLocked(ev.status)
	case evRingTimeout:
		e.ringTimeoutLocked(ev.callID)
	case evScreenEnded:
		e.restoreCameraLocked()
	case evRelayLost:
		e.relayLostLocked()
	}
	return nil
}

// startCallLocked: Idle → Calling.
func (e *Engine) startCallLocked(calleeID string) error {
	if e.state != StateIdle {
		return ErrCallInProgress
	}

	// Kaynaklar talep üzerine edinilir: medya açılamazsa peer hiç
	// kurulmaz ve durum Idle'da kalır.
	stream, err := e.capturer.CaptureUserMedia()
	if err != nil {
		return err
	}

	peer, err := e.newPeer(e.peerEvents())
	if err != nil {
		stream.Close()
		return err
	}

	if err := peer.AddLocalTracks(stream); err != nil {
		_ = peer.Close()
		stream.Close()
		return err
	}

	offer, err := peer.CreateOffer()
	if err != nil {
		_ = peer.Close()
		stream.Close()
		return err
	}

	callID := uuid.NewString()
	err = e.sig.SendTo(calleeID, models.SignalCallOffer, models.OfferPayload{
		CallID:     callID,
		Offer:      offer,
		FromUserID: e.cfg.SelfID,
		ToUserID:   calleeID,
	})
	if err != nil {
		_ = peer.Close()
		stream.Close()
		return err
	}

	e.state = StateCalling
	e.call = &CallInfo{ID: callID, PeerID: calleeID, Outbound: true}
	e.peer = peer
	e.local = stream
	e.startRingTimerLocked(callID)
	log.Printf("[engine] calling %s (call=%s)", calleeID, callID)
	return nil
}

// offerReceivedLocked: Idle → Ringing. Medya edinilmez — kullanıcı
// reddedebilir; kamera/mikrofon kabulden sonra açılır.
func (e *Engine) offerReceivedLocked(payload json.RawMessage) {
	var p models.OfferPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		log.Printf("[engine] malformed offer payload: %v", err)
		return
	}

	// Başka alıcıya adreslenmiş offer yok sayılır — kanal adı
	// çakışmalarına karşı koruma.
	if p.ToUserID != e.cfg.SelfID {
		log.Printf("[engine] offer addressed to %s, not us — ignoring", p.ToUserID)
		return
	}

	if e.state != StateIdle {
		log.Printf("[engine] offer received while %s — ignoring (call=%s)", e.state, p.CallID)
		return
	}

	name := ""
	if p.CallerName != nil {
		name = *p.CallerName
	}

	e.state = StateRinging
	e.incoming = &IncomingCall{
		CallID:     p.CallID,
		CallerID:   p.FromUserID,
		CallerName: name,
		Offer:      p.Offer,
	}
	e.startRingTimerLocked(p.CallID)
	e.emit(Event{Kind: EventIncomingCall, CallID: p.CallID, PeerID: p.FromUserID, PeerName: name})
	log.Printf("[engine] incoming call from %s (call=%s)", p.FromUserID, p.CallID)
}

// answerLocked: Ringing → Connected (optimistic).
//
// Başarısızlıkta Ringing durumu MUTLAKA temizlenir — bayat bir gelen
// arama kaydı bırakılmaz.
func (e *Engine) answerLocked() error {
	if e.state != StateRinging || e.incoming == nil {
		return ErrNoIncomingCall
	}
	inc := e.incoming

	stream, err := e.capturer.CaptureUserMedia()
	if err != nil {
		e.clearIncomingLocked()
		return err
	}

	peer, err := e.newPeer(e.peerEvents())
	if err != nil {
		stream.Close()
		e.clearIncomingLocked()
		return err
	}

	fail := func(err error) error {
		_ = peer.Close()
		stream.Close()
		e.clearIncomingLocked()
		return err
	}

	if err := peer.AddLocalTracks(stream); err != nil {
		return fail(err)
	}
	if err := peer.SetRemoteDescription(inc.Offer); err != nil {
		return fail(err)
	}
	answer, err := peer.CreateAnswer()
	if err != nil {
		return fail(err)
	}
	err = e.sig.SendTo(inc.CallerID, models.SignalCallAnswer, models.AnswerPayload{
		CallID:     inc.CallID,
		Answer:     answer,
		FromUserID: e.cfg.SelfID,
		ToUserID:   inc.CallerID,
	})
	if err != nil {
		return fail(err)
	}

	e.stopRingTimerLocked()
	e.call = &CallInfo{ID: inc.CallID, PeerID: inc.CallerID}
	e.incoming = nil
	e.peer = peer
	e.local = stream
	e.markConnectedLocked()
	log.Printf("[engine] answered call %s from %s", inc.CallID, inc.CallerID)
	return nil
}

// declineLocked: Ringing → Idle.
func (e *Engine) declineLocked() error {
	if e.state != StateRinging || e.incoming == nil {
		return ErrNoIncomingCall
	}
	inc := e.incoming

	if err := e.sig.SendTo(inc.CallerID, models.SignalCallDeclined, models.DeclinePayload{
		CallID:     inc.CallID,
		FromUserID: e.cfg.SelfID,
	}); err != nil {
		log.Printf("[engine] decline send failed: %v", err)
	}
	e.clearIncomingLocked()
	log.Printf("[engine] declined call %s", inc.CallID)
	return nil
}

// endLocked: aktif aramayı sonlandırır, yoksa sessiz no-op.
// Lokal end ile remote call-ended aynı idempotent temizliğe iner.
func (e *Engine) endLocked() error {
	if e.state == StateRinging {
		return e.declineLocked()
	}
	if e.call == nil {
		return nil
	}

	call := e.call
	if err := e.sig.SendTo(call.PeerID, models.SignalCallEnded, models.EndPayload{
		CallID:     call.ID,
		FromUserID: e.cfg.SelfID,
	}); err != nil {
		log.Printf("[engine] end send failed: %v", err)
	}
	e.cleanupLocked()
	e.emit(Event{Kind: EventEnded, CallID: call.ID, PeerID: call.PeerID})
	log.Printf("[engine] ended call %s", call.ID)
	return nil
}

// answerReceivedLocked: Calling → Connected (optimistic, arayan taraf).
func (e *Engine) answerReceivedLocked(payload json.RawMessage) {
	if e.state != StateCalling || e.call == nil {
		return
	}
	var p models.AnswerPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		log.Printf("[engine] malformed answer payload: %v", err)
		return
	}
	if p.CallID != e.call.ID {
		log.Printf("[engine] answer for stale call %s — ignoring", p.CallID)
		return
	}

	if err := e.peer.SetRemoteDescription(p.Answer); err != nil {
		log.Printf("[engine] remote answer rejected: %v", err)
		call := e.call
		e.cleanupLocked()
		e.emit(Event{Kind: EventError, CallID: call.ID, Err: fmt.Errorf("%w: %v", ErrNegotiationFailed, err)})
		return
	}

	e.stopRingTimerLocked()
	e.markConnectedLocked()
	log.Printf("[engine] call %s answered by %s", e.call.ID, e.call.PeerID)
}

func (e *Engine) candidateReceivedLocked(payload json.RawMessage) {
	if e.peer == nil {
		return
	}
	var p models.CandidatePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return
	}
	if err := e.peer.AddICECandidate(p.Candidate); err != nil {
		log.Printf("[engine] candidate rejected: %v", err)
	}
}

// declinedReceivedLocked: sadece id eşleşen aramayı düşürür — bayat
// oturumlardan gelen cross-talk'a karşı koruma.
func (e *Engine) declinedReceivedLocked(payload json.RawMessage) {
	var p models.DeclinePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return
	}
	reason := ""
	if p.Reason != nil {
		reason = *p.Reason
	}

	switch {
	case e.state == StateCalling && e.call != nil && p.CallID == e.call.ID:
		call := e.call
		e.cleanupLocked()
		e.emit(Event{Kind: EventDeclined, CallID: call.ID, PeerID: call.PeerID, Reason: reason})
		log.Printf("[engine] call %s declined (reason=%q)", call.ID, reason)
	case e.state == StateRinging && e.incoming != nil && p.CallID == e.incoming.CallID:
		// Sunucu ring timeout'u her iki tarafa da declined yollar.
		inc := e.incoming
		e.clearIncomingLocked()
		e.emit(Event{Kind: EventDeclined, CallID: inc.CallID, PeerID: inc.CallerID, Reason: reason})
	default:
		log.Printf("[engine] stale decline for call %s — ignoring", p.CallID)
	}
}

func (e *Engine) endedReceivedLocked(payload json.RawMessage) {
	var p models.EndPayload
	_ = json.Unmarshal(payload, &p)

	if e.call != nil && (p.CallID == "" || p.CallID == e.call.ID) {
		call := e.call
		e.cleanupLocked()
		e.emit(Event{Kind: EventEnded, CallID: call.ID, PeerID: call.PeerID, Reason: "remote"})
		log.Printf("[engine] call %s ended by remote", call.ID)
		return
	}
	if e.incoming != nil && (p.CallID == "" || p.CallID == e.incoming.CallID) {
		// Arayan çalma sırasında vazgeçti.
		inc := e.incoming
		e.clearIncomingLocked()
		e.emit(Event{Kind: EventEnded, CallID: inc.CallID, PeerID: inc.CallerID, Reason: "cancelled"})
	}
}

func (e *Engine) relayNotifyLocked(kind EventKind, payload json.RawMessage) {
	if e.call == nil {
		return
	}
	switch kind {
	case EventHandRaise:
		var p models.HandRaisePayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return
		}
		e.emit(Event{Kind: EventHandRaise, CallID: e.call.ID, PeerID: p.FromUserID, IsRaised: p.IsRaised})
	case EventChat:
		var p models.ChatPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return
		}
		e.emit(Event{Kind: EventChat, CallID: e.call.ID, PeerID: p.FromUserID, Sender: p.Sender, Message: p.Message})
	}
}

func (e *Engine) localCandidateLocked(candidate json.RawMessage) {
	if e.call == nil {
		return
	}
	err := e.sig.SendTo(e.call.PeerID, models.SignalICECandidate, models.CandidatePayload{
		CallID:     e.call.ID,
		Candidate:  candidate,
		FromUserID: e.cfg.SelfID,
	})
	if err != nil {
		log.Printf("[engine] candidate send failed: %v", err)
	}
}

// connStateLocked: transport durumu ConnectionStatus sinyalini sürer.
// disconnected/failed otomatik endCall tetikler.
func (e *Engine) connStateLocked(status ConnectionStatus) {
	if e.call == nil {
		return
	}
	e.connStatus = status
	e.emit(Event{Kind: EventConnectionStatus, CallID: e.call.ID, Status: status})

	if status == ConnDisconnected {
		call := e.call
		if err := e.sig.SendTo(call.PeerID, models.SignalCallEnded, models.EndPayload{
			CallID:     call.ID,
			FromUserID: e.cfg.SelfID,
		}); err != nil {
			log.Printf("[engine] end send after transport failure: %v", err)
		}
		e.cleanupLocked()
		e.emit(Event{Kind: EventError, CallID: call.ID, Err: ErrTransportFailed})
		e.emit(Event{Kind: EventEnded, CallID: call.ID, PeerID: call.PeerID, Reason: "transport"})
		log.Printf("[engine] call %s ended — transport failed", call.ID)
	}
}

func (e *Engine) ringTimeoutLocked(callID string) {
	switch {
	case e.state == StateCalling && e.call != nil && e.call.ID == callID:
		call := e.call
		e.cleanupLocked()
		e.emit(Event{Kind: EventDeclined, CallID: call.ID, PeerID: call.PeerID, Reason: "timeout"})
		log.Printf("[engine] call %s rang out", call.ID)
	case e.state == StateRinging && e.incoming != nil && e.incoming.CallID == callID:
		inc := e.incoming
		e.clearIncomingLocked()
		e.emit(Event{Kind: EventDeclined, CallID: inc.CallID, PeerID: inc.CallerID, Reason: "timeout"})
	}
}

func (e *Engine) relayLostLocked() {
	if e.call == nil && e.incoming == nil {
		return
	}
	log.Printf("[engine] relay connection lost — tearing down")
	var callID string
	if e.call != nil {
		callID = e.call.ID
	} else {
		callID = e.incoming.CallID
	}
	e.cleanupLocked()
	e.emit(Event{Kind: EventError, CallID: callID, Err: ErrRelayUnavailable})
	e.emit(Event{Kind: EventEnded, CallID: callID, Reason: "relay-lost"})
}

// ─── Ortak yardımcılar ───

// peerEvents, peer callback'lerini internal event kanalına köprüler.
// Pion goroutine'leri reducer mutex'ini doğrudan almaz.
func (e *Engine) peerEvents() PeerEvents {
	return PeerEvents{
		OnLocalCandidate: func(c json.RawMessage) {
			e.enqueue(event{kind: evLocalCandidate, candidate: c})
		},
		OnConnectionState: func(s ConnectionStatus) {
			e.enqueue(event{kind: evConnState, status: s})
		},
	}
}

// markConnectedLocked, optimistic Connected geçişini yapar: durum hemen
// Connected olur, transport onayı ConnectionStatus üzerinden ayrıca gelir.
// Kaynak bırakma ASLA bu optimistic bayrağa bağlanmaz — yalnızca explicit
// end/decline ve transport failure temizlik tetikler.
func (e *Engine) markConnectedLocked() {
	e.state = StateConnected
	e.connStatus = ConnConnecting
	e.duration.Start()

	e.sampler = newQualitySampler(e.peer, e.cfg.QualityInterval, func(q Quality) {
		e.mu.Lock()
		var callID string
		if e.call != nil {
			callID = e.call.ID
		}
		e.mu.Unlock()
		e.emit(Event{Kind: EventQuality, CallID: callID, Quality: q})
	})
	e.sampler.Start()

	e.emit(Event{Kind: EventConnected, CallID: e.call.ID, PeerID: e.call.PeerID})
}

func (e *Engine) startRingTimerLocked(callID string) {
	if e.cfg.RingTimeout <= 0 {
		return
	}
	e.ringTimer = time.AfterFunc(e.cfg.RingTimeout, func() {
		e.enqueue(event{kind: evRingTimeout, callID: callID})
	})
}

func (e *Engine) stopRingTimerLocked() {
	if e.ringTimer != nil {
		e.ringTimer.Stop()
		e.ringTimer = nil
	}
}

// clearIncomingLocked, Ringing durumunu temizler. Medya hiç edinilmediği
// için bırakılacak kaynak yoktur.
func (e *Engine) clearIncomingLocked() {
	e.stopRingTimerLocked()
	e.incoming = nil
	e.state = StateIdle
}

// cleanupLocked, tüm oturum kaynaklarını bırakır ve Idle'a döner.
// Idempotent — her alan nil-korumalıdır; lokal end, remote ended,
// transport failure ve relay kaybı aynı yoldan geçer.
func (e *Engine) cleanupLocked() {
	e.stopRingTimerLocked()

	if e.sampler != nil {
		e.sampler.Stop()
		e.sampler = nil
	}
	if e.recorder != nil {
		if e.peer != nil {
			e.peer.SetRemoteSink(nil)
		}
		_ = e.recorder.Stop()
		e.recorder = nil
	}
	if e.screen != nil {
		e.screen.Close()
		e.screen = nil
	}
	if e.local != nil {
		e.local.Close()
		e.local = nil
	}
	if e.peer != nil {
		_ = e.peer.Close()
		e.peer = nil
	}

	e.duration.Reset()
	e.call = nil
	e.incoming = nil
	e.muted = false
	e.videoDisabled = false
	e.screenSharing = false
	e.handRaised = false
	e.connStatus = ConnNone
	e.state = StateIdle
}

// emit, event'i host kanalına iter; host okumuyorsa düşürür.
func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		log.Printf("[engine] event buffer full, dropping %s", ev.Kind)
	}
}
