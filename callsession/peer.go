package callsession

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/pion/rtcp"
	"github.com/pion/rtp/codecs"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media/samplebuilder"

	"github.com/akinalp/kolab/models"
)

// ConnectionStatus, peer bağlantısının kabalaştırılmış durum sinyalidir.
// Boş string = aktif arama yok.
type ConnectionStatus string

const (
	ConnNone         ConnectionStatus = ""
	ConnConnecting   ConnectionStatus = "connecting"
	ConnConnected    ConnectionStatus = "connected"
	ConnDisconnected ConnectionStatus = "disconnected"
)

// RemoteSampleSink, karşı taraftan gelen decode edilmemiş medya
// sample'larını tüketir. Recorder bu interface'i implement eder;
// sink nil'ken sample'lar düşürülür.
type RemoteSampleSink interface {
	WriteVideoSample(tsMs int64, keyframe bool, data []byte)
	WriteAudioSample(tsMs int64, data []byte)
}

// PeerEvents, Peer'ın Engine'e geri bildirdiği callback'ler.
// Callback'ler peer'ın kendi goroutine'lerinden çağrılır — Engine
// bunları reducer'ına event olarak besler.
type PeerEvents struct {
	// OnLocalCandidate: lokal ICE candidate üretildi, relay ile
	// karşı tarafa gönderilmeli. Candidate JSON-encoded ICECandidateInit'tir.
	OnLocalCandidate func(candidate json.RawMessage)

	// OnConnectionState: transport durumu değişti.
	OnConnectionState func(status ConnectionStatus)
}

// PeerFactory, bir oturum için yeni Peer üretir. Engine'e inject edilir —
// testler sahte peer üreten bir factory geçer.
type PeerFactory func(events PeerEvents) (Peer, error)

// Peer, tek bir peer bağlantısının ve negotiate edilmiş track kümesinin
// sahibidir. Bir oturum tam olarak bir karşı taraf destekler.
type Peer interface {
	// AddLocalTracks, lokal yakalamanın tüm track'lerini bağlantıya ekler.
	// Offer/answer üretiminden ÖNCE çağrılmalıdır.
	AddLocalTracks(stream LocalStream) error

	CreateOffer() (models.SDP, error)
	CreateAnswer() (models.SDP, error)
	SetRemoteDescription(sdp models.SDP) error

	// AddICECandidate, gelen candidate'i uygular. Remote description
	// henüz set edilmemişse candidate sınırlı bir kuyruğa alınır ve
	// description geldiğinde sırayla flush edilir.
	AddICECandidate(candidate json.RawMessage) error

	// ReplaceOutgoingVideoTrack, giden video sender'ının track'ini
	// renegotiation olmadan değiştirir (ekran paylaşımı). Video sender
	// yoksa loglanır ve sessizce geçilir, ölümcül değildir.
	ReplaceOutgoingVideoTrack(t Track) error

	// SetAudioEnabled / SetVideoEnabled: giden track'i durdurmadan
	// gönderimi keser/açar (mute ve video toggle). Yakalama açık kalır —
	// tekrar açmada cihaz edinme gecikmesi olmaz.
	SetAudioEnabled(enabled bool)
	SetVideoEnabled(enabled bool)

	// SetRemoteSink, gelen medya sample'larının tüketicisini atar.
	// nil geçmek kaydı durdurur.
	SetRemoteSink(sink RemoteSampleSink)

	// InboundVideoStats, gelen video için kayıp/alınan paket sayaçlarını
	// döner. İstatistik henüz yoksa ok=false.
	InboundVideoStats() (lost, received uint32, ok bool)

	// Close, bağlantıyı bırakır. Idempotent — kapalıyken tekrar
	// çağrılması güvenlidir.
	Close() error
}

// maxPendingCandidates: remote description beklerken kuyruklanan
// candidate sayısı sınırı. Normal bir handshake'te birkaç candidate
// birikir; sınır taşarsa en eskisi düşürülür.
const maxPendingCandidates = 32

// candidateQueue, remote description set edilmeden gelen ICE
// candidate'lerin sınırlı FIFO kuyruğudur. Relay offer-önce-candidate
// sıralaması garanti etmez; kuyruk geliş sırasını korur.
type candidateQueue struct {
	items []json.RawMessage
}

func (q *candidateQueue) Push(c json.RawMessage) {
	if len(q.items) >= maxPendingCandidates {
		q.items = q.items[1:]
	}
	q.items = append(q.items, c)
}

// Drain, kuyruğu boşaltır ve elemanları geliş sırasıyla döner.
func (q *candidateQueue) Drain() []json.RawMessage {
	items := q.items
	q.items = nil
	return items
}

func (q *candidateQueue) Len() int { return len(q.items) }

// pliInterval: karşı taraftan keyframe istemek için PLI gönderim aralığı.
const pliInterval = 3 * time.Second

// newPionPeerFactory, paylaşılan webrtc.API üzerinden pionPeer üreten
// factory döner. API, mediadevices codec selector ile kurulmuş olmalı.
func newPionPeerFactory(api *webrtc.API, stunURLs []string) PeerFactory {
	return func(events PeerEvents) (Peer, error) {
		pc, err := api.NewPeerConnection(webrtc.Configuration{
			ICEServers: []webrtc.ICEServer{{URLs: stunURLs}},
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNegotiationFailed, err)
		}

		p := &pionPeer{pc: pc, events: events}

		pc.OnICECandidate(func(c *webrtc.ICECandidate) {
			if c == nil || events.OnLocalCandidate == nil {
				return
			}
			raw, err := json.Marshal(c.ToJSON())
			if err != nil {
				return
			}
			events.OnLocalCandidate(raw)
		})

		pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
			if events.OnConnectionState == nil {
				return
			}
			switch state {
			case webrtc.PeerConnectionStateConnecting:
				events.OnConnectionState(ConnConnecting)
			case webrtc.PeerConnectionStateConnected:
				events.OnConnectionState(ConnConnected)
			case webrtc.PeerConnectionStateDisconnected, webrtc.PeerConnectionStateFailed:
				events.OnConnectionState(ConnDisconnected)
			}
		})

		pc.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
			go p.readRemoteTrack(track)
		})

		return p, nil
	}
}

// pionPeer, Peer'ın pion/webrtc/v4 implementasyonu.
type pionPeer struct {
	pc     *webrtc.PeerConnection
	events PeerEvents

	mu          sync.Mutex
	closed      bool
	remoteSet   bool
	pending     candidateQueue
	audioSender *webrtc.RTPSender
	videoSender *webrtc.RTPSender
	audioTrack  webrtc.TrackLocal // ReplaceTrack(nil) sonrası geri koymak için
	videoTrack  webrtc.TrackLocal

	sinkMu sync.RWMutex
	sink   RemoteSampleSink
}

func (p *pionPeer) AddLocalTracks(stream LocalStream) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, t := range stream.Tracks() {
		local, ok := t.(webrtc.TrackLocal)
		if !ok {
			return fmt.Errorf("track %v is not a webrtc.TrackLocal", t.Kind())
		}
		sender, err := p.pc.AddTrack(local)
		if err != nil {
			return fmt.Errorf("%w: add track: %v", ErrNegotiationFailed, err)
		}
		switch t.Kind() {
		case webrtc.RTPCodecTypeAudio:
			p.audioSender, p.audioTrack = sender, local
		case webrtc.RTPCodecTypeVideo:
			p.videoSender, p.videoTrack = sender, local
		}
	}
	return nil
}

func (p *pionPeer) CreateOffer() (models.SDP, error) {
	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return models.SDP{}, fmt.Errorf("%w: create offer: %v", ErrNegotiationFailed, err)
	}
	if err := p.pc.SetLocalDescription(offer); err != nil {
		return models.SDP{}, fmt.Errorf("%w: set local description: %v", ErrNegotiationFailed, err)
	}
	return models.SDP{Type: offer.Type.String(), SDP: offer.SDP}, nil
}

func (p *pionPeer) CreateAnswer() (models.SDP, error) {
	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return models.SDP{}, fmt.Errorf("%w: create answer: %v", ErrNegotiationFailed, err)
	}
	if err := p.pc.SetLocalDescription(answer); err != nil {
		return models.SDP{}, fmt.Errorf("%w: set local description: %v", ErrNegotiationFailed, err)
	}
	return models.SDP{Type: answer.Type.String(), SDP: answer.SDP}, nil
}

func (p *pionPeer) SetRemoteDescription(sdp models.SDP) error {
	desc := webrtc.SessionDescription{
		Type: webrtc.NewSDPType(sdp.Type),
		SDP:  sdp.SDP,
	}
	if err := p.pc.SetRemoteDescription(desc); err != nil {
		return fmt.Errorf("%w: set remote description: %v", ErrNegotiationFailed, err)
	}

	// Description geldi — bekleyen candidate'ler geliş sırasıyla uygulanır.
	p.mu.Lock()
	p.remoteSet = true
	pending := p.pending.Drain()
	p.mu.Unlock()

	for _, raw := range pending {
		if err := p.applyCandidate(raw); err != nil {
			log.Printf("[peer] queued candidate failed: %v", err)
		}
	}
	return nil
}

func (p *pionPeer) AddICECandidate(candidate json.RawMessage) error {
	p.mu.Lock()
	if !p.remoteSet {
		// Erken gelen candidate'ler description set edilene kadar kuyruklanır.
		p.pending.Push(candidate)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	return p.applyCandidate(candidate)
}

func (p *pionPeer) applyCandidate(raw json.RawMessage) error {
	var init webrtc.ICECandidateInit
	if err := json.Unmarshal(raw, &init); err != nil {
		return fmt.Errorf("invalid candidate payload: %w", err)
	}
	return p.pc.AddICECandidate(init)
}

func (p *pionPeer) ReplaceOutgoingVideoTrack(t Track) error {
	p.mu.Lock()
	sender := p.videoSender
	p.mu.Unlock()

	if sender == nil {
		log.Printf("[peer] no video sender yet — replace skipped")
		return nil
	}

	local, ok := t.(webrtc.TrackLocal)
	if !ok {
		return fmt.Errorf("track is not a webrtc.TrackLocal")
	}
	if err := sender.ReplaceTrack(local); err != nil {
		return fmt.Errorf("replace video track: %w", err)
	}

	p.mu.Lock()
	p.videoTrack = local
	p.mu.Unlock()
	return nil
}

func (p *pionPeer) SetAudioEnabled(enabled bool) {
	p.mu.Lock()
	sender, track := p.audioSender, p.audioTrack
	p.mu.Unlock()
	setSenderEnabled(sender, track, enabled, "audio")
}

func (p *pionPeer) SetVideoEnabled(enabled bool) {
	p.mu.Lock()
	sender, track := p.videoSender, p.videoTrack
	p.mu.Unlock()
	setSenderEnabled(sender, track, enabled, "video")
}

// setSenderEnabled, track'i kapatmadan RTP gönderimini keser/açar.
// ReplaceTrack(nil) sender'ı boşa alır; yakalama devam eder.
func setSenderEnabled(sender *webrtc.RTPSender, track webrtc.TrackLocal, enabled bool, kind string) {
	if sender == nil {
		return
	}
	var err error
	if enabled {
		err = sender.ReplaceTrack(track)
	} else {
		err = sender.ReplaceTrack(nil)
	}
	if err != nil {
		log.Printf("[peer] toggle %s enabled=%v failed: %v", kind, enabled, err)
	}
}

func (p *pionPeer) SetRemoteSink(sink RemoteSampleSink) {
	p.sinkMu.Lock()
	p.sink = sink
	p.sinkMu.Unlock()
}

func (p *pionPeer) InboundVideoStats() (uint32, uint32, bool) {
	report := p.pc.GetStats()
	for _, s := range report {
		stat, ok := s.(webrtc.InboundRTPStreamStats)
		if !ok || stat.Kind != "video" {
			continue
		}
		lost := stat.PacketsLost
		if lost < 0 {
			lost = 0
		}
		return uint32(lost), stat.PacketsReceived, true
	}
	return 0, 0, false
}

func (p *pionPeer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()
	return p.pc.Close()
}

// readRemoteTrack, karşıdan gelen bir RTP track'ini okur, samplebuilder
// ile frame'lere birleştirir ve aktif sink'e yazar. Video track'leri için
// periyodik PLI gönderilir — kayıt başladığında decoder temiz bir
// keyframe'den başlayabilsin.
func (p *pionPeer) readRemoteTrack(track *webrtc.TrackRemote) {
	isVideo := track.Kind() == webrtc.RTPCodecTypeVideo

	var builder *samplebuilder.SampleBuilder
	var clockRate int64
	if isVideo {
		builder = samplebuilder.New(64, &codecs.VP8Packet{}, track.Codec().ClockRate)
		clockRate = int64(track.Codec().ClockRate)

		go func() {
			ticker := time.NewTicker(pliInterval)
			defer ticker.Stop()
			for range ticker.C {
				p.mu.Lock()
				closed := p.closed
				p.mu.Unlock()
				if closed {
					return
				}
				_ = p.pc.WriteRTCP([]rtcp.Packet{
					&rtcp.PictureLossIndication{MediaSSRC: uint32(track.SSRC())},
				})
			}
		}()
	} else {
		builder = samplebuilder.New(32, &codecs.OpusPacket{}, track.Codec().ClockRate)
		clockRate = int64(track.Codec().ClockRate)
	}

	for {
		pkt, _, err := track.ReadRTP()
		if err != nil {
			if err != io.EOF {
				log.Printf("[peer] remote %s track read ended: %v", track.Kind(), err)
			}
			return
		}
		builder.Push(pkt)

		for sample := builder.Pop(); sample != nil; sample = builder.Pop() {
			p.sinkMu.RLock()
			sink := p.sink
			p.sinkMu.RUnlock()
			if sink == nil {
				continue
			}
			tsMs := int64(sample.PacketTimestamp) * 1000 / clockRate
			if isVideo {
				sink.WriteVideoSample(tsMs, vp8Keyframe(sample.Data), sample.Data)
			} else {
				sink.WriteAudioSample(tsMs, sample.Data)
			}
		}
	}
}
