package callsession

import (
	"encoding/json"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/akinalp/kolab/models"
)

// fakes_test.go — Engine testleri için donanımsız Capturer/Peer/Signaler
// implementasyonları.

// ─── Track / Stream ───

type fakeTrack struct {
	mu      sync.Mutex
	kind    webrtc.RTPCodecType
	closed  bool
	onEnded func(error)
}

func (t *fakeTrack) Kind() webrtc.RTPCodecType { return t.kind }

func (t *fakeTrack) OnEnded(fn func(error)) {
	t.mu.Lock()
	t.onEnded = fn
	t.mu.Unlock()
}

func (t *fakeTrack) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	return nil
}

func (t *fakeTrack) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// fireEnded, platformun "stop sharing" sinyalini taklit eder.
func (t *fakeTrack) fireEnded() {
	t.mu.Lock()
	fn := t.onEnded
	t.mu.Unlock()
	if fn != nil {
		fn(nil)
	}
}

type fakeStream struct {
	mu     sync.Mutex
	tracks []*fakeTrack
	closed bool
}

func newFakeStream(kinds ...webrtc.RTPCodecType) *fakeStream {
	s := &fakeStream{}
	for _, k := range kinds {
		s.tracks = append(s.tracks, &fakeTrack{kind: k})
	}
	return s
}

func (s *fakeStream) Tracks() []Track {
	out := make([]Track, 0, len(s.tracks))
	for _, t := range s.tracks {
		out = append(out, t)
	}
	return out
}

func (s *fakeStream) VideoTrack() Track { return s.trackOfKind(webrtc.RTPCodecTypeVideo) }
func (s *fakeStream) AudioTrack() Track { return s.trackOfKind(webrtc.RTPCodecTypeAudio) }

func (s *fakeStream) trackOfKind(kind webrtc.RTPCodecType) Track {
	for _, t := range s.tracks {
		if t.kind == kind {
			return t
		}
	}
	return nil
}

func (s *fakeStream) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	for _, t := range s.tracks {
		_ = t.Close()
	}
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// activeTrackCount, kapatılmamış track sayısını döner — kaynak bırakma
// invariant'ının kontrolü için.
func (s *fakeStream) activeTrackCount() int {
	n := 0
	for _, t := range s.tracks {
		if !t.isClosed() {
			n++
		}
	}
	return n
}

// ─── Capturer ───

type fakeCapturer struct {
	mu         sync.Mutex
	userErr    error
	displayErr error
	captured   []*fakeStream
	displays   []*fakeStream
}

func (c *fakeCapturer) CaptureUserMedia() (LocalStream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.userErr != nil {
		return nil, c.userErr
	}
	s := newFakeStream(webrtc.RTPCodecTypeAudio, webrtc.RTPCodecTypeVideo)
	c.captured = append(c.captured, s)
	return s, nil
}

func (c *fakeCapturer) CaptureDisplay() (LocalStream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.displayErr != nil {
		return nil, c.displayErr
	}
	s := newFakeStream(webrtc.RTPCodecTypeVideo)
	c.displays = append(c.displays, s)
	return s, nil
}

func (c *fakeCapturer) captureCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.captured)
}

// ─── Peer ───

type fakePeer struct {
	mu          sync.Mutex
	events      PeerEvents
	closeCount  int
	remoteSet   bool
	trackCount  int
	candidates  []json.RawMessage
	replaced    []Track
	audioToggle []bool
	videoToggle []bool
	sink        RemoteSampleSink

	remoteErr error
	offerErr  error
	answerErr error

	lost, received uint32
}

func (p *fakePeer) AddLocalTracks(stream LocalStream) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trackCount += len(stream.Tracks())
	return nil
}

func (p *fakePeer) CreateOffer() (models.SDP, error) {
	if p.offerErr != nil {
		return models.SDP{}, p.offerErr
	}
	return models.SDP{Type: "offer", SDP: "v=0 fake-offer"}, nil
}

func (p *fakePeer) CreateAnswer() (models.SDP, error) {
	if p.answerErr != nil {
		return models.SDP{}, p.answerErr
	}
	return models.SDP{Type: "answer", SDP: "v=0 fake-answer"}, nil
}

func (p *fakePeer) SetRemoteDescription(sdp models.SDP) error {
	if p.remoteErr != nil {
		return p.remoteErr
	}
	p.mu.Lock()
	p.remoteSet = true
	p.mu.Unlock()
	return nil
}

func (p *fakePeer) AddICECandidate(c json.RawMessage) error {
	p.mu.Lock()
	p.candidates = append(p.candidates, c)
	p.mu.Unlock()
	return nil
}

func (p *fakePeer) ReplaceOutgoingVideoTrack(t Track) error {
	p.mu.Lock()
	p.replaced = append(p.replaced, t)
	p.mu.Unlock()
	return nil
}

func (p *fakePeer) SetAudioEnabled(enabled bool) {
	p.mu.Lock()
	p.audioToggle = append(p.audioToggle, enabled)
	p.mu.Unlock()
}

func (p *fakePeer) SetVideoEnabled(enabled bool) {
	p.mu.Lock()
	p.videoToggle = append(p.videoToggle, enabled)
	p.mu.Unlock()
}

func (p *fakePeer) SetRemoteSink(sink RemoteSampleSink) {
	p.mu.Lock()
	p.sink = sink
	p.mu.Unlock()
}

func (p *fakePeer) InboundVideoStats() (uint32, uint32, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lost, p.received, p.lost+p.received > 0
}

func (p *fakePeer) Close() error {
	p.mu.Lock()
	p.closeCount++
	p.mu.Unlock()
	return nil
}

func (p *fakePeer) closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeCount > 0
}

func (p *fakePeer) lastReplaced() Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.replaced) == 0 {
		return nil
	}
	return p.replaced[len(p.replaced)-1]
}

// fakePeerFactory, üretilen peer'ları kaydeder — testler peer'ın hiç
// yaratılmadığını da doğrulayabilsin.
type fakePeerFactory struct {
	mu    sync.Mutex
	err   error
	peers []*fakePeer
	next  *fakePeer // nil değilse bir sonraki çağrıda bu döner
}

func (f *fakePeerFactory) factory() PeerFactory {
	return func(events PeerEvents) (Peer, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.err != nil {
			return nil, f.err
		}
		p := f.next
		if p == nil {
			p = &fakePeer{}
		}
		f.next = nil
		p.events = events
		f.peers = append(f.peers, p)
		return p, nil
	}
}

func (f *fakePeerFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.peers)
}

func (f *fakePeerFactory) last() *fakePeer {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.peers) == 0 {
		return nil
	}
	return f.peers[len(f.peers)-1]
}

// ─── Signaler ───

type sentSignal struct {
	Recipient string
	Kind      models.SignalKind
	Payload   any
}

type fakeSignaler struct {
	mu      sync.Mutex
	sendErr error
	sent    []sentSignal
	signals chan InboundSignal
}

func newFakeSignaler() *fakeSignaler {
	return &fakeSignaler{signals: make(chan InboundSignal, 16)}
}

func (s *fakeSignaler) SendTo(recipientID string, kind models.SignalKind, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, sentSignal{Recipient: recipientID, Kind: kind, Payload: payload})
	return nil
}

func (s *fakeSignaler) Signals() <-chan InboundSignal { return s.signals }

func (s *fakeSignaler) Close() error {
	close(s.signals)
	return nil
}

// deliver, sunucudan gelen bir relay mesajını taklit eder.
func (s *fakeSignaler) deliver(kind models.SignalKind, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	s.signals <- InboundSignal{Kind: kind, Payload: raw}
}

func (s *fakeSignaler) sentOfKind(kind models.SignalKind) []sentSignal {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []sentSignal
	for _, m := range s.sent {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

// ─── Event toplayıcı ───

type eventCollector struct {
	mu     sync.Mutex
	events []Event
}

func collectEvents(e *Engine) *eventCollector {
	c := &eventCollector{}
	go func() {
		for ev := range e.Events() {
			c.mu.Lock()
			c.events = append(c.events, ev)
			c.mu.Unlock()
		}
	}()
	return c
}

func (c *eventCollector) ofKind(kind EventKind) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Event
	for _, ev := range c.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}
