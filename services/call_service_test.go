package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/kolab/models"
	"github.com/akinalp/kolab/pkg"
	"github.com/akinalp/kolab/ws"
)

// ─── Fakes ───

type hubBroadcast struct {
	Channel string
	Event   models.SignalKind
	Payload any
}

type fakeHub struct {
	mu         sync.Mutex
	online     map[string]bool
	broadcasts []hubBroadcast
}

func newFakeHub(onlineUsers ...string) *fakeHub {
	h := &fakeHub{online: make(map[string]bool)}
	for _, u := range onlineUsers {
		h.online[u] = true
	}
	return h
}

func (h *fakeHub) BroadcastToChannel(channel string, event models.SignalKind, payload any) {
	h.mu.Lock()
	h.broadcasts = append(h.broadcasts, hubBroadcast{Channel: channel, Event: event, Payload: payload})
	h.mu.Unlock()
}

func (h *fakeHub) IsUserOnline(userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.online[userID]
}

func (h *fakeHub) GetOnlineUserIDs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]string, 0, len(h.online))
	for id := range h.online {
		ids = append(ids, id)
	}
	return ids
}

func (h *fakeHub) toChannel(channel string) []hubBroadcast {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []hubBroadcast
	for _, b := range h.broadcasts {
		if b.Channel == channel {
			out = append(out, b)
		}
	}
	return out
}

type fakeCallRepo struct {
	mu    sync.Mutex
	calls map[string]*models.Call
}

func newFakeCallRepo() *fakeCallRepo {
	return &fakeCallRepo{calls: make(map[string]*models.Call)}
}

func (r *fakeCallRepo) Create(_ context.Context, call *models.Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *call
	r.calls[call.ID] = &c
	return nil
}

func (r *fakeCallRepo) MarkConnected(_ context.Context, id string) error {
	return r.setStatus(id, models.CallStatusConnected, nil)
}

func (r *fakeCallRepo) MarkDeclined(_ context.Context, id string, reason *string) error {
	return r.setStatus(id, models.CallStatusDeclined, reason)
}

func (r *fakeCallRepo) MarkEnded(_ context.Context, id string) error {
	return r.setStatus(id, models.CallStatusEnded, nil)
}

func (r *fakeCallRepo) setStatus(id string, status models.CallStatus, reason *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.calls[id]; ok {
		c.Status = status
		if reason != nil {
			c.Reason = reason
		}
	}
	return nil
}

func (r *fakeCallRepo) ListByUser(_ context.Context, userID string, _ int) ([]models.Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Call
	for _, c := range r.calls {
		if c.CallerID == userID || c.CalleeID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCallRepo) get(id string) *models.Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.calls[id]; ok {
		cp := *c
		return &cp
	}
	return nil
}

type fakeProfiles struct {
	names map[string]string
}

func (p *fakeProfiles) GetProfile(_ context.Context, id string) (*models.Profile, error) {
	name, ok := p.names[id]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	return &models.Profile{ID: id, Username: &name}, nil
}

// ─── Test kurulumu ───

const (
	callerID = "user-caller"
	calleeID = "user-callee"
	thirdID  = "user-third"
)

type callFixture struct {
	svc  CallService
	hub  *fakeHub
	repo *fakeCallRepo
}

func newCallFixture(t *testing.T, ringTimeout time.Duration) *callFixture {
	t.Helper()
	hub := newFakeHub(callerID, calleeID, thirdID)
	repo := newFakeCallRepo()
	profiles := &fakeProfiles{names: map[string]string{callerID: "ayse", calleeID: "mehmet"}}

	svc := NewCallService(hub, repo, profiles, ringTimeout)
	t.Cleanup(svc.Shutdown)
	return &callFixture{svc: svc, hub: hub, repo: repo}
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

// startCall, caller'dan callee'ye bir offer geçirir ve callID'yi döner.
func (f *callFixture) startCall(t *testing.T) string {
	t.Helper()
	f.svc.HandleSignal(callerID, ws.CallChannel(calleeID), models.SignalCallOffer, mustJSON(t, models.OfferPayload{
		CallID: "call-1",
		Offer:  models.SDP{Type: "offer", SDP: "v=0"},
	}))
	call, err := f.svc.GetUserCall(callerID)
	require.NoError(t, err)
	return call.ID
}

// ─── Offer ───

func TestOfferRelayedWithCallerName(t *testing.T) {
	f := newCallFixture(t, time.Minute)
	callID := f.startCall(t)

	relayed := f.hub.toChannel(ws.CallChannel(calleeID))
	require.Len(t, relayed, 1)
	assert.Equal(t, models.SignalCallOffer, relayed[0].Event)

	offer := relayed[0].Payload.(models.OfferPayload)
	assert.Equal(t, callID, offer.CallID)
	assert.Equal(t, callerID, offer.FromUserID)
	assert.Equal(t, calleeID, offer.ToUserID)
	require.NotNil(t, offer.CallerName)
	assert.Equal(t, "ayse", *offer.CallerName)

	// İki taraf da aramada görünür, geçmiş kaydı "calling" ile açılır.
	for _, u := range []string{callerID, calleeID} {
		call, err := f.svc.GetUserCall(u)
		require.NoError(t, err)
		assert.Equal(t, models.CallStatusCalling, call.Status)
	}
	require.NotNil(t, f.repo.get(callID))
	assert.Equal(t, models.CallStatusCalling, f.repo.get(callID).Status)
}

func TestOfferToOfflineUserDeclined(t *testing.T) {
	f := newCallFixture(t, time.Minute)

	f.svc.HandleSignal(callerID, ws.CallChannel("user-offline"), models.SignalCallOffer, mustJSON(t, models.OfferPayload{
		CallID: "call-1",
		Offer:  models.SDP{Type: "offer"},
	}))

	declines := f.hub.toChannel(ws.CallChannel(callerID))
	require.Len(t, declines, 1)
	assert.Equal(t, models.SignalCallDeclined, declines[0].Event)

	_, err := f.svc.GetUserCall(callerID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestOfferToSelfDeclined(t *testing.T) {
	f := newCallFixture(t, time.Minute)

	f.svc.HandleSignal(callerID, ws.CallChannel(callerID), models.SignalCallOffer, mustJSON(t, models.OfferPayload{
		CallID: "call-1",
	}))

	declines := f.hub.toChannel(ws.CallChannel(callerID))
	require.Len(t, declines, 1)
	assert.Equal(t, models.SignalCallDeclined, declines[0].Event)
}

func TestOfferToBusyUserDeclinedWithReason(t *testing.T) {
	f := newCallFixture(t, time.Minute)
	f.startCall(t)

	// Üçüncü kişi meşgul callee'yi arar.
	f.svc.HandleSignal(thirdID, ws.CallChannel(calleeID), models.SignalCallOffer, mustJSON(t, models.OfferPayload{
		CallID: "call-2",
	}))

	declines := f.hub.toChannel(ws.CallChannel(thirdID))
	require.Len(t, declines, 1)
	payload := declines[0].Payload.(models.DeclinePayload)
	require.NotNil(t, payload.Reason)
	assert.Equal(t, "busy", *payload.Reason)

	// Mevcut arama etkilenmez.
	call, err := f.svc.GetUserCall(calleeID)
	require.NoError(t, err)
	assert.Equal(t, "call-1", call.ID)
}

// ─── Answer ───

func TestAnswerConnectsCall(t *testing.T) {
	f := newCallFixture(t, time.Minute)
	callID := f.startCall(t)

	f.svc.HandleSignal(calleeID, ws.CallChannel(callerID), models.SignalCallAnswer, mustJSON(t, models.AnswerPayload{
		CallID: callID,
		Answer: models.SDP{Type: "answer", SDP: "v=0"},
	}))

	relayed := f.hub.toChannel(ws.CallChannel(callerID))
	require.Len(t, relayed, 1)
	assert.Equal(t, models.SignalCallAnswer, relayed[0].Event)
	answer := relayed[0].Payload.(models.AnswerPayload)
	assert.Equal(t, calleeID, answer.FromUserID)

	call, err := f.svc.GetUserCall(callerID)
	require.NoError(t, err)
	assert.Equal(t, models.CallStatusConnected, call.Status)
	assert.Equal(t, models.CallStatusConnected, f.repo.get(callID).Status)
}

func TestAnswerFromNonCalleeIgnored(t *testing.T) {
	f := newCallFixture(t, time.Minute)
	callID := f.startCall(t)

	// Sadece aramanın callee'si answer gönderebilir.
	f.svc.HandleSignal(thirdID, ws.CallChannel(callerID), models.SignalCallAnswer, mustJSON(t, models.AnswerPayload{
		CallID: callID,
	}))

	assert.Empty(t, f.hub.toChannel(ws.CallChannel(callerID)))
	call, err := f.svc.GetUserCall(callerID)
	require.NoError(t, err)
	assert.Equal(t, models.CallStatusCalling, call.Status)
}

// ─── Decline / End ───

func TestDeclineWithStaleIDIgnored(t *testing.T) {
	f := newCallFixture(t, time.Minute)
	f.startCall(t)

	// Eski bir aramanın gecikmiş decline'ı yeni aramayı düşüremez.
	f.svc.HandleSignal(calleeID, ws.CallChannel(callerID), models.SignalCallDeclined, mustJSON(t, models.DeclinePayload{
		CallID: "call-stale",
	}))

	assert.Empty(t, f.hub.toChannel(ws.CallChannel(callerID)))
	_, err := f.svc.GetUserCall(callerID)
	assert.NoError(t, err)
}

func TestDeclineTearsDownCall(t *testing.T) {
	f := newCallFixture(t, time.Minute)
	callID := f.startCall(t)

	f.svc.HandleSignal(calleeID, ws.CallChannel(callerID), models.SignalCallDeclined, mustJSON(t, models.DeclinePayload{
		CallID: callID,
	}))

	relayed := f.hub.toChannel(ws.CallChannel(callerID))
	require.Len(t, relayed, 1)
	assert.Equal(t, models.SignalCallDeclined, relayed[0].Event)

	_, err := f.svc.GetUserCall(callerID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	_, err = f.svc.GetUserCall(calleeID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	assert.Equal(t, models.CallStatusDeclined, f.repo.get(callID).Status)
}

func TestEndTearsDownCall(t *testing.T) {
	f := newCallFixture(t, time.Minute)
	callID := f.startCall(t)

	f.svc.HandleSignal(callerID, ws.CallChannel(calleeID), models.SignalCallEnded, mustJSON(t, models.EndPayload{
		CallID: callID,
	}))

	relayed := f.hub.toChannel(ws.CallChannel(calleeID))
	require.Len(t, relayed, 2) // offer + ended
	assert.Equal(t, models.SignalCallEnded, relayed[1].Event)

	_, err := f.svc.GetUserCall(callerID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	assert.Equal(t, models.CallStatusEnded, f.repo.get(callID).Status)
}

func TestEndWithoutCallIgnored(t *testing.T) {
	f := newCallFixture(t, time.Minute)

	f.svc.HandleSignal(callerID, ws.CallChannel(calleeID), models.SignalCallEnded, mustJSON(t, models.EndPayload{}))
	assert.Empty(t, f.hub.toChannel(ws.CallChannel(calleeID)))
}

// ─── In-call relay ───

func TestCandidateRelayedBetweenCallParties(t *testing.T) {
	f := newCallFixture(t, time.Minute)
	f.startCall(t)

	f.svc.HandleSignal(callerID, ws.CallChannel(calleeID), models.SignalICECandidate, mustJSON(t, map[string]any{
		"call_id":      "call-1",
		"candidate":    map[string]any{"candidate": "candidate:1"},
		"from_user_id": "spoofed",
	}))

	relayed := f.hub.toChannel(ws.CallChannel(calleeID))
	require.Len(t, relayed, 2) // offer + candidate
	assert.Equal(t, models.SignalICECandidate, relayed[1].Event)

	// from_user_id bağlantı kimliğiyle yeniden yazılır.
	payload := relayed[1].Payload.(map[string]any)
	assert.Equal(t, callerID, payload["from_user_id"])
}

func TestRelayDroppedOutsideSharedCall(t *testing.T) {
	f := newCallFixture(t, time.Minute)
	f.startCall(t)

	// Arama dışındaki kullanıcı taraflara kontrol mesajı gönderemez.
	f.svc.HandleSignal(thirdID, ws.CallChannel(calleeID), models.SignalCallChat, mustJSON(t, map[string]any{
		"message": "spam",
	}))
	// Aramadaki kullanıcı arama dışındakine gönderemez.
	f.svc.HandleSignal(callerID, ws.CallChannel(thirdID), models.SignalHandRaise, mustJSON(t, map[string]any{
		"is_raised": true,
	}))

	assert.Len(t, f.hub.toChannel(ws.CallChannel(calleeID)), 1) // sadece offer
	assert.Empty(t, f.hub.toChannel(ws.CallChannel(thirdID)))
}

// ─── Ring timeout / disconnect ───

func TestRingTimeoutDeclinesBothSides(t *testing.T) {
	f := newCallFixture(t, 30*time.Millisecond)
	callID := f.startCall(t)

	require.Eventually(t, func() bool {
		_, err := f.svc.GetUserCall(callerID)
		return err != nil
	}, time.Second, 5*time.Millisecond)

	for _, u := range []string{callerID, calleeID} {
		msgs := f.hub.toChannel(ws.CallChannel(u))
		last := msgs[len(msgs)-1]
		require.Equal(t, models.SignalCallDeclined, last.Event, "user %s", u)
		payload := last.Payload.(models.DeclinePayload)
		require.NotNil(t, payload.Reason)
		assert.Equal(t, "timeout", *payload.Reason)
	}

	rec := f.repo.get(callID)
	assert.Equal(t, models.CallStatusDeclined, rec.Status)
	require.NotNil(t, rec.Reason)
	assert.Equal(t, "timeout", *rec.Reason)
}

func TestAnswerStopsRingTimeout(t *testing.T) {
	f := newCallFixture(t, 30*time.Millisecond)
	callID := f.startCall(t)

	f.svc.HandleSignal(calleeID, ws.CallChannel(callerID), models.SignalCallAnswer, mustJSON(t, models.AnswerPayload{
		CallID: callID,
	}))

	time.Sleep(80 * time.Millisecond)
	call, err := f.svc.GetUserCall(callerID)
	require.NoError(t, err)
	assert.Equal(t, models.CallStatusConnected, call.Status)
}

func TestDisconnectEndsActiveCall(t *testing.T) {
	f := newCallFixture(t, time.Minute)
	callID := f.startCall(t)

	f.svc.HandleDisconnect(calleeID)

	// Karşı tarafa call-ended bildirilir, arama düşer.
	msgs := f.hub.toChannel(ws.CallChannel(callerID))
	require.NotEmpty(t, msgs)
	last := msgs[len(msgs)-1]
	assert.Equal(t, models.SignalCallEnded, last.Event)
	payload := last.Payload.(models.EndPayload)
	assert.Equal(t, callID, payload.CallID)
	assert.Equal(t, calleeID, payload.FromUserID)

	_, err := f.svc.GetUserCall(callerID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	assert.Equal(t, models.CallStatusEnded, f.repo.get(callID).Status)
}

func TestDisconnectWithoutCallIgnored(t *testing.T) {
	f := newCallFixture(t, time.Minute)
	f.svc.HandleDisconnect(thirdID)
	assert.Empty(t, f.hub.toChannel(ws.CallChannel(callerID)))
}

func TestOnlineUserIDsReflectsHub(t *testing.T) {
	f := newCallFixture(t, time.Minute)
	assert.ElementsMatch(t, []string{callerID, calleeID, thirdID}, f.svc.OnlineUserIDs())
}
