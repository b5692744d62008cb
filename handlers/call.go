// Package handlers — CallHandler: arama durumu ve geçmişi endpoint'leri.
//
// Signaling'in kendisi WebSocket üzerinden akar (ws paketi) — buradaki
// endpoint'ler yalnızca sorgulama içindir.
//
// Route'lar (hepsi auth gerektirir):
//
//	GET /api/calls/active   → Active
//	GET /api/calls/history  → History (?limit=50)
//	GET /api/calls/online   → Online (bağlı kullanıcı ID'leri)
//	GET /api/calls/config   → Config (ICE sunucu listesi)
package handlers

import (
	"net/http"
	"strconv"

	"github.com/akinalp/kolab/models"
	"github.com/akinalp/kolab/pkg"
	"github.com/akinalp/kolab/services"
)

// CallHandler, arama endpoint'lerini yöneten struct.
type CallHandler struct {
	callService services.CallService
	stunURLs    []string
}

// NewCallHandler, constructor.
func NewCallHandler(callService services.CallService, stunURLs []string) *CallHandler {
	return &CallHandler{
		callService: callService,
		stunURLs:    stunURLs,
	}
}

// Active godoc
// GET /api/calls/active
// Kullanıcının devam eden aramasını döner; yoksa 404.
// Frontend sayfa yenilendiğinde arama ekranını geri kurmak için kullanır.
func (h *CallHandler) Active(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	call, err := h.callService.GetUserCall(user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, call)
}

// History godoc
// GET /api/calls/history?limit=50
func (h *CallHandler) History(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	calls, err := h.callService.ListHistory(r.Context(), user.ID, limit)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, calls)
}

// Online godoc
// GET /api/calls/online
// WS bağlantısı açık olan kullanıcı ID'lerini döner. Kullanıcı listesinde
// "ara" butonunun aktifliği bu listeye göre çizilir.
func (h *CallHandler) Online(w http.ResponseWriter, r *http.Request) {
	ids := h.callService.OnlineUserIDs()
	if ids == nil {
		ids = []string{}
	}
	pkg.JSON(w, http.StatusOK, map[string]any{"user_ids": ids})
}

// Config godoc
// GET /api/calls/config
// Client'ın RTCPeerConnection kurarken kullanacağı ICE sunucu listesi.
// Sunucu tarafında tutulur — STUN listesi değişince client güncellenmez.
func (h *CallHandler) Config(w http.ResponseWriter, r *http.Request) {
	pkg.JSON(w, http.StatusOK, map[string]any{
		"ice_servers": h.stunURLs,
	})
}
