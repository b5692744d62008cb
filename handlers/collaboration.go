// Package handlers — CollaborationHandler: işbirliği endpoint'leri.
//
// Route'lar (hepsi auth gerektirir):
//
//	GET    /api/collaborations              → List (?status=saved)
//	PUT    /api/collaborations              → SetStatus (upsert)
//	DELETE /api/collaborations/{userId}     → Remove
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/akinalp/kolab/models"
	"github.com/akinalp/kolab/pkg"
	"github.com/akinalp/kolab/services"
)

// CollaborationHandler, işbirliği endpoint'lerini yöneten struct.
type CollaborationHandler struct {
	collabService services.CollaborationService
}

// NewCollaborationHandler, constructor.
func NewCollaborationHandler(collabService services.CollaborationService) *CollaborationHandler {
	return &CollaborationHandler{collabService: collabService}
}

// List godoc
// GET /api/collaborations?status=saved
// Kullanıcının kayıtlarını karşı taraf profilleriyle döner.
func (h *CollaborationHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	status := models.CollaborationStatus(r.URL.Query().Get("status"))

	items, err := h.collabService.List(r.Context(), user.ID, status)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, items)
}

// SetStatus godoc
// PUT /api/collaborations
// Body: { "collaborator_id": "...", "status": "saved" }
// Çift için kayıt oluşturur veya durumu günceller — idempotent.
func (h *CollaborationHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.SetCollaborationStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	collab, err := h.collabService.SetStatus(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, collab)
}

// Remove godoc
// DELETE /api/collaborations/{userId}
func (h *CollaborationHandler) Remove(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	collaboratorID := r.PathValue("userId")

	if err := h.collabService.Remove(r.Context(), user.ID, collaboratorID); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "removed"})
}
