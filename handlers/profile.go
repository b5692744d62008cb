// Package handlers — ProfileHandler: profil ve keşif endpoint'leri.
//
// Route'lar (hepsi auth gerektirir):
//
//	GET   /api/profiles/search  → Search
//	GET   /api/profiles/{id}    → Get
//	PATCH /api/profiles/me      → UpdateMe
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/akinalp/kolab/models"
	"github.com/akinalp/kolab/pkg"
	"github.com/akinalp/kolab/services"
)

// ProfileHandler, profil endpoint'lerini yöneten struct.
type ProfileHandler struct {
	profileService services.ProfileService
}

// NewProfileHandler, constructor.
func NewProfileHandler(profileService services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// Search godoc
// GET /api/profiles/search?q=...&sort=rating&institution=...&country=...&limit=50&offset=0
// Keşif sayfası araması. Kullanıcının kendi profili sonuçlara girmez.
func (h *ProfileHandler) Search(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	q := r.URL.Query()
	params := models.ProfileSearchParams{
		Query:       q.Get("q"),
		Sort:        models.ProfileSort(q.Get("sort")),
		Institution: q.Get("institution"),
		Country:     q.Get("country"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			params.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			params.Offset = n
		}
	}

	profiles, err := h.profileService.Search(r.Context(), user.ID, params)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, profiles)
}

// Get godoc
// GET /api/profiles/{id}
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "profile id required")
		return
	}

	profile, err := h.profileService.GetProfile(r.Context(), id)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, profile)
}

// UpdateMe godoc
// PATCH /api/profiles/me
// Body: UpdateProfileRequest — nil alanlar değişmez (partial update).
func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := h.profileService.UpdateProfile(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, profile)
}
