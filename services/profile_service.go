// Package services — ProfileService.
//
// Araştırmacı profilleri: görüntüleme, güncelleme ve keşif araması.
package services

import (
	"context"
	"fmt"

	"github.com/akinalp/kolab/models"
	"github.com/akinalp/kolab/pkg"
	"github.com/akinalp/kolab/pkg/cache"
	"github.com/akinalp/kolab/repository"
)

// ProfileService interface'i — dışarıya açık API.
type ProfileService interface {
	// GetProfile, bir profili döner.
	GetProfile(ctx context.Context, id string) (*models.Profile, error)

	// UpdateProfile, kullanıcının kendi profilini günceller.
	UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.Profile, error)

	// Search, keşif sayfası için profil araması yapar.
	// Arayan kullanıcının kendi profili sonuçlara girmez.
	Search(ctx context.Context, userID string, params models.ProfileSearchParams) ([]models.Profile, error)
}

type profileService struct {
	profileRepo repository.ProfileRepository

	// profileCache: signaling broadcast'lerinin profil dekorasyonu bu
	// cache'ten beslenir — her arama event'inde DB'ye gitmemek için.
	// CallService ile paylaşılır.
	profileCache *cache.TTLCache[string, models.Profile]
}

// NewProfileService, constructor.
func NewProfileService(
	profileRepo repository.ProfileRepository,
	profileCache *cache.TTLCache[string, models.Profile],
) ProfileService {
	return &profileService{
		profileRepo:  profileRepo,
		profileCache: profileCache,
	}
}

func (s *profileService) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	if cached, ok := s.profileCache.Get(id); ok {
		return &cached, nil
	}

	p, err := s.profileRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.profileCache.Set(id, *p)
	return p, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	if err := s.profileRepo.Update(ctx, userID, req); err != nil {
		return nil, err
	}

	// Stale veri dönmemesi için cache entry'si düşürülür
	s.profileCache.Delete(userID)

	return s.profileRepo.GetByID(ctx, userID)
}

func (s *profileService) Search(ctx context.Context, userID string, params models.ProfileSearchParams) ([]models.Profile, error) {
	if params.Sort == "" {
		params.Sort = models.ProfileSortRelevant
	}
	if !params.Sort.Valid() {
		return nil, fmt.Errorf("%w: invalid sort: %s", pkg.ErrBadRequest, params.Sort)
	}

	return s.profileRepo.Search(ctx, params, userID)
}
