// Package services — CollaborationService.
//
// İşbirliği kayıtları requester → collaborator yönündedir; çift
// başına tek satır tutulur ve durum değişiklikleri aynı satırı
// günceller (upsert). Aynı duruma tekrar geçmek hata değildir —
// işlem idempotent'tir.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/akinalp/kolab/models"
	"github.com/akinalp/kolab/pkg"
	"github.com/akinalp/kolab/repository"
)

// CollaborationService interface'i — dışarıya açık API.
type CollaborationService interface {
	// SetStatus, çift için işbirliği durumunu atar (upsert).
	SetStatus(ctx context.Context, requesterID string, req *models.SetCollaborationStatusRequest) (*models.Collaboration, error)

	// List, kullanıcının kayıtlarını karşı taraf profilleriyle döner.
	// status boş string ise tüm kayıtlar döner.
	List(ctx context.Context, requesterID string, status models.CollaborationStatus) ([]models.CollaborationWithProfile, error)

	// Remove, kaydı siler (bookmark kaldırma).
	Remove(ctx context.Context, requesterID, collaboratorID string) error
}

type collaborationService struct {
	collabRepo  repository.CollaborationRepository
	profileRepo repository.ProfileRepository
	userRepo    repository.UserRepository
}

// NewCollaborationService, constructor.
func NewCollaborationService(
	collabRepo repository.CollaborationRepository,
	profileRepo repository.ProfileRepository,
	userRepo repository.UserRepository,
) CollaborationService {
	return &collaborationService{
		collabRepo:  collabRepo,
		profileRepo: profileRepo,
		userRepo:    userRepo,
	}
}

// SetStatus, (requester, collaborator) çifti için durum atar.
//
// Kurallar:
// - Kendi kendine işbirliği kaydı açılamaz.
// - Hedef kullanıcı var olmalı.
// - "collaborated" durumuna İLK geçişte her iki tarafın
//   collaboration_count'u artırılır. Aynı duruma tekrar geçiş
//   sayacı tekrar artırmaz.
func (s *collaborationService) SetStatus(ctx context.Context, requesterID string, req *models.SetCollaborationStatusRequest) (*models.Collaboration, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	if req.CollaboratorID == requesterID {
		return nil, fmt.Errorf("%w: cannot collaborate with yourself", pkg.ErrBadRequest)
	}

	if _, err := s.userRepo.GetByID(ctx, req.CollaboratorID); err != nil {
		return nil, err // ErrNotFound
	}

	// "collaborated"a ilk geçiş mi? Upsert öncesi mevcut duruma bakılır.
	firstCollaboration := false
	if req.Status == models.CollaborationStatusCollaborated {
		existing, err := s.collabRepo.GetByPair(ctx, requesterID, req.CollaboratorID)
		switch {
		case errors.Is(err, pkg.ErrNotFound):
			firstCollaboration = true
		case err != nil:
			return nil, err
		default:
			firstCollaboration = existing.Status != models.CollaborationStatusCollaborated
		}
	}

	now := time.Now().UTC()
	collab, err := s.collabRepo.Upsert(ctx, &models.Collaboration{
		ID:             uuid.NewString(),
		RequesterID:    requesterID,
		CollaboratorID: req.CollaboratorID,
		Status:         req.Status,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return nil, err
	}

	if firstCollaboration {
		if err := s.profileRepo.IncrementCollaborationCount(ctx, requesterID); err != nil {
			return nil, err
		}
		if err := s.profileRepo.IncrementCollaborationCount(ctx, req.CollaboratorID); err != nil {
			return nil, err
		}
	}

	return collab, nil
}

func (s *collaborationService) List(ctx context.Context, requesterID string, status models.CollaborationStatus) ([]models.CollaborationWithProfile, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: invalid status: %s", pkg.ErrBadRequest, status)
	}
	return s.collabRepo.ListByRequester(ctx, requesterID, status)
}

func (s *collaborationService) Remove(ctx context.Context, requesterID, collaboratorID string) error {
	if collaboratorID == "" {
		return fmt.Errorf("%w: collaborator_id is required", pkg.ErrBadRequest)
	}
	return s.collabRepo.Delete(ctx, requesterID, collaboratorID)
}
