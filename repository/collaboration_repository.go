// Package repository — CollaborationRepository interface.
package repository

import (
	"context"

	"github.com/akinalp/kolab/models"
)

// CollaborationRepository, işbirliği kayıtları için interface.
//
// Çift başına tek satır vardır (requester_id, collaborator_id UNIQUE).
// Durum değişiklikleri Upsert ile aynı satırı günceller.
type CollaborationRepository interface {
	// Upsert, (requester, collaborator) çifti için kayıt oluşturur veya
	// mevcut kaydın durumunu günceller. Dönen Collaboration her zaman
	// güncel satırı yansıtır.
	Upsert(ctx context.Context, c *models.Collaboration) (*models.Collaboration, error)

	// GetByPair, requester → collaborator yönündeki kaydı döner.
	// Bulunamazsa pkg.ErrNotFound.
	GetByPair(ctx context.Context, requesterID, collaboratorID string) (*models.Collaboration, error)

	// ListByRequester, kullanıcının tüm kayıtlarını karşı tarafın
	// profiliyle birlikte döner. status boş değilse filtre uygulanır.
	ListByRequester(ctx context.Context, requesterID string, status models.CollaborationStatus) ([]models.CollaborationWithProfile, error)

	// Delete, requester → collaborator kaydını siler (bookmark kaldırma).
	Delete(ctx context.Context, requesterID, collaboratorID string) error
}
