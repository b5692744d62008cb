// Package repository — ProfileRepository interface.
package repository

import (
	"context"

	"github.com/akinalp/kolab/models"
)

// ProfileRepository, araştırmacı profilleri için interface.
type ProfileRepository interface {
	// Create, yeni (boş) bir profil oluşturur. Kayıt sırasında çağrılır —
	// profil ID'si user ID ile aynıdır.
	Create(ctx context.Context, profile *models.Profile) error

	// GetByID, ID ile profil döner. Bulunamazsa pkg.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.Profile, error)

	// Update, profili verilen alanlarla günceller (partial update).
	// req içindeki nil alanlar dokunulmadan bırakılır.
	Update(ctx context.Context, id string, req *models.UpdateProfileRequest) error

	// Search, keşif sayfası için profil araması yapar.
	// excludeID'li profil (kullanıcının kendisi) sonuçlara dahil edilmez.
	Search(ctx context.Context, params models.ProfileSearchParams, excludeID string) ([]models.Profile, error)

	// IncrementCollaborationCount, profilin işbirliği sayacını artırır.
	// Bir collaboration "collaborated" durumuna geçince çağrılır.
	IncrementCollaborationCount(ctx context.Context, id string) error
}
