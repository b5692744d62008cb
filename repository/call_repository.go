// Package repository — CallRepository interface.
package repository

import (
	"context"

	"github.com/akinalp/kolab/models"
)

// CallRepository, arama geçmişi kayıtları için interface.
// Aktif arama durumu in-memory tutulur (CallService) — burası sadece
// kalıcı geçmiş içindir.
type CallRepository interface {
	// Create, "calling" durumunda yeni bir arama kaydı oluşturur.
	Create(ctx context.Context, call *models.Call) error

	// MarkConnected, aramayı "connected" durumuna geçirir ve
	// connected_at'i damgalar.
	MarkConnected(ctx context.Context, id string) error

	// MarkDeclined, aramayı "declined" durumuna geçirir.
	// reason nil olabilir; "timeout" ring timeout'tan geldiğini belirtir.
	MarkDeclined(ctx context.Context, id string, reason *string) error

	// MarkEnded, aramayı "ended" durumuna geçirir ve ended_at'i damgalar.
	MarkEnded(ctx context.Context, id string) error

	// ListByUser, kullanıcının (caller veya callee olarak) arama
	// geçmişini yeniden eskiye sıralı döner.
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Call, error)
}
