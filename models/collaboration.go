// Package models — Collaboration domain modeli.
//
// İşbirliği kaydı requester → collaborator yönündedir ve çift başına
// tek satırdır (UNIQUE constraint). Durum değişiklikleri aynı satırı
// günceller (upsert):
// - "saved": Kullanıcı profili kaydetti (bookmark)
// - "contacted": İletişime geçildi (arama yapıldı vb.)
// - "collaborated": Aktif işbirliği kuruldu
// - "declined": İşbirliği reddedildi
package models

import (
	"fmt"
	"time"
)

// CollaborationStatus, işbirliği durumunu temsil eden typed constant.
type CollaborationStatus string

const (
	CollaborationStatusSaved        CollaborationStatus = "saved"
	CollaborationStatusContacted    CollaborationStatus = "contacted"
	CollaborationStatusCollaborated CollaborationStatus = "collaborated"
	CollaborationStatusDeclined     CollaborationStatus = "declined"
)

// Valid, durumun bilinen bir değer olup olmadığını döner.
func (s CollaborationStatus) Valid() bool {
	switch s {
	case CollaborationStatusSaved, CollaborationStatusContacted,
		CollaborationStatusCollaborated, CollaborationStatusDeclined:
		return true
	}
	return false
}

// Collaboration, bir işbirliği kaydını temsil eder.
type Collaboration struct {
	ID             string              `json:"id"`
	RequesterID    string              `json:"requester_id"`
	CollaboratorID string              `json:"collaborator_id"`
	Status         CollaborationStatus `json:"status"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// CollaborationWithProfile, işbirliği kaydını karşı tarafın profiliyle
// birlikte döner. Kaydedilenler sayfasında kullanılır.
type CollaborationWithProfile struct {
	Collaboration
	Profile *Profile `json:"profile"`
}

// SetCollaborationStatusRequest, durum atama payload'ı.
type SetCollaborationStatusRequest struct {
	CollaboratorID string              `json:"collaborator_id"`
	Status         CollaborationStatus `json:"status"`
}

// Validate, isteğin geçerli olduğunu kontrol eder.
func (r *SetCollaborationStatusRequest) Validate() error {
	if r.CollaboratorID == "" {
		return fmt.Errorf("collaborator_id is required")
	}
	if !r.Status.Valid() {
		return fmt.Errorf("invalid status: %s", r.Status)
	}
	return nil
}
