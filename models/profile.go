// Package models — Profile domain modeli.
//
// Profil, bir araştırmacının keşif sayfasında görünen tüm bilgilerini
// taşır. users ile 1:1 ilişkilidir (aynı ID). Çoğu alan opsiyonel —
// kullanıcı profilini kademeli doldurur.
package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Profile, bir araştırmacı profilini temsil eder.
// *string = nullable; []string alanlar DB'de JSON olarak saklanır.
type Profile struct {
	ID                    string   `json:"id"`
	FirstName             *string  `json:"first_name"`
	LastName              *string  `json:"last_name"`
	Username              *string  `json:"username"`
	Email                 *string  `json:"email"`
	AvatarURL             *string  `json:"avatar_url"`
	Title                 *string  `json:"title"`
	Institution           *string  `json:"institution"`
	College               *string  `json:"college"`
	Department            *string  `json:"department"`
	Country               *string  `json:"country"`
	StateCity             *string  `json:"state_city"`
	Phone                 *string  `json:"phone"`
	LinkedInURL           *string  `json:"linkedin_url"`
	ResearchGateURL       *string  `json:"researchgate_url"`
	GoogleScholarURL      *string  `json:"google_scholar_url"`
	PrimaryResearchArea   *string  `json:"primary_research_area"`
	SecondaryResearchArea *string  `json:"secondary_research_area"`
	Keywords              []string `json:"keywords"`
	ResearchRoles         []string `json:"research_roles"`
	Experience            *string  `json:"experience"`
	Rating                *float64 `json:"rating"`
	CollaborationCount    int      `json:"collaboration_count"`
	Bio                   *string  `json:"bio"`
	WhatIHave             []string `json:"what_i_have"`
	WhatINeed             []string `json:"what_i_need"`
	CreatedAt             string   `json:"created_at"`
	UpdatedAt             string   `json:"updated_at"`
}

// DisplayName, profil için gösterilecek ismi üretir.
// Öncelik: "Ad Soyad" → username → email'in @ öncesi → "Unknown User".
func (p *Profile) DisplayName() string {
	if p.FirstName != nil && p.LastName != nil && *p.FirstName != "" && *p.LastName != "" {
		return *p.FirstName + " " + *p.LastName
	}
	if p.Username != nil && *p.Username != "" {
		return *p.Username
	}
	if p.Email != nil && *p.Email != "" {
		if i := strings.IndexByte(*p.Email, '@'); i > 0 {
			return (*p.Email)[:i]
		}
		return *p.Email
	}
	return "Unknown User"
}

// ProfileSort, arama sonuçlarının sıralama kriterini temsil eder.
type ProfileSort string

const (
	ProfileSortRelevant       ProfileSort = "relevant"       // en yeni profiller önce
	ProfileSortRating         ProfileSort = "rating"         // yüksek puan önce
	ProfileSortCollaborations ProfileSort = "collaborations" // çok işbirliği önce
)

// Valid, sıralama değerinin bilinen bir kriter olup olmadığını döner.
func (s ProfileSort) Valid() bool {
	switch s {
	case ProfileSortRelevant, ProfileSortRating, ProfileSortCollaborations:
		return true
	}
	return false
}

// ProfileSearchParams, keşif sayfasındaki arama/filtreleme parametreleri.
// Query; isim, kurum ve birincil araştırma alanında case-insensitive
// substring araması yapar.
type ProfileSearchParams struct {
	Query       string      `json:"query"`
	Sort        ProfileSort `json:"sort"`
	Institution string      `json:"institution"`
	Country     string      `json:"country"`
	Limit       int         `json:"limit"`
	Offset      int         `json:"offset"`
}

// UpdateProfileRequest, profil güncelleme payload'ı.
// nil alanlar "değiştirme" anlamına gelir — partial update.
type UpdateProfileRequest struct {
	FirstName             *string   `json:"first_name"`
	LastName              *string   `json:"last_name"`
	Username              *string   `json:"username"`
	AvatarURL             *string   `json:"avatar_url"`
	Title                 *string   `json:"title"`
	Institution           *string   `json:"institution"`
	College               *string   `json:"college"`
	Department            *string   `json:"department"`
	Country               *string   `json:"country"`
	StateCity             *string   `json:"state_city"`
	Phone                 *string   `json:"phone"`
	LinkedInURL           *string   `json:"linkedin_url"`
	ResearchGateURL       *string   `json:"researchgate_url"`
	GoogleScholarURL      *string   `json:"google_scholar_url"`
	PrimaryResearchArea   *string   `json:"primary_research_area"`
	SecondaryResearchArea *string   `json:"secondary_research_area"`
	Keywords              *[]string `json:"keywords"`
	ResearchRoles         *[]string `json:"research_roles"`
	Experience            *string   `json:"experience"`
	Bio                   *string   `json:"bio"`
	WhatIHave             *[]string `json:"what_i_have"`
	WhatINeed             *[]string `json:"what_i_need"`
}

// Validate, güncellenen alanların sınırlar içinde olduğunu kontrol eder.
func (r *UpdateProfileRequest) Validate() error {
	if r.Username != nil {
		u := strings.TrimSpace(*r.Username)
		uLen := utf8.RuneCountInString(u)
		if uLen < 3 || uLen > 32 {
			return fmt.Errorf("username must be between 3 and 32 characters")
		}
		for _, ch := range u {
			if !isValidUsernameChar(ch) {
				return fmt.Errorf("username can only contain letters, numbers, and underscores")
			}
		}
		*r.Username = u
	}
	if r.Bio != nil && utf8.RuneCountInString(*r.Bio) > 2000 {
		return fmt.Errorf("bio must be at most 2000 characters")
	}
	return nil
}

// isValidUsernameChar, username'de izin verilen karakterleri kontrol eder.
func isValidUsernameChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '_'
}
