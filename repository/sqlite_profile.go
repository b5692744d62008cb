// Package repository — ProfileRepository SQLite implementasyonu.
//
// []string alanlar (keywords, research_roles, what_i_have, what_i_need)
// TEXT kolonlarda JSON array olarak saklanır. SQLite'ta array tipi
// yoktur; ayrı join tablosu bu ölçekte gereksiz karmaşıklık olurdu.
//
// Update, dinamik SET listesi kurar — sadece nil olmayan alanlar
// sorguya girer (partial update).
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/akinalp/kolab/models"
	"github.com/akinalp/kolab/pkg"
)

// profileColumns, SELECT sorgularında kullanılan kolon listesi.
// scanProfile ile aynı sırada olmalı.
const profileColumns = `id, first_name, last_name, username, email, avatar_url,
	title, institution, college, department, country, state_city, phone,
	linkedin_url, researchgate_url, google_scholar_url,
	primary_research_area, secondary_research_area, keywords, research_roles,
	experience, rating, collaboration_count, bio, what_i_have, what_i_need,
	created_at, updated_at`

type sqliteProfileRepo struct {
	db *sql.DB
}

// NewSQLiteProfileRepo, constructor.
func NewSQLiteProfileRepo(db *sql.DB) ProfileRepository {
	return &sqliteProfileRepo{db: db}
}

// Create, yeni bir profil satırı oluşturur.
// Sadece id ve email yazılır — kalan alanlar kullanıcı tarafından
// sonradan doldurulur.
func (r *sqliteProfileRepo) Create(ctx context.Context, p *models.Profile) error {
	query := `INSERT INTO profiles (id, email) VALUES (?, ?)`

	_, err := r.db.ExecContext(ctx, query, p.ID, p.Email)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: profile %s", pkg.ErrAlreadyExists, p.ID)
		}
		return fmt.Errorf("profile create: %w", err)
	}
	return nil
}

// GetByID, ID ile profil döner.
func (r *sqliteProfileRepo) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: profile %s", pkg.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("profile get by id: %w", err)
	}
	return p, nil
}

// Update, nil olmayan alanlarla dinamik UPDATE sorgusu kurar.
func (r *sqliteProfileRepo) Update(ctx context.Context, id string, req *models.UpdateProfileRequest) error {
	var sets []string
	var args []any

	addStr := func(col string, val *string) {
		if val != nil {
			sets = append(sets, col+" = ?")
			args = append(args, *val)
		}
	}
	addList := func(col string, val *[]string) {
		if val != nil {
			sets = append(sets, col+" = ?")
			args = append(args, encodeStringList(*val))
		}
	}

	addStr("first_name", req.FirstName)
	addStr("last_name", req.LastName)
	addStr("username", req.Username)
	addStr("avatar_url", req.AvatarURL)
	addStr("title", req.Title)
	addStr("institution", req.Institution)
	addStr("college", req.College)
	addStr("department", req.Department)
	addStr("country", req.Country)
	addStr("state_city", req.StateCity)
	addStr("phone", req.Phone)
	addStr("linkedin_url", req.LinkedInURL)
	addStr("researchgate_url", req.ResearchGateURL)
	addStr("google_scholar_url", req.GoogleScholarURL)
	addStr("primary_research_area", req.PrimaryResearchArea)
	addStr("secondary_research_area", req.SecondaryResearchArea)
	addList("keywords", req.Keywords)
	addList("research_roles", req.ResearchRoles)
	addStr("experience", req.Experience)
	addStr("bio", req.Bio)
	addList("what_i_have", req.WhatIHave)
	addList("what_i_need", req.WhatINeed)

	if len(sets) == 0 {
		return nil // güncellenecek alan yok
	}

	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	query := "UPDATE profiles SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: username taken", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("profile update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("profile update rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: profile %s", pkg.ErrNotFound, id)
	}
	return nil
}

// Search, keşif sayfası için profil araması yapar.
//
// Query; ad, soyad, kurum ve birincil araştırma alanında
// case-insensitive LIKE ile aranır. Sıralama:
// - rating: yüksek puan önce (NULL'lar sona)
// - collaborations: işbirliği sayısı çok olan önce
// - relevant (varsayılan): en yeni profil önce
func (r *sqliteProfileRepo) Search(ctx context.Context, params models.ProfileSearchParams, excludeID string) ([]models.Profile, error) {
	var conditions []string
	var args []any

	conditions = append(conditions, "id != ?")
	args = append(args, excludeID)

	if q := strings.TrimSpace(params.Query); q != "" {
		like := "%" + q + "%"
		conditions = append(conditions,
			`(first_name LIKE ? COLLATE NOCASE
			  OR last_name LIKE ? COLLATE NOCASE
			  OR institution LIKE ? COLLATE NOCASE
			  OR primary_research_area LIKE ? COLLATE NOCASE)`)
		args = append(args, like, like, like, like)
	}

	if params.Institution != "" {
		conditions = append(conditions, "institution = ? COLLATE NOCASE")
		args = append(args, params.Institution)
	}
	if params.Country != "" {
		conditions = append(conditions, "country = ? COLLATE NOCASE")
		args = append(args, params.Country)
	}

	var orderBy string
	switch params.Sort {
	case models.ProfileSortRating:
		orderBy = "rating DESC NULLS LAST"
	case models.ProfileSortCollaborations:
		orderBy = "collaboration_count DESC"
	default:
		orderBy = "created_at DESC"
	}

	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `SELECT ` + profileColumns + ` FROM profiles
	          WHERE ` + strings.Join(conditions, " AND ") + `
	          ORDER BY ` + orderBy + ` LIMIT ? OFFSET ?`
	args = append(args, limit, params.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("profile search: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("profile search scan: %w", err)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("profile search rows: %w", err)
	}
	return profiles, nil
}

// IncrementCollaborationCount, işbirliği sayacını 1 artırır.
func (r *sqliteProfileRepo) IncrementCollaborationCount(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET collaboration_count = collaboration_count + 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("profile increment collaboration count: %w", err)
	}
	return nil
}

// rowScanner, hem *sql.Row hem *sql.Rows tarafından karşılanır.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanProfile, bir satırı Profile'a çevirir. profileColumns sırası ile
// birebir eşleşir.
func scanProfile(row rowScanner) (*models.Profile, error) {
	var p models.Profile
	var keywords, roles, have, need sql.NullString

	err := row.Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.Username, &p.Email, &p.AvatarURL,
		&p.Title, &p.Institution, &p.College, &p.Department, &p.Country,
		&p.StateCity, &p.Phone, &p.LinkedInURL, &p.ResearchGateURL,
		&p.GoogleScholarURL, &p.PrimaryResearchArea, &p.SecondaryResearchArea,
		&keywords, &roles, &p.Experience, &p.Rating, &p.CollaborationCount,
		&p.Bio, &have, &need, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Keywords = decodeStringList(keywords)
	p.ResearchRoles = decodeStringList(roles)
	p.WhatIHave = decodeStringList(have)
	p.WhatINeed = decodeStringList(need)
	return &p, nil
}

// encodeStringList, []string'i JSON TEXT olarak saklanacak forma çevirir.
func encodeStringList(list []string) string {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// decodeStringList, JSON TEXT kolonu []string'e çevirir.
// NULL veya bozuk veri nil döner — frontend boş liste gibi davranır.
func decodeStringList(col sql.NullString) []string {
	if !col.Valid || col.String == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(col.String), &list); err != nil {
		return nil
	}
	return list
}
