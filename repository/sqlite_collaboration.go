// Package repository — CollaborationRepository SQLite implementasyonu.
//
// Upsert, SQLite'ın ON CONFLICT DO UPDATE desteğini kullanır —
// ayrı SELECT + INSERT/UPDATE yarışı (race) olmadan tek statement'ta
// idempotent yazma sağlar.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/akinalp/kolab/models"
	"github.com/akinalp/kolab/pkg"
)

type sqliteCollaborationRepo struct {
	db *sql.DB
}

// NewSQLiteCollaborationRepo, constructor.
func NewSQLiteCollaborationRepo(db *sql.DB) CollaborationRepository {
	return &sqliteCollaborationRepo{db: db}
}

// Upsert, çift için kayıt oluşturur veya durumu günceller.
// Çakışmada mevcut satırın id ve created_at'i korunur — sadece
// status ve updated_at değişir.
func (r *sqliteCollaborationRepo) Upsert(ctx context.Context, c *models.Collaboration) (*models.Collaboration, error) {
	query := `INSERT INTO collaborations (id, requester_id, collaborator_id, status, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?)
	          ON CONFLICT (requester_id, collaborator_id)
	          DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.RequesterID, c.CollaboratorID, c.Status, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("collaboration upsert: %w", err)
	}

	// Upsert sonrası güncel satırı oku — conflict durumunda id farklıdır.
	return r.GetByPair(ctx, c.RequesterID, c.CollaboratorID)
}

// GetByPair, requester → collaborator yönündeki kaydı döner.
func (r *sqliteCollaborationRepo) GetByPair(ctx context.Context, requesterID, collaboratorID string) (*models.Collaboration, error) {
	query := `SELECT id, requester_id, collaborator_id, status, created_at, updated_at
	          FROM collaborations WHERE requester_id = ? AND collaborator_id = ?`

	var c models.Collaboration
	err := r.db.QueryRowContext(ctx, query, requesterID, collaboratorID).Scan(
		&c.ID, &c.RequesterID, &c.CollaboratorID, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: collaboration %s -> %s", pkg.ErrNotFound, requesterID, collaboratorID)
	}
	if err != nil {
		return nil, fmt.Errorf("collaboration get by pair: %w", err)
	}
	return &c, nil
}

// ListByRequester, kayıtları karşı tarafın profiliyle JOIN'leyerek döner.
func (r *sqliteCollaborationRepo) ListByRequester(ctx context.Context, requesterID string, status models.CollaborationStatus) ([]models.CollaborationWithProfile, error) {
	query := `SELECT c.id, c.requester_id, c.collaborator_id, c.status, c.created_at, c.updated_at,
	                 ` + prefixColumns("p", profileColumns) + `
	          FROM collaborations c
	          JOIN profiles p ON p.id = c.collaborator_id
	          WHERE c.requester_id = ?`
	args := []any{requesterID}

	if status != "" {
		query += ` AND c.status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY c.updated_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("collaboration list by requester: %w", err)
	}
	defer rows.Close()

	var out []models.CollaborationWithProfile
	for rows.Next() {
		var item models.CollaborationWithProfile
		var p models.Profile
		var keywords, roles, have, need sql.NullString

		err := rows.Scan(
			&item.ID, &item.RequesterID, &item.CollaboratorID, &item.Status,
			&item.CreatedAt, &item.UpdatedAt,
			&p.ID, &p.FirstName, &p.LastName, &p.Username, &p.Email, &p.AvatarURL,
			&p.Title, &p.Institution, &p.College, &p.Department, &p.Country,
			&p.StateCity, &p.Phone, &p.LinkedInURL, &p.ResearchGateURL,
			&p.GoogleScholarURL, &p.PrimaryResearchArea, &p.SecondaryResearchArea,
			&keywords, &roles, &p.Experience, &p.Rating, &p.CollaborationCount,
			&p.Bio, &have, &need, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("collaboration list scan: %w", err)
		}

		p.Keywords = decodeStringList(keywords)
		p.ResearchRoles = decodeStringList(roles)
		p.WhatIHave = decodeStringList(have)
		p.WhatINeed = decodeStringList(need)
		item.Profile = &p
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("collaboration list rows: %w", err)
	}
	return out, nil
}

// Delete, requester → collaborator kaydını siler.
func (r *sqliteCollaborationRepo) Delete(ctx context.Context, requesterID, collaboratorID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM collaborations WHERE requester_id = ? AND collaborator_id = ?`,
		requesterID, collaboratorID)
	if err != nil {
		return fmt.Errorf("collaboration delete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("collaboration delete rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: collaboration %s -> %s", pkg.ErrNotFound, requesterID, collaboratorID)
	}
	return nil
}

// prefixColumns, "id, first_name, ..." listesini "p.id, p.first_name, ..."
// formuna çevirir — JOIN sorgusunda kolon çakışmasını önler.
func prefixColumns(prefix, columns string) string {
	parts := strings.Split(columns, ",")
	out := make([]string, 0, len(parts))
	for _, c := range parts {
		c = strings.TrimSpace(c)
		if c != "" {
			out = append(out, prefix+"."+c)
		}
	}
	return strings.Join(out, ", ")
}
