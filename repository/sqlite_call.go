// Package repository — CallRepository SQLite implementasyonu.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/akinalp/kolab/models"
	"github.com/akinalp/kolab/pkg"
)

type sqliteCallRepo struct {
	db *sql.DB
}

// NewSQLiteCallRepo, constructor.
func NewSQLiteCallRepo(db *sql.DB) CallRepository {
	return &sqliteCallRepo{db: db}
}

func (r *sqliteCallRepo) Create(ctx context.Context, c *models.Call) error {
	query := `INSERT INTO calls (id, caller_id, callee_id, status, started_at)
	          VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, c.ID, c.CallerID, c.CalleeID, c.Status, c.StartedAt)
	if err != nil {
		return fmt.Errorf("call create: %w", err)
	}
	return nil
}

func (r *sqliteCallRepo) MarkConnected(ctx context.Context, id string) error {
	return r.updateStatus(ctx, id,
		`UPDATE calls SET status = ?, connected_at = ? WHERE id = ?`,
		models.CallStatusConnected, time.Now().UTC(), id)
}

func (r *sqliteCallRepo) MarkDeclined(ctx context.Context, id string, reason *string) error {
	return r.updateStatus(ctx, id,
		`UPDATE calls SET status = ?, reason = ?, ended_at = ? WHERE id = ?`,
		models.CallStatusDeclined, reason, time.Now().UTC(), id)
}

func (r *sqliteCallRepo) MarkEnded(ctx context.Context, id string) error {
	return r.updateStatus(ctx, id,
		`UPDATE calls SET status = ?, ended_at = ? WHERE id = ?`,
		models.CallStatusEnded, time.Now().UTC(), id)
}

func (r *sqliteCallRepo) updateStatus(ctx context.Context, id, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("call update status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("call update status rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: call %s", pkg.ErrNotFound, id)
	}
	return nil
}

func (r *sqliteCallRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.Call, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `SELECT id, caller_id, callee_id, status, reason, started_at, connected_at, ended_at
	          FROM calls
	          WHERE caller_id = ? OR callee_id = ?
	          ORDER BY started_at DESC
	          LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, userID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("call list by user: %w", err)
	}
	defer rows.Close()

	var calls []models.Call
	for rows.Next() {
		var c models.Call
		if err := rows.Scan(
			&c.ID, &c.CallerID, &c.CalleeID, &c.Status, &c.Reason,
			&c.StartedAt, &c.ConnectedAt, &c.EndedAt,
		); err != nil {
			return nil, fmt.Errorf("call list scan: %w", err)
		}
		calls = append(calls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("call list rows: %w", err)
	}
	return calls, nil
}
