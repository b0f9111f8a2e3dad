package repository

import (
	"context"
	"encoding/json"

	"github.com/chancov/WebAppMiningGameTG/internal/domain"
)

// CreateAuditLog inserts an audit entry inside the caller's unit of work.
func (q *pgQueries) CreateAuditLog(ctx context.Context, l *domain.AuditLog) error {
	detailsJSON, err := json.Marshal(l.Details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	return q.db.QueryRow(ctx, `
		INSERT INTO audit_logs (user_id, action, category, details, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, l.UserID, l.Action, l.Category, detailsJSON, l.CreatedAt).Scan(&l.ID)
}

// AuditLogs returns the newest entries for an account
func (q *pgQueries) AuditLogs(ctx context.Context, accountID int64, limit int) ([]domain.AuditLog, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, user_id, action, category, details, created_at
		FROM audit_logs
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []domain.AuditLog{}
	for rows.Next() {
		var l domain.AuditLog
		var detailsJSON []byte
		if err := rows.Scan(&l.ID, &l.UserID, &l.Action, &l.Category, &detailsJSON, &l.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(detailsJSON, &l.Details); err != nil {
			l.Details = make(map[string]interface{})
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
