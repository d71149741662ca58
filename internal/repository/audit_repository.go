package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"copydesk/internal/domain"
)

// AuditRepositoryImpl writes audit events to admin_logs
type AuditRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *pgxpool.Pool) domain.AuditRepository {
	return &AuditRepositoryImpl{db: db}
}

// Append stores one audit event
func (r *AuditRepositoryImpl) Append(ctx context.Context, event domain.AuditEvent) error {
	var details []byte
	if len(event.Details) > 0 {
		var err error
		details, err = json.Marshal(event.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal audit details: %w", err)
		}
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO admin_logs (admin_id, action, entity, entity_id, client_ip, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, event.AdminID, event.Action, event.Entity, event.EntityID, event.ClientIP, details, event.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to append audit event: %w", err)
	}

	return nil
}
