package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"copydesk/internal/domain"
)

// IntentRepositoryImpl implements the IntentRepository interface
type IntentRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewIntentRepository creates a new IntentRepository
func NewIntentRepository(db *pgxpool.Pool) domain.IntentRepository {
	return &IntentRepositoryImpl{db: db}
}

// Create stores a new pending intent
func (r *IntentRepositoryImpl) Create(ctx context.Context, intent *domain.TransitionIntent) error {
	query := `
		INSERT INTO membership_intents (
			id, user_id, operation, from_group_id, to_group_id, to_group_key,
			step, status, attempts, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err := r.db.Exec(ctx, query,
		intent.ID,
		intent.UserID,
		intent.Operation,
		intent.FromGroupID,
		intent.ToGroupID,
		intent.ToGroupKey,
		intent.Step,
		intent.Status,
		intent.Attempts,
		intent.CreatedAt,
		intent.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create membership intent: %w", err)
	}

	return nil
}

// Advance records the last completed step
func (r *IntentRepositoryImpl) Advance(ctx context.Context, id, step string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE membership_intents
		SET step = $1, updated_at = NOW()
		WHERE id = $2
	`, step, id)
	if err != nil {
		return fmt.Errorf("failed to advance membership intent: %w", err)
	}
	return nil
}

// Complete marks an intent completed
func (r *IntentRepositoryImpl) Complete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE membership_intents
		SET status = 'completed', last_error = '', updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to complete membership intent: %w", err)
	}
	return nil
}

// RecordFailure bumps the attempt counter and stores the last error
func (r *IntentRepositoryImpl) RecordFailure(ctx context.Context, id, lastError string, terminal bool) error {
	status := domain.IntentPending
	if terminal {
		status = domain.IntentFailed
	}

	_, err := r.db.Exec(ctx, `
		UPDATE membership_intents
		SET attempts = attempts + 1, last_error = $1, status = $2, updated_at = NOW()
		WHERE id = $3
	`, lastError, status, id)
	if err != nil {
		return fmt.Errorf("failed to record membership intent failure: %w", err)
	}
	return nil
}

// ListPending returns pending intents not touched since the cutoff, oldest first
func (r *IntentRepositoryImpl) ListPending(ctx context.Context, olderThan time.Time, limit int) ([]*domain.TransitionIntent, error) {
	query := `
		SELECT id, user_id, operation, from_group_id, to_group_id, to_group_key,
		       step, status, attempts, last_error, created_at, updated_at
		FROM membership_intents
		WHERE status = 'pending' AND updated_at < $1
		ORDER BY updated_at ASC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending intents: %w", err)
	}
	defer rows.Close()

	var intents []*domain.TransitionIntent
	for rows.Next() {
		intent := &domain.TransitionIntent{}
		err := rows.Scan(
			&intent.ID,
			&intent.UserID,
			&intent.Operation,
			&intent.FromGroupID,
			&intent.ToGroupID,
			&intent.ToGroupKey,
			&intent.Step,
			&intent.Status,
			&intent.Attempts,
			&intent.LastError,
			&intent.CreatedAt,
			&intent.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan intent: %w", err)
		}
		intents = append(intents, intent)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating intents: %w", err)
	}

	return intents, nil
}
