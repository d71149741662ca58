package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"copydesk/internal/domain"
)

// MembershipRepositoryImpl implements the MembershipRepository interface
type MembershipRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewMembershipRepository creates a new MembershipRepository
func NewMembershipRepository(db *pgxpool.Pool) domain.MembershipRepository {
	return &MembershipRepositoryImpl{db: db}
}

// Activate creates the active row for (user, group), or refreshes the join
// time of an existing active row for the same group. The partial unique index
// on active rows rejects a second active group.
func (r *MembershipRepositoryImpl) Activate(ctx context.Context, userID, groupID string, joinedAt time.Time) (*domain.Membership, error) {
	query := `
		INSERT INTO members (id, user_id, group_id, status, joined_at)
		VALUES ($1, $2, $3, 'active', $4)
		ON CONFLICT (user_id) WHERE status = 'active'
		DO UPDATE SET joined_at = EXCLUDED.joined_at
		WHERE members.group_id = EXCLUDED.group_id
		RETURNING id, user_id, group_id, status, joined_at, left_at
	`

	m := &domain.Membership{}
	err := r.db.QueryRow(ctx, query, uuid.NewString(), userID, groupID, joinedAt).Scan(
		&m.ID,
		&m.UserID,
		&m.GroupID,
		&m.Status,
		&m.JoinedAt,
		&m.LeftAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrActiveElsewhere
	}
	if err != nil {
		return nil, fmt.Errorf("failed to activate membership: %w", err)
	}

	return m, nil
}

// MarkLeft marks every non-left row for (user, group) as left
func (r *MembershipRepositoryImpl) MarkLeft(ctx context.Context, userID, groupID string, leftAt time.Time) (int64, error) {
	query := `
		UPDATE members
		SET status = 'left', left_at = $3
		WHERE user_id = $1 AND group_id = $2 AND status <> 'left'
	`

	result, err := r.db.Exec(ctx, query, userID, groupID, leftAt)
	if err != nil {
		return 0, fmt.Errorf("failed to mark memberships left: %w", err)
	}

	return result.RowsAffected(), nil
}

// GetActive returns the user's active membership
func (r *MembershipRepositoryImpl) GetActive(ctx context.Context, userID string) (*domain.Membership, error) {
	query := `
		SELECT id, user_id, group_id, status, joined_at, left_at
		FROM members
		WHERE user_id = $1 AND status = 'active'
	`

	m := &domain.Membership{}
	err := r.db.QueryRow(ctx, query, userID).Scan(&m.ID, &m.UserID, &m.GroupID, &m.Status, &m.JoinedAt, &m.LeftAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get active membership: %w", notFound(err))
	}

	return m, nil
}

// ListByUser returns the user's membership history, newest first
func (r *MembershipRepositoryImpl) ListByUser(ctx context.Context, userID string) ([]*domain.Membership, error) {
	query := `
		SELECT id, user_id, group_id, status, joined_at, left_at
		FROM members
		WHERE user_id = $1
		ORDER BY joined_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer rows.Close()

	var memberships []*domain.Membership
	for rows.Next() {
		m := &domain.Membership{}
		if err := rows.Scan(&m.ID, &m.UserID, &m.GroupID, &m.Status, &m.JoinedAt, &m.LeftAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating memberships: %w", err)
	}

	return memberships, nil
}
