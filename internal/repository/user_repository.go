package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"copydesk/internal/domain"
)

// UserRepositoryImpl implements the UserRepository interface
type UserRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) domain.UserRepository {
	return &UserRepositoryImpl{db: db}
}

const userColumns = `
	id, name, email, mobile, password_hash, role, status,
	group_id, group_join_date, referral_code_used, created_at, updated_at
`

// GetByID retrieves a user by ID
func (r *UserRepositoryImpl) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", notFound(err))
	}

	return user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepositoryImpl) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", notFound(err))
	}

	return user, nil
}

// ExistsByEmail reports whether a user uses the email
func (r *UserRepositoryImpl) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user email: %w", err)
	}
	return exists, nil
}

// SetGroup sets the current-group pointer
func (r *UserRepositoryImpl) SetGroup(ctx context.Context, userID, groupID string, joinedAt time.Time) error {
	query := `
		UPDATE users
		SET group_id = $1, group_join_date = $2, updated_at = NOW()
		WHERE id = $3
	`

	result, err := r.db.Exec(ctx, query, groupID, joinedAt, userID)
	if err != nil {
		return fmt.Errorf("failed to set user group: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// ClearGroup unsets the current-group pointer while it references groupID
func (r *UserRepositoryImpl) ClearGroup(ctx context.Context, userID, groupID string) error {
	query := `
		UPDATE users
		SET group_id = NULL, group_join_date = NULL, referral_code_used = NULL, updated_at = NOW()
		WHERE id = $1 AND group_id = $2
	`

	_, err := r.db.Exec(ctx, query, userID, groupID)
	if err != nil {
		return fmt.Errorf("failed to clear user group: %w", err)
	}

	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Mobile,
		&user.PasswordHash,
		&user.Role,
		&user.Status,
		&user.GroupID,
		&user.GroupJoinDate,
		&user.ReferralCodeUsed,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}
