package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"copydesk/internal/domain"
)

// MasterRepositoryImpl implements the MasterRepository interface
type MasterRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewMasterRepository creates a new MasterRepository
func NewMasterRepository(db *pgxpool.Pool) domain.MasterRepository {
	return &MasterRepositoryImpl{db: db}
}

const masterColumns = `
	master_id, name, email, mobile_number, password_hash, allowed_slaves,
	status, start_date, end_date, created_at, updated_at
`

// Create creates a new master account
func (r *MasterRepositoryImpl) Create(ctx context.Context, master *domain.MasterAccount) error {
	query := `
		INSERT INTO master_accounts (
			master_id, name, email, mobile_number, password_hash, allowed_slaves,
			status, start_date, end_date, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err := r.db.Exec(ctx, query,
		master.MasterID,
		master.Name,
		master.Email,
		master.MobileNumber,
		master.PasswordHash,
		master.AllowedSlaves,
		master.Status,
		master.StartDate,
		master.EndDate,
		master.CreatedAt,
		master.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create master account: %w", translateInsertError(err))
	}

	return nil
}

// FindByIDAndEmail returns the master matching both id and email
func (r *MasterRepositoryImpl) FindByIDAndEmail(ctx context.Context, masterID, email string) (*domain.MasterAccount, error) {
	query := `SELECT ` + masterColumns + ` FROM master_accounts WHERE master_id = $1 AND email = $2`

	master, err := scanMaster(r.db.QueryRow(ctx, query, masterID, email))
	if err != nil {
		return nil, fmt.Errorf("failed to get master by id and email: %w", notFound(err))
	}

	return master, nil
}

// FindByID returns the master with the given id
func (r *MasterRepositoryImpl) FindByID(ctx context.Context, masterID string) (*domain.MasterAccount, error) {
	query := `SELECT ` + masterColumns + ` FROM master_accounts WHERE master_id = $1`

	master, err := scanMaster(r.db.QueryRow(ctx, query, masterID))
	if err != nil {
		return nil, fmt.Errorf("failed to get master by ID: %w", notFound(err))
	}

	return master, nil
}

// FindByEmail returns the master with the given email
func (r *MasterRepositoryImpl) FindByEmail(ctx context.Context, email string) (*domain.MasterAccount, error) {
	query := `SELECT ` + masterColumns + ` FROM master_accounts WHERE email = $1`

	master, err := scanMaster(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("failed to get master by email: %w", notFound(err))
	}

	return master, nil
}

// GetAll retrieves all masters, newest first
func (r *MasterRepositoryImpl) GetAll(ctx context.Context) ([]*domain.MasterAccount, error) {
	rows, err := r.db.Query(ctx, `SELECT `+masterColumns+` FROM master_accounts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query all masters: %w", err)
	}
	defer rows.Close()

	var masters []*domain.MasterAccount
	for rows.Next() {
		master, err := scanMaster(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan master: %w", err)
		}
		masters = append(masters, master)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating masters: %w", err)
	}

	return masters, nil
}

// UpdateStatus sets the lifecycle status of a master account
func (r *MasterRepositoryImpl) UpdateStatus(ctx context.Context, masterID, status string) error {
	query := `
		UPDATE master_accounts
		SET status = $1, updated_at = NOW()
		WHERE master_id = $2
	`

	result, err := r.db.Exec(ctx, query, status, masterID)
	if err != nil {
		return fmt.Errorf("failed to update master status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func scanMaster(row pgx.Row) (*domain.MasterAccount, error) {
	master := &domain.MasterAccount{}
	err := row.Scan(
		&master.MasterID,
		&master.Name,
		&master.Email,
		&master.MobileNumber,
		&master.PasswordHash,
		&master.AllowedSlaves,
		&master.Status,
		&master.StartDate,
		&master.EndDate,
		&master.CreatedAt,
		&master.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return master, nil
}
