package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"copydesk/internal/domain"
)

// SlaveRepositoryImpl implements the SlaveRepository interface
type SlaveRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewSlaveRepository creates a new SlaveRepository
func NewSlaveRepository(db *pgxpool.Pool) domain.SlaveRepository {
	return &SlaveRepositoryImpl{db: db}
}

const slaveColumns = `
	slave_id, name, email, mobile_number, status, start_date, end_date,
	master_id, master_email, resource_handle,
	mt_server, mt_account_no,
	account_name, balance, equity, margin, margin_level, profit, free_margin, last_trade_time,
	created_at, updated_at
`

// Insert stores a new slave account
func (r *SlaveRepositoryImpl) Insert(ctx context.Context, slave *domain.SlaveAccount) error {
	query := `
		INSERT INTO slave_accounts (
			slave_id, name, email, mobile_number, status, start_date, end_date,
			master_id, master_email, resource_handle, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
	`

	_, err := r.db.Exec(ctx, query,
		slave.SlaveID,
		slave.Name,
		slave.Email,
		slave.MobileNumber,
		slave.Status,
		slave.StartDate,
		slave.EndDate,
		slave.MasterID,
		slave.MasterEmail,
		slave.ResourceHandle,
		slave.CreatedAt,
		slave.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert slave account: %w", translateInsertError(err))
	}

	return nil
}

// GetByID retrieves a slave account by ID
func (r *SlaveRepositoryImpl) GetByID(ctx context.Context, slaveID string) (*domain.SlaveAccount, error) {
	query := `SELECT ` + slaveColumns + ` FROM slave_accounts WHERE slave_id = $1`

	slave, err := scanSlave(r.db.QueryRow(ctx, query, slaveID))
	if err != nil {
		return nil, fmt.Errorf("failed to get slave account by ID: %w", notFound(err))
	}

	return slave, nil
}

// CountByMaster counts slave accounts bound to a master
func (r *SlaveRepositoryImpl) CountByMaster(ctx context.Context, masterID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM slave_accounts WHERE master_id = $1`, masterID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count slave accounts: %w", err)
	}
	return count, nil
}

// ExistsByEmail reports whether any slave account uses the email
func (r *SlaveRepositoryImpl) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM slave_accounts WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slave email: %w", err)
	}
	return exists, nil
}

// ListHandles returns the resource handles of all slave accounts
func (r *SlaveRepositoryImpl) ListHandles(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT resource_handle FROM slave_accounts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query resource handles: %w", err)
	}
	defer rows.Close()

	var handles []string
	for rows.Next() {
		var handle string
		if err := rows.Scan(&handle); err != nil {
			return nil, fmt.Errorf("failed to scan resource handle: %w", err)
		}
		handles = append(handles, handle)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating resource handles: %w", err)
	}

	return handles, nil
}

// List retrieves slave accounts matching the filter, newest first
func (r *SlaveRepositoryImpl) List(ctx context.Context, filter domain.SlaveFilter) ([]*domain.SlaveAccount, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.MasterID != "" {
		args = append(args, filter.MasterID)
		conditions = append(conditions, fmt.Sprintf("master_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + slaveColumns + ` FROM slave_accounts`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query slave accounts: %w", err)
	}
	defer rows.Close()

	var slaves []*domain.SlaveAccount
	for rows.Next() {
		slave, err := scanSlave(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan slave account: %w", err)
		}
		slaves = append(slaves, slave)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating slave accounts: %w", err)
	}

	return slaves, nil
}

// UpdateStatus sets the lifecycle status of a slave account
func (r *SlaveRepositoryImpl) UpdateStatus(ctx context.Context, slaveID, status string) error {
	query := `
		UPDATE slave_accounts
		SET status = $1, updated_at = NOW()
		WHERE slave_id = $2
	`

	result, err := r.db.Exec(ctx, query, status, slaveID)
	if err != nil {
		return fmt.Errorf("failed to update slave status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// UpdateLogin stores platform credentials and clears the cached platform snapshot
func (r *SlaveRepositoryImpl) UpdateLogin(ctx context.Context, slaveID string, login domain.MT5Login) error {
	query := `
		UPDATE slave_accounts
		SET mt_server = $1, mt_account_no = $2, mt_password = $3,
		    account_name = NULL, balance = NULL, equity = NULL, margin = NULL,
		    margin_level = NULL, profit = NULL, free_margin = NULL, last_trade_time = NULL,
		    updated_at = NOW()
		WHERE slave_id = $4
	`

	result, err := r.db.Exec(ctx, query, login.Server, login.AccountNo, login.Password, slaveID)
	if err != nil {
		return fmt.Errorf("failed to update slave login: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// Delete removes a slave account
func (r *SlaveRepositoryImpl) Delete(ctx context.Context, slaveID string) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM slave_accounts WHERE slave_id = $1`, slaveID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete slave account: %w", err)
	}
	return result.RowsAffected(), nil
}

func scanSlave(row pgx.Row) (*domain.SlaveAccount, error) {
	slave := &domain.SlaveAccount{}
	var (
		server    *string
		accountNo *int64
		stats     domain.MT5Stats
	)

	err := row.Scan(
		&slave.SlaveID,
		&slave.Name,
		&slave.Email,
		&slave.MobileNumber,
		&slave.Status,
		&slave.StartDate,
		&slave.EndDate,
		&slave.MasterID,
		&slave.MasterEmail,
		&slave.ResourceHandle,
		&server,
		&accountNo,
		&stats.AccountName,
		&stats.Balance,
		&stats.Equity,
		&stats.Margin,
		&stats.MarginLevel,
		&stats.Profit,
		&stats.FreeMargin,
		&stats.LastTradeTime,
		&slave.CreatedAt,
		&slave.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if server != nil && accountNo != nil {
		slave.MT5Login = &domain.MT5Login{Server: *server, AccountNo: *accountNo}
	}
	if stats.Balance != nil || stats.Equity != nil || stats.AccountName != nil {
		slave.MT5Stats = &stats
	}

	return slave, nil
}
