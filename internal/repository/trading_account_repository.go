package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"copydesk/internal/domain"
)

// TradingAccountRepositoryImpl implements the TradingAccountRepository interface
type TradingAccountRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewTradingAccountRepository creates a new TradingAccountRepository
func NewTradingAccountRepository(db *pgxpool.Pool) domain.TradingAccountRepository {
	return &TradingAccountRepositoryImpl{db: db}
}

// Deactivate marks every binding for (user, group) inactive
func (r *TradingAccountRepositoryImpl) Deactivate(ctx context.Context, userID, groupID string) (int64, error) {
	query := `
		UPDATE trading_accounts
		SET status = 'inactive', updated_at = NOW()
		WHERE user_id = $1 AND group_id = $2 AND status <> 'inactive'
	`

	result, err := r.db.Exec(ctx, query, userID, groupID)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate trading accounts: %w", err)
	}

	return result.RowsAffected(), nil
}
