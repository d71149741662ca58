package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"copydesk/internal/domain"
)

// GroupRepositoryImpl implements the GroupRepository interface
type GroupRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewGroupRepository creates a new GroupRepository
func NewGroupRepository(db *pgxpool.Pool) domain.GroupRepository {
	return &GroupRepositoryImpl{db: db}
}

const groupColumns = `
	id, group_name, company_name, api_key, referral_code, profit_sharing_percentage,
	settlement_cycle, grace_days, trading_status, created_at, updated_at
`

// GetByAPIKey resolves a group by its API key
func (r *GroupRepositoryImpl) GetByAPIKey(ctx context.Context, apiKey string) (*domain.Group, error) {
	group, err := scanGroup(r.db.QueryRow(ctx, `SELECT `+groupColumns+` FROM groups WHERE api_key = $1`, apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to get group by api key: %w", notFound(err))
	}
	return group, nil
}

// GetByID retrieves a group by ID
func (r *GroupRepositoryImpl) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	group, err := scanGroup(r.db.QueryRow(ctx, `SELECT `+groupColumns+` FROM groups WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get group by ID: %w", notFound(err))
	}
	return group, nil
}

func scanGroup(row pgx.Row) (*domain.Group, error) {
	group := &domain.Group{}
	err := row.Scan(
		&group.ID,
		&group.GroupName,
		&group.CompanyName,
		&group.APIKey,
		&group.ReferralCode,
		&group.ProfitSharingPercentage,
		&group.SettlementCycle,
		&group.GraceDays,
		&group.TradingStatus,
		&group.CreatedAt,
		&group.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return group, nil
}
