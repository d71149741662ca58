package domain

import (
	"time"
)

// Group is a settlement group traders join through its API key
type Group struct {
	ID                      string    `json:"id"`
	GroupName               string    `json:"group_name"`
	CompanyName             string    `json:"company_name"`
	APIKey                  string    `json:"-"`
	ReferralCode            string    `json:"referral_code"`
	ProfitSharingPercentage float64   `json:"profit_sharing_percentage"`
	SettlementCycle         string    `json:"settlement_cycle"`
	GraceDays               int       `json:"grace_days"`
	TradingStatus           string    `json:"trading_status"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// Membership status constants
const (
	MembershipActive = "active"
	MembershipLeft   = "left"
)

// Membership is one historical association of a trader with a group.
// At most one row per trader may be active.
type Membership struct {
	ID       string     `json:"id"`
	UserID   string     `json:"user_id"`
	GroupID  string     `json:"group_id"`
	Status   string     `json:"status"`
	JoinedAt time.Time  `json:"joined_at"`
	LeftAt   *time.Time `json:"left_at,omitempty"`
}

// TradingAccount binds a trader's live account to a group
type TradingAccount struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	GroupID       string    `json:"group_id"`
	AccountNumber string    `json:"account_number"`
	Status        string    `json:"status"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// MembershipState is the trader's position in the join/leave state machine
type MembershipState struct {
	UserID   string     `json:"user_id"`
	GroupID  string     `json:"group_id,omitempty"`
	JoinedAt *time.Time `json:"joined_at,omitempty"`
}

// Joined reports whether the state is ActiveMember
func (s MembershipState) Joined() bool {
	return s.GroupID != ""
}
