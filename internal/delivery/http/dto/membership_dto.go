package dto

import (
	"copydesk/internal/domain"
)

// GroupRequest carries the trader and the group API key
type GroupRequest struct {
	UserID string `json:"user_id"`
	APIKey string `json:"api_key"`
}

// LeaveGroupRequest identifies the trader leaving its group
type LeaveGroupRequest struct {
	UserID string `json:"user_id"`
}

// MembershipOutput is the current state of a trader plus its history
type MembershipOutput struct {
	State   domain.MembershipState `json:"state"`
	History []*domain.Membership   `json:"history"`
}
