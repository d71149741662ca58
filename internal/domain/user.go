package domain

import (
	"time"
)

// User represents a row of the users table: platform traders and admins
type User struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Mobile           string     `json:"mobile"`
	PasswordHash     string     `json:"-"` // Never expose password hash in JSON
	Role             string     `json:"role"`
	Status           string     `json:"status"`
	GroupID          *string    `json:"group_id,omitempty"`
	GroupJoinDate    *time.Time `json:"group_join_date,omitempty"`
	ReferralCodeUsed *string    `json:"referral_code_used,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// UserRole constants
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleUser   = "user"
)

// User status constants
const (
	UserStatusActive  = "active"
	UserStatusDeleted = "deleted"
)

// InGroup reports whether the current-group pointer is set
func (u *User) InGroup() bool {
	return u.GroupID != nil && *u.GroupID != ""
}
