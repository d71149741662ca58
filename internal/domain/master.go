package domain

import (
	"time"
)

// MasterAccount is a trading account whose strategy is copied by slaves
type MasterAccount struct {
	MasterID      string    `json:"master_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	MobileNumber  string    `json:"mobile_number"`
	PasswordHash  string    `json:"-"`
	AllowedSlaves int       `json:"no_of_slave"` // 0 means unlimited
	Status        string    `json:"status"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasQuota reports whether the master limits its number of slaves
func (m *MasterAccount) HasQuota() bool {
	return m.AllowedSlaves > 0
}
