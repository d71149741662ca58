package domain

import (
	"fmt"
	"time"
)

// Account status constants shared by masters and slaves
const (
	AccountStatusActive   = "active"
	AccountStatusInactive = "inactive"
)

// ResourceHandlePrefix is the prefix of every slave resource handle (mt5_path_<N>)
const ResourceHandlePrefix = "mt5_path_"

// SlaveAccount mirrors the trades of exactly one master
type SlaveAccount struct {
	SlaveID        string     `json:"slave_id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	MobileNumber   string     `json:"mobile_number"`
	Status         string     `json:"status"`
	StartDate      time.Time  `json:"start_date"`
	EndDate        time.Time  `json:"end_date"`
	MasterID       string     `json:"master_id"`
	MasterEmail    string     `json:"master_email"`
	ResourceHandle string     `json:"mt5_path"`
	MT5Login       *MT5Login  `json:"mt5_login,omitempty"`
	MT5Stats       *MT5Stats  `json:"mt5_stats,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"-"`
}

// MT5Login holds the platform credentials of a slave account
type MT5Login struct {
	Server    string `json:"server"`
	AccountNo int64  `json:"account"`
	Password  string `json:"-"`
}

// MT5Stats is the cached account snapshot reported by the trading platform
type MT5Stats struct {
	AccountName   *string    `json:"account_name,omitempty"`
	Balance       *float64   `json:"balance,omitempty"`
	Equity        *float64   `json:"equity,omitempty"`
	Margin        *float64   `json:"margin,omitempty"`
	MarginLevel   *float64   `json:"margin_level,omitempty"`
	Profit        *float64   `json:"profit,omitempty"`
	FreeMargin    *float64   `json:"free_margin,omitempty"`
	LastTradeTime *time.Time `json:"last_trade_time,omitempty"`
}

// FormatResourceHandle renders the handle for slot n
func FormatResourceHandle(n int) string {
	return fmt.Sprintf("%s%d", ResourceHandlePrefix, n)
}

// StatusFromBool maps the boolean API flag to the stored status string
func StatusFromBool(active bool) string {
	if active {
		return AccountStatusActive
	}
	return AccountStatusInactive
}
