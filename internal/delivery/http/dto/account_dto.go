package dto

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// DateLayout is the calendar date format accepted for start and end dates
const DateLayout = "2006-01-02"

// AddSlaveRequest represents the slave-add payload
type AddSlaveRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	MobileNumber string `json:"mobile_number"`
	Status       *bool  `json:"status"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	MasterID     string `json:"master_id"`
	MasterEmail  string `json:"master_email"`
}

// Validate checks field shapes; business rules are left to the workflow
func (r *AddSlaveRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if err := validEmail("email", r.Email); err != nil {
		return err
	}
	if len(strings.TrimSpace(r.MobileNumber)) < 6 {
		return fmt.Errorf("mobile_number must have at least 6 characters")
	}
	if strings.TrimSpace(r.MasterID) == "" {
		return fmt.Errorf("master_id is required")
	}
	return validEmail("master_email", r.MasterEmail)
}

// Active returns the requested status; omitted means active
func (r *AddSlaveRequest) Active() bool {
	return r.Status == nil || *r.Status
}

// AddSlaveResponse is returned after a slave was provisioned
type AddSlaveResponse struct {
	SlaveID string `json:"slave_id"`
	MT5Path string `json:"mt5_path"`
}

// AddMasterRequest represents the master-add payload
type AddMasterRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	MobileNumber string `json:"mobile_number"`
	NoOfSlave    int    `json:"no_of_slave"`
	Status       *bool  `json:"status"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
}

// Validate checks field shapes
func (r *AddMasterRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if err := validEmail("email", r.Email); err != nil {
		return err
	}
	if len(r.Password) < 6 {
		return fmt.Errorf("password must have at least 6 characters")
	}
	if r.NoOfSlave < 0 {
		return fmt.Errorf("no_of_slave must not be negative")
	}
	return nil
}

// Active returns the requested status; omitted means active
func (r *AddMasterRequest) Active() bool {
	return r.Status == nil || *r.Status
}

// StatusRequest toggles a slave or master account
type StatusRequest struct {
	SlaveID  string `json:"slave_id"`
	MasterID string `json:"master_id"`
	Status   bool   `json:"status"`
}

// SlaveLoginRequest updates trading platform credentials
type SlaveLoginRequest struct {
	SlaveID     string `json:"slave_id"`
	MTAccountNo int64  `json:"mt_account_no"`
	MTPassword  string `json:"mt_password"`
	MTServer    string `json:"mt_server"`
}

// DeleteSlaveRequest identifies the slave to delete
type DeleteSlaveRequest struct {
	SlaveID string `json:"slave_id"`
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp
func ParseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%s must be a date in YYYY-MM-DD format", field)
}

func validEmail(field, value string) error {
	addr, err := mail.ParseAddress(strings.TrimSpace(value))
	if err != nil || addr.Address != strings.TrimSpace(value) {
		return fmt.Errorf("%s is not a valid email address", field)
	}
	return nil
}
