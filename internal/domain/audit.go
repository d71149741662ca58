package domain

import (
	"time"
)

// SystemActorID is recorded when no authenticated admin is available
const SystemActorID = "0"

// AuditEvent is a structured record handed to the audit sink
type AuditEvent struct {
	AdminID   string                 `json:"admin_id"`
	Action    string                 `json:"action"`
	Entity    string                 `json:"entity"`
	EntityID  string                 `json:"entity_id,omitempty"`
	ClientIP  string                 `json:"client_ip"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"update_time"`
}

// Actor identifies who triggered an operation
type Actor struct {
	AdminID  string
	ClientIP string
}

// ID returns the admin id or the system actor id
func (a Actor) ID() string {
	if a.AdminID == "" {
		return SystemActorID
	}
	return a.AdminID
}
