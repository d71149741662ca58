package domain

import (
	"time"
)

// Transition operations recorded in the intent log
const (
	OperationJoin   = "join"
	OperationLeave  = "leave"
	OperationSwitch = "switch"
)

// Intent status constants
const (
	IntentPending   = "pending"
	IntentCompleted = "completed"
	IntentFailed    = "failed"
)

// Transition steps, in execution order
const (
	StepStarted            = "started"
	StepMembershipsLeft    = "memberships_left"
	StepBindingsDeactivate = "bindings_deactivated"
	StepPointerCleared     = "pointer_cleared"
	StepJoined             = "joined"
)

// TransitionIntent is written before a multi-record membership transition
// and completed after its last step, so an interrupted sequence can be found
// and re-driven.
type TransitionIntent struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Operation   string    `json:"operation"`
	FromGroupID string    `json:"from_group_id,omitempty"`
	ToGroupID   string    `json:"to_group_id,omitempty"`
	ToGroupKey  string    `json:"-"`
	Step        string    `json:"step"`
	Status      string    `json:"status"`
	Attempts    int       `json:"attempts"`
	LastError   string    `json:"last_error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
