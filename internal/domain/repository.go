package domain

import (
	"context"
	"time"
)

// MasterRepository defines the interface for master account data operations
type MasterRepository interface {
	// Create creates a new master account
	Create(ctx context.Context, master *MasterAccount) error

	// FindByIDAndEmail returns the master matching both fields, or ErrNotFound
	FindByIDAndEmail(ctx context.Context, masterID, email string) (*MasterAccount, error)

	// FindByID returns the master with the given id, or ErrNotFound
	FindByID(ctx context.Context, masterID string) (*MasterAccount, error)

	// FindByEmail returns the master with the given email, or ErrNotFound
	FindByEmail(ctx context.Context, email string) (*MasterAccount, error)

	// GetAll retrieves all masters, newest first
	GetAll(ctx context.Context) ([]*MasterAccount, error)

	// UpdateStatus sets the lifecycle status, or returns ErrNotFound
	UpdateStatus(ctx context.Context, masterID, status string) error
}

// SlaveFilter narrows slave listings; empty fields are ignored
type SlaveFilter struct {
	MasterID string
	Status   string
}

// SlaveRepository defines the interface for slave account data operations
type SlaveRepository interface {
	// Insert stores a new slave account. Returns ErrDuplicateEmail or
	// ErrDuplicateHandle when a uniqueness constraint rejects the row.
	Insert(ctx context.Context, slave *SlaveAccount) error

	// GetByID retrieves a slave account, or ErrNotFound
	GetByID(ctx context.Context, slaveID string) (*SlaveAccount, error)

	// CountByMaster counts the slave accounts bound to a master
	CountByMaster(ctx context.Context, masterID string) (int, error)

	// ExistsByEmail reports whether a slave account uses the email
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ListHandles returns the resource handles of all slave accounts
	ListHandles(ctx context.Context) ([]string, error)

	// List retrieves slave accounts, newest first
	List(ctx context.Context, filter SlaveFilter) ([]*SlaveAccount, error)

	// UpdateStatus sets the lifecycle status, or returns ErrNotFound
	UpdateStatus(ctx context.Context, slaveID, status string) error

	// UpdateLogin stores platform credentials and clears cached platform stats
	UpdateLogin(ctx context.Context, slaveID string, login MT5Login) error

	// Delete removes a slave account and returns the number of deleted rows
	Delete(ctx context.Context, slaveID string) (int64, error)
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// GetByID retrieves a user, or ErrNotFound
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail retrieves a user by email, or ErrNotFound
	GetByEmail(ctx context.Context, email string) (*User, error)

	// ExistsByEmail reports whether a user uses the email
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// SetGroup sets the current-group pointer and join date
	SetGroup(ctx context.Context, userID, groupID string, joinedAt time.Time) error

	// ClearGroup unsets the current-group pointer, join date and referral code
	// when the pointer still references groupID; otherwise it is a no-op
	ClearGroup(ctx context.Context, userID, groupID string) error
}

// GroupRepository defines the interface for group lookups
type GroupRepository interface {
	// GetByAPIKey resolves a group by its API key, or ErrNotFound
	GetByAPIKey(ctx context.Context, apiKey string) (*Group, error)

	// GetByID retrieves a group, or ErrNotFound
	GetByID(ctx context.Context, id string) (*Group, error)
}

// MembershipRepository defines the interface for membership history rows
type MembershipRepository interface {
	// Activate creates or reactivates the active row for (user, group)
	Activate(ctx context.Context, userID, groupID string, joinedAt time.Time) (*Membership, error)

	// MarkLeft marks every non-left row for (user, group) as left and
	// returns the number of rows changed
	MarkLeft(ctx context.Context, userID, groupID string, leftAt time.Time) (int64, error)

	// GetActive returns the active row for a user, or ErrNotFound
	GetActive(ctx context.Context, userID string) (*Membership, error)

	// ListByUser returns a user's membership history, newest first
	ListByUser(ctx context.Context, userID string) ([]*Membership, error)
}

// TradingAccountRepository defines the interface for group account bindings
type TradingAccountRepository interface {
	// Deactivate marks every binding for (user, group) inactive and returns
	// the number of rows changed
	Deactivate(ctx context.Context, userID, groupID string) (int64, error)
}

// IntentRepository defines the interface for the transition intent log
type IntentRepository interface {
	// Create stores a new pending intent
	Create(ctx context.Context, intent *TransitionIntent) error

	// Advance records the last completed step of an intent
	Advance(ctx context.Context, id, step string) error

	// Complete marks an intent completed
	Complete(ctx context.Context, id string) error

	// RecordFailure bumps the attempt counter and stores the error; a
	// terminal failure also moves the intent to failed
	RecordFailure(ctx context.Context, id, lastError string, terminal bool) error

	// ListPending returns pending intents last updated before the cutoff
	ListPending(ctx context.Context, olderThan time.Time, limit int) ([]*TransitionIntent, error)
}

// AuditRepository persists audit events
type AuditRepository interface {
	// Append stores one audit event
	Append(ctx context.Context, event AuditEvent) error
}
