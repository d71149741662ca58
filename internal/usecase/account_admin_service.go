package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"copydesk/internal/domain"
)

// CreateMasterInput is the request to register a master account
type CreateMasterInput struct {
	Name          string
	Email         string
	Password      string
	MobileNumber  string
	AllowedSlaves int
	Active        bool
	StartDate     time.Time
	EndDate       time.Time
}

// UpdateLoginInput carries new trading platform credentials for a slave
type UpdateLoginInput struct {
	SlaveID   string
	AccountNo int64
	Password  string
	Server    string
}

// AccountAdminService handles the administrative master and slave operations
// around provisioning
type AccountAdminService struct {
	masterRepo domain.MasterRepository
	slaveRepo  domain.SlaveRepository
	audit      domain.AuditRecorder
	now        func() time.Time
	newID      func() string
}

// NewAccountAdminService creates a new AccountAdminService
func NewAccountAdminService(
	masterRepo domain.MasterRepository,
	slaveRepo domain.SlaveRepository,
	audit domain.AuditRecorder,
) *AccountAdminService {
	return &AccountAdminService{
		masterRepo: masterRepo,
		slaveRepo:  slaveRepo,
		audit:      audit,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// CreateMaster stores a new master with a bcrypt password hash
func (s *AccountAdminService) CreateMaster(ctx context.Context, input CreateMasterInput, actor domain.Actor) (*domain.MasterAccount, error) {
	if input.EndDate.Before(input.StartDate) {
		return nil, domain.NewError(domain.KindValidation, domain.CodeInvalidDateRange,
			"End date must not be before start date")
	}
	if input.AllowedSlaves < 0 {
		return nil, domain.NewError(domain.KindValidation, domain.CodeInvalidInput,
			"no_of_slave must not be negative")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.WrapError(domain.KindValidation, domain.CodeInvalidInput, "password cannot be hashed", err)
	}

	now := s.now()
	master := &domain.MasterAccount{
		MasterID:      s.newID(),
		Name:          strings.TrimSpace(input.Name),
		Email:         strings.TrimSpace(input.Email),
		MobileNumber:  strings.TrimSpace(input.MobileNumber),
		PasswordHash:  string(hash),
		AllowedSlaves: input.AllowedSlaves,
		Status:        domain.StatusFromBool(input.Active),
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.masterRepo.Create(ctx, master); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.WrapError(domain.KindConflict, domain.CodeDuplicateEmail,
				fmt.Sprintf("email %s already exists", master.Email), err)
		}
		return nil, domain.WrapError(domain.KindPersistence, domain.CodeInsertFailed, "failed to store master account", err)
	}

	log.Printf("[OK] Master %s (%s) created", master.MasterID, master.Email)
	s.record(actor, "master_add", "master", master.MasterID,
		fmt.Sprintf("Added master %s (%s)", master.Name, master.Email))

	return master, nil
}

// ListMasters returns every master; password hashes never leave the domain type
func (s *AccountAdminService) ListMasters(ctx context.Context) ([]*domain.MasterAccount, error) {
	masters, err := s.masterRepo.GetAll(ctx)
	if err != nil {
		return nil, domain.WrapError(domain.KindPersistence, domain.CodeStoreFailed, "failed to read masters", err)
	}
	if masters == nil {
		masters = []*domain.MasterAccount{}
	}
	return masters, nil
}

// SetMasterStatus activates or deactivates a master
func (s *AccountAdminService) SetMasterStatus(ctx context.Context, masterID string, active bool, actor domain.Actor) error {
	status := domain.StatusFromBool(active)
	if err := s.masterRepo.UpdateStatus(ctx, masterID, status); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.WrapError(domain.KindNotFound, domain.CodeMasterNotFound, "Master not found", err)
		}
		return domain.WrapError(domain.KindPersistence, domain.CodeStoreFailed, "failed to update master status", err)
	}

	s.record(actor, "master_status", "master", masterID,
		fmt.Sprintf("Set master %s status to %s", masterID, status))
	return nil
}

// ListSlaves returns slaves filtered by master and status
func (s *AccountAdminService) ListSlaves(ctx context.Context, filter domain.SlaveFilter) ([]*domain.SlaveAccount, error) {
	slaves, err := s.slaveRepo.List(ctx, filter)
	if err != nil {
		return nil, domain.WrapError(domain.KindPersistence, domain.CodeStoreFailed, "failed to read slaves", err)
	}
	if slaves == nil {
		slaves = []*domain.SlaveAccount{}
	}
	return slaves, nil
}

// SetSlaveStatus activates or deactivates a slave
func (s *AccountAdminService) SetSlaveStatus(ctx context.Context, slaveID string, active bool, actor domain.Actor) error {
	status := domain.StatusFromBool(active)
	if err := s.slaveRepo.UpdateStatus(ctx, slaveID, status); err != nil {
		return slaveWriteError(err, "failed to update slave status")
	}

	s.record(actor, "slave_status", "slave", slaveID,
		fmt.Sprintf("Set slave %s status to %s", slaveID, status))
	return nil
}

// UpdateSlaveLogin stores new platform credentials and clears the cached
// platform snapshot, which belongs to the previous login
func (s *AccountAdminService) UpdateSlaveLogin(ctx context.Context, input UpdateLoginInput, actor domain.Actor) error {
	if input.AccountNo <= 0 || strings.TrimSpace(input.Server) == "" {
		return domain.NewError(domain.KindValidation, domain.CodeInvalidInput,
			"mt_account_no and mt_server are required")
	}

	login := domain.MT5Login{
		Server:    strings.TrimSpace(input.Server),
		AccountNo: input.AccountNo,
		Password:  input.Password,
	}
	if err := s.slaveRepo.UpdateLogin(ctx, input.SlaveID, login); err != nil {
		return slaveWriteError(err, "failed to update slave login")
	}

	s.record(actor, "slave_login", "slave", input.SlaveID,
		fmt.Sprintf("Updated platform login of slave %s to %d@%s", input.SlaveID, login.AccountNo, login.Server))
	return nil
}

// DeleteSlave removes a slave; deleting a missing slave is a not-found error
func (s *AccountAdminService) DeleteSlave(ctx context.Context, slaveID string, actor domain.Actor) error {
	deleted, err := s.slaveRepo.Delete(ctx, slaveID)
	if err != nil {
		return domain.WrapError(domain.KindPersistence, domain.CodeStoreFailed, "failed to delete slave", err)
	}
	if deleted == 0 {
		return domain.NewError(domain.KindNotFound, domain.CodeSlaveNotFound, "Slave not found")
	}

	s.record(actor, "slave_delete", "slave", slaveID, fmt.Sprintf("Deleted slave %s", slaveID))
	return nil
}

func (s *AccountAdminService) record(actor domain.Actor, action, entity, entityID, summary string) {
	s.audit.Record(domain.AuditEvent{
		AdminID:  actor.ID(),
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		ClientIP: actor.ClientIP,
		Details:  map[string]interface{}{"summary": summary},
	})
}

func slaveWriteError(err error, message string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.WrapError(domain.KindNotFound, domain.CodeSlaveNotFound, "Slave not found", err)
	}
	return domain.WrapError(domain.KindPersistence, domain.CodeStoreFailed, message, err)
}
