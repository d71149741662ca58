package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"copydesk/internal/domain"
)

// DefaultHandleRetries bounds how often an insert is retried after another
// writer took the same resource handle
const DefaultHandleRetries = 5

// ProvisionSlaveInput is the request to register a slave under a master
type ProvisionSlaveInput struct {
	Name         string
	Email        string
	MobileNumber string
	Active       bool
	StartDate    time.Time
	EndDate      time.Time
	MasterID     string
	MasterEmail  string
}

// ProvisionResult is returned after a slave account was stored
type ProvisionResult struct {
	SlaveID        string
	ResourceHandle string
	Message        string
	Slave          *domain.SlaveAccount
}

// ProvisioningService registers slave accounts under masters
type ProvisioningService struct {
	validator     *CapacityValidator
	allocator     *HandleAllocator
	slaveRepo     domain.SlaveRepository
	locker        domain.Locker
	audit         domain.AuditRecorder
	handleRetries int
	now           func() time.Time
	newID         func() string
}

// NewProvisioningService creates a new ProvisioningService
func NewProvisioningService(
	validator *CapacityValidator,
	allocator *HandleAllocator,
	slaveRepo domain.SlaveRepository,
	locker domain.Locker,
	audit domain.AuditRecorder,
	handleRetries int,
) *ProvisioningService {
	if handleRetries <= 0 {
		handleRetries = DefaultHandleRetries
	}
	return &ProvisioningService{
		validator:     validator,
		allocator:     allocator,
		slaveRepo:     slaveRepo,
		locker:        locker,
		audit:         audit,
		handleRetries: handleRetries,
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

// ProvisionKey is the lock key serializing provisioning for one master
func ProvisionKey(masterID string) string {
	return "provision:master:" + masterID
}

// AddSlave validates, allocates a resource handle and stores a new slave.
// Steps run in order and the first failure stops the workflow; nothing is
// written unless every check passed.
func (s *ProvisioningService) AddSlave(ctx context.Context, input ProvisionSlaveInput, actor domain.Actor) (*ProvisionResult, error) {
	if input.EndDate.Before(input.StartDate) {
		return nil, domain.NewError(domain.KindValidation, domain.CodeInvalidDateRange,
			"End date must not be before start date")
	}

	email := strings.TrimSpace(input.Email)

	master, err := s.validator.ResolveMaster(ctx, input.MasterID, input.MasterEmail)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, ProvisionKey(master.MasterID))
	if err != nil {
		return nil, domain.WrapError(domain.KindConflict, domain.CodeLockBusy,
			"another provisioning request for this master is in progress", err)
	}
	defer release()

	if err := s.validator.CheckCapacity(ctx, email, master); err != nil {
		return nil, err
	}

	now := s.now()
	slave := &domain.SlaveAccount{
		SlaveID:      s.newID(),
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		MobileNumber: strings.TrimSpace(input.MobileNumber),
		Status:       domain.StatusFromBool(input.Active),
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		MasterID:     master.MasterID,
		MasterEmail:  master.Email,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.insertWithFreshHandle(ctx, slave); err != nil {
		return nil, err
	}

	log.Printf("[OK] Slave %s provisioned under master %s with handle %s",
		slave.SlaveID, slave.MasterID, slave.ResourceHandle)

	s.audit.Record(domain.AuditEvent{
		AdminID:  actor.ID(),
		Action:   "slave_add",
		Entity:   "slave",
		EntityID: slave.SlaveID,
		ClientIP: actor.ClientIP,
		Details: map[string]interface{}{
			"summary":   fmt.Sprintf("Added slave %s (%s) under master %s", slave.Name, slave.Email, slave.MasterID),
			"master_id": slave.MasterID,
			"mt5_path":  slave.ResourceHandle,
		},
	})

	return &ProvisionResult{
		SlaveID:        slave.SlaveID,
		ResourceHandle: slave.ResourceHandle,
		Message:        fmt.Sprintf("Slave trader '%s' added successfully", slave.Name),
		Slave:          slave,
	}, nil
}

// insertWithFreshHandle allocates a handle and inserts, allocating again when
// the handle was taken between the read and the insert
func (s *ProvisioningService) insertWithFreshHandle(ctx context.Context, slave *domain.SlaveAccount) error {
	var lastErr error
	for attempt := 1; attempt <= s.handleRetries; attempt++ {
		handle, err := s.allocator.Next(ctx)
		if err != nil {
			return err
		}
		slave.ResourceHandle = handle

		err = s.slaveRepo.Insert(ctx, slave)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, domain.ErrDuplicateHandle):
			log.Printf("[WARN] Resource handle %s taken, retrying (%d/%d)", handle, attempt, s.handleRetries)
			lastErr = err
			continue
		case errors.Is(err, domain.ErrDuplicateEmail):
			return domain.WrapError(domain.KindConflict, domain.CodeDuplicateEmail,
				fmt.Sprintf("email %s already exists", slave.Email), err)
		default:
			return domain.WrapError(domain.KindPersistence, domain.CodeInsertFailed,
				"failed to store slave account", err)
		}
	}

	return domain.WrapError(domain.KindConflict, domain.CodeHandleConflict,
		"could not allocate a free resource handle", lastErr)
}
