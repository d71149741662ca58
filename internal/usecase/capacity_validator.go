package usecase

import (
	"context"
	"errors"
	"fmt"

	"copydesk/internal/domain"
)

// CapacityValidator checks master quota and email uniqueness before a slave
// account is written. It never writes.
type CapacityValidator struct {
	masterRepo domain.MasterRepository
	slaveRepo  domain.SlaveRepository
	userRepo   domain.UserRepository
}

// NewCapacityValidator creates a new CapacityValidator
func NewCapacityValidator(
	masterRepo domain.MasterRepository,
	slaveRepo domain.SlaveRepository,
	userRepo domain.UserRepository,
) *CapacityValidator {
	return &CapacityValidator{
		masterRepo: masterRepo,
		slaveRepo:  slaveRepo,
		userRepo:   userRepo,
	}
}

// Validate resolves the master and runs the quota and duplicate checks
func (v *CapacityValidator) Validate(ctx context.Context, email, masterID, masterEmail string) (*domain.MasterAccount, error) {
	master, err := v.ResolveMaster(ctx, masterID, masterEmail)
	if err != nil {
		return nil, err
	}
	if err := v.CheckCapacity(ctx, email, master); err != nil {
		return nil, err
	}
	return master, nil
}

// ResolveMaster looks the master up by id and email, falling back to id only
// and then email only
func (v *CapacityValidator) ResolveMaster(ctx context.Context, masterID, masterEmail string) (*domain.MasterAccount, error) {
	lookups := []func() (*domain.MasterAccount, error){
		func() (*domain.MasterAccount, error) { return v.masterRepo.FindByIDAndEmail(ctx, masterID, masterEmail) },
		func() (*domain.MasterAccount, error) { return v.masterRepo.FindByID(ctx, masterID) },
		func() (*domain.MasterAccount, error) { return v.masterRepo.FindByEmail(ctx, masterEmail) },
	}

	for _, lookup := range lookups {
		master, err := lookup()
		if err == nil {
			return master, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, readFailed(err)
		}
	}

	return nil, domain.NewError(domain.KindNotFound, domain.CodeMasterNotFound,
		fmt.Sprintf("master %s (%s) not found", masterID, masterEmail))
}

// CheckCapacity fails when the master's quota is used up or the email is taken
func (v *CapacityValidator) CheckCapacity(ctx context.Context, email string, master *domain.MasterAccount) error {
	if master.HasQuota() {
		count, err := v.slaveRepo.CountByMaster(ctx, master.MasterID)
		if err != nil {
			return readFailed(err)
		}
		if count >= master.AllowedSlaves {
			return domain.NewError(domain.KindConflict, domain.CodeQuotaExceeded,
				"Maximum slave accounts limit reached for this master")
		}
	}

	userExists, err := v.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return readFailed(err)
	}
	if userExists {
		return duplicateEmail(email)
	}

	slaveExists, err := v.slaveRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return readFailed(err)
	}
	if slaveExists {
		return duplicateEmail(email)
	}

	return nil
}

func readFailed(err error) error {
	return domain.WrapError(domain.KindPersistence, domain.CodeValidationReadFailed,
		"failed to read validation data", err)
}

func duplicateEmail(email string) error {
	return domain.NewError(domain.KindConflict, domain.CodeDuplicateEmail,
		fmt.Sprintf("email %s already exists", email))
}
