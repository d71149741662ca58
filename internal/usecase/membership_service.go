package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"copydesk/internal/domain"
)

// MembershipService moves traders between groups. Each transition writes an
// intent before its first step and completes it after the last one; a
// transition that stops halfway stays pending for the reconciler.
type MembershipService struct {
	userRepo        domain.UserRepository
	groupRepo       domain.GroupRepository
	membershipRepo  domain.MembershipRepository
	tradingAcctRepo domain.TradingAccountRepository
	intentRepo      domain.IntentRepository
	locker          domain.Locker
	audit           domain.AuditRecorder
	now             func() time.Time
	newID           func() string
}

// NewMembershipService creates a new MembershipService
func NewMembershipService(
	userRepo domain.UserRepository,
	groupRepo domain.GroupRepository,
	membershipRepo domain.MembershipRepository,
	tradingAcctRepo domain.TradingAccountRepository,
	intentRepo domain.IntentRepository,
	locker domain.Locker,
	audit domain.AuditRecorder,
) *MembershipService {
	return &MembershipService{
		userRepo:        userRepo,
		groupRepo:       groupRepo,
		membershipRepo:  membershipRepo,
		tradingAcctRepo: tradingAcctRepo,
		intentRepo:      intentRepo,
		locker:          locker,
		audit:           audit,
		now:             time.Now,
		newID:           uuid.NewString,
	}
}

// TraderKey is the lock key serializing transitions of one trader
func TraderKey(userID string) string {
	return "membership:trader:" + userID
}

// State returns the trader's current membership state
func (s *MembershipService) State(ctx context.Context, userID string) (domain.MembershipState, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return domain.MembershipState{}, err
	}
	return stateOf(user), nil
}

// History returns the trader's membership rows, newest first
func (s *MembershipService) History(ctx context.Context, userID string) ([]*domain.Membership, error) {
	if _, err := s.getUser(ctx, userID); err != nil {
		return nil, err
	}
	memberships, err := s.membershipRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, domain.WrapError(domain.KindPersistence, domain.CodeStoreFailed,
			"failed to read membership history", err)
	}
	return memberships, nil
}

// Join moves an unjoined trader into the group identified by groupKey
func (s *MembershipService) Join(ctx context.Context, userID, groupKey string, actor domain.Actor) (*domain.Membership, error) {
	release, err := s.lockTrader(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.InGroup() {
		return nil, domain.NewError(domain.KindConflict, domain.CodeAlreadyInGroup,
			fmt.Sprintf("trader is already a member of group %s", *user.GroupID))
	}

	group, err := s.resolveGroup(ctx, groupKey)
	if err != nil {
		return nil, err
	}

	intent, err := s.startIntent(ctx, userID, domain.OperationJoin, "", group.ID)
	if err != nil {
		return nil, err
	}

	membership, err := s.joinSteps(ctx, intent, userID, group.ID)
	if err != nil {
		s.recordFailure(ctx, intent, err)
		return nil, err
	}
	s.completeIntent(ctx, intent)

	s.audit.Record(domain.AuditEvent{
		AdminID:  actor.ID(),
		Action:   "group_join",
		Entity:   "membership",
		EntityID: userID,
		ClientIP: actor.ClientIP,
		Details: map[string]interface{}{
			"summary":  fmt.Sprintf("Trader %s joined group %s", userID, group.GroupName),
			"group_id": group.ID,
		},
	})

	return membership, nil
}

// Leave removes a trader from its current group: memberships are marked
// left, group bindings are deactivated and the group pointer is cleared.
// A failure after the first step returns a partial failure naming the step.
func (s *MembershipService) Leave(ctx context.Context, userID string, actor domain.Actor) error {
	release, err := s.lockTrader(ctx, userID)
	if err != nil {
		return err
	}
	defer release()

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if !user.InGroup() {
		return domain.NewError(domain.KindConflict, domain.CodeNotInGroup, "trader is not a member of any group")
	}
	groupID := *user.GroupID

	intent, err := s.startIntent(ctx, userID, domain.OperationLeave, groupID, "")
	if err != nil {
		return err
	}

	if step, err := s.leaveSteps(ctx, intent, userID, groupID); err != nil {
		stepErr := domain.StepError(domain.CodeLeaveIncomplete, step, err)
		s.recordFailure(ctx, intent, stepErr)
		return stepErr
	}
	s.completeIntent(ctx, intent)

	s.audit.Record(domain.AuditEvent{
		AdminID:  actor.ID(),
		Action:   "group_leave",
		Entity:   "membership",
		EntityID: userID,
		ClientIP: actor.ClientIP,
		Details: map[string]interface{}{
			"summary":  fmt.Sprintf("Trader %s left group %s", userID, groupID),
			"group_id": groupID,
		},
	})

	return nil
}

// Switch moves a trader from its current group into another. The target is
// resolved before anything is written. When the join step fails after a
// complete leave, the trader stays unjoined and the intent stays pending so
// the reconciler can finish the join; the old group is not restored.
func (s *MembershipService) Switch(ctx context.Context, userID, newGroupKey string, actor domain.Actor) (*domain.Membership, error) {
	release, err := s.lockTrader(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.InGroup() {
		return nil, domain.NewError(domain.KindConflict, domain.CodeNotInGroup, "trader is not a member of any group")
	}
	fromGroupID := *user.GroupID

	target, err := s.resolveGroup(ctx, newGroupKey)
	if err != nil {
		return nil, err
	}
	if target.ID == fromGroupID {
		return nil, domain.NewError(domain.KindConflict, domain.CodeAlreadyInGroup,
			"trader is already a member of the target group")
	}

	intent, err := s.startIntent(ctx, userID, domain.OperationSwitch, fromGroupID, target.ID)
	if err != nil {
		return nil, err
	}

	if step, err := s.leaveSteps(ctx, intent, userID, fromGroupID); err != nil {
		stepErr := domain.StepError(domain.CodeSwitchIncomplete, step, err)
		s.recordFailure(ctx, intent, stepErr)
		return nil, stepErr
	}

	membership, err := s.joinSteps(ctx, intent, userID, target.ID)
	if err != nil {
		stepErr := domain.StepError(domain.CodeSwitchIncomplete, domain.StepJoined, err)
		s.recordFailure(ctx, intent, stepErr)
		return nil, stepErr
	}
	s.completeIntent(ctx, intent)

	s.audit.Record(domain.AuditEvent{
		AdminID:  actor.ID(),
		Action:   "group_switch",
		Entity:   "membership",
		EntityID: userID,
		ClientIP: actor.ClientIP,
		Details: map[string]interface{}{
			"summary":       fmt.Sprintf("Trader %s switched from group %s to %s", userID, fromGroupID, target.GroupName),
			"from_group_id": fromGroupID,
			"to_group_id":   target.ID,
		},
	})

	return membership, nil
}

// Redrive finishes a pending intent. Every step is idempotent, so steps that
// already ran are repeated harmlessly. An intent overtaken by a later join is
// completed without touching the trader.
func (s *MembershipService) Redrive(ctx context.Context, intent *domain.TransitionIntent) error {
	release, err := s.lockTrader(ctx, intent.UserID)
	if err != nil {
		return err
	}
	defer release()

	user, err := s.getUser(ctx, intent.UserID)
	if err != nil {
		return err
	}

	superseded, err := s.superseded(ctx, user, intent)
	if err != nil {
		return err
	}
	if superseded {
		log.Printf("[WARN] Intent %s for trader %s was overtaken by a later transition", intent.ID, intent.UserID)
		s.completeIntent(ctx, intent)
		return nil
	}

	switch intent.Operation {
	case domain.OperationJoin:
		if _, err := s.joinSteps(ctx, intent, intent.UserID, intent.ToGroupID); err != nil {
			return err
		}
	case domain.OperationLeave:
		if step, err := s.leaveSteps(ctx, intent, intent.UserID, intent.FromGroupID); err != nil {
			return domain.StepError(domain.CodeLeaveIncomplete, step, err)
		}
	case domain.OperationSwitch:
		if step, err := s.leaveSteps(ctx, intent, intent.UserID, intent.FromGroupID); err != nil {
			return domain.StepError(domain.CodeSwitchIncomplete, step, err)
		}
		if _, err := s.joinSteps(ctx, intent, intent.UserID, intent.ToGroupID); err != nil {
			return domain.StepError(domain.CodeSwitchIncomplete, domain.StepJoined, err)
		}
	default:
		return domain.NewError(domain.KindValidation, domain.CodeInvalidInput,
			fmt.Sprintf("unknown intent operation %q", intent.Operation))
	}

	s.completeIntent(ctx, intent)
	log.Printf("[OK] Intent %s (%s) for trader %s re-driven", intent.ID, intent.Operation, intent.UserID)
	return nil
}

// superseded reports whether the trader joined a group after the intent was
// written by some other transition
func (s *MembershipService) superseded(ctx context.Context, user *domain.User, intent *domain.TransitionIntent) (bool, error) {
	if user.InGroup() && user.GroupJoinDate != nil && user.GroupJoinDate.After(intent.CreatedAt) {
		return true, nil
	}

	active, err := s.membershipRepo.GetActive(ctx, user.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, domain.WrapError(domain.KindPersistence, domain.CodeStoreFailed,
			"failed to read active membership", err)
	}

	return active.JoinedAt.After(intent.CreatedAt) && active.GroupID != intent.ToGroupID, nil
}

// leaveSteps runs the three leave steps and returns the failing step name
func (s *MembershipService) leaveSteps(ctx context.Context, intent *domain.TransitionIntent, userID, groupID string) (string, error) {
	if _, err := s.membershipRepo.MarkLeft(ctx, userID, groupID, s.now()); err != nil {
		return domain.StepMembershipsLeft, err
	}
	s.advance(ctx, intent, domain.StepMembershipsLeft)

	if _, err := s.tradingAcctRepo.Deactivate(ctx, userID, groupID); err != nil {
		return domain.StepBindingsDeactivate, err
	}
	s.advance(ctx, intent, domain.StepBindingsDeactivate)

	if err := s.userRepo.ClearGroup(ctx, userID, groupID); err != nil {
		return domain.StepPointerCleared, err
	}
	s.advance(ctx, intent, domain.StepPointerCleared)

	return "", nil
}

// joinSteps activates the membership row and sets the group pointer
func (s *MembershipService) joinSteps(ctx context.Context, intent *domain.TransitionIntent, userID, groupID string) (*domain.Membership, error) {
	joinedAt := s.now()

	membership, err := s.membershipRepo.Activate(ctx, userID, groupID, joinedAt)
	if errors.Is(err, domain.ErrActiveElsewhere) {
		return nil, domain.WrapError(domain.KindConflict, domain.CodeAlreadyInGroup,
			"trader has an active membership in another group", err)
	}
	if err != nil {
		return nil, domain.WrapError(domain.KindPersistence, domain.CodeStoreFailed,
			"failed to activate membership", err)
	}

	if err := s.userRepo.SetGroup(ctx, userID, groupID, joinedAt); err != nil {
		return nil, domain.WrapError(domain.KindPersistence, domain.CodeStoreFailed,
			"failed to set current group", err)
	}
	s.advance(ctx, intent, domain.StepJoined)

	return membership, nil
}

func (s *MembershipService) lockTrader(ctx context.Context, userID string) (func(), error) {
	release, err := s.locker.Acquire(ctx, TraderKey(userID))
	if err != nil {
		return nil, domain.WrapError(domain.KindConflict, domain.CodeLockBusy,
			"another transition for this trader is in progress", err)
	}
	return release, nil
}

func (s *MembershipService) getUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.WrapError(domain.KindNotFound, domain.CodeUserNotFound,
			fmt.Sprintf("user %s not found", userID), err)
	}
	if err != nil {
		return nil, domain.WrapError(domain.KindPersistence, domain.CodeStoreFailed, "failed to read user", err)
	}
	return user, nil
}

func (s *MembershipService) resolveGroup(ctx context.Context, groupKey string) (*domain.Group, error) {
	group, err := s.groupRepo.GetByAPIKey(ctx, groupKey)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.WrapError(domain.KindNotFound, domain.CodeGroupNotFound, "Invalid API key", err)
	}
	if err != nil {
		return nil, domain.WrapError(domain.KindPersistence, domain.CodeStoreFailed, "failed to resolve group", err)
	}
	return group, nil
}

func (s *MembershipService) startIntent(ctx context.Context, userID, operation, fromGroupID, toGroupID string) (*domain.TransitionIntent, error) {
	now := s.now()
	intent := &domain.TransitionIntent{
		ID:          s.newID(),
		UserID:      userID,
		Operation:   operation,
		FromGroupID: fromGroupID,
		ToGroupID:   toGroupID,
		Step:        domain.StepStarted,
		Status:      domain.IntentPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.intentRepo.Create(ctx, intent); err != nil {
		return nil, domain.WrapError(domain.KindPersistence, domain.CodeStoreFailed,
			"failed to record transition intent", err)
	}
	return intent, nil
}

// Intent bookkeeping below is best effort: the steps are idempotent, so a
// lost update only means the reconciler repeats work.

func (s *MembershipService) advance(ctx context.Context, intent *domain.TransitionIntent, step string) {
	if err := s.intentRepo.Advance(ctx, intent.ID, step); err != nil {
		log.Printf("[WARN] Failed to advance intent %s to %s: %v", intent.ID, step, err)
		return
	}
	intent.Step = step
}

func (s *MembershipService) completeIntent(ctx context.Context, intent *domain.TransitionIntent) {
	if err := s.intentRepo.Complete(ctx, intent.ID); err != nil {
		log.Printf("[WARN] Failed to complete intent %s: %v", intent.ID, err)
		return
	}
	intent.Status = domain.IntentCompleted
}

func (s *MembershipService) recordFailure(ctx context.Context, intent *domain.TransitionIntent, cause error) {
	log.Printf("ERROR: %s for trader %s stopped at step %s: %v", intent.Operation, intent.UserID, intent.Step, cause)
	if err := s.intentRepo.RecordFailure(ctx, intent.ID, cause.Error(), false); err != nil {
		log.Printf("[WARN] Failed to record failure on intent %s: %v", intent.ID, err)
	}
}

func stateOf(user *domain.User) domain.MembershipState {
	state := domain.MembershipState{UserID: user.ID}
	if user.InGroup() {
		state.GroupID = *user.GroupID
		state.JoinedAt = user.GroupJoinDate
	}
	return state
}
