package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"copydesk/internal/domain"
)

// memStore backs every repository interface with maps so workflows can be
// exercised without a database. fail injects an error for a named operation.
type memStore struct {
	mu sync.Mutex

	masters  map[string]*domain.MasterAccount
	slaves   map[string]*domain.SlaveAccount
	users    map[string]*domain.User
	groups   map[string]*domain.Group
	members  []*domain.Membership
	bindings []*domain.TradingAccount
	intents  map[string]*domain.TransitionIntent

	fail        map[string]error
	failOnce    map[string]error
	calls       map[string]int
	beforeWrite map[string]func()
}

func newMemStore() *memStore {
	return &memStore{
		masters:     make(map[string]*domain.MasterAccount),
		slaves:      make(map[string]*domain.SlaveAccount),
		users:       make(map[string]*domain.User),
		groups:      make(map[string]*domain.Group),
		intents:     make(map[string]*domain.TransitionIntent),
		fail:        make(map[string]error),
		failOnce:    make(map[string]error),
		calls:       make(map[string]int),
		beforeWrite: make(map[string]func()),
	}
}

// enter records a call and returns the injected error, if any; mu must be held
func (s *memStore) enter(op string) error {
	s.calls[op]++
	if hook, ok := s.beforeWrite[op]; ok {
		delete(s.beforeWrite, op)
		hook()
	}
	if err, ok := s.failOnce[op]; ok {
		delete(s.failOnce, op)
		return err
	}
	return s.fail[op]
}

func (s *memStore) setFail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, op)
		return
	}
	s.fail[op] = err
}

func (s *memStore) callCount(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *memStore) addMaster(m *domain.MasterAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.masters[m.MasterID] = m
}

func (s *memStore) addSlaveLocked(sl *domain.SlaveAccount) {
	s.slaves[sl.SlaveID] = sl
}

func (s *memStore) addSlave(sl *domain.SlaveAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addSlaveLocked(sl)
}

func (s *memStore) addUser(u *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *memStore) addGroup(g *domain.Group) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[g.ID] = g
}

func (s *memStore) addBinding(userID, groupID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings = append(s.bindings, &domain.TradingAccount{
		ID:      fmt.Sprintf("ta-%d", len(s.bindings)+1),
		UserID:  userID,
		GroupID: groupID,
		Status:  domain.AccountStatusActive,
	})
}

func (s *memStore) user(id string) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *s.users[id]
	return &u
}

func (s *memStore) slaveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slaves)
}

func (s *memStore) activeMemberships(userID string) []domain.Membership {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Membership
	for _, m := range s.members {
		if m.UserID == userID && m.Status == domain.MembershipActive {
			out = append(out, *m)
		}
	}
	return out
}

func (s *memStore) bindingStatuses(userID, groupID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, b := range s.bindings {
		if b.UserID == userID && b.GroupID == groupID {
			out = append(out, b.Status)
		}
	}
	return out
}

func (s *memStore) intentList() []domain.TransitionIntent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.TransitionIntent, 0, len(s.intents))
	for _, in := range s.intents {
		out = append(out, *in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *memStore) repos() (
	*memMasterRepo, *memSlaveRepo, *memUserRepo, *memGroupRepo,
	*memMembershipRepo, *memTradingAccountRepo, *memIntentRepo,
) {
	return &memMasterRepo{s}, &memSlaveRepo{s}, &memUserRepo{s}, &memGroupRepo{s},
		&memMembershipRepo{s}, &memTradingAccountRepo{s}, &memIntentRepo{s}
}

type memMasterRepo struct{ s *memStore }

func (r *memMasterRepo) Create(ctx context.Context, master *domain.MasterAccount) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("master.Create"); err != nil {
		return err
	}
	for _, m := range r.s.masters {
		if m.Email == master.Email {
			return fmt.Errorf("failed to create master account: %w", domain.ErrDuplicateEmail)
		}
	}
	cp := *master
	r.s.masters[master.MasterID] = &cp
	return nil
}

func (r *memMasterRepo) FindByIDAndEmail(ctx context.Context, masterID, email string) (*domain.MasterAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("master.Find"); err != nil {
		return nil, err
	}
	if m, ok := r.s.masters[masterID]; ok && m.Email == email {
		cp := *m
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memMasterRepo) FindByID(ctx context.Context, masterID string) (*domain.MasterAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("master.Find"); err != nil {
		return nil, err
	}
	if m, ok := r.s.masters[masterID]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memMasterRepo) FindByEmail(ctx context.Context, email string) (*domain.MasterAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("master.Find"); err != nil {
		return nil, err
	}
	for _, m := range r.s.masters {
		if m.Email == email {
			cp := *m
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memMasterRepo) GetAll(ctx context.Context) ([]*domain.MasterAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("master.GetAll"); err != nil {
		return nil, err
	}
	var out []*domain.MasterAccount
	for _, m := range r.s.masters {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memMasterRepo) UpdateStatus(ctx context.Context, masterID, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("master.UpdateStatus"); err != nil {
		return err
	}
	m, ok := r.s.masters[masterID]
	if !ok {
		return domain.ErrNotFound
	}
	m.Status = status
	return nil
}

type memSlaveRepo struct{ s *memStore }

func (r *memSlaveRepo) Insert(ctx context.Context, slave *domain.SlaveAccount) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("slave.Insert"); err != nil {
		return err
	}
	for _, existing := range r.s.slaves {
		if existing.Email == slave.Email {
			return fmt.Errorf("failed to insert slave account: %w", domain.ErrDuplicateEmail)
		}
		if existing.ResourceHandle == slave.ResourceHandle {
			return fmt.Errorf("failed to insert slave account: %w", domain.ErrDuplicateHandle)
		}
	}
	cp := *slave
	r.s.slaves[slave.SlaveID] = &cp
	return nil
}

func (r *memSlaveRepo) GetByID(ctx context.Context, slaveID string) (*domain.SlaveAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if sl, ok := r.s.slaves[slaveID]; ok {
		cp := *sl
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memSlaveRepo) CountByMaster(ctx context.Context, masterID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("slave.CountByMaster"); err != nil {
		return 0, err
	}
	count := 0
	for _, sl := range r.s.slaves {
		if sl.MasterID == masterID {
			count++
		}
	}
	return count, nil
}

func (r *memSlaveRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("slave.ExistsByEmail"); err != nil {
		return false, err
	}
	for _, sl := range r.s.slaves {
		if sl.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *memSlaveRepo) ListHandles(ctx context.Context) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("slave.ListHandles"); err != nil {
		return nil, err
	}
	var handles []string
	for _, sl := range r.s.slaves {
		handles = append(handles, sl.ResourceHandle)
	}
	return handles, nil
}

func (r *memSlaveRepo) List(ctx context.Context, filter domain.SlaveFilter) ([]*domain.SlaveAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("slave.List"); err != nil {
		return nil, err
	}
	var out []*domain.SlaveAccount
	for _, sl := range r.s.slaves {
		if filter.MasterID != "" && sl.MasterID != filter.MasterID {
			continue
		}
		if filter.Status != "" && sl.Status != filter.Status {
			continue
		}
		cp := *sl
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return strings.Compare(out[i].SlaveID, out[j].SlaveID) < 0 })
	return out, nil
}

func (r *memSlaveRepo) UpdateStatus(ctx context.Context, slaveID, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("slave.UpdateStatus"); err != nil {
		return err
	}
	sl, ok := r.s.slaves[slaveID]
	if !ok {
		return domain.ErrNotFound
	}
	sl.Status = status
	return nil
}

func (r *memSlaveRepo) UpdateLogin(ctx context.Context, slaveID string, login domain.MT5Login) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("slave.UpdateLogin"); err != nil {
		return err
	}
	sl, ok := r.s.slaves[slaveID]
	if !ok {
		return domain.ErrNotFound
	}
	sl.MT5Login = &login
	sl.MT5Stats = nil
	return nil
}

func (r *memSlaveRepo) Delete(ctx context.Context, slaveID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("slave.Delete"); err != nil {
		return 0, err
	}
	if _, ok := r.s.slaves[slaveID]; !ok {
		return 0, nil
	}
	delete(r.s.slaves, slaveID)
	return 1, nil
}

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("user.GetByID"); err != nil {
		return nil, err
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("failed to get user by ID: %w", domain.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("user.ExistsByEmail"); err != nil {
		return false, err
	}
	for _, u := range r.s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUserRepo) SetGroup(ctx context.Context, userID, groupID string, joinedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("user.SetGroup"); err != nil {
		return err
	}
	u, ok := r.s.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	g := groupID
	at := joinedAt
	u.GroupID = &g
	u.GroupJoinDate = &at
	return nil
}

func (r *memUserRepo) ClearGroup(ctx context.Context, userID, groupID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("user.ClearGroup"); err != nil {
		return err
	}
	u, ok := r.s.users[userID]
	if !ok || u.GroupID == nil || *u.GroupID != groupID {
		return nil
	}
	u.GroupID = nil
	u.GroupJoinDate = nil
	u.ReferralCodeUsed = nil
	return nil
}

type memGroupRepo struct{ s *memStore }

func (r *memGroupRepo) GetByAPIKey(ctx context.Context, apiKey string) (*domain.Group, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("group.GetByAPIKey"); err != nil {
		return nil, err
	}
	for _, g := range r.s.groups {
		if g.APIKey == apiKey {
			cp := *g
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("failed to get group by api key: %w", domain.ErrNotFound)
}

func (r *memGroupRepo) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if g, ok := r.s.groups[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

type memMembershipRepo struct{ s *memStore }

func (r *memMembershipRepo) Activate(ctx context.Context, userID, groupID string, joinedAt time.Time) (*domain.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("membership.Activate"); err != nil {
		return nil, err
	}
	for _, m := range r.s.members {
		if m.UserID != userID || m.Status != domain.MembershipActive {
			continue
		}
		if m.GroupID != groupID {
			return nil, domain.ErrActiveElsewhere
		}
		m.JoinedAt = joinedAt
		cp := *m
		return &cp, nil
	}
	m := &domain.Membership{
		ID:       fmt.Sprintf("m-%d", len(r.s.members)+1),
		UserID:   userID,
		GroupID:  groupID,
		Status:   domain.MembershipActive,
		JoinedAt: joinedAt,
	}
	r.s.members = append(r.s.members, m)
	cp := *m
	return &cp, nil
}

func (r *memMembershipRepo) MarkLeft(ctx context.Context, userID, groupID string, leftAt time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("membership.MarkLeft"); err != nil {
		return 0, err
	}
	var n int64
	for _, m := range r.s.members {
		if m.UserID == userID && m.GroupID == groupID && m.Status != domain.MembershipLeft {
			at := leftAt
			m.Status = domain.MembershipLeft
			m.LeftAt = &at
			n++
		}
	}
	return n, nil
}

func (r *memMembershipRepo) GetActive(ctx context.Context, userID string) (*domain.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.members {
		if m.UserID == userID && m.Status == domain.MembershipActive {
			cp := *m
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memMembershipRepo) ListByUser(ctx context.Context, userID string) ([]*domain.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Membership
	for i := len(r.s.members) - 1; i >= 0; i-- {
		if m := r.s.members[i]; m.UserID == userID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memTradingAccountRepo struct{ s *memStore }

func (r *memTradingAccountRepo) Deactivate(ctx context.Context, userID, groupID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("trading.Deactivate"); err != nil {
		return 0, err
	}
	var n int64
	for _, b := range r.s.bindings {
		if b.UserID == userID && b.GroupID == groupID && b.Status != domain.AccountStatusInactive {
			b.Status = domain.AccountStatusInactive
			n++
		}
	}
	return n, nil
}

type memIntentRepo struct{ s *memStore }

func (r *memIntentRepo) Create(ctx context.Context, intent *domain.TransitionIntent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("intent.Create"); err != nil {
		return err
	}
	cp := *intent
	r.s.intents[intent.ID] = &cp
	return nil
}

func (r *memIntentRepo) Advance(ctx context.Context, id, step string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("intent.Advance"); err != nil {
		return err
	}
	if in, ok := r.s.intents[id]; ok {
		in.Step = step
	}
	return nil
}

func (r *memIntentRepo) Complete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("intent.Complete"); err != nil {
		return err
	}
	if in, ok := r.s.intents[id]; ok {
		in.Status = domain.IntentCompleted
	}
	return nil
}

func (r *memIntentRepo) RecordFailure(ctx context.Context, id, lastError string, terminal bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("intent.RecordFailure"); err != nil {
		return err
	}
	if in, ok := r.s.intents[id]; ok {
		in.Attempts++
		in.LastError = lastError
		if terminal {
			in.Status = domain.IntentFailed
		}
	}
	return nil
}

func (r *memIntentRepo) ListPending(ctx context.Context, olderThan time.Time, limit int) ([]*domain.TransitionIntent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("intent.ListPending"); err != nil {
		return nil, err
	}
	var out []*domain.TransitionIntent
	for _, in := range r.s.intents {
		if in.Status == domain.IntentPending && in.UpdatedAt.Before(olderThan) {
			cp := *in
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// recordingAudit keeps audit events in memory
type recordingAudit struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (a *recordingAudit) Record(event domain.AuditEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

func (a *recordingAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.events))
	for _, e := range a.events {
		out = append(out, e.Action)
	}
	return out
}

// recordingAlerter keeps alert messages in memory
type recordingAlerter struct {
	mu       sync.Mutex
	messages []string
}

func (a *recordingAlerter) Alert(ctx context.Context, message string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, message)
	return nil
}

func (a *recordingAlerter) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.messages)
}

// fakeClock hands out strictly increasing timestamps
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
