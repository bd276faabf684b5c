// Package memstore is an in-process implementation of the repositories
// Store. It backs the "memory" database driver and doubles as the store used
// by service tests, which is why it exposes fault and hook injection.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/impactlink/impactlink/internal/app/repositories"
)

// Operation names accepted by FailNext and AfterNext.
const (
	OpUsersCreate = "users.create"
	OpUsersGet    = "users.get"
	OpUsersUpdate = "users.update"

	OpProfilesCreate = "profiles.create"
	OpProfilesGet    = "profiles.get"
	OpProfilesUpdate = "profiles.update"
	OpProfilesQuery  = "profiles.query"

	OpOpportunitiesCreate = "opportunities.create"
	OpOpportunitiesGet    = "opportunities.get"
	OpOpportunitiesUpdate = "opportunities.update"
	OpOpportunitiesQuery  = "opportunities.query"

	OpApplicationsCreate = "applications.create"
	OpApplicationsGet    = "applications.get"
	OpApplicationsUpdate = "applications.update"
	OpApplicationsQuery  = "applications.query"

	OpSavedExists = "saved.exists"
	OpSavedCreate = "saved.create"
	OpSavedDelete = "saved.delete"
	OpSavedList   = "saved.list"

	OpMessagesCreate   = "messages.create"
	OpMessagesGet      = "messages.get"
	OpMessagesQuery    = "messages.query"
	OpMessagesMarkRead = "messages.mark_read"
)

type state struct {
	users         map[uuid.UUID]models.User
	profiles      map[uuid.UUID]models.Profile
	ngos          map[uuid.UUID]models.NGOProfile
	experts       map[uuid.UUID]models.ExpertProfile
	opportunities map[uuid.UUID]models.Opportunity
	applications  map[uuid.UUID]models.Application
	saved         map[uuid.UUID]models.SavedOpportunity
	messages      map[uuid.UUID]models.Message
	lastStamp     time.Time
}

func newState() *state {
	return &state{
		users:         make(map[uuid.UUID]models.User),
		profiles:      make(map[uuid.UUID]models.Profile),
		ngos:          make(map[uuid.UUID]models.NGOProfile),
		experts:       make(map[uuid.UUID]models.ExpertProfile),
		opportunities: make(map[uuid.UUID]models.Opportunity),
		applications:  make(map[uuid.UUID]models.Application),
		saved:         make(map[uuid.UUID]models.SavedOpportunity),
		messages:      make(map[uuid.UUID]models.Message),
	}
}

// clone copies every map. Stored values never share slices with callers
// (see the copy helpers in repos.go), so a shallow copy of each value is a
// full snapshot.
func (d *state) clone() *state {
	c := newState()
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.profiles {
		c.profiles[k] = v
	}
	for k, v := range d.ngos {
		c.ngos[k] = v
	}
	for k, v := range d.experts {
		c.experts[k] = v
	}
	for k, v := range d.opportunities {
		c.opportunities[k] = v
	}
	for k, v := range d.applications {
		c.applications[k] = v
	}
	for k, v := range d.saved {
		c.saved[k] = v
	}
	for k, v := range d.messages {
		c.messages[k] = v
	}
	c.lastStamp = d.lastStamp
	return c
}

// Store is a mutex-guarded map store. A transaction works on a snapshot and
// swaps it in on success while holding the store lock, so transactions are
// serialised with every other call.
type Store struct {
	mu    *sync.Mutex
	data  *state
	inTx  bool
	hooks *hooks
	now   func() time.Time
}

var (
	_ repositories.Store      = (*Store)(nil)
	_ repositories.Transactor = (*Store)(nil)
)

// New returns an empty Store.
func New() *Store {
	return &Store{
		mu:    &sync.Mutex{},
		data:  newState(),
		hooks: newHooks(),
		now:   time.Now,
	}
}

// SetClock replaces the time source used for CreatedAt/UpdatedAt.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// FailNext makes the next call of op return err without touching data.
func (s *Store) FailNext(op string, err error) {
	s.hooks.failNext(op, err)
}

// AfterNext runs fn once after the next call of op completes. For calls made
// outside a transaction fn runs after the store lock is released, so it may
// call back into the store.
func (s *Store) AfterNext(op string, fn func()) {
	s.hooks.afterNext(op, fn)
}

// WithTx implements repositories.Transactor.
func (s *Store) WithTx(ctx context.Context, fn repositories.TxFn) error {
	if s.inTx {
		return fn(ctx, s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Store{mu: s.mu, data: s.data.clone(), inTx: true, hooks: s.hooks, now: s.now}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

func (s *Store) do(ctx context.Context, op string, fn func(d *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.hooks.fail(op); err != nil {
		return err
	}

	var err error
	if s.inTx {
		err = fn(s.data)
	} else {
		s.mu.Lock()
		err = fn(s.data)
		s.mu.Unlock()
	}

	s.hooks.after(op)
	return err
}

// stamp returns a strictly increasing timestamp so newest-first ordering is
// deterministic even when the clock does not advance between writes.
func (s *Store) stamp(d *state) time.Time {
	t := s.now().UTC()
	if !t.After(d.lastStamp) {
		t = d.lastStamp.Add(time.Microsecond)
	}
	d.lastStamp = t
	return t
}

// Users implements repositories.Store.
func (s *Store) Users() repositories.IUserRepository { return &userRepo{s: s} }

// Profiles implements repositories.Store.
func (s *Store) Profiles() repositories.IProfileRepository { return &profileRepo{s: s} }

// Opportunities implements repositories.Store.
func (s *Store) Opportunities() repositories.IOpportunityRepository {
	return &opportunityRepo{s: s}
}

// Applications implements repositories.Store.
func (s *Store) Applications() repositories.IApplicationRepository {
	return &applicationRepo{s: s}
}

// SavedOpportunities implements repositories.Store.
func (s *Store) SavedOpportunities() repositories.ISavedOpportunityRepository {
	return &savedRepo{s: s}
}

// Messages implements repositories.Store.
func (s *Store) Messages() repositories.IMessageRepository { return &messageRepo{s: s} }

type hooks struct {
	mu       sync.Mutex
	failures map[string][]error
	afters   map[string][]func()
}

func newHooks() *hooks {
	return &hooks{
		failures: make(map[string][]error),
		afters:   make(map[string][]func()),
	}
}

func (h *hooks) failNext(op string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures[op] = append(h.failures[op], err)
}

func (h *hooks) afterNext(op string, fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.afters[op] = append(h.afters[op], fn)
}

func (h *hooks) fail(op string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	queue := h.failures[op]
	if len(queue) == 0 {
		return nil
	}
	h.failures[op] = queue[1:]
	return queue[0]
}

func (h *hooks) after(op string) {
	h.mu.Lock()
	queue := h.afters[op]
	if len(queue) == 0 {
		h.mu.Unlock()
		return
	}
	h.afters[op] = queue[1:]
	h.mu.Unlock()
	queue[0]()
}
