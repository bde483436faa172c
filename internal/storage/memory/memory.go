// Package memory is an in-process gateway used by tests and the "memory"
// data backend. It enforces the same uniqueness rules as the SQL schema.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/marcim390/financeapp/internal/core"
)

type data struct {
	profiles      map[string]core.Profile
	invitations   map[string]core.Invitation
	couples       map[string]core.Couple
	expenses      map[string]core.Expense
	categories    map[string]core.Category
	recurring     map[string]core.RecurringExpense
	notifications map[string]core.Notification
}

func newData() data {
	return data{
		profiles:      map[string]core.Profile{},
		invitations:   map[string]core.Invitation{},
		couples:       map[string]core.Couple{},
		expenses:      map[string]core.Expense{},
		categories:    map[string]core.Category{},
		recurring:     map[string]core.RecurringExpense{},
		notifications: map[string]core.Notification{},
	}
}

// journal collects undo steps for the writes of one transaction. Steps are
// appended with Store.mu held.
type journal struct {
	undo []func(*data)
}

// remember records how to restore table[id] should the transaction in ctx
// fail. It is a no-op outside a transaction. Call with s.mu held.
func remember[V any](ctx context.Context, d *data, table func(*data) map[string]V, id string) {
	j, ok := ctx.Value(txKey{}).(*journal)
	if !ok {
		return
	}
	old, existed := table(d)[id]
	j.undo = append(j.undo, func(d *data) {
		if existed {
			table(d)[id] = old
		} else {
			delete(table(d), id)
		}
	})
}

func profilesOf(d *data) map[string]core.Profile { return d.profiles }

func invitationsOf(d *data) map[string]core.Invitation { return d.invitations }

func couplesOf(d *data) map[string]core.Couple { return d.couples }

type Store struct {
	txMu sync.Mutex // serialises transactions
	mu   sync.Mutex
	d    data

	unavailable bool
}

type txKey struct{}

func New() *Store {
	return &Store{d: newData()}
}

// SetUnavailable makes every call fail with core.ErrGatewayUnavailable.
func (s *Store) SetUnavailable(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unavailable = v
}

// lock acquires the data lock and reports the unavailable state.
func (s *Store) lock() error {
	s.mu.Lock()
	if s.unavailable {
		s.mu.Unlock()
		return core.ErrGatewayUnavailable
	}
	return nil
}

// WithinTx runs fn with all other transactions excluded. When fn fails only
// the writes fn made are undone; writes outside the transaction survive.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := s.Ping(ctx); err != nil {
		return err
	}
	j := &journal{}
	if err := fn(context.WithValue(ctx, txKey{}, j)); err != nil {
		s.mu.Lock()
		for i := len(j.undo) - 1; i >= 0; i-- {
			j.undo[i](&s.d)
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) Ping(context.Context) error {
	if err := s.lock(); err != nil {
		return err
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) Close() error { return nil }

// Profiles

func (s *Store) GetProfile(_ context.Context, id string) (core.Profile, error) {
	if err := s.lock(); err != nil {
		return core.Profile{}, err
	}
	defer s.mu.Unlock()
	p, ok := s.d.profiles[id]
	if !ok {
		return core.Profile{}, core.ErrNotFound
	}
	return p, nil
}

func (s *Store) GetProfileByEmail(_ context.Context, email string) (core.Profile, error) {
	if err := s.lock(); err != nil {
		return core.Profile{}, err
	}
	defer s.mu.Unlock()
	email = core.NormalizeEmail(email)
	for _, p := range s.d.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return core.Profile{}, core.ErrNotFound
}

func (s *Store) CreateProfile(ctx context.Context, p core.Profile) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	p.Email = core.NormalizeEmail(p.Email)
	for _, other := range s.d.profiles {
		if other.Email == p.Email {
			return core.ErrEmailTaken
		}
	}
	remember(ctx, &s.d, profilesOf, p.ID)
	s.d.profiles[p.ID] = p
	return nil
}

func (s *Store) UpdateProfile(ctx context.Context, p core.Profile) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	if _, ok := s.d.profiles[p.ID]; !ok {
		return core.ErrNotFound
	}
	p.Email = core.NormalizeEmail(p.Email)
	remember(ctx, &s.d, profilesOf, p.ID)
	s.d.profiles[p.ID] = p
	return nil
}

func (s *Store) ListProfiles(_ context.Context) ([]core.Profile, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	out := values(s.d.profiles)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteOrphanedPlaceholder(ctx context.Context, email string) (bool, error) {
	if err := s.lock(); err != nil {
		return false, err
	}
	defer s.mu.Unlock()
	email = core.NormalizeEmail(email)

	var p core.Profile
	found := false
	for _, candidate := range s.d.profiles {
		if candidate.Email == email {
			p, found = candidate, true
			break
		}
	}
	if !found || !p.IsPlaceholder() {
		return false, nil
	}
	for _, inv := range s.d.invitations {
		if inv.SenderID == p.ID {
			return false, nil
		}
		if inv.RecipientEmail == email && (inv.Status == core.InvitationPending || inv.Status == core.InvitationAccepted) {
			return false, nil
		}
	}
	for _, e := range s.d.expenses {
		if e.UserID == p.ID {
			return false, nil
		}
	}
	for _, c := range s.d.couples {
		if c.Has(p.ID) {
			return false, nil
		}
	}
	for _, r := range s.d.recurring {
		if r.UserID == p.ID {
			return false, nil
		}
	}
	for _, c := range s.d.categories {
		if c.UserID == p.ID {
			return false, nil
		}
	}
	remember(ctx, &s.d, profilesOf, p.ID)
	delete(s.d.profiles, p.ID)
	return true, nil
}

// Invitations

func (s *Store) CreateInvitation(ctx context.Context, inv core.Invitation) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	inv.RecipientEmail = core.NormalizeEmail(inv.RecipientEmail)
	if inv.Status == core.InvitationPending {
		for _, other := range s.d.invitations {
			if other.Status == core.InvitationPending && other.SenderID == inv.SenderID && other.RecipientEmail == inv.RecipientEmail {
				return core.ErrDuplicateInvitation
			}
		}
	}
	remember(ctx, &s.d, invitationsOf, inv.ID)
	s.d.invitations[inv.ID] = inv
	return nil
}

func (s *Store) GetInvitation(_ context.Context, id string) (core.Invitation, error) {
	if err := s.lock(); err != nil {
		return core.Invitation{}, err
	}
	defer s.mu.Unlock()
	inv, ok := s.d.invitations[id]
	if !ok {
		return core.Invitation{}, core.ErrNotFound
	}
	return inv, nil
}

func (s *Store) FindPendingInvitation(_ context.Context, senderID, email string) (core.Invitation, error) {
	if err := s.lock(); err != nil {
		return core.Invitation{}, err
	}
	defer s.mu.Unlock()
	email = core.NormalizeEmail(email)
	for _, inv := range s.d.invitations {
		if inv.Status == core.InvitationPending && inv.SenderID == senderID && inv.RecipientEmail == email {
			return inv, nil
		}
	}
	return core.Invitation{}, core.ErrNotFound
}

func (s *Store) listInvitations(match func(core.Invitation) bool) ([]core.Invitation, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	var out []core.Invitation
	for _, inv := range s.d.invitations {
		if match(inv) {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListSentInvitations(_ context.Context, senderID string) ([]core.Invitation, error) {
	return s.listInvitations(func(inv core.Invitation) bool { return inv.SenderID == senderID })
}

func (s *Store) ListReceivedInvitations(_ context.Context, email string) ([]core.Invitation, error) {
	email = core.NormalizeEmail(email)
	return s.listInvitations(func(inv core.Invitation) bool { return inv.RecipientEmail == email })
}

func (s *Store) UpdateInvitation(ctx context.Context, inv core.Invitation) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	stored, ok := s.d.invitations[inv.ID]
	if !ok {
		return core.ErrNotFound
	}
	if stored.Status != core.InvitationPending {
		return core.ErrAlreadyResolved
	}
	remember(ctx, &s.d, invitationsOf, inv.ID)
	s.d.invitations[inv.ID] = inv
	return nil
}

func (s *Store) DeleteInvitation(ctx context.Context, id string) error {
	return deleteKey(ctx, s, func(d *data) map[string]core.Invitation { return d.invitations }, id)
}

// Couples

func (s *Store) CreateCouple(ctx context.Context, c core.Couple) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	for _, other := range s.d.couples {
		if other.Has(c.User1ID) || other.Has(c.User2ID) {
			return core.ErrAlreadyCoupled
		}
	}
	remember(ctx, &s.d, couplesOf, c.ID)
	s.d.couples[c.ID] = c
	return nil
}

func (s *Store) GetCouple(_ context.Context, id string) (core.Couple, error) {
	if err := s.lock(); err != nil {
		return core.Couple{}, err
	}
	defer s.mu.Unlock()
	c, ok := s.d.couples[id]
	if !ok {
		return core.Couple{}, core.ErrNotFound
	}
	return c, nil
}

func (s *Store) FindCoupleByMember(_ context.Context, profileID string) (core.Couple, error) {
	if err := s.lock(); err != nil {
		return core.Couple{}, err
	}
	defer s.mu.Unlock()
	for _, c := range s.d.couples {
		if c.Has(profileID) {
			return c, nil
		}
	}
	return core.Couple{}, core.ErrNotFound
}

func (s *Store) DeleteCouple(ctx context.Context, id string) error {
	return deleteKey(ctx, s, func(d *data) map[string]core.Couple { return d.couples }, id)
}

// Expenses

func (s *Store) CreateExpense(ctx context.Context, e core.Expense) error {
	return putKey(ctx, s, func(d *data) map[string]core.Expense { return d.expenses }, e.ID, e, false)
}

func (s *Store) GetExpense(_ context.Context, id string) (core.Expense, error) {
	return getKey(s, func(d *data) map[string]core.Expense { return d.expenses }, id)
}

func (s *Store) UpdateExpense(ctx context.Context, e core.Expense) error {
	return putKey(ctx, s, func(d *data) map[string]core.Expense { return d.expenses }, e.ID, e, true)
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	return deleteKey(ctx, s, func(d *data) map[string]core.Expense { return d.expenses }, id)
}

func (s *Store) ListExpenses(_ context.Context, userID string) ([]core.Expense, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.d.expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Categories

func (s *Store) CreateCategory(ctx context.Context, c core.Category) error {
	return putKey(ctx, s, func(d *data) map[string]core.Category { return d.categories }, c.ID, c, false)
}

func (s *Store) GetCategory(_ context.Context, id string) (core.Category, error) {
	return getKey(s, func(d *data) map[string]core.Category { return d.categories }, id)
}

func (s *Store) UpdateCategory(ctx context.Context, c core.Category) error {
	return putKey(ctx, s, func(d *data) map[string]core.Category { return d.categories }, c.ID, c, true)
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	return deleteKey(ctx, s, func(d *data) map[string]core.Category { return d.categories }, id)
}

func (s *Store) ListCategories(_ context.Context, userID string) ([]core.Category, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	var out []core.Category
	for _, c := range s.d.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Recurring expenses

func (s *Store) CreateRecurring(ctx context.Context, r core.RecurringExpense) error {
	return putKey(ctx, s, func(d *data) map[string]core.RecurringExpense { return d.recurring }, r.ID, r, false)
}

func (s *Store) GetRecurring(_ context.Context, id string) (core.RecurringExpense, error) {
	return getKey(s, func(d *data) map[string]core.RecurringExpense { return d.recurring }, id)
}

func (s *Store) UpdateRecurring(ctx context.Context, r core.RecurringExpense) error {
	return putKey(ctx, s, func(d *data) map[string]core.RecurringExpense { return d.recurring }, r.ID, r, true)
}

func (s *Store) DeleteRecurring(ctx context.Context, id string) error {
	return deleteKey(ctx, s, func(d *data) map[string]core.RecurringExpense { return d.recurring }, id)
}

func (s *Store) listRecurring(match func(core.RecurringExpense) bool) ([]core.RecurringExpense, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	var out []core.RecurringExpense
	for _, r := range s.d.recurring {
		if match(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].NextDueDate.Equal(out[j].NextDueDate) {
			return out[i].NextDueDate.Before(out[j].NextDueDate)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) ListRecurring(_ context.Context, userID string) ([]core.RecurringExpense, error) {
	return s.listRecurring(func(r core.RecurringExpense) bool { return r.UserID == userID })
}

func (s *Store) ListActiveRecurring(_ context.Context) ([]core.RecurringExpense, error) {
	return s.listRecurring(func(r core.RecurringExpense) bool { return r.IsActive })
}

// Notifications

func (s *Store) CreateNotification(ctx context.Context, n core.Notification) error {
	return putKey(ctx, s, func(d *data) map[string]core.Notification { return d.notifications }, n.ID, n, false)
}

func (s *Store) GetNotification(_ context.Context, id string) (core.Notification, error) {
	return getKey(s, func(d *data) map[string]core.Notification { return d.notifications }, id)
}

func (s *Store) UpdateNotification(ctx context.Context, n core.Notification) error {
	return putKey(ctx, s, func(d *data) map[string]core.Notification { return d.notifications }, n.ID, n, true)
}

func (s *Store) DeleteNotification(ctx context.Context, id string) error {
	return deleteKey(ctx, s, func(d *data) map[string]core.Notification { return d.notifications }, id)
}

func (s *Store) ListNotifications(_ context.Context) ([]core.Notification, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	out := values(s.d.notifications)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// generic helpers

func values[V any](m map[string]V) []V {
	out := make([]V, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

func getKey[V any](s *Store, table func(*data) map[string]V, id string) (V, error) {
	var zero V
	if err := s.lock(); err != nil {
		return zero, err
	}
	defer s.mu.Unlock()
	v, ok := table(&s.d)[id]
	if !ok {
		return zero, core.ErrNotFound
	}
	return v, nil
}

// putKey inserts v, or replaces it when update is set. An update of a missing
// id is ErrNotFound.
func putKey[V any](ctx context.Context, s *Store, table func(*data) map[string]V, id string, v V, update bool) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	m := table(&s.d)
	if _, ok := m[id]; update && !ok {
		return core.ErrNotFound
	}
	remember(ctx, &s.d, table, id)
	m[id] = v
	return nil
}

func deleteKey[V any](ctx context.Context, s *Store, table func(*data) map[string]V, id string) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	m := table(&s.d)
	if _, ok := m[id]; !ok {
		return core.ErrNotFound
	}
	remember(ctx, &s.d, table, id)
	delete(m, id)
	return nil
}
