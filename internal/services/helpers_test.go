package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/marcim390/financeapp/internal/core"
	"github.com/marcim390/financeapp/internal/email"
	"github.com/marcim390/financeapp/internal/kv"
	"github.com/marcim390/financeapp/internal/storage/memory"
)

// Monday, 10 March 2025.
var baseTime = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type recordingMailer struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg email.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) messages() []email.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]email.Message(nil), m.sent...)
}

type fixture struct {
	t    *testing.T
	ctx  context.Context
	gw   *memory.Store
	kv   *kv.Memory
	mail *recordingMailer
	now  time.Time
	mu   sync.Mutex
	seq  int
	rt   runtime

	accounts      *AccountService
	invitations   *InvitationService
	expenses      *ExpenseService
	recurring     *RecurringService
	notifications *NotificationService
	reminders     *ReminderProcessor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:    t,
		ctx:  context.Background(),
		gw:   memory.New(),
		kv:   kv.NewMemory(1000),
		mail: &recordingMailer{},
		now:  baseTime,
	}
	f.rt = runtime{
		now: func() time.Time {
			f.mu.Lock()
			defer f.mu.Unlock()
			return f.now
		},
		newID: func() string {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.seq++
			return fmt.Sprintf("id-%03d", f.seq)
		},
	}

	f.accounts = NewAccountService(f.gw)
	f.accounts.runtime = f.rt
	f.accounts.hashCost = bcrypt.MinCost

	f.invitations = NewInvitationService(f.gw, f.mail, InvitationConfig{BaseURL: "https://app.example.com/"})
	f.invitations.runtime = f.rt

	f.expenses = NewExpenseService(f.gw, f.accounts)
	f.expenses.runtime = f.rt

	f.recurring = NewRecurringService(f.gw, f.accounts)
	f.recurring.runtime = f.rt

	f.notifications = NewNotificationService(f.gw, f.kv, f.mail)
	f.notifications.runtime = f.rt

	f.reminders = NewReminderProcessor(f.gw, f.kv, f.mail, ReminderProcessorConfig{BaseURL: "https://app.example.com"})
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fixture) clock() time.Time {
	return f.rt.now()
}

func (f *fixture) addProfile(id, addr string, plan core.Plan) core.Profile {
	f.t.Helper()
	p := core.Profile{
		ID:                   id,
		Email:                addr,
		FullName:             id,
		Gender:               core.GenderUnspecified,
		Plan:                 plan,
		SubscriptionStatus:   core.SubscriptionInactive,
		LastTransactionReset: f.clock(),
		Account:              core.AccountActive,
		CreatedAt:            f.clock(),
		UpdatedAt:            f.clock(),
	}
	if plan == core.PlanPremium {
		p.SubscriptionStatus = core.SubscriptionActive
	}
	require.NoError(f.t, f.gw.CreateProfile(f.ctx, p))
	return p
}

func (f *fixture) makeAdmin(id string) {
	f.t.Helper()
	p, err := f.gw.GetProfile(f.ctx, id)
	require.NoError(f.t, err)
	p.IsAdmin = true
	require.NoError(f.t, f.gw.UpdateProfile(f.ctx, p))
}

// couple links a and b through an accepted invitation.
func (f *fixture) couple(a, bEmail string) core.Couple {
	f.t.Helper()
	inv, err := f.invitations.SendInvitation(f.ctx, a, bEmail)
	require.NoError(f.t, err)
	c, err := f.invitations.AcceptInvitation(f.ctx, inv.ID)
	require.NoError(f.t, err)
	return c
}

func newExpense(desc string, cents int64, person core.Person, typ core.TransactionType, date core.Date) core.Expense {
	return core.Expense{
		Description: desc,
		Amount:      core.Money{Cents: cents},
		CategoryID:  "cat-food",
		Date:        date,
		Person:      person,
		Type:        typ,
	}
}
