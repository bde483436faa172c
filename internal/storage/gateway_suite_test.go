package storage_test

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/marcim390/financeapp/internal/core"
	"github.com/marcim390/financeapp/internal/services"
)

// GatewaySuite exercises the gateway contract; every backend runs it.
type GatewaySuite struct {
	suite.Suite
	newGateway func() services.Gateway
	gw         services.Gateway
	ctx        context.Context
	now        time.Time
}

func (s *GatewaySuite) SetupTest() {
	s.gw = s.newGateway()
	s.ctx = context.Background()
	s.now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
}

func (s *GatewaySuite) profile(email string) core.Profile {
	p := core.Profile{
		ID:                   uuid.NewString(),
		Email:                email,
		FullName:             "Test",
		Gender:               core.GenderUnspecified,
		Plan:                 core.PlanFree,
		SubscriptionStatus:   core.SubscriptionInactive,
		LastTransactionReset: s.now,
		Account:              core.AccountActive,
		CreatedAt:            s.now,
		UpdatedAt:            s.now,
	}
	s.Require().NoError(s.gw.CreateProfile(s.ctx, p))
	return p
}

func (s *GatewaySuite) invitation(sender core.Profile, email string) core.Invitation {
	inv := core.Invitation{
		ID:             uuid.NewString(),
		SenderID:       sender.ID,
		RecipientEmail: email,
		Status:         core.InvitationPending,
		CreatedAt:      s.now,
		ExpiresAt:      s.now.Add(7 * 24 * time.Hour),
	}
	s.Require().NoError(s.gw.CreateInvitation(s.ctx, inv))
	return inv
}

func (s *GatewaySuite) TestProfileRoundTrip() {
	p := s.profile("Ana@Example.com")

	got, err := s.gw.GetProfileByEmail(s.ctx, "ana@example.COM")
	s.Require().NoError(err)
	s.Equal(p.ID, got.ID)
	s.Equal("ana@example.com", got.Email)
	s.True(got.LastTransactionReset.Equal(p.LastTransactionReset))

	got.Plan = core.PlanPremium
	got.IsAdmin = true
	got.MonthlyTransactionsUsed = 4
	s.Require().NoError(s.gw.UpdateProfile(s.ctx, got))

	again, err := s.gw.GetProfile(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(core.PlanPremium, again.Plan)
	s.True(again.IsAdmin)
	s.Equal(4, again.MonthlyTransactionsUsed)

	_, err = s.gw.GetProfile(s.ctx, "missing")
	s.ErrorIs(err, core.ErrNotFound)
}

func (s *GatewaySuite) TestDuplicateEmailRejected() {
	s.profile("dup@example.com")
	p := core.Profile{ID: uuid.NewString(), Email: "DUP@example.com", Plan: core.PlanFree,
		Gender: core.GenderUnspecified, Account: core.AccountActive,
		SubscriptionStatus: core.SubscriptionInactive,
		LastTransactionReset: s.now, CreatedAt: s.now, UpdatedAt: s.now}
	err := s.gw.CreateProfile(s.ctx, p)
	s.ErrorIs(err, core.ErrEmailTaken)
}

func (s *GatewaySuite) TestOnePendingInvitationPerRecipient() {
	sender := s.profile("sender@example.com")
	first := s.invitation(sender, "partner@example.com")

	dup := first
	dup.ID = uuid.NewString()
	s.ErrorIs(s.gw.CreateInvitation(s.ctx, dup), core.ErrDuplicateInvitation)

	found, err := s.gw.FindPendingInvitation(s.ctx, sender.ID, "PARTNER@example.com")
	s.Require().NoError(err)
	s.Equal(first.ID, found.ID)

	first.Status = core.InvitationRejected
	answered := s.now.Add(time.Hour)
	first.RespondedAt = &answered
	s.Require().NoError(s.gw.UpdateInvitation(s.ctx, first))

	// a resolved invitation is final
	late := first
	late.Status = core.InvitationAccepted
	s.ErrorIs(s.gw.UpdateInvitation(s.ctx, late), core.ErrAlreadyResolved)
	unknown := first
	unknown.ID = uuid.NewString()
	s.ErrorIs(s.gw.UpdateInvitation(s.ctx, unknown), core.ErrNotFound)

	// once resolved, a new pending invitation is allowed
	s.Require().NoError(s.gw.CreateInvitation(s.ctx, dup))

	sent, err := s.gw.ListSentInvitations(s.ctx, sender.ID)
	s.Require().NoError(err)
	s.Len(sent, 2)

	received, err := s.gw.ListReceivedInvitations(s.ctx, "partner@example.com")
	s.Require().NoError(err)
	s.Len(received, 2)

	got, err := s.gw.GetInvitation(s.ctx, first.ID)
	s.Require().NoError(err)
	s.Equal(core.InvitationRejected, got.Status)
	s.Require().NotNil(got.RespondedAt)
	s.True(got.RespondedAt.Equal(answered))
	s.Nil(got.AcceptedAt)

	s.Require().NoError(s.gw.DeleteInvitation(s.ctx, first.ID))
	s.ErrorIs(s.gw.DeleteInvitation(s.ctx, first.ID), core.ErrNotFound)
}

func (s *GatewaySuite) TestCoupleMembershipIsExclusive() {
	a := s.profile("a@example.com")
	b := s.profile("b@example.com")
	c := s.profile("c@example.com")

	couple := core.Couple{ID: uuid.NewString(), User1ID: a.ID, User2ID: b.ID, CreatedAt: s.now}
	s.Require().NoError(s.gw.CreateCouple(s.ctx, couple))

	// b is already user2 of the first couple; here b would be user1
	other := core.Couple{ID: uuid.NewString(), User1ID: b.ID, User2ID: c.ID, CreatedAt: s.now}
	s.ErrorIs(s.gw.CreateCouple(s.ctx, other), core.ErrAlreadyCoupled)

	found, err := s.gw.FindCoupleByMember(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Equal(couple.ID, found.ID)

	_, err = s.gw.FindCoupleByMember(s.ctx, c.ID)
	s.ErrorIs(err, core.ErrNotFound)

	s.Require().NoError(s.gw.DeleteCouple(s.ctx, couple.ID))
	_, err = s.gw.GetCouple(s.ctx, couple.ID)
	s.ErrorIs(err, core.ErrNotFound)

	// after the break both are free to pair again
	s.Require().NoError(s.gw.CreateCouple(s.ctx, other))
}

func (s *GatewaySuite) TestWithinTxRollsBack() {
	boom := errors.New("boom")
	var id string
	err := s.gw.WithinTx(s.ctx, func(ctx context.Context) error {
		p := core.Profile{ID: uuid.NewString(), Email: "tx@example.com", Plan: core.PlanFree,
			Gender: core.GenderUnspecified, Account: core.AccountActive,
			SubscriptionStatus: core.SubscriptionInactive,
			LastTransactionReset: s.now, CreatedAt: s.now, UpdatedAt: s.now}
		id = p.ID
		if err := s.gw.CreateProfile(ctx, p); err != nil {
			return err
		}
		if _, err := s.gw.GetProfile(ctx, id); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)
	_, err = s.gw.GetProfile(s.ctx, id)
	s.ErrorIs(err, core.ErrNotFound)
}

func (s *GatewaySuite) TestExpensesOrderedNewestFirst() {
	owner := s.profile("owner@example.com")
	mk := func(day int, desc string) core.Expense {
		e := core.Expense{
			ID: uuid.NewString(), UserID: owner.ID, Description: desc,
			Amount: core.Money{Cents: 1234}, CategoryID: "food",
			Date: core.NewDate(2025, 3, day), Person: core.Shared, Type: core.TypeExpense,
			CreatedAt: s.now,
		}
		s.Require().NoError(s.gw.CreateExpense(s.ctx, e))
		return e
	}
	old := mk(1, "old")
	mk(9, "new")

	list, err := s.gw.ListExpenses(s.ctx, owner.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("new", list[0].Description)
	s.Equal("2025-03-09", list[0].Date.String())
	s.Equal(int64(1234), list[0].Amount.Cents)

	old.Description = "older"
	old.Type = core.TypeIncome
	s.Require().NoError(s.gw.UpdateExpense(s.ctx, old))
	got, err := s.gw.GetExpense(s.ctx, old.ID)
	s.Require().NoError(err)
	s.Equal("older", got.Description)
	s.Equal(core.TypeIncome, got.Type)

	s.Require().NoError(s.gw.DeleteExpense(s.ctx, old.ID))
	s.ErrorIs(s.gw.UpdateExpense(s.ctx, old), core.ErrNotFound)
}

func (s *GatewaySuite) TestRecurringRoundTrip() {
	r := core.RecurringExpense{
		ID: uuid.NewString(), UserID: "u1", Description: "Rent",
		Amount: core.Money{Cents: 90000}, CategoryID: "home", Person: core.Shared,
		Type: core.TypeExpense, Frequency: core.Monthly, DueDay: 31, IsActive: true,
		NextDueDate: core.NewDate(2025, 3, 31), NotificationDays: 3, CreatedAt: s.now,
	}
	s.Require().NoError(s.gw.CreateRecurring(s.ctx, r))

	got, err := s.gw.GetRecurring(s.ctx, r.ID)
	s.Require().NoError(err)
	s.True(got.NextDueDate.Equal(r.NextDueDate))
	s.True(got.LastPaidDate.IsEmpty())
	s.True(got.IsActive)

	got.LastPaidDate = core.NewDate(2025, 3, 30)
	got.NextDueDate = core.NewDate(2025, 4, 30)
	got.IsActive = false
	s.Require().NoError(s.gw.UpdateRecurring(s.ctx, got))

	active, err := s.gw.ListActiveRecurring(s.ctx)
	s.Require().NoError(err)
	s.Empty(active)

	mine, err := s.gw.ListRecurring(s.ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(mine, 1)
	s.Equal("2025-03-30", mine[0].LastPaidDate.String())
	s.Equal("2025-04-30", mine[0].NextDueDate.String())
}

func (s *GatewaySuite) TestCategoriesAndNotifications() {
	cat := core.Category{ID: uuid.NewString(), UserID: "u1", Name: "Food", Color: "#ff0000", Icon: "utensils"}
	s.Require().NoError(s.gw.CreateCategory(s.ctx, cat))
	cat.Name = "Groceries"
	s.Require().NoError(s.gw.UpdateCategory(s.ctx, cat))
	cats, err := s.gw.ListCategories(s.ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(cats, 1)
	s.Equal("Groceries", cats[0].Name)
	s.Require().NoError(s.gw.DeleteCategory(s.ctx, cat.ID))
	_, err = s.gw.GetCategory(s.ctx, cat.ID)
	s.ErrorIs(err, core.ErrNotFound)

	n := core.Notification{ID: uuid.NewString(), Title: "Hi", Message: "News",
		TargetUsers: core.TargetPremium, IsActive: true, CreatedBy: "admin", CreatedAt: s.now}
	s.Require().NoError(s.gw.CreateNotification(s.ctx, n))
	n.IsActive = false
	s.Require().NoError(s.gw.UpdateNotification(s.ctx, n))
	list, err := s.gw.ListNotifications(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.False(list[0].IsActive)
	s.Equal(core.TargetPremium, list[0].TargetUsers)
	s.Require().NoError(s.gw.DeleteNotification(s.ctx, n.ID))
}

func (s *GatewaySuite) TestOrphanCleanup() {
	sender := s.profile("sender@example.com")
	placeholder := core.NewPlaceholder(uuid.NewString(), "guest@example.com", sender, s.now)
	s.Require().NoError(s.gw.CreateProfile(s.ctx, placeholder))
	inv := s.invitation(sender, "guest@example.com")

	deleted, err := s.gw.DeleteOrphanedPlaceholder(s.ctx, "guest@example.com")
	s.Require().NoError(err)
	s.False(deleted, "pending invitation still references the placeholder")

	s.Require().NoError(s.gw.DeleteInvitation(s.ctx, inv.ID))
	deleted, err = s.gw.DeleteOrphanedPlaceholder(s.ctx, "guest@example.com")
	s.Require().NoError(err)
	s.True(deleted)
	_, err = s.gw.GetProfileByEmail(s.ctx, "guest@example.com")
	s.ErrorIs(err, core.ErrNotFound)

	// active accounts are never removed
	deleted, err = s.gw.DeleteOrphanedPlaceholder(s.ctx, "sender@example.com")
	s.Require().NoError(err)
	s.False(deleted)
}

func (s *GatewaySuite) TestOrphanCleanupKeepsPlaceholderWithExpenses() {
	sender := s.profile("sender@example.com")
	placeholder := core.NewPlaceholder(uuid.NewString(), "guest@example.com", sender, s.now)
	s.Require().NoError(s.gw.CreateProfile(s.ctx, placeholder))
	s.Require().NoError(s.gw.CreateExpense(s.ctx, core.Expense{
		ID: uuid.NewString(), UserID: placeholder.ID, Description: "x",
		Amount: core.Money{Cents: 1}, CategoryID: "c", Date: core.NewDate(2025, 3, 1),
		Person: core.Person1, Type: core.TypeExpense, CreatedAt: s.now,
	}))

	deleted, err := s.gw.DeleteOrphanedPlaceholder(s.ctx, "guest@example.com")
	s.Require().NoError(err)
	s.False(deleted)
}

func (s *GatewaySuite) TestOrphanCleanupKeepsPlaceholderWithOwnData() {
	sender := s.profile("sender@example.com")

	withRecurring := core.NewPlaceholder(uuid.NewString(), "recurring@example.com", sender, s.now)
	s.Require().NoError(s.gw.CreateProfile(s.ctx, withRecurring))
	s.Require().NoError(s.gw.CreateRecurring(s.ctx, core.RecurringExpense{
		ID: uuid.NewString(), UserID: withRecurring.ID, Description: "Gym",
		Amount: core.Money{Cents: 3000}, CategoryID: "health", Person: core.Person1,
		Type: core.TypeExpense, Frequency: core.Monthly, DueDay: 5, IsActive: true,
		NextDueDate: core.NewDate(2025, 4, 5), NotificationDays: 3, CreatedAt: s.now,
	}))

	withCategory := core.NewPlaceholder(uuid.NewString(), "category@example.com", sender, s.now)
	s.Require().NoError(s.gw.CreateProfile(s.ctx, withCategory))
	s.Require().NoError(s.gw.CreateCategory(s.ctx, core.Category{ID: uuid.NewString(), UserID: withCategory.ID, Name: "Pets"}))

	for _, addr := range []string{"recurring@example.com", "category@example.com"} {
		deleted, err := s.gw.DeleteOrphanedPlaceholder(s.ctx, addr)
		s.Require().NoError(err)
		s.False(deleted, addr)
		_, err = s.gw.GetProfileByEmail(s.ctx, addr)
		s.NoError(err, addr)
	}
}
