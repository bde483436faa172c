package core

import (
	"errors"
	"testing"
	"time"
)

func TestNewPlaceholderInheritsPremium(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name       string
		inviter    Profile
		wantPlan   Plan
		wantStatus SubscriptionStatus
	}{
		{"premium inviter", Profile{ID: "a", Plan: PlanPremium}, PlanPremium, SubscriptionActive},
		{"free inviter", Profile{ID: "a", Plan: PlanFree}, PlanFree, SubscriptionInactive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPlaceholder("b", " Partner@Example.COM ", tc.inviter, now)
			if p.Plan != tc.wantPlan || p.SubscriptionStatus != tc.wantStatus {
				t.Fatalf("got %s/%s", p.Plan, p.SubscriptionStatus)
			}
			if p.Email != "partner@example.com" || p.InvitedBy != "a" || !p.IsPlaceholder() {
				t.Fatalf("unexpected placeholder %+v", p)
			}
		})
	}
}

func TestActivate(t *testing.T) {
	now := time.Now()
	p := Profile{Account: AccountPlaceholder}
	if err := p.Activate("hash", " Ana ", now); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if p.Account != AccountActive || p.PasswordHash != "hash" || p.FullName != "Ana" {
		t.Fatalf("unexpected profile %+v", p)
	}
	if err := p.Activate("other", "", now); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
}

func TestResetUsageIfNewMonth(t *testing.T) {
	p := Profile{
		Plan:                    PlanFree,
		MonthlyTransactionsUsed: FreeMonthlyTransactionLimit,
		LastTransactionReset:    time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
	}
	if p.CanRecordTransaction() {
		t.Fatalf("limit reached, expected refusal")
	}
	if p.ResetUsageIfNewMonth(time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("same month must not reset")
	}
	if !p.ResetUsageIfNewMonth(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("new month must reset")
	}
	if p.MonthlyTransactionsUsed != 0 || !p.CanRecordTransaction() {
		t.Fatalf("expected fresh allowance, got %+v", p)
	}

	premium := Profile{Plan: PlanPremium, MonthlyTransactionsUsed: 1000}
	if !premium.CanRecordTransaction() {
		t.Fatalf("premium is unlimited")
	}
}

func TestCouplePartnerOf(t *testing.T) {
	c := Couple{User1ID: "a", User2ID: "b"}
	if c.PartnerOf("a") != "b" || c.PartnerOf("b") != "a" || c.PartnerOf("x") != "" {
		t.Fatalf("unexpected partner lookup")
	}
	if !c.Has("a") || c.Has("x") {
		t.Fatalf("unexpected membership")
	}
}

func TestInvitationLifecycle(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	inv := Invitation{Status: InvitationPending, CreatedAt: created, ExpiresAt: created.Add(7 * 24 * time.Hour)}

	if got := inv.EffectiveStatus(created.Add(time.Hour)); got != InvitationPending {
		t.Fatalf("expected pending, got %s", got)
	}
	if got := inv.EffectiveStatus(inv.ExpiresAt); got != InvitationExpired {
		t.Fatalf("expected expired at the boundary, got %s", got)
	}
	if err := inv.Accept(inv.ExpiresAt.Add(time.Second)); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}

	now := created.Add(24 * time.Hour)
	if err := inv.Accept(now); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if inv.Status != InvitationAccepted || inv.AcceptedAt == nil || !inv.AcceptedAt.Equal(now) {
		t.Fatalf("unexpected invitation %+v", inv)
	}
	if err := inv.Reject(now); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
	// resolved invitations never read as expired
	if got := inv.EffectiveStatus(inv.ExpiresAt.Add(time.Hour)); got != InvitationAccepted {
		t.Fatalf("expected accepted, got %s", got)
	}
}

func TestNotificationVisibleTo(t *testing.T) {
	free := Profile{Plan: PlanFree}
	premium := Profile{Plan: PlanPremium}
	cases := []struct {
		n            Notification
		free, paying bool
	}{
		{Notification{TargetUsers: TargetAll, IsActive: true}, true, true},
		{Notification{TargetUsers: TargetFree, IsActive: true}, true, false},
		{Notification{TargetUsers: TargetPremium, IsActive: true}, false, true},
		{Notification{TargetUsers: TargetAll, IsActive: false}, false, false},
	}
	for i, tc := range cases {
		if tc.n.VisibleTo(free) != tc.free || tc.n.VisibleTo(premium) != tc.paying {
			t.Fatalf("case %d: unexpected visibility", i)
		}
	}
}

func TestMonthlySummary(t *testing.T) {
	month := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	cats := []Category{
		{ID: "food", Name: "Food", Color: "#f00"},
		{ID: "home", Name: "Home", Color: "#0f0"},
		{ID: "fun", Name: "Fun", Color: "#00f"},
	}
	exp := []Expense{
		{Amount: Money{Cents: 1000}, CategoryID: "food", Date: NewDate(2025, 3, 1), Person: Person1, Type: TypeExpense},
		{Amount: Money{Cents: 5000}, CategoryID: "home", Date: NewDate(2025, 3, 2), Person: Shared, Type: TypeExpense},
		{Amount: Money{Cents: 2000}, CategoryID: "food", Date: NewDate(2025, 2, 2), Person: Person2, Type: TypeExpense},
		{Amount: Money{Cents: 30000}, CategoryID: "salary", Date: NewDate(2025, 3, 5), Person: Person1, Type: TypeIncome},
	}

	couple := MonthlySummary(exp, cats, ViewCouple, "", month)
	if couple.TotalExpenses.Cents != 8000 || couple.MonthlyExpenses.Cents != 6000 {
		t.Fatalf("unexpected expense totals %+v", couple)
	}
	if couple.TotalIncome.Cents != 30000 || couple.MonthlyIncome.Cents != 30000 || couple.Balance.Cents != 22000 {
		t.Fatalf("unexpected income totals %+v", couple)
	}
	if len(couple.Categories) != 2 || couple.Categories[0].CategoryID != "home" || couple.Categories[1].Amount.Cents != 3000 {
		t.Fatalf("unexpected categories %+v", couple.Categories)
	}

	p2 := MonthlySummary(exp, cats, ViewIndividual, Person2, month)
	if p2.TotalExpenses.Cents != 7000 || p2.MonthlyExpenses.Cents != 5000 || p2.TotalIncome.Cents != 0 {
		t.Fatalf("unexpected individual summary %+v", p2)
	}
	if p2.Balance.Cents != -7000 {
		t.Fatalf("expected negative balance, got %d", p2.Balance.Cents)
	}
}
