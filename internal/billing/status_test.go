package billing

import (
	"testing"
	"time"

	"github.com/marcim390/financeapp/internal/core"
)

func item(next core.Date, notify int, active bool) core.RecurringExpense {
	return core.RecurringExpense{
		ID:               "r1",
		UserID:           "u1",
		Description:      "Rent",
		Amount:           core.Money{Cents: 100000},
		CategoryID:       "home",
		Person:           core.Shared,
		Type:             core.TypeExpense,
		Frequency:        core.Monthly,
		DueDay:           31,
		IsActive:         active,
		NextDueDate:      next,
		NotificationDays: notify,
	}
}

func TestClassify(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		item core.RecurringExpense
		want Status
		days int
	}{
		{"due yesterday", item(d(2025, 3, 9), 3, true), StatusOverdue, -1},
		{"due today", item(d(2025, 3, 10), 0, true), StatusUpcoming, 0},
		{"inside window", item(d(2025, 3, 13), 3, true), StatusUpcoming, 3},
		{"outside window", item(d(2025, 3, 14), 3, true), StatusScheduled, 4},
		{"inactive even if overdue", item(d(2025, 1, 1), 3, false), StatusInactive, -68},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.item, now)
			if got.Status != tt.want || got.DaysUntil != tt.days {
				t.Errorf("Classify() = %+v, want %s/%d", got, tt.want, tt.days)
			}
		})
	}
}

func TestClassifyUsesLocalDay(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	// 11 March 01:00 local is still 10 March in UTC
	now := time.Date(2025, 3, 11, 1, 0, 0, 0, loc)
	got := Classify(item(d(2025, 3, 10), 3, true), now)
	if got.Status != StatusOverdue {
		t.Fatalf("expected overdue in local day, got %+v", got)
	}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	weekly := item(d(2025, 3, 20), 3, true)
	weekly.Frequency = core.Weekly
	weekly.DueDay = 4
	weekly.Amount = core.Money{Cents: 1200}
	income := item(d(2025, 3, 11), 3, true)
	income.Type = core.TypeIncome

	items := []core.RecurringExpense{
		item(d(2025, 3, 1), 3, true),  // overdue
		item(d(2025, 3, 12), 3, true), // upcoming
		item(d(2025, 3, 1), 3, false), // ignored
		weekly,
		income, // upcoming, not a cost
	}
	o := Summarize(items, now)
	if o.OverdueCount != 1 || o.OverdueTotal.Cents != 100000 {
		t.Errorf("overdue = %d/%d", o.OverdueCount, o.OverdueTotal.Cents)
	}
	if o.UpcomingCount != 2 || o.UpcomingTotal.Cents != 200000 {
		t.Errorf("upcoming = %d/%d", o.UpcomingCount, o.UpcomingTotal.Cents)
	}
	if o.ActiveCount != 4 {
		t.Errorf("active = %d", o.ActiveCount)
	}
	if want := int64(200000 + 1200*52/12); o.MonthlyCost.Cents != want {
		t.Errorf("monthly cost = %d, want %d", o.MonthlyCost.Cents, want)
	}
}
