package billing

import (
	"time"

	"github.com/marcim390/financeapp/internal/core"
)

const (
	StatusOverdue   Status = "overdue"
	StatusUpcoming  Status = "upcoming"
	StatusScheduled Status = "scheduled"
	StatusInactive  Status = "inactive"
)

// Status is the derived state of a recurring item relative to today.
type Status string

// Classification is a status plus the signed number of days until the due
// date (negative once overdue).
type Classification struct {
	Status    Status `json:"status"`
	DaysUntil int    `json:"days_until"`
}

// Classify compares the item's due date with the calendar day of now in now's
// location.
func Classify(item core.RecurringExpense, now time.Time) Classification {
	today := core.DateOf(now)
	days := today.DaysUntil(item.NextDueDate)
	switch {
	case !item.IsActive:
		return Classification{Status: StatusInactive, DaysUntil: days}
	case days < 0:
		return Classification{Status: StatusOverdue, DaysUntil: days}
	case days <= item.NotificationDays:
		return Classification{Status: StatusUpcoming, DaysUntil: days}
	default:
		return Classification{Status: StatusScheduled, DaysUntil: days}
	}
}

// Overview counts and totals the items that need attention.
type Overview struct {
	OverdueCount  int        `json:"overdue_count"`
	OverdueTotal  core.Money `json:"overdue_total"`
	UpcomingCount int        `json:"upcoming_count"`
	UpcomingTotal core.Money `json:"upcoming_total"`
	ActiveCount   int        `json:"active_count"`
	MonthlyCost   core.Money `json:"monthly_cost"`
}

// Summarize classifies every item at now. MonthlyCost normalises active
// expense items to a monthly figure (weekly x52/12, yearly /12).
func Summarize(items []core.RecurringExpense, now time.Time) Overview {
	var o Overview
	var monthly int64
	for _, it := range items {
		c := Classify(it, now)
		switch c.Status {
		case StatusInactive:
			continue
		case StatusOverdue:
			o.OverdueCount++
			o.OverdueTotal = o.OverdueTotal.Add(it.Amount)
		case StatusUpcoming:
			o.UpcomingCount++
			o.UpcomingTotal = o.UpcomingTotal.Add(it.Amount)
		}
		o.ActiveCount++
		if it.Type != core.TypeExpense {
			continue
		}
		switch it.Frequency {
		case core.Weekly:
			monthly += it.Amount.Cents * 52 / 12
		case core.Monthly:
			monthly += it.Amount.Cents
		case core.Yearly:
			monthly += it.Amount.Cents / 12
		}
	}
	o.MonthlyCost = core.Money{Cents: monthly}
	return o
}
