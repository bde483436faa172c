package billing

import (
	"time"

	"github.com/marcim390/financeapp/internal/core"
)

// MarkAsPaid records one payment. It returns the one-off transaction dated on
// the day of now and the item advanced by exactly one cycle from its previous
// due date, so paying late does not skip cycles.
func MarkAsPaid(item core.RecurringExpense, now time.Time) (core.Expense, core.RecurringExpense, error) {
	next, err := NextDueDate(item.Frequency, item.DueDay, item.NextDueDate)
	if err != nil {
		return core.Expense{}, item, err
	}
	today := core.DateOf(now)

	payment := core.Expense{
		UserID:      item.UserID,
		Description: item.Description,
		Amount:      item.Amount,
		CategoryID:  item.CategoryID,
		Date:        today,
		Person:      item.Person,
		Type:        item.Type,
		CreatedAt:   now,
	}

	item.LastPaidDate = today
	item.NextDueDate = next
	return payment, item, nil
}

// SetActive pauses or resumes an item. The due date is left untouched, so a
// resumed item that fell behind shows as overdue.
func SetActive(item core.RecurringExpense, active bool) core.RecurringExpense {
	item.IsActive = active
	return item
}
