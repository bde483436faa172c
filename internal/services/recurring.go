package services

import (
	"context"
	"log/slog"

	"github.com/marcim390/financeapp/internal/billing"
	"github.com/marcim390/financeapp/internal/core"
	"github.com/marcim390/financeapp/internal/metrics"
)

// RecurringItem is a recurring expense with its status at request time.
type RecurringItem struct {
	core.RecurringExpense
	Status    billing.Status `json:"status"`
	DaysUntil int            `json:"days_until"`
}

// RecurringService manages recurring bills and their payments.
type RecurringService struct {
	gw       Gateway
	accounts *AccountService
	runtime
}

func NewRecurringService(gw Gateway, accounts *AccountService) *RecurringService {
	return &RecurringService{gw: gw, accounts: accounts, runtime: defaultRuntime()}
}

// Create stores a new active item. Without an explicit next due date the
// first occurrence after today is used.
func (s *RecurringService) Create(ctx context.Context, userID string, r core.RecurringExpense) (core.RecurringExpense, error) {
	now := s.now()
	r.ID = s.newID()
	r.UserID = userID
	r.IsActive = true
	r.LastPaidDate = core.Date{}
	r.CreatedAt = now
	if err := r.Validate(); err != nil {
		return core.RecurringExpense{}, err
	}
	if r.NextDueDate.IsZero() {
		next, err := billing.InitialDueDate(r.Frequency, r.DueDay, core.DateOf(now))
		if err != nil {
			return core.RecurringExpense{}, err
		}
		r.NextDueDate = next
	}
	if err := s.gw.CreateRecurring(ctx, r); err != nil {
		return core.RecurringExpense{}, err
	}
	return r, nil
}

// Update edits an item. A changed schedule recomputes the next due date
// unless the caller sets one.
func (s *RecurringService) Update(ctx context.Context, userID string, r core.RecurringExpense) (core.RecurringExpense, error) {
	existing, err := s.owned(ctx, userID, r.ID)
	if err != nil {
		return core.RecurringExpense{}, err
	}
	r.UserID = existing.UserID
	r.CreatedAt = existing.CreatedAt
	r.LastPaidDate = existing.LastPaidDate
	r.IsActive = existing.IsActive
	if err := r.Validate(); err != nil {
		return core.RecurringExpense{}, err
	}
	if r.NextDueDate.IsZero() {
		r.NextDueDate = existing.NextDueDate
		if r.Frequency != existing.Frequency || r.DueDay != existing.DueDay {
			next, err := billing.InitialDueDate(r.Frequency, r.DueDay, core.DateOf(s.now()))
			if err != nil {
				return core.RecurringExpense{}, err
			}
			r.NextDueDate = next
		}
	}
	if err := s.gw.UpdateRecurring(ctx, r); err != nil {
		return core.RecurringExpense{}, err
	}
	return r, nil
}

func (s *RecurringService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.gw.DeleteRecurring(ctx, id)
}

func (s *RecurringService) owned(ctx context.Context, userID, id string) (core.RecurringExpense, error) {
	r, err := s.gw.GetRecurring(ctx, id)
	if err != nil {
		return core.RecurringExpense{}, err
	}
	if r.UserID != userID {
		return core.RecurringExpense{}, core.ErrForbidden
	}
	return r, nil
}

// List returns the profile's items classified at the current time.
func (s *RecurringService) List(ctx context.Context, userID string) ([]RecurringItem, error) {
	items, err := s.gw.ListRecurring(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]RecurringItem, 0, len(items))
	for _, it := range items {
		c := billing.Classify(it, now)
		out = append(out, RecurringItem{RecurringExpense: it, Status: c.Status, DaysUntil: c.DaysUntil})
	}
	return out, nil
}

// Status summarises overdue and upcoming items for the badge.
func (s *RecurringService) Status(ctx context.Context, userID string) (billing.Overview, error) {
	items, err := s.gw.ListRecurring(ctx, userID)
	if err != nil {
		return billing.Overview{}, err
	}
	return billing.Summarize(items, s.now()), nil
}

// MarkAsPaid records the payment as a transaction, through the same
// allowance check as a manual one, and advances the item by one cycle.
func (s *RecurringService) MarkAsPaid(ctx context.Context, userID, id string) (core.Expense, core.RecurringExpense, error) {
	item, err := s.owned(ctx, userID, id)
	if err != nil {
		return core.Expense{}, core.RecurringExpense{}, err
	}
	payment, updated, err := billing.MarkAsPaid(item, s.now())
	if err != nil {
		return core.Expense{}, core.RecurringExpense{}, err
	}
	payment.ID = s.newID()

	err = s.accounts.RecordTransaction(ctx, userID, func(ctx context.Context) error {
		if err := s.gw.CreateExpense(ctx, payment); err != nil {
			return err
		}
		return s.gw.UpdateRecurring(ctx, updated)
	})
	if err != nil {
		return core.Expense{}, core.RecurringExpense{}, err
	}
	metrics.Transactions.WithLabelValues(string(payment.Type), "recurring").Inc()
	slog.InfoContext(ctx, "Recurring expense paid",
		"recurring_id", id,
		"amount_cents", payment.Amount.Cents,
		"next_due_date", updated.NextDueDate.String())
	return payment, updated, nil
}

// SetActive pauses or resumes an item without touching its due date.
func (s *RecurringService) SetActive(ctx context.Context, userID, id string, active bool) (core.RecurringExpense, error) {
	item, err := s.owned(ctx, userID, id)
	if err != nil {
		return core.RecurringExpense{}, err
	}
	item = billing.SetActive(item, active)
	if err := s.gw.UpdateRecurring(ctx, item); err != nil {
		return core.RecurringExpense{}, err
	}
	return item, nil
}
