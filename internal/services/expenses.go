package services

import (
	"context"
	"sort"
	"time"

	"github.com/marcim390/financeapp/internal/core"
	"github.com/marcim390/financeapp/internal/metrics"
)

// ExpenseService manages one-off transactions and categories.
type ExpenseService struct {
	gw       Gateway
	accounts *AccountService
	runtime
}

func NewExpenseService(gw Gateway, accounts *AccountService) *ExpenseService {
	return &ExpenseService{gw: gw, accounts: accounts, runtime: defaultRuntime()}
}

// CreateExpense stores a transaction for userID. It counts against the free
// plan allowance.
func (s *ExpenseService) CreateExpense(ctx context.Context, userID string, e core.Expense) (core.Expense, error) {
	e.ID = s.newID()
	e.UserID = userID
	e.CreatedAt = s.now()
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	err := s.accounts.RecordTransaction(ctx, userID, func(ctx context.Context) error {
		return s.gw.CreateExpense(ctx, e)
	})
	if err != nil {
		return core.Expense{}, err
	}
	metrics.Transactions.WithLabelValues(string(e.Type), "manual").Inc()
	return e, nil
}

func (s *ExpenseService) UpdateExpense(ctx context.Context, userID string, e core.Expense) (core.Expense, error) {
	existing, err := s.ownedExpense(ctx, userID, e.ID)
	if err != nil {
		return core.Expense{}, err
	}
	e.UserID = existing.UserID
	e.CreatedAt = existing.CreatedAt
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if err := s.gw.UpdateExpense(ctx, e); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, userID, id string) error {
	if _, err := s.ownedExpense(ctx, userID, id); err != nil {
		return err
	}
	return s.gw.DeleteExpense(ctx, id)
}

func (s *ExpenseService) ownedExpense(ctx context.Context, userID, id string) (core.Expense, error) {
	e, err := s.gw.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}
	if e.UserID != userID {
		return core.Expense{}, core.ErrForbidden
	}
	return e, nil
}

// ListExpenses returns the profile's records plus the partner's shared ones
// while the couple exists, newest first.
func (s *ExpenseService) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	own, err := s.gw.ListExpenses(ctx, userID)
	if err != nil {
		return nil, err
	}
	partner, err := partnerOf(ctx, s.gw, userID)
	if err != nil || partner == "" {
		return own, err
	}
	theirs, err := s.gw.ListExpenses(ctx, partner)
	if err != nil {
		return nil, err
	}
	for _, e := range theirs {
		if e.Person == core.Shared {
			own = append(own, e)
		}
	}
	sort.SliceStable(own, func(i, j int) bool {
		if !own[i].Date.Equal(own[j].Date) {
			return own[i].Date.After(own[j].Date)
		}
		return own[i].CreatedAt.After(own[j].CreatedAt)
	})
	return own, nil
}

// Summary aggregates the visible records for month.
func (s *ExpenseService) Summary(ctx context.Context, userID string, view core.View, person core.Person, month time.Time) (core.Summary, error) {
	if !view.Valid() {
		return core.Summary{}, core.NewValidationError("view", "must be individual or couple")
	}
	if view == core.ViewIndividual && !person.Valid() {
		return core.Summary{}, core.ErrInvalidPerson
	}
	if month.IsZero() {
		month = s.now()
	}
	expenses, err := s.ListExpenses(ctx, userID)
	if err != nil {
		return core.Summary{}, err
	}
	categories, err := s.visibleCategories(ctx, userID)
	if err != nil {
		return core.Summary{}, err
	}
	return core.MonthlySummary(expenses, categories, view, person, month), nil
}

// visibleCategories are the profile's categories and, in a couple, the
// partner's, so shared records resolve their category names.
func (s *ExpenseService) visibleCategories(ctx context.Context, userID string) ([]core.Category, error) {
	cats, err := s.gw.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	partner, err := partnerOf(ctx, s.gw, userID)
	if err != nil || partner == "" {
		return cats, err
	}
	theirs, err := s.gw.ListCategories(ctx, partner)
	if err != nil {
		return nil, err
	}
	return append(cats, theirs...), nil
}

// Categories

func (s *ExpenseService) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	return s.gw.ListCategories(ctx, userID)
}

func (s *ExpenseService) CreateCategory(ctx context.Context, userID string, c core.Category) (core.Category, error) {
	c.ID = s.newID()
	c.UserID = userID
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.gw.CreateCategory(ctx, c); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func (s *ExpenseService) UpdateCategory(ctx context.Context, userID string, c core.Category) (core.Category, error) {
	existing, err := s.gw.GetCategory(ctx, c.ID)
	if err != nil {
		return core.Category{}, err
	}
	if existing.UserID != userID {
		return core.Category{}, core.ErrForbidden
	}
	c.UserID = userID
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.gw.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func (s *ExpenseService) DeleteCategory(ctx context.Context, userID, id string) error {
	existing, err := s.gw.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	if existing.UserID != userID {
		return core.ErrForbidden
	}
	return s.gw.DeleteCategory(ctx, id)
}
