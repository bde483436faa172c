package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcim390/financeapp/internal/core"
)

func TestCreateExpenseValidation(t *testing.T) {
	f := newFixture(t)
	f.addProfile("ana", "ana@example.com", core.PlanFree)

	bad := newExpense("", 100, core.Person1, core.TypeExpense, core.DateOf(baseTime))
	_, err := f.expenses.CreateExpense(f.ctx, "ana", bad)
	assert.True(t, core.IsValidationError(err))

	status, err := f.accounts.CheckTransactionLimit(f.ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, 0, status.Used, "invalid input does not use the allowance")
}

func TestExpenseOwnership(t *testing.T) {
	f := newFixture(t)
	f.addProfile("ana", "ana@example.com", core.PlanPremium)
	f.addProfile("eve", "eve@example.com", core.PlanPremium)

	e, err := f.expenses.CreateExpense(f.ctx, "ana", newExpense("Rent", 90000, core.Person1, core.TypeExpense, core.DateOf(baseTime)))
	require.NoError(t, err)
	assert.Equal(t, "ana", e.UserID)

	e.Description = "Rent March"
	_, err = f.expenses.UpdateExpense(f.ctx, "eve", e)
	assert.ErrorIs(t, err, core.ErrForbidden)
	assert.ErrorIs(t, f.expenses.DeleteExpense(f.ctx, "eve", e.ID), core.ErrForbidden)

	updated, err := f.expenses.UpdateExpense(f.ctx, "ana", e)
	require.NoError(t, err)
	assert.Equal(t, "Rent March", updated.Description)

	require.NoError(t, f.expenses.DeleteExpense(f.ctx, "ana", e.ID))
	assert.ErrorIs(t, f.expenses.DeleteExpense(f.ctx, "ana", e.ID), core.ErrNotFound)
}

func TestListExpensesIncludesPartnerShared(t *testing.T) {
	f := newFixture(t)
	f.addProfile("ana", "ana@example.com", core.PlanPremium)
	c := f.couple("ana", "bob@example.com")
	bob := c.PartnerOf("ana")

	day := core.DateOf(baseTime)
	_, err := f.expenses.CreateExpense(f.ctx, "ana", newExpense("Lunch", 1500, core.Person1, core.TypeExpense, day))
	require.NoError(t, err)
	_, err = f.expenses.CreateExpense(f.ctx, bob, newExpense("Groceries", 8000, core.Shared, core.TypeExpense, day.AddDays(1)))
	require.NoError(t, err)
	_, err = f.expenses.CreateExpense(f.ctx, bob, newExpense("Gym", 3000, core.Person2, core.TypeExpense, day))
	require.NoError(t, err)

	list, err := f.expenses.ListExpenses(f.ctx, "ana")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Groceries", list[0].Description, "newest first")
	assert.Equal(t, "Lunch", list[1].Description)

	require.NoError(t, f.invitations.BreakCouple(f.ctx, c.ID, "ana"))
	list, err = f.expenses.ListExpenses(f.ctx, "ana")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSummary(t *testing.T) {
	f := newFixture(t)
	f.addProfile("ana", "ana@example.com", core.PlanPremium)
	food, err := f.expenses.CreateCategory(f.ctx, "ana", core.Category{Name: "Food", Color: "#f00"})
	require.NoError(t, err)

	march := core.DateOf(baseTime)
	feb := march.AddDays(-20)
	records := []core.Expense{
		newExpense("Market", 10000, core.Person1, core.TypeExpense, march),
		newExpense("Dinner", 5000, core.Person2, core.TypeExpense, march),
		newExpense("Salary", 300000, core.Person1, core.TypeIncome, march),
		newExpense("Old market", 2000, core.Shared, core.TypeExpense, feb),
	}
	for _, r := range records {
		r.CategoryID = food.ID
		_, err := f.expenses.CreateExpense(f.ctx, "ana", r)
		require.NoError(t, err)
	}

	s, err := f.expenses.Summary(f.ctx, "ana", core.ViewCouple, "", baseTime)
	require.NoError(t, err)
	assert.Equal(t, int64(17000), s.TotalExpenses.Cents)
	assert.Equal(t, int64(15000), s.MonthlyExpenses.Cents)
	assert.Equal(t, int64(300000), s.MonthlyIncome.Cents)
	assert.Equal(t, int64(283000), s.Balance.Cents)
	require.Len(t, s.Categories, 1)
	assert.Equal(t, "Food", s.Categories[0].Name)

	s, err = f.expenses.Summary(f.ctx, "ana", core.ViewIndividual, core.Person1, baseTime)
	require.NoError(t, err)
	assert.Equal(t, int64(12000), s.TotalExpenses.Cents)
	assert.Equal(t, int64(10000), s.MonthlyExpenses.Cents)

	_, err = f.expenses.Summary(f.ctx, "ana", core.View("team"), "", baseTime)
	assert.True(t, core.IsValidationError(err))
	_, err = f.expenses.Summary(f.ctx, "ana", core.ViewIndividual, core.Person("x"), baseTime)
	assert.True(t, core.IsValidationError(err))
}

func TestSummaryDefaultsToCurrentMonth(t *testing.T) {
	f := newFixture(t)
	f.addProfile("ana", "ana@example.com", core.PlanPremium)
	_, err := f.expenses.CreateExpense(f.ctx, "ana", newExpense("Book", 2500, core.Person1, core.TypeExpense, core.DateOf(baseTime)))
	require.NoError(t, err)

	s, err := f.expenses.Summary(f.ctx, "ana", core.ViewCouple, "", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int64(2500), s.MonthlyExpenses.Cents)
}

func TestCategoryOwnership(t *testing.T) {
	f := newFixture(t)
	f.addProfile("ana", "ana@example.com", core.PlanFree)
	f.addProfile("eve", "eve@example.com", core.PlanFree)

	_, err := f.expenses.CreateCategory(f.ctx, "ana", core.Category{Name: "  "})
	assert.True(t, core.IsValidationError(err))

	c, err := f.expenses.CreateCategory(f.ctx, "ana", core.Category{Name: "Pets", Color: "#0f0", Icon: "paw"})
	require.NoError(t, err)

	c.Name = "Dogs"
	_, err = f.expenses.UpdateCategory(f.ctx, "eve", c)
	assert.ErrorIs(t, err, core.ErrForbidden)
	assert.ErrorIs(t, f.expenses.DeleteCategory(f.ctx, "eve", c.ID), core.ErrForbidden)

	updated, err := f.expenses.UpdateCategory(f.ctx, "ana", c)
	require.NoError(t, err)
	assert.Equal(t, "Dogs", updated.Name)

	list, err := f.expenses.ListCategories(f.ctx, "ana")
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, f.expenses.DeleteCategory(f.ctx, "ana", c.ID))
	list, err = f.expenses.ListCategories(f.ctx, "ana")
	require.NoError(t, err)
	assert.Empty(t, list)
}
