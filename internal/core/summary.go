package core

import (
	"sort"
	"time"
)

const (
	ViewIndividual View = "individual"
	ViewCouple     View = "couple"
)

// View selects whose records a summary covers.
type View string

func (v View) Valid() bool {
	return v == ViewIndividual || v == ViewCouple
}

// Summary aggregates a set of transactions. Balance may be negative.
type Summary struct {
	TotalExpenses   Money            `json:"total_expenses"`
	TotalIncome     Money            `json:"total_income"`
	Balance         Money            `json:"balance"`
	MonthlyExpenses Money            `json:"monthly_expenses"`
	MonthlyIncome   Money            `json:"monthly_income"`
	Categories      []CategoryAmount `json:"categories"`
}

// CategoryAmount is the expense total of one category.
type CategoryAmount struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	Amount     Money  `json:"amount"`
}

// MonthlySummary totals expenses and income. In the individual view only the
// given person's and shared records count. Monthly figures cover the calendar
// month containing month; category totals cover expenses across all dates and
// only categories with a positive total are returned, largest first.
func MonthlySummary(expenses []Expense, categories []Category, view View, person Person, month time.Time) Summary {
	var s Summary
	y, m, _ := month.Date()
	byCategory := make(map[string]int64)

	for _, e := range expenses {
		if view == ViewIndividual && e.Person != person && e.Person != Shared {
			continue
		}
		inMonth := e.Date.Year() == y && e.Date.Month() == m
		switch e.Type {
		case TypeExpense:
			s.TotalExpenses = s.TotalExpenses.Add(e.Amount)
			if inMonth {
				s.MonthlyExpenses = s.MonthlyExpenses.Add(e.Amount)
			}
			byCategory[e.CategoryID] += e.Amount.Cents
		case TypeIncome:
			s.TotalIncome = s.TotalIncome.Add(e.Amount)
			if inMonth {
				s.MonthlyIncome = s.MonthlyIncome.Add(e.Amount)
			}
		}
	}
	s.Balance = Money{Cents: s.TotalIncome.Cents - s.TotalExpenses.Cents}

	s.Categories = []CategoryAmount{}
	for _, c := range categories {
		total := byCategory[c.ID]
		if total <= 0 {
			continue
		}
		s.Categories = append(s.Categories, CategoryAmount{
			CategoryID: c.ID,
			Name:       c.Name,
			Color:      c.Color,
			Amount:     Money{Cents: total},
		})
	}
	sort.SliceStable(s.Categories, func(i, j int) bool {
		return s.Categories[i].Amount.Cents > s.Categories[j].Amount.Cents
	})
	return s
}
