package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/marcim390/financeapp/internal/core"
)

const expenseColumns = `id, user_id, description, amount_cents, category_id, date, person, type, created_at`

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e             core.Expense
		person, typ   string
		date, created timeScanner
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.Description, &e.Amount.Cents, &e.CategoryID,
		&date, &person, &typ, &created); err != nil {
		return core.Expense{}, err
	}
	e.Date = date.date()
	e.Person = core.Person(person)
	e.Type = core.TransactionType(typ)
	e.CreatedAt = created.t
	return e, nil
}

func (s *Store) CreateExpense(ctx context.Context, e core.Expense) error {
	_, err := s.exec(ctx, `INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Description, e.Amount.Cents, e.CategoryID, s.date(e.Date),
		string(e.Person), string(e.Type), s.ts(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("create expense: %w", mapError(err))
	}

	slog.DebugContext(ctx, "Expense saved",
		"id", e.ID,
		"user_id", e.UserID,
		"amount_cents", e.Amount.Cents,
		"date", e.Date.String())
	return nil
}

func (s *Store) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	e, err := scanExpense(s.queryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id))
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %s: %w", id, mapError(err))
	}
	return e, nil
}

func (s *Store) UpdateExpense(ctx context.Context, e core.Expense) error {
	return s.execOne(ctx, "update expense "+e.ID, `UPDATE expenses
		SET description = ?, amount_cents = ?, category_id = ?, date = ?, person = ?, type = ?
		WHERE id = ?`,
		e.Description, e.Amount.Cents, e.CategoryID, s.date(e.Date), string(e.Person), string(e.Type), e.ID)
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	return s.execOne(ctx, "delete expense "+id, `DELETE FROM expenses WHERE id = ?`, id)
}

func (s *Store) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	rows, err := s.query(ctx, `SELECT `+expenseColumns+` FROM expenses
		WHERE user_id = ? ORDER BY date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", mapError(err))
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", mapError(err))
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expenses: %w", mapError(err))
	}
	return out, nil
}
