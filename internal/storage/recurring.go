package storage

import (
	"context"
	"fmt"

	"github.com/marcim390/financeapp/internal/core"
)

const recurringColumns = `id, user_id, description, amount_cents, category_id, person, type,
	frequency, due_day, is_active, next_due_date, last_paid_date, notification_days, created_at`

func scanRecurring(row rowScanner) (core.RecurringExpense, error) {
	var (
		r                      core.RecurringExpense
		person, typ, freq      string
		next, lastPaid, create timeScanner
	)
	if err := row.Scan(&r.ID, &r.UserID, &r.Description, &r.Amount.Cents, &r.CategoryID,
		&person, &typ, &freq, &r.DueDay, &r.IsActive, &next, &lastPaid,
		&r.NotificationDays, &create); err != nil {
		return core.RecurringExpense{}, err
	}
	r.Person = core.Person(person)
	r.Type = core.TransactionType(typ)
	r.Frequency = core.Frequency(freq)
	r.NextDueDate = next.date()
	r.LastPaidDate = lastPaid.date()
	r.CreatedAt = create.t
	return r, nil
}

func (s *Store) listRecurring(ctx context.Context, op, where string, args ...any) ([]core.RecurringExpense, error) {
	rows, err := s.query(ctx, `SELECT `+recurringColumns+` FROM recurring_expenses
		WHERE `+where+` ORDER BY next_due_date, created_at`, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	defer rows.Close()

	var out []core.RecurringExpense
	for rows.Next() {
		r, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, mapError(err))
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return out, nil
}

func (s *Store) CreateRecurring(ctx context.Context, r core.RecurringExpense) error {
	_, err := s.exec(ctx, `INSERT INTO recurring_expenses (`+recurringColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.Description, r.Amount.Cents, r.CategoryID, string(r.Person), string(r.Type),
		string(r.Frequency), r.DueDay, r.IsActive, s.date(r.NextDueDate), s.date(r.LastPaidDate),
		r.NotificationDays, s.ts(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("create recurring expense: %w", mapError(err))
	}
	return nil
}

func (s *Store) GetRecurring(ctx context.Context, id string) (core.RecurringExpense, error) {
	r, err := scanRecurring(s.queryRow(ctx, `SELECT `+recurringColumns+` FROM recurring_expenses WHERE id = ?`, id))
	if err != nil {
		return core.RecurringExpense{}, fmt.Errorf("get recurring expense %s: %w", id, mapError(err))
	}
	return r, nil
}

func (s *Store) UpdateRecurring(ctx context.Context, r core.RecurringExpense) error {
	return s.execOne(ctx, "update recurring expense "+r.ID, `UPDATE recurring_expenses
		SET description = ?, amount_cents = ?, category_id = ?, person = ?, type = ?,
		    frequency = ?, due_day = ?, is_active = ?, next_due_date = ?, last_paid_date = ?,
		    notification_days = ?
		WHERE id = ?`,
		r.Description, r.Amount.Cents, r.CategoryID, string(r.Person), string(r.Type),
		string(r.Frequency), r.DueDay, r.IsActive, s.date(r.NextDueDate), s.date(r.LastPaidDate),
		r.NotificationDays, r.ID)
}

func (s *Store) DeleteRecurring(ctx context.Context, id string) error {
	return s.execOne(ctx, "delete recurring expense "+id, `DELETE FROM recurring_expenses WHERE id = ?`, id)
}

func (s *Store) ListRecurring(ctx context.Context, userID string) ([]core.RecurringExpense, error) {
	return s.listRecurring(ctx, "list recurring expenses", "user_id = ?", userID)
}

func (s *Store) ListActiveRecurring(ctx context.Context) ([]core.RecurringExpense, error) {
	return s.listRecurring(ctx, "list active recurring expenses", "is_active = ?", true)
}
