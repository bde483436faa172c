package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/marcim390/financeapp/internal/core"
)

const profileColumns = `id, email, full_name, gender, plan_type, subscription_status,
	monthly_transactions_used, last_transaction_reset, is_admin, invited_by,
	account_state, password_hash, created_at, updated_at`

func scanProfile(row rowScanner) (core.Profile, error) {
	var (
		p                           core.Profile
		gender, plan, status, state string
		invitedBy                   sql.NullString
		reset, created, updated     timeScanner
	)
	err := row.Scan(&p.ID, &p.Email, &p.FullName, &gender, &plan, &status,
		&p.MonthlyTransactionsUsed, &reset, &p.IsAdmin, &invitedBy,
		&state, &p.PasswordHash, &created, &updated)
	if err != nil {
		return core.Profile{}, err
	}
	p.Gender = core.Gender(gender)
	p.Plan = core.Plan(plan)
	p.SubscriptionStatus = core.SubscriptionStatus(status)
	p.Account = core.AccountState(state)
	p.InvitedBy = invitedBy.String
	p.LastTransactionReset = reset.t
	p.CreatedAt = created.t
	p.UpdatedAt = updated.t
	return p, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (s *Store) GetProfile(ctx context.Context, id string) (core.Profile, error) {
	p, err := scanProfile(s.queryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id))
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile %s: %w", id, mapError(err))
	}
	return p, nil
}

func (s *Store) GetProfileByEmail(ctx context.Context, email string) (core.Profile, error) {
	p, err := scanProfile(s.queryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE email = ?`, core.NormalizeEmail(email)))
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile by email: %w", mapError(err))
	}
	return p, nil
}

func (s *Store) CreateProfile(ctx context.Context, p core.Profile) error {
	_, err := s.exec(ctx, `INSERT INTO profiles (`+profileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, core.NormalizeEmail(p.Email), p.FullName, string(p.Gender), string(p.Plan),
		string(p.SubscriptionStatus), p.MonthlyTransactionsUsed, s.ts(p.LastTransactionReset),
		p.IsAdmin, nullString(p.InvitedBy), string(p.Account), p.PasswordHash,
		s.ts(p.CreatedAt), s.ts(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create profile: %w", mapError(err))
	}
	return nil
}

func (s *Store) UpdateProfile(ctx context.Context, p core.Profile) error {
	return s.execOne(ctx, "update profile "+p.ID, `UPDATE profiles SET
		email = ?, full_name = ?, gender = ?, plan_type = ?, subscription_status = ?,
		monthly_transactions_used = ?, last_transaction_reset = ?, is_admin = ?,
		invited_by = ?, account_state = ?, password_hash = ?, updated_at = ?
		WHERE id = ?`,
		core.NormalizeEmail(p.Email), p.FullName, string(p.Gender), string(p.Plan),
		string(p.SubscriptionStatus), p.MonthlyTransactionsUsed, s.ts(p.LastTransactionReset),
		p.IsAdmin, nullString(p.InvitedBy), string(p.Account), p.PasswordHash,
		s.ts(p.UpdatedAt), p.ID)
}

func (s *Store) ListProfiles(ctx context.Context) ([]core.Profile, error) {
	rows, err := s.query(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", mapError(err))
	}
	defer rows.Close()

	var out []core.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", mapError(err))
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list profiles: %w", mapError(err))
	}
	return out, nil
}

// DeleteOrphanedPlaceholder deletes the placeholder for email if nothing
// references it any more: no open or accepted invitation, no sent
// invitation, no expense, recurring item or category, no couple.
func (s *Store) DeleteOrphanedPlaceholder(ctx context.Context, email string) (bool, error) {
	res, err := s.exec(ctx, `DELETE FROM profiles
		WHERE email = ?
		  AND account_state = 'placeholder'
		  AND NOT EXISTS (SELECT 1 FROM invitations i
		                  WHERE i.recipient_email = profiles.email AND i.status IN ('pending', 'accepted'))
		  AND NOT EXISTS (SELECT 1 FROM invitations i WHERE i.sender_id = profiles.id)
		  AND NOT EXISTS (SELECT 1 FROM expenses e WHERE e.user_id = profiles.id)
		  AND NOT EXISTS (SELECT 1 FROM recurring_expenses r WHERE r.user_id = profiles.id)
		  AND NOT EXISTS (SELECT 1 FROM categories c WHERE c.user_id = profiles.id)
		  AND NOT EXISTS (SELECT 1 FROM couple_members m WHERE m.profile_id = profiles.id)`,
		core.NormalizeEmail(email))
	if err != nil {
		return false, fmt.Errorf("delete orphaned placeholder: %w", mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete orphaned placeholder: %w", mapError(err))
	}
	return n > 0, nil
}
