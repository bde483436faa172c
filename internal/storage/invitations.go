package storage

import (
	"context"
	"fmt"

	"github.com/marcim390/financeapp/internal/core"
)

const invitationColumns = `id, sender_id, recipient_email, status, created_at, expires_at, accepted_at, responded_at`

func scanInvitation(row rowScanner) (core.Invitation, error) {
	var (
		inv                                  core.Invitation
		status                               string
		created, expires, accepted, answered timeScanner
	)
	if err := row.Scan(&inv.ID, &inv.SenderID, &inv.RecipientEmail, &status,
		&created, &expires, &accepted, &answered); err != nil {
		return core.Invitation{}, err
	}
	inv.Status = core.InvitationStatus(status)
	inv.CreatedAt = created.t
	inv.ExpiresAt = expires.t
	inv.AcceptedAt = accepted.ptr()
	inv.RespondedAt = answered.ptr()
	return inv, nil
}

func (s *Store) listInvitations(ctx context.Context, op, where string, arg any) ([]core.Invitation, error) {
	rows, err := s.query(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE `+where+` ORDER BY created_at DESC`, arg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	defer rows.Close()

	var out []core.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, mapError(err))
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return out, nil
}

func (s *Store) CreateInvitation(ctx context.Context, inv core.Invitation) error {
	_, err := s.exec(ctx, `INSERT INTO invitations (`+invitationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.SenderID, core.NormalizeEmail(inv.RecipientEmail), string(inv.Status),
		s.ts(inv.CreatedAt), s.ts(inv.ExpiresAt), s.nullTS(inv.AcceptedAt), s.nullTS(inv.RespondedAt))
	if err != nil {
		return fmt.Errorf("create invitation: %w", mapError(err))
	}
	return nil
}

func (s *Store) GetInvitation(ctx context.Context, id string) (core.Invitation, error) {
	inv, err := scanInvitation(s.queryRow(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE id = ?`, id))
	if err != nil {
		return core.Invitation{}, fmt.Errorf("get invitation %s: %w", id, mapError(err))
	}
	return inv, nil
}

func (s *Store) FindPendingInvitation(ctx context.Context, senderID, email string) (core.Invitation, error) {
	inv, err := scanInvitation(s.queryRow(ctx, `SELECT `+invitationColumns+` FROM invitations
		WHERE sender_id = ? AND recipient_email = ? AND status = 'pending'`,
		senderID, core.NormalizeEmail(email)))
	if err != nil {
		return core.Invitation{}, fmt.Errorf("find pending invitation: %w", mapError(err))
	}
	return inv, nil
}

func (s *Store) ListSentInvitations(ctx context.Context, senderID string) ([]core.Invitation, error) {
	return s.listInvitations(ctx, "list sent invitations", "sender_id = ?", senderID)
}

func (s *Store) ListReceivedInvitations(ctx context.Context, email string) ([]core.Invitation, error) {
	return s.listInvitations(ctx, "list received invitations", "recipient_email = ?", core.NormalizeEmail(email))
}

// UpdateInvitation stores the answer to a pending invitation. Once an
// invitation has left pending it is ErrAlreadyResolved, so a reject racing an
// accept cannot overwrite it.
func (s *Store) UpdateInvitation(ctx context.Context, inv core.Invitation) error {
	res, err := s.exec(ctx, `UPDATE invitations
		SET status = ?, expires_at = ?, accepted_at = ?, responded_at = ?
		WHERE id = ? AND status = 'pending'`,
		string(inv.Status), s.ts(inv.ExpiresAt), s.nullTS(inv.AcceptedAt), s.nullTS(inv.RespondedAt), inv.ID)
	if err != nil {
		return fmt.Errorf("update invitation %s: %w", inv.ID, mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update invitation %s: %w", inv.ID, mapError(err))
	}
	if n > 0 {
		return nil
	}
	if _, err := s.GetInvitation(ctx, inv.ID); err != nil {
		return err
	}
	return fmt.Errorf("update invitation %s: %w", inv.ID, core.ErrAlreadyResolved)
}

func (s *Store) DeleteInvitation(ctx context.Context, id string) error {
	return s.execOne(ctx, "delete invitation "+id, `DELETE FROM invitations WHERE id = ?`, id)
}
