package core

import "time"

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRejected InvitationStatus = "rejected"
	// InvitationExpired is never stored; it is derived from ExpiresAt.
	InvitationExpired InvitationStatus = "expired"
)

type (
	InvitationStatus string

	Invitation struct {
		ID             string           `json:"id"`
		SenderID       string           `json:"sender_id"`
		RecipientEmail string           `json:"recipient_email"`
		Status         InvitationStatus `json:"status"`
		CreatedAt      time.Time        `json:"created_at"`
		ExpiresAt      time.Time        `json:"expires_at"`
		AcceptedAt     *time.Time       `json:"accepted_at,omitempty"`
		RespondedAt    *time.Time       `json:"responded_at,omitempty"`
	}
)

// IsExpired reports whether a pending invitation is past its expiry at now.
func (i Invitation) IsExpired(now time.Time) bool {
	return i.Status == InvitationPending && !now.Before(i.ExpiresAt)
}

// EffectiveStatus folds the passive expiry into the stored status.
func (i Invitation) EffectiveStatus(now time.Time) InvitationStatus {
	if i.IsExpired(now) {
		return InvitationExpired
	}
	return i.Status
}

// CheckActionable returns nil when the invitation can still be accepted or rejected.
func (i Invitation) CheckActionable(now time.Time) error {
	if i.Status != InvitationPending {
		return ErrAlreadyResolved
	}
	if i.IsExpired(now) {
		return ErrExpired
	}
	return nil
}

// Accept moves a pending invitation to accepted.
func (i *Invitation) Accept(now time.Time) error {
	if err := i.CheckActionable(now); err != nil {
		return err
	}
	i.Status = InvitationAccepted
	i.AcceptedAt = &now
	i.RespondedAt = &now
	return nil
}

// Reject moves a pending invitation to rejected.
func (i *Invitation) Reject(now time.Time) error {
	if err := i.CheckActionable(now); err != nil {
		return err
	}
	i.Status = InvitationRejected
	i.RespondedAt = &now
	return nil
}
