package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/marcim390/financeapp/internal/core"
	"github.com/marcim390/financeapp/internal/email"
	"github.com/marcim390/financeapp/internal/metrics"
)

const DefaultInvitationTTL = 7 * 24 * time.Hour

type InvitationConfig struct {
	TTL     time.Duration
	BaseURL string
}

// InvitationService links two profiles into a couple.
type InvitationService struct {
	gw   Gateway
	mail email.Dispatcher
	cfg  InvitationConfig
	runtime
}

func NewInvitationService(gw Gateway, mail email.Dispatcher, cfg InvitationConfig) *InvitationService {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultInvitationTTL
	}
	if mail == nil {
		mail = email.LogDispatcher{}
	}
	return &InvitationService{gw: gw, mail: mail, cfg: cfg, runtime: defaultRuntime()}
}

// SetPasswordLink is where an invited partner activates their account.
func SetPasswordLink(baseURL, addr string) string {
	return strings.TrimRight(baseURL, "/") + "/auth/set-password?email=" + url.QueryEscape(addr)
}

// SendInvitation invites recipientEmail to form a couple with the sender. A
// placeholder account is ensured for the recipient. The email is sent after
// the invitation is stored and a delivery failure is only logged.
func (s *InvitationService) SendInvitation(ctx context.Context, senderID, recipientEmail string) (core.Invitation, error) {
	if err := email.ValidateAddress(recipientEmail); err != nil {
		return core.Invitation{}, err
	}
	recipient := core.NormalizeEmail(recipientEmail)

	sender, err := s.gw.GetProfile(ctx, senderID)
	if err != nil {
		return core.Invitation{}, err
	}
	if sender.Email == recipient {
		return core.Invitation{}, core.NewValidationError("email", "cannot invite yourself")
	}

	now := s.now()
	stale, err := s.gw.FindPendingInvitation(ctx, senderID, recipient)
	switch {
	case err == nil && !stale.IsExpired(now):
		return core.Invitation{}, core.ErrDuplicateInvitation
	case err == nil:
		// expired leftover, replaced below
	case errors.Is(err, core.ErrNotFound):
		stale = core.Invitation{}
	default:
		return core.Invitation{}, err
	}

	if err := s.ensurePlaceholder(ctx, recipient, sender, now); err != nil {
		return core.Invitation{}, err
	}

	inv := core.Invitation{
		ID:             s.newID(),
		SenderID:       senderID,
		RecipientEmail: recipient,
		Status:         core.InvitationPending,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.cfg.TTL),
	}
	err = s.gw.WithinTx(ctx, func(ctx context.Context) error {
		if stale.ID != "" {
			if err := s.gw.DeleteInvitation(ctx, stale.ID); err != nil && !errors.Is(err, core.ErrNotFound) {
				return fmt.Errorf("remove expired invitation: %w", err)
			}
		}
		return s.gw.CreateInvitation(ctx, inv)
	})
	if err != nil {
		return core.Invitation{}, err
	}
	metrics.Invitations.WithLabelValues("sent").Inc()
	slog.InfoContext(ctx, "Invitation sent", "invitation_id", inv.ID, "sender_id", senderID)

	s.notifyRecipient(ctx, sender, inv)
	return inv, nil
}

func (s *InvitationService) ensurePlaceholder(ctx context.Context, addr string, sender core.Profile, now time.Time) error {
	_, err := s.gw.GetProfileByEmail(ctx, addr)
	if err == nil {
		return nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return err
	}
	p := core.NewPlaceholder(s.newID(), addr, sender, now)
	if err := s.gw.CreateProfile(ctx, p); err != nil && !errors.Is(err, core.ErrEmailTaken) {
		return fmt.Errorf("create placeholder: %w", err)
	}
	return nil
}

func (s *InvitationService) notifyRecipient(ctx context.Context, sender core.Profile, inv core.Invitation) {
	msg, err := email.Render(inv.RecipientEmail, email.InvitationData{
		SenderName:  sender.FullName,
		SenderEmail: sender.Email,
		Link:        SetPasswordLink(s.cfg.BaseURL, inv.RecipientEmail),
		ExpiresAt:   inv.ExpiresAt,
	})
	if err == nil {
		err = s.mail.Send(ctx, msg)
	}
	metrics.EmailResult(string(email.TypeInvitation), err)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to send invitation email",
			"invitation_id", inv.ID,
			"error", err)
	}
}

// AcceptInvitation accepts a pending invitation and creates the couple in
// one transaction.
func (s *InvitationService) AcceptInvitation(ctx context.Context, invitationID string) (core.Couple, error) {
	var couple core.Couple
	err := s.gw.WithinTx(ctx, func(ctx context.Context) error {
		inv, err := s.gw.GetInvitation(ctx, invitationID)
		if err != nil {
			return err
		}
		now := s.now()
		if err := inv.Accept(now); err != nil {
			return err
		}
		recipient, err := s.gw.GetProfileByEmail(ctx, inv.RecipientEmail)
		if err != nil {
			return err
		}
		for _, id := range []string{inv.SenderID, recipient.ID} {
			_, err := s.gw.FindCoupleByMember(ctx, id)
			if err == nil {
				return core.ErrAlreadyCoupled
			}
			if !errors.Is(err, core.ErrNotFound) {
				return err
			}
		}
		if err := s.gw.UpdateInvitation(ctx, inv); err != nil {
			return err
		}
		couple = core.Couple{
			ID:        s.newID(),
			User1ID:   inv.SenderID,
			User2ID:   recipient.ID,
			CreatedAt: now,
		}
		return s.gw.CreateCouple(ctx, couple)
	})
	if err != nil {
		return core.Couple{}, err
	}
	metrics.Invitations.WithLabelValues("accepted").Inc()
	return couple, nil
}

func (s *InvitationService) RejectInvitation(ctx context.Context, invitationID string) error {
	inv, err := s.gw.GetInvitation(ctx, invitationID)
	if err != nil {
		return err
	}
	if err := inv.Reject(s.now()); err != nil {
		return err
	}
	if err := s.gw.UpdateInvitation(ctx, inv); err != nil {
		return err
	}
	metrics.Invitations.WithLabelValues("rejected").Inc()
	return nil
}

// AuthorizeRecipient returns ErrForbidden unless callerID owns the
// invitation's recipient address.
func (s *InvitationService) AuthorizeRecipient(ctx context.Context, invitationID, callerID string) error {
	inv, err := s.gw.GetInvitation(ctx, invitationID)
	if err != nil {
		return err
	}
	caller, err := s.gw.GetProfile(ctx, callerID)
	if err != nil {
		return err
	}
	if caller.Email != inv.RecipientEmail {
		return core.ErrForbidden
	}
	return nil
}

// CancelInvitation lets the sender withdraw a pending invitation that has
// not expired. The recipient's placeholder is removed when nothing else
// references it.
func (s *InvitationService) CancelInvitation(ctx context.Context, invitationID, callerID string) error {
	inv, err := s.gw.GetInvitation(ctx, invitationID)
	if err != nil {
		return err
	}
	if inv.SenderID != callerID {
		return core.ErrForbidden
	}
	if err := inv.CheckActionable(s.now()); err != nil {
		return err
	}
	if err := s.gw.DeleteInvitation(ctx, inv.ID); err != nil {
		return err
	}
	metrics.Invitations.WithLabelValues("cancelled").Inc()

	removed, err := s.gw.DeleteOrphanedPlaceholder(ctx, inv.RecipientEmail)
	if err != nil {
		slog.WarnContext(ctx, "Placeholder cleanup failed", "invitation_id", inv.ID, "error", err)
	} else if removed {
		slog.InfoContext(ctx, "Removed orphaned placeholder", "invitation_id", inv.ID)
	}
	return nil
}

// BreakCouple dissolves a couple. Shared records keep their tag.
func (s *InvitationService) BreakCouple(ctx context.Context, coupleID, callerID string) error {
	c, err := s.gw.GetCouple(ctx, coupleID)
	if err != nil {
		return err
	}
	if !c.Has(callerID) {
		return core.ErrForbidden
	}
	if err := s.gw.DeleteCouple(ctx, c.ID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Couple dissolved", "couple_id", c.ID, "by", callerID)
	return nil
}

// Invitations groups a profile's invitations. Status is the effective one.
type Invitations struct {
	Sent     []core.Invitation `json:"sent"`
	Received []core.Invitation `json:"received"`
}

func (s *InvitationService) ListInvitations(ctx context.Context, profileID string) (Invitations, error) {
	p, err := s.gw.GetProfile(ctx, profileID)
	if err != nil {
		return Invitations{}, err
	}
	sent, err := s.gw.ListSentInvitations(ctx, profileID)
	if err != nil {
		return Invitations{}, err
	}
	received, err := s.gw.ListReceivedInvitations(ctx, p.Email)
	if err != nil {
		return Invitations{}, err
	}
	now := s.now()
	return Invitations{Sent: withEffectiveStatus(sent, now), Received: withEffectiveStatus(received, now)}, nil
}

func withEffectiveStatus(invs []core.Invitation, now time.Time) []core.Invitation {
	out := make([]core.Invitation, len(invs))
	for i, inv := range invs {
		inv.Status = inv.EffectiveStatus(now)
		out[i] = inv
	}
	return out
}

// CoupleView is a couple seen from one member.
type CoupleView struct {
	Couple  core.Couple  `json:"couple"`
	Partner core.Profile `json:"partner"`
}

func (s *InvitationService) CoupleOf(ctx context.Context, profileID string) (CoupleView, error) {
	c, err := s.gw.FindCoupleByMember(ctx, profileID)
	if err != nil {
		return CoupleView{}, err
	}
	partner, err := s.gw.GetProfile(ctx, c.PartnerOf(profileID))
	if err != nil {
		return CoupleView{}, err
	}
	return CoupleView{Couple: c, Partner: partner}, nil
}
